// Package models holds one model per table. Methods suffixed WithTx run on the
// given bun.IDB and leave retries to the caller's transaction.
package models

import (
	"context"

	"github.com/luckyroll/casino/internal/database/dbretry"
	"github.com/uptrace/bun"
)

// Scope narrows deletes to a user, a chat, both, or everything when both are nil.
type Scope struct {
	UserID *int64
	ChatID *int64
}

// apply adds the scope filters to a delete query.
func (s Scope) apply(q *bun.DeleteQuery) *bun.DeleteQuery {
	if s.UserID == nil && s.ChatID == nil {
		return q.Where("1 = 1")
	}

	if s.UserID != nil {
		q = q.Where("user_id = ?", *s.UserID)
	}

	if s.ChatID != nil {
		q = q.Where("chat_id = ?", *s.ChatID)
	}

	return q
}

// readOrEmpty runs a read with retries and turns a missing table into the zero value.
func readOrEmpty[T any](ctx context.Context, op func(context.Context) (T, error)) (T, error) {
	result, err := dbretry.Operation(ctx, op)
	if dbretry.IsMissingTable(err) {
		var zero T
		return zero, nil
	}

	return result, err
}

// deleteOrSkip runs a delete with retries and treats a missing table as nothing to delete.
func deleteOrSkip(ctx context.Context, q *bun.DeleteQuery) (int64, error) {
	return readOrEmpty(ctx, func(ctx context.Context) (int64, error) {
		res, err := q.Exec(ctx)
		if err != nil {
			return 0, err
		}

		return res.RowsAffected()
	})
}
