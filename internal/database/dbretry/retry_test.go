package dbretry_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/luckyroll/casino/internal/database/dbretry"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func init() {
	dbretry.SetPolicy(dbretry.Policy{
		MaxElapsedTime:  time.Second,
		InitialInterval: time.Millisecond,
		MaxInterval:     5 * time.Millisecond,
		MaxRetries:      3,
	})
}

func TestOperationRetriesLockedDatabase(t *testing.T) {
	t.Parallel()

	calls := 0
	got, err := dbretry.Operation(t.Context(), func(context.Context) (int, error) {
		calls++
		if calls < 3 {
			return 0, errors.New("database is locked (5) (SQLITE_BUSY)")
		}

		return 42, nil
	})

	require.NoError(t, err)
	assert.Equal(t, 42, got)
	assert.Equal(t, 3, calls)
}

func TestNoResultStopsOnPermanentError(t *testing.T) {
	t.Parallel()

	sentinel := errors.New("constraint failed")
	calls := 0

	err := dbretry.NoResult(t.Context(), func(context.Context) error {
		calls++
		return sentinel
	})

	require.ErrorIs(t, err, sentinel)
	assert.Equal(t, 1, calls)
}

func TestNoResultGivesUp(t *testing.T) {
	t.Parallel()

	calls := 0
	err := dbretry.NoResult(t.Context(), func(context.Context) error {
		calls++
		return errors.New("connection refused")
	})

	require.Error(t, err)
	assert.Contains(t, err.Error(), "connection refused")
	assert.Equal(t, 4, calls)
}

func TestIsMissingTable(t *testing.T) {
	t.Parallel()

	assert.True(t, dbretry.IsMissingTable(errors.New("SQL logic error: no such table: wins (1)")))
	assert.False(t, dbretry.IsMissingTable(errors.New("UNIQUE constraint failed")))
	assert.False(t, dbretry.IsMissingTable(nil))
	assert.False(t, dbretry.IsRetryableError(context.Canceled))
}
