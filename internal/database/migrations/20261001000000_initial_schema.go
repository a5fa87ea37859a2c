package migrations

import (
	"context"
	"fmt"

	"github.com/luckyroll/casino/internal/database/types"
	"github.com/uptrace/bun"
)

// schemaModels lists the tables in creation order.
var schemaModels = []any{
	(*types.User)(nil),
	(*types.Admin)(nil),
	(*types.TriesRow)(nil),
	(*types.WinsRow)(nil),
	(*types.JackpotsRow)(nil),
	(*types.DailyStat)(nil),
	(*types.WeeklyStat)(nil),
	(*types.WinStreak)(nil),
	(*types.BlockEntry)(nil),
}

func init() {
	Migrations.MustRegister(func(ctx context.Context, db *bun.DB) error {
		for _, model := range schemaModels {
			_, err := db.NewCreateTable().
				Model(model).
				IfNotExists().
				Exec(ctx)
			if err != nil {
				return fmt.Errorf("failed to create table %T: %w", model, err)
			}
		}

		return nil
	}, func(ctx context.Context, db *bun.DB) error {
		for i := len(schemaModels) - 1; i >= 0; i-- {
			_, err := db.NewDropTable().
				Model(schemaModels[i]).
				IfExists().
				Exec(ctx)
			if err != nil {
				return fmt.Errorf("failed to drop table %T: %w", schemaModels[i], err)
			}
		}

		return nil
	})
}
