package export_test

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/bytedance/sonic"
	"github.com/luckyroll/casino/internal/database"
	"github.com/luckyroll/casino/internal/database/service"
	"github.com/luckyroll/casino/internal/database/types"
	"github.com/luckyroll/casino/internal/database/types/enum"
	"github.com/luckyroll/casino/internal/export"
	"github.com/luckyroll/casino/internal/export/csv"
	"github.com/luckyroll/casino/internal/export/sqlite"
	"github.com/luckyroll/casino/internal/setup/config"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	zsqlite "zombiezen.com/go/sqlite"
	"zombiezen.com/go/sqlite/sqlitex"
)

func TestExportChat(t *testing.T) {
	t.Parallel()

	cfg := &config.Database{
		Driver: config.DriverSQLite,
		SQLite: config.SQLite{Path: filepath.Join(t.TempDir(), "stats.db")},
	}

	client, err := database.NewConnection(t.Context(), cfg, service.Settings{}, zap.NewNop(), true)
	require.NoError(t, err)
	t.Cleanup(func() { _ = client.Close() })

	ctx := t.Context()
	stats := client.Service().Stats()
	now := time.Date(2026, 10, 15, 12, 0, 0, 0, time.UTC)

	_, err = client.Model().User().Ensure(ctx, 1, "alice", now)
	require.NoError(t, err)

	for _, rec := range []types.RollRecord{
		{UserID: 1, ChatID: -5, Game: enum.GameSlots, Outcome: enum.OutcomeJackpot, At: now},
		{UserID: 1, ChatID: -5, Game: enum.GameSlots, Outcome: enum.OutcomeLoss, At: now},
		{UserID: 1, ChatID: -5, Game: enum.GameDice, Outcome: enum.OutcomeWin, At: now},
		{UserID: 2, ChatID: -5, Game: enum.GameBowl, Outcome: enum.OutcomeLoss, At: now},
		{UserID: 1, ChatID: -9, Game: enum.GameDart, Outcome: enum.OutcomeLoss, At: now},
	} {
		_, err := stats.RecordRoll(ctx, rec)
		require.NoError(t, err)
	}

	dir := filepath.Join(t.TempDir(), "out")
	chatID := int64(-5)

	meta, err := export.New(stats, client.Model().User(), dir).Export(ctx, &chatID)
	require.NoError(t, err)
	assert.Equal(t, 3, meta.Records)

	conn, err := zsqlite.OpenConn(filepath.Join(dir, sqlite.FileName), zsqlite.OpenReadOnly)
	require.NoError(t, err)
	defer conn.Close()

	var rows []string

	err = sqlitex.ExecuteTransient(conn,
		"SELECT name || ':' || game || ':' || tries || ':' || wins || ':' || jackpots FROM counters ORDER BY user_id, game",
		&sqlitex.ExecOptions{
			ResultFunc: func(stmt *zsqlite.Stmt) error {
				rows = append(rows, stmt.ColumnText(0))
				return nil
			},
		})
	require.NoError(t, err)
	assert.Equal(t, []string{"alice:dice:1:1:0", "alice:slots:2:1:1", ":bowl:1:0:0"}, rows)

	_, err = os.Stat(filepath.Join(dir, csv.FileName))
	require.NoError(t, err)

	data, err := os.ReadFile(filepath.Join(dir, "export.json"))
	require.NoError(t, err)

	var written export.Metadata
	require.NoError(t, sonic.Unmarshal(data, &written))
	assert.Equal(t, export.EngineVersion, written.EngineVersion)
	assert.Equal(t, &chatID, written.ChatID)
}

func TestExportUnsupportedFormat(t *testing.T) {
	t.Parallel()

	cfg := &config.Database{
		Driver: config.DriverSQLite,
		SQLite: config.SQLite{Path: filepath.Join(t.TempDir(), "stats.db")},
	}

	client, err := database.NewConnection(t.Context(), cfg, service.Settings{}, zap.NewNop(), true)
	require.NoError(t, err)
	t.Cleanup(func() { _ = client.Close() })

	e := export.New(client.Service().Stats(), client.Model().User(), t.TempDir(), "parquet")
	_, err = e.Export(t.Context(), nil)
	require.ErrorIs(t, err, export.ErrUnsupportedFormat)
}
