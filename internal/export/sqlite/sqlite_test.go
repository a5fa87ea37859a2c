package sqlite_test

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/luckyroll/casino/internal/export/sqlite"
	"github.com/luckyroll/casino/internal/export/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	zsqlite "zombiezen.com/go/sqlite"
	"zombiezen.com/go/sqlite/sqlitex"
)

func readRecords(t *testing.T, path string) []*types.Record {
	t.Helper()

	conn, err := zsqlite.OpenConn(path, zsqlite.OpenReadOnly)
	require.NoError(t, err)
	defer conn.Close()

	var records []*types.Record

	err = sqlitex.ExecuteTransient(conn,
		"SELECT user_id, chat_id, name, game, tries, wins, jackpots FROM counters ORDER BY user_id, game",
		&sqlitex.ExecOptions{
			ResultFunc: func(stmt *zsqlite.Stmt) error {
				records = append(records, &types.Record{
					UserID:   stmt.ColumnInt64(0),
					ChatID:   stmt.ColumnInt64(1),
					Name:     stmt.ColumnText(2),
					Game:     stmt.ColumnText(3),
					Tries:    stmt.ColumnInt64(4),
					Wins:     stmt.ColumnInt64(5),
					Jackpots: stmt.ColumnInt64(6),
				})
				return nil
			},
		})
	require.NoError(t, err)

	return records
}

func TestExport(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		records []*types.Record
		wantErr bool
	}{
		{
			name: "basic export",
			records: []*types.Record{
				{UserID: 1, ChatID: -5, Name: "alice", Game: "dice", Tries: 10, Wins: 2},
				{UserID: 1, ChatID: -5, Name: "alice", Game: "slots", Tries: 30, Wins: 4, Jackpots: 1},
				{UserID: 2, ChatID: -5, Name: "bob's \"luck\"", Game: "bowl", Tries: 1},
			},
		},
		{
			name:    "empty export",
			records: []*types.Record{},
		},
		{
			name: "duplicate key",
			records: []*types.Record{
				{UserID: 1, ChatID: -5, Name: "alice", Game: "dice"},
				{UserID: 1, ChatID: -5, Name: "alice", Game: "dice"},
			},
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			dir := t.TempDir()

			err := sqlite.New(dir).Export(tt.records)
			if tt.wantErr {
				require.Error(t, err)
				return
			}

			require.NoError(t, err)

			got := readRecords(t, filepath.Join(dir, sqlite.FileName))
			assert.Len(t, got, len(tt.records))

			for i, want := range tt.records {
				assert.Equal(t, want, got[i])
			}
		})
	}
}

func TestExportOverwritesExistingFile(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, sqlite.FileName), []byte("not a database"), 0o644))

	records := []*types.Record{{UserID: 3, ChatID: -1, Name: "carol", Game: "foot", Tries: 2, Wins: 1}}
	require.NoError(t, sqlite.New(dir).Export(records))

	assert.Equal(t, records, readRecords(t, filepath.Join(dir, sqlite.FileName)))
}
