package sqlite

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/luckyroll/casino/internal/export/types"
	"zombiezen.com/go/sqlite"
	"zombiezen.com/go/sqlite/sqlitex"
)

// FileName is the database file written into the output directory.
const FileName = "counters.db"

const batchSize = 1000

// Exporter writes counters to a standalone SQLite database.
type Exporter struct {
	outDir string
}

// New creates a new SQLite exporter instance.
func New(outDir string) *Exporter {
	return &Exporter{outDir: outDir}
}

// Export replaces counters.db with the given records.
func (e *Exporter) Export(records []*types.Record) error {
	path := filepath.Join(e.outDir, FileName)
	if err := os.Remove(path); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("failed to remove existing file %s: %w", FileName, err)
	}

	conn, err := sqlite.OpenConn(path, sqlite.OpenCreate|sqlite.OpenReadWrite)
	if err != nil {
		return fmt.Errorf("failed to open SQLite database: %w", err)
	}
	defer conn.Close()

	err = sqlitex.ExecuteScript(conn, `
		CREATE TABLE counters (
			user_id INTEGER NOT NULL,
			chat_id INTEGER NOT NULL,
			name TEXT NOT NULL,
			game TEXT NOT NULL,
			tries INTEGER NOT NULL,
			wins INTEGER NOT NULL,
			jackpots INTEGER NOT NULL,
			PRIMARY KEY (user_id, chat_id, game)
		);
		CREATE INDEX idx_counters_chat_game ON counters (chat_id, game);
	`, nil)
	if err != nil {
		return fmt.Errorf("failed to create schema: %w", err)
	}

	for i := 0; i < len(records); i += batchSize {
		end := min(i+batchSize, len(records))
		if err := insertBatch(conn, records[i:end]); err != nil {
			return err
		}
	}

	return nil
}

// insertBatch writes records in one transaction.
func insertBatch(conn *sqlite.Conn, records []*types.Record) (err error) {
	endFn, err := sqlitex.ImmediateTransaction(conn)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer endFn(&err)

	for _, r := range records {
		err = sqlitex.Execute(conn,
			"INSERT INTO counters (user_id, chat_id, name, game, tries, wins, jackpots) VALUES (?, ?, ?, ?, ?, ?, ?)",
			&sqlitex.ExecOptions{
				Args: []any{r.UserID, r.ChatID, r.Name, r.Game, r.Tries, r.Wins, r.Jackpots},
			})
		if err != nil {
			return fmt.Errorf("failed to insert record: %w", err)
		}
	}

	return nil
}
