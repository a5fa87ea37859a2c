package csv

import (
	"encoding/csv"
	"fmt"
	"os"
	"path/filepath"
	"strconv"

	"github.com/luckyroll/casino/internal/export/types"
)

// FileName is the csv file written into the output directory.
const FileName = "counters.csv"

// Exporter writes counters to a csv file.
type Exporter struct {
	outDir string
}

// New creates a new csv exporter instance.
func New(outDir string) *Exporter {
	return &Exporter{outDir: outDir}
}

// Export replaces counters.csv with the given records.
func (e *Exporter) Export(records []*types.Record) error {
	file, err := os.Create(filepath.Join(e.outDir, FileName))
	if err != nil {
		return fmt.Errorf("failed to create csv file: %w", err)
	}
	defer file.Close()

	writer := csv.NewWriter(file)

	if err := writer.Write([]string{"user_id", "chat_id", "name", "game", "tries", "wins", "jackpots"}); err != nil {
		return fmt.Errorf("failed to write header: %w", err)
	}

	for _, r := range records {
		if err := writer.Write([]string{
			strconv.FormatInt(r.UserID, 10),
			strconv.FormatInt(r.ChatID, 10),
			r.Name,
			r.Game,
			strconv.FormatInt(r.Tries, 10),
			strconv.FormatInt(r.Wins, 10),
			strconv.FormatInt(r.Jackpots, 10),
		}); err != nil {
			return fmt.Errorf("failed to write record: %w", err)
		}
	}

	writer.Flush()

	if err := writer.Error(); err != nil {
		return fmt.Errorf("failed to flush csv: %w", err)
	}

	return nil
}
