// Package export writes chat counters to standalone files for offline analysis.
package export

import (
	"cmp"
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"slices"
	"time"

	"github.com/bytedance/sonic"
	"github.com/luckyroll/casino/internal/database/models"
	"github.com/luckyroll/casino/internal/database/service"
	"github.com/luckyroll/casino/internal/database/types/enum"
	"github.com/luckyroll/casino/internal/export/csv"
	"github.com/luckyroll/casino/internal/export/sqlite"
	"github.com/luckyroll/casino/internal/export/types"
)

var ErrUnsupportedFormat = errors.New("unsupported export format")

// Format represents a supported export format.
type Format string

const (
	FormatSQLite Format = "sqlite"
	FormatCSV    Format = "csv"
)

// EngineVersion changes whenever the layout of the exported files changes.
const EngineVersion = "1.0.0"

// Metadata is written next to the exported files.
type Metadata struct {
	EngineVersion string    `json:"engineVersion"`
	ExportedAt    time.Time `json:"exportedAt"`
	ChatID        *int64    `json:"chatId,omitempty"`
	Records       int       `json:"records"`
	Formats       []Format  `json:"formats"`
}

// Exporter collects counters from the store and writes them in each format.
type Exporter struct {
	stats   *service.StatsService
	users   *models.UserModel
	outDir  string
	formats []Format
}

// New creates a new exporter. With no formats given every format is written.
func New(stats *service.StatsService, users *models.UserModel, outDir string, formats ...Format) *Exporter {
	if len(formats) == 0 {
		formats = []Format{FormatSQLite, FormatCSV}
	}

	return &Exporter{
		stats:   stats,
		users:   users,
		outDir:  outDir,
		formats: formats,
	}
}

// Export writes the counters of one chat, or of every chat when chatID is nil.
func (e *Exporter) Export(ctx context.Context, chatID *int64) (*Metadata, error) {
	if err := os.MkdirAll(e.outDir, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create output directory: %w", err)
	}

	records, err := e.collect(ctx, chatID)
	if err != nil {
		return nil, err
	}

	for _, format := range e.formats {
		if err := e.export(format, records); err != nil {
			return nil, fmt.Errorf("failed to export %s format: %w", format, err)
		}
	}

	meta := &Metadata{
		EngineVersion: EngineVersion,
		ExportedAt:    time.Now().UTC(),
		ChatID:        chatID,
		Records:       len(records),
		Formats:       e.formats,
	}

	data, err := sonic.ConfigStd.MarshalIndent(meta, "", "    ")
	if err != nil {
		return nil, fmt.Errorf("failed to marshal export metadata: %w", err)
	}

	if err := os.WriteFile(filepath.Join(e.outDir, "export.json"), data, 0o600); err != nil {
		return nil, fmt.Errorf("failed to write export metadata: %w", err)
	}

	return meta, nil
}

type recordKey struct {
	userID, chatID int64
	game           enum.Game
}

// collect joins the three counter tables into one record per user, chat and
// game. Games a user never rolled are left out.
func (e *Exporter) collect(ctx context.Context, chatID *int64) ([]*types.Record, error) {
	byKey := make(map[recordKey]*types.Record)
	userIDs := make(map[int64]struct{})

	for _, table := range enum.CounterTableValues() {
		rows, err := e.stats.GetAllCounters(ctx, table, chatID)
		if err != nil {
			return nil, err
		}

		for _, row := range rows {
			for game, value := range row.Values {
				if value == 0 {
					continue
				}

				key := recordKey{userID: row.UserID, chatID: row.ChatID, game: game}

				record, ok := byKey[key]
				if !ok {
					record = &types.Record{UserID: row.UserID, ChatID: row.ChatID, Game: game.String()}
					byKey[key] = record
				}

				switch table {
				case enum.CounterTableTries:
					record.Tries = value
				case enum.CounterTableWins:
					record.Wins = value
				case enum.CounterTableJackpots:
					record.Jackpots = value
				}

				userIDs[row.UserID] = struct{}{}
			}
		}
	}

	ids := make([]int64, 0, len(userIDs))
	for id := range userIDs {
		ids = append(ids, id)
	}

	users, err := e.users.GetByIDs(ctx, ids)
	if err != nil {
		return nil, fmt.Errorf("failed to get users: %w", err)
	}

	records := make([]*types.Record, 0, len(byKey))

	for _, record := range byKey {
		if user, ok := users[record.UserID]; ok {
			record.Name = user.Name
		}

		records = append(records, record)
	}

	slices.SortFunc(records, func(a, b *types.Record) int {
		return cmp.Or(
			cmp.Compare(a.ChatID, b.ChatID),
			cmp.Compare(a.UserID, b.UserID),
			cmp.Compare(gameOrder(a.Game), gameOrder(b.Game)),
		)
	})

	return records, nil
}

func gameOrder(name string) enum.Game {
	g, _ := enum.GameString(name)
	return g
}

// export handles exporting data in the specified format.
func (e *Exporter) export(format Format, records []*types.Record) error {
	var exporter interface {
		Export(records []*types.Record) error
	}

	switch format {
	case FormatSQLite:
		exporter = sqlite.New(e.outDir)
	case FormatCSV:
		exporter = csv.New(e.outDir)
	default:
		return fmt.Errorf("%w: %s", ErrUnsupportedFormat, format)
	}

	return exporter.Export(records)
}
