package csv_test

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/luckyroll/casino/internal/export/csv"
	"github.com/luckyroll/casino/internal/export/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestExport(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	records := []*types.Record{
		{UserID: 1, ChatID: -5, Name: "alice, the lucky", Game: "slots", Tries: 30, Wins: 4, Jackpots: 1},
		{UserID: 2, ChatID: -5, Name: "bob", Game: "dice", Tries: 3},
	}

	require.NoError(t, csv.New(dir).Export(records))

	data, err := os.ReadFile(filepath.Join(dir, csv.FileName))
	require.NoError(t, err)
	assert.Equal(t,
		"user_id,chat_id,name,game,tries,wins,jackpots\n"+
			"1,-5,\"alice, the lucky\",slots,30,4,1\n"+
			"2,-5,bob,dice,3,0,0\n",
		string(data))
}
