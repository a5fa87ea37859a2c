package types

import (
	"time"

	"github.com/uptrace/bun"
)

// GlobalChatID as a block's chat ID blocks the user in every chat.
const GlobalChatID int64 = 0

// BlockEntry keeps a user from playing until EndTime.
type BlockEntry struct {
	bun.BaseModel `bun:"table:blocks,alias:blk"`

	UserID    int64     `bun:",pk"`
	ChatID    int64     `bun:",pk"`
	Reason    string    `bun:",notnull"`
	EndTime   time.Time `bun:",notnull"`
	CreatedBy int64     `bun:",notnull"`
	CreatedAt time.Time `bun:",notnull"`
}

// Active reports whether the block still applies at now.
func (b *BlockEntry) Active(now time.Time) bool {
	return now.Before(b.EndTime)
}
