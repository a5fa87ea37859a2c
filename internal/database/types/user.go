package types

import (
	"errors"
	"time"

	"github.com/uptrace/bun"
)

var ErrUserNotFound = errors.New("user not found")

// User is the identity row of a player. Resets never delete it.
type User struct {
	bun.BaseModel `bun:"table:users,alias:u"`

	ID           int64     `bun:",pk"      json:"id"`
	Name         string    `bun:",notnull" json:"name"`
	Congratulate bool      `bun:",notnull" json:"congratulate"`
	CreatedAt    time.Time `bun:",notnull" json:"createdAt"`
}

// Admin marks a user allowed to run destructive commands in any chat.
type Admin struct {
	bun.BaseModel `bun:"table:admins,alias:adm"`

	UserID  int64     `bun:",pk"`
	AddedAt time.Time `bun:",notnull"`
}
