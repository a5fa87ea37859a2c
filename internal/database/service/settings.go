package service

import "time"

// Settings carries the configuration the services need from outside the database.
type Settings struct {
	// Location decides where day and week buckets start.
	Location *time.Location
	// AdminIDs are admins from config, merged with the admins table.
	AdminIDs []int64
	// BlockedIDs are never scored, in any chat.
	BlockedIDs []int64
}

func (s Settings) location() *time.Location {
	if s.Location == nil {
		return time.UTC
	}

	return s.Location
}

func idSet(ids []int64) map[int64]struct{} {
	set := make(map[int64]struct{}, len(ids))
	for _, id := range ids {
		set[id] = struct{}{}
	}

	return set
}
