package models

import (
	"time"

	"gorm.io/gorm"
)

// MemberRecord tracks the dormancy state of one guild member. A member has
// at most one row; re-observing them updates LastSeen in place. Rows are
// never deleted automatically, a member who leaves the guild just goes
// stale and is filtered against the live roster by the reporting layer.
type MemberRecord struct {
	gorm.Model
	MemberID string     `gorm:"uniqueIndex"` // Discord user ID, primary lookup key.
	GuildID  string     `gorm:"index"`       // Guild the member was observed in.
	LastSeen *time.Time // UTC instant the member was last confirmed offline, nil if never observed offline.
	Dormant  bool       `gorm:"default:false"` // True once the dormant role has been granted and not yet revoked.
}

// ElapsedDays returns the whole days since LastSeen, floored. Partial days
// never round up. Returns -1 when the member has no recorded sighting.
func (r *MemberRecord) ElapsedDays(now time.Time) int {
	if r.LastSeen == nil {
		return -1
	}
	d := now.UTC().Sub(r.LastSeen.UTC())
	if d < 0 {
		return 0
	}
	return int(d.Hours() / 24)
}

type Presence string

const (
	PresenceActive   Presence = "active"
	PresenceInactive Presence = "inactive"
	PresenceUnknown  Presence = "unknown"
)

// PassResult aggregates what one reconciliation pass did. A pass always
// returns a result, even under partial failure.
type PassResult struct {
	Examined int // Human members inspected across all guilds.
	Updated  int // LastSeen refreshes written to the ledger.
	Granted  int // Dormant roles granted this pass.
	Errors   int // Members or guilds skipped due to errors.
}
