package services

import (
	"encoding/csv"
	"fmt"
	"io"
	"time"

	"HibernateBot/models"
)

// LedgerReader is the read-only slice of the store the reporting layer
// uses. Reports are point-in-time reads with no platform side effects.
type LedgerReader interface {
	ListByGuild(guildID string) ([]models.MemberRecord, error)
	ListAll() ([]models.MemberRecord, error)
	CountDormant(guildID string) (int64, error)
}

type Reporter struct {
	store LedgerReader
}

func NewReporter(store LedgerReader) *Reporter {
	return &Reporter{store: store}
}

// DormantCount returns how many tracked members of the guild currently
// hold the dormant label.
func (r *Reporter) DormantCount(guildID string) (int64, error) {
	return r.store.CountDormant(guildID)
}

// ListMembers returns the guild's records whose last offline sighting is
// at least minDays whole days old. Members never observed offline are
// excluded.
func (r *Reporter) ListMembers(guildID string, minDays int) ([]models.MemberRecord, error) {
	records, err := r.store.ListByGuild(guildID)
	if err != nil {
		return nil, err
	}

	now := time.Now().UTC()
	filtered := make([]models.MemberRecord, 0, len(records))
	for _, rec := range records {
		if rec.LastSeen == nil {
			continue
		}
		if rec.ElapsedDays(now) >= minDays {
			filtered = append(filtered, rec)
		}
	}
	return filtered, nil
}

// WriteCSV dumps the whole ledger as CSV and returns the row count. The
// column set matches the persisted layout: guild, member, last seen as an
// ISO-8601 UTC timestamp (empty when never observed), dormant flag as 0/1.
func (r *Reporter) WriteCSV(w io.Writer) (int, error) {
	records, err := r.store.ListAll()
	if err != nil {
		return 0, err
	}

	cw := csv.NewWriter(w)
	if err := cw.Write([]string{"Guild_ID", "Member_ID", "Last_Seen", "Dormant"}); err != nil {
		return 0, fmt.Errorf("write csv header: %w", err)
	}

	for _, rec := range records {
		lastSeen := ""
		if rec.LastSeen != nil {
			lastSeen = rec.LastSeen.UTC().Format(time.RFC3339)
		}
		dormant := "0"
		if rec.Dormant {
			dormant = "1"
		}
		if err := cw.Write([]string{rec.GuildID, rec.MemberID, lastSeen, dormant}); err != nil {
			return 0, fmt.Errorf("write csv row: %w", err)
		}
	}

	cw.Flush()
	if err := cw.Error(); err != nil {
		return 0, fmt.Errorf("flush csv: %w", err)
	}
	return len(records), nil
}
