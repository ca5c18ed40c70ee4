// Package ledger is the durable store of per-member last-seen timestamps
// and dormant flags. It is pure data access; dormancy rules live in the
// reconciliation engine.
package ledger

import (
	"errors"
	"fmt"
	"time"

	"HibernateBot/models"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type Store struct {
	db *gorm.DB
}

func NewStore(db *gorm.DB) *Store {
	return &Store{db: db}
}

// Ping verifies the store is reachable. The reconciler calls it at pass
// start; an unreachable store there is the only pass-level fatal condition.
func (s *Store) Ping() error {
	sqlDB, err := s.db.DB()
	if err != nil {
		return fmt.Errorf("ledger unavailable: %w", err)
	}
	if err := sqlDB.Ping(); err != nil {
		return fmt.Errorf("ledger unavailable: %w", err)
	}
	return nil
}

// UpsertLastSeen inserts a record for the member or moves LastSeen forward
// on the existing one. The dormant flag is never touched by an upsert. The
// write is a single statement, so concurrent readers never observe a
// half-applied record.
func (s *Store) UpsertLastSeen(memberID, guildID string, seenAt time.Time) error {
	seenAt = seenAt.UTC()
	rec := models.MemberRecord{
		MemberID: memberID,
		GuildID:  guildID,
		LastSeen: &seenAt,
	}
	err := s.db.Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "member_id"}},
		DoUpdates: clause.AssignmentColumns([]string{"guild_id", "last_seen", "updated_at"}),
	}).Create(&rec).Error
	if err != nil {
		return fmt.Errorf("upsert last_seen for member %s: %w", memberID, err)
	}
	return nil
}

// Get fetches a member's record. Absence is reported via
// gorm.ErrRecordNotFound; use IsNotFound to test for it.
func (s *Store) Get(memberID string) (*models.MemberRecord, error) {
	var rec models.MemberRecord
	if err := s.db.Where("member_id = ?", memberID).First(&rec).Error; err != nil {
		return nil, err
	}
	return &rec, nil
}

// SetDormant updates the dormant flag. Writing the value already stored is
// a no-op, so repeated calls are safe.
func (s *Store) SetDormant(memberID string, dormant bool) error {
	result := s.db.Model(&models.MemberRecord{}).
		Where("member_id = ?", memberID).
		Update("dormant", dormant)
	if result.Error != nil {
		return fmt.Errorf("set dormant=%v for member %s: %w", dormant, memberID, result.Error)
	}
	if result.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}

// ListByGuild returns every record observed in the guild, stale rows
// included. Ordering is unspecified.
func (s *Store) ListByGuild(guildID string) ([]models.MemberRecord, error) {
	var recs []models.MemberRecord
	if err := s.db.Where("guild_id = ?", guildID).Find(&recs).Error; err != nil {
		return nil, fmt.Errorf("list members for guild %s: %w", guildID, err)
	}
	return recs, nil
}

// ListAll returns the whole table, used by the export path.
func (s *Store) ListAll() ([]models.MemberRecord, error) {
	var recs []models.MemberRecord
	if err := s.db.Find(&recs).Error; err != nil {
		return nil, fmt.Errorf("list all members: %w", err)
	}
	return recs, nil
}

// CountDormant returns how many members of the guild currently hold the
// dormant flag.
func (s *Store) CountDormant(guildID string) (int64, error) {
	var count int64
	err := s.db.Model(&models.MemberRecord{}).
		Where("guild_id = ? AND dormant = ?", guildID, true).
		Count(&count).Error
	if err != nil {
		return 0, fmt.Errorf("count dormant members for guild %s: %w", guildID, err)
	}
	return count, nil
}

func IsNotFound(err error) bool {
	return errors.Is(err, gorm.ErrRecordNotFound)
}
