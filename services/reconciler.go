package services

import (
	"context"
	"errors"
	"sync"
	"time"

	"HibernateBot/config"
	"HibernateBot/errorhandler"
	"HibernateBot/ledger"
	"HibernateBot/logger"
	"HibernateBot/metrics"
	"HibernateBot/models"
)

const (
	// The pass yields after this many members so timers and the health
	// server keep running during a long sweep.
	yieldBatchSize = 100
	yieldPause     = 100 * time.Millisecond
)

// ErrPassInProgress is returned when a pass is requested while another one
// is still running. Only one full-roster pass may touch the ledger at a
// time.
var ErrPassInProgress = errors.New("a reconciliation pass is already in progress")

// Ledger is the slice of the activity store the reconciler needs.
type Ledger interface {
	Ping() error
	Get(memberID string) (*models.MemberRecord, error)
	UpsertLastSeen(memberID, guildID string, seenAt time.Time) error
	SetDormant(memberID string, dormant bool) error
}

// Reconciler sweeps every guild the bot is in, records offline sightings
// in the ledger, and grants the dormant role to members whose inactivity
// has crossed the configured threshold.
type Reconciler struct {
	store   Ledger
	roster  RosterProvider
	labels  LabelManager
	runtime *config.Runtime
	metrics *metrics.Metrics

	passMu sync.Mutex
}

func NewReconciler(store Ledger, roster RosterProvider, labels LabelManager, runtime *config.Runtime, m *metrics.Metrics) *Reconciler {
	return &Reconciler{
		store:   store,
		roster:  roster,
		labels:  labels,
		runtime: runtime,
		metrics: m,
	}
}

// RunPass performs one full reconciliation sweep.
//
// Only offline sightings refresh last_seen: a stored timestamp always
// means "confirmed offline as of this instant" and serves purely as the
// threshold baseline. An online member's clock is never advanced here.
//
// Eligibility is judged against the timestamp stored before this pass's
// refresh, so a member who has been offline for weeks is granted the role
// on the same pass that re-confirms them offline.
//
// onlyLongDormant restricts granting to members already at or past the
// full threshold. The default pass applies the same threshold, so both
// modes behave identically; the distinct entry point exists for operator
// clarity when re-checking.
//
// No single member's failure aborts the pass. The only pass-level failure
// is the ledger being unreachable at pass start.
func (r *Reconciler) RunPass(ctx context.Context, onlyLongDormant bool) (models.PassResult, error) {
	if !r.passMu.TryLock() {
		return models.PassResult{}, ErrPassInProgress
	}
	defer r.passMu.Unlock()

	if err := r.store.Ping(); err != nil {
		return models.PassResult{}, errorhandler.NewStorageError(err, "reconciliation pass start")
	}

	var result models.PassResult
	threshold := r.runtime.InactiveDays()
	now := time.Now().UTC()
	processed := 0

	logger.Log.Infof("Starting reconciliation pass (threshold=%d days, onlyLongDormant=%v)", threshold, onlyLongDormant)

	for _, guildID := range r.roster.GuildIDs() {
		members, err := r.roster.Roster(ctx, guildID)
		if err != nil {
			logger.Log.WithError(err).Warnf("Skipping guild %s for this pass", guildID)
			result.Errors++
			continue
		}

		for _, member := range members {
			if member.Bot {
				continue
			}
			result.Examined++

			processed++
			if processed%yieldBatchSize == 0 {
				select {
				case <-ctx.Done():
				case <-time.After(yieldPause):
				}
			}

			r.reconcileMember(ctx, guildID, member, now, threshold, &result)
		}
	}

	logger.Log.Infof("Reconciliation pass complete: examined=%d updated=%d granted=%d errors=%d",
		result.Examined, result.Updated, result.Granted, result.Errors)
	if r.metrics != nil {
		r.metrics.RecordPass(result)
	}
	return result, nil
}

func (r *Reconciler) reconcileMember(ctx context.Context, guildID string, member RosterMember, now time.Time, threshold int, result *models.PassResult) {
	record, err := r.store.Get(member.MemberID)
	if err != nil && !ledger.IsNotFound(err) {
		logger.Log.WithError(err).Errorf("Failed to read ledger record for member %s", member.MemberID)
		result.Errors++
		return
	}

	if member.Presence == models.PresenceInactive {
		if err := r.store.UpsertLastSeen(member.MemberID, guildID, now); err != nil {
			logger.Log.WithError(err).Errorf("Failed to record sighting for member %s", member.MemberID)
			result.Errors++
			return
		}
		result.Updated++
	}

	// First offline sighting or never seen offline: nothing to judge yet.
	if record == nil || record.LastSeen == nil || record.Dormant {
		return
	}

	// The long-dormant re-check applies the same threshold as the default
	// mode, so no extra filtering is needed here.
	days := record.ElapsedDays(now)
	if days < threshold {
		return
	}

	if err := r.labels.GrantLabel(ctx, guildID, member.MemberID); err != nil {
		switch {
		case errorhandler.IsNotFound(err):
			// Member left between roster read and grant; next pass
			// filters them out.
		case errorhandler.IsPermission(err):
			logger.Log.WithError(err).Warnf("Cannot grant dormant role to member %s, retrying next pass", member.MemberID)
			result.Errors++
		default:
			logger.Log.WithError(err).Errorf("Failed to grant dormant role to member %s", member.MemberID)
			result.Errors++
		}
		return
	}

	if err := r.store.SetDormant(member.MemberID, true); err != nil {
		logger.Log.WithError(err).Errorf("Failed to flag member %s dormant", member.MemberID)
		result.Errors++
		return
	}
	result.Granted++
	logger.Log.Infof("Granted dormant role to member %s after %d days offline", member.MemberID, days)
}

// Revoke is the manual reversal: take the role away and clear the flag.
// A member who already left the guild still gets their flag cleared.
func (r *Reconciler) Revoke(ctx context.Context, guildID, memberID string) error {
	if err := r.labels.RevokeLabel(ctx, guildID, memberID); err != nil && !errorhandler.IsNotFound(err) {
		return err
	}
	if err := r.store.SetDormant(memberID, false); err != nil && !ledger.IsNotFound(err) {
		return errorhandler.NewStorageError(err, "clearing dormant flag")
	}
	logger.Log.Infof("Revoked dormant role for member %s", memberID)
	return nil
}
