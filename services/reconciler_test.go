package services

import (
	"context"
	"errors"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"HibernateBot/config"
	"HibernateBot/errorhandler"
	"HibernateBot/metrics"
	"HibernateBot/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

type fakeLedger struct {
	mu         sync.Mutex
	records    map[string]*models.MemberRecord
	failUpsert map[string]error
	pingErr    error
}

func newFakeLedger() *fakeLedger {
	return &fakeLedger{
		records:    make(map[string]*models.MemberRecord),
		failUpsert: make(map[string]error),
	}
}

func (f *fakeLedger) Ping() error { return f.pingErr }

func (f *fakeLedger) Get(memberID string) (*models.MemberRecord, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	rec, ok := f.records[memberID]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	copied := *rec
	return &copied, nil
}

func (f *fakeLedger) UpsertLastSeen(memberID, guildID string, seenAt time.Time) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.failUpsert[memberID]; err != nil {
		return err
	}
	seenAt = seenAt.UTC()
	if rec, ok := f.records[memberID]; ok {
		rec.GuildID = guildID
		rec.LastSeen = &seenAt
		return nil
	}
	f.records[memberID] = &models.MemberRecord{
		MemberID: memberID,
		GuildID:  guildID,
		LastSeen: &seenAt,
	}
	return nil
}

func (f *fakeLedger) SetDormant(memberID string, dormant bool) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	rec, ok := f.records[memberID]
	if !ok {
		return gorm.ErrRecordNotFound
	}
	rec.Dormant = dormant
	return nil
}

func (f *fakeLedger) seed(memberID, guildID string, lastSeen time.Time, dormant bool) {
	seen := lastSeen.UTC()
	f.records[memberID] = &models.MemberRecord{
		MemberID: memberID,
		GuildID:  guildID,
		LastSeen: &seen,
		Dormant:  dormant,
	}
}

type fakeRoster struct {
	guilds   map[string][]RosterMember
	order    []string
	errs     map[string]error
	entered  chan struct{} // signals the single-flight test that a pass is mid-roster
	release  chan struct{}
	signaled bool
	signalMu sync.Mutex
}

func newFakeRoster() *fakeRoster {
	return &fakeRoster{
		guilds: make(map[string][]RosterMember),
		errs:   make(map[string]error),
	}
}

func (f *fakeRoster) add(guildID string, members ...RosterMember) {
	if _, ok := f.guilds[guildID]; !ok {
		f.order = append(f.order, guildID)
	}
	f.guilds[guildID] = append(f.guilds[guildID], members...)
}

func (f *fakeRoster) GuildIDs() []string { return f.order }

func (f *fakeRoster) Roster(ctx context.Context, guildID string) ([]RosterMember, error) {
	if f.entered != nil {
		f.signalMu.Lock()
		if !f.signaled {
			f.signaled = true
			close(f.entered)
		}
		f.signalMu.Unlock()
		<-f.release
	}
	if err := f.errs[guildID]; err != nil {
		return nil, err
	}
	return f.guilds[guildID], nil
}

type fakeLabels struct {
	mu      sync.Mutex
	granted []string
	revoked []string
	errs    map[string]error
}

func newFakeLabels() *fakeLabels {
	return &fakeLabels{errs: make(map[string]error)}
}

func (f *fakeLabels) GrantLabel(ctx context.Context, guildID, memberID string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.errs[memberID]; err != nil {
		return err
	}
	f.granted = append(f.granted, memberID)
	return nil
}

func (f *fakeLabels) RevokeLabel(ctx context.Context, guildID, memberID string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.errs[memberID]; err != nil {
		return err
	}
	f.revoked = append(f.revoked, memberID)
	return nil
}

func newTestRuntime(t *testing.T) *config.Runtime {
	t.Helper()
	runtime, err := config.LoadRuntime(filepath.Join(t.TempDir(), "config.json"))
	require.NoError(t, err)
	return runtime
}

func newTestReconciler(t *testing.T, store Ledger, roster RosterProvider, labels LabelManager) *Reconciler {
	t.Helper()
	return NewReconciler(store, roster, labels, newTestRuntime(t), metrics.New())
}

func daysAgo(d int) time.Time {
	return time.Now().UTC().Add(-time.Duration(d) * 24 * time.Hour)
}

func TestPassGrantsAtThreshold(t *testing.T) {
	store := newFakeLedger()
	roster := newFakeRoster()
	labels := newFakeLabels()

	// Threshold is the default 30 days. A is 31 days stale, B only 10,
	// C has never been observed and is currently online.
	store.seed("A", "g1", daysAgo(31), false)
	store.seed("B", "g1", daysAgo(10), false)
	roster.add("g1",
		RosterMember{MemberID: "A", Presence: models.PresenceInactive},
		RosterMember{MemberID: "B", Presence: models.PresenceInactive},
		RosterMember{MemberID: "C", Presence: models.PresenceActive},
	)

	rec := newTestReconciler(t, store, roster, labels)
	result, err := rec.RunPass(context.Background(), false)
	require.NoError(t, err)

	assert.Equal(t, 3, result.Examined)
	assert.Equal(t, 2, result.Updated)
	assert.Equal(t, 1, result.Granted)
	assert.Equal(t, 0, result.Errors)
	assert.Equal(t, []string{"A"}, labels.granted)
	assert.True(t, store.records["A"].Dormant)
	assert.False(t, store.records["B"].Dormant)

	// Only inactive sightings create records: C stays untracked.
	_, hasC := store.records["C"]
	assert.False(t, hasC)
}

func TestThresholdBoundary(t *testing.T) {
	store := newFakeLedger()
	roster := newFakeRoster()
	labels := newFakeLabels()

	// Exactly at the threshold is eligible; one hour short of it floors
	// to 29 days and is not.
	store.seed("at", "g1", daysAgo(30), false)
	store.seed("under", "g1", daysAgo(30).Add(time.Hour), false)
	roster.add("g1",
		RosterMember{MemberID: "at", Presence: models.PresenceInactive},
		RosterMember{MemberID: "under", Presence: models.PresenceInactive},
	)

	rec := newTestReconciler(t, store, roster, labels)
	result, err := rec.RunPass(context.Background(), false)
	require.NoError(t, err)

	assert.Equal(t, 1, result.Granted)
	assert.Equal(t, []string{"at"}, labels.granted)
}

func TestNoDoubleGrant(t *testing.T) {
	store := newFakeLedger()
	roster := newFakeRoster()
	labels := newFakeLabels()

	store.seed("A", "g1", daysAgo(60), true)
	roster.add("g1", RosterMember{MemberID: "A", Presence: models.PresenceInactive})

	rec := newTestReconciler(t, store, roster, labels)

	for i := 0; i < 2; i++ {
		result, err := rec.RunPass(context.Background(), false)
		require.NoError(t, err)
		assert.Equal(t, 0, result.Granted)
	}
	assert.Empty(t, labels.granted)
}

func TestPartialFailureIsolation(t *testing.T) {
	store := newFakeLedger()
	roster := newFakeRoster()
	labels := newFakeLabels()

	store.failUpsert["bad"] = errors.New("disk I/O error")
	roster.add("g1",
		RosterMember{MemberID: "ok1", Presence: models.PresenceInactive},
		RosterMember{MemberID: "bad", Presence: models.PresenceInactive},
		RosterMember{MemberID: "ok2", Presence: models.PresenceInactive},
	)

	rec := newTestReconciler(t, store, roster, labels)
	result, err := rec.RunPass(context.Background(), false)
	require.NoError(t, err, "one member's storage failure must not abort the pass")

	assert.Equal(t, 3, result.Examined)
	assert.Equal(t, 2, result.Updated)
	assert.Equal(t, 1, result.Errors)
	assert.Contains(t, store.records, "ok1")
	assert.Contains(t, store.records, "ok2")
	assert.NotContains(t, store.records, "bad")
}

func TestTransientGuildFailureSkipsGuild(t *testing.T) {
	store := newFakeLedger()
	roster := newFakeRoster()
	labels := newFakeLabels()

	roster.add("down", RosterMember{MemberID: "x", Presence: models.PresenceInactive})
	roster.errs["down"] = errorhandler.NewTransientError(errors.New("gateway hiccup"), "roster fetch")
	roster.add("up", RosterMember{MemberID: "y", Presence: models.PresenceInactive})

	rec := newTestReconciler(t, store, roster, labels)
	result, err := rec.RunPass(context.Background(), false)
	require.NoError(t, err)

	assert.Equal(t, 1, result.Examined)
	assert.Equal(t, 1, result.Errors)
	assert.Contains(t, store.records, "y")
	assert.NotContains(t, store.records, "x")
}

func TestPermissionFailureCountedAndRetriedNextPass(t *testing.T) {
	store := newFakeLedger()
	roster := newFakeRoster()
	labels := newFakeLabels()

	store.seed("A", "g1", daysAgo(45), false)
	roster.add("g1", RosterMember{MemberID: "A", Presence: models.PresenceInactive})
	labels.errs["A"] = errorhandler.NewPermissionError(errors.New("missing permissions"), "role grant")

	rec := newTestReconciler(t, store, roster, labels)
	result, err := rec.RunPass(context.Background(), false)
	require.NoError(t, err)

	assert.Equal(t, 0, result.Granted)
	assert.Equal(t, 1, result.Errors)
	assert.False(t, store.records["A"].Dormant, "flag must not be set when the grant failed")

	// The operator fixes permissions; the next pass succeeds.
	delete(labels.errs, "A")
	result, err = rec.RunPass(context.Background(), false)
	require.NoError(t, err)
	assert.Equal(t, 1, result.Granted)
	assert.True(t, store.records["A"].Dormant)
}

func TestBotsAreSkipped(t *testing.T) {
	store := newFakeLedger()
	roster := newFakeRoster()
	labels := newFakeLabels()

	roster.add("g1",
		RosterMember{MemberID: "human", Presence: models.PresenceInactive},
		RosterMember{MemberID: "beep", Bot: true, Presence: models.PresenceInactive},
	)

	rec := newTestReconciler(t, store, roster, labels)
	result, err := rec.RunPass(context.Background(), false)
	require.NoError(t, err)

	assert.Equal(t, 1, result.Examined)
	assert.NotContains(t, store.records, "beep")
}

func TestStorageUnavailableAtPassStart(t *testing.T) {
	store := newFakeLedger()
	store.pingErr = errors.New("database is locked")

	rec := newTestReconciler(t, store, newFakeRoster(), newFakeLabels())
	_, err := rec.RunPass(context.Background(), false)
	require.Error(t, err)
}

func TestSingleFlight(t *testing.T) {
	store := newFakeLedger()
	roster := newFakeRoster()
	roster.add("g1", RosterMember{MemberID: "A", Presence: models.PresenceInactive})
	roster.entered = make(chan struct{})
	roster.release = make(chan struct{})

	rec := newTestReconciler(t, store, roster, newFakeLabels())

	done := make(chan error, 1)
	go func() {
		_, err := rec.RunPass(context.Background(), false)
		done <- err
	}()

	<-roster.entered
	_, err := rec.RunPass(context.Background(), false)
	assert.ErrorIs(t, err, ErrPassInProgress)

	close(roster.release)
	require.NoError(t, <-done)

	// The guard releases once the pass finishes.
	roster.entered = nil
	_, err = rec.RunPass(context.Background(), false)
	assert.NoError(t, err)
}

func TestRevokeClearsFlagAndRole(t *testing.T) {
	store := newFakeLedger()
	labels := newFakeLabels()
	store.seed("A", "g1", daysAgo(60), true)

	rec := newTestReconciler(t, store, newFakeRoster(), labels)
	require.NoError(t, rec.Revoke(context.Background(), "g1", "A"))

	assert.Equal(t, []string{"A"}, labels.revoked)
	assert.False(t, store.records["A"].Dormant)
}

func TestRevokeMemberWhoLeftStillClearsFlag(t *testing.T) {
	store := newFakeLedger()
	labels := newFakeLabels()
	store.seed("gone", "g1", daysAgo(60), true)
	labels.errs["gone"] = errorhandler.NewError(errorhandler.NotFoundError,
		errors.New("unknown member"), "role revoke", "member not found")

	rec := newTestReconciler(t, store, newFakeRoster(), labels)
	require.NoError(t, rec.Revoke(context.Background(), "g1", "gone"))
	assert.False(t, store.records["gone"].Dormant)
}
