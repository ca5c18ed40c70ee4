package services

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"HibernateBot/errorhandler"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeDeleter struct {
	mu      sync.Mutex
	deleted []string // "channel/message"
	errs    map[string]error
}

func newFakeDeleter() *fakeDeleter {
	return &fakeDeleter{errs: make(map[string]error)}
}

func (f *fakeDeleter) DeleteMessage(ctx context.Context, channelID, messageID string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.errs[messageID]; err != nil {
		return err
	}
	f.deleted = append(f.deleted, channelID+"/"+messageID)
	return nil
}

func (f *fakeDeleter) calls() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]string(nil), f.deleted...)
}

const testDelay = 30 * time.Millisecond

func newTestScheduler(t *testing.T, deleter *fakeDeleter) *CleanupScheduler {
	t.Helper()
	sched := NewCleanupScheduler(deleter, newTestRuntime(t), testDelay)
	t.Cleanup(sched.Stop)
	return sched
}

func waitForDeletes(t *testing.T, deleter *fakeDeleter, want int) {
	t.Helper()
	require.Eventually(t, func() bool {
		return len(deleter.calls()) >= want
	}, time.Second, 5*time.Millisecond)
}

func TestScheduleDeletesAfterDelay(t *testing.T) {
	deleter := newFakeDeleter()
	sched := newTestScheduler(t, deleter)

	sched.Schedule("ch", "m1")
	assert.Empty(t, deleter.calls(), "deletion must not be immediate")

	waitForDeletes(t, deleter, 1)
	assert.Equal(t, []string{"ch/m1"}, deleter.calls())
	assert.Equal(t, 0, sched.PendingCount())
}

func TestDebounceOnlyNewestSurvives(t *testing.T) {
	deleter := newFakeDeleter()
	sched := newTestScheduler(t, deleter)

	sched.Schedule("ch", "m1")
	sched.Schedule("ch", "m2")
	assert.Equal(t, 1, sched.PendingCount(), "at most one timer per channel")

	waitForDeletes(t, deleter, 1)
	time.Sleep(2 * testDelay) // long enough for a leaked m1 timer to fire
	assert.Equal(t, []string{"ch/m2"}, deleter.calls(), "the superseded deletion must never fire")
}

func TestIndependentChannels(t *testing.T) {
	deleter := newFakeDeleter()
	sched := newTestScheduler(t, deleter)

	sched.Schedule("ch1", "m1")
	sched.Schedule("ch2", "m2")
	assert.Equal(t, 2, sched.PendingCount())

	waitForDeletes(t, deleter, 2)
	assert.ElementsMatch(t, []string{"ch1/m1", "ch2/m2"}, deleter.calls())
}

func TestCancelPreventsDeletion(t *testing.T) {
	deleter := newFakeDeleter()
	sched := newTestScheduler(t, deleter)

	sched.Schedule("ch", "m1")
	sched.Cancel("ch")

	time.Sleep(3 * testDelay)
	assert.Empty(t, deleter.calls())
	assert.Equal(t, 0, sched.PendingCount())
}

func TestAutoDeleteDisabled(t *testing.T) {
	deleter := newFakeDeleter()
	runtime := newTestRuntime(t)
	_, err := runtime.ToggleAutoDelete() // defaults to on; flip off
	require.NoError(t, err)

	sched := NewCleanupScheduler(deleter, runtime, testDelay)
	t.Cleanup(sched.Stop)

	sched.Schedule("ch", "m1")
	assert.Equal(t, 0, sched.PendingCount())

	time.Sleep(3 * testDelay)
	assert.Empty(t, deleter.calls())
}

func TestAlreadyDeletedIsBenign(t *testing.T) {
	deleter := newFakeDeleter()
	deleter.errs["gone"] = errorhandler.NewError(errorhandler.NotFoundError,
		errors.New("unknown message"), "message delete", "already gone")
	sched := newTestScheduler(t, deleter)

	sched.Schedule("ch", "gone")

	// The timer fires, the not-found is swallowed, and the handle is
	// released either way.
	require.Eventually(t, func() bool {
		return sched.PendingCount() == 0
	}, time.Second, 5*time.Millisecond)
	assert.Empty(t, deleter.calls())
}

func TestReportPostedDeletesPrevious(t *testing.T) {
	deleter := newFakeDeleter()
	sched := newTestScheduler(t, deleter)

	sched.ReportPosted("ch", "report1")
	time.Sleep(2 * testDelay)
	assert.Empty(t, deleter.calls(), "the first report has nothing to replace")

	sched.ReportPosted("ch", "report2")
	waitForDeletes(t, deleter, 1)
	assert.Equal(t, []string{"ch/report1"}, deleter.calls())
}

func TestChannelActiveFlushesTrackedReport(t *testing.T) {
	deleter := newFakeDeleter()
	sched := newTestScheduler(t, deleter)

	sched.ReportPosted("ch", "report1")
	sched.ChannelActive("ch")
	waitForDeletes(t, deleter, 1)
	assert.Equal(t, []string{"ch/report1"}, deleter.calls())

	// The report is only flushed once.
	sched.ChannelActive("ch")
	time.Sleep(2 * testDelay)
	assert.Equal(t, []string{"ch/report1"}, deleter.calls())
}

func TestStopCancelsEverything(t *testing.T) {
	deleter := newFakeDeleter()
	sched := newTestScheduler(t, deleter)

	sched.Schedule("ch1", "m1")
	sched.Schedule("ch2", "m2")
	sched.Stop()

	time.Sleep(3 * testDelay)
	assert.Empty(t, deleter.calls())
	assert.Equal(t, 0, sched.PendingCount())
}
