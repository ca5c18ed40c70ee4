package services

import (
	"context"
	"sync"
	"time"

	"HibernateBot/config"
	"HibernateBot/errorhandler"
	"HibernateBot/logger"
)

// CleanupScheduler owns the per-channel delete timers for ephemeral report
// messages. Scheduling a deletion for a channel that already has one
// pending cancels the old timer first, so at most one timer is outstanding
// per channel at any instant. The short delay keeps channels tidy without
// hammering Discord with immediate deletes.
type CleanupScheduler struct {
	deleter MessageDeleter
	runtime *config.Runtime
	delay   time.Duration

	mu          sync.Mutex
	timers      map[string]*timerHandle
	lastReports map[string]string // channel ID -> most recent report message ID
}

type timerHandle struct {
	timer     *time.Timer
	messageID string
}

func NewCleanupScheduler(deleter MessageDeleter, runtime *config.Runtime, delay time.Duration) *CleanupScheduler {
	return &CleanupScheduler{
		deleter:     deleter,
		runtime:     runtime,
		delay:       delay,
		timers:      make(map[string]*timerHandle),
		lastReports: make(map[string]string),
	}
}

// Schedule arms a delayed deletion of messageID in channelID, superseding
// any deletion already pending for the channel. The superseded timer never
// fires. No-op while auto-delete is switched off.
func (c *CleanupScheduler) Schedule(channelID, messageID string) {
	if !c.runtime.AutoDeleteEnabled() {
		return
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	if handle, ok := c.timers[channelID]; ok {
		handle.timer.Stop()
	}

	handle := &timerHandle{messageID: messageID}
	handle.timer = time.AfterFunc(c.delay, func() {
		c.fire(channelID, handle)
	})
	c.timers[channelID] = handle
}

// fire runs when a timer elapses. A handle that is no longer the channel's
// registered one was superseded after the timer had already started
// firing; it must not delete anything.
func (c *CleanupScheduler) fire(channelID string, handle *timerHandle) {
	c.mu.Lock()
	current, ok := c.timers[channelID]
	if !ok || current != handle {
		c.mu.Unlock()
		return
	}
	delete(c.timers, channelID)
	c.mu.Unlock()

	err := c.deleter.DeleteMessage(context.Background(), channelID, handle.messageID)
	if err != nil && !errorhandler.IsNotFound(err) {
		logger.Log.WithError(err).Warnf("Failed to delete old report %s in channel %s", handle.messageID, channelID)
		return
	}
	logger.Log.Debugf("Deleted old report %s in channel %s", handle.messageID, channelID)
}

// ReportPosted records messageID as the channel's current report and
// schedules deletion of the report it replaces, if any.
func (c *CleanupScheduler) ReportPosted(channelID, messageID string) {
	c.mu.Lock()
	previous := c.lastReports[channelID]
	c.lastReports[channelID] = messageID
	c.mu.Unlock()

	if previous != "" && previous != messageID {
		c.Schedule(channelID, previous)
	}
}

// ChannelActive schedules deletion of the channel's tracked report in
// response to unrelated activity, clearing the tracking so the report is
// only scheduled once.
func (c *CleanupScheduler) ChannelActive(channelID string) {
	c.mu.Lock()
	tracked := c.lastReports[channelID]
	delete(c.lastReports, channelID)
	c.mu.Unlock()

	if tracked != "" {
		c.Schedule(channelID, tracked)
	}
}

// Cancel removes the pending deletion for a channel, if any.
func (c *CleanupScheduler) Cancel(channelID string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if handle, ok := c.timers[channelID]; ok {
		handle.timer.Stop()
		delete(c.timers, channelID)
	}
}

// Stop cancels every pending deletion. Used on shutdown.
func (c *CleanupScheduler) Stop() {
	c.mu.Lock()
	defer c.mu.Unlock()
	for channelID, handle := range c.timers {
		handle.timer.Stop()
		delete(c.timers, channelID)
	}
}

// PendingCount reports how many deletions are currently armed.
func (c *CleanupScheduler) PendingCount() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.timers)
}
