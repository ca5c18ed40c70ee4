package config

import (
	"fmt"
	"os"
	"sync"

	"HibernateBot/logger"

	"github.com/spf13/viper"
)

const (
	keyInactiveDays = "inactive_days"
	keyAutoDelete   = "auto_delete_enabled"

	defaultInactiveDays = 30
	defaultAutoDelete   = true
)

// Runtime holds the operator-mutable settings that must survive restarts:
// the inactivity threshold in days and the auto-delete toggle. Every
// mutation is written back to the config file immediately. Administrative
// commands are serialized by the single-process assumption, but reads come
// from the reconciler and the cleanup scheduler concurrently, so access is
// guarded anyway.
type Runtime struct {
	mu sync.RWMutex
	v  *viper.Viper
}

// LoadRuntime reads the runtime settings document at path, creating it
// with documented defaults (30 days, auto-delete on) when absent.
func LoadRuntime(path string) (*Runtime, error) {
	v := viper.New()
	v.SetConfigFile(path)
	v.SetConfigType("json")
	v.SetDefault(keyInactiveDays, defaultInactiveDays)
	v.SetDefault(keyAutoDelete, defaultAutoDelete)

	if err := v.ReadInConfig(); err != nil {
		if !os.IsNotExist(err) {
			if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
				return nil, fmt.Errorf("failed to read runtime config %s: %w", path, err)
			}
		}
		logger.Log.Infof("Runtime config %s not found, writing defaults", path)
		if err := v.WriteConfigAs(path); err != nil {
			return nil, fmt.Errorf("failed to write default runtime config %s: %w", path, err)
		}
	}

	return &Runtime{v: v}, nil
}

// InactiveDays returns the dormancy threshold in whole days, always >= 1.
func (r *Runtime) InactiveDays() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	days := r.v.GetInt(keyInactiveDays)
	if days < 1 {
		return defaultInactiveDays
	}
	return days
}

// SetInactiveDays updates and persists the dormancy threshold.
func (r *Runtime) SetInactiveDays(days int) error {
	if days < 1 {
		return fmt.Errorf("inactive days must be at least 1, got %d", days)
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	r.v.Set(keyInactiveDays, days)
	if err := r.v.WriteConfig(); err != nil {
		return fmt.Errorf("failed to persist inactive days: %w", err)
	}
	logger.Log.Infof("Inactivity threshold set to %d days", days)
	return nil
}

func (r *Runtime) AutoDeleteEnabled() bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.v.GetBool(keyAutoDelete)
}

// ToggleAutoDelete flips the auto-delete setting, persists it, and returns
// the new value.
func (r *Runtime) ToggleAutoDelete() (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	enabled := !r.v.GetBool(keyAutoDelete)
	r.v.Set(keyAutoDelete, enabled)
	if err := r.v.WriteConfig(); err != nil {
		return !enabled, fmt.Errorf("failed to persist auto-delete setting: %w", err)
	}
	logger.Log.Infof("Auto-delete set to %v", enabled)
	return enabled, nil
}
