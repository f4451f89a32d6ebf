// Package tasks holds the background jobs registered by the service.
package tasks

import (
	"context"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/filmlink/filmlink/internal/scheduler"
)

const ProviderCheckID = "provider-check"

// Tester checks that the metadata provider is reachable.
type Tester interface {
	IsConfigured() bool
	Test(ctx context.Context) error
}

// ProviderStatus is the outcome of the most recent reachability check.
type ProviderStatus struct {
	Checked   bool      `json:"checked"`
	CheckedAt time.Time `json:"checkedAt,omitzero"`
	Reachable bool      `json:"reachable"`
	Error     string    `json:"error,omitempty"`
}

// ProviderCheckTask periodically tests the metadata provider and keeps the
// last result for the status endpoint.
type ProviderCheckTask struct {
	provider Tester
	now      func() time.Time
	logger   zerolog.Logger

	mu     sync.RWMutex
	status ProviderStatus
}

// NewProviderCheckTask creates the provider reachability task.
func NewProviderCheckTask(provider Tester, logger zerolog.Logger) *ProviderCheckTask {
	return &ProviderCheckTask{
		provider: provider,
		now:      time.Now,
		logger:   logger.With().Str("task", ProviderCheckID).Logger(),
	}
}

// Run tests the provider once. An unconfigured provider is skipped.
func (t *ProviderCheckTask) Run(ctx context.Context) error {
	if !t.provider.IsConfigured() {
		t.logger.Debug().Msg("Provider not configured, skipping check")
		return nil
	}

	err := t.provider.Test(ctx)
	status := ProviderStatus{Checked: true, CheckedAt: t.now(), Reachable: err == nil}
	if err != nil {
		status.Error = err.Error()
	}

	t.mu.Lock()
	wasReachable := t.status.Reachable || !t.status.Checked
	t.status = status
	t.mu.Unlock()

	switch {
	case err != nil && wasReachable:
		t.logger.Warn().Err(err).Msg("Metadata provider unreachable")
	case err == nil && !wasReachable:
		t.logger.Info().Msg("Metadata provider reachable again")
	}
	return err
}

// Status returns the last recorded result.
func (t *ProviderCheckTask) Status() ProviderStatus {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return t.status
}

// RegisterProviderCheckTask registers the task to run every interval.
// A zero interval leaves the task unregistered.
func RegisterProviderCheckTask(sched *scheduler.Scheduler, task *ProviderCheckTask, interval time.Duration) error {
	if interval <= 0 {
		return nil
	}
	return sched.RegisterTask(scheduler.TaskConfig{
		ID:          ProviderCheckID,
		Name:        "Provider Check",
		Description: "Tests connectivity to the TMDB API",
		Interval:    interval,
		RunOnStart:  true,
		Func:        task.Run,
	})
}
