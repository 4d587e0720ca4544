// Package maintenance tracks the storefront maintenance flag. A background
// poller refreshes the flag from the settings endpoint; readers always get
// the last known answer so a flaky backend never flips the banner on or off
// by itself.
package maintenance

import (
	"context"
	"fmt"
	"sync"
	"time"

	"go.uber.org/zap"

	"sribalafashion.in/web/internal/api"
)

// DefaultPollInterval matches the storefront's settings refresh cadence.
const DefaultPollInterval = 5 * time.Second

// StatusFetcher is the slice of the API client the poller needs.
type StatusFetcher interface {
	MaintenanceStatus(ctx context.Context) (api.MaintenanceState, error)
}

// Poller keeps the latest maintenance state.
type Poller struct {
	fetch    StatusFetcher
	log      *zap.Logger
	interval time.Duration

	mu    sync.RWMutex
	state api.MaintenanceState

	changeMu sync.Mutex
	onChange []func(api.MaintenanceState)
}

// New builds a poller. An interval of zero means Run fetches once and
// returns, which the tests use.
func New(fetch StatusFetcher, log *zap.Logger, interval time.Duration) *Poller {
	if log == nil {
		log = zap.NewNop()
	}
	return &Poller{fetch: fetch, log: log, interval: interval}
}

// OnChange registers a callback fired whenever the active flag flips.
func (p *Poller) OnChange(fn func(api.MaintenanceState)) {
	p.changeMu.Lock()
	p.onChange = append(p.onChange, fn)
	p.changeMu.Unlock()
}

// Run polls until the context is cancelled. The first fetch happens
// immediately so the initial page render has an answer.
func (p *Poller) Run(ctx context.Context) {
	p.refresh(ctx)
	if p.interval <= 0 {
		return
	}
	ticker := time.NewTicker(p.interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			p.refresh(ctx)
		}
	}
}

// refresh fetches the flag. A failed fetch keeps the previous state: stale
// is safer than flapping.
func (p *Poller) refresh(ctx context.Context) {
	state, err := p.fetch.MaintenanceStatus(ctx)
	if err != nil {
		p.log.Warn("maintenance status fetch failed", zap.Error(err))
		return
	}
	p.mu.Lock()
	changed := p.state.Active != state.Active
	p.state = state
	p.mu.Unlock()
	if changed {
		p.fireChange(state)
	}
}

// State returns the last known maintenance state.
func (p *Poller) State() api.MaintenanceState {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return p.state
}

// Active reports whether the storefront is under maintenance right now.
// The flag stays raised even after the local countdown reaches zero; only
// the backend clearing the flag ends maintenance.
func (p *Poller) Active() bool {
	return p.State().Active
}

func (p *Poller) fireChange(state api.MaintenanceState) {
	p.changeMu.Lock()
	fns := make([]func(api.MaintenanceState), len(p.onChange))
	copy(fns, p.onChange)
	p.changeMu.Unlock()
	for _, fn := range fns {
		fn(state)
	}
}

// RemainingAt renders the countdown to the scheduled end as seen at now.
// Hours are omitted when zero; an elapsed or unset end time renders empty.
func RemainingAt(state api.MaintenanceState, now time.Time) string {
	if !state.Active || state.EndTime.IsZero() {
		return ""
	}
	remaining := state.EndTime.Sub(now)
	if remaining <= 0 {
		return ""
	}
	total := int64(remaining.Seconds())
	hours := total / 3600
	minutes := (total % 3600) / 60
	seconds := total % 60
	if hours > 0 {
		return fmt.Sprintf("%dh %dm %ds", hours, minutes, seconds)
	}
	return fmt.Sprintf("%dm %ds", minutes, seconds)
}
