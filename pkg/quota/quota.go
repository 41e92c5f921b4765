// Package quota bounds external API spend. The Meter tracks caller-estimated
// units against a ceiling; the Limiter is a token bucket that paces batches
// instead of fixed sleeps.
package quota

import (
	"context"
	"sync"

	"github.com/containersuper/bct-crm/pkg/apperr"

	"golang.org/x/time/rate"
)

// Estimated Gmail API units per call kind. Gmail does not return
// quota-remaining headers, so the estimate is the best available accounting.
const (
	UnitList = 1
	UnitGet  = 5
	UnitSend = 100
)

// Meter tracks estimated quota units spent during one sync run.
type Meter struct {
	mu    sync.Mutex
	used  int
	limit int
}

// NewMeter creates a meter with the given ceiling. A limit of zero or less
// means unlimited.
func NewMeter(limit int) *Meter {
	return &Meter{limit: limit}
}

// Spend records units against the ceiling. When the ceiling would be crossed
// it returns QuotaExceededError without recording, so the caller can soft-stop
// and report partial progress.
func (m *Meter) Spend(units int) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.limit > 0 && m.used+units > m.limit {
		return &apperr.QuotaExceededError{Used: m.used, Limit: m.limit}
	}
	m.used += units
	return nil
}

func (m *Meter) Used() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.used
}

func (m *Meter) Remaining() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.limit <= 0 {
		return -1
	}
	return m.limit - m.used
}

// Limiter paces provider calls with a token bucket.
type Limiter struct {
	rl *rate.Limiter
}

// NewLimiter allows perSecond sustained calls with the given burst. A
// perSecond of zero or less disables pacing.
func NewLimiter(perSecond float64, burst int) *Limiter {
	if perSecond <= 0 {
		return &Limiter{}
	}
	if burst < 1 {
		burst = 1
	}
	return &Limiter{rl: rate.NewLimiter(rate.Limit(perSecond), burst)}
}

// Wait blocks until the next call is allowed or the context is done.
func (l *Limiter) Wait(ctx context.Context) error {
	if l.rl == nil {
		return nil
	}
	return l.rl.Wait(ctx)
}
