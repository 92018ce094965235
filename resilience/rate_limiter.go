package resilience

import (
	"context"
	"sync"
	"time"

	"github.com/kbukum/genaikit/errors"
)

// RateLimiterConfig configures a sliding-window rate limiter.
type RateLimiterConfig struct {
	// Name identifies this rate limiter for metrics/logging.
	Name string `yaml:"name" mapstructure:"name"`
	// RequestsPerWindow is the number of admissions allowed in any trailing Window.
	RequestsPerWindow int `yaml:"requests_per_window" mapstructure:"requests_per_window"`
	// Window is the length of the trailing interval.
	Window time.Duration `yaml:"window" mapstructure:"window"`
	// OnLimit is called when a caller has to wait, with the computed wait.
	OnLimit func(name string, wait time.Duration) `yaml:"-" mapstructure:"-"`
	// OnAdmit is called after each admission with its recorded timestamp.
	OnAdmit func(name string, at time.Time) `yaml:"-" mapstructure:"-"`
}

// DefaultRateLimiterConfig returns sensible defaults: 60 requests per minute.
func DefaultRateLimiterConfig(name string) RateLimiterConfig {
	return RateLimiterConfig{
		Name:              name,
		RequestsPerWindow: 60,
		Window:            time.Minute,
	}
}

// Validate rejects configurations that would block forever.
func (c RateLimiterConfig) Validate() error {
	if c.RequestsPerWindow <= 0 {
		return errors.InvalidConfig("requests_per_window", "must be positive")
	}
	if c.Window <= 0 {
		return errors.InvalidConfig("window", "must be positive")
	}
	return nil
}

// RateLimiter admits at most RequestsPerWindow calls in any trailing Window.
//
// It keeps a log of admission timestamps, oldest first. Every check evicts the
// entries that have left the window before comparing against capacity, and the
// evict-check-append sequence runs under one mutex so two callers can never
// both observe a free slot and both take it. Waiting callers sleep without
// holding the mutex. Admission order under contention is not FIFO.
type RateLimiter struct {
	config RateLimiterConfig
	now    func() time.Time

	mu       sync.Mutex
	admitted []time.Time
}

// NewRateLimiter creates a new rate limiter. It fails fast when the capacity
// or window is not positive.
func NewRateLimiter(config RateLimiterConfig) (*RateLimiter, error) {
	if err := config.Validate(); err != nil {
		return nil, err
	}
	return &RateLimiter{
		config:   config,
		now:      time.Now,
		admitted: make([]time.Time, 0, config.RequestsPerWindow),
	}, nil
}

// Acquire blocks until an admission slot is available or ctx is done.
// The only error it returns is ctx.Err().
func (rl *RateLimiter) Acquire(ctx context.Context) error {
	for {
		if err := ctx.Err(); err != nil {
			return err
		}

		wait, ok := rl.tryAdmit()
		if ok {
			return nil
		}

		if rl.config.OnLimit != nil {
			rl.config.OnLimit(rl.config.Name, wait)
		}

		// Others may be admitted while we sleep, so loop and recheck.
		timer := time.NewTimer(wait)
		select {
		case <-ctx.Done():
			timer.Stop()
			return ctx.Err()
		case <-timer.C:
		}
	}
}

// TryAcquire takes a slot if one is free right now and reports whether it did.
func (rl *RateLimiter) TryAcquire() bool {
	_, ok := rl.tryAdmit()
	return ok
}

// tryAdmit runs the locked evict-check-append step. When no slot is free it
// returns the time until the oldest admission leaves the window.
func (rl *RateLimiter) tryAdmit() (time.Duration, bool) {
	rl.mu.Lock()
	now := rl.now()
	rl.evict(now)

	if len(rl.admitted) < rl.config.RequestsPerWindow {
		rl.admitted = append(rl.admitted, now)
		rl.mu.Unlock()
		if rl.config.OnAdmit != nil {
			rl.config.OnAdmit(rl.config.Name, now)
		}
		return 0, true
	}

	wait := rl.admitted[0].Add(rl.config.Window).Sub(now)
	rl.mu.Unlock()
	return wait, false
}

// evict drops admissions at or before now-window. Must hold rl.mu.
func (rl *RateLimiter) evict(now time.Time) {
	cutoff := now.Add(-rl.config.Window)
	i := 0
	for i < len(rl.admitted) && !rl.admitted[i].After(cutoff) {
		i++
	}
	if i == 0 {
		return
	}
	n := copy(rl.admitted, rl.admitted[i:])
	rl.admitted = rl.admitted[:n]
}

// Admitted returns how many admissions are currently inside the window.
func (rl *RateLimiter) Admitted() int {
	rl.mu.Lock()
	defer rl.mu.Unlock()
	rl.evict(rl.now())
	return len(rl.admitted)
}

// Limit returns the configured capacity per window.
func (rl *RateLimiter) Limit() int {
	return rl.config.RequestsPerWindow
}

// Window returns the configured window length.
func (rl *RateLimiter) Window() time.Duration {
	return rl.config.Window
}

// Name returns the configured limiter name.
func (rl *RateLimiter) Name() string {
	return rl.config.Name
}
