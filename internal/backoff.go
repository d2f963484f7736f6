package internal

import (
	"context"
	"fmt"
	"math"
	"time"
)

// ReconnectPolicy controls push channel reconnection. The zero value means
// no reconnect: once the subscription ends it stays down, which is the
// default behaviour. MaxAttempts > 0 opts in to bounded exponential backoff.
type ReconnectPolicy struct {
	MaxAttempts  int           `yaml:"max_attempts" json:"max_attempts"`
	InitialDelay time.Duration `yaml:"initial_delay" json:"initial_delay"`
	MaxDelay     time.Duration `yaml:"max_delay" json:"max_delay"`
	Multiplier   float64       `yaml:"multiplier" json:"multiplier"`
}

// DefaultReconnectPolicy returns the backoff shape used when reconnects are
// enabled with only an attempt count.
func DefaultReconnectPolicy() ReconnectPolicy {
	return ReconnectPolicy{
		MaxAttempts:  0,
		InitialDelay: time.Second,
		MaxDelay:     30 * time.Second,
		Multiplier:   2.0,
	}
}

// Enabled reports whether any reconnect attempt may be made
func (p ReconnectPolicy) Enabled() bool {
	return p.MaxAttempts > 0
}

// Delay returns the wait before reconnect attempt n (1-based)
func (p ReconnectPolicy) Delay(attempt int) time.Duration {
	initial := p.InitialDelay
	if initial <= 0 {
		initial = time.Second
	}
	mult := p.Multiplier
	if mult < 1 {
		mult = 1
	}
	delay := float64(initial) * math.Pow(mult, float64(attempt-1))
	if p.MaxDelay > 0 && delay > float64(p.MaxDelay) {
		return p.MaxDelay
	}
	if delay > math.MaxInt64 {
		return time.Duration(math.MaxInt64)
	}
	return time.Duration(delay)
}

// Validate checks the policy for nonsensical values
func (p ReconnectPolicy) Validate() error {
	if p.MaxAttempts < 0 {
		return &ConfigError{Key: "reconnect.max_attempts", Err: fmt.Errorf("must be >= 0, got %d", p.MaxAttempts)}
	}
	if p.InitialDelay < 0 || p.MaxDelay < 0 {
		return &ConfigError{Key: "reconnect", Err: fmt.Errorf("delays must not be negative")}
	}
	return nil
}

// wait sleeps for the attempt's delay, returning early with ctx's error
func (p ReconnectPolicy) wait(ctx context.Context, attempt int) error {
	timer := time.NewTimer(p.Delay(attempt))
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
