package store

import (
	"fmt"
	"log"
	"time"
)

// Policy decides how a failed persistence call is handled before the error
// reaches the monitor loop, which treats any returned error as fatal.
type Policy struct {
	// Retries is how many times a failed call is repeated. 0 fails fast.
	Retries int
	// Backoff is the wait before the first retry; each further retry waits
	// one Backoff longer.
	Backoff time.Duration
}

// FailFast returns the policy that surfaces the first error unchanged.
func FailFast() Policy {
	return Policy{}
}

// Guarded wraps a Gateway with a failure Policy.
type Guarded struct {
	inner  Gateway
	policy Policy
	sleep  func(time.Duration)
}

// NewGuarded returns a Gateway that applies policy to every call on inner.
func NewGuarded(inner Gateway, policy Policy) *Guarded {
	if policy.Retries < 0 {
		policy.Retries = 0
	}
	return &Guarded{inner: inner, policy: policy, sleep: time.Sleep}
}

func (g *Guarded) do(op string, fn func() error) error {
	var err error
	for attempt := 0; ; attempt++ {
		if err = fn(); err == nil {
			return nil
		}
		if attempt >= g.policy.Retries {
			break
		}
		wait := g.policy.Backoff * time.Duration(attempt+1)
		log.Printf("store: %s failed (attempt %d/%d), retrying in %v: %v",
			op, attempt+1, g.policy.Retries+1, wait, err)
		g.sleep(wait)
	}
	if g.policy.Retries > 0 {
		return fmt.Errorf("%s: giving up after %d attempts: %w", op, g.policy.Retries+1, err)
	}
	return err
}

// UpsertLiveStatus applies the policy to inner.UpsertLiveStatus.
func (g *Guarded) UpsertLiveStatus(bay int, timerRunning, pumpRunning bool) error {
	return g.do("upsert live status", func() error {
		return g.inner.UpsertLiveStatus(bay, timerRunning, pumpRunning)
	})
}

// UpsertLiveRuntime applies the policy to inner.UpsertLiveRuntime.
func (g *Guarded) UpsertLiveRuntime(bay int, timerSeconds, pumpSeconds float64) error {
	return g.do("upsert live runtime", func() error {
		return g.inner.UpsertLiveRuntime(bay, timerSeconds, pumpSeconds)
	})
}

// RecordSession applies the policy to inner.RecordSession.
func (g *Guarded) RecordSession(bay int, timerSeconds, pumpSeconds float64) (Session, error) {
	var session Session
	err := g.do("record session", func() error {
		var err error
		session, err = g.inner.RecordSession(bay, timerSeconds, pumpSeconds)
		return err
	})
	return session, err
}

// RecordMaintenanceInsert applies the policy to inner.RecordMaintenanceInsert.
func (g *Guarded) RecordMaintenanceInsert(bay int) (MaintenanceInsert, error) {
	var insert MaintenanceInsert
	err := g.do("record maintenance insert", func() error {
		var err error
		insert, err = g.inner.RecordMaintenanceInsert(bay)
		return err
	})
	return insert, err
}

// WipeHistoricalData applies the policy to inner.WipeHistoricalData.
func (g *Guarded) WipeHistoricalData() error {
	return g.do("wipe historical data", g.inner.WipeHistoricalData)
}
