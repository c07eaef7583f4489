// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package clock

import (
	"slices"
	"sync"
	"time"
)

// FakeClock is a Clock whose time only moves when Advance is called.
// It is safe for concurrent use.
type FakeClock struct {
	mu      sync.Mutex
	armed   *sync.Cond
	now     time.Time
	pending []*alarm
}

// alarm is one registered After, AfterFunc, or ticker.
type alarm struct {
	due      time.Time
	channel  chan time.Time
	callback func()
	period   time.Duration
	done     bool
}

// Fake returns a FakeClock reading start.
func Fake(start time.Time) *FakeClock {
	c := &FakeClock{now: start}
	c.armed = sync.NewCond(&c.mu)
	return c
}

func (c *FakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *FakeClock) After(d time.Duration) <-chan time.Time {
	channel := make(chan time.Time, 1)
	c.mu.Lock()
	defer c.mu.Unlock()
	if d <= 0 {
		channel <- c.now
		return channel
	}
	c.arm(&alarm{due: c.now.Add(d), channel: channel})
	return channel
}

// AfterFunc registers f. Callbacks run synchronously inside Advance; a
// non-positive d runs f before AfterFunc returns.
func (c *FakeClock) AfterFunc(d time.Duration, f func()) *Timer {
	if d <= 0 {
		f()
		return &Timer{stop: func() bool { return false }, reset: func(time.Duration) bool { return false }}
	}
	a := &alarm{callback: f}
	c.mu.Lock()
	a.due = c.now.Add(d)
	c.arm(a)
	c.mu.Unlock()

	return &Timer{
		stop: func() bool {
			c.mu.Lock()
			defer c.mu.Unlock()
			if a.done {
				return false
			}
			c.disarm(a)
			return true
		},
		reset: func(d time.Duration) bool {
			c.mu.Lock()
			defer c.mu.Unlock()
			wasPending := !a.done
			if wasPending {
				c.disarm(a)
			}
			a.done = false
			a.due = c.now.Add(d)
			c.arm(a)
			return wasPending
		},
	}
}

func (c *FakeClock) NewTicker(d time.Duration) *Ticker {
	if d <= 0 {
		panic("clock: NewTicker with non-positive period")
	}
	channel := make(chan time.Time, 1)
	a := &alarm{channel: channel, period: d}
	c.mu.Lock()
	a.due = c.now.Add(d)
	c.arm(a)
	c.mu.Unlock()

	return &Ticker{C: channel, stop: func() {
		c.mu.Lock()
		defer c.mu.Unlock()
		if !a.done {
			c.disarm(a)
		}
	}}
}

// Advance moves time forward by d and fires every alarm that falls due,
// earliest first. Tickers fire once per elapsed period.
func (c *FakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	c.now = c.now.Add(d)
	c.mu.Unlock()

	for {
		c.mu.Lock()
		next := c.nextDue()
		if next == nil {
			c.mu.Unlock()
			return
		}
		at := next.due
		if next.period > 0 {
			next.due = next.due.Add(next.period)
		} else {
			c.disarm(next)
		}
		c.mu.Unlock()

		if next.callback != nil {
			next.callback()
			continue
		}
		select {
		case next.channel <- at:
		default:
		}
	}
}

// WaitForTimers blocks until at least n alarms are pending.
func (c *FakeClock) WaitForTimers(n int) {
	c.mu.Lock()
	defer c.mu.Unlock()
	for len(c.pending) < n {
		c.armed.Wait()
	}
}

// PendingCount returns the number of pending alarms.
func (c *FakeClock) PendingCount() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.pending)
}

// nextDue returns the earliest alarm due at or before now. c.mu must
// be held.
func (c *FakeClock) nextDue() *alarm {
	var earliest *alarm
	for _, a := range c.pending {
		if a.due.After(c.now) {
			continue
		}
		if earliest == nil || a.due.Before(earliest.due) {
			earliest = a
		}
	}
	return earliest
}

func (c *FakeClock) arm(a *alarm) {
	c.pending = append(c.pending, a)
	c.armed.Broadcast()
}

func (c *FakeClock) disarm(a *alarm) {
	a.done = true
	c.pending = slices.DeleteFunc(c.pending, func(other *alarm) bool { return other == a })
}
