// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

// Package clock lets time-dependent code run against a controllable
// clock in tests.
//
// Components that time out requests, debounce file events, or ping
// connections hold a [Clock] instead of calling the time package.
// Binaries pass [Real]; tests pass a [FakeClock] from [Fake] and move
// time forward with [FakeClock.Advance]:
//
//	fake := clock.Fake(time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC))
//	d := dispatch.New(dispatch.Options{Clock: fake})
//	go d.Request(...)
//	fake.WaitForTimers(1)
//	fake.Advance(dispatch.DefaultRequestTimeout)
//
// WaitForTimers blocks until the goroutine under test has armed its
// timer, so Advance never races with timer registration.
package clock
