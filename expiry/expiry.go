// SPDX-License-Identifier: ISC
// Copyright (c) 2014-2020 Bitmark Inc.
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

// Package expiry - periodic eviction of entries whose time to live
// has elapsed
//
// eviction is local only: nothing is signed or broadcast, every
// node expires the same entries on its own clock
package expiry

import (
	"time"

	"github.com/bitmark-inc/logger"

	"github.com/bitmark-inc/protectedstore/digest"
)

// interval limits
const (
	DefaultInterval = 30 * time.Second
	MinimumInterval = 5 * time.Millisecond
)

// Candidate - an entry that was expired when the sweep began
type Candidate struct {
	Identity       digest.Digest
	SequenceNumber int32
}

// Target - the store operations the sweeper needs
type Target interface {
	// expired entries at time now, taken under a read lock
	Expired(now time.Time) []Candidate

	// remove only if the sequence number is unchanged and
	// the entry is still expired
	Evict(candidate Candidate, now time.Time) bool

	// drop old retained sequence numbers
	PurgeSequences(now time.Time) int
}

// Sweeper - background process for expiry
type Sweeper struct {
	log      *logger.L
	target   Target
	interval time.Duration
	reset    chan time.Duration
}

// New - create a sweeper; it does nothing until Run
func New(target Target, interval time.Duration, log *logger.L) *Sweeper {
	return &Sweeper{
		log:      log,
		target:   target,
		interval: clamp(interval),
		reset:    make(chan time.Duration, 1),
	}
}

func clamp(interval time.Duration) time.Duration {
	if interval <= 0 {
		return DefaultInterval
	}
	if interval < MinimumInterval {
		return MinimumInterval
	}
	return interval
}

// SetInterval - change the sweep period of a running sweeper
//
// only the most recent pending value is kept
func (sweeper *Sweeper) SetInterval(interval time.Duration) {
	interval = clamp(interval)
	for {
		select {
		case sweeper.reset <- interval:
			return
		default:
		}
		select {
		case <-sweeper.reset:
		default:
		}
	}
}

// Run - the sweep loop
func (sweeper *Sweeper) Run(args interface{}, shutdown <-chan struct{}) {

	log := sweeper.log

	log.Infof("starting… interval: %s", sweeper.interval)

	ticker := time.NewTicker(sweeper.interval)

loop:
	for {
		select {
		case <-shutdown:
			break loop

		case interval := <-sweeper.reset:
			if interval != sweeper.interval {
				log.Infof("interval: %s → %s", sweeper.interval, interval)
				sweeper.interval = interval
				ticker.Stop()
				ticker = time.NewTicker(interval)
			}

		case now := <-ticker.C:
			evicted, stopped := sweeper.Sweep(now, shutdown)
			if evicted > 0 {
				log.Debugf("evicted: %d", evicted)
			}
			if stopped {
				break loop
			}
		}
	}
	ticker.Stop()

	log.Info("finished")
}

// Sweep - one pass over the target
//
// returns the number evicted and whether shutdown was seen
func (sweeper *Sweeper) Sweep(now time.Time, shutdown <-chan struct{}) (int, bool) {

	evicted := 0
	for _, candidate := range sweeper.target.Expired(now) {
		select {
		case <-shutdown:
			return evicted, true
		default:
		}
		if sweeper.target.Evict(candidate, now) {
			sweeper.log.Tracef("expired: %v  sequence: %d", candidate.Identity, candidate.SequenceNumber)
			evicted += 1
		}
	}

	if n := sweeper.target.PurgeSequences(now); n > 0 {
		sweeper.log.Debugf("purged sequence numbers: %d", n)
	}
	return evicted, false
}
