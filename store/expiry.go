// SPDX-License-Identifier: ISC
// Copyright (c) 2014-2020 Bitmark Inc.
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package store

import (
	"time"

	"github.com/bitmark-inc/protectedstore/digest"
	"github.com/bitmark-inc/protectedstore/expiry"
)

// Expired - entries past their time to live, implements expiry.Target
func (s *Store) Expired(now time.Time) []expiry.Candidate {
	s.RLock()
	defer s.RUnlock()

	list := []expiry.Candidate{}
	for identity, e := range s.entries {
		if e.IsExpired(now) {
			list = append(list, expiry.Candidate{
				Identity:       identity,
				SequenceNumber: e.SequenceNumber,
			})
		}
	}
	return list
}

// Evict - remove an expired entry unless it was replaced since the
// sweep collected it; the retained sequence number stays
func (s *Store) Evict(candidate expiry.Candidate, now time.Time) bool {
	s.Lock()
	e, ok := s.entries[candidate.Identity]
	if !ok || e.SequenceNumber != candidate.SequenceNumber || !e.IsExpired(now) {
		s.Unlock()
		return false
	}
	delete(s.entries, candidate.Identity)
	s.dirty = true
	s.Unlock()

	s.statistics.Increment(CountExpired)
	s.notifyRemoved(e)
	return true
}

// PurgeSequences - drop old retained sequence numbers for identities
// no longer in the store
func (s *Store) PurgeSequences(now time.Time) int {
	s.Lock()
	defer s.Unlock()

	n := s.sequences.Purge(now, s.configuration.PurgeAge, s.configuration.PurgeThreshold, func(identity digest.Digest) bool {
		_, present := s.entries[identity]
		return present
	})
	if n > 0 {
		s.dirty = true
	}
	return n
}
