// SPDX-License-Identifier: ISC
// Copyright (c) 2014-2020 Bitmark Inc.
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package store

import (
	"time"

	"github.com/bitmark-inc/logger"

	"github.com/bitmark-inc/protectedstore/digest"
	"github.com/bitmark-inc/protectedstore/payload"
	"github.com/bitmark-inc/protectedstore/snapshot"
)

// background saving of changes
type flusher struct {
	log *logger.L
}

// Run - save at most once per save interval when there are changes
func (f *flusher) Run(args interface{}, shutdown <-chan struct{}) {

	s := args.(*Store)
	log := f.log

	ticker := time.NewTicker(s.configuration.SaveInterval)
	defer ticker.Stop()

loop:
	for {
		select {
		case <-shutdown:
			break loop
		case <-ticker.C:
			if err := s.save(); nil != err {
				log.Errorf("save error: %s", err)
			}
		}
	}
}

// Snapshot - the current persistable state
func (s *Store) Snapshot() *snapshot.Snapshot {
	s.RLock()
	defer s.RUnlock()
	return s.snapshot()
}

// lock must be held
func (s *Store) snapshot() *snapshot.Snapshot {
	saved := snapshot.New()
	for _, e := range s.entries {
		if e.Payload.Flags.Has(payload.Persistable) {
			saved.Entries = append(saved.Entries, e.Clone())
		}
	}
	saved.Sequences = s.sequences.Copy()
	saved.Removed = make([]digest.Digest, 0, len(s.removed))
	for identity := range s.removed {
		saved.Removed = append(saved.Removed, identity)
	}
	saved.Sort()
	return saved
}

// write the state out if changed; the store lock is not held while
// the persistence gateway runs
func (s *Store) save() error {
	s.saveLock.Lock()
	defer s.saveLock.Unlock()

	s.Lock()
	if !s.dirty {
		s.Unlock()
		return nil
	}
	saved := s.snapshot()
	s.dirty = false
	s.Unlock()

	err := s.persistence.SaveSnapshot(saved)
	if nil != err {
		s.Lock()
		s.dirty = true
		s.Unlock()
		return err
	}
	s.log.Debugf("saved: %d entries  %d sequence numbers", len(saved.Entries), len(saved.Sequences))
	return nil
}
