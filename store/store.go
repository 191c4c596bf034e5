// SPDX-License-Identifier: ISC
// Copyright (c) 2014-2020 Bitmark Inc.
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package store

import (
	"bytes"
	"sort"
	"sync"
	"time"

	"github.com/bitmark-inc/logger"

	"github.com/bitmark-inc/protectedstore/background"
	"github.com/bitmark-inc/protectedstore/counter"
	"github.com/bitmark-inc/protectedstore/digest"
	"github.com/bitmark-inc/protectedstore/entry"
	"github.com/bitmark-inc/protectedstore/expiry"
	"github.com/bitmark-inc/protectedstore/fault"
	"github.com/bitmark-inc/protectedstore/payload"
	"github.com/bitmark-inc/protectedstore/sequence"
	"github.com/bitmark-inc/protectedstore/verifier"
)

// statistics counter names
const (
	CountAdded           = "added"
	CountAddRejected     = "add-rejected"
	CountRemoved         = "removed"
	CountRemoveRejected  = "remove-rejected"
	CountRefreshed       = "refreshed"
	CountRefreshRejected = "refresh-rejected"
	CountExpired         = "expired"
	CountBackdated       = "backdated"
)

// Configuration - store timing and limits
type Configuration struct {
	SweepInterval  time.Duration
	SaveInterval   time.Duration
	PurgeAge       time.Duration
	PurgeThreshold int
}

// defaults for zero configuration values
const (
	DefaultSaveInterval = 10 * time.Second
)

// Store - the protected entry map
type Store struct {
	sync.RWMutex

	log           *logger.L
	configuration Configuration

	persistence Persistence
	broadcaster Broadcaster
	listeners   []Listener

	entries   map[digest.Digest]entry.Entry
	sequences sequence.Map
	removed   map[digest.Digest]struct{}
	dirty     bool

	statistics *counter.Set
	sweeper    *expiry.Sweeper
	saveLock   sync.Mutex
	background *background.T
}

// New - create a store, load its saved state and start the expiry
// sweeper and the save process
//
// persistence and broadcaster may be nil
func New(configuration Configuration, persistence Persistence, broadcaster Broadcaster, listeners []Listener, log *logger.L) (*Store, error) {

	if nil == log {
		return nil, fault.ErrInvalidLoggerChannel
	}
	if configuration.SaveInterval <= 0 {
		configuration.SaveInterval = DefaultSaveInterval
	}
	if configuration.PurgeAge <= 0 {
		configuration.PurgeAge = sequence.DefaultPurgeAge
	}
	if configuration.PurgeThreshold <= 0 {
		configuration.PurgeThreshold = sequence.DefaultPurgeThreshold
	}
	if nil == persistence {
		persistence = nopPersistence{}
	}
	if nil == broadcaster {
		broadcaster = nopBroadcaster{}
	}

	s := &Store{
		log:           log,
		configuration: configuration,
		persistence:   persistence,
		broadcaster:   broadcaster,
		listeners:     append([]Listener{}, listeners...),
		entries:       make(map[digest.Digest]entry.Entry),
		sequences:     make(sequence.Map),
		removed:       make(map[digest.Digest]struct{}),
		statistics: counter.NewSet(
			CountAdded, CountAddRejected,
			CountRemoved, CountRemoveRejected,
			CountRefreshed, CountRefreshRejected,
			CountExpired, CountBackdated,
		),
	}

	log.Info("starting…")

	s.load(time.Now())

	s.sweeper = expiry.New(s, configuration.SweepInterval, logger.New("expiry"))

	processes := background.Processes{
		s.sweeper,
		&flusher{log: log},
	}
	s.background = background.Start(processes, s)

	return s, nil
}

// Stop - stop background processes and save any unsaved changes
func (s *Store) Stop() {
	s.log.Info("shutting down…")
	s.background.Stop()
	if err := s.save(); nil != err {
		s.log.Errorf("final save error: %s", err)
	}
	s.log.Info("finished")
	s.log.Flush()
}

// load the saved state, every entry is checked again
func (s *Store) load(now time.Time) {
	saved, err := s.persistence.LoadAll()
	if nil != err {
		s.log.Errorf("load error: %s  starting empty", err)
		return
	}
	if nil == saved {
		return
	}

	for identity, v := range saved.Sequences {
		s.sequences.Put(identity, v)
	}
	for _, identity := range saved.Removed {
		s.removed[identity] = struct{}{}
	}

	loaded := 0
load_loop:
	for _, e := range saved.Entries {
		identity := e.Identity()
		if !verifier.WellFormed(e, verifier.Add) || !verifier.Authentic(e, verifier.Add) {
			s.log.Warnf("discard unverifiable entry: %v", identity)
			continue load_loop
		}
		if e.IsExpired(now) {
			continue load_loop
		}
		if current, ok := s.entries[identity]; ok && current.SequenceNumber >= e.SequenceNumber {
			continue load_loop
		}
		if e.CreatedAt.IsZero() {
			e.CreatedAt = now
		}
		s.entries[identity] = e
		if v, ok := s.sequences.Get(identity); !ok || v.Number < e.SequenceNumber {
			s.sequences.Put(identity, sequence.Value{Number: e.SequenceNumber, Timestamp: e.CreatedAt})
		}
		loaded += 1
	}
	s.log.Infof("loaded: %d entries  %d sequence numbers", loaded, len(s.sequences))
}

// State - store state for an identity, implements verifier.View
func (s *Store) State(identity digest.Digest) verifier.State {
	s.RLock()
	defer s.RUnlock()
	return s.state(identity)
}

// lock must be held
func (s *Store) state(identity digest.Digest) verifier.State {
	state := verifier.State{}
	if e, ok := s.entries[identity]; ok {
		state.Existing = &e
	}
	if v, ok := s.sequences.Get(identity); ok {
		state.Retained = &v
	}
	_, state.RemovedOnce = s.removed[identity]
	return state
}

// Add - apply a validly signed add with a higher sequence number
func (s *Store) Add(candidate entry.Entry, source string) bool {

	if !verifier.WellFormed(candidate, verifier.Add) || !verifier.Authentic(candidate, verifier.Add) {
		s.log.Debugf("add rejected: %v  from: %q  unauthentic", candidate.Identity(), source)
		s.statistics.Increment(CountAddRejected)
		return false
	}

	identity := candidate.Identity()
	stored := candidate.Clone()
	now := time.Now()
	stored.CreatedAt = now

	s.Lock()
	if !verifier.AddAllowed(stored, s.state(identity)) {
		s.Unlock()
		s.log.Debugf("add rejected: %v  sequence: %d  from: %q", identity, candidate.SequenceNumber, source)
		s.statistics.Increment(CountAddRejected)
		return false
	}
	s.entries[identity] = stored
	s.sequences.Put(identity, sequence.Value{Number: stored.SequenceNumber, Timestamp: now})
	s.dirty = true
	s.Unlock()

	s.log.Debugf("added: %v  sequence: %d  from: %q", identity, stored.SequenceNumber, source)
	s.statistics.Increment(CountAdded)

	s.notifyAdded(stored)
	s.broadcaster.BroadcastAdd(candidate.Clone(), source)
	return true
}

// Remove - apply a validly signed remove; ordinary and mailbox
// entries are distinguished by the candidate's kind
func (s *Store) Remove(candidate entry.Entry, source string) bool {
	return s.remove(candidate, source)
}

// RemoveMailboxEntry - remove path for mailbox entries only
//
// a candidate that is not a mailbox entry, or an identity that holds
// an ordinary entry, is a caller error
func (s *Store) RemoveMailboxEntry(candidate entry.Entry, source string) (bool, error) {
	if !candidate.IsMailbox() {
		return false, fault.ErrNotMailboxEntry
	}

	s.RLock()
	existing, ok := s.entries[candidate.Identity()]
	s.RUnlock()
	if ok && !existing.IsMailbox() {
		return false, fault.ErrNotMailboxEntry
	}

	return s.remove(candidate, source), nil
}

func (s *Store) remove(candidate entry.Entry, source string) bool {

	if !verifier.WellFormed(candidate, verifier.Remove) || !verifier.Authentic(candidate, verifier.Remove) {
		s.log.Debugf("remove rejected: %v  from: %q  unauthentic", candidate.Identity(), source)
		s.statistics.Increment(CountRemoveRejected)
		return false
	}

	identity := candidate.Identity()
	now := time.Now()

	s.Lock()
	state := s.state(identity)
	if !verifier.RemoveAllowed(candidate, state) {
		s.Unlock()
		s.log.Debugf("remove rejected: %v  sequence: %d  from: %q", identity, candidate.SequenceNumber, source)
		s.statistics.Increment(CountRemoveRejected)
		return false
	}
	existing := *state.Existing
	delete(s.entries, identity)
	s.sequences.Put(identity, sequence.Value{Number: candidate.SequenceNumber, Timestamp: now, Removed: true})
	if existing.Payload.Flags.Has(payload.AddOnce) {
		s.removed[identity] = struct{}{}
	}
	s.dirty = true
	s.Unlock()

	s.log.Debugf("removed: %v  sequence: %d  from: %q", identity, candidate.SequenceNumber, source)
	s.statistics.Increment(CountRemoved)

	s.notifyRemoved(existing)
	s.broadcaster.BroadcastRemove(candidate.Clone(), source)
	return true
}

// Refresh - restart the time to live of a stored entry by
// re-signing it with a higher sequence number
func (s *Store) Refresh(refresh entry.Refresh, source string) bool {

	s.RLock()
	existing, ok := s.entries[refresh.Identity]
	s.RUnlock()
	if !ok {
		s.log.Debugf("refresh rejected: %v  from: %q  absent", refresh.Identity, source)
		s.statistics.Increment(CountRefreshRejected)
		return false
	}

	now := time.Now()
	updated := refresh.Apply(existing, now)
	if !verifier.Authentic(updated, verifier.Add) {
		s.log.Debugf("refresh rejected: %v  from: %q  unauthentic", refresh.Identity, source)
		s.statistics.Increment(CountRefreshRejected)
		return false
	}

	s.Lock()
	state := s.state(refresh.Identity)
	// the entry may have been replaced or removed since it was read
	if nil == state.Existing || !verifier.AddAllowed(updated, state) {
		s.Unlock()
		s.log.Debugf("refresh rejected: %v  sequence: %d  from: %q", refresh.Identity, refresh.SequenceNumber, source)
		s.statistics.Increment(CountRefreshRejected)
		return false
	}
	s.entries[refresh.Identity] = updated
	s.sequences.Put(refresh.Identity, sequence.Value{Number: updated.SequenceNumber, Timestamp: now})
	s.dirty = true
	s.Unlock()

	s.log.Debugf("refreshed: %v  sequence: %d  from: %q", refresh.Identity, refresh.SequenceNumber, source)
	s.statistics.Increment(CountRefreshed)

	s.notifyAdded(updated)
	s.broadcaster.BroadcastRefresh(refresh, source)
	return true
}

// Get - copy of the current entry for an identity
func (s *Store) Get(identity digest.Digest) (entry.Entry, bool) {
	s.RLock()
	defer s.RUnlock()
	e, ok := s.entries[identity]
	if !ok {
		return entry.Entry{}, false
	}
	return e.Clone(), true
}

// Size - number of entries
func (s *Store) Size() int {
	s.RLock()
	defer s.RUnlock()
	return len(s.entries)
}

// SnapshotAll - point in time copy of all entries in identity order
func (s *Store) SnapshotAll() []entry.Entry {
	s.RLock()
	result := make([]entry.Entry, 0, len(s.entries))
	for _, e := range s.entries {
		result = append(result, e.Clone())
	}
	s.RUnlock()

	sort.Slice(result, func(i, j int) bool {
		a := result[i].Identity()
		b := result[j].Identity()
		return bytes.Compare(a[:], b[:]) < 0
	})
	return result
}

// NextSequenceNumber - lowest sequence number the store would accept
// for a new operation on the identity
func (s *Store) NextSequenceNumber(identity digest.Digest) int32 {
	s.RLock()
	defer s.RUnlock()
	if e, ok := s.entries[identity]; ok {
		return e.SequenceNumber + 1
	}
	if v, ok := s.sequences.Get(identity); ok {
		return v.Number + 1
	}
	return 0
}

// BackdateOwnedBy - entries that need their owner node online have
// half their time to live taken off when that node goes away
func (s *Store) BackdateOwnedBy(node string) int {
	if "" == node {
		return 0
	}

	s.Lock()
	n := 0
	for identity, e := range s.entries {
		if e.Payload.Flags.Has(payload.RequiresOwnerOnline) && node == e.Payload.OwnerNode {
			e.CreatedAt = e.CreatedAt.Add(-e.TTL() / 2)
			s.entries[identity] = e
			n += 1
		}
	}
	s.Unlock()

	if n > 0 {
		s.log.Infof("backdated: %d entries owned by: %s", n, node)
		for i := 0; i < n; i += 1 {
			s.statistics.Increment(CountBackdated)
		}
	}
	return n
}

// SetSweepInterval - change the expiry period while running
func (s *Store) SetSweepInterval(interval time.Duration) {
	s.sweeper.SetInterval(interval)
}

// Statistics - operation counters
func (s *Store) Statistics() map[string]uint64 {
	return s.statistics.Values()
}

func (s *Store) notifyAdded(e entry.Entry) {
	for _, l := range s.listeners {
		l.EntryAdded(e.Clone())
	}
}

func (s *Store) notifyRemoved(e entry.Entry) {
	for _, l := range s.listeners {
		l.EntryRemoved(e.Clone())
	}
}
