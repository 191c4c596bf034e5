// SPDX-License-Identifier: ISC
// Copyright (c) 2014-2020 Bitmark Inc.
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

// Package persistence - keep the store over a restart
//
// the leveldb database is the primary copy and is written
// incrementally; a snapshot file (with its previous version as a
// backup) is rewritten on every save. After repeated database
// failures only the snapshot file is written.
package persistence

import (
	"bytes"
	"os"
	"sync"
	"time"

	"github.com/bitmark-inc/logger"

	"github.com/bitmark-inc/protectedstore/digest"
	"github.com/bitmark-inc/protectedstore/entry"
	"github.com/bitmark-inc/protectedstore/fault"
	"github.com/bitmark-inc/protectedstore/sequence"
	"github.com/bitmark-inc/protectedstore/snapshot"
	"github.com/bitmark-inc/protectedstore/storage"
)

// DefaultFailureThreshold - consecutive database errors before
// giving up on the database
const DefaultFailureThreshold = 3

// Configuration - file locations
type Configuration struct {
	Database         string
	SnapshotFile     string
	FailureThreshold int
}

// Gateway - the persistence gateway used by the store
type Gateway struct {
	sync.Mutex

	log           *logger.L
	configuration Configuration
	database      *storage.Database
	failures      int

	// what the database holds, to write only changes
	savedEntries   map[digest.Digest][]byte
	savedSequences sequence.Map
	savedRemoved   map[digest.Digest]struct{}
}

// New - open the database; if it cannot be opened the gateway runs
// with the snapshot file only
func New(configuration Configuration, log *logger.L) (*Gateway, error) {
	if nil == log {
		return nil, fault.ErrInvalidLoggerChannel
	}
	if configuration.FailureThreshold <= 0 {
		configuration.FailureThreshold = DefaultFailureThreshold
	}

	g := &Gateway{
		log:            log,
		configuration:  configuration,
		savedEntries:   make(map[digest.Digest][]byte),
		savedSequences: make(sequence.Map),
		savedRemoved:   make(map[digest.Digest]struct{}),
	}

	if "" != configuration.Database {
		database, err := storage.Open(configuration.Database, storage.ReadWrite)
		if nil != err {
			log.Errorf("open database: %q  error: %s  using snapshot file only", configuration.Database, err)
		} else {
			g.database = database
		}
	}

	if nil == g.database && "" == configuration.SnapshotFile {
		return nil, fault.ErrDatabaseIsNotSet
	}

	log.Infof("database: %q  snapshot: %q", configuration.Database, configuration.SnapshotFile)
	return g, nil
}

// Close - close the database
func (g *Gateway) Close() {
	g.Lock()
	defer g.Unlock()
	if nil != g.database {
		g.database.Close()
		g.database = nil
	}
}

// FileOnly - true when the database is not in use
func (g *Gateway) FileOnly() bool {
	g.Lock()
	defer g.Unlock()
	return nil == g.database
}

// LoadAll - read the saved state: database first, then the snapshot
// file, then its backup
func (g *Gateway) LoadAll() (*snapshot.Snapshot, error) {
	g.Lock()
	defer g.Unlock()

	now := time.Now()

	if nil != g.database {
		s, err := g.loadDatabase()
		if nil != err {
			g.log.Errorf("load database error: %s", err)
		} else if len(s.Entries) > 0 || len(s.Sequences) > 0 || "" == g.configuration.SnapshotFile {
			g.remember(s)
			clamp(s, now, g.log)
			g.log.Infof("loaded from database: %d entries", len(s.Entries))
			return s, nil
		}
	}

	fileName := g.configuration.SnapshotFile
	if "" == fileName {
		return snapshot.New(), nil
	}

	missing := 0
	for _, name := range []string{fileName, snapshot.BackupName(fileName)} {
		s, err := snapshot.ReadFile(name)
		if nil == err {
			clamp(s, now, g.log)
			g.log.Infof("loaded from file: %q  %d entries", name, len(s.Entries))
			return s, nil
		}
		if os.IsNotExist(err) {
			missing += 1
			continue
		}
		g.log.Errorf("load file: %q  error: %s", name, err)
	}

	// nothing saved yet
	if 2 == missing {
		return snapshot.New(), nil
	}
	return nil, fault.ErrNotASnapshotFile
}

// lock must be held
func (g *Gateway) loadDatabase() (*snapshot.Snapshot, error) {
	return readPools(g.database.Pools)
}

// ReadDatabase - everything held in a database that no node has open
func ReadDatabase(name string) (*snapshot.Snapshot, error) {
	database, err := storage.Open(name, storage.ReadOnly)
	if nil != err {
		return nil, err
	}
	defer database.Close()

	return readPools(database.Pools)
}

func readPools(pools storage.Pools) (*snapshot.Snapshot, error) {
	s := snapshot.New()

	err := pools.Entries.Map(func(key []byte, value []byte) error {
		e, _, err := entry.UnpackRecord(value)
		if nil != err {
			return err
		}
		s.Entries = append(s.Entries, e)
		return nil
	})
	if nil != err {
		return nil, err
	}

	err = pools.Sequences.Map(func(key []byte, value []byte) error {
		identity, v, _, err := sequence.Unpack(value)
		if nil != err {
			return err
		}
		s.Sequences.Put(identity, v)
		return nil
	})
	if nil != err {
		return nil, err
	}

	err = pools.Removed.Map(func(key []byte, value []byte) error {
		var identity digest.Digest
		err := digest.FromBytes(&identity, key)
		if nil != err {
			return err
		}
		s.Removed = append(s.Removed, identity)
		return nil
	})
	if nil != err {
		return nil, err
	}
	return s, nil
}

// creation times after the load time can only come from a damaged or
// edited file; they would extend the time to live so are reset
func clamp(s *snapshot.Snapshot, now time.Time, log *logger.L) {
	for i, e := range s.Entries {
		if e.CreatedAt.After(now) {
			log.Warnf("forward dated entry: %v  created: %s  reset to: %s", e.Identity(), e.CreatedAt, now)
			s.Entries[i].CreatedAt = now
		}
	}
}

// SaveSnapshot - write changes to the database and rewrite the
// snapshot file
func (g *Gateway) SaveSnapshot(s *snapshot.Snapshot) error {
	g.Lock()
	defer g.Unlock()

	var result error

	if nil != g.database {
		err := g.saveDatabase(s)
		if nil == err {
			g.failures = 0
		} else {
			g.failures += 1
			g.log.Errorf("save database error: %s  consecutive failures: %d", err, g.failures)
			if g.failures >= g.configuration.FailureThreshold {
				g.log.Criticalf("database failed %d times: using snapshot file only", g.failures)
				g.database.Close()
				g.database = nil
			}
			result = err
		}
	}

	if fileName := g.configuration.SnapshotFile; "" != fileName {
		err := snapshot.WriteFile(fileName, s)
		if nil != err {
			g.log.Errorf("save file: %q  error: %s", fileName, err)
			return err
		}
		// a good file covers a failed database write
		return nil
	}
	return result
}

// lock must be held
func (g *Gateway) saveDatabase(s *snapshot.Snapshot) error {
	pools := g.database.Pools
	batch := g.database.NewBatch()

	entries := make(map[digest.Digest][]byte, len(s.Entries))
	for _, e := range s.Entries {
		identity := e.Identity()
		packed := e.PackRecord()
		entries[identity] = packed
		if old, ok := g.savedEntries[identity]; !ok || !bytes.Equal(old, packed) {
			batch.Put(pools.Entries, identity[:], packed)
		}
	}
	for identity := range g.savedEntries {
		if _, ok := entries[identity]; !ok {
			batch.Delete(pools.Entries, identity[:])
		}
	}

	for identity, v := range s.Sequences {
		old, ok := g.savedSequences.Get(identity)
		if !ok || old.Number != v.Number || old.Removed != v.Removed || !old.Timestamp.Equal(v.Timestamp) {
			batch.Put(pools.Sequences, identity[:], sequence.Pack(identity, v))
		}
	}
	for identity := range g.savedSequences {
		if _, ok := s.Sequences.Get(identity); !ok {
			batch.Delete(pools.Sequences, identity[:])
		}
	}

	removed := make(map[digest.Digest]struct{}, len(s.Removed))
	for _, identity := range s.Removed {
		removed[identity] = struct{}{}
		if _, ok := g.savedRemoved[identity]; !ok {
			batch.Put(pools.Removed, identity[:], []byte{})
		}
	}
	for identity := range g.savedRemoved {
		if _, ok := removed[identity]; !ok {
			batch.Delete(pools.Removed, identity[:])
		}
	}

	n := batch.Len()
	if 0 == n {
		return nil
	}
	err := batch.Commit()
	if nil != err {
		return err
	}

	g.log.Debugf("database writes: %d", n)
	g.savedEntries = entries
	g.savedSequences = s.Sequences.Copy()
	g.savedRemoved = removed
	return nil
}

// lock must be held
func (g *Gateway) remember(s *snapshot.Snapshot) {
	g.savedEntries = make(map[digest.Digest][]byte, len(s.Entries))
	for _, e := range s.Entries {
		g.savedEntries[e.Identity()] = e.PackRecord()
	}
	g.savedSequences = s.Sequences.Copy()
	g.savedRemoved = make(map[digest.Digest]struct{}, len(s.Removed))
	for _, identity := range s.Removed {
		g.savedRemoved[identity] = struct{}{}
	}
}
