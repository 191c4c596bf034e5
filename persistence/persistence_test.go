// SPDX-License-Identifier: ISC
// Copyright (c) 2014-2020 Bitmark Inc.
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package persistence_test

import (
	"io/ioutil"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/bitmark-inc/logger"
	"github.com/stretchr/testify/assert"

	"github.com/bitmark-inc/protectedstore/entry"
	"github.com/bitmark-inc/protectedstore/keypair"
	"github.com/bitmark-inc/protectedstore/payload"
	"github.com/bitmark-inc/protectedstore/persistence"
	"github.com/bitmark-inc/protectedstore/sequence"
	"github.com/bitmark-inc/protectedstore/snapshot"
)

type fixture struct {
	directory     string
	configuration persistence.Configuration
	log           *logger.L
}

func setup(t *testing.T) *fixture {
	directory, err := ioutil.TempDir("", "persistence")
	if nil != err {
		t.Fatalf("temp dir error: %s", err)
	}
	_ = logger.Initialise(logger.Configuration{
		Directory: directory,
		File:      "test.log",
		Size:      50000,
		Count:     10,
		Levels:    map[string]string{logger.DefaultTag: "critical"},
	})
	return &fixture{
		directory: directory,
		configuration: persistence.Configuration{
			Database:     filepath.Join(directory, "store.leveldb"),
			SnapshotFile: filepath.Join(directory, "store.snapshot"),
		},
		log: logger.New("persistence"),
	}
}

func (f *fixture) teardown() {
	logger.Finalise()
	os.RemoveAll(f.directory)
}

func (f *fixture) open(t *testing.T, configuration persistence.Configuration) *persistence.Gateway {
	g, err := persistence.New(configuration, f.log)
	if nil != err {
		t.Fatalf("persistence error: %s", err)
	}
	return g
}

func makeEntries(t *testing.T, n int) []entry.Entry {
	owner, err := keypair.New()
	if nil != err {
		t.Fatalf("key pair error: %s", err)
	}
	created := time.Now().Add(-time.Minute)
	entries := make([]entry.Entry, n)
	for i := range entries {
		e := entry.NewOrdinary(payload.Payload{
			Flags:   payload.Persistable,
			Owner:   owner.PublicKey,
			Content: []byte{'p', byte(i)},
		}, time.Hour, owner, int32(i))
		e.CreatedAt = created
		entries[i] = e
	}
	return entries
}

func snapshotOf(entries []entry.Entry) *snapshot.Snapshot {
	s := snapshot.New()
	for _, e := range entries {
		s.Entries = append(s.Entries, e)
		s.Sequences.Put(e.Identity(), sequence.Value{Number: e.SequenceNumber, Timestamp: e.CreatedAt})
	}
	s.Sort()
	return s
}

func TestEmptyStart(t *testing.T) {
	f := setup(t)
	defer f.teardown()

	g := f.open(t, f.configuration)
	defer g.Close()

	s, err := g.LoadAll()
	assert.Nil(t, err, "load")
	assert.Equal(t, 0, len(s.Entries), "entries")
	assert.False(t, g.FileOnly(), "file only")
}

func TestSaveAndLoad(t *testing.T) {
	f := setup(t)
	defer f.teardown()

	entries := makeEntries(t, 4)

	g := f.open(t, f.configuration)
	assert.Nil(t, g.SaveSnapshot(snapshotOf(entries)), "first save")

	// drop one entry, the database follows
	assert.Nil(t, g.SaveSnapshot(snapshotOf(entries[1:])), "second save")
	g.Close()

	g = f.open(t, f.configuration)
	defer g.Close()

	s, err := g.LoadAll()
	assert.Nil(t, err, "load")
	assert.Equal(t, 3, len(s.Entries), "entries")
	assert.Equal(t, 3, len(s.Sequences), "sequences")
	s.Sort()
	expected := snapshotOf(entries[1:])
	for i := range expected.Entries {
		assert.Equal(t, expected.Entries[i].Pack(), s.Entries[i].Pack(), "entry %d", i)
	}
}

func TestFileOnly(t *testing.T) {
	f := setup(t)
	defer f.teardown()

	configuration := f.configuration
	configuration.Database = ""

	g := f.open(t, configuration)
	defer g.Close()
	assert.True(t, g.FileOnly(), "file only")

	assert.Nil(t, g.SaveSnapshot(snapshotOf(makeEntries(t, 2))), "save")

	s, err := g.LoadAll()
	assert.Nil(t, err, "load")
	assert.Equal(t, 2, len(s.Entries), "entries")
}

func TestNothingConfigured(t *testing.T) {
	f := setup(t)
	defer f.teardown()

	_, err := persistence.New(persistence.Configuration{}, f.log)
	assert.NotNil(t, err, "no database and no file")
}

func TestBackupFile(t *testing.T) {
	f := setup(t)
	defer f.teardown()

	configuration := f.configuration
	configuration.Database = ""

	g := f.open(t, configuration)
	defer g.Close()

	assert.Nil(t, g.SaveSnapshot(snapshotOf(makeEntries(t, 3))), "first save")
	assert.Nil(t, g.SaveSnapshot(snapshotOf(makeEntries(t, 1))), "second save")

	err := ioutil.WriteFile(configuration.SnapshotFile, []byte("damaged"), 0600)
	assert.Nil(t, err, "damage")

	s, err := g.LoadAll()
	assert.Nil(t, err, "load")
	assert.Equal(t, 3, len(s.Entries), "entries from backup")
}

func TestForwardDatedClamped(t *testing.T) {
	f := setup(t)
	defer f.teardown()

	configuration := f.configuration
	configuration.Database = ""

	entries := makeEntries(t, 1)
	entries[0].CreatedAt = time.Now().Add(24 * time.Hour)
	err := snapshot.WriteFile(configuration.SnapshotFile, snapshotOf(entries))
	assert.Nil(t, err, "write")

	g := f.open(t, configuration)
	defer g.Close()

	before := time.Now()
	s, err := g.LoadAll()
	assert.Nil(t, err, "load")
	assert.Equal(t, 1, len(s.Entries), "entries")
	assert.False(t, s.Entries[0].CreatedAt.After(time.Now()), "created in future")
	assert.False(t, s.Entries[0].CreatedAt.Before(before), "created before load")
}

func TestDatabaseFailureFallsBack(t *testing.T) {
	f := setup(t)
	defer f.teardown()

	configuration := f.configuration
	configuration.FailureThreshold = 2

	g := f.open(t, configuration)
	defer g.Close()

	g.BreakDatabase()

	// database fails but the snapshot file is good
	assert.Nil(t, g.SaveSnapshot(snapshotOf(makeEntries(t, 1))), "first failure")
	assert.False(t, g.FileOnly(), "after one failure")

	assert.Nil(t, g.SaveSnapshot(snapshotOf(makeEntries(t, 2))), "second failure")
	assert.True(t, g.FileOnly(), "after threshold")

	assert.Nil(t, g.SaveSnapshot(snapshotOf(makeEntries(t, 3))), "file only save")

	s, err := g.LoadAll()
	assert.Nil(t, err, "load")
	assert.Equal(t, 3, len(s.Entries), "entries")
}

func TestReadDatabase(t *testing.T) {
	f := setup(t)
	defer f.teardown()

	entries := makeEntries(t, 3)

	g := f.open(t, f.configuration)
	assert.Nil(t, g.SaveSnapshot(snapshotOf(entries)), "save")
	g.Close()

	s, err := persistence.ReadDatabase(f.configuration.Database)
	assert.Nil(t, err, "read")
	assert.Equal(t, 3, len(s.Entries), "entries")
	assert.Equal(t, 3, len(s.Sequences), "sequences")

	_, err = persistence.ReadDatabase(filepath.Join(f.directory, "absent.leveldb"))
	assert.NotNil(t, err, "missing database")
}
