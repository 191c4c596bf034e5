// SPDX-License-Identifier: ISC
// Copyright (c) 2014-2020 Bitmark Inc.
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package snapshot_test

import (
	"io/ioutil"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/bitmark-inc/protectedstore/digest"
	"github.com/bitmark-inc/protectedstore/entry"
	"github.com/bitmark-inc/protectedstore/fault"
	"github.com/bitmark-inc/protectedstore/keypair"
	"github.com/bitmark-inc/protectedstore/mailbox"
	"github.com/bitmark-inc/protectedstore/payload"
	"github.com/bitmark-inc/protectedstore/sequence"
	"github.com/bitmark-inc/protectedstore/snapshot"
	"github.com/bitmark-inc/protectedstore/verifier"
)

func makeSnapshot(t *testing.T) *snapshot.Snapshot {
	owner, err := keypair.New()
	if nil != err {
		t.Fatalf("key pair error: %s", err)
	}
	receiver, err := keypair.New()
	if nil != err {
		t.Fatalf("key pair error: %s", err)
	}

	created := time.Unix(1580000000, 123*int64(time.Millisecond))

	ordinary := entry.NewOrdinary(payload.Payload{
		Flags:   payload.Persistable,
		Owner:   owner.PublicKey,
		Content: []byte("trade statistics"),
	}, time.Hour, owner, 7)
	ordinary.CreatedAt = created

	box := mailbox.NewDelivery(payload.Payload{
		Flags:   payload.Persistable,
		Owner:   owner.PublicKey,
		Content: []byte("sealed message"),
	}, time.Hour, owner, receiver.PublicKey, 1)
	box.CreatedAt = created

	s := snapshot.New()
	s.Entries = append(s.Entries, ordinary, box)
	s.Sequences.Put(ordinary.Identity(), sequence.Value{Number: 7, Timestamp: created})
	s.Sequences.Put(box.Identity(), sequence.Value{Number: 1, Timestamp: created})
	gone := digest.NewDigest([]byte("removed"))
	s.Sequences.Put(gone, sequence.Value{Number: 3, Timestamp: created, Removed: true})
	s.Removed = append(s.Removed, gone)
	s.Sort()
	return s
}

func TestRoundTrip(t *testing.T) {
	dir, err := ioutil.TempDir("", "snapshot")
	if nil != err {
		t.Fatalf("temp dir error: %s", err)
	}
	defer os.RemoveAll(dir)

	fileName := filepath.Join(dir, "store.snapshot")
	s := makeSnapshot(t)

	err = snapshot.WriteFile(fileName, s)
	assert.Nil(t, err, "write")

	r, err := snapshot.ReadFile(fileName)
	assert.Nil(t, err, "read")
	r.Sort()

	assert.Equal(t, len(s.Entries), len(r.Entries), "entry count")
	for i := range s.Entries {
		assert.Equal(t, s.Entries[i].Pack(), r.Entries[i].Pack(), "entry %d", i)
		assert.True(t, s.Entries[i].CreatedAt.Equal(r.Entries[i].CreatedAt), "created %d", i)
		assert.True(t, verifier.Authentic(r.Entries[i], verifier.Add), "signature %d", i)
	}
	assert.Equal(t, len(s.Sequences), len(r.Sequences), "sequence count")
	for identity, v := range s.Sequences {
		rv, ok := r.Sequences.Get(identity)
		assert.True(t, ok, "sequence present")
		assert.Equal(t, v.Number, rv.Number, "sequence number")
		assert.Equal(t, v.Removed, rv.Removed, "sequence removed")
	}
	assert.Equal(t, s.Removed, r.Removed, "removed")
}

func TestBackup(t *testing.T) {
	dir, err := ioutil.TempDir("", "snapshot")
	if nil != err {
		t.Fatalf("temp dir error: %s", err)
	}
	defer os.RemoveAll(dir)

	fileName := filepath.Join(dir, "store.snapshot")

	first := makeSnapshot(t)
	assert.Nil(t, snapshot.WriteFile(fileName, first), "first write")
	_, err = os.Stat(snapshot.BackupName(fileName))
	assert.True(t, os.IsNotExist(err), "backup after first write")

	assert.Nil(t, snapshot.WriteFile(fileName, snapshot.New()), "second write")

	current, err := snapshot.ReadFile(fileName)
	assert.Nil(t, err, "read current")
	assert.Equal(t, 0, len(current.Entries), "current entries")

	previous, err := snapshot.ReadFile(snapshot.BackupName(fileName))
	assert.Nil(t, err, "read backup")
	assert.Equal(t, len(first.Entries), len(previous.Entries), "backup entries")
}

func TestDamagedFiles(t *testing.T) {
	dir, err := ioutil.TempDir("", "snapshot")
	if nil != err {
		t.Fatalf("temp dir error: %s", err)
	}
	defer os.RemoveAll(dir)

	fileName := filepath.Join(dir, "store.snapshot")
	assert.Nil(t, snapshot.WriteFile(fileName, makeSnapshot(t)), "write")

	data, err := ioutil.ReadFile(fileName)
	assert.Nil(t, err, "read raw")

	truncated := filepath.Join(dir, "truncated")
	err = ioutil.WriteFile(truncated, data[:len(data)-10], 0600)
	assert.Nil(t, err, "write truncated")
	_, err = snapshot.ReadFile(truncated)
	assert.Equal(t, fault.ErrSnapshotFileTruncated, err, "truncated")

	garbage := filepath.Join(dir, "garbage")
	err = ioutil.WriteFile(garbage, []byte("not a snapshot at all"), 0600)
	assert.Nil(t, err, "write garbage")
	_, err = snapshot.ReadFile(garbage)
	assert.Equal(t, fault.ErrNotASnapshotFile, err, "garbage")

	_, err = snapshot.ReadFile(filepath.Join(dir, "missing"))
	assert.True(t, os.IsNotExist(err), "missing")
}
