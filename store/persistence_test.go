// SPDX-License-Identifier: ISC
// Copyright (c) 2014-2020 Bitmark Inc.
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package store_test

import (
	"errors"
	"testing"
	"time"

	"github.com/golang/mock/gomock"
	"github.com/stretchr/testify/assert"

	"github.com/bitmark-inc/protectedstore/entry"
	"github.com/bitmark-inc/protectedstore/payload"
	"github.com/bitmark-inc/protectedstore/sequence"
	"github.com/bitmark-inc/protectedstore/snapshot"
	"github.com/bitmark-inc/protectedstore/store"
	"github.com/bitmark-inc/protectedstore/store/mocks"
)

func TestLoadVerifiesEntries(t *testing.T) {
	setupLogger()
	defer teardownLogger()

	ctl := gomock.NewController(t)
	defer ctl.Finish()

	owner := newKey(t)
	now := time.Now()

	good := entry.NewOrdinary(offer(owner, payload.Persistable, "good"), time.Hour, owner, 3)
	good.CreatedAt = now.Add(-time.Minute)

	corrupt := entry.NewOrdinary(offer(owner, payload.Persistable, "corrupt"), time.Hour, owner, 0)
	corrupt.Payload.Content[0] ^= 0x01
	corrupt.CreatedAt = now

	expired := entry.NewOrdinary(offer(owner, payload.Persistable, "expired"), time.Minute, owner, 0)
	expired.CreatedAt = now.Add(-time.Hour)

	saved := snapshot.New()
	saved.Entries = []entry.Entry{good, corrupt, expired}
	saved.Sequences.Put(expired.Identity(), sequence.Value{Number: 8, Timestamp: now})

	persistence := mocks.NewMockPersistence(ctl)
	persistence.EXPECT().LoadAll().Return(saved, nil).Times(1)

	s := newStore(t, persistence, nil)
	defer s.Stop()

	assert.Equal(t, 1, s.Size(), "size")
	_, ok := s.Get(good.Identity())
	assert.True(t, ok, "good entry loaded")
	assert.Equal(t, int32(4), s.NextSequenceNumber(good.Identity()), "next for loaded")
	assert.Equal(t, int32(9), s.NextSequenceNumber(expired.Identity()), "retained for expired")
}

func TestLoadFailureStartsEmpty(t *testing.T) {
	setupLogger()
	defer teardownLogger()

	ctl := gomock.NewController(t)
	defer ctl.Finish()

	persistence := mocks.NewMockPersistence(ctl)
	persistence.EXPECT().LoadAll().Return(nil, errors.New("disk on fire")).Times(1)

	s := newStore(t, persistence, nil)
	defer s.Stop()

	assert.Equal(t, 0, s.Size(), "size")
}

func TestSaveOnStop(t *testing.T) {
	setupLogger()
	defer teardownLogger()

	ctl := gomock.NewController(t)
	defer ctl.Finish()

	owner := newKey(t)
	kept := entry.NewOrdinary(offer(owner, payload.Persistable, "kept"), time.Hour, owner, 0)
	transient := entry.NewOrdinary(offer(owner, 0, "transient"), time.Hour, owner, 0)

	persistence := mocks.NewMockPersistence(ctl)
	persistence.EXPECT().LoadAll().Return(snapshot.New(), nil).Times(1)
	persistence.EXPECT().SaveSnapshot(gomock.Any()).DoAndReturn(func(saved *snapshot.Snapshot) error {
		assert.Equal(t, 1, len(saved.Entries), "persistable entries")
		assert.Equal(t, kept.Identity(), saved.Entries[0].Identity(), "saved identity")
		assert.Equal(t, 2, len(saved.Sequences), "sequence numbers")
		return nil
	}).Times(1)

	s := newStore(t, persistence, nil)
	assert.True(t, s.Add(kept, store.LocalSource), "add kept")
	assert.True(t, s.Add(transient, store.LocalSource), "add transient")
	s.Stop()
}

func TestSaveRetriesAfterFailure(t *testing.T) {
	setupLogger()
	defer teardownLogger()

	ctl := gomock.NewController(t)
	defer ctl.Finish()

	owner := newKey(t)
	e := entry.NewOrdinary(offer(owner, payload.Persistable, "retry"), time.Hour, owner, 0)

	persistence := mocks.NewMockPersistence(ctl)
	persistence.EXPECT().LoadAll().Return(snapshot.New(), nil).Times(1)
	gomock.InOrder(
		persistence.EXPECT().SaveSnapshot(gomock.Any()).Return(errors.New("write failed")).Times(1),
		persistence.EXPECT().SaveSnapshot(gomock.Any()).Return(nil).Times(1),
	)

	s := newStoreWith(t, store.Configuration{
		SweepInterval: time.Hour,
		SaveInterval:  10 * time.Millisecond,
	}, persistence, nil)

	assert.True(t, s.Add(e, store.LocalSource), "add")

	// first periodic save fails, the next succeeds and clears the change
	time.Sleep(100 * time.Millisecond)
	s.Stop()
}
