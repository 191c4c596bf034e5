// SPDX-License-Identifier: ISC
// Copyright (c) 2014-2020 Bitmark Inc.
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package store_test

import (
	"sync"
	"testing"
	"time"

	"github.com/golang/mock/gomock"
	"github.com/stretchr/testify/assert"

	"github.com/bitmark-inc/protectedstore/digest"
	"github.com/bitmark-inc/protectedstore/entry"
	"github.com/bitmark-inc/protectedstore/fault"
	"github.com/bitmark-inc/protectedstore/payload"
	"github.com/bitmark-inc/protectedstore/store"
	"github.com/bitmark-inc/protectedstore/store/mocks"
)

func TestAddAndRemove(t *testing.T) {
	setupLogger()
	defer teardownLogger()

	s := newStore(t, nil, nil)
	defer s.Stop()

	owner := newKey(t)
	e := entry.NewOrdinary(offer(owner, 0, "offer"), time.Hour, owner, 0)

	assert.True(t, s.Add(e, store.LocalSource), "add")
	assert.Equal(t, 1, s.Size(), "size after add")

	r := entry.NewRemoval(e, owner, 1)
	assert.True(t, s.Remove(r, store.LocalSource), "remove")
	assert.Equal(t, 0, s.Size(), "size after remove")

	_, ok := s.Get(e.Identity())
	assert.False(t, ok, "get after remove")
}

func TestExpiry(t *testing.T) {
	setupLogger()
	defer teardownLogger()

	s := newStore(t, nil, nil)
	defer s.Stop()

	owner := newKey(t)
	p := offer(owner, 0, "short lived")
	identity := p.Identity()

	e := entry.NewOrdinary(p, 50*time.Millisecond, owner, 0)

	check := func(round int) {
		start := time.Now()

		time.Sleep(5 * time.Millisecond)
		_, ok := s.Get(identity)
		assert.True(t, ok, "%d: present at 5ms", round)

		time.Sleep(start.Add(25 * time.Millisecond).Sub(time.Now()))
		_, ok = s.Get(identity)
		assert.True(t, ok, "%d: present at 25ms", round)

		time.Sleep(start.Add(90 * time.Millisecond).Sub(time.Now()))
		_, ok = s.Get(identity)
		assert.False(t, ok, "%d: absent at 90ms", round)
	}

	assert.True(t, s.Add(e, store.LocalSource), "add")
	check(1)

	// same sequence number is retained after expiry
	assert.False(t, s.Add(e, store.LocalSource), "replay after expiry")

	// a peer supplied creation time is replaced on accept
	again := entry.NewOrdinary(p, 50*time.Millisecond, owner, s.NextSequenceNumber(identity))
	again.CreatedAt = time.Now().Add(time.Hour)
	assert.True(t, s.Add(again, store.LocalSource), "re-add")
	check(2)
}

// remove(0) fails, add(2) ok, add(1) fails, add(3) ok, add(3) fails,
// add(4) ok, remove(4) fails, remove(5) ok
func TestSequenceNumbers(t *testing.T) {
	setupLogger()
	defer teardownLogger()

	s := newStore(t, nil, nil)
	defer s.Stop()

	owner := newKey(t)
	p := offer(owner, 0, "versioned")
	e := entry.NewOrdinary(p, time.Hour, owner, 0)
	assert.True(t, s.Add(e, store.LocalSource), "initial add")

	add := func(n int32) bool {
		return s.Add(entry.NewOrdinary(p, time.Hour, owner, n), store.LocalSource)
	}
	remove := func(n int32) bool {
		return s.Remove(entry.NewRemoval(e, owner, n), store.LocalSource)
	}

	assert.False(t, remove(0), "remove(0)")
	assert.True(t, add(2), "add(2)")
	assert.False(t, add(1), "add(1)")
	assert.True(t, add(3), "add(3)")
	assert.False(t, add(3), "add(3) again")
	assert.True(t, add(4), "add(4)")

	current, ok := s.Get(e.Identity())
	assert.True(t, ok, "present")
	assert.Equal(t, int32(4), current.SequenceNumber, "stored sequence")

	assert.False(t, remove(4), "remove(4)")
	assert.True(t, remove(5), "remove(5)")
	assert.Equal(t, 0, s.Size(), "size")

	assert.False(t, add(5), "add(5) after remove(5)")
	assert.Equal(t, int32(6), s.NextSequenceNumber(e.Identity()), "next")
}

func TestOwnerExclusivity(t *testing.T) {
	setupLogger()
	defer teardownLogger()

	s := newStore(t, nil, nil)
	defer s.Stop()

	owner := newKey(t)
	other := newKey(t)
	p := offer(owner, 0, "mine")

	assert.True(t, s.Add(entry.NewOrdinary(p, time.Hour, owner, 0), store.LocalSource), "add")

	hijack := entry.NewOrdinary(p, time.Hour, owner, 10).SignedBy(other.PrivateKey)
	assert.False(t, s.Add(hijack, "peer"), "signed by other key")

	current, _ := s.Get(p.Identity())
	assert.Equal(t, int32(0), current.SequenceNumber, "unchanged")
}

func TestGetReturnsCopy(t *testing.T) {
	setupLogger()
	defer teardownLogger()

	s := newStore(t, nil, nil)
	defer s.Stop()

	owner := newKey(t)
	e := entry.NewOrdinary(offer(owner, 0, "immutable"), time.Hour, owner, 0)
	assert.True(t, s.Add(e, store.LocalSource), "add")

	got, _ := s.Get(e.Identity())
	got.Payload.Content[0] = 'X'
	got.Signature[0] ^= 0xff

	again, _ := s.Get(e.Identity())
	assert.Equal(t, e.Payload.Content, again.Payload.Content, "content")
	assert.Equal(t, e.Signature, again.Signature, "signature")

	all := s.SnapshotAll()
	assert.Equal(t, 1, len(all), "snapshot")
	all[0].Payload.Content[0] = 'Y'
	again, _ = s.Get(e.Identity())
	assert.Equal(t, e.Payload.Content, again.Payload.Content, "content after snapshot change")
}

func TestSnapshotAllOrder(t *testing.T) {
	setupLogger()
	defer teardownLogger()

	s := newStore(t, nil, nil)
	defer s.Stop()

	owner := newKey(t)
	for _, c := range []string{"a", "b", "c", "d", "e"} {
		assert.True(t, s.Add(entry.NewOrdinary(offer(owner, 0, c), time.Hour, owner, 0), store.LocalSource), "add %s", c)
	}

	all := s.SnapshotAll()
	assert.Equal(t, 5, len(all), "count")
	for i := 1; i < len(all); i += 1 {
		a := all[i-1].Identity()
		b := all[i].Identity()
		assert.True(t, a.String() < b.String(), "order at %d", i)
	}
}

func TestAddOnce(t *testing.T) {
	setupLogger()
	defer teardownLogger()

	s := newStore(t, nil, nil)
	defer s.Stop()

	owner := newKey(t)
	p := offer(owner, payload.AddOnce, "once")
	e := entry.NewOrdinary(p, time.Hour, owner, 0)

	assert.True(t, s.Add(e, store.LocalSource), "add")
	assert.True(t, s.Remove(entry.NewRemoval(e, owner, 1), store.LocalSource), "remove")
	assert.False(t, s.Add(entry.NewOrdinary(p, time.Hour, owner, 2), store.LocalSource), "re-add")
}

func TestRefresh(t *testing.T) {
	setupLogger()
	defer teardownLogger()

	s := newStore(t, nil, nil)
	defer s.Stop()

	owner := newKey(t)
	p := offer(owner, 0, "keep alive")
	e := entry.NewOrdinary(p, 60*time.Millisecond, owner, 0)
	assert.True(t, s.Add(e, store.LocalSource), "add")

	time.Sleep(40 * time.Millisecond)
	r := entry.NewRefresh(e, owner, 1)
	assert.True(t, s.Refresh(r, store.LocalSource), "refresh")
	assert.False(t, s.Refresh(r, store.LocalSource), "refresh replay")

	time.Sleep(40 * time.Millisecond)
	current, ok := s.Get(p.Identity())
	assert.True(t, ok, "present after original expiry time")
	assert.Equal(t, int32(1), current.SequenceNumber, "sequence")
}

func TestBackdate(t *testing.T) {
	setupLogger()
	defer teardownLogger()

	s := newStore(t, nil, nil)
	defer s.Stop()

	owner := newKey(t)
	p := offer(owner, payload.RequiresOwnerOnline, "online only")
	p.OwnerNode = "QmNode"
	e := entry.NewOrdinary(p, time.Hour, owner, 0)
	assert.True(t, s.Add(e, store.LocalSource), "add")

	before, _ := s.Get(p.Identity())
	assert.Equal(t, 0, s.BackdateOwnedBy("QmOther"), "other node")
	assert.Equal(t, 1, s.BackdateOwnedBy("QmNode"), "owner node")

	after, _ := s.Get(p.Identity())
	assert.Equal(t, 30*time.Minute, before.CreatedAt.Sub(after.CreatedAt), "backdated by half ttl")
	assert.Equal(t, uint64(1), s.Statistics()[store.CountBackdated], "counter")
}

func TestRemoveMailboxEntryMisuse(t *testing.T) {
	setupLogger()
	defer teardownLogger()

	s := newStore(t, nil, nil)
	defer s.Stop()

	owner := newKey(t)
	e := entry.NewOrdinary(offer(owner, 0, "ordinary"), time.Hour, owner, 0)
	assert.True(t, s.Add(e, store.LocalSource), "add")

	ok, err := s.RemoveMailboxEntry(entry.NewRemoval(e, owner, 1), store.LocalSource)
	assert.False(t, ok, "ordinary candidate")
	assert.Equal(t, fault.ErrNotMailboxEntry, err, "ordinary candidate error")

	fake := entry.NewRemoval(e, owner, 1)
	fake.Kind = entry.Mailbox
	fake.Receiver = owner.PublicKey
	ok, err = s.RemoveMailboxEntry(fake, store.LocalSource)
	assert.False(t, ok, "ordinary stored entry")
	assert.Equal(t, fault.ErrNotMailboxEntry, err, "ordinary stored entry error")

	assert.Equal(t, 1, s.Size(), "size")
}

func TestConcurrentAdds(t *testing.T) {
	setupLogger()
	defer teardownLogger()

	s := newStore(t, nil, nil)
	defer s.Stop()

	owner := newKey(t)
	p := offer(owner, 0, "contended")

	const workers = 20
	candidates := make([]entry.Entry, workers)
	for i := range candidates {
		// two candidates per sequence number
		candidates[i] = entry.NewOrdinary(p, time.Hour, owner, int32(i/2))
	}

	var wg sync.WaitGroup
	accepted := make([]bool, workers)
	for i := range candidates {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			accepted[i] = s.Add(candidates[i], store.LocalSource)
		}(i)
	}
	wg.Wait()

	current, ok := s.Get(p.Identity())
	assert.True(t, ok, "present")
	assert.Equal(t, int32(workers/2-1), current.SequenceNumber, "highest sequence wins")

	// a tie admits at most one
	for i := 0; i < workers; i += 2 {
		assert.False(t, accepted[i] && accepted[i+1], "both accepted for sequence %d", i/2)
	}
}

func TestListenersAndBroadcast(t *testing.T) {
	setupLogger()
	defer teardownLogger()

	ctl := gomock.NewController(t)
	defer ctl.Finish()

	listener := mocks.NewMockListener(ctl)
	broadcaster := mocks.NewMockBroadcaster(ctl)

	owner := newKey(t)
	e := entry.NewOrdinary(offer(owner, 0, "observed"), time.Hour, owner, 0)
	r := entry.NewRemoval(e, owner, 1)
	refresh := entry.NewRefresh(e, owner, 1)

	gomock.InOrder(
		listener.EXPECT().EntryAdded(gomock.Any()).Times(1),
		broadcaster.EXPECT().BroadcastAdd(gomock.Any(), "peer-1").Times(1),
		listener.EXPECT().EntryAdded(gomock.Any()).Times(1),
		broadcaster.EXPECT().BroadcastRefresh(refresh, "peer-2").Times(1),
		listener.EXPECT().EntryRemoved(gomock.Any()).Times(1),
		broadcaster.EXPECT().BroadcastRemove(gomock.Any(), store.LocalSource).Times(1),
	)

	s := newStore(t, nil, broadcaster, listener)
	defer s.Stop()

	assert.True(t, s.Add(e, "peer-1"), "add")
	assert.False(t, s.Add(e, "peer-3"), "stale add has no side effects")
	assert.True(t, s.Refresh(refresh, "peer-2"), "refresh")
	assert.False(t, s.Remove(r, store.LocalSource), "remove with refreshed sequence")
	assert.True(t, s.Remove(entry.NewRemoval(e, owner, 2), store.LocalSource), "remove")
}

func TestExpiryNotifiesWithoutBroadcast(t *testing.T) {
	setupLogger()
	defer teardownLogger()

	ctl := gomock.NewController(t)
	defer ctl.Finish()

	listener := mocks.NewMockListener(ctl)
	broadcaster := mocks.NewMockBroadcaster(ctl)

	removed := make(chan digest.Digest, 1)
	listener.EXPECT().EntryAdded(gomock.Any()).Times(1)
	broadcaster.EXPECT().BroadcastAdd(gomock.Any(), gomock.Any()).Times(1)
	listener.EXPECT().EntryRemoved(gomock.Any()).Do(func(e entry.Entry) {
		removed <- e.Identity()
	}).Times(1)

	s := newStore(t, nil, broadcaster, listener)
	defer s.Stop()

	owner := newKey(t)
	e := entry.NewOrdinary(offer(owner, 0, "expiring"), 10*time.Millisecond, owner, 0)
	assert.True(t, s.Add(e, store.LocalSource), "add")

	select {
	case identity := <-removed:
		assert.Equal(t, e.Identity(), identity, "expired identity")
	case <-time.After(2 * time.Second):
		t.Fatal("entry did not expire")
	}
	assert.Equal(t, uint64(1), s.Statistics()[store.CountExpired], "expired count")
}
