// SPDX-License-Identifier: ISC
// Copyright (c) 2014-2020 Bitmark Inc.
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package verifier_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/bitmark-inc/protectedstore/digest"
	"github.com/bitmark-inc/protectedstore/entry"
	"github.com/bitmark-inc/protectedstore/keypair"
	"github.com/bitmark-inc/protectedstore/mailbox"
	"github.com/bitmark-inc/protectedstore/payload"
	"github.com/bitmark-inc/protectedstore/sequence"
	"github.com/bitmark-inc/protectedstore/verifier"
)

// minimal view: one optional entry per identity plus retained values
type view struct {
	entries  map[digest.Digest]entry.Entry
	retained map[digest.Digest]sequence.Value
	removed  map[digest.Digest]bool
}

func newView() *view {
	return &view{
		entries:  make(map[digest.Digest]entry.Entry),
		retained: make(map[digest.Digest]sequence.Value),
		removed:  make(map[digest.Digest]bool),
	}
}

func (v *view) State(identity digest.Digest) verifier.State {
	s := verifier.State{RemovedOnce: v.removed[identity]}
	if e, ok := v.entries[identity]; ok {
		s.Existing = &e
	}
	if r, ok := v.retained[identity]; ok {
		s.Retained = &r
	}
	return s
}

// apply mimics the store after a successful check
func (v *view) add(e entry.Entry) {
	v.entries[e.Identity()] = e
	v.retained[e.Identity()] = sequence.Value{Number: e.SequenceNumber, Timestamp: time.Now()}
}

func (v *view) remove(e entry.Entry) {
	delete(v.entries, e.Identity())
	v.retained[e.Identity()] = sequence.Value{Number: e.SequenceNumber, Timestamp: time.Now(), Removed: true}
	if e.Payload.Flags.Has(payload.AddOnce) {
		v.removed[e.Identity()] = true
	}
}

func newKey(t *testing.T) *keypair.KeyPair {
	pair, err := keypair.New()
	if nil != err {
		t.Fatalf("key pair error: %s", err)
	}
	return pair
}

func offer(owner *keypair.KeyPair, flags payload.Flags) payload.Payload {
	return payload.Payload{
		Flags:   flags,
		Owner:   owner.PublicKey,
		Content: []byte("offer: sell 1 BTC"),
	}
}

func TestAddAndRemove(t *testing.T) {
	owner := newKey(t)
	v := newView()

	e := entry.NewOrdinary(offer(owner, 0), time.Hour, owner, 0)
	assert.True(t, verifier.CanAdd(v, e))
	v.add(e)

	r := entry.NewRemoval(e, owner, 1)
	assert.True(t, verifier.CanRemove(v, r))
	v.remove(r)

	assert.False(t, verifier.CanRemove(v, entry.NewRemoval(e, owner, 2)), "absent identity removed")
}

// remove(0) fails, add(2) ok, add(1) fails, add(3) ok, add(3) fails,
// add(4) ok, remove(4) fails, remove(5) ok
func TestSequenceGrid(t *testing.T) {
	owner := newKey(t)
	v := newView()
	p := offer(owner, 0)

	e := entry.NewOrdinary(p, time.Hour, owner, 0)
	assert.True(t, verifier.CanAdd(v, e))
	v.add(e)

	steps := []struct {
		remove   bool
		sequence int32
		ok       bool
	}{
		{true, 0, false},
		{false, 2, true},
		{false, 1, false},
		{false, 3, true},
		{false, 3, false},
		{false, 4, true},
		{true, 4, false},
		{true, 5, true},
	}

	for i, step := range steps {
		if step.remove {
			r := entry.NewRemoval(e, owner, step.sequence)
			ok := verifier.CanRemove(v, r)
			assert.Equal(t, step.ok, ok, "%d: remove(%d)", i, step.sequence)
			if ok {
				v.remove(r)
			}
		} else {
			a := entry.NewOrdinary(p, time.Hour, owner, step.sequence)
			ok := verifier.CanAdd(v, a)
			assert.Equal(t, step.ok, ok, "%d: add(%d)", i, step.sequence)
			if ok {
				v.add(a)
			}
		}
	}
}

func TestBadSignature(t *testing.T) {
	owner := newKey(t)
	thief := newKey(t)
	v := newView()

	e := entry.NewOrdinary(offer(owner, 0), time.Hour, owner, 0)
	forged := e.SignedBy(thief.PrivateKey)
	assert.False(t, verifier.CanAdd(v, forged))

	// claims to be the owner of someone else's payload
	squat := entry.NewOrdinary(offer(owner, 0), time.Hour, thief, 0)
	assert.False(t, verifier.CanAdd(v, squat))
}

func TestOwnerExclusivity(t *testing.T) {
	owner := newKey(t)
	other := newKey(t)
	v := newView()

	e := entry.NewOrdinary(offer(owner, 0), time.Hour, owner, 0)
	v.add(e)

	// correctly signed by other for its own key, higher sequence
	takeover := e
	takeover.Owner = other.PublicKey
	takeover.SequenceNumber = 10
	takeover = takeover.SignedBy(other.PrivateKey)
	assert.False(t, verifier.CanAdd(v, takeover))

	r := entry.NewRemoval(e, other, 10)
	assert.False(t, verifier.CanRemove(v, r))
}

func TestRetainedSequence(t *testing.T) {
	owner := newKey(t)
	v := newView()
	p := offer(owner, 0)

	e := entry.NewOrdinary(p, time.Hour, owner, 5)
	v.add(e)
	v.remove(entry.NewRemoval(e, owner, 6))

	assert.False(t, verifier.CanAdd(v, entry.NewOrdinary(p, time.Hour, owner, 5)), "replayed add after remove")
	assert.False(t, verifier.CanAdd(v, entry.NewOrdinary(p, time.Hour, owner, 6)), "remove signature reused as add")
	assert.True(t, verifier.CanAdd(v, entry.NewOrdinary(p, time.Hour, owner, 7)))
}

func TestAddOnce(t *testing.T) {
	owner := newKey(t)
	v := newView()
	p := offer(owner, payload.AddOnce)

	e := entry.NewOrdinary(p, time.Hour, owner, 0)
	v.add(e)
	v.remove(entry.NewRemoval(e, owner, 1))

	assert.False(t, verifier.CanAdd(v, entry.NewOrdinary(p, time.Hour, owner, 100)))
}

func TestWellFormed(t *testing.T) {
	owner := newKey(t)

	e := entry.NewOrdinary(offer(owner, 0), 0, owner, 0)
	assert.False(t, verifier.WellFormed(e, verifier.Add), "zero ttl")
	assert.True(t, verifier.WellFormed(e, verifier.Remove), "ttl is irrelevant on remove")

	p := offer(owner, payload.RequiresOwnerOnline)
	e = entry.NewOrdinary(p, time.Hour, owner, 0)
	assert.False(t, verifier.WellFormed(e, verifier.Add), "missing owner node")

	p.OwnerNode = "QmOwnerNode"
	e = entry.NewOrdinary(p, time.Hour, owner, 0)
	assert.True(t, verifier.WellFormed(e, verifier.Add))

	e.Kind = entry.Kind(9)
	assert.False(t, verifier.WellFormed(e, verifier.Add), "unknown kind")

	e = entry.NewOrdinary(offer(owner, 0), time.Hour, owner, 0)
	e.TTLMillis = entry.MaximumTTLMillis
	assert.True(t, verifier.WellFormed(e, verifier.Add), "largest ttl")
	e.TTLMillis = entry.MaximumTTLMillis + 1
	assert.False(t, verifier.WellFormed(e, verifier.Add), "ttl overflows a duration")

	receiver := newKey(t)
	p = offer(owner, 0)
	p.Receiver = receiver.PublicKey
	e = entry.NewOrdinary(p, time.Hour, owner, 0)
	assert.False(t, verifier.WellFormed(e, verifier.Add), "ordinary payload with a receiver")
}

func TestMailboxTTLBound(t *testing.T) {
	sender := newKey(t)
	receiver := newKey(t)

	p := payload.Payload{Owner: sender.PublicKey, Content: []byte("long lived")}
	delivered := mailbox.NewDelivery(p, time.Hour, sender, receiver.PublicKey, 0)
	delivered.TTLMillis = entry.MaximumTTLMillis + 1
	assert.False(t, verifier.WellFormed(delivered, verifier.Add), "ttl overflows a duration")
}

func TestMailbox(t *testing.T) {
	sender := newKey(t)
	receiver := newKey(t)
	v := newView()

	p := payload.Payload{Owner: sender.PublicKey, Content: []byte("encrypted for receiver")}
	delivered := mailbox.NewDelivery(p, time.Hour, sender, receiver.PublicKey, 0)
	assert.True(t, verifier.CanAdd(v, delivered))
	v.add(delivered)

	next := delivered.SequenceNumber + 1

	// signed by sender
	bySender := mailbox.NewRemoval(delivered, receiver, next).SignedBy(sender.PrivateKey)
	assert.False(t, verifier.CanRemove(v, bySender), "signed by sender")

	// sequence not increased
	sameSequence := mailbox.NewRemoval(delivered, receiver, delivered.SequenceNumber)
	assert.False(t, verifier.CanRemove(v, sameSequence), "wrong sequence")

	// owner left as the sender key
	wrongOwner := mailbox.NewRemoval(delivered, receiver, next)
	wrongOwner.Owner = sender.PublicKey
	assert.False(t, verifier.CanRemove(v, wrongOwner), "wrong signing key")

	// receiver field names the sender
	wrongReceiver := mailbox.NewRemoval(delivered, receiver, next)
	wrongReceiver.Receiver = sender.PublicKey
	assert.False(t, verifier.CanRemove(v, wrongReceiver), "mismatched receiver")

	// an ordinary remove cannot retire a mailbox entry
	ordinary := entry.NewRemoval(delivered, sender, next)
	ordinary.Kind = entry.Ordinary
	ordinary.Receiver = nil
	assert.False(t, verifier.CanRemove(v, ordinary), "kind mismatch")

	good := mailbox.NewRemoval(delivered, receiver, next)
	assert.True(t, verifier.CanRemove(v, good))
}

func TestMailboxOverwrite(t *testing.T) {
	sender := newKey(t)
	other := newKey(t)
	receiver := newKey(t)
	v := newView()

	p := payload.Payload{Owner: sender.PublicKey, Content: []byte("message")}
	delivered := mailbox.NewDelivery(p, time.Hour, sender, receiver.PublicKey, 0)
	v.add(delivered)

	// other signs an add claiming the same payload
	overwrite := mailbox.NewDelivery(p, time.Hour, other, receiver.PublicKey, 1)
	assert.False(t, verifier.CanAdd(v, overwrite))

	resend := mailbox.NewDelivery(p, time.Hour, sender, receiver.PublicKey, 1)
	assert.True(t, verifier.CanAdd(v, resend))
}

func TestRefresh(t *testing.T) {
	owner := newKey(t)
	thief := newKey(t)
	v := newView()

	e := entry.NewOrdinary(offer(owner, 0), time.Hour, owner, 3)

	r := entry.NewRefresh(e, owner, 4)
	assert.False(t, verifier.CanRefresh(v, r), "refresh of absent entry")

	v.add(e)
	assert.True(t, verifier.CanRefresh(v, r))
	assert.False(t, verifier.CanRefresh(v, entry.NewRefresh(e, owner, 3)), "stale refresh")
	assert.False(t, verifier.CanRefresh(v, entry.NewRefresh(e, thief, 9)), "refresh by non-owner")
}
