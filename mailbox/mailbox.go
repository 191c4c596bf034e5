// SPDX-License-Identifier: ISC
// Copyright (c) 2014-2020 Bitmark Inc.
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

// Package mailbox - single receiver entries
//
// A sender deposits a mailbox entry signed with its own key and naming
// the receiver; only the receiver can retire it. A removal carries the
// receiver key both as owner and as receiver and is signed by the
// receiver.
//
//   Absent --add by sender--> Delivered --remove by receiver--> Absent
//                             Delivered --ttl expiry----------> Absent
package mailbox

import (
	"time"

	"github.com/bitmark-inc/protectedstore/digest"
	"github.com/bitmark-inc/protectedstore/entry"
	"github.com/bitmark-inc/protectedstore/keypair"
	"github.com/bitmark-inc/protectedstore/payload"
)

// State - delivery state of a mailbox identity
type State int

// mailbox states
const (
	Absent State = iota
	Delivered
)

// String - name of the state
func (s State) String() string {
	if Delivered == s {
		return "delivered"
	}
	return "absent"
}

// Getter - read access to stored entries
type Getter interface {
	Get(identity digest.Digest) (entry.Entry, bool)
}

// StateOf - current state of an identity; an ordinary entry under
// the identity counts as Absent for mailbox purposes
func StateOf(g Getter, identity digest.Digest) State {
	e, ok := g.Get(identity)
	if ok && e.IsMailbox() {
		return Delivered
	}
	return Absent
}

// NewDelivery - a mailbox entry from sender to receiver, the receiver
// is written into the payload so the sender's signature covers it
func NewDelivery(p payload.Payload, ttl time.Duration, sender *keypair.KeyPair, receiver keypair.PublicKey, sequenceNumber int32) entry.Entry {
	p.Receiver = receiver
	e := entry.Entry{
		Kind:           entry.Mailbox,
		Payload:        p,
		TTLMillis:      int64(ttl / time.Millisecond),
		Owner:          sender.PublicKey,
		SequenceNumber: sequenceNumber,
		Receiver:       receiver,
	}
	return e.SignedBy(sender.PrivateKey)
}

// NewRemoval - acknowledgement of receipt from the receiver
func NewRemoval(delivered entry.Entry, receiver *keypair.KeyPair, sequenceNumber int32) entry.Entry {
	e := delivered.Clone()
	e.Kind = entry.Mailbox
	e.Owner = receiver.PublicKey
	e.Receiver = receiver.PublicKey
	e.SequenceNumber = sequenceNumber
	e.CreatedAt = time.Time{}
	return e.SignedBy(receiver.PrivateKey)
}

// SigningKey - key that must have signed the candidate
func SigningKey(candidate entry.Entry, removal bool) keypair.PublicKey {
	if removal {
		return candidate.Receiver
	}
	return candidate.Owner
}

// AddWellFormed - the sender owns the payload and the receiver is the
// one named inside the signed payload
func AddWellFormed(candidate entry.Entry) bool {
	return candidate.IsMailbox() &&
		candidate.Receiver.IsValid() &&
		candidate.Receiver.Equal(candidate.Payload.Receiver) &&
		candidate.Owner.Equal(candidate.Payload.Owner)
}

// RemovalWellFormed - owner and receiver are both the receiver key
// named inside the payload
func RemovalWellFormed(candidate entry.Entry) bool {
	return candidate.IsMailbox() &&
		candidate.Receiver.IsValid() &&
		candidate.Receiver.Equal(candidate.Payload.Receiver) &&
		candidate.Owner.Equal(candidate.Receiver)
}

// AddAllowed - an add over an existing entry must be a resend from
// the same sender to the same receiver
func AddAllowed(candidate entry.Entry, existing entry.Entry) bool {
	return existing.IsMailbox() &&
		candidate.Owner.Equal(existing.Owner) &&
		candidate.Receiver.Equal(existing.Receiver)
}

// RemoveAllowed - the removal names the receiver stored at delivery
func RemoveAllowed(candidate entry.Entry, existing entry.Entry) bool {
	return existing.IsMailbox() &&
		candidate.Receiver.Equal(existing.Receiver)
}
