// SPDX-License-Identifier: ISC
// Copyright (c) 2014-2020 Bitmark Inc.
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

// Package verifier - decide whether an add or remove may be applied
//
// Checks are split in two: stateless ones (WellFormed, Authentic)
// that can run before taking the store lock, and stateful ones
// (AddAllowed, RemoveAllowed) that compare against what the store
// currently holds and must run under the lock. All return false for
// rejected input; none return errors.
package verifier

import (
	"time"

	"github.com/bitmark-inc/protectedstore/digest"
	"github.com/bitmark-inc/protectedstore/entry"
	"github.com/bitmark-inc/protectedstore/keypair"
	"github.com/bitmark-inc/protectedstore/mailbox"
	"github.com/bitmark-inc/protectedstore/payload"
	"github.com/bitmark-inc/protectedstore/sequence"
)

// Operation - what the candidate asks for
type Operation int

// operations
const (
	Add Operation = iota
	Remove
)

// State - what the store knows about one identity
type State struct {
	Existing    *entry.Entry    // nil if absent
	Retained    *sequence.Value // nil if never seen or purged
	RemovedOnce bool            // an AddOnce payload was removed
}

// View - read only store access for the combined checks
type View interface {
	State(identity digest.Digest) State
}

// WellFormed - structural checks that need no store state
func WellFormed(candidate entry.Entry, op Operation) bool {
	if !candidate.Owner.IsValid() || len(candidate.Payload.Content) > payload.MaximumContentSize {
		return false
	}
	if candidate.Payload.Flags.Has(payload.RequiresOwnerOnline) && "" == candidate.Payload.OwnerNode {
		return false
	}

	switch candidate.Kind {
	case entry.Ordinary:
		return candidate.Owner.Equal(candidate.Payload.Owner) &&
			0 == len(candidate.Payload.Receiver) &&
			(Remove == op || validTTL(candidate))

	case entry.Mailbox:
		if Remove == op {
			return mailbox.RemovalWellFormed(candidate)
		}
		return validTTL(candidate) && mailbox.AddWellFormed(candidate)

	default:
		return false
	}
}

func validTTL(candidate entry.Entry) bool {
	return candidate.TTLMillis > 0 && candidate.TTLMillis <= entry.MaximumTTLMillis
}

// SigningKey - the key whose signature authorises the operation
func SigningKey(candidate entry.Entry, op Operation) keypair.PublicKey {
	if entry.Mailbox == candidate.Kind {
		return mailbox.SigningKey(candidate, Remove == op)
	}
	return candidate.Owner
}

// Authentic - the signature covers hash(payload, sequence number)
// and was made with the operation's signing key
func Authentic(candidate entry.Entry, op Operation) bool {
	h := entry.SignedHash(candidate.Payload, candidate.SequenceNumber)
	return SigningKey(candidate, op).Verify(h[:], candidate.Signature)
}

// AddAllowed - freshness and ownership against the current state
func AddAllowed(candidate entry.Entry, state State) bool {
	if state.RemovedOnce && candidate.Payload.Flags.Has(payload.AddOnce) {
		return false
	}

	if existing := state.Existing; nil != existing {
		if existing.Kind != candidate.Kind {
			return false
		}
		switch candidate.Kind {
		case entry.Ordinary:
			if !candidate.Owner.Equal(existing.Owner) {
				return false
			}
		case entry.Mailbox:
			if !mailbox.AddAllowed(candidate, *existing) {
				return false
			}
		default:
			return false
		}
		return candidate.SequenceNumber > existing.SequenceNumber
	}

	if retained := state.Retained; nil != retained {
		return candidate.SequenceNumber > retained.Number
	}
	return true
}

// RemoveAllowed - the entry must be present and the remove newer
func RemoveAllowed(candidate entry.Entry, state State) bool {
	existing := state.Existing
	if nil == existing || existing.Kind != candidate.Kind {
		return false
	}

	switch candidate.Kind {
	case entry.Ordinary:
		if !candidate.Owner.Equal(existing.Owner) {
			return false
		}
	case entry.Mailbox:
		if !mailbox.RemoveAllowed(candidate, *existing) {
			return false
		}
	default:
		return false
	}
	return candidate.SequenceNumber > existing.SequenceNumber
}

// CanAdd - all checks for an add
func CanAdd(view View, candidate entry.Entry) bool {
	return WellFormed(candidate, Add) &&
		Authentic(candidate, Add) &&
		AddAllowed(candidate, view.State(candidate.Identity()))
}

// CanRemove - all checks for a remove
func CanRemove(view View, candidate entry.Entry) bool {
	return WellFormed(candidate, Remove) &&
		Authentic(candidate, Remove) &&
		RemoveAllowed(candidate, view.State(candidate.Identity()))
}

// CanRefresh - a refresh is an add of the stored entry with a new
// sequence number and signature; the entry must be present
func CanRefresh(view View, refresh entry.Refresh) bool {
	state := view.State(refresh.Identity)
	if nil == state.Existing {
		return false
	}
	updated := refresh.Apply(*state.Existing, time.Now())
	return Authentic(updated, Add) && AddAllowed(updated, state)
}
