// SPDX-License-Identifier: ISC
// Copyright (c) 2014-2020 Bitmark Inc.
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

// Package entry - the protected, expirable record held by the store
//
// An entry is either Ordinary or Mailbox; both carry the same fields
// and a Mailbox entry additionally names its receiver. Entries are
// values: accepted entries are replaced wholesale, never modified.
package entry

import (
	"time"

	"github.com/bitmark-inc/protectedstore/digest"
	"github.com/bitmark-inc/protectedstore/keypair"
	"github.com/bitmark-inc/protectedstore/payload"
)

// Kind - tag selecting the authorisation rules of an entry
type Kind uint8

// entry kinds, the values are also the wire tags
const (
	Ordinary Kind = 1
	Mailbox  Kind = 2
)

// String - name of the kind
func (k Kind) String() string {
	switch k {
	case Ordinary:
		return "ordinary"
	case Mailbox:
		return "mailbox"
	default:
		return "unknown"
	}
}

// Entry - a payload with its authorisation proof and expiry
type Entry struct {
	Kind           Kind
	Payload        payload.Payload
	TTLMillis      int64
	Owner          keypair.PublicKey
	SequenceNumber int32
	Signature      keypair.Signature
	Receiver       keypair.PublicKey // Mailbox only
	CreatedAt      time.Time         // set by the store on acceptance
}

// Identity - the identity of the payload
func (e Entry) Identity() digest.Digest {
	return e.Payload.Identity()
}

// TTL - time to live as a duration
func (e Entry) TTL() time.Duration {
	return time.Duration(e.TTLMillis) * time.Millisecond
}

// ExpiresAt - the time from which the entry may be evicted
func (e Entry) ExpiresAt() time.Time {
	return e.CreatedAt.Add(e.TTL())
}

// IsExpired - true when now - createdAt >= ttl
func (e Entry) IsExpired(now time.Time) bool {
	return now.Sub(e.CreatedAt) >= e.TTL()
}

// IsMailbox - true for the single receiver variant
func (e Entry) IsMailbox() bool {
	return Mailbox == e.Kind
}

// Clone - deep copy so callers cannot alias store memory
func (e Entry) Clone() Entry {
	c := e
	c.Payload.Owner = cloneBytes(e.Payload.Owner)
	c.Payload.Receiver = cloneBytes(e.Payload.Receiver)
	c.Payload.Content = cloneBytes(e.Payload.Content)
	c.Owner = cloneBytes(e.Owner)
	c.Signature = cloneBytes(e.Signature)
	c.Receiver = cloneBytes(e.Receiver)
	return c
}

func cloneBytes(b []byte) []byte {
	if nil == b {
		return nil
	}
	c := make([]byte, len(b))
	copy(c, b)
	return c
}
