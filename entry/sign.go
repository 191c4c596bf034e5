// SPDX-License-Identifier: ISC
// Copyright (c) 2014-2020 Bitmark Inc.
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package entry

import (
	"time"

	"github.com/bitmark-inc/protectedstore/digest"
	"github.com/bitmark-inc/protectedstore/keypair"
	"github.com/bitmark-inc/protectedstore/payload"
	"github.com/bitmark-inc/protectedstore/util"
)

// SignedHash - the digest covered by an entry signature:
// the packed payload prefixed by Varint64(length)
// followed by Varint64 of the 32 bit sequence number
func SignedHash(p payload.Payload, sequenceNumber int32) digest.Digest {
	buffer := util.AppendBytes(nil, p.Pack())
	buffer = util.AppendVarint64(buffer, uint64(uint32(sequenceNumber)))
	return digest.NewDigest(buffer)
}

// NewOrdinary - create an ordinary entry signed by its owner
func NewOrdinary(p payload.Payload, ttl time.Duration, owner *keypair.KeyPair, sequenceNumber int32) Entry {
	e := Entry{
		Kind:           Ordinary,
		Payload:        p,
		TTLMillis:      int64(ttl / time.Millisecond),
		Owner:          owner.PublicKey,
		SequenceNumber: sequenceNumber,
	}
	return e.SignedBy(owner.PrivateKey)
}

// NewRemoval - a request to remove an ordinary entry, signed by
// the owner for the given sequence number
func NewRemoval(existing Entry, owner *keypair.KeyPair, sequenceNumber int32) Entry {
	e := existing.Clone()
	e.SequenceNumber = sequenceNumber
	e.CreatedAt = time.Time{}
	return e.SignedBy(owner.PrivateKey)
}

// SignedBy - copy of the entry with a signature from the key
func (e Entry) SignedBy(key keypair.PrivateKey) Entry {
	h := SignedHash(e.Payload, e.SequenceNumber)
	e.Signature = key.Sign(h[:])
	return e
}
