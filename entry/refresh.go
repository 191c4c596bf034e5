// SPDX-License-Identifier: ISC
// Copyright (c) 2014-2020 Bitmark Inc.
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package entry

import (
	"time"

	"github.com/bitmark-inc/protectedstore/digest"
	"github.com/bitmark-inc/protectedstore/fault"
	"github.com/bitmark-inc/protectedstore/keypair"
	"github.com/bitmark-inc/protectedstore/util"
)

// Refresh - extends the life of a stored entry without resending
// its payload; signed by the owner like an add with a higher sequence
type Refresh struct {
	Identity       digest.Digest
	SequenceNumber int32
	Signature      keypair.Signature
}

// NewRefresh - a refresh of an existing entry signed by its owner
func NewRefresh(existing Entry, owner *keypair.KeyPair, sequenceNumber int32) Refresh {
	h := SignedHash(existing.Payload, sequenceNumber)
	return Refresh{
		Identity:       existing.Identity(),
		SequenceNumber: sequenceNumber,
		Signature:      owner.PrivateKey.Sign(h[:]),
	}
}

// Apply - the entry that replaces existing once the refresh is accepted
func (r Refresh) Apply(existing Entry, now time.Time) Entry {
	e := existing.Clone()
	e.SequenceNumber = r.SequenceNumber
	e.Signature = r.Signature
	e.CreatedAt = now
	return e
}

// Pack - identity, Varint64(sequence number), signature
func (r Refresh) Pack() []byte {
	buffer := util.AppendBytes(nil, r.Identity[:])
	buffer = util.AppendVarint64(buffer, uint64(uint32(r.SequenceNumber)))
	return util.AppendBytes(buffer, r.Signature)
}

// UnpackRefresh - read a packed refresh
func UnpackRefresh(buffer []byte) (r Refresh, n int, err error) {

	defer func() {
		if x := recover(); nil != x {
			err = fault.ErrNotARefreshPack
		}
	}()

	identity, n := util.ExtractBytes(buffer, digest.Length)
	if 0 == n || nil != digest.FromBytes(&r.Identity, identity) {
		return Refresh{}, 0, fault.ErrNotARefreshPack
	}

	sequenceNumber, count := util.FromVarint64(buffer[n:])
	if 0 == count || sequenceNumber > 0xffffffff {
		return Refresh{}, 0, fault.ErrNotARefreshPack
	}
	n += count
	r.SequenceNumber = int32(uint32(sequenceNumber))

	signature, count := util.ExtractBytes(buffer[n:], maximumSignatureSize)
	if 0 == count {
		return Refresh{}, 0, fault.ErrNotARefreshPack
	}
	n += count
	r.Signature = signature

	return r, n, nil
}
