// SPDX-License-Identifier: ISC
// Copyright (c) 2014-2020 Bitmark Inc.
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

// Package payload - the opaque content held by a protected entry
//
// The identity of a payload is the SHA3-256 digest of its canonical
// packed form; all entries for the same payload share one identity
package payload

import (
	"bytes"

	"github.com/bitmark-inc/protectedstore/digest"
	"github.com/bitmark-inc/protectedstore/fault"
	"github.com/bitmark-inc/protectedstore/keypair"
	"github.com/bitmark-inc/protectedstore/util"
)

// field limits
const (
	MaximumContentSize   = 64 * 1024
	maximumKeySize       = 64
	maximumOwnerNodeSize = 128
)

// Flags - storage behaviour of a payload
type Flags uint64

// payload flags
const (
	// Persistable payloads are written to the local database
	Persistable Flags = 1 << iota

	// AddOnce payloads can never be added again once removed
	AddOnce

	// RequiresOwnerOnline payloads age faster when the node named
	// in OwnerNode disconnects
	RequiresOwnerOnline

	allFlags = Persistable | AddOnce | RequiresOwnerOnline
)

// Has - true if all bits of f are set
func (flags Flags) Has(f Flags) bool {
	return f == flags&f
}

// Payload - owner key and content; never modified after creation
type Payload struct {
	Flags     Flags
	Owner     keypair.PublicKey // key allowed to add entries for this payload
	OwnerNode string            // peer ID, only with RequiresOwnerOnline
	Receiver  keypair.PublicKey // mailbox payloads only, empty otherwise
	Content   []byte
}

// Pack - canonical bytes:
// Varint64(flags) followed by owner, owner node, receiver and content,
// each prefixed by Varint64(length)
func (p Payload) Pack() []byte {
	buffer := util.ToVarint64(uint64(p.Flags))
	buffer = util.AppendBytes(buffer, p.Owner)
	buffer = util.AppendBytes(buffer, []byte(p.OwnerNode))
	buffer = util.AppendBytes(buffer, p.Receiver)
	return util.AppendBytes(buffer, p.Content)
}

// Identity - digest of the canonical bytes
func (p Payload) Identity() digest.Digest {
	return digest.NewDigest(p.Pack())
}

// Equal - compare two payloads field by field
func (p Payload) Equal(other Payload) bool {
	return p.Flags == other.Flags &&
		p.Owner.Equal(other.Owner) &&
		p.OwnerNode == other.OwnerNode &&
		p.Receiver.Equal(other.Receiver) &&
		bytes.Equal(p.Content, other.Content)
}

// Unpack - read a payload from the start of a buffer
// returns the payload and the number of bytes consumed
func Unpack(buffer []byte) (p Payload, n int, err error) {

	defer func() {
		if r := recover(); nil != r {
			err = fault.ErrNotAPayloadPack
		}
	}()

	flags, n := util.FromVarint64(buffer)
	if 0 == n || 0 != Flags(flags)&^allFlags {
		return Payload{}, 0, fault.ErrNotAPayloadPack
	}
	p.Flags = Flags(flags)

	owner, count := util.ExtractBytes(buffer[n:], maximumKeySize)
	if 0 == count {
		return Payload{}, 0, fault.ErrNotAPayloadPack
	}
	n += count
	p.Owner = owner

	node, count := util.ExtractBytes(buffer[n:], maximumOwnerNodeSize)
	if 0 == count {
		return Payload{}, 0, fault.ErrNotAPayloadPack
	}
	n += count
	p.OwnerNode = string(node)

	receiver, count := util.ExtractBytes(buffer[n:], maximumKeySize)
	if 0 == count {
		return Payload{}, 0, fault.ErrNotAPayloadPack
	}
	n += count
	if 0 != len(receiver) {
		p.Receiver = receiver
	}

	length, count := util.FromVarint64(buffer[n:])
	if 0 != count && length > MaximumContentSize {
		return Payload{}, 0, fault.ErrPayloadTooLarge
	}
	content, count := util.ExtractBytes(buffer[n:], MaximumContentSize)
	if 0 == count {
		return Payload{}, 0, fault.ErrNotAPayloadPack
	}
	n += count
	p.Content = content

	return p, n, nil
}
