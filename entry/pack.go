// SPDX-License-Identifier: ISC
// Copyright (c) 2014-2020 Bitmark Inc.
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package entry

import (
	"math"
	"time"

	"github.com/bitmark-inc/protectedstore/fault"
	"github.com/bitmark-inc/protectedstore/payload"
	"github.com/bitmark-inc/protectedstore/util"
)

// field limits
const (
	maximumKeySize       = 64
	maximumSignatureSize = 128
	maximumPayloadSize   = payload.MaximumContentSize + 512
)

// MaximumTTLMillis - largest ttl that still fits a time.Duration
const MaximumTTLMillis = math.MaxInt64 / int64(time.Millisecond)

// Pack - wire format of an entry:
//
//   Varint64(kind)
//   payload          prefixed by Varint64(length)
//   Varint64(ttlMillis)
//   owner key        prefixed by Varint64(length)
//   Varint64(sequence number as unsigned 32 bit)
//   signature        prefixed by Varint64(length)
//   receiver key     prefixed by Varint64(length), Mailbox only
//
// createdAt is local state and is never transmitted
func (e Entry) Pack() []byte {
	buffer := util.ToVarint64(uint64(e.Kind))
	buffer = util.AppendBytes(buffer, e.Payload.Pack())
	buffer = util.AppendVarint64(buffer, uint64(e.TTLMillis))
	buffer = util.AppendBytes(buffer, e.Owner)
	buffer = util.AppendVarint64(buffer, uint64(uint32(e.SequenceNumber)))
	buffer = util.AppendBytes(buffer, e.Signature)
	if Mailbox == e.Kind {
		buffer = util.AppendBytes(buffer, e.Receiver)
	}
	return buffer
}

// Unpack - read a wire format entry from the start of a buffer
// returns the entry and the number of bytes consumed
func Unpack(buffer []byte) (e Entry, n int, err error) {

	defer func() {
		if r := recover(); nil != r {
			err = fault.ErrNotEntryPack
		}
	}()

	kind, n := util.ClippedVarint64(buffer, 1, 255)
	if 0 == n {
		return Entry{}, 0, fault.ErrNotEntryPack
	}
	e.Kind = Kind(kind)
	if Ordinary != e.Kind && Mailbox != e.Kind {
		return Entry{}, 0, fault.ErrUnknownEntryKind
	}

	packedPayload, count := util.ExtractBytes(buffer[n:], maximumPayloadSize)
	if 0 == count {
		return Entry{}, 0, fault.ErrNotEntryPack
	}
	n += count
	p, payloadLength, err := payload.Unpack(packedPayload)
	if nil != err {
		return Entry{}, 0, err
	}
	if payloadLength != len(packedPayload) {
		return Entry{}, 0, fault.ErrNotAPayloadPack
	}
	e.Payload = p

	ttl, count := util.FromVarint64(buffer[n:])
	if 0 == count {
		return Entry{}, 0, fault.ErrNotEntryPack
	}
	if ttl > uint64(MaximumTTLMillis) {
		return Entry{}, 0, fault.ErrInvalidTTL
	}
	n += count
	e.TTLMillis = int64(ttl)

	owner, count := util.ExtractBytes(buffer[n:], maximumKeySize)
	if 0 == count {
		return Entry{}, 0, fault.ErrNotEntryPack
	}
	n += count
	e.Owner = owner

	sequenceNumber, count := util.FromVarint64(buffer[n:])
	if 0 == count || sequenceNumber > 0xffffffff {
		return Entry{}, 0, fault.ErrNotEntryPack
	}
	n += count
	e.SequenceNumber = int32(uint32(sequenceNumber))

	signature, count := util.ExtractBytes(buffer[n:], maximumSignatureSize)
	if 0 == count {
		return Entry{}, 0, fault.ErrNotEntryPack
	}
	n += count
	e.Signature = signature

	if Mailbox == e.Kind {
		receiver, count := util.ExtractBytes(buffer[n:], maximumKeySize)
		if 0 == count {
			return Entry{}, 0, fault.ErrNotEntryPack
		}
		n += count
		e.Receiver = receiver
	}

	return e, n, nil
}

// PackRecord - storage format: wire format followed by
// Varint64(createdAt in unix milliseconds)
func (e Entry) PackRecord() []byte {
	buffer := e.Pack()
	return util.AppendVarint64(buffer, uint64(toMillis(e.CreatedAt)))
}

// UnpackRecord - read a storage format entry
func UnpackRecord(buffer []byte) (Entry, int, error) {
	e, n, err := Unpack(buffer)
	if nil != err {
		return Entry{}, 0, err
	}
	created, count := util.FromVarint64(buffer[n:])
	if 0 == count {
		return Entry{}, 0, fault.ErrNotEntryPack
	}
	e.CreatedAt = fromMillis(int64(created))
	return e, n + count, nil
}

func toMillis(t time.Time) int64 {
	if t.IsZero() {
		return 0
	}
	return t.UnixNano() / int64(time.Millisecond)
}

func fromMillis(ms int64) time.Time {
	if 0 == ms {
		return time.Time{}
	}
	return time.Unix(0, ms*int64(time.Millisecond))
}
