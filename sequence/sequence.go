// SPDX-License-Identifier: ISC
// Copyright (c) 2014-2020 Bitmark Inc.
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

// Package sequence - highest accepted sequence number per identity
//
// Values outlive the entries they describe: an entry that expired or
// was removed keeps its last sequence number here so that stale gossip
// for it is still rejected. Old values are purged once the map grows.
package sequence

import (
	"time"

	"github.com/bitmark-inc/protectedstore/digest"
	"github.com/bitmark-inc/protectedstore/fault"
	"github.com/bitmark-inc/protectedstore/util"
)

// defaults for purging
const (
	DefaultPurgeAge       = 10 * 24 * time.Hour
	DefaultPurgeThreshold = 1000
)

// Value - last sequence number seen for an identity
type Value struct {
	Number    int32
	Timestamp time.Time // when the value was recorded
	Removed   bool      // the last operation was a remove
}

// Map - identity to Value; not safe for concurrent use,
// the store serialises access with its own lock
type Map map[digest.Digest]Value

// Get - value for an identity
func (m Map) Get(identity digest.Digest) (Value, bool) {
	v, ok := m[identity]
	return v, ok
}

// Put - record a value
func (m Map) Put(identity digest.Digest, v Value) {
	m[identity] = v
}

// Purge - when the map holds more than threshold values, drop the
// ones recorded before now - maxAge; keep is consulted so that values
// of entries still in the store survive. Returns the number dropped.
func (m Map) Purge(now time.Time, maxAge time.Duration, threshold int, keep func(digest.Digest) bool) int {
	if len(m) <= threshold {
		return 0
	}
	cutoff := now.Add(-maxAge)
	n := 0
	for identity, v := range m {
		if v.Timestamp.After(cutoff) {
			continue
		}
		if nil != keep && keep(identity) {
			continue
		}
		delete(m, identity)
		n += 1
	}
	return n
}

// Copy - independent copy of the map
func (m Map) Copy() Map {
	c := make(Map, len(m))
	for k, v := range m {
		c[k] = v
	}
	return c
}

// Pack - identity, Varint64(number), Varint64(unix milliseconds), removed flag
func Pack(identity digest.Digest, v Value) []byte {
	buffer := append([]byte{}, identity[:]...)
	buffer = util.AppendVarint64(buffer, uint64(uint32(v.Number)))
	buffer = util.AppendVarint64(buffer, uint64(v.Timestamp.UnixNano()/int64(time.Millisecond)))
	if v.Removed {
		return append(buffer, 1)
	}
	return append(buffer, 0)
}

// Unpack - reverse of Pack
func Unpack(buffer []byte) (digest.Digest, Value, int, error) {
	var identity digest.Digest
	if len(buffer) < digest.Length {
		return identity, Value{}, 0, fault.ErrNotASequencePack
	}
	copy(identity[:], buffer)
	n := digest.Length

	number, count := util.FromVarint64(buffer[n:])
	if 0 == count || number > 0xffffffff {
		return identity, Value{}, 0, fault.ErrNotASequencePack
	}
	n += count

	ms, count := util.FromVarint64(buffer[n:])
	if 0 == count {
		return identity, Value{}, 0, fault.ErrNotASequencePack
	}
	n += count

	if n >= len(buffer) || buffer[n] > 1 {
		return identity, Value{}, 0, fault.ErrNotASequencePack
	}
	removed := 1 == buffer[n]
	n += 1

	return identity, Value{
		Number:    int32(uint32(number)),
		Timestamp: time.Unix(0, int64(ms)*int64(time.Millisecond)),
		Removed:   removed,
	}, n, nil
}
