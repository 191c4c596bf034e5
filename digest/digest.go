// SPDX-License-Identifier: ISC
// Copyright (c) 2014-2020 Bitmark Inc.
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

// Package digest - SHA3-256 digests used as payload identities
// and as the message covered by entry signatures
package digest

import (
	"encoding/hex"

	"golang.org/x/crypto/sha3"

	"github.com/bitmark-inc/protectedstore/fault"
)

// Length - number of bytes in the digest
const Length = 32

// Digest - type for a digest
// to convert to bytes just use d[:]
type Digest [Length]byte

// NewDigest - create a digest from a byte slice
func NewDigest(record []byte) Digest {
	return sha3.Sum256(record)
}

// String - hex form for use by the fmt package (for %s)
func (d Digest) String() string {
	return hex.EncodeToString(d[:])
}

// GoString - for use by the fmt package (for %#v)
func (d Digest) GoString() string {
	return "<SHA3-256:" + hex.EncodeToString(d[:]) + ">"
}

// IsZero - true if all bytes are zero
func (d Digest) IsZero() bool {
	return Digest{} == d
}

// MarshalText - convert digest to hex text
func (d Digest) MarshalText() ([]byte, error) {
	buffer := make([]byte, hex.EncodedLen(Length))
	hex.Encode(buffer, d[:])
	return buffer, nil
}

// UnmarshalText - convert hex text into a digest
func (d *Digest) UnmarshalText(s []byte) error {
	if Length != hex.DecodedLen(len(s)) {
		return fault.ErrInvalidDigest
	}
	buffer := make([]byte, Length)
	if _, err := hex.Decode(buffer, s); nil != err {
		return err
	}
	copy(d[:], buffer)
	return nil
}

// FromBytes - convert and validate a binary byte slice to a digest
func FromBytes(d *Digest, buffer []byte) error {
	if Length != len(buffer) {
		return fault.ErrInvalidDigest
	}
	copy(d[:], buffer)
	return nil
}
