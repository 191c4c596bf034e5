// SPDX-License-Identifier: ISC
// Copyright (c) 2014-2020 Bitmark Inc.
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

// Package keypair - ed25519 keys and signatures for entry owners
package keypair

import (
	"bytes"
	"crypto/rand"
	"encoding/hex"

	"github.com/mr-tron/base58"
	"golang.org/x/crypto/ed25519"
	"golang.org/x/crypto/sha3"

	"github.com/bitmark-inc/protectedstore/fault"
)

// sizes of the key material
const (
	PublicKeySize  = ed25519.PublicKeySize
	PrivateKeySize = ed25519.PrivateKeySize
	SignatureSize  = ed25519.SignatureSize
	SeedSize       = ed25519.SeedSize
)

// header and checksum length of a text seed
var seedHeader = []byte{0x5a, 0xfe, 0x02}

const seedChecksumLength = 4

// PublicKey - an ed25519 public key, base58 in text form
type PublicKey []byte

// PrivateKey - an ed25519 private key (seed followed by public key)
type PrivateKey []byte

// KeyPair - a private key with its public half
type KeyPair struct {
	Seed       []byte
	PublicKey  PublicKey
	PrivateKey PrivateKey
}

// New - create a key pair from secure random data
func New() (*KeyPair, error) {
	seed := make([]byte, SeedSize)
	if _, err := rand.Read(seed); nil != err {
		return nil, err
	}
	return FromSeed(seed)
}

// FromSeed - regenerate a key pair from its 32 byte seed
func FromSeed(seed []byte) (*KeyPair, error) {
	if SeedSize != len(seed) {
		return nil, fault.ErrInvalidSeed
	}
	privateKey := ed25519.NewKeyFromSeed(seed)
	publicKey := make([]byte, PublicKeySize)
	copy(publicKey, privateKey[SeedSize:])

	s := make([]byte, SeedSize)
	copy(s, seed)
	return &KeyPair{
		Seed:       s,
		PublicKey:  publicKey,
		PrivateKey: PrivateKey(privateKey),
	}, nil
}

// EncodeSeed - text form of a seed: base58 of header, seed and checksum
func EncodeSeed(seed []byte) string {
	packed := append(append([]byte{}, seedHeader...), seed...)
	checksum := sha3.Sum256(packed)
	packed = append(packed, checksum[:seedChecksumLength]...)
	return base58.Encode(packed)
}

// DecodeSeed - reverse of EncodeSeed
func DecodeSeed(s string) ([]byte, error) {
	packed, err := base58.Decode(s)
	if nil != err {
		return nil, err
	}
	if len(seedHeader)+SeedSize+seedChecksumLength != len(packed) {
		return nil, fault.ErrInvalidSeed
	}
	if !bytes.Equal(seedHeader, packed[:len(seedHeader)]) {
		return nil, fault.ErrInvalidSeed
	}
	n := len(packed) - seedChecksumLength
	checksum := sha3.Sum256(packed[:n])
	if !bytes.Equal(checksum[:seedChecksumLength], packed[n:]) {
		return nil, fault.ErrInvalidSeed
	}
	return packed[len(seedHeader):n], nil
}

// Sign - sign a message, an invalid key produces an empty signature
func (privateKey PrivateKey) Sign(message []byte) Signature {
	if PrivateKeySize != len(privateKey) {
		return nil
	}
	return Signature(ed25519.Sign(ed25519.PrivateKey(privateKey), message))
}

// Verify - check a signature; malformed keys or signatures fail
func (publicKey PublicKey) Verify(message []byte, signature Signature) bool {
	if PublicKeySize != len(publicKey) || SignatureSize != len(signature) {
		return false
	}
	return ed25519.Verify(ed25519.PublicKey(publicKey), message, signature)
}

// IsValid - true if the key has the correct length
func (publicKey PublicKey) IsValid() bool {
	return PublicKeySize == len(publicKey)
}

// Equal - byte comparison of two keys
func (publicKey PublicKey) Equal(other PublicKey) bool {
	return bytes.Equal(publicKey, other)
}

// String - base58 form for use by the fmt package (for %s)
func (publicKey PublicKey) String() string {
	return base58.Encode(publicKey)
}

// GoString - for use by the fmt package (for %#v)
func (publicKey PublicKey) GoString() string {
	return "<ed25519:" + hex.EncodeToString(publicKey) + ">"
}

// MarshalText - convert public key to base58 text
func (publicKey PublicKey) MarshalText() ([]byte, error) {
	return []byte(base58.Encode(publicKey)), nil
}

// UnmarshalText - convert base58 text into a public key
func (publicKey *PublicKey) UnmarshalText(s []byte) error {
	k, err := PublicKeyFromString(string(s))
	if nil != err {
		return err
	}
	*publicKey = k
	return nil
}

// PublicKeyFromString - decode and validate a base58 public key
func PublicKeyFromString(s string) (PublicKey, error) {
	k, err := base58.Decode(s)
	if nil != err {
		return nil, err
	}
	if PublicKeySize != len(k) {
		return nil, fault.ErrInvalidPublicKey
	}
	return PublicKey(k), nil
}
