// SPDX-License-Identifier: ISC
// Copyright (c) 2014-2020 Bitmark Inc.
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package main

import (
	"encoding/hex"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/bitmark-inc/protectedstore/entry"
	"github.com/bitmark-inc/protectedstore/fault"
	"github.com/bitmark-inc/protectedstore/keypair"
	"github.com/bitmark-inc/protectedstore/payload"
)

func TestParseFlags(t *testing.T) {
	flags, err := parseFlags("")
	assert.Nil(t, err, "empty")
	assert.Equal(t, payload.Flags(0), flags, "empty flags")

	flags, err = parseFlags("persistable, add-once")
	assert.Nil(t, err, "two flags")
	assert.Equal(t, payload.Persistable|payload.AddOnce, flags, "two flags")

	flags, err = parseFlags("Owner-Online")
	assert.Nil(t, err, "mixed case")
	assert.Equal(t, payload.RequiresOwnerOnline, flags, "owner online")

	_, err = parseFlags("persistable,sticky")
	assert.NotNil(t, err, "unknown flag accepted")
}

func TestDecodeEntry(t *testing.T) {
	owner, err := keypair.New()
	if nil != err {
		t.Fatalf("key pair error: %s", err)
	}
	e := entry.NewOrdinary(payload.Payload{
		Owner:   owner.PublicKey,
		Content: []byte("decode me"),
	}, time.Minute, owner, 3)

	packed := hex.EncodeToString(e.Pack())

	decoded, err := decodeEntry(" " + packed + "\n")
	assert.Nil(t, err, "decode")
	assert.Equal(t, e.Identity(), decoded.Identity(), "identity")
	assert.Equal(t, int32(3), decoded.SequenceNumber, "sequence")

	_, err = decodeEntry(packed + "00")
	assert.Equal(t, fault.ErrNotEntryPack, err, "trailing bytes")

	_, err = decodeEntry("xyz")
	assert.Equal(t, fault.ErrNotEntryPack, err, "not hex")

	identity, err := decodeIdentity(e.Identity().String())
	assert.Nil(t, err, "identity")
	assert.Equal(t, e.Identity(), identity, "identity round trip")
}

func TestMade(t *testing.T) {
	owner, err := keypair.New()
	if nil != err {
		t.Fatalf("key pair error: %s", err)
	}
	e := entry.NewOrdinary(payload.Payload{
		Owner:   owner.PublicKey,
		Content: []byte("made"),
	}, 90*time.Minute, owner, 0)

	r := made(e)
	assert.Equal(t, "ordinary", r.Kind, "kind")
	assert.Equal(t, "1h30m0s", r.TTL, "ttl")
	assert.Equal(t, hex.EncodeToString(e.Pack()), r.Packed, "packed")
}
