// SPDX-License-Identifier: ISC
// Copyright (c) 2014-2020 Bitmark Inc.
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package network_test

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/bitmark-inc/protectedstore/fault"
	"github.com/bitmark-inc/protectedstore/network"
)

func TestPrivateKeyEncoding(t *testing.T) {
	privateKey, err := network.GeneratePrivateKey()
	assert.Nil(t, err, "generate")

	s, err := network.EncodePrivateKey(privateKey)
	assert.Nil(t, err, "encode")

	decoded, err := network.DecodePrivateKey(" " + s + "\n")
	assert.Nil(t, err, "decode")
	assert.True(t, privateKey.Equals(decoded), "round trip")

	id1, err := network.NodeID(privateKey)
	assert.Nil(t, err, "ID of original")
	id2, err := network.NodeID(decoded)
	assert.Nil(t, err, "ID of decoded")
	assert.Equal(t, id1, id2, "node IDs")

	_, err = network.DecodePrivateKey("not hex")
	assert.Equal(t, fault.ErrInvalidPrivateKey, err, "bad hex")
	_, err = network.DecodePrivateKey("0102030405")
	assert.Equal(t, fault.ErrInvalidPrivateKey, err, "bad key")
}
