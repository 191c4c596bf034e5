// SPDX-License-Identifier: ISC
// Copyright (c) 2014-2020 Bitmark Inc.
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package network

import (
	"crypto/rand"
	"encoding/hex"
	"strings"

	"github.com/libp2p/go-libp2p-core/crypto"
	"github.com/libp2p/go-libp2p-core/peer"

	"github.com/bitmark-inc/protectedstore/fault"
)

// GeneratePrivateKey - new random node key
func GeneratePrivateKey() (crypto.PrivKey, error) {
	privateKey, _, err := crypto.GenerateEd25519Key(rand.Reader)
	if nil != err {
		return nil, err
	}
	return privateKey, nil
}

// EncodePrivateKey - hex form used in the configuration file
func EncodePrivateKey(privateKey crypto.PrivKey) (string, error) {
	marshalled, err := crypto.MarshalPrivateKey(privateKey)
	if nil != err {
		return "", err
	}
	return hex.EncodeToString(marshalled), nil
}

// DecodePrivateKey - from the hex form in the configuration file
func DecodePrivateKey(s string) (crypto.PrivKey, error) {
	b, err := hex.DecodeString(strings.TrimSpace(s))
	if nil != err {
		return nil, fault.ErrInvalidPrivateKey
	}
	privateKey, err := crypto.UnmarshalPrivateKey(b)
	if nil != err {
		return nil, fault.ErrInvalidPrivateKey
	}
	return privateKey, nil
}

// NodeID - the peer ID string that payloads name as their owner node
func NodeID(privateKey crypto.PrivKey) (string, error) {
	id, err := peer.IDFromPrivateKey(privateKey)
	if nil != err {
		return "", err
	}
	return id.Pretty(), nil
}
