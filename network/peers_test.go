// SPDX-License-Identifier: ISC
// Copyright (c) 2014-2020 Bitmark Inc.
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package network_test

import (
	"io/ioutil"
	"os"
	"path/filepath"
	"testing"

	"github.com/libp2p/go-libp2p-core/peer"
	ma "github.com/multiformats/go-multiaddr"
	"github.com/stretchr/testify/assert"

	"github.com/bitmark-inc/protectedstore/network"
)

func TestPeersFile(t *testing.T) {
	dir, err := ioutil.TempDir("", "peers")
	assert.Nil(t, err, "temp dir")
	defer os.RemoveAll(dir)

	peerFile := filepath.Join(dir, "peers.dat")

	infos, err := network.RestorePeers(peerFile)
	assert.Nil(t, err, "missing file")
	assert.Equal(t, 0, len(infos), "missing file peers")

	id1, err := peer.IDB58Decode(newNodeID(t))
	assert.Nil(t, err, "peer 1")
	id2, err := peer.IDB58Decode(newNodeID(t))
	assert.Nil(t, err, "peer 2")

	saved := []peer.AddrInfo{
		{
			ID: id1,
			Addrs: []ma.Multiaddr{
				ma.StringCast("/ip4/1.2.3.4/tcp/1234"),
				ma.StringCast("/ip6/::1/tcp/1234"),
			},
		},
		{
			ID:    id2,
			Addrs: []ma.Multiaddr{ma.StringCast("/ip4/9.8.7.6/tcp/9876")},
		},
	}
	err = network.StorePeers(peerFile, saved)
	assert.Nil(t, err, "store")

	infos, err = network.RestorePeers(peerFile)
	assert.Nil(t, err, "restore")
	assert.Equal(t, len(saved), len(infos), "peer count")
	for i := range saved {
		assert.Equal(t, saved[i].ID, infos[i].ID, "%d: ID", i)
		assert.Equal(t, len(saved[i].Addrs), len(infos[i].Addrs), "%d: address count", i)
		for j := range saved[i].Addrs {
			assert.True(t, saved[i].Addrs[j].Equal(infos[i].Addrs[j]), "%d.%d: address", i, j)
		}
	}

	// nothing to save keeps the old list
	err = network.StorePeers(peerFile, nil)
	assert.Nil(t, err, "store empty")
	infos, err = network.RestorePeers(peerFile)
	assert.Nil(t, err, "restore after empty")
	assert.Equal(t, len(saved), len(infos), "peer count after empty")

	err = ioutil.WriteFile(peerFile, []byte{0xff, 0xff, 0xff}, 0600)
	assert.Nil(t, err, "damage")
	_, err = network.RestorePeers(peerFile)
	assert.NotNil(t, err, "damaged file")
}
