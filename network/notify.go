// SPDX-License-Identifier: ISC
// Copyright (c) 2014-2020 Bitmark Inc.
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package network

import (
	p2pnet "github.com/libp2p/go-libp2p-core/network"
)

// connection events: sync on connect, age owner-online entries on an
// unexpected disconnect
func (n *Node) notifee() *p2pnet.NotifyBundle {
	return &p2pnet.NotifyBundle{
		ConnectedF: func(_ p2pnet.Network, conn p2pnet.Conn) {
			if n.isStopping() {
				return
			}
			id := conn.RemotePeer()
			n.log.Debugf("connected: %s  %s", id.Pretty(), conn.RemoteMultiaddr())
			go n.requestSync(id)
		},
		DisconnectedF: func(network p2pnet.Network, conn p2pnet.Conn) {
			if n.isStopping() {
				return
			}
			id := conn.RemotePeer()
			if p2pnet.Connected == network.Connectedness(id) {
				return
			}
			n.log.Infof("disconnected: %s", id.Pretty())
			go n.handler.PeerDisconnected(id.Pretty())
		},
	}
}
