// SPDX-License-Identifier: ISC
// Copyright (c) 2014-2020 Bitmark Inc.
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package network

import (
	"io/ioutil"
	"os"
	"time"

	proto "github.com/golang/protobuf/proto"
	"github.com/libp2p/go-libp2p-core/peer"
	ma "github.com/multiformats/go-multiaddr"
)

// Addrs - from messages.proto
type Addrs struct {
	Address [][]byte `protobuf:"bytes,1,rep,name=address,proto3" json:"address,omitempty"`
}

func (m *Addrs) Reset()         { *m = Addrs{} }
func (m *Addrs) String() string { return proto.CompactTextString(m) }
func (*Addrs) ProtoMessage()    {}

// PeerItem - from messages.proto
type PeerItem struct {
	PeerID    []byte `protobuf:"bytes,1,opt,name=peerID,proto3" json:"peerID,omitempty"`
	Listeners *Addrs `protobuf:"bytes,2,opt,name=listeners,proto3" json:"listeners,omitempty"`
	Timestamp uint64 `protobuf:"varint,3,opt,name=timestamp,proto3" json:"timestamp,omitempty"`
}

func (m *PeerItem) Reset()         { *m = PeerItem{} }
func (m *PeerItem) String() string { return proto.CompactTextString(m) }
func (*PeerItem) ProtoMessage()    {}

// PeerList - from messages.proto
type PeerList struct {
	Peers []*PeerItem `protobuf:"bytes,1,rep,name=peers,proto3" json:"peers,omitempty"`
}

func (m *PeerList) Reset()         { *m = PeerList{} }
func (m *PeerList) String() string { return proto.CompactTextString(m) }
func (*PeerList) ProtoMessage()    {}

// currently connected peers with their known addresses
func (n *Node) knownPeers() []peer.AddrInfo {
	ids := n.host.Network().Peers()
	infos := make([]peer.AddrInfo, 0, len(ids))
	for _, id := range ids {
		addrs := n.host.Peerstore().Addrs(id)
		if 0 == len(addrs) {
			continue
		}
		infos = append(infos, peer.AddrInfo{ID: id, Addrs: addrs})
	}
	return infos
}

// storePeers - write the peer list, an empty list leaves an existing
// file alone
func storePeers(peerFile string, infos []peer.AddrInfo) error {
	if 0 == len(infos) {
		return nil
	}

	now := uint64(time.Now().Unix())
	peers := PeerList{}
	for _, info := range infos {
		id, err := info.ID.Marshal()
		if nil != err {
			continue
		}
		addrs := &Addrs{}
		for _, a := range info.Addrs {
			addrs.Address = append(addrs.Address, a.Bytes())
		}
		peers.Peers = append(peers.Peers, &PeerItem{
			PeerID:    id,
			Listeners: addrs,
			Timestamp: now,
		})
	}

	out, err := proto.Marshal(&peers)
	if nil != err {
		return err
	}
	return ioutil.WriteFile(peerFile, out, 0600)
}

// restorePeers - read the peer list, a missing file is an empty list
func restorePeers(peerFile string) ([]peer.AddrInfo, error) {
	in, err := ioutil.ReadFile(peerFile)
	if nil != err {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, err
	}

	var peers PeerList
	err = proto.Unmarshal(in, &peers)
	if nil != err {
		return nil, err
	}

	infos := make([]peer.AddrInfo, 0, len(peers.Peers))
	for _, item := range peers.Peers {
		if nil == item || nil == item.Listeners {
			continue
		}
		id, err := peer.IDFromBytes(item.PeerID)
		if nil != err {
			continue
		}
		info := peer.AddrInfo{ID: id}
		for _, b := range item.Listeners.Address {
			a, err := ma.NewMultiaddrBytes(b)
			if nil != err {
				continue
			}
			info.Addrs = append(info.Addrs, a)
		}
		if 0 != len(info.Addrs) {
			infos = append(infos, info)
		}
	}
	return infos, nil
}
