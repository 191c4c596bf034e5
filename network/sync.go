// SPDX-License-Identifier: ISC
// Copyright (c) 2014-2020 Bitmark Inc.
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package network

import (
	"context"
	"encoding/binary"
	"io"
	"time"

	p2pnet "github.com/libp2p/go-libp2p-core/network"
	"github.com/libp2p/go-libp2p-core/peer"

	"github.com/bitmark-inc/protectedstore/entry"
	"github.com/bitmark-inc/protectedstore/fault"
	"github.com/bitmark-inc/protectedstore/util"
)

const (
	syncTimeout        = time.Minute
	maximumRequestSize = 1024
	maximumFrameSize   = 64 << 20
	frameHeaderSize    = 4
	entryOverhead      = 16 // protobuf tag and length per item
)

// ask a newly connected peer for its entries, at most one request per
// peer in flight
func (n *Node) requestSync(id peer.ID) {
	n.Lock()
	if _, ok := n.syncing[id]; ok {
		n.Unlock()
		return
	}
	n.syncing[id] = struct{}{}
	n.Unlock()

	defer func() {
		n.Lock()
		delete(n.syncing, id)
		n.Unlock()
	}()

	log := n.log
	source := id.Pretty()

	ctx, cancel := context.WithTimeout(n.ctx, syncTimeout)
	defer cancel()

	s, err := n.host.NewStream(ctx, id, syncProtocol)
	if nil != err {
		log.Debugf("sync: %s  open error: %s", source, err)
		return
	}
	defer s.Close()
	s.SetDeadline(time.Now().Add(syncTimeout))

	limit := util.ToVarint64(uint64(n.configuration.SyncLimit))
	request, err := PackMessage(n.chain, FunctionSync, [][]byte{limit})
	if nil != err {
		log.Errorf("sync: %s  pack error: %s", source, err)
		return
	}
	err = writeFrame(s, request)
	if nil != err {
		log.Debugf("sync: %s  write error: %s", source, err)
		s.Reset()
		return
	}

	reply, err := readFrame(s, maximumFrameSize)
	if nil != err {
		log.Debugf("sync: %s  read error: %s", source, err)
		s.Reset()
		return
	}

	chain, fn, parameters, err := UnpackMessage(reply)
	if nil != err {
		log.Warnf("sync: %s  error: %s", source, err)
		return
	}
	if chain != n.chain || FunctionEntries != fn {
		log.Warnf("sync: %s  unexpected chain: %q  function: %q", source, chain, fn)
		return
	}

	accepted := 0
	for i, packed := range parameters {
		candidate, _, err := entry.Unpack(packed)
		if nil != err {
			log.Debugf("sync: %s  entry[%d] error: %s", source, i, err)
			continue
		}
		if n.handler.OnAddRequest(candidate, source) {
			accepted += 1
		}
	}
	log.Infof("sync: %s  received: %d  accepted: %d", source, len(parameters), accepted)
}

// reply to a sync request with as many entries as fit
func (n *Node) handleSync(s p2pnet.Stream) {
	defer s.Close()

	log := n.log
	source := s.Conn().RemotePeer().Pretty()
	s.SetDeadline(time.Now().Add(syncTimeout))

	request, err := readFrame(s, maximumRequestSize)
	if nil != err {
		log.Debugf("sync request: %s  read error: %s", source, err)
		s.Reset()
		return
	}

	chain, fn, parameters, err := UnpackMessage(request)
	if nil != err || chain != n.chain || FunctionSync != fn {
		log.Debugf("sync request: %s  rejected: chain: %q  function: %q", source, chain, fn)
		s.Reset()
		return
	}

	limit := n.configuration.SyncLimit
	if 0 != len(parameters) {
		requested, count := util.FromVarint64(parameters[0])
		if count > 0 && requested < uint64(limit) {
			limit = int(requested)
		}
	}

	entries := n.handler.SnapshotAll()
	packed := make([][]byte, 0, len(entries))
	size := 0
loop:
	for _, e := range entries {
		if len(packed) >= limit {
			break loop
		}
		p := e.Pack()
		if size+len(p)+entryOverhead > maximumFrameSize-maximumRequestSize {
			break loop
		}
		size += len(p) + entryOverhead
		packed = append(packed, p)
	}

	reply, err := PackMessage(n.chain, FunctionEntries, packed)
	if nil != err {
		log.Errorf("sync request: %s  pack error: %s", source, err)
		s.Reset()
		return
	}
	err = writeFrame(s, reply)
	if nil != err {
		log.Debugf("sync request: %s  write error: %s", source, err)
		s.Reset()
		return
	}
	log.Debugf("sync request: %s  sent: %d of: %d", source, len(packed), len(entries))
}

// 4 byte big endian length followed by data
func writeFrame(w io.Writer, data []byte) error {
	header := make([]byte, frameHeaderSize)
	binary.BigEndian.PutUint32(header, uint32(len(data)))
	_, err := w.Write(append(header, data...))
	return err
}

func readFrame(r io.Reader, maximum int) ([]byte, error) {
	header := make([]byte, frameHeaderSize)
	_, err := io.ReadFull(r, header)
	if nil != err {
		return nil, err
	}
	length := int(binary.BigEndian.Uint32(header))
	if length > maximum {
		return nil, fault.ErrSyncFrameTooLarge
	}
	data := make([]byte, length)
	_, err = io.ReadFull(r, data)
	if nil != err {
		return nil, err
	}
	return data, nil
}
