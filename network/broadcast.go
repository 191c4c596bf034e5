// SPDX-License-Identifier: ISC
// Copyright (c) 2014-2020 Bitmark Inc.
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package network

import (
	"github.com/bitmark-inc/logger"

	"github.com/bitmark-inc/protectedstore/entry"
	"github.com/bitmark-inc/protectedstore/messagebus"
	"github.com/bitmark-inc/protectedstore/store"
)

// Broadcaster - store.Broadcaster that queues local operations for
// the sender process
//
// operations received from peers are not queued again: gossipsub has
// already relayed them to the rest of the mesh
type Broadcaster struct {
	log   *logger.L
	queue *messagebus.Queue
}

// NewBroadcaster - queue is later given to New
func NewBroadcaster(queue *messagebus.Queue, log *logger.L) *Broadcaster {
	return &Broadcaster{
		log:   log,
		queue: queue,
	}
}

// BroadcastAdd - publish an accepted add
func (b *Broadcaster) BroadcastAdd(e entry.Entry, source string) {
	b.send(FunctionAdd, e.Pack(), source)
}

// BroadcastRemove - publish an accepted remove
func (b *Broadcaster) BroadcastRemove(e entry.Entry, source string) {
	b.send(FunctionRemove, e.Pack(), source)
}

// BroadcastRefresh - publish an accepted refresh
func (b *Broadcaster) BroadcastRefresh(r entry.Refresh, source string) {
	b.send(FunctionRefresh, r.Pack(), source)
}

func (b *Broadcaster) send(fn string, packed []byte, source string) {
	if store.LocalSource != source {
		b.log.Tracef("%s from: %s  already relayed", fn, source)
		return
	}
	if !b.queue.Send(fn, packed) {
		b.log.Warnf("outbound queue full: %s dropped", fn)
	}
}
