// SPDX-License-Identifier: ISC
// Copyright (c) 2014-2020 Bitmark Inc.
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package network

import (
	"github.com/bitmark-inc/logger"

	"github.com/bitmark-inc/protectedstore/counter"
	"github.com/bitmark-inc/protectedstore/digest"
	"github.com/bitmark-inc/protectedstore/entry"
	"github.com/bitmark-inc/protectedstore/fault"
	"github.com/bitmark-inc/protectedstore/limitedset"
)

// counter names
const (
	CountReceived    = "received"
	CountRateLimited = "rate-limited"
	CountDuplicate   = "duplicate"
	CountInvalid     = "invalid"
	CountAccepted    = "accepted"
	CountRejected    = "rejected"
)

// Handler - where verified-format operations from peers are sent;
// the handler makes all acceptance decisions
type Handler interface {
	OnAddRequest(candidate entry.Entry, source string) bool
	OnRemoveRequest(candidate entry.Entry, source string) bool
	OnRefreshRequest(refresh entry.Refresh, source string) bool
	PeerDisconnected(node string)
	SnapshotAll() []entry.Entry
}

// Dispatcher - filters raw gossip messages and hands them to the
// handler
type Dispatcher struct {
	log        *logger.L
	chain      string
	handler    Handler
	limiter    *peerLimiter
	seen       *limitedset.LimitedSet
	statistics *counter.Set
}

// NewDispatcher - only the rate and dedup fields of configuration are
// used
func NewDispatcher(chain string, handler Handler, configuration Configuration, log *logger.L) *Dispatcher {
	applyDefaults(&configuration)
	return &Dispatcher{
		log:     log,
		chain:   chain,
		handler: handler,
		limiter: newPeerLimiter(configuration.RateLimit, configuration.RateBurst),
		seen:    limitedset.New(configuration.DedupSize),
		statistics: counter.NewSet(
			CountReceived,
			CountRateLimited,
			CountDuplicate,
			CountInvalid,
			CountAccepted,
			CountRejected,
		),
	}
}

// Process - handle one message from a peer
//
// the error is non-nil when the message never reached the handler,
// otherwise the handler's decision is returned
func (d *Dispatcher) Process(from string, data []byte) (bool, error) {
	d.statistics.Increment(CountReceived)

	if !d.limiter.Allow(from) {
		d.statistics.Increment(CountRateLimited)
		return false, fault.ErrRateLimiting
	}

	messageDigest := digest.NewDigest(data)
	if d.seen.Seen(string(messageDigest[:])) {
		d.statistics.Increment(CountDuplicate)
		return false, fault.ErrDuplicateMessage
	}

	chain, fn, parameters, err := UnpackMessage(data)
	if nil != err {
		d.statistics.Increment(CountInvalid)
		return false, err
	}
	if chain != d.chain {
		d.statistics.Increment(CountInvalid)
		return false, fault.ErrChainMismatch
	}
	if len(parameters) < 1 {
		d.statistics.Increment(CountInvalid)
		return false, fault.ErrMissingParameters
	}

	accepted := false
	switch fn {
	case FunctionAdd, FunctionRemove:
		candidate, n, err := entry.Unpack(parameters[0])
		if nil == err && n != len(parameters[0]) {
			err = fault.ErrNotEntryPack
		}
		if nil != err {
			d.statistics.Increment(CountInvalid)
			return false, err
		}
		if FunctionAdd == fn {
			accepted = d.handler.OnAddRequest(candidate, from)
		} else {
			accepted = d.handler.OnRemoveRequest(candidate, from)
		}

	case FunctionRefresh:
		refresh, n, err := entry.UnpackRefresh(parameters[0])
		if nil == err && n != len(parameters[0]) {
			err = fault.ErrNotARefreshPack
		}
		if nil != err {
			d.statistics.Increment(CountInvalid)
			return false, err
		}
		accepted = d.handler.OnRefreshRequest(refresh, from)

	default:
		d.statistics.Increment(CountInvalid)
		return false, fault.ErrUnknownFunction
	}

	if accepted {
		d.statistics.Increment(CountAccepted)
	} else {
		d.statistics.Increment(CountRejected)
	}
	d.log.Tracef("%s from: %s  accepted: %t", fn, from, accepted)
	return accepted, nil
}

// Statistics - message counters
func (d *Dispatcher) Statistics() map[string]uint64 {
	return d.statistics.Values()
}
