// SPDX-License-Identifier: ISC
// Copyright (c) 2014-2020 Bitmark Inc.
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package node

import (
	"time"

	"github.com/bitmark-inc/logger"
	"golang.org/x/time/rate"

	"github.com/bitmark-inc/protectedstore/counter"
	"github.com/bitmark-inc/protectedstore/fault"
	"github.com/bitmark-inc/protectedstore/network"
	"github.com/bitmark-inc/protectedstore/rpc/ratelimit"
)

const (
	rateLimitNode = 200
	rateBurstNode = 100
)

// Network - the peer to peer node as seen from RPC
type Network interface {
	Info() network.Info
	Statistics() map[string]uint64
}

// Entries - the store as seen from RPC
type Entries interface {
	Size() int
	Statistics() map[string]uint64
}

// Node - type for RPC calls
type Node struct {
	Log     *logger.L
	Limiter *rate.Limiter
	Start   time.Time
	Version string
	Chain   string
	entries Entries
	network Network
	counter *counter.Counter
}

// New - create the node service, network may be nil when peering is
// not running
func New(log *logger.L, chain string, start time.Time, version string, counter *counter.Counter, entries Entries, network Network) *Node {
	return &Node{
		Log:     log,
		Limiter: rate.NewLimiter(rateLimitNode, rateBurstNode),
		Start:   start,
		Version: version,
		Chain:   chain,
		entries: entries,
		network: network,
		counter: counter,
	}
}

// ---

// InfoArguments - empty arguments for info request
type InfoArguments struct{}

// InfoReply - results from info request
type InfoReply struct {
	Chain   string            `json:"chain"`
	Version string            `json:"version"`
	Uptime  string            `json:"uptime"`
	RPCs    uint64            `json:"rpcs"`
	Entries int               `json:"entries"`
	Store   map[string]uint64 `json:"store"`
	Peering *PeeringInfo      `json:"peering,omitempty"`
}

// PeeringInfo - state of the peer to peer node
type PeeringInfo struct {
	network.Info
	Messages map[string]uint64 `json:"messages"`
}

// Info - return some information about this node
func (node *Node) Info(_ *InfoArguments, reply *InfoReply) error {

	if err := ratelimit.Limit(node.Limiter); nil != err {
		return err
	}

	if nil == node.entries {
		return fault.ErrNotInitialised
	}

	reply.Chain = node.Chain
	reply.Version = node.Version
	reply.Uptime = time.Since(node.Start).String()
	reply.RPCs = node.counter.Uint64()
	reply.Entries = node.entries.Size()
	reply.Store = node.entries.Statistics()

	if nil != node.network {
		reply.Peering = &PeeringInfo{
			Info:     node.network.Info(),
			Messages: node.network.Statistics(),
		}
	}
	return nil
}
