// SPDX-License-Identifier: ISC
// Copyright (c) 2014-2020 Bitmark Inc.
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package server

import (
	"net/rpc"
	"time"

	"github.com/bitmark-inc/logger"

	"github.com/bitmark-inc/protectedstore/counter"
	"github.com/bitmark-inc/protectedstore/rpc/node"
	"github.com/bitmark-inc/protectedstore/rpc/storage"
)

// Store - everything the RPC services need from the store
type Store interface {
	storage.Store
	Statistics() map[string]uint64
}

// Create - an RPC server with the Storage and Node services
// registered; network may be nil
func Create(log *logger.L, chain string, version string, s Store, network node.Network, rpcCount *counter.Counter) *rpc.Server {

	start := time.Now().UTC()

	server := rpc.NewServer()

	_ = server.Register(storage.New(log, s))
	_ = server.Register(node.New(log, chain, start, version, rpcCount, s, network))

	return server
}
