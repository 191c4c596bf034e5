// SPDX-License-Identifier: ISC
// Copyright (c) 2014-2020 Bitmark Inc.
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package rpc

import (
	"io"
	"net/rpc"
	"net/rpc/jsonrpc"

	"github.com/bitmark-inc/listener"
	"github.com/bitmark-inc/logger"

	"github.com/bitmark-inc/protectedstore/counter"
	"github.com/bitmark-inc/protectedstore/fault"
	"github.com/bitmark-inc/protectedstore/rpc/certificate"
	"github.com/bitmark-inc/protectedstore/rpc/node"
	"github.com/bitmark-inc/protectedstore/rpc/server"
)

const (
	tlsName = "client_rpc"
)

// Configuration - configuration file data for RPC setup
type Configuration struct {
	MaximumConnections int      `gluamapper:"maximum_connections" json:"maximum_connections"`
	Listen             []string `gluamapper:"listen" json:"listen"`
	Certificate        string   `gluamapper:"certificate" json:"certificate"`
	PrivateKey         string   `gluamapper:"private_key" json:"private_key"`
}

// Server - TLS JSON RPC listener
type Server struct {
	log      *logger.L
	server   *rpc.Server
	listener *listener.MultiListener
	count    counter.Counter
}

// New - validate the configuration and prepare the listeners
//
// zero maximum connections or no listen addresses disables RPC and
// Start and Stop do nothing
func New(configuration Configuration, chain string, version string, s server.Store, network node.Network, log *logger.L) (*Server, error) {

	r := &Server{
		log: log,
	}

	if configuration.MaximumConnections < 0 {
		log.Errorf("invalid %s maximum connection limit: %d", tlsName, configuration.MaximumConnections)
		return nil, fault.ErrInvalidCount
	}

	if 0 == configuration.MaximumConnections || 0 == len(configuration.Listen) {
		log.Infof("disable: %s", tlsName)
		return r, nil
	}

	tlsConfiguration, fingerprint, err := certificate.Get(log, tlsName, configuration.Certificate, configuration.PrivateKey)
	if nil != err {
		return nil, err
	}
	log.Infof("%s: SHA3-256 fingerprint: %x", tlsName, fingerprint)

	r.server = server.Create(log, chain, version, s, network, &r.count)

	limiter := listener.NewLimiter(configuration.MaximumConnections)
	ml, err := listener.NewMultiListener(tlsName, configuration.Listen, tlsConfiguration, limiter, r.callback)
	if nil != err {
		log.Errorf("invalid %s listen addresses: %q  error: %s", tlsName, configuration.Listen, err)
		return nil, err
	}
	r.listener = ml

	return r, nil
}

// Start - begin accepting connections
func (r *Server) Start() {
	if nil == r.listener {
		return
	}
	r.log.Info("starting…")
	r.listener.Start(nil)
}

// Stop - close all listeners
func (r *Server) Stop() {
	if nil == r.listener {
		return
	}
	r.log.Info("shutting down…")
	r.listener.Stop()
	r.log.Info("finished")
	r.log.Flush()
}

// Enabled - true if listeners were configured
func (r *Server) Enabled() bool {
	return nil != r.listener
}

// listener callback
func (r *Server) callback(conn io.ReadWriteCloser, argument interface{}) {

	r.count.Increment()
	defer r.count.Decrement()

	codec := jsonrpc.NewServerCodec(conn)
	defer codec.Close()
	r.server.ServeCodec(codec)
}
