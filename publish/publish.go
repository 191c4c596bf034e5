// SPDX-License-Identifier: ISC
// Copyright (c) 2014-2020 Bitmark Inc.
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

// Package publish - local event feed of store changes on a zmq PUB
// socket
//
// each event is a four part message:
//
//   chain name
//   "added" or "removed"
//   identity (32 bytes)
//   entry in storage format
package publish

import (
	"github.com/bitmark-inc/logger"
	zmq "github.com/pebbe/zmq4"

	"github.com/bitmark-inc/protectedstore/background"
	"github.com/bitmark-inc/protectedstore/entry"
	"github.com/bitmark-inc/protectedstore/messagebus"
	"github.com/bitmark-inc/protectedstore/zmqutil"
)

// event names
const (
	EventAdded   = "added"
	EventRemoved = "removed"

	zapDomain      = "publish"
	eventQueueSize = 1000
)

// Configuration - the publish block of the configuration file
type Configuration struct {
	Broadcast  []string `gluamapper:"broadcast" json:"broadcast"`
	PrivateKey string   `gluamapper:"private_key" json:"private_key"`
	PublicKey  string   `gluamapper:"public_key" json:"public_key"`
}

// Publisher - a store.Listener that forwards events to subscribers
type Publisher struct {
	log        *logger.L
	chain      string
	queue      *messagebus.Queue
	socket     *zmq.Socket
	background *background.T
}

// New - bind the PUB socket and start the sender
func New(configuration Configuration, chain string, log *logger.L) (*Publisher, error) {

	log.Info("starting…")

	privateKey, err := zmqutil.ReadPrivateKeyFile(configuration.PrivateKey)
	if nil != err {
		log.Errorf("read private key file: %q  error: %s", configuration.PrivateKey, err)
		return nil, err
	}
	publicKey, err := zmqutil.ReadPublicKeyFile(configuration.PublicKey)
	if nil != err {
		log.Errorf("read public key file: %q  error: %s", configuration.PublicKey, err)
		return nil, err
	}
	log.Tracef("public key: %x", publicKey)

	socket, err := zmqutil.NewBind(log, zmq.PUB, zapDomain, privateKey, publicKey, configuration.Broadcast)
	if nil != err {
		return nil, err
	}

	p := &Publisher{
		log:    log,
		chain:  chain,
		queue:  messagebus.New(eventQueueSize),
		socket: socket,
	}

	p.background = background.Start(background.Processes{p}, nil)
	return p, nil
}

// EntryAdded - queue an add event, never blocks the store
func (p *Publisher) EntryAdded(e entry.Entry) {
	p.enqueue(EventAdded, e)
}

// EntryRemoved - queue a remove event, never blocks the store
func (p *Publisher) EntryRemoved(e entry.Entry) {
	p.enqueue(EventRemoved, e)
}

func (p *Publisher) enqueue(event string, e entry.Entry) {
	identity := e.Identity()
	if !p.queue.Send(event, identity[:], e.PackRecord()) {
		p.log.Warnf("event queue full: %s: %v dropped", event, identity)
	}
}

// Run - the only goroutine that touches the socket
func (p *Publisher) Run(args interface{}, shutdown <-chan struct{}) {

	queue := p.queue.Chan()

loop:
	for {
		select {
		case <-shutdown:
			break loop
		case item := <-queue:
			parts := make([]interface{}, 0, 2+len(item.Parameters))
			parts = append(parts, p.chain, item.Command)
			for _, parameter := range item.Parameters {
				parts = append(parts, parameter)
			}
			_, err := p.socket.SendMessage(parts...)
			if nil != err {
				p.log.Errorf("send: %s  error: %s", item.Command, err)
				continue loop
			}
			p.log.Tracef("sent: %s  identity: %x", item.Command, item.Parameters[0])
		}
	}

	p.socket.Close()
}

// Stop - stop sending and close the socket
func (p *Publisher) Stop() {
	p.log.Info("shutting down…")
	p.background.Stop()
	p.log.Info("finished")
	p.log.Flush()
}

// Dropped - events lost to a full queue
func (p *Publisher) Dropped() uint64 {
	return p.queue.Dropped()
}
