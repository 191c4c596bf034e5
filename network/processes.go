// SPDX-License-Identifier: ISC
// Copyright (c) 2014-2020 Bitmark Inc.
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package network

import (
	"context"
	"time"

	"github.com/libp2p/go-libp2p-core/peer"
)

// context that ends on shutdown
func shutdownContext(parent context.Context, shutdown <-chan struct{}) (context.Context, context.CancelFunc) {
	ctx, cancel := context.WithCancel(parent)
	go func() {
		select {
		case <-shutdown:
			cancel()
		case <-ctx.Done():
		}
	}()
	return ctx, cancel
}

// reads the gossip subscription
type receiver struct{}

func (r *receiver) Run(args interface{}, shutdown <-chan struct{}) {
	n := args.(*Node)
	log := n.log

	log.Info("receiver starting…")

	ctx, cancel := shutdownContext(n.ctx, shutdown)
	defer cancel()

loop:
	for {
		msg, err := n.subscription.Next(ctx)
		if nil != err {
			if nil == ctx.Err() {
				log.Errorf("subscription error: %s", err)
			}
			break loop
		}

		from := msg.GetFrom()
		if err := from.Validate(); nil != err {
			log.Debugf("invalid sender: %x  error: %s", []byte(from), err)
			continue loop
		}
		if from == n.host.ID() {
			continue loop
		}

		_, err = n.dispatcher.Process(from.Pretty(), msg.Data)
		if nil != err {
			log.Debugf("message from: %s  error: %s", from.Pretty(), err)
		}
	}

	log.Info("receiver shutting down…")
	log.Info("receiver finished")
}

// publishes queued local operations
type sender struct{}

func (s *sender) Run(args interface{}, shutdown <-chan struct{}) {
	n := args.(*Node)
	log := n.log

	log.Info("sender starting…")

	queue := n.queue.Chan()
loop:
	for {
		select {
		case <-shutdown:
			break loop
		case item := <-queue:
			packed, err := PackMessage(n.chain, item.Command, item.Parameters)
			if nil != err {
				log.Errorf("pack: %s  error: %s", item.Command, err)
				continue loop
			}
			err = n.pubsub.Publish(n.topic, packed)
			if nil != err {
				log.Errorf("publish: %s  error: %s", item.Command, err)
				continue loop
			}
			log.Tracef("published: %s  bytes: %d", item.Command, len(packed))
		}
	}

	log.Info("sender shutting down…")
	log.Info("sender finished")
}

// connects to static peers, saved peers and the nodes domain, then
// refreshes the nodes domain on its DNS TTL
type seeder struct{}

func (s *seeder) Run(args interface{}, shutdown <-chan struct{}) {
	n := args.(*Node)
	log := n.log

	log.Info("seeder starting…")

	ctx, cancel := shutdownContext(n.ctx, shutdown)
	defer cancel()

	infos := make([]peer.AddrInfo, 0)
	if "" != n.configuration.PeerFile {
		saved, err := restorePeers(n.configuration.PeerFile)
		if nil != err {
			log.Warnf("restore peers: %q  error: %s", n.configuration.PeerFile, err)
		}
		log.Infof("restored peers: %d", len(saved))
		infos = append(infos, saved...)
	}
	infos = append(infos, n.staticPeers(ctx)...)
	infos = append(infos, n.domainPeers()...)
	n.connectAll(ctx, infos)

	interval := lookupInterval(n.configuration.NodesDomain, log)
	timer := time.After(interval)

loop:
	for {
		select {
		case <-shutdown:
			break loop
		case <-timer:
			interval = lookupInterval(n.configuration.NodesDomain, log)
			timer = time.After(interval)

			infos := n.staticPeers(ctx)
			infos = append(infos, n.domainPeers()...)
			n.connectAll(ctx, infos)
		}
	}

	log.Info("seeder shutting down…")
	log.Info("seeder finished")
}
