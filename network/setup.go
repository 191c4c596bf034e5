// SPDX-License-Identifier: ISC
// Copyright (c) 2014-2020 Bitmark Inc.
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package network

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/bitmark-inc/logger"
	"github.com/libp2p/go-libp2p"
	connmgr "github.com/libp2p/go-libp2p-connmgr"
	"github.com/libp2p/go-libp2p-core/crypto"
	"github.com/libp2p/go-libp2p-core/host"
	"github.com/libp2p/go-libp2p-core/peer"
	"github.com/libp2p/go-libp2p-core/protocol"
	pubsub "github.com/libp2p/go-libp2p-pubsub"
	tls "github.com/libp2p/go-libp2p-tls"
	"github.com/miekg/dns"
	ma "github.com/multiformats/go-multiaddr"

	"github.com/bitmark-inc/protectedstore/background"
	"github.com/bitmark-inc/protectedstore/fault"
	"github.com/bitmark-inc/protectedstore/messagebus"
)

// defaults for zero configuration values
const (
	DefaultLowConnections  = 50
	DefaultHighConnections = 100
	DefaultRateLimit       = 100.0 // messages per second per peer
	DefaultRateBurst       = 200
	DefaultDedupSize       = 10000
	DefaultSyncLimit       = 10000

	connectionGracePeriod = time.Minute
	connectTimeout        = 30 * time.Second

	syncProtocol = protocol.ID("/protectedstore/sync/1.0.0")
)

// Configuration - the p2p block of the configuration file
type Configuration struct {
	Listen          []string `gluamapper:"listen" json:"listen"`
	Announce        []string `gluamapper:"announce" json:"announce"`
	PrivateKey      string   `gluamapper:"private_key" json:"-"`
	Connect         []string `gluamapper:"connect" json:"connect"`
	NodesDomain     string   `gluamapper:"nodes_domain" json:"nodes_domain"`
	PeerFile        string   `gluamapper:"peer_file" json:"peer_file"`
	LowConnections  int      `gluamapper:"low_connections" json:"low_connections"`
	HighConnections int      `gluamapper:"high_connections" json:"high_connections"`
	RateLimit       float64  `gluamapper:"rate_limit" json:"rate_limit"`
	RateBurst       int      `gluamapper:"rate_burst" json:"rate_burst"`
	DedupSize       int      `gluamapper:"dedup_size" json:"dedup_size"`
	SyncLimit       int      `gluamapper:"sync_limit" json:"sync_limit"`
}

// Node - libp2p host joined to the chain's gossip topic
type Node struct {
	sync.Mutex // protects syncing

	log           *logger.L
	chain         string
	topic         string
	configuration Configuration

	ctx    context.Context
	cancel context.CancelFunc

	host         host.Host
	pubsub       *pubsub.PubSub
	subscription *pubsub.Subscription
	handler      Handler
	dispatcher   *Dispatcher
	queue        *messagebus.Queue

	syncing  map[peer.ID]struct{}
	stopping int32

	background *background.T
}

// Info - summary for the node RPC
type Info struct {
	ID      string   `json:"id"`
	Chain   string   `json:"chain"`
	Listen  []string `json:"listen"`
	Peers   int      `json:"peers"`
	Dropped uint64   `json:"dropped"`
}

// Topic - gossip topic for a chain
func Topic(chain string) string {
	return fmt.Sprintf("/protectedstore/%s/1.0.0", chain)
}

// New - start the host, join the gossip topic and begin seeding
//
// outbound operations are read from queue, which is the same queue
// given to the Broadcaster
func New(configuration Configuration, chain string, handler Handler, queue *messagebus.Queue, log *logger.L) (*Node, error) {

	applyDefaults(&configuration)

	var privateKey crypto.PrivKey
	if "" == configuration.PrivateKey {
		log.Warn("no private key configured, using a temporary identity")
		k, err := GeneratePrivateKey()
		if nil != err {
			return nil, err
		}
		privateKey = k
	} else {
		k, err := DecodePrivateKey(configuration.PrivateKey)
		if nil != err {
			log.Errorf("private key error: %s", err)
			return nil, err
		}
		privateKey = k
	}

	listen, err := parseAddrs(configuration.Listen)
	if nil != err {
		log.Errorf("listen address error: %s", err)
		return nil, err
	}
	if 0 == len(listen) {
		return nil, fault.ErrNoListenAddresses
	}
	if "" != configuration.NodesDomain {
		if _, ok := dns.IsDomainName(configuration.NodesDomain); !ok {
			log.Errorf("nodes domain: %q is not a domain name", configuration.NodesDomain)
			return nil, fault.ErrInvalidNodeDomain
		}
	}
	announce, err := parseAddrs(configuration.Announce)
	if nil != err {
		log.Errorf("announce address error: %s", err)
		return nil, err
	}

	ctx, cancel := context.WithCancel(context.Background())

	options := []libp2p.Option{
		libp2p.Identity(privateKey),
		libp2p.ListenAddrs(listen...),
		libp2p.Security(tls.ID, tls.New),
		libp2p.ConnectionManager(connmgr.NewConnManager(configuration.LowConnections, configuration.HighConnections, connectionGracePeriod)),
	}
	if 0 != len(announce) {
		options = append(options, libp2p.AddrsFactory(func([]ma.Multiaddr) []ma.Multiaddr {
			return announce
		}))
	}

	h, err := libp2p.New(ctx, options...)
	if nil != err {
		cancel()
		log.Errorf("create host error: %s", err)
		return nil, err
	}

	n := &Node{
		log:           log,
		chain:         chain,
		topic:         Topic(chain),
		configuration: configuration,
		ctx:           ctx,
		cancel:        cancel,
		host:          h,
		handler:       handler,
		dispatcher:    NewDispatcher(chain, handler, configuration, log),
		queue:         queue,
		syncing:       make(map[peer.ID]struct{}),
	}

	n.pubsub, err = pubsub.NewGossipSub(ctx, h)
	if nil != err {
		n.close()
		log.Errorf("create gossip error: %s", err)
		return nil, err
	}

	n.subscription, err = n.pubsub.Subscribe(n.topic)
	if nil != err {
		n.close()
		log.Errorf("subscribe: %s  error: %s", n.topic, err)
		return nil, err
	}

	h.SetStreamHandler(syncProtocol, n.handleSync)
	h.Network().Notify(n.notifee())

	for _, a := range h.Addrs() {
		log.Infof("listening: %s/p2p/%s", a, h.ID().Pretty())
	}

	processes := background.Processes{
		&receiver{},
		&sender{},
		&seeder{},
	}
	n.background = background.Start(processes, n)

	return n, nil
}

func applyDefaults(configuration *Configuration) {
	if configuration.LowConnections <= 0 {
		configuration.LowConnections = DefaultLowConnections
	}
	if configuration.HighConnections < configuration.LowConnections {
		configuration.HighConnections = DefaultHighConnections
		if configuration.HighConnections < configuration.LowConnections {
			configuration.HighConnections = configuration.LowConnections
		}
	}
	if configuration.RateLimit <= 0 {
		configuration.RateLimit = DefaultRateLimit
	}
	if configuration.RateBurst <= 0 {
		configuration.RateBurst = DefaultRateBurst
	}
	if configuration.DedupSize <= 0 {
		configuration.DedupSize = DefaultDedupSize
	}
	if configuration.SyncLimit <= 0 {
		configuration.SyncLimit = DefaultSyncLimit
	}
}

func parseAddrs(addresses []string) ([]ma.Multiaddr, error) {
	result := make([]ma.Multiaddr, 0, len(addresses))
	for _, s := range addresses {
		if "" == s {
			continue
		}
		a, err := ma.NewMultiaddr(s)
		if nil != err {
			return nil, err
		}
		result = append(result, a)
	}
	return result, nil
}

// Stop - save the known peers and leave the network
func (n *Node) Stop() {
	if !atomic.CompareAndSwapInt32(&n.stopping, 0, 1) {
		return
	}
	n.log.Info("shutting down…")

	n.background.Stop()

	if "" != n.configuration.PeerFile {
		err := storePeers(n.configuration.PeerFile, n.knownPeers())
		if nil != err {
			n.log.Errorf("save peers: %q  error: %s", n.configuration.PeerFile, err)
		}
	}

	n.close()
	n.log.Info("finished")
	n.log.Flush()
}

func (n *Node) close() {
	if nil != n.subscription {
		n.subscription.Cancel()
	}
	n.host.Close()
	n.cancel()
}

func (n *Node) isStopping() bool {
	return 0 != atomic.LoadInt32(&n.stopping)
}

// ID - this node's peer ID, the value used for owner node in payloads
func (n *Node) ID() string {
	return n.host.ID().Pretty()
}

// AddrInfo - how other nodes reach this one
func (n *Node) AddrInfo() peer.AddrInfo {
	return peer.AddrInfo{
		ID:    n.host.ID(),
		Addrs: n.host.Addrs(),
	}
}

// Connect - dial a peer, the sync request follows from the connect
// notification
func (n *Node) Connect(ctx context.Context, info peer.AddrInfo) error {
	if info.ID == n.host.ID() {
		return nil
	}
	ctx, cancel := context.WithTimeout(ctx, connectTimeout)
	defer cancel()
	return n.host.Connect(ctx, info)
}

// Info - identity and connection summary
func (n *Node) Info() Info {
	listen := make([]string, 0)
	for _, a := range n.host.Addrs() {
		listen = append(listen, a.String())
	}
	return Info{
		ID:      n.ID(),
		Chain:   n.chain,
		Listen:  listen,
		Peers:   len(n.host.Network().Peers()),
		Dropped: n.queue.Dropped(),
	}
}

// Statistics - inbound message counters
func (n *Node) Statistics() map[string]uint64 {
	return n.dispatcher.Statistics()
}
