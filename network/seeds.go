// SPDX-License-Identifier: ISC
// Copyright (c) 2014-2020 Bitmark Inc.
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package network

import (
	"context"
	"fmt"
	"net"
	"strconv"
	"strings"
	"time"

	"github.com/bitmark-inc/logger"
	p2pnet "github.com/libp2p/go-libp2p-core/network"
	"github.com/libp2p/go-libp2p-core/peer"
	"github.com/miekg/dns"
	ma "github.com/multiformats/go-multiaddr"
	madns "github.com/multiformats/go-multiaddr-dns"

	"github.com/bitmark-inc/protectedstore/fault"
)

const (
	maximumLookupInterval = time.Hour
	resolvConf            = "/etc/resolv.conf"
	txtTag                = "protectedstore-p2p=v1"
)

// resolve the connect entries, /dns4/ and /dnsaddr/ forms are looked up
func (n *Node) staticPeers(ctx context.Context) []peer.AddrInfo {
	log := n.log
	infos := make([]peer.AddrInfo, 0, len(n.configuration.Connect))

	for _, s := range n.configuration.Connect {
		addr, err := ma.NewMultiaddr(s)
		if nil != err {
			log.Errorf("connect: %q  error: %s", s, err)
			continue
		}

		addrs := []ma.Multiaddr{addr}
		if madns.Matches(addr) {
			resolved, err := madns.Resolve(ctx, addr)
			if nil != err {
				log.Warnf("resolve: %s  error: %s", addr, err)
				continue
			}
			addrs = resolved
		}

		for _, a := range addrs {
			info, err := peer.AddrInfoFromP2pAddr(a)
			if nil != err {
				log.Errorf("connect: %s  error: %s", a, err)
				continue
			}
			infos = append(infos, *info)
		}
	}
	return infos
}

// peers named in the nodes domain TXT records
func (n *Node) domainPeers() []peer.AddrInfo {
	domain := n.configuration.NodesDomain
	if "" == domain {
		return nil
	}
	texts, err := net.LookupTXT(domain)
	if nil != err {
		n.log.Errorf("lookup TXT: %s  error: %s", domain, err)
		return nil
	}
	return parseNodesDomain(texts, n.log)
}

func (n *Node) connectAll(ctx context.Context, infos []peer.AddrInfo) {
	for _, info := range infos {
		if nil != ctx.Err() {
			return
		}
		if info.ID == n.host.ID() || p2pnet.Connected == n.host.Network().Connectedness(info.ID) {
			continue
		}
		err := n.Connect(ctx, info)
		if nil != err {
			n.log.Warnf("connect: %s  error: %s", info.ID.Pretty(), err)
			continue
		}
		n.log.Infof("connected: %s", info.ID.Pretty())
	}
}

// the SOA TTL of the nodes domain, at most an hour
func lookupInterval(domain string, log *logger.L) time.Duration {

	t := maximumLookupInterval
	if "" == domain {
		return t
	}

	conf, err := dns.ClientConfigFromFile(resolvConf)
	if nil != err {
		log.Errorf("reading %s error: %s", resolvConf, err)
		return t
	}
	if 0 == len(conf.Servers) {
		log.Error("no DNS name server")
		return t
	}

	server := net.JoinHostPort(conf.Servers[0], conf.Port)
	c := dns.Client{}
	msg := dns.Msg{}
	msg.SetQuestion(dns.Fqdn(domain), dns.TypeSOA)

	r, _, err := c.Exchange(&msg, server)
	if nil != err {
		log.Errorf("exchange with: %s  error: %s", server, err)
		return t
	}

	records := append(r.Answer, r.Ns...)
	for _, rr := range records {
		if soa, ok := rr.(*dns.SOA); ok {
			ttl := time.Duration(soa.Hdr.Ttl) * time.Second
			if 0 < ttl && ttl < t {
				t = ttl
			}
		}
	}

	log.Debugf("nodes domain refresh: %v", t)
	return t
}

// records of this form, other records are skipped:
//
//   protectedstore-p2p=v1 a=<IPv4;IPv6> c=<PORT> i=<PEER-ID>
func parseNodesDomain(texts []string, log *logger.L) []peer.AddrInfo {
	infos := make([]peer.AddrInfo, 0, len(texts))
	for i, t := range texts {
		info, err := parseTxt(t)
		if nil != err {
			log.Debugf("ignore TXT[%d]: %q  error: %s", i, t, err)
			continue
		}
		log.Infof("TXT[%d]: peer: %s  addresses: %v", i, info.ID.Pretty(), info.Addrs)
		infos = append(infos, *info)
	}
	return infos
}

func parseTxt(s string) (*peer.AddrInfo, error) {

	var ips []net.IP
	port := 0
	id := peer.ID("")

	countA := 0
	countC := 0
	countI := 0

words:
	for i, w := range strings.Split(strings.TrimSpace(s), " ") {

		if 0 == i {
			if txtTag == w {
				continue words
			}
			return nil, fault.ErrInvalidDnsTxtRecord
		}

		if "" == w {
			continue words
		}

		// <letter>=<parameter>
		if len(w) < 3 || '=' != w[1] {
			return nil, fault.ErrInvalidDnsTxtRecord
		}

		parameter := w[2:]
		switch w[0] {
		case 'a':
			for _, address := range strings.Split(parameter, ";") {
				address = strings.TrimSuffix(strings.TrimPrefix(address, "["), "]")
				ip := net.ParseIP(address)
				if nil == ip {
					return nil, fault.ErrInvalidIPAddress
				}
				ips = append(ips, ip)
			}
			countA += 1

		case 'c':
			p, err := strconv.Atoi(parameter)
			if nil != err || p < 1 || p > 65535 {
				return nil, fault.ErrInvalidPortNumber
			}
			port = p
			countC += 1

		case 'i':
			decoded, err := peer.IDB58Decode(parameter)
			if nil != err {
				return nil, fault.ErrInvalidIdentityName
			}
			id = decoded
			countI += 1

		default:
			return nil, fault.ErrInvalidDnsTxtRecord
		}
	}

	if 1 != countA || 1 != countC || 1 != countI {
		return nil, fault.ErrInvalidDnsTxtRecord
	}

	info := &peer.AddrInfo{
		ID:    id,
		Addrs: make([]ma.Multiaddr, 0, len(ips)),
	}
	for _, ip := range ips {
		family := "ip6"
		if nil != ip.To4() {
			family = "ip4"
		}
		a, err := ma.NewMultiaddr(fmt.Sprintf("/%s/%s/tcp/%d", family, ip, port))
		if nil != err {
			return nil, err
		}
		info.Addrs = append(info.Addrs, a)
	}
	return info, nil
}
