// SPDX-License-Identifier: ISC
// Copyright (c) 2014-2020 Bitmark Inc.
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package main

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io/ioutil"
	"os"
	"path/filepath"
	"strings"

	"github.com/bitmark-inc/exitwithstatus"
	ma "github.com/multiformats/go-multiaddr"

	"github.com/bitmark-inc/protectedstore/configuration"
	"github.com/bitmark-inc/protectedstore/fault"
	"github.com/bitmark-inc/protectedstore/network"
	"github.com/bitmark-inc/protectedstore/rpc/certificate"
	"github.com/bitmark-inc/protectedstore/util"
	"github.com/bitmark-inc/protectedstore/zmqutil"
)

const (
	p2pPrivateKeyFilename = "p2p.private"

	rpcCertificateKeyFilename = "rpc.crt"
	rpcPrivateKeyFilename     = "rpc.key"

	publishPublicKeyFilename  = "publish.public"
	publishPrivateKeyFilename = "publish.private"
)

// setup command handler
//
// commands that run to create key and certificate files these
// commands cannot access any internal database or states or the
// configuration file
func processSetupCommand(program string, arguments []string) bool {

	command := "help"
	if len(arguments) > 0 {
		command = arguments[0]
		arguments = arguments[1:]
	}

	switch command {
	case "gen-p2p-identity", "p2p":
		privateKeyFilename := getFilenameWithDirectory(arguments, p2pPrivateKeyFilename)

		if util.EnsureFileExists(privateKeyFilename) {
			fmt.Printf("generate private key: %q error: %s\n", privateKeyFilename, fault.ErrKeyFileAlreadyExists)
			exitwithstatus.Exit(1)
		}

		key, err := network.GeneratePrivateKey()
		if nil != err {
			fmt.Printf("generate private key: %q error: %s\n", privateKeyFilename, err)
			exitwithstatus.Exit(1)
		}
		encoded, err := network.EncodePrivateKey(key)
		if nil != err {
			fmt.Printf("encode private key: %q error: %s\n", privateKeyFilename, err)
			exitwithstatus.Exit(1)
		}
		id, err := network.NodeID(key)
		if nil != err {
			fmt.Printf("peer id: %q error: %s\n", privateKeyFilename, err)
			exitwithstatus.Exit(1)
		}

		if err := ioutil.WriteFile(privateKeyFilename, []byte(encoded+"\n"), 0600); nil != err {
			os.Remove(privateKeyFilename)
			fmt.Printf("generate private key: %q error: %s\n", privateKeyFilename, err)
			exitwithstatus.Exit(1)
		}

		fmt.Printf("generated private key: %q\n", privateKeyFilename)
		fmt.Printf("peer id: %s\n", id)

	case "gen-publish-keys", "publish":
		publicKeyFilename := getFilenameWithDirectory(arguments, publishPublicKeyFilename)
		privateKeyFilename := getFilenameWithDirectory(arguments, publishPrivateKeyFilename)
		err := zmqutil.MakeKeyPair(publicKeyFilename, privateKeyFilename)
		if nil != err {
			fmt.Printf("generate private key: %q and public key: %q error: %s\n", privateKeyFilename, publicKeyFilename, err)
			exitwithstatus.Exit(1)
		}
		fmt.Printf("generated private key: %q and public key: %q\n", privateKeyFilename, publicKeyFilename)

	case "gen-rpc-cert", "rpc":
		certificateFilename := getFilenameWithDirectory(arguments, rpcCertificateKeyFilename)
		privateKeyFilename := getFilenameWithDirectory(arguments, rpcPrivateKeyFilename)

		addresses := []string{}
		if len(arguments) >= 2 {
			for _, a := range arguments[1:] {
				if "" != a {
					addresses = append(addresses, a)
				}
			}
		}

		err := certificate.MakeSelfSigned("rpc", certificateFilename, privateKeyFilename, 0 != len(addresses), addresses)
		if nil != err {
			fmt.Printf("generate RPC key: %q and certificate: %q error: %s\n", privateKeyFilename, certificateFilename, err)
			exitwithstatus.Exit(1)
		}
		fmt.Printf("generated RPC key: %q and certificate: %q\n", privateKeyFilename, certificateFilename)

	case "dns-txt", "txt":
		return false // defer processing until configuration is read

	case "start", "run":
		return false // continue processing

	case "config-test", "cfg":
		return false

	case "version", "v":
		fmt.Printf("%s\n", version)
		return true

	default:
		switch command {
		case "help", "h", "?":
		case "", " ":
			fmt.Printf("error: missing command\n")
		default:
			fmt.Printf("error: no such command: %q\n", command)
		}
		fmt.Printf("usage: %s [--help] [--verbose] [--quiet] --config-file=FILE [[command|help] arguments...]\n", program)

		fmt.Printf("supported commands:\n\n")
		fmt.Printf("  help                       (h)       - display this message\n\n")
		fmt.Printf("  version                    (v)       - display version sting\n\n")

		fmt.Printf("  gen-p2p-identity [DIR]     (p2p)     - create private key in: %q\n", "DIR/"+p2pPrivateKeyFilename)
		fmt.Printf("\n")

		fmt.Printf("  gen-publish-keys [DIR]     (publish) - create private key in: %q\n", "DIR/"+publishPrivateKeyFilename)
		fmt.Printf("                                         and the public key in: %q\n", "DIR/"+publishPublicKeyFilename)
		fmt.Printf("\n")

		fmt.Printf("  gen-rpc-cert [DIR] [IPs...] (rpc)    - create private key in:  %q\n", "DIR/"+rpcPrivateKeyFilename)
		fmt.Printf("                                         and the certificate in: %q\n", "DIR/"+rpcCertificateKeyFilename)
		fmt.Printf("\n")

		fmt.Printf("  dns-txt                    (txt)     - display the data to put in a dns TXT record\n")
		fmt.Printf("\n")

		fmt.Printf("  start                      (run)     - just run the program, same as no arguments\n")
		fmt.Printf("                                         for convienience when passing script arguments\n")
		fmt.Printf("\n")

		fmt.Printf("  config-test                (cfg)     - just check the configuration file\n")
		fmt.Printf("\n")

		exitwithstatus.Exit(1)
	}

	// indicate processing complete and preform normal exit from main
	return true
}

// configuration file enquiry commands
// have configuration file read and decoded, but nothing else
func processConfigCommand(arguments []string, options *configuration.Configuration) bool {

	command := "help"
	if len(arguments) > 0 {
		command = arguments[0]
	}

	switch command {
	case "dns-txt", "txt":
		dnsTXT(options)

	case "config-test", "cfg":
		b, err := json.Marshal(options)
		if err != nil {
			exitwithstatus.Message("error: %s", err)
		}
		var out bytes.Buffer
		json.Indent(&out, b, "", "  ")
		out.WriteTo(os.Stdout)
		os.Stdout.WriteString("\n")

	case "start", "run":
		return false

	default:
		exitwithstatus.Message("error: no such command: %s", command)
	}

	// indicate processing complete and perform normal exit from main
	return true
}

// print out the DNS TXT record
func dnsTXT(options *configuration.Configuration) {
	//   <TAG> a=<IPv4;IPv6> c=<PEER-PORT> i=<PEER-ID>
	const txtRecord = `TXT "protectedstore-p2p=v1 a=%s c=%s i=%s"` + "\n"

	peering := options.Peering

	privateKey, err := network.DecodePrivateKey(peering.PrivateKey)
	if nil != err {
		exitwithstatus.Message("error: cannot decode p2p private key  error: %s", err)
	}
	id, err := network.NodeID(privateKey)
	if nil != err {
		exitwithstatus.Message("error: cannot determine peer id  error: %s", err)
	}

	addresses := peering.Announce
	if 0 == len(addresses) {
		addresses = peering.Listen
	}
	ip4, ip6, port := firstAddresses(addresses)
	if "" == port {
		exitwithstatus.Message("error: cannot determine p2p port")
	}
	ips := ip4
	if "" != ip6 {
		if "" != ips {
			ips += ";"
		}
		ips += ip6
	}
	if "" == ips {
		exitwithstatus.Message("error: no public IP address in p2p announce or listen")
	}

	fmt.Printf("for p2p announce: %q\n\n", addresses)
	fmt.Printf(txtRecord, ips, port, id)
}

// first usable IPv4 and IPv6 and the port of the first address
func firstAddresses(addresses []string) (string, string, string) {
	ip4 := ""
	ip6 := ""
	port := ""
	for _, address := range addresses {
		a, err := ma.NewMultiaddr(strings.TrimSpace(address))
		if nil != err {
			continue
		}
		p, err := a.ValueForProtocol(ma.P_TCP)
		if nil != err {
			continue
		}
		if "" == port {
			port = p
		}
		if v, err := a.ValueForProtocol(ma.P_IP4); nil == err && "" == ip4 && "0.0.0.0" != v {
			ip4 = v
		}
		if v, err := a.ValueForProtocol(ma.P_IP6); nil == err && "" == ip6 && "::" != v {
			ip6 = v
		}
	}
	return ip4, ip6, port
}

func getFilenameWithDirectory(arguments []string, name string) string {
	directory := "."
	if len(arguments) > 0 && "" != arguments[0] {
		directory = arguments[0]
	}
	return filepath.Join(directory, name)
}
