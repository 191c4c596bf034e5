// SPDX-License-Identifier: ISC
// Copyright (c) 2014-2020 Bitmark Inc.
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package zmqutil

import (
	"strings"
	"sync"
	"time"

	"github.com/bitmark-inc/logger"
	zmq "github.com/pebbe/zmq4"
)

const (
	heartbeatInterval = 15 * time.Second
	heartbeatTimeout  = 60 * time.Second
	heartbeatTTL      = 120 * time.Second
)

var oneTimeAuthStart sync.Once

// StartAuthentication - ZAP handler for CURVE sockets, started once
func StartAuthentication() error {
	err := error(nil)
	oneTimeAuthStart.Do(func() {
		zmq.AuthSetVerbose(false)
		err = zmq.AuthStart()
	})
	return err
}

// NewBind - one CURVE server socket bound to every endpoint
//
// endpoints are zmq form, e.g. "tcp://127.0.0.1:2139" or "tcp://[::1]:2139"
func NewBind(log *logger.L, socketType zmq.Type, zapDomain string, privateKey []byte, publicKey []byte, endpoints []string) (*zmq.Socket, error) {

	v6 := false
	for _, endpoint := range endpoints {
		if strings.Contains(endpoint, "[") {
			v6 = true
		}
	}

	socket, err := NewServerSocket(socketType, zapDomain, privateKey, publicKey, v6)
	if nil != err {
		return nil, err
	}

	for i, endpoint := range endpoints {
		err = socket.Bind(endpoint)
		if nil != err {
			log.Errorf("cannot bind[%d]: %q  error: %s", i, endpoint, err)
			socket.Close()
			return nil, err
		}
		log.Infof("bind[%d]: %q  IPv6: %t", i, endpoint, v6)
	}
	return socket, nil
}

// NewServerSocket - CURVE server socket that accepts any client key
func NewServerSocket(socketType zmq.Type, zapDomain string, privateKey []byte, publicKey []byte, v6 bool) (*zmq.Socket, error) {

	err := StartAuthentication()
	if nil != err {
		return nil, err
	}

	socket, err := zmq.NewSocket(socketType)
	if nil != err {
		return nil, err
	}

	zmq.AuthCurveAdd(zapDomain, zmq.CURVE_ALLOW_ANY)

	socket.SetCurveServer(1)
	socket.SetCurveSecretkey(string(privateKey))
	socket.SetZapDomain(zapDomain)
	socket.SetIdentity(string(publicKey))
	socket.SetIpv6(v6)
	socket.SetLinger(0)

	socket.SetHeartbeatIvl(heartbeatInterval)
	socket.SetHeartbeatTimeout(heartbeatTimeout)
	socket.SetHeartbeatTtl(heartbeatTTL)

	return socket, nil
}

// NewClientSocket - CURVE client socket connected to a server whose
// public key is known
func NewClientSocket(socketType zmq.Type, privateKey []byte, publicKey []byte, serverPublicKey []byte, endpoint string) (*zmq.Socket, error) {

	socket, err := zmq.NewSocket(socketType)
	if nil != err {
		return nil, err
	}

	socket.SetCurveServer(0)
	socket.SetCurvePublickey(string(publicKey))
	socket.SetCurveSecretkey(string(privateKey))
	socket.SetCurveServerkey(string(serverPublicKey))
	socket.SetIpv6(strings.Contains(endpoint, "["))
	socket.SetLinger(0)

	if zmq.SUB == socketType {
		socket.SetSubscribe("")
	}

	err = socket.Connect(endpoint)
	if nil != err {
		socket.Close()
		return nil, err
	}
	return socket, nil
}

// NewClientKeys - temporary key pair for a client socket
func NewClientKeys() ([]byte, []byte, error) {
	publicKey, privateKey, err := zmq.NewCurveKeypair()
	if nil != err {
		return nil, nil, err
	}
	return []byte(zmq.Z85decode(publicKey)), []byte(zmq.Z85decode(privateKey)), nil
}
