// SPDX-License-Identifier: ISC
// Copyright (c) 2014-2020 Bitmark Inc.
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package main

import (
	"errors"

	zmq "github.com/pebbe/zmq4"
	"github.com/urfave/cli"

	"github.com/bitmark-inc/protectedstore/entry"
	"github.com/bitmark-inc/protectedstore/rpc/storage"
	"github.com/bitmark-inc/protectedstore/zmqutil"
)

// chain, event, identity, record
const eventParts = 4

type eventReply struct {
	Chain string            `json:"chain"`
	Event string            `json:"event"`
	Entry storage.EntryInfo `json:"entry"`
}

func runWatch(c *cli.Context) error {

	m := c.App.Metadata["config"].(*metadata)

	serverKeyFile := c.String("server-key")
	if "" == serverKeyFile {
		return errors.New("server key file is required")
	}
	serverPublicKey, err := zmqutil.ReadPublicKeyFile(serverKeyFile)
	if nil != err {
		return err
	}

	publicKey, privateKey, err := zmqutil.NewClientKeys()
	if nil != err {
		return err
	}

	socket, err := zmqutil.NewClientSocket(zmq.SUB, privateKey, publicKey, serverPublicKey, c.String("broadcast"))
	if nil != err {
		return err
	}
	defer socket.Close()

	count := c.Int("count")
	for n := 0; 0 == count || n < count; n += 1 {
		parts, err := socket.RecvMessageBytes(0)
		if nil != err {
			return err
		}
		if eventParts != len(parts) {
			continue
		}
		e, _, err := entry.UnpackRecord(parts[3])
		if nil != err {
			return err
		}
		printJson(m.w, eventReply{
			Chain: string(parts[0]),
			Event: string(parts[1]),
			Entry: storage.Info(e),
		})
	}
	return nil
}
