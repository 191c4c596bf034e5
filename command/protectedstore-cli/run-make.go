// SPDX-License-Identifier: ISC
// Copyright (c) 2014-2020 Bitmark Inc.
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package main

import (
	"encoding/hex"
	"errors"
	"fmt"
	"time"

	"github.com/urfave/cli"

	"github.com/bitmark-inc/protectedstore/digest"
	"github.com/bitmark-inc/protectedstore/entry"
	"github.com/bitmark-inc/protectedstore/keypair"
	"github.com/bitmark-inc/protectedstore/mailbox"
	"github.com/bitmark-inc/protectedstore/payload"
)

type madeReply struct {
	Identity       digest.Digest `json:"identity"`
	Kind           string        `json:"kind"`
	SequenceNumber int32         `json:"sequenceNumber"`
	TTL            string        `json:"ttl"`
	Packed         string        `json:"packed"`
}

func made(e entry.Entry) madeReply {
	return madeReply{
		Identity:       e.Identity(),
		Kind:           e.Kind.String(),
		SequenceNumber: e.SequenceNumber,
		TTL:            e.TTL().String(),
		Packed:         hex.EncodeToString(e.Pack()),
	}
}

// payload, ttl and sequence number common to both entry kinds
func entryParameters(c *cli.Context, owner *keypair.KeyPair) (payload.Payload, time.Duration, int32, error) {

	content, err := getContent(c)
	if nil != err {
		return payload.Payload{}, 0, 0, err
	}

	flags, err := parseFlags(c.String("flags"))
	if nil != err {
		return payload.Payload{}, 0, 0, err
	}

	ttl := c.Duration("ttl")
	if ttl <= 0 {
		return payload.Payload{}, 0, 0, errors.New("ttl must be positive")
	}

	sequenceNumber := c.Int("sequence")
	if sequenceNumber < 0 {
		return payload.Payload{}, 0, 0, fmt.Errorf("invalid sequence number: %d", sequenceNumber)
	}

	p := payload.Payload{
		Flags:     flags,
		Owner:     owner.PublicKey,
		OwnerNode: c.String("owner-node"),
		Content:   content,
	}
	return p, ttl, int32(sequenceNumber), nil
}

func runMakeEntry(c *cli.Context) error {

	m := c.App.Metadata["config"].(*metadata)

	owner, err := loadKey(c)
	if nil != err {
		return err
	}

	p, ttl, sequenceNumber, err := entryParameters(c, owner)
	if nil != err {
		return err
	}

	e := entry.NewOrdinary(p, ttl, owner, sequenceNumber)

	printJson(m.w, made(e))
	return nil
}

func runMakeMailbox(c *cli.Context) error {

	m := c.App.Metadata["config"].(*metadata)

	receiver, err := keypair.PublicKeyFromString(c.String("receiver"))
	if nil != err {
		return err
	}

	sender, err := loadKey(c)
	if nil != err {
		return err
	}

	p, ttl, sequenceNumber, err := entryParameters(c, sender)
	if nil != err {
		return err
	}

	e := mailbox.NewDelivery(p, ttl, sender, receiver, sequenceNumber)

	printJson(m.w, made(e))
	return nil
}

// a removal needs a higher sequence number than the stored entry,
// ask the node when none is given
func runMakeRemoval(c *cli.Context) error {

	m := c.App.Metadata["config"].(*metadata)

	existing, err := decodeEntry(c.String("entry"))
	if nil != err {
		return err
	}

	key, err := loadKey(c)
	if nil != err {
		return err
	}

	sequenceNumber := c.Int("sequence")
	if sequenceNumber < 0 {
		client, err := connect(m)
		if nil != err {
			return err
		}
		defer client.Close()

		reply, err := client.Get(existing.Identity())
		if nil != err {
			return err
		}
		sequenceNumber = int(reply.NextSequenceNumber)
	}

	var removal entry.Entry
	if existing.IsMailbox() {
		removal = mailbox.NewRemoval(existing, key, int32(sequenceNumber))
	} else {
		removal = entry.NewRemoval(existing, key, int32(sequenceNumber))
	}

	printJson(m.w, made(removal))
	return nil
}
