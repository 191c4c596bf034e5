// SPDX-License-Identifier: ISC
// Copyright (c) 2014-2020 Bitmark Inc.
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package main

import (
	"encoding/hex"
	"fmt"

	"github.com/urfave/cli"

	"github.com/bitmark-inc/protectedstore/entry"
	"github.com/bitmark-inc/protectedstore/fault"
)

func runAdd(c *cli.Context) error {

	m := c.App.Metadata["config"].(*metadata)

	e, err := decodeEntry(c.String("entry"))
	if nil != err {
		return err
	}

	client, err := connect(m)
	if nil != err {
		return err
	}
	defer client.Close()

	reply, err := client.Add(e)
	if nil != err {
		return err
	}

	printJson(m.w, reply)
	return nil
}

func runRemove(c *cli.Context) error {

	m := c.App.Metadata["config"].(*metadata)

	e, err := decodeEntry(c.String("entry"))
	if nil != err {
		return err
	}

	client, err := connect(m)
	if nil != err {
		return err
	}
	defer client.Close()

	reply, err := client.Remove(e)
	if nil != err {
		return err
	}

	printJson(m.w, reply)
	return nil
}

// fetch the stored entry, sign it again at the next sequence number
// and send only the refresh
func runRefresh(c *cli.Context) error {

	m := c.App.Metadata["config"].(*metadata)

	identity, err := decodeIdentity(c.String("identity"))
	if nil != err {
		return err
	}

	owner, err := loadKey(c)
	if nil != err {
		return err
	}

	client, err := connect(m)
	if nil != err {
		return err
	}
	defer client.Close()

	current, err := client.Get(identity)
	if nil != err {
		return err
	}
	if !current.Found {
		return fault.ErrNotFoundEntry
	}

	packed, err := hex.DecodeString(current.Entry.Packed)
	if nil != err {
		return err
	}
	existing, _, err := entry.Unpack(packed)
	if nil != err {
		return err
	}

	if m.verbose {
		fmt.Fprintf(m.e, "refresh: %v  sequence: %d\n", identity, current.NextSequenceNumber)
	}

	reply, err := client.Refresh(entry.NewRefresh(existing, owner, current.NextSequenceNumber))
	if nil != err {
		return err
	}

	printJson(m.w, reply)
	return nil
}

func runGet(c *cli.Context) error {

	m := c.App.Metadata["config"].(*metadata)

	identity, err := decodeIdentity(c.String("identity"))
	if nil != err {
		return err
	}

	client, err := connect(m)
	if nil != err {
		return err
	}
	defer client.Close()

	reply, err := client.Get(identity)
	if nil != err {
		return err
	}

	printJson(m.w, reply)
	return nil
}

func runList(c *cli.Context) error {

	m := c.App.Metadata["config"].(*metadata)

	client, err := connect(m)
	if nil != err {
		return err
	}
	defer client.Close()

	reply, err := client.List(c.Int("start"), c.Int("count"))
	if nil != err {
		return err
	}

	printJson(m.w, reply)
	return nil
}

func runInfo(c *cli.Context) error {

	m := c.App.Metadata["config"].(*metadata)

	client, err := connect(m)
	if nil != err {
		return err
	}
	defer client.Close()

	reply, err := client.GetInfo()
	if nil != err {
		return err
	}

	printJson(m.w, reply)
	return nil
}
