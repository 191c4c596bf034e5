// SPDX-License-Identifier: ISC
// Copyright (c) 2014-2020 Bitmark Inc.
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package main

import (
	"github.com/urfave/cli"

	"github.com/bitmark-inc/protectedstore/keypair"
)

type keyReply struct {
	File      string            `json:"file"`
	PublicKey keypair.PublicKey `json:"publicKey"`
}

func runGenerateKey(c *cli.Context) error {

	m := c.App.Metadata["config"].(*metadata)

	name, err := checkKeyFile(c)
	if nil != err {
		return err
	}
	password, err := getPassword(c, true)
	if nil != err {
		return err
	}

	pair, err := keypair.New()
	if nil != err {
		return err
	}
	err = keypair.Save(name, pair, password)
	if nil != err {
		return err
	}

	printJson(m.w, keyReply{
		File:      name,
		PublicKey: pair.PublicKey,
	})
	return nil
}

func runPublicKey(c *cli.Context) error {

	m := c.App.Metadata["config"].(*metadata)

	name, err := checkKeyFile(c)
	if nil != err {
		return err
	}

	publicKey, err := keypair.ReadPublicKey(name)
	if nil != err {
		return err
	}

	printJson(m.w, keyReply{
		File:      name,
		PublicKey: publicKey,
	})
	return nil
}
