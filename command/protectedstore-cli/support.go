// SPDX-License-Identifier: ISC
// Copyright (c) 2014-2020 Bitmark Inc.
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package main

import (
	"encoding/hex"
	"errors"
	"fmt"
	"io/ioutil"
	"os"
	"strings"

	"github.com/urfave/cli"
	"golang.org/x/crypto/ssh/terminal"

	"github.com/bitmark-inc/protectedstore/command/protectedstore-cli/rpccalls"
	"github.com/bitmark-inc/protectedstore/digest"
	"github.com/bitmark-inc/protectedstore/entry"
	"github.com/bitmark-inc/protectedstore/fault"
	"github.com/bitmark-inc/protectedstore/keypair"
	"github.com/bitmark-inc/protectedstore/payload"
)

const minimumPasswordLength = 8

func checkKeyFile(c *cli.Context) (string, error) {
	name := c.String("key")
	if "" == name {
		return "", errors.New("key file is required")
	}
	return name, nil
}

// password from the flag or the terminal
func getPassword(c *cli.Context, confirm bool) (string, error) {
	if password := c.String("password"); "" != password {
		return password, nil
	}

	fd := int(os.Stdin.Fd())
	if !terminal.IsTerminal(fd) {
		return "", errors.New("password is required")
	}

	fmt.Fprint(os.Stderr, "key file password: ")
	password, err := terminal.ReadPassword(fd)
	fmt.Fprintln(os.Stderr)
	if nil != err {
		return "", err
	}
	if !confirm {
		return string(password), nil
	}

	if len(password) < minimumPasswordLength {
		return "", fmt.Errorf("password must be at least %d characters", minimumPasswordLength)
	}

	fmt.Fprint(os.Stderr, "verify password: ")
	verify, err := terminal.ReadPassword(fd)
	fmt.Fprintln(os.Stderr)
	if nil != err {
		return "", err
	}
	if string(password) != string(verify) {
		return "", errors.New("passwords do not match")
	}
	return string(password), nil
}

func loadKey(c *cli.Context) (*keypair.KeyPair, error) {
	name, err := checkKeyFile(c)
	if nil != err {
		return nil, err
	}
	password, err := getPassword(c, false)
	if nil != err {
		return nil, err
	}
	return keypair.Load(name, password)
}

// comma separated flag names
func parseFlags(s string) (payload.Flags, error) {
	flags := payload.Flags(0)
	for _, name := range strings.Split(s, ",") {
		switch strings.TrimSpace(strings.ToLower(name)) {
		case "":
		case "persistable", "p":
			flags |= payload.Persistable
		case "add-once", "once":
			flags |= payload.AddOnce
		case "owner-online", "online":
			flags |= payload.RequiresOwnerOnline
		default:
			return 0, fmt.Errorf("unknown flag: %q", name)
		}
	}
	return flags, nil
}

func getContent(c *cli.Context) ([]byte, error) {
	content := c.String("content")
	fileName := c.String("content-file")

	switch {
	case "" != content && "" != fileName:
		return nil, errors.New("only one of content and content-file")
	case "" != fileName:
		return ioutil.ReadFile(fileName)
	case "" != content:
		return []byte(content), nil
	default:
		return nil, errors.New("content is required")
	}
}

func decodeEntry(s string) (entry.Entry, error) {
	b, err := hex.DecodeString(strings.TrimSpace(s))
	if nil != err {
		return entry.Entry{}, fault.ErrNotEntryPack
	}
	e, n, err := entry.Unpack(b)
	if nil != err {
		return entry.Entry{}, err
	}
	if n != len(b) {
		return entry.Entry{}, fault.ErrNotEntryPack
	}
	return e, nil
}

func decodeIdentity(s string) (digest.Digest, error) {
	var identity digest.Digest
	err := identity.UnmarshalText([]byte(strings.TrimSpace(s)))
	return identity, err
}

func connect(m *metadata) (*rpccalls.Client, error) {
	if m.verbose {
		fmt.Fprintf(m.e, "connect: %s\n", m.connect)
	}
	return rpccalls.NewClient(m.connect, m.verbose, m.e)
}
