// SPDX-License-Identifier: ISC
// Copyright (c) 2014-2020 Bitmark Inc.
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package main

import (
	"fmt"
	"io"
	"os"

	"github.com/urfave/cli"
)

type metadata struct {
	connect string
	verbose bool
	e       io.Writer
	w       io.Writer
}

// set by the linker: go build -ldflags "-X main.version=M.N" ./...
var version = "zero" // do not change this value

const defaultConnect = "127.0.0.1:2130"

func main() {

	app := cli.NewApp()
	app.Name = "protectedstore-cli"
	app.Usage = "create, sign and submit protected entries"
	app.Version = version
	app.HideVersion = true

	app.Writer = os.Stdout
	app.ErrWriter = os.Stderr

	keyFlags := []cli.Flag{
		cli.StringFlag{
			Name:  "key, k",
			Value: "",
			Usage: "*key `FILE`",
		},
		cli.StringFlag{
			Name:  "password, p",
			Value: "",
			Usage: " key file `PASSWORD` (prompted if not given)",
		},
	}

	entryFlags := []cli.Flag{
		cli.StringFlag{
			Name:  "content, c",
			Value: "",
			Usage: "+payload content `STRING`",
		},
		cli.StringFlag{
			Name:  "content-file, f",
			Value: "",
			Usage: "+payload content from `FILE`",
		},
		cli.DurationFlag{
			Name:  "ttl, t",
			Value: 0,
			Usage: "*time to live `DURATION`, e.g. 90m",
		},
		cli.StringFlag{
			Name:  "flags",
			Value: "",
			Usage: " comma separated `FLAGS` [persistable,add-once,owner-online]",
		},
		cli.StringFlag{
			Name:  "owner-node",
			Value: "",
			Usage: " peer `ID` that must stay online (with owner-online)",
		},
		cli.IntFlag{
			Name:  "sequence, s",
			Value: 0,
			Usage: " sequence `NUMBER`",
		},
	}

	app.Flags = []cli.Flag{
		cli.BoolFlag{
			Name:  "verbose, v",
			Usage: " verbose result",
		},
		cli.StringFlag{
			Name:  "connect, C",
			Value: defaultConnect,
			Usage: " protectedstored RPC `HOST:PORT`",
		},
	}
	app.Commands = []cli.Command{
		{
			Name:      "generate-key",
			Usage:     "generate a key pair and save it encrypted",
			ArgsUsage: "\n   (* = required)",
			Flags:     keyFlags,
			Action:    runGenerateKey,
		},
		{
			Name:      "public-key",
			Usage:     "display the public key of a key file",
			ArgsUsage: "\n   (* = required)",
			Flags:     keyFlags[:1],
			Action:    runPublicKey,
		},
		{
			Name:      "make-entry",
			Usage:     "create a signed ordinary entry as hex",
			ArgsUsage: "\n   (* = required, + = select one)",
			Flags:     append(append([]cli.Flag{}, keyFlags...), entryFlags...),
			Action:    runMakeEntry,
		},
		{
			Name:      "make-mailbox",
			Usage:     "create a signed mailbox entry as hex",
			ArgsUsage: "\n   (* = required, + = select one)",
			Flags: append(append(append([]cli.Flag{}, keyFlags...), entryFlags...),
				cli.StringFlag{
					Name:  "receiver, r",
					Value: "",
					Usage: "*receiver public `KEY`",
				},
			),
			Action: runMakeMailbox,
		},
		{
			Name:      "make-removal",
			Usage:     "create a signed removal of an entry as hex",
			ArgsUsage: "\n   (* = required)",
			Flags: append(append([]cli.Flag{}, keyFlags...),
				cli.StringFlag{
					Name:  "entry, e",
					Value: "",
					Usage: "*entry to remove `HEX`",
				},
				cli.IntFlag{
					Name:  "sequence, s",
					Value: -1,
					Usage: "*sequence `NUMBER`",
				},
			),
			Action: runMakeRemoval,
		},
		{
			Name:      "add",
			Usage:     "submit an entry",
			ArgsUsage: "\n   (* = required)",
			Flags: []cli.Flag{
				cli.StringFlag{
					Name:  "entry, e",
					Value: "",
					Usage: "*entry `HEX`",
				},
			},
			Action: runAdd,
		},
		{
			Name:      "remove",
			Usage:     "submit a removal",
			ArgsUsage: "\n   (* = required)",
			Flags: []cli.Flag{
				cli.StringFlag{
					Name:  "entry, e",
					Value: "",
					Usage: "*signed removal `HEX`",
				},
			},
			Action: runRemove,
		},
		{
			Name:      "refresh",
			Usage:     "restart the time to live of a stored entry",
			ArgsUsage: "\n   (* = required)",
			Flags: append(append([]cli.Flag{}, keyFlags...),
				cli.StringFlag{
					Name:  "identity, i",
					Value: "",
					Usage: "*entry identity `HEX`",
				},
			),
			Action: runRefresh,
		},
		{
			Name:      "get",
			Usage:     "fetch one entry",
			ArgsUsage: "\n   (* = required)",
			Flags: []cli.Flag{
				cli.StringFlag{
					Name:  "identity, i",
					Value: "",
					Usage: "*entry identity `HEX`",
				},
			},
			Action: runGet,
		},
		{
			Name:      "list",
			Usage:     "list stored entries",
			ArgsUsage: "\n   (* = required)",
			Flags: []cli.Flag{
				cli.IntFlag{
					Name:  "start, s",
					Value: 0,
					Usage: " position of the first entry `NUMBER`",
				},
				cli.IntFlag{
					Name:  "count, n",
					Value: 20,
					Usage: " maximum entries `COUNT`",
				},
			},
			Action: runList,
		},
		{
			Name:   "info",
			Usage:  "display protectedstored status",
			Action: runInfo,
		},
		{
			Name:      "dump-db",
			Usage:     "display a stopped node's database",
			ArgsUsage: "\n   (* = required)",
			Flags: []cli.Flag{
				cli.StringFlag{
					Name:  "database, d",
					Value: "",
					Usage: "*database `DIRECTORY`",
				},
			},
			Action: runDumpDatabase,
		},
		{
			Name:      "dump-snapshot",
			Usage:     "display a snapshot file",
			ArgsUsage: "\n   (* = required)",
			Flags: []cli.Flag{
				cli.StringFlag{
					Name:  "file, f",
					Value: "",
					Usage: "*snapshot `FILE`",
				},
			},
			Action: runDumpSnapshot,
		},
		{
			Name:      "watch",
			Usage:     "print entry events from a publish socket",
			ArgsUsage: "\n   (* = required)",
			Flags: []cli.Flag{
				cli.StringFlag{
					Name:  "broadcast, b",
					Value: "tcp://127.0.0.1:2135",
					Usage: " publish `ENDPOINT`",
				},
				cli.StringFlag{
					Name:  "server-key, s",
					Value: "",
					Usage: "*server public key `FILE`",
				},
				cli.IntFlag{
					Name:  "count, n",
					Value: 0,
					Usage: " stop after `COUNT` events (0 = never)",
				},
			},
			Action: runWatch,
		},
		{
			Name:  "version",
			Usage: "display protectedstore-cli version",
			Action: func(c *cli.Context) error {
				fmt.Fprintf(c.App.Writer, "%s\n", version)
				return nil
			},
		},
	}

	app.Before = func(c *cli.Context) error {
		c.App.Metadata["config"] = &metadata{
			connect: c.GlobalString("connect"),
			verbose: c.GlobalBool("verbose"),
			e:       c.App.ErrWriter,
			w:       c.App.Writer,
		}
		return nil
	}

	err := app.Run(os.Args)
	if nil != err {
		fmt.Fprintf(app.ErrWriter, "terminated with error: %s\n", err)
		os.Exit(1)
	}
}
