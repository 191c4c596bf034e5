// SPDX-License-Identifier: ISC
// Copyright (c) 2014-2020 Bitmark Inc.
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package main

import (
	"errors"
	"time"

	"github.com/urfave/cli"

	"github.com/bitmark-inc/protectedstore/digest"
	"github.com/bitmark-inc/protectedstore/persistence"
	"github.com/bitmark-inc/protectedstore/rpc/storage"
	"github.com/bitmark-inc/protectedstore/snapshot"
)

type sequenceInfo struct {
	Identity  digest.Digest `json:"identity"`
	Number    int32         `json:"number"`
	Timestamp time.Time     `json:"timestamp"`
	Removed   bool          `json:"removed"`
}

type dumpReply struct {
	Entries   []storage.EntryInfo `json:"entries"`
	Sequences []sequenceInfo      `json:"sequences"`
	Removed   []digest.Digest     `json:"removed"`
}

func toDump(s *snapshot.Snapshot) dumpReply {
	s.Sort()

	reply := dumpReply{
		Entries:   make([]storage.EntryInfo, 0, len(s.Entries)),
		Sequences: make([]sequenceInfo, 0, len(s.Sequences)),
		Removed:   s.Removed,
	}
	for _, e := range s.Entries {
		reply.Entries = append(reply.Entries, storage.Info(e))
	}
	for identity, v := range s.Sequences {
		reply.Sequences = append(reply.Sequences, sequenceInfo{
			Identity:  identity,
			Number:    v.Number,
			Timestamp: v.Timestamp.UTC(),
			Removed:   v.Removed,
		})
	}
	return reply
}

// read every pool of a database that is not in use
func runDumpDatabase(c *cli.Context) error {

	m := c.App.Metadata["config"].(*metadata)

	name := c.String("database")
	if "" == name {
		return errors.New("database is required")
	}

	s, err := persistence.ReadDatabase(name)
	if nil != err {
		return err
	}

	printJson(m.w, toDump(s))
	return nil
}

func runDumpSnapshot(c *cli.Context) error {

	m := c.App.Metadata["config"].(*metadata)

	name := c.String("file")
	if "" == name {
		return errors.New("snapshot file is required")
	}

	s, err := snapshot.ReadFile(name)
	if nil != err {
		return err
	}

	printJson(m.w, toDump(s))
	return nil
}
