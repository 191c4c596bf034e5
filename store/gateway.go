// SPDX-License-Identifier: ISC
// Copyright (c) 2014-2020 Bitmark Inc.
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package store

import (
	"github.com/bitmark-inc/protectedstore/entry"
	"github.com/bitmark-inc/protectedstore/snapshot"
)

// LocalSource - source name for operations made on this node
const LocalSource = ""

// Listener - notified after each successful mutation, outside the
// store lock, in the order listeners were given to New
type Listener interface {
	EntryAdded(e entry.Entry)
	EntryRemoved(e entry.Entry)
}

// Broadcaster - sends accepted operations to peers; source is the
// peer the operation came from so it is not echoed back
type Broadcaster interface {
	BroadcastAdd(e entry.Entry, source string)
	BroadcastRemove(e entry.Entry, source string)
	BroadcastRefresh(r entry.Refresh, source string)
}

// Persistence - durable copy of the store
type Persistence interface {
	LoadAll() (*snapshot.Snapshot, error)
	SaveSnapshot(s *snapshot.Snapshot) error
}

// used when no broadcaster is configured
type nopBroadcaster struct{}

func (nopBroadcaster) BroadcastAdd(entry.Entry, string)       {}
func (nopBroadcaster) BroadcastRemove(entry.Entry, string)    {}
func (nopBroadcaster) BroadcastRefresh(entry.Refresh, string) {}

// used when nothing is kept over a restart
type nopPersistence struct{}

func (nopPersistence) LoadAll() (*snapshot.Snapshot, error)  { return snapshot.New(), nil }
func (nopPersistence) SaveSnapshot(*snapshot.Snapshot) error { return nil }
