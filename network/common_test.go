// SPDX-License-Identifier: ISC
// Copyright (c) 2014-2020 Bitmark Inc.
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package network_test

import (
	"os"
	"sync"
	"testing"
	"time"

	"github.com/bitmark-inc/logger"

	"github.com/bitmark-inc/protectedstore/entry"
	"github.com/bitmark-inc/protectedstore/keypair"
	"github.com/bitmark-inc/protectedstore/payload"
)

const (
	loggerFile = "test.log"
	testChain  = "testing"
)

func removeLogger() {
	os.RemoveAll(loggerFile)
}

func setupLogger() {
	removeLogger()
	_ = logger.Initialise(logger.Configuration{
		Directory: ".",
		File:      loggerFile,
		Size:      50000,
		Count:     10,
		Levels:    map[string]string{logger.DefaultTag: "critical"},
	})
}

func teardownLogger() {
	logger.Finalise()
	removeLogger()
}

// records every call, accepts everything
type recordingHandler struct {
	sync.Mutex
	added        []entry.Entry
	removed      []entry.Entry
	refreshed    []entry.Refresh
	disconnected []string
	sources      []string
	entries      []entry.Entry
}

func (h *recordingHandler) OnAddRequest(candidate entry.Entry, source string) bool {
	h.Lock()
	defer h.Unlock()
	h.added = append(h.added, candidate)
	h.sources = append(h.sources, source)
	return true
}

func (h *recordingHandler) OnRemoveRequest(candidate entry.Entry, source string) bool {
	h.Lock()
	defer h.Unlock()
	h.removed = append(h.removed, candidate)
	h.sources = append(h.sources, source)
	return true
}

func (h *recordingHandler) OnRefreshRequest(refresh entry.Refresh, source string) bool {
	h.Lock()
	defer h.Unlock()
	h.refreshed = append(h.refreshed, refresh)
	h.sources = append(h.sources, source)
	return true
}

func (h *recordingHandler) PeerDisconnected(node string) {
	h.Lock()
	defer h.Unlock()
	h.disconnected = append(h.disconnected, node)
}

func (h *recordingHandler) SnapshotAll() []entry.Entry {
	h.Lock()
	defer h.Unlock()
	return append([]entry.Entry(nil), h.entries...)
}

func (h *recordingHandler) addedCount() int {
	h.Lock()
	defer h.Unlock()
	return len(h.added)
}

func newEntry(t *testing.T, content string) (entry.Entry, *keypair.KeyPair) {
	owner, err := keypair.New()
	if nil != err {
		t.Fatalf("key pair error: %s", err)
	}
	p := payload.Payload{
		Flags:   payload.Persistable,
		Owner:   owner.PublicKey,
		Content: []byte(content),
	}
	return entry.NewOrdinary(p, time.Hour, owner, 1), owner
}
