// SPDX-License-Identifier: ISC
// Copyright (c) 2014-2020 Bitmark Inc.
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package store_test

import (
	"os"
	"testing"
	"time"

	"github.com/bitmark-inc/logger"

	"github.com/bitmark-inc/protectedstore/keypair"
	"github.com/bitmark-inc/protectedstore/payload"
	"github.com/bitmark-inc/protectedstore/store"
)

const (
	loggerFile = "test.log"
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

// store with fast sweeps and a save only on stop
func newStore(t *testing.T, persistence store.Persistence, broadcaster store.Broadcaster, listeners ...store.Listener) *store.Store {
	return newStoreWith(t, store.Configuration{
		SweepInterval: 5 * time.Millisecond,
		SaveInterval:  time.Hour,
	}, persistence, broadcaster, listeners...)
}

func newStoreWith(t *testing.T, configuration store.Configuration, persistence store.Persistence, broadcaster store.Broadcaster, listeners ...store.Listener) *store.Store {
	s, err := store.New(configuration, persistence, broadcaster, listeners, logger.New("store"))
	if nil != err {
		t.Fatalf("store error: %s", err)
	}
	return s
}

func newKey(t *testing.T) *keypair.KeyPair {
	pair, err := keypair.New()
	if nil != err {
		t.Fatalf("key pair error: %s", err)
	}
	return pair
}

func offer(owner *keypair.KeyPair, flags payload.Flags, content string) payload.Payload {
	return payload.Payload{
		Flags:   flags,
		Owner:   owner.PublicKey,
		Content: []byte(content),
	}
}
