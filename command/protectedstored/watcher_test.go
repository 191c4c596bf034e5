// SPDX-License-Identifier: ISC
// Copyright (c) 2014-2020 Bitmark Inc.
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package main

import (
	"fmt"
	"io/ioutil"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/bitmark-inc/logger"
	"github.com/stretchr/testify/assert"
)

const (
	loggerFile = "test.log"
)

type recordingTarget struct {
	sync.Mutex
	intervals []time.Duration
}

func (r *recordingTarget) SetSweepInterval(interval time.Duration) {
	r.Lock()
	r.intervals = append(r.intervals, interval)
	r.Unlock()
}

func (r *recordingTarget) last() (time.Duration, int) {
	r.Lock()
	defer r.Unlock()
	if 0 == len(r.intervals) {
		return 0, 0
	}
	return r.intervals[len(r.intervals)-1], len(r.intervals)
}

func writeConfiguration(t *testing.T, fileName string, sweep int) {
	text := fmt.Sprintf(`return { data_directory = arg[1], chain = "local", store = { sweep_interval = %d } }`, sweep)
	if err := ioutil.WriteFile(fileName, []byte(text), 0600); nil != err {
		t.Fatalf("write error: %s", err)
	}
}

func TestConfigurationWatcher(t *testing.T) {
	os.RemoveAll(loggerFile)
	_ = logger.Initialise(logger.Configuration{
		Directory: ".",
		File:      loggerFile,
		Size:      50000,
		Count:     10,
		Levels:    map[string]string{logger.DefaultTag: "critical"},
	})
	defer func() {
		logger.Finalise()
		os.RemoveAll(loggerFile)
	}()

	dir, err := ioutil.TempDir("", "watcher")
	assert.Nil(t, err, "temp dir")
	defer os.RemoveAll(dir)

	fileName := filepath.Join(dir, "protectedstored.conf")
	writeConfiguration(t, fileName, 30)

	target := &recordingTarget{}
	w, err := newConfigurationWatcher(fileName, target, logger.New("watcher"))
	if nil != err {
		t.Fatalf("watcher error: %s", err)
	}
	defer w.Stop()

	writeConfiguration(t, fileName, 5)

	deadline := time.Now().Add(10 * time.Second)
	for time.Now().Before(deadline) {
		if interval, n := target.last(); n > 0 && 5*time.Second == interval {
			return
		}
		time.Sleep(50 * time.Millisecond)
	}
	interval, n := target.last()
	t.Errorf("sweep interval not applied: %v after %d updates", interval, n)
}
