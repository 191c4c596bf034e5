// SPDX-License-Identifier: ISC
// Copyright (c) 2014-2020 Bitmark Inc.
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package main

import (
	"path/filepath"
	"time"

	"github.com/bitmark-inc/logger"
	"github.com/fsnotify/fsnotify"

	"github.com/bitmark-inc/protectedstore/configuration"
)

// editors often write a file in several steps
const settleDelay = 500 * time.Millisecond

// the parts of the running node a new configuration can change
type reconfigurable interface {
	SetSweepInterval(time.Duration)
}

type configurationWatcher struct {
	log      *logger.L
	filePath string
	watcher  *fsnotify.Watcher
	target   reconfigurable
	current  *configuration.Configuration
	shutdown chan struct{}
	done     chan struct{}
}

// watch the configuration file and apply the sweep interval on change
func newConfigurationWatcher(fileName string, target reconfigurable, log *logger.L) (*configurationWatcher, error) {

	filePath, err := filepath.Abs(filepath.Clean(fileName))
	if nil != err {
		return nil, err
	}

	current, err := configuration.Get(filePath)
	if nil != err {
		return nil, err
	}

	watcher, err := fsnotify.NewWatcher()
	if nil != err {
		return nil, err
	}

	// the directory sees renames done by editors that replace the file
	err = watcher.Add(filepath.Dir(filePath))
	if nil != err {
		watcher.Close()
		return nil, err
	}

	w := &configurationWatcher{
		log:      log,
		filePath: filePath,
		watcher:  watcher,
		target:   target,
		current:  current,
		shutdown: make(chan struct{}),
		done:     make(chan struct{}),
	}
	log.Infof("watching: %q", filePath)

	go w.run()
	return w, nil
}

// Stop - end watching
func (w *configurationWatcher) Stop() {
	close(w.shutdown)
	<-w.done
	w.watcher.Close()
}

func (w *configurationWatcher) run() {
	defer close(w.done)

	var settle <-chan time.Time

loop:
	for {
		select {
		case <-w.shutdown:
			break loop

		case event := <-w.watcher.Events:
			if filepath.Clean(event.Name) != w.filePath {
				continue loop
			}
			w.log.Debugf("file event: %v", event)
			if 0 != event.Op&(fsnotify.Write|fsnotify.Create|fsnotify.Rename) {
				settle = time.After(settleDelay)
			}

		case err := <-w.watcher.Errors:
			w.log.Errorf("watcher error: %s", err)

		case <-settle:
			settle = nil
			w.reload()
		}
	}
}

func (w *configurationWatcher) reload() {

	updated, err := configuration.Get(w.filePath)
	if nil != err {
		w.log.Errorf("configuration: %q  error: %s  keeping previous values", w.filePath, err)
		return
	}

	previous := w.current.StoreConfiguration()
	next := updated.StoreConfiguration()
	if previous.SweepInterval != next.SweepInterval {
		w.log.Infof("sweep interval: %s -> %s", previous.SweepInterval, next.SweepInterval)
		w.target.SetSweepInterval(next.SweepInterval)
	}

	if previous.SaveInterval != next.SaveInterval || previous.PurgeAge != next.PurgeAge || previous.PurgeThreshold != next.PurgeThreshold {
		w.log.Warn("store timing changes other than sweep interval need a restart")
	}
	if w.current.Chain != updated.Chain || w.current.DataDirectory != updated.DataDirectory {
		w.log.Warn("chain or data directory changes need a restart")
	}

	w.current = updated
}
