// SPDX-License-Identifier: ISC
// Copyright (c) 2014-2020 Bitmark Inc.
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

// Package background - start and stop a group of long running goroutines
package background

import (
	"sync"
)

// Process - a background task; Run must return soon after
// the shutdown channel is closed
type Process interface {
	Run(args interface{}, shutdown <-chan struct{})
}

// Processes - list of processes to start
type Processes []Process

type handle struct {
	shutdown chan struct{}
	finished chan struct{}
}

// T - handle for a running group
type T struct {
	once    sync.Once
	handles []handle
}

// Start - start up a set of background processes
func Start(processes Processes, args interface{}) *T {

	register := &T{
		handles: make([]handle, len(processes)),
	}

	for i, p := range processes {
		h := handle{
			shutdown: make(chan struct{}),
			finished: make(chan struct{}),
		}
		register.handles[i] = h

		go func(p Process, h handle) {
			defer close(h.finished)
			p.Run(args, h.shutdown)
		}(p, h)
	}
	return register
}

// Stop - stop a set of background processes
//
// processes are stopped in reverse order of starting and each one
// is waited for before the next is signalled; repeated calls are no-ops
func (t *T) Stop() {
	if nil == t {
		return
	}
	t.once.Do(func() {
		for i := len(t.handles) - 1; i >= 0; i -= 1 {
			close(t.handles[i].shutdown)
			<-t.handles[i].finished
		}
	})
}
