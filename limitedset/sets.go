// SPDX-License-Identifier: ISC
// Copyright (c) 2014-2020 Bitmark Inc.
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

// Package limitedset - a set that remembers only the most recent items
package limitedset

import (
	"container/ring"
	"sync"
)

// LimitedSet - fixed capacity set, the oldest item is dropped on overflow
type LimitedSet struct {
	sync.Mutex
	ring  *ring.Ring
	items map[string]*ring.Ring
}

// New - create a new limited set that holds up to 'n' items
func New(n int) *LimitedSet {
	if n < 1 {
		n = 1
	}
	return &LimitedSet{
		ring:  ring.New(n),
		items: make(map[string]*ring.Ring, n),
	}
}

// Add - add an item to the set, an existing item becomes the newest
func (ls *LimitedSet) Add(item string) {
	ls.Lock()
	ls.add(item)
	ls.Unlock()
}

// Exists - check to see if item is in the set
func (ls *LimitedSet) Exists(item string) bool {
	ls.Lock()
	defer ls.Unlock()
	_, ok := ls.items[item]
	return ok
}

// Seen - add the item and report whether it was already present
func (ls *LimitedSet) Seen(item string) bool {
	ls.Lock()
	defer ls.Unlock()
	_, ok := ls.items[item]
	ls.add(item)
	return ok
}

// Len - number of items currently held
func (ls *LimitedSet) Len() int {
	ls.Lock()
	defer ls.Unlock()
	return len(ls.items)
}

// lock must be held
func (ls *LimitedSet) add(item string) {
	if r, ok := ls.items[item]; ok {
		if r == ls.ring.Prev() {
			return
		}
		// oldest item in a full ring
		if r == ls.ring {
			ls.ring = ls.ring.Next()
			return
		}
		// move to just behind the insertion point
		r = r.Prev().Unlink(1)
		ls.ring.Prev().Link(r)
		return
	}

	if old, ok := ls.ring.Value.(string); ok {
		delete(ls.items, old)
	}
	ls.ring.Value = item
	ls.items[item] = ls.ring
	ls.ring = ls.ring.Next()
}
