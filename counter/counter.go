// SPDX-License-Identifier: ISC
// Copyright (c) 2014-2020 Bitmark Inc.
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

// Package counter - lock free statistics counters
package counter

import (
	"sync/atomic"
)

// Counter - a 64 bit unsigned value that can be updated from many goroutines
type Counter uint64

// Increment - add 1 to a counter, returns new value
func (c *Counter) Increment() uint64 {
	return atomic.AddUint64((*uint64)(c), 1)
}

// Decrement - subtract 1 from a counter, returns new value
func (c *Counter) Decrement() uint64 {
	return atomic.AddUint64((*uint64)(c), ^uint64(0))
}

// Uint64 - returns current value
func (c *Counter) Uint64() uint64 {
	return atomic.LoadUint64((*uint64)(c))
}

// IsZero - check if zero
func (c *Counter) IsZero() bool {
	return 0 == c.Uint64()
}

// Set - a group of named counters whose names are fixed at creation
type Set struct {
	names    []string
	counters map[string]*Counter
}

// NewSet - create a counter for each name
func NewSet(names ...string) *Set {
	s := &Set{
		names:    names,
		counters: make(map[string]*Counter, len(names)),
	}
	for _, name := range names {
		s.counters[name] = new(Counter)
	}
	return s
}

// Increment - add 1 to the named counter, unknown names are ignored
func (s *Set) Increment(name string) {
	if c, ok := s.counters[name]; ok {
		c.Increment()
	}
}

// Values - copy of the current values
func (s *Set) Values() map[string]uint64 {
	result := make(map[string]uint64, len(s.names))
	for _, name := range s.names {
		result[name] = s.counters[name].Uint64()
	}
	return result
}
