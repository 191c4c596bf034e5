// SPDX-License-Identifier: ISC
// Copyright (c) 2014-2020 Bitmark Inc.
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package network

import (
	"sync"
	"time"

	cache "github.com/patrickmn/go-cache"
	"golang.org/x/time/rate"
)

// a peer that sends nothing for this long gets a fresh limiter
const limiterExpiry = 10 * time.Minute

// one token bucket per sending peer
type peerLimiter struct {
	sync.Mutex
	limit    rate.Limit
	burst    int
	limiters *cache.Cache
}

func newPeerLimiter(perSecond float64, burst int) *peerLimiter {
	if burst < 1 {
		burst = 1
	}
	return &peerLimiter{
		limit:    rate.Limit(perSecond),
		burst:    burst,
		limiters: cache.New(limiterExpiry, 2*limiterExpiry),
	}
}

// Allow - take one token from the peer's bucket
func (l *peerLimiter) Allow(peerID string) bool {
	l.Lock()
	defer l.Unlock()

	var limiter *rate.Limiter
	if v, ok := l.limiters.Get(peerID); ok {
		limiter = v.(*rate.Limiter)
	} else {
		limiter = rate.NewLimiter(l.limit, l.burst)
	}
	l.limiters.SetDefault(peerID, limiter)

	return limiter.Allow()
}

// Len - number of peers currently tracked
func (l *peerLimiter) Len() int {
	return l.limiters.ItemCount()
}
