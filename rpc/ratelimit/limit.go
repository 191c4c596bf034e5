// SPDX-License-Identifier: ISC
// Copyright (c) 2014-2020 Bitmark Inc.
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

// Package ratelimit - hold an RPC caller until the limiter has tokens
package ratelimit

import (
	"time"

	"golang.org/x/time/rate"

	"github.com/bitmark-inc/protectedstore/fault"
)

// Limit - one token, as used by single entry calls
func Limit(limiter *rate.Limiter) error {
	return wait(limiter, 1)
}

// LimitN - a list page costs one token per entry requested
//
// a count outside 1..maximumCount is charged a single token and then
// rejected so that bad requests are not free
func LimitN(limiter *rate.Limiter, count int, maximumCount int) error {
	if count <= 0 || count > maximumCount {
		if err := wait(limiter, 1); nil != err {
			return err
		}
		return fault.ErrInvalidCount
	}
	return wait(limiter, count)
}

func wait(limiter *rate.Limiter, n int) error {
	r := limiter.ReserveN(time.Now(), n)
	if !r.OK() {
		return fault.ErrRateLimiting
	}
	time.Sleep(r.Delay())
	return nil
}
