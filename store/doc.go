// SPDX-License-Identifier: ISC
// Copyright (c) 2014-2020 Bitmark Inc.
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

// Package store - the protected expirable data store
//
// A map of payload identity to the single current entry for that
// identity. Any peer may propose an add or a remove; only those
// signed by the right key with a sequence number higher than any
// accepted before for the identity are applied. Rejection is the
// normal result for stale or forged input and is reported as false,
// never as an error.
//
// Signatures are checked before the lock is taken; the lock covers
// only the compare and write of the identity map. Listeners, the
// broadcaster and persistence are called after the lock is released.
//
// Sequence numbers are retained after an entry expires or is
// removed so that replayed gossip cannot bring it back.
package store
