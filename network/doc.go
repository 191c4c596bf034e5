// SPDX-License-Identifier: ISC
// Copyright (c) 2014-2020 Bitmark Inc.
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

// Package network - peer to peer transport for the protected store
//
// Operations travel as gossipsub messages on a per-chain topic:
//
//   /protectedstore/<chain>/1.0.0
//
// each message is a protobuf envelope whose data items are:
//
//   [0] chain name
//   [1] function: "add", "remove" or "refresh"
//   [2] packed entry or packed refresh
//
// A newly connected peer is asked for its current entries over the
// sync stream protocol /protectedstore/sync/1.0.0, the reply is a
// single length prefixed envelope with function "entries" and one
// packed entry per parameter.
//
// Inbound traffic is rate limited per peer and duplicates are dropped
// before anything is unpacked or verified; the store does all of the
// signature and sequence checks.
package network
