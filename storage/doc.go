// SPDX-License-Identifier: ISC
// Copyright (c) 2014-2020 Bitmark Inc.
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

// Package storage - the on-disk copy of the store
//
// maintain separate pools of elements in key->value form
//
// This maintains a LevelDB database split into a series of tables.
// Each table is defined by a prefix byte that is obtained from the
// prefix tag in the struct defining the available tables.
//
// Notes:
// 1. each separate pool has a single byte prefix
// 2. ++       = concatenation of byte data
// 3. identity = payload digest as 32 byte SHA3-256(packed payload)
//
// Entries:
//
//   E ++ identity              - persistable entries
//                                data: packed entry ++ created(varint unix milliseconds)
//
// Sequence numbers:
//
//   S ++ identity              - highest accepted sequence number
//                                data: identity ++ number(varint) ++ timestamp(varint) ++ removed flag
//
// Removed:
//
//   R ++ identity              - add once payloads that were removed
//                                data: empty
package storage
