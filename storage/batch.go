// SPDX-License-Identifier: ISC
// Copyright (c) 2014-2020 Bitmark Inc.
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package storage

import (
	"github.com/syndtr/goleveldb/leveldb"

	"github.com/bitmark-inc/protectedstore/fault"
)

// Batch - a set of writes applied together by Commit
type Batch struct {
	database *Database
	batch    *leveldb.Batch
}

// NewBatch - start an empty batch
func (database *Database) NewBatch() *Batch {
	return &Batch{
		database: database,
		batch:    new(leveldb.Batch),
	}
}

// Put - queue a write to a pool
func (b *Batch) Put(p *PoolHandle, key []byte, value []byte) {
	b.batch.Put(p.prefixKey(key), value)
}

// Delete - queue a delete from a pool
func (b *Batch) Delete(p *PoolHandle, key []byte) {
	b.batch.Delete(p.prefixKey(key))
}

// Len - number of queued operations
func (b *Batch) Len() int {
	return b.batch.Len()
}

// Commit - write all queued operations atomically
func (b *Batch) Commit() error {
	b.database.RLock()
	defer b.database.RUnlock()
	if nil == b.database.db {
		return fault.ErrDatabaseIsNotSet
	}
	err := b.database.db.Write(b.batch, nil)
	if nil == err {
		b.batch.Reset()
	}
	return err
}
