// SPDX-License-Identifier: ISC
// Copyright (c) 2014-2020 Bitmark Inc.
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package fault_test

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/bitmark-inc/protectedstore/fault"
)

// check that each named error is classified only by its own class
func TestClassification(t *testing.T) {
	errorList := []struct {
		err      error
		exists   bool
		invalid  bool
		length   bool
		notFound bool
		process  bool
		record   bool
	}{
		{fault.ErrAlreadyInitialised, true, false, false, false, false, false},
		{fault.ErrKeyFileAlreadyExists, true, false, false, false, false, false},
		{fault.ErrWrongPassword, false, true, false, false, false, false},
		{fault.ErrChainMismatch, false, true, false, false, false, false},
		{fault.ErrInvalidSignature, false, false, true, false, false, false},
		{fault.ErrPayloadTooLarge, false, false, true, false, false, false},
		{fault.ErrNotFoundEntry, false, false, false, true, false, false},
		{fault.ErrNotInitialised, false, false, false, true, false, false},
		{fault.ErrNotMailboxEntry, false, false, false, false, true, false},
		{fault.ErrDatabaseIsNotSet, false, false, false, false, true, false},
		{fault.ErrNotEntryPack, false, false, false, false, false, true},
		{fault.ErrSnapshotFileTruncated, false, false, false, false, false, true},
	}

	for i, e := range errorList {
		err := e.err
		assert.Equal(t, e.exists, fault.IsErrExists(err), "%d: exists: %v", i, err)
		assert.Equal(t, e.invalid, fault.IsErrInvalid(err), "%d: invalid: %v", i, err)
		assert.Equal(t, e.length, fault.IsErrLength(err), "%d: length: %v", i, err)
		assert.Equal(t, e.notFound, fault.IsErrNotFound(err), "%d: not found: %v", i, err)
		assert.Equal(t, e.process, fault.IsErrProcess(err), "%d: process: %v", i, err)
		assert.Equal(t, e.record, fault.IsErrRecord(err), "%d: record: %v", i, err)
	}
}
