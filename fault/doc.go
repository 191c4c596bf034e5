// SPDX-License-Identifier: ISC
// Copyright (c) 2014-2020 Bitmark Inc.
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

// Package fault - the error values returned by the storage node
//
// every error is a single typed instance so callers compare with ==
// and classify with the IsErrXxx functions, e.g. a rejected add from
// the store is an InvalidError, a missing identity a NotFoundError
// and a damaged snapshot or message a RecordError
package fault
