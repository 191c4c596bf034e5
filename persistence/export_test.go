// SPDX-License-Identifier: ISC
// Copyright (c) 2014-2020 Bitmark Inc.
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package persistence

// BreakDatabase - close the database underneath the gateway so that
// every following write fails
func (g *Gateway) BreakDatabase() {
	g.Lock()
	defer g.Unlock()
	g.database.Close()
}
