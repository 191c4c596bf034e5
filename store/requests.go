// SPDX-License-Identifier: ISC
// Copyright (c) 2014-2020 Bitmark Inc.
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package store

import (
	"github.com/bitmark-inc/protectedstore/entry"
)

// OnAddRequest - an add received from a peer
func (s *Store) OnAddRequest(candidate entry.Entry, source string) bool {
	return s.Add(candidate, source)
}

// OnRemoveRequest - a remove received from a peer, mailbox removes go
// through the mailbox path
func (s *Store) OnRemoveRequest(candidate entry.Entry, source string) bool {
	if !candidate.IsMailbox() {
		return s.Remove(candidate, source)
	}
	ok, err := s.RemoveMailboxEntry(candidate, source)
	if nil != err {
		s.log.Debugf("remove request: %v  from: %q  error: %s", candidate.Identity(), source, err)
		return false
	}
	return ok
}

// OnRefreshRequest - a time to live extension received from a peer
func (s *Store) OnRefreshRequest(refresh entry.Refresh, source string) bool {
	return s.Refresh(refresh, source)
}

// PeerDisconnected - a peer went away without being asked to
func (s *Store) PeerDisconnected(node string) {
	s.BackdateOwnedBy(node)
}
