// SPDX-License-Identifier: ISC
// Copyright (c) 2014-2020 Bitmark Inc.
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package rpccalls

import (
	"encoding/hex"

	"github.com/bitmark-inc/protectedstore/digest"
	"github.com/bitmark-inc/protectedstore/entry"
	"github.com/bitmark-inc/protectedstore/rpc/node"
	"github.com/bitmark-inc/protectedstore/rpc/storage"
)

// Add - offer a packed entry
func (client *Client) Add(e entry.Entry) (*storage.ChangeReply, error) {
	arguments := storage.EntryArguments{
		Entry: hex.EncodeToString(e.Pack()),
	}
	var reply storage.ChangeReply
	if err := client.call("Storage.Add", arguments, &reply); nil != err {
		return nil, err
	}
	return &reply, nil
}

// Remove - offer a signed removal
func (client *Client) Remove(e entry.Entry) (*storage.ChangeReply, error) {
	arguments := storage.EntryArguments{
		Entry: hex.EncodeToString(e.Pack()),
	}
	var reply storage.ChangeReply
	if err := client.call("Storage.Remove", arguments, &reply); nil != err {
		return nil, err
	}
	return &reply, nil
}

// Refresh - offer a signed refresh
func (client *Client) Refresh(r entry.Refresh) (*storage.ChangeReply, error) {
	arguments := storage.RefreshArguments{
		Refresh: hex.EncodeToString(r.Pack()),
	}
	var reply storage.ChangeReply
	if err := client.call("Storage.Refresh", arguments, &reply); nil != err {
		return nil, err
	}
	return &reply, nil
}

// Get - one entry and the next sequence number for its identity
func (client *Client) Get(identity digest.Digest) (*storage.GetReply, error) {
	arguments := storage.IdentityArguments{
		Identity: identity,
	}
	var reply storage.GetReply
	if err := client.call("Storage.Get", arguments, &reply); nil != err {
		return nil, err
	}
	return &reply, nil
}

// List - a page of entries
func (client *Client) List(start int, count int) (*storage.ListReply, error) {
	arguments := storage.ListArguments{
		Start: start,
		Count: count,
	}
	var reply storage.ListReply
	if err := client.call("Storage.List", arguments, &reply); nil != err {
		return nil, err
	}
	return &reply, nil
}

// GetInfo - node status
func (client *Client) GetInfo() (*node.InfoReply, error) {
	var reply node.InfoReply
	if err := client.call("Node.Info", node.InfoArguments{}, &reply); nil != err {
		return nil, err
	}
	return &reply, nil
}
