// SPDX-License-Identifier: ISC
// Copyright (c) 2014-2020 Bitmark Inc.
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

// Package storage - the Storage RPC service
//
// entries and refreshes travel as hex of their wire format, the same
// bytes that are gossiped between nodes
package storage

import (
	"encoding/hex"
	"time"

	"github.com/bitmark-inc/logger"
	"golang.org/x/time/rate"

	"github.com/bitmark-inc/protectedstore/digest"
	"github.com/bitmark-inc/protectedstore/entry"
	"github.com/bitmark-inc/protectedstore/fault"
	"github.com/bitmark-inc/protectedstore/keypair"
	"github.com/bitmark-inc/protectedstore/rpc/ratelimit"
	"github.com/bitmark-inc/protectedstore/store"
)

const (
	rateLimitStorage = 200
	rateBurstStorage = 100

	// MaximumListCount - largest page for List
	MaximumListCount = 100
)

// Store - the store operations used by this service
type Store interface {
	Add(candidate entry.Entry, source string) bool
	Remove(candidate entry.Entry, source string) bool
	RemoveMailboxEntry(candidate entry.Entry, source string) (bool, error)
	Refresh(refresh entry.Refresh, source string) bool
	Get(identity digest.Digest) (entry.Entry, bool)
	Size() int
	SnapshotAll() []entry.Entry
	NextSequenceNumber(identity digest.Digest) int32
}

// Storage - RPC entry point
type Storage struct {
	Log     *logger.L
	Limiter *rate.Limiter
	store   Store
}

// New - create the service
func New(log *logger.L, s Store) *Storage {
	return &Storage{
		Log:     log,
		Limiter: rate.NewLimiter(rateLimitStorage, rateBurstStorage),
		store:   s,
	}
}

// EntryInfo - readable form of a stored entry
type EntryInfo struct {
	Identity       digest.Digest     `json:"identity"`
	Kind           string            `json:"kind"`
	Flags          uint64            `json:"flags"`
	Owner          keypair.PublicKey `json:"owner"`
	OwnerNode      string            `json:"ownerNode,omitempty"`
	Receiver       keypair.PublicKey `json:"receiver,omitempty"`
	Content        string            `json:"content"`
	TTL            string            `json:"ttl"`
	SequenceNumber int32             `json:"sequenceNumber"`
	CreatedAt      time.Time         `json:"createdAt"`
	ExpiresAt      time.Time         `json:"expiresAt"`
	Packed         string            `json:"packed"`
}

// Info - readable form of an entry
func Info(e entry.Entry) EntryInfo {
	info := EntryInfo{
		Identity:       e.Identity(),
		Kind:           e.Kind.String(),
		Flags:          uint64(e.Payload.Flags),
		Owner:          e.Owner,
		OwnerNode:      e.Payload.OwnerNode,
		Content:        hex.EncodeToString(e.Payload.Content),
		TTL:            e.TTL().String(),
		SequenceNumber: e.SequenceNumber,
		CreatedAt:      e.CreatedAt.UTC(),
		ExpiresAt:      e.ExpiresAt().UTC(),
		Packed:         hex.EncodeToString(e.Pack()),
	}
	if e.IsMailbox() {
		info.Receiver = e.Receiver
	}
	return info
}

// ---

// EntryArguments - hex wire format entry
type EntryArguments struct {
	Entry string `json:"entry"`
}

// ChangeReply - whether the store accepted the operation
type ChangeReply struct {
	Accepted bool          `json:"accepted"`
	Identity digest.Digest `json:"identity"`
}

func decodeEntry(s string) (entry.Entry, error) {
	b, err := hex.DecodeString(s)
	if nil != err {
		return entry.Entry{}, fault.ErrNotEntryPack
	}
	e, n, err := entry.Unpack(b)
	if nil != err {
		return entry.Entry{}, err
	}
	if n != len(b) {
		return entry.Entry{}, fault.ErrNotEntryPack
	}
	return e, nil
}

// Add - offer an entry to the store
func (s *Storage) Add(arguments *EntryArguments, reply *ChangeReply) error {

	if err := ratelimit.Limit(s.Limiter); nil != err {
		return err
	}

	e, err := decodeEntry(arguments.Entry)
	if nil != err {
		return err
	}

	s.Log.Infof("add: %v", e.Identity())

	reply.Identity = e.Identity()
	reply.Accepted = s.store.Add(e, store.LocalSource)
	return nil
}

// Remove - offer a signed removal; mailbox entries use the mailbox
// path
func (s *Storage) Remove(arguments *EntryArguments, reply *ChangeReply) error {

	if err := ratelimit.Limit(s.Limiter); nil != err {
		return err
	}

	e, err := decodeEntry(arguments.Entry)
	if nil != err {
		return err
	}

	s.Log.Infof("remove: %v", e.Identity())

	reply.Identity = e.Identity()
	if e.IsMailbox() {
		reply.Accepted, err = s.store.RemoveMailboxEntry(e, store.LocalSource)
		return err
	}
	reply.Accepted = s.store.Remove(e, store.LocalSource)
	return nil
}

// RefreshArguments - hex packed refresh
type RefreshArguments struct {
	Refresh string `json:"refresh"`
}

// Refresh - extend the life of a stored entry
func (s *Storage) Refresh(arguments *RefreshArguments, reply *ChangeReply) error {

	if err := ratelimit.Limit(s.Limiter); nil != err {
		return err
	}

	b, err := hex.DecodeString(arguments.Refresh)
	if nil != err {
		return fault.ErrNotARefreshPack
	}
	r, n, err := entry.UnpackRefresh(b)
	if nil != err {
		return err
	}
	if n != len(b) {
		return fault.ErrNotARefreshPack
	}

	s.Log.Infof("refresh: %v", r.Identity)

	reply.Identity = r.Identity
	reply.Accepted = s.store.Refresh(r, store.LocalSource)
	return nil
}

// ---

// IdentityArguments - hex identity
type IdentityArguments struct {
	Identity digest.Digest `json:"identity"`
}

// GetReply - the entry if present and the next usable sequence number
type GetReply struct {
	Found              bool       `json:"found"`
	Entry              *EntryInfo `json:"entry,omitempty"`
	NextSequenceNumber int32      `json:"nextSequenceNumber"`
}

// Get - look up one identity
func (s *Storage) Get(arguments *IdentityArguments, reply *GetReply) error {

	if err := ratelimit.Limit(s.Limiter); nil != err {
		return err
	}

	reply.NextSequenceNumber = s.store.NextSequenceNumber(arguments.Identity)

	e, ok := s.store.Get(arguments.Identity)
	if !ok {
		return nil
	}
	info := Info(e)
	reply.Found = true
	reply.Entry = &info
	return nil
}

// ---

// ListArguments - page through the entries in identity order
type ListArguments struct {
	Start int `json:"start"`
	Count int `json:"count"`
}

// ListReply - one page of entries
type ListReply struct {
	Entries   []EntryInfo `json:"entries"`
	NextStart int         `json:"nextStart"`
	Total     int         `json:"total"`
}

// List - entries from position start
func (s *Storage) List(arguments *ListArguments, reply *ListReply) error {

	if err := ratelimit.LimitN(s.Limiter, arguments.Count, MaximumListCount); nil != err {
		return err
	}
	if arguments.Start < 0 {
		return fault.ErrInvalidCount
	}

	all := s.store.SnapshotAll()
	reply.Total = len(all)
	reply.Entries = make([]EntryInfo, 0, arguments.Count)

	i := arguments.Start
	for ; i < len(all) && len(reply.Entries) < arguments.Count; i += 1 {
		reply.Entries = append(reply.Entries, Info(all[i]))
	}
	reply.NextStart = i
	return nil
}
