// SPDX-License-Identifier: ISC
// Copyright (c) 2014-2020 Bitmark Inc.
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package network

import (
	"github.com/gogo/protobuf/proto"

	"github.com/bitmark-inc/protectedstore/fault"
)

// envelope functions
const (
	FunctionAdd     = "add"
	FunctionRemove  = "remove"
	FunctionRefresh = "refresh"
	FunctionSync    = "sync"
	FunctionEntries = "entries"
)

// Message - the envelope from messages.proto
type Message struct {
	Data [][]byte `protobuf:"bytes,1,rep,name=data,proto3" json:"data,omitempty"`
}

func (m *Message) Reset()         { *m = Message{} }
func (m *Message) String() string { return proto.CompactTextString(m) }
func (*Message) ProtoMessage()    {}

// PackMessage - chain, function and parameters into one envelope
func PackMessage(chain string, fn string, parameters [][]byte) ([]byte, error) {
	data := [][]byte{[]byte(chain), []byte(fn)}
	if 0 != len(parameters) {
		data = append(data, parameters...)
	}
	return proto.Marshal(&Message{Data: data})
}

// UnpackMessage - split an envelope back into its parts
func UnpackMessage(packed []byte) (chain string, fn string, parameters [][]byte, err error) {
	unpacked := Message{}
	err = proto.Unmarshal(packed, &unpacked)
	if nil != err {
		return "", "", nil, fault.ErrNotAMessage
	}
	if len(unpacked.Data) < 2 {
		return "", "", nil, fault.ErrNotAMessage
	}
	chain = string(unpacked.Data[0])
	fn = string(unpacked.Data[1])
	if len(unpacked.Data) > 2 {
		parameters = unpacked.Data[2:]
	}
	return chain, fn, parameters, nil
}
