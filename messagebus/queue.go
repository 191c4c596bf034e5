// SPDX-License-Identifier: ISC
// Copyright (c) 2014-2020 Bitmark Inc.
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package messagebus

import (
	"sync/atomic"
)

// DefaultQueueSize - used when a size below one is requested
const DefaultQueueSize = 1000

// Message - a command and its packed parameters
type Message struct {
	Command    string
	Parameters [][]byte
}

// Queue - buffered queue; senders never block
type Queue struct {
	c       chan Message
	dropped uint64
}

// New - create a queue holding up to size messages
func New(size int) *Queue {
	if size < 1 {
		size = DefaultQueueSize
	}
	return &Queue{
		c: make(chan Message, size),
	}
}

// Send - queue a message, returns false if the queue is full
// and the message was dropped
func (queue *Queue) Send(command string, parameters ...[]byte) bool {
	select {
	case queue.c <- Message{Command: command, Parameters: parameters}:
		return true
	default:
		atomic.AddUint64(&queue.dropped, 1)
		return false
	}
}

// Chan - channel to read from
func (queue *Queue) Chan() <-chan Message {
	return queue.c
}

// Dropped - number of messages discarded because the queue was full
func (queue *Queue) Dropped() uint64 {
	return atomic.LoadUint64(&queue.dropped)
}
