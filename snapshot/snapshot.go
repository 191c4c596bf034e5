// SPDX-License-Identifier: ISC
// Copyright (c) 2014-2020 Bitmark Inc.
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

// Package snapshot - the saved state of a store and its backup file
//
// file layout is a sequence of tagged records:
//
//   tag(1 byte) || length(4 bytes big endian) || data
//
// starting with BOF and ending with EOF
package snapshot

import (
	"bufio"
	"bytes"
	"encoding/binary"
	"io"
	"os"
	"sort"

	"github.com/bitmark-inc/protectedstore/digest"
	"github.com/bitmark-inc/protectedstore/entry"
	"github.com/bitmark-inc/protectedstore/fault"
	"github.com/bitmark-inc/protectedstore/sequence"
)

// Snapshot - entries to be kept over a restart, the retained
// sequence numbers and the removed add once identities
type Snapshot struct {
	Entries   []entry.Entry
	Sequences sequence.Map
	Removed   []digest.Digest
}

// New - empty snapshot
func New() *Snapshot {
	return &Snapshot{
		Entries:   []entry.Entry{},
		Sequences: make(sequence.Map),
		Removed:   []digest.Digest{},
	}
}

// Sort - put entries and removed identities in identity order
func (s *Snapshot) Sort() {
	sort.Slice(s.Entries, func(i, j int) bool {
		a := s.Entries[i].Identity()
		b := s.Entries[j].Identity()
		return bytes.Compare(a[:], b[:]) < 0
	})
	sort.Slice(s.Removed, func(i, j int) bool {
		return bytes.Compare(s.Removed[i][:], s.Removed[j][:]) < 0
	})
}

type tagType byte

// record types in snapshot file
const (
	taggedBOF      tagType = iota
	taggedEOF      tagType = iota
	taggedEntry    tagType = iota
	taggedSequence tagType = iota
	taggedRemoved  tagType = iota
)

// the BOF tag to check file version
// exact match is required
var bofData = []byte("protectedstore-snapshot v1.0")

var eofData = []byte("EOF")

const maximumRecordLength = 1 << 20

// BackupName - where the previous snapshot is kept
func BackupName(fileName string) string {
	return fileName + ".bak"
}

// WriteFile - write the snapshot to a temporary file and rename it
// into place; an existing file is moved to its backup name first
func WriteFile(fileName string, s *Snapshot) error {

	temporary := fileName + ".new"

	f, err := os.OpenFile(temporary, os.O_CREATE|os.O_TRUNC|os.O_WRONLY, 0600)
	if nil != err {
		return err
	}

	err = write(f, s)
	if nil == err {
		err = f.Sync()
	}
	if e := f.Close(); nil == err {
		err = e
	}
	if nil != err {
		os.Remove(temporary)
		return err
	}

	if _, err := os.Stat(fileName); nil == err {
		err = os.Rename(fileName, BackupName(fileName))
		if nil != err {
			return err
		}
	}
	return os.Rename(temporary, fileName)
}

func write(f io.Writer, s *Snapshot) error {
	w := bufio.NewWriter(f)

	err := writeRecord(w, taggedBOF, bofData)
	if nil != err {
		return err
	}

	for _, e := range s.Entries {
		err := writeRecord(w, taggedEntry, e.PackRecord())
		if nil != err {
			return err
		}
	}

	for identity, v := range s.Sequences {
		err := writeRecord(w, taggedSequence, sequence.Pack(identity, v))
		if nil != err {
			return err
		}
	}

	for _, identity := range s.Removed {
		err := writeRecord(w, taggedRemoved, identity[:])
		if nil != err {
			return err
		}
	}

	err = writeRecord(w, taggedEOF, eofData)
	if nil != err {
		return err
	}
	return w.Flush()
}

// ReadFile - read a complete snapshot
//
// a file without the EOF record is rejected as truncated
func ReadFile(fileName string) (*Snapshot, error) {

	f, err := os.Open(fileName)
	if nil != err {
		return nil, err
	}
	defer f.Close()

	return Read(bufio.NewReader(f))
}

// Read - read a snapshot from a stream
func Read(r io.Reader) (*Snapshot, error) {

	// must have BOF record first
	tag, packed, err := readRecord(r)
	if nil != err {
		return nil, fault.ErrNotASnapshotFile
	}
	if taggedBOF != tag || !bytes.Equal(bofData, packed) {
		return nil, fault.ErrNotASnapshotFile
	}

	s := New()

restore_loop:
	for {
		tag, packed, err := readRecord(r)
		if io.EOF == err || io.ErrUnexpectedEOF == err {
			return nil, fault.ErrSnapshotFileTruncated
		}
		if nil != err {
			return nil, err
		}

		switch tag {

		case taggedEOF:
			break restore_loop

		case taggedEntry:
			e, _, err := entry.UnpackRecord(packed)
			if nil != err {
				return nil, err
			}
			s.Entries = append(s.Entries, e)

		case taggedSequence:
			identity, v, _, err := sequence.Unpack(packed)
			if nil != err {
				return nil, err
			}
			s.Sequences.Put(identity, v)

		case taggedRemoved:
			var identity digest.Digest
			err := digest.FromBytes(&identity, packed)
			if nil != err {
				return nil, err
			}
			s.Removed = append(s.Removed, identity)

		default:
			return nil, fault.ErrNotASnapshotFile
		}
	}
	return s, nil
}

// write a tagged record
func writeRecord(w io.Writer, tag tagType, packed []byte) error {

	header := make([]byte, 5)
	header[0] = byte(tag)
	binary.BigEndian.PutUint32(header[1:], uint32(len(packed)))

	_, err := w.Write(header)
	if nil != err {
		return err
	}
	_, err = w.Write(packed)
	return err
}

func readRecord(r io.Reader) (tagType, []byte, error) {

	header := make([]byte, 5)
	_, err := io.ReadFull(r, header)
	if nil != err {
		return taggedEOF, nil, err
	}

	count := binary.BigEndian.Uint32(header[1:])
	if count > maximumRecordLength {
		return taggedEOF, nil, fault.ErrNotASnapshotFile
	}

	buffer := make([]byte, count)
	_, err = io.ReadFull(r, buffer)
	if io.EOF == err {
		err = io.ErrUnexpectedEOF
	}
	if nil != err {
		return taggedEOF, nil, err
	}
	return tagType(header[0]), buffer, nil
}
