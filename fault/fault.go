// SPDX-License-Identifier: ISC
// Copyright (c) 2014-2020 Bitmark Inc.
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package fault

// GenericError - error base
type GenericError string

// to allow for different classes of errors
type ExistsError GenericError
type InvalidError GenericError
type LengthError GenericError
type NotFoundError GenericError
type ProcessError GenericError
type RecordError GenericError

// common errors - keep in alphabetic order
var (
	ErrAlreadyInitialised           = ExistsError("already initialised")
	ErrCertificateFileAlreadyExists = ExistsError("certificate file already exists")
	ErrChainMismatch                = InvalidError("message is for a different chain")
	ErrConfigurationNotATable       = InvalidError("configuration did not return a table")
	ErrDatabaseIsNotSet             = ProcessError("database is not set")
	ErrDuplicateMessage             = ExistsError("duplicate message")
	ErrIncompatibleDatabaseVersion  = InvalidError("incompatible database version")
	ErrInvalidChain                 = InvalidError("invalid chain")
	ErrInvalidCount                 = InvalidError("invalid count")
	ErrInvalidDigest                = LengthError("invalid digest")
	ErrInvalidDnsTxtRecord          = InvalidError("invalid node domain TXT record")
	ErrInvalidIPAddress             = InvalidError("invalid IP address")
	ErrInvalidIdentityName          = InvalidError("invalid identity name")
	ErrInvalidLoggerChannel         = InvalidError("invalid logger channel")
	ErrInvalidNodeDomain            = InvalidError("invalid node domain")
	ErrInvalidPortNumber            = InvalidError("invalid port number")
	ErrInvalidPrivateKey            = InvalidError("invalid private key")
	ErrInvalidPrivateKeyFile        = InvalidError("invalid private key file")
	ErrInvalidPublicKey             = InvalidError("invalid public key")
	ErrInvalidPublicKeyFile         = InvalidError("invalid public key file")
	ErrInvalidSeed                  = LengthError("invalid seed")
	ErrInvalidSignature             = LengthError("invalid signature")
	ErrInvalidTTL                   = InvalidError("invalid time to live")
	ErrKeyFileAlreadyExists         = ExistsError("key file already exists")
	ErrMissingParameters            = InvalidError("missing parameters")
	ErrNoListenAddresses            = InvalidError("no listen addresses")
	ErrNotAMessage                  = RecordError("not a network message")
	ErrNotAPayloadPack              = RecordError("not a payload pack")
	ErrNotARefreshPack              = RecordError("not a refresh pack")
	ErrNotASnapshotFile             = RecordError("not a snapshot file")
	ErrNotASequencePack             = RecordError("not a sequence pack")
	ErrNotEntryPack                 = RecordError("not an entry pack")
	ErrNotFoundEntry                = NotFoundError("entry not found")
	ErrNotInitialised               = NotFoundError("not initialised")
	ErrNotMailboxEntry              = ProcessError("not a mailbox entry")
	ErrPayloadTooLarge              = LengthError("payload too large")
	ErrRateLimiting                 = InvalidError("rate limiting")
	ErrSnapshotFileTruncated        = RecordError("snapshot file is truncated")
	ErrSyncFrameTooLarge            = LengthError("sync frame too large")
	ErrUnknownFunction              = InvalidError("unknown function")
	ErrUnknownEntryKind             = InvalidError("unknown entry kind")
	ErrWrongPassword                = InvalidError("wrong password")
)

// the error interface base method
func (e GenericError) Error() string { return string(e) }

// the error interface methods
func (e ExistsError) Error() string   { return string(e) }
func (e InvalidError) Error() string  { return string(e) }
func (e LengthError) Error() string   { return string(e) }
func (e NotFoundError) Error() string { return string(e) }
func (e ProcessError) Error() string  { return string(e) }
func (e RecordError) Error() string   { return string(e) }

// IsErrExists - determine the class of an error
func IsErrExists(e error) bool { _, ok := e.(ExistsError); return ok }

// IsErrInvalid - determine the class of an error
func IsErrInvalid(e error) bool { _, ok := e.(InvalidError); return ok }

// IsErrLength - determine the class of an error
func IsErrLength(e error) bool { _, ok := e.(LengthError); return ok }

// IsErrNotFound - determine the class of an error
func IsErrNotFound(e error) bool { _, ok := e.(NotFoundError); return ok }

// IsErrProcess - determine the class of an error
func IsErrProcess(e error) bool { _, ok := e.(ProcessError); return ok }

// IsErrRecord - determine the class of an error
func IsErrRecord(e error) bool { _, ok := e.(RecordError); return ok }
