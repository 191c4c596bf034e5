// SPDX-License-Identifier: ISC
// Copyright (c) 2014-2020 Bitmark Inc.
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package keypair

import (
	"crypto/rand"
	"encoding/hex"
	"encoding/json"
	"io/ioutil"
	"os"

	"github.com/bitmark-inc/go-argon2"
	"golang.org/x/crypto/nacl/secretbox"

	"github.com/bitmark-inc/protectedstore/fault"
)

const (
	saltSize  = 32
	nonceSize = 24
	keySize   = 32
)

// on-disk form of an encrypted key
type keyFile struct {
	PublicKey     PublicKey `json:"public_key"`
	Salt          string    `json:"salt"`
	Nonce         string    `json:"nonce"`
	EncryptedSeed string    `json:"encrypted_seed"`
}

// Save - write the key pair to a new file with its seed encrypted
// under a key derived from the password
func Save(fileName string, pair *KeyPair, password string) error {
	if 0 == len(password) {
		return fault.ErrMissingParameters
	}

	salt := make([]byte, saltSize)
	if _, err := rand.Read(salt); nil != err {
		return err
	}
	var nonce [nonceSize]byte
	if _, err := rand.Read(nonce[:]); nil != err {
		return err
	}

	key, err := deriveKey(password, salt)
	if nil != err {
		return err
	}

	sealed := secretbox.Seal(nil, pair.Seed, &nonce, key)

	data, err := json.MarshalIndent(keyFile{
		PublicKey:     pair.PublicKey,
		Salt:          hex.EncodeToString(salt),
		Nonce:         hex.EncodeToString(nonce[:]),
		EncryptedSeed: hex.EncodeToString(sealed),
	}, "", "  ")
	if nil != err {
		return err
	}

	f, err := os.OpenFile(fileName, os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0600)
	if nil != err {
		if os.IsExist(err) {
			return fault.ErrKeyFileAlreadyExists
		}
		return err
	}
	defer f.Close()

	_, err = f.Write(append(data, '\n'))
	return err
}

// Load - read and decrypt a key file written by Save
func Load(fileName string, password string) (*KeyPair, error) {
	data, err := ioutil.ReadFile(fileName)
	if nil != err {
		return nil, err
	}

	var kf keyFile
	if err := json.Unmarshal(data, &kf); nil != err {
		return nil, err
	}

	salt, err := hex.DecodeString(kf.Salt)
	if nil != err || saltSize != len(salt) {
		return nil, fault.ErrInvalidPrivateKey
	}
	n, err := hex.DecodeString(kf.Nonce)
	if nil != err || nonceSize != len(n) {
		return nil, fault.ErrInvalidPrivateKey
	}
	sealed, err := hex.DecodeString(kf.EncryptedSeed)
	if nil != err {
		return nil, fault.ErrInvalidPrivateKey
	}

	key, err := deriveKey(password, salt)
	if nil != err {
		return nil, err
	}

	var nonce [nonceSize]byte
	copy(nonce[:], n)

	seed, ok := secretbox.Open(nil, sealed, &nonce, key)
	if !ok {
		return nil, fault.ErrWrongPassword
	}

	pair, err := FromSeed(seed)
	if nil != err {
		return nil, err
	}
	if !pair.PublicKey.Equal(kf.PublicKey) {
		return nil, fault.ErrInvalidPrivateKey
	}
	return pair, nil
}

// ReadPublicKey - public key of a key file, no password needed
func ReadPublicKey(fileName string) (PublicKey, error) {
	data, err := ioutil.ReadFile(fileName)
	if nil != err {
		return nil, err
	}
	var kf keyFile
	if err := json.Unmarshal(data, &kf); nil != err {
		return nil, err
	}
	if !kf.PublicKey.IsValid() {
		return nil, fault.ErrInvalidPublicKey
	}
	return kf.PublicKey, nil
}

func deriveKey(password string, salt []byte) (*[keySize]byte, error) {
	ctx := &argon2.Context{
		Iterations:  5,
		Memory:      1 << 16,
		Parallelism: 4,
		HashLen:     keySize,
		Mode:        argon2.ModeArgon2i,
		Version:     argon2.Version13,
	}

	hash, err := argon2.Hash(ctx, []byte(password), salt)
	if nil != err {
		return nil, err
	}

	var key [keySize]byte
	copy(key[:], hash)
	return &key, nil
}
