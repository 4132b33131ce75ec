// SPDX-License-Identifier: ISC
// Copyright (c) 2014-2020 Bitmark Inc.
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package crypto

import (
	"crypto/rand"

	"golang.org/x/crypto/ed25519"
)

// Signature - a detached Ed25519 signature
type Signature []byte

// PublicKey - an Ed25519 public key
type PublicKey []byte

// PrivateKey - an Ed25519 private key
type PrivateKey []byte

// GenerateKeyPair - create a new random Ed25519 key pair
func GenerateKeyPair() (PublicKey, PrivateKey, error) {
	pub, priv, err := ed25519.GenerateKey(rand.Reader)
	if nil != err {
		return nil, nil, err
	}
	return PublicKey(pub), PrivateKey(priv), nil
}

// Sign - sign a message with a private key
func Sign(priv PrivateKey, message []byte) Signature {
	return Signature(ed25519.Sign(ed25519.PrivateKey(priv), message))
}

// Verify - verify a message's signature against a public key
func Verify(pub PublicKey, message []byte, sig Signature) bool {
	if ed25519.PublicKeySize != len(pub) {
		return false
	}
	return ed25519.Verify(ed25519.PublicKey(pub), message, []byte(sig))
}

// SignedHash - a hash together with a signature over its bytes,
// verifiable under a known public key
type SignedHash struct {
	Hash      Digest
	Signature Signature
}

// Verify - check that the SignedHash's signature is valid for its
// own hash bytes under the given public key
func (sh SignedHash) Verify(pub PublicKey) bool {
	return Verify(pub, sh.Hash[:], sh.Signature)
}
