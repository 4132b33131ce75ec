// SPDX-License-Identifier: ISC
// Copyright (c) 2014-2020 Bitmark Inc.
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package crypto

import (
	"encoding/hex"
	"fmt"

	"golang.org/x/crypto/sha3"

	"github.com/bitmark-inc/datacapsuled/fault"
)

// DigestLength - number of bytes in a digest
const DigestLength = 32

// Digest - a content hash, stored and transmitted as raw bytes,
// printed as big-endian hex
type Digest [DigestLength]byte

// NullHash - the all-zero digest denoting "absent"
var NullHash Digest

// Hash - compute the digest of a byte slice
func Hash(data []byte) Digest {
	return sha3.Sum256(data)
}

// IsNull - true if the digest is the all-zero Null Hash
func (d Digest) IsNull() bool {
	return d == NullHash
}

// String - hex representation for use by the fmt package
func (d Digest) String() string {
	return hex.EncodeToString(d[:])
}

// GoString - hex representation for %#v
func (d Digest) GoString() string {
	return "<SHA3-256:" + hex.EncodeToString(d[:]) + ">"
}

// MarshalText - hex text for JSON/gob-adjacent text encodings
func (d Digest) MarshalText() ([]byte, error) {
	buffer := make([]byte, hex.EncodedLen(len(d)))
	hex.Encode(buffer, d[:])
	return buffer, nil
}

// UnmarshalText - parse hex text into a digest
func (d *Digest) UnmarshalText(s []byte) error {
	if DigestLength != hex.DecodedLen(len(s)) {
		return fault.ErrMalformedFrame
	}
	buffer := make([]byte, hex.DecodedLen(len(s)))
	n, err := hex.Decode(buffer, s)
	if nil != err {
		return err
	}
	copy(d[:], buffer[:n])
	return nil
}

// DigestFromBytes - convert and validate a raw byte slice into a digest
func DigestFromBytes(d *Digest, buffer []byte) error {
	if DigestLength != len(buffer) {
		return fmt.Errorf("digest must be %d bytes, got %d", DigestLength, len(buffer))
	}
	copy(d[:], buffer)
	return nil
}
