// SPDX-License-Identifier: ISC
// Copyright (c) 2014-2020 Bitmark Inc.
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

// Package crypto - the cryptographic primitives façade
//
// Pure operations Hash, Sign and Verify over the Digest, PublicKey
// and Signature types, plus GenerateKeyPair, which reads crypto/rand.
// Hash width and signature scheme are fixed by the
// build (SHA3-256, Ed25519) but are named by configuration so peers
// can confirm they agree.
package crypto
