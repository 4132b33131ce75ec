// SPDX-License-Identifier: ISC
// Copyright (c) 2014-2020 Bitmark Inc.
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

// Package wire is the one self-describing wire format spec.md §6
// calls for: a 4-byte big-endian length prefix followed by a
// gob-encoded Message. gob is the simplest Go-native encoding that
// satisfies "one self-describing format" without a schema compiler,
// and it round-trips the fixed-size crypto.Digest/Signature types
// used throughout the protocol without extra marshalling code.
package wire
