// SPDX-License-Identifier: ISC
// Copyright (c) 2014-2020 Bitmark Inc.
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

// Package capstate is the in-memory registry of every known
// Datacapsule, one *Capsule per identifier, reconstructed from
// storage at startup. It is the single-writer enforcement point and
// the home of each Datacapsule's notifyhub.Topic.
package capstate
