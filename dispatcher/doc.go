// SPDX-License-Identifier: ISC
// Copyright (c) 2014-2020 Bitmark Inc.
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

// Package dispatcher runs the accept loop and per-connection
// read-decode-route-encode-write cycle described in spec.md §4.8,
// grounded on rpc/listeners/rpc.go's doServeRPC shape but swapped
// from net/rpc+jsonrpc onto the wire package's length-prefixed gob
// frames.
package dispatcher
