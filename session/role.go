// SPDX-License-Identifier: ISC
// Copyright (c) 2014-2020 Bitmark Inc.
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package session

import (
	"golang.org/x/time/rate"

	"github.com/bitmark-inc/datacapsuled/wire"
)

// Config - the negotiated protocol constants every session needs,
// read once from configuration at server start
type Config struct {
	Fanout            int
	HashCacheCapacity int
	SigAvoidMaxExtra  int
	MaxStagedBytes    int

	// WriteLimiter paces a Writer connection's incoming bytes against
	// network.write_bandwidth; nil disables limiting (the default for
	// tests that construct a Config directly).
	WriteLimiter *rate.Limiter
}

// Role - one connection's state machine from Init to close
type Role interface {
	Handle(req *wire.Message) (*wire.Message, error)
	Close()
}
