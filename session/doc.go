// SPDX-License-Identifier: ISC
// Copyright (c) 2014-2020 Bitmark Inc.
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

// Package session implements the four connection roles: one type per
// role, each a small request/response state machine driven by the
// dispatcher one wire.Message at a time, in the switch-per-step shape
// of p2p/statemachine/machine.go generalized from a single polling
// loop to a per-role transition table.
package session
