// SPDX-License-Identifier: ISC
// Copyright (c) 2014-2020 Bitmark Inc.
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

// Package configuration reads datacapsuled's Lua configuration file
// into a Configuration struct, grounded on
// configuration/luareader.go's gluamapper-over-gopher-lua approach.
package configuration
