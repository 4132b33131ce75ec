// SPDX-License-Identifier: ISC
// Copyright (c) 2014-2020 Bitmark Inc.
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

// Package fault - error instances
//
// Provides a single instance of errors to allow easy comparison
// without having to resort to partial string matches. The error
// classes correspond to the error handling design: protocol
// violations close the connection, verification failures abort the
// current operation, not-found is a typed "absent" response,
// resource errors may be fatal for the affected Datacapsule, and
// contention errors refuse a second concurrent writer.
package fault
