// SPDX-License-Identifier: ISC
// Copyright (c) 2014-2020 Bitmark Inc.
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package session

import (
	"time"

	"golang.org/x/time/rate"

	"github.com/bitmark-inc/datacapsuled/fault"
)

// rateLimitN - reserve count bytes against limiter, the Writer
// connection's configured write_bandwidth budget. A count outside
// 1..maximumCount is rejected after waiting out a single-token
// reservation; a count larger than the limiter's burst is rejected
// outright; otherwise the caller is made to wait out its turn before
// staging the bytes.
func rateLimitN(limiter *rate.Limiter, count int, maximumCount int) error {
	if count <= 0 || count > maximumCount {
		r := limiter.Reserve()
		if !r.OK() {
			return fault.ErrRateLimited
		}
		time.Sleep(r.Delay())
		return fault.ErrRateLimited
	}

	r := limiter.ReserveN(time.Now(), count)
	if !r.OK() {
		return fault.ErrRateLimited
	}
	time.Sleep(r.Delay())
	return nil
}
