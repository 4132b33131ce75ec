// SPDX-License-Identifier: ISC
// Copyright (c) 2014-2020 Bitmark Inc.
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package notifyhub

import (
	"context"
	"sync"
)

// Topic - the wake primitive for one Datacapsule's wait_after
// subscribers
type Topic struct {
	mutex sync.Mutex
	last  uint64
	woken chan struct{}
}

// NewTopic - a topic starting at the given sequence number, normally
// the Datacapsule's latest_seq read back from storage at startup
func NewTopic(last uint64) *Topic {
	return &Topic{
		last:  last,
		woken: make(chan struct{}),
	}
}

// Bump - record a new, higher sequence number and release every
// goroutine currently blocked in Wait
func (t *Topic) Bump(seq uint64) {
	t.mutex.Lock()
	defer t.mutex.Unlock()
	if seq <= t.last {
		return
	}
	t.last = seq
	close(t.woken)
	t.woken = make(chan struct{})
}

// Wait - block until the topic's sequence number exceeds after, or
// the context is cancelled (connection close). Returns immediately if
// already satisfied.
func (t *Topic) Wait(ctx context.Context, after uint64) (uint64, error) {
	for {
		t.mutex.Lock()
		if t.last > after {
			last := t.last
			t.mutex.Unlock()
			return last, nil
		}
		woken := t.woken
		t.mutex.Unlock()

		select {
		case <-woken:
		case <-ctx.Done():
			return 0, ctx.Err()
		}
	}
}

// Last - the current sequence number, for get_last_num
func (t *Topic) Last() uint64 {
	t.mutex.Lock()
	defer t.mutex.Unlock()
	return t.last
}
