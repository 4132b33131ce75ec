// SPDX-License-Identifier: ISC
// Copyright (c) 2014-2020 Bitmark Inc.
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package notifyhub_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/bitmark-inc/datacapsuled/notifyhub"
)

func TestWaitReturnsImmediatelyWhenAlreadyPast(t *testing.T) {
	topic := notifyhub.NewTopic(5)
	seq, err := topic.Wait(context.Background(), 3)
	assert.NoError(t, err)
	assert.Equal(t, uint64(5), seq)
}

func TestWaitBlocksUntilBump(t *testing.T) {
	topic := notifyhub.NewTopic(0)
	done := make(chan uint64, 1)

	go func() {
		seq, err := topic.Wait(context.Background(), 0)
		assert.NoError(t, err)
		done <- seq
	}()

	time.Sleep(10 * time.Millisecond)
	topic.Bump(1)

	select {
	case seq := <-done:
		assert.Equal(t, uint64(1), seq)
	case <-time.After(time.Second):
		t.Fatal("wait did not wake on bump")
	}
}

func TestWaitCancelledByContext(t *testing.T) {
	topic := notifyhub.NewTopic(0)
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)

	go func() {
		_, err := topic.Wait(ctx, 0)
		done <- err
	}()

	time.Sleep(10 * time.Millisecond)
	cancel()

	select {
	case err := <-done:
		assert.Error(t, err)
	case <-time.After(time.Second):
		t.Fatal("wait did not unblock on cancel")
	}
}

func TestBumpIgnoresNonIncreasing(t *testing.T) {
	topic := notifyhub.NewTopic(5)
	topic.Bump(3)
	assert.Equal(t, uint64(5), topic.Last())
}
