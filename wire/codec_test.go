// SPDX-License-Identifier: ISC
// Copyright (c) 2014-2020 Bitmark Inc.
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package wire_test

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/bitmark-inc/datacapsuled/crypto"
	"github.com/bitmark-inc/datacapsuled/wire"
)

func TestWriteReadRoundTrip(t *testing.T) {
	var buf bytes.Buffer
	msg := &wire.Message{
		Init: &wire.Init{Role: wire.RoleWriter, DatacapsuleID: crypto.Hash([]byte("x"))},
	}
	assert.NoError(t, wire.WriteFrame(&buf, msg))

	got, err := wire.ReadFrame(&buf)
	assert.NoError(t, err)
	assert.NotNil(t, got.Init)
	assert.Equal(t, wire.RoleWriter, got.Init.Role)
	assert.Nil(t, got.CreateRequest)
}

func TestReadFrameRejectsOversizedLength(t *testing.T) {
	var buf bytes.Buffer
	buf.Write([]byte{0xff, 0xff, 0xff, 0xff})
	_, err := wire.ReadFrame(&buf)
	assert.Error(t, err)
}

func TestMultipleFramesOnOneStream(t *testing.T) {
	var buf bytes.Buffer
	one := &wire.Message{ReadRequest: &wire.ReadRequest{Hash: crypto.Hash([]byte("a"))}}
	two := &wire.Message{ReadResponse: &wire.ReadResponse{Found: true, Bytes: []byte("payload")}}

	assert.NoError(t, wire.WriteFrame(&buf, one))
	assert.NoError(t, wire.WriteFrame(&buf, two))

	gotOne, err := wire.ReadFrame(&buf)
	assert.NoError(t, err)
	assert.Equal(t, one.ReadRequest.Hash, gotOne.ReadRequest.Hash)

	gotTwo, err := wire.ReadFrame(&buf)
	assert.NoError(t, err)
	assert.True(t, gotTwo.ReadResponse.Found)
	assert.Equal(t, []byte("payload"), gotTwo.ReadResponse.Bytes)
}
