// SPDX-License-Identifier: ISC
// Copyright (c) 2014-2020 Bitmark Inc.
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package wire

import (
	"bytes"
	"encoding/binary"
	"encoding/gob"
	"io"

	"github.com/bitmark-inc/datacapsuled/fault"
)

// MaxFrameLength - an oversized length prefix is a malformed frame,
// not an allocation vector
const MaxFrameLength = 64 * 1024 * 1024

// WriteFrame - encode msg and write it as one length-prefixed frame
func WriteFrame(w io.Writer, msg *Message) error {
	var body bytes.Buffer
	if err := gob.NewEncoder(&body).Encode(msg); nil != err {
		return err
	}

	var header [4]byte
	binary.BigEndian.PutUint32(header[:], uint32(body.Len()))

	if _, err := w.Write(header[:]); nil != err {
		return err
	}
	_, err := w.Write(body.Bytes())
	return err
}

// ReadFrame - read one length-prefixed frame and decode it
func ReadFrame(r io.Reader) (*Message, error) {
	var header [4]byte
	if _, err := io.ReadFull(r, header[:]); nil != err {
		return nil, err
	}

	length := binary.BigEndian.Uint32(header[:])
	if length > MaxFrameLength {
		return nil, fault.ErrMalformedFrame
	}

	body := make([]byte, length)
	if _, err := io.ReadFull(r, body); nil != err {
		return nil, err
	}

	msg := new(Message)
	if err := gob.NewDecoder(bytes.NewReader(body)).Decode(msg); nil != err {
		return nil, fault.ErrMalformedFrame
	}
	return msg, nil
}
