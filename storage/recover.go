// SPDX-License-Identifier: ISC
// Copyright (c) 2014-2020 Bitmark Inc.
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package storage

import (
	"github.com/bitmark-inc/datacapsuled/crypto"
	"github.com/bitmark-inc/datacapsuled/fault"
)

// VerifyAndRecover - the startup recovery scan of spec.md §4.6 and
// §8 property 8: a commit whose sigblocks row never got written is
// not fully present and must not be served as the tip. If the
// Datacapsule's latest root lacks a sigblocks row, Latest is rewritten
// to the PreviousSeq/PreviousRoot recorded with it and the check
// repeats. The rewritten row records no previous tip of its own, so if
// that root lacks a sigblocks row too, the next pass resets Latest to
// seq 0 and the Null root.
func VerifyAndRecover(capsuleID crypto.Digest) error {
	for {
		latest, err := ReadLatest(capsuleID)
		if nil != err {
			return err
		}
		if latest.Root.IsNull() {
			return nil
		}

		_, found, err := ReadSignature(capsuleID, latest.Root)
		if nil != err {
			return err
		}
		if found {
			return nil
		}

		fault.Critical("datacapsule commit missing sigblocks row, rolling back latest")

		batch := NewBatch()
		Pool.Latest.StagePut(batch, capsuleID, nil, encode(LatestRecord{
			Seq:  latest.PreviousSeq,
			Root: latest.PreviousRoot,
		}))
		if err := batch.Write(); nil != err {
			return err
		}
		if latest.PreviousRoot.IsNull() {
			return nil
		}
	}
}
