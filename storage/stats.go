// SPDX-License-Identifier: ISC
// Copyright (c) 2014-2020 Bitmark Inc.
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package storage

// TableCounts - the number of rows currently stored in each logical
// table, for the datacapsule-info operability tool
func TableCounts() map[string]int {
	return map[string]int{
		"capsule_meta": len(Pool.CapsuleMeta.AllCapsules().Fetch()),
		"latest":       len(Pool.Latest.AllCapsules().Fetch()),
		"bindata":      len(Pool.BinData.AllCapsules().Fetch()),
		"recordblocks": len(Pool.RecordBlocks.AllCapsules().Fetch()),
		"treeblocks":   len(Pool.TreeBlocks.AllCapsules().Fetch()),
		"sigblocks":    len(Pool.SigBlocks.AllCapsules().Fetch()),
		"seqblocks":    len(Pool.SeqBlocks.AllCapsules().Fetch()),
	}
}
