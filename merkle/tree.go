// SPDX-License-Identifier: ISC
// Copyright (c) 2014-2020 Bitmark Inc.
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package merkle

import (
	"github.com/bitmark-inc/datacapsuled/crypto"
)

// Tree - a built Merkle tree
//
// Levels[0] is the interior level directly over the leaves;
// Levels[len(Levels)-1] holds exactly one HashBlock, the root block.
type Tree struct {
	Fanout int
	Leaves []crypto.Digest
	Levels [][]*HashBlock
}

// Build - construct a Merkle tree over an ordered batch of leaf
// hashes with the given fanout. If extra is non-nil it is appended
// as the final leaf (the chained previous commit's signed root)
// before any padding. The last HashBlock of every level is
// right-padded with the Null Hash. Identical inputs always produce
// byte-identical HashBlocks and root - the root is what gets signed.
func Build(leaves []crypto.Digest, fanout int, extra *crypto.Digest) *Tree {
	if fanout < 2 {
		fanout = 2
	}

	all := make([]crypto.Digest, 0, len(leaves)+1)
	all = append(all, leaves...)
	if nil != extra {
		all = append(all, *extra)
	}

	t := &Tree{Fanout: fanout, Leaves: all}

	current := all
	for {
		numBlocks := (len(current) + fanout - 1) / fanout
		if numBlocks == 0 {
			numBlocks = 1
		}
		blocks := make([]*HashBlock, numBlocks)
		for i := 0; i < numBlocks; i += 1 {
			hb := NewHashBlock(fanout)
			for j := 0; j < fanout; j += 1 {
				idx := i*fanout + j
				if idx < len(current) {
					hb.Children[j] = current[idx]
				}
			}
			blocks[i] = hb
		}
		t.Levels = append(t.Levels, blocks)
		if 1 == numBlocks {
			break
		}
		next := make([]crypto.Digest, numBlocks)
		for i, b := range blocks {
			next[i] = b.Name()
		}
		current = next
	}
	return t
}

// Root - the hash of the top-level single HashBlock
func (t *Tree) Root() crypto.Digest {
	top := t.Levels[len(t.Levels)-1]
	return top[0].Name()
}

// RootBlock - the top-level single HashBlock itself
func (t *Tree) RootBlock() *HashBlock {
	top := t.Levels[len(t.Levels)-1]
	return top[0]
}

// AllBlocks - every interior HashBlock created while building,
// bottom level first; this is what the write path persists as
// treeblocks rows
func (t *Tree) AllBlocks() []*HashBlock {
	result := make([]*HashBlock, 0)
	for _, level := range t.Levels {
		result = append(result, level...)
	}
	return result
}

// PathTo - the ordered chain of HashBlocks from the block directly
// containing the leaf target up to (and including) the root block.
// Returns nil if target is not one of this tree's leaves. When a
// value appears more than once among the leaves (duplicate record
// bytes in one commit) this resolves to its first occurrence only -
// callers that know the leaf's position should use PathAtIndex.
func (t *Tree) PathTo(target crypto.Digest) []*HashBlock {
	for i, l := range t.Leaves {
		if l == target {
			return t.PathAtIndex(i)
		}
	}
	return nil
}

// PathAtIndex - the ordered chain of HashBlocks from the block
// directly containing leaf index pos up to (and including) the root
// block. Unlike PathTo this distinguishes duplicate leaf values by
// position, which matters when the same record hash occurs more than
// once in a single commit.
func (t *Tree) PathAtIndex(pos int) []*HashBlock {
	if pos < 0 || pos >= len(t.Leaves) {
		return nil
	}
	path := make([]*HashBlock, 0, len(t.Levels))
	idx := pos
	for _, blocks := range t.Levels {
		blockIdx := idx / t.Fanout
		path = append(path, blocks[blockIdx])
		idx = blockIdx
	}
	return path
}
