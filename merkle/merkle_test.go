// SPDX-License-Identifier: ISC
// Copyright (c) 2014-2020 Bitmark Inc.
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package merkle_test

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/bitmark-inc/datacapsuled/crypto"
	"github.com/bitmark-inc/datacapsuled/merkle"
)

func leaves(words ...string) []crypto.Digest {
	result := make([]crypto.Digest, len(words))
	for i, w := range words {
		result[i] = crypto.Hash([]byte(w))
	}
	return result
}

func TestBuildDeterministic(t *testing.T) {
	l := leaves("a", "b", "c")
	t1 := merkle.Build(l, 2, nil)
	t2 := merkle.Build(l, 2, nil)
	assert.Equal(t, t1.Root(), t2.Root())
	assert.True(t, t1.RootBlock().Equal(t2.RootBlock()))
}

func TestSingleLeafRoot(t *testing.T) {
	l := leaves("only")
	tree := merkle.Build(l, 2, nil)
	// one leaf + null padding -> one block -> its name is the root
	block := merkle.NewHashBlock(2)
	block.Children[0] = l[0]
	assert.Equal(t, block.Name(), tree.Root())
}

func TestOddCountPadsWithNullNotDuplicate(t *testing.T) {
	l := leaves("a", "b", "c")
	tree := merkle.Build(l, 2, nil)
	// level 0: {a,b}, {c,Null}
	assert.Equal(t, 2, len(tree.Levels[0]))
	last := tree.Levels[0][1]
	assert.Equal(t, l[2], last.Children[0])
	assert.True(t, last.Children[1].IsNull())
}

func TestExtraLeafIncluded(t *testing.T) {
	l := leaves("a")
	extra := crypto.Hash([]byte("prev-root"))
	tree := merkle.Build(l, 2, &extra)
	assert.Equal(t, 2, len(tree.Leaves))
	assert.Equal(t, extra, tree.Leaves[1])
}

func TestPathTo(t *testing.T) {
	l := leaves("a", "b", "c", "d", "e")
	tree := merkle.Build(l, 2, nil)
	path := tree.PathTo(l[2])
	assert.NotEmpty(t, path)
	assert.Equal(t, tree.RootBlock(), path[len(path)-1])
	assert.True(t, path[0].Contains(l[2]))
}

func TestPathToMissingLeaf(t *testing.T) {
	l := leaves("a", "b")
	tree := merkle.Build(l, 2, nil)
	assert.Nil(t, tree.PathTo(crypto.Hash([]byte("not present"))))
}

// S1 from the end-to-end scenarios: a single record commit produces
// a proof with exactly one SignedHash and one HashBlock.
func TestSingleRecordProof(t *testing.T) {
	pub, priv, err := crypto.GenerateKeyPair()
	assert.NoError(t, err)

	record := crypto.Hash([]byte("hello-ciphertext"))
	tree := merkle.Build([]crypto.Digest{record}, 2, nil)
	root := tree.Root()
	sig := crypto.Sign(priv, root[:])

	proof := merkle.Proof{
		{SignedRoot: &crypto.SignedHash{Hash: root, Signature: sig}},
		{Block: tree.RootBlock()},
	}

	session := merkle.NewSession(16, 2)
	ok, err := session.Verify(proof, record, pub)
	assert.NoError(t, err)
	assert.True(t, ok)
}

// S2: cross-commit chained proof.
func TestCrossCommitChainedProof(t *testing.T) {
	pub, priv, err := crypto.GenerateKeyPair()
	assert.NoError(t, err)

	r1 := crypto.Hash([]byte("r1"))
	r2 := crypto.Hash([]byte("r2"))

	treeA := merkle.Build([]crypto.Digest{r1}, 2, nil)
	rootA := treeA.Root()

	treeB := merkle.Build([]crypto.Digest{r2}, 2, &rootA)
	rootB := treeB.Root()
	sigB := crypto.Sign(priv, rootB[:])

	proof := merkle.Proof{
		{SignedRoot: &crypto.SignedHash{Hash: rootB, Signature: sigB}},
		{Block: treeB.RootBlock()},
		{Block: treeA.RootBlock()},
	}

	session := merkle.NewSession(1024, 2)
	ok, err := session.Verify(proof, r1, pub)
	assert.NoError(t, err)
	assert.True(t, ok)
	assert.True(t, session.Cache.Contains(rootB))
}

func TestProofRejectsBadSignature(t *testing.T) {
	pub, _, err := crypto.GenerateKeyPair()
	assert.NoError(t, err)
	_, otherPriv, err := crypto.GenerateKeyPair()
	assert.NoError(t, err)

	record := crypto.Hash([]byte("x"))
	tree := merkle.Build([]crypto.Digest{record}, 2, nil)
	root := tree.Root()
	badSig := crypto.Sign(otherPriv, root[:])

	proof := merkle.Proof{
		{SignedRoot: &crypto.SignedHash{Hash: root, Signature: badSig}},
		{Block: tree.RootBlock()},
	}

	session := merkle.NewSession(16, 2)
	ok, err := session.Verify(proof, record, pub)
	assert.Error(t, err)
	assert.False(t, ok)
}

func TestProofRejectsUnlinkedBlock(t *testing.T) {
	pub, priv, err := crypto.GenerateKeyPair()
	assert.NoError(t, err)

	record := crypto.Hash([]byte("x"))
	tree := merkle.Build([]crypto.Digest{record}, 2, nil)
	root := tree.Root()
	sig := crypto.Sign(priv, root[:])

	unrelated := merkle.NewHashBlock(2)
	unrelated.Children[0] = crypto.Hash([]byte("unrelated"))

	proof := merkle.Proof{
		{SignedRoot: &crypto.SignedHash{Hash: root, Signature: sig}},
		{Block: unrelated},
	}

	session := merkle.NewSession(16, 2)
	ok, err := session.Verify(proof, record, pub)
	assert.Error(t, err)
	assert.False(t, ok)
}
