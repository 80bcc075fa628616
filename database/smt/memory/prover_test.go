// Copyright (c) 2025 Sonic Operations Ltd
//
// Use of this software is governed by the Business Source License included
// in the LICENSE file and at soniclabs.com/bsl11.
//
// Change Date: 2028-4-16
//
// On the date above, in accordance with the Business Source License, use of
// this software will be governed by the GNU Lesser General Public License v3.

package memory

import (
	"math/rand"
	"testing"

	"github.com/stretchr/testify/require"
	"github.com/zmcNotafraid/godwoken/common"
	"github.com/zmcNotafraid/godwoken/database/smt"
)

var hasher = common.Blake2bHasher{}

func newRandomTree(seed int64, n int) (*Tree, []smt.Leaf) {
	leaves := randomLeaves(rand.New(rand.NewSource(seed)), n)
	tree := &Tree{}
	for _, l := range leaves {
		tree.Set(l.Key, l.Value)
	}
	return tree, leaves
}

func TestProof_InclusionOfSingleKey(t *testing.T) {
	require := require.New(t)

	tree, leaves := newRandomTree(1, 20)
	for _, l := range leaves {
		proof, err := tree.Prove(l.Key)
		require.NoError(err)
		ok, err := smt.Verify(hasher, tree.Root(), proof, []smt.Leaf{l})
		require.NoError(err)
		require.True(ok)
	}
}

func TestProof_InclusionOfManyKeys(t *testing.T) {
	require := require.New(t)

	tree, leaves := newRandomTree(2, 100)
	keys := make([]common.Hash, 0, 40)
	for _, l := range leaves[:40] {
		keys = append(keys, l.Key)
	}
	proof, err := tree.Prove(keys...)
	require.NoError(err)
	ok, err := smt.Verify(hasher, tree.Root(), proof, leaves[:40])
	require.NoError(err)
	require.True(ok)
}

func TestProof_ExclusionOfAbsentKeys(t *testing.T) {
	require := require.New(t)

	tree, _ := newRandomTree(3, 50)
	keys := []common.Hash{{1}, {2}, {31: 0xFF}}
	proof, err := tree.Prove(keys...)
	require.NoError(err)
	ok, err := smt.Verify(hasher, tree.Root(), proof, tree.Claims(keys...))
	require.NoError(err)
	require.True(ok)
}

func TestProof_ExclusionInEmptyTree(t *testing.T) {
	require := require.New(t)

	tree := &Tree{}
	proof, err := tree.Prove(common.Hash{7})
	require.NoError(err)
	require.Equal(smt.CompiledProof{smt.OpLeaf, smt.OpZeros, 0}, proof)
	ok, err := smt.Verify(hasher, common.Hash{}, proof, []smt.Leaf{{Key: common.Hash{7}}})
	require.NoError(err)
	require.True(ok)
}

func TestProof_MixedInclusionAndExclusion(t *testing.T) {
	require := require.New(t)

	tree, leaves := newRandomTree(4, 30)
	keys := []common.Hash{leaves[0].Key, {9}, leaves[5].Key, {31: 3}}
	proof, err := tree.Prove(keys...)
	require.NoError(err)
	ok, err := smt.Verify(hasher, tree.Root(), proof, tree.Claims(keys...))
	require.NoError(err)
	require.True(ok)
}

func TestProof_ClaimOrderIsIrrelevant(t *testing.T) {
	require := require.New(t)

	tree, leaves := newRandomTree(5, 30)
	claims := []smt.Leaf{leaves[3], leaves[1], leaves[2]}
	proof, err := tree.Prove(leaves[1].Key, leaves[2].Key, leaves[3].Key)
	require.NoError(err)

	for _, order := range [][]int{{0, 1, 2}, {2, 1, 0}, {1, 0, 2}} {
		reordered := []smt.Leaf{claims[order[0]], claims[order[1]], claims[order[2]]}
		ok, err := smt.Verify(hasher, tree.Root(), proof, reordered)
		require.NoError(err)
		require.True(ok)
	}
}

func TestProof_WrongValueIsRejected(t *testing.T) {
	require := require.New(t)

	tree, leaves := newRandomTree(6, 10)
	proof, err := tree.Prove(leaves[0].Key)
	require.NoError(err)

	claim := leaves[0]
	claim.Value[0]++
	ok, err := smt.Verify(hasher, tree.Root(), proof, []smt.Leaf{claim})
	require.NoError(err)
	require.False(ok)

	// Claiming absence of a present key must fail as well.
	ok, err = smt.Verify(hasher, tree.Root(), proof, []smt.Leaf{{Key: leaves[0].Key}})
	require.NoError(err)
	require.False(ok)
}

func TestProof_DuplicateKeysAreRejected(t *testing.T) {
	require := require.New(t)

	tree, leaves := newRandomTree(7, 10)
	_, err := tree.Prove(leaves[0].Key, leaves[0].Key)
	require.ErrorIs(err, smt.ErrDuplicateKey)

	proof, err := tree.Prove(leaves[0].Key)
	require.NoError(err)
	_, err = smt.Verify(hasher, tree.Root(), proof, []smt.Leaf{leaves[0], leaves[0]})
	require.ErrorIs(err, smt.ErrDuplicateKey)
}

func TestProof_EmptyClaimSetRequiresEmptyProof(t *testing.T) {
	require := require.New(t)

	ok, err := smt.Verify(hasher, common.Hash{1}, nil, nil)
	require.NoError(err)
	require.True(ok)

	_, err = smt.Verify(hasher, common.Hash{1}, smt.CompiledProof{smt.OpLeaf}, nil)
	require.ErrorIs(err, smt.ErrInvalidProof)
}

func TestProof_MalformedProgramsAreRejected(t *testing.T) {
	claim := []smt.Leaf{{Key: common.Hash{1}, Value: common.Hash{1}}}
	two := []smt.Leaf{
		{Key: common.Hash{1}, Value: common.Hash{1}},
		{Key: common.Hash{2}, Value: common.Hash{2}},
	}
	tests := map[string]struct {
		proof  smt.CompiledProof
		claims []smt.Leaf
		err    error
	}{
		"unknown opcode":        {smt.CompiledProof{0x00}, claim, smt.ErrInvalidProof},
		"truncated sibling":     {smt.CompiledProof{smt.OpLeaf, smt.OpSibling, 1, 2}, claim, smt.ErrInvalidProof},
		"missing zero count":    {smt.CompiledProof{smt.OpLeaf, smt.OpZeros}, claim, smt.ErrInvalidProof},
		"sibling on empty":      {smt.CompiledProof{smt.OpSibling}, claim, smt.ErrCorruptedStack},
		"zeros on empty":        {smt.CompiledProof{smt.OpZeros, 1}, claim, smt.ErrCorruptedStack},
		"merge single entry":    {smt.CompiledProof{smt.OpLeaf, smt.OpMerge}, claim, smt.ErrCorruptedStack},
		"too many leaves":       {smt.CompiledProof{smt.OpLeaf, smt.OpLeaf}, claim, smt.ErrCorruptedStack},
		"claims not covered":    {smt.CompiledProof{smt.OpLeaf, smt.OpZeros, 0}, two, smt.ErrCorruptedStack},
		"not reaching the root": {smt.CompiledProof{smt.OpLeaf, smt.OpZeros, 100}, claim, smt.ErrCorruptedStack},
		"beyond the root":       {smt.CompiledProof{smt.OpLeaf, smt.OpZeros, 0, smt.OpZeros, 1}, claim, smt.ErrCorruptedStack},
		"two roots":             {smt.CompiledProof{smt.OpLeaf, smt.OpZeros, 0, smt.OpLeaf, smt.OpZeros, 0}, two, smt.ErrCorruptedStack},
		"merge non-siblings":    {smt.CompiledProof{smt.OpLeaf, smt.OpLeaf, smt.OpMerge}, two, smt.ErrInvalidProof},
	}
	for name, test := range tests {
		t.Run(name, func(t *testing.T) {
			ok, err := smt.Verify(hasher, common.Hash{}, test.proof, test.claims)
			require.ErrorIs(t, err, test.err)
			require.False(t, ok)
		})
	}
}

func TestProof_ByteFlipsNeverVerify(t *testing.T) {
	require := require.New(t)

	tree, leaves := newRandomTree(8, 64)
	claims := []smt.Leaf{leaves[0], leaves[10], leaves[20], {Key: common.Hash{5}}}
	keys := []common.Hash{leaves[0].Key, leaves[10].Key, leaves[20].Key, {5}}
	proof, err := tree.Prove(keys...)
	require.NoError(err)
	root := tree.Root()

	r := rand.New(rand.NewSource(42))
	for range 500 {
		corrupted := append(smt.CompiledProof{}, proof...)
		pos := r.Intn(len(corrupted))
		corrupted[pos] ^= byte(1 + r.Intn(255))
		ok, _ := smt.Verify(hasher, root, corrupted, claims)
		require.False(ok, "corrupted proof accepted, flipped byte %d", pos)
	}
}

func TestProof_ExclusionThenInclusionCertifiesInsertion(t *testing.T) {
	require := require.New(t)

	tree, _ := newRandomTree(9, 40)
	key, value := common.Hash{0xAB}, common.Hash{0xCD}
	prevRoot := tree.Root()

	proof, err := tree.Prove(key)
	require.NoError(err)
	ok, err := smt.Verify(hasher, prevRoot, proof, []smt.Leaf{{Key: key}})
	require.NoError(err)
	require.True(ok)

	// The same proof evaluated with the new value yields the new root.
	tree.Set(key, value)
	ok, err = smt.Verify(hasher, tree.Root(), proof, []smt.Leaf{{Key: key, Value: value}})
	require.NoError(err)
	require.True(ok)

	// Any other modification breaks the pairing.
	tree.Set(common.Hash{0x01, 0x02}, common.Hash{1})
	ok, err = smt.Verify(hasher, tree.Root(), proof, []smt.Leaf{{Key: key, Value: value}})
	require.NoError(err)
	require.False(ok)
}

func TestProgramWriter_FoldsZeroRuns(t *testing.T) {
	require := require.New(t)

	w := &programWriter{lastZeros: -1}
	w.leaf()
	w.zeros(100)
	w.zeros(100)
	w.zeros(56)
	require.Equal([]byte{smt.OpLeaf, smt.OpZeros, 0}, w.program)

	w = &programWriter{lastZeros: -1}
	w.leaf()
	w.zeros(255)
	w.sibling(common.Hash{})
	require.Equal([]byte{smt.OpLeaf, smt.OpZeros, 0}, w.program)

	w = &programWriter{lastZeros: -1}
	w.leaf()
	w.zeros(3)
	w.sibling(common.Hash{1})
	w.zeros(2)
	want := append([]byte{smt.OpLeaf, smt.OpZeros, 3, smt.OpSibling, 1}, make([]byte, 31)...)
	want = append(want, smt.OpZeros, 2)
	require.Equal(want, w.program)
}
