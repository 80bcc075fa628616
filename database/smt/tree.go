// Copyright (c) 2025 Sonic Operations Ltd
//
// Use of this software is governed by the Business Source License included
// in the LICENSE file and at soniclabs.com/bsl11.
//
// Change Date: 2028-4-16
//
// On the date above, in accordance with the Business Source License, use of
// this software will be governed by the GNU Lesser General Public License v3.

// Package smt defines the 256-bit sparse merkle tree shared by the rollup's
// block-history and account-state commitments and verifies compiled proofs
// against claimed roots.
//
// Keys and values are 256-bit digests. Absent keys hold the zero value. Bit i
// of a key is bit i%8 of byte i/8. Leaves live on level 0 and the root on
// level Depth; a node on level l is combined with its sibling using bit l of
// its key, where 0 denotes the left and 1 the right child.
package smt

import (
	"bytes"
	"slices"

	"github.com/zmcNotafraid/godwoken/common"
)

// Depth is the number of levels between a leaf and the root.
const Depth = 256

const (
	leafDomain  = 0x00
	mergeDomain = 0x01
)

// Leaf is a (key, value) pair used as a claim in a proof verification.
type Leaf struct {
	Key   common.Hash
	Value common.Hash
}

// KeyBit returns bit `level` of the given key.
func KeyBit(key common.Hash, level int) byte {
	return (key[level/8] >> (level % 8)) & 1
}

// CompareKeys orders keys as little-endian 256-bit integers. This is the
// order in which a left-to-right traversal of the tree visits leaves and
// therefore the order in which proofs consume claims.
func CompareKeys(a, b common.Hash) int {
	for i := common.HashSize - 1; i >= 0; i-- {
		if a[i] != b[i] {
			if a[i] < b[i] {
				return -1
			}
			return 1
		}
	}
	return 0
}

// SortLeaves sorts the given leaves by key in canonical order.
func SortLeaves(leaves []Leaf) {
	slices.SortFunc(leaves, func(a, b Leaf) int {
		return CompareKeys(a.Key, b.Key)
	})
}

// SortKeys sorts the given keys in canonical order.
func SortKeys(keys []common.Hash) {
	slices.SortFunc(keys, CompareKeys)
}

// HashLeaf computes the level-0 node of a key/value pair. Absent keys, those
// with a zero value, are represented by the zero hash.
func HashLeaf(hasher common.Hasher, key, value common.Hash) common.Hash {
	if value.IsZero() {
		return common.Hash{}
	}
	return hasher.Hash([]byte{leafDomain}, key[:], value[:])
}

// Merge computes the parent of two sibling nodes on the given level. The
// parent of two empty subtrees is empty.
func Merge(hasher common.Hasher, level int, left, right common.Hash) common.Hash {
	if left.IsZero() && right.IsZero() {
		return common.Hash{}
	}
	return hasher.Hash([]byte{mergeDomain, byte(level)}, left[:], right[:])
}

// MergeWithSibling combines the node on the path of `key` at the given level
// with its sibling, placing both on the side determined by the key.
func MergeWithSibling(hasher common.Hasher, key common.Hash, level int, node, sibling common.Hash) common.Hash {
	if KeyBit(key, level) == 0 {
		return Merge(hasher, level, node, sibling)
	}
	return Merge(hasher, level, sibling, node)
}

// HaveSameParent reports whether the nodes on `level` reached by the two keys
// share the same parent, i.e. whether the keys agree on all bits above level.
func HaveSameParent(a, b common.Hash, level int) bool {
	first := level + 1
	if first >= Depth {
		return true
	}
	pos, shift := first/8, first%8
	if a[pos]>>shift != b[pos]>>shift {
		return false
	}
	return bytes.Equal(a[pos+1:], b[pos+1:])
}
