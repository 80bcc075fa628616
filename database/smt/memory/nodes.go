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
	"github.com/zmcNotafraid/godwoken/common"
	"github.com/zmcNotafraid/godwoken/database/smt"
)

// ---- Nodes ----

// node is an interface for tree nodes, which can be either inner or leaf
// nodes. Paths are compressed: a node stores its own level and only forks on
// bits where keys of the subtree actually differ.
type node interface {
	get(key common.Hash) common.Hash
	// set updates the value of the given key in the subtree rooted by this
	// node and returns the new root of the subtree. Setting a zero value
	// removes the key, which may yield a nil subtree.
	set(key common.Hash, value common.Hash) node
	// level returns the level on which the hash of this node is defined.
	level() int
	// anyKey returns some key stored in the subtree. All keys of the
	// subtree agree on bits at and above the node's level.
	anyKey() common.Hash
	hash(hasher common.Hasher) common.Hash
	forEach(func(smt.Leaf))
}

// hashOn lifts the hash of the given node to the target level by merging it
// with empty siblings. A nil node is the empty subtree.
func hashOn(n node, hasher common.Hasher, target int) common.Hash {
	if n == nil {
		return common.Hash{}
	}
	res := n.hash(hasher)
	key := n.anyKey()
	for l := n.level(); l < target; l++ {
		res = smt.MergeWithSibling(hasher, key, l, res, common.Hash{})
	}
	return res
}

// join creates the inner node combining two disjoint subtrees.
func join(a, b node) node {
	keyA, keyB := a.anyKey(), b.anyKey()
	split := highestDifferingBit(keyA, keyB)
	res := &inner{split: split, sample: keyA, dirty: true}
	res.children[smt.KeyBit(keyA, split)] = a
	res.children[smt.KeyBit(keyB, split)] = b
	return res
}

// highestDifferingBit returns the index of the most significant bit in which
// the given keys differ. The keys must not be equal.
func highestDifferingBit(a, b common.Hash) int {
	for i := common.HashSize - 1; i >= 0; i-- {
		diff := a[i] ^ b[i]
		if diff == 0 {
			continue
		}
		bit := 7
		for diff&(1<<bit) == 0 {
			bit--
		}
		return i*8 + bit
	}
	panic("keys are equal")
}

// ---- Inner nodes ----

// inner is a node with exactly two non-empty subtrees. Keys in children[0]
// have bit `split` cleared, keys in children[1] have it set.
type inner struct {
	split    int
	sample   common.Hash // < any key of the subtree
	children [2]node

	// The cached hash of this node. It is only valid if dirty is false.
	cached common.Hash
	dirty  bool
}

func (i *inner) get(key common.Hash) common.Hash {
	if !smt.HaveSameParent(key, i.sample, i.split) {
		return common.Hash{}
	}
	return i.children[smt.KeyBit(key, i.split)].get(key)
}

func (i *inner) set(key common.Hash, value common.Hash) node {
	if !smt.HaveSameParent(key, i.sample, i.split) {
		if value.IsZero() {
			return i
		}
		return join(i, newLeaf(key, value))
	}
	pos := smt.KeyBit(key, i.split)
	next := i.children[pos].set(key, value)
	if next == nil {
		// The remaining child replaces this node.
		return i.children[1-pos]
	}
	i.children[pos] = next
	i.sample = i.children[0].anyKey()
	i.dirty = true
	return i
}

func (i *inner) level() int {
	return i.split + 1
}

func (i *inner) anyKey() common.Hash {
	return i.sample
}

func (i *inner) hash(hasher common.Hasher) common.Hash {
	if !i.dirty {
		return i.cached
	}
	left := hashOn(i.children[0], hasher, i.split)
	right := hashOn(i.children[1], hasher, i.split)
	i.cached = smt.Merge(hasher, i.split, left, right)
	i.dirty = false
	return i.cached
}

func (i *inner) forEach(visit func(smt.Leaf)) {
	i.children[0].forEach(visit)
	i.children[1].forEach(visit)
}

// ---- Leaf nodes ----

// leaf is a single non-zero key/value pair on level 0.
type leaf struct {
	key   common.Hash
	value common.Hash

	cached common.Hash
	dirty  bool
}

func newLeaf(key, value common.Hash) *leaf {
	return &leaf{key: key, value: value, dirty: true}
}

func (l *leaf) get(key common.Hash) common.Hash {
	if key != l.key {
		return common.Hash{}
	}
	return l.value
}

func (l *leaf) set(key common.Hash, value common.Hash) node {
	if key == l.key {
		if value.IsZero() {
			return nil
		}
		if value != l.value {
			l.value = value
			l.dirty = true
		}
		return l
	}
	if value.IsZero() {
		return l
	}
	return join(l, newLeaf(key, value))
}

func (l *leaf) level() int {
	return 0
}

func (l *leaf) anyKey() common.Hash {
	return l.key
}

func (l *leaf) hash(hasher common.Hasher) common.Hash {
	if l.dirty {
		l.cached = smt.HashLeaf(hasher, l.key, l.value)
		l.dirty = false
	}
	return l.cached
}

func (l *leaf) forEach(visit func(smt.Leaf)) {
	visit(smt.Leaf{Key: l.key, Value: l.value})
}
