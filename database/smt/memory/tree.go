// Copyright (c) 2025 Sonic Operations Ltd
//
// Use of this software is governed by the Business Source License included
// in the LICENSE file and at soniclabs.com/bsl11.
//
// Change Date: 2028-4-16
//
// On the date above, in accordance with the Business Source License, use of
// this software will be governed by the GNU Lesser General Public License v3.

// Package memory provides an in-memory sparse merkle tree which is able to
// produce compiled proofs accepted by the smt package. It is used by block
// producers, the development chain and tests to build verifier inputs.
package memory

import (
	"slices"
	"sync"

	"github.com/zmcNotafraid/godwoken/common"
	"github.com/zmcNotafraid/godwoken/database/smt"
)

// Tree is an in-memory sparse merkle tree over 256-bit keys. Keys mapped to
// the zero value are absent. The zero value is an empty tree using Blake2b.
// Tree is safe for concurrent use.
type Tree struct {
	mu     sync.Mutex
	root   node
	hasher common.Hasher
	size   int
}

// NewTree creates an empty tree hashing with the given hasher. A nil hasher
// selects Blake2b.
func NewTree(hasher common.Hasher) *Tree {
	return &Tree{hasher: hasher}
}

func (t *Tree) getHasher() common.Hasher {
	if t.hasher == nil {
		return common.Blake2bHasher{}
	}
	return t.hasher
}

// Get returns the value of the given key, the zero value if absent.
func (t *Tree) Get(key common.Hash) common.Hash {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.root == nil {
		return common.Hash{}
	}
	return t.root.get(key)
}

// Set updates the value of the given key. Setting the zero value removes it.
func (t *Tree) Set(key common.Hash, value common.Hash) {
	t.mu.Lock()
	defer t.mu.Unlock()
	present := t.root != nil && !t.root.get(key).IsZero()
	switch {
	case t.root == nil:
		if !value.IsZero() {
			t.root = newLeaf(key, value)
		}
	default:
		t.root = t.root.set(key, value)
	}
	if present && value.IsZero() {
		t.size--
	} else if !present && !value.IsZero() {
		t.size++
	}
}

// Len returns the number of keys with a non-zero value.
func (t *Tree) Len() int {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.size
}

// Root returns the root hash of the tree. The root of the empty tree is the
// zero hash.
func (t *Tree) Root() common.Hash {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.rootLocked()
}

func (t *Tree) rootLocked() common.Hash {
	updateHashes(t.root, t.getHasher())
	return hashOn(t.root, t.getHasher(), smt.Depth)
}

// Leaves returns all present key/value pairs in canonical key order.
func (t *Tree) Leaves() []smt.Leaf {
	t.mu.Lock()
	defer t.mu.Unlock()
	res := make([]smt.Leaf, 0, t.size)
	if t.root != nil {
		t.root.forEach(func(l smt.Leaf) {
			res = append(res, l)
		})
	}
	smt.SortLeaves(res)
	return res
}

// Clone creates an independent copy of this tree.
func (t *Tree) Clone() *Tree {
	res := NewTree(t.hasher)
	for _, l := range t.Leaves() {
		res.Set(l.Key, l.Value)
	}
	return res
}

// Prove produces a compiled proof for the given keys. The proof verifies
// against the current root for claims pairing each key with its current
// value, including the zero value for absent keys.
func (t *Tree) Prove(keys ...common.Hash) (smt.CompiledProof, error) {
	t.mu.Lock()
	defer t.mu.Unlock()
	if len(keys) == 0 {
		return smt.CompiledProof{}, nil
	}
	sorted := slices.Clone(keys)
	smt.SortKeys(sorted)
	for i := 1; i < len(sorted); i++ {
		if sorted[i-1] == sorted[i] {
			return nil, smt.ErrDuplicateKey
		}
	}
	hasher := t.getHasher()
	updateHashes(t.root, hasher)
	w := &programWriter{lastZeros: -1}
	prove(w, hasher, t.root, sorted, smt.Depth)
	return smt.CompiledProof(w.program), nil
}

// Claims returns the current leaves of the given keys, ready to be verified
// against a proof produced by Prove.
func (t *Tree) Claims(keys ...common.Hash) []smt.Leaf {
	res := make([]smt.Leaf, 0, len(keys))
	for _, key := range keys {
		res = append(res, smt.Leaf{Key: key, Value: t.Get(key)})
	}
	return res
}
