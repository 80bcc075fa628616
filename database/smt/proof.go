// Copyright (c) 2025 Sonic Operations Ltd
//
// Use of this software is governed by the Business Source License included
// in the LICENSE file and at soniclabs.com/bsl11.
//
// Change Date: 2028-4-16
//
// On the date above, in accordance with the Business Source License, use of
// this software will be governed by the GNU Lesser General Public License v3.

package smt

import (
	"fmt"

	"github.com/zmcNotafraid/godwoken/common"
)

const (
	// ErrInvalidProof is returned for proofs that can not be decoded or that
	// are inconsistent with the claimed keys.
	ErrInvalidProof = common.ConstError("invalid proof")
	// ErrCorruptedStack is returned if a proof program leaves the evaluation
	// stack in a state that does not describe exactly one root.
	ErrCorruptedStack = common.ConstError("corrupted proof stack")
	// ErrDuplicateKey is returned if the same key is claimed more than once.
	ErrDuplicateKey = common.ConstError("duplicate key in claims")
)

// Opcodes of the compiled proof program.
const (
	// OpLeaf pushes the next claim, in canonical key order, as a leaf.
	OpLeaf byte = 0x4C
	// OpSibling merges the top of the stack with the 32-byte sibling that
	// follows the opcode.
	OpSibling byte = 0x50
	// OpZeros merges the top of the stack with n empty siblings, where n is
	// given by the following byte and 0 encodes 256.
	OpZeros byte = 0x4F
	// OpMerge merges the two topmost stack entries, which must be siblings.
	OpMerge byte = 0x48
)

// CompiledProof is a serialized program certifying a set of (key, value)
// claims against a root without transferring the tree.
type CompiledProof []byte

// entry is a node on the evaluation stack. Key is any key of the subtree the
// node is the root of, which is sufficient to navigate upward.
type entry struct {
	key   common.Hash
	level int
	hash  common.Hash
}

// Verify checks whether the proof certifies the given claims against root.
// The order of claims is irrelevant. The function never panics on malformed
// input and never accepts a proof it can not fully evaluate: any decoding
// issue is reported as an error. An empty claim set is certified by an empty
// proof only.
func Verify(hasher common.Hasher, root common.Hash, proof CompiledProof, claims []Leaf) (bool, error) {
	if len(claims) == 0 {
		if len(proof) != 0 {
			return false, fmt.Errorf("%w: non-empty proof for empty claim set", ErrInvalidProof)
		}
		return true, nil
	}
	computed, err := ComputeRoot(hasher, proof, claims)
	if err != nil {
		return false, err
	}
	return computed == root, nil
}

// ComputeRoot evaluates the proof program on the given claims and returns the
// root of the tree the proof describes. The claims are not modified.
func ComputeRoot(hasher common.Hasher, proof CompiledProof, claims []Leaf) (common.Hash, error) {
	leaves := make([]Leaf, len(claims))
	copy(leaves, claims)
	SortLeaves(leaves)
	for i := 1; i < len(leaves); i++ {
		if leaves[i-1].Key == leaves[i].Key {
			return common.Hash{}, fmt.Errorf("%w: %v", ErrDuplicateKey, leaves[i].Key)
		}
	}

	// Every leaf is pushed at most once and no operation grows the stack
	// otherwise, so the number of claims bounds its size.
	stack := make([]entry, 0, len(leaves))
	next := 0
	for pc := 0; pc < len(proof); {
		op := proof[pc]
		pc++
		switch op {
		case OpLeaf:
			if next >= len(leaves) {
				return common.Hash{}, fmt.Errorf("%w: more leaves referenced than claimed", ErrCorruptedStack)
			}
			leaf := leaves[next]
			next++
			stack = append(stack, entry{
				key:  leaf.Key,
				hash: HashLeaf(hasher, leaf.Key, leaf.Value),
			})

		case OpSibling:
			if len(stack) == 0 {
				return common.Hash{}, fmt.Errorf("%w: sibling on empty stack", ErrCorruptedStack)
			}
			if pc+common.HashSize > len(proof) {
				return common.Hash{}, fmt.Errorf("%w: truncated sibling at offset %d", ErrInvalidProof, pc)
			}
			top := &stack[len(stack)-1]
			if top.level >= Depth {
				return common.Hash{}, fmt.Errorf("%w: sibling above root", ErrCorruptedStack)
			}
			sibling := common.Hash(proof[pc : pc+common.HashSize])
			pc += common.HashSize
			top.hash = MergeWithSibling(hasher, top.key, top.level, top.hash, sibling)
			top.level++

		case OpZeros:
			if len(stack) == 0 {
				return common.Hash{}, fmt.Errorf("%w: zero siblings on empty stack", ErrCorruptedStack)
			}
			if pc >= len(proof) {
				return common.Hash{}, fmt.Errorf("%w: truncated zero count at offset %d", ErrInvalidProof, pc)
			}
			count := int(proof[pc])
			pc++
			if count == 0 {
				count = Depth
			}
			top := &stack[len(stack)-1]
			if top.level+count > Depth {
				return common.Hash{}, fmt.Errorf("%w: zero siblings above root", ErrCorruptedStack)
			}
			for range count {
				top.hash = MergeWithSibling(hasher, top.key, top.level, top.hash, common.Hash{})
				top.level++
			}

		case OpMerge:
			if len(stack) < 2 {
				return common.Hash{}, fmt.Errorf("%w: merge requires two entries", ErrCorruptedStack)
			}
			right := stack[len(stack)-1]
			left := stack[len(stack)-2]
			if left.level != right.level || left.level >= Depth {
				return common.Hash{}, fmt.Errorf("%w: merge of nodes on levels %d and %d", ErrCorruptedStack, left.level, right.level)
			}
			level := left.level
			if !HaveSameParent(left.key, right.key, level) || KeyBit(left.key, level) != 0 || KeyBit(right.key, level) != 1 {
				return common.Hash{}, fmt.Errorf("%w: merged nodes are not siblings on level %d", ErrInvalidProof, level)
			}
			stack = stack[:len(stack)-1]
			stack[len(stack)-1] = entry{
				key:   left.key,
				level: level + 1,
				hash:  Merge(hasher, level, left.hash, right.hash),
			}

		default:
			return common.Hash{}, fmt.Errorf("%w: unknown opcode 0x%02x at offset %d", ErrInvalidProof, op, pc-1)
		}
	}

	if next != len(leaves) {
		return common.Hash{}, fmt.Errorf("%w: %d of %d claims not covered", ErrCorruptedStack, len(leaves)-next, len(leaves))
	}
	if len(stack) != 1 || stack[0].level != Depth {
		return common.Hash{}, fmt.Errorf("%w: program does not end in a single root", ErrCorruptedStack)
	}
	return stack[0].hash, nil
}
