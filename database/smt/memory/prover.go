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

// prove emits the program proving the given keys of the region of the
// given level whose content is n. Keys must be sorted, distinct and located
// in the region.
func prove(w *programWriter, hasher common.Hasher, n node, keys []common.Hash, level int) {
	if level == 0 {
		w.leaf()
		return
	}
	bit := level - 1
	// Within a region keys differ only in bits below its level, so the
	// canonical order lists all keys with a cleared bit first.
	split := len(keys)
	for i, key := range keys {
		if smt.KeyBit(key, bit) == 1 {
			split = i
			break
		}
	}
	children := childrenOn(n, bit)
	left, right := keys[:split], keys[split:]
	switch {
	case len(left) > 0 && len(right) > 0:
		prove(w, hasher, children[0], left, bit)
		prove(w, hasher, children[1], right, bit)
		w.merge()
	case len(left) > 0:
		prove(w, hasher, children[0], left, bit)
		w.sibling(hashOn(children[1], hasher, bit))
	default:
		prove(w, hasher, children[1], right, bit)
		w.sibling(hashOn(children[0], hasher, bit))
	}
}

// childrenOn splits the content of a region into the content of its two
// halves divided by the given bit.
func childrenOn(n node, bit int) [2]node {
	var res [2]node
	if n == nil {
		return res
	}
	if in, ok := n.(*inner); ok && in.split == bit {
		return in.children
	}
	res[smt.KeyBit(n.anyKey(), bit)] = n
	return res
}

// programWriter assembles compiled proofs. Runs of empty siblings are
// folded into a single zeros instruction where possible.
type programWriter struct {
	program   []byte
	lastZeros int // < position of the count of a trailing zeros instruction, or -1
}

func (w *programWriter) leaf() {
	w.program = append(w.program, smt.OpLeaf)
	w.lastZeros = -1
}

func (w *programWriter) merge() {
	w.program = append(w.program, smt.OpMerge)
	w.lastZeros = -1
}

func (w *programWriter) sibling(hash common.Hash) {
	if hash.IsZero() {
		w.zeros(1)
		return
	}
	w.program = append(w.program, smt.OpSibling)
	w.program = append(w.program, hash[:]...)
	w.lastZeros = -1
}

// zeros appends n merges with empty siblings. A count byte of 0 encodes 256.
func (w *programWriter) zeros(n int) {
	for n > 0 {
		if w.lastZeros >= 0 {
			current := int(w.program[w.lastZeros])
			if current == 0 {
				current = smt.Depth
			}
			if current < smt.Depth {
				add := min(n, smt.Depth-current)
				w.program[w.lastZeros] = byte((current + add) % smt.Depth)
				n -= add
				continue
			}
		}
		add := min(n, smt.Depth)
		w.program = append(w.program, smt.OpZeros, byte(add%smt.Depth))
		w.lastZeros = len(w.program) - 1
		n -= add
	}
}
