// Copyright (c) 2025 Sonic Operations Ltd
//
// Use of this software is governed by the Business Source License included
// in the LICENSE file and at soniclabs.com/bsl11.
//
// Change Date: 2028-4-16
//
// On the date above, in accordance with the Business Source License, use of
// this software will be governed by the GNU Lesser General Public License v3.

package validator

import (
	"fmt"
	"slices"

	"github.com/zmcNotafraid/godwoken/common"
	"github.com/zmcNotafraid/godwoken/database/smt"
	"github.com/zmcNotafraid/godwoken/rollup/types"
)

// KVPairs is the set of account-state entries proven by a block, sorted in
// canonical key order with unique keys.
type KVPairs struct {
	entries []smt.Leaf
}

// NewKVPairs builds the set from the kv_state of a block. Repeated entries
// with the same value are merged, conflicting ones are rejected.
func NewKVPairs(pairs []types.KVPair) (KVPairs, error) {
	entries := make([]smt.Leaf, 0, len(pairs))
	for _, pair := range pairs {
		entries = append(entries, smt.Leaf{Key: pair.Key, Value: pair.Value})
	}
	smt.SortLeaves(entries)
	res := entries[:0]
	for _, entry := range entries {
		if n := len(res); n > 0 && res[n-1].Key == entry.Key {
			if res[n-1].Value != entry.Value {
				return KVPairs{}, fmt.Errorf("%w: conflicting values for key %v", ErrEncoding, entry.Key)
			}
			continue
		}
		res = append(res, entry)
	}
	return KVPairs{entries: slices.Clip(res)}, nil
}

// Get returns the proven value of the given key.
func (p KVPairs) Get(key common.Hash) (common.Hash, bool) {
	pos, found := slices.BinarySearchFunc(p.entries, key, func(entry smt.Leaf, key common.Hash) int {
		return smt.CompareKeys(entry.Key, key)
	})
	if !found {
		return common.Hash{}, false
	}
	return p.entries[pos].Value, true
}

func (p KVPairs) Len() int {
	return len(p.entries)
}

// Leaves returns the entries as proof claims.
func (p KVPairs) Leaves() []smt.Leaf {
	return slices.Clone(p.entries)
}
