// Copyright (c) 2025 Sonic Operations Ltd
//
// Use of this software is governed by the Business Source License included
// in the LICENSE file and at soniclabs.com/bsl11.
//
// Change Date: 2028-4-16
//
// On the date above, in accordance with the Business Source License, use of
// this software will be governed by the GNU Lesser General Public License v3.

// Package types defines the rollup's data model: the global state committed
// on the layer-1 chain, layer-2 blocks and their transactions, as well as the
// versioned binary encoding in which they are handed to the validator.
package types

import (
	"github.com/zmcNotafraid/godwoken/common"
)

// AccountMerkleState summarizes the account-state tree of the rollup.
type AccountMerkleState struct {
	MerkleRoot common.Hash
	Count      uint32
}

// BlockMerkleState summarizes the block-history tree of the rollup. Count is
// the number of blocks accepted so far, which is also the number of the next
// block.
type BlockMerkleState struct {
	MerkleRoot common.Hash
	Count      uint64
}

// GlobalState is the snapshot of the rollup committed on the layer-1 chain
// before and after a block.
type GlobalState struct {
	Account AccountMerkleState
	Block   BlockMerkleState
}

// DecodeGlobalState parses a versioned global state buffer. The input must
// contain exactly one encoded state.
func DecodeGlobalState(data []byte, limits Limits) (*GlobalState, error) {
	res := &GlobalState{}
	if err := decodeVersioned(data, limits.MaxInputSize, res); err != nil {
		return nil, err
	}
	return res, nil
}

// EncodeGlobalState produces the versioned encoding of the given state.
func EncodeGlobalState(state *GlobalState) ([]byte, error) {
	return encodeVersioned(state)
}
