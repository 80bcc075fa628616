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

	"github.com/0xsoniclabs/tracy"
	"github.com/zmcNotafraid/godwoken/common"
	"github.com/zmcNotafraid/godwoken/database/smt"
	"github.com/zmcNotafraid/godwoken/rollup/types"
)

// VerifyTransition checks that the block moves the rollup from the prev to
// the post global state. Checks are performed in a fixed order and the first
// failing check determines the result. The root of the post account tree is
// accepted as claimed.
func VerifyTransition(
	hasher common.Hasher,
	rollupTypeHash common.Hash,
	block *types.Block,
	prev, post *types.GlobalState,
) (*Context, error) {
	zone := tracy.ZoneBegin("validator::verify_transition")
	defer zone.End()

	// The signed block hash must describe the checked raw block.
	if err := block.CheckRaw(); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrEncoding, err)
	}

	raw := &block.Raw
	if !raw.Valid {
		return nil, ErrSubmitInvalidBlock
	}

	// The block must not be part of the previous block history.
	number := raw.Number
	if number != prev.Block.Count {
		return nil, fmt.Errorf("%w: block %d does not follow block count %d", ErrPrevGlobalState, number, prev.Block.Count)
	}
	blockKey := types.BlockSMTKey(number)
	if err := verifyProof(hasher, prev.Block.MerkleRoot, block.BlockProof, []smt.Leaf{{Key: blockKey}}); err != nil {
		return nil, fmt.Errorf("%w: block %d already in history: %w", ErrMerkleProof, number, err)
	}

	// The same proof must place the block into the post block history.
	if post.Block.Count != number+1 {
		return nil, fmt.Errorf("%w: post block count %d, expected %d", ErrPrevGlobalState, post.Block.Count, number+1)
	}
	blockHash := block.Hash()
	if err := verifyProof(hasher, post.Block.MerkleRoot, block.BlockProof, []smt.Leaf{{Key: blockKey, Value: blockHash}}); err != nil {
		return nil, fmt.Errorf("%w: block %d not in post history: %w", ErrMerkleProof, number, err)
	}

	// The proven account entries must be part of the previous account tree.
	kvPairs, err := NewKVPairs(block.KVState)
	if err != nil {
		return nil, err
	}
	if err := verifyProof(hasher, prev.Account.MerkleRoot, block.KVStateProof, kvPairs.Leaves()); err != nil {
		return nil, fmt.Errorf("%w: kv state: %w", ErrMerkleProof, err)
	}

	if raw.PrevAccount != prev.Account {
		return nil, fmt.Errorf("%w: account state mismatch", ErrPrevGlobalState)
	}
	if raw.PostAccount != post.Account {
		return nil, fmt.Errorf("%w: account state mismatch", ErrPostGlobalState)
	}
	if post.Account.Count < prev.Account.Count {
		return nil, fmt.Errorf("%w: account count shrinks from %d to %d", ErrPostGlobalState, prev.Account.Count, post.Account.Count)
	}

	return &Context{
		Number:         number,
		AggregatorID:   raw.AggregatorID,
		KVPairs:        kvPairs,
		KVMerkleProof:  block.KVStateProof,
		AccountCount:   prev.Account.Count,
		RollupTypeHash: rollupTypeHash,
		BlockHash:      blockHash,
	}, nil
}

// errProofMismatch is reported for well-formed proofs leading to another root.
const errProofMismatch = common.ConstError("root mismatch")

func verifyProof(hasher common.Hasher, root common.Hash, proof smt.CompiledProof, claims []smt.Leaf) error {
	ok, err := smt.Verify(hasher, root, proof, claims)
	if err != nil {
		return err
	}
	if !ok {
		return errProofMismatch
	}
	return nil
}
