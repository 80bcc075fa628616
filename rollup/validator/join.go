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

	"github.com/holiman/uint256"
	"github.com/zmcNotafraid/godwoken/rollup/registry"
	"github.com/zmcNotafraid/godwoken/rollup/types"
)

// joinHandler checks a request of a new aggregator to join the pool. The
// new aggregator may produce blocks following the joining block.
type joinHandler struct {
	registry registry.Registry
	policy   registry.Policy
}

func (h joinHandler) handle(ctx *Context, block *types.Block) error {
	join := block.Raw.Join
	if join == nil {
		return nil
	}
	next, err := h.registry.NextAggregatorID()
	if err != nil {
		return fmt.Errorf("failed to get next aggregator slot: %w", err)
	}
	if join.AggregatorID != next {
		return fmt.Errorf("%w: requested %d, next free slot is %d", ErrInvalidRegistrationSlot, join.AggregatorID, next)
	}
	existing, found, err := h.registry.FindAggregator(join.PubkeyHash)
	if err != nil {
		return fmt.Errorf("failed to look up aggregator key %v: %w", join.PubkeyHash, err)
	}
	if found {
		return fmt.Errorf("%w: key %v owned by aggregator %d", ErrAggregatorAlreadyRegistered, join.PubkeyHash, existing.ID)
	}
	if !h.policy.HasSufficientStake(join.Stake) {
		return fmt.Errorf("%w: stake %v, required %v", ErrInsufficientStake, join.Stake, h.policy.MinStake)
	}

	stake := new(uint256.Int)
	if join.Stake != nil {
		stake.Set(join.Stake)
	}
	ctx.Joined = &registry.Aggregator{
		ID:         join.AggregatorID,
		PubkeyHash: join.PubkeyHash,
		Stake:      stake,
		JoinedAt:   ctx.Number + 1,
	}
	return nil
}
