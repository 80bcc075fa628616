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
	"errors"
	"fmt"

	"github.com/zmcNotafraid/godwoken/common"
	"github.com/zmcNotafraid/godwoken/rollup/registry"
	"github.com/zmcNotafraid/godwoken/rollup/signature"
	"github.com/zmcNotafraid/godwoken/rollup/types"
)

// Authorizer checks that a block was produced by an eligible aggregator.
type Authorizer struct {
	hasher    common.Hasher
	registry  registry.Registry
	recoverer signature.Recoverer
	policy    registry.Policy
}

func NewAuthorizer(
	hasher common.Hasher,
	reg registry.Registry,
	recoverer signature.Recoverer,
	policy registry.Policy,
) *Authorizer {
	return &Authorizer{hasher: hasher, registry: reg, recoverer: recoverer, policy: policy}
}

// VerifyAggregator checks that the aggregator of the block is registered and
// eligible under the policy, and returns its registration.
func (a *Authorizer) VerifyAggregator(ctx *Context) (registry.Aggregator, error) {
	aggregator, err := a.registry.GetAggregator(ctx.AggregatorID)
	if errors.Is(err, registry.ErrUnknownAggregator) {
		return registry.Aggregator{}, fmt.Errorf("%w: %w", ErrInvalidAggregator, err)
	}
	if err != nil {
		return registry.Aggregator{}, fmt.Errorf("failed to look up aggregator %d: %w", ctx.AggregatorID, err)
	}
	if !a.policy.IsEligible(aggregator, ctx.Number) {
		return registry.Aggregator{}, fmt.Errorf("%w: aggregator %d may not produce block %d", ErrInvalidAggregator, ctx.AggregatorID, ctx.Number)
	}
	return aggregator, nil
}

// VerifyBlockSignature checks that the block hash was signed by the key
// registered for the aggregator.
func (a *Authorizer) VerifyBlockSignature(ctx *Context, aggregator registry.Aggregator, block *types.Block) error {
	pubkey, err := a.recoverer.RecoverPubkey(ctx.BlockHash, block.Signature)
	if err != nil {
		return fmt.Errorf("%w: %w", ErrSecp256k1, err)
	}
	if got := common.GetPubkeyHash(a.hasher, pubkey); got != aggregator.PubkeyHash {
		return fmt.Errorf("%w: signed by %v, aggregator %d is %v", ErrWrongSignature, got, aggregator.ID, aggregator.PubkeyHash)
	}
	return nil
}
