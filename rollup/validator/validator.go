// Copyright (c) 2025 Sonic Operations Ltd
//
// Use of this software is governed by the Business Source License included
// in the LICENSE file and at soniclabs.com/bsl11.
//
// Change Date: 2028-4-16
//
// On the date above, in accordance with the Business Source License, use of
// this software will be governed by the GNU Lesser General Public License v3.

// Package validator decides whether a layer-2 block is a valid transition
// between two committed global states of the rollup.
//
// Verification proceeds in stages: the transition check establishes the
// block's position in the block history and the proven account entries, the
// authorizer checks the aggregator and its signature, and the action handlers
// check the payload of the block. The first failing stage determines the
// result.
package validator

import (
	"fmt"

	"github.com/0xsoniclabs/tracy"
	"github.com/ethereum/go-ethereum/log"
	"github.com/zmcNotafraid/godwoken/common"
	"github.com/zmcNotafraid/godwoken/rollup/registry"
	"github.com/zmcNotafraid/godwoken/rollup/signature"
	"github.com/zmcNotafraid/godwoken/rollup/state"
	"github.com/zmcNotafraid/godwoken/rollup/types"
)

// Validator verifies blocks. It holds no state between calls and may be used
// concurrently if its registry can.
type Validator struct {
	config     Config
	hasher     common.Hasher
	authorizer *Authorizer
	dispatcher *actionDispatcher
	logger     log.Logger
}

type options struct {
	hasher    common.Hasher
	recoverer signature.Recoverer
	embedding state.Embedding
	logger    log.Logger
}

// Option customizes the collaborators of a validator.
type Option func(*options)

func WithHasher(hasher common.Hasher) Option {
	return func(o *options) { o.hasher = hasher }
}

func WithRecoverer(recoverer signature.Recoverer) Option {
	return func(o *options) { o.recoverer = recoverer }
}

func WithEmbedding(embedding state.Embedding) Option {
	return func(o *options) { o.embedding = embedding }
}

func WithLogger(logger log.Logger) Option {
	return func(o *options) { o.logger = logger }
}

// New creates a validator checking blocks against the given registry.
func New(config Config, reg registry.Registry, opts ...Option) *Validator {
	o := options{
		hasher:    common.Blake2bHasher{},
		recoverer: signature.Secp256k1{},
		embedding: state.Blake2bEmbedding{},
		logger:    log.Root(),
	}
	for _, opt := range opts {
		opt(&o)
	}
	return &Validator{
		config:     config,
		hasher:     o.hasher,
		authorizer: NewAuthorizer(o.hasher, reg, o.recoverer, config.Policy),
		dispatcher: &actionDispatcher{
			embedding: o.embedding,
			registry:  reg,
			policy:    config.Policy,
		},
		logger: o.logger,
	}
}

// Verify decodes the given inputs and verifies the block. The resulting
// context is only returned for accepted blocks.
func (v *Validator) Verify(prev, block, post []byte) (*Context, error) {
	zone := tracy.ZoneBegin("validator::verify")
	defer zone.End()

	prevState, err := types.DecodeGlobalState(prev, v.config.Limits)
	if err != nil {
		return nil, v.reject(fmt.Errorf("%w: prev global state: %w", ErrEncoding, err))
	}
	postState, err := types.DecodeGlobalState(post, v.config.Limits)
	if err != nil {
		return nil, v.reject(fmt.Errorf("%w: post global state: %w", ErrEncoding, err))
	}
	decoded, err := types.DecodeBlock(block, v.config.Limits)
	if err != nil {
		return nil, v.reject(fmt.Errorf("%w: block: %w", ErrEncoding, err))
	}
	return v.VerifyBlock(decoded, prevState, postState)
}

// VerifyBlock verifies an already decoded block.
func (v *Validator) VerifyBlock(block *types.Block, prev, post *types.GlobalState) (*Context, error) {
	ctx, err := VerifyTransition(v.hasher, v.config.RollupTypeHash, block, prev, post)
	if err != nil {
		return nil, v.reject(err)
	}
	v.logger.Trace("Transition verified", "number", ctx.Number, "hash", ctx.BlockHash, "kvPairs", ctx.KVPairs.Len())

	aggregator, err := v.authorizer.VerifyAggregator(ctx)
	if err != nil {
		return nil, v.reject(err)
	}
	if err := v.authorizer.VerifyBlockSignature(ctx, aggregator, block); err != nil {
		return nil, v.reject(err)
	}
	v.logger.Trace("Aggregator verified", "number", ctx.Number, "aggregator", ctx.AggregatorID)

	if err := v.dispatcher.dispatch(ctx, block); err != nil {
		return nil, v.reject(err)
	}
	v.logger.Debug("Block accepted", "number", ctx.Number, "hash", ctx.BlockHash,
		"aggregator", ctx.AggregatorID, "txs", ctx.TxCount, "joined", ctx.Joined != nil)
	return ctx, nil
}

func (v *Validator) reject(err error) error {
	v.logger.Debug("Block rejected", "code", ErrorCode(err), "err", err)
	return err
}
