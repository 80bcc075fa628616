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
	"testing"

	"github.com/holiman/uint256"
	"github.com/stretchr/testify/require"
	"github.com/zmcNotafraid/godwoken/common"
	"github.com/zmcNotafraid/godwoken/database/smt"
	"github.com/zmcNotafraid/godwoken/rollup/devnet"
	"github.com/zmcNotafraid/godwoken/rollup/registry"
	"github.com/zmcNotafraid/godwoken/rollup/signature"
	"github.com/zmcNotafraid/godwoken/rollup/state"
	"github.com/zmcNotafraid/godwoken/rollup/types"
)

var rollupTypeHash = common.Hash{0x42}

type testEnv struct {
	chain       *devnet.Chain
	registry    registry.Registry
	aggregators []*signature.Signer
	owners      []*signature.Signer
	validator   *Validator
}

// newTestEnv creates a chain with the given number of aggregators and two
// accounts.
func newTestEnv(t *testing.T, numAggregators int) *testEnv {
	t.Helper()
	reg := registry.NewMemory()
	env := &testEnv{
		chain:     devnet.NewChain(reg),
		registry:  reg,
		validator: New(DefaultConfig(rollupTypeHash), reg),
	}
	for range numAggregators {
		signer, err := signature.GenerateSigner()
		require.NoError(t, err)
		_, err = env.chain.AddAggregator(signer, uint256.NewInt(5_000))
		require.NoError(t, err)
		env.aggregators = append(env.aggregators, signer)
	}
	for range 2 {
		signer, err := signature.GenerateSigner()
		require.NoError(t, err)
		env.owners = append(env.owners, signer)
	}
	_, err := env.chain.AddAccounts(env.owners...)
	require.NoError(t, err)
	return env
}

func (e *testEnv) produce(t *testing.T, spec devnet.BlockSpec) *devnet.Triple {
	t.Helper()
	triple, err := e.chain.Produce(spec)
	require.NoError(t, err)
	return triple
}

func (e *testEnv) verify(t *testing.T, triple *devnet.Triple) (*Context, error) {
	t.Helper()
	prev, block, post, err := triple.Encode()
	require.NoError(t, err)
	return e.validator.Verify(prev, block, post)
}

// rebuild applies the given modification to the raw block of the triple,
// adapts the post block root to the new block hash and renews the signature.
func (e *testEnv) rebuild(t *testing.T, triple *devnet.Triple, modify func(raw *types.RawBlock)) *devnet.Triple {
	t.Helper()
	return e.rebuildAndSign(t, triple, modify, e.chain.Sign)
}

func (e *testEnv) rebuildAndSign(
	t *testing.T,
	triple *devnet.Triple,
	modify func(raw *types.RawBlock),
	sign func(block *types.Block) error,
) *devnet.Triple {
	t.Helper()
	raw := triple.Block.Raw
	raw.SubmitTransactions.CompactedPostRootList = append([]common.Hash{}, raw.SubmitTransactions.CompactedPostRootList...)
	if raw.Join != nil {
		join := *raw.Join
		raw.Join = &join
	}
	modify(&raw)

	res := *triple
	res.Block = triple.Block.WithRaw(raw)
	root, err := smt.ComputeRoot(common.Blake2bHasher{}, res.Block.BlockProof, []smt.Leaf{{
		Key:   types.BlockSMTKey(triple.Block.Raw.Number),
		Value: res.Block.Hash(),
	}})
	require.NoError(t, err)
	res.Post.Block.MerkleRoot = root
	require.NoError(t, sign(res.Block))
	return &res
}

func TestValidator_AcceptsProducedBlocks(t *testing.T) {
	require := require.New(t)

	env := newTestEnv(t, 1)
	for i := range uint64(3) {
		ctx, err := env.verify(t, env.produce(t, devnet.BlockSpec{}))
		require.NoError(err)
		require.Equal(i, ctx.Number)
		require.Equal(rollupTypeHash, ctx.RollupTypeHash)
		require.Equal(uint32(2), ctx.AccountCount)
	}
}

func TestValidator_EmptyBlockFiveIsAccepted(t *testing.T) {
	require := require.New(t)

	env := newTestEnv(t, 1)
	for range 5 {
		env.produce(t, devnet.BlockSpec{})
	}
	triple := env.produce(t, devnet.BlockSpec{})
	require.Equal(uint64(5), triple.Prev.Block.Count)
	require.Equal(uint64(6), triple.Post.Block.Count)

	ctx, err := env.verify(t, triple)
	require.NoError(err)
	require.Equal(uint64(5), ctx.Number)
	require.Zero(ctx.KVPairs.Len())
	require.Equal(triple.Block.Hash(), ctx.BlockHash)
	require.Zero(ctx.TxCount)
	require.Empty(ctx.NonceUpdates)
	require.Nil(ctx.Joined)
}

func TestValidator_PostBlockCountMustBeNext(t *testing.T) {
	env := newTestEnv(t, 1)
	for range 5 {
		env.produce(t, devnet.BlockSpec{})
	}
	triple := env.produce(t, devnet.BlockSpec{})
	triple.Post.Block.Count = 7
	_, err := env.verify(t, triple)
	require.ErrorIs(t, err, ErrPrevGlobalState)
}

func TestValidator_SignatureOfOtherAggregatorIsRejected(t *testing.T) {
	env := newTestEnv(t, 6)
	triple := env.produce(t, devnet.BlockSpec{Aggregator: 2})
	require.NoError(t, devnet.SignWith(triple.Block, env.aggregators[5]))

	_, err := env.verify(t, triple)
	require.ErrorIs(t, err, ErrWrongSignature)
}

func TestValidator_SignatureOverOtherDigestIsRejected(t *testing.T) {
	env := newTestEnv(t, 1)
	triple := env.produce(t, devnet.BlockSpec{})
	sig, err := env.aggregators[0].Sign(common.Hash{1})
	require.NoError(t, err)
	triple.Block.Signature = sig

	_, err = env.verify(t, triple)
	require.ErrorIs(t, err, ErrWrongSignature)
}

func TestValidator_UnrecoverableSignatureIsRejected(t *testing.T) {
	env := newTestEnv(t, 1)
	triple := env.produce(t, devnet.BlockSpec{})
	triple.Block.Signature = types.Signature{}

	_, err := env.verify(t, triple)
	require.ErrorIs(t, err, ErrSecp256k1)
}

func TestValidator_TransitionViolationsAreDetected(t *testing.T) {
	tests := map[string]struct {
		modify func(t *testing.T, env *testEnv, triple *devnet.Triple) *devnet.Triple
		err    error
	}{
		"invalid block": {
			func(t *testing.T, env *testEnv, triple *devnet.Triple) *devnet.Triple {
				return env.rebuild(t, triple, func(raw *types.RawBlock) { raw.Valid = false })
			},
			ErrSubmitInvalidBlock,
		},
		"block number skipped": {
			func(t *testing.T, env *testEnv, triple *devnet.Triple) *devnet.Triple {
				return env.rebuild(t, triple, func(raw *types.RawBlock) { raw.Number++ })
			},
			ErrPrevGlobalState,
		},
		"block already in history": {
			func(t *testing.T, env *testEnv, triple *devnet.Triple) *devnet.Triple {
				triple.Prev.Block.MerkleRoot = triple.Post.Block.MerkleRoot
				return triple
			},
			ErrMerkleProof,
		},
		"block missing in post history": {
			func(t *testing.T, env *testEnv, triple *devnet.Triple) *devnet.Triple {
				triple.Post.Block.MerkleRoot = common.Hash{1}
				return triple
			},
			ErrMerkleProof,
		},
		"corrupted block proof": {
			func(t *testing.T, env *testEnv, triple *devnet.Triple) *devnet.Triple {
				triple.Block.BlockProof = append(smt.CompiledProof{}, triple.Block.BlockProof...)
				triple.Block.BlockProof[0] ^= 0xFF
				return triple
			},
			ErrMerkleProof,
		},
		"kv state not in prev state": {
			func(t *testing.T, env *testEnv, triple *devnet.Triple) *devnet.Triple {
				triple.Block.KVState[0].Value[0]++
				return triple
			},
			ErrMerkleProof,
		},
		"conflicting kv state": {
			func(t *testing.T, env *testEnv, triple *devnet.Triple) *devnet.Triple {
				pair := triple.Block.KVState[0]
				pair.Value[1]++
				triple.Block.KVState = append(triple.Block.KVState, pair)
				return triple
			},
			ErrEncoding,
		},
		"prev account mismatch": {
			func(t *testing.T, env *testEnv, triple *devnet.Triple) *devnet.Triple {
				return env.rebuild(t, triple, func(raw *types.RawBlock) { raw.PrevAccount.Count++ })
			},
			ErrPrevGlobalState,
		},
		"post account mismatch": {
			func(t *testing.T, env *testEnv, triple *devnet.Triple) *devnet.Triple {
				triple.Post.Account.MerkleRoot = common.Hash{1}
				return triple
			},
			ErrPostGlobalState,
		},
		"account count shrinks": {
			func(t *testing.T, env *testEnv, triple *devnet.Triple) *devnet.Triple {
				res := env.rebuild(t, triple, func(raw *types.RawBlock) { raw.PostAccount.Count = 1 })
				res.Post.Account.Count = 1
				return res
			},
			ErrPostGlobalState,
		},
	}
	for name, test := range tests {
		t.Run(name, func(t *testing.T) {
			env := newTestEnv(t, 1)
			triple := env.produce(t, devnet.BlockSpec{Transactions: []types.RawTransaction{
				{FromID: 0, ToID: 1, Nonce: 0},
			}})
			_, err := env.verify(t, test.modify(t, env, triple))
			require.ErrorIs(t, err, test.err)
		})
	}
}

func TestValidator_MalformedInputsAreRejected(t *testing.T) {
	env := newTestEnv(t, 1)
	prev, block, post, err := env.produce(t, devnet.BlockSpec{}).Encode()
	require.NoError(t, err)

	truncated := func(data []byte) []byte { return data[:len(data)-1] }
	for name, inputs := range map[string][3][]byte{
		"prev":  {truncated(prev), block, post},
		"block": {prev, truncated(block), post},
		"post":  {prev, block, truncated(post)},
		"empty": {nil, nil, nil},
	} {
		t.Run(name, func(t *testing.T) {
			_, err := env.validator.Verify(inputs[0], inputs[1], inputs[2])
			require.ErrorIs(t, err, ErrEncoding)
			require.Equal(t, 4, ErrorCode(err))
		})
	}
}

func TestValidator_IneligibleAggregatorsAreRejected(t *testing.T) {
	t.Run("unknown", func(t *testing.T) {
		env := newTestEnv(t, 1)
		triple := env.produce(t, devnet.BlockSpec{})
		triple = env.rebuildAndSign(t, triple,
			func(raw *types.RawBlock) { raw.AggregatorID = 3 },
			func(block *types.Block) error { return devnet.SignWith(block, env.aggregators[0]) },
		)
		_, err := env.verify(t, triple)
		require.ErrorIs(t, err, ErrInvalidAggregator)
		require.ErrorIs(t, err, registry.ErrUnknownAggregator)
	})

	t.Run("insufficient stake", func(t *testing.T) {
		env := newTestEnv(t, 0)
		signer, err := signature.GenerateSigner()
		require.NoError(t, err)
		_, err = env.chain.AddAggregator(signer, uint256.NewInt(10))
		require.NoError(t, err)

		_, err = env.verify(t, env.produce(t, devnet.BlockSpec{}))
		require.ErrorIs(t, err, ErrInvalidAggregator)
	})
}

func TestValidator_UnsignedRawBlockChangesAreRejected(t *testing.T) {
	require := require.New(t)

	env := newTestEnv(t, 1)
	triple := env.produce(t, devnet.BlockSpec{})
	intruder, err := signature.GenerateSigner()
	require.NoError(err)

	triple.Block.Raw.Join = &types.JoinRequest{
		AggregatorID: 1,
		PubkeyHash:   intruder.PubkeyHash(common.Blake2bHasher{}),
		Stake:        uint256.NewInt(5_000),
	}
	ctx, err := env.validator.VerifyBlock(triple.Block, &triple.Prev, &triple.Post)
	require.ErrorIs(err, ErrEncoding)
	require.Nil(ctx)
}

func TestValidator_BlockLiteralsAreBoundToTheirRawBlock(t *testing.T) {
	require := require.New(t)

	env := newTestEnv(t, 1)
	triple := env.produce(t, devnet.BlockSpec{})
	literal := &types.Block{
		Raw:          triple.Block.Raw,
		Signature:    triple.Block.Signature,
		KVState:      triple.Block.KVState,
		KVStateProof: triple.Block.KVStateProof,
		Transactions: triple.Block.Transactions,
		BlockProof:   triple.Block.BlockProof,
	}
	_, err := env.validator.VerifyBlock(literal, &triple.Prev, &triple.Post)
	require.NoError(err)

	// Changing the raw block of a literal changes its hash, which is no
	// longer part of the post block history.
	literal.Raw.Timestamp++
	_, err = env.validator.VerifyBlock(literal, &triple.Prev, &triple.Post)
	require.ErrorIs(err, ErrMerkleProof)
}

func TestValidator_DerivesAccountKeysWithoutCache(t *testing.T) {
	validator := New(DefaultConfig(rollupTypeHash), registry.NewMemory())
	require.Equal(t, state.Embedding(state.Blake2bEmbedding{}), validator.dispatcher.embedding)
}
