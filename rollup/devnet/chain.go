// Copyright (c) 2025 Sonic Operations Ltd
//
// Use of this software is governed by the Business Source License included
// in the LICENSE file and at soniclabs.com/bsl11.
//
// Change Date: 2028-4-16
//
// On the date above, in accordance with the Business Source License, use of
// this software will be governed by the GNU Lesser General Public License v3.

// Package devnet simulates a rollup chain producing well-formed blocks. It is
// used to generate verifier inputs for tests and local experiments.
package devnet

import (
	"fmt"

	"github.com/holiman/uint256"
	"github.com/zmcNotafraid/godwoken/common"
	"github.com/zmcNotafraid/godwoken/database/smt/memory"
	"github.com/zmcNotafraid/godwoken/rollup/registry"
	"github.com/zmcNotafraid/godwoken/rollup/signature"
	"github.com/zmcNotafraid/godwoken/rollup/state"
	"github.com/zmcNotafraid/godwoken/rollup/types"
)

// GenesisTimestamp is the timestamp of block 0.
const GenesisTimestamp = 1_600_000_000

// Triple is the input of a block verification.
type Triple struct {
	Prev  types.GlobalState
	Block *types.Block
	Post  types.GlobalState
}

// BlockSpec describes the content of a block to be produced.
type BlockSpec struct {
	Aggregator   uint32
	Transactions []types.RawTransaction
	// Join optionally registers the given signer as a new aggregator.
	Join      *signature.Signer
	JoinStake *uint256.Int
}

// Chain is an in-memory rollup chain. It maintains the block history, the
// account state and the keys of all participants.
type Chain struct {
	hasher     common.Hasher
	registry   registry.Registry
	blocks     *memory.Tree
	blockCount uint64
	accounts   *state.State
	signers    map[common.PubkeyHash]*signature.Signer
	owners     []*signature.Signer
}

// NewChain creates an empty chain registering aggregators in the given
// registry.
func NewChain(reg registry.Registry) *Chain {
	return &Chain{
		hasher:   common.Blake2bHasher{},
		registry: reg,
		blocks:   memory.NewTree(common.Blake2bHasher{}),
		accounts: state.NewState(),
		signers:  map[common.PubkeyHash]*signature.Signer{},
	}
}

// GetGlobalState returns the current global state of the chain.
func (c *Chain) GetGlobalState() types.GlobalState {
	return types.GlobalState{
		Account: c.accounts.GetMerkleState(),
		Block:   types.BlockMerkleState{MerkleRoot: c.blocks.Root(), Count: c.blockCount},
	}
}

// GetState returns the account state of the chain. Producing a block
// replaces the state, the returned one is not updated.
func (c *Chain) GetState() *state.State {
	return c.accounts
}

// AddAggregator registers the given signer as an aggregator eligible from
// the next block on.
func (c *Chain) AddAggregator(signer *signature.Signer, stake *uint256.Int) (uint32, error) {
	id, err := c.registry.NextAggregatorID()
	if err != nil {
		return 0, err
	}
	pubkeyHash := signer.PubkeyHash(c.hasher)
	if err := c.registry.Register(registry.Aggregator{
		ID:         id,
		PubkeyHash: pubkeyHash,
		Stake:      stake,
		JoinedAt:   c.blockCount,
	}); err != nil {
		return 0, err
	}
	c.signers[pubkeyHash] = signer
	return id, nil
}

// AddAccounts creates accounts owned by the given signers outside of any
// block, as done for the genesis state. It returns the ID of the first
// created account.
func (c *Chain) AddAccounts(owners ...*signature.Signer) (uint32, error) {
	first := c.accounts.GetAccountCount()
	update := state.Update{}
	for _, owner := range owners {
		update.CreatedAccounts = append(update.CreatedAccounts, owner.PubkeyHash(c.hasher))
	}
	if err := c.accounts.Apply(update); err != nil {
		return 0, err
	}
	c.owners = append(c.owners, owners...)
	return first, nil
}

// Produce creates the next block of the chain and advances the chain to the
// state after the block. Aggregators joining through the block are
// registered by Commit once the block got accepted.
func (c *Chain) Produce(spec BlockSpec) (*Triple, error) {
	prev := c.GetGlobalState()
	number := c.blockCount

	aggregator, err := c.registry.GetAggregator(spec.Aggregator)
	if err != nil {
		return nil, err
	}
	producer, found := c.signers[aggregator.PubkeyHash]
	if !found {
		return nil, fmt.Errorf("no key for aggregator %d", spec.Aggregator)
	}

	// Sign transactions and prove the nonces of all senders.
	txs := make([]types.Transaction, 0, len(spec.Transactions))
	keys := make([]common.Hash, 0, len(spec.Transactions))
	for _, raw := range spec.Transactions {
		if int(raw.FromID) >= len(c.owners) {
			return nil, fmt.Errorf("no key for account %d", raw.FromID)
		}
		tx := types.Transaction{Raw: raw}
		if tx.Signature, err = c.owners[raw.FromID].Sign(tx.Hash()); err != nil {
			return nil, err
		}
		txs = append(txs, tx)
		keys = append(keys, state.GetNonceKey(state.Blake2bEmbedding{}, raw.FromID))
	}
	kvState, kvProof, err := c.accounts.Prove(keys...)
	if err != nil {
		return nil, err
	}

	// Apply transactions one by one to obtain the intermediate roots. Updates
	// are staged on a copy of the state until the block is complete.
	accounts := c.accounts.Clone()
	postRoots := make([]common.Hash, 0, len(txs))
	for _, tx := range txs {
		err := accounts.Apply(state.Update{Nonces: []state.NonceUpdate{{
			AccountID: tx.Raw.FromID,
			Nonce:     tx.Raw.Nonce + 1,
		}}})
		if err != nil {
			return nil, err
		}
		postRoots = append(postRoots, accounts.GetMerkleState().MerkleRoot)
	}

	raw := types.RawBlock{
		Number:       number,
		AggregatorID: spec.Aggregator,
		Timestamp:    GenesisTimestamp + number,
		PrevAccount:  prev.Account,
		PostAccount:  accounts.GetMerkleState(),
		Valid:        true,
		SubmitTransactions: types.SubmitTransactions{
			TxWitnessRoot:         types.TxWitnessRoot(txs),
			TxCount:               uint32(len(txs)),
			CompactedPostRootList: postRoots,
		},
	}
	if spec.Join != nil {
		next, err := c.registry.NextAggregatorID()
		if err != nil {
			return nil, err
		}
		stake := spec.JoinStake
		if stake == nil {
			stake = new(uint256.Int)
		}
		pubkeyHash := spec.Join.PubkeyHash(c.hasher)
		raw.Join = &types.JoinRequest{AggregatorID: next, PubkeyHash: pubkeyHash, Stake: stake}
	}

	block := types.NewBlock(raw)
	block.KVState = kvState
	block.KVStateProof = kvProof
	block.Transactions = txs

	blockKey := types.BlockSMTKey(number)
	if block.BlockProof, err = c.blocks.Prove(blockKey); err != nil {
		return nil, err
	}
	if block.Signature, err = producer.Sign(block.Hash()); err != nil {
		return nil, err
	}
	c.accounts = accounts
	if spec.Join != nil {
		c.signers[raw.Join.PubkeyHash] = spec.Join
	}
	c.blocks.Set(blockKey, block.Hash())
	c.blockCount++

	return &Triple{Prev: prev, Block: block, Post: c.GetGlobalState()}, nil
}

// Commit registers the aggregator joining through an accepted block.
func (c *Chain) Commit(joined *registry.Aggregator) error {
	if joined == nil {
		return nil
	}
	return c.registry.Register(*joined)
}

// Sign renews the signature of the given block using the key of the
// aggregator it names.
func (c *Chain) Sign(block *types.Block) error {
	aggregator, err := c.registry.GetAggregator(block.Raw.AggregatorID)
	if err != nil {
		return err
	}
	signer, found := c.signers[aggregator.PubkeyHash]
	if !found {
		return fmt.Errorf("no key for aggregator %d", block.Raw.AggregatorID)
	}
	block.Signature, err = signer.Sign(block.Hash())
	return err
}

// SignWith signs the given block with the given key.
func SignWith(block *types.Block, signer *signature.Signer) error {
	var err error
	block.Signature, err = signer.Sign(block.Hash())
	return err
}
