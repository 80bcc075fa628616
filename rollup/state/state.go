// Copyright (c) 2025 Sonic Operations Ltd
//
// Use of this software is governed by the Business Source License included
// in the LICENSE file and at soniclabs.com/bsl11.
//
// Change Date: 2028-4-16
//
// On the date above, in accordance with the Business Source License, use of
// this software will be governed by the GNU Lesser General Public License v3.

package state

import (
	"fmt"

	"github.com/zmcNotafraid/godwoken/common"
	"github.com/zmcNotafraid/godwoken/database/smt"
	"github.com/zmcNotafraid/godwoken/database/smt/memory"
	"github.com/zmcNotafraid/godwoken/rollup/types"
	"golang.org/x/exp/maps"
)

// NonceUpdate sets the nonce of an account.
type NonceUpdate struct {
	AccountID uint32
	Nonce     uint32
}

// Update summarizes the account changes caused by a block.
type Update struct {
	CreatedAccounts []common.PubkeyHash
	Nonces          []NonceUpdate
}

// State is an in-memory account state backed by a sparse merkle tree.
type State struct {
	tree      *memory.Tree
	embedding Embedding
	count     uint32
}

// NewState creates a new state without any accounts.
func NewState() *State {
	return NewCustomState(memory.NewTree(common.Blake2bHasher{}), NewEmbedding())
}

// NewCustomState creates a state using the given tree and embedding.
func NewCustomState(tree *memory.Tree, embedding Embedding) *State {
	return &State{tree: tree, embedding: embedding}
}

// GetAccountCount returns the number of created accounts.
func (s *State) GetAccountCount() uint32 {
	return s.count
}

func (s *State) GetNonce(accountID uint32) (uint32, error) {
	value := s.tree.Get(GetNonceKey(s.embedding, accountID))
	nonce, ok := NonceFromValue(value)
	if !ok {
		return 0, fmt.Errorf("invalid nonce value of account %d: %v", accountID, value)
	}
	return nonce, nil
}

func (s *State) GetPubkeyHash(accountID uint32) common.PubkeyHash {
	value := s.tree.Get(s.embedding.GetKey(accountID, FieldPubkeyHash))
	return common.PubkeyHash(value[:common.PubkeyHashSize])
}

// Apply applies the given update. Accounts are created first and receive
// consecutive IDs.
func (s *State) Apply(update Update) error {
	for _, owner := range update.CreatedAccounts {
		s.tree.Set(s.embedding.GetKey(s.count, FieldPubkeyHash), PubkeyHashValue(owner))
		s.count++
	}
	for _, update := range update.Nonces {
		if update.AccountID >= s.count {
			return fmt.Errorf("nonce update of unknown account %d", update.AccountID)
		}
		s.tree.Set(GetNonceKey(s.embedding, update.AccountID), NonceValue(update.Nonce))
	}
	return nil
}

// GetMerkleState returns the summary of the account tree.
func (s *State) GetMerkleState() types.AccountMerkleState {
	return types.AccountMerkleState{MerkleRoot: s.tree.Root(), Count: s.count}
}

// Prove returns the current entries of the given keys together with a proof
// certifying them against the current root. Duplicate keys are reported
// once.
func (s *State) Prove(keys ...common.Hash) ([]types.KVPair, smt.CompiledProof, error) {
	unique := make(map[common.Hash]struct{}, len(keys))
	for _, key := range keys {
		unique[key] = struct{}{}
	}
	sorted := maps.Keys(unique)
	smt.SortKeys(sorted)

	proof, err := s.tree.Prove(sorted...)
	if err != nil {
		return nil, nil, err
	}
	pairs := make([]types.KVPair, 0, len(sorted))
	for _, key := range sorted {
		pairs = append(pairs, types.KVPair{Key: key, Value: s.tree.Get(key)})
	}
	return pairs, proof, nil
}

// Clone creates an independent copy of this state.
func (s *State) Clone() *State {
	return &State{tree: s.tree.Clone(), embedding: s.embedding, count: s.count}
}
