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
	"math"

	"github.com/zmcNotafraid/godwoken/rollup/state"
	"github.com/zmcNotafraid/godwoken/rollup/types"
)

// submitTransactionsHandler checks the transactions included in a block
// against the account state proven by the block.
type submitTransactionsHandler struct {
	embedding state.Embedding
}

func (h submitTransactionsHandler) handle(ctx *Context, block *types.Block) error {
	submit := &block.Raw.SubmitTransactions
	txs := block.Transactions
	if uint64(len(txs)) != uint64(submit.TxCount) {
		return fmt.Errorf("%w: %d transactions, header states %d", ErrInvalidTxCount, len(txs), submit.TxCount)
	}
	if len(submit.CompactedPostRootList) != len(txs) {
		return fmt.Errorf("%w: %d post roots for %d transactions", ErrInvalidPostRootList, len(submit.CompactedPostRootList), len(txs))
	}
	if root := types.TxWitnessRoot(txs); root != submit.TxWitnessRoot {
		return fmt.Errorf("%w: got %v, header states %v", ErrInvalidTxWitnessRoot, root, submit.TxWitnessRoot)
	}

	nonces := map[uint32]uint32{}
	senders := []uint32{}
	for i := range txs {
		raw := &txs[i].Raw
		if raw.FromID >= ctx.AccountCount {
			return fmt.Errorf("%w: transaction %d sent by account %d of %d", ErrUnknownAccount, i, raw.FromID, ctx.AccountCount)
		}
		next, seen := nonces[raw.FromID]
		if !seen {
			key := state.GetNonceKey(h.embedding, raw.FromID)
			value, found := ctx.KVPairs.Get(key)
			if !found {
				return fmt.Errorf("%w: nonce of account %d", ErrMissingKVState, raw.FromID)
			}
			nonce, ok := state.NonceFromValue(value)
			if !ok {
				return fmt.Errorf("%w: malformed nonce of account %d", ErrInvalidNonce, raw.FromID)
			}
			next = nonce
			senders = append(senders, raw.FromID)
		}
		if raw.Nonce != next {
			return fmt.Errorf("%w: transaction %d uses nonce %d, expected %d", ErrInvalidNonce, i, raw.Nonce, next)
		}
		if next == math.MaxUint32 {
			return fmt.Errorf("%w: nonce of account %d exhausted", ErrInvalidNonce, raw.FromID)
		}
		nonces[raw.FromID] = next + 1
	}

	updates := make([]state.NonceUpdate, 0, len(senders))
	for _, sender := range senders {
		updates = append(updates, state.NonceUpdate{AccountID: sender, Nonce: nonces[sender]})
	}
	ctx.TxCount = submit.TxCount
	ctx.NonceUpdates = updates
	return nil
}
