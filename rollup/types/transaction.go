// Copyright (c) 2025 Sonic Operations Ltd
//
// Use of this software is governed by the Business Source License included
// in the LICENSE file and at soniclabs.com/bsl11.
//
// Change Date: 2028-4-16
//
// On the date above, in accordance with the Business Source License, use of
// this software will be governed by the GNU Lesser General Public License v3.

package types

import (
	"github.com/zmcNotafraid/godwoken/common"
)

// RawTransaction is the signed part of a layer-2 transaction.
type RawTransaction struct {
	FromID uint32
	ToID   uint32
	Nonce  uint32
	Args   []byte
}

// Transaction is a layer-2 transaction sent by the account FromID.
type Transaction struct {
	Raw       RawTransaction
	Signature Signature
}

// Hash computes the transaction hash, the message signed by the sender.
func (tx *Transaction) Hash() common.Hash {
	return common.Blake2b(mustEncode(&tx.Raw))
}

// WitnessHash computes the digest of the full transaction including its
// signature.
func (tx *Transaction) WitnessHash() common.Hash {
	return common.Blake2b(mustEncode(tx))
}

// TxWitnessRoot computes the root of the complete binary merkle tree over the
// witness hashes of the given transactions.
func TxWitnessRoot(txs []Transaction) common.Hash {
	leaves := make([]common.Hash, len(txs))
	for i := range txs {
		leaves[i] = txs[i].WitnessHash()
	}
	return CBMTRoot(leaves)
}

// CBMTRoot computes the root of a complete binary merkle tree over the given
// leaves. Nodes are stored in an array where node i has the children 2i+1
// and 2i+2 and leaves occupy the last len(leaves) positions. The root of an
// empty tree is the zero hash.
func CBMTRoot(leaves []common.Hash) common.Hash {
	if len(leaves) == 0 {
		return common.Hash{}
	}
	n := len(leaves)
	nodes := make([]common.Hash, 2*n-1)
	copy(nodes[n-1:], leaves)
	for i := n - 2; i >= 0; i-- {
		left, right := nodes[2*i+1], nodes[2*i+2]
		nodes[i] = common.Blake2b(left[:], right[:])
	}
	return nodes[0]
}
