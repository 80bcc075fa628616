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
	"github.com/zmcNotafraid/godwoken/common"
	"github.com/zmcNotafraid/godwoken/database/smt"
	"github.com/zmcNotafraid/godwoken/rollup/registry"
	"github.com/zmcNotafraid/godwoken/rollup/state"
)

// Context is the outcome of verifying a block. Identity fields are set by the
// transition check; the remaining fields are derived by the block's actions.
type Context struct {
	Number         uint64
	AggregatorID   uint32
	KVPairs        KVPairs
	KVMerkleProof  smt.CompiledProof
	AccountCount   uint32
	RollupTypeHash common.Hash
	BlockHash      common.Hash

	TxCount      uint32
	NonceUpdates []state.NonceUpdate
	Joined       *registry.Aggregator // < aggregator registered by the block, if any
}
