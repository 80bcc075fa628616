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
	"bytes"
	"fmt"

	"github.com/ethereum/go-ethereum/rlp"
	"github.com/holiman/uint256"
	"github.com/zmcNotafraid/godwoken/common"
	"github.com/zmcNotafraid/godwoken/database/smt"
)

// SignatureSize is the size of a recoverable secp256k1 signature in the
// [R || S || V] format, where V is 0 or 1.
const SignatureSize = 65

// Signature is a recoverable secp256k1 signature.
type Signature [SignatureSize]byte

// KVPair is an entry of the account-state tree, as proven by a block.
type KVPair struct {
	Key   common.Hash
	Value common.Hash
}

// SubmitTransactions summarizes the transactions included in a block.
type SubmitTransactions struct {
	TxWitnessRoot         common.Hash
	TxCount               uint32
	CompactedPostRootList []common.Hash
}

// JoinRequest registers a new aggregator with the rollup.
type JoinRequest struct {
	AggregatorID uint32
	PubkeyHash   common.PubkeyHash
	Stake        *uint256.Int
}

// RawBlock is the signed part of a layer-2 block.
type RawBlock struct {
	Number             uint64
	AggregatorID       uint32
	Timestamp          uint64
	PrevAccount        AccountMerkleState
	PostAccount        AccountMerkleState
	Valid              bool
	SubmitTransactions SubmitTransactions
	Join               *JoinRequest `rlp:"nil"`
}

// Hash computes the block hash of the raw block.
func (r *RawBlock) Hash() common.Hash {
	return common.Blake2b(mustEncode(r))
}

// Block is a layer-2 block together with the witnesses needed to verify the
// transition it causes. Blocks are created by NewBlock or DecodeBlock, which
// retain the encoding of the raw block the block hash is computed from.
type Block struct {
	Raw          RawBlock
	Signature    Signature
	KVState      []KVPair
	KVStateProof smt.CompiledProof
	Transactions []Transaction
	BlockProof   smt.CompiledProof

	rawBytes []byte
}

// blockEncoding is the wire format of a block. The raw block is kept as an
// opaque value to hash exactly the received bytes.
type blockEncoding struct {
	Raw          rlp.RawValue
	Signature    Signature
	KVState      []KVPair
	KVStateProof []byte
	Transactions []Transaction
	BlockProof   []byte
}

// NewBlock creates a block for the given raw block without witnesses.
func NewBlock(raw RawBlock) *Block {
	return &Block{Raw: raw, rawBytes: mustEncode(&raw)}
}

// WithRaw creates a copy of the block carrying the given raw block. The
// signature is retained and needs to be renewed by the caller.
func (b *Block) WithRaw(raw RawBlock) *Block {
	res := *b
	res.Raw = raw
	res.rawBytes = mustEncode(&raw)
	return &res
}

// Hash returns the block hash, the digest of the raw block encoding. Blocks
// not created by NewBlock or DecodeBlock hash the current encoding of Raw.
func (b *Block) Hash() common.Hash {
	return common.Blake2b(b.RawBytes())
}

// RawBytes returns the encoding of the raw block covered by the block hash.
func (b *Block) RawBytes() []byte {
	if b.rawBytes == nil {
		return mustEncode(&b.Raw)
	}
	return b.rawBytes
}

// CheckRaw verifies that the raw block is described by the encoding the
// block hash is computed from. It fails for blocks whose raw block got
// modified after creation.
func (b *Block) CheckRaw() error {
	if b.rawBytes == nil {
		return nil
	}
	encoded, err := rlp.EncodeToBytes(&b.Raw)
	if err != nil {
		return fmt.Errorf("%w: raw block: %w", ErrInvalidEncoding, err)
	}
	if !bytes.Equal(encoded, b.rawBytes) {
		return fmt.Errorf("%w: raw block differs from its hashed encoding", ErrInvalidEncoding)
	}
	return nil
}

// DecodeBlock parses a versioned block buffer and checks that it complies
// with the given limits.
func DecodeBlock(data []byte, limits Limits) (*Block, error) {
	var enc blockEncoding
	if err := decodeVersioned(data, limits.MaxInputSize, &enc); err != nil {
		return nil, err
	}
	switch {
	case exceeds(len(enc.KVState), limits.MaxKVPairs):
		return nil, fmt.Errorf("%w: %d kv pairs exceed limit of %d", ErrInvalidEncoding, len(enc.KVState), limits.MaxKVPairs)
	case exceeds(len(enc.KVStateProof), limits.MaxProofSize):
		return nil, fmt.Errorf("%w: kv state proof of %d bytes exceeds limit", ErrInvalidEncoding, len(enc.KVStateProof))
	case exceeds(len(enc.BlockProof), limits.MaxProofSize):
		return nil, fmt.Errorf("%w: block proof of %d bytes exceeds limit", ErrInvalidEncoding, len(enc.BlockProof))
	case exceeds(len(enc.Transactions), limits.MaxTransactions):
		return nil, fmt.Errorf("%w: %d transactions exceed limit of %d", ErrInvalidEncoding, len(enc.Transactions), limits.MaxTransactions)
	}

	res := &Block{
		Signature:    enc.Signature,
		KVState:      enc.KVState,
		KVStateProof: enc.KVStateProof,
		Transactions: enc.Transactions,
		BlockProof:   enc.BlockProof,
		rawBytes:     enc.Raw,
	}
	if err := rlp.DecodeBytes(enc.Raw, &res.Raw); err != nil {
		return nil, fmt.Errorf("%w: raw block: %w", ErrInvalidEncoding, err)
	}
	if postRoots := len(res.Raw.SubmitTransactions.CompactedPostRootList); exceeds(postRoots, limits.MaxPostRoots) {
		return nil, fmt.Errorf("%w: %d post roots exceed limit of %d", ErrInvalidEncoding, postRoots, limits.MaxPostRoots)
	}
	if join := res.Raw.Join; join != nil && join.Stake == nil {
		join.Stake = new(uint256.Int)
	}
	return res, nil
}

// EncodeBlock produces the versioned encoding of the given block.
func EncodeBlock(block *Block) ([]byte, error) {
	if err := block.CheckRaw(); err != nil {
		return nil, err
	}
	raw := block.rawBytes
	if raw == nil {
		var err error
		if raw, err = rlp.EncodeToBytes(&block.Raw); err != nil {
			return nil, err
		}
	}
	return encodeVersioned(&blockEncoding{
		Raw:          raw,
		Signature:    block.Signature,
		KVState:      block.KVState,
		KVStateProof: block.KVStateProof,
		Transactions: block.Transactions,
		BlockProof:   block.BlockProof,
	})
}

// BlockSMTKey computes the key of the block with the given number in the
// block-history tree.
func BlockSMTKey(number uint64) common.Hash {
	return common.Blake2b(common.Uint64ToLittleEndian(number))
}
