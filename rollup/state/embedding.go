// Copyright (c) 2025 Sonic Operations Ltd
//
// Use of this software is governed by the Business Source License included
// in the LICENSE file and at soniclabs.com/bsl11.
//
// Change Date: 2028-4-16
//
// On the date above, in accordance with the Business Source License, use of
// this software will be governed by the GNU Lesser General Public License v3.

// Package state maintains the account-state tree of the rollup and defines
// where account fields are located within it.
package state

import (
	"encoding/binary"
	"fmt"

	lru "github.com/hashicorp/golang-lru/v2"
	"github.com/zmcNotafraid/godwoken/common"
)

// Field identifies an account field stored in the account-state tree.
type Field byte

const (
	FieldNonce      Field = 0
	FieldPubkeyHash Field = 1
)

// Embedding defines the mapping from account fields to tree keys.
type Embedding interface {
	GetKey(accountID uint32, field Field) common.Hash
}

// Blake2bEmbedding locates the field of an account at the digest of the
// little-endian account ID followed by the field tag.
type Blake2bEmbedding struct{}

func (Blake2bEmbedding) GetKey(accountID uint32, field Field) common.Hash {
	return common.Blake2b(common.Uint32ToLittleEndian(accountID), []byte{byte(field)})
}

// GetNonceKey returns the key of the nonce of the given account.
func GetNonceKey(embedding Embedding, accountID uint32) common.Hash {
	return embedding.GetKey(accountID, FieldNonce)
}

// DefaultCacheSize is the number of keys retained by NewEmbedding.
const DefaultCacheSize = 1 << 14

// NewEmbedding creates an embedding caching the keys of recently used
// account fields.
func NewEmbedding() Embedding {
	res, err := NewCachedEmbedding(DefaultCacheSize)
	if err != nil {
		panic(err)
	}
	return res
}

// NewCachedEmbedding creates an embedding retaining up to size keys.
func NewCachedEmbedding(size int) (Embedding, error) {
	return newCachedEmbedding(size)
}

// cachedEmbedding avoids redundant key derivations for the same accounts.
type cachedEmbedding struct {
	cache *lru.Cache[cacheKey, common.Hash]
}

type cacheKey struct {
	accountID uint32
	field     Field
}

func newCachedEmbedding(size int) (*cachedEmbedding, error) {
	cache, err := lru.New[cacheKey, common.Hash](size)
	if err != nil {
		return nil, fmt.Errorf("failed to create key cache: %w", err)
	}
	return &cachedEmbedding{cache: cache}, nil
}

func (e *cachedEmbedding) GetKey(accountID uint32, field Field) common.Hash {
	key := cacheKey{accountID: accountID, field: field}
	if res, found := e.cache.Get(key); found {
		return res
	}
	res := Blake2bEmbedding{}.GetKey(accountID, field)
	e.cache.Add(key, res)
	return res
}

// NonceValue encodes a nonce as a tree value.
func NonceValue(nonce uint32) common.Hash {
	var res common.Hash
	binary.LittleEndian.PutUint32(res[:], nonce)
	return res
}

// NonceFromValue decodes a nonce stored by NonceValue. Values carrying data
// beyond the first four bytes are not valid nonces.
func NonceFromValue(value common.Hash) (uint32, bool) {
	var rest [common.HashSize - 4]byte
	if [common.HashSize - 4]byte(value[4:]) != rest {
		return 0, false
	}
	return binary.LittleEndian.Uint32(value[:4]), true
}

// PubkeyHashValue encodes the owner of an account as a tree value.
func PubkeyHashValue(pubkeyHash common.PubkeyHash) common.Hash {
	var res common.Hash
	copy(res[:], pubkeyHash[:])
	return res
}
