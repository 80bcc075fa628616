// Copyright (c) 2025 Sonic Operations Ltd
//
// Use of this software is governed by the Business Source License included
// in the LICENSE file and at soniclabs.com/bsl11.
//
// Change Date: 2028-4-16
//
// On the date above, in accordance with the Business Source License, use of
// this software will be governed by the GNU Lesser General Public License v3.

package common

import (
	"encoding/binary"
	"fmt"

	"golang.org/x/crypto/blake2b"
)

// HashSize is the size of all digests used by the rollup.
const HashSize = 32

// PubkeyHashSize is the size of the truncated public key digest identifying an
// aggregator or an account owner.
const PubkeyHashSize = 20

// Hash is a 256-bit digest. It is used for merkle roots, tree keys and values,
// block hashes and transaction hashes.
type Hash [HashSize]byte

// PubkeyHash is the truncated digest of a compressed secp256k1 public key.
type PubkeyHash [PubkeyHashSize]byte

// IsZero reports whether all bytes of the hash are zero. The zero hash is the
// value sparse merkle trees use for absent keys.
func (h Hash) IsZero() bool {
	return h == Hash{}
}

func (h Hash) String() string {
	return fmt.Sprintf("0x%x", h[:])
}

func (h PubkeyHash) String() string {
	return fmt.Sprintf("0x%x", h[:])
}

// Blake2b computes the 256-bit Blake2b digest of the concatenation of the
// given byte slices.
func Blake2b(data ...[]byte) Hash {
	hasher, err := blake2b.New256(nil)
	if err != nil {
		// only fails for keys longer than 64 bytes
		panic(err)
	}
	for _, d := range data {
		hasher.Write(d)
	}
	var res Hash
	hasher.Sum(res[:0])
	return res
}

// Hasher is the wide-digest primitive. Implementations must be deterministic
// and hash the concatenation of the given byte slices.
type Hasher interface {
	Hash(data ...[]byte) Hash
}

// Blake2bHasher is the default wide-digest primitive of the rollup.
type Blake2bHasher struct{}

func (Blake2bHasher) Hash(data ...[]byte) Hash {
	return Blake2b(data...)
}

// GetPubkeyHash derives the identity digest of a serialized public key. Only
// the lower 20 bytes of the wide digest are retained.
func GetPubkeyHash(hasher Hasher, pubkey []byte) PubkeyHash {
	digest := hasher.Hash(pubkey)
	return PubkeyHash(digest[:PubkeyHashSize])
}

// Uint64ToLittleEndian encodes the given value into 8 little-endian bytes.
func Uint64ToLittleEndian(value uint64) []byte {
	res := make([]byte, 8)
	binary.LittleEndian.PutUint64(res, value)
	return res
}

// Uint32ToLittleEndian encodes the given value into 4 little-endian bytes.
func Uint32ToLittleEndian(value uint32) []byte {
	res := make([]byte, 4)
	binary.LittleEndian.PutUint32(res, value)
	return res
}
