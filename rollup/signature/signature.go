// Copyright (c) 2025 Sonic Operations Ltd
//
// Use of this software is governed by the Business Source License included
// in the LICENSE file and at soniclabs.com/bsl11.
//
// Change Date: 2028-4-16
//
// On the date above, in accordance with the Business Source License, use of
// this software will be governed by the GNU Lesser General Public License v3.

// Package signature recovers and produces the secp256k1 signatures used to
// authenticate layer-2 blocks.
package signature

//go:generate mockgen -source signature.go -destination signature_mocks.go -package signature

import (
	"crypto/ecdsa"
	"fmt"

	"github.com/ethereum/go-ethereum/crypto"
	"github.com/zmcNotafraid/godwoken/common"
	"github.com/zmcNotafraid/godwoken/rollup/types"
)

const ErrRecovery = common.ConstError("public key recovery failed")

// Recoverer derives the public key that produced a signature.
type Recoverer interface {
	// RecoverPubkey returns the compressed public key of the signer of the
	// given message digest.
	RecoverPubkey(message common.Hash, signature types.Signature) ([]byte, error)
}

// Secp256k1 is the Recoverer for [R || S || V] signatures with V in {0, 1}.
type Secp256k1 struct{}

func (Secp256k1) RecoverPubkey(message common.Hash, signature types.Signature) ([]byte, error) {
	pubkey, err := crypto.SigToPub(message[:], signature[:])
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrRecovery, err)
	}
	return crypto.CompressPubkey(pubkey), nil
}

// Signer signs messages with a secp256k1 private key.
type Signer struct {
	key *ecdsa.PrivateKey
}

// NewSigner creates a signer for the given key.
func NewSigner(key *ecdsa.PrivateKey) *Signer {
	return &Signer{key: key}
}

// GenerateSigner creates a signer for a fresh random key.
func GenerateSigner() (*Signer, error) {
	key, err := crypto.GenerateKey()
	if err != nil {
		return nil, err
	}
	return NewSigner(key), nil
}

// SignerFromHex creates a signer for a hex encoded private key.
func SignerFromHex(key string) (*Signer, error) {
	res, err := crypto.HexToECDSA(key)
	if err != nil {
		return nil, err
	}
	return NewSigner(res), nil
}

// Sign signs the given message digest.
func (s *Signer) Sign(message common.Hash) (types.Signature, error) {
	var res types.Signature
	sig, err := crypto.Sign(message[:], s.key)
	if err != nil {
		return res, err
	}
	copy(res[:], sig)
	return res, nil
}

// PublicKey returns the compressed public key of the signer.
func (s *Signer) PublicKey() []byte {
	return crypto.CompressPubkey(&s.key.PublicKey)
}

// PubkeyHash returns the identity digest of the signer.
func (s *Signer) PubkeyHash(hasher common.Hasher) common.PubkeyHash {
	return common.GetPubkeyHash(hasher, s.PublicKey())
}

// PrivateKeyHex returns the hex encoding of the private key, as accepted by
// SignerFromHex.
func (s *Signer) PrivateKeyHex() string {
	return fmt.Sprintf("%x", crypto.FromECDSA(s.key))
}
