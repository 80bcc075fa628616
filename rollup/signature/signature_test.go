// Copyright (c) 2025 Sonic Operations Ltd
//
// Use of this software is governed by the Business Source License included
// in the LICENSE file and at soniclabs.com/bsl11.
//
// Change Date: 2028-4-16
//
// On the date above, in accordance with the Business Source License, use of
// this software will be governed by the GNU Lesser General Public License v3.

package signature

import (
	"testing"

	"github.com/stretchr/testify/require"
	"github.com/zmcNotafraid/godwoken/common"
	"github.com/zmcNotafraid/godwoken/rollup/types"
)

func TestSecp256k1_RecoversSignerKey(t *testing.T) {
	require := require.New(t)

	signer, err := GenerateSigner()
	require.NoError(err)
	message := common.Blake2b([]byte("block"))
	sig, err := signer.Sign(message)
	require.NoError(err)
	require.Less(sig[64], byte(2))

	pubkey, err := Secp256k1{}.RecoverPubkey(message, sig)
	require.NoError(err)
	require.Equal(signer.PublicKey(), pubkey)
	require.Len(pubkey, 33)
}

func TestSecp256k1_OtherMessageYieldsOtherKey(t *testing.T) {
	require := require.New(t)

	signer, err := GenerateSigner()
	require.NoError(err)
	sig, err := signer.Sign(common.Hash{1})
	require.NoError(err)

	pubkey, err := Secp256k1{}.RecoverPubkey(common.Hash{2}, sig)
	if err == nil {
		require.NotEqual(signer.PublicKey(), pubkey)
	}
}

func TestSecp256k1_InvalidSignatureIsRejected(t *testing.T) {
	require := require.New(t)

	var sig types.Signature
	sig[64] = 5
	_, err := Secp256k1{}.RecoverPubkey(common.Hash{1}, sig)
	require.ErrorIs(err, ErrRecovery)

	_, err = Secp256k1{}.RecoverPubkey(common.Hash{1}, types.Signature{})
	require.ErrorIs(err, ErrRecovery)
}

func TestSigner_CanBeRestoredFromHex(t *testing.T) {
	require := require.New(t)

	signer, err := GenerateSigner()
	require.NoError(err)
	restored, err := SignerFromHex(signer.PrivateKeyHex())
	require.NoError(err)
	require.Equal(signer.PublicKey(), restored.PublicKey())

	hasher := common.Blake2bHasher{}
	require.Equal(common.GetPubkeyHash(hasher, signer.PublicKey()), restored.PubkeyHash(hasher))

	_, err = SignerFromHex("zz")
	require.Error(err)
}
