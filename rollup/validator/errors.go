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
	"errors"

	"github.com/zmcNotafraid/godwoken/common"
)

const (
	ErrEncoding           = common.ConstError("malformed input")
	ErrPrevGlobalState    = common.ConstError("block does not extend previous global state")
	ErrPostGlobalState    = common.ConstError("block does not produce post global state")
	ErrMerkleProof        = common.ConstError("merkle proof rejected")
	ErrSubmitInvalidBlock = common.ConstError("block is marked invalid")
	ErrSecp256k1          = common.ConstError("signature recovery failed")
	ErrWrongSignature     = common.ConstError("block not signed by aggregator")
	ErrInvalidAggregator  = common.ConstError("aggregator not eligible")

	ErrInvalidTxCount              = common.ConstError("transaction count mismatch")
	ErrInvalidPostRootList         = common.ConstError("post root list does not match transactions")
	ErrInvalidTxWitnessRoot        = common.ConstError("transaction witness root mismatch")
	ErrUnknownAccount              = common.ConstError("unknown account")
	ErrMissingKVState              = common.ConstError("account state not proven")
	ErrInvalidNonce                = common.ConstError("invalid nonce")
	ErrInvalidRegistrationSlot     = common.ConstError("invalid aggregator registration slot")
	ErrAggregatorAlreadyRegistered = common.ConstError("aggregator already registered")
	ErrInsufficientStake           = common.ConstError("insufficient stake")
)

// errorCodes lists the numeric code of each rejection reason.
var errorCodes = []struct {
	err  error
	code int
}{
	{ErrEncoding, 4},
	{ErrPrevGlobalState, 5},
	{ErrPostGlobalState, 6},
	{ErrMerkleProof, 7},
	{ErrSubmitInvalidBlock, 8},
	{ErrSecp256k1, 9},
	{ErrWrongSignature, 10},
	{ErrInvalidAggregator, 11},
	{ErrInvalidTxCount, 20},
	{ErrInvalidPostRootList, 21},
	{ErrInvalidTxWitnessRoot, 22},
	{ErrUnknownAccount, 23},
	{ErrMissingKVState, 24},
	{ErrInvalidNonce, 25},
	{ErrInvalidRegistrationSlot, 30},
	{ErrAggregatorAlreadyRegistered, 31},
	{ErrInsufficientStake, 32},
}

// ErrorCode maps a verification result to its numeric code. Accepted blocks
// yield 0, errors not raised by the validator yield 1.
func ErrorCode(err error) int {
	if err == nil {
		return 0
	}
	for _, entry := range errorCodes {
		if errors.Is(err, entry.err) {
			return entry.code
		}
	}
	return 1
}
