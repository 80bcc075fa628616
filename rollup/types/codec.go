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
	"fmt"

	"github.com/ethereum/go-ethereum/rlp"
	"github.com/zmcNotafraid/godwoken/common"
)

// EncodingVersion is the leading byte of every encoded input buffer.
const EncodingVersion byte = 1

// ErrInvalidEncoding is reported for every input which can not be decoded
// into a well-formed value.
const ErrInvalidEncoding = common.ConstError("invalid encoding")

// Limits bounds the size of decoded inputs. A zero bound is unlimited.
type Limits struct {
	MaxInputSize    int // < maximum size of an encoded input buffer in bytes
	MaxKVPairs      int // < maximum number of kv_state entries of a block
	MaxProofSize    int // < maximum size of each compiled proof in bytes
	MaxTransactions int // < maximum number of transactions of a block
	MaxPostRoots    int // < maximum length of the compacted post-root list
}

// DefaultLimits returns limits sized for blocks of a few thousand
// transactions.
func DefaultLimits() Limits {
	return Limits{
		MaxInputSize:    16 << 20,
		MaxKVPairs:      1 << 16,
		MaxProofSize:    4 << 20,
		MaxTransactions: 1 << 14,
		MaxPostRoots:    1 << 14,
	}
}

func exceeds(size, limit int) bool {
	return limit > 0 && size > limit
}

func decodeVersioned(data []byte, maxSize int, out any) error {
	if len(data) == 0 {
		return fmt.Errorf("%w: empty input", ErrInvalidEncoding)
	}
	if exceeds(len(data), maxSize) {
		return fmt.Errorf("%w: input of %d bytes exceeds limit of %d bytes", ErrInvalidEncoding, len(data), maxSize)
	}
	if data[0] != EncodingVersion {
		return fmt.Errorf("%w: unsupported version %d", ErrInvalidEncoding, data[0])
	}
	if err := rlp.DecodeBytes(data[1:], out); err != nil {
		return fmt.Errorf("%w: %w", ErrInvalidEncoding, err)
	}
	return nil
}

func encodeVersioned(value any) ([]byte, error) {
	payload, err := rlp.EncodeToBytes(value)
	if err != nil {
		return nil, err
	}
	return append([]byte{EncodingVersion}, payload...), nil
}

// mustEncode encodes values of the types of this package, for which
// encoding can not fail.
func mustEncode(value any) []byte {
	res, err := rlp.EncodeToBytes(value)
	if err != nil {
		panic(fmt.Sprintf("failed to encode %T: %v", value, err))
	}
	return res
}
