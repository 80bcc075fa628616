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
	"github.com/zmcNotafraid/godwoken/rollup/registry"
	"github.com/zmcNotafraid/godwoken/rollup/types"
)

// Config parameterizes a validator.
type Config struct {
	// RollupTypeHash identifies the rollup instance the validated blocks
	// belong to. It is copied into every verification context.
	RollupTypeHash common.Hash
	Limits         types.Limits
	Policy         registry.Policy
}

// DefaultConfig returns a configuration with default limits and policy for
// the given rollup.
func DefaultConfig(rollupTypeHash common.Hash) Config {
	return Config{
		RollupTypeHash: rollupTypeHash,
		Limits:         types.DefaultLimits(),
		Policy:         registry.DefaultPolicy(),
	}
}
