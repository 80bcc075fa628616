// Copyright (c) 2025 Sonic Operations Ltd
//
// Use of this software is governed by the Business Source License included
// in the LICENSE file and at soniclabs.com/bsl11.
//
// Change Date: 2028-4-16
//
// On the date above, in accordance with the Business Source License, use of
// this software will be governed by the GNU Lesser General Public License v3.

// Package registry keeps track of the aggregators allowed to submit blocks to
// the rollup, together with the stake they have locked.
package registry

//go:generate mockgen -source registry.go -destination registry_mocks.go -package registry

import (
	"github.com/holiman/uint256"
	"github.com/zmcNotafraid/godwoken/common"
)

const (
	ErrUnknownAggregator = common.ConstError("unknown aggregator")
	ErrSlotTaken         = common.ConstError("aggregator slot does not match next free slot")
	ErrAlreadyRegistered = common.ConstError("aggregator key already registered")
)

// Aggregator is a registered block producer.
type Aggregator struct {
	ID         uint32
	PubkeyHash common.PubkeyHash
	Stake      *uint256.Int
	JoinedAt   uint64 // < number of the block which registered the aggregator
}

// Registry is the set of known aggregators. Aggregator IDs are assigned
// densely starting at 0.
type Registry interface {
	// GetAggregator returns the aggregator with the given ID or
	// ErrUnknownAggregator.
	GetAggregator(id uint32) (Aggregator, error)
	// FindAggregator looks up the aggregator owning the given key.
	FindAggregator(pubkeyHash common.PubkeyHash) (Aggregator, bool, error)
	// NextAggregatorID returns the ID the next registered aggregator obtains.
	NextAggregatorID() (uint32, error)
	// Register adds a new aggregator. Its ID must be the next free ID and its
	// key must not be registered yet.
	Register(aggregator Aggregator) error
	Close() error
}

// Policy defines which registered aggregators may produce blocks.
type Policy struct {
	MinStake *uint256.Int
}

// DefaultPolicy returns the policy used when none is configured.
func DefaultPolicy() Policy {
	return Policy{MinStake: uint256.NewInt(1_000)}
}

// HasSufficientStake reports whether the given stake satisfies the policy.
func (p Policy) HasSufficientStake(stake *uint256.Int) bool {
	if p.MinStake == nil {
		return true
	}
	if stake == nil {
		return p.MinStake.IsZero()
	}
	return !stake.Lt(p.MinStake)
}

// IsEligible reports whether the aggregator may produce the block with the
// given number.
func (p Policy) IsEligible(aggregator Aggregator, number uint64) bool {
	return aggregator.JoinedAt <= number && p.HasSufficientStake(aggregator.Stake)
}

// List returns all registered aggregators ordered by ID.
func List(registry Registry) ([]Aggregator, error) {
	next, err := registry.NextAggregatorID()
	if err != nil {
		return nil, err
	}
	res := make([]Aggregator, 0, next)
	for id := range next {
		aggregator, err := registry.GetAggregator(id)
		if err != nil {
			return nil, err
		}
		res = append(res, aggregator)
	}
	return res, nil
}
