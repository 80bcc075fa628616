// Copyright (c) 2025 Sonic Operations Ltd
//
// Use of this software is governed by the Business Source License included
// in the LICENSE file and at soniclabs.com/bsl11.
//
// Change Date: 2028-4-16
//
// On the date above, in accordance with the Business Source License, use of
// this software will be governed by the GNU Lesser General Public License v3.

package registry

import (
	"path/filepath"
	"testing"

	"github.com/holiman/uint256"
	"github.com/stretchr/testify/require"
	"github.com/zmcNotafraid/godwoken/common"
)

var _ Registry = (*storeRegistry)(nil)
var _ Registry = (*sqliteRegistry)(nil)

type registryFactory struct {
	name string
	open func(t *testing.T, dir string) Registry
}

func getFactories() []registryFactory {
	return []registryFactory{
		{"memory", func(t *testing.T, dir string) Registry {
			return NewMemory()
		}},
		{"leveldb", func(t *testing.T, dir string) Registry {
			res, err := OpenLevelDB(filepath.Join(dir, "registry"))
			require.NoError(t, err)
			return res
		}},
		{"sqlite", func(t *testing.T, dir string) Registry {
			res, err := OpenSQLite(filepath.Join(dir, "registry.db"))
			require.NoError(t, err)
			return res
		}},
	}
}

func newAggregator(id uint32, stake uint64) Aggregator {
	return Aggregator{
		ID:         id,
		PubkeyHash: common.PubkeyHash{byte(id + 1), 0xAA},
		Stake:      uint256.NewInt(stake),
		JoinedAt:   uint64(id) * 10,
	}
}

func TestRegistry_InitiallyEmpty(t *testing.T) {
	for _, factory := range getFactories() {
		t.Run(factory.name, func(t *testing.T) {
			require := require.New(t)
			registry := factory.open(t, t.TempDir())
			defer func() { require.NoError(registry.Close()) }()

			next, err := registry.NextAggregatorID()
			require.NoError(err)
			require.Zero(next)

			_, err = registry.GetAggregator(0)
			require.ErrorIs(err, ErrUnknownAggregator)

			_, found, err := registry.FindAggregator(common.PubkeyHash{1})
			require.NoError(err)
			require.False(found)
		})
	}
}

func TestRegistry_AggregatorsCanBeRegisteredAndRetrieved(t *testing.T) {
	for _, factory := range getFactories() {
		t.Run(factory.name, func(t *testing.T) {
			require := require.New(t)
			registry := factory.open(t, t.TempDir())
			defer func() { require.NoError(registry.Close()) }()

			for i := range uint32(3) {
				require.NoError(registry.Register(newAggregator(i, 1000+uint64(i))))
			}

			next, err := registry.NextAggregatorID()
			require.NoError(err)
			require.Equal(uint32(3), next)

			for i := range uint32(3) {
				want := newAggregator(i, 1000+uint64(i))
				got, err := registry.GetAggregator(i)
				require.NoError(err)
				require.Equal(want, got)

				got, found, err := registry.FindAggregator(want.PubkeyHash)
				require.NoError(err)
				require.True(found)
				require.Equal(want, got)
			}

			all, err := List(registry)
			require.NoError(err)
			require.Len(all, 3)
		})
	}
}

func TestRegistry_RegistrationMustUseNextSlot(t *testing.T) {
	for _, factory := range getFactories() {
		t.Run(factory.name, func(t *testing.T) {
			require := require.New(t)
			registry := factory.open(t, t.TempDir())
			defer func() { require.NoError(registry.Close()) }()

			require.ErrorIs(registry.Register(newAggregator(1, 1000)), ErrSlotTaken)
			require.NoError(registry.Register(newAggregator(0, 1000)))
			require.ErrorIs(registry.Register(newAggregator(0, 1000)), ErrSlotTaken)
		})
	}
}

func TestRegistry_KeysCanNotBeRegisteredTwice(t *testing.T) {
	for _, factory := range getFactories() {
		t.Run(factory.name, func(t *testing.T) {
			require := require.New(t)
			registry := factory.open(t, t.TempDir())
			defer func() { require.NoError(registry.Close()) }()

			first := newAggregator(0, 1000)
			require.NoError(registry.Register(first))
			second := newAggregator(1, 1000)
			second.PubkeyHash = first.PubkeyHash
			require.ErrorIs(registry.Register(second), ErrAlreadyRegistered)

			next, err := registry.NextAggregatorID()
			require.NoError(err)
			require.Equal(uint32(1), next)
		})
	}
}

func TestRegistry_PersistentRegistriesKeepDataAfterReopening(t *testing.T) {
	for _, factory := range getFactories() {
		if factory.name == "memory" {
			continue
		}
		t.Run(factory.name, func(t *testing.T) {
			require := require.New(t)
			dir := t.TempDir()

			registry := factory.open(t, dir)
			require.NoError(registry.Register(newAggregator(0, 5000)))
			require.NoError(registry.Close())

			registry = factory.open(t, dir)
			got, err := registry.GetAggregator(0)
			require.NoError(err)
			require.Equal(newAggregator(0, 5000), got)
			require.NoError(registry.Close())
		})
	}
}

func TestPolicy_Eligibility(t *testing.T) {
	policy := Policy{MinStake: uint256.NewInt(100)}
	tests := map[string]struct {
		aggregator Aggregator
		number     uint64
		eligible   bool
	}{
		"sufficient stake":    {Aggregator{Stake: uint256.NewInt(100), JoinedAt: 3}, 3, true},
		"insufficient stake":  {Aggregator{Stake: uint256.NewInt(99), JoinedAt: 3}, 5, false},
		"missing stake":       {Aggregator{JoinedAt: 0}, 5, false},
		"joined after block":  {Aggregator{Stake: uint256.NewInt(500), JoinedAt: 6}, 5, false},
		"joined before block": {Aggregator{Stake: uint256.NewInt(500), JoinedAt: 4}, 5, true},
	}
	for name, test := range tests {
		t.Run(name, func(t *testing.T) {
			require.Equal(t, test.eligible, policy.IsEligible(test.aggregator, test.number))
		})
	}

	require.True(t, Policy{}.HasSufficientStake(nil))
}

func TestLevelDbStore_ReturnsNotFoundForMissingKey(t *testing.T) {
	store, err := newLevelDbStore(t.TempDir())
	require.NoError(t, err)

	_, err = store.Get([]byte("nonexistent"))
	require.ErrorIs(t, err, errNotFound)

	require.NoError(t, store.Close())
}

func TestMemoryStore_WritesAllEntries(t *testing.T) {
	require := require.New(t)
	store := newMemoryStore()

	require.NoError(store.Write([]entry{
		{key: []byte("key1"), value: []byte("value1")},
		{key: []byte("key2"), value: []byte("value2")},
	}))
	val, err := store.Get([]byte("key2"))
	require.NoError(err)
	require.Equal([]byte("value2"), val)
	require.NoError(store.Close())
}
