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
	"encoding/binary"
	"errors"
	"fmt"
	"sync"

	"github.com/ethereum/go-ethereum/rlp"
	"github.com/holiman/uint256"
	"github.com/syndtr/goleveldb/leveldb"
	"github.com/syndtr/goleveldb/leveldb/opt"
	"github.com/zmcNotafraid/godwoken/common"
)

const errNotFound = common.ConstError("not found")

// recordStore is a key-value store persisting registry records.
type recordStore interface {
	Get(key []byte) ([]byte, error)
	// Write atomically sets all given entries.
	Write(entries []entry) error
	Close() error
}

type entry struct {
	key, value []byte
}

// levelDbStore is a recordStore backed by LevelDB.
type levelDbStore struct {
	db *leveldb.DB
}

func newLevelDbStore(path string) (*levelDbStore, error) {
	db, err := leveldb.OpenFile(path, nil)
	if err != nil {
		return nil, err
	}
	return &levelDbStore{db: db}, nil
}

func (s *levelDbStore) Get(key []byte) ([]byte, error) {
	data, err := s.db.Get(key, &opt.ReadOptions{})
	if errors.Is(err, leveldb.ErrNotFound) {
		return nil, errNotFound
	}
	return data, err
}

func (s *levelDbStore) Write(entries []entry) error {
	batch := new(leveldb.Batch)
	for _, e := range entries {
		batch.Put(e.key, e.value)
	}
	return s.db.Write(batch, &opt.WriteOptions{Sync: true})
}

func (s *levelDbStore) Close() error {
	return s.db.Close()
}

// memoryStore is an in-memory recordStore.
type memoryStore struct {
	store map[string][]byte
}

func newMemoryStore() *memoryStore {
	return &memoryStore{store: make(map[string][]byte)}
}

func (s *memoryStore) Get(key []byte) ([]byte, error) {
	value, ok := s.store[string(key)]
	if !ok {
		return nil, errNotFound
	}
	return value, nil
}

func (s *memoryStore) Write(entries []entry) error {
	for _, e := range entries {
		s.store[string(e.key)] = e.value
	}
	return nil
}

func (s *memoryStore) Close() error {
	return nil
}

// ---- Registry on top of a record store ----

var (
	nextIDKey       = []byte("n")
	aggregatorTag   = byte('a')
	pubkeyHashIndex = byte('p')
)

// record is the persisted form of an aggregator.
type record struct {
	PubkeyHash common.PubkeyHash
	Stake      *uint256.Int
	JoinedAt   uint64
}

// storeRegistry implements the Registry interface on a record store.
type storeRegistry struct {
	mu    sync.Mutex
	store recordStore
}

// NewMemory creates an empty registry kept in memory.
func NewMemory() Registry {
	return &storeRegistry{store: newMemoryStore()}
}

// OpenLevelDB opens the registry persisted in the LevelDB directory at the
// given path, creating it if needed.
func OpenLevelDB(path string) (Registry, error) {
	store, err := newLevelDbStore(path)
	if err != nil {
		return nil, err
	}
	return &storeRegistry{store: store}, nil
}

func aggregatorKey(id uint32) []byte {
	return binary.BigEndian.AppendUint32([]byte{aggregatorTag}, id)
}

func pubkeyHashKey(pubkeyHash common.PubkeyHash) []byte {
	return append([]byte{pubkeyHashIndex}, pubkeyHash[:]...)
}

func (r *storeRegistry) GetAggregator(id uint32) (Aggregator, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.getAggregator(id)
}

func (r *storeRegistry) getAggregator(id uint32) (Aggregator, error) {
	data, err := r.store.Get(aggregatorKey(id))
	if errors.Is(err, errNotFound) {
		return Aggregator{}, fmt.Errorf("%w: %d", ErrUnknownAggregator, id)
	}
	if err != nil {
		return Aggregator{}, err
	}
	var rec record
	if err := rlp.DecodeBytes(data, &rec); err != nil {
		return Aggregator{}, fmt.Errorf("corrupted record of aggregator %d: %w", id, err)
	}
	return Aggregator{ID: id, PubkeyHash: rec.PubkeyHash, Stake: rec.Stake, JoinedAt: rec.JoinedAt}, nil
}

func (r *storeRegistry) FindAggregator(pubkeyHash common.PubkeyHash) (Aggregator, bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	data, err := r.store.Get(pubkeyHashKey(pubkeyHash))
	if errors.Is(err, errNotFound) {
		return Aggregator{}, false, nil
	}
	if err != nil {
		return Aggregator{}, false, err
	}
	if len(data) != 4 {
		return Aggregator{}, false, fmt.Errorf("corrupted index entry of %v", pubkeyHash)
	}
	res, err := r.getAggregator(binary.BigEndian.Uint32(data))
	return res, err == nil, err
}

func (r *storeRegistry) NextAggregatorID() (uint32, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.nextID()
}

func (r *storeRegistry) nextID() (uint32, error) {
	data, err := r.store.Get(nextIDKey)
	if errors.Is(err, errNotFound) {
		return 0, nil
	}
	if err != nil {
		return 0, err
	}
	if len(data) != 4 {
		return 0, fmt.Errorf("corrupted next aggregator id")
	}
	return binary.BigEndian.Uint32(data), nil
}

func (r *storeRegistry) Register(aggregator Aggregator) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	next, err := r.nextID()
	if err != nil {
		return err
	}
	if aggregator.ID != next {
		return fmt.Errorf("%w: got %d, next is %d", ErrSlotTaken, aggregator.ID, next)
	}
	if _, err := r.store.Get(pubkeyHashKey(aggregator.PubkeyHash)); err == nil {
		return fmt.Errorf("%w: %v", ErrAlreadyRegistered, aggregator.PubkeyHash)
	} else if !errors.Is(err, errNotFound) {
		return err
	}

	stake := aggregator.Stake
	if stake == nil {
		stake = new(uint256.Int)
	}
	data, err := rlp.EncodeToBytes(&record{
		PubkeyHash: aggregator.PubkeyHash,
		Stake:      stake,
		JoinedAt:   aggregator.JoinedAt,
	})
	if err != nil {
		return err
	}
	id := binary.BigEndian.AppendUint32(nil, aggregator.ID)
	return r.store.Write([]entry{
		{key: aggregatorKey(aggregator.ID), value: data},
		{key: pubkeyHashKey(aggregator.PubkeyHash), value: id},
		{key: nextIDKey, value: binary.BigEndian.AppendUint32(nil, next+1)},
	})
}

func (r *storeRegistry) Close() error {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.store.Close()
}
