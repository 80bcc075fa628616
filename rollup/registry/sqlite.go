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
	"database/sql"
	"errors"
	"fmt"

	"github.com/holiman/uint256"
	_ "github.com/mattn/go-sqlite3"
	"github.com/zmcNotafraid/godwoken/common"
)

const sqliteSchema = `
CREATE TABLE IF NOT EXISTS aggregators (
	id          INTEGER PRIMARY KEY,
	pubkey_hash BLOB    NOT NULL UNIQUE,
	stake       BLOB    NOT NULL,
	joined_at   INTEGER NOT NULL
)`

// sqliteRegistry is a Registry kept in an SQLite database.
type sqliteRegistry struct {
	db *sql.DB
}

// OpenSQLite opens the registry stored in the SQLite database file at the
// given path, creating it if needed.
func OpenSQLite(path string) (Registry, error) {
	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, err
	}
	if _, err := db.Exec(sqliteSchema); err != nil {
		return nil, errors.Join(err, db.Close())
	}
	return &sqliteRegistry{db: db}, nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanAggregator(row rowScanner) (Aggregator, error) {
	var (
		id         uint32
		pubkeyHash []byte
		stake      []byte
		joinedAt   int64
	)
	if err := row.Scan(&id, &pubkeyHash, &stake, &joinedAt); err != nil {
		return Aggregator{}, err
	}
	if len(pubkeyHash) != common.PubkeyHashSize || len(stake) != 32 {
		return Aggregator{}, fmt.Errorf("corrupted record of aggregator %d", id)
	}
	return Aggregator{
		ID:         id,
		PubkeyHash: common.PubkeyHash(pubkeyHash),
		Stake:      new(uint256.Int).SetBytes32(stake),
		JoinedAt:   uint64(joinedAt),
	}, nil
}

func (r *sqliteRegistry) GetAggregator(id uint32) (Aggregator, error) {
	row := r.db.QueryRow(`SELECT id, pubkey_hash, stake, joined_at FROM aggregators WHERE id = ?`, id)
	res, err := scanAggregator(row)
	if errors.Is(err, sql.ErrNoRows) {
		return Aggregator{}, fmt.Errorf("%w: %d", ErrUnknownAggregator, id)
	}
	return res, err
}

func (r *sqliteRegistry) FindAggregator(pubkeyHash common.PubkeyHash) (Aggregator, bool, error) {
	row := r.db.QueryRow(`SELECT id, pubkey_hash, stake, joined_at FROM aggregators WHERE pubkey_hash = ?`, pubkeyHash[:])
	res, err := scanAggregator(row)
	if errors.Is(err, sql.ErrNoRows) {
		return Aggregator{}, false, nil
	}
	if err != nil {
		return Aggregator{}, false, err
	}
	return res, true, nil
}

func (r *sqliteRegistry) NextAggregatorID() (uint32, error) {
	return nextSqliteID(r.db)
}

type queryer interface {
	QueryRow(query string, args ...any) *sql.Row
}

func nextSqliteID(db queryer) (uint32, error) {
	var next uint32
	err := db.QueryRow(`SELECT COALESCE(MAX(id) + 1, 0) FROM aggregators`).Scan(&next)
	return next, err
}

func (r *sqliteRegistry) Register(aggregator Aggregator) (err error) {
	tx, err := r.db.Begin()
	if err != nil {
		return err
	}
	defer func() {
		if err != nil {
			err = errors.Join(err, tx.Rollback())
		}
	}()

	next, err := nextSqliteID(tx)
	if err != nil {
		return err
	}
	if aggregator.ID != next {
		return fmt.Errorf("%w: got %d, next is %d", ErrSlotTaken, aggregator.ID, next)
	}
	var count int
	if err := tx.QueryRow(`SELECT COUNT(*) FROM aggregators WHERE pubkey_hash = ?`, aggregator.PubkeyHash[:]).Scan(&count); err != nil {
		return err
	}
	if count > 0 {
		return fmt.Errorf("%w: %v", ErrAlreadyRegistered, aggregator.PubkeyHash)
	}

	var stake [32]byte
	if aggregator.Stake != nil {
		stake = aggregator.Stake.Bytes32()
	}
	if _, err := tx.Exec(
		`INSERT INTO aggregators (id, pubkey_hash, stake, joined_at) VALUES (?, ?, ?, ?)`,
		aggregator.ID, aggregator.PubkeyHash[:], stake[:], int64(aggregator.JoinedAt),
	); err != nil {
		return err
	}
	return tx.Commit()
}

func (r *sqliteRegistry) Close() error {
	return r.db.Close()
}
