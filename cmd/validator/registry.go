// Copyright (c) 2025 Sonic Operations Ltd
//
// Use of this software is governed by the Business Source License included
// in the LICENSE file and at soniclabs.com/bsl11.
//
// Change Date: 2028-4-16
//
// On the date above, in accordance with the Business Source License, use of
// this software will be governed by the GNU Lesser General Public License v3.

package main

import (
	"errors"
	"fmt"

	"github.com/ethereum/go-ethereum/common/hexutil"
	"github.com/holiman/uint256"
	"github.com/urfave/cli/v2"
	"github.com/zmcNotafraid/godwoken/common"
	"github.com/zmcNotafraid/godwoken/rollup/registry"
	"github.com/zmcNotafraid/godwoken/rollup/signature"
)

var (
	keyFlag = cli.StringFlag{
		Name:  "key",
		Usage: "hex encoded private key of the aggregator",
	}
	pubkeyHashFlag = cli.StringFlag{
		Name:  "pubkey-hash",
		Usage: "hex encoded 20-byte public key hash of the aggregator, alternative to --key",
	}
	stakeFlag = cli.StringFlag{
		Name:  "stake",
		Usage: "decimal stake of the aggregator",
		Value: registry.DefaultPolicy().MinStake.Dec(),
	}
	joinedAtFlag = cli.Uint64Flag{
		Name:  "joined-at",
		Usage: "first block number the aggregator may produce",
	}
)

var Registry = cli.Command{
	Name:  "registry",
	Usage: "maintains the aggregator registry",
	Subcommands: []*cli.Command{
		{
			Action: addAggregator,
			Name:   "add",
			Usage:  "registers an aggregator in the next free slot",
			Flags: []cli.Flag{
				&registryFlag,
				&registryPathFlag,
				&keyFlag,
				&pubkeyHashFlag,
				&stakeFlag,
				&joinedAtFlag,
			},
		},
		{
			Action: listAggregators,
			Name:   "list",
			Usage:  "lists all registered aggregators",
			Flags: []cli.Flag{
				&registryFlag,
				&registryPathFlag,
			},
		},
	},
}

func addAggregator(context *cli.Context) (err error) {
	pubkeyHash, err := getPubkeyHash(context.String(keyFlag.Name), context.String(pubkeyHashFlag.Name))
	if err != nil {
		return err
	}
	stake, err := uint256.FromDecimal(context.String(stakeFlag.Name))
	if err != nil {
		return fmt.Errorf("invalid stake: %w", err)
	}

	reg, err := openRegistry(context)
	if err != nil {
		return err
	}
	defer func() {
		err = errors.Join(err, reg.Close())
	}()

	id, err := reg.NextAggregatorID()
	if err != nil {
		return err
	}
	if err := reg.Register(registry.Aggregator{
		ID:         id,
		PubkeyHash: pubkeyHash,
		Stake:      stake,
		JoinedAt:   context.Uint64(joinedAtFlag.Name),
	}); err != nil {
		return err
	}
	fmt.Printf("Registered aggregator %d with key hash %v\n", id, pubkeyHash)
	return nil
}

func getPubkeyHash(key, pubkeyHash string) (common.PubkeyHash, error) {
	switch {
	case key != "" && pubkeyHash != "":
		return common.PubkeyHash{}, fmt.Errorf("only one of --%s and --%s may be given", keyFlag.Name, pubkeyHashFlag.Name)
	case key != "":
		signer, err := signature.SignerFromHex(key)
		if err != nil {
			return common.PubkeyHash{}, err
		}
		return signer.PubkeyHash(common.Blake2bHasher{}), nil
	case pubkeyHash != "":
		data, err := hexutil.Decode(pubkeyHash)
		if err != nil {
			return common.PubkeyHash{}, fmt.Errorf("invalid public key hash: %w", err)
		}
		if len(data) != common.PubkeyHashSize {
			return common.PubkeyHash{}, fmt.Errorf("invalid public key hash: expected %d bytes, got %d", common.PubkeyHashSize, len(data))
		}
		return common.PubkeyHash(data), nil
	default:
		return common.PubkeyHash{}, fmt.Errorf("missing --%s or --%s", keyFlag.Name, pubkeyHashFlag.Name)
	}
}

func listAggregators(context *cli.Context) (err error) {
	reg, err := openRegistry(context)
	if err != nil {
		return err
	}
	defer func() {
		err = errors.Join(err, reg.Close())
	}()

	aggregators, err := registry.List(reg)
	if err != nil {
		return err
	}
	fmt.Printf("%-6s %-42s %-24s %s\n", "id", "pubkey hash", "stake", "joined at")
	for _, aggregator := range aggregators {
		fmt.Printf("%-6d %-42v %-24s %d\n", aggregator.ID, aggregator.PubkeyHash, aggregator.Stake.Dec(), aggregator.JoinedAt)
	}
	return nil
}
