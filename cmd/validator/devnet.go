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
	"os"

	"github.com/ethereum/go-ethereum/log"
	"github.com/urfave/cli/v2"
	"github.com/zmcNotafraid/godwoken/rollup/devnet"
	"github.com/zmcNotafraid/godwoken/rollup/registry"
	"github.com/zmcNotafraid/godwoken/rollup/signature"
	"github.com/zmcNotafraid/godwoken/rollup/types"
	"github.com/zmcNotafraid/godwoken/rollup/validator"
)

var (
	outFlag = cli.StringFlag{
		Name:  "out",
		Usage: "directory to write the produced input files to",
		Value: ".",
	}
	blocksFlag = cli.IntFlag{
		Name:  "blocks",
		Usage: "number of blocks to produce",
		Value: 3,
	}
	accountsFlag = cli.IntFlag{
		Name:  "accounts",
		Usage: "number of accounts each sending one transaction per block",
		Value: 4,
	}
	compressedFlag = cli.BoolFlag{
		Name:  "compressed",
		Usage: "compress the produced input files with snappy",
	}
	joinFlag = cli.BoolFlag{
		Name:  "join",
		Usage: "let a new aggregator join through the second block",
	}
)

var Devnet = cli.Command{
	Action: produce,
	Name:   "devnet",
	Usage:  "produces a chain of valid blocks and writes their verification inputs",
	Flags: []cli.Flag{
		&outFlag,
		&blocksFlag,
		&accountsFlag,
		&compressedFlag,
		&joinFlag,
		&registryFlag,
		&registryPathFlag,
		&rollupTypeHashFlag,
	},
}

func produce(context *cli.Context) (err error) {
	rollupTypeHash, err := parseHash(context.String(rollupTypeHashFlag.Name))
	if err != nil {
		return err
	}
	dir := context.String(outFlag.Name)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return err
	}

	reg, err := openRegistry(context)
	if err != nil {
		return err
	}
	defer func() {
		err = errors.Join(err, reg.Close())
	}()

	// The chain runs on its own registry; the given one only receives the
	// genesis aggregator so that verifications can replay the produced joins.
	config := validator.DefaultConfig(rollupTypeHash)
	chainRegistry := registry.NewMemory()
	chain, aggregator, err := setupChain(chainRegistry, config.Policy, context.Int(accountsFlag.Name))
	if err != nil {
		return err
	}
	genesis, err := chainRegistry.GetAggregator(aggregator)
	if err != nil {
		return err
	}
	if err := reg.Register(genesis); err != nil {
		return fmt.Errorf("failed to register genesis aggregator: %w", err)
	}
	check := validator.New(config, chainRegistry)

	for i := range context.Int(blocksFlag.Name) {
		spec, err := getBlockSpec(chain, aggregator)
		if err != nil {
			return err
		}
		if i == 1 && context.Bool(joinFlag.Name) {
			if spec.Join, err = signature.GenerateSigner(); err != nil {
				return err
			}
			spec.JoinStake = config.Policy.MinStake
			log.Info("New aggregator joins", "key", spec.Join.PrivateKeyHex())
		}

		triple, err := chain.Produce(spec)
		if err != nil {
			return err
		}
		prev, block, post, err := triple.Encode()
		if err != nil {
			return err
		}
		ctx, err := check.Verify(prev, block, post)
		if err != nil {
			return fmt.Errorf("produced block %d got rejected: %w", triple.Block.Raw.Number, err)
		}
		if err := chain.Commit(ctx.Joined); err != nil {
			return err
		}

		files, err := devnet.WriteTriple(dir, triple, context.Bool(compressedFlag.Name))
		if err != nil {
			return err
		}
		fmt.Printf("Block %d: %s %s %s\n", ctx.Number, files.Prev, files.Block, files.Post)
	}
	return nil
}

// setupChain creates a chain with a single aggregator and the given number of
// accounts.
func setupChain(reg registry.Registry, policy registry.Policy, accounts int) (*devnet.Chain, uint32, error) {
	chain := devnet.NewChain(reg)
	signer, err := signature.GenerateSigner()
	if err != nil {
		return nil, 0, err
	}
	aggregator, err := chain.AddAggregator(signer, policy.MinStake)
	if err != nil {
		return nil, 0, err
	}
	log.Info("Registered aggregator", "id", aggregator, "key", signer.PrivateKeyHex())

	owners := make([]*signature.Signer, 0, accounts)
	for range accounts {
		owner, err := signature.GenerateSigner()
		if err != nil {
			return nil, 0, err
		}
		owners = append(owners, owner)
	}
	if _, err := chain.AddAccounts(owners...); err != nil {
		return nil, 0, err
	}
	return chain, aggregator, nil
}

// getBlockSpec describes a block in which every account sends one
// transaction to its successor.
func getBlockSpec(chain *devnet.Chain, aggregator uint32) (devnet.BlockSpec, error) {
	state := chain.GetState()
	count := state.GetAccountCount()
	spec := devnet.BlockSpec{Aggregator: aggregator}
	for id := range count {
		nonce, err := state.GetNonce(id)
		if err != nil {
			return devnet.BlockSpec{}, err
		}
		spec.Transactions = append(spec.Transactions, types.RawTransaction{
			FromID: id,
			ToID:   (id + 1) % count,
			Nonce:  nonce,
		})
	}
	return spec, nil
}
