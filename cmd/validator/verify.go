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
	"github.com/ethereum/go-ethereum/log"
	"github.com/pbnjay/memory"
	"github.com/urfave/cli/v2"
	"github.com/zmcNotafraid/godwoken/common"
	"github.com/zmcNotafraid/godwoken/rollup/devnet"
	"github.com/zmcNotafraid/godwoken/rollup/registry"
	"github.com/zmcNotafraid/godwoken/rollup/validator"
	"golang.org/x/sync/errgroup"
)

var (
	registryFlag = cli.StringFlag{
		Name:  "registry",
		Usage: "aggregator registry backend, one of memory, leveldb or sqlite",
		Value: "leveldb",
	}
	registryPathFlag = cli.StringFlag{
		Name:  "registry-path",
		Usage: "location of the aggregator registry",
		Value: "registry",
	}
	rollupTypeHashFlag = cli.StringFlag{
		Name:  "rollup-type-hash",
		Usage: "hex encoded type hash of the rollup the blocks belong to",
		Value: common.Hash{}.String(),
	}
	maxInputSizeFlag = cli.IntFlag{
		Name:  "max-input-size",
		Usage: "maximum size of a decompressed input file in bytes, 0 for the default",
	}
	commitFlag = cli.BoolFlag{
		Name:  "commit",
		Usage: "register an aggregator joining through the accepted block",
	}
)

var Verify = cli.Command{
	Action:    verify,
	Name:      "verify",
	Usage:     "verifies the state transition of a block; the exit code names the rejection reason",
	ArgsUsage: "<prev-global-state> <block> <post-global-state>",
	Flags: []cli.Flag{
		&registryFlag,
		&registryPathFlag,
		&rollupTypeHashFlag,
		&maxInputSizeFlag,
		&commitFlag,
	},
}

func verify(context *cli.Context) (err error) {
	if context.Args().Len() != 3 {
		return fmt.Errorf("expected the files of the previous global state, the block and the post global state")
	}
	rollupTypeHash, err := parseHash(context.String(rollupTypeHashFlag.Name))
	if err != nil {
		return err
	}

	reg, err := openRegistry(context)
	if err != nil {
		return err
	}
	defer func() {
		err = errors.Join(err, reg.Close())
	}()

	config := validator.DefaultConfig(rollupTypeHash)
	config.Limits.MaxInputSize = getInputBudget(context.Int(maxInputSizeFlag.Name), config.Limits.MaxInputSize)

	args := context.Args()
	inputs, err := loadInputs(config.Limits.MaxInputSize, args.Get(0), args.Get(1), args.Get(2))
	if err != nil {
		return err
	}

	ctx, err := validator.New(config, reg).Verify(inputs[0], inputs[1], inputs[2])
	if err != nil {
		return cli.Exit(fmt.Sprintf("block rejected: %v", err), validator.ErrorCode(err))
	}
	fmt.Printf("Block %d accepted, hash %v, %d transactions\n", ctx.Number, ctx.BlockHash, ctx.TxCount)

	if ctx.Joined != nil && context.Bool(commitFlag.Name) {
		if err := reg.Register(*ctx.Joined); err != nil {
			return fmt.Errorf("failed to register joined aggregator: %w", err)
		}
		fmt.Printf("Registered aggregator %d, eligible from block %d\n", ctx.Joined.ID, ctx.Joined.JoinedAt)
	}
	return nil
}

// loadInputs reads the given files concurrently.
func loadInputs(maxSize int, paths ...string) ([][]byte, error) {
	inputs := make([][]byte, len(paths))
	var group errgroup.Group
	for i, path := range paths {
		group.Go(func() error {
			data, err := devnet.ReadInput(path, maxSize)
			inputs[i] = data
			return err
		})
	}
	if err := group.Wait(); err != nil {
		return nil, err
	}
	return inputs, nil
}

// getInputBudget returns the maximum size of each input buffer. All three
// inputs are held in memory at the same time, so the budget is capped by a
// share of the physical memory of the host.
func getInputBudget(requested, limit int) int {
	const memoryShare = 16
	budget := limit
	if requested > 0 {
		budget = requested
	}
	total := memory.TotalMemory()
	if total == 0 {
		return budget
	}
	if capped := total / memoryShare; budget <= 0 || uint64(budget) > capped {
		log.Debug("Input budget clamped by available memory", "requested", budget, "budget", capped)
		budget = int(capped)
	}
	return budget
}

func parseHash(value string) (common.Hash, error) {
	data, err := hexutil.Decode(value)
	if err != nil {
		return common.Hash{}, fmt.Errorf("invalid hash %q: %w", value, err)
	}
	if len(data) != common.HashSize {
		return common.Hash{}, fmt.Errorf("invalid hash %q: expected %d bytes, got %d", value, common.HashSize, len(data))
	}
	return common.Hash(data), nil
}

func openRegistry(context *cli.Context) (registry.Registry, error) {
	path := context.String(registryPathFlag.Name)
	switch backend := context.String(registryFlag.Name); backend {
	case "memory":
		return registry.NewMemory(), nil
	case "leveldb":
		return registry.OpenLevelDB(path)
	case "sqlite":
		return registry.OpenSQLite(path)
	default:
		return nil, fmt.Errorf("unknown registry backend %q", backend)
	}
}
