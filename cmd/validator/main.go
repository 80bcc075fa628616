// Copyright (c) 2025 Sonic Operations Ltd
//
// Use of this software is governed by the Business Source License included
// in the LICENSE file and at soniclabs.com/bsl11.
//
// Change Date: 2028-4-16
//
// On the date above, in accordance with the Business Source License, use of
// this software will be governed by the GNU Lesser General Public License v3.

// Command validator verifies the state transitions of godwoken rollup blocks
// and provides tooling to produce fixtures and to maintain the aggregator
// registry.
package main

import (
	"fmt"
	"os"

	"github.com/ethereum/go-ethereum/log"
	"github.com/urfave/cli/v2"
)

var verbosityFlag = cli.IntFlag{
	Name:  "verbosity",
	Usage: "log level, 0=crit 1=error 2=warn 3=info 4=debug 5=trace",
	Value: 3,
}

func main() {
	if err := newApp().Run(os.Args); err != nil {
		fmt.Fprintf(os.Stderr, "%v\n", err)
		os.Exit(1)
	}
}

func newApp() *cli.App {
	return &cli.App{
		Name:      "validator",
		Usage:     "godwoken rollup block verification tool",
		Copyright: "(c) 2025 Sonic Operations Ltd",
		Flags:     []cli.Flag{&verbosityFlag},
		Before:    setupLogging,
		Commands: []*cli.Command{
			&Verify,
			&Registry,
			&Devnet,
			&Check,
		},
	}
}

func setupLogging(context *cli.Context) error {
	level := log.FromLegacyLevel(context.Int(verbosityFlag.Name))
	log.SetDefault(log.NewLogger(log.NewTerminalHandlerWithLevel(os.Stderr, level, true)))
	return nil
}
