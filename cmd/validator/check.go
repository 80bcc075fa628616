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
	"fmt"
	"math/rand"
	"time"

	"github.com/urfave/cli/v2"
	"github.com/zmcNotafraid/godwoken/common"
	"github.com/zmcNotafraid/godwoken/database/smt/memory"
)

var (
	leavesFlag = cli.IntFlag{
		Name:  "leaves",
		Usage: "number of random leaves of the checked tree",
		Value: 10_000,
	}
	seedFlag = cli.Int64Flag{
		Name:  "seed",
		Usage: "seed of the random leaf generator",
		Value: 1,
	}
)

var Check = cli.Command{
	Action: check,
	Name:   "check",
	Usage:  "verifies proofs of all leaves of a randomly generated sparse merkle tree",
	Flags: []cli.Flag{
		&leavesFlag,
		&seedFlag,
	},
}

func check(context *cli.Context) error {
	numLeaves := context.Int(leavesFlag.Name)
	if numLeaves < 0 {
		return fmt.Errorf("invalid number of leaves: %d", numLeaves)
	}

	fmt.Printf("Building tree with %d leaves ...\n", numLeaves)
	tree := buildRandomTree(context.Int64(seedFlag.Name), numLeaves)
	fmt.Printf("Root: %v\n", tree.Root())

	err := memory.VerifyTreeProofs(context.Context, tree, &verificationObserver{})
	if err == nil {
		fmt.Printf("All checks passed!\n")
	}
	return err
}

func buildRandomTree(seed int64, numLeaves int) *memory.Tree {
	r := rand.New(rand.NewSource(seed))
	tree := memory.NewTree(common.Blake2bHasher{})
	for tree.Len() < numLeaves {
		var key, value common.Hash
		r.Read(key[:])
		r.Read(value[:])
		tree.Set(key, value)
	}
	return tree
}

type verificationObserver struct {
	start time.Time
}

func (o *verificationObserver) StartVerification() {
	o.start = time.Now()
	o.printHeader()
	fmt.Println("Starting verification ...")
}

func (o *verificationObserver) Progress(msg string) {
	o.printHeader()
	fmt.Println(msg)
}

func (o *verificationObserver) EndVerification(res error) {
	if res == nil {
		o.printHeader()
		fmt.Println("Verification successful!")
	}
}

func (o *verificationObserver) printHeader() {
	now := time.Now()
	t := uint64(now.Sub(o.start).Seconds())
	fmt.Printf("%s [t=%4d:%02d] - ", now.Format("15:04:05"), t/60, t%60)
}
