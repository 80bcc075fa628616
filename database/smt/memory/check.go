// Copyright (c) 2025 Sonic Operations Ltd
//
// Use of this software is governed by the Business Source License included
// in the LICENSE file and at soniclabs.com/bsl11.
//
// Change Date: 2028-4-16
//
// On the date above, in accordance with the Business Source License, use of
// this software will be governed by the GNU Lesser General Public License v3.

package memory

import (
	"context"
	"fmt"
	"math/rand"

	"github.com/zmcNotafraid/godwoken/common"
	"github.com/zmcNotafraid/godwoken/database/smt"
)

const ErrProofMismatch = common.ConstError("proof does not match tree content")

// VerificationObserver is notified about the progress of a tree check.
type VerificationObserver interface {
	StartVerification()
	Progress(msg string)
	EndVerification(res error)
}

// NilVerificationObserver ignores all notifications.
type NilVerificationObserver struct{}

func (NilVerificationObserver) StartVerification() {}

func (NilVerificationObserver) Progress(msg string) {}

func (NilVerificationObserver) EndVerification(res error) {}

// VerifyTreeProofs checks that the tree produces valid proofs for all of its
// leaves and for a number of keys not present in the tree. The process can
// be interrupted by the input context.
func VerifyTreeProofs(ctx context.Context, tree *Tree, observer VerificationObserver) error {
	if observer == nil {
		observer = NilVerificationObserver{}
	}
	observer.StartVerification()
	err := verifyTreeProofs(ctx, tree, observer)
	observer.EndVerification(err)
	return err
}

func verifyTreeProofs(ctx context.Context, tree *Tree, observer VerificationObserver) error {
	const (
		batchSize = 10
		logWindow = 100_000
	)
	hasher := tree.getHasher()
	root := tree.Root()
	leaves := tree.Leaves()

	observer.Progress(fmt.Sprintf("Verifying proofs of %d leaves ...", len(leaves)))
	for start := 0; start < len(leaves); start += batchSize {
		if err := ctx.Err(); err != nil {
			return err
		}
		if start > 0 && start%logWindow == 0 {
			observer.Progress(fmt.Sprintf("Verified %d of %d leaves", start, len(leaves)))
		}
		batch := leaves[start:min(start+batchSize, len(leaves))]
		if err := verifyLeaves(tree, hasher, root, batch); err != nil {
			return err
		}
	}

	const numKeys = 10
	observer.Progress(fmt.Sprintf("Verifying %d unused keys ...", numKeys))
	unused := make([]smt.Leaf, 0, numKeys)
	for _, key := range generateUnusedKeys(tree, numKeys) {
		unused = append(unused, smt.Leaf{Key: key})
	}
	return verifyLeaves(tree, hasher, root, unused)
}

func verifyLeaves(tree *Tree, hasher common.Hasher, root common.Hash, leaves []smt.Leaf) error {
	keys := make([]common.Hash, 0, len(leaves))
	for _, leaf := range leaves {
		keys = append(keys, leaf.Key)
	}
	proof, err := tree.Prove(keys...)
	if err != nil {
		return err
	}
	ok, err := smt.Verify(hasher, root, proof, leaves)
	if err != nil {
		return err
	}
	if !ok {
		return fmt.Errorf("%w: keys %v", ErrProofMismatch, keys)
	}
	return nil
}

// generateUnusedKeys generates keys that do not appear in the given tree.
func generateUnusedKeys(tree *Tree, number int) []common.Hash {
	res := make([]common.Hash, 0, number)
	seen := map[common.Hash]struct{}{}
	for len(res) < number {
		var key common.Hash
		rand.Read(key[:])
		if _, found := seen[key]; found || !tree.Get(key).IsZero() {
			continue
		}
		seen[key] = struct{}{}
		res = append(res, key)
	}
	return res
}
