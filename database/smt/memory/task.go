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
	"runtime"
	"sync"
	"sync/atomic"

	"github.com/0xsoniclabs/tracy"
	"github.com/zmcNotafraid/godwoken/common"
)

// hashTask refreshes the cached hash of a single dirty inner node. Tasks form
// a tree mirroring the dirty part of the SMT: a task may only run once all
// tasks of its dirty children have completed.
type hashTask struct {
	node    *inner
	pending atomic.Int32 // < number of child tasks still running
	parent  *hashTask    // < optional parent to notify when done
}

// run hashes the node and returns the parent task if it became ready.
func (t *hashTask) run(hasher common.Hasher) *hashTask {
	t.node.hash(hasher)
	if t.parent == nil || t.parent.pending.Add(-1) != 0 {
		return nil
	}
	return t.parent
}

// collectHashTasks lists a task for every dirty inner node of the subtree in
// post-order, so children always precede their parents.
func collectHashTasks(n node, parent *hashTask, tasks []*hashTask) []*hashTask {
	in, ok := n.(*inner)
	if !ok || !in.dirty {
		return tasks
	}
	t := &hashTask{node: in, parent: parent}
	if parent != nil {
		parent.pending.Add(1)
	}
	tasks = collectHashTasks(in.children[0], t, tasks)
	tasks = collectHashTasks(in.children[1], t, tasks)
	return append(tasks, t)
}

// updateHashes refreshes all dirty hashes of the subtree rooted by n.
// Independent subtrees are hashed in parallel.
func updateHashes(n node, hasher common.Hasher) {
	zone := tracy.ZoneBegin("smt::update_hashes")
	defer zone.End()

	if n == nil {
		return
	}
	if _, ok := n.(*leaf); ok {
		n.hash(hasher)
		return
	}

	tasks := collectHashTasks(n, nil, nil)
	if len(tasks) < 20 {
		for _, t := range tasks {
			t.node.hash(hasher)
		}
		return
	}

	workList := make([]*hashTask, 0, len(tasks))
	for _, t := range tasks {
		if t.pending.Load() == 0 {
			workList = append(workList, t)
		}
	}

	pos := atomic.Int32{}
	worker := func() {
		zone := tracy.ZoneBegin("smt::hash_worker")
		defer zone.End()
		for {
			next := int(pos.Add(1) - 1)
			if next >= len(workList) {
				return
			}
			for t := workList[next]; t != nil; {
				t = t.run(hasher)
			}
		}
	}

	var wg sync.WaitGroup
	for range min(runtime.NumCPU(), 8) {
		wg.Add(1)
		go func() {
			defer wg.Done()
			worker()
		}()
	}
	worker()
	wg.Wait()
}
