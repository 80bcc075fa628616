// Copyright (c) 2025 Sonic Operations Ltd
//
// Use of this software is governed by the Business Source License included
// in the LICENSE file and at soniclabs.com/bsl11.
//
// Change Date: 2028-4-16
//
// On the date above, in accordance with the Business Source License, use of
// this software will be governed by the GNU Lesser General Public License v3.

package validator

import (
	"fmt"

	"github.com/zmcNotafraid/godwoken/rollup/registry"
	"github.com/zmcNotafraid/godwoken/rollup/state"
	"github.com/zmcNotafraid/godwoken/rollup/types"
)

// Action is a kind of effect a block may carry.
type Action int

const (
	ActionSubmitTransactions Action = iota
	ActionJoin
)

// Actions lists all actions in the order they are processed.
var Actions = []Action{ActionSubmitTransactions, ActionJoin}

func (a Action) String() string {
	switch a {
	case ActionSubmitTransactions:
		return "submit_transactions"
	case ActionJoin:
		return "join"
	default:
		return fmt.Sprintf("Action(%d)", int(a))
	}
}

// handler processes the payload of an action. Handlers only fill in the
// derived fields of the context, and only after all of their checks passed.
type handler interface {
	handle(ctx *Context, block *types.Block) error
}

// actionDispatcher runs the handlers of all actions of a block.
type actionDispatcher struct {
	embedding state.Embedding
	registry  registry.Registry
	policy    registry.Policy
}

func (d *actionDispatcher) getHandler(action Action) handler {
	switch action {
	case ActionSubmitTransactions:
		return submitTransactionsHandler{embedding: d.embedding}
	case ActionJoin:
		return joinHandler{registry: d.registry, policy: d.policy}
	}
	panic(fmt.Sprintf("unsupported action %v", action))
}

// dispatch processes all actions. Processing stops at the first failure.
func (d *actionDispatcher) dispatch(ctx *Context, block *types.Block) error {
	for _, action := range Actions {
		if err := d.getHandler(action).handle(ctx, block); err != nil {
			return fmt.Errorf("action %v: %w", action, err)
		}
	}
	return nil
}
