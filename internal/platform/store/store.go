// Package store is a thin persistence client with a middleware pipeline.
// Every data operation is described as an Op and dispatched through the
// client; cross-cutting concerns such as tenant scoping are registered once
// at client construction, so no query path can bypass them.
package store

import (
	"context"
	"fmt"
)

// Action is the canonical kind of a data operation.
type Action string

const (
	ActionFindMany Action = "findMany"
	ActionFindOne  Action = "findOne"
	ActionCreate   Action = "create"
	ActionUpdate   Action = "update"
	ActionDelete   Action = "delete"
	ActionUpsert   Action = "upsert"
)

// Op describes one data operation. Filter is the predicate for reads,
// updates, deletes and upserts; Data is the write payload for creates,
// updates and upserts. Middleware may rewrite both before execution.
type Op struct {
	Model  string
	Action Action
	Filter map[string]any
	Data   map[string]any
}

// Rows is a generic result set.
type Rows []map[string]any

// Handler executes (or forwards) an operation.
type Handler func(ctx context.Context, op *Op) (Rows, error)

// Middleware wraps a Handler.
type Middleware func(next Handler) Handler

// Executor is the terminal stage of the pipeline, backed by a real engine.
type Executor interface {
	Exec(ctx context.Context, op *Op) (Rows, error)
}

// Client dispatches operations through its middleware chain to an executor.
type Client struct {
	handler Handler
}

// NewClient builds a client whose pipeline is fixed at construction.
// Middleware runs in the order given, outermost first.
func NewClient(exec Executor, mws ...Middleware) *Client {
	h := exec.Exec
	for i := len(mws) - 1; i >= 0; i-- {
		h = mws[i](h)
	}
	return &Client{handler: h}
}

// Do runs one operation through the full pipeline.
func (c *Client) Do(ctx context.Context, op *Op) (Rows, error) {
	if op.Model == "" {
		return nil, fmt.Errorf("store: operation has no model")
	}
	switch op.Action {
	case ActionFindMany, ActionFindOne, ActionCreate, ActionUpdate, ActionDelete, ActionUpsert:
	default:
		return nil, fmt.Errorf("store: unknown action %q", op.Action)
	}
	return c.handler(ctx, op)
}
