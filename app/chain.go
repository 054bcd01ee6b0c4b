package app

import (
	custody "github.com/senda-one/custody"
)

// Decorators holds a chain of decorators, not yet bound to a handler
type Decorators struct {
	chain []custody.Decorator
}

// ChainDecorators takes a number of decorators and chains them
// together, so they are executed in order. You must call WithHandler
// to attach the final handler and get something usable.
func ChainDecorators(chain ...custody.Decorator) Decorators {
	return Decorators{chain: chain}
}

// Chain appends more decorators to the chain.
func (d Decorators) Chain(chain ...custody.Decorator) Decorators {
	return Decorators{chain: append(d.chain, chain...)}
}

// WithHandler terminates the chain and returns a Handler that executes
// all decorators in order before calling the final handler.
func (d Decorators) WithHandler(h custody.Handler) custody.Handler {
	res := h
	for i := len(d.chain) - 1; i >= 0; i-- {
		res = chainedHandler{
			decorator: d.chain[i],
			next:      res,
		}
	}
	return res
}

// chainedHandler binds one decorator to the rest of the chain.
type chainedHandler struct {
	decorator custody.Decorator
	next      custody.Handler
}

var _ custody.Handler = chainedHandler{}

func (h chainedHandler) Check(ctx custody.Context, store custody.KVStore, tx custody.Tx) (*custody.CheckResult, error) {
	return h.decorator.Check(ctx, store, tx, h.next)
}

func (h chainedHandler) Deliver(ctx custody.Context, store custody.KVStore, tx custody.Tx) (*custody.DeliverResult, error) {
	return h.decorator.Deliver(ctx, store, tx, h.next)
}
