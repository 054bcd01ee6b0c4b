package app

import (
	"fmt"
	"regexp"

	custody "github.com/senda-one/custody"
	"github.com/senda-one/custody/errors"
)

// isPath is the RegExp to ensure the routes make sense
var isPath = regexp.MustCompile(`^[a-zA-Z0-9_/\-]+$`).MatchString

// Router allows us to register many handlers with different paths and
// then direct each message to the proper handler.
//
// Minimal interface modeled after net/http.ServeMux
type Router struct {
	routes map[string]custody.Handler
}

var _ custody.Registry = (*Router)(nil)
var _ custody.Handler = (*Router)(nil)

// NewRouter initializes a router with no routes
func NewRouter() *Router {
	return &Router{
		routes: make(map[string]custody.Handler, 10),
	}
}

// Handle adds a new Handler for the given path. This function panics
// if a handler for this path was already registered, or if the path is
// invalid.
func (r *Router) Handle(path string, h custody.Handler) {
	if !isPath(path) {
		panic(fmt.Sprintf("Invalid path: %s", path))
	}
	if _, ok := r.routes[path]; ok {
		panic(fmt.Sprintf("Re-registering route: %s", path))
	}
	r.routes[path] = h
}

// handler returns the registered Handler for this path, or a
// noSuchPathHandler if none was registered.
func (r *Router) handler(tx custody.Tx) custody.Handler {
	msg, err := tx.GetMsg()
	if err != nil {
		return noSuchPathHandler{err: errors.Wrap(err, "cannot get message")}
	}
	path := msg.Path()
	if h, ok := r.routes[path]; ok {
		return h
	}
	return noSuchPathHandler{err: errors.Wrapf(errors.ErrNotFound, "no handler for message path %q", path)}
}

// Check dispatches to the proper handler based on the message path
func (r *Router) Check(ctx custody.Context, store custody.KVStore, tx custody.Tx) (*custody.CheckResult, error) {
	return r.handler(tx).Check(ctx, store, tx)
}

// Deliver dispatches to the proper handler based on the message path
func (r *Router) Deliver(ctx custody.Context, store custody.KVStore, tx custody.Tx) (*custody.DeliverResult, error) {
	return r.handler(tx).Deliver(ctx, store, tx)
}

// noSuchPathHandler always returns the routing error.
type noSuchPathHandler struct {
	err error
}

var _ custody.Handler = noSuchPathHandler{}

func (h noSuchPathHandler) Check(custody.Context, custody.KVStore, custody.Tx) (*custody.CheckResult, error) {
	return nil, h.err
}

func (h noSuchPathHandler) Deliver(custody.Context, custody.KVStore, custody.Tx) (*custody.DeliverResult, error) {
	return nil, h.err
}
