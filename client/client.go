// Package client provides a transport-agnostic interface to stored
// compositions. Commands use the Client interface and remain unaware
// of whether they talk to a daemon (Dial) or to an in-process server
// over a private socket (Open). Both go through the same gRPC handlers.
package client

import (
	"context"
	"errors"
	"io"

	"github.com/frobware/go-pfq/lang"
	"github.com/frobware/go-pfq/manager"
	"github.com/frobware/go-pfq/skbuff"
	"github.com/frobware/go-pfq/store"
)

var (
	// ErrNotSupported is returned when the server does not implement
	// an operation.
	ErrNotSupported = errors.New("operation not supported by server")
	// ErrNotFound is returned when a named composition does not exist.
	ErrNotFound = errors.New("not found")
	// ErrInvalidArgument is returned when the server rejects a request.
	ErrInvalidArgument = errors.New("invalid argument")
)

// Client manages and evaluates stored compositions.
type Client interface {
	io.Closer

	Compile(ctx context.Context, name string, n lang.Node, opts manager.CompileOpts) (store.Record, error)
	Get(ctx context.Context, name string) (store.Record, error)
	List(ctx context.Context, opts manager.ListOpts) ([]store.Record, error)
	Delete(ctx context.Context, name string) error

	// Evaluate runs the named compositions as a chain. A zero
	// proceedOn continues while stages forward.
	Evaluate(ctx context.Context, names []string, proceedOn uint32, in skbuff.State) (manager.Result, error)
	// EvaluateNode runs an unsaved node.
	EvaluateNode(ctx context.Context, n lang.Node, in skbuff.State) (manager.Result, error)
}
