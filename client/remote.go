package client

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/credentials/insecure"
	"google.golang.org/grpc/status"

	"github.com/frobware/go-pfq/lang"
	"github.com/frobware/go-pfq/manager"
	pb "github.com/frobware/go-pfq/server/pb"
	"github.com/frobware/go-pfq/skbuff"
	"github.com/frobware/go-pfq/store"
	"github.com/frobware/go-pfq/transport"
)

// remoteClient translates between domain types and the Lang service's
// Struct messages.
type remoteClient struct {
	client pb.LangClient
	conn   *grpc.ClientConn
	logger *slog.Logger
}

// newRemote creates a Client connected to the specified address.
func newRemote(address string, logger *slog.Logger) (*remoteClient, error) {
	target := ParseAddress(address)

	conn, err := grpc.NewClient(target, grpc.WithTransportCredentials(insecure.NewCredentials()))
	if err != nil {
		return nil, fmt.Errorf("connect to %s: %w", target, err)
	}

	return &remoteClient{
		client: pb.NewLangClient(conn),
		conn:   conn,
		logger: logger,
	}, nil
}

// FromConn returns a Client over an existing connection. Closing the
// client does not close cc.
func FromConn(cc grpc.ClientConnInterface) Client {
	return &remoteClient{client: pb.NewLangClient(cc), logger: slog.New(slog.DiscardHandler)}
}

// ParseAddress normalises an address for gRPC.
// Handles Unix socket paths (unix:// prefix or absolute paths starting with /)
// and TCP addresses (host:port).
func ParseAddress(address string) string {
	if strings.HasPrefix(address, "unix://") {
		return address
	}
	if strings.HasPrefix(address, "/") {
		return "unix://" + address
	}
	return address
}

// Close releases the gRPC connection.
func (c *remoteClient) Close() error {
	if c.conn == nil {
		return nil
	}
	return c.conn.Close()
}

// Compile stores n on the server.
func (c *remoteClient) Compile(ctx context.Context, name string, n lang.Node, opts manager.CompileOpts) (store.Record, error) {
	req := pb.CompileRequest{Name: name, Node: transport.Encode(n), Labels: opts.Labels}
	resp, err := c.client.Compile(ctx, req.Struct())
	if err != nil {
		return store.Record{}, translateGRPCError(err)
	}
	return pb.ParseRecord(resp)
}

// Get retrieves a stored composition.
func (c *remoteClient) Get(ctx context.Context, name string) (store.Record, error) {
	resp, err := c.client.Get(ctx, pb.NameRequest{Name: name}.Struct())
	if err != nil {
		return store.Record{}, translateGRPCError(err)
	}
	return pb.ParseRecord(resp)
}

// List returns stored compositions.
func (c *remoteClient) List(ctx context.Context, opts manager.ListOpts) ([]store.Record, error) {
	req := pb.ListRequest{LabelKey: opts.LabelKey, LabelValue: opts.LabelValue}
	resp, err := c.client.List(ctx, req.Struct())
	if err != nil {
		return nil, translateGRPCError(err)
	}
	return pb.ParseRecords(resp)
}

// Delete removes a stored composition.
func (c *remoteClient) Delete(ctx context.Context, name string) error {
	_, err := c.client.Delete(ctx, pb.NameRequest{Name: name}.Struct())
	return translateGRPCError(err)
}

// Evaluate runs stored compositions as a chain.
func (c *remoteClient) Evaluate(ctx context.Context, names []string, proceedOn uint32, in skbuff.State) (manager.Result, error) {
	req := pb.EvaluateRequest{Names: names, ProceedOn: proceedOn, State: in}
	return c.evaluate(ctx, req)
}

// EvaluateNode runs an unsaved node.
func (c *remoteClient) EvaluateNode(ctx context.Context, n lang.Node, in skbuff.State) (manager.Result, error) {
	req := pb.EvaluateRequest{Node: transport.Encode(n), State: in}
	return c.evaluate(ctx, req)
}

func (c *remoteClient) evaluate(ctx context.Context, req pb.EvaluateRequest) (manager.Result, error) {
	resp, err := c.client.Evaluate(ctx, req.Struct())
	if err != nil {
		return manager.Result{}, translateGRPCError(err)
	}
	return pb.ParseResult(resp)
}

// translateGRPCError converts gRPC status errors to client errors.
func translateGRPCError(err error) error {
	if err == nil {
		return nil
	}

	st, ok := status.FromError(err)
	if !ok {
		return err
	}

	switch st.Code() {
	case codes.Unimplemented:
		return fmt.Errorf("%s: %w", st.Message(), ErrNotSupported)
	case codes.NotFound:
		return fmt.Errorf("%s: %w", st.Message(), ErrNotFound)
	case codes.InvalidArgument:
		return fmt.Errorf("%s: %w", st.Message(), ErrInvalidArgument)
	default:
		return err
	}
}
