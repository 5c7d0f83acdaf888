package server

import (
	"context"
	"errors"

	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
	"google.golang.org/protobuf/types/known/structpb"

	"github.com/frobware/go-pfq/functional"
	"github.com/frobware/go-pfq/manager"
	pb "github.com/frobware/go-pfq/server/pb"
	"github.com/frobware/go-pfq/store"
	"github.com/frobware/go-pfq/transport"
)

// Compile implements pb.LangServer.
func (s *Server) Compile(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error) {
	r, err := pb.ParseCompileRequest(req)
	if err != nil {
		return nil, grpcError(err)
	}
	rec, err := s.mgr.CompileWire(ctx, r.Name, r.Node, manager.CompileOpts{Labels: r.Labels})
	if err != nil {
		return nil, grpcError(err)
	}
	resp, err := pb.RecordStruct(rec)
	if err != nil {
		return nil, grpcError(err)
	}
	return resp, nil
}

// Get implements pb.LangServer.
func (s *Server) Get(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error) {
	r, err := pb.ParseNameRequest(req)
	if err != nil {
		return nil, grpcError(err)
	}
	rec, err := s.mgr.Get(ctx, r.Name)
	if err != nil {
		return nil, grpcError(err)
	}
	resp, err := pb.RecordStruct(rec)
	if err != nil {
		return nil, grpcError(err)
	}
	return resp, nil
}

// List implements pb.LangServer.
func (s *Server) List(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error) {
	r, err := pb.ParseListRequest(req)
	if err != nil {
		return nil, grpcError(err)
	}
	recs, err := s.mgr.List(ctx, manager.ListOpts{LabelKey: r.LabelKey, LabelValue: r.LabelValue})
	if err != nil {
		return nil, grpcError(err)
	}
	resp, err := pb.RecordsStruct(recs)
	if err != nil {
		return nil, grpcError(err)
	}
	return resp, nil
}

// Delete implements pb.LangServer.
func (s *Server) Delete(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error) {
	r, err := pb.ParseNameRequest(req)
	if err != nil {
		return nil, grpcError(err)
	}
	if err := s.mgr.Delete(ctx, r.Name); err != nil {
		return nil, grpcError(err)
	}
	return pb.Empty(), nil
}

// Evaluate implements pb.LangServer.
func (s *Server) Evaluate(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error) {
	r, err := pb.ParseEvaluateRequest(req)
	if err != nil {
		return nil, grpcError(err)
	}

	var res manager.Result
	if r.Node != nil {
		res, err = s.mgr.EvaluateWire(ctx, r.Node, r.State)
	} else {
		res, err = s.mgr.EvaluateChain(ctx, r.Names, r.ProceedOn, r.State)
	}
	if err != nil {
		return nil, grpcError(err)
	}
	return pb.ResultStruct(res), nil
}

// grpcError maps domain errors onto gRPC status codes.
func grpcError(err error) error {
	var (
		notFound  store.ErrNotFound
		symbol    functional.ErrSymbolNotFound
		tooDeep   functional.ErrTooDeep
		tooLong   functional.ErrChainTooLong
		decodeErr transport.DecodeError
		fieldErr  pb.FieldError
	)
	switch {
	case errors.As(err, &notFound):
		return status.Error(codes.NotFound, err.Error())
	case errors.As(err, &symbol),
		errors.As(err, &tooDeep),
		errors.As(err, &tooLong),
		errors.As(err, &decodeErr),
		errors.As(err, &fieldErr):
		return status.Error(codes.InvalidArgument, err.Error())
	case errors.Is(err, context.Canceled):
		return status.Error(codes.Canceled, err.Error())
	case errors.Is(err, context.DeadlineExceeded):
		return status.Error(codes.DeadlineExceeded, err.Error())
	default:
		return status.Error(codes.Internal, err.Error())
	}
}
