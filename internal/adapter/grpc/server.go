package grpc

import (
	"context"
	"encoding/json"
	"errors"
	"strings"

	"go.uber.org/zap"
	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
	"google.golang.org/protobuf/types/known/emptypb"
	"google.golang.org/protobuf/types/known/structpb"

	"github.com/simaogato/flowviz/internal/domain"
	"github.com/simaogato/flowviz/internal/usecase/simulation"
	"github.com/simaogato/flowviz/internal/usecase/table"
)

// Server implements the FlowService gRPC server
type Server struct {
	Simulation   *simulation.SimulationService
	TableService *table.TableService
	Logger       *zap.Logger
}

var _ FlowServiceServer = (*Server)(nil)

// NewServer creates a new gRPC server instance
func NewServer(sim *simulation.SimulationService, tableService *table.TableService, logger *zap.Logger) *Server {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Server{
		Simulation:   sim,
		TableService: tableService,
		Logger:       logger.Named("grpc"),
	}
}

// GetScene handles the GetScene RPC
func (s *Server) GetScene(ctx context.Context, _ *emptypb.Empty) (*structpb.Struct, error) {
	out, err := toStruct(s.Simulation.Snapshot())
	if err != nil {
		return nil, mapError(err)
	}
	return out, nil
}

// MoveEntity handles the MoveEntity RPC; the request carries id, x and y
func (s *Server) MoveEntity(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error) {
	fields := req.GetFields()

	id := fields["id"].GetStringValue()
	if id == "" {
		return nil, status.Error(codes.InvalidArgument, "id is required")
	}
	x, ok := numberField(fields, "x")
	if !ok {
		return nil, status.Error(codes.InvalidArgument, "x must be a number")
	}
	y, ok := numberField(fields, "y")
	if !ok {
		return nil, status.Error(codes.InvalidArgument, "y must be a number")
	}

	entity, err := s.Simulation.MoveEntity(id, domain.Point{X: x, Y: y})
	if err != nil {
		return nil, mapError(err)
	}

	out, err := toStruct(entity)
	if err != nil {
		return nil, mapError(err)
	}
	return out, nil
}

// ListTransfers handles the ListTransfers RPC
func (s *Server) ListTransfers(ctx context.Context, _ *emptypb.Empty) (*structpb.ListValue, error) {
	rows, err := s.TableService.Rows(ctx)
	if err != nil {
		return nil, status.Errorf(codes.Unavailable, "%s", err.Error())
	}

	raw, err := toJSONValue(rows)
	if err != nil {
		return nil, mapError(err)
	}
	items, _ := raw.([]interface{})
	out, err := structpb.NewList(items)
	if err != nil {
		return nil, mapError(err)
	}
	return out, nil
}

// WatchScene streams a snapshot on every redraw until the client goes away
func (s *Server) WatchScene(_ *emptypb.Empty, stream grpc.ServerStreamingServer[structpb.Struct]) error {
	updates, unsubscribe := s.Simulation.Layer.Subscribe()
	defer unsubscribe()

	send := func() error {
		out, err := toStruct(s.Simulation.Snapshot())
		if err != nil {
			return mapError(err)
		}
		return stream.Send(out)
	}

	if err := send(); err != nil {
		return err
	}

	ctx := stream.Context()
	for {
		select {
		case <-ctx.Done():
			s.Logger.Debug("scene watcher left", zap.Error(ctx.Err()))
			return nil
		case _, ok := <-updates:
			if !ok {
				return nil
			}
			if err := send(); err != nil {
				return err
			}
		}
	}
}

func numberField(fields map[string]*structpb.Value, key string) (float64, bool) {
	v, ok := fields[key]
	if !ok {
		return 0, false
	}
	n, ok := v.GetKind().(*structpb.Value_NumberValue)
	if !ok {
		return 0, false
	}
	return n.NumberValue, true
}

// toJSONValue reshapes v into the generic form structpb accepts
func toJSONValue(v interface{}) (interface{}, error) {
	data, err := json.Marshal(v)
	if err != nil {
		return nil, err
	}
	var out interface{}
	if err := json.Unmarshal(data, &out); err != nil {
		return nil, err
	}
	return out, nil
}

func toStruct(v interface{}) (*structpb.Struct, error) {
	raw, err := toJSONValue(v)
	if err != nil {
		return nil, err
	}
	m, ok := raw.(map[string]interface{})
	if !ok {
		return nil, errors.New("unexpected message shape, want an object")
	}
	return structpb.NewStruct(m)
}

// mapError converts domain errors to gRPC status errors
func mapError(err error) error {
	if err == nil {
		return nil
	}

	switch {
	case errors.Is(err, domain.ErrEntityNotFound), errors.Is(err, domain.ErrTokenNotFound):
		return status.Errorf(codes.NotFound, "%s", err.Error())
	case errors.Is(err, domain.ErrNotReady):
		return status.Errorf(codes.FailedPrecondition, "%s", err.Error())
	case errors.Is(err, domain.ErrInvalidDocument):
		return status.Errorf(codes.InvalidArgument, "%s", err.Error())
	}

	errorMsg := err.Error()
	if strings.Contains(errorMsg, "invalid") || strings.Contains(errorMsg, "must have") {
		return status.Errorf(codes.InvalidArgument, "%s", errorMsg)
	}
	if strings.Contains(errorMsg, "not found") {
		return status.Errorf(codes.NotFound, "%s", errorMsg)
	}

	// Default to Internal error for unknown errors
	return status.Errorf(codes.Internal, "%s", errorMsg)
}
