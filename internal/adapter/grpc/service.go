package grpc

import (
	"context"
	"io"

	"google.golang.org/grpc"
	"google.golang.org/protobuf/types/known/emptypb"
	"google.golang.org/protobuf/types/known/structpb"
)

// ServiceName is the fully qualified name of the diagram service.
// Messages are protobuf well-known types, so no generated code is needed.
const ServiceName = "flowviz.v1.FlowService"

const (
	GetSceneMethod      = "/" + ServiceName + "/GetScene"
	MoveEntityMethod    = "/" + ServiceName + "/MoveEntity"
	ListTransfersMethod = "/" + ServiceName + "/ListTransfers"
	WatchSceneMethod    = "/" + ServiceName + "/WatchScene"
)

// FlowServiceServer is the server API for the diagram service
type FlowServiceServer interface {
	GetScene(context.Context, *emptypb.Empty) (*structpb.Struct, error)
	MoveEntity(context.Context, *structpb.Struct) (*structpb.Struct, error)
	ListTransfers(context.Context, *emptypb.Empty) (*structpb.ListValue, error)
	WatchScene(*emptypb.Empty, grpc.ServerStreamingServer[structpb.Struct]) error
}

// RegisterFlowServiceServer registers srv on s
func RegisterFlowServiceServer(s grpc.ServiceRegistrar, srv FlowServiceServer) {
	s.RegisterService(&FlowServiceDesc, srv)
}

func getSceneHandler(srv interface{}, ctx context.Context, dec func(interface{}) error, interceptor grpc.UnaryServerInterceptor) (interface{}, error) {
	in := new(emptypb.Empty)
	if err := dec(in); err != nil {
		return nil, err
	}
	if interceptor == nil {
		return srv.(FlowServiceServer).GetScene(ctx, in)
	}
	info := &grpc.UnaryServerInfo{Server: srv, FullMethod: GetSceneMethod}
	handler := func(ctx context.Context, req interface{}) (interface{}, error) {
		return srv.(FlowServiceServer).GetScene(ctx, req.(*emptypb.Empty))
	}
	return interceptor(ctx, in, info, handler)
}

func moveEntityHandler(srv interface{}, ctx context.Context, dec func(interface{}) error, interceptor grpc.UnaryServerInterceptor) (interface{}, error) {
	in := new(structpb.Struct)
	if err := dec(in); err != nil {
		return nil, err
	}
	if interceptor == nil {
		return srv.(FlowServiceServer).MoveEntity(ctx, in)
	}
	info := &grpc.UnaryServerInfo{Server: srv, FullMethod: MoveEntityMethod}
	handler := func(ctx context.Context, req interface{}) (interface{}, error) {
		return srv.(FlowServiceServer).MoveEntity(ctx, req.(*structpb.Struct))
	}
	return interceptor(ctx, in, info, handler)
}

func listTransfersHandler(srv interface{}, ctx context.Context, dec func(interface{}) error, interceptor grpc.UnaryServerInterceptor) (interface{}, error) {
	in := new(emptypb.Empty)
	if err := dec(in); err != nil {
		return nil, err
	}
	if interceptor == nil {
		return srv.(FlowServiceServer).ListTransfers(ctx, in)
	}
	info := &grpc.UnaryServerInfo{Server: srv, FullMethod: ListTransfersMethod}
	handler := func(ctx context.Context, req interface{}) (interface{}, error) {
		return srv.(FlowServiceServer).ListTransfers(ctx, req.(*emptypb.Empty))
	}
	return interceptor(ctx, in, info, handler)
}

func watchSceneHandler(srv interface{}, stream grpc.ServerStream) error {
	in := new(emptypb.Empty)
	if err := stream.RecvMsg(in); err != nil {
		return err
	}
	return srv.(FlowServiceServer).WatchScene(in, &grpc.GenericServerStream[emptypb.Empty, structpb.Struct]{ServerStream: stream})
}

// FlowServiceDesc describes the diagram service for grpc.Server
var FlowServiceDesc = grpc.ServiceDesc{
	ServiceName: ServiceName,
	HandlerType: (*FlowServiceServer)(nil),
	Methods: []grpc.MethodDesc{
		{MethodName: "GetScene", Handler: getSceneHandler},
		{MethodName: "MoveEntity", Handler: moveEntityHandler},
		{MethodName: "ListTransfers", Handler: listTransfersHandler},
	},
	Streams: []grpc.StreamDesc{
		{StreamName: "WatchScene", Handler: watchSceneHandler, ServerStreams: true},
	},
	Metadata: "flowviz/v1/flow.proto",
}

// FlowServiceClient calls the diagram service
type FlowServiceClient struct {
	cc grpc.ClientConnInterface
}

// NewFlowServiceClient creates a client on an established connection
func NewFlowServiceClient(cc grpc.ClientConnInterface) *FlowServiceClient {
	return &FlowServiceClient{cc: cc}
}

// GetScene returns the current frame
func (c *FlowServiceClient) GetScene(ctx context.Context, opts ...grpc.CallOption) (*structpb.Struct, error) {
	out := new(structpb.Struct)
	if err := c.cc.Invoke(ctx, GetSceneMethod, &emptypb.Empty{}, out, opts...); err != nil {
		return nil, err
	}
	return out, nil
}

// MoveEntity drags an entity to (x, y)
func (c *FlowServiceClient) MoveEntity(ctx context.Context, id string, x, y float64, opts ...grpc.CallOption) (*structpb.Struct, error) {
	in, err := structpb.NewStruct(map[string]interface{}{"id": id, "x": x, "y": y})
	if err != nil {
		return nil, err
	}
	out := new(structpb.Struct)
	if err := c.cc.Invoke(ctx, MoveEntityMethod, in, out, opts...); err != nil {
		return nil, err
	}
	return out, nil
}

// ListTransfers returns the rows of the transfer table
func (c *FlowServiceClient) ListTransfers(ctx context.Context, opts ...grpc.CallOption) (*structpb.ListValue, error) {
	out := new(structpb.ListValue)
	if err := c.cc.Invoke(ctx, ListTransfersMethod, &emptypb.Empty{}, out, opts...); err != nil {
		return nil, err
	}
	return out, nil
}

// WatchScene streams a frame on every redraw
func (c *FlowServiceClient) WatchScene(ctx context.Context, opts ...grpc.CallOption) (grpc.ServerStreamingClient[structpb.Struct], error) {
	stream, err := c.cc.NewStream(ctx, &FlowServiceDesc.Streams[0], WatchSceneMethod, opts...)
	if err != nil {
		return nil, err
	}
	x := &grpc.GenericClientStream[emptypb.Empty, structpb.Struct]{ClientStream: stream}
	// io.EOF means the server already ended the stream; Recv reports why
	if err := x.ClientStream.SendMsg(&emptypb.Empty{}); err != nil && err != io.EOF {
		return nil, err
	}
	if err := x.ClientStream.CloseSend(); err != nil {
		return nil, err
	}
	return x, nil
}
