package treesource

import (
	"context"

	"google.golang.org/grpc"
	"google.golang.org/protobuf/types/known/structpb"
)

// #region descriptors
const (
	ServiceName           = "treedecide.v1.TreeService"
	GetDecisionTreeMethod = "/" + ServiceName + "/GetDecisionTree"
)

// ServiceClient is the client side of the tree service. Requests and responses are
// google.protobuf.Struct messages: {agent_id, timestamp} in, the envelope out.
type ServiceClient interface {
	GetDecisionTree(ctx context.Context, in *structpb.Struct, opts ...grpc.CallOption) (*structpb.Struct, error)
}

// ServiceServer is the server side of the tree service.
type ServiceServer interface {
	GetDecisionTree(ctx context.Context, in *structpb.Struct) (*structpb.Struct, error)
}

// #endregion descriptors

// #region client-stub
type serviceClient struct {
	cc grpc.ClientConnInterface
}

// NewServiceClient binds a ServiceClient to a connection.
func NewServiceClient(cc grpc.ClientConnInterface) ServiceClient {
	return &serviceClient{cc: cc}
}

func (c *serviceClient) GetDecisionTree(ctx context.Context, in *structpb.Struct, opts ...grpc.CallOption) (*structpb.Struct, error) {
	out := new(structpb.Struct)
	if err := c.cc.Invoke(ctx, GetDecisionTreeMethod, in, out, opts...); err != nil {
		return nil, err
	}
	return out, nil
}

// #endregion client-stub

// #region server-registration
// RegisterServer registers srv on s.
func RegisterServer(s grpc.ServiceRegistrar, srv ServiceServer) {
	s.RegisterService(&serviceDesc, srv)
}

func getDecisionTreeHandler(srv any, ctx context.Context, dec func(any) error, interceptor grpc.UnaryServerInterceptor) (any, error) {
	in := new(structpb.Struct)
	if err := dec(in); err != nil {
		return nil, err
	}
	if interceptor == nil {
		return srv.(ServiceServer).GetDecisionTree(ctx, in)
	}
	info := &grpc.UnaryServerInfo{Server: srv, FullMethod: GetDecisionTreeMethod}
	handler := func(ctx context.Context, req any) (any, error) {
		return srv.(ServiceServer).GetDecisionTree(ctx, req.(*structpb.Struct))
	}
	return interceptor(ctx, in, info, handler)
}

var serviceDesc = grpc.ServiceDesc{
	ServiceName: ServiceName,
	HandlerType: (*ServiceServer)(nil),
	Methods: []grpc.MethodDesc{
		{MethodName: "GetDecisionTree", Handler: getDecisionTreeHandler},
	},
	Streams:  []grpc.StreamDesc{},
	Metadata: "treedecide/v1/tree_service.proto",
}

// #endregion server-registration
