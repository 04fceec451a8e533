package extractor

import (
	"context"

	"google.golang.org/grpc"
	"google.golang.org/protobuf/types/known/structpb"
)

const (
	// ServiceName is the fully qualified gRPC service name.
	ServiceName = "excelform.v1.FormExtractor"
	// ExtractSECCFMethod is the full method name of ExtractSECCF.
	ExtractSECCFMethod = "/" + ServiceName + "/ExtractSECCF"
)

// FormExtractorServer is the server API of the FormExtractor service.
type FormExtractorServer interface {
	ExtractSECCF(ctx context.Context, request *structpb.Struct) (*structpb.Struct, error)
}

// ServiceDesc describes the FormExtractor service for grpc.Server.
//
//nolint:gochecknoglobals // grpc registers services by descriptor.
var ServiceDesc = grpc.ServiceDesc{
	ServiceName: ServiceName,
	HandlerType: (*FormExtractorServer)(nil),
	Methods: []grpc.MethodDesc{
		{
			MethodName: "ExtractSECCF",
			Handler:    extractSECCFHandler,
		},
	},
	Streams:  []grpc.StreamDesc{},
	Metadata: "excelform/v1/extractor.proto",
}

// Register adds the FormExtractor service to registrar.
func Register(registrar grpc.ServiceRegistrar, server FormExtractorServer) {
	registrar.RegisterService(&ServiceDesc, server)
}

func extractSECCFHandler(
	srv any,
	ctx context.Context,
	dec func(any) error,
	interceptor grpc.UnaryServerInterceptor,
) (any, error) {
	in := new(structpb.Struct)
	if err := dec(in); err != nil {
		return nil, err
	}

	if interceptor == nil {
		return srv.(FormExtractorServer).ExtractSECCF(ctx, in)
	}

	info := &grpc.UnaryServerInfo{
		Server:     srv,
		FullMethod: ExtractSECCFMethod,
	}

	handler := func(ctx context.Context, req any) (any, error) {
		return srv.(FormExtractorServer).ExtractSECCF(ctx, req.(*structpb.Struct))
	}

	return interceptor(ctx, in, info, handler)
}
