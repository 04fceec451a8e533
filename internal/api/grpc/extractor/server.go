package extractor

import (
	"context"
	"encoding/base64"
	"errors"
	"fmt"

	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
	"google.golang.org/protobuf/encoding/protojson"
	"google.golang.org/protobuf/types/known/structpb"

	domain "github.com/oshokin/excel-form-extractor/internal/domain/extraction"
	"github.com/oshokin/excel-form-extractor/internal/logger"
	forms "github.com/oshokin/excel-form-extractor/pkg/extractor"
)

// Request and response field names.
const (
	FieldWorkbook     = "workbook"
	FieldPath         = "path"
	FieldCompanyNames = "company_names"

	FieldStatus   = "status"
	FieldMessage  = "message"
	FieldData     = "data"
	FieldCached   = "cached"
	FieldProducer = "producer"
)

// Service abstracts the extraction operations the transport layer depends on.
type Service interface {
	Extract(ctx context.Context, req *domain.Request) (*domain.Result, error)
	ExtractFile(ctx context.Context, path string, companyNames []string) (*domain.Result, error)
}

// Server implements the FormExtractor gRPC API.
type Server struct {
	// service performs the extraction.
	service Service
	// allowPaths enables requests naming a workbook on the server file system.
	allowPaths bool
}

// ServerOption configures a Server.
type ServerOption func(*Server)

// WithPathRequests enables or disables the path request field.
func WithPathRequests(allow bool) ServerOption {
	return func(s *Server) {
		s.allowPaths = allow
	}
}

// NewServer wires the provided service implementation into a gRPC handler.
// Path requests are rejected unless enabled with WithPathRequests.
func NewServer(service Service, opts ...ServerOption) *Server {
	s := &Server{
		service: service,
	}

	for _, opt := range opts {
		opt(s)
	}

	return s
}

// ExtractSECCF extracts a workbook sent inline or referenced by path.
func (s *Server) ExtractSECCF(ctx context.Context, request *structpb.Struct) (*structpb.Struct, error) {
	if request == nil {
		return nil, status.Error(codes.InvalidArgument, "request is required")
	}

	fields := request.GetFields()

	names, err := companyNames(fields[FieldCompanyNames])
	if err != nil {
		return nil, status.Error(codes.InvalidArgument, err.Error())
	}

	workbook, hasWorkbook := fields[FieldWorkbook]
	path, hasPath := fields[FieldPath]

	var result *domain.Result

	switch {
	case hasWorkbook == hasPath:
		return nil, status.Errorf(codes.InvalidArgument, "exactly one of %s and %s is required", FieldWorkbook, FieldPath)
	case hasWorkbook:
		data, decodeErr := base64.StdEncoding.DecodeString(workbook.GetStringValue())
		if decodeErr != nil {
			return nil, status.Errorf(codes.InvalidArgument, "decode %s: %v", FieldWorkbook, decodeErr)
		}

		result, err = s.service.Extract(ctx, &domain.Request{Workbook: data, CompanyNames: names})
	case !s.allowPaths:
		return nil, status.Errorf(codes.PermissionDenied, "%s requests are disabled on this server", FieldPath)
	default:
		result, err = s.service.ExtractFile(ctx, path.GetStringValue(), names)
	}

	if err != nil {
		logger.WarnKV(ctx, "Extraction request failed", "error", err)

		return nil, toStatus(err)
	}

	return toResponse(result)
}

// companyNames converts an optional list value to strings.
func companyNames(value *structpb.Value) ([]string, error) {
	if value == nil {
		return nil, nil
	}

	list := value.GetListValue()
	if list == nil {
		return nil, fmt.Errorf("%s must be a list of strings", FieldCompanyNames)
	}

	names := make([]string, 0, len(list.GetValues()))

	for _, v := range list.GetValues() {
		name, ok := v.GetKind().(*structpb.Value_StringValue)
		if !ok {
			return nil, fmt.Errorf("%s must be a list of strings", FieldCompanyNames)
		}

		names = append(names, name.StringValue)
	}

	return names, nil
}

func toStatus(err error) error {
	switch {
	case errors.Is(err, domain.ErrInvalidRequest),
		errors.Is(err, domain.ErrInvalidWorkbook),
		errors.Is(err, domain.ErrWorkbookTooLarge):
		return status.Error(codes.InvalidArgument, err.Error())
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		return status.FromContextError(err).Err()
	default:
		return status.Error(codes.Internal, "unable to extract workbook")
	}
}

func toResponse(result *domain.Result) (*structpb.Struct, error) {
	data := new(structpb.Struct)
	if err := protojson.Unmarshal(result.Payload, data); err != nil {
		return nil, status.Errorf(codes.Internal, "encode extraction: %v", err)
	}

	success := forms.NewSuccessResponse(nil)

	return &structpb.Struct{
		Fields: map[string]*structpb.Value{
			FieldStatus:   structpb.NewStringValue(success.Status),
			FieldMessage:  structpb.NewStringValue(success.Message),
			FieldData:     structpb.NewStructValue(data),
			FieldCached:   structpb.NewBoolValue(result.Cached),
			FieldProducer: structpb.NewStringValue(result.Producer),
		},
	}, nil
}
