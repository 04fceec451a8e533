package extractor

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/samber/lo"
	"google.golang.org/grpc"
	"google.golang.org/grpc/credentials/insecure"
	"google.golang.org/protobuf/encoding/protojson"
	"google.golang.org/protobuf/types/known/structpb"

	"github.com/oshokin/excel-form-extractor/internal/config"
)

// MaxMessageSize bounds gRPC messages carrying base64 encoded workbooks.
const MaxMessageSize = 64 << 20

// Client wraps a gRPC connection to the FormExtractor service.
type Client struct {
	// conn is the underlying gRPC connection to the extraction server.
	conn *grpc.ClientConn
	// dialOptions are appended to the default dial options.
	dialOptions []grpc.DialOption

	// callTimeout is the default timeout for individual RPC calls.
	callTimeout time.Duration
}

// Reply is a decoded ExtractSECCF response.
type Reply struct {
	// Payload is the extraction encoded as JSON.
	Payload json.RawMessage
	// Cached reports whether the server answered from its cache.
	Cached bool
	// Producer identifies the server build.
	Producer string
}

// Option configures client behaviour.
type Option func(*Client)

// WithCallTimeout sets a default timeout for service calls.
func WithCallTimeout(timeout time.Duration) Option {
	return func(c *Client) {
		if timeout > 0 {
			c.callTimeout = timeout
		}
	}
}

// WithDialOptions adds gRPC dial options, e.g. a custom dialer.
func WithDialOptions(options ...grpc.DialOption) Option {
	return func(c *Client) {
		c.dialOptions = append(c.dialOptions, options...)
	}
}

// errAddressRequired is returned when a required address value is missing.
var errAddressRequired = errors.New("address must be provided")

// Dial establishes a gRPC connection to the extraction server.
// The transport is insecure; deploy on a trusted network or behind a TLS proxy.
func Dial(_ context.Context, address string, opts ...Option) (*Client, error) {
	if address == "" {
		return nil, errAddressRequired
	}

	client := &Client{
		callTimeout: config.DefaultTimeout,
	}

	for _, opt := range opts {
		opt(client)
	}

	dialOptions := append([]grpc.DialOption{
		grpc.WithTransportCredentials(insecure.NewCredentials()),
		grpc.WithDefaultCallOptions(
			grpc.MaxCallSendMsgSize(MaxMessageSize),
			grpc.MaxCallRecvMsgSize(MaxMessageSize),
		),
	}, client.dialOptions...)

	conn, err := grpc.NewClient(address, dialOptions...)
	if err != nil {
		return nil, fmt.Errorf("dial extraction server: %w", err)
	}

	client.conn = conn

	return client, nil
}

// Close releases the underlying gRPC connection.
func (c *Client) Close() error {
	if c == nil || c.conn == nil {
		return nil
	}

	return c.conn.Close()
}

// ExtractSECCF sends the workbook to the server.
func (c *Client) ExtractSECCF(ctx context.Context, workbook []byte, companyNames []string) (*Reply, error) {
	return c.call(ctx, FieldWorkbook, base64.StdEncoding.EncodeToString(workbook), companyNames)
}

// ExtractSECCFPath asks the server to extract a workbook from its own file system.
func (c *Client) ExtractSECCFPath(ctx context.Context, path string, companyNames []string) (*Reply, error) {
	return c.call(ctx, FieldPath, path, companyNames)
}

func (c *Client) call(ctx context.Context, field, value string, companyNames []string) (*Reply, error) {
	request := &structpb.Struct{
		Fields: map[string]*structpb.Value{
			field: structpb.NewStringValue(value),
		},
	}

	if len(companyNames) > 0 {
		request.Fields[FieldCompanyNames] = structpb.NewListValue(&structpb.ListValue{
			Values: lo.Map(companyNames, func(name string, _ int) *structpb.Value {
				return structpb.NewStringValue(name)
			}),
		})
	}

	callCtx, cancel := c.callContext(ctx)
	defer cancel()

	response := new(structpb.Struct)
	if err := c.conn.Invoke(callCtx, ExtractSECCFMethod, request, response); err != nil {
		return nil, fmt.Errorf("extract SECCF: %w", err)
	}

	fields := response.GetFields()

	payload, err := protojson.Marshal(fields[FieldData].GetStructValue())
	if err != nil {
		return nil, fmt.Errorf("decode extraction: %w", err)
	}

	return &Reply{
		Payload:  payload,
		Cached:   fields[FieldCached].GetBoolValue(),
		Producer: fields[FieldProducer].GetStringValue(),
	}, nil
}

// callContext returns a context with the client's call timeout if configured,
// otherwise a cancellable child context without a deadline.
func (c *Client) callContext(ctx context.Context) (context.Context, context.CancelFunc) {
	if c.callTimeout <= 0 {
		return context.WithCancel(ctx)
	}

	return context.WithTimeout(ctx, c.callTimeout)
}
