package grpc

import (
	"context"

	"google.golang.org/grpc"
	"liyu1981.xyz/iaq-telemetry-service/pkg/iot"
)

const ServiceName = "iaq.telemetry.v1.Telemetry"

// TelemetryServer is the gRPC surface over the core API. Messages travel with
// the JSON codec, so the service is declared here rather than generated.
type TelemetryServer interface {
	Ingest(context.Context, *IngestRequest) (*IngestResponse, error)
	ListAlerts(context.Context, *AlertsRequest) (*AlertsResponse, error)
	AcknowledgeAlert(context.Context, *AlertCommandRequest) (*AlertCommandResponse, error)
	ResolveAlert(context.Context, *AlertCommandRequest) (*AlertCommandResponse, error)
	Predict(context.Context, *PredictRequest) (*PredictResponse, error)
	SetSimulator(context.Context, *SimulatorRequest) (*iot.SimulatorStatus, error)
	SetLimiter(context.Context, *LimiterRequest) (*LimiterResponse, error)
}

func fullMethod(name string) string {
	return "/" + ServiceName + "/" + name
}

func unary[Req, Resp any](name string, call func(TelemetryServer, context.Context, *Req) (*Resp, error)) grpc.MethodDesc {
	return grpc.MethodDesc{
		MethodName: name,
		Handler: func(srv any, ctx context.Context, dec func(any) error, interceptor grpc.UnaryServerInterceptor) (any, error) {
			in := new(Req)
			if err := dec(in); err != nil {
				return nil, err
			}
			if interceptor == nil {
				return call(srv.(TelemetryServer), ctx, in)
			}
			info := &grpc.UnaryServerInfo{Server: srv, FullMethod: fullMethod(name)}
			return interceptor(ctx, in, info, func(ctx context.Context, req any) (any, error) {
				return call(srv.(TelemetryServer), ctx, req.(*Req))
			})
		},
	}
}

var ServiceDesc = grpc.ServiceDesc{
	ServiceName: ServiceName,
	HandlerType: (*TelemetryServer)(nil),
	Methods: []grpc.MethodDesc{
		unary("Ingest", TelemetryServer.Ingest),
		unary("ListAlerts", TelemetryServer.ListAlerts),
		unary("AcknowledgeAlert", TelemetryServer.AcknowledgeAlert),
		unary("ResolveAlert", TelemetryServer.ResolveAlert),
		unary("Predict", TelemetryServer.Predict),
		unary("SetSimulator", TelemetryServer.SetSimulator),
		unary("SetLimiter", TelemetryServer.SetLimiter),
	},
	Streams: []grpc.StreamDesc{},
}

func RegisterTelemetryServer(s grpc.ServiceRegistrar, srv TelemetryServer) {
	s.RegisterService(&ServiceDesc, srv)
}

// TelemetryClient calls the service with the JSON codec forced on every call.
type TelemetryClient struct {
	cc grpc.ClientConnInterface
}

func NewTelemetryClient(cc grpc.ClientConnInterface) *TelemetryClient {
	return &TelemetryClient{cc: cc}
}

func invoke[Resp any](ctx context.Context, cc grpc.ClientConnInterface, name string, in any, opts []grpc.CallOption) (*Resp, error) {
	out := new(Resp)
	opts = append([]grpc.CallOption{grpc.CallContentSubtype(CodecName)}, opts...)
	if err := cc.Invoke(ctx, fullMethod(name), in, out, opts...); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *TelemetryClient) Ingest(ctx context.Context, in *IngestRequest, opts ...grpc.CallOption) (*IngestResponse, error) {
	return invoke[IngestResponse](ctx, c.cc, "Ingest", in, opts)
}

func (c *TelemetryClient) ListAlerts(ctx context.Context, in *AlertsRequest, opts ...grpc.CallOption) (*AlertsResponse, error) {
	return invoke[AlertsResponse](ctx, c.cc, "ListAlerts", in, opts)
}

func (c *TelemetryClient) AcknowledgeAlert(ctx context.Context, in *AlertCommandRequest, opts ...grpc.CallOption) (*AlertCommandResponse, error) {
	return invoke[AlertCommandResponse](ctx, c.cc, "AcknowledgeAlert", in, opts)
}

func (c *TelemetryClient) ResolveAlert(ctx context.Context, in *AlertCommandRequest, opts ...grpc.CallOption) (*AlertCommandResponse, error) {
	return invoke[AlertCommandResponse](ctx, c.cc, "ResolveAlert", in, opts)
}

func (c *TelemetryClient) Predict(ctx context.Context, in *PredictRequest, opts ...grpc.CallOption) (*PredictResponse, error) {
	return invoke[PredictResponse](ctx, c.cc, "Predict", in, opts)
}

func (c *TelemetryClient) SetSimulator(ctx context.Context, in *SimulatorRequest, opts ...grpc.CallOption) (*iot.SimulatorStatus, error) {
	return invoke[iot.SimulatorStatus](ctx, c.cc, "SetSimulator", in, opts)
}

func (c *TelemetryClient) SetLimiter(ctx context.Context, in *LimiterRequest, opts ...grpc.CallOption) (*LimiterResponse, error) {
	return invoke[LimiterResponse](ctx, c.cc, "SetLimiter", in, opts)
}
