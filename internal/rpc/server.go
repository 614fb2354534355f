// Package rpc exposes the activity catalog over gRPC. Messages are protobuf
// well-known types (Empty and Struct), so the service needs no generated code.
package rpc

import (
	"context"
	"errors"
	"time"

	"go.uber.org/zap"
	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
	"google.golang.org/protobuf/proto"
	"google.golang.org/protobuf/types/known/emptypb"
	"google.golang.org/protobuf/types/known/structpb"

	"github.com/alfagnish/mergington-activities/internal/catalog"
	"github.com/alfagnish/mergington-activities/internal/metrics"
)

// ServiceName is the fully-qualified gRPC service name.
const ServiceName = "mergington.activities.v1.ActivityCatalog"

const (
	methodList       = "/" + ServiceName + "/ListActivities"
	methodSignup     = "/" + ServiceName + "/Signup"
	methodUnregister = "/" + ServiceName + "/Unregister"
)

// CatalogServer is the server API for the ActivityCatalog service.
type CatalogServer interface {
	ListActivities(context.Context, *emptypb.Empty) (*structpb.Struct, error)
	Signup(context.Context, *structpb.Struct) (*structpb.Struct, error)
	Unregister(context.Context, *structpb.Struct) (*structpb.Struct, error)
}

var serviceDesc = grpc.ServiceDesc{
	ServiceName: ServiceName,
	HandlerType: (*CatalogServer)(nil),
	Methods: []grpc.MethodDesc{
		{
			MethodName: "ListActivities",
			Handler: unary(methodList, func() *emptypb.Empty { return new(emptypb.Empty) },
				func(s CatalogServer, ctx context.Context, in *emptypb.Empty) (*structpb.Struct, error) {
					return s.ListActivities(ctx, in)
				}),
		},
		{
			MethodName: "Signup",
			Handler: unary(methodSignup, func() *structpb.Struct { return new(structpb.Struct) },
				func(s CatalogServer, ctx context.Context, in *structpb.Struct) (*structpb.Struct, error) {
					return s.Signup(ctx, in)
				}),
		},
		{
			MethodName: "Unregister",
			Handler: unary(methodUnregister, func() *structpb.Struct { return new(structpb.Struct) },
				func(s CatalogServer, ctx context.Context, in *structpb.Struct) (*structpb.Struct, error) {
					return s.Unregister(ctx, in)
				}),
		},
	},
	Streams:  []grpc.StreamDesc{},
	Metadata: "mergington/activities/v1/catalog.proto",
}

func unary[Req proto.Message](
	fullMethod string,
	newReq func() Req,
	call func(CatalogServer, context.Context, Req) (*structpb.Struct, error),
) func(any, context.Context, func(any) error, grpc.UnaryServerInterceptor) (any, error) {
	return func(srv any, ctx context.Context, dec func(any) error, interceptor grpc.UnaryServerInterceptor) (any, error) {
		in := newReq()
		if err := dec(in); err != nil {
			return nil, err
		}
		if interceptor == nil {
			return call(srv.(CatalogServer), ctx, in)
		}
		info := &grpc.UnaryServerInfo{Server: srv, FullMethod: fullMethod}
		handler := func(ctx context.Context, req any) (any, error) {
			return call(srv.(CatalogServer), ctx, req.(Req))
		}
		return interceptor(ctx, in, info, handler)
	}
}

// RegisterCatalogServer registers srv on s.
func RegisterCatalogServer(s grpc.ServiceRegistrar, srv CatalogServer) {
	s.RegisterService(&serviceDesc, srv)
}

// Service implements CatalogServer on top of a catalog.Catalog.
type Service struct {
	catalog *catalog.Catalog
	metrics *metrics.Metrics
	log     *zap.Logger
}

// NewService creates a new Service.
func NewService(c *catalog.Catalog, m *metrics.Metrics, log *zap.Logger) *Service {
	return &Service{catalog: c, metrics: m, log: log}
}

// NewServer builds a gRPC server with request logging and the catalog
// service registered.
func NewServer(c *catalog.Catalog, m *metrics.Metrics, log *zap.Logger, opts ...grpc.ServerOption) *grpc.Server {
	opts = append([]grpc.ServerOption{grpc.ChainUnaryInterceptor(loggingInterceptor(log))}, opts...)
	s := grpc.NewServer(opts...)
	RegisterCatalogServer(s, NewService(c, m, log))
	return s
}

// ListActivities returns the whole catalog keyed by activity name.
func (s *Service) ListActivities(ctx context.Context, _ *emptypb.Empty) (*structpb.Struct, error) {
	out := &structpb.Struct{Fields: make(map[string]*structpb.Value)}
	for name, a := range s.catalog.List() {
		out.Fields[name] = structpb.NewStructValue(activityToStruct(a))
	}
	return out, nil
}

// Signup adds a participant to an activity.
func (s *Service) Signup(ctx context.Context, in *structpb.Struct) (*structpb.Struct, error) {
	name, email, err := rosterArgs(in)
	if err != nil {
		s.metrics.Signups.WithLabelValues("grpc", metrics.ResultInvalid).Inc()
		return nil, err
	}
	msg, err := s.catalog.Signup(name, email)
	s.metrics.Signups.WithLabelValues("grpc", metrics.Result(err)).Inc()
	if err != nil {
		return nil, toStatus(err)
	}
	return messageStruct(msg), nil
}

// Unregister removes a participant from an activity.
func (s *Service) Unregister(ctx context.Context, in *structpb.Struct) (*structpb.Struct, error) {
	name, email, err := rosterArgs(in)
	if err != nil {
		s.metrics.Unregistrations.WithLabelValues("grpc", metrics.ResultInvalid).Inc()
		return nil, err
	}
	msg, err := s.catalog.Unregister(name, email)
	s.metrics.Unregistrations.WithLabelValues("grpc", metrics.Result(err)).Inc()
	if err != nil {
		return nil, toStatus(err)
	}
	return messageStruct(msg), nil
}

func rosterArgs(in *structpb.Struct) (string, string, error) {
	fields := in.GetFields()
	activity, ok := fields["activity"]
	if !ok {
		return "", "", status.Error(codes.InvalidArgument, "activity is required")
	}
	if _, ok := activity.GetKind().(*structpb.Value_StringValue); !ok {
		return "", "", status.Error(codes.InvalidArgument, "activity must be a string")
	}
	email, ok := fields["email"]
	if !ok {
		return "", "", status.Error(codes.InvalidArgument, "email is required")
	}
	if _, ok := email.GetKind().(*structpb.Value_StringValue); !ok {
		return "", "", status.Error(codes.InvalidArgument, "email must be a string")
	}
	return activity.GetStringValue(), email.GetStringValue(), nil
}

func messageStruct(msg string) *structpb.Struct {
	return &structpb.Struct{Fields: map[string]*structpb.Value{
		"message": structpb.NewStringValue(msg),
	}}
}

func activityToStruct(a catalog.Activity) *structpb.Struct {
	participants := make([]*structpb.Value, 0, len(a.Participants))
	for _, p := range a.Participants {
		participants = append(participants, structpb.NewStringValue(p))
	}
	return &structpb.Struct{Fields: map[string]*structpb.Value{
		"description":      structpb.NewStringValue(a.Description),
		"schedule":         structpb.NewStringValue(a.Schedule),
		"max_participants": structpb.NewNumberValue(float64(a.MaxParticipants)),
		"participants":     structpb.NewListValue(&structpb.ListValue{Values: participants}),
	}}
}

func toStatus(err error) error {
	switch {
	case errors.Is(err, catalog.ErrActivityNotFound):
		return status.Error(codes.NotFound, err.Error())
	case errors.Is(err, catalog.ErrAlreadySignedUp):
		return status.Error(codes.AlreadyExists, err.Error())
	case errors.Is(err, catalog.ErrNotSignedUp):
		return status.Error(codes.FailedPrecondition, err.Error())
	default:
		return status.Error(codes.Internal, err.Error())
	}
}

func loggingInterceptor(log *zap.Logger) grpc.UnaryServerInterceptor {
	return func(ctx context.Context, req any, info *grpc.UnaryServerInfo, handler grpc.UnaryHandler) (any, error) {
		start := time.Now()
		resp, err := handler(ctx, req)
		log.Info("grpc request",
			zap.String("method", info.FullMethod),
			zap.String("code", status.Code(err).String()),
			zap.Duration("duration", time.Since(start).Round(time.Millisecond)),
		)
		return resp, err
	}
}
