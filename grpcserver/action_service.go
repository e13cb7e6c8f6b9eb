/*
Copyright © 2025 Acronis International GmbH.

Released under MIT license.
*/

package grpcserver

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
	"google.golang.org/protobuf/encoding/protojson"
	"google.golang.org/protobuf/types/known/structpb"

	"github.com/acronis/go-actionserver/action"
	"github.com/acronis/go-actionserver/endpoints"
	"github.com/acronis/go-actionserver/grpcserver/interceptor"
	"github.com/acronis/go-actionserver/log"
)

// ActionServiceName is the full name of the gRPC service that runs actions.
const ActionServiceName = "action_server_webhook.ActionService"

// Full method names of ActionService.
const (
	ActionServiceWebhookFullMethod = "/" + ActionServiceName + "/Webhook"
	ActionServiceActionsFullMethod = "/" + ActionServiceName + "/Actions"
)

// ActionRunner runs actions for the webhook calls.
type ActionRunner interface {
	Run(ctx context.Context, req *action.Request) (*action.Response, error)
	ActionNames() []string
}

// ActionServiceServer is the server API of ActionService.
// Webhook receives the webhook call ({"next_action": ..., "tracker": ...}) and returns {"events": [...], "responses": [...]}.
// Actions returns {"actions": [{"name": ...}]}.
type ActionServiceServer interface {
	Webhook(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error)
	Actions(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error)
}

// ActionServiceDesc describes ActionService for grpc.Server.RegisterService.
var ActionServiceDesc = grpc.ServiceDesc{
	ServiceName: ActionServiceName,
	HandlerType: (*ActionServiceServer)(nil),
	Methods: []grpc.MethodDesc{
		{MethodName: "Webhook", Handler: actionServiceWebhookHandler},
		{MethodName: "Actions", Handler: actionServiceActionsHandler},
	},
	Streams:  []grpc.StreamDesc{},
	Metadata: "action_server_webhook.proto",
}

// RegisterActionServiceServer registers the ActionService implementation in the gRPC server.
func RegisterActionServiceServer(s grpc.ServiceRegistrar, srv ActionServiceServer) {
	s.RegisterService(&ActionServiceDesc, srv)
}

func actionServiceWebhookHandler(
	srv interface{}, ctx context.Context, dec func(interface{}) error, unaryInterceptor grpc.UnaryServerInterceptor,
) (interface{}, error) {
	return handleUnary(srv, ctx, dec, unaryInterceptor, ActionServiceWebhookFullMethod, ActionServiceServer.Webhook)
}

func actionServiceActionsHandler(
	srv interface{}, ctx context.Context, dec func(interface{}) error, unaryInterceptor grpc.UnaryServerInterceptor,
) (interface{}, error) {
	return handleUnary(srv, ctx, dec, unaryInterceptor, ActionServiceActionsFullMethod, ActionServiceServer.Actions)
}

func handleUnary(
	srv interface{},
	ctx context.Context,
	dec func(interface{}) error,
	unaryInterceptor grpc.UnaryServerInterceptor,
	fullMethod string,
	method func(ActionServiceServer, context.Context, *structpb.Struct) (*structpb.Struct, error),
) (interface{}, error) {
	in := new(structpb.Struct)
	if err := dec(in); err != nil {
		return nil, err
	}
	if unaryInterceptor == nil {
		return method(srv.(ActionServiceServer), ctx, in)
	}
	info := &grpc.UnaryServerInfo{Server: srv, FullMethod: fullMethod}
	handler := func(ctx context.Context, req interface{}) (interface{}, error) {
		return method(srv.(ActionServiceServer), ctx, req.(*structpb.Struct))
	}
	return unaryInterceptor(ctx, in, info, handler)
}

// ActionServiceClient is the client API of ActionService.
type ActionServiceClient struct {
	cc grpc.ClientConnInterface
}

// NewActionServiceClient creates a new ActionServiceClient.
func NewActionServiceClient(cc grpc.ClientConnInterface) *ActionServiceClient {
	return &ActionServiceClient{cc}
}

// Webhook calls ActionService.Webhook.
func (c *ActionServiceClient) Webhook(ctx context.Context, in *structpb.Struct, opts ...grpc.CallOption) (*structpb.Struct, error) {
	out := new(structpb.Struct)
	if err := c.cc.Invoke(ctx, ActionServiceWebhookFullMethod, in, out, opts...); err != nil {
		return nil, err
	}
	return out, nil
}

// Actions calls ActionService.Actions.
func (c *ActionServiceClient) Actions(ctx context.Context, in *structpb.Struct, opts ...grpc.CallOption) (*structpb.Struct, error) {
	out := new(structpb.Struct)
	if err := c.cc.Invoke(ctx, ActionServiceActionsFullMethod, in, out, opts...); err != nil {
		return nil, err
	}
	return out, nil
}

// ErrorDetails is the JSON document sent in the status message of failed Webhook calls.
type ErrorDetails struct {
	Error      string `json:"error"`
	ActionName string `json:"action_name,omitempty"`
}

// ActionService implements ActionServiceServer on top of ActionRunner.
type ActionService struct {
	runner    ActionRunner
	endpoints *endpoints.Config
}

var _ ActionServiceServer = (*ActionService)(nil)

// NewActionService creates a new ActionService.
// Endpoints configuration (may be nil) is available to the actions via endpoints.FromContext.
func NewActionService(runner ActionRunner, eps *endpoints.Config) *ActionService {
	return &ActionService{runner: runner, endpoints: eps}
}

// Webhook runs the action requested by the webhook call.
func (s *ActionService) Webhook(ctx context.Context, in *structpb.Struct) (*structpb.Struct, error) {
	var req action.Request
	if err := unmarshalStruct(in, &req); err != nil {
		return nil, status.Errorf(codes.InvalidArgument, "invalid webhook request: %v", err)
	}
	if lp := interceptor.GetLoggingParamsFromContext(ctx); lp != nil && req.NextAction != "" {
		lp.ExtendFields(log.String("action", req.NextAction))
	}
	if s.runner == nil {
		return nil, actionStatusError(ctx, &action.NotFoundError{ActionName: req.NextAction})
	}
	if s.endpoints != nil {
		ctx = endpoints.NewContext(ctx, s.endpoints)
	}

	resp, err := s.runner.Run(ctx, &req)
	if err != nil {
		return nil, actionStatusError(ctx, err)
	}
	out, err := marshalStruct(resp)
	if err != nil {
		return nil, actionStatusError(ctx, err)
	}
	return out, nil
}

// Actions lists the names of the loaded actions.
func (s *ActionService) Actions(_ context.Context, _ *structpb.Struct) (*structpb.Struct, error) {
	var names []string
	if s.runner != nil {
		names = s.runner.ActionNames()
	}
	list := make([]interface{}, 0, len(names))
	for _, name := range names {
		list = append(list, map[string]interface{}{"name": name})
	}
	out, err := structpb.NewStruct(map[string]interface{}{"actions": list})
	if err != nil {
		return nil, status.Error(codes.Internal, err.Error())
	}
	return out, nil
}

func actionStatusError(ctx context.Context, err error) error {
	var notFoundErr *action.NotFoundError
	if errors.As(err, &notFoundErr) {
		return statusWithDetails(codes.NotFound, ErrorDetails{notFoundErr.Error(), notFoundErr.ActionName})
	}
	var rejectionErr *action.RejectionError
	if errors.As(err, &rejectionErr) {
		return statusWithDetails(codes.Internal, ErrorDetails{rejectionErr.Error(), rejectionErr.ActionName})
	}
	if errors.Is(err, action.ErrMissingActionName) {
		return statusWithDetails(codes.InvalidArgument, ErrorDetails{Error: `Field "next_action" is required.`})
	}
	if logger := interceptor.GetLoggerFromContext(ctx); logger != nil {
		logger.Error("failed to run action", log.Error(err))
	}
	return statusWithDetails(codes.Internal, ErrorDetails{Error: "Internal error"})
}

func statusWithDetails(code codes.Code, details ErrorDetails) error {
	data, err := json.Marshal(details)
	if err != nil {
		return status.Error(code, details.Error)
	}
	return status.Error(code, string(data))
}

func unmarshalStruct(in *structpb.Struct, dst interface{}) error {
	data, err := protojson.Marshal(in)
	if err != nil {
		return err
	}
	return json.Unmarshal(data, dst)
}

func marshalStruct(src interface{}) (*structpb.Struct, error) {
	data, err := json.Marshal(src)
	if err != nil {
		return nil, fmt.Errorf("marshal response: %w", err)
	}
	out := new(structpb.Struct)
	if err = protojson.Unmarshal(data, out); err != nil {
		return nil, fmt.Errorf("convert response: %w", err)
	}
	return out, nil
}
