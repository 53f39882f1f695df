package handler

import (
	"context"
	"errors"

	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"

	"github.com/Kavita9-git/MyShope-E-com-sub001/internal/core/domain"
	"github.com/Kavita9-git/MyShope-E-com-sub001/internal/core/service"
)

const serviceName = "cartengine.v1.CartEngine"

type ReconcileRequest struct {
	UserID   string                   `json:"userId"`
	Cart     []domain.CartLine        `json:"cart"`
	Products []domain.ProductSnapshot `json:"products"`
}

type ReconcileResponse struct {
	Valid    []domain.CartLine     `json:"valid"`
	Invalid  []domain.CartLine     `json:"invalid"`
	Warnings []domain.StockWarning `json:"warnings"`
}

type ArmRequest struct {
	UserID string            `json:"userId"`
	Cart   []domain.CartLine `json:"cart"`
}

type ArmResponse struct {
	Armed   bool           `json:"armed"`
	Pending []domain.Stage `json:"pending,omitempty"`
}

type UserRequest struct {
	UserID string `json:"userId"`
}

type StatusResponse struct {
	Success bool   `json:"success"`
	Message string `json:"message"`
}

type CartEngineServer interface {
	Reconcile(context.Context, *ReconcileRequest) (*ReconcileResponse, error)
	ArmReminders(context.Context, *ArmRequest) (*ArmResponse, error)
	CancelReminders(context.Context, *UserRequest) (*StatusResponse, error)
	CompleteCheckout(context.Context, *UserRequest) (*StatusResponse, error)
}

type GRPCHandler struct {
	cartService *service.CartService
}

func NewGRPCHandler(cartService *service.CartService) *GRPCHandler {
	return &GRPCHandler{cartService: cartService}
}

func (h *GRPCHandler) Reconcile(ctx context.Context, req *ReconcileRequest) (*ReconcileResponse, error) {
	result, warnings := h.cartService.Reconcile(ctx, req.UserID, req.Cart, req.Products)
	return &ReconcileResponse{
		Valid:    result.Valid,
		Invalid:  result.Invalid,
		Warnings: warnings,
	}, nil
}

func (h *GRPCHandler) ArmReminders(ctx context.Context, req *ArmRequest) (*ArmResponse, error) {
	armed, err := h.cartService.Background(ctx, req.UserID, req.Cart)
	if err != nil {
		return nil, toStatus(err)
	}

	resp := &ArmResponse{Armed: armed}
	if schedule, ok := h.cartService.Schedule(req.UserID); ok {
		resp.Pending = schedule.Pending
	}
	return resp, nil
}

func (h *GRPCHandler) CancelReminders(ctx context.Context, req *UserRequest) (*StatusResponse, error) {
	if err := h.cartService.Foreground(req.UserID); err != nil {
		return nil, toStatus(err)
	}
	return &StatusResponse{Success: true, Message: "reminders cancelled"}, nil
}

func (h *GRPCHandler) CompleteCheckout(ctx context.Context, req *UserRequest) (*StatusResponse, error) {
	if err := h.cartService.CompleteCheckout(ctx, req.UserID); err != nil {
		return nil, toStatus(err)
	}
	return &StatusResponse{Success: true, Message: "checkout completed"}, nil
}

func toStatus(err error) error {
	if errors.Is(err, service.ErrMissingUser) {
		return status.Error(codes.InvalidArgument, "missing required fields")
	}
	return status.Error(codes.Internal, "internal error")
}

// RegisterCartEngineServer adds the service to a gRPC server.
func RegisterCartEngineServer(s grpc.ServiceRegistrar, srv CartEngineServer) {
	s.RegisterService(&cartEngineServiceDesc, srv)
}

var cartEngineServiceDesc = grpc.ServiceDesc{
	ServiceName: serviceName,
	HandlerType: (*CartEngineServer)(nil),
	Methods: []grpc.MethodDesc{
		{
			MethodName: "Reconcile",
			Handler: unaryHandler("Reconcile", func(srv CartEngineServer, ctx context.Context, req *ReconcileRequest) (any, error) {
				return srv.Reconcile(ctx, req)
			}),
		},
		{
			MethodName: "ArmReminders",
			Handler: unaryHandler("ArmReminders", func(srv CartEngineServer, ctx context.Context, req *ArmRequest) (any, error) {
				return srv.ArmReminders(ctx, req)
			}),
		},
		{
			MethodName: "CancelReminders",
			Handler: unaryHandler("CancelReminders", func(srv CartEngineServer, ctx context.Context, req *UserRequest) (any, error) {
				return srv.CancelReminders(ctx, req)
			}),
		},
		{
			MethodName: "CompleteCheckout",
			Handler: unaryHandler("CompleteCheckout", func(srv CartEngineServer, ctx context.Context, req *UserRequest) (any, error) {
				return srv.CompleteCheckout(ctx, req)
			}),
		},
	},
	Streams:  []grpc.StreamDesc{},
	Metadata: "cartengine.proto",
}

func unaryHandler[Req any](method string, call func(CartEngineServer, context.Context, *Req) (any, error)) func(srv any, ctx context.Context, dec func(any) error, interceptor grpc.UnaryServerInterceptor) (any, error) {
	fullMethod := "/" + serviceName + "/" + method
	return func(srv any, ctx context.Context, dec func(any) error, interceptor grpc.UnaryServerInterceptor) (any, error) {
		in := new(Req)
		if err := dec(in); err != nil {
			return nil, err
		}
		if interceptor == nil {
			return call(srv.(CartEngineServer), ctx, in)
		}
		info := &grpc.UnaryServerInfo{Server: srv, FullMethod: fullMethod}
		handler := func(ctx context.Context, req any) (any, error) {
			return call(srv.(CartEngineServer), ctx, req.(*Req))
		}
		return interceptor(ctx, in, info, handler)
	}
}

// CartEngineClient calls the service over an existing connection.
type CartEngineClient struct {
	cc grpc.ClientConnInterface
}

func NewCartEngineClient(cc grpc.ClientConnInterface) *CartEngineClient {
	return &CartEngineClient{cc: cc}
}

func (c *CartEngineClient) Reconcile(ctx context.Context, in *ReconcileRequest) (*ReconcileResponse, error) {
	out := new(ReconcileResponse)
	return out, c.invoke(ctx, "Reconcile", in, out)
}

func (c *CartEngineClient) ArmReminders(ctx context.Context, in *ArmRequest) (*ArmResponse, error) {
	out := new(ArmResponse)
	return out, c.invoke(ctx, "ArmReminders", in, out)
}

func (c *CartEngineClient) CancelReminders(ctx context.Context, in *UserRequest) (*StatusResponse, error) {
	out := new(StatusResponse)
	return out, c.invoke(ctx, "CancelReminders", in, out)
}

func (c *CartEngineClient) CompleteCheckout(ctx context.Context, in *UserRequest) (*StatusResponse, error) {
	out := new(StatusResponse)
	return out, c.invoke(ctx, "CompleteCheckout", in, out)
}

func (c *CartEngineClient) invoke(ctx context.Context, method string, in, out any) error {
	return c.cc.Invoke(ctx, "/"+serviceName+"/"+method, in, out, grpc.CallContentSubtype(codecName))
}
