package payment

import (
	"context"
	"fmt"

	"go.opentelemetry.io/contrib/instrumentation/google.golang.org/grpc/otelgrpc"
	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/credentials/insecure"
	"google.golang.org/grpc/status"
)

const (
	serviceName  = "easycart.payment.v1.PaymentService"
	chargeMethod = "/" + serviceName + "/Charge"
	refundMethod = "/" + serviceName + "/Refund"
)

// PaymentServiceServer is implemented by the processor side of the boundary.
type PaymentServiceServer interface {
	Charge(ctx context.Context, req *ChargeRequest) (*ChargeResponse, error)
	Refund(ctx context.Context, req *RefundRequest) (*RefundResponse, error)
}

var ServiceDesc = grpc.ServiceDesc{
	ServiceName: serviceName,
	HandlerType: (*PaymentServiceServer)(nil),
	Methods: []grpc.MethodDesc{
		{MethodName: "Charge", Handler: chargeHandler},
		{MethodName: "Refund", Handler: refundHandler},
	},
	Streams:  []grpc.StreamDesc{},
	Metadata: "easycart/payment/v1/payment",
}

func chargeHandler(srv any, ctx context.Context, dec func(any) error, interceptor grpc.UnaryServerInterceptor) (any, error) {
	in := new(ChargeRequest)
	if err := dec(in); err != nil {
		return nil, err
	}
	if interceptor == nil {
		return srv.(PaymentServiceServer).Charge(ctx, in)
	}
	info := &grpc.UnaryServerInfo{Server: srv, FullMethod: chargeMethod}
	handler := func(ctx context.Context, req any) (any, error) {
		return srv.(PaymentServiceServer).Charge(ctx, req.(*ChargeRequest))
	}
	return interceptor(ctx, in, info, handler)
}

func refundHandler(srv any, ctx context.Context, dec func(any) error, interceptor grpc.UnaryServerInterceptor) (any, error) {
	in := new(RefundRequest)
	if err := dec(in); err != nil {
		return nil, err
	}
	if interceptor == nil {
		return srv.(PaymentServiceServer).Refund(ctx, in)
	}
	info := &grpc.UnaryServerInfo{Server: srv, FullMethod: refundMethod}
	handler := func(ctx context.Context, req any) (any, error) {
		return srv.(PaymentServiceServer).Refund(ctx, req.(*RefundRequest))
	}
	return interceptor(ctx, in, info, handler)
}

// NewGRPCServer returns a gRPC server exposing srv as the payment service.
func NewGRPCServer(srv PaymentServiceServer, opts ...grpc.ServerOption) *grpc.Server {
	opts = append([]grpc.ServerOption{grpc.StatsHandler(otelgrpc.NewServerHandler())}, opts...)
	s := grpc.NewServer(opts...)
	s.RegisterService(&ServiceDesc, srv)
	return s
}

// Dial opens a client connection to the payment service.
func Dial(addr string, opts ...grpc.DialOption) (*grpc.ClientConn, error) {
	opts = append([]grpc.DialOption{
		grpc.WithTransportCredentials(insecure.NewCredentials()),
		grpc.WithStatsHandler(otelgrpc.NewClientHandler()),
	}, opts...)
	conn, err := grpc.NewClient(addr, opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to payment service: %w", err)
	}
	return conn, nil
}

// Client calls the payment service over gRPC.
type Client struct {
	conn grpc.ClientConnInterface
}

func NewClient(conn grpc.ClientConnInterface) *Client {
	return &Client{conn: conn}
}

func (c *Client) AuthorizeAndCapture(ctx context.Context, req *ChargeRequest) (*ChargeResponse, error) {
	out := new(ChargeResponse)
	if err := c.conn.Invoke(ctx, chargeMethod, req, out, grpc.CallContentSubtype(codecName)); err != nil {
		return nil, convertError(err)
	}
	return out, nil
}

func (c *Client) Refund(ctx context.Context, req *RefundRequest) (*RefundResponse, error) {
	out := new(RefundResponse)
	if err := c.conn.Invoke(ctx, refundMethod, req, out, grpc.CallContentSubtype(codecName)); err != nil {
		return nil, convertError(err)
	}
	return out, nil
}

func convertError(err error) error {
	switch status.Code(err) {
	case codes.Unavailable:
		return fmt.Errorf("%w: %v", ErrUnavailable, err)
	case codes.DeadlineExceeded:
		return fmt.Errorf("payment call timed out: %w", context.DeadlineExceeded)
	case codes.Canceled:
		return fmt.Errorf("payment call canceled: %w", context.Canceled)
	default:
		return err
	}
}
