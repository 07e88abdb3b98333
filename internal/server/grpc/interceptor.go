package grpc

import (
	"context"
	"time"

	"google.golang.org/grpc"
	"google.golang.org/grpc/status"
)

func (s *HealthServer) loggingInterceptor(ctx context.Context, req any, info *grpc.UnaryServerInfo, handler grpc.UnaryHandler) (any, error) {
	start := time.Now()
	resp, err := handler(ctx, req)

	code := status.Code(err)
	if err != nil {
		s.logger.Warn(ctx, "grpc request failed", "method", info.FullMethod, "code", code.String(), "latency", time.Since(start))
	} else {
		s.logger.Info(ctx, "grpc request", "method", info.FullMethod, "code", code.String(), "latency", time.Since(start))
	}
	return resp, err
}
