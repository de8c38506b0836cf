package server

import (
	"context"
	"time"

	"banking-service/internal/metrics"

	"go.uber.org/zap"
	"google.golang.org/grpc"
	"google.golang.org/grpc/status"
)

func unaryLogger(logger *zap.Logger) grpc.UnaryServerInterceptor {
	return func(ctx context.Context, req interface{}, info *grpc.UnaryServerInfo, handler grpc.UnaryHandler) (interface{}, error) {
		start := time.Now()
		resp, err := handler(ctx, req)
		code := status.Code(err).String()
		metrics.GRPCRequestsTotal.WithLabelValues(info.FullMethod, code).Inc()
		logger.Debug("grpc request",
			zap.String("method", info.FullMethod),
			zap.String("code", code),
			zap.Duration("duration", time.Since(start)),
		)
		return resp, err
	}
}
