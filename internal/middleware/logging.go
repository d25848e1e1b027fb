package middleware

import (
	"context"
	"time"

	"github.com/sirupsen/logrus"
	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
)

// Logging logs every call with its method, status code and duration.
// Server-side failures are logged at error level.
func Logging(log logrus.FieldLogger) grpc.UnaryServerInterceptor {
	return func(ctx context.Context, req any, info *grpc.UnaryServerInfo, next grpc.UnaryHandler) (any, error) {
		start := time.Now()
		resp, err := next(ctx, req)

		code := status.Code(err)
		entry := log.WithFields(logrus.Fields{
			"method":   info.FullMethod,
			"code":     code.String(),
			"duration": time.Since(start).String(),
		})

		switch code {
		case codes.OK:
			entry.Debug("rpc")
		case codes.Internal, codes.Unknown, codes.DataLoss, codes.Unavailable:
			entry.WithError(err).Error("rpc failed")
		default:
			entry.WithField("error", status.Convert(err).Message()).Info("rpc rejected")
		}
		return resp, err
	}
}
