// interceptors предоставляет набор серверных gRPC-интерсепторов social-service.
package interceptors

import (
	"context"
	"time"

	"google.golang.org/grpc"
)

// WithTimeout навешивает таймаут d на контекст unary-вызова, если клиент не прислал свой дедлайн.
//   - d <= 0 — контекст не меняется;
//   - дедлайн уже задан — не переопределяется;
//   - иначе ctx оборачивается через context.WithTimeout, cancel вызывается всегда.
func WithTimeout(d time.Duration) grpc.UnaryServerInterceptor {
	return func(ctx context.Context, req any, _ *grpc.UnaryServerInfo, handler grpc.UnaryHandler) (any, error) {
		if d <= 0 {
			return handler(ctx, req)
		}

		if _, ok := ctx.Deadline(); ok {
			return handler(ctx, req)
		}

		ctx, cancel := context.WithTimeout(ctx, d)
		defer cancel()

		return handler(ctx, req)
	}
}
