package interceptors

import (
	"context"
	"log/slog"
	"net"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/pribylovaa/go-social-network/pkg/log"
	"github.com/stretchr/testify/require"
	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/metadata"
	"google.golang.org/grpc/peer"
	"google.golang.org/grpc/status"
)

// capHandler — slog.Handler, запоминающий последнюю запись и счётчик сообщений.
type capHandler struct {
	mu      sync.Mutex
	base    []slog.Attr
	lastMsg string
	lastLvl slog.Level
	attrs   map[string]any
	count   map[string]int
}

func (h *capHandler) Enabled(context.Context, slog.Level) bool { return true }

func (h *capHandler) Handle(_ context.Context, r slog.Record) error {
	h.mu.Lock()
	defer h.mu.Unlock()

	out := make(map[string]any, len(h.base)+8)
	for _, a := range h.base {
		out[a.Key] = a.Value.Any()
	}
	r.Attrs(func(a slog.Attr) bool {
		out[a.Key] = a.Value.Any()
		return true
	})
	if h.count == nil {
		h.count = make(map[string]int)
	}
	h.count[r.Message]++
	h.lastMsg = r.Message
	h.lastLvl = r.Level
	h.attrs = out
	return nil
}

func (h *capHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	h.base = append(h.base, attrs...)
	return h
}

func (h *capHandler) WithGroup(string) slog.Handler { return h }

// fakeStream — минимальный grpc.ServerStream для стриминговых интерсепторов.
type fakeStream struct {
	grpc.ServerStream
	ctx context.Context
}

func (s *fakeStream) Context() context.Context { return s.ctx }

const healthCheck = "/grpc.health.v1.Health/Check"

// TestUnaryLoggingInterceptor_Success_WithRequestID — request_id из metadata, peer, код и длительность.
func TestUnaryLoggingInterceptor_Success_WithRequestID(t *testing.T) {
	t.Parallel()

	h := &capHandler{}
	md := metadata.New(map[string]string{"x-request-id": "rid-123"})
	ctx := metadata.NewIncomingContext(context.Background(), md)
	ctx = peer.NewContext(ctx, &peer.Peer{
		Addr: &net.TCPAddr{IP: net.IPv4(127, 0, 0, 1), Port: 50091},
	})

	inter := UnaryLoggingInterceptor(slog.New(h))
	resp, err := inter(ctx, "req", &grpc.UnaryServerInfo{FullMethod: healthCheck}, func(ctx context.Context, req any) (any, error) {
		time.Sleep(2 * time.Millisecond)
		return "ok", nil
	})
	require.NoError(t, err)
	require.Equal(t, "ok", resp)

	require.Equal(t, "grpc", h.lastMsg)
	require.Equal(t, slog.LevelInfo, h.lastLvl)
	require.Equal(t, "rid-123", h.attrs["request_id"])
	require.Equal(t, healthCheck, h.attrs["method"])
	require.Equal(t, "127.0.0.1:50091", h.attrs["peer"])
	require.Equal(t, "OK", h.attrs["code"])

	d, ok := h.attrs["dur"].(time.Duration)
	require.True(t, ok)
	require.Greater(t, d, time.Duration(0))
}

// TestUnaryLoggingInterceptor_GeneratesUUID_And_LogsErrorCode — без x-request-id генерируется UUID.
func TestUnaryLoggingInterceptor_GeneratesUUID_And_LogsErrorCode(t *testing.T) {
	t.Parallel()

	h := &capHandler{}
	inter := UnaryLoggingInterceptor(slog.New(h))

	_, err := inter(context.Background(), "req", &grpc.UnaryServerInfo{FullMethod: healthCheck}, func(ctx context.Context, req any) (any, error) {
		return nil, status.Error(codes.NotFound, "unknown service")
	})
	require.Error(t, err)

	require.Equal(t, "NotFound", h.attrs["code"])
	require.Equal(t, "-", h.attrs["peer"])

	rid, _ := h.attrs["request_id"].(string)
	_, parseErr := uuid.Parse(rid)
	require.NoError(t, parseErr)
}

// TestUnaryLoggingInterceptor_PutsLoggerIntoContext — обработчик получает обогащённый логгер.
func TestUnaryLoggingInterceptor_PutsLoggerIntoContext(t *testing.T) {
	t.Parallel()

	h := &capHandler{}
	md := metadata.New(map[string]string{"x-request-id": "abc"})
	ctx := metadata.NewIncomingContext(context.Background(), md)

	inter := UnaryLoggingInterceptor(slog.New(h))
	_, err := inter(ctx, "req", &grpc.UnaryServerInfo{FullMethod: healthCheck}, func(ctx context.Context, req any) (any, error) {
		log.From(ctx).Info("handler")
		return "ok", nil
	})
	require.NoError(t, err)

	require.Equal(t, 1, h.count["handler"])
	require.Equal(t, "abc", h.attrs["request_id"])
}

// TestStreamLoggingInterceptor_LogsOnce — стрим логируется одной записью по завершении.
func TestStreamLoggingInterceptor_LogsOnce(t *testing.T) {
	t.Parallel()

	h := &capHandler{}
	inter := StreamLoggingInterceptor(slog.New(h))

	ss := &fakeStream{ctx: context.Background()}
	err := inter(nil, ss, &grpc.StreamServerInfo{FullMethod: "/grpc.health.v1.Health/Watch"}, func(srv any, stream grpc.ServerStream) error {
		log.From(stream.Context()).Debug("watch_started")
		return status.Error(codes.Canceled, "client gone")
	})
	require.Error(t, err)

	require.Equal(t, 1, h.count["grpc_stream"])
	require.Equal(t, 1, h.count["watch_started"])
	require.Equal(t, "Canceled", h.attrs["code"])
}

// TestRecover_PanicToInternal_AndLogsStack — паника превращается в codes.Internal.
func TestRecover_PanicToInternal_AndLogsStack(t *testing.T) {
	t.Parallel()

	h := &capHandler{}
	inter := Recover(slog.New(h))

	resp, err := inter(context.Background(), "req", &grpc.UnaryServerInfo{FullMethod: healthCheck}, func(ctx context.Context, req any) (any, error) {
		panic("boom")
	})

	require.Nil(t, resp)
	require.Equal(t, codes.Internal, status.Code(err))
	require.Equal(t, slog.LevelError, h.lastLvl)
	require.Equal(t, "panic_recovered", h.lastMsg)
	require.Equal(t, healthCheck, h.attrs["method"])

	stack, ok := h.attrs["stack"].(string)
	require.True(t, ok)
	require.NotEmpty(t, stack)
}

// TestRecover_NoPanic_PassThrough_NoLogs — без паники ответ проходит насквозь.
func TestRecover_NoPanic_PassThrough_NoLogs(t *testing.T) {
	t.Parallel()

	h := &capHandler{}
	inter := Recover(slog.New(h))

	resp, err := inter(context.Background(), "req", &grpc.UnaryServerInfo{FullMethod: healthCheck}, func(ctx context.Context, req any) (any, error) {
		return "ok", nil
	})

	require.NoError(t, err)
	require.Equal(t, "ok", resp)
	require.Equal(t, "", h.lastMsg)
}

// TestRecoverStream_PanicToInternal — стриминговая версия Recover.
func TestRecoverStream_PanicToInternal(t *testing.T) {
	t.Parallel()

	h := &capHandler{}
	inter := RecoverStream(slog.New(h))

	err := inter(nil, &fakeStream{ctx: context.Background()}, &grpc.StreamServerInfo{FullMethod: "/grpc.health.v1.Health/Watch"}, func(srv any, stream grpc.ServerStream) error {
		panic("stream boom")
	})

	require.Equal(t, codes.Internal, status.Code(err))
	require.Equal(t, "panic_recovered", h.lastMsg)
}

// TestWithTimeout_SetsDeadline_AndHandlerSeesDeadlineExceeded — дедлайн навешивается при отсутствии.
func TestWithTimeout_SetsDeadline_AndHandlerSeesDeadlineExceeded(t *testing.T) {
	t.Parallel()

	const d = 40 * time.Millisecond
	inter := WithTimeout(d)

	start := time.Now()
	_, err := inter(context.Background(), "req", &grpc.UnaryServerInfo{FullMethod: healthCheck}, func(ctx context.Context, req any) (any, error) {
		<-ctx.Done()
		return nil, ctx.Err()
	})

	require.ErrorIs(t, err, context.DeadlineExceeded)
	require.GreaterOrEqual(t, time.Since(start), d)
}

// TestWithTimeout_DoesNotOverrideExistingDeadline — существующий дедлайн не переопределяется.
func TestWithTimeout_DoesNotOverrideExistingDeadline(t *testing.T) {
	t.Parallel()

	parent, cancel := context.WithTimeout(context.Background(), 25*time.Millisecond)
	defer cancel()

	pdl, _ := parent.Deadline()

	var childDL time.Time
	_, err := WithTimeout(time.Second)(parent, "req", &grpc.UnaryServerInfo{FullMethod: healthCheck}, func(ctx context.Context, req any) (any, error) {
		childDL, _ = ctx.Deadline()
		return "ok", nil
	})

	require.NoError(t, err)
	require.WithinDuration(t, pdl, childDL, time.Millisecond)
}

// TestWithTimeout_ZeroDuration_PassThrough — d<=0 не задаёт дедлайн.
func TestWithTimeout_ZeroDuration_PassThrough(t *testing.T) {
	t.Parallel()

	var hasDL bool
	_, err := WithTimeout(0)(context.Background(), "req", &grpc.UnaryServerInfo{FullMethod: healthCheck}, func(ctx context.Context, req any) (any, error) {
		_, hasDL = ctx.Deadline()
		return "ok", nil
	})

	require.NoError(t, err)
	require.False(t, hasDL)
}
