package middleware

import (
	"context"
	"errors"
	"net"
	"testing"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/sirupsen/logrus/hooks/test"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/metadata"
	"google.golang.org/grpc/peer"
	"google.golang.org/grpc/status"

	"home-services-api/internal/auth"
	"home-services-api/internal/model"
	"home-services-api/internal/rpc"
)

const secret = "test-secret"

const listAppointments = "/homeservices.v1.HomeService/ListAppointments"

func info(method string) *grpc.UnaryServerInfo {
	return &grpc.UnaryServerInfo{FullMethod: method}
}

// echo returns the caller Auth attached.
func echo(ctx context.Context, _ any) (any, error) {
	uid, role, _ := Caller(ctx)
	return uid + "/" + string(role), nil
}

func withToken(t *testing.T, uid string, role model.Role) context.Context {
	t.Helper()
	tok, err := auth.MakeToken(uid, role, secret, time.Minute)
	require.NoError(t, err)
	return metadata.NewIncomingContext(context.Background(), metadata.Pairs("authorization", "Bearer "+tok))
}

func TestAuth(t *testing.T) {
	interceptor := Auth(secret)
	other, err := auth.MakeToken("u1", model.RoleAdmin, "other-secret", time.Minute)
	require.NoError(t, err)

	tests := []struct {
		name   string
		ctx    context.Context
		method string
		want   codes.Code
		caller string
	}{
		{"open method without token", context.Background(), rpc.AuthService_Login_FullMethodName, codes.OK, "/"},
		{"no metadata", context.Background(), listAppointments, codes.Unauthenticated, ""},
		{"no token", metadata.NewIncomingContext(context.Background(), metadata.MD{}), listAppointments, codes.Unauthenticated, ""},
		{"wrong secret", metadata.NewIncomingContext(context.Background(), metadata.Pairs("authorization", "Bearer "+other)), listAppointments, codes.Unauthenticated, ""},
		{"valid token", withToken(t, "u1", model.RoleTech), listAppointments, codes.OK, "u1/tech"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			resp, err := interceptor(tt.ctx, nil, info(tt.method), echo)
			assert.Equal(t, tt.want, status.Code(err))
			if tt.want == codes.OK {
				assert.Equal(t, tt.caller, resp)
			}
		})
	}
}

func TestRoleGate(t *testing.T) {
	gate := RoleGate()

	_, err := gate(WithCaller(context.Background(), "u1", model.RoleHomeowner), nil, info(rpc.UserService_ListUsers_FullMethodName), echo)
	assert.Equal(t, codes.PermissionDenied, status.Code(err))

	_, err = gate(WithCaller(context.Background(), "u1", model.RoleTech), nil, info(rpc.UserService_DeleteUser_FullMethodName), echo)
	assert.Equal(t, codes.PermissionDenied, status.Code(err))

	_, err = gate(context.Background(), nil, info(rpc.UserService_UpdateUserRole_FullMethodName), echo)
	assert.Equal(t, codes.PermissionDenied, status.Code(err))

	resp, err := gate(WithCaller(context.Background(), "a1", model.RoleAdmin), nil, info(rpc.UserService_ListUsers_FullMethodName), echo)
	require.NoError(t, err)
	assert.Equal(t, "a1/admin", resp)

	// SyncUser is gated in the handler, not here
	_, err = gate(WithCaller(context.Background(), "u1", model.RoleHomeowner), nil, info(rpc.UserService_SyncUser_FullMethodName), echo)
	assert.NoError(t, err)
}

func TestRateLimit(t *testing.T) {
	rl := NewRateLimiter(0.001, 2)
	t.Cleanup(rl.Stop)
	interceptor := RateLimit(rl)

	from := func(ip string) context.Context {
		return peer.NewContext(context.Background(), &peer.Peer{Addr: &net.TCPAddr{IP: net.ParseIP(ip), Port: 4000}})
	}
	ok := func(context.Context, any) (any, error) { return "ok", nil }

	for i := 0; i < 2; i++ {
		_, err := interceptor(from("10.0.0.1"), nil, info(rpc.AuthService_Login_FullMethodName), ok)
		require.NoError(t, err)
	}
	_, err := interceptor(from("10.0.0.1"), nil, info(rpc.AuthService_Login_FullMethodName), ok)
	assert.Equal(t, codes.ResourceExhausted, status.Code(err))

	// buckets are per peer
	_, err = interceptor(from("10.0.0.2"), nil, info(rpc.AuthService_Signup_FullMethodName), ok)
	assert.NoError(t, err)

	// only auth endpoints are limited
	for i := 0; i < 5; i++ {
		_, err = interceptor(from("10.0.0.1"), nil, info(listAppointments), ok)
		require.NoError(t, err)
	}

	rl.Stop()
	rl.Stop()
}

func TestLogging(t *testing.T) {
	log, hook := test.NewNullLogger()
	log.SetLevel(logrus.DebugLevel)
	interceptor := Logging(log)

	tests := []struct {
		name  string
		err   error
		level logrus.Level
		code  string
	}{
		{"ok", nil, logrus.DebugLevel, "OK"},
		{"rejected", status.Error(codes.NotFound, "not found"), logrus.InfoLevel, "NotFound"},
		{"internal", status.Error(codes.Internal, "internal error"), logrus.ErrorLevel, "Internal"},
		{"plain error", errors.New("boom"), logrus.ErrorLevel, "Unknown"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			hook.Reset()
			_, err := interceptor(context.Background(), nil, info(listAppointments), func(context.Context, any) (any, error) {
				return nil, tt.err
			})
			assert.Equal(t, tt.err, err)

			entry := hook.LastEntry()
			require.NotNil(t, entry)
			assert.Equal(t, tt.level, entry.Level)
			assert.Equal(t, tt.code, entry.Data["code"])
			assert.Equal(t, listAppointments, entry.Data["method"])
		})
	}
}

func TestClientIP(t *testing.T) {
	at := func(addr net.Addr, md metadata.MD) context.Context {
		ctx := peer.NewContext(context.Background(), &peer.Peer{Addr: addr})
		if md != nil {
			ctx = metadata.NewIncomingContext(ctx, md)
		}
		return ctx
	}
	remote := &net.TCPAddr{IP: net.ParseIP("198.51.100.7"), Port: 41000}
	loopback := &net.TCPAddr{IP: net.ParseIP("127.0.0.1"), Port: 52000}

	tests := []struct {
		name string
		ctx  context.Context
		want string
	}{
		{"no peer", context.Background(), "unknown"},
		{"port is dropped", at(remote, nil), "198.51.100.7"},
		{"forwarded header ignored from remote peer", at(remote, metadata.Pairs(ForwardedForKey, "10.9.9.9")), "198.51.100.7"},
		{"bridge on loopback", at(loopback, metadata.Pairs(ForwardedForKey, "203.0.113.5")), "203.0.113.5"},
		{"first hop wins", at(loopback, metadata.Pairs(ForwardedForKey, "203.0.113.5, 10.0.0.1")), "203.0.113.5"},
		{"loopback without header", at(loopback, nil), "127.0.0.1"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, clientIP(tt.ctx))
		})
	}
}
