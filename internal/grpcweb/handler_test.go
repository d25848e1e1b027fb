package grpcweb_test

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/binary"
	"encoding/json"
	"fmt"
	"io"
	"net"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"google.golang.org/genproto/googleapis/rpc/errdetails"
	spb "google.golang.org/genproto/googleapis/rpc/status"
	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/credentials/insecure"
	"google.golang.org/grpc/status"
	"google.golang.org/grpc/test/bufconn"
	"google.golang.org/protobuf/proto"

	"home-services-api/internal/grpcweb"
	"home-services-api/internal/handler"
	"home-services-api/internal/middleware"
	"home-services-api/internal/rpc"
	"home-services-api/internal/store"
)

const secret = "test-secret"

func newBridge(t *testing.T) *grpcweb.Bridge {
	t.Helper()
	log := logrus.New()
	log.SetOutput(io.Discard)

	lis := bufconn.Listen(1 << 20)
	srv := grpc.NewServer(grpc.ChainUnaryInterceptor(middleware.Auth(secret)))
	h := handler.New(store.NewMemory(), secret, handler.WithLogger(log))
	rpc.RegisterAuthServiceServer(srv, h)
	rpc.RegisterUserServiceServer(srv, h)
	rpc.RegisterHomeServiceServer(srv, h)
	go srv.Serve(lis)
	t.Cleanup(srv.Stop)

	b, err := grpcweb.New("passthrough:///bufnet", log,
		grpc.WithContextDialer(func(ctx context.Context, _ string) (net.Conn, error) {
			return lis.DialContext(ctx)
		}),
	)
	require.NoError(t, err)
	t.Cleanup(func() { b.Close() })
	return b
}

func framed(t *testing.T, msg any) []byte {
	t.Helper()
	data, err := json.Marshal(msg)
	require.NoError(t, err)
	out := make([]byte, 5+len(data))
	binary.BigEndian.PutUint32(out[1:5], uint32(len(data)))
	copy(out[5:], data)
	return out
}

type reply struct {
	data     []byte
	trailers map[string]string
}

func parseReply(t *testing.T, body []byte) reply {
	t.Helper()
	r := reply{trailers: map[string]string{}}
	for len(body) > 0 {
		require.GreaterOrEqual(t, len(body), 5, "truncated frame header")
		n := int(binary.BigEndian.Uint32(body[1:5]))
		require.GreaterOrEqual(t, len(body), 5+n, "truncated frame")
		payload := body[5 : 5+n]
		if body[0]&0x80 != 0 {
			for _, line := range strings.Split(strings.TrimSpace(string(payload)), "\r\n") {
				k, v, _ := strings.Cut(line, ":")
				r.trailers[k] = v
			}
		} else {
			r.data = payload
		}
		body = body[5+n:]
	}
	return r
}

func call(t *testing.T, b *grpcweb.Bridge, method, token string, msg any) (*httptest.ResponseRecorder, reply) {
	t.Helper()
	req := httptest.NewRequest(http.MethodPost, method, bytes.NewReader(framed(t, msg)))
	req.Header.Set("Content-Type", "application/grpc-web+json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	rec := httptest.NewRecorder()
	b.Handler().ServeHTTP(rec, req)
	return rec, parseReply(t, rec.Body.Bytes())
}

func TestBridgeSignupAndAuthenticatedCall(t *testing.T) {
	b := newBridge(t)

	rec, r := call(t, b, rpc.AuthService_Signup_FullMethodName, "",
		rpc.SignupRequest{Email: "web@test.com", Password: "testpass123", Name: "Web User"})
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "application/grpc-web+json", rec.Header().Get("Content-Type"))
	require.Equal(t, "0", r.trailers["grpc-status"])

	var auth rpc.AuthResponse
	require.NoError(t, json.Unmarshal(r.data, &auth))
	require.NotEmpty(t, auth.Token)
	assert.Equal(t, "web@test.com", auth.User.Email)

	_, r = call(t, b, "/homeservices.v1.HomeService/ListAppointments", auth.Token, rpc.ListAppointmentsRequest{})
	require.Equal(t, "0", r.trailers["grpc-status"])
	var list rpc.ListAppointmentsResponse
	require.NoError(t, json.Unmarshal(r.data, &list))
	assert.Empty(t, list.Appointments)
}

func TestBridgeUnauthenticated(t *testing.T) {
	b := newBridge(t)

	_, r := call(t, b, "/homeservices.v1.HomeService/ListAppointments", "", rpc.ListAppointmentsRequest{})
	assert.Nil(t, r.data)
	assert.Equal(t, "16", r.trailers["grpc-status"])
	assert.Equal(t, "no token", r.trailers["grpc-message"])
}

func TestBridgeErrorDetails(t *testing.T) {
	b := newBridge(t)

	_, r := call(t, b, rpc.AuthService_Signup_FullMethodName, "",
		rpc.SignupRequest{Email: "bad", Password: "testpass123", Name: "X"})
	require.Equal(t, "3", r.trailers["grpc-status"])

	raw, err := base64.RawStdEncoding.DecodeString(r.trailers["grpc-status-details-bin"])
	require.NoError(t, err)
	var sp spb.Status
	require.NoError(t, proto.Unmarshal(raw, &sp))

	details := status.FromProto(&sp).Details()
	require.Len(t, details, 1)
	br, ok := details[0].(*errdetails.BadRequest)
	require.True(t, ok)
	assert.Equal(t, "email", br.FieldViolations[0].Field)
}

func TestBridgeUnknownMethod(t *testing.T) {
	b := newBridge(t)

	_, r := call(t, b, "/homeservices.v1.HomeService/Nope", "", struct{}{})
	assert.Equal(t, "12", r.trailers["grpc-status"])
}

func TestBridgeRejects(t *testing.T) {
	b := newBridge(t)

	tests := []struct {
		name   string
		method string
		ct     string
		body   []byte
		code   int
		trail  string
	}{
		{"preflight", http.MethodOptions, "", nil, http.StatusOK, ""},
		{"get", http.MethodGet, "application/grpc-web+json", nil, http.StatusMethodNotAllowed, ""},
		{"plain json", http.MethodPost, "application/json", []byte("{}"), http.StatusUnsupportedMediaType, ""},
		{"text mode", http.MethodPost, "application/grpc-web-text", []byte("AAAA"), http.StatusUnsupportedMediaType, ""},
		{"short body", http.MethodPost, "application/grpc-web+json", []byte{0, 0}, http.StatusOK, "3"},
		{"bad length", http.MethodPost, "application/grpc-web+json", []byte{0, 0, 0, 0, 9, '{'}, http.StatusOK, "3"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(tt.method, rpc.AuthService_Login_FullMethodName, bytes.NewReader(tt.body))
			req.Header.Set("Origin", "https://app.example.com")
			if tt.ct != "" {
				req.Header.Set("Content-Type", tt.ct)
			}
			rec := httptest.NewRecorder()
			b.Handler().ServeHTTP(rec, req)

			assert.Equal(t, tt.code, rec.Code)
			assert.Equal(t, "https://app.example.com", rec.Header().Get("Access-Control-Allow-Origin"))
			if tt.trail != "" {
				assert.Equal(t, tt.trail, parseReply(t, rec.Body.Bytes()).trailers["grpc-status"])
			}
		})
	}
}

// newLoopbackBridge serves over real TCP on 127.0.0.1 so the server sees the
// bridge as a loopback peer, as it does in production.
func newLoopbackBridge(t *testing.T, rl *middleware.RateLimiter) (*grpcweb.Bridge, string) {
	t.Helper()
	log := logrus.New()
	log.SetOutput(io.Discard)

	lis, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	srv := grpc.NewServer(grpc.ChainUnaryInterceptor(middleware.RateLimit(rl), middleware.Auth(secret)))
	rpc.RegisterAuthServiceServer(srv, handler.New(store.NewMemory(), secret, handler.WithLogger(log)))
	go srv.Serve(lis)
	t.Cleanup(srv.Stop)

	b, err := grpcweb.New(lis.Addr().String(), log)
	require.NoError(t, err)
	t.Cleanup(func() { b.Close() })
	return b, lis.Addr().String()
}

func loginFrom(t *testing.T, b *grpcweb.Bridge, remote string) string {
	t.Helper()
	req := httptest.NewRequest(http.MethodPost, rpc.AuthService_Login_FullMethodName,
		bytes.NewReader(framed(t, rpc.LoginRequest{Email: "nobody@test.com", Password: "wrongpass1"})))
	req.Header.Set("Content-Type", "application/grpc-web+json")
	req.RemoteAddr = remote
	rec := httptest.NewRecorder()
	b.Handler().ServeHTTP(rec, req)
	return parseReply(t, rec.Body.Bytes()).trailers["grpc-status"]
}

func TestBridgeRateLimitsPerBrowser(t *testing.T) {
	rl := middleware.NewRateLimiter(0.001, 1)
	t.Cleanup(rl.Stop)
	b, addr := newLoopbackBridge(t, rl)

	unauthenticated := fmt.Sprint(int(codes.Unauthenticated))
	exhausted := fmt.Sprint(int(codes.ResourceExhausted))

	for i := 1; i <= 12; i++ {
		got := loginFrom(t, b, fmt.Sprintf("203.0.113.%d:5%03d", i, i))
		assert.Equal(t, unauthenticated, got, "client %d was throttled by other browsers", i)
	}

	// the same browser on a new port shares its bucket
	assert.Equal(t, exhausted, loginFrom(t, b, "203.0.113.1:6000"))

	// native callers on loopback keep their own bucket
	conn, err := grpc.NewClient(addr, grpc.WithTransportCredentials(insecure.NewCredentials()))
	require.NoError(t, err)
	t.Cleanup(func() { conn.Close() })
	_, err = rpc.Invoke[rpc.LoginRequest, rpc.AuthResponse](context.Background(), conn,
		rpc.AuthService_Login_FullMethodName, &rpc.LoginRequest{Email: "nobody@test.com", Password: "wrongpass1"})
	assert.Equal(t, codes.Unauthenticated, status.Code(err))
}
