package rpc

import (
	"context"
	"net"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/credentials/insecure"
	"google.golang.org/grpc/encoding"
	"google.golang.org/grpc/status"
	"google.golang.org/grpc/test/bufconn"

	"home-services-api/internal/model"
)

type fakeAuth struct {
	seen []string
}

func (f *fakeAuth) Login(_ context.Context, req *LoginRequest) (*AuthResponse, error) {
	f.seen = append(f.seen, "Login")
	if req.Password != "testpass123" {
		return nil, status.Error(codes.Unauthenticated, "invalid credentials")
	}
	return &AuthResponse{Token: "tok", User: &model.User{ID: "u1", Email: req.Email, Role: model.RoleHomeowner}}, nil
}

func (f *fakeAuth) Signup(context.Context, *SignupRequest) (*AuthResponse, error) {
	return nil, status.Error(codes.Unimplemented, "signup")
}

func (f *fakeAuth) Refresh(context.Context, *RefreshRequest) (*RefreshResponse, error) {
	return nil, status.Error(codes.Unimplemented, "refresh")
}

func (f *fakeAuth) Logout(context.Context, *LogoutRequest) (*SuccessResponse, error) {
	f.seen = append(f.seen, "Logout")
	return &SuccessResponse{Success: true}, nil
}

func dial(t *testing.T, srv AuthServiceServer, opts ...grpc.ServerOption) *grpc.ClientConn {
	t.Helper()
	lis := bufconn.Listen(1 << 20)
	s := grpc.NewServer(opts...)
	RegisterAuthServiceServer(s, srv)
	go s.Serve(lis)
	t.Cleanup(s.Stop)

	conn, err := grpc.NewClient("passthrough:///bufnet",
		grpc.WithContextDialer(func(ctx context.Context, _ string) (net.Conn, error) { return lis.DialContext(ctx) }),
		grpc.WithTransportCredentials(insecure.NewCredentials()),
	)
	require.NoError(t, err)
	t.Cleanup(func() { conn.Close() })
	return conn
}

func TestCodecRegistered(t *testing.T) {
	c := encoding.GetCodec(CodecName)
	require.NotNil(t, c)

	var req LoginRequest
	require.NoError(t, c.Unmarshal(nil, &req), "empty frames decode to the zero message")

	b, err := c.Marshal(&LoginRequest{Email: "a@b.com"})
	require.NoError(t, err)
	assert.JSONEq(t, `{"email":"a@b.com","password":""}`, string(b))
}

func TestInvokeOverJSON(t *testing.T) {
	fake := &fakeAuth{}
	conn := dial(t, fake)

	resp, err := Invoke[LoginRequest, AuthResponse](context.Background(), conn, AuthService_Login_FullMethodName,
		&LoginRequest{Email: "a@b.com", Password: "testpass123"})
	require.NoError(t, err)
	assert.Equal(t, "tok", resp.Token)
	require.NotNil(t, resp.User)
	assert.Equal(t, "a@b.com", resp.User.Email)

	_, err = Invoke[LoginRequest, AuthResponse](context.Background(), conn, AuthService_Login_FullMethodName,
		&LoginRequest{Email: "a@b.com", Password: "nope"})
	assert.Equal(t, codes.Unauthenticated, status.Code(err))
}

func TestInterceptorSeesFullMethod(t *testing.T) {
	var methods []string
	record := func(ctx context.Context, req any, info *grpc.UnaryServerInfo, next grpc.UnaryHandler) (any, error) {
		methods = append(methods, info.FullMethod)
		return next(ctx, req)
	}
	conn := dial(t, &fakeAuth{}, grpc.UnaryInterceptor(record))

	_, err := Invoke[LogoutRequest, SuccessResponse](context.Background(), conn, AuthService_Logout_FullMethodName, &LogoutRequest{})
	require.NoError(t, err)
	assert.Equal(t, []string{AuthService_Logout_FullMethodName}, methods)
}

func TestServiceDescsCoverInterfaces(t *testing.T) {
	tests := []struct {
		desc  *grpc.ServiceDesc
		count int
	}{
		{&AuthService_ServiceDesc, 4},
		{&UserService_ServiceDesc, 4},
		{&HomeService_ServiceDesc, 22},
	}
	for _, tt := range tests {
		t.Run(tt.desc.ServiceName, func(t *testing.T) {
			assert.Len(t, tt.desc.Methods, tt.count)
			seen := map[string]bool{}
			for _, m := range tt.desc.Methods {
				assert.False(t, seen[m.MethodName], "duplicate %s", m.MethodName)
				seen[m.MethodName] = true
			}
		})
	}
}
