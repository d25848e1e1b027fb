package middleware

import (
	"context"
	"strings"

	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/metadata"
	"google.golang.org/grpc/status"

	"home-services-api/internal/auth"
	"home-services-api/internal/model"
	"home-services-api/internal/rpc"
)

type ctxKey string

const (
	UserIDKey ctxKey = "uid"
	RoleKey   ctxKey = "role"
)

// skip auth for these
var open = map[string]bool{
	rpc.AuthService_Login_FullMethodName:   true,
	rpc.AuthService_Signup_FullMethodName:  true,
	rpc.AuthService_Refresh_FullMethodName: true,
	"/grpc.health.v1.Health/Check":         true,
}

// user management is admin only; SyncUser checks ownership in the handler
var adminOnly = map[string]bool{
	rpc.UserService_ListUsers_FullMethodName:      true,
	rpc.UserService_DeleteUser_FullMethodName:     true,
	rpc.UserService_UpdateUserRole_FullMethodName: true,
}

// WithCaller returns ctx carrying the authenticated user.
func WithCaller(ctx context.Context, uid string, role model.Role) context.Context {
	ctx = context.WithValue(ctx, UserIDKey, uid)
	return context.WithValue(ctx, RoleKey, role)
}

// Caller reports the user Auth attached to ctx.
func Caller(ctx context.Context) (uid string, role model.Role, ok bool) {
	uid, _ = ctx.Value(UserIDKey).(string)
	role, _ = ctx.Value(RoleKey).(model.Role)
	return uid, role, uid != ""
}

func Auth(secret string) grpc.UnaryServerInterceptor {
	return func(ctx context.Context, req any, info *grpc.UnaryServerInfo, next grpc.UnaryHandler) (any, error) {
		if open[info.FullMethod] {
			return next(ctx, req)
		}

		md, ok := metadata.FromIncomingContext(ctx)
		if !ok {
			return nil, status.Error(codes.Unauthenticated, "missing metadata")
		}

		// token from Authorization: Bearer <jwt>
		raw := ""
		if vals := md.Get("authorization"); len(vals) > 0 {
			raw = strings.TrimPrefix(vals[0], "Bearer ")
		}
		if raw == "" {
			return nil, status.Error(codes.Unauthenticated, "no token")
		}

		claims, err := auth.ParseToken(raw, secret)
		if err != nil {
			return nil, status.Error(codes.Unauthenticated, "bad token")
		}

		return next(WithCaller(ctx, claims.UserID, claims.Role), req)
	}
}

// RoleGate rejects non-admin callers of admin-only methods. It must run after Auth.
func RoleGate() grpc.UnaryServerInterceptor {
	return func(ctx context.Context, req any, info *grpc.UnaryServerInfo, next grpc.UnaryHandler) (any, error) {
		if !adminOnly[info.FullMethod] {
			return next(ctx, req)
		}
		if _, role, ok := Caller(ctx); !ok || role != model.RoleAdmin {
			return nil, status.Error(codes.PermissionDenied, "admin only")
		}
		return next(ctx, req)
	}
}
