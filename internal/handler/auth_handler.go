package handler

import (
	"context"
	"errors"
	"strings"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"

	"home-services-api/internal/auth"
	"home-services-api/internal/model"
	"home-services-api/internal/rpc"
	"home-services-api/internal/store"
)

const minPasswordLen = 8

var errBadCredentials = status.Error(codes.Unauthenticated, "invalid credentials")

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

func validEmail(email string) bool {
	at := strings.IndexByte(email, '@')
	return at > 0 && at < len(email)-1
}

func (h *Handler) Signup(ctx context.Context, req *rpc.SignupRequest) (*rpc.AuthResponse, error) {
	name := strings.TrimSpace(req.Name)
	email := normalizeEmail(req.Email)
	switch {
	case email == "" || !validEmail(email):
		return nil, invalidArg("email", "a valid email is required")
	case name == "":
		return nil, invalidArg("name", "required")
	case len(req.Password) < minPasswordLen:
		return nil, invalidArg("password", "must be at least 8 characters")
	}

	hash, err := auth.HashPassword(req.Password)
	if err != nil {
		return nil, status.Error(codes.Internal, "internal error")
	}

	// signup never grants more than homeowner
	u := &model.User{
		ID:           uuid.New().String(),
		Name:         name,
		Email:        email,
		Phone:        strings.TrimSpace(req.Phone),
		Role:         model.RoleHomeowner,
		PasswordHash: hash,
	}
	log := h.log.WithField("user_id", u.ID)
	if err := h.store.CreateUser(ctx, u); err != nil {
		if errors.Is(err, store.ErrDuplicate) {
			// dup email, but don't reveal that
			return nil, status.Error(codes.AlreadyExists, "registration failed")
		}
		return nil, h.storeErr(log, "create user", err)
	}
	log.Info("user signed up")

	return h.issue(ctx, u)
}

func (h *Handler) Login(ctx context.Context, req *rpc.LoginRequest) (*rpc.AuthResponse, error) {
	if req.Email == "" {
		return nil, invalidArg("email", "required")
	}
	if req.Password == "" {
		return nil, invalidArg("password", "required")
	}

	u, err := h.store.UserByEmail(ctx, normalizeEmail(req.Email))
	if errors.Is(err, store.ErrNotFound) {
		return nil, errBadCredentials
	}
	if err != nil {
		return nil, h.storeErr(h.log, "load user", err)
	}
	if !auth.CheckPassword(u.PasswordHash, req.Password) {
		return nil, errBadCredentials
	}

	return h.issue(ctx, u)
}

// issue mints an access token and a fresh refresh token for u.
func (h *Handler) issue(ctx context.Context, u *model.User) (*rpc.AuthResponse, error) {
	tok, err := auth.MakeToken(u.ID, u.Role, h.secret, h.accessTTL)
	if err != nil {
		return nil, status.Error(codes.Internal, "internal error")
	}
	raw, hash, err := auth.GenerateRefreshToken()
	if err != nil {
		return nil, status.Error(codes.Internal, "internal error")
	}
	if _, err := h.store.CreateRefreshToken(ctx, u.ID, hash, h.now().Add(h.refreshTTL)); err != nil {
		return nil, h.storeErr(h.log.WithField("user_id", u.ID), "create refresh token", err)
	}
	return &rpc.AuthResponse{Token: tok, RefreshToken: raw, User: u}, nil
}

// Refresh rotates a refresh token. Presenting a token that was already
// rotated revokes every token the user holds.
func (h *Handler) Refresh(ctx context.Context, req *rpc.RefreshRequest) (*rpc.RefreshResponse, error) {
	if req.RefreshToken == "" {
		return nil, invalidArg("refreshToken", "required")
	}

	rt, err := h.store.GetRefreshTokenByHash(ctx, auth.HashRefreshToken(req.RefreshToken))
	if errors.Is(err, store.ErrNotFound) {
		return nil, status.Error(codes.Unauthenticated, "invalid refresh token")
	}
	if err != nil {
		return nil, h.storeErr(h.log, "load refresh token", err)
	}
	log := h.log.WithField("user_id", rt.UserID)

	if rt.Rotated() {
		log.Warn("refresh token reuse, revoking all sessions")
		if err := h.store.RevokeAllRefreshTokens(ctx, rt.UserID); err != nil {
			log.WithError(err).Error("revoke refresh tokens failed")
		}
		return nil, status.Error(codes.Unauthenticated, "invalid refresh token")
	}
	if rt.Revoked {
		return nil, status.Error(codes.Unauthenticated, "invalid refresh token")
	}
	if rt.Expired(h.now()) {
		return nil, status.Error(codes.Unauthenticated, "refresh token expired")
	}

	u, err := h.store.UserByID(ctx, rt.UserID)
	if errors.Is(err, store.ErrNotFound) {
		return nil, status.Error(codes.Unauthenticated, "invalid refresh token")
	}
	if err != nil {
		return nil, h.storeErr(log, "load user", err)
	}

	raw, hash, err := auth.GenerateRefreshToken()
	if err != nil {
		return nil, status.Error(codes.Internal, "internal error")
	}
	err = h.store.RotateRefreshToken(ctx, rt.ID, uuid.New().String(), u.ID, hash, h.now().Add(h.refreshTTL))
	if errors.Is(err, store.ErrNotFound) {
		// another request spent it first
		return nil, status.Error(codes.Unauthenticated, "invalid refresh token")
	}
	if err != nil {
		return nil, h.storeErr(log, "rotate refresh token", err)
	}

	tok, err := auth.MakeToken(u.ID, u.Role, h.secret, h.accessTTL)
	if err != nil {
		return nil, status.Error(codes.Internal, "internal error")
	}
	return &rpc.RefreshResponse{Token: tok, RefreshToken: raw}, nil
}

func (h *Handler) Logout(ctx context.Context, _ *rpc.LogoutRequest) (*rpc.SuccessResponse, error) {
	uid, _, err := caller(ctx)
	if err != nil {
		return nil, err
	}
	log := h.log.WithFields(logrus.Fields{"user_id": uid})
	if err := h.store.RevokeAllRefreshTokens(ctx, uid); err != nil {
		return nil, h.storeErr(log, "revoke refresh tokens", err)
	}
	log.Info("user logged out")
	return &rpc.SuccessResponse{Success: true}, nil
}
