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

var errAdminOnly = status.Error(codes.PermissionDenied, "admin only")

func requireAdmin(ctx context.Context) (string, error) {
	uid, role, err := caller(ctx)
	if err != nil {
		return "", err
	}
	if role != model.RoleAdmin {
		return "", errAdminOnly
	}
	return uid, nil
}

// SyncUser upserts a profile keyed by email. Admins may create users and set
// roles; everyone else may only refresh their own name, phone and password.
func (h *Handler) SyncUser(ctx context.Context, req *rpc.SyncUserRequest) (*rpc.SuccessResponse, error) {
	uid, role, err := caller(ctx)
	if err != nil {
		return nil, err
	}

	in := req.User
	email := normalizeEmail(in.Email)
	if email == "" || !validEmail(email) {
		return nil, invalidArg("user.email", "a valid email is required")
	}
	if strings.TrimSpace(in.Name) == "" {
		return nil, invalidArg("user.name", "required")
	}
	if in.Role != "" && !in.Role.Valid() {
		return nil, invalidArg("user.role", "must be admin, tech or homeowner")
	}
	if req.Password != "" && len(req.Password) < minPasswordLen {
		return nil, invalidArg("password", "must be at least 8 characters")
	}

	var hash string
	if req.Password != "" {
		if hash, err = auth.HashPassword(req.Password); err != nil {
			return nil, status.Error(codes.Internal, "internal error")
		}
	}

	existing, err := h.store.UserByEmail(ctx, email)
	switch {
	case errors.Is(err, store.ErrNotFound):
		if role != model.RoleAdmin {
			return nil, errAdminOnly
		}
		u := &model.User{
			ID:                 in.ID,
			Name:               strings.TrimSpace(in.Name),
			Email:              email,
			Phone:              in.Phone,
			Role:               in.Role,
			AssignedProperties: in.AssignedProperties,
			PasswordHash:       hash,
		}
		if u.ID == "" {
			u.ID = uuid.New().String()
		}
		if u.Role == "" {
			u.Role = model.RoleHomeowner
		}
		log := h.log.WithFields(logrus.Fields{"user_id": u.ID, "by": uid})
		if err := h.store.CreateUser(ctx, u); err != nil {
			return nil, h.storeErr(log, "create user", err)
		}
		log.Info("user created")
		return &rpc.SuccessResponse{Success: true}, nil

	case err != nil:
		return nil, h.storeErr(h.log, "load user", err)
	}

	if role != model.RoleAdmin {
		if existing.ID != uid {
			return nil, errNotFound
		}
		if in.Role != "" && in.Role != existing.Role {
			return nil, status.Error(codes.PermissionDenied, "cannot change own role")
		}
	}

	existing.Name = strings.TrimSpace(in.Name)
	existing.Phone = in.Phone
	existing.PasswordHash = hash
	if role == model.RoleAdmin {
		if in.Role != "" {
			existing.Role = in.Role
		}
		existing.AssignedProperties = in.AssignedProperties
	}

	log := h.log.WithFields(logrus.Fields{"user_id": existing.ID, "by": uid})
	if err := h.store.UpdateUser(ctx, existing); err != nil {
		return nil, h.storeErr(log, "update user", err)
	}
	log.Info("user synced")
	return &rpc.SuccessResponse{Success: true}, nil
}

func (h *Handler) ListUsers(ctx context.Context, _ *rpc.ListUsersRequest) (*rpc.ListUsersResponse, error) {
	if _, err := requireAdmin(ctx); err != nil {
		return nil, err
	}
	users, err := h.store.ListUsers(ctx)
	if err != nil {
		return nil, h.storeErr(h.log, "list users", err)
	}
	if users == nil {
		users = []model.User{}
	}
	return &rpc.ListUsersResponse{Users: users}, nil
}

func (h *Handler) DeleteUser(ctx context.Context, req *rpc.DeleteUserRequest) (*rpc.SuccessResponse, error) {
	uid, err := requireAdmin(ctx)
	if err != nil {
		return nil, err
	}
	if req.UserID == "" {
		return nil, invalidArg("userId", "required")
	}
	if req.UserID == uid {
		return nil, invalidArg("userId", "cannot delete yourself")
	}

	log := h.log.WithFields(logrus.Fields{"user_id": req.UserID, "by": uid})
	if err := h.store.RevokeAllRefreshTokens(ctx, req.UserID); err != nil {
		return nil, h.storeErr(log, "revoke refresh tokens", err)
	}
	if err := h.store.DeleteUser(ctx, req.UserID); err != nil {
		return nil, h.storeErr(log, "delete user", err)
	}
	log.Info("user deleted")
	return &rpc.SuccessResponse{Success: true}, nil
}

func (h *Handler) UpdateUserRole(ctx context.Context, req *rpc.UpdateUserRoleRequest) (*rpc.SuccessResponse, error) {
	uid, err := requireAdmin(ctx)
	if err != nil {
		return nil, err
	}
	if req.UserID == "" {
		return nil, invalidArg("userId", "required")
	}
	if !req.Role.Valid() {
		return nil, invalidArg("role", "must be admin, tech or homeowner")
	}

	log := h.log.WithFields(logrus.Fields{"user_id": req.UserID, "role": req.Role, "by": uid})
	if err := h.store.UpdateUserRole(ctx, req.UserID, req.Role); err != nil {
		return nil, h.storeErr(log, "update role", err)
	}
	log.Info("role updated")
	return &rpc.SuccessResponse{Success: true}, nil
}
