package handler

import (
	"context"
	"errors"
	"strings"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"

	"home-services-api/internal/model"
	"home-services-api/internal/rpc"
	"home-services-api/internal/store"
)

// ListProperties returns the caller's homes. Technicians get the properties
// they are assigned to; admins get everything.
func (h *Handler) ListProperties(ctx context.Context, _ *rpc.ListPropertiesRequest) (*rpc.ListPropertiesResponse, error) {
	uid, role, err := caller(ctx)
	if err != nil {
		return nil, err
	}

	var props []model.Property
	switch role {
	case model.RoleAdmin:
		props, err = h.store.ListProperties(ctx, "")
	case model.RoleTech:
		props, err = h.assignedProperties(ctx, uid)
	default:
		props, err = h.store.ListProperties(ctx, uid)
	}
	if err != nil {
		return nil, h.storeErr(h.log.WithField("user_id", uid), "list properties", err)
	}
	if props == nil {
		props = []model.Property{}
	}
	return &rpc.ListPropertiesResponse{Properties: props}, nil
}

func (h *Handler) assignedProperties(ctx context.Context, uid string) ([]model.Property, error) {
	u, err := h.store.UserByID(ctx, uid)
	if err != nil {
		return nil, err
	}
	out := make([]model.Property, 0, len(u.AssignedProperties))
	for _, id := range u.AssignedProperties {
		p, err := h.store.GetProperty(ctx, id)
		if errors.Is(err, store.ErrNotFound) {
			continue
		}
		if err != nil {
			return nil, err
		}
		out = append(out, *p)
	}
	return out, nil
}

func (h *Handler) CreateProperty(ctx context.Context, req *rpc.CreatePropertyRequest) (*rpc.PropertyResponse, error) {
	uid, role, err := caller(ctx)
	if err != nil {
		return nil, err
	}
	if role == model.RoleTech {
		return nil, status.Error(codes.PermissionDenied, "technicians cannot add properties")
	}
	name := strings.TrimSpace(req.Name)
	if name == "" {
		return nil, invalidArg("name", "required")
	}

	p := &model.Property{ID: uuid.New().String(), OwnerID: uid, Name: name, Address: strings.TrimSpace(req.Address)}
	log := h.log.WithFields(logrus.Fields{"property_id": p.ID, "user_id": uid})
	if err := h.store.CreateProperty(ctx, p); err != nil {
		return nil, h.storeErr(log, "create property", err)
	}
	log.Info("property created")

	fresh, err := h.store.GetProperty(ctx, p.ID)
	if err != nil {
		return nil, h.storeErr(log, "reload property", err)
	}
	return &rpc.PropertyResponse{Property: fresh}, nil
}

// ownedProperty loads a property the caller may schedule work for.
func (h *Handler) ownedProperty(ctx context.Context, id, uid string, role model.Role) (*model.Property, error) {
	p, err := h.store.GetProperty(ctx, id)
	if err != nil {
		return nil, h.storeErr(h.log.WithField("property_id", id), "load property", err)
	}
	if role != model.RoleAdmin && p.OwnerID != uid {
		return nil, errNotFound
	}
	return p, nil
}
