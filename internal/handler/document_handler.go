package handler

import (
	"context"
	"fmt"
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"home-services-api/internal/derive"
	"home-services-api/internal/model"
	"home-services-api/internal/rpc"
	"home-services-api/internal/store"
)

// ListDocuments filters the caller's vault. Filters combine; CategoryCounts
// always covers the whole vault.
func (h *Handler) ListDocuments(ctx context.Context, req *rpc.ListDocumentsRequest) (*rpc.ListDocumentsResponse, error) {
	uid, _, err := caller(ctx)
	if err != nil {
		return nil, err
	}
	if req.Category != "" && !req.Category.Valid() {
		return nil, invalidArg("category", "unknown category")
	}

	all, err := h.store.ListDocuments(ctx, uid)
	if err != nil {
		return nil, h.storeErr(h.log.WithField("user_id", uid), "list documents", err)
	}

	docs := derive.SearchDocuments(all, req.Query)
	if req.Category != "" {
		docs = derive.ByCategory(docs, req.Category)
	}
	if req.ImportantOnly {
		docs = derive.Important(docs)
	}
	if docs == nil {
		docs = []model.Document{}
	}
	return &rpc.ListDocumentsResponse{Documents: docs, CategoryCounts: derive.CategoryCounts(all)}, nil
}

func (h *Handler) ExpiringDocuments(ctx context.Context, req *rpc.ExpiringDocumentsRequest) (*rpc.ExpiringDocumentsResponse, error) {
	uid, _, err := caller(ctx)
	if err != nil {
		return nil, err
	}
	if req.WithinDays < 0 || req.WithinDays > maxWindowDays {
		return nil, invalidArg("withinDays", fmt.Sprintf("must be between 0 and %d", maxWindowDays))
	}
	window := h.expiringWindow
	if req.WithinDays > 0 {
		window = time.Duration(req.WithinDays) * 24 * time.Hour
	}

	all, err := h.store.ListDocuments(ctx, uid)
	if err != nil {
		return nil, h.storeErr(h.log.WithField("user_id", uid), "list documents", err)
	}
	now := h.now()
	return &rpc.ExpiringDocumentsResponse{
		Expiring:     orEmpty(derive.ExpiringSoon(all, now, window)),
		Expired:      orEmpty(derive.Expired(all, now)),
		RemindersDue: orEmpty(derive.RemindersDue(all, now)),
	}, nil
}

func orEmpty(docs []model.Document) []model.Document {
	if docs == nil {
		return []model.Document{}
	}
	return docs
}

func (h *Handler) GetDocument(ctx context.Context, req *rpc.GetDocumentRequest) (*rpc.DocumentResponse, error) {
	uid, _, err := caller(ctx)
	if err != nil {
		return nil, err
	}
	if req.ID == "" {
		return nil, invalidArg("id", "required")
	}
	d, err := h.ownedDocument(ctx, req.ID, uid)
	if err != nil {
		return nil, err
	}
	return &rpc.DocumentResponse{Document: d}, nil
}

// documents are private to their owner, admins included
func (h *Handler) ownedDocument(ctx context.Context, id, uid string) (*model.Document, error) {
	d, err := h.store.GetDocument(ctx, id)
	if err != nil {
		return nil, h.storeErr(h.log.WithField("document_id", id), "load document", err)
	}
	if d.UserID != uid {
		return nil, errNotFound
	}
	return d, nil
}

// SaveDocument creates a document when ID is empty and otherwise overwrites
// every field of the caller's existing document.
func (h *Handler) SaveDocument(ctx context.Context, req *rpc.SaveDocumentRequest) (*rpc.DocumentResponse, error) {
	uid, role, err := caller(ctx)
	if err != nil {
		return nil, err
	}
	d := req.Document
	d.Title = strings.TrimSpace(d.Title)
	if d.Title == "" {
		return nil, invalidArg("document.title", "required")
	}
	if !d.Category.Valid() {
		return nil, invalidArg("document.category", "unknown category")
	}
	if d.PropertyID != "" {
		if _, err := h.ownedProperty(ctx, d.PropertyID, uid, role); err != nil {
			return nil, err
		}
	}

	if d.ID == "" {
		d.ID = uuid.New().String()
	} else if _, err := h.ownedDocument(ctx, d.ID, uid); err != nil {
		// unknown ids are not created on demand
		return nil, err
	}
	d.UserID = uid

	log := h.log.WithFields(logrus.Fields{"document_id": d.ID, "user_id": uid})
	if err := h.store.SaveDocument(ctx, &d); err != nil {
		return nil, h.storeErr(log, "save document", err)
	}
	log.WithField("category", d.Category).Info("document saved")

	fresh, err := h.store.GetDocument(ctx, d.ID)
	if err != nil {
		return nil, h.storeErr(log, "reload document", err)
	}
	return &rpc.DocumentResponse{Document: fresh}, nil
}

func (h *Handler) DeleteDocument(ctx context.Context, req *rpc.DeleteDocumentRequest) (*rpc.SuccessResponse, error) {
	uid, _, err := caller(ctx)
	if err != nil {
		return nil, err
	}
	if req.ID == "" {
		return nil, invalidArg("id", "required")
	}
	if _, err := h.ownedDocument(ctx, req.ID, uid); err != nil {
		return nil, err
	}

	log := h.log.WithFields(logrus.Fields{"document_id": req.ID, "user_id": uid})
	if err := h.store.DeleteDocument(ctx, req.ID); err != nil && !errors.Is(err, store.ErrNotFound) {
		return nil, h.storeErr(log, "delete document", err)
	}
	log.Info("document deleted")
	return &rpc.SuccessResponse{Success: true}, nil
}
