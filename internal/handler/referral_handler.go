package handler

import (
	"context"
	"errors"
	"strings"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"home-services-api/internal/derive"
	"home-services-api/internal/model"
	"home-services-api/internal/rpc"
	"home-services-api/internal/store"
)

// DefaultReferralShares is the allowance a new referral card starts with.
const DefaultReferralShares = 5

func (h *Handler) GetReferralCard(ctx context.Context, _ *rpc.GetReferralCardRequest) (*rpc.ReferralCardResponse, error) {
	uid, _, err := caller(ctx)
	if err != nil {
		return nil, err
	}
	c, err := h.referralCard(ctx, uid)
	if err != nil {
		return nil, err
	}
	return &rpc.ReferralCardResponse{Card: c}, nil
}

// referralCard returns the caller's card, issuing one on first use.
func (h *Handler) referralCard(ctx context.Context, uid string) (*model.ReferralCard, error) {
	log := h.log.WithField("user_id", uid)
	c, err := h.store.ReferralCardByUser(ctx, uid)
	if err == nil {
		return c, nil
	}
	if !errors.Is(err, store.ErrNotFound) {
		return nil, h.storeErr(log, "load referral card", err)
	}

	id := uuid.New().String()
	c = &model.ReferralCard{
		ID:              id,
		UserID:          uid,
		Code:            "HOME-" + strings.ToUpper(id[:8]),
		SharesRemaining: DefaultReferralShares,
	}
	switch err := h.store.CreateReferralCard(ctx, c); {
	case err == nil:
		log.WithField("referral_id", c.ID).Info("referral card issued")
	case errors.Is(err, store.ErrDuplicate):
		// a concurrent call issued it first
	default:
		return nil, h.storeErr(log, "create referral card", err)
	}

	c, err = h.store.ReferralCardByUser(ctx, uid)
	if err != nil {
		return nil, h.storeErr(log, "reload referral card", err)
	}
	return c, nil
}

// ShareReferralCard spends one share. A card with nothing left reports
// Shared=false and is left as it was.
func (h *Handler) ShareReferralCard(ctx context.Context, _ *rpc.ShareReferralCardRequest) (*rpc.ShareReferralCardResponse, error) {
	uid, _, err := caller(ctx)
	if err != nil {
		return nil, err
	}
	c, err := h.referralCard(ctx, uid)
	if err != nil {
		return nil, err
	}

	now := h.now()
	log := h.log.WithFields(logrus.Fields{"referral_id": c.ID, "user_id": uid})
	if !derive.ShareCard(c, now) {
		return &rpc.ShareReferralCardResponse{Shared: false, Card: c}, nil
	}

	shared := true
	switch err := h.store.RecordShare(ctx, c.ID, now); {
	case err == nil:
		h.metrics.RecordShare()
		log.Info("referral card shared")
	case errors.Is(err, store.ErrNoShares):
		// lost the last share to a concurrent request
		shared = false
	default:
		return nil, h.storeErr(log, "record share", err)
	}

	fresh, err := h.store.ReferralCardByUser(ctx, uid)
	if err != nil {
		return nil, h.storeErr(log, "reload referral card", err)
	}
	return &rpc.ShareReferralCardResponse{Shared: shared, Card: fresh}, nil
}
