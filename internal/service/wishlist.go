package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/utafrali/storefront/internal/auth"
	"github.com/utafrali/storefront/internal/domain"
	"github.com/utafrali/storefront/internal/event"
	"github.com/utafrali/storefront/internal/state"
	apperrors "github.com/utafrali/storefront/pkg/errors"
	"github.com/utafrali/storefront/pkg/logger"
)

// ToggleResult describes a completed wishlist toggle.
type ToggleResult struct {
	ProductID  string                `json:"product_id"`
	Action     string                `json:"action"`
	InWishlist bool                  `json:"in_wishlist"`
	Wishlist   []domain.WishlistItem `json:"wishlist"`
}

// ToggleWishlist adds productID to the wishlist when absent and removes it
// when present. The remote mutation runs first and the local partition only
// changes after it succeeds. On failure the wishlist is reloaded from the
// shop API and the failure is returned.
//
// Without a token no request is issued and nothing changes. A second toggle
// for the same product while one is running is rejected with Conflict.
func (s *StorefrontService) ToggleWishlist(ctx context.Context, sessionID, productID string) (*ToggleResult, error) {
	if productID == "" {
		return nil, apperrors.InvalidInput("product id is required")
	}

	current, err := s.Snapshot(ctx, sessionID)
	if err != nil {
		return nil, err
	}
	if !current.SignedIn() {
		wishlistTogglesTotal.WithLabelValues("none", "unauthenticated").Inc()
		return nil, apperrors.Unauthorized("sign in to manage your wishlist")
	}

	release, ok, err := s.guard.Acquire(ctx, sessionID, productID)
	if err != nil {
		return nil, fmt.Errorf("acquire toggle guard: %w", err)
	}
	if !ok {
		wishlistTogglesTotal.WithLabelValues("none", "in_flight").Inc()
		return nil, apperrors.Conflict("a wishlist update for this product is already in progress")
	}
	defer release()

	// Re-read under the guard so the present/absent decision reflects any
	// toggle that finished while we were waiting.
	current, err = s.Snapshot(ctx, sessionID)
	if err != nil {
		return nil, err
	}
	token := current.Token
	if token == "" {
		wishlistTogglesTotal.WithLabelValues("none", "unauthenticated").Inc()
		return nil, apperrors.Unauthorized("sign in to manage your wishlist")
	}

	present := current.IsInWishlist(productID)
	action := event.ActionAdded
	var product domain.Product
	if present {
		action = event.ActionRemoved
	} else {
		var found bool
		if product, found = current.FindProduct(productID); !found {
			wishlistTogglesTotal.WithLabelValues(action, "unknown_product").Inc()
			return nil, apperrors.NotFound("product", productID)
		}
	}

	log := logger.WithContext(ctx, s.logger).With(
		slog.String("product_id", productID),
		slog.String("action", action),
	)

	if present {
		err = s.api.RemoveFromWishlist(ctx, token, productID)
	} else {
		err = s.api.AddToWishlist(ctx, token, productID)
	}
	if err != nil {
		wishlistTogglesTotal.WithLabelValues(action, "failed").Inc()
		log.WarnContext(ctx, "wishlist toggle failed", slog.String("error", err.Error()))
		s.reconcileWishlist(ctx, sessionID, token)
		return nil, err
	}

	updated, err := s.repo.Update(ctx, sessionID, func(c *state.Container) error {
		if c.Token != token {
			return errTokenChanged
		}
		if present {
			c.Wishlist = state.RemoveByID(c.Wishlist, productID)
		} else {
			c.Wishlist = state.AddOne(c.Wishlist, domain.NewWishlistItem(product))
		}
		return nil
	})
	if err != nil {
		wishlistTogglesTotal.WithLabelValues(action, "failed").Inc()
		if errors.Is(err, errTokenChanged) {
			return nil, apperrors.Conflict("session signed out during the wishlist update")
		}
		return nil, fmt.Errorf("commit wishlist: %w", err)
	}

	wishlistTogglesTotal.WithLabelValues(action, "success").Inc()
	log.InfoContext(ctx, "wishlist toggled")

	if err := s.producer.PublishWishlistToggled(ctx, event.WishlistToggledData{
		SessionID: sessionID,
		UserID:    auth.UserIDFromToken(token),
		ProductID: productID,
		Action:    action,
	}); err != nil {
		log.ErrorContext(ctx, "failed to publish wishlist event", slog.String("error", err.Error()))
	}

	return &ToggleResult{
		ProductID:  productID,
		Action:     action,
		InWishlist: updated.IsInWishlist(productID),
		Wishlist:   updated.Wishlist,
	}, nil
}

// reconcileWishlist replaces the local wishlist with the server's copy after
// a failed mutation. Its own failure is only logged.
func (s *StorefrontService) reconcileWishlist(ctx context.Context, sessionID, token string) {
	if ctx.Err() != nil {
		return
	}
	res := s.load(ctx, sessionID, state.PartitionWishlist, token)
	if res.Failed() {
		logger.WithContext(ctx, s.logger).WarnContext(ctx, "wishlist reconcile failed",
			slog.String("error", res.Err.Error()),
		)
	}
}
