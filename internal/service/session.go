package service

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/utafrali/storefront/internal/auth"
	"github.com/utafrali/storefront/internal/event"
	"github.com/utafrali/storefront/internal/state"
	apperrors "github.com/utafrali/storefront/pkg/errors"
	"github.com/utafrali/storefront/pkg/logger"
)

// SignIn stores the shopper's token in the session. Signing in with a
// different token drops the previous shopper's personalized partitions.
func (s *StorefrontService) SignIn(ctx context.Context, sessionID, rawToken string) (*state.Container, error) {
	token := auth.NormalizeToken(rawToken)
	if token == "" {
		return nil, apperrors.InvalidInput("token is required")
	}

	c, err := s.repo.Update(ctx, sessionID, func(c *state.Container) error {
		c.SignIn(token)
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("sign in: %w", err)
	}

	userID := auth.UserIDFromToken(token)
	logger.WithContext(ctx, s.logger).InfoContext(ctx, "session signed in", slog.String("token_user_id", userID))
	s.publishSessionChanged(ctx, sessionID, userID, event.ActionSignedIn)

	return c, nil
}

// SignOut clears the token and resets the wishlist, orders and user profile.
func (s *StorefrontService) SignOut(ctx context.Context, sessionID string) (*state.Container, error) {
	var userID string
	c, err := s.repo.Update(ctx, sessionID, func(c *state.Container) error {
		userID = auth.UserIDFromToken(c.Token)
		c.SignOut()
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("sign out: %w", err)
	}

	logger.WithContext(ctx, s.logger).InfoContext(ctx, "session signed out")
	s.publishSessionChanged(ctx, sessionID, userID, event.ActionSignedOut)

	return c, nil
}

// UserID returns the identity hint carried by the session's token, if any.
func (s *StorefrontService) UserID(ctx context.Context, sessionID string) string {
	c, err := s.Snapshot(ctx, sessionID)
	if err != nil {
		return ""
	}
	return auth.UserIDFromToken(c.Token)
}

func (s *StorefrontService) publishSessionChanged(ctx context.Context, sessionID, userID, action string) {
	if err := s.producer.PublishSessionChanged(ctx, event.SessionChangedData{
		SessionID: sessionID,
		UserID:    userID,
		Action:    action,
	}); err != nil {
		logger.WithContext(ctx, s.logger).ErrorContext(ctx, "failed to publish session event",
			slog.String("action", action),
			slog.String("error", err.Error()),
		)
	}
}
