package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/utafrali/storefront/internal/domain"
	"github.com/utafrali/storefront/internal/event"
	"github.com/utafrali/storefront/internal/repository"
	"github.com/utafrali/storefront/internal/state"
	apperrors "github.com/utafrali/storefront/pkg/errors"
)

// ShopAPI is the subset of the remote shop API the storefront consumes.
// *api.Client satisfies it.
type ShopAPI interface {
	Products(ctx context.Context) ([]domain.Product, error)
	FeaturedReviews(ctx context.Context) ([]domain.Review, error)
	Categories(ctx context.Context) ([]domain.Category, error)
	Settings(ctx context.Context) ([]domain.Setting, error)
	Wishlist(ctx context.Context, token string) ([]domain.WishlistItem, error)
	Orders(ctx context.Context, token string) ([]domain.Order, error)
	User(ctx context.Context, token string) (*domain.UserProfile, error)
	AddToWishlist(ctx context.Context, token, productID string) error
	RemoveFromWishlist(ctx context.Context, token, productID string) error
}

// EventPublisher publishes storefront events. Both *event.Producer and
// event.Noop satisfy it.
type EventPublisher interface {
	PublishWishlistToggled(ctx context.Context, data event.WishlistToggledData) error
	PublishSessionChanged(ctx context.Context, data event.SessionChangedData) error
}

// errTokenChanged aborts a commit whose data was fetched with a token the
// session no longer holds.
var errTokenChanged = errors.New("session token changed during request")

// StorefrontService owns the per-session state containers and keeps them in
// sync with the shop API.
type StorefrontService struct {
	repo     repository.SessionRepository
	guard    repository.ToggleGuard
	api      ShopAPI
	producer EventPublisher
	logger   *slog.Logger
}

// NewStorefrontService creates a new storefront service.
func NewStorefrontService(
	repo repository.SessionRepository,
	guard repository.ToggleGuard,
	api ShopAPI,
	producer EventPublisher,
	logger *slog.Logger,
) *StorefrontService {
	return &StorefrontService{
		repo:     repo,
		guard:    guard,
		api:      api,
		producer: producer,
		logger:   logger,
	}
}

// Snapshot returns the session's container. A session with no stored state
// yields an empty container.
func (s *StorefrontService) Snapshot(ctx context.Context, sessionID string) (*state.Container, error) {
	if sessionID == "" {
		return nil, apperrors.InvalidInput("session id is required")
	}

	c, err := s.repo.Get(ctx, sessionID)
	if err != nil {
		if errors.Is(err, apperrors.ErrNotFound) {
			return state.New(), nil
		}
		return nil, fmt.Errorf("get session: %w", err)
	}
	return c, nil
}
