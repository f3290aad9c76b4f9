// Package api is the storefront's only network boundary: a typed client for
// the remote shop API. Every transport failure is translated into an
// *errors.AppError so callers never see raw net/http errors.
package api

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"github.com/utafrali/storefront/internal/domain"
	apperrors "github.com/utafrali/storefront/pkg/errors"
	"github.com/utafrali/storefront/pkg/httpclient"
	"github.com/utafrali/storefront/pkg/tracing"
)

// ServiceName identifies the shop API in logs, errors and metrics.
const ServiceName = "shop-api"

const maxBodyBytes = 4 << 20

// Client calls the shop API. Both httpclient.Client and
// httpclient.CircuitBreakerClient can serve as its Doer.
type Client struct {
	baseURL string
	doer    httpclient.Doer
	logger  *slog.Logger
	tracer  trace.Tracer
}

// NewClient creates a shop API client rooted at baseURL.
func NewClient(baseURL string, doer httpclient.Doer, logger *slog.Logger) *Client {
	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		doer:    doer,
		logger:  logger,
		tracer:  tracing.Tracer("github.com/utafrali/storefront/internal/api"),
	}
}

// Products lists the catalog.
func (c *Client) Products(ctx context.Context) ([]domain.Product, error) {
	return getList[domain.Product](ctx, c, "/api/products", "")
}

// FeaturedReviews lists the testimonials shown on the home page.
func (c *Client) FeaturedReviews(ctx context.Context) ([]domain.Review, error) {
	return getList[domain.Review](ctx, c, "/api/reviews/featured", "")
}

// Categories lists catalog categories.
func (c *Client) Categories(ctx context.Context) ([]domain.Category, error) {
	return getList[domain.Category](ctx, c, "/api/categories", "")
}

// Settings lists public store settings.
func (c *Client) Settings(ctx context.Context) ([]domain.Setting, error) {
	return getList[domain.Setting](ctx, c, "/api/settings", "")
}

// Wishlist lists the shopper's wishlist.
func (c *Client) Wishlist(ctx context.Context, token string) ([]domain.WishlistItem, error) {
	return getList[domain.WishlistItem](ctx, c, "/api/wishlist", token)
}

// Orders lists the shopper's orders.
func (c *Client) Orders(ctx context.Context, token string) ([]domain.Order, error) {
	return getList[domain.Order](ctx, c, "/api/orders", token)
}

// User fetches the shopper's profile.
func (c *Client) User(ctx context.Context, token string) (*domain.UserProfile, error) {
	body, err := c.call(ctx, http.MethodGet, "/api/user", "/api/user", token)
	if err != nil {
		return nil, err
	}
	u, err := domain.DecodeObject[domain.UserProfile](body)
	if err != nil {
		return nil, apperrors.BadGateway(ServiceName, err)
	}
	return u, nil
}

// AddToWishlist adds productID to the shopper's wishlist.
func (c *Client) AddToWishlist(ctx context.Context, token, productID string) error {
	_, err := c.call(ctx, http.MethodPost,
		"/api/wishlist/add/"+url.PathEscape(productID), "/api/wishlist/add/{id}", token)
	return err
}

// RemoveFromWishlist removes productID from the shopper's wishlist.
func (c *Client) RemoveFromWishlist(ctx context.Context, token, productID string) error {
	_, err := c.call(ctx, http.MethodDelete,
		"/api/wishlist/remove/"+url.PathEscape(productID), "/api/wishlist/remove/{id}", token)
	return err
}

func getList[T any](ctx context.Context, c *Client, path, token string) ([]T, error) {
	body, err := c.call(ctx, http.MethodGet, path, path, token)
	if err != nil {
		return nil, err
	}
	items, err := domain.DecodeList[T](body)
	if err != nil {
		return nil, apperrors.BadGateway(ServiceName, err)
	}
	return items, nil
}

// call issues one request and returns the response body of a 2xx answer.
// route is the low-cardinality path template used as the span name.
func (c *Client) call(ctx context.Context, method, path, route, token string) ([]byte, error) {
	ctx, span := c.tracer.Start(ctx, method+" "+route,
		trace.WithSpanKind(trace.SpanKindClient),
		trace.WithAttributes(
			attribute.String("peer.service", ServiceName),
			attribute.String("http.request.method", method),
			attribute.String("url.path", path),
		),
	)
	defer span.End()

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, http.NoBody)
	if err != nil {
		return nil, fmt.Errorf("create %s request: %w", route, err)
	}
	req.Header.Set("Accept", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	resp, err := c.doer.Do(ctx, req)
	if err != nil {
		err = classify(err)
		tracing.RecordError(span, err)
		return nil, err
	}
	defer resp.Body.Close()

	span.SetAttributes(attribute.Int("http.response.status_code", resp.StatusCode))

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		err := httpclient.ParseResponseError(resp, ServiceName)
		tracing.RecordError(span, err)
		return nil, err
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxBodyBytes))
	if err != nil {
		err = apperrors.BadGateway(ServiceName, fmt.Errorf("read body: %w", err))
		tracing.RecordError(span, err)
		return nil, err
	}
	return body, nil
}

// classify maps transport errors to AppErrors. Context errors are passed
// through so callers can tell a cancelled request from a remote failure.
func classify(err error) error {
	switch {
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		return err
	case errors.Is(err, httpclient.ErrCircuitOpen), errors.Is(err, httpclient.ErrCircuitProbing):
		return &apperrors.AppError{
			Code:    "SERVICE_UNAVAILABLE",
			Message: "shop API is temporarily unavailable, please retry shortly",
			Status:  http.StatusServiceUnavailable,
			Err:     errors.Join(apperrors.ErrServiceUnavail, err),
		}
	default:
		return apperrors.BadGateway(ServiceName, err)
	}
}
