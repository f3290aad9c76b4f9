package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"golang.org/x/sync/errgroup"

	"github.com/utafrali/storefront/internal/state"
	apperrors "github.com/utafrali/storefront/pkg/errors"
	"github.com/utafrali/storefront/pkg/logger"
)

// LoadOutcome is the result of loading one partition.
type LoadOutcome string

const (
	LoadOK      LoadOutcome = "ok"
	LoadFailed  LoadOutcome = "failed"
	LoadSkipped LoadOutcome = "skipped"
)

// LoadResult reports what happened to one partition during a load. A failed
// load leaves the partition as it was.
type LoadResult struct {
	Resource state.Partition `json:"resource"`
	Outcome  LoadOutcome     `json:"outcome"`
	Count    int             `json:"count"`
	Code     string          `json:"code,omitempty"`
	Message  string          `json:"message,omitempty"`
	Err      error           `json:"-"`
}

// Failed reports whether the load failed.
func (r LoadResult) Failed() bool { return r.Outcome == LoadFailed }

// Mount runs the home page loads concurrently: products and featured reviews
// always, the wishlist only when the session holds a token. Each branch
// commits its own partition; a failing branch never cancels the others.
func (s *StorefrontService) Mount(ctx context.Context, sessionID string) (*state.Container, []LoadResult, error) {
	current, err := s.Snapshot(ctx, sessionID)
	if err != nil {
		return nil, nil, err
	}

	partitions := []state.Partition{state.PartitionProducts, state.PartitionReviews}
	if current.SignedIn() {
		partitions = append(partitions, state.PartitionWishlist)
	}

	results := make([]LoadResult, len(partitions))
	var g errgroup.Group
	for i, p := range partitions {
		g.Go(func() error {
			results[i] = s.load(ctx, sessionID, p, current.Token)
			return nil
		})
	}
	_ = g.Wait()

	final, err := s.Snapshot(ctx, sessionID)
	if err != nil {
		return nil, results, err
	}
	return final, results, nil
}

// Refresh reloads one partition. Partitions that need a token answer
// Unauthorized for a signed-out session without calling the shop API.
func (s *StorefrontService) Refresh(ctx context.Context, sessionID string, p state.Partition) (*state.Container, LoadResult, error) {
	current, err := s.Snapshot(ctx, sessionID)
	if err != nil {
		return nil, LoadResult{}, err
	}

	if p.RequiresAuth() && !current.SignedIn() {
		res := LoadResult{Resource: p, Outcome: LoadSkipped, Code: "UNAUTHORIZED", Message: "sign in required"}
		return current, res, apperrors.Unauthorized(fmt.Sprintf("sign in to view your %s", p))
	}

	res := s.load(ctx, sessionID, p, current.Token)
	if res.Failed() {
		return current, res, res.Err
	}

	final, err := s.Snapshot(ctx, sessionID)
	if err != nil {
		return nil, res, err
	}
	return final, res, nil
}

// load fetches one partition and commits it. It never returns an error; the
// outcome is carried in the LoadResult.
func (s *StorefrontService) load(ctx context.Context, sessionID string, p state.Partition, token string) LoadResult {
	res := LoadResult{Resource: p}
	log := logger.WithContext(ctx, s.logger).With(slog.String("resource", string(p)))

	apply, count, err := s.fetch(ctx, p, token)
	if err == nil {
		_, err = s.repo.Update(ctx, sessionID, func(c *state.Container) error {
			if p.RequiresAuth() && c.Token != token {
				return errTokenChanged
			}
			apply(c)
			return nil
		})
	}

	switch {
	case err == nil:
		res.Outcome = LoadOK
		res.Count = count
		log.DebugContext(ctx, "partition loaded", slog.Int("count", count))
	case errors.Is(err, errTokenChanged):
		res.Outcome = LoadSkipped
		res.Message = err.Error()
		log.InfoContext(ctx, "partition load discarded", slog.String("reason", err.Error()))
	default:
		res.Outcome = LoadFailed
		res.Err = err
		res.Code, res.Message = describe(err)
		log.WarnContext(ctx, "partition load failed", slog.String("error", err.Error()))
	}

	remoteFetchTotal.WithLabelValues(string(p), string(res.Outcome)).Inc()
	return res
}

// fetch calls the shop API for partition p and returns a reducer that
// replaces the partition with the fetched list.
func (s *StorefrontService) fetch(ctx context.Context, p state.Partition, token string) (func(*state.Container), int, error) {
	switch p {
	case state.PartitionProducts:
		items, err := s.api.Products(ctx)
		if err != nil {
			return nil, 0, err
		}
		return func(c *state.Container) { c.Products = state.SetAll(items) }, len(items), nil

	case state.PartitionReviews:
		items, err := s.api.FeaturedReviews(ctx)
		if err != nil {
			return nil, 0, err
		}
		return func(c *state.Container) { c.Reviews = state.SetAll(items) }, len(items), nil

	case state.PartitionWishlist:
		items, err := s.api.Wishlist(ctx, token)
		if err != nil {
			return nil, 0, err
		}
		items = state.SetUnique(items)
		return func(c *state.Container) { c.Wishlist = items }, len(items), nil

	case state.PartitionOrders:
		items, err := s.api.Orders(ctx, token)
		if err != nil {
			return nil, 0, err
		}
		return func(c *state.Container) { c.Orders = state.SetAll(items) }, len(items), nil

	case state.PartitionCategories:
		items, err := s.api.Categories(ctx)
		if err != nil {
			return nil, 0, err
		}
		return func(c *state.Container) { c.Categories = state.SetAll(items) }, len(items), nil

	case state.PartitionSettings:
		items, err := s.api.Settings(ctx)
		if err != nil {
			return nil, 0, err
		}
		return func(c *state.Container) { c.Settings = state.SetAll(items) }, len(items), nil

	case state.PartitionUser:
		u, err := s.api.User(ctx, token)
		if err != nil {
			return nil, 0, err
		}
		return func(c *state.Container) { c.User = u }, 1, nil

	default:
		return nil, 0, apperrors.InvalidInput(fmt.Sprintf("unknown resource %q", p))
	}
}

// describe extracts a client-safe code and message from err.
func describe(err error) (string, string) {
	var appErr *apperrors.AppError
	if errors.As(err, &appErr) {
		return appErr.Code, appErr.Message
	}
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return "TIMEOUT", "request cancelled before the resource loaded"
	}
	return "INTERNAL_ERROR", "an internal error occurred"
}
