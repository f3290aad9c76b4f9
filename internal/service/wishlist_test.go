package service

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/utafrali/storefront/internal/domain"
	"github.com/utafrali/storefront/internal/event"
	"github.com/utafrali/storefront/internal/state"
	apperrors "github.com/utafrali/storefront/pkg/errors"
)

func signedInWithCatalog(t *testing.T, f *fixture, sessionID string) {
	t.Helper()
	f.seed(t, sessionID, func(c *state.Container) {
		c.Token = "tok"
		c.Products = products("1", "2", "3")
	})
}

func TestToggleWishlist_AddsWhenAbsent(t *testing.T) {
	f := newFixture(t)
	signedInWithCatalog(t, f, "s1")

	f.api.On("AddToWishlist", mock.Anything, "tok", "2").Return(nil).Once()
	f.pub.On("PublishWishlistToggled", mock.Anything, event.WishlistToggledData{
		SessionID: "s1", ProductID: "2", Action: event.ActionAdded,
	}).Return(nil).Once()

	res, err := f.svc.ToggleWishlist(context.Background(), "s1", "2")
	require.NoError(t, err)

	assert.Equal(t, event.ActionAdded, res.Action)
	assert.True(t, res.InWishlist)
	require.Len(t, res.Wishlist, 1)
	assert.Equal(t, domain.ID("2"), res.Wishlist[0].ProductID)
	assert.Equal(t, "Product 2", res.Wishlist[0].Name, "entry carries denormalized product fields")

	f.api.AssertExpectations(t)
	f.pub.AssertExpectations(t)
}

func TestToggleWishlist_RemovesWhenPresent(t *testing.T) {
	f := newFixture(t)
	signedInWithCatalog(t, f, "s1")
	f.seed(t, "s1", func(c *state.Container) {
		c.Wishlist = []domain.WishlistItem{domain.NewWishlistItem(products("3")[0])}
	})

	f.api.On("RemoveFromWishlist", mock.Anything, "tok", "3").Return(nil).Once()
	f.pub.On("PublishWishlistToggled", mock.Anything, mock.Anything).Return(nil)

	res, err := f.svc.ToggleWishlist(context.Background(), "s1", "3")
	require.NoError(t, err)

	assert.Equal(t, event.ActionRemoved, res.Action)
	assert.False(t, res.InWishlist)
	assert.Empty(t, res.Wishlist)
	f.api.AssertNotCalled(t, "AddToWishlist", mock.Anything, mock.Anything, mock.Anything)
}

func TestToggleWishlist_TwiceReturnsToAbsent(t *testing.T) {
	f := newFixture(t)
	signedInWithCatalog(t, f, "s1")
	ctx := context.Background()

	f.api.On("AddToWishlist", mock.Anything, "tok", "1").Return(nil).Once()
	f.api.On("RemoveFromWishlist", mock.Anything, "tok", "1").Return(nil).Once()
	f.pub.On("PublishWishlistToggled", mock.Anything, mock.Anything).Return(nil)

	_, err := f.svc.ToggleWishlist(ctx, "s1", "1")
	require.NoError(t, err)
	res, err := f.svc.ToggleWishlist(ctx, "s1", "1")
	require.NoError(t, err)

	assert.False(t, res.InWishlist)
	c, _ := f.svc.Snapshot(ctx, "s1")
	assert.False(t, c.IsInWishlist("1"))
	assert.Empty(t, c.Wishlist)
	f.api.AssertExpectations(t)
}

func TestToggleWishlist_NoTokenIssuesNoRequest(t *testing.T) {
	f := newFixture(t)
	f.seed(t, "s1", func(c *state.Container) { c.Products = products("1") })
	ctx := context.Background()

	before, _ := f.svc.Snapshot(ctx, "s1")

	_, err := f.svc.ToggleWishlist(ctx, "s1", "1")
	require.Error(t, err)
	assert.ErrorIs(t, err, apperrors.ErrUnauthorized)

	after, _ := f.svc.Snapshot(ctx, "s1")
	assert.Equal(t, before.Wishlist, after.Wishlist)
	assert.Equal(t, before.UpdatedAt, after.UpdatedAt, "no commit happened")
	f.api.AssertNotCalled(t, "AddToWishlist", mock.Anything, mock.Anything, mock.Anything)
	f.api.AssertNotCalled(t, "RemoveFromWishlist", mock.Anything, mock.Anything, mock.Anything)
	f.pub.AssertNotCalled(t, "PublishWishlistToggled", mock.Anything, mock.Anything)
}

func TestToggleWishlist_UnknownProduct(t *testing.T) {
	f := newFixture(t)
	signedInWithCatalog(t, f, "s1")

	_, err := f.svc.ToggleWishlist(context.Background(), "s1", "404")
	require.Error(t, err)
	assert.ErrorIs(t, err, apperrors.ErrNotFound)
	f.api.AssertNotCalled(t, "AddToWishlist", mock.Anything, mock.Anything, mock.Anything)
}

func TestToggleWishlist_EmptyProductID(t *testing.T) {
	f := newFixture(t)

	_, err := f.svc.ToggleWishlist(context.Background(), "s1", "")
	assert.ErrorIs(t, err, apperrors.ErrInvalidInput)
}

func TestToggleWishlist_InFlightGuardRejectsDuplicate(t *testing.T) {
	f := newFixture(t)
	signedInWithCatalog(t, f, "s1")
	ctx := context.Background()

	entered := make(chan struct{})
	unblock := make(chan struct{})
	f.api.On("AddToWishlist", mock.Anything, "tok", "1").
		Run(func(mock.Arguments) {
			close(entered)
			<-unblock
		}).
		Return(nil).Once()
	f.pub.On("PublishWishlistToggled", mock.Anything, mock.Anything).Return(nil)

	var wg sync.WaitGroup
	var firstErr error
	wg.Add(1)
	go func() {
		defer wg.Done()
		_, firstErr = f.svc.ToggleWishlist(ctx, "s1", "1")
	}()

	<-entered
	_, err := f.svc.ToggleWishlist(ctx, "s1", "1")
	require.Error(t, err)
	assert.ErrorIs(t, err, apperrors.ErrConflict)

	close(unblock)
	wg.Wait()
	require.NoError(t, firstErr)

	f.api.AssertNumberOfCalls(t, "AddToWishlist", 1)
	f.api.AssertNotCalled(t, "RemoveFromWishlist", mock.Anything, mock.Anything, mock.Anything)

	c, _ := f.svc.Snapshot(ctx, "s1")
	assert.True(t, c.IsInWishlist("1"))
}

func TestToggleWishlist_GuardReleasedAfterFailure(t *testing.T) {
	f := newFixture(t)
	signedInWithCatalog(t, f, "s1")

	f.api.On("AddToWishlist", mock.Anything, "tok", "1").Return(apperrors.BadGateway("shop-api", errors.New("eof")))
	f.api.On("Wishlist", mock.Anything, "tok").Return([]domain.WishlistItem{}, nil)

	_, err := f.svc.ToggleWishlist(context.Background(), "s1", "1")
	require.Error(t, err)

	release, ok, err := f.guard.Acquire(context.Background(), "s1", "1")
	require.NoError(t, err)
	assert.True(t, ok)
	release()
}

func TestToggleWishlist_FailureReloadsWishlist(t *testing.T) {
	f := newFixture(t)
	signedInWithCatalog(t, f, "s1")
	ctx := context.Background()

	// The server already holds product 1 even though the local copy does not.
	serverCopy := []domain.WishlistItem{domain.NewWishlistItem(products("1")[0])}
	f.api.On("AddToWishlist", mock.Anything, "tok", "1").Return(apperrors.Conflict("shop-api: already in wishlist"))
	f.api.On("Wishlist", mock.Anything, "tok").Return(serverCopy, nil).Once()

	_, err := f.svc.ToggleWishlist(ctx, "s1", "1")
	require.Error(t, err)
	assert.ErrorIs(t, err, apperrors.ErrConflict)

	c, _ := f.svc.Snapshot(ctx, "s1")
	assert.Equal(t, serverCopy, c.Wishlist)
	f.api.AssertExpectations(t)
	f.pub.AssertNotCalled(t, "PublishWishlistToggled", mock.Anything, mock.Anything)
}

func TestToggleWishlist_FailedReloadKeepsLocalState(t *testing.T) {
	f := newFixture(t)
	signedInWithCatalog(t, f, "s1")
	f.seed(t, "s1", func(c *state.Container) {
		c.Wishlist = []domain.WishlistItem{domain.NewWishlistItem(products("2")[0])}
	})
	ctx := context.Background()

	f.api.On("RemoveFromWishlist", mock.Anything, "tok", "2").Return(apperrors.BadGateway("shop-api", errors.New("reset")))
	f.api.On("Wishlist", mock.Anything, "tok").Return(nil, apperrors.BadGateway("shop-api", errors.New("reset")))

	_, err := f.svc.ToggleWishlist(ctx, "s1", "2")
	require.Error(t, err)
	assert.ErrorIs(t, err, apperrors.ErrBadGateway)

	c, _ := f.svc.Snapshot(ctx, "s1")
	assert.True(t, c.IsInWishlist("2"))
}

func TestToggleWishlist_PublishFailureDoesNotFailToggle(t *testing.T) {
	f := newFixture(t)
	signedInWithCatalog(t, f, "s1")

	f.api.On("AddToWishlist", mock.Anything, "tok", "1").Return(nil)
	f.pub.On("PublishWishlistToggled", mock.Anything, mock.Anything).Return(errors.New("broker down"))

	res, err := f.svc.ToggleWishlist(context.Background(), "s1", "1")
	require.NoError(t, err)
	assert.True(t, res.InWishlist)
}
