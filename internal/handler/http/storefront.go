package http

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/utafrali/storefront/internal/auth"
	"github.com/utafrali/storefront/internal/service"
	"github.com/utafrali/storefront/internal/state"
	"github.com/utafrali/storefront/internal/view"
	"github.com/utafrali/storefront/pkg/httputil"
	"github.com/utafrali/storefront/pkg/validator"
)

// StorefrontHandler handles HTTP requests for storefront endpoints.
type StorefrontHandler struct {
	service *service.StorefrontService
	view    view.Config
	logger  *slog.Logger
}

// NewStorefrontHandler creates a new storefront HTTP handler.
func NewStorefrontHandler(svc *service.StorefrontService, viewCfg view.Config, logger *slog.Logger) *StorefrontHandler {
	return &StorefrontHandler{
		service: svc,
		view:    viewCfg,
		logger:  logger,
	}
}

// --- Request / response DTOs ---

// SignInRequest is the JSON request body for storing a shopper token.
type SignInRequest struct {
	Token string `json:"token" validate:"required,notblank,max=4096"`
}

type sessionResponse struct {
	SessionID string `json:"session_id"`
	SignedIn  bool   `json:"signed_in"`
	UserID    string `json:"user_id,omitempty"`
}

type partitionResponse struct {
	Resource state.Partition    `json:"resource"`
	Items    any                `json:"items"`
	Result   service.LoadResult `json:"result"`
}

type toggleResponse struct {
	*service.ToggleResult
	Affordance *view.Affordance `json:"affordance"`
}

// --- Handlers ---

// Home handles GET /api/storefront/home. The products, featured reviews and
// (when signed in) wishlist loads run concurrently; failed loads are listed
// as notices and the previous partitions are served.
func (h *StorefrontHandler) Home(w http.ResponseWriter, r *http.Request) {
	c, results, err := h.service.Mount(r.Context(), sessionIDFromRequest(r))
	if err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}

	var notices []view.Notice
	for _, res := range results {
		if res.Failed() {
			notices = append(notices, view.Notice{
				Resource: string(res.Resource),
				Code:     res.Code,
				Message:  res.Message,
			})
		}
	}

	httputil.WriteData(w, http.StatusOK, view.BuildHome(h.view, c, notices))
}

// ToggleWishlist handles POST /api/storefront/wishlist/{productId}/toggle.
func (h *StorefrontHandler) ToggleWishlist(w http.ResponseWriter, r *http.Request) {
	productID := chi.URLParam(r, "productId")

	res, err := h.service.ToggleWishlist(r.Context(), sessionIDFromRequest(r), productID)
	if err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}

	httputil.WriteData(w, http.StatusOK, toggleResponse{
		ToggleResult: res,
		Affordance:   view.WishlistAffordance(res.InWishlist),
	})
}

// Wishlist handles GET /api/storefront/wishlist.
func (h *StorefrontHandler) Wishlist(w http.ResponseWriter, r *http.Request) {
	h.refresh(w, r, state.PartitionWishlist, func(c *state.Container) any { return c.Wishlist })
}

// Orders handles GET /api/storefront/orders.
func (h *StorefrontHandler) Orders(w http.ResponseWriter, r *http.Request) {
	h.refresh(w, r, state.PartitionOrders, func(c *state.Container) any { return c.Orders })
}

// Categories handles GET /api/storefront/categories.
func (h *StorefrontHandler) Categories(w http.ResponseWriter, r *http.Request) {
	h.refresh(w, r, state.PartitionCategories, func(c *state.Container) any { return c.Categories })
}

// Settings handles GET /api/storefront/settings.
func (h *StorefrontHandler) Settings(w http.ResponseWriter, r *http.Request) {
	h.refresh(w, r, state.PartitionSettings, func(c *state.Container) any { return c.Settings })
}

// Profile handles GET /api/storefront/profile.
func (h *StorefrontHandler) Profile(w http.ResponseWriter, r *http.Request) {
	h.refresh(w, r, state.PartitionUser, func(c *state.Container) any { return c.User })
}

func (h *StorefrontHandler) refresh(w http.ResponseWriter, r *http.Request, p state.Partition, pick func(*state.Container) any) {
	c, res, err := h.service.Refresh(r.Context(), sessionIDFromRequest(r), p)
	if err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}
	httputil.WriteData(w, http.StatusOK, partitionResponse{Resource: p, Items: pick(c), Result: res})
}

// Session handles GET /api/storefront/session.
func (h *StorefrontHandler) Session(w http.ResponseWriter, r *http.Request) {
	sessionID := sessionIDFromRequest(r)
	c, err := h.service.Snapshot(r.Context(), sessionID)
	if err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}
	httputil.WriteData(w, http.StatusOK, newSessionResponse(sessionID, c))
}

// SignIn handles POST /api/storefront/session/token.
func (h *StorefrontHandler) SignIn(w http.ResponseWriter, r *http.Request) {
	var req SignInRequest
	if err := validator.DecodeAndValidate(r, &req); err != nil {
		httputil.WriteValidationError(w, err)
		return
	}

	sessionID := sessionIDFromRequest(r)
	c, err := h.service.SignIn(r.Context(), sessionID, req.Token)
	if err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}
	httputil.WriteData(w, http.StatusOK, newSessionResponse(sessionID, c))
}

// SignOut handles DELETE /api/storefront/session/token.
func (h *StorefrontHandler) SignOut(w http.ResponseWriter, r *http.Request) {
	sessionID := sessionIDFromRequest(r)
	c, err := h.service.SignOut(r.Context(), sessionID)
	if err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}
	httputil.WriteData(w, http.StatusOK, newSessionResponse(sessionID, c))
}

func newSessionResponse(sessionID string, c *state.Container) sessionResponse {
	return sessionResponse{
		SessionID: sessionID,
		SignedIn:  c.SignedIn(),
		UserID:    auth.UserIDFromToken(c.Token),
	}
}
