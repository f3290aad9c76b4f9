package http

import (
	"bytes"
	"encoding/json"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"os"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/utafrali/storefront/internal/api"
	"github.com/utafrali/storefront/internal/event"
	"github.com/utafrali/storefront/internal/repository/memory"
	"github.com/utafrali/storefront/internal/service"
	"github.com/utafrali/storefront/internal/view"
	"github.com/utafrali/storefront/pkg/health"
	"github.com/utafrali/storefront/pkg/httpclient"
	"github.com/utafrali/storefront/pkg/middleware"
)

// ============================================================================
// Fake shop API
// ============================================================================

type fakeShop struct {
	mu          sync.Mutex
	wishlist    map[string]bool
	failReviews bool
	requests    []string
}

func newFakeShop() *fakeShop {
	return &fakeShop{wishlist: make(map[string]bool)}
}

func (f *fakeShop) calls() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]string(nil), f.requests...)
}

func (f *fakeShop) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.requests = append(f.requests, r.Method+" "+r.URL.Path)

	authed := r.Header.Get("Authorization") == "Bearer tok"
	w.Header().Set("Content-Type", "application/json")

	switch {
	case r.URL.Path == "/api/products":
		_, _ = w.Write([]byte(`[{"id":1,"name":"Lamp","description":"Warm light","image":"products/lamp.png","price":"19.99"},{"id":2,"name":"Mug","price":4.5}]`))
	case r.URL.Path == "/api/reviews/featured":
		if f.failReviews {
			w.WriteHeader(http.StatusInternalServerError)
			return
		}
		_, _ = w.Write([]byte(`{"data":[{"id":9,"rating":5,"review":"Great","user":{"name":"Ada","location":"London"}}]}`))
	case !authed && (strings.HasPrefix(r.URL.Path, "/api/wishlist") || r.URL.Path == "/api/orders" || r.URL.Path == "/api/user"):
		w.WriteHeader(http.StatusUnauthorized)
		_, _ = w.Write([]byte(`{"message":"Unauthenticated."}`))
	case r.URL.Path == "/api/wishlist":
		items := []map[string]any{}
		for id := range f.wishlist {
			items = append(items, map[string]any{"product_id": id, "id": id})
		}
		_ = json.NewEncoder(w).Encode(items)
	case strings.HasPrefix(r.URL.Path, "/api/wishlist/add/"):
		f.wishlist[strings.TrimPrefix(r.URL.Path, "/api/wishlist/add/")] = true
		_, _ = w.Write([]byte(`{"message":"added"}`))
	case strings.HasPrefix(r.URL.Path, "/api/wishlist/remove/"):
		delete(f.wishlist, strings.TrimPrefix(r.URL.Path, "/api/wishlist/remove/"))
		_, _ = w.Write([]byte(`{"message":"removed"}`))
	case r.URL.Path == "/api/orders":
		_, _ = w.Write([]byte(`[{"id":100,"status":"delivered","total":"24.49","created_at":"2026-09-01"}]`))
	case r.URL.Path == "/api/categories":
		_, _ = w.Write([]byte(`[{"id":1,"name":"Home","slug":"home"}]`))
	case r.URL.Path == "/api/settings":
		_, _ = w.Write([]byte(`[{"id":1,"key":"store_name","value":"E-Shop"}]`))
	case r.URL.Path == "/api/user":
		_, _ = w.Write([]byte(`{"id":5,"name":"Ada","email":"ada@example.com"}`))
	default:
		w.WriteHeader(http.StatusNotFound)
	}
}

// ============================================================================
// Test helpers
// ============================================================================

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelError}))
}

type testEnv struct {
	router http.Handler
	shop   *fakeShop
}

func newTestEnv(t *testing.T, toggleBurst int) *testEnv {
	t.Helper()
	shop := newFakeShop()
	srv := httptest.NewServer(shop)
	t.Cleanup(srv.Close)

	logger := testLogger()
	client := api.NewClient(srv.URL, httpclient.New(httpclient.Config{Timeout: 2 * time.Second, MaxConnsPerHost: 10}), logger)
	svc := service.NewStorefrontService(
		memory.NewSessionRepository(time.Hour),
		memory.NewToggleGuard(),
		client,
		event.Noop{},
		logger,
	)

	router := NewRouter(svc, health.NewHandler(), RouterConfig{
		View:        view.Config{AssetBaseURL: "https://cdn.example.com", Slides: []string{"/images/slide1.jpg"}},
		Session:     SessionConfig{TTL: time.Hour},
		CORS:        middleware.DefaultCORSConfig(),
		ToggleRPS:   100,
		ToggleBurst: toggleBurst,
	}, logger)

	return &testEnv{router: router, shop: shop}
}

type envelope struct {
	Data  json.RawMessage `json:"data"`
	Error *struct {
		Code    string            `json:"code"`
		Message string            `json:"message"`
		Fields  map[string]string `json:"fields"`
	} `json:"error"`
}

// do issues a request carrying sessionID (when non-empty) and decodes the envelope.
func (e *testEnv) do(t *testing.T, method, path, sessionID string, body any) (*httptest.ResponseRecorder, envelope) {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if sessionID != "" {
		req.Header.Set(SessionHeader, sessionID)
	}

	rec := httptest.NewRecorder()
	e.router.ServeHTTP(rec, req)

	var env envelope
	if strings.HasPrefix(rec.Header().Get("Content-Type"), "application/json") {
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &env))
	}
	return rec, env
}

func (e *testEnv) newSession(t *testing.T) string {
	t.Helper()
	rec, _ := e.do(t, http.MethodGet, "/api/storefront/session", "", nil)
	id := rec.Header().Get(SessionHeader)
	require.NotEmpty(t, id)
	return id
}

func (e *testEnv) signIn(t *testing.T, sessionID string) {
	t.Helper()
	rec, _ := e.do(t, http.MethodPost, "/api/storefront/session/token", sessionID, SignInRequest{Token: "tok"})
	require.Equal(t, http.StatusOK, rec.Code)
}

func decodeData[T any](t *testing.T, env envelope) T {
	t.Helper()
	var out T
	require.NoError(t, json.Unmarshal(env.Data, &out))
	return out
}

// ============================================================================
// Tests
// ============================================================================

func TestSession_IssuedWhenMissing(t *testing.T) {
	e := newTestEnv(t, 10)

	rec, env := e.do(t, http.MethodGet, "/api/storefront/session", "", nil)
	require.Equal(t, http.StatusOK, rec.Code)

	id := rec.Header().Get(SessionHeader)
	require.NotEmpty(t, id)
	cookies := rec.Result().Cookies()
	require.Len(t, cookies, 1)
	assert.Equal(t, SessionCookieName, cookies[0].Name)
	assert.Equal(t, id, cookies[0].Value)
	assert.True(t, cookies[0].HttpOnly)
	assert.Equal(t, "private, no-store", rec.Header().Get("Cache-Control"))

	data := decodeData[sessionResponse](t, env)
	assert.Equal(t, id, data.SessionID)
	assert.False(t, data.SignedIn)
}

func TestSession_ReusesValidID(t *testing.T) {
	e := newTestEnv(t, 10)
	id := e.newSession(t)

	rec, _ := e.do(t, http.MethodGet, "/api/storefront/session", id, nil)
	assert.Equal(t, id, rec.Header().Get(SessionHeader))
}

func TestSession_CookieTakesPrecedence(t *testing.T) {
	e := newTestEnv(t, 10)
	cookieID := e.newSession(t)
	headerID := e.newSession(t)

	req := httptest.NewRequest(http.MethodGet, "/api/storefront/session", nil)
	req.AddCookie(&http.Cookie{Name: SessionCookieName, Value: cookieID})
	req.Header.Set(SessionHeader, headerID)
	rec := httptest.NewRecorder()
	e.router.ServeHTTP(rec, req)

	assert.Equal(t, cookieID, rec.Header().Get(SessionHeader))
}

func TestSession_ReplacesMalformedID(t *testing.T) {
	e := newTestEnv(t, 10)

	rec, _ := e.do(t, http.MethodGet, "/api/storefront/session", "storefront:session:evil", nil)
	got := rec.Header().Get(SessionHeader)
	assert.NotEqual(t, "storefront:session:evil", got)
	assert.Len(t, got, 36)
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestHome_SignedOut(t *testing.T) {
	e := newTestEnv(t, 10)
	id := e.newSession(t)

	rec, env := e.do(t, http.MethodGet, "/api/storefront/home", id, nil)
	require.Equal(t, http.StatusOK, rec.Code)

	home := decodeData[view.Home](t, env)
	assert.Equal(t, "Welcome to E-Shop!", home.Hero.Title)
	assert.Equal(t, []string{"/images/slide1.jpg"}, home.Slider.Slides)
	assert.Len(t, home.Features, 3)
	assert.False(t, home.SignedIn)
	assert.Empty(t, home.Notices)

	require.Len(t, home.Products.Items, 2)
	lamp := home.Products.Items[0]
	assert.Equal(t, "https://cdn.example.com/storage/products/lamp.png", lamp.ImageURL)
	assert.Equal(t, "/product/1", lamp.Link)
	assert.Nil(t, lamp.Wishlist)
	assert.Empty(t, home.Products.Items[1].ImageURL)

	require.Len(t, home.Testimonials.Items, 1)
	assert.Equal(t, "★★★★★", home.Testimonials.Items[0].Stars)
	assert.Equal(t, `"Great"`, home.Testimonials.Items[0].Text)

	for _, c := range e.shop.calls() {
		assert.NotEqual(t, "GET /api/wishlist", c, "signed-out mount must not fetch the wishlist")
	}
}

func TestHome_FailedResourceBecomesNotice(t *testing.T) {
	e := newTestEnv(t, 10)
	e.shop.failReviews = true
	id := e.newSession(t)

	rec, env := e.do(t, http.MethodGet, "/api/storefront/home", id, nil)
	require.Equal(t, http.StatusOK, rec.Code)

	home := decodeData[view.Home](t, env)
	assert.Len(t, home.Products.Items, 2)
	assert.Empty(t, home.Testimonials.Items)
	require.Len(t, home.Notices, 1)
	assert.Equal(t, "reviews", home.Notices[0].Resource)
	assert.Equal(t, "BAD_GATEWAY", home.Notices[0].Code)
}

func TestToggle_SignedOutIsUnauthorizedAndSilent(t *testing.T) {
	e := newTestEnv(t, 10)
	id := e.newSession(t)
	e.do(t, http.MethodGet, "/api/storefront/home", id, nil)

	rec, env := e.do(t, http.MethodPost, "/api/storefront/wishlist/1/toggle", id, nil)
	require.Equal(t, http.StatusUnauthorized, rec.Code)
	require.NotNil(t, env.Error)
	assert.Equal(t, "UNAUTHORIZED", env.Error.Code)

	for _, c := range e.shop.calls() {
		assert.False(t, strings.HasPrefix(c, "POST /api/wishlist"), "no mutation request expected, got %s", c)
	}
}

func TestToggle_AddThenRemove(t *testing.T) {
	e := newTestEnv(t, 10)
	id := e.newSession(t)
	e.signIn(t, id)
	e.do(t, http.MethodGet, "/api/storefront/home", id, nil)

	rec, env := e.do(t, http.MethodPost, "/api/storefront/wishlist/1/toggle", id, nil)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	added := decodeData[toggleResponse](t, env)
	assert.Equal(t, "added", added.Action)
	assert.True(t, added.InWishlist)
	assert.Equal(t, "red", added.Affordance.HeartColor)
	assert.Equal(t, "Remove from Wishlist", added.Affordance.Tooltip)

	_, env = e.do(t, http.MethodGet, "/api/storefront/home", id, nil)
	home := decodeData[view.Home](t, env)
	require.NotNil(t, home.Products.Items[0].Wishlist)
	assert.True(t, home.Products.Items[0].Wishlist.InWishlist)
	require.NotNil(t, home.Products.Items[1].Wishlist)
	assert.Equal(t, "black", home.Products.Items[1].Wishlist.HeartColor)

	rec, env = e.do(t, http.MethodPost, "/api/storefront/wishlist/1/toggle", id, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	removed := decodeData[toggleResponse](t, env)
	assert.Equal(t, "removed", removed.Action)
	assert.False(t, removed.InWishlist)
	assert.Equal(t, "Add to Wishlist", removed.Affordance.Tooltip)
	assert.Empty(t, removed.Wishlist)

	assert.Contains(t, e.shop.calls(), "POST /api/wishlist/add/1")
	assert.Contains(t, e.shop.calls(), "DELETE /api/wishlist/remove/1")
}

func TestToggle_UnknownProduct(t *testing.T) {
	e := newTestEnv(t, 10)
	id := e.newSession(t)
	e.signIn(t, id)
	e.do(t, http.MethodGet, "/api/storefront/home", id, nil)

	rec, env := e.do(t, http.MethodPost, "/api/storefront/wishlist/999/toggle", id, nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.Equal(t, "NOT_FOUND", env.Error.Code)
}

func TestToggle_RateLimited(t *testing.T) {
	e := newTestEnv(t, 1)
	id := e.newSession(t)

	rec, _ := e.do(t, http.MethodPost, "/api/storefront/wishlist/1/toggle", id, nil)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	rec, env := e.do(t, http.MethodPost, "/api/storefront/wishlist/1/toggle", id, nil)
	assert.Equal(t, http.StatusTooManyRequests, rec.Code)
	assert.Equal(t, "RATE_LIMITED", env.Error.Code)
	assert.Equal(t, "1", rec.Header().Get("Retry-After"))

	other := e.newSession(t)
	rec, _ = e.do(t, http.MethodPost, "/api/storefront/wishlist/1/toggle", other, nil)
	assert.Equal(t, http.StatusUnauthorized, rec.Code, "limits are per session")
}

func TestPartitions_RequireSignInWhereNeeded(t *testing.T) {
	e := newTestEnv(t, 10)
	id := e.newSession(t)

	for _, path := range []string{"/api/storefront/wishlist", "/api/storefront/orders", "/api/storefront/profile"} {
		rec, env := e.do(t, http.MethodGet, path, id, nil)
		assert.Equal(t, http.StatusUnauthorized, rec.Code, path)
		assert.Equal(t, "UNAUTHORIZED", env.Error.Code, path)
	}

	rec, env := e.do(t, http.MethodGet, "/api/storefront/categories", id, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	data := decodeData[struct {
		Resource string `json:"resource"`
		Items    []struct {
			Slug string `json:"slug"`
		} `json:"items"`
		Result service.LoadResult `json:"result"`
	}](t, env)
	assert.Equal(t, "categories", data.Resource)
	assert.Equal(t, "home", data.Items[0].Slug)
	assert.Equal(t, service.LoadOK, data.Result.Outcome)
}

func TestPartitions_SignedIn(t *testing.T) {
	e := newTestEnv(t, 10)
	id := e.newSession(t)
	e.signIn(t, id)

	rec, env := e.do(t, http.MethodGet, "/api/storefront/orders", id, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, string(env.Data), `"status":"delivered"`)

	rec, env = e.do(t, http.MethodGet, "/api/storefront/profile", id, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, string(env.Data), `"email":"ada@example.com"`)

	rec, env = e.do(t, http.MethodGet, "/api/storefront/settings", id, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, string(env.Data), `"store_name"`)

	rec, _ = e.do(t, http.MethodGet, "/api/storefront/wishlist", id, nil)
	require.Equal(t, http.StatusOK, rec.Code)
}

func TestSignIn_Validation(t *testing.T) {
	e := newTestEnv(t, 10)
	id := e.newSession(t)

	rec, env := e.do(t, http.MethodPost, "/api/storefront/session/token", id, map[string]string{})
	require.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "VALIDATION_ERROR", env.Error.Code)
	assert.Contains(t, env.Error.Fields, "token")
}

func TestSignIn_UnsupportedMediaType(t *testing.T) {
	e := newTestEnv(t, 10)

	req := httptest.NewRequest(http.MethodPost, "/api/storefront/session/token", strings.NewReader("token=tok"))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	rec := httptest.NewRecorder()
	e.router.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusUnsupportedMediaType, rec.Code)
}

func TestSignOut_ResetsPersonalState(t *testing.T) {
	e := newTestEnv(t, 10)
	id := e.newSession(t)
	e.signIn(t, id)

	rec, env := e.do(t, http.MethodDelete, "/api/storefront/session/token", id, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.False(t, decodeData[sessionResponse](t, env).SignedIn)

	_, env = e.do(t, http.MethodGet, "/api/storefront/home", id, nil)
	home := decodeData[view.Home](t, env)
	assert.False(t, home.SignedIn)
	assert.Nil(t, home.Products.Items[0].Wishlist)
}

func TestHealthAndMetrics(t *testing.T) {
	e := newTestEnv(t, 10)

	rec, _ := e.do(t, http.MethodGet, "/health/live", "", nil)
	assert.Equal(t, http.StatusOK, rec.Code)

	rec, _ = e.do(t, http.MethodGet, "/health/ready", "", nil)
	assert.Equal(t, http.StatusOK, rec.Code)

	req := httptest.NewRequest(http.MethodGet, "/metrics", nil)
	mrec := httptest.NewRecorder()
	e.router.ServeHTTP(mrec, req)
	assert.Equal(t, http.StatusOK, mrec.Code)
	assert.Contains(t, mrec.Body.String(), "http_requests_total")
}
