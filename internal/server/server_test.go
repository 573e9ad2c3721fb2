package server_test

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"mime/multipart"
	"net/http"
	"net/http/cookiejar"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"
	"time"

	"github.com/nicholas357/E-commerce-fullstack-2.0-sub002/internal/auth"
	"github.com/nicholas357/E-commerce-fullstack-2.0-sub002/internal/cart"
	"github.com/nicholas357/E-commerce-fullstack-2.0-sub002/internal/health"
	"github.com/nicholas357/E-commerce-fullstack-2.0-sub002/internal/model"
	"github.com/nicholas357/E-commerce-fullstack-2.0-sub002/internal/pkg/clock"
	"github.com/nicholas357/E-commerce-fullstack-2.0-sub002/internal/pkg/testdb"
	"github.com/nicholas357/E-commerce-fullstack-2.0-sub002/internal/repository"
	"github.com/nicholas357/E-commerce-fullstack-2.0-sub002/internal/server"
	"github.com/nicholas357/E-commerce-fullstack-2.0-sub002/internal/service"
	"github.com/nicholas357/E-commerce-fullstack-2.0-sub002/internal/storage"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const (
	gamesCategoryID = "00000000-0000-0000-0000-000000000001"
	adminEmail      = "owner@shop.test"
	anonKey         = "anon-key"
	roleKey         = "role-key"
)

type testEnv struct {
	srv         *httptest.Server
	productRepo repository.ProductRepository
	orderRepo   repository.OrderRepository
}

type envOptions struct {
	anonKey string
}

func newEnv(t *testing.T, opts envOptions) *testEnv {
	t.Helper()

	db := testdb.Open(t)
	logger := slog.New(slog.DiscardHandler)
	clk := clock.New()

	store, err := storage.NewLocalStore(t.TempDir(), "http://shop.test")
	require.NoError(t, err)
	uploader := storage.NewUploader(store)

	productRepo := repository.NewProductRepository(db)
	categoryRepo := repository.NewCategoryRepository(db)
	orderRepo := repository.NewOrderRepository(db)
	libraryRepo := repository.NewLibraryRepository(db)
	addressRepo := repository.NewAddressRepository(db)
	paymentMethodRepo := repository.NewPaymentMethodRepository(db)

	products := service.NewProductService(productRepo, categoryRepo, uploader, logger)
	sessions := auth.NewSessionManager(auth.NewCookieStore("session-secret-for-tests-0123456789", false), clk)

	srv := server.NewServer(server.Dependencies{
		Logger:    logger,
		Store:     store,
		Prober:    health.NewProber(time.Minute, clk, logger, health.DatabaseProbe(db)),
		Sessions:  sessions,
		Snapshots: auth.NewSnapshotter("jwt-secret", 5*time.Minute, clk),
		Jar:       cart.NewJar("cookie-secret-for-tests-0123456789", false),
		AnonKey:   opts.anonKey,
		RoleKey:   roleKey,

		Products:   products,
		Categories: service.NewCategoryService(categoryRepo, productRepo),
		GiftCards:  service.NewGiftCardService(repository.NewGiftCardRepository(db), uploader, logger),
		Banners:    service.NewBannerService(repository.NewBannerRepository(db), uploader, logger),
		Carts:      service.NewCartService(productRepo),
		Checkout:   service.NewCheckoutService(db, nil, productRepo, orderRepo, libraryRepo, addressRepo, paymentMethodRepo, uploader, logger),
		Orders:     service.NewOrderService(db, orderRepo, productRepo, libraryRepo, uploader, logger),
		Users:      service.NewUserService(repository.NewProfileRepository(db), uploader, []string{adminEmail}, logger),
		Accounts:   service.NewAccountService(addressRepo, paymentMethodRepo, nil, logger),
		Reviews:    service.NewReviewService(nil, products),
	})

	ts := httptest.NewServer(srv)
	t.Cleanup(ts.Close)

	return &testEnv{
		srv:         ts,
		productRepo: productRepo,
		orderRepo:   orderRepo,
	}
}

// browser keeps cookies and never follows redirects.
type browser struct {
	t      *testing.T
	env    *testEnv
	client *http.Client
	header http.Header
}

func (e *testEnv) browser(t *testing.T) *browser {
	t.Helper()

	jar, err := cookiejar.New(nil)
	require.NoError(t, err)

	return &browser{
		t:   t,
		env: e,
		client: &http.Client{
			Jar: jar,
			CheckRedirect: func(*http.Request, []*http.Request) error {
				return http.ErrUseLastResponse
			},
		},
		header: http.Header{},
	}
}

func (b *browser) do(method, path, contentType string, body io.Reader) *http.Response {
	b.t.Helper()

	req, err := http.NewRequest(method, b.env.srv.URL+path, body)
	require.NoError(b.t, err)
	if contentType != "" {
		req.Header.Set("Content-Type", contentType)
	}
	for k, v := range b.header {
		req.Header[k] = v
	}

	resp, err := b.client.Do(req)
	require.NoError(b.t, err)
	b.t.Cleanup(func() { resp.Body.Close() })
	return resp
}

func (b *browser) cookies() []*http.Cookie {
	u, err := url.Parse(b.env.srv.URL)
	require.NoError(b.t, err)
	return b.client.Jar.Cookies(u)
}

func (b *browser) get(path string) *http.Response {
	return b.do(http.MethodGet, path, "", nil)
}

func (b *browser) sendJSON(method, path string, payload interface{}) *http.Response {
	b.t.Helper()

	raw, err := json.Marshal(payload)
	require.NoError(b.t, err)
	return b.do(method, path, "application/json", bytes.NewReader(raw))
}

func (b *browser) upload(path, field, filename string, data []byte) *http.Response {
	b.t.Helper()

	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	fw, err := mw.CreateFormFile(field, filename)
	require.NoError(b.t, err)
	_, err = fw.Write(data)
	require.NoError(b.t, err)
	require.NoError(b.t, mw.Close())

	return b.do(http.MethodPost, path, mw.FormDataContentType(), &buf)
}

func (b *browser) signUp(email string) {
	b.t.Helper()

	resp := b.sendJSON(http.MethodPost, "/auth/signup", map[string]string{
		"email":     email,
		"password":  "correct horse",
		"full_name": "Test User",
	})
	require.Equal(b.t, http.StatusCreated, resp.StatusCode)
}

func decode[T any](t *testing.T, resp *http.Response) T {
	t.Helper()

	var v T
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&v))
	return v
}

func readAll(t *testing.T, resp *http.Response) []byte {
	t.Helper()

	data, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	return data
}

func pngOfSize(n int) []byte {
	data := make([]byte, n)
	copy(data, []byte("\x89PNG\r\n\x1a\n"))
	return data
}

func (e *testEnv) product(t *testing.T, name string, stock int) *model.Product {
	t.Helper()

	p := &model.Product{
		ID:         uuid.NewString(),
		Name:       name,
		Slug:       strings.ToLower(strings.ReplaceAll(name, " ", "-")),
		Price:      decimal.RequireFromString("19.99"),
		Currency:   "USD",
		CategoryID: gamesCategoryID,
		Kind:       model.ProductKindGame,
		Stock:      stock,
		IsDigital:  true,
	}
	require.NoError(t, e.productRepo.Create(context.Background(), p))
	return p
}

func TestGuard(t *testing.T) {
	env := newEnv(t, envOptions{})

	t.Run("anonymous caller is sent to login", func(t *testing.T) {
		resp := env.browser(t).get("/api/me")
		require.Equal(t, http.StatusUnauthorized, resp.StatusCode)

		body := decode[map[string]string](t, resp)
		assert.Equal(t, "unauthenticated", body["state"])
		assert.Equal(t, "/auth/login?redirectTo="+url.QueryEscape("/api/me"), body["redirect"])
	})

	t.Run("customer cannot reach admin routes", func(t *testing.T) {
		b := env.browser(t)
		b.signUp("buyer@shop.test")

		assert.Equal(t, http.StatusOK, b.get("/api/me").StatusCode)

		resp := b.get("/api/admin/orders")
		require.Equal(t, http.StatusForbidden, resp.StatusCode)
		assert.Equal(t, "forbidden", decode[map[string]string](t, resp)["state"])
	})

	t.Run("admin email is promoted", func(t *testing.T) {
		b := env.browser(t)
		b.signUp("Owner@Shop.test")

		assert.Equal(t, http.StatusOK, b.get("/api/admin/orders").StatusCode)
	})

	t.Run("signing out ends the session", func(t *testing.T) {
		b := env.browser(t)
		b.signUp("leaver@shop.test")

		resp := b.do(http.MethodPost, "/auth/signout", "", nil)
		require.Equal(t, http.StatusNoContent, resp.StatusCode)

		assert.Equal(t, http.StatusUnauthorized, b.get("/api/me").StatusCode)
	})
}

func TestSessionSnapshotWorksAsBearerToken(t *testing.T) {
	env := newEnv(t, envOptions{})

	anon := decode[map[string]interface{}](t, env.browser(t).get("/api/auth/session"))
	assert.Equal(t, "unauthenticated", anon["state"])
	assert.Nil(t, anon["token"])

	b := env.browser(t)
	b.signUp("api@shop.test")

	resp := b.get("/api/auth/session")
	require.Equal(t, http.StatusOK, resp.StatusCode)
	session := decode[map[string]interface{}](t, resp)
	assert.Equal(t, "authenticated", session["state"])
	token, _ := session["token"].(string)
	require.NotEmpty(t, token)

	apiClient := env.browser(t)
	apiClient.header.Set("Authorization", "Bearer "+token)
	me := apiClient.get("/api/me")
	require.Equal(t, http.StatusOK, me.StatusCode)
	assert.Equal(t, "api@shop.test", decode[map[string]interface{}](t, me)["email"])

	apiClient.header.Set("Authorization", "Bearer "+token+"x")
	assert.Equal(t, http.StatusUnauthorized, apiClient.get("/api/me").StatusCode)
}

func TestLoginLoopBreaker(t *testing.T) {
	env := newEnv(t, envOptions{})
	login := "/auth/login?redirectTo=" + url.QueryEscape("/orders")

	t.Run("third consecutive visit forces navigation", func(t *testing.T) {
		b := env.browser(t)

		for i := 0; i < auth.LoopThreshold-1; i++ {
			resp := b.get(login)
			require.Equal(t, http.StatusOK, resp.StatusCode)
			body := decode[map[string]interface{}](t, resp)
			assert.Equal(t, "unauthenticated", body["state"])
			assert.Equal(t, "/orders", body["redirect_to"])
		}

		resp := b.get(login)
		require.Equal(t, http.StatusOK, resp.StatusCode)
		assert.Contains(t, resp.Header.Get("Content-Type"), "text/html")
		page := string(readAll(t, resp))
		assert.Contains(t, page, "window.location.replace(")
		assert.Contains(t, page, `href="/orders"`)

		// the counter restarts after breaking the loop
		next := b.get(login)
		assert.Contains(t, next.Header.Get("Content-Type"), "application/json")
	})

	t.Run("any other page resets the counter", func(t *testing.T) {
		b := env.browser(t)

		b.get(login)
		b.get(login)
		require.Equal(t, http.StatusOK, b.get("/api/categories").StatusCode)

		resp := b.get(login)
		assert.Contains(t, resp.Header.Get("Content-Type"), "application/json")
	})

	t.Run("a different target starts a new count", func(t *testing.T) {
		b := env.browser(t)

		b.get(login)
		b.get(login)
		resp := b.get("/auth/login?redirectTo=" + url.QueryEscape("/me"))
		assert.Contains(t, resp.Header.Get("Content-Type"), "application/json")
	})

	t.Run("offsite targets are neutralised", func(t *testing.T) {
		resp := env.browser(t).get("/auth/login?redirectTo=" + url.QueryEscape("https://evil.example/x"))
		assert.Equal(t, "/", decode[map[string]interface{}](t, resp)["redirect_to"])
	})

	t.Run("a rejected page keeps the count", func(t *testing.T) {
		b := env.browser(t)

		b.get(login)
		b.get(login)
		require.Equal(t, http.StatusUnauthorized, b.get("/api/me").StatusCode)

		resp := b.get(login)
		assert.Contains(t, resp.Header.Get("Content-Type"), "text/html")
	})

	t.Run("deleted account is not bounced forever", func(t *testing.T) {
		admin := env.browser(t)
		admin.signUp(adminEmail)

		victim := env.browser(t)
		victim.signUp("gone@shop.test")
		me := decode[map[string]interface{}](t, victim.get("/api/me"))
		userID, _ := me["id"].(string)
		require.NotEmpty(t, userID)

		resp := admin.do(http.MethodDelete, "/api/admin/users/"+userID, "", nil)
		require.Equal(t, http.StatusNoContent, resp.StatusCode)

		var forced bool
		for round := 1; round <= auth.LoopThreshold; round++ {
			denied := victim.get("/api/me")
			require.Equal(t, http.StatusUnauthorized, denied.StatusCode, "round %d", round)
			redirect := decode[map[string]string](t, denied)["redirect"]

			resp := victim.get(redirect)
			require.NotEqual(t, http.StatusFound, resp.StatusCode, "round %d", round)
			if strings.Contains(resp.Header.Get("Content-Type"), "text/html") {
				forced = true
				assert.Equal(t, auth.LoopThreshold, round)
				break
			}
			assert.Equal(t, "unauthenticated", decode[map[string]interface{}](t, resp)["state"])
		}
		assert.True(t, forced)
	})

	t.Run("signed in visitor is redirected", func(t *testing.T) {
		b := env.browser(t)
		b.signUp("returning@shop.test")

		resp := b.get(login)
		require.Equal(t, http.StatusFound, resp.StatusCode)
		assert.Equal(t, "/orders", resp.Header.Get("Location"))
	})
}

func TestProductImageIsServedFromPublicURL(t *testing.T) {
	env := newEnv(t, envOptions{})
	p := env.product(t, "Space Game", 3)

	admin := env.browser(t)
	admin.signUp(adminEmail)

	data := pngOfSize(2 << 20)
	resp := admin.upload("/api/admin/products/"+p.ID+"/image", "file", "cover.png", data)
	require.Equal(t, http.StatusOK, resp.StatusCode)

	updated := decode[model.Product](t, resp)
	require.NotEmpty(t, updated.ImageURL)

	u, err := url.Parse(updated.ImageURL)
	require.NoError(t, err)
	require.True(t, strings.HasPrefix(u.Path, "/files/product-images/"))

	img := env.browser(t).get(u.Path)
	require.Equal(t, http.StatusOK, img.StatusCode)
	assert.Equal(t, "image/png", img.Header.Get("Content-Type"))
	assert.Equal(t, data, readAll(t, img))

	t.Run("oversized upload", func(t *testing.T) {
		resp := admin.upload("/api/admin/products/"+p.ID+"/image", "file", "big.png", pngOfSize(6_000_000))
		assert.Equal(t, http.StatusRequestEntityTooLarge, resp.StatusCode)
		assert.NotEmpty(t, decode[map[string]string](t, resp)["error"])
	})

	t.Run("body above the route limit is cut off", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodPost, "/api/admin/products/"+p.ID+"/image", strings.NewReader("--x--"))
		req.Header.Set("Content-Type", "multipart/form-data; boundary=x")
		req.ContentLength = 8 << 20
		for _, ck := range admin.cookies() {
			req.AddCookie(ck)
		}

		rec := httptest.NewRecorder()
		env.srv.Config.Handler.ServeHTTP(rec, req)
		assert.Equal(t, http.StatusRequestEntityTooLarge, rec.Code)
	})

	t.Run("wrong type", func(t *testing.T) {
		resp := admin.upload("/api/admin/products/"+p.ID+"/image", "file", "cover.bmp", []byte("BM\x00\x00"))
		assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	})

	t.Run("private bucket is not served", func(t *testing.T) {
		resp := env.browser(t).get("/files/payment-proofs/orders/x/y.png")
		assert.Equal(t, http.StatusNotFound, resp.StatusCode)
	})
}

func TestCheckoutWithProof(t *testing.T) {
	env := newEnv(t, envOptions{})
	p := env.product(t, "Racing Game", 5)

	b := env.browser(t)
	b.signUp("buyer@shop.test")

	resp := b.sendJSON(http.MethodPost, "/api/cart", map[string]interface{}{"product_id": p.ID, "quantity": 2})
	require.Equal(t, http.StatusOK, resp.StatusCode)

	resp = b.sendJSON(http.MethodPost, "/api/checkout/payment", map[string]string{"method": "bank_transfer"})
	require.Equal(t, http.StatusConflict, resp.StatusCode, "payment before shipping")

	resp = b.sendJSON(http.MethodPost, "/api/checkout/shipping", map[string]string{"full_name": "Ada"})
	require.Equal(t, http.StatusBadRequest, resp.StatusCode)
	assert.Contains(t, decode[map[string]interface{}](t, resp), "fields")

	resp = b.sendJSON(http.MethodPost, "/api/checkout/shipping", map[string]string{
		"full_name": "Ada Lovelace",
		"email":     "ada@shop.test",
		"address":   "1 Analytical St",
		"city":      "London",
		"country":   "UK",
	})
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "payment", decode[map[string]interface{}](t, resp)["step"])

	resp = b.sendJSON(http.MethodPost, "/api/checkout/payment", map[string]string{"method": "bank_transfer"})
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "proof", decode[map[string]interface{}](t, resp)["step"])

	proof := pngOfSize(4096)
	resp = b.upload("/api/checkout/submit", "proof", "receipt.png", proof)
	require.Equal(t, http.StatusCreated, resp.StatusCode)

	var result struct {
		Order         model.Order `json:"order"`
		ProofUploaded bool        `json:"proof_uploaded"`
	}
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&result))
	assert.True(t, result.ProofUploaded)
	assert.Equal(t, model.OrderStatusPendingVerification, result.Order.Status)
	assert.True(t, result.Order.HasProof)

	stored, err := env.productRepo.FindByID(context.Background(), p.ID)
	require.NoError(t, err)
	assert.Equal(t, 3, stored.Stock)

	cartView := decode[map[string]interface{}](t, b.get("/api/cart"))
	assert.Empty(t, cartView["lines"])
	assert.Equal(t, "shipping", decode[map[string]interface{}](t, b.get("/api/checkout"))["step"])

	proofPath := "/api/orders/" + result.Order.ID + "/proof"

	own := b.get(proofPath)
	require.Equal(t, http.StatusOK, own.StatusCode)
	assert.Equal(t, proof, readAll(t, own))

	stranger := env.browser(t)
	stranger.signUp("other@shop.test")
	assert.Equal(t, http.StatusNotFound, stranger.get(proofPath).StatusCode)

	admin := env.browser(t)
	admin.signUp(adminEmail)
	assert.Equal(t, http.StatusOK, admin.get("/api/admin/orders/"+result.Order.ID+"/proof").StatusCode)

	resp = admin.sendJSON(http.MethodPatch, "/api/admin/orders/"+result.Order.ID+"/status", map[string]string{"status": "fulfilled"})
	assert.Equal(t, http.StatusConflict, resp.StatusCode)

	resp = admin.sendJSON(http.MethodPatch, "/api/admin/orders/"+result.Order.ID+"/status", map[string]string{"status": "paid"})
	require.Equal(t, http.StatusOK, resp.StatusCode)

	library := decode[[]model.LibraryItem](t, b.get("/api/me/library"))
	require.Len(t, library, 1)
	assert.Equal(t, p.ID, library[0].ProductID)
	assert.Equal(t, 2, library[0].Quantity)
}

func TestWishlistNotice(t *testing.T) {
	env := newEnv(t, envOptions{})
	p := env.product(t, "Puzzle Game", 1)
	b := env.browser(t)

	first := decode[map[string]interface{}](t, b.sendJSON(http.MethodPost, "/api/wishlist", map[string]string{"product_id": p.ID}))
	assert.Equal(t, cart.NoticeAddedToWishlist, first["notice"])

	again := decode[map[string]interface{}](t, b.sendJSON(http.MethodPost, "/api/wishlist", map[string]string{"product_id": p.ID}))
	assert.Equal(t, cart.NoticeAlreadyInWishlist, again["notice"])
	assert.Len(t, again["items"], 1)
}

func TestAPIKeyAndErrors(t *testing.T) {
	env := newEnv(t, envOptions{anonKey: anonKey})
	b := env.browser(t)

	assert.Equal(t, http.StatusUnauthorized, b.get("/api/products").StatusCode)
	assert.Equal(t, http.StatusOK, b.get("/api/health").StatusCode)

	b.header.Set("apikey", anonKey)
	assert.Equal(t, http.StatusOK, b.get("/api/products").StatusCode)

	resp := b.get("/api/products/does-not-exist")
	require.Equal(t, http.StatusNotFound, resp.StatusCode)
	assert.NotEmpty(t, decode[map[string]string](t, resp)["error"])

	t.Run("profiles need the service role", func(t *testing.T) {
		payload := map[string]string{"id": uuid.NewString(), "email": "provisioned@shop.test"}

		resp := b.sendJSON(http.MethodPost, "/api/profiles", payload)
		assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)

		svc := env.browser(t)
		svc.header.Set("apikey", roleKey)
		svc.header.Set("Authorization", "Bearer "+roleKey)
		resp = svc.sendJSON(http.MethodPost, "/api/profiles", payload)
		require.Equal(t, http.StatusOK, resp.StatusCode)

		resp = svc.sendJSON(http.MethodPost, "/api/profiles", payload)
		assert.Equal(t, http.StatusOK, resp.StatusCode, "idempotent by email")
	})

	t.Run("reviews without a document store", func(t *testing.T) {
		resp := b.get("/api/products/" + uuid.NewString() + "/reviews")
		assert.Equal(t, http.StatusServiceUnavailable, resp.StatusCode)
	})
}
