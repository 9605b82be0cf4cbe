package api

import (
	"bytes"
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	_ "modernc.org/sqlite"

	"github.com/creamcroissant/shopboard/internal/auth/token"
	"github.com/creamcroissant/shopboard/internal/authz"
	"github.com/creamcroissant/shopboard/internal/cache"
	"github.com/creamcroissant/shopboard/internal/config"
	"github.com/creamcroissant/shopboard/internal/migrations"
	"github.com/creamcroissant/shopboard/internal/notifier"
	"github.com/creamcroissant/shopboard/internal/payment"
	"github.com/creamcroissant/shopboard/internal/repository"
	"github.com/creamcroissant/shopboard/internal/repository/sqlite"
	"github.com/creamcroissant/shopboard/internal/security"
	"github.com/creamcroissant/shopboard/internal/service"
	"github.com/creamcroissant/shopboard/internal/storage"
	"github.com/creamcroissant/shopboard/internal/support/hash"
	"github.com/creamcroissant/shopboard/internal/support/i18n"
	"github.com/creamcroissant/shopboard/internal/support/logging"
)

var routerDBSeq atomic.Int64

var pngHeader = []byte{0x89, 'P', 'N', 'G', '\r', '\n', 0x1a, '\n', 0, 0, 0, 0x0d, 'I', 'H', 'D', 'R'}

type apiFixture struct {
	t      *testing.T
	store  repository.Store
	hasher hash.Hasher
	router http.Handler
}

func newAPIFixture(t *testing.T) *apiFixture {
	t.Helper()
	dsn := fmt.Sprintf("file:api_test_%d?mode=memory&cache=shared&_pragma=foreign_keys(1)", routerDBSeq.Add(1))
	db, err := sql.Open("sqlite", dsn)
	require.NoError(t, err)
	db.SetMaxOpenConns(1)
	t.Cleanup(func() { db.Close() })
	require.NoError(t, migrations.Up(db))
	store := sqlite.NewStore(db)

	cfg := &config.Config{
		HTTP:      config.HTTPConfig{MaxBodyBytes: 1 << 20},
		Metrics:   config.MetricsConfig{Enabled: true, Token: "metrics-token"},
		Storage:   config.StorageConfig{MaxSize: 1 << 20},
		RateLimit: config.RateLimitConfig{RequestsPerIP: 1000},
		CORS:      config.CORSConfig{AllowedOrigins: []string{"http://localhost:5173"}},
	}
	rules := service.PricingRules{TaxRate: 10, DefaultMargin: 20, Currency: "USD", ShippingFeeCents: 500, FreeShippingThreshold: 10000}

	logger := logging.Discard()
	cacheStore := cache.NewStore(cache.Options{DefaultTTL: time.Minute})
	hasher, err := hash.NewBcryptHasher(4)
	require.NoError(t, err)
	mgr, err := token.NewManager(token.Options{SigningKey: []byte("router-test-signing-key-0123"), Issuer: "shopboard"})
	require.NoError(t, err)
	limiter, err := security.NewRateLimiter(cacheStore)
	require.NoError(t, err)
	gateway, err := payment.NewManualGateway(cacheStore, time.Hour)
	require.NoError(t, err)
	authorizer, err := authz.New()
	require.NoError(t, err)
	i18nMgr, err := i18n.NewManager()
	require.NoError(t, err)
	uploadDir := t.TempDir()
	uploader, err := storage.NewLocalUploader(uploadDir, "/uploads")
	require.NoError(t, err)
	notify := notifier.NewLoggerService(logger)

	deps := service.OrderDeps{
		Store:        store,
		Gateway:      gateway,
		Notifier:     notify,
		Cache:        cacheStore,
		Logger:       logger,
		Rules:        rules,
		CancelWindow: 12 * time.Hour,
		PendingTTL:   24 * time.Hour,
	}
	categories := service.NewCategoryService(store)
	products := service.NewProductService(store, cacheStore, rules, nil)
	cart := service.NewCartService(store, rules)
	services := Services{
		Auth:          service.NewAuthService(store, hasher, mgr, limiter, nil, service.AuthOptions{LoginAttempts: 5, LoginWindow: time.Minute}),
		Register:      service.NewRegistrationService(store, hasher, limiter),
		User:          service.NewUserService(store, hasher, nil),
		AdminUser:     service.NewAdminUserService(store, hasher, nil),
		Category:      categories,
		Product:       products,
		Address:       service.NewAddressService(store),
		Cart:          cart,
		Wishlist:      service.NewWishlistService(store, cart),
		Checkout:      service.NewCheckoutService(deps),
		Order:         service.NewOrderService(deps),
		Tracking:      service.NewTrackingService(deps),
		Upload:        service.NewUploadService(uploader, 1<<20, logger),
		Dashboard:     service.NewDashboardService(store, cacheStore, rules, 5),
		AdminSettings: service.NewAdminSettingsService(store, notify, nil),
		Authorizer:    authorizer,
		RateLimiter:   limiter,
		I18n:          i18nMgr,
	}
	router := NewRouter(logger, services, cfg,
		WithLocalUploads(uploadDir, "/uploads"),
		WithMetricsRegistry(prometheus.NewRegistry()),
	)
	return &apiFixture{t: t, store: store, hasher: hasher, router: router}
}

func (f *apiFixture) do(method, path, bearer string, body any, headers ...string) *httptest.ResponseRecorder {
	f.t.Helper()
	var reader io.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		require.NoError(f.t, err)
		reader = bytes.NewReader(raw)
	}
	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")
	if bearer != "" {
		req.Header.Set("Authorization", "Bearer "+bearer)
	}
	for i := 0; i+1 < len(headers); i += 2 {
		req.Header.Set(headers[i], headers[i+1])
	}
	rec := httptest.NewRecorder()
	f.router.ServeHTTP(rec, req)
	return rec
}

// seedUser 直接写库创建指定角色的账号并登录，返回 access token。
func (f *apiFixture) seedUser(email, role string) string {
	f.t.Helper()
	hashed, err := f.hasher.Hash("secret123")
	require.NoError(f.t, err)
	_, err = f.store.Users().Create(context.Background(), &repository.User{Email: email, Password: hashed, Name: role, Role: role})
	require.NoError(f.t, err)
	return f.login(email, "secret123")
}

func (f *apiFixture) login(email, password string) string {
	f.t.Helper()
	rec := f.do(http.MethodPost, "/api/v1/passport/auth/login", "", map[string]string{"email": email, "password": password})
	require.Equal(f.t, http.StatusOK, rec.Code, rec.Body.String())
	var resp struct {
		Data service.LoginResult `json:"data"`
	}
	decode(f.t, rec, &resp)
	return resp.Data.Token
}

func decode(t *testing.T, rec *httptest.ResponseRecorder, v any) {
	t.Helper()
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), v), rec.Body.String())
}

func dataID(t *testing.T, rec *httptest.ResponseRecorder) int64 {
	t.Helper()
	var resp struct {
		Data struct {
			ID int64 `json:"id"`
		} `json:"data"`
	}
	decode(t, rec, &resp)
	require.NotZero(t, resp.Data.ID, rec.Body.String())
	return resp.Data.ID
}

func TestHealthAndMetrics(t *testing.T) {
	f := newAPIFixture(t)

	testCases := map[string]struct {
		path   string
		bearer string
		want   int
	}{
		"healthz":               {path: "/healthz", want: http.StatusOK},
		"health alias":          {path: "/health", want: http.StatusOK},
		"ready":                 {path: "/_internal/ready", want: http.StatusOK},
		"metrics without token": {path: "/metrics", want: http.StatusUnauthorized},
		"metrics with token":    {path: "/metrics", bearer: "metrics-token", want: http.StatusOK},
		"unknown route":         {path: "/api/v1/nope", want: http.StatusNotFound},
	}
	for name, tc := range testCases {
		t.Run(name, func(t *testing.T) {
			rec := f.do(http.MethodGet, tc.path, tc.bearer, nil)
			assert.Equal(t, tc.want, rec.Code)
		})
	}

	require.Equal(t, http.StatusOK, f.do(http.MethodGet, "/api/v1/guest/categories", "", nil).Code)
	rec := f.do(http.MethodGet, "/metrics", "metrics-token", nil)
	body := rec.Body.String()
	assert.Contains(t, body, `path="/api/v1/guest/categories"`)
	assert.Contains(t, body, `area="guest"`)
	assert.NotContains(t, body, `path="/healthz"`)
}

func TestPassportAndProfile(t *testing.T) {
	f := newAPIFixture(t)

	rec := f.do(http.MethodPost, "/api/v1/passport/auth/register", "", map[string]string{"email": "ada@example.com", "password": "secret123", "name": "Ada"})
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	var reg struct {
		Data service.LoginResult `json:"data"`
	}
	decode(t, rec, &reg)
	require.NotEmpty(t, reg.Data.Token)
	require.NotEmpty(t, reg.Data.RefreshToken)

	rec = f.do(http.MethodPost, "/api/v1/passport/auth/register", "", map[string]string{"email": "ada@example.com", "password": "secret123"})
	assert.Equal(t, http.StatusConflict, rec.Code)

	rec = f.do(http.MethodPost, "/api/v1/passport/auth/login", "", map[string]string{"email": "ada@example.com", "password": "wrong-pass1"})
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	rec = f.do(http.MethodGet, "/api/v1/user/info", "", nil)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	rec = f.do(http.MethodGet, "/api/v1/user/info", reg.Data.Token, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	var info struct {
		Data repository.User `json:"data"`
	}
	decode(t, rec, &info)
	assert.Equal(t, "ada@example.com", info.Data.Email)
	assert.Equal(t, repository.RoleCustomer, info.Data.Role)

	rec = f.do(http.MethodPost, "/api/v1/user/update", reg.Data.Token, map[string]string{"phone": "+44 20 7946 0000"})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	rec = f.do(http.MethodPost, "/api/v1/passport/auth/refresh", "", map[string]string{"refresh_token": reg.Data.RefreshToken})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	var refreshed struct {
		Data service.LoginResult `json:"data"`
	}
	decode(t, rec, &refreshed)

	// 旧的刷新令牌已轮换失效
	rec = f.do(http.MethodPost, "/api/v1/passport/auth/refresh", "", map[string]string{"refresh_token": reg.Data.RefreshToken})
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	rec = f.do(http.MethodPost, "/api/v1/user/logout", refreshed.Data.Token, map[string]string{"refresh_token": refreshed.Data.RefreshToken})
	require.Equal(t, http.StatusOK, rec.Code)
	rec = f.do(http.MethodPost, "/api/v1/passport/auth/refresh", "", map[string]string{"refresh_token": refreshed.Data.RefreshToken})
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestAdminAuthorization(t *testing.T) {
	f := newAPIFixture(t)
	customer := f.seedUser("cust@example.com", repository.RoleCustomer)
	staff := f.seedUser("staff@example.com", repository.RoleStaff)
	admin := f.seedUser("admin@example.com", repository.RoleAdmin)
	// 独立的封禁目标，id 为 4
	f.seedUser("target@example.com", repository.RoleCustomer)

	testCases := map[string]struct {
		bearer string
		method string
		path   string
		want   int
	}{
		"anonymous dashboard":        {method: http.MethodGet, path: "/api/v1/admin/dashboard", want: http.StatusUnauthorized},
		"customer dashboard":         {bearer: customer, method: http.MethodGet, path: "/api/v1/admin/dashboard", want: http.StatusForbidden},
		"staff dashboard":            {bearer: staff, method: http.MethodGet, path: "/api/v1/admin/dashboard", want: http.StatusOK},
		"staff lists users":          {bearer: staff, method: http.MethodGet, path: "/api/v1/admin/users", want: http.StatusOK},
		"staff cannot ban":           {bearer: staff, method: http.MethodPost, path: "/api/v1/admin/users/4/ban", want: http.StatusForbidden},
		"staff cannot read settings": {bearer: staff, method: http.MethodGet, path: "/api/v1/admin/system/settings", want: http.StatusForbidden},
		"admin reads settings":       {bearer: admin, method: http.MethodGet, path: "/api/v1/admin/system/settings", want: http.StatusOK},
		"admin bans customer":        {bearer: admin, method: http.MethodPost, path: "/api/v1/admin/users/4/ban", want: http.StatusOK},
	}
	for name, tc := range testCases {
		t.Run(name, func(t *testing.T) {
			rec := f.do(tc.method, tc.path, tc.bearer, map[string]any{})
			assert.Equal(t, tc.want, rec.Code, rec.Body.String())
		})
	}
}

func TestCatalogEndpoints(t *testing.T) {
	f := newAPIFixture(t)
	staff := f.seedUser("staff@example.com", repository.RoleStaff)

	rec := f.do(http.MethodPost, "/api/v1/admin/categories", staff, map[string]any{"name": "Kitchen", "description": "<b>Pots</b><script>x</script>"})
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	categoryID := dataID(t, rec)

	rec = f.do(http.MethodPost, "/api/v1/admin/products", staff, map[string]any{
		"name":         "Mug",
		"cost":         1000,
		"discount":     50,
		"stock":        3,
		"category_ids": []int64{categoryID},
	})
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	var created struct {
		Data repository.Product `json:"data"`
	}
	decode(t, rec, &created)
	assert.Equal(t, int64(1320), created.Data.PriceCents)
	assert.Equal(t, int64(1100), created.Data.SalePriceCents)

	rec = f.do(http.MethodPost, "/api/v1/admin/products", staff, map[string]any{"name": "Free", "cost": 0})
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = f.do(http.MethodGet, "/api/v1/guest/categories", "", nil)
	require.Equal(t, http.StatusOK, rec.Code)

	rec = f.do(http.MethodGet, fmt.Sprintf("/api/v1/guest/products?category=%d&min_price=10.00&max_price=12", categoryID), "", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	var list struct {
		Data  []service.ProductView `json:"data"`
		Total int64                 `json:"total"`
	}
	decode(t, rec, &list)
	require.Len(t, list.Data, 1)
	assert.Equal(t, "Mug", list.Data[0].Name)

	detailPath := fmt.Sprintf("/api/v1/guest/products/%d", created.Data.ID)
	rec = f.do(http.MethodGet, detailPath, "", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	etag := rec.Header().Get("ETag")
	require.NotEmpty(t, etag)
	rec = f.do(http.MethodGet, detailPath, "", nil, "If-None-Match", etag)
	assert.Equal(t, http.StatusNotModified, rec.Code)

	rec = f.do(http.MethodGet, "/api/v1/guest/products/999", "", nil, "Accept-Language", "zh-CN,zh;q=0.9")
	require.Equal(t, http.StatusNotFound, rec.Code)
	var notFound struct {
		Message string `json:"message"`
	}
	decode(t, rec, &notFound)
	assert.Equal(t, "商品不存在", notFound.Message)

	rec = f.do(http.MethodDelete, fmt.Sprintf("/api/v1/admin/categories/%d", categoryID), staff, nil)
	assert.Equal(t, http.StatusConflict, rec.Code)
}

func TestShoppingFlow(t *testing.T) {
	f := newAPIFixture(t)
	staff := f.seedUser("staff@example.com", repository.RoleStaff)
	customer := f.seedUser("cust@example.com", repository.RoleCustomer)

	rec := f.do(http.MethodPost, "/api/v1/admin/products", staff, map[string]any{"name": "Mug", "cost": 1000, "stock": 5})
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	productID := dataID(t, rec)

	rec = f.do(http.MethodPost, "/api/v1/user/addresses", customer, map[string]any{
		"full_name": "Ada Lovelace", "line1": "1 Main St", "city": "London", "postal_code": "N1", "country": "GB",
	})
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	addressID := dataID(t, rec)

	rec = f.do(http.MethodPost, fmt.Sprintf("/api/v1/user/wishlist/%d", productID), customer, nil)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	rec = f.do(http.MethodPost, fmt.Sprintf("/api/v1/user/wishlist/%d/move-to-cart", productID), customer, nil)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	rec = f.do(http.MethodPost, "/api/v1/user/cart", customer, map[string]any{"product_id": productID, "quantity": 1})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	var cart struct {
		Data service.CartView `json:"data"`
	}
	decode(t, rec, &cart)
	assert.Equal(t, 2, cart.Data.ItemCount)
	assert.Equal(t, int64(2640), cart.Data.SubtotalCents)
	assert.Equal(t, int64(3140), cart.Data.TotalCents)

	rec = f.do(http.MethodPut, fmt.Sprintf("/api/v1/user/cart/%d", productID), customer, map[string]any{"quantity": 9})
	assert.Equal(t, http.StatusConflict, rec.Code)

	rec = f.do(http.MethodPost, "/api/v1/user/checkout", customer, map[string]any{"address_id": addressID, "note": "ring twice"})
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	var checkout struct {
		Data service.CheckoutResult `json:"data"`
	}
	decode(t, rec, &checkout)
	orderID := checkout.Data.Order.ID
	assert.Equal(t, repository.OrderPending, checkout.Data.Order.Status)
	assert.NotEmpty(t, checkout.Data.ClientSecret)

	rec = f.do(http.MethodPost, fmt.Sprintf("/api/v1/user/orders/%d/pay", orderID), customer, nil)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	var pay struct {
		Data service.PayResult `json:"data"`
	}
	decode(t, rec, &pay)
	assert.True(t, pay.Data.Paid)
	assert.Equal(t, repository.OrderPaid, pay.Data.Order.Status)

	rec = f.do(http.MethodPost, fmt.Sprintf("/api/v1/admin/orders/%d/tracking", orderID), staff, map[string]any{"carrier": "DHL", "tracking_number": "JD0001"})
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())

	rec = f.do(http.MethodGet, fmt.Sprintf("/api/v1/user/orders/%d/tracking", orderID), customer, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	var tracking struct {
		Data []repository.Tracking `json:"data"`
	}
	decode(t, rec, &tracking)
	require.Len(t, tracking.Data, 1)
	assert.Equal(t, "DHL", tracking.Data[0].Carrier)

	rec = f.do(http.MethodGet, fmt.Sprintf("/api/v1/user/orders/%d", orderID), customer, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	var detail struct {
		Data service.OrderDetail `json:"data"`
	}
	decode(t, rec, &detail)
	assert.Equal(t, repository.OrderOnRoute, detail.Data.Order.Status)
	assert.False(t, detail.Data.CanCancel)

	rec = f.do(http.MethodPost, fmt.Sprintf("/api/v1/user/orders/%d/cancel", orderID), customer, nil)
	assert.Equal(t, http.StatusConflict, rec.Code)

	rec = f.do(http.MethodPost, fmt.Sprintf("/api/v1/admin/orders/%d/status", orderID), staff, map[string]any{"status": "Shipped"})
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = f.do(http.MethodPost, fmt.Sprintf("/api/v1/admin/orders/%d/status", orderID), staff, map[string]any{"status": "Delivered"})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	rec = f.do(http.MethodGet, "/api/v1/user/orders?status=Delivered", customer, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	var orders struct {
		Data  []repository.Order `json:"data"`
		Total int64              `json:"total"`
	}
	decode(t, rec, &orders)
	assert.Equal(t, int64(1), orders.Total)

	other := f.seedUser("other@example.com", repository.RoleCustomer)
	rec = f.do(http.MethodGet, fmt.Sprintf("/api/v1/user/orders/%d", orderID), other, nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestAdminUpload(t *testing.T) {
	f := newAPIFixture(t)
	staff := f.seedUser("staff@example.com", repository.RoleStaff)

	upload := func(name string, content []byte) *httptest.ResponseRecorder {
		var body bytes.Buffer
		mw := multipart.NewWriter(&body)
		part, err := mw.CreateFormFile("file", name)
		require.NoError(t, err)
		_, err = part.Write(content)
		require.NoError(t, err)
		require.NoError(t, mw.Close())
		req := httptest.NewRequest(http.MethodPost, "/api/v1/admin/upload", &body)
		req.Header.Set("Content-Type", mw.FormDataContentType())
		req.Header.Set("Authorization", "Bearer "+staff)
		rec := httptest.NewRecorder()
		f.router.ServeHTTP(rec, req)
		return rec
	}

	rec := upload("photo.png", append(pngHeader, make([]byte, 64)...))
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	var obj struct {
		Data storage.Object `json:"data"`
	}
	decode(t, rec, &obj)
	assert.Regexp(t, `^/uploads/products/\d{4}/\d{2}/[0-9a-f-]+\.png$`, obj.Data.URL)

	rec = f.do(http.MethodGet, obj.Data.URL, "", nil)
	assert.Equal(t, http.StatusOK, rec.Code)

	rec = upload("notes.txt", []byte("plain text is not an image"))
	assert.Equal(t, http.StatusUnsupportedMediaType, rec.Code)
}
