package main

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/cookiejar"
	"net/http/httptest"
	"net/url"
	"strconv"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/PuerkitoBio/goquery"
	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"sribalafashion.in/web/internal/config"
)

// testToken is an unsigned JWT carrying sub, email and a full name, the same
// shape the hosted identity widget hands back.
const testToken = "eyJhbGciOiJub25lIiwidHlwIjoiSldUIn0." +
	"eyJzdWIiOiJ1aWQtMSIsImVtYWlsIjoiYXNoYUBleGFtcGxlLmluIiwidXNlcl9tZXRhZGF0YSI6eyJmdWxsX25hbWUiOiJBc2hhIFIifX0." +
	"c2ln"

// fakeBackend is a scripted stand-in for the storefront REST API.
type fakeBackend struct {
	mu sync.Mutex

	products      []map[string]any
	maintenanceOn bool
	exchangeRole  string
	placedOrders  []map[string]any
}

func newFakeBackend() *fakeBackend {
	return &fakeBackend{
		exchangeRole: "CUSTOMER",
		products: []map[string]any{
			{
				"id": 7, "name": "Silk Thread Bangles", "category": "Bangles",
				"description": "Handwound silk thread bangle set.",
				"imageUrl":    "https://img.example/bangles.jpg",
				"price":       500, "discountPercent": 20, "stock": 12,
				"sizeVariants": []map[string]any{
					{"sizeLabel": "2.4", "price": 480},
					{"sizeLabel": "2.6", "price": 500},
				},
			},
			{
				"id": 9, "name": "Jasmine Garland", "category": "Garlands",
				"description": "Fresh jasmine garland.",
				"imageUrl":    "https://img.example/garland.jpg",
				"price":       250, "discountPercent": 0, "stock": 3,
			},
		},
	}
}

func (b *fakeBackend) handler() http.Handler {
	r := chi.NewRouter()
	r.Get("/api/products", func(w http.ResponseWriter, req *http.Request) {
		b.mu.Lock()
		defer b.mu.Unlock()
		category := req.URL.Query().Get("category")
		out := make([]map[string]any, 0, len(b.products))
		for _, p := range b.products {
			if category == "" || p["category"] == category {
				out = append(out, p)
			}
		}
		writeJSON(w, out)
	})
	r.Get("/api/products/{id}", func(w http.ResponseWriter, req *http.Request) {
		b.mu.Lock()
		defer b.mu.Unlock()
		id, _ := strconv.Atoi(chi.URLParam(req, "id"))
		for _, p := range b.products {
			if p["id"] == id {
				writeJSON(w, p)
				return
			}
		}
		w.WriteHeader(http.StatusNotFound)
		writeJSON(w, map[string]any{"message": "Product not found"})
	})
	r.Get("/api/content/home", func(w http.ResponseWriter, req *http.Request) {
		writeJSON(w, map[string]any{
			"heroTitle":    "Sri Bala Fashion",
			"heroSubtitle": "Handpicked bangles, garlands and accessories",
			"upiId":        "shop@okicici",
		})
	})
	r.Get("/api/settings/maintenance", func(w http.ResponseWriter, req *http.Request) {
		b.mu.Lock()
		defer b.mu.Unlock()
		writeJSON(w, map[string]any{"maintenanceMode": b.maintenanceOn})
	})
	r.Post("/api/auth/google", func(w http.ResponseWriter, req *http.Request) {
		b.mu.Lock()
		defer b.mu.Unlock()
		writeJSON(w, map[string]any{
			"email": "asha@example.in", "role": b.exchangeRole, "fullName": "Asha R",
		})
	})
	r.Post("/api/orders", func(w http.ResponseWriter, req *http.Request) {
		b.mu.Lock()
		defer b.mu.Unlock()
		var body map[string]any
		_ = json.NewDecoder(req.Body).Decode(&body)
		b.placedOrders = append(b.placedOrders, body)
		writeJSON(w, map[string]any{
			"id": 41, "customerName": body["customerName"],
			"totalAmount": 800, "orderStatus": "PLACED", "paymentStatus": "PENDING",
			"createdAt": time.Now().Format(time.RFC3339),
			"items": []map[string]any{
				{"productName": "Silk Thread Bangles", "quantity": 2, "selectedSize": "2.6", "finalPrice": 400},
			},
		})
	})
	r.Get("/api/orders/my", func(w http.ResponseWriter, req *http.Request) {
		writeJSON(w, []map[string]any{})
	})
	r.Get("/api/admin/products", func(w http.ResponseWriter, req *http.Request) {
		b.mu.Lock()
		defer b.mu.Unlock()
		writeJSON(w, map[string]any{"content": b.products, "totalPages": 1})
	})
	r.NotFound(func(w http.ResponseWriter, req *http.Request) {
		w.WriteHeader(http.StatusNotFound)
		writeJSON(w, map[string]any{"message": "not found"})
	})
	return r
}

func writeJSON(w http.ResponseWriter, v any) {
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(v)
}

func newTestApp(t *testing.T, backend *fakeBackend) (*app, *httptest.Server) {
	t.Helper()
	apiSrv := httptest.NewServer(backend.handler())
	t.Cleanup(apiSrv.Close)

	cfg := &config.Config{
		APIBaseURL:         apiSrv.URL,
		StorePath:          ":memory:",
		Env:                "test",
		TemplatesDir:       "../../templates",
		PublicDir:          "../../public",
		ContentDir:         "../../content",
		AuthInitTimeout:    100 * time.Millisecond,
		ListingCacheWindow: time.Minute,
		SyncWatchInterval:  50 * time.Millisecond,
	}

	ctx, cancel := context.WithCancel(context.Background())
	t.Cleanup(cancel)

	a, err := newApp(ctx, cfg, zap.NewNop())
	require.NoError(t, err)

	srv := httptest.NewServer(a.router())
	t.Cleanup(srv.Close)
	return a, srv
}

// newBrowser builds a cookie-carrying client that does not follow redirects,
// so tests can assert on Location headers.
func newBrowser(t *testing.T) *http.Client {
	t.Helper()
	jar, err := cookiejar.New(nil)
	require.NoError(t, err)
	return &http.Client{
		Jar: jar,
		CheckRedirect: func(req *http.Request, via []*http.Request) error {
			return http.ErrUseLastResponse
		},
	}
}

func fetchDoc(t *testing.T, c *http.Client, url string) (*goquery.Document, *http.Response) {
	t.Helper()
	res, err := c.Get(url)
	require.NoError(t, err)
	defer res.Body.Close()
	doc, err := goquery.NewDocumentFromReader(res.Body)
	require.NoError(t, err)
	return doc, res
}

// csrfToken reads the double-submit cookie issued on the first page load.
func csrfToken(t *testing.T, c *http.Client, base string) string {
	t.Helper()
	u, err := url.Parse(base)
	require.NoError(t, err)
	for _, ck := range c.Jar.Cookies(u) {
		if ck.Name == "csrf_token" {
			return ck.Value
		}
	}
	t.Fatal("csrf cookie not set")
	return ""
}

func postForm(t *testing.T, c *http.Client, target string, form url.Values) *http.Response {
	t.Helper()
	res, err := c.PostForm(target, form)
	require.NoError(t, err)
	return res
}

func signIn(t *testing.T, c *http.Client, srv *httptest.Server) {
	t.Helper()
	_, res := fetchDoc(t, c, srv.URL+"/login")
	require.Equal(t, http.StatusOK, res.StatusCode)
	login := postForm(t, c, srv.URL+"/login", url.Values{
		"id_token":   {testToken},
		"csrf_token": {csrfToken(t, c, srv.URL)},
	})
	login.Body.Close()
	require.Equal(t, http.StatusSeeOther, login.StatusCode)
}

func TestHealthz(t *testing.T) {
	_, srv := newTestApp(t, newFakeBackend())
	res, err := http.Get(srv.URL + "/healthz")
	require.NoError(t, err)
	defer res.Body.Close()
	assert.Equal(t, http.StatusOK, res.StatusCode)
}

func TestHomePageRendersFeatured(t *testing.T) {
	_, srv := newTestApp(t, newFakeBackend())
	c := newBrowser(t)

	doc, res := fetchDoc(t, c, srv.URL+"/")
	require.Equal(t, http.StatusOK, res.StatusCode)

	assert.Equal(t, "Sri Bala Fashion", strings.TrimSpace(doc.Find(".hero h1").Text()))
	assert.Equal(t, 2, doc.Find(".featured .product-card").Length())
	assert.Contains(t, doc.Find(".featured").Text(), "Silk Thread Bangles")
}

func TestShopFiltersByCategory(t *testing.T) {
	_, srv := newTestApp(t, newFakeBackend())
	c := newBrowser(t)

	doc, _ := fetchDoc(t, c, srv.URL+"/shop?category=Garlands")
	require.Equal(t, 1, doc.Find(".product-grid .product-card").Length())
	assert.Contains(t, doc.Find(".product-grid").Text(), "Jasmine Garland")

	// The active pill matches the requested category.
	assert.Equal(t, "Garlands", strings.TrimSpace(doc.Find(".category-filter a.active").Text()))
}

func TestProductDetailShowsDiscountedPrice(t *testing.T) {
	_, srv := newTestApp(t, newFakeBackend())
	c := newBrowser(t)

	doc, res := fetchDoc(t, c, srv.URL+"/shop/7")
	require.Equal(t, http.StatusOK, res.StatusCode)

	assert.Equal(t, "Silk Thread Bangles", strings.TrimSpace(doc.Find(".product-info h1").Text()))
	price := doc.Find(".product-info .price").Text()
	assert.Contains(t, price, "₹500")
	assert.Contains(t, price, "₹400")
	assert.Contains(t, price, "20% OFF")
	assert.Equal(t, 2, doc.Find("select[name=size] option").Length())
}

func TestUnknownProductRenders404Page(t *testing.T) {
	_, srv := newTestApp(t, newFakeBackend())
	c := newBrowser(t)

	doc, res := fetchDoc(t, c, srv.URL+"/shop/999")
	assert.Equal(t, http.StatusNotFound, res.StatusCode)
	assert.Contains(t, doc.Find("main").Text(), "Page Not Found")
}

func TestCartAddUpdateRemove(t *testing.T) {
	_, srv := newTestApp(t, newFakeBackend())
	c := newBrowser(t)

	fetchDoc(t, c, srv.URL+"/") // prime session + csrf cookies
	token := csrfToken(t, c, srv.URL)

	res := postForm(t, c, srv.URL+"/cart/add", url.Values{
		"csrf_token": {token},
		"product_id": {"7"},
		"size":       {"2.6"},
		"quantity":   {"2"},
	})
	res.Body.Close()
	require.Equal(t, http.StatusSeeOther, res.StatusCode)
	assert.Equal(t, "/cart", res.Header.Get("Location"))

	doc, _ := fetchDoc(t, c, srv.URL+"/cart")
	require.Equal(t, 1, doc.Find(".cart-table tbody tr").Length())
	assert.Contains(t, doc.Find(".cart-table").Text(), "Silk Thread Bangles")
	assert.Contains(t, doc.Find(".cart-table").Text(), "Size: 2.6")
	assert.Contains(t, doc.Find(".cart-summary .total").Text(), "₹800")

	key, ok := doc.Find("input[name=cart_key]").First().Attr("value")
	require.True(t, ok)

	res = postForm(t, c, srv.URL+"/cart/update", url.Values{
		"csrf_token": {token},
		"cart_key":   {key},
		"quantity":   {"1"},
	})
	res.Body.Close()
	doc, _ = fetchDoc(t, c, srv.URL+"/cart")
	assert.Contains(t, doc.Find(".cart-summary .total").Text(), "₹400")

	res = postForm(t, c, srv.URL+"/cart/remove", url.Values{
		"csrf_token": {token},
		"cart_key":   {key},
	})
	res.Body.Close()
	doc, _ = fetchDoc(t, c, srv.URL+"/cart")
	assert.Contains(t, doc.Find("main").Text(), "Your cart is empty.")
}

func TestCartAddRejectedWithoutCSRF(t *testing.T) {
	_, srv := newTestApp(t, newFakeBackend())
	c := newBrowser(t)

	fetchDoc(t, c, srv.URL+"/")
	res := postForm(t, c, srv.URL+"/cart/add", url.Values{
		"product_id": {"7"},
		"quantity":   {"1"},
	})
	res.Body.Close()
	assert.Equal(t, http.StatusForbidden, res.StatusCode)
}

func TestCheckoutRequiresSignIn(t *testing.T) {
	_, srv := newTestApp(t, newFakeBackend())
	c := newBrowser(t)

	res, err := c.Get(srv.URL + "/checkout")
	require.NoError(t, err)
	res.Body.Close()
	assert.Equal(t, http.StatusSeeOther, res.StatusCode)
	assert.Contains(t, res.Header.Get("Location"), "/login")
}

func TestCheckoutFlowPlacesOrder(t *testing.T) {
	backend := newFakeBackend()
	_, srv := newTestApp(t, backend)
	c := newBrowser(t)

	signIn(t, c, srv)
	token := csrfToken(t, c, srv.URL)

	res := postForm(t, c, srv.URL+"/cart/add", url.Values{
		"csrf_token": {token},
		"product_id": {"7"},
		"size":       {"2.6"},
		"quantity":   {"2"},
	})
	res.Body.Close()
	require.Equal(t, http.StatusSeeOther, res.StatusCode)

	doc, res2 := fetchDoc(t, c, srv.URL+"/checkout")
	require.Equal(t, http.StatusOK, res2.StatusCode)
	assert.Contains(t, doc.Find(".upi-id").Text(), "shop@okicici")
	link, _ := doc.Find(".upi-link").Attr("href")
	assert.Contains(t, link, "upi://pay?pa=shop@okicici")

	submit, err := c.PostForm(srv.URL+"/checkout", url.Values{
		"csrf_token":     {token},
		"customer_name":  {"Asha R"},
		"phone":          {"9876543210"},
		"address":        {"12 Car Street"},
		"city":           {"Madurai"},
		"state":          {"Tamil Nadu"},
		"pincode":        {"625001"},
		"transaction_id": {"T1234567890"},
	})
	require.NoError(t, err)
	defer submit.Body.Close()
	require.Equal(t, http.StatusOK, submit.StatusCode)

	okDoc, err := goquery.NewDocumentFromReader(submit.Body)
	require.NoError(t, err)
	assert.Contains(t, okDoc.Find("main").Text(), "Order Placed!")
	assert.Contains(t, okDoc.Find("main").Text(), "#41")

	backend.mu.Lock()
	defer backend.mu.Unlock()
	require.Len(t, backend.placedOrders, 1)
	items := backend.placedOrders[0]["items"].([]any)
	require.Len(t, items, 1)
	item := items[0].(map[string]any)
	assert.Equal(t, float64(7), item["productId"])
	assert.Equal(t, "2.6", item["selectedSize"])

	// Success clears the cart.
	doc, _ = fetchDoc(t, c, srv.URL+"/cart")
	assert.Contains(t, doc.Find("main").Text(), "Your cart is empty.")
}

func TestCheckoutValidationMessageShown(t *testing.T) {
	_, srv := newTestApp(t, newFakeBackend())
	c := newBrowser(t)

	signIn(t, c, srv)
	token := csrfToken(t, c, srv.URL)

	res := postForm(t, c, srv.URL+"/cart/add", url.Values{
		"csrf_token": {token},
		"product_id": {"9"},
		"quantity":   {"1"},
	})
	res.Body.Close()

	submit, err := c.PostForm(srv.URL+"/checkout", url.Values{
		"csrf_token":     {token},
		"customer_name":  {"Asha R"},
		"phone":          {"12345"},
		"address":        {"12 Car Street"},
		"city":           {"Madurai"},
		"state":          {"Tamil Nadu"},
		"pincode":        {"625001"},
		"transaction_id": {"T1"},
	})
	require.NoError(t, err)
	defer submit.Body.Close()

	doc, err := goquery.NewDocumentFromReader(submit.Body)
	require.NoError(t, err)
	assert.Contains(t, doc.Find(".flash-error").Text(), "Please enter a valid 10-digit phone number.")
}

func TestAdminRequiresRole(t *testing.T) {
	_, srv := newTestApp(t, newFakeBackend())
	c := newBrowser(t)

	res, err := c.Get(srv.URL + "/admin")
	require.NoError(t, err)
	res.Body.Close()
	assert.Equal(t, http.StatusSeeOther, res.StatusCode)
	assert.Equal(t, "/admin/login", res.Header.Get("Location"))

	// A signed-in customer is refused rather than redirected.
	signIn(t, c, srv)
	require.Eventually(t, func() bool {
		res, err := c.Get(srv.URL + "/admin")
		if err != nil {
			return false
		}
		res.Body.Close()
		return res.StatusCode == http.StatusForbidden
	}, 2*time.Second, 50*time.Millisecond)
}

func TestAdminDashboardForAdminRole(t *testing.T) {
	backend := newFakeBackend()
	backend.exchangeRole = "ADMIN"
	a, srv := newTestApp(t, backend)
	c := newBrowser(t)

	signIn(t, c, srv)

	// The role arrives with the async identity exchange.
	require.Eventually(t, func() bool {
		id, ok := a.sessions.Identity()
		return ok && id.IsAdmin()
	}, 2*time.Second, 20*time.Millisecond)

	doc, res := fetchDoc(t, c, srv.URL+"/admin")
	require.Equal(t, http.StatusOK, res.StatusCode)
	assert.Contains(t, doc.Find("h1").Text(), "Admin Dashboard")
	assert.Equal(t, "Products", strings.TrimSpace(doc.Find(".admin-tabs a.active").Text()))
	assert.Equal(t, 2, doc.Find(".admin-table tbody tr").Length())
}

func TestMaintenanceOverlayShownAndExempt(t *testing.T) {
	backend := newFakeBackend()
	backend.maintenanceOn = true
	a, srv := newTestApp(t, backend)
	c := newBrowser(t)

	require.Eventually(t, a.maint.Active, 2*time.Second, 20*time.Millisecond)

	doc, _ := fetchDoc(t, c, srv.URL+"/")
	assert.Equal(t, 1, doc.Find(".maintenance-overlay").Length())

	// Sign-in stays reachable so an admin can lift the flag.
	doc, _ = fetchDoc(t, c, srv.URL+"/login")
	assert.Equal(t, 0, doc.Find(".maintenance-overlay").Length())
}

func TestLogoutClearsCartAndSession(t *testing.T) {
	_, srv := newTestApp(t, newFakeBackend())
	c := newBrowser(t)

	signIn(t, c, srv)
	token := csrfToken(t, c, srv.URL)

	res := postForm(t, c, srv.URL+"/cart/add", url.Values{
		"csrf_token": {token},
		"product_id": {"7"},
		"quantity":   {"1"},
	})
	res.Body.Close()

	res = postForm(t, c, srv.URL+"/logout", url.Values{"csrf_token": {token}})
	res.Body.Close()
	require.Equal(t, http.StatusSeeOther, res.StatusCode)

	doc, _ := fetchDoc(t, c, srv.URL+"/cart")
	assert.Contains(t, doc.Find("main").Text(), "Your cart is empty.")

	res, err := c.Get(srv.URL + "/checkout")
	require.NoError(t, err)
	res.Body.Close()
	assert.Equal(t, http.StatusSeeOther, res.StatusCode)
}
