package api

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"

	"stock-glance/bookmarks"
	"stock-glance/dashboard"
	"stock-glance/models"
	"stock-glance/quotes"
	"stock-glance/search"
)

type fakeFetcher struct {
	snapshot models.Snapshot
	err      error
}

func (f *fakeFetcher) Fetch(ctx context.Context) (models.Snapshot, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return f.snapshot, f.err
}

func testSnapshot() models.Snapshot {
	stock := func(symbol, name, price, change string) models.Stock {
		return models.Stock{
			Symbol:      symbol,
			CompanyName: name,
			Price:       decimal.RequireFromString(price),
			Change:      decimal.RequireFromString(change),
			Industry:    "Technology",
			MarketCap:   1000000000,
		}
	}
	return models.Snapshot{
		stock("AAPL", "Apple Inc.", "150", "2.5"),
		stock("MSFT", "Microsoft", "410.2", "-0.8"),
		stock("GOOGL", "Alphabet Inc.", "140", "1.1"),
	}
}

func setupRouter(t *testing.T, fetcher *fakeFetcher) (*gin.Engine, *quotes.Breaker) {
	t.Helper()
	gin.SetMode(gin.TestMode)
	d := dashboard.New(fetcher, bookmarks.NewStore(bookmarks.NewMemoryStorage()), search.NewInMemoryEngine(nil))
	if fetcher.err == nil {
		if err := d.Refresh(context.Background()); err != nil {
			t.Fatal(err)
		}
	}
	breaker := quotes.NewBreaker(1, time.Minute)
	return NewRouter(NewHandler(d, breaker), ""), breaker
}

func do(router *gin.Engine, method, path, body string) *httptest.ResponseRecorder {
	var req *http.Request
	if body != "" {
		req = httptest.NewRequest(method, path, strings.NewReader(body))
		req.Header.Set("Content-Type", "application/json")
	} else {
		req = httptest.NewRequest(method, path, nil)
	}
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	return w
}

func decode(t *testing.T, w *httptest.ResponseRecorder, v interface{}) {
	t.Helper()
	if err := json.Unmarshal(w.Body.Bytes(), v); err != nil {
		t.Fatalf("Failed to decode %s: %v", w.Body.String(), err)
	}
}

func viewSymbols(t *testing.T, w *httptest.ResponseRecorder) string {
	t.Helper()
	var view dashboard.View
	decode(t, w, &view)
	return fmt.Sprint(models.Snapshot(view.Stocks).Symbols())
}

func TestListStocks(t *testing.T) {
	router, _ := setupRouter(t, &fakeFetcher{snapshot: testSnapshot()})

	w := do(router, http.MethodGet, "/api/stocks", "")
	if w.Code != http.StatusOK {
		t.Fatalf("Expected 200, got %d", w.Code)
	}
	if got := viewSymbols(t, w); got != "[AAPL GOOGL MSFT]" {
		t.Errorf("Expected symbol order, got %s", got)
	}

	w = do(router, http.MethodGet, "/api/stocks?sort=price", "")
	if got := viewSymbols(t, w); got != "[GOOGL AAPL MSFT]" {
		t.Errorf("Expected price ascending, got %s", got)
	}
	// the same column again flips the direction
	w = do(router, http.MethodGet, "/api/stocks?sort=price", "")
	if got := viewSymbols(t, w); got != "[MSFT AAPL GOOGL]" {
		t.Errorf("Expected price descending, got %s", got)
	}

	w = do(router, http.MethodGet, "/api/stocks?q=inc&sort=change&direction=descending", "")
	if got := viewSymbols(t, w); got != "[AAPL GOOGL]" {
		t.Errorf("Expected filtered change descending, got %s", got)
	}
}

func TestListStocksBadSort(t *testing.T) {
	router, _ := setupRouter(t, &fakeFetcher{snapshot: testSnapshot()})
	for _, path := range []string{"/api/stocks?sort=volume", "/api/stocks?direction=up"} {
		if w := do(router, http.MethodGet, path, ""); w.Code != http.StatusBadRequest {
			t.Errorf("%s: expected 400, got %d", path, w.Code)
		}
	}
}

func TestRefreshErrors(t *testing.T) {
	tests := []struct {
		err     error
		code    int
		banner  string
		message string
	}{
		{fmt.Errorf("%w: AAPL", quotes.ErrRateLimit), http.StatusTooManyRequests, "RATE_LIMIT", dashboard.RateLimitMessage},
		{quotes.ErrFetchFailed, http.StatusBadGateway, "FETCH_FAILED", quotes.ErrFetchFailed.Error()},
	}

	for _, tt := range tests {
		router, _ := setupRouter(t, &fakeFetcher{err: tt.err})
		w := do(router, http.MethodPost, "/api/refresh", "")
		if w.Code != tt.code {
			t.Errorf("Expected %d, got %d", tt.code, w.Code)
		}
		var resp errorResponse
		decode(t, w, &resp)
		if resp.Error != tt.banner || resp.Message != tt.message {
			t.Errorf("Unexpected body %+v", resp)
		}
	}
}

func TestRefreshRetryAfter(t *testing.T) {
	router, breaker := setupRouter(t, &fakeFetcher{err: quotes.ErrRateLimit})
	breaker.Trip()

	w := do(router, http.MethodPost, "/api/refresh", "")
	if got := w.Header().Get("Retry-After"); got != "60" {
		t.Errorf("Expected Retry-After 60, got %q", got)
	}
}

func TestRefreshOK(t *testing.T) {
	router, _ := setupRouter(t, &fakeFetcher{snapshot: testSnapshot()})
	w := do(router, http.MethodPost, "/api/refresh", "")
	if w.Code != http.StatusOK {
		t.Fatalf("Expected 200, got %d: %s", w.Code, w.Body.String())
	}
	var view dashboard.View
	decode(t, w, &view)
	if view.Selected == nil || view.Selected.Symbol != "AAPL" {
		t.Errorf("Expected AAPL selected, got %v", view.Selected)
	}
}

func TestRefreshOutlivesClientDisconnect(t *testing.T) {
	fetcher := &fakeFetcher{err: quotes.ErrFetchFailed}
	router, _ := setupRouter(t, fetcher)
	fetcher.err, fetcher.snapshot = nil, testSnapshot()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	req := httptest.NewRequest(http.MethodPost, "/api/refresh", nil).WithContext(ctx)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("Expected 200, got %d: %s", w.Code, w.Body.String())
	}
	if got := viewSymbols(t, do(router, http.MethodGet, "/api/stocks", "")); got != "[AAPL GOOGL MSFT]" {
		t.Errorf("Expected the refreshed snapshot, got %s", got)
	}
}

func TestSelectAndGetStock(t *testing.T) {
	router, _ := setupRouter(t, &fakeFetcher{snapshot: testSnapshot()})

	w := do(router, http.MethodPut, "/api/selection/MSFT", "")
	if w.Code != http.StatusOK {
		t.Fatalf("Expected 200, got %d", w.Code)
	}
	w = do(router, http.MethodPut, "/api/selection/NOPE", "")
	if w.Code != http.StatusNotFound {
		t.Errorf("Expected 404, got %d", w.Code)
	}
	var resp errorResponse
	decode(t, w, &resp)
	if resp.Error != CodeSelectionInvalid {
		t.Errorf("Expected %s, got %s", CodeSelectionInvalid, resp.Error)
	}

	w = do(router, http.MethodGet, "/api/stocks", "")
	var view dashboard.View
	decode(t, w, &view)
	if view.Selected == nil || view.Selected.Symbol != "MSFT" {
		t.Errorf("Expected MSFT still selected, got %v", view.Selected)
	}

	w = do(router, http.MethodGet, "/api/stocks/GOOGL", "")
	var stock models.Stock
	decode(t, w, &stock)
	if stock.CompanyName != "Alphabet Inc." || stock.MarketCap != 1000000000 {
		t.Errorf("Unexpected stock %+v", stock)
	}
}

func TestChart(t *testing.T) {
	router, _ := setupRouter(t, &fakeFetcher{snapshot: testSnapshot()})

	w := do(router, http.MethodGet, "/api/chart/MSFT", "")
	if w.Code != http.StatusOK {
		t.Fatalf("Expected 200, got %d", w.Code)
	}
	var resp chartResponse
	decode(t, w, &resp)
	if len(resp.History) != 31 || resp.Trend != "down" || resp.Stock.Symbol != "MSFT" {
		t.Errorf("Unexpected chart: %d points, trend %s", len(resp.History), resp.Trend)
	}

	if w := do(router, http.MethodGet, "/api/chart/NOPE", ""); w.Code != http.StatusNotFound {
		t.Errorf("Expected 404, got %d", w.Code)
	}
}

func TestBookmarks(t *testing.T) {
	router, _ := setupRouter(t, &fakeFetcher{snapshot: testSnapshot()})

	w := do(router, http.MethodPost, "/api/bookmarks", `{"symbol":"AAPL"}`)
	if w.Code != http.StatusCreated {
		t.Fatalf("Expected 201, got %d: %s", w.Code, w.Body.String())
	}
	var added models.Stock
	decode(t, w, &added)
	if added.CompanyName != "Apple Inc." {
		t.Errorf("Expected the snapshot record, got %+v", added)
	}

	w = do(router, http.MethodPost, "/api/bookmarks", `{"symbol":"IBM","companyName":"IBM","price":180.5,"change":0.3,"industry":"","marketCap":1}`)
	if w.Code != http.StatusCreated {
		t.Fatalf("Expected 201, got %d", w.Code)
	}

	w = do(router, http.MethodPost, "/api/bookmarks/MSFT/toggle", "")
	var toggled toggleResponse
	decode(t, w, &toggled)
	if !toggled.Bookmarked {
		t.Errorf("Expected MSFT bookmarked")
	}

	if w := do(router, http.MethodDelete, "/api/bookmarks/AAPL", ""); w.Code != http.StatusNoContent {
		t.Errorf("Expected 204, got %d", w.Code)
	}

	w = do(router, http.MethodGet, "/api/bookmarks", "")
	var list []models.Stock
	decode(t, w, &list)
	if got := fmt.Sprint(models.Snapshot(list).Symbols()); got != "[IBM MSFT]" {
		t.Errorf("Expected [IBM MSFT], got %s", got)
	}

	// a bookmark outside the snapshot can still be charted
	if w := do(router, http.MethodGet, "/api/chart/IBM", ""); w.Code != http.StatusOK {
		t.Errorf("Expected 200 for bookmarked IBM, got %d", w.Code)
	}
}

func TestBookmarkValidation(t *testing.T) {
	router, _ := setupRouter(t, &fakeFetcher{snapshot: testSnapshot()})
	tests := []struct {
		body string
		code int
	}{
		{`not json`, http.StatusBadRequest},
		{`{"symbol":"  "}`, http.StatusBadRequest},
		{`{"symbol":"NOPE"}`, http.StatusNotFound},
	}
	for _, tt := range tests {
		if w := do(router, http.MethodPost, "/api/bookmarks", tt.body); w.Code != tt.code {
			t.Errorf("%s: expected %d, got %d", tt.body, tt.code, w.Code)
		}
	}
	if w := do(router, http.MethodPost, "/api/bookmarks/NOPE/toggle", ""); w.Code != http.StatusNotFound {
		t.Errorf("Expected 404 toggling an unknown symbol, got %d", w.Code)
	}
}

func TestSearch(t *testing.T) {
	router, _ := setupRouter(t, &fakeFetcher{snapshot: testSnapshot()})

	if w := do(router, http.MethodGet, "/search", ""); w.Code != http.StatusBadRequest {
		t.Errorf("Expected 400, got %d", w.Code)
	}
	w := do(router, http.MethodGet, "/search?q=micro", "")
	var results []models.Stock
	decode(t, w, &results)
	if len(results) != 1 || results[0].Symbol != "MSFT" {
		t.Errorf("Expected MSFT, got %v", results)
	}
}

func TestHealthAndMiddleware(t *testing.T) {
	router, _ := setupRouter(t, &fakeFetcher{snapshot: testSnapshot()})

	w := do(router, http.MethodGet, "/health", "")
	if w.Code != http.StatusOK {
		t.Fatalf("Expected 200, got %d", w.Code)
	}
	if w.Header().Get("X-Request-ID") == "" {
		t.Error("Expected a generated X-Request-ID")
	}
	var body map[string]interface{}
	decode(t, w, &body)
	if body["breaker"] != "closed" || body["symbols"] != float64(3) {
		t.Errorf("Unexpected health body %v", body)
	}

	req := httptest.NewRequest(http.MethodGet, "/health", nil)
	req.Header.Set("X-Request-ID", "abc")
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	if got := rec.Header().Get("X-Request-ID"); got != "abc" {
		t.Errorf("Expected the caller's request ID, got %q", got)
	}

	if w := do(router, http.MethodOptions, "/api/stocks", ""); w.Code != http.StatusNoContent {
		t.Errorf("Expected 204 for preflight, got %d", w.Code)
	}
}
