// Package api exposes the dashboard over JSON HTTP with gin.
package api

import (
	"context"
	"errors"
	"log"
	"math"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/gin-gonic/gin"

	"stock-glance/chart"
	"stock-glance/dashboard"
	"stock-glance/models"
	"stock-glance/quotes"
	"stock-glance/watchlist"
)

// CodeSelectionInvalid is the error code for a symbol missing from the snapshot.
const CodeSelectionInvalid = "SELECTION_INVALID"

type Handler struct {
	Dashboard *dashboard.Dashboard
	Breaker   *quotes.Breaker // optional, reported by Health
}

func NewHandler(d *dashboard.Dashboard, breaker *quotes.Breaker) *Handler {
	return &Handler{Dashboard: d, Breaker: breaker}
}

type errorResponse struct {
	Error   string `json:"error"`
	Message string `json:"message,omitempty"`
}

type chartResponse struct {
	Stock   models.Stock `json:"stock"`
	Trend   string       `json:"trend"`
	History chart.Series `json:"history"`
}

type toggleResponse struct {
	Symbol     string `json:"symbol"`
	Bookmarked bool   `json:"bookmarked"`
}

// ListStocks returns the table view. q sets the search term, sort requests a
// column (toggling on repeat) and direction, when present, forces the order.
func (h *Handler) ListStocks(c *gin.Context) {
	if term, ok := c.GetQuery("q"); ok {
		h.Dashboard.SetSearchTerm(term)
	}

	sortParam, hasSort := c.GetQuery("sort")
	dirParam, hasDir := c.GetQuery("direction")
	switch {
	case hasSort && hasDir:
		key, err := watchlist.ParseSortKey(sortParam)
		if err != nil {
			badRequest(c, err)
			return
		}
		dir, err := watchlist.ParseDirection(dirParam)
		if err != nil {
			badRequest(c, err)
			return
		}
		h.Dashboard.SetSort(watchlist.SortSpec{Key: key, Direction: dir})
	case hasSort:
		key, err := watchlist.ParseSortKey(sortParam)
		if err != nil {
			badRequest(c, err)
			return
		}
		h.Dashboard.RequestSort(key)
	case hasDir:
		dir, err := watchlist.ParseDirection(dirParam)
		if err != nil {
			badRequest(c, err)
			return
		}
		spec := h.Dashboard.View().Sort
		spec.Direction = dir
		h.Dashboard.SetSort(spec)
	}

	c.JSON(http.StatusOK, h.Dashboard.View())
}

// Refresh runs one aggregation pass and returns the new view. The pass outlives
// a client that disconnects, so its result still reaches the dashboard.
func (h *Handler) Refresh(c *gin.Context) {
	ctx := context.WithoutCancel(c.Request.Context())
	if err := h.Dashboard.Refresh(ctx); err != nil {
		status := h.Dashboard.Status()
		code := http.StatusBadGateway
		if errors.Is(err, quotes.ErrRateLimit) {
			code = http.StatusTooManyRequests
			if h.Breaker != nil {
				if wait := h.Breaker.RetryAfter(); wait > 0 {
					c.Header("Retry-After", retryAfterSeconds(wait))
				}
			}
		}
		c.JSON(code, errorResponse{Error: status.Error, Message: status.Message})
		return
	}
	c.JSON(http.StatusOK, h.Dashboard.View())
}

// retryAfterSeconds rounds d up to whole seconds for the Retry-After header.
func retryAfterSeconds(d time.Duration) string {
	return strconv.Itoa(int(math.Ceil(d.Seconds())))
}

func (h *Handler) GetStock(c *gin.Context) {
	stock, ok := h.Dashboard.Lookup(c.Param("symbol"))
	if !ok {
		c.JSON(http.StatusNotFound, errorResponse{Error: CodeSelectionInvalid, Message: "Stock not found"})
		return
	}
	c.JSON(http.StatusOK, stock)
}

func (h *Handler) Select(c *gin.Context) {
	stock, err := h.Dashboard.Select(c.Param("symbol"))
	if errors.Is(err, watchlist.ErrSelectionInvalid) {
		c.JSON(http.StatusNotFound, errorResponse{Error: CodeSelectionInvalid, Message: err.Error()})
		return
	}
	c.JSON(http.StatusOK, stock)
}

// Chart returns a freshly generated synthetic history; it changes on every call.
func (h *Handler) Chart(c *gin.Context) {
	stock, series, err := h.Dashboard.Chart(c.Param("symbol"))
	if errors.Is(err, dashboard.ErrUnknownSymbol) {
		c.JSON(http.StatusNotFound, errorResponse{Error: CodeSelectionInvalid, Message: err.Error()})
		return
	}
	c.JSON(http.StatusOK, chartResponse{Stock: stock, Trend: chart.Trend(stock), History: series})
}

func (h *Handler) ListBookmarks(c *gin.Context) {
	c.JSON(http.StatusOK, h.Dashboard.Bookmarks())
}

// AddBookmark stores the posted record. A body carrying only a symbol bookmarks
// the current snapshot record of that symbol.
func (h *Handler) AddBookmark(c *gin.Context) {
	var stock models.Stock
	if err := c.ShouldBindJSON(&stock); err != nil {
		badRequest(c, err)
		return
	}
	stock.Symbol = strings.TrimSpace(stock.Symbol)
	if stock.Symbol == "" {
		c.JSON(http.StatusBadRequest, errorResponse{Error: "BAD_REQUEST", Message: "Missing symbol"})
		return
	}

	ctx := c.Request.Context()
	var err error
	if stock.CompanyName == "" {
		stock, err = h.Dashboard.Bookmark(ctx, stock.Symbol)
	} else {
		err = h.Dashboard.AddBookmark(ctx, stock)
	}
	if errors.Is(err, dashboard.ErrUnknownSymbol) {
		c.JSON(http.StatusNotFound, errorResponse{Error: CodeSelectionInvalid, Message: err.Error()})
		return
	}
	if err != nil {
		h.storageError(c, err)
		return
	}
	c.JSON(http.StatusCreated, stock)
}

func (h *Handler) RemoveBookmark(c *gin.Context) {
	if err := h.Dashboard.RemoveBookmark(c.Request.Context(), c.Param("symbol")); err != nil {
		h.storageError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

func (h *Handler) ToggleBookmark(c *gin.Context) {
	symbol := c.Param("symbol")
	on, err := h.Dashboard.ToggleBookmark(c.Request.Context(), symbol)
	if errors.Is(err, dashboard.ErrUnknownSymbol) {
		c.JSON(http.StatusNotFound, errorResponse{Error: CodeSelectionInvalid, Message: err.Error()})
		return
	}
	if err != nil {
		h.storageError(c, err)
		return
	}
	c.JSON(http.StatusOK, toggleResponse{Symbol: symbol, Bookmarked: on})
}

// Search queries the symbol index.
func (h *Handler) Search(c *gin.Context) {
	query := c.Query("q")
	if query == "" {
		c.JSON(http.StatusBadRequest, errorResponse{Error: "BAD_REQUEST", Message: "Missing query parameter 'q'"})
		return
	}
	results := h.Dashboard.Search(query)
	if results == nil {
		results = []models.Stock{}
	}
	c.JSON(http.StatusOK, results)
}

func (h *Handler) Health(c *gin.Context) {
	status := h.Dashboard.Status()
	body := gin.H{
		"status":  "healthy",
		"symbols": len(h.Dashboard.Snapshot()),
		"error":   status.Error,
	}
	if !status.UpdatedAt.IsZero() {
		body["updatedAt"] = status.UpdatedAt
	}
	if h.Breaker != nil {
		body["breaker"] = h.Breaker.State().String()
	}
	c.JSON(http.StatusOK, body)
}

func (h *Handler) storageError(c *gin.Context, err error) {
	log.Printf("Bookmark storage error: %v", err)
	c.JSON(http.StatusInternalServerError, errorResponse{Error: "STORAGE_FAILED", Message: err.Error()})
}

func badRequest(c *gin.Context, err error) {
	c.JSON(http.StatusBadRequest, errorResponse{Error: "BAD_REQUEST", Message: err.Error()})
}
