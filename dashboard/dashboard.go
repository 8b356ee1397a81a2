// Package dashboard is the single owner of the watchlist, the bookmarks and the
// loading status. The HTTP and command line surfaces only talk to a Dashboard.
package dashboard

import (
	"context"
	"errors"
	"fmt"
	"log"
	"sync"
	"time"

	"stock-glance/bookmarks"
	"stock-glance/chart"
	"stock-glance/models"
	"stock-glance/quotes"
	"stock-glance/search"
	"stock-glance/watchlist"
)

// ErrUnknownSymbol is returned for a symbol that is neither in the snapshot nor bookmarked.
var ErrUnknownSymbol = errors.New("unknown symbol")

// RateLimitMessage is the banner text shown for a RATE_LIMIT failure.
const RateLimitMessage = "429 Too Many Requests. Please try again later or check your connection."

// Fetcher produces complete snapshots. *quotes.Aggregator is the production Fetcher.
type Fetcher interface {
	Fetch(ctx context.Context) (models.Snapshot, error)
}

// Status is the loading indicator and error banner of the dashboard.
type Status struct {
	Loading   bool      `json:"loading"`
	Error     string    `json:"error,omitempty"` // banner code, "" when healthy
	Message   string    `json:"message,omitempty"`
	UpdatedAt time.Time `json:"updatedAt,omitempty"` // last successful refresh
}

// View is everything the table needs to render once.
type View struct {
	Stocks     []models.Stock     `json:"stocks"`
	Selected   *models.Stock      `json:"selected,omitempty"`
	SearchTerm string             `json:"searchTerm"`
	Sort       watchlist.SortSpec `json:"sort"`
	Status     Status             `json:"status"`
	Bookmarked []string           `json:"bookmarked"`
}

type Dashboard struct {
	mu        sync.RWMutex
	refreshMu sync.Mutex // one refresh at a time

	state     *watchlist.State
	status    Status
	fetcher   Fetcher
	bookmarks *bookmarks.Store
	index     search.SearchEngine
	charts    *chart.Generator
}

// New wires a dashboard. index may be nil when symbol search is not needed.
func New(fetcher Fetcher, store *bookmarks.Store, index search.SearchEngine) *Dashboard {
	return &Dashboard{
		state:     watchlist.New(),
		fetcher:   fetcher,
		bookmarks: store,
		index:     index,
		charts:    chart.New(),
	}
}

// SetChartGenerator replaces the series generator.
func (d *Dashboard) SetChartGenerator(g *chart.Generator) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.charts = g
}

// Start loads the bookmarks and runs the first refresh.
func (d *Dashboard) Start(ctx context.Context) error {
	d.LoadBookmarks(ctx)
	return d.Refresh(ctx)
}

// LoadBookmarks reads the persisted bookmarks, replacing the ones in memory.
func (d *Dashboard) LoadBookmarks(ctx context.Context) []models.Stock {
	items := d.bookmarks.Load(ctx)
	log.Printf("Loaded %d bookmarks", len(items))
	return items
}

// Refresh fetches a new snapshot and installs it. On failure the previous
// snapshot stays and the status carries the banner code.
func (d *Dashboard) Refresh(ctx context.Context) error {
	d.refreshMu.Lock()
	defer d.refreshMu.Unlock()

	d.mu.Lock()
	d.status.Loading = true
	d.mu.Unlock()

	start := time.Now()
	snapshot, err := d.fetcher.Fetch(ctx)

	d.mu.Lock()
	defer d.mu.Unlock()
	d.status.Loading = false
	if err != nil {
		d.status.Error = quotes.Code(err)
		d.status.Message = message(err)
		log.Printf("Refresh failed after %v: %v", time.Since(start), err)
		return err
	}

	prev, hadSelection := d.state.Selected()
	d.state.SetSnapshot(snapshot)
	if hadSelection {
		// keep the user's selection when the symbol survived the refresh
		_ = d.state.Select(prev.Symbol)
	}
	d.status = Status{UpdatedAt: time.Now()}

	if d.index != nil {
		if err := d.index.Index(snapshot); err != nil {
			log.Printf("Failed to index snapshot: %v", err)
		}
	}
	log.Printf("Refreshed %d symbols in %v", len(snapshot), time.Since(start))
	return nil
}

func message(err error) string {
	if errors.Is(err, quotes.ErrRateLimit) {
		return RateLimitMessage
	}
	return quotes.ErrFetchFailed.Error()
}

func (d *Dashboard) Status() Status {
	d.mu.RLock()
	defer d.mu.RUnlock()
	return d.status
}

// SetSearchTerm sets the table filter.
func (d *Dashboard) SetSearchTerm(term string) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.state.SetSearchTerm(term)
}

// RequestSort applies the header click policy for key.
func (d *Dashboard) RequestSort(key watchlist.SortKey) watchlist.SortSpec {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.state.RequestSort(key)
}

func (d *Dashboard) SetSort(spec watchlist.SortSpec) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.state.SetSort(spec)
}

// Select makes symbol the selected record. It fails with watchlist.ErrSelectionInvalid.
func (d *Dashboard) Select(symbol string) (models.Stock, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if err := d.state.Select(symbol); err != nil {
		return models.Stock{}, err
	}
	stock, _ := d.state.Selected()
	return stock, nil
}

func (d *Dashboard) Selected() (models.Stock, bool) {
	d.mu.RLock()
	defer d.mu.RUnlock()
	return d.state.Selected()
}

// Lookup finds symbol in the current snapshot.
func (d *Dashboard) Lookup(symbol string) (models.Stock, bool) {
	d.mu.RLock()
	defer d.mu.RUnlock()
	return d.state.Lookup(symbol)
}

func (d *Dashboard) Snapshot() models.Snapshot {
	d.mu.RLock()
	defer d.mu.RUnlock()
	return d.state.Snapshot()
}

// View derives the table from the latest snapshot, search term and sort spec.
func (d *Dashboard) View() View {
	d.mu.RLock()
	defer d.mu.RUnlock()

	view := View{
		Stocks:     d.state.View(),
		SearchTerm: d.state.SearchTerm(),
		Sort:       d.state.SortSpec(),
		Status:     d.status,
		Bookmarked: []string{},
	}
	if stock, ok := d.state.Selected(); ok {
		view.Selected = &stock
	}
	for _, stock := range d.bookmarks.List() {
		view.Bookmarked = append(view.Bookmarked, stock.Symbol)
	}
	return view
}

// resolve finds symbol in the snapshot first, then among the bookmarks.
func (d *Dashboard) resolve(symbol string) (models.Stock, error) {
	d.mu.RLock()
	stock, ok := d.state.Lookup(symbol)
	d.mu.RUnlock()
	if ok {
		return stock, nil
	}
	if stock, ok := d.bookmarks.Get(symbol); ok {
		return stock, nil
	}
	return models.Stock{}, fmt.Errorf("%w: %s", ErrUnknownSymbol, symbol)
}

// Chart returns a fresh synthetic series for symbol.
func (d *Dashboard) Chart(symbol string) (models.Stock, chart.Series, error) {
	stock, err := d.resolve(symbol)
	if err != nil {
		return models.Stock{}, nil, err
	}
	d.mu.RLock()
	g := d.charts
	d.mu.RUnlock()
	return stock, g.Generate(stock), nil
}

func (d *Dashboard) Bookmarks() []models.Stock {
	return d.bookmarks.List()
}

func (d *Dashboard) IsBookmarked(symbol string) bool {
	return d.bookmarks.IsBookmarked(symbol)
}

// AddBookmark bookmarks stock as given.
func (d *Dashboard) AddBookmark(ctx context.Context, stock models.Stock) error {
	if stock.Symbol == "" {
		return fmt.Errorf("%w: empty symbol", ErrUnknownSymbol)
	}
	return d.bookmarks.Add(ctx, stock)
}

// Bookmark bookmarks the current snapshot record of symbol.
func (d *Dashboard) Bookmark(ctx context.Context, symbol string) (models.Stock, error) {
	stock, ok := d.Lookup(symbol)
	if !ok {
		return models.Stock{}, fmt.Errorf("%w: %s", ErrUnknownSymbol, symbol)
	}
	return stock, d.bookmarks.Add(ctx, stock)
}

func (d *Dashboard) RemoveBookmark(ctx context.Context, symbol string) error {
	return d.bookmarks.Remove(ctx, symbol)
}

// ToggleBookmark flips the bookmark of symbol and reports whether it is now bookmarked.
func (d *Dashboard) ToggleBookmark(ctx context.Context, symbol string) (bool, error) {
	stock, err := d.resolve(symbol)
	if err != nil {
		return false, err
	}
	return d.bookmarks.Toggle(ctx, stock)
}

// Search queries the symbol index. It returns nothing when no index is wired.
func (d *Dashboard) Search(query string) []models.Stock {
	if d.index == nil {
		return nil
	}
	return d.index.Search(query)
}
