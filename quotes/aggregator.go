// Package quotes builds watchlist snapshots from a market-data provider.
package quotes

import (
	"context"
	"errors"
	"log"
	"time"

	"github.com/shopspring/decimal"
	"golang.org/x/sync/errgroup"

	"stock-glance/models"
	"stock-glance/provider"
)

// Aggregation failures. Callers tell them apart with errors.Is.
var (
	ErrRateLimit   = errors.New("API rate limit exceeded")
	ErrFetchFailed = errors.New("unable to fetch stock data")
)

// Banner codes shown by the UI.
const (
	CodeRateLimit   = "RATE_LIMIT"
	CodeFetchFailed = "FETCH_FAILED"
)

// Code returns the banner code of an aggregation error, or "" for nil.
func Code(err error) string {
	switch {
	case err == nil:
		return ""
	case errors.Is(err, ErrRateLimit):
		return CodeRateLimit
	default:
		return CodeFetchFailed
	}
}

// marketCapScale converts the provider's market capitalization, in millions, to currency units.
var marketCapScale = decimal.NewFromInt(1_000_000)

// Aggregator fetches a quote and a profile for every symbol of a fixed watchlist
// and merges them into a snapshot.
type Aggregator struct {
	provider provider.Provider
	symbols  []string
	breaker  *Breaker
}

// NewAggregator creates an aggregator over symbols. A positive cooldown puts a
// circuit breaker in front of the provider that opens on the first rate limit.
func NewAggregator(p provider.Provider, symbols []string, cooldown time.Duration) *Aggregator {
	a := &Aggregator{
		provider: p,
		symbols:  append([]string(nil), symbols...),
	}
	if cooldown > 0 {
		a.breaker = NewBreaker(1, cooldown)
	}
	return a
}

// Symbols returns the watchlist.
func (a *Aggregator) Symbols() []string { return append([]string(nil), a.symbols...) }

// Breaker returns the circuit breaker, nil if there is none.
func (a *Aggregator) Breaker() *Breaker { return a.breaker }

// Fetch returns a full snapshot, in watchlist order, or fails with ErrRateLimit or
// ErrFetchFailed. There are no partial snapshots.
func (a *Aggregator) Fetch(ctx context.Context) (models.Snapshot, error) {
	if a.breaker != nil && !a.breaker.Allow() {
		log.Printf("Skipping fetch, provider is rate limiting us for another %v", a.breaker.RetryAfter().Round(time.Second))
		return nil, ErrRateLimit
	}

	snapshot, err := a.fetch(ctx)

	if a.breaker != nil {
		switch {
		case errors.Is(err, ErrRateLimit):
			a.breaker.Trip()
		case err != nil && ctx.Err() != nil:
			// abandoned by the caller, the provider's answer is unknown
		default:
			a.breaker.Reset()
		}
	}
	return snapshot, err
}

func (a *Aggregator) fetch(ctx context.Context) (models.Snapshot, error) {
	// The first failure cancels ctx, releasing every other in-flight request.
	g, ctx := errgroup.WithContext(ctx)

	snapshot := make(models.Snapshot, len(a.symbols))
	for i, symbol := range a.symbols {
		i, symbol := i, symbol
		g.Go(func() error {
			stock, err := a.fetchSymbol(ctx, symbol)
			if err != nil {
				return err
			}
			snapshot[i] = stock
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		log.Printf("Failed to fetch stock data: %v", err)
		if errors.Is(err, provider.ErrRateLimited) {
			return nil, ErrRateLimit
		}
		return nil, ErrFetchFailed
	}
	return snapshot, nil
}

// fetchSymbol waits for both resources of symbol. A rate limit on either one
// wins over any other error.
func (a *Aggregator) fetchSymbol(ctx context.Context, symbol string) (models.Stock, error) {
	var (
		quote             provider.Quote
		profile           provider.Profile
		quoteErr, profErr error
		g                 errgroup.Group
	)
	g.Go(func() error {
		quote, quoteErr = a.provider.Quote(ctx, symbol)
		return nil
	})
	g.Go(func() error {
		profile, profErr = a.provider.Profile(ctx, symbol)
		return nil
	})
	g.Wait()

	switch {
	case errors.Is(quoteErr, provider.ErrRateLimited):
		return models.Stock{}, quoteErr
	case errors.Is(profErr, provider.ErrRateLimited):
		return models.Stock{}, profErr
	case quoteErr != nil:
		return models.Stock{}, quoteErr
	case profErr != nil:
		return models.Stock{}, profErr
	}
	return NewStock(symbol, quote, profile), nil
}

// NewStock merges a quote and a profile into a record.
func NewStock(symbol string, q provider.Quote, p provider.Profile) models.Stock {
	return models.Stock{
		Symbol:      symbol,
		CompanyName: p.Name,
		Price:       q.CurrentPrice,
		Change:      q.PercentChange,
		Industry:    p.Industry,
		MarketCap:   p.MarketCapitalization.Mul(marketCapScale).IntPart(),
	}
}
