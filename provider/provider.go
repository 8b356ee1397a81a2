// Package provider implements clients for the external market-data providers.
//
// A provider serves two read-only resources per symbol: a quote and a company
// profile. Throttling is reported as ErrRateLimited so callers can tell it
// apart from any other failure.
package provider

import (
	"context"
	"errors"
	"fmt"

	"github.com/shopspring/decimal"
)

// ErrRateLimited is returned (wrapped) when the provider signals throttling.
var ErrRateLimited = errors.New("API rate limit exceeded")

// Quote is the quote resource of a symbol.
type Quote struct {
	CurrentPrice  decimal.Decimal `json:"c"`
	PercentChange decimal.Decimal `json:"dp"`
}

// Profile is the company profile resource of a symbol.
type Profile struct {
	Name     string `json:"name"`
	Industry string `json:"finnhubIndustry"`
	// MarketCapitalization is expressed in millions.
	MarketCapitalization decimal.Decimal `json:"marketCapitalization"`
}

// Provider fetches the two resources needed to build a watchlist record.
type Provider interface {
	Quote(ctx context.Context, symbol string) (Quote, error)
	Profile(ctx context.Context, symbol string) (Profile, error)
}

// StatusError reports an unexpected HTTP status from a provider.
type StatusError struct {
	Path       string
	StatusCode int
	Status     string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("cannot http GET %s: %s", e.Path, e.Status)
}
