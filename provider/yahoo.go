package provider

import (
	"context"
	"fmt"
	"net/http"
	"sync"
	"sync/atomic"
	"time"

	"github.com/piquette/finance-go"
	"github.com/piquette/finance-go/equity"
	"github.com/shopspring/decimal"
)

var million = decimal.NewFromInt(1_000_000)

// Yahoo is a Provider backed by Yahoo Finance through finance-go.
//
// Yahoo has no industry classification in its quote API, so profiles carry an
// empty industry.
type Yahoo struct {
	get       func(symbol string) (*finance.Equity, error)
	transport *rateLimitTransport
}

// rateLimitTransport counts the 429 responses finance-go receives. finance-go
// reports every HTTP failure as a plain string, so the status is observed here.
type rateLimitTransport struct {
	base    http.RoundTripper
	limited atomic.Int64
}

func (t *rateLimitTransport) RoundTrip(req *http.Request) (*http.Response, error) {
	resp, err := t.base.RoundTrip(req)
	if err == nil && resp.StatusCode == http.StatusTooManyRequests {
		t.limited.Add(1)
	}
	return resp, err
}

// finance-go keeps a single global client, installed once by NewYahoo.
var (
	yahooTransport = &rateLimitTransport{base: http.DefaultTransport}
	installClient  sync.Once
)

// NewYahoo returns a Yahoo provider. The timeout of the first call applies to
// every Yahoo provider of the process.
func NewYahoo(timeout time.Duration) *Yahoo {
	installClient.Do(func() {
		finance.SetHTTPClient(&http.Client{Transport: yahooTransport, Timeout: timeout})
	})
	return &Yahoo{get: equity.Get, transport: yahooTransport}
}

func (y *Yahoo) Quote(ctx context.Context, symbol string) (Quote, error) {
	e, err := y.equity(ctx, symbol)
	if err != nil {
		return Quote{}, err
	}
	return Quote{
		CurrentPrice:  decimal.NewFromFloat(e.RegularMarketPrice),
		PercentChange: decimal.NewFromFloat(e.RegularMarketChangePercent),
	}, nil
}

func (y *Yahoo) Profile(ctx context.Context, symbol string) (Profile, error) {
	e, err := y.equity(ctx, symbol)
	if err != nil {
		return Profile{}, err
	}
	name := e.LongName
	if name == "" {
		name = e.ShortName
	}
	return Profile{
		Name:                 name,
		MarketCapitalization: decimal.NewFromInt(e.MarketCap).Div(million),
	}, nil
}

func (y *Yahoo) equity(ctx context.Context, symbol string) (*finance.Equity, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	var before int64
	if y.transport != nil {
		before = y.transport.limited.Load()
	}
	e, err := y.get(symbol)
	if err != nil {
		// any 429 seen during the call counts: Yahoo throttles per client, not per symbol
		if y.transport != nil && y.transport.limited.Load() > before {
			return nil, fmt.Errorf("%w: yahoo %s", ErrRateLimited, symbol)
		}
		return nil, fmt.Errorf("yahoo %s: %w", symbol, err)
	}
	if e == nil {
		return nil, fmt.Errorf("yahoo %s: no such symbol", symbol)
	}
	return e, ctx.Err()
}
