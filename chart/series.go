// Package chart generates the synthetic price history drawn for a watchlist record.
//
// The history is fabricated: it starts from the price implied by the record's
// percent change and walks back to the current price with ±1% of noise per
// day. It is regenerated on every call and never stored, so two calls for the
// same record give different series. That is intended; tests that need a fixed
// series inject their own random source.
package chart

import (
	"math/rand"
	"time"

	"github.com/shopspring/decimal"

	"stock-glance/models"
)

// Days is the number of days covered before today; a series has Days+1 points.
const Days = 30

// DateFormat is the ISO calendar date layout of the points.
const DateFormat = "2006-01-02"

var (
	hundred = decimal.NewFromInt(100)
	one     = decimal.NewFromInt(1)
	days    = decimal.NewFromInt(Days)
)

// Series is a synthetic price history, oldest point first.
type Series []models.PricePoint

// Trend returns "up" for a record that gained or stayed flat, "down" otherwise.
func Trend(stock models.Stock) string {
	if stock.Change.Sign() >= 0 {
		return "up"
	}
	return "down"
}

// Generator builds series. The zero value is not usable, see New.
type Generator struct {
	// Rand supplies the noise; Float64 must be uniform in [0, 1).
	Rand interface{ Float64() float64 }
	// Now returns the current time; its calendar date is the last point.
	Now func() time.Time
}

// sharedRand draws from the math/rand top-level source, which is safe for
// concurrent use. A *rand.Rand is not.
type sharedRand struct{}

func (sharedRand) Float64() float64 { return rand.Float64() }

// New returns a generator drawing from the process-wide random source. It is
// safe for concurrent use.
func New() *Generator {
	return &Generator{Rand: sharedRand{}, Now: time.Now}
}

// Generate returns a fresh series for stock using the process-wide source.
func Generate(stock models.Stock) Series {
	return New().Generate(stock)
}

// BasePrice is the price implied Days days ago by the record's percent change.
func BasePrice(stock models.Stock) decimal.Decimal {
	return stock.Price.Sub(stock.Price.Mul(stock.Change.Div(hundred)))
}

// Generate returns Days+1 points ending today.
//
// For a point remaining days before today the price is
// base × (1 + noise + remaining/Days × change/100), rounded to cents, where
// noise is uniform in [-1%, 1%).
func (g *Generator) Generate(stock models.Stock) Series {
	base := BasePrice(stock)
	change := stock.Change.Div(hundred)
	now := g.Now()
	today := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, now.Location())

	series := make(Series, 0, Days+1)
	for remaining := Days; remaining >= 0; remaining-- {
		noise := decimal.NewFromFloat(g.Rand.Float64()*0.02 - 0.01)
		trend := decimal.NewFromInt(int64(remaining)).Div(days).Mul(change)
		price := base.Mul(one.Add(noise).Add(trend)).Round(2)

		series = append(series, models.PricePoint{
			Date:  today.AddDate(0, 0, -remaining).Format(DateFormat),
			Price: price,
		})
	}
	return series
}
