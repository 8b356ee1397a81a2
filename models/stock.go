// Package models defines the records shared by the watchlist, the bookmarks and the API.
package models

import (
	"github.com/shopspring/decimal"
)

func init() {
	// The UI and the persisted bookmarks use plain JSON numbers.
	decimal.MarshalJSONWithoutQuotes = true
}

// Stock is one row of market data, merged from a quote and a company profile.
//
// Symbol is the natural key: no two records of a snapshot share it.
type Stock struct {
	Symbol      string          `json:"symbol"`
	CompanyName string          `json:"companyName"`
	Price       decimal.Decimal `json:"price"`     // current trade price
	Change      decimal.Decimal `json:"change"`    // percent change, signed
	Industry    string          `json:"industry"`  // empty when unknown
	MarketCap   int64           `json:"marketCap"` // currency units
}

// Snapshot is the ordered result of one aggregation pass. It is replaced wholesale.
type Snapshot []Stock

// Lookup returns the record with the given symbol.
func (s Snapshot) Lookup(symbol string) (Stock, bool) {
	for _, stock := range s {
		if stock.Symbol == symbol {
			return stock, true
		}
	}
	return Stock{}, false
}

// Symbols returns the symbols of the snapshot, in order.
func (s Snapshot) Symbols() []string {
	symbols := make([]string, 0, len(s))
	for _, stock := range s {
		symbols = append(symbols, stock.Symbol)
	}
	return symbols
}
