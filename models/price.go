package models

import "github.com/shopspring/decimal"

// PricePoint is one point of a chart series.
type PricePoint struct {
	Date  string          `json:"date"` // YYYY-MM-DD
	Price decimal.Decimal `json:"price"`
}
