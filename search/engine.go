// Package search indexes the current watchlist snapshot for symbol lookups.
package search

import (
	"strings"

	"stock-glance/models"
)

type SearchEngine interface {
	// Index replaces the indexed records with snapshot.
	Index(snapshot models.Snapshot) error
	Search(query string) []models.Stock
	GetBySymbol(symbol string) *models.Stock
}

// InMemoryEngine matches by symbol prefix or by substring of the company name or industry.
type InMemoryEngine struct {
	stocks models.Snapshot
}

func NewInMemoryEngine(stocks models.Snapshot) *InMemoryEngine {
	return &InMemoryEngine{stocks: stocks}
}

func (e *InMemoryEngine) Index(snapshot models.Snapshot) error {
	e.stocks = snapshot
	return nil
}

func (e *InMemoryEngine) Search(query string) []models.Stock {
	q := strings.ToLower(strings.TrimSpace(query))
	if q == "" {
		return nil
	}
	var results []models.Stock
	for _, stock := range e.stocks {
		if strings.HasPrefix(strings.ToLower(stock.Symbol), q) ||
			strings.Contains(strings.ToLower(stock.CompanyName), q) ||
			strings.Contains(strings.ToLower(stock.Industry), q) {
			results = append(results, stock)
		}
	}
	return results
}

func (e *InMemoryEngine) GetBySymbol(symbol string) *models.Stock {
	for _, stock := range e.stocks {
		if strings.EqualFold(stock.Symbol, symbol) {
			return &stock
		}
	}
	return nil
}
