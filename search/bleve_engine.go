package search

import (
	"fmt"
	"log"
	"sort"
	"strings"
	"sync"

	"github.com/blevesearch/bleve/v2"
	"github.com/blevesearch/bleve/v2/mapping"

	"stock-glance/models"
)

// document is what gets indexed for a record; prices are not searchable.
type document struct {
	Symbol   string `json:"symbol"`
	Name     string `json:"name"`
	Industry string `json:"industry"`
}

// BleveEngine is an in-memory Bleve index over the latest snapshot.
// Each Index call builds a fresh index and swaps it in.
type BleveEngine struct {
	mu     sync.RWMutex
	index  bleve.Index
	stocks map[string]models.Stock
	maxCap int64
}

func NewBleveEngine(stocks models.Snapshot) (*BleveEngine, error) {
	e := &BleveEngine{}
	if err := e.Index(stocks); err != nil {
		return nil, err
	}
	return e, nil
}

func buildIndexMapping() mapping.IndexMapping {
	indexMapping := bleve.NewIndexMapping()
	stockMapping := bleve.NewDocumentMapping()

	textFieldMapping := bleve.NewTextFieldMapping()
	textFieldMapping.Store = false
	textFieldMapping.Index = true
	stockMapping.AddFieldMappingsAt("symbol", textFieldMapping)
	stockMapping.AddFieldMappingsAt("name", textFieldMapping)
	stockMapping.AddFieldMappingsAt("industry", textFieldMapping)

	indexMapping.AddDocumentMapping("_default", stockMapping)
	return indexMapping
}

func (e *BleveEngine) Index(snapshot models.Snapshot) error {
	index, err := bleve.NewMemOnly(buildIndexMapping())
	if err != nil {
		return fmt.Errorf("failed to create index: %w", err)
	}

	stocks := make(map[string]models.Stock, len(snapshot))
	var maxCap int64
	batch := index.NewBatch()
	for _, stock := range snapshot {
		doc := document{Symbol: stock.Symbol, Name: stock.CompanyName, Industry: stock.Industry}
		if err := batch.Index(stock.Symbol, doc); err != nil {
			index.Close()
			return fmt.Errorf("failed to add %s to batch: %w", stock.Symbol, err)
		}
		stocks[stock.Symbol] = stock
		if stock.MarketCap > maxCap {
			maxCap = stock.MarketCap
		}
	}
	if batch.Size() > 0 {
		if err := index.Batch(batch); err != nil {
			index.Close()
			return fmt.Errorf("failed to execute batch: %w", err)
		}
	}

	e.mu.Lock()
	old := e.index
	e.index, e.stocks, e.maxCap = index, stocks, maxCap
	e.mu.Unlock()

	if old != nil {
		old.Close()
	}
	log.Printf("Indexed %d symbols", len(snapshot))
	return nil
}

// popularity scales market cap into [0, 1] against the largest indexed company.
func (e *BleveEngine) popularity(stock models.Stock) float64 {
	if e.maxCap <= 0 {
		return 0
	}
	return float64(stock.MarketCap) / float64(e.maxCap)
}

// Search ranks records by match type, then by market cap.
func (e *BleveEngine) Search(query string) []models.Stock {
	q := strings.ToLower(strings.TrimSpace(query))
	if q == "" {
		return nil
	}

	exactQuery := bleve.NewTermQuery(q)
	exactQuery.SetField("symbol")
	exactQuery.SetBoost(10.0)

	prefixQuery := bleve.NewPrefixQuery(q)
	prefixQuery.SetField("symbol")
	prefixQuery.SetBoost(5.0)

	nameMatchQuery := bleve.NewMatchQuery(query)
	nameMatchQuery.SetField("name")
	nameMatchQuery.SetBoost(3.0)

	wildcardSymbol := bleve.NewWildcardQuery("*" + q + "*")
	wildcardSymbol.SetField("symbol")
	wildcardSymbol.SetBoost(2.0)

	wildcardName := bleve.NewWildcardQuery("*" + q + "*")
	wildcardName.SetField("name")
	wildcardName.SetBoost(1.5)

	industryQuery := bleve.NewMatchQuery(query)
	industryQuery.SetField("industry")

	searchQuery := bleve.NewDisjunctionQuery(
		exactQuery,
		prefixQuery,
		nameMatchQuery,
		wildcardSymbol,
		wildcardName,
		industryQuery,
	)

	e.mu.RLock()
	defer e.mu.RUnlock()
	if e.index == nil {
		return nil
	}

	searchRequest := bleve.NewSearchRequest(searchQuery)
	searchRequest.Size = len(e.stocks) + 1

	searchResults, err := e.index.Search(searchRequest)
	if err != nil {
		log.Printf("Search error: %v", err)
		return nil
	}

	type scoredStock struct {
		stock models.Stock
		score float64
	}
	scored := make([]scoredStock, 0, len(searchResults.Hits))
	for _, hit := range searchResults.Hits {
		stock, ok := e.stocks[hit.ID]
		if !ok {
			continue
		}
		// relevance first, popularity as a tie breaker
		score := hit.Score*0.7 + e.popularity(stock)*0.3
		scored = append(scored, scoredStock{stock: stock, score: score})
	}
	sort.SliceStable(scored, func(i, j int) bool { return scored[i].score > scored[j].score })

	results := make([]models.Stock, len(scored))
	for i, s := range scored {
		results[i] = s.stock
	}
	return results
}

func (e *BleveEngine) GetBySymbol(symbol string) *models.Stock {
	e.mu.RLock()
	defer e.mu.RUnlock()
	for key, stock := range e.stocks {
		if strings.EqualFold(key, symbol) {
			return &stock
		}
	}
	return nil
}

func (e *BleveEngine) Close() error {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.index == nil {
		return nil
	}
	err := e.index.Close()
	e.index = nil
	return err
}
