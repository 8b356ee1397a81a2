package watchlist

import (
	"fmt"
	"sort"
	"strings"

	"stock-glance/models"
)

// SortKey is a sortable column of the watchlist table.
type SortKey string

const (
	SortBySymbol      SortKey = "symbol"
	SortByCompanyName SortKey = "companyName"
	SortByPrice       SortKey = "price"
	SortByChange      SortKey = "change"
)

// Direction is a sort direction.
type Direction string

const (
	Ascending  Direction = "ascending"
	Descending Direction = "descending"
)

// SortSpec is the active sort of the table.
type SortSpec struct {
	Key       SortKey   `json:"key"`
	Direction Direction `json:"direction"`
}

// DefaultSort is the sort of a freshly opened table.
var DefaultSort = SortSpec{Key: SortBySymbol, Direction: Ascending}

// Toggle returns the sort order after the user asked to sort by key: the same key
// flips the direction, a new key starts ascending.
func (s SortSpec) Toggle(key SortKey) SortSpec {
	if s.Key == key && s.Direction == Ascending {
		return SortSpec{Key: key, Direction: Descending}
	}
	return SortSpec{Key: key, Direction: Ascending}
}

// ParseSortKey accepts the column names used by the API, case-insensitively.
func ParseSortKey(str string) (SortKey, error) {
	switch strings.ToLower(strings.TrimSpace(str)) {
	case "symbol":
		return SortBySymbol, nil
	case "companyname", "company", "name":
		return SortByCompanyName, nil
	case "price":
		return SortByPrice, nil
	case "change":
		return SortByChange, nil
	}
	return "", fmt.Errorf("invalid sort key %q", str)
}

// ParseDirection accepts ascending/asc and descending/desc.
func ParseDirection(str string) (Direction, error) {
	switch strings.ToLower(strings.TrimSpace(str)) {
	case "ascending", "asc":
		return Ascending, nil
	case "descending", "desc":
		return Descending, nil
	}
	return "", fmt.Errorf("invalid sort direction %q", str)
}

// compare orders a and b on key: negative when a sorts first.
func compare(a, b models.Stock, key SortKey) int {
	switch key {
	case SortByCompanyName:
		return strings.Compare(a.CompanyName, b.CompanyName)
	case SortByPrice:
		return a.Price.Cmp(b.Price)
	case SortByChange:
		return a.Change.Cmp(b.Change)
	default:
		return strings.Compare(a.Symbol, b.Symbol)
	}
}

// Sort returns a sorted copy of records. Records with equal keys keep their
// relative order; records is not modified.
func Sort(records []models.Stock, spec SortSpec) []models.Stock {
	sorted := make([]models.Stock, len(records))
	copy(sorted, records)

	sign := 1
	if spec.Direction == Descending {
		sign = -1
	}
	sort.SliceStable(sorted, func(i, j int) bool {
		return sign*compare(sorted[i], sorted[j], spec.Key) < 0
	})
	return sorted
}
