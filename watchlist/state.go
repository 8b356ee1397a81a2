// Package watchlist holds the watchlist snapshot and derives the filtered,
// sorted view shown by the table.
package watchlist

import (
	"errors"
	"fmt"
	"strings"

	"stock-glance/models"
)

// ErrSelectionInvalid is returned when selecting a symbol absent from the snapshot.
var ErrSelectionInvalid = errors.New("symbol not in the current snapshot")

// State owns one snapshot, one search term, the selection and the sort spec.
//
// State is not safe for concurrent use; the dashboard serialises access.
type State struct {
	snapshot models.Snapshot
	term     string
	selected string // symbol, "" when nothing is selected
	sort     SortSpec
}

// New returns an empty state with the default sort.
func New() *State {
	return &State{sort: DefaultSort}
}

// SetSnapshot replaces the snapshot and selects its first record, if any.
func (s *State) SetSnapshot(snapshot models.Snapshot) {
	s.snapshot = snapshot
	s.selected = ""
	if len(snapshot) > 0 {
		s.selected = snapshot[0].Symbol
	}
}

// Snapshot returns the current snapshot.
func (s *State) Snapshot() models.Snapshot { return s.snapshot }

// SetSearchTerm sets the search term.
func (s *State) SetSearchTerm(term string) { s.term = term }

// SearchTerm returns the search term.
func (s *State) SearchTerm() string { return s.term }

// FilteredView returns the records whose symbol or company name contains the
// search term, case-insensitively, in snapshot order.
func (s *State) FilteredView() []models.Stock {
	return Filter(s.snapshot, s.term)
}

// View returns the filtered view sorted by the active sort spec.
func (s *State) View() []models.Stock {
	return Sort(s.FilteredView(), s.sort)
}

// Filter keeps the records matching term. An empty or blank term keeps them all.
func Filter(records []models.Stock, term string) []models.Stock {
	if strings.TrimSpace(term) == "" {
		return append([]models.Stock(nil), records...)
	}
	needle := strings.ToLower(term)
	filtered := make([]models.Stock, 0, len(records))
	for _, stock := range records {
		if strings.Contains(strings.ToLower(stock.Symbol), needle) ||
			strings.Contains(strings.ToLower(stock.CompanyName), needle) {
			filtered = append(filtered, stock)
		}
	}
	return filtered
}

// Select selects symbol. The selection is unchanged when symbol is not in the snapshot.
func (s *State) Select(symbol string) error {
	if _, ok := s.snapshot.Lookup(symbol); !ok {
		return fmt.Errorf("%w: %s", ErrSelectionInvalid, symbol)
	}
	s.selected = symbol
	return nil
}

// ClearSelection removes the selection.
func (s *State) ClearSelection() { s.selected = "" }

// Selected resolves the selection against the current snapshot.
func (s *State) Selected() (models.Stock, bool) {
	if s.selected == "" {
		return models.Stock{}, false
	}
	return s.snapshot.Lookup(s.selected)
}

// Lookup finds a record of the current snapshot.
func (s *State) Lookup(symbol string) (models.Stock, bool) {
	return s.snapshot.Lookup(symbol)
}

// RequestSort applies the toggle policy for key and returns the new spec.
func (s *State) RequestSort(key SortKey) SortSpec {
	s.sort = s.sort.Toggle(key)
	return s.sort
}

// SetSort forces the sort spec.
func (s *State) SetSort(spec SortSpec) { s.sort = spec }

// SortSpec returns the active sort spec.
func (s *State) SortSpec() SortSpec { return s.sort }
