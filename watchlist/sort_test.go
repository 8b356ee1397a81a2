package watchlist

import (
	"testing"

	"stock-glance/models"
)

func TestSortByKey(t *testing.T) {
	records := testSnapshot()
	tests := []struct {
		spec SortSpec
		want string
	}{
		{SortSpec{SortBySymbol, Ascending}, "AAPL,GOOGL,MSFT,PEP"},
		{SortSpec{SortBySymbol, Descending}, "PEP,MSFT,GOOGL,AAPL"},
		{SortSpec{SortByCompanyName, Ascending}, "GOOGL,AAPL,MSFT,PEP"},
		{SortSpec{SortByPrice, Ascending}, "GOOGL,AAPL,PEP,MSFT"},
		{SortSpec{SortByChange, Ascending}, "MSFT,PEP,GOOGL,AAPL"},
		{SortSpec{SortByChange, Descending}, "AAPL,GOOGL,PEP,MSFT"},
	}
	for _, tt := range tests {
		if got := symbols(Sort(records, tt.spec)); got != tt.want {
			t.Errorf("Sort(%v) = %s, want %s", tt.spec, got, tt.want)
		}
	}
}

func TestSortPriceDescendingIsReverseOfAscending(t *testing.T) {
	records := testSnapshot()
	asc := Sort(records, SortSpec{SortByPrice, Ascending})
	desc := Sort(records, SortSpec{SortByPrice, Descending})
	for i := range asc {
		if asc[i].Symbol != desc[len(desc)-1-i].Symbol {
			t.Fatalf("Descending %s is not the reverse of ascending %s", symbols(desc), symbols(asc))
		}
	}
}

func TestSortIsStable(t *testing.T) {
	records := []models.Stock{
		stock("D", "Delta", "10", "1"),
		stock("A", "Alpha", "20", "1"),
		stock("C", "Charlie", "10", "1"),
		stock("B", "Bravo", "20", "1"),
	}
	if got := symbols(Sort(records, SortSpec{SortByPrice, Ascending})); got != "D,C,A,B" {
		t.Errorf("Expected stable ascending D,C,A,B, got %s", got)
	}
	if got := symbols(Sort(records, SortSpec{SortByPrice, Descending})); got != "A,B,D,C" {
		t.Errorf("Expected stable descending A,B,D,C, got %s", got)
	}
	if got := symbols(Sort(records, SortSpec{SortByChange, Descending})); got != "D,A,C,B" {
		t.Errorf("Equal keys must keep snapshot order, got %s", got)
	}
}

func TestSortDoesNotMutateInput(t *testing.T) {
	records := testSnapshot()
	Sort(records, SortSpec{SortByPrice, Descending})
	if got := symbols(records); got != "AAPL,MSFT,GOOGL,PEP" {
		t.Errorf("Input was modified: %s", got)
	}
}

func TestToggle(t *testing.T) {
	spec := DefaultSort
	if spec != (SortSpec{SortBySymbol, Ascending}) {
		t.Fatalf("Unexpected default %v", spec)
	}

	spec = spec.Toggle(SortBySymbol)
	if spec != (SortSpec{SortBySymbol, Descending}) {
		t.Errorf("Same key should flip to descending, got %v", spec)
	}
	spec = spec.Toggle(SortBySymbol)
	if spec != (SortSpec{SortBySymbol, Ascending}) {
		t.Errorf("Same key should flip back to ascending, got %v", spec)
	}

	spec = spec.Toggle(SortBySymbol).Toggle(SortByPrice)
	if spec != (SortSpec{SortByPrice, Ascending}) {
		t.Errorf("A new key always starts ascending, got %v", spec)
	}
}

func TestParseSortKeyAndDirection(t *testing.T) {
	for in, want := range map[string]SortKey{
		"symbol": SortBySymbol, "companyName": SortByCompanyName, "COMPANY": SortByCompanyName,
		"price": SortByPrice, " change ": SortByChange,
	} {
		got, err := ParseSortKey(in)
		if err != nil || got != want {
			t.Errorf("ParseSortKey(%q) = %v, %v; want %v", in, got, err, want)
		}
	}
	if _, err := ParseSortKey("industry"); err == nil {
		t.Error("Expected an error for an unsortable column")
	}

	if d, err := ParseDirection("desc"); err != nil || d != Descending {
		t.Errorf("ParseDirection(desc) = %v, %v", d, err)
	}
	if _, err := ParseDirection("sideways"); err == nil {
		t.Error("Expected an error for an invalid direction")
	}
}
