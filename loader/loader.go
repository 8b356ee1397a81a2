// Package loader reads watchlist files.
package loader

import (
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"strings"
)

// LoadSymbols reads the watchlist from a CSV file whose first column is the
// symbol. A header row starting with "Symbol" is skipped, as are blank rows,
// '#' comments and repeated symbols. Symbols are upper-cased.
func LoadSymbols(filePath string) ([]string, error) {
	f, err := os.Open(filePath)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	symbols, err := ReadSymbols(f)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", filePath, err)
	}
	return symbols, nil
}

// ReadSymbols is LoadSymbols over an already open reader.
func ReadSymbols(r io.Reader) ([]string, error) {
	reader := csv.NewReader(r)
	reader.Comment = '#'
	reader.FieldsPerRecord = -1
	reader.TrimLeadingSpace = true

	records, err := reader.ReadAll()
	if err != nil {
		return nil, err
	}

	// Simple check: if the first cell is "Symbol", skip it
	if len(records) > 0 && len(records[0]) > 0 && strings.EqualFold(strings.TrimSpace(records[0][0]), "Symbol") {
		records = records[1:]
	}

	var column []string
	for _, record := range records {
		if len(record) > 0 {
			column = append(column, record[0])
		}
	}

	symbols := NormalizeSymbols(column)
	if len(symbols) == 0 {
		return nil, fmt.Errorf("no symbols found")
	}
	return symbols, nil
}

// NormalizeSymbols trims and upper-cases symbols, dropping blanks and repeats.
// The first occurrence keeps its position.
func NormalizeSymbols(symbols []string) []string {
	var out []string
	seen := make(map[string]bool, len(symbols))
	for _, symbol := range symbols {
		symbol = strings.ToUpper(strings.TrimSpace(symbol))
		if symbol == "" || seen[symbol] {
			continue
		}
		seen[symbol] = true
		out = append(out, symbol)
	}
	return out
}
