package cmd

import (
	"encoding/json"
	"fmt"
	"os"
	"strings"

	"github.com/charmbracelet/glamour"
	"github.com/google/subcommands"
	"github.com/shopspring/decimal"

	"stock-glance/chart"
	"stock-glance/dashboard"
	"stock-glance/models"
	"stock-glance/watchlist"
)

// printMarkdown renders md for the terminal, falling back to the raw text.
func printMarkdown(md string) {
	r, err := glamour.NewTermRenderer(
		glamour.WithAutoStyle(),
		glamour.WithWordWrap(120),
	)
	if err == nil {
		var out string
		if out, err = r.Render(md); err == nil {
			fmt.Print(out)
			return
		}
	}
	fmt.Fprintf(os.Stderr, "Warning: markdown rendering failed: %v\n", err)
	fmt.Print(md)
}

// formatMarketCap abbreviates a currency amount: 2500000000000 is "$2.50T".
func formatMarketCap(v int64) string {
	units := []struct {
		suffix string
		scale  int64
	}{
		{"T", 1_000_000_000_000},
		{"B", 1_000_000_000},
		{"M", 1_000_000},
	}
	for _, u := range units {
		if v >= u.scale {
			return "$" + decimal.NewFromInt(v).Div(decimal.NewFromInt(u.scale)).StringFixed(2) + u.suffix
		}
	}
	return "$" + decimal.NewFromInt(v).String()
}

func formatChange(change decimal.Decimal) string {
	s := change.StringFixed(2) + "%"
	if change.Sign() > 0 {
		return "+" + s
	}
	return s
}

func orDash(s string) string {
	if s == "" {
		return "-"
	}
	return s
}

// QuotesMarkdown renders the watchlist table of view.
func QuotesMarkdown(view dashboard.View) string {
	var b strings.Builder
	b.WriteString("# Watchlist\n\n")

	direction := "▲"
	if view.Sort.Direction == watchlist.Descending {
		direction = "▼"
	}
	fmt.Fprintf(&b, "Sorted by **%s** %s", view.Sort.Key, direction)
	if strings.TrimSpace(view.SearchTerm) != "" {
		fmt.Fprintf(&b, ", filtered by `%s`", view.SearchTerm)
	}
	b.WriteString("\n\n")

	if len(view.Stocks) == 0 {
		b.WriteString("_No stocks found._\n")
		return b.String()
	}

	bookmarked := make(map[string]bool, len(view.Bookmarked))
	for _, s := range view.Bookmarked {
		bookmarked[s] = true
	}

	b.WriteString("| | Symbol | Company | Price | Change | Industry | Market Cap |\n")
	b.WriteString("|---|---|---|---:|---:|---|---:|\n")
	for _, s := range view.Stocks {
		mark := ""
		if bookmarked[s.Symbol] {
			mark = "★"
		}
		fmt.Fprintf(&b, "| %s | %s | %s | $%s | %s | %s | %s |\n",
			mark, s.Symbol, s.CompanyName, s.Price.StringFixed(2), formatChange(s.Change),
			orDash(s.Industry), formatMarketCap(s.MarketCap))
	}
	return b.String()
}

// ChartMarkdown renders the synthetic history of stock.
func ChartMarkdown(stock models.Stock, series chart.Series) string {
	var b strings.Builder
	fmt.Fprintf(&b, "# %s · %s\n\n", stock.Symbol, orDash(stock.CompanyName))
	fmt.Fprintf(&b, "Price **$%s** (%s), trend **%s**\n\n", stock.Price.StringFixed(2), formatChange(stock.Change), chart.Trend(stock))
	fmt.Fprintf(&b, "`%s`\n\n", sparkline(series))

	b.WriteString("| Date | Price |\n|---|---:|\n")
	for _, p := range series {
		fmt.Fprintf(&b, "| %s | $%s |\n", p.Date, p.Price.StringFixed(2))
	}
	b.WriteString("\n_Synthetic series for illustration, not historical data._\n")
	return b.String()
}

var sparks = []rune("▁▂▃▄▅▆▇█")

// sparkline draws series as one row of block characters.
func sparkline(series chart.Series) string {
	if len(series) == 0 {
		return ""
	}
	lo, hi := series[0].Price, series[0].Price
	for _, p := range series {
		lo = decimal.Min(lo, p.Price)
		hi = decimal.Max(hi, p.Price)
	}
	span := hi.Sub(lo)
	top := decimal.NewFromInt(int64(len(sparks) - 1))

	out := make([]rune, len(series))
	for i, p := range series {
		level := 0
		if span.Sign() > 0 {
			level = int(p.Price.Sub(lo).Div(span).Mul(top).Round(0).IntPart())
		}
		out[i] = sparks[level]
	}
	return string(out)
}

// BookmarksMarkdown renders the bookmark list.
func BookmarksMarkdown(items []models.Stock) string {
	var b strings.Builder
	b.WriteString("# Bookmarked Stocks\n\n")
	if len(items) == 0 {
		b.WriteString("_No bookmarked stocks yet._\n")
		return b.String()
	}
	for _, s := range items {
		fmt.Fprintf(&b, "- **%s** %s · $%s (%s)\n", s.Symbol, s.CompanyName, s.Price.StringFixed(2), formatChange(s.Change))
	}
	return b.String()
}

func printJSON(v interface{}) subcommands.ExitStatus {
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	if err := enc.Encode(v); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return subcommands.ExitFailure
	}
	return subcommands.ExitSuccess
}
