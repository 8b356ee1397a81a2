package cmd

import (
	"context"
	"flag"
	"fmt"
	"os"

	"github.com/google/subcommands"

	"stock-glance/watchlist"
)

type quotesCmd struct {
	query string
	sort  string
	desc  bool
	json  bool
}

func (*quotesCmd) Name() string     { return "quotes" }
func (*quotesCmd) Synopsis() string { return "display the watchlist quotes" }
func (*quotesCmd) Usage() string {
	return `stockglance quotes [-q <term>] [-sort <column>] [-desc]

  Fetches the watchlist and displays it as a table.
  Columns are symbol, companyName, price and change.
`
}

func (c *quotesCmd) SetFlags(f *flag.FlagSet) {
	f.StringVar(&c.query, "q", "", "only show symbols or company names containing this term")
	f.StringVar(&c.sort, "sort", "symbol", "column to sort by")
	f.BoolVar(&c.desc, "desc", false, "sort in descending order")
	f.BoolVar(&c.json, "json", false, "print JSON instead of a table")
}

func (c *quotesCmd) Execute(ctx context.Context, f *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	key, err := watchlist.ParseSortKey(c.sort)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return subcommands.ExitUsageError
	}
	spec := watchlist.SortSpec{Key: key, Direction: watchlist.Ascending}
	if c.desc {
		spec.Direction = watchlist.Descending
	}

	a, status := openApp(ctx)
	if a == nil {
		return status
	}
	defer a.Close()

	if err := a.refresh(ctx); err != nil {
		return subcommands.ExitFailure
	}
	a.dashboard.SetSearchTerm(c.query)
	a.dashboard.SetSort(spec)

	view := a.dashboard.View()
	if c.json {
		return printJSON(view)
	}
	printMarkdown(QuotesMarkdown(view))
	return subcommands.ExitSuccess
}
