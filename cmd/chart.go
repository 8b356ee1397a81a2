package cmd

import (
	"context"
	"flag"
	"fmt"
	"os"
	"strings"

	"github.com/google/subcommands"

	"stock-glance/chart"
)

type chartCmd struct {
	json bool
}

func (*chartCmd) Name() string     { return "chart" }
func (*chartCmd) Synopsis() string { return "display a 30 day synthetic price series" }
func (*chartCmd) Usage() string {
	return `stockglance chart [-json] <symbol>

  Displays a synthetic 30 day series ending today for a watchlist or
  bookmarked symbol. The series is regenerated on every run.
`
}

func (c *chartCmd) SetFlags(f *flag.FlagSet) {
	f.BoolVar(&c.json, "json", false, "print JSON instead of a table")
}

func (c *chartCmd) Execute(ctx context.Context, f *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	if f.NArg() != 1 {
		fmt.Fprintln(os.Stderr, "Error: chart takes exactly one symbol")
		return subcommands.ExitUsageError
	}
	symbol := strings.ToUpper(f.Arg(0))

	a, status := openApp(ctx)
	if a == nil {
		return status
	}
	defer a.Close()

	// a bookmarked symbol can still be charted when the fetch fails
	fetchErr := a.refresh(ctx)
	stock, series, err := a.dashboard.Chart(symbol)
	if err != nil {
		if fetchErr == nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		}
		return subcommands.ExitFailure
	}

	if c.json {
		return printJSON(struct {
			Symbol  string       `json:"symbol"`
			Trend   string       `json:"trend"`
			History chart.Series `json:"history"`
		}{stock.Symbol, chart.Trend(stock), series})
	}
	printMarkdown(ChartMarkdown(stock, series))
	return subcommands.ExitSuccess
}
