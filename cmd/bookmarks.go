package cmd

import (
	"context"
	"flag"
	"fmt"
	"os"
	"strings"

	"github.com/google/subcommands"
)

type bookmarksCmd struct{}

func (*bookmarksCmd) Name() string     { return "bookmarks" }
func (*bookmarksCmd) Synopsis() string { return "list, add or remove bookmarked stocks" }
func (*bookmarksCmd) Usage() string {
	return `stockglance bookmarks [add|remove <symbol>]

  Without arguments, lists the bookmarked stocks.
  add bookmarks the current quote of a watchlist symbol.
  remove drops a bookmark.
`
}

func (*bookmarksCmd) SetFlags(f *flag.FlagSet) {}

func (c *bookmarksCmd) Execute(ctx context.Context, f *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	args := f.Args()
	if len(args) != 0 && len(args) != 2 {
		fmt.Fprintln(os.Stderr, "Error: expected no arguments or add|remove <symbol>")
		return subcommands.ExitUsageError
	}

	a, status := openApp(ctx)
	if a == nil {
		return status
	}
	defer a.Close()
	d := a.dashboard

	if len(args) == 0 {
		// listing does not need quotes
		d.LoadBookmarks(ctx)
		printMarkdown(BookmarksMarkdown(d.Bookmarks()))
		return subcommands.ExitSuccess
	}

	symbol := strings.ToUpper(args[1])
	switch args[0] {
	case "add":
		if err := a.refresh(ctx); err != nil {
			return subcommands.ExitFailure
		}
		stock, err := d.Bookmark(ctx, symbol)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			return subcommands.ExitFailure
		}
		fmt.Printf("Bookmarked %s (%s) at $%s\n", stock.Symbol, stock.CompanyName, stock.Price.StringFixed(2))
	case "remove":
		d.LoadBookmarks(ctx)
		if !d.IsBookmarked(symbol) {
			fmt.Printf("%s is not bookmarked\n", symbol)
			return subcommands.ExitSuccess
		}
		if err := d.RemoveBookmark(ctx, symbol); err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			return subcommands.ExitFailure
		}
		fmt.Printf("Removed %s\n", symbol)
	default:
		fmt.Fprintf(os.Stderr, "Error: unknown action %q\n", args[0])
		return subcommands.ExitUsageError
	}
	return subcommands.ExitSuccess
}
