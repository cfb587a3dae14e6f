// Command listgo-client is a terminal demo client: it accumulates pages
// until the list is exhausted (or a page cap is hit) and can exercise the
// optimistic reorder/selection paths.
package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"strings"
	"time"

	"github.com/hupe1980/listgo"
	"github.com/hupe1980/listgo/client"
	"github.com/hupe1980/listgo/core"
)

func main() {
	if err := mainInner(); err != nil {
		slog.Error(err.Error())
		os.Exit(1)
	}
}

func mainInner() error {
	urlVar := flag.String("url", "http://localhost:4000", "the server base url")
	searchVar := flag.String("search", "", "search term to filter by")
	limitVar := flag.Int("limit", 20, "page size")
	maxPagesVar := flag.Int("max-pages", 10, "stop after this many pages (0 = until exhausted)")
	toggleVar := flag.Uint64("toggle", 0, "toggle selection of this item id (0 disables)")
	reorderVar := flag.String("reorder", "", "move an item, formatted as oldIndex:newIndex")
	debugVar := flag.Bool("debug", false, "enable debug logging")
	flag.Parse()

	level := slog.LevelInfo
	if *debugVar {
		level = slog.LevelDebug
	}
	logger := listgo.NewTextLogger(level)

	fetcher, err := client.NewHTTPFetcher(*urlVar)
	if err != nil {
		return err
	}
	acc := client.NewAccumulator(fetcher, func(o *client.AccumulatorOptions) {
		o.PageSize = *limitVar
		o.Logger = logger
		o.OnCommitError = func(err error) {
			logger.Error("commit failed", "error", err)
		}
	})
	defer acc.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Minute)
	defer cancel()

	if err := acc.SyncSelection(ctx); err != nil {
		return fmt.Errorf("sync selection: %w", err)
	}
	logger.Info("selection synced", "selected", len(acc.Selected()))

	if *searchVar != "" {
		acc.SetSearch(*searchVar)
	}

	pages := 0
	for acc.HasMore() {
		if *maxPagesVar > 0 && pages >= *maxPagesVar {
			break
		}
		loaded, err := acc.LoadNext(ctx)
		if err != nil {
			return fmt.Errorf("load page: %w", err)
		}
		if !loaded {
			break
		}
		pages++
	}
	logger.Info("accumulated", "pages", pages, "items", acc.Len(), "state", acc.State().String())

	for i, it := range acc.Items() {
		if i >= 5 {
			fmt.Println("...")
			break
		}
		marker := " "
		if acc.IsSelected(it.ID) {
			marker = "*"
		}
		fmt.Printf("%s %d\t%s\n", marker, it.ID, it.Name)
	}

	if *toggleVar != 0 {
		selected := acc.Toggle(core.ItemID(*toggleVar))
		logger.Info("toggled", "id", *toggleVar, "selected", selected)
	}

	if *reorderVar != "" {
		var oldIndex, newIndex int
		if _, err := fmt.Sscanf(strings.TrimSpace(*reorderVar), "%d:%d", &oldIndex, &newIndex); err != nil {
			return fmt.Errorf("parse -reorder: %w", err)
		}
		if err := acc.Reorder(oldIndex, newIndex); err != nil {
			return fmt.Errorf("reorder: %w", err)
		}
		logger.Info("reordered", "old", oldIndex, "new", newIndex)
	}

	// Close flushes pending commits; report divergence if any remain.
	acc.Close()
	if acc.Unsynced() {
		logger.Warn("local state is unsynced with the server")
	}
	return nil
}
