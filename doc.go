// Package listgo provides an embeddable list-state synchronization engine
// for Go.
//
// Listgo serves a large, searchable, reorderable, multi-selectable list to
// incrementally loading clients. The server side combines a fixed dataset,
// a free-text filter, a user-defined ordering override and a persistent
// selection set into one page of results per query; the client side
// accumulates pages, deduplicates them and reconciles optimistic local
// mutations against the server.
//
// # Quick Start
//
// Server side:
//
//	lg, _ := listgo.New(dataset.Generate(1_000_000))
//	page, _ := lg.Query(ctx, 0, 20, "item 42")
//	_ = lg.ReplaceOrder(ctx, []core.ItemID{3, 1})
//	_ = lg.ReplaceSelection(ctx, []core.ItemID{2, 5})
//
// Expose it over HTTP:
//
//	srv := httpapi.NewServer(lg, httpapi.WithAllowedOrigins("https://app.example.com"))
//	http.ListenAndServe(":4000", srv.Handler())
//
// Client side:
//
//	fetcher, _ := client.NewHTTPFetcher("http://localhost:4000")
//	acc := client.NewAccumulator(fetcher)
//	acc.LoadNext(ctx)        // fetch + merge the next page
//	acc.SetSearch("item 3")  // hard reset; in-flight results are discarded
//	acc.Toggle(42)           // optimistic; full set committed asynchronously
//	acc.Reorder(4, 0)        // optimistic; full ordering committed asynchronously
//
// # Ordering Model
//
// The ordering override is a complete or partial permutation of item ids,
// replaced wholesale on every commit. Items it names come first, in
// override order; everything else follows in natural (creation) order.
// The override is only consulted while no search filter is active.
//
// # Persistence
//
// Order and selection survive restarts via best-effort snapshots on a
// pluggable blobstore (local disk, MinIO, S3, S3+DynamoDB):
//
//	store, _ := blobstore.NewLocalStore("./data")
//	lg, _ := listgo.New(ds, listgo.WithStateStore(store))
//	_ = lg.Restore(ctx)
//	defer lg.Close() // takes a final snapshot
package listgo
