// Package searchd provides an embedded Go client for the searchd semantic
// catalog search engine backed by Redis with the search module.
//
// The client wires the full indexing and retrieval stack in-process over a
// Redis connection, so batch loaders and internal tools can ingest and search
// the catalog without going through the HTTP API.
//
//	client, _ := searchd.New(ctx,
//	    searchd.WithRedis("localhost:6379", ""),
//	    searchd.WithEmbedder(myEmbedder),
//	)
//	defer client.Close()
//
//	_ = client.Products().Upsert(ctx, searchd.Product{
//	    ID:       "p1",
//	    Name:     "Trail Backpack",
//	    Category: "Outdoor",
//	})
//	res, _ := client.Search(ctx, "hiking gear", 10)
package searchd
