// Package dlsite fetches release metadata for DLsite works.
//
// Metadata comes from two places:
//
//  1. The work page, scraped with regular expressions for the name,
//     circle, cover, voice actors, genres and sale date
//  2. The chobit sample-player API, which often has a cleaner title and a
//     better cover image
//
// # Fetching
//
//	client := http.NewClient(cfg, log.Logger)
//	fetcher := dlsite.NewFetcher(client, dlsite.WithLogger(log.Logger))
//
//	rel, err := fetcher.Fetch(ctx, "RJ123456")
//	var perr *dlsite.ParseError
//	switch {
//	case errors.As(err, &perr):
//	    // the page layout changed; do not retry
//	case errors.Is(err, dlsite.ErrNotFound):
//	    // wrong catalog ID
//	}
//
// # Catalog IDs
//
// WorkNo finds IDs like "RJ123456" or "rj01234567" in directory names:
//
//	id, ok := dlsite.WorkNo("[Circle] RJ123456 Title") // "RJ123456", true
package dlsite
