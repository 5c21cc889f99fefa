// Package pagination provides parallel batch fetching for page-numbered
// GitHub list endpoints.
//
// GitHub's Link header names the last page via rel="last", and pages may be
// requested out of order with the page query parameter. This package fetches
// page 1 to learn the total, spawns a small worker pool for the rest, and
// reassembles everything in page order.
//
// Example usage:
//
//	fetcher := pagination.NewBatchFetcher(ghClient, pagination.DefaultConfig())
//	items, err := fetcher.FetchAll(ctx, "/repos/octocat/hello/code-scanning/alerts", query)
//
// For strictly sequential accumulation (one request per page, server-driven
// next links), use Client.DoPaginated instead. The batch fetcher trades that
// simplicity for throughput on large result sets; any page failure aborts
// the whole fetch, so callers never see a truncated result.
package pagination
