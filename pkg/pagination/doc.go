// Package pagination collects every published file of an application by
// following QueryFiles continuation cursors.
//
// The API declares a grand total on every page and hands out an opaque
// cursor for the next one. This package walks those cursors one request at
// a time and checks that later pages stay consistent with the first.
//
// Example usage:
//
//	steam, _ := client.New(client.DefaultConfig())
//	collector := pagination.NewCollector(steam, reporter, clock.New(), logger)
//	result, err := collector.Collect(ctx, apiKey, 233610)
//
// The collector:
//   - Fetches the first page with cursor "*" and validates its shape
//   - Follows next_cursor while records keep arriving and the total is not reached
//   - Fails when an empty page declares a different total than the first
//   - Reports progress after every page and a summary when the run ends
//
// A run that stops short of the declared total is still a success;
// Result.Complete tells the caller whether everything arrived.
package pagination
