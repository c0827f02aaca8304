// Package cache provides a Redis-backed cache for decoded QueryFiles pages.
//
// Pages are stored under a deterministic key derived from the request
// endpoint and its query parameters. The API key is never part of a cache
// key, so runs with different keys for the same application share entries.
//
// # Basic Usage
//
//	redisClient := redis.NewClient(&redis.Options{Addr: "localhost:6379"})
//	manager := cache.NewManager(redisClient, 5*time.Minute)
//
//	key := cache.CacheKey{
//		Endpoint:    "/IPublishedFileService/QueryFiles/v1/",
//		QueryParams: url.Values{"appid": []string{"233610"}, "cursor": []string{"*"}},
//	}
//
//	page, err := manager.GetPage(ctx, key)
//	if errors.Is(err, cache.ErrCacheMiss) {
//		// fetch from the API, then manager.SetPage(ctx, key, page)
//	}
//
// Only well-formed pages (numeric total, array of records) are cached, so a
// malformed response is always re-requested.
//
// Entries are shared between runs for their whole TTL. If items are
// published meanwhile, a run can combine a cached page with fresh ones that
// declare a different total, and the collector then stops with a total
// mismatch. Keep the TTL short, or delete the entries before rerunning.
// Expiry is judged by the manager's clock (see WithClock).
//
// # Metrics
//
//   - workshop_cache_hits_total{layer="redis"} - Cache hits
//   - workshop_cache_misses_total - Cache misses
//   - workshop_cache_bytes_total{operation} - Bytes read from and written to the cache
//   - workshop_cache_errors_total{operation} - Cache operation errors
package cache
