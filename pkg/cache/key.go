package cache

import (
	"fmt"
	"net/url"
	"sort"
	"strings"
)

// credentialParams are query parameters that never become part of a key.
var credentialParams = map[string]bool{
	"key": true,
}

// CacheKey represents a unique identifier for a cached page.
type CacheKey struct {
	// Endpoint is the API path (e.g., "/IPublishedFileService/QueryFiles/v1/")
	Endpoint string

	// QueryParams are the request query parameters (e.g., {"cursor": "*"})
	QueryParams url.Values
}

// String generates a deterministic cache key string.
// Format: workshop:endpoint:query1=val1:query2=val2
//
// Example:
//
//	workshop:IPublishedFileService/QueryFiles/v1:appid=233610:cursor=*:numperpage=100
func (k CacheKey) String() string {
	parts := []string{"workshop"}

	// Add endpoint (normalize path)
	endpoint := strings.Trim(k.Endpoint, "/")
	if endpoint != "" {
		parts = append(parts, endpoint)
	}

	// Add query params (sorted for determinism)
	if len(k.QueryParams) > 0 {
		queryKeys := make([]string, 0, len(k.QueryParams))
		for key := range k.QueryParams {
			if credentialParams[key] {
				continue
			}
			queryKeys = append(queryKeys, key)
		}
		sort.Strings(queryKeys)

		for _, key := range queryKeys {
			parts = append(parts, fmt.Sprintf("%s=%s", key, k.QueryParams.Get(key)))
		}
	}

	return strings.Join(parts, ":")
}
