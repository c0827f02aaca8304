package cache

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/Sternrassler/workshop-collector/pkg/workshop"
)

const (
	// DefaultTTL is used when the manager is created without a TTL
	DefaultTTL = 5 * time.Minute
)

// Cacheable reports whether a page may be stored. Malformed pages are never
// cached so the collector sees them fresh on every run.
func Cacheable(page *workshop.Page) bool {
	if page == nil {
		return false
	}
	if _, ok := page.TotalCount(); !ok {
		return false
	}
	_, ok := page.Items()
	return ok
}

// PageToEntry wraps a page in an entry that expires ttl after now.
func PageToEntry(page *workshop.Page, now time.Time, ttl time.Duration) (*CacheEntry, error) {
	if page == nil {
		return nil, fmt.Errorf("page cannot be nil")
	}

	data, err := json.Marshal(page)
	if err != nil {
		return nil, fmt.Errorf("marshal page: %w", err)
	}

	return &CacheEntry{
		Data:     data,
		Expires:  now.Add(ttl),
		CachedAt: now,
	}, nil
}

// EntryToPage decodes the page stored in entry.
func EntryToPage(entry *CacheEntry) (*workshop.Page, error) {
	if entry == nil {
		return nil, fmt.Errorf("cache entry cannot be nil")
	}

	var page workshop.Page
	if err := json.Unmarshal(entry.Data, &page); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidEntry, err)
	}
	return &page, nil
}
