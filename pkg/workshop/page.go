// Package workshop defines the published-file data model returned by the
// Steam IPublishedFileService/QueryFiles endpoint.
package workshop

import (
	"bytes"
	"encoding/json"
	"fmt"
	"math"
	"time"
)

// InitialCursor is the cursor sent with the first request of every run.
const InitialCursor = "*"

// maxTotal is 2^63, the first float64 outside the int64 range.
const maxTotal = float64(1 << 63)

// Record is one published file detail. The bytes are kept exactly as the
// API returned them; nothing is validated or de-duplicated.
type Record = json.RawMessage

// Envelope is the top-level body of a QueryFiles response.
type Envelope struct {
	Response Page `json:"response"`
}

// Page is one decoded QueryFiles response.
//
// Total and Records stay raw so the collector can tell a malformed page
// (missing, null or wrongly typed fields) apart from an empty one.
type Page struct {
	Total      json.RawMessage `json:"total"`
	Records    json.RawMessage `json:"publishedfiledetails"`
	NextCursor string          `json:"next_cursor"`
}

// NewPage builds a well-formed page.
func NewPage(total int64, records []Record, nextCursor string) *Page {
	if records == nil {
		records = []Record{}
	}
	raw, err := json.Marshal(records)
	if err != nil {
		// Records are already JSON; this only fails for invalid input.
		panic(fmt.Sprintf("workshop: marshal records: %v", err))
	}
	return &Page{
		Total:      json.RawMessage(fmt.Sprintf("%d", total)),
		Records:    raw,
		NextCursor: nextCursor,
	}
}

// TotalCount returns the declared grand total. ok is false when the field is
// absent, null, not a JSON number, or not a non-negative integer that fits
// in an int64.
func (p *Page) TotalCount() (total int64, ok bool) {
	raw := bytes.TrimSpace(p.Total)
	if len(raw) == 0 {
		return 0, false
	}

	dec := json.NewDecoder(bytes.NewReader(raw))
	dec.UseNumber()
	var v any
	if err := dec.Decode(&v); err != nil {
		return 0, false
	}
	n, isNumber := v.(json.Number)
	if !isNumber {
		return 0, false
	}
	if i, err := n.Int64(); err == nil {
		return i, i >= 0
	}
	f, err := n.Float64()
	if err != nil || f < 0 || f >= maxTotal || f != math.Trunc(f) {
		return 0, false
	}
	return int64(f), true
}

// Items returns the page's records in API order. ok is false when the field
// is absent, null or not a JSON array.
func (p *Page) Items() (items []Record, ok bool) {
	raw := bytes.TrimSpace(p.Records)
	if len(raw) == 0 || raw[0] != '[' {
		return nil, false
	}
	if err := json.Unmarshal(raw, &items); err != nil {
		return nil, false
	}
	if items == nil {
		items = []Record{}
	}
	return items, true
}

// HasMore reports whether the API issued a continuation cursor.
func (p *Page) HasMore() bool {
	return p.NextCursor != ""
}

// Result is the outcome of one successful collection run.
type Result struct {
	// Records holds every record in page order, then in-page order.
	Records []Record

	// Total is the grand total declared by the run's first page.
	Total int64

	// Elapsed covers the first request through the last page.
	Elapsed time.Duration
}

// Collected returns the number of accumulated records.
func (r *Result) Collected() int64 {
	return int64(len(r.Records))
}

// Complete reports whether the number of records matches the declared total.
func (r *Result) Complete() bool {
	return r.Collected() == r.Total
}
