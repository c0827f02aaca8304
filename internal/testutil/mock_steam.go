// Package testutil provides testing utilities for the workshop collector.
package testutil

import (
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"net/url"
	"sync"
)

// QueryFilesPath is the path served by MockSteam.
const QueryFilesPath = "/IPublishedFileService/QueryFiles/v1/"

// MockSteam is a configurable stand-in for the QueryFiles endpoint. Pages
// are looked up by the request's cursor parameter.
type MockSteam struct {
	server *httptest.Server
	mu     sync.Mutex
	pages  map[string]string

	failNext   int
	failStatus int
	requests   []url.Values
}

// NewMockSteam starts a mock server.
func NewMockSteam() *MockSteam {
	mock := &MockSteam{
		pages: make(map[string]string),
	}
	mock.server = httptest.NewServer(http.HandlerFunc(mock.handle))
	return mock
}

func (m *MockSteam) handle(w http.ResponseWriter, r *http.Request) {
	m.mu.Lock()
	m.requests = append(m.requests, r.URL.Query())
	failing := m.failNext > 0
	if failing {
		m.failNext--
	}
	status := m.failStatus
	body, found := m.pages[r.URL.Query().Get("cursor")]
	m.mu.Unlock()

	if r.URL.Path != QueryFilesPath {
		http.NotFound(w, r)
		return
	}
	if failing {
		w.WriteHeader(status)
		fmt.Fprint(w, `{"error":"injected failure"}`)
		return
	}
	if !found {
		http.Error(w, "unknown cursor", http.StatusNotFound)
		return
	}

	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(http.StatusOK)
	fmt.Fprint(w, body)
}

// URL returns the full QueryFiles URL of the mock server.
func (m *MockSteam) URL() string {
	return m.server.URL + QueryFilesPath
}

// Close shuts down the mock server.
func (m *MockSteam) Close() {
	m.server.Close()
}

// SetPage serves a well-formed page for cursor.
func (m *MockSteam) SetPage(cursor string, total int64, records []string, nextCursor string) {
	m.SetRawPage(cursor, PageBody(total, records, nextCursor))
}

// SetRawPage serves body verbatim for cursor.
func (m *MockSteam) SetRawPage(cursor, body string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.pages[cursor] = body
}

// FailNext makes the next n requests answer with status.
func (m *MockSteam) FailNext(n, status int) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.failNext = n
	m.failStatus = status
}

// RequestCount returns the number of requests received.
func (m *MockSteam) RequestCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.requests)
}

// Requests returns the decoded query of every request, in order.
func (m *MockSteam) Requests() []url.Values {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]url.Values, len(m.requests))
	copy(out, m.requests)
	return out
}

// PageBody renders a QueryFiles response. An empty nextCursor is omitted.
func PageBody(total int64, records []string, nextCursor string) string {
	raw := make([]json.RawMessage, 0, len(records))
	for _, r := range records {
		raw = append(raw, json.RawMessage(r))
	}

	page := map[string]any{
		"total":                total,
		"publishedfiledetails": raw,
	}
	if nextCursor != "" {
		page["next_cursor"] = nextCursor
	}

	body, err := json.Marshal(map[string]any{"response": page})
	if err != nil {
		panic(fmt.Sprintf("testutil: render page: %v", err))
	}
	return string(body)
}
