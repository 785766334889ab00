// Package testutil provides testing utilities for the Jira data client.
package testutil

import (
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strconv"
	"sync"
)

// APIPrefix is the REST root served by MockJira.
const APIPrefix = "/rest/api/3"

// MockJiraResponse defines the behavior for a mock endpoint response.
type MockJiraResponse struct {
	StatusCode int
	Body       string
	Headers    map[string]string
}

// SearchOptions controls how MockJira serves /search.
type SearchOptions struct {
	// OmitTotal leaves "total" out of every page.
	OmitTotal bool

	// FailOnRequest makes the Nth search request (1-based) return FailWith.
	FailOnRequest int
	FailWith      MockJiraResponse

	// MaxPageSize caps maxResults like a real server would. Zero means no cap.
	MaxPageSize int
}

// SearchCall records the pagination parameters of one /search request.
type SearchCall struct {
	JQL        string
	StartAt    int
	MaxResults int
	Fields     string
}

// MockJira is a configurable mock Jira REST server for testing.
type MockJira struct {
	server   *httptest.Server
	mu       sync.RWMutex
	handlers map[string]http.HandlerFunc

	// Tracking
	RequestCount      int
	LastRequestHeader http.Header
	SearchCalls       []SearchCall
}

// NewMockJira creates a new mock Jira server.
func NewMockJira() *MockJira {
	mock := &MockJira{
		handlers: make(map[string]http.HandlerFunc),
	}

	mock.server = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		mock.mu.Lock()
		mock.RequestCount++
		mock.LastRequestHeader = r.Header.Clone()
		handler, exists := mock.handlers[r.URL.Path]
		mock.mu.Unlock()

		if exists {
			handler(w, r)
			return
		}

		writeJSON(w, http.StatusNotFound, map[string]any{
			"errorMessages": []string{fmt.Sprintf("no handler for %s", r.URL.Path)},
		})
	}))

	return mock
}

// URL returns the mock server URL (the Jira host, without the API prefix).
func (m *MockJira) URL() string {
	return m.server.URL
}

// Close shuts down the mock server.
func (m *MockJira) Close() {
	m.server.Close()
}

// Reset clears all tracking counters.
func (m *MockJira) Reset() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.RequestCount = 0
	m.LastRequestHeader = nil
	m.SearchCalls = nil
}

// SetHandler sets a custom handler for a path relative to APIPrefix.
func (m *MockJira) SetHandler(path string, handler http.HandlerFunc) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.handlers[APIPrefix+path] = handler
}

// SetResponse configures a fixed response for a path relative to APIPrefix.
func (m *MockJira) SetResponse(path string, resp MockJiraResponse) {
	m.SetHandler(path, func(w http.ResponseWriter, r *http.Request) {
		for key, value := range resp.Headers {
			w.Header().Set(key, value)
		}
		if w.Header().Get("Content-Type") == "" {
			w.Header().Set("Content-Type", "application/json")
		}
		w.WriteHeader(resp.StatusCode)
		if resp.Body != "" {
			w.Write([]byte(resp.Body))
		}
	})
}

// SetJSON configures a 200 response with v encoded as JSON.
func (m *MockJira) SetJSON(path string, v any) {
	m.SetHandler(path, func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, v)
	})
}

// SetSearchIssues serves issues from /search, honouring startAt and maxResults.
func (m *MockJira) SetSearchIssues(issues []map[string]any, opts SearchOptions) {
	m.SetHandler("/search", func(w http.ResponseWriter, r *http.Request) {
		q := r.URL.Query()
		startAt, _ := strconv.Atoi(q.Get("startAt"))
		maxResults, err := strconv.Atoi(q.Get("maxResults"))
		if err != nil {
			maxResults = 50
		}
		if opts.MaxPageSize > 0 && maxResults > opts.MaxPageSize {
			maxResults = opts.MaxPageSize
		}

		m.mu.Lock()
		m.SearchCalls = append(m.SearchCalls, SearchCall{
			JQL:        q.Get("jql"),
			StartAt:    startAt,
			MaxResults: maxResults,
			Fields:     q.Get("fields"),
		})
		call := len(m.SearchCalls)
		m.mu.Unlock()

		if opts.FailOnRequest > 0 && call == opts.FailOnRequest {
			w.Header().Set("Content-Type", "application/json")
			w.WriteHeader(opts.FailWith.StatusCode)
			w.Write([]byte(opts.FailWith.Body))
			return
		}

		page := map[string]any{
			"startAt":    startAt,
			"maxResults": maxResults,
			"issues":     SliceIssues(issues, startAt, maxResults),
		}
		if !opts.OmitTotal {
			page["total"] = len(issues)
		}
		writeJSON(w, http.StatusOK, page)
	})
}

// GetRequestCount returns the number of requests made to the server.
func (m *MockJira) GetRequestCount() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.RequestCount
}

// GetSearchCalls returns a copy of the recorded /search calls.
func (m *MockJira) GetSearchCalls() []SearchCall {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return append([]SearchCall(nil), m.SearchCalls...)
}

// GetLastRequestHeader returns the headers of the most recent request.
func (m *MockJira) GetLastRequestHeader() http.Header {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.LastRequestHeader
}

// NewIssue builds an issue document with the given key and fields.
func NewIssue(key string, fields map[string]any) map[string]any {
	return map[string]any{
		"id":     key,
		"key":    key,
		"self":   "https://jira.example.com" + APIPrefix + "/issue/" + key,
		"fields": fields,
	}
}

// SyntheticIssues builds n issues keyed <project>-1..n with a status and summary.
func SyntheticIssues(project string, n int) []map[string]any {
	issues := make([]map[string]any, 0, n)
	for i := 1; i <= n; i++ {
		key := fmt.Sprintf("%s-%d", project, i)
		issues = append(issues, NewIssue(key, map[string]any{
			"summary": "Issue " + key,
			"status":  map[string]any{"name": "Open"},
		}))
	}
	return issues
}

// SliceIssues returns issues[startAt:startAt+maxResults], clamped.
func SliceIssues(issues []map[string]any, startAt, maxResults int) []map[string]any {
	if startAt >= len(issues) || maxResults <= 0 {
		return []map[string]any{}
	}
	end := startAt + maxResults
	if end > len(issues) {
		end = len(issues)
	}
	return issues[startAt:end]
}

// NewErrorResponse creates a Jira-style error response.
func NewErrorResponse(status int, messages ...string) MockJiraResponse {
	body, _ := json.Marshal(map[string]any{"errorMessages": messages, "errors": map[string]string{}})
	return MockJiraResponse{
		StatusCode: status,
		Body:       string(body),
		Headers:    map[string]string{"Content-Type": "application/json"},
	}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}
