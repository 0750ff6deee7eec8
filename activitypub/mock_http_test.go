package activitypub

import (
	"bytes"
	"fmt"
	"io"
	"net/http"
	"sync"
)

// MockHTTPClient is a mock implementation of the HTTPClient interface
// for testing. URLs map to canned JSON bodies; anything unknown is a 404.
type MockHTTPClient struct {
	mu        sync.Mutex
	Responses map[string]string
	Statuses  map[string]int
	Requests  []*http.Request
	ForceError error
}

func NewMockHTTPClient() *MockHTTPClient {
	return &MockHTTPClient{
		Responses: make(map[string]string),
		Statuses:  make(map[string]int),
	}
}

func (m *MockHTTPClient) Do(req *http.Request) (*http.Response, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.Requests = append(m.Requests, req)

	if m.ForceError != nil {
		return nil, m.ForceError
	}

	url := req.URL.String()
	body, ok := m.Responses[url]
	status := m.Statuses[url]
	if status == 0 {
		if ok {
			status = 200
		} else {
			status = 404
		}
	}

	return &http.Response{
		StatusCode: status,
		Status:     fmt.Sprintf("%d", status),
		Body:       io.NopCloser(bytes.NewReader([]byte(body))),
		Header:     make(http.Header),
		Request:    req,
	}, nil
}

// RequestCount returns how many requests were issued
func (m *MockHTTPClient) RequestCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.Requests)
}
