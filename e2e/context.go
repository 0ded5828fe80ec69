// Package e2e runs the Gherkin scenarios under features/ against a running
// sportsuid server. Set E2E_BASE_URL to enable it.
package e2e

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"
)

// TestContext carries the last response of a scenario between steps.
type TestContext struct {
	BaseURL string
	client  *http.Client

	status int
	body   []byte
	// saved holds values captured by "I remember" steps.
	saved map[string]string
}

func NewTestContext(baseURL string) *TestContext {
	return &TestContext{
		BaseURL: strings.TrimRight(baseURL, "/"),
		client:  &http.Client{Timeout: 10 * time.Second},
		saved:   map[string]string{},
	}
}

// Reset clears per-scenario state.
func (tc *TestContext) Reset() {
	tc.status = 0
	tc.body = nil
	tc.saved = map[string]string{}
}

func (tc *TestContext) POST(path string, body any) error {
	raw, err := json.Marshal(body)
	if err != nil {
		return err
	}
	return tc.do(http.MethodPost, path, bytes.NewReader(raw))
}

func (tc *TestContext) GET(path string) error {
	return tc.do(http.MethodGet, path, nil)
}

func (tc *TestContext) do(method, path string, body io.Reader) error {
	req, err := http.NewRequest(method, tc.BaseURL+tc.Expand(path), body)
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")
	resp, err := tc.client.Do(req)
	if err != nil {
		return fmt.Errorf("%s %s: %w", method, path, err)
	}
	defer resp.Body.Close()
	tc.status = resp.StatusCode
	tc.body, err = io.ReadAll(resp.Body)
	return err
}

func (tc *TestContext) Status() int { return tc.status }

// Field returns a top-level field of the last JSON response.
func (tc *TestContext) Field(name string) (any, error) {
	var m map[string]any
	if err := json.Unmarshal(tc.body, &m); err != nil {
		return nil, fmt.Errorf("response is not a JSON object: %s", tc.body)
	}
	v, ok := m[name]
	if !ok {
		return nil, fmt.Errorf("response has no %q field: %s", name, tc.body)
	}
	return v, nil
}

func (tc *TestContext) Save(name, value string) { tc.saved[name] = value }

// Expand replaces {name} placeholders with remembered values.
func (tc *TestContext) Expand(s string) string {
	for k, v := range tc.saved {
		s = strings.ReplaceAll(s, "{"+k+"}", v)
	}
	return s
}
