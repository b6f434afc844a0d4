package workflow

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"
)

// Definition is the declarative workflow document: ordered flows of API
// operations executed against a caller-supplied base URL. The document is
// authored externally; this package only executes it.
type Definition struct {
	Name  string `json:"name"`
	Flows []Flow `json:"flows"`
}

type Flow struct {
	Name  string `json:"name"`
	Steps []Step `json:"steps"`
}

// Step names one API operation. Body may contain the {{input}} placeholder,
// replaced with the caller's free text before the request is sent.
type Step struct {
	Operation string          `json:"operation"`
	Method    string          `json:"method"`
	Path      string          `json:"path"`
	Body      json.RawMessage `json:"body,omitempty"`
}

// inputPlaceholder is substituted into step bodies with the free-text input.
const inputPlaceholder = "{{input}}"

// HTTPRunner executes workflow operations as sequential HTTP calls.
type HTTPRunner struct {
	client *http.Client
}

func NewHTTPRunner(timeout time.Duration) *HTTPRunner {
	return &HTTPRunner{client: &http.Client{Timeout: timeout}}
}

// Run executes every step of every flow in order and fails fast on the first
// error. The result is a JSON object keyed by operation name. The schema is
// accepted for parity with the document author's tooling and is not consulted
// during execution.
func (r *HTTPRunner) Run(ctx context.Context, doc *Definition, schema map[string]any, text string, headers map[string]string, baseURL, app string) (string, error) {
	if doc == nil {
		return "", errors.New("workflow definition is required")
	}
	if baseURL == "" {
		return "", errors.New("base URL is required")
	}

	results := make(map[string]json.RawMessage)
	for _, flow := range doc.Flows {
		for _, step := range flow.Steps {
			out, err := r.runStep(ctx, step, text, headers, baseURL)
			if err != nil {
				return "", fmt.Errorf("operation %s: %w", step.Operation, err)
			}
			results[step.Operation] = out
		}
	}

	summary, err := json.Marshal(results)
	if err != nil {
		return "", fmt.Errorf("marshal results: %w", err)
	}
	return string(summary), nil
}

func (r *HTTPRunner) runStep(ctx context.Context, step Step, text string, headers map[string]string, baseURL string) (json.RawMessage, error) {
	var body io.Reader
	if len(step.Body) > 0 {
		payload := strings.ReplaceAll(string(step.Body), inputPlaceholder, jsonEscape(text))
		body = bytes.NewReader([]byte(payload))
	}

	url := strings.TrimSuffix(baseURL, "/") + "/" + strings.TrimPrefix(step.Path, "/")
	req, err := http.NewRequestWithContext(ctx, strings.ToUpper(step.Method), url, body)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	for k, v := range headers {
		req.Header.Set(k, v)
	}
	if body != nil && req.Header.Get("Content-Type") == "" {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := r.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("execute request: %w", err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read response: %w", err)
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, fmt.Errorf("unexpected status %d: %s", resp.StatusCode, respBody)
	}

	if json.Valid(respBody) {
		return json.RawMessage(respBody), nil
	}
	quoted, _ := json.Marshal(string(respBody))
	return json.RawMessage(quoted), nil
}

// jsonEscape renders text safe for direct substitution inside a JSON body.
func jsonEscape(text string) string {
	quoted, _ := json.Marshal(text)
	return string(quoted[1 : len(quoted)-1])
}
