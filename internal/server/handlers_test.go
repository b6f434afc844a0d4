package server

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/atopos-hq/chatcore/internal/domain"
	"github.com/atopos-hq/chatcore/internal/service"
	"github.com/atopos-hq/chatcore/internal/workflow"
)

type stubRunner struct {
	result string
	err    error
}

func (r *stubRunner) Run(context.Context, *workflow.Definition, map[string]any, string, map[string]string, string, string) (string, error) {
	return r.result, r.err
}

func newTestServer(runner service.Runner) *Server {
	return New(0, nil, service.NewWorkflowService(runner))
}

func TestRunWorkflowSuccessEnvelope(t *testing.T) {
	srv := newTestServer(&stubRunner{result: "42"})

	body := `{"workflow":{"name":"wf","flows":[]},"text":"q","baseUrl":"http://api"}`
	req := httptest.NewRequest(http.MethodPost, "/api/v1/workflows/run", strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()

	srv.Handler().ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	var output domain.WorkflowOutput
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &output))
	assert.Equal(t, "42", output.Response)
	assert.Nil(t, output.Error)
}

func TestRunWorkflowFailureEnvelope(t *testing.T) {
	srv := newTestServer(&stubRunner{err: errors.New("timeout")})

	body := `{"workflow":{"name":"wf","flows":[]},"baseUrl":"http://api"}`
	req := httptest.NewRequest(http.MethodPost, "/api/v1/workflows/run", strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()

	srv.Handler().ServeHTTP(rec, req)

	// A failed workflow is still a successful HTTP exchange.
	require.Equal(t, http.StatusOK, rec.Code)
	var output domain.WorkflowOutput
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &output))
	assert.Equal(t, "", output.Response)
	require.NotNil(t, output.Error)
	assert.Equal(t, "timeout", *output.Error)
}

func TestRunWorkflowRejectsInvalidBody(t *testing.T) {
	srv := newTestServer(&stubRunner{})

	req := httptest.NewRequest(http.MethodPost, "/api/v1/workflows/run", strings.NewReader("{not json"))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()

	srv.Handler().ServeHTTP(rec, req)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
}
