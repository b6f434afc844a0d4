package service

import (
	"context"
	"encoding/json"
	"log/slog"

	"github.com/atopos-hq/chatcore/internal/domain"
	"github.com/atopos-hq/chatcore/internal/workflow"
)

// Runner executes a workflow document against a base URL. The HTTP engine in
// internal/workflow is the default implementation.
type Runner interface {
	Run(ctx context.Context, doc *workflow.Definition, schema map[string]any, text string, headers map[string]string, baseURL, app string) (string, error)
}

// WorkflowInput carries the per-invocation execution context.
type WorkflowInput struct {
	Text          string
	Headers       map[string]string
	ServerBaseURL string
}

// WorkflowService normalizes workflow execution into a uniform response
// envelope: Execute never fails from the caller's point of view.
type WorkflowService struct {
	runner Runner
}

func NewWorkflowService(runner Runner) *WorkflowService {
	return &WorkflowService{runner: runner}
}

// Execute delegates to the runner and converts its outcome into the
// {response, error} envelope. A runner failure is logged with its execution
// context and returned as the envelope's error text; it is never propagated.
func (s *WorkflowService) Execute(ctx context.Context, doc *workflow.Definition, schema map[string]any, input WorkflowInput, app string) *domain.WorkflowOutput {
	headers := input.Headers
	if headers == nil {
		headers = map[string]string{}
	}

	output := &domain.WorkflowOutput{}

	result, err := s.runner.Run(ctx, doc, schema, input.Text, headers, input.ServerBaseURL, app)
	if err != nil {
		errText := err.Error()
		slog.Error("workflow execution failed",
			"event", "run_workflow",
			"headers", headers,
			"base_url", input.ServerBaseURL,
			"app", app,
			"error", errText,
		)
		output.Error = &errText
	} else {
		output.Response = result
	}

	payload, _ := json.Marshal(output)
	slog.Info("workflow output", "output", string(payload))

	return output
}
