package domain

// WorkflowOutput is the envelope returned by workflow execution regardless of
// outcome: a populated Response on success, a populated Error otherwise.
// Callers depend on this exact two-field shape.
type WorkflowOutput struct {
	Response string  `json:"response"`
	Error    *string `json:"error"`
}
