package llm

import (
	"context"
	"fmt"
)

// AnalyzeRequest carries one document to the remote analysis service.
type AnalyzeRequest struct {
	Document []byte // raw PDF bytes
	Filename string // display name, logging only
	Prompt   string // extraction prompt; empty means the built-in French prompt
}

// DocumentAnalyzer is the interface the pipeline depends on. Implementations
// make exactly one attempt, synchronously; retries are the caller's call.
type DocumentAnalyzer interface {
	Analyze(ctx context.Context, req AnalyzeRequest) (string, error)
}

// UpstreamError reports a transport or remote-service failure. It is a
// distinct category from payload isolation/parse failures so callers can
// surface the status detail to the user.
type UpstreamError struct {
	Status int
	Body   string
	Err    error
}

func (e *UpstreamError) Error() string {
	if e.Err != nil {
		if e.Status != 0 {
			return fmt.Sprintf("upstream failure (status %d): %v", e.Status, e.Err)
		}
		return fmt.Sprintf("upstream failure: %v", e.Err)
	}
	return fmt.Sprintf("upstream failure: status %d: %s", e.Status, truncate(e.Body, 200))
}

func (e *UpstreamError) Unwrap() error {
	return e.Err
}

func truncate(s string, n int) string {
	if n <= 0 || len(s) <= n {
		return s
	}
	return s[:n-1] + "…"
}
