package langfuse

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/jmarceau/echeancier/internal/llm"
)

type promptCapture struct {
	prompt string
}

func (p *promptCapture) Analyze(_ context.Context, req llm.AnalyzeRequest) (string, error) {
	p.prompt = req.Prompt
	return "ok", nil
}

func TestFetchPrompt(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		user, pass, ok := r.BasicAuth()
		if !ok || user != "pk" || pass != "sk" {
			http.Error(w, "unauthorized", http.StatusUnauthorized)
			return
		}
		if r.URL.Path != "/api/public/v2/prompts/echeancier-extraction" {
			http.NotFound(w, r)
			return
		}
		if r.URL.Query().Get("version") != "3" {
			http.Error(w, "wrong version", http.StatusBadRequest)
			return
		}
		_ = json.NewEncoder(w).Encode(map[string]any{
			"name": "echeancier-extraction", "version": 3, "prompt": "Extrais le tableau.",
		})
	}))
	defer srv.Close()

	c := NewClient(Config{
		Host:          srv.URL,
		PublicKey:     "pk",
		SecretKey:     "sk",
		PromptName:    "echeancier-extraction",
		PromptVersion: 3,
	}, nil, nil)

	prompt, err := c.FetchPrompt(context.Background())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if prompt != "Extrais le tableau." {
		t.Errorf("prompt = %q", prompt)
	}
}

func TestAnalyze_UsesHostedPrompt(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		_ = json.NewEncoder(w).Encode(map[string]any{"name": "p", "version": 1, "prompt": "prompt hébergé"})
	}))
	defer srv.Close()

	next := &promptCapture{}
	c := NewClient(Config{Host: srv.URL, PublicKey: "pk", SecretKey: "sk", PromptName: "p"}, next, nil)

	if _, err := c.Analyze(context.Background(), llm.AnalyzeRequest{}); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if next.prompt != "prompt hébergé" {
		t.Errorf("delegated prompt = %q", next.prompt)
	}
}

func TestAnalyze_FetchFailureFallsBack(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		http.Error(w, "boom", http.StatusInternalServerError)
	}))
	defer srv.Close()

	next := &promptCapture{}
	c := NewClient(Config{Host: srv.URL, PublicKey: "pk", SecretKey: "sk", PromptName: "p"}, next, nil)

	if _, err := c.Analyze(context.Background(), llm.AnalyzeRequest{}); err != nil {
		t.Fatalf("prompt fetch failure must not fail the analysis: %v", err)
	}
	if next.prompt != "" {
		t.Errorf("expected fallback to the built-in prompt, got %q", next.prompt)
	}
}
