// Package langfuse resolves the extraction prompt from Langfuse prompt
// management, so operators can iterate on the prompt without redeploying.
// Document analysis itself is delegated to a wrapped analyzer.
package langfuse

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/jmarceau/echeancier/internal/llm"
)

// Config for the Langfuse prompt client.
type Config struct {
	Host          string // default https://cloud.langfuse.com
	PublicKey     string
	SecretKey     string
	PromptName    string
	PromptVersion int // 0 means the production-labeled version
	Timeout       time.Duration
}

type Client struct {
	cfg        Config
	next       llm.DocumentAnalyzer
	httpClient *http.Client
	log        *slog.Logger
}

// NewClient wraps next with prompt resolution. A fetch failure is logged and
// the built-in prompt takes over; prompt hosting never blocks an analysis.
func NewClient(cfg Config, next llm.DocumentAnalyzer, logger *slog.Logger) *Client {
	if cfg.Host == "" {
		cfg.Host = "https://cloud.langfuse.com"
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = 15 * time.Second
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Client{
		cfg:        cfg,
		next:       next,
		httpClient: &http.Client{Timeout: cfg.Timeout},
		log:        logger,
	}
}

// Analyze implements llm.DocumentAnalyzer.
func (c *Client) Analyze(ctx context.Context, req llm.AnalyzeRequest) (string, error) {
	if req.Prompt == "" {
		prompt, err := c.FetchPrompt(ctx)
		if err != nil {
			c.log.Warn("langfuse.prompt.fetch_failed",
				"prompt_name", c.cfg.PromptName, "error", err)
		} else {
			req.Prompt = prompt
		}
	}
	return c.next.Analyze(ctx, req)
}

// FetchPrompt retrieves the configured prompt text from the Langfuse public
// API (basic auth with the project key pair).
func (c *Client) FetchPrompt(ctx context.Context) (string, error) {
	endpoint := c.cfg.Host + "/api/public/v2/prompts/" + url.PathEscape(c.cfg.PromptName)
	if c.cfg.PromptVersion > 0 {
		endpoint += "?version=" + strconv.Itoa(c.cfg.PromptVersion)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return "", fmt.Errorf("build request: %w", err)
	}
	req.SetBasicAuth(c.cfg.PublicKey, c.cfg.SecretKey)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("langfuse http error: %w", err)
	}
	defer func() {
		if err := resp.Body.Close(); err != nil {
			c.log.Warn("langfuse.response_body_close_error", "error", err)
		}
	}()

	raw, _ := io.ReadAll(resp.Body)
	if resp.StatusCode/100 != 2 {
		return "", fmt.Errorf("langfuse status %d: %s", resp.StatusCode, string(raw))
	}

	var pr struct {
		Name    string `json:"name"`
		Version int    `json:"version"`
		Prompt  string `json:"prompt"`
	}
	if err := json.Unmarshal(raw, &pr); err != nil {
		return "", fmt.Errorf("decode prompt response: %w", err)
	}
	if pr.Prompt == "" {
		return "", fmt.Errorf("prompt %q resolved empty", c.cfg.PromptName)
	}

	c.log.Info("langfuse.prompt.ok", "prompt_name", pr.Name, "version", pr.Version)
	return pr.Prompt, nil
}
