package gemini

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/jmarceau/echeancier/constants"
	"github.com/jmarceau/echeancier/internal/llm"
)

// Analyze implements llm.DocumentAnalyzer against the Gemini generateContent
// endpoint. The PDF travels inline (base64) next to the extraction prompt;
// the returned text is the concatenation of the first candidate's parts,
// exactly as received; isolation and parsing are downstream concerns.
func (c *Client) Analyze(ctx context.Context, req llm.AnalyzeRequest) (string, error) {
	rid := uuid.New().String()
	start := time.Now()

	prompt := req.Prompt
	if prompt == "" {
		prompt = llm.BuildExtractionPrompt()
	}

	c.log.Info("llm.analyze.start",
		"req_id", rid,
		"model", c.cfg.Model,
		"filename", req.Filename,
		"document_bytes", len(req.Document),
		"prompt_len", len(prompt),
	)

	if c.cfg.APIKey == "" {
		return "", &llm.UpstreamError{Err: errors.New("GEMINI_API_KEY is not set")}
	}

	body := map[string]any{
		"contents": []map[string]any{{
			"parts": []map[string]any{
				{"inline_data": map[string]any{
					"mime_type": constants.PDFMimeType,
					"data":      base64.StdEncoding.EncodeToString(req.Document),
				}},
				{"text": prompt},
			},
		}},
	}

	endpoint := strings.TrimRight(c.cfg.BaseURL, "/") + "/models/" + c.cfg.Model + ":generateContent"
	raw, status, err := llm.SendJSON(ctx, c.httpClient, endpoint, body, map[string]string{
		"x-goog-api-key": c.cfg.APIKey,
	}, c.log)
	if err != nil {
		c.log.Error("llm.analyze.http_error",
			"req_id", rid, "status", status, "error", err,
			"elapsed_ms", time.Since(start).Milliseconds(),
		)
		return "", &llm.UpstreamError{Status: status, Body: string(raw), Err: err}
	}

	var gr struct {
		Candidates []struct {
			Content struct {
				Parts []struct {
					Text string `json:"text"`
				} `json:"parts"`
			} `json:"content"`
		} `json:"candidates"`
	}
	if err := json.Unmarshal(raw, &gr); err != nil {
		c.log.Error("llm.analyze.decode_error",
			"req_id", rid, "error", err, "raw_bytes", len(raw),
			"elapsed_ms", time.Since(start).Milliseconds(),
		)
		return "", &llm.UpstreamError{Status: status, Err: fmt.Errorf("decode gemini response: %w", err)}
	}
	if len(gr.Candidates) == 0 {
		c.log.Error("llm.analyze.no_candidates",
			"req_id", rid, "raw_bytes", len(raw),
			"elapsed_ms", time.Since(start).Milliseconds(),
		)
		return "", &llm.UpstreamError{Status: status, Body: string(raw), Err: errors.New("no candidates in gemini response")}
	}

	var b strings.Builder
	for _, p := range gr.Candidates[0].Content.Parts {
		b.WriteString(p.Text)
	}
	text := b.String()
	if strings.TrimSpace(text) == "" {
		return "", &llm.UpstreamError{Status: status, Err: errors.New("empty text in gemini response")}
	}

	c.log.Info("llm.analyze.ok",
		"req_id", rid,
		"model", c.cfg.Model,
		"text_len", len(text),
		"elapsed_ms", time.Since(start).Milliseconds(),
	)
	return text, nil
}
