package schedule

import "strings"

// IsolationError reports that no structured block could be located in the
// raw response. Missing names the delimiter that was not found.
type IsolationError struct {
	Missing string
}

func (e *IsolationError) Error() string {
	return "no structured block in response: missing '" + e.Missing + "'"
}

// IsolatePayload extracts the structured-data block from a raw model
// response: the inclusive substring from the first '[' to the last ']'.
// Surrounding prose is discarded. If either delimiter is absent, or the last
// ']' precedes the first '[', a *IsolationError is returned.
//
// When the prose between two separate arrays itself contains brackets this
// greedy span over-captures; that is a known limitation of the strategy and
// deliberately left uncorrected.
func IsolatePayload(raw string) (string, error) {
	open := strings.Index(raw, "[")
	if open == -1 {
		return "", &IsolationError{Missing: "["}
	}
	close := strings.LastIndex(raw, "]")
	if close == -1 || close < open {
		return "", &IsolationError{Missing: "]"}
	}
	return raw[open : close+1], nil
}

// FencedPayload extracts the inner text of a ```json fenced block, the form
// Gemini tends to wrap its output in. It returns the inner text (surrounding
// whitespace trimmed) and whether a complete fence was found; absence is not
// an error, callers fall back to bracket isolation.
func FencedPayload(raw string) (string, bool) {
	const fence = "```json"
	i := strings.Index(raw, fence)
	if i == -1 {
		return "", false
	}
	rest := raw[i+len(fence):]
	j := strings.Index(rest, "```")
	if j == -1 {
		return "", false
	}
	return strings.TrimSpace(rest[:j]), true
}
