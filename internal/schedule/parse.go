package schedule

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/kaptinlin/jsonrepair"
)

// ParseError reports an isolated payload that is not a valid JSON array of
// records. Payload retains the offending text for operator inspection.
type ParseError struct {
	Payload string
	Err     error
}

func (e *ParseError) Error() string {
	return "invalid schedule payload: " + e.Err.Error()
}

func (e *ParseError) Unwrap() error {
	return e.Err
}

// ParseRecords decodes an isolated payload into its records. Decoding is
// strict JSON: no recovery or repair of malformed structure is attempted.
// An empty array yields zero records and no error. On failure the returned
// error is a *ParseError carrying the payload.
//
// Key order within each record is preserved (the normalizer derives column
// order from it), which is why this walks the token stream instead of
// unmarshaling into maps.
func ParseRecords(payload string) ([]Record, error) {
	recs, err := decodeRecords(payload)
	if err != nil {
		return nil, &ParseError{Payload: payload, Err: err}
	}
	return recs, nil
}

// RepairRecords is the lenient variant of ParseRecords: when strict decoding
// fails it runs the payload through jsonrepair and retries once. Intended
// for operation behind an explicit configuration switch; the default
// pipeline contract stays strict.
func RepairRecords(payload string) ([]Record, error) {
	recs, err := decodeRecords(payload)
	if err == nil {
		return recs, nil
	}
	repaired, rerr := jsonrepair.JSONRepair(payload)
	if rerr != nil {
		return nil, &ParseError{Payload: payload, Err: fmt.Errorf("decode: %w; repair: %v", err, rerr)}
	}
	recs, err = decodeRecords(repaired)
	if err != nil {
		return nil, &ParseError{Payload: payload, Err: fmt.Errorf("decode repaired payload: %w", err)}
	}
	return recs, nil
}

func decodeRecords(payload string) ([]Record, error) {
	dec := json.NewDecoder(strings.NewReader(payload))
	dec.UseNumber()

	tok, err := dec.Token()
	if err != nil {
		return nil, err
	}
	if d, ok := tok.(json.Delim); !ok || d != '[' {
		return nil, fmt.Errorf("payload is not a JSON array (starts with %v)", tok)
	}

	recs := make([]Record, 0, 16)
	for dec.More() {
		rec, err := decodeRecord(dec)
		if err != nil {
			return nil, err
		}
		recs = append(recs, rec)
	}
	if _, err := dec.Token(); err != nil {
		return nil, err
	}
	if _, err := dec.Token(); !errors.Is(err, io.EOF) {
		return nil, errors.New("trailing data after array")
	}
	return recs, nil
}

func decodeRecord(dec *json.Decoder) (Record, error) {
	rec := NewRecord()

	tok, err := dec.Token()
	if err != nil {
		return rec, err
	}
	if d, ok := tok.(json.Delim); !ok || d != '{' {
		return rec, fmt.Errorf("array element is not an object (starts with %v)", tok)
	}
	for dec.More() {
		keyTok, err := dec.Token()
		if err != nil {
			return rec, err
		}
		key, ok := keyTok.(string)
		if !ok {
			return rec, fmt.Errorf("object key is not a string: %v", keyTok)
		}
		var v any
		if err := dec.Decode(&v); err != nil {
			return rec, err
		}
		rec.Set(key, cellText(v))
	}
	if _, err := dec.Token(); err != nil {
		return rec, err
	}
	return rec, nil
}

// cellText renders a decoded JSON value as the free-form text the rest of
// the pipeline works with. Numbers keep their source representation thanks
// to json.Number; typing happens later, per field, in the aggregator.
func cellText(v any) string {
	switch t := v.(type) {
	case nil:
		return ""
	case string:
		return t
	case json.Number:
		return t.String()
	case bool:
		if t {
			return "true"
		}
		return "false"
	default:
		b, err := json.Marshal(t)
		if err != nil {
			return fmt.Sprintf("%v", t)
		}
		return string(b)
	}
}
