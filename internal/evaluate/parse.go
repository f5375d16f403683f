package evaluate

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strings"
)

type wireResponse struct {
	Message string       `json:"message"`
	Status  string       `json:"status"`
	Data    *[]wireEntry `json:"data"`
}

type wireEntry struct {
	Expr   *string         `json:"expr"`
	Result json.RawMessage `json:"result"`
	Assign *bool           `json:"assign"`
}

// ParseResponse validates body and converts it into entries. Either every
// entry is valid or an error wrapping ErrMalformedResponse is returned.
func ParseResponse(body []byte) ([]Entry, error) {
	dec := json.NewDecoder(bytes.NewReader(body))
	dec.UseNumber()
	var resp wireResponse
	if err := dec.Decode(&resp); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformedResponse, err)
	}
	if strings.EqualFold(resp.Status, "error") {
		msg := resp.Message
		if msg == "" {
			msg = "service reported an error"
		}
		return nil, fmt.Errorf("%w: %s", ErrMalformedResponse, msg)
	}
	if resp.Data == nil {
		return nil, fmt.Errorf("%w: missing data", ErrMalformedResponse)
	}
	entries := make([]Entry, 0, len(*resp.Data))
	for i, w := range *resp.Data {
		if w.Expr == nil || strings.TrimSpace(*w.Expr) == "" {
			return nil, fmt.Errorf("%w: entry %d has no expr", ErrMalformedResponse, i)
		}
		answer, err := resultString(w.Result)
		if err != nil {
			return nil, fmt.Errorf("%w: entry %d: %v", ErrMalformedResponse, i, err)
		}
		e := Entry{Expression: strings.TrimSpace(*w.Expr), Answer: answer}
		if w.Assign != nil {
			e.Assign = *w.Assign
		}
		entries = append(entries, e)
	}
	return entries, nil
}

// resultString accepts a JSON string or number.
func resultString(raw json.RawMessage) (string, error) {
	raw = bytes.TrimSpace(raw)
	if len(raw) == 0 || bytes.Equal(raw, []byte("null")) {
		return "", fmt.Errorf("missing result")
	}
	switch raw[0] {
	case '"':
		var s string
		if err := json.Unmarshal(raw, &s); err != nil {
			return "", err
		}
		return s, nil
	case '-', '0', '1', '2', '3', '4', '5', '6', '7', '8', '9':
		var n json.Number
		if err := json.Unmarshal(raw, &n); err != nil {
			return "", err
		}
		return n.String(), nil
	default:
		return "", fmt.Errorf("result must be a string or number, got %s", raw)
	}
}
