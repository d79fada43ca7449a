package models

import (
	"bytes"
	"encoding/json"
	"io"
)

func JSONEncoder(w io.Writer) *json.Encoder {
	e := json.NewEncoder(w)
	e.SetIndent("", "  ")
	return e
}

// Indent pretty-prints a JSON document the same way JSONEncoder does.
func Indent(data []byte) ([]byte, error) {
	var buf bytes.Buffer
	if err := json.Indent(&buf, bytes.TrimSpace(data), "", "  "); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// Unwrap decodes body into v. When the document is an object carrying a
// non-null "data" member, that member is decoded instead.
func Unwrap(body []byte, v any) error {
	var envelope struct {
		Data json.RawMessage `json:"data"`
	}
	if err := json.Unmarshal(body, &envelope); err == nil &&
		len(envelope.Data) > 0 && string(envelope.Data) != "null" {
		body = envelope.Data
	}
	return json.Unmarshal(body, v)
}
