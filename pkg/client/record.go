package client

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/ezoidc/apiprobe/pkg/models"
)

// Persisted form of a response
type Record struct {
	StatusCode int               `json:"status_code"`
	Headers    map[string]string `json:"headers"`
	Body       any               `json:"body"`
}

func NewRecord(r *Response) Record {
	headers := make(map[string]string, len(r.Header))
	for name, values := range r.Header {
		headers[name] = strings.Join(values, ", ")
	}

	var body any
	switch b := r.Body.(type) {
	case JSONBody:
		body = json.RawMessage(r.Raw)
	case TextBody:
		body = b.Text
	}

	return Record{
		StatusCode: r.StatusCode,
		Headers:    headers,
		Body:       body,
	}
}

// WriteRecord replaces dir/name with the record and returns the file path.
// The previous artifact stays in place until the new one is fully written.
func WriteRecord(dir, name string, rec Record) (string, error) {
	path := filepath.Join(dir, name)
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return path, fmt.Errorf("failed to create output directory: %w", err)
	}

	tmp, err := os.CreateTemp(filepath.Dir(path), "."+filepath.Base(path)+".*")
	if err != nil {
		return path, fmt.Errorf("failed to write response to %s: %w", path, err)
	}
	defer os.Remove(tmp.Name())

	if err := models.JSONEncoder(tmp).Encode(rec); err != nil {
		tmp.Close()
		return path, fmt.Errorf("failed to write response to %s: %w", path, err)
	}
	if err := tmp.Close(); err != nil {
		return path, fmt.Errorf("failed to write response to %s: %w", path, err)
	}
	if err := os.Rename(tmp.Name(), path); err != nil {
		return path, fmt.Errorf("failed to write response to %s: %w", path, err)
	}
	return path, nil
}
