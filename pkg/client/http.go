// Package client performs single HTTP exchanges against the API under test,
// printing a summary and keeping the full response as an artifact.
package client

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"os"
	"strings"
	"time"

	"github.com/rs/zerolog/log"
)

type HTTPClient interface {
	Do(req *http.Request) (*http.Response, error)
}

type APIClient struct {
	HTTPClient
	// Root of the API, e.g. http://localhost:8080/v1
	BaseURL string
	// Directory receiving response artifacts
	OutputDir string
	// Destination of the console summary
	Console io.Writer
}

// One request. URL must be absolute and already carry an encoded query.
type Request struct {
	Method  string
	URL     string
	Headers map[string]string
	// Encoded as JSON when not nil
	Body any
}

func NewAPIClient(client HTTPClient, baseURL string) *APIClient {
	return &APIClient{
		HTTPClient: client,
		BaseURL:    strings.TrimSuffix(baseURL, "/"),
		OutputDir:  ".",
		Console:    os.Stdout,
	}
}

// URL joins path to the base URL.
func (c *APIClient) URL(path string) string {
	return c.BaseURL + "/" + strings.TrimPrefix(path, "/")
}

// SendAndPrint performs the request, prints a summary, writes the response
// to outputFile inside OutputDir and returns it. Any status code is a valid
// outcome; only transport failures are returned as errors.
func (c *APIClient) SendAndPrint(ctx context.Context, r Request, outputFile string) (*Response, error) {
	method := r.Method
	if method == "" {
		method = http.MethodGet
	}

	var body io.Reader
	if r.Body != nil {
		payload, err := json.Marshal(r.Body)
		if err != nil {
			return nil, fmt.Errorf("failed to encode request body: %w", err)
		}
		body = bytes.NewReader(payload)
	}

	req, err := http.NewRequestWithContext(ctx, method, r.URL, body)
	if err != nil {
		return nil, err
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	req.Header.Set("Accept", "application/json")
	for name, value := range r.Headers {
		req.Header.Set(name, value)
	}

	printRequest(c.Console, method, r.URL)

	start := time.Now()
	resp, err := c.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%s %s: %w", method, r.URL, err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("%s %s: failed to read response body: %w", method, r.URL, err)
	}

	response := &Response{
		StatusCode: resp.StatusCode,
		Header:     resp.Header,
		Body:       ParseBody(raw),
		Raw:        raw,
	}
	log.Debug().
		Str("method", method).
		Str("url", r.URL).
		Int("status", response.StatusCode).
		Dur("response_time", time.Since(start)).
		Msg("request completed")

	printResponse(c.Console, response)

	if outputFile != "" {
		path, err := WriteRecord(c.OutputDir, outputFile, NewRecord(response))
		if err != nil {
			return response, err
		}
		log.Debug().Str("path", path).Msg("saved response")
	}

	return response, nil
}
