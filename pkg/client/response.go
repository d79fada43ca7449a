package client

import (
	"bytes"
	"encoding/json"
	"errors"
	"net/http"

	"github.com/ezoidc/apiprobe/pkg/models"
)

var ErrNotJSON = errors.New("response body is not JSON")

// Body is either a JSONBody or a TextBody.
type Body interface {
	body()
}

// Body that parsed as JSON
type JSONBody struct {
	Value any
}

// Body that did not parse as JSON, including empty bodies
type TextBody struct {
	Text string
}

func (JSONBody) body() {}
func (TextBody) body() {}

func ParseBody(raw []byte) Body {
	if len(bytes.TrimSpace(raw)) == 0 || !json.Valid(raw) {
		return TextBody{Text: string(raw)}
	}

	d := json.NewDecoder(bytes.NewReader(raw))
	d.UseNumber()
	var value any
	if err := d.Decode(&value); err != nil {
		return TextBody{Text: string(raw)}
	}
	return JSONBody{Value: value}
}

type Response struct {
	StatusCode int
	Header     http.Header
	Body       Body
	// Body bytes as received
	Raw []byte
}

// Success reports a 2xx status.
func (r *Response) Success() bool {
	return r.StatusCode >= 200 && r.StatusCode < 300
}

// Decode reads a JSON body into v, descending into a "data" envelope when
// the API wraps its payload.
func (r *Response) Decode(v any) error {
	if _, ok := r.Body.(JSONBody); !ok {
		return ErrNotJSON
	}
	return models.Unwrap(r.Raw, v)
}
