// Package remote implements annotate.Annotator on top of an annotation
// service reached over HTTP, such as another aigent-server.
package remote

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/cognicore/aigent/pkg/aigent/annotate"
)

// DefaultTimeout bounds a single call when HTTPClient is nil.
const DefaultTimeout = 15 * time.Second

// Client posts texts to an annotation endpoint.
//
// The endpoint receives {"text": "..."} and answers with an annotation
// document, or with {"error": "..."} and a non-2xx status. Server errors,
// throttling and network failures are reported as annotate.ErrTransient so
// that annotate.Retrying can repeat the call; 413 and 422 are reported as
// annotate.ErrUnannotatable.
type Client struct {
	URL    string
	APIKey string

	HTTPClient *http.Client
}

type annotateRequest struct {
	Text string `json:"text"`
}

type errorResponse struct {
	Error string `json:"error"`
}

// Annotate implements annotate.Annotator.
func (c *Client) Annotate(ctx context.Context, text string) (*annotate.Annotation, error) {
	if c.URL == "" {
		return nil, fmt.Errorf("remote: URL required")
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	reqBody, err := json.Marshal(annotateRequest{Text: text})
	if err != nil {
		return nil, err
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.URL, bytes.NewReader(reqBody))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/json")
	if c.APIKey != "" {
		req.Header.Set("Authorization", "Bearer "+c.APIKey)
	}

	resp, err := c.httpClient().Do(req)
	if err != nil {
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		return nil, fmt.Errorf("%w: %v", annotate.ErrTransient, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("%w: read response: %v", annotate.ErrTransient, err)
	}

	if resp.StatusCode != http.StatusOK {
		return nil, statusError(resp.StatusCode, body)
	}

	var ann annotate.Annotation
	if err := json.Unmarshal(body, &ann); err != nil {
		return nil, fmt.Errorf("remote: decode annotation: %w", err)
	}
	if err := check(&ann); err != nil {
		return nil, err
	}
	return &ann, nil
}

func statusError(status int, body []byte) error {
	msg := http.StatusText(status)
	var payload errorResponse
	if json.Unmarshal(body, &payload) == nil && payload.Error != "" {
		msg = payload.Error
	}

	switch {
	case status == http.StatusTooManyRequests || status >= 500:
		return fmt.Errorf("%w: status %d: %s", annotate.ErrTransient, status, msg)
	case status == http.StatusUnprocessableEntity || status == http.StatusRequestEntityTooLarge:
		return fmt.Errorf("%w: %s", annotate.ErrUnannotatable, msg)
	default:
		return fmt.Errorf("remote: status %d: %s", status, msg)
	}
}

// check rejects annotations whose indexes would make matching panic.
func check(ann *annotate.Annotation) error {
	prev := 0
	for _, s := range ann.Sentences {
		if s.Start != prev || s.End < s.Start || s.End > len(ann.Tokens) {
			return fmt.Errorf("remote: inconsistent sentence %d..%d", s.Start, s.End)
		}
		prev = s.End
	}
	if prev != len(ann.Tokens) {
		return fmt.Errorf("remote: sentences cover %d of %d tokens", prev, len(ann.Tokens))
	}
	for i, tok := range ann.Tokens {
		if tok.Sentence < 0 || tok.Sentence >= len(ann.Sentences) {
			return fmt.Errorf("remote: token %d has no sentence", i)
		}
	}
	return nil
}

func (c *Client) httpClient() *http.Client {
	if c.HTTPClient != nil {
		return c.HTTPClient
	}
	return &http.Client{Timeout: DefaultTimeout}
}
