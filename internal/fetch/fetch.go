// Package fetch holds small HTTP helpers shared by the content plugins.
// Every request is bounded by the caller's client timeout (10s per outbound
// request) so a slow upstream cannot hang a run indefinitely.
package fetch

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
)

const bodyPreviewLimit = 200

// Get performs a GET with query params and optional headers.
// The caller owns the response body.
func Get(ctx context.Context, client *http.Client, endpoint string, params url.Values, header http.Header) (*http.Response, error) {
	if client == nil {
		client = http.DefaultClient
	}
	u := endpoint
	if len(params) > 0 {
		sep := "?"
		if strings.Contains(endpoint, "?") {
			sep = "&"
		}
		u = endpoint + sep + params.Encode()
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return nil, err
	}
	for k, vs := range header {
		for _, v := range vs {
			req.Header.Add(k, v)
		}
	}
	return client.Do(req)
}

// GetJSON performs a GET and decodes a JSON response into out. A non-200
// status is an error carrying a short body preview for the logs.
func GetJSON(ctx context.Context, client *http.Client, endpoint string, params url.Values, out any) error {
	resp, err := Get(ctx, client, endpoint, params, nil)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		raw, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		return fmt.Errorf("request failed: status=%d body=%q", resp.StatusCode, BodyPreview(raw))
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("response decode: %w", err)
	}
	return nil
}

// BodyPreview collapses newlines and caps an upstream body for error text.
func BodyPreview(b []byte) string {
	s := strings.ReplaceAll(string(b), "\n", " ")
	if len(s) > bodyPreviewLimit {
		s = s[:bodyPreviewLimit]
	}
	return s
}
