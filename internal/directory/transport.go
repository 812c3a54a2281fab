package directory

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
)

// maxBody caps how much of a provider response is kept for logging.
const maxBody = 64 << 10

// NewJSONRequest builds a request carrying the bearer key and, when payload is
// non-nil, a JSON body.
func NewJSONRequest(ctx context.Context, method, url, apiKey string, payload any) (*http.Request, error) {
	var body io.Reader
	if payload != nil {
		b, err := json.Marshal(payload)
		if err != nil {
			return nil, fmt.Errorf("encode payload: %w", err)
		}
		body = bytes.NewReader(b)
	}
	req, err := http.NewRequestWithContext(ctx, method, url, body)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Authorization", "Bearer "+apiKey)
	req.Header.Set("Accept", "application/json")
	if payload != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	return req, nil
}

// Send performs req once and returns the status and raw body. Failing to reach
// the provider or to read its answer is a *TransportError.
func Send(client *http.Client, req *http.Request, provider, op string) (int, []byte, error) {
	res, err := client.Do(req)
	if err != nil {
		return 0, nil, &TransportError{Provider: provider, Op: op, Err: err}
	}
	defer res.Body.Close()

	body, err := io.ReadAll(io.LimitReader(res.Body, maxBody))
	if err != nil {
		return res.StatusCode, nil, &TransportError{Provider: provider, Op: op, Err: err}
	}
	return res.StatusCode, body, nil
}

// CheckStatus turns a non-2xx status into a *ProviderError.
func CheckStatus(provider, op string, status int, body []byte) error {
	if status >= 200 && status < 300 {
		return nil
	}
	return &ProviderError{Provider: provider, Op: op, Status: status, Body: string(body)}
}
