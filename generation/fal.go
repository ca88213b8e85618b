package generation

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
)

// FalClient calls fal.ai's synchronous run endpoint: POST {baseURL}/{modelID}.
type FalClient struct {
	baseURL string
	key     string
	http    *http.Client
}

var _ Generator = (*FalClient)(nil)

func NewFalClient(baseURL, key string, httpClient *http.Client) *FalClient {
	if httpClient == nil {
		httpClient = http.DefaultClient
	}
	return &FalClient{
		baseURL: strings.TrimRight(baseURL, "/"),
		key:     key,
		http:    httpClient,
	}
}

// FalError is a non-2xx response from fal.
type FalError struct {
	StatusCode int
	Body       string
}

func (e *FalError) Error() string {
	return fmt.Sprintf("fal returned status %d: %s", e.StatusCode, e.Body)
}

func (f *FalClient) Generate(ctx context.Context, modelID string, in Input) (*Output, error) {
	payload, err := json.Marshal(in)
	if err != nil {
		return nil, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, f.baseURL+"/"+modelID, bytes.NewReader(payload))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")
	if f.key != "" {
		req.Header.Set("Authorization", "Key "+f.key)
	}

	res, err := f.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("fal request: %w", err)
	}
	defer res.Body.Close()

	if res.StatusCode < 200 || res.StatusCode > 299 {
		snippet, _ := io.ReadAll(io.LimitReader(res.Body, 512))
		return nil, &FalError{StatusCode: res.StatusCode, Body: string(snippet)}
	}

	var out Output
	if err := json.NewDecoder(res.Body).Decode(&out); err != nil {
		return nil, fmt.Errorf("decode fal response: %w", err)
	}
	return &out, nil
}
