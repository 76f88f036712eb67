package utils

import (
	"context"
	"io"
	"net/http"
)

// DefaultHTTPClient has no timeout: a node that never answers blocks the
// caller until its context is cancelled.
var DefaultHTTPClient = &http.Client{}

func HTTPRequest(ctx context.Context, client *http.Client, method string, url string, body io.Reader, headers map[string]string) (*http.Response, error) {
	if client == nil {
		client = DefaultHTTPClient
	}
	req, err := http.NewRequestWithContext(ctx, method, url, body)
	if err != nil {
		return nil, err
	}
	for key, value := range headers {
		req.Header.Set(key, value)
	}
	return client.Do(req)
}
