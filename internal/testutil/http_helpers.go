package testutil

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"

	"github.com/go-chi/chi/v5"
)

// NewRequestWithURLParams creates an HTTP request with chi URL parameters and
// an optional JSON body. This helper simplifies testing chi handlers that use
// chi.URLParam() to extract path parameters.
//
// Example:
//
//	req := testutil.NewRequestWithURLParams(
//	    http.MethodPost,
//	    "/api/shares/123-456/transactions",
//	    map[string]any{"amount": "12.50"},
//	    map[string]string{"uuid": "123-456"},
//	)
func NewRequestWithURLParams(method, path string, body any, params map[string]string) *http.Request {
	req := httptest.NewRequest(method, path, jsonBody(body))
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	if len(params) > 0 {
		rctx := chi.NewRouteContext()
		for key, value := range params {
			rctx.URLParams.Add(key, value)
		}
		req = req.WithContext(context.WithValue(req.Context(), chi.RouteCtxKey, rctx))
	}

	return req
}

// NewRequestWithQueryParams creates an HTTP request with query parameters.
// This helper simplifies testing handlers that use r.URL.Query() to extract query string parameters.
//
// Example:
//
//	req := testutil.NewRequestWithQueryParams(
//	    http.MethodGet,
//	    "/api/shares/123-456/transactions",
//	    map[string]string{"includeFailed": "false"},
//	)
func NewRequestWithQueryParams(method, path string, queryParams map[string]string) *http.Request {
	req := httptest.NewRequest(method, path, nil)

	if len(queryParams) > 0 {
		q := req.URL.Query()
		for key, value := range queryParams {
			q.Add(key, value)
		}
		req.URL.RawQuery = q.Encode()
	}

	return req
}

// jsonBody encodes body as JSON. Strings and byte slices are sent as is so
// tests can post malformed payloads.
func jsonBody(body any) io.Reader {
	switch b := body.(type) {
	case nil:
		return nil
	case string:
		return bytes.NewBufferString(b)
	case []byte:
		return bytes.NewBuffer(b)
	}
	data, err := json.Marshal(body)
	if err != nil {
		panic("testutil: cannot encode request body: " + err.Error())
	}
	return bytes.NewBuffer(data)
}
