package response_fetcher

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"
)

// TransportFailure is the status code recorded when no response was received.
const TransportFailure = -1

// StartGate is waited on immediately before the request is sent.
type StartGate interface {
	Wait(timeout time.Duration) error
}

type FetcherInterface interface {
	BaseUrl() string
	Fetch(ctx context.Context, path string, reqCtx RequestContext, start StartGate) FetchResult
}

// FetchResult is what one host returned for one path. When Error is set the
// status is TransportFailure and the other fields are empty.
type FetchResult struct {
	BaseUrl    string
	Path       string
	StatusCode int
	Headers    map[string]string
	Body       string
	JSON       any
	HasJSON    bool
	Error      string
}

func (r FetchResult) Failed() bool {
	return r.Error != ""
}

// NewFailedResult builds the result recorded for a transport fault.
func NewFailedResult(baseUrl string, path string, err error) FetchResult {
	return FetchResult{
		BaseUrl:    baseUrl,
		Path:       path,
		StatusCode: TransportFailure,
		Headers:    map[string]string{},
		Error:      err.Error(),
	}
}

// ResponseFetcher requests paths from a single host, reusing one client for
// the whole run.
type ResponseFetcher struct {
	baseUrl string
	client  *http.Client
	timeout time.Duration
}

func NewResponseFetcher(baseUrl string, client *http.Client, timeout time.Duration) (*ResponseFetcher, error) {
	base, err := url.Parse(baseUrl)
	if err != nil || base.Scheme == "" || base.Host == "" {
		return nil, fmt.Errorf("invalid base URL: %s", baseUrl)
	}

	return &ResponseFetcher{
		baseUrl: baseUrl,
		client:  client,
		timeout: timeout,
	}, nil
}

func (rf *ResponseFetcher) BaseUrl() string {
	return rf.baseUrl
}

// Fetch waits at the start gate and then GETs the path. It never returns an
// error: transport faults are recorded on the result instead.
func (rf *ResponseFetcher) Fetch(ctx context.Context, path string, reqCtx RequestContext, start StartGate) FetchResult {
	reqUrl := BuildRequestUrl(rf.baseUrl, path, reqCtx.Params)

	if start != nil {
		// a missing peer only costs us simultaneity
		_ = start.Wait(rf.timeout)
	}

	if rf.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, rf.timeout)
		defer cancel()
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqUrl, nil)
	if err != nil {
		return NewFailedResult(rf.baseUrl, path, err)
	}
	for name, value := range reqCtx.Headers {
		req.Header.Set(name, value)
	}

	resp, err := rf.client.Do(req)
	if err != nil {
		return NewFailedResult(rf.baseUrl, path, err)
	}
	defer (func() {
		_ = resp.Body.Close()
	})()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return NewFailedResult(rf.baseUrl, path, err)
	}

	parsed, ok := TryParseJSON(body)

	return FetchResult{
		BaseUrl:    rf.baseUrl,
		Path:       path,
		StatusCode: resp.StatusCode,
		Headers:    lowercaseHeaders(resp.Header),
		Body:       string(body),
		JSON:       parsed,
		HasJSON:    ok,
	}
}

// TryParseJSON decodes body as a single JSON value. The second return value
// is false when the body is not valid JSON or is a bare null; that is not an
// error.
func TryParseJSON(body []byte) (any, bool) {
	decoder := json.NewDecoder(bytes.NewReader(body))
	decoder.UseNumber()

	var value any
	if err := decoder.Decode(&value); err != nil {
		return nil, false
	}

	// trailing data after the first value means the body is not JSON
	var extra any
	if err := decoder.Decode(&extra); !errors.Is(err, io.EOF) {
		return nil, false
	}

	if value == nil {
		return nil, false
	}

	return value, true
}

func lowercaseHeaders(header http.Header) map[string]string {
	headers := make(map[string]string, len(header))
	for name, values := range header {
		headers[strings.ToLower(name)] = strings.Join(values, ", ")
	}
	return headers
}
