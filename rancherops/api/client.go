// Copyright (c) HashiCorp, Inc.
// SPDX-License-Identifier: MPL-2.0

// Package api is a thin JSON client for the Rancher and Kubernetes REST
// surfaces, plus the login, condition waiting and value fetching built on it.
package api

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

	"github.com/cenkalti/backoff/v4"
	"github.com/hashicorp/go-hclog"

	"github.com/tinkerbell-community/terraform-provider-rancherops/rancherops/connection"
)

const (
	DefaultRequestTimeout = 10 * time.Second
	DefaultRetryLimit     = 2
	DefaultRetryDelay     = 1 * time.Second

	maxResponseBody = 8 << 20

	contentTypeJSON      = "application/json"
	contentTypeJSONPatch = "application/json-patch+json"
)

// Option configures a Client.
type Option func(*settings)

type settings struct {
	requestTimeout time.Duration
	retryLimit     int
	retryDelay     time.Duration
	logger         hclog.Logger
}

func WithRequestTimeout(d time.Duration) Option {
	return func(s *settings) { s.requestTimeout = d }
}

// WithRetryLimit sets how many times a failed idempotent request is retried.
func WithRetryLimit(n int) Option {
	return func(s *settings) { s.retryLimit = n }
}

func WithRetryDelay(d time.Duration) Option {
	return func(s *settings) { s.retryDelay = d }
}

func WithLogger(l hclog.Logger) Option {
	return func(s *settings) { s.logger = l }
}

func newSettings(opts []Option) settings {
	s := settings{
		requestTimeout: DefaultRequestTimeout,
		retryLimit:     DefaultRetryLimit,
		retryDelay:     DefaultRetryDelay,
	}
	for _, o := range opts {
		o(&s)
	}
	if s.logger == nil {
		s.logger = hclog.NewNullLogger()
	}
	if s.retryLimit < 0 {
		s.retryLimit = 0
	}
	return s
}

// Client issues JSON requests over one authenticated transport. It is owned
// by a single provider call and never shared.
type Client struct {
	transport  *connection.Transport
	httpClient *http.Client
	settings   settings
	logger     hclog.Logger
}

func NewClient(t *connection.Transport, opts ...Option) (*Client, error) {
	s := newSettings(opts)
	hc, err := t.HTTPClient(s.requestTimeout)
	if err != nil {
		return nil, err
	}
	return &Client{
		transport:  t,
		httpClient: hc,
		settings:   s,
		logger:     s.logger.With("server", t.BaseURL()),
	}, nil
}

func (c *Client) BaseURL() string {
	return c.transport.BaseURL()
}

func (c *Client) Logger() hclog.Logger {
	return c.logger
}

// Request describes a single API call.
type Request struct {
	Method      string
	Path        string
	Query       url.Values
	Body        any
	ContentType string
}

// Response is an unvalidated API response.
type Response struct {
	Method     string
	URL        string
	StatusCode int
	Body       []byte
}

// Check returns a *StatusError for any status outside [200,300).
func (r *Response) Check() error {
	if r.StatusCode < 200 || r.StatusCode >= 300 {
		return &StatusError{
			Method:     r.Method,
			URL:        r.URL,
			StatusCode: r.StatusCode,
			Body:       strings.TrimSpace(string(r.Body)),
		}
	}
	return nil
}

// Object decodes the response body.
func (r *Response) Object() (*Object, error) {
	obj, err := NewObject(r.Body)
	if err != nil {
		return nil, fmt.Errorf("%s %s: %w", r.Method, r.URL, err)
	}
	return obj, nil
}

// URL resolves path and query against the transport base URL. Leading slashes
// on path are normalized.
func (c *Client) URL(path string, query url.Values) (string, error) {
	u, err := url.Parse(c.transport.BaseURL() + "/" + strings.TrimLeft(path, "/"))
	if err != nil {
		return "", fmt.Errorf("invalid request path %q: %w", path, err)
	}
	if len(query) > 0 {
		q := u.Query()
		for k, vs := range query {
			for _, v := range vs {
				q.Add(k, v)
			}
		}
		u.RawQuery = q.Encode()
	}
	return u.String(), nil
}

// Do performs req without validating the status code. Connection failures and
// 429/5xx responses are retried for idempotent methods only.
func (c *Client) Do(ctx context.Context, req Request) (*Response, error) {
	target, err := c.URL(req.Path, req.Query)
	if err != nil {
		return nil, err
	}

	var payload []byte
	if req.Body != nil {
		if payload, err = json.Marshal(req.Body); err != nil {
			return nil, fmt.Errorf("%s %s: marshal request: %w", req.Method, target, err)
		}
	}

	var resp *Response
	attempt := func() error {
		r, err := c.roundTrip(ctx, req, target, payload)
		if err != nil {
			if !idempotent(req.Method) || ctx.Err() != nil {
				return backoff.Permanent(err)
			}
			return err
		}
		if idempotent(req.Method) && retryableStatus(r.StatusCode) {
			resp = r
			return r.Check()
		}
		resp = r
		return nil
	}

	var b backoff.BackOff = backoff.NewConstantBackOff(c.settings.retryDelay)
	b = backoff.WithContext(backoff.WithMaxRetries(b, uint64(c.settings.retryLimit)), ctx)

	err = backoff.RetryNotify(attempt, b, func(err error, next time.Duration) {
		c.logger.Debug("retrying request", "method", req.Method, "url", target, "error", err, "backoff", next)
	})
	if err != nil {
		var se *StatusError
		if errors.As(err, &se) && resp != nil {
			return resp, nil
		}
		return nil, err
	}
	return resp, nil
}

func (c *Client) roundTrip(ctx context.Context, req Request, target string, payload []byte) (*Response, error) {
	var body io.Reader
	if payload != nil {
		body = bytes.NewReader(payload)
	}

	hreq, err := http.NewRequestWithContext(ctx, req.Method, target, body)
	if err != nil {
		return nil, fmt.Errorf("%s %s: build request: %w", req.Method, target, err)
	}
	for k, vs := range c.transport.Header() {
		for _, v := range vs {
			hreq.Header.Add(k, v)
		}
	}
	hreq.Header.Set("Accept", contentTypeJSON)
	if payload != nil {
		ct := req.ContentType
		if ct == "" {
			ct = contentTypeJSON
		}
		hreq.Header.Set("Content-Type", ct)
	}

	start := time.Now()
	hresp, err := c.httpClient.Do(hreq)
	if err != nil {
		return nil, &RequestError{Method: req.Method, URL: target, Err: err}
	}
	defer hresp.Body.Close()

	data, err := io.ReadAll(io.LimitReader(hresp.Body, maxResponseBody))
	if err != nil {
		return nil, &RequestError{Method: req.Method, URL: target, Err: fmt.Errorf("read response: %w", err)}
	}

	c.logger.Trace("request complete", "method", req.Method, "url", target, "status", hresp.StatusCode, "elapsed", time.Since(start))

	return &Response{
		Method:     req.Method,
		URL:        target,
		StatusCode: hresp.StatusCode,
		Body:       data,
	}, nil
}

func idempotent(method string) bool {
	switch method {
	case http.MethodGet, http.MethodHead, http.MethodPut, http.MethodDelete:
		return true
	}
	return false
}

func (c *Client) call(ctx context.Context, req Request) (*Object, error) {
	resp, err := c.Do(ctx, req)
	if err != nil {
		return nil, err
	}
	if err := resp.Check(); err != nil {
		return nil, err
	}
	return resp.Object()
}

func (c *Client) Get(ctx context.Context, path string, query url.Values) (*Object, error) {
	return c.call(ctx, Request{Method: http.MethodGet, Path: path, Query: query})
}

func (c *Client) Post(ctx context.Context, path string, body any, query url.Values) (*Object, error) {
	return c.call(ctx, Request{Method: http.MethodPost, Path: path, Body: body, Query: query})
}

func (c *Client) Put(ctx context.Context, path string, body any, query url.Values) (*Object, error) {
	return c.call(ctx, Request{Method: http.MethodPut, Path: path, Body: body, Query: query})
}

// Patch sends body as a JSON patch document.
func (c *Client) Patch(ctx context.Context, path string, body any, query url.Values) (*Object, error) {
	return c.call(ctx, Request{Method: http.MethodPatch, Path: path, Body: body, Query: query, ContentType: contentTypeJSONPatch})
}

func (c *Client) Delete(ctx context.Context, path string, query url.Values) error {
	resp, err := c.Do(ctx, Request{Method: http.MethodDelete, Path: path, Query: query})
	if err != nil {
		return err
	}
	return resp.Check()
}
