// Copyright (c) HashiCorp, Inc.
// SPDX-License-Identifier: MPL-2.0

package api

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tinkerbell-community/terraform-provider-rancherops/rancherops/connection"
	"github.com/tinkerbell-community/terraform-provider-rancherops/rancherops/converge"
)

func fastWait() []converge.Option {
	return []converge.Option{
		converge.WithInitialDelay(0),
		converge.WithInterval(10 * time.Millisecond),
		converge.WithTimeout(time.Second),
	}
}

func testClient(t *testing.T, srv *httptest.Server, opts ...Option) *Client {
	t.Helper()
	tr, err := connection.FromToken(srv.URL, "tok", false)
	require.NoError(t, err)
	opts = append([]Option{WithRetryDelay(time.Millisecond)}, opts...)
	c, err := NewClient(tr, opts...)
	require.NoError(t, err)
	return c
}

func TestClient_Verbs(t *testing.T) {
	type seen struct {
		method, path, query, contentType, auth string
		body                                    string
	}
	var last seen
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		b, _ := io.ReadAll(r.Body)
		last = seen{r.Method, r.URL.Path, r.URL.RawQuery, r.Header.Get("Content-Type"), r.Header.Get("Authorization"), string(b)}
		_, _ = w.Write([]byte(`{"ok":"yes"}`))
	}))
	defer srv.Close()

	c := testClient(t, srv)
	ctx := context.Background()

	obj, err := c.Get(ctx, "v3/settings/foo", nil)
	require.NoError(t, err)
	v, _ := obj.String("ok")
	assert.Equal(t, "yes", v)
	assert.Equal(t, seen{method: "GET", path: "/v3/settings/foo", auth: "Bearer tok"}, last)

	_, err = c.Post(ctx, "//v1/things", map[string]string{"a": "b"}, map[string][]string{"action": {"install"}})
	require.NoError(t, err)
	assert.Equal(t, "POST", last.method)
	assert.Equal(t, "/v1/things", last.path)
	assert.Equal(t, "action=install", last.query)
	assert.Equal(t, "application/json", last.contentType)
	assert.JSONEq(t, `{"a":"b"}`, last.body)

	_, err = c.Patch(ctx, "/x", []map[string]string{{"op": "replace"}}, nil)
	require.NoError(t, err)
	assert.Equal(t, "application/json-patch+json", last.contentType)

	_, err = c.Put(ctx, "/x", map[string]int{"n": 1}, nil)
	require.NoError(t, err)
	assert.Equal(t, "PUT", last.method)
}

func TestClient_StatusError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
		_, _ = w.Write([]byte(`{"message":"nope"}`))
	}))
	defer srv.Close()

	_, err := testClient(t, srv).Get(context.Background(), "/missing", nil)
	require.Error(t, err)
	assert.True(t, IsNotFound(err))
	assert.False(t, IsTransient(err))
	assert.Contains(t, err.Error(), "GET "+srv.URL+"/missing")
	assert.Contains(t, err.Error(), "404")
	assert.Contains(t, err.Error(), "nope")
}

func TestClient_Do_DoesNotCheckStatus(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	}))
	defer srv.Close()

	resp, err := testClient(t, srv).Do(context.Background(), Request{Method: http.MethodGet, Path: "/x"})
	require.NoError(t, err)
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
	assert.True(t, IsNotFound(resp.Check()))
}

func TestClient_RetriesIdempotentOnly(t *testing.T) {
	tests := []struct {
		name      string
		method    string
		wantCalls int32
	}{
		{name: "get retried", method: http.MethodGet, wantCalls: 3},
		{name: "put retried", method: http.MethodPut, wantCalls: 3},
		{name: "post not retried", method: http.MethodPost, wantCalls: 1},
		{name: "patch not retried", method: http.MethodPatch, wantCalls: 1},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var calls int32
			srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				atomic.AddInt32(&calls, 1)
				w.WriteHeader(http.StatusServiceUnavailable)
			}))
			defer srv.Close()

			resp, err := testClient(t, srv).Do(context.Background(), Request{Method: tt.method, Path: "/x", Body: map[string]string{}})
			require.NoError(t, err)
			assert.Equal(t, http.StatusServiceUnavailable, resp.StatusCode)
			assert.Equal(t, tt.wantCalls, atomic.LoadInt32(&calls))
			assert.True(t, IsTransient(resp.Check()))
		})
	}
}

func TestClient_RetryRecovers(t *testing.T) {
	var calls int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if atomic.AddInt32(&calls, 1) == 1 {
			w.WriteHeader(http.StatusBadGateway)
			return
		}
		_, _ = w.Write([]byte(`{"v":1}`))
	}))
	defer srv.Close()

	obj, err := testClient(t, srv).Get(context.Background(), "/x", nil)
	require.NoError(t, err)
	assert.Equal(t, float64(1), obj.Find("v"))
	assert.Equal(t, int32(2), atomic.LoadInt32(&calls))
}

func TestClient_ConnectionFailure(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	c := testClient(t, srv, WithRetryLimit(1))
	srv.Close()

	_, err := c.Get(context.Background(), "/x", nil)
	require.Error(t, err)
	assert.True(t, IsTransient(err))
	assert.Equal(t, 0, StatusCode(err))
}

func TestClient_MalformedJSON(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{not json`))
	}))
	defer srv.Close()

	_, err := testClient(t, srv).Get(context.Background(), "/x", nil)
	require.Error(t, err)
	assert.False(t, IsTransient(err))
}

func loginServer(t *testing.T, status int, response string, calls *int32) *httptest.Server {
	t.Helper()
	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if calls != nil {
			atomic.AddInt32(calls, 1)
		}
		assert.Equal(t, "/v3-public/localProviders/local", r.URL.Path)
		assert.Equal(t, "login", r.URL.Query().Get("action"))
		assert.Empty(t, r.Header.Get("Authorization"))
		var body loginRequest
		assert.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		assert.Equal(t, loginRequest{Username: "admin", Password: "pw"}, body)
		w.WriteHeader(status)
		_, _ = w.Write([]byte(response))
	}))
}

func TestLogin(t *testing.T) {
	srv := loginServer(t, http.StatusCreated, `{"token":"tok-1"}`, nil)
	defer srv.Close()

	token, err := Login(context.Background(), srv.URL+"/", "admin", "pw", false)
	require.NoError(t, err)
	assert.Equal(t, "tok-1", token)
}

func TestLogin_Rejected(t *testing.T) {
	var calls int32
	srv := loginServer(t, http.StatusUnauthorized, `{"message":"bad"}`, &calls)
	defer srv.Close()

	_, err := Login(context.Background(), srv.URL, "admin", "pw", false)
	require.Error(t, err)
	assert.True(t, IsAuthError(err))
	assert.Equal(t, http.StatusUnauthorized, StatusCode(err))
	assert.Equal(t, int32(1), atomic.LoadInt32(&calls))
}

func TestLogin_NoToken(t *testing.T) {
	srv := loginServer(t, http.StatusOK, `{}`, nil)
	defer srv.Close()

	_, err := Login(context.Background(), srv.URL, "admin", "pw", false)
	assert.True(t, IsAuthError(err))
}

func TestLogin_MissingCredentials(t *testing.T) {
	_, err := Login(context.Background(), "https://x.example", "admin", "", false)
	assert.True(t, connection.IsConfigError(err))
}

func TestLoginWithRetry(t *testing.T) {
	var calls int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if atomic.AddInt32(&calls, 1) <= 2 {
			w.WriteHeader(http.StatusServiceUnavailable)
			return
		}
		_, _ = w.Write([]byte(`{"token":"tok-2"}`))
	}))
	defer srv.Close()

	token, err := LoginWithRetry(context.Background(), srv.URL, "admin", "pw", false, fastWait())
	require.NoError(t, err)
	assert.Equal(t, "tok-2", token)
}

func TestLoginWithRetry_RejectedIsFatal(t *testing.T) {
	var calls int32
	srv := loginServer(t, http.StatusUnauthorized, `{}`, &calls)
	defer srv.Close()

	_, err := LoginWithRetry(context.Background(), srv.URL, "admin", "pw", false, fastWait())
	require.Error(t, err)
	assert.True(t, IsAuthError(err))
	assert.False(t, converge.IsTimeout(err))
	assert.Equal(t, int32(1), atomic.LoadInt32(&calls))
}

func TestConnect(t *testing.T) {
	var auth string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == loginPath {
			_, _ = w.Write([]byte(`{"token":"tok-1"}`))
			return
		}
		auth = r.Header.Get("Authorization")
		_, _ = w.Write([]byte(`{}`))
	}))
	defer srv.Close()

	ctx := context.Background()

	c, err := Connect(ctx, connection.Direct{Server: srv.URL, Username: "admin", Password: "pw"})
	require.NoError(t, err)
	_, err = c.Get(ctx, "/v3", nil)
	require.NoError(t, err)
	assert.Equal(t, "Bearer tok-1", auth)

	c, err = Connect(ctx, connection.Direct{Server: srv.URL, Token: "given"})
	require.NoError(t, err)
	_, err = c.Get(ctx, "/v3", nil)
	require.NoError(t, err)
	assert.Equal(t, "Bearer given", auth)

	kubeconfig := `clusters:
- name: c
  cluster: {server: "` + srv.URL + `"}
contexts:
- name: a
  context: {cluster: c, user: u}
users:
- name: u
  user: {token: from-kubeconfig}
`
	c, err = Connect(ctx, connection.ClusterAccess{Kubeconfig: kubeconfig})
	require.NoError(t, err)
	_, err = c.Get(ctx, "/v3", nil)
	require.NoError(t, err)
	assert.Equal(t, "Bearer from-kubeconfig", auth)
}

func TestConnect_InvalidDescriptor(t *testing.T) {
	_, err := Connect(context.Background(), connection.Direct{Server: "https://x.example"})
	assert.True(t, connection.IsConfigError(err))

	_, err = Connect(context.Background(), connection.ClusterAccess{Kubeconfig: "users: []"})
	assert.True(t, connection.IsConfigError(err))

	_, err = Connect(context.Background(), nil)
	assert.True(t, connection.IsConfigError(err))
}
