// Copyright (c) HashiCorp, Inc.
// SPDX-License-Identifier: MPL-2.0

package external

import (
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/tinkerbell-community/terraform-provider-rancherops/rancherops/api"
)

type recorded struct {
	Method      string
	Path        string
	Query       string
	Auth        string
	ContentType string
	Body        string
}

// fakeAPI routes "METHOD /path" to handlers and records every request.
type fakeAPI struct {
	t        *testing.T
	mu       sync.Mutex
	routes   map[string]http.HandlerFunc
	requests []recorded
	srv      *httptest.Server
}

func newFakeAPI(t *testing.T) *fakeAPI {
	t.Helper()
	f := &fakeAPI{t: t, routes: map[string]http.HandlerFunc{}}
	f.srv = httptest.NewServer(http.HandlerFunc(f.serve))
	t.Cleanup(f.srv.Close)
	return f
}

func (f *fakeAPI) URL() string {
	return f.srv.URL
}

func (f *fakeAPI) handle(route string, h http.HandlerFunc) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.routes[route] = h
}

func (f *fakeAPI) reply(route string, status int, body any) {
	f.handle(route, func(w http.ResponseWriter, _ *http.Request) {
		writeJSON(w, status, body)
	})
}

func (f *fakeAPI) serve(w http.ResponseWriter, r *http.Request) {
	b, _ := io.ReadAll(r.Body)
	f.mu.Lock()
	f.requests = append(f.requests, recorded{
		Method:      r.Method,
		Path:        r.URL.Path,
		Query:       r.URL.RawQuery,
		Auth:        r.Header.Get("Authorization"),
		ContentType: r.Header.Get("Content-Type"),
		Body:        string(b),
	})
	h, ok := f.routes[r.Method+" "+r.URL.Path]
	f.mu.Unlock()
	if !ok {
		writeJSON(w, http.StatusNotFound, map[string]string{"message": "not found"})
		return
	}
	h(w, r)
}

func (f *fakeAPI) find(method, path string) []recorded {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []recorded
	for _, r := range f.requests {
		if r.Method == method && r.Path == path {
			out = append(out, r)
		}
	}
	return out
}

func (f *fakeAPI) kubeconfig(token string) string {
	return `apiVersion: v1
kind: Config
current-context: local
clusters:
- name: local
  cluster:
    server: ` + f.URL() + `
contexts:
- name: local
  context:
    cluster: local
    user: admin
users:
- name: admin
  user:
    token: ` + token + `
`
}

func (f *fakeAPI) acceptLogin(token string) {
	f.reply("POST /v3-public/localProviders/local", http.StatusCreated, map[string]string{"token": token})
}

func writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if body != nil {
		_ = json.NewEncoder(w).Encode(body)
	}
}

func decodeBody(t *testing.T, r recorded, v any) {
	t.Helper()
	require.NoError(t, json.Unmarshal([]byte(r.Body), v))
}

func testDeps() Deps {
	return Deps{
		ClientOptions: []api.Option{api.WithRetryDelay(time.Millisecond)},
		PollInterval:  10 * time.Millisecond,
		InitialDelay:  time.Millisecond,
	}
}
