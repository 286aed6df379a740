// Copyright (c) HashiCorp, Inc.
// SPDX-License-Identifier: MPL-2.0

package rancherops_test

import (
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"os"
	"strings"
	"sync"
	"testing"

	"github.com/hashicorp/terraform-plugin-framework/providerserver"
	"github.com/hashicorp/terraform-plugin-go/tfprotov6"

	"github.com/tinkerbell-community/terraform-provider-rancherops/rancherops"
)

// testAccProtoV6ProviderFactories are used to instantiate the provider during
// acceptance testing. The factory function will be invoked for every Terraform CLI
// command executed to create a provider server to which the CLI can reattach.
var testAccProtoV6ProviderFactories = map[string]func() (tfprotov6.ProviderServer, error){
	"rancherops": providerserver.NewProtocol6WithError(rancherops.New("test")()),
}

// testAccPreCheck skips tests that need a live Rancher server unless one is
// configured.
func testAccPreCheck(t *testing.T) {
	for _, env := range []string{"RANCHEROPS_TEST_URL", "RANCHEROPS_TEST_TOKEN"} {
		if os.Getenv(env) == "" {
			t.Skipf("%s not set. Skipping acceptance test.", env)
		}
	}
}

// fakeRancher records the settings written to it.
type fakeRancher struct {
	*httptest.Server

	mu       sync.Mutex
	settings map[string]string
}

func newFakeRancher(t *testing.T, token string) *fakeRancher {
	t.Helper()

	f := &fakeRancher{settings: map[string]string{}}
	f.Server = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Header.Get("Authorization") != "Bearer "+token {
			http.Error(w, `{"message":"unauthorized"}`, http.StatusUnauthorized)
			return
		}
		name, ok := strings.CutPrefix(r.URL.Path, "/v3/settings/")
		if !ok || r.Method != http.MethodPut {
			http.NotFound(w, r)
			return
		}

		var body struct {
			Value string `json:"value"`
		}
		if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}

		f.mu.Lock()
		f.settings[name] = body.Value
		f.mu.Unlock()

		w.Header().Set("Content-Type", "application/json")
		fmt.Fprintf(w, `{"id":%q,"value":%q}`, name, body.Value)
	}))
	t.Cleanup(f.Close)
	return f
}

func (f *fakeRancher) setting(name string) string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.settings[name]
}
