// Copyright (c) HashiCorp, Inc.
// SPDX-License-Identifier: MPL-2.0

package api

import (
	"context"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tinkerbell-community/terraform-provider-rancherops/rancherops/converge"
)

// sequenceServer replies with each (status, body) in turn, repeating the last.
func sequenceServer(t *testing.T, replies ...[2]any) (*httptest.Server, *int32) {
	t.Helper()
	var calls int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		n := int(atomic.AddInt32(&calls, 1)) - 1
		if n >= len(replies) {
			n = len(replies) - 1
		}
		w.WriteHeader(replies[n][0].(int))
		_, _ = w.Write([]byte(replies[n][1].(string)))
	}))
	t.Cleanup(srv.Close)
	return srv, &calls
}

func reply(status int, body string) [2]any {
	return [2]any{status, body}
}

const readyTrue = `{"status":{"conditions":[{"type":"Ready","status":"True"}]}}`
const readyFalse = `{"status":{"conditions":[{"type":"Ready","status":"False"}]}}`

func TestWaitForCondition(t *testing.T) {
	tests := []struct {
		name    string
		replies [][2]any
		wait    ConditionWait
		want    bool
		timeout bool
		fatal   bool
	}{
		{
			name:    "ready",
			replies: [][2]any{reply(200, readyTrue)},
			wait:    ConditionWait{Path: "/x", Type: "Ready"},
			want:    true,
		},
		{
			name:    "not found then ready",
			replies: [][2]any{reply(404, ""), reply(404, ""), reply(200, readyTrue)},
			wait:    ConditionWait{Path: "/x", Type: "Ready", Expected: "True"},
			want:    true,
		},
		{
			name:    "false then true",
			replies: [][2]any{reply(200, readyFalse), reply(200, readyTrue)},
			wait:    ConditionWait{Path: "/x", Type: "Ready"},
			want:    true,
		},
		{
			name:    "expected false",
			replies: [][2]any{reply(200, readyFalse)},
			wait:    ConditionWait{Path: "/x", Type: "Ready", Expected: "False"},
			want:    true,
		},
		{
			name:    "existence only",
			replies: [][2]any{reply(404, ""), reply(200, `{}`)},
			wait:    ConditionWait{Path: "/x"},
			want:    true,
		},
		{
			name:    "never ready",
			replies: [][2]any{reply(200, readyFalse)},
			wait:    ConditionWait{Path: "/x", Type: "Ready", Timeout: 50 * time.Millisecond},
			timeout: true,
		},
		{
			name:    "conditions object is not a list",
			replies: [][2]any{reply(200, `{"status":{"conditions":{"type":"Ready","status":"True"}}}`)},
			wait:    ConditionWait{Path: "/x", Type: "Ready", Timeout: 50 * time.Millisecond},
			timeout: true,
		},
		{
			name:    "server errors are retried",
			replies: [][2]any{reply(500, ""), reply(200, readyTrue)},
			wait:    ConditionWait{Path: "/x", Type: "Ready"},
			want:    true,
		},
		{
			name:    "forbidden is fatal",
			replies: [][2]any{reply(403, `{"message":"forbidden"}`)},
			wait:    ConditionWait{Path: "/x", Type: "Ready"},
			fatal:   true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			srv, _ := sequenceServer(t, tt.replies...)
			c := testClient(t, srv, WithRetryLimit(0))

			got, err := WaitForCondition(context.Background(), c, tt.wait, fastWait()...)
			switch {
			case tt.timeout:
				require.Error(t, err)
				assert.True(t, converge.IsTimeout(err))
				assert.Contains(t, err.Error(), "/x condition Ready=True")
			case tt.fatal:
				require.Error(t, err)
				assert.False(t, converge.IsTimeout(err))
				assert.Equal(t, http.StatusForbidden, StatusCode(err))
			default:
				require.NoError(t, err)
				assert.Equal(t, tt.want, got)
			}
		})
	}
}

func TestObjectCount(t *testing.T) {
	tests := []struct {
		name string
		body string
		want int
	}{
		{"matching entry", readyTrue, 1},
		{"no match", readyFalse, 0},
		{"empty body", "", 0},
		{"missing path", `{"status":{}}`, 0},
		{"object instead of list", `{"status":{"conditions":{"type":"Ready","status":"True"}}}`, 0},
		{"string instead of list", `{"status":{"conditions":"Ready"}}`, 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			obj, err := NewObject([]byte(tt.body))
			require.NoError(t, err)
			assert.Equal(t, tt.want, obj.Count("status.conditions", "type", "Ready", "status", "True"))
		})
	}
}

func TestObjectPath(t *testing.T) {
	tests := []struct {
		apiVersion, kind, namespace, name string
		want                              string
		wantErr                           bool
	}{
		{"v1", "Secret", "cattle-system", "bootstrap-secret", "/api/v1/namespaces/cattle-system/secrets/bootstrap-secret", false},
		{"v1", "Node", "", "n1", "/api/v1/nodes/n1", false},
		{"v1", "Endpoints", "ns", "svc", "/api/v1/namespaces/ns/endpoints/svc", false},
		{"apps/v1", "Deployment", "cattle-system", "rancher", "/apis/apps/v1/namespaces/cattle-system/deployments/rancher", false},
		{"kubevirt.io/v1", "VirtualMachineInstance", "default", "vm", "/apis/kubevirt.io/v1/namespaces/default/virtualmachineinstances/vm", false},
		{"management.cattle.io/v3", "Cluster", "", "c-1", "/apis/management.cattle.io/v3/clusters/c-1", false},
		{"networking.k8s.io/v1", "Ingress", "ns", "web", "/apis/networking.k8s.io/v1/namespaces/ns/ingresses/web", false},
		{"networking.k8s.io/v1", "NetworkPolicy", "ns", "deny", "/apis/networking.k8s.io/v1/namespaces/ns/networkpolicies/deny", false},
		{"apps/v1/extra", "Deployment", "ns", "web", "", true},
		{"", "Deployment", "ns", "web", "", true},
		{"v1", "", "ns", "web", "", true},
	}
	for _, tt := range tests {
		t.Run(tt.apiVersion+"/"+tt.kind, func(t *testing.T) {
			got, err := ObjectPath(tt.apiVersion, tt.kind, tt.namespace, tt.name)
			if tt.wantErr {
				require.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}
