// Copyright (c) HashiCorp, Inc.
// SPDX-License-Identifier: MPL-2.0

package external

import (
	"context"
	"encoding/base64"
	"net/http"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tinkerbell-community/terraform-provider-rancherops/rancherops/connection"
	"github.com/tinkerbell-community/terraform-provider-rancherops/rancherops/converge"
)

func TestRegistrationToken_AbsentThenPresent(t *testing.T) {
	f := newFakeAPI(t)
	var calls int32
	f.handle("GET /apis/management.cattle.io/v3/namespaces/fleet-default/clusterregistrationtokens/default-token", func(w http.ResponseWriter, _ *http.Request) {
		if atomic.AddInt32(&calls, 1) <= 2 {
			writeJSON(w, http.StatusNotFound, nil)
			return
		}
		writeJSON(w, http.StatusOK, map[string]any{"status": map[string]string{"manifestUrl": "https://rancher/v3/import/x.yaml"}})
	})

	interval := 20 * time.Millisecond
	p := &RegistrationToken{Deps: testDeps()}
	start := time.Now()
	res, err := p.Create(context.Background(), RegistrationTokenInput{
		Kubeconfig:       f.kubeconfig("k"),
		ClusterNamespace: "fleet-default",
		PollInterval:     interval,
		Timeout:          time.Second,
	})
	require.NoError(t, err)
	assert.GreaterOrEqual(t, time.Since(start), 2*interval)
	assert.Equal(t, "https://rancher/v3/import/x.yaml", res.Out.ManifestURL)
	assert.Equal(t, "fleet-default", res.ID)
	assert.Equal(t, int32(3), atomic.LoadInt32(&calls))
}

func TestRegistrationToken_TimesOut(t *testing.T) {
	f := newFakeAPI(t)

	p := &RegistrationToken{Deps: testDeps()}
	_, err := p.Create(context.Background(), RegistrationTokenInput{
		Kubeconfig:       f.kubeconfig("k"),
		ClusterNamespace: "c-abc",
		Timeout:          50 * time.Millisecond,
	})
	require.Error(t, err)
	assert.True(t, converge.IsTimeout(err))
	assert.Contains(t, err.Error(), "c-abc")
}

func TestClusterID(t *testing.T) {
	f := newFakeAPI(t)
	f.reply("GET /apis/management.cattle.io/v3/clusters", http.StatusOK, map[string]any{
		"items": []any{
			map[string]any{"metadata": map[string]string{"name": "c-m-1"}, "spec": map[string]string{"displayName": "harvester"}},
		},
	})

	p := &ClusterID{Deps: testDeps()}
	in := ClusterIDInput{Rancher: connection.Direct{Server: f.URL(), Token: "t"}, ClusterName: "harvester"}
	res, err := p.Create(context.Background(), in)
	require.NoError(t, err)
	assert.Equal(t, "c-m-1", res.Out.ClusterID)
	assert.Equal(t, "harvester", res.ID)

	out, err := p.Update(context.Background(), res.ID, res.Out, ClusterIDInput{Rancher: in.Rancher, ClusterName: "harvester", Timeout: time.Minute})
	require.NoError(t, err)
	assert.Equal(t, "c-m-1", out.ClusterID)

	d := p.Diff(res.Out, ClusterIDInput{Rancher: in.Rancher, ClusterName: "other"})
	assert.Equal(t, []string{"cluster_name"}, d.Replaces)
}

func TestVMIPAddress(t *testing.T) {
	f := newFakeAPI(t)
	var calls int32
	f.handle("GET /apis/kubevirt.io/v1/namespaces/default/virtualmachineinstances/web-0", func(w http.ResponseWriter, _ *http.Request) {
		ip := "999.999.1.1"
		if atomic.AddInt32(&calls, 1) > 1 {
			ip = "192.168.10.20"
		}
		writeJSON(w, http.StatusOK, map[string]any{"status": map[string]any{
			"interfaces": []any{map[string]string{"name": "default", "ipAddress": ip}},
		}})
	})

	p := &VMIPAddress{Deps: testDeps()}
	res, err := p.Create(context.Background(), VMIPAddressInput{
		Kubeconfig: f.kubeconfig("k"),
		Namespace:  "default",
		Name:       "web-0",
		Timeout:    time.Second,
	})
	require.NoError(t, err)
	assert.Equal(t, "192.168.10.20", res.Out.IPAddress)
	assert.Equal(t, "default/web-0", res.ID)
	assert.Equal(t, int32(2), atomic.LoadInt32(&calls))
}

func TestKubeWait(t *testing.T) {
	f := newFakeAPI(t)
	var calls int32
	f.handle("GET /apis/apps/v1/namespaces/cattle-system/deployments/rancher", func(w http.ResponseWriter, _ *http.Request) {
		status := "False"
		if atomic.AddInt32(&calls, 1) > 1 {
			status = "True"
		}
		writeJSON(w, http.StatusOK, map[string]any{"status": map[string]any{
			"conditions": []any{map[string]string{"type": "Available", "status": status}},
		}})
	})

	p := &KubeWait{Deps: testDeps()}
	res, err := p.Create(context.Background(), KubeWaitInput{
		Kubeconfig: f.kubeconfig("k"),
		APIVersion: "apps/v1",
		Kind:       "Deployment",
		Namespace:  "cattle-system",
		Name:       "rancher",
		Condition:  "Available",
		Timeout:    time.Second,
	})
	require.NoError(t, err)
	assert.True(t, res.Out.Reached)
	assert.Equal(t, "cattle-system/Deployment/rancher/Available", res.ID)
}

func TestKubeWait_ClusterScopedExistence(t *testing.T) {
	f := newFakeAPI(t)
	f.reply("GET /apis/apiextensions.k8s.io/v1/customresourcedefinitions/clusters.provisioning.cattle.io", http.StatusOK, map[string]any{})

	p := &KubeWait{Deps: testDeps()}
	res, err := p.Create(context.Background(), KubeWaitInput{
		Kubeconfig: f.kubeconfig("k"),
		APIVersion: "apiextensions.k8s.io/v1",
		Kind:       "CustomResourceDefinition",
		Name:       "clusters.provisioning.cattle.io",
	})
	require.NoError(t, err)
	assert.True(t, res.Out.Reached)
	assert.Equal(t, "_cluster/CustomResourceDefinition/clusters.provisioning.cattle.io/", res.ID)
}

func TestKubeWait_IDIncludesKind(t *testing.T) {
	f := newFakeAPI(t)
	f.reply("GET /api/v1/namespaces/cattle-system/services/rancher", http.StatusOK, map[string]any{})
	f.reply("GET /apis/apps/v1/namespaces/cattle-system/deployments/rancher", http.StatusOK, map[string]any{})

	p := &KubeWait{Deps: testDeps()}
	ids := map[string]bool{}
	for _, target := range [][2]string{{"v1", "Service"}, {"apps/v1", "Deployment"}} {
		res, err := p.Create(context.Background(), KubeWaitInput{
			Kubeconfig: f.kubeconfig("k"),
			APIVersion: target[0],
			Kind:       target[1],
			Namespace:  "cattle-system",
			Name:       "rancher",
			Timeout:    time.Second,
		})
		require.NoError(t, err)
		ids[res.ID] = true
	}
	assert.Len(t, ids, 2)
}

func TestKubeWait_InvalidAPIVersion(t *testing.T) {
	f := newFakeAPI(t)

	p := &KubeWait{Deps: testDeps()}
	_, err := p.Create(context.Background(), KubeWaitInput{
		Kubeconfig: f.kubeconfig("k"),
		APIVersion: "apps/v1/extra",
		Kind:       "Deployment",
		Name:       "rancher",
	})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "invalid api version")
	assert.Empty(t, f.find(http.MethodGet, "/apis/apps/v1/extra/deployments/rancher"))
}

func TestBootstrapPassword(t *testing.T) {
	f := newFakeAPI(t)
	f.reply("GET /api/v1/namespaces/cattle-system/secrets/bootstrap-secret", http.StatusOK, map[string]any{
		"data": map[string]string{"bootstrapPassword": base64.StdEncoding.EncodeToString([]byte("boot"))},
	})
	f.acceptLogin("admin-token")
	f.reply("POST /v3/users", http.StatusOK, map[string]any{})

	p := &BootstrapPassword{Deps: testDeps()}
	res, err := p.Create(context.Background(), BootstrapPasswordInput{
		Kubeconfig: f.kubeconfig("k"),
		RancherURL: f.URL(),
		Password:   "new-admin-pw",
		Timeout:    time.Second,
	})
	require.NoError(t, err)
	assert.Equal(t, "new-admin-pw", res.Out.AdminPassword)

	logins := f.find(http.MethodPost, "/v3-public/localProviders/local")
	require.Len(t, logins, 1)
	assert.JSONEq(t, `{"username":"admin","password":"boot"}`, logins[0].Body)

	changes := f.find(http.MethodPost, "/v3/users")
	require.Len(t, changes, 1)
	assert.Equal(t, "action=changepassword", changes[0].Query)
	assert.Equal(t, "Bearer admin-token", changes[0].Auth)
	assert.JSONEq(t, `{"currentPassword":"boot","newPassword":"new-admin-pw"}`, changes[0].Body)

	out, err := p.Update(context.Background(), res.ID, res.Out, BootstrapPasswordInput{
		Kubeconfig: f.kubeconfig("k"),
		RancherURL: f.URL(),
		Password:   "rotated",
	})
	require.NoError(t, err)
	assert.Equal(t, "rotated", out.AdminPassword)
	changes = f.find(http.MethodPost, "/v3/users")
	require.Len(t, changes, 2)
	assert.JSONEq(t, `{"currentPassword":"new-admin-pw","newPassword":"rotated"}`, changes[1].Body)
}

func TestBootstrapPassword_Generated(t *testing.T) {
	f := newFakeAPI(t)
	f.reply("GET /api/v1/namespaces/cattle-system/secrets/bootstrap-secret", http.StatusOK, map[string]any{
		"data": map[string]string{"bootstrapPassword": base64.StdEncoding.EncodeToString([]byte("boot"))},
	})
	f.acceptLogin("admin-token")
	f.reply("POST /v3/users", http.StatusOK, map[string]any{})

	p := &BootstrapPassword{Deps: testDeps()}
	res, err := p.Create(context.Background(), BootstrapPasswordInput{Kubeconfig: f.kubeconfig("k"), RancherURL: f.URL()})
	require.NoError(t, err)
	assert.Len(t, res.Out.AdminPassword, generatedPasswordLen)

	d := p.Diff(res.Out, BootstrapPasswordInput{Kubeconfig: f.kubeconfig("k"), RancherURL: f.URL() + "/"})
	assert.False(t, d.Changed)
}
