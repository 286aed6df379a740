// Copyright (c) HashiCorp, Inc.
// SPDX-License-Identifier: MPL-2.0

//go:build integration

package rancherops_test

import (
	"context"
	"fmt"
	"log"
	"os"
	"testing"
	"time"

	"github.com/hashicorp/terraform-plugin-testing/helper/resource"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go/modules/k3s"

	"github.com/tinkerbell-community/terraform-provider-rancherops/rancherops/converge"
	"github.com/tinkerbell-community/terraform-provider-rancherops/rancherops/external"
)

var (
	k3sContainer  *k3s.K3sContainer
	k3sKubeconfig string
)

func TestMain(m *testing.M) {
	ctx := context.Background()

	log.Println("Starting K3s container...")
	var err error
	k3sContainer, err = k3s.Run(ctx, "rancher/k3s:v1.31.2-k3s1")
	if err != nil {
		log.Fatalf("Failed to start K3s container: %v", err)
	}

	kubeConfigYaml, err := k3sContainer.GetKubeConfig(ctx)
	if err != nil {
		log.Fatalf("Failed to get kubeconfig from K3s container: %v", err)
	}
	k3sKubeconfig = string(kubeConfigYaml)

	log.Println("K3s cluster is ready")
	code := m.Run()

	log.Println("Stopping K3s container...")
	if err := k3sContainer.Terminate(ctx); err != nil {
		log.Printf("Failed to terminate K3s container: %v", err)
	}

	os.Exit(code)
}

func TestIntegration_KubeWait_Namespace(t *testing.T) {
	p := &external.KubeWait{}
	res, err := p.Create(context.Background(), external.KubeWaitInput{
		Kubeconfig:   k3sKubeconfig,
		APIVersion:   "v1",
		Kind:         "Namespace",
		Name:         "kube-system",
		Timeout:      time.Minute,
		PollInterval: time.Second,
	})
	require.NoError(t, err)
	assert.True(t, res.Out.Reached)
	assert.Equal(t, "_cluster/Namespace/kube-system/", res.ID)
}

func TestIntegration_KubeWait_MissingObjectTimesOut(t *testing.T) {
	p := &external.KubeWait{Deps: external.Deps{InitialDelay: -1}}
	_, err := p.Create(context.Background(), external.KubeWaitInput{
		Kubeconfig:   k3sKubeconfig,
		APIVersion:   "apps/v1",
		Kind:         "Deployment",
		Namespace:    "default",
		Name:         "does-not-exist",
		Timeout:      3 * time.Second,
		PollInterval: time.Second,
	})
	require.Error(t, err)
	assert.True(t, converge.IsTimeout(err))
}

func TestIntegration_KubeWait_CoreDNSAvailable(t *testing.T) {
	resource.Test(t, resource.TestCase{
		ProtoV6ProviderFactories: testAccProtoV6ProviderFactories,
		Steps: []resource.TestStep{
			{
				Config: kubeWaitConfig(k3sKubeconfig, "kube-system", "coredns", "Available"),
				Check: resource.ComposeAggregateTestCheckFunc(
					resource.TestCheckResourceAttr("rancherops_kube_wait.test", "reached", "true"),
					resource.TestCheckResourceAttr(
						"rancherops_kube_wait.test",
						"id",
						"kube-system/Deployment/coredns/Available",
					),
				),
			},
		},
	})
}

func kubeWaitConfig(kubeconfig, namespace, name, condition string) string {
	return fmt.Sprintf(`
provider "rancherops" {
  poll_interval = "2s"
}

resource "rancherops_kube_wait" "test" {
  kubeconfig  = %[1]q
  api_version = "apps/v1"
  kind        = "Deployment"
  namespace   = %[2]q
  name        = %[3]q
  condition   = %[4]q
  timeout     = 180
}
`, kubeconfig, namespace, name, condition)
}
