// Copyright (c) HashiCorp, Inc.
// SPDX-License-Identifier: MPL-2.0

package external

import (
	"context"
	"fmt"
	"net/url"

	"github.com/tinkerbell-community/terraform-provider-rancherops/rancherops/connection"
	"github.com/tinkerbell-community/terraform-provider-rancherops/rancherops/lifecycle"
)

type RancherKubeconfigInput struct {
	URL         string
	Username    string
	Password    string
	ClusterName string
	Insecure    bool
}

type RancherKubeconfigOutput struct {
	RancherKubeconfigInput
	Kubeconfig string
}

func ManagementClusterPath(cluster string) string {
	return "/v1/management.cattle.io.clusters/" + cluster
}

// RancherKubeconfig generates a kubeconfig for a cluster managed by Rancher.
type RancherKubeconfig struct {
	Deps
}

var _ lifecycle.Provider[RancherKubeconfigInput, RancherKubeconfigOutput] = (*RancherKubeconfig)(nil)

func (p *RancherKubeconfig) Create(ctx context.Context, in RancherKubeconfigInput) (lifecycle.CreateResult[RancherKubeconfigOutput], error) {
	logger := p.logger("rancher_kubeconfig").With("cluster", in.ClusterName)
	d := connection.Direct{
		Server:   in.URL,
		Username: in.Username,
		Password: in.Password,
		Insecure: in.Insecure,
	}
	c, err := p.connect(ctx, d, logger)
	if err != nil {
		return lifecycle.CreateResult[RancherKubeconfigOutput]{}, err
	}

	obj, err := c.Post(ctx, ManagementClusterPath(in.ClusterName), nil, url.Values{"action": {"generateKubeconfig"}})
	if err != nil {
		return lifecycle.CreateResult[RancherKubeconfigOutput]{}, fmt.Errorf("failed to generate kubeconfig for cluster %s: %w", in.ClusterName, err)
	}
	config, _ := obj.String("config")
	if config == "" {
		return lifecycle.CreateResult[RancherKubeconfigOutput]{}, fmt.Errorf("failed to generate kubeconfig for cluster %s: response carries no config", in.ClusterName)
	}

	if in.Insecure {
		data, err := connection.MakeInsecure([]byte(config))
		if err != nil {
			return lifecycle.CreateResult[RancherKubeconfigOutput]{}, err
		}
		config = string(data)
	}
	logger.Info("generated kubeconfig")

	return lifecycle.CreateResult[RancherKubeconfigOutput]{
		ID:  lifecycle.StableID(c.BaseURL(), in.ClusterName),
		Out: RancherKubeconfigOutput{RancherKubeconfigInput: in, Kubeconfig: config},
	}, nil
}

func (p *RancherKubeconfig) Diff(old RancherKubeconfigOutput, in RancherKubeconfigInput) lifecycle.DiffResult {
	return new(lifecycle.Diff).
		Compare("url", connection.TrimServer(old.URL), connection.TrimServer(in.URL), true).
		Compare("username", old.Username, in.Username, true).
		Compare("password", old.Password, in.Password, true).
		Compare("cluster_name", old.ClusterName, in.ClusterName, true).
		Compare("insecure", old.Insecure, in.Insecure, true).
		Result()
}

// Update generates a fresh kubeconfig.
func (p *RancherKubeconfig) Update(ctx context.Context, _ string, _ RancherKubeconfigOutput, in RancherKubeconfigInput) (RancherKubeconfigOutput, error) {
	res, err := p.Create(ctx, in)
	return res.Out, err
}

// Delete does nothing: generated kubeconfigs are not tracked by Rancher.
func (p *RancherKubeconfig) Delete(context.Context, string, RancherKubeconfigOutput) error {
	return nil
}
