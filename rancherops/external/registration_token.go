// Copyright (c) HashiCorp, Inc.
// SPDX-License-Identifier: MPL-2.0

package external

import (
	"context"
	"fmt"
	"time"

	"github.com/tinkerbell-community/terraform-provider-rancherops/rancherops/api"
	"github.com/tinkerbell-community/terraform-provider-rancherops/rancherops/lifecycle"
)

type RegistrationTokenInput struct {
	Kubeconfig       string
	ClusterNamespace string
	Timeout          time.Duration
	PollInterval     time.Duration
}

type RegistrationTokenOutput struct {
	RegistrationTokenInput
	ManifestURL string
}

// RegistrationToken waits for Rancher to publish the import manifest URL of
// a cluster's default registration token.
type RegistrationToken struct {
	Deps
}

var _ lifecycle.Provider[RegistrationTokenInput, RegistrationTokenOutput] = (*RegistrationToken)(nil)

func (p *RegistrationToken) Create(ctx context.Context, in RegistrationTokenInput) (lifecycle.CreateResult[RegistrationTokenOutput], error) {
	logger := p.logger("cluster_registration_token").With("namespace", in.ClusterNamespace)
	c, err := p.connectKubeconfig(ctx, in.Kubeconfig, logger)
	if err != nil {
		return lifecycle.CreateResult[RegistrationTokenOutput]{}, err
	}

	manifestURL, err := api.FetchManifestURL(ctx, c, in.ClusterNamespace,
		p.wait(orDefault(in.Timeout, RegistrationTokenTimeout), in.PollInterval)...)
	if err != nil {
		return lifecycle.CreateResult[RegistrationTokenOutput]{}, fmt.Errorf("failed to fetch cluster registration token for %s: %w", in.ClusterNamespace, err)
	}

	return lifecycle.CreateResult[RegistrationTokenOutput]{
		ID:  in.ClusterNamespace,
		Out: RegistrationTokenOutput{RegistrationTokenInput: in, ManifestURL: manifestURL},
	}, nil
}

func (p *RegistrationToken) Diff(old RegistrationTokenOutput, in RegistrationTokenInput) lifecycle.DiffResult {
	return new(lifecycle.Diff).
		Compare("kubeconfig", old.Kubeconfig, in.Kubeconfig, false).
		Compare("cluster_namespace", old.ClusterNamespace, in.ClusterNamespace, true).
		Compare("timeout", old.Timeout, in.Timeout, false).
		Compare("poll_interval", old.PollInterval, in.PollInterval, false).
		Result()
}

// Update keeps the published manifest URL.
func (p *RegistrationToken) Update(_ context.Context, _ string, old RegistrationTokenOutput, in RegistrationTokenInput) (RegistrationTokenOutput, error) {
	return RegistrationTokenOutput{RegistrationTokenInput: in, ManifestURL: old.ManifestURL}, nil
}

// Delete does nothing: the token belongs to the cluster.
func (p *RegistrationToken) Delete(context.Context, string, RegistrationTokenOutput) error {
	return nil
}
