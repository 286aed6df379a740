// Copyright (c) HashiCorp, Inc.
// SPDX-License-Identifier: MPL-2.0

package external

import (
	"context"
	"fmt"
	"time"

	"github.com/tinkerbell-community/terraform-provider-rancherops/rancherops/api"
	"github.com/tinkerbell-community/terraform-provider-rancherops/rancherops/connection"
	"github.com/tinkerbell-community/terraform-provider-rancherops/rancherops/lifecycle"
)

type ClusterIDInput struct {
	Rancher     connection.Descriptor
	ClusterName string
	Timeout     time.Duration
}

type ClusterIDOutput struct {
	ClusterIDInput
	ClusterID string
}

// ClusterID looks up the management cluster id for a display name.
type ClusterID struct {
	Deps
}

var _ lifecycle.Provider[ClusterIDInput, ClusterIDOutput] = (*ClusterID)(nil)

func (p *ClusterID) Create(ctx context.Context, in ClusterIDInput) (lifecycle.CreateResult[ClusterIDOutput], error) {
	logger := p.logger("cluster_id").With("cluster", in.ClusterName)
	c, err := p.connect(ctx, in.Rancher, logger)
	if err != nil {
		return lifecycle.CreateResult[ClusterIDOutput]{}, err
	}

	id, err := api.FetchClusterID(ctx, c, in.ClusterName, p.wait(orDefault(in.Timeout, ClusterIDTimeout), 0)...)
	if err != nil {
		return lifecycle.CreateResult[ClusterIDOutput]{}, fmt.Errorf("failed to fetch cluster ID for %s: %w", in.ClusterName, err)
	}
	logger.Debug("resolved cluster id", "id", id)

	return lifecycle.CreateResult[ClusterIDOutput]{
		ID:  in.ClusterName,
		Out: ClusterIDOutput{ClusterIDInput: in, ClusterID: id},
	}, nil
}

func (p *ClusterID) Diff(old ClusterIDOutput, in ClusterIDInput) lifecycle.DiffResult {
	return new(lifecycle.Diff).
		Compare("rancher", old.Rancher, in.Rancher, false).
		Compare("cluster_name", old.ClusterName, in.ClusterName, true).
		Compare("timeout", old.Timeout, in.Timeout, false).
		Result()
}

// Update keeps the resolved id; a cluster's id never changes.
func (p *ClusterID) Update(_ context.Context, _ string, old ClusterIDOutput, in ClusterIDInput) (ClusterIDOutput, error) {
	return ClusterIDOutput{ClusterIDInput: in, ClusterID: old.ClusterID}, nil
}

// Delete does nothing: the lookup has no side effect.
func (p *ClusterID) Delete(context.Context, string, ClusterIDOutput) error {
	return nil
}
