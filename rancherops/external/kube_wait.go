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

const clusterScope = "_cluster"

type KubeWaitInput struct {
	Kubeconfig    string
	APIVersion    string
	Kind          string
	Namespace     string
	Name          string
	Condition     string
	ExpectedValue string
	Timeout       time.Duration
	PollInterval  time.Duration
}

type KubeWaitOutput struct {
	KubeWaitInput
	Reached bool
}

func (in KubeWaitInput) id() string {
	scope := in.Namespace
	if scope == "" {
		scope = clusterScope
	}
	return lifecycle.StableID(scope, in.Kind, in.Name, in.Condition)
}

// KubeWait blocks until a Kubernetes object exists and, when a condition is
// named, reports it with the expected status.
type KubeWait struct {
	Deps
}

var _ lifecycle.Provider[KubeWaitInput, KubeWaitOutput] = (*KubeWait)(nil)

func (p *KubeWait) Create(ctx context.Context, in KubeWaitInput) (lifecycle.CreateResult[KubeWaitOutput], error) {
	logger := p.logger("kube_wait").With("object", in.Kind+"/"+in.Name)
	path, err := api.ObjectPath(in.APIVersion, in.Kind, in.Namespace, in.Name)
	if err != nil {
		return lifecycle.CreateResult[KubeWaitOutput]{}, err
	}
	c, err := p.connectKubeconfig(ctx, in.Kubeconfig, logger)
	if err != nil {
		return lifecycle.CreateResult[KubeWaitOutput]{}, err
	}

	w := api.ConditionWait{
		Path:     path,
		Type:     in.Condition,
		Expected: in.ExpectedValue,
	}
	reached, err := api.WaitForCondition(ctx, c, w, p.wait(orDefault(in.Timeout, KubeWaitTimeout), in.PollInterval)...)
	if err != nil {
		return lifecycle.CreateResult[KubeWaitOutput]{}, fmt.Errorf("failed waiting for %s/%s: %w", in.Kind, in.Name, err)
	}
	logger.Info("wait finished", "condition", in.Condition)

	return lifecycle.CreateResult[KubeWaitOutput]{
		ID:  in.id(),
		Out: KubeWaitOutput{KubeWaitInput: in, Reached: reached},
	}, nil
}

func (p *KubeWait) Diff(old KubeWaitOutput, in KubeWaitInput) lifecycle.DiffResult {
	return new(lifecycle.Diff).
		Compare("kubeconfig", old.Kubeconfig, in.Kubeconfig, false).
		Compare("api_version", old.APIVersion, in.APIVersion, true).
		Compare("kind", old.Kind, in.Kind, true).
		Compare("namespace", old.Namespace, in.Namespace, true).
		Compare("name", old.Name, in.Name, true).
		Compare("condition", old.Condition, in.Condition, true).
		Compare("expected_value", old.ExpectedValue, in.ExpectedValue, true).
		Compare("timeout", old.Timeout, in.Timeout, false).
		Compare("poll_interval", old.PollInterval, in.PollInterval, false).
		Result()
}

// Update records new connection or timing settings; the wait already
// completed.
func (p *KubeWait) Update(_ context.Context, _ string, old KubeWaitOutput, in KubeWaitInput) (KubeWaitOutput, error) {
	return KubeWaitOutput{KubeWaitInput: in, Reached: old.Reached}, nil
}

// Delete does nothing: waiting has no side effect.
func (p *KubeWait) Delete(context.Context, string, KubeWaitOutput) error {
	return nil
}
