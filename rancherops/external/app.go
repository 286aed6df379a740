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

type AppInput struct {
	Rancher      connection.Descriptor
	Repo         string
	ChartName    string
	ChartVersion string
	Namespace    string
	Values       map[string]any
}

type AppOutput struct {
	AppInput
}

type chartAction struct {
	Charts    []chartSpec `json:"charts"`
	Namespace string      `json:"namespace"`
}

type chartSpec struct {
	ChartName   string            `json:"chartName"`
	Version     string            `json:"version"`
	ReleaseName string            `json:"releaseName"`
	Annotations map[string]string `json:"annotations"`
	Values      map[string]any    `json:"values"`
}

func (in AppInput) action() chartAction {
	values := in.Values
	if values == nil {
		values = map[string]any{}
	}
	return chartAction{
		Charts: []chartSpec{{
			ChartName:   in.ChartName,
			Version:     in.ChartVersion,
			ReleaseName: in.ChartName,
			Annotations: map[string]string{},
			Values:      values,
		}},
		Namespace: in.Namespace,
	}
}

func ClusterRepoPath(repo string) string {
	return "/v1/catalog.cattle.io.clusterrepos/" + repo
}

// App installs a chart from a Rancher cluster repository and upgrades it when
// the version or values change.
type App struct {
	Deps
}

var _ lifecycle.Provider[AppInput, AppOutput] = (*App)(nil)

func (p *App) run(ctx context.Context, in AppInput, action string) error {
	logger := p.logger("app").With("chart", in.ChartName, "namespace", in.Namespace, "repo", in.Repo)
	c, err := p.connect(ctx, in.Rancher, logger)
	if err != nil {
		return err
	}

	logger.Info("running chart action", "action", action, "version", in.ChartVersion)
	if _, err := c.Post(ctx, ClusterRepoPath(in.Repo), in.action(), url.Values{"action": {action}}); err != nil {
		return fmt.Errorf("failed to %s app %s in namespace %s: %w", action, in.ChartName, in.Namespace, err)
	}
	return nil
}

func (p *App) Create(ctx context.Context, in AppInput) (lifecycle.CreateResult[AppOutput], error) {
	if err := p.run(ctx, in, "install"); err != nil {
		return lifecycle.CreateResult[AppOutput]{}, err
	}
	return lifecycle.CreateResult[AppOutput]{
		ID:  lifecycle.StableID(in.Namespace, in.ChartName),
		Out: AppOutput{AppInput: in},
	}, nil
}

func (p *App) Diff(old AppOutput, in AppInput) lifecycle.DiffResult {
	return new(lifecycle.Diff).
		Compare("rancher", old.Rancher, in.Rancher, false).
		Compare("repo", old.Repo, in.Repo, true).
		Compare("chart_name", old.ChartName, in.ChartName, true).
		Compare("namespace", old.Namespace, in.Namespace, true).
		Compare("chart_version", old.ChartVersion, in.ChartVersion, false).
		Compare("values", old.Values, in.Values, false).
		Result()
}

// Update upgrades the release in place. A change of connection alone is
// recorded without a remote call.
func (p *App) Update(ctx context.Context, _ string, old AppOutput, in AppInput) (AppOutput, error) {
	if old.ChartVersion != in.ChartVersion || !lifecycle.Equal(old.Values, in.Values) {
		if err := p.run(ctx, in, "upgrade"); err != nil {
			return AppOutput{}, err
		}
	}
	return AppOutput{AppInput: in}, nil
}

// Delete does nothing: once installed, the release is managed through
// Rancher's apps and may be adopted by other tooling.
func (p *App) Delete(_ context.Context, id string, _ AppOutput) error {
	p.logger("app").Debug("leaving release installed", "id", id)
	return nil
}
