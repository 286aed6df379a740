// Copyright (c) HashiCorp, Inc.
// SPDX-License-Identifier: MPL-2.0

package external

import (
	"context"
	"fmt"

	"github.com/tinkerbell-community/terraform-provider-rancherops/rancherops/api"
	"github.com/tinkerbell-community/terraform-provider-rancherops/rancherops/connection"
	"github.com/tinkerbell-community/terraform-provider-rancherops/rancherops/lifecycle"
)

const (
	gitReposPath          = "/v1/fleet.cattle.io.gitrepos"
	defaultFleetBranch    = "main"
	defaultFleetPolling   = "60s"
	defaultFleetNamespace = "fleet-default"
)

type GitRepo struct {
	Name           string
	URL            string
	Branch         string
	Paths          []string
	HelmSecretName string
	ClusterGroup   string
	Namespace      string
}

func (r GitRepo) namespace() string {
	if r.Namespace == "" {
		return defaultFleetNamespace
	}
	return r.Namespace
}

type FleetRepoInput struct {
	Rancher connection.Descriptor
	Repos   []GitRepo
}

type FleetRepoOutput struct {
	FleetRepoInput
}

type gitRepoTarget struct {
	ClusterGroup string `json:"clusterGroup"`
}

type gitRepoBody struct {
	Type     string `json:"type"`
	Metadata struct {
		Name      string `json:"name"`
		Namespace string `json:"namespace"`
	} `json:"metadata"`
	Spec struct {
		Repo         string   `json:"repo"`
		Branch       string   `json:"branch"`
		Paths        []string `json:"paths"`
		CorrectDrift struct {
			Enabled bool `json:"enabled"`
		} `json:"correctDrift"`
		PollingInterval       string          `json:"pollingInterval"`
		InsecureSkipTLSVerify bool            `json:"insecureSkipTLSVerify"`
		HelmSecretName        string          `json:"helmSecretName,omitempty"`
		Targets               []gitRepoTarget `json:"targets"`
	} `json:"spec"`
}

func (r GitRepo) body() gitRepoBody {
	var b gitRepoBody
	b.Type = "fleet.cattle.io.gitrepo"
	b.Metadata.Name = r.Name
	b.Metadata.Namespace = r.namespace()
	b.Spec.Repo = r.URL
	b.Spec.Branch = r.Branch
	if b.Spec.Branch == "" {
		b.Spec.Branch = defaultFleetBranch
	}
	b.Spec.Paths = r.Paths
	if b.Spec.Paths == nil {
		b.Spec.Paths = []string{}
	}
	b.Spec.PollingInterval = defaultFleetPolling
	b.Spec.HelmSecretName = r.HelmSecretName
	b.Spec.Targets = []gitRepoTarget{}
	if r.ClusterGroup != "" {
		b.Spec.Targets = append(b.Spec.Targets, gitRepoTarget{ClusterGroup: r.ClusterGroup})
	}
	return b
}

// FleetRepo registers Fleet GitRepos. Repos that already exist are left
// untouched.
type FleetRepo struct {
	Deps
}

var _ lifecycle.Provider[FleetRepoInput, FleetRepoOutput] = (*FleetRepo)(nil)

func (p *FleetRepo) Create(ctx context.Context, in FleetRepoInput) (lifecycle.CreateResult[FleetRepoOutput], error) {
	logger := p.logger("fleet_repo")
	c, err := p.connect(ctx, in.Rancher, logger)
	if err != nil {
		return lifecycle.CreateResult[FleetRepoOutput]{}, err
	}

	keys := make([]string, 0, len(in.Repos))
	for _, repo := range in.Repos {
		keys = append(keys, repo.namespace()+"/"+repo.Name)

		_, err := c.Post(ctx, gitReposPath, repo.body(), nil)
		switch {
		case api.IsConflict(err):
			logger.Warn("GitRepo already exists, leaving it as is", "name", repo.Name, "namespace", repo.namespace())
		case err != nil:
			return lifecycle.CreateResult[FleetRepoOutput]{}, fmt.Errorf("error creating Fleet GitRepo %s: %w", repo.Name, err)
		default:
			logger.Info("created GitRepo", "name", repo.Name, "namespace", repo.namespace())
		}
	}

	id, err := lifecycle.HashID("fleet-repos", keys)
	if err != nil {
		return lifecycle.CreateResult[FleetRepoOutput]{}, err
	}
	return lifecycle.CreateResult[FleetRepoOutput]{
		ID:  id,
		Out: FleetRepoOutput{FleetRepoInput: in},
	}, nil
}

func (p *FleetRepo) Diff(old FleetRepoOutput, in FleetRepoInput) lifecycle.DiffResult {
	return new(lifecycle.Diff).
		Compare("rancher", old.Rancher, in.Rancher, false).
		Compare("repos", old.Repos, in.Repos, true).
		Result()
}

// Update only records a new connection; repo changes replace the resource.
func (p *FleetRepo) Update(_ context.Context, _ string, _ FleetRepoOutput, in FleetRepoInput) (FleetRepoOutput, error) {
	return FleetRepoOutput{FleetRepoInput: in}, nil
}

// Delete does nothing: GitRepos stay registered so that removing them from
// configuration does not tear down the workloads Fleet deployed.
func (p *FleetRepo) Delete(_ context.Context, id string, _ FleetRepoOutput) error {
	p.logger("fleet_repo").Debug("leaving GitRepos registered", "id", id)
	return nil
}
