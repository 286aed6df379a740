// Copyright (c) HashiCorp, Inc.
// SPDX-License-Identifier: MPL-2.0

package rancherops

import (
	"context"

	"github.com/hashicorp/terraform-plugin-framework-timeouts/resource/timeouts"
	"github.com/hashicorp/terraform-plugin-framework-validators/listvalidator"
	"github.com/hashicorp/terraform-plugin-framework-validators/stringvalidator"
	"github.com/hashicorp/terraform-plugin-framework/diag"
	"github.com/hashicorp/terraform-plugin-framework/path"
	"github.com/hashicorp/terraform-plugin-framework/resource"
	"github.com/hashicorp/terraform-plugin-framework/resource/schema"
	"github.com/hashicorp/terraform-plugin-framework/schema/validator"
	"github.com/hashicorp/terraform-plugin-framework/types"

	"github.com/tinkerbell-community/terraform-provider-rancherops/rancherops/external"
	"github.com/tinkerbell-community/terraform-provider-rancherops/rancherops/lifecycle"
)

type fleetRepoResource = lifecycleResource[fleetRepoResourceModel, *fleetRepoResourceModel, external.FleetRepoInput, external.FleetRepoOutput]

var _ resource.ResourceWithModifyPlan = &fleetRepoResource{}

// fleetRepoResourceModel describes the resource data model.
type fleetRepoResourceModel struct {
	ID       types.String   `tfsdk:"id"`
	Rancher  types.Object   `tfsdk:"rancher"`
	Repos    types.List     `tfsdk:"repos"` // List of gitRepoModel objects
	Timeouts timeouts.Value `tfsdk:"timeouts"`
}

// gitRepoModel describes one entry of repos.
type gitRepoModel struct {
	Name           types.String `tfsdk:"name"`
	URL            types.String `tfsdk:"url"`
	Branch         types.String `tfsdk:"branch"`
	Paths          types.List   `tfsdk:"paths"`
	HelmSecretName types.String `tfsdk:"helm_secret_name"`
	ClusterGroup   types.String `tfsdk:"cluster_group"`
	Namespace      types.String `tfsdk:"namespace"`
}

func (m *fleetRepoResourceModel) identity() *types.String       { return &m.ID }
func (m *fleetRepoResourceModel) timeoutsValue() timeouts.Value { return m.Timeouts }

func (m *fleetRepoResourceModel) input(ctx context.Context) (external.FleetRepoInput, diag.Diagnostics) {
	d, diags := descriptorFrom(ctx, path.Root("rancher"), m.Rancher)
	in := external.FleetRepoInput{Rancher: d}
	if m.Repos.IsNull() || m.Repos.IsUnknown() {
		return in, diags
	}

	var repos []gitRepoModel
	diags.Append(m.Repos.ElementsAs(ctx, &repos, false)...)
	for _, r := range repos {
		paths, pathDiags := stringList(ctx, r.Paths)
		diags.Append(pathDiags...)
		in.Repos = append(in.Repos, external.GitRepo{
			Name:           r.Name.ValueString(),
			URL:            r.URL.ValueString(),
			Branch:         r.Branch.ValueString(),
			Paths:          paths,
			HelmSecretName: r.HelmSecretName.ValueString(),
			ClusterGroup:   r.ClusterGroup.ValueString(),
			Namespace:      r.Namespace.ValueString(),
		})
	}
	return in, diags
}

func (m *fleetRepoResourceModel) output(ctx context.Context) (external.FleetRepoOutput, diag.Diagnostics) {
	in, diags := m.input(ctx)
	return external.FleetRepoOutput{FleetRepoInput: in}, diags
}

func (m *fleetRepoResourceModel) apply(external.FleetRepoOutput) {}

// NewFleetRepoResource returns a resource that registers Fleet GitRepos.
func NewFleetRepoResource() resource.Resource {
	return &fleetRepoResource{
		typeName: "fleet_repo",
		description: "Registers Fleet GitRepos through Rancher, one after another. Repos that " +
			"already exist are left untouched. Destroying the resource leaves the repos registered.",
		attributes: func() map[string]schema.Attribute {
			return map[string]schema.Attribute{
				"rancher": connectionAttribute("Connection to the Rancher server."),
				"repos": schema.ListNestedAttribute{
					Required:            true,
					MarkdownDescription: "GitRepos to register.",
					Validators: []validator.List{
						listvalidator.SizeAtLeast(1),
					},
					NestedObject: schema.NestedAttributeObject{
						Attributes: map[string]schema.Attribute{
							"name": schema.StringAttribute{
								Required:            true,
								MarkdownDescription: "Name of the GitRepo.",
								Validators: []validator.String{
									stringvalidator.LengthAtLeast(1),
								},
							},
							"url": schema.StringAttribute{
								Required:            true,
								MarkdownDescription: "Git URL to watch.",
							},
							"branch": schema.StringAttribute{
								Optional:            true,
								MarkdownDescription: "Branch to watch. Defaults to `main`.",
							},
							"paths": schema.ListAttribute{
								ElementType:         types.StringType,
								Optional:            true,
								MarkdownDescription: "Paths within the repository to deploy.",
							},
							"helm_secret_name": schema.StringAttribute{
								Optional:            true,
								MarkdownDescription: "Secret holding Helm repository credentials.",
							},
							"cluster_group": schema.StringAttribute{
								Optional:            true,
								MarkdownDescription: "Cluster group to target.",
							},
							"namespace": schema.StringAttribute{
								Optional:            true,
								MarkdownDescription: "Fleet workspace. Defaults to `fleet-default`.",
							},
						},
					},
				},
			}
		},
		newProvider: func(d external.Deps) lifecycle.Provider[external.FleetRepoInput, external.FleetRepoOutput] {
			return &external.FleetRepo{Deps: d}
		},
	}
}
