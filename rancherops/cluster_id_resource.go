// Copyright (c) HashiCorp, Inc.
// SPDX-License-Identifier: MPL-2.0

package rancherops

import (
	"context"

	"github.com/hashicorp/terraform-plugin-framework-timeouts/resource/timeouts"
	"github.com/hashicorp/terraform-plugin-framework-validators/stringvalidator"
	"github.com/hashicorp/terraform-plugin-framework/diag"
	"github.com/hashicorp/terraform-plugin-framework/path"
	"github.com/hashicorp/terraform-plugin-framework/resource"
	"github.com/hashicorp/terraform-plugin-framework/resource/schema"
	"github.com/hashicorp/terraform-plugin-framework/resource/schema/planmodifier"
	"github.com/hashicorp/terraform-plugin-framework/resource/schema/stringplanmodifier"
	"github.com/hashicorp/terraform-plugin-framework/schema/validator"
	"github.com/hashicorp/terraform-plugin-framework/types"

	"github.com/tinkerbell-community/terraform-provider-rancherops/rancherops/external"
	"github.com/tinkerbell-community/terraform-provider-rancherops/rancherops/lifecycle"
)

type clusterIDResource = lifecycleResource[clusterIDResourceModel, *clusterIDResourceModel, external.ClusterIDInput, external.ClusterIDOutput]

var _ resource.ResourceWithModifyPlan = &clusterIDResource{}

// clusterIDResourceModel describes the resource data model.
type clusterIDResourceModel struct {
	ID          types.String   `tfsdk:"id"`
	Rancher     types.Object   `tfsdk:"rancher"`
	ClusterName types.String   `tfsdk:"cluster_name"`
	Timeout     types.Int64    `tfsdk:"timeout"`
	ClusterID   types.String   `tfsdk:"cluster_id"`
	Timeouts    timeouts.Value `tfsdk:"timeouts"`
}

func (m *clusterIDResourceModel) identity() *types.String       { return &m.ID }
func (m *clusterIDResourceModel) timeoutsValue() timeouts.Value { return m.Timeouts }

func (m *clusterIDResourceModel) input(ctx context.Context) (external.ClusterIDInput, diag.Diagnostics) {
	d, diags := descriptorFrom(ctx, path.Root("rancher"), m.Rancher)
	return external.ClusterIDInput{
		Rancher:     d,
		ClusterName: m.ClusterName.ValueString(),
		Timeout:     seconds(m.Timeout),
	}, diags
}

func (m *clusterIDResourceModel) output(ctx context.Context) (external.ClusterIDOutput, diag.Diagnostics) {
	in, diags := m.input(ctx)
	return external.ClusterIDOutput{ClusterIDInput: in, ClusterID: m.ClusterID.ValueString()}, diags
}

func (m *clusterIDResourceModel) apply(out external.ClusterIDOutput) {
	m.ClusterID = types.StringValue(out.ClusterID)
}

// NewClusterIDResource returns a resource that resolves the management
// cluster id of a cluster by display name.
func NewClusterIDResource() resource.Resource {
	return &clusterIDResource{
		typeName: "cluster_id",
		description: "Waits for a cluster with the given display name to be registered in Rancher " +
			"and exposes its management cluster id.",
		attributes: func() map[string]schema.Attribute {
			return map[string]schema.Attribute{
				"rancher": connectionAttribute("Connection to the Rancher server."),
				"cluster_name": schema.StringAttribute{
					Required:            true,
					MarkdownDescription: "Display name of the cluster.",
					Validators: []validator.String{
						stringvalidator.LengthAtLeast(1),
					},
				},
				"timeout": secondsAttribute("Seconds to wait for the cluster. Defaults to 30."),
				"cluster_id": schema.StringAttribute{
					Computed:            true,
					MarkdownDescription: "Management cluster id, for example `c-m-abcdef12`.",
					PlanModifiers: []planmodifier.String{
						stringplanmodifier.UseStateForUnknown(),
					},
				},
			}
		},
		newProvider: func(d external.Deps) lifecycle.Provider[external.ClusterIDInput, external.ClusterIDOutput] {
			return &external.ClusterID{Deps: d}
		},
	}
}
