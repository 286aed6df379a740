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

type cloudCredentialResource = lifecycleResource[cloudCredentialResourceModel, *cloudCredentialResourceModel, external.CloudCredentialInput, external.CloudCredentialOutput]

var _ resource.ResourceWithModifyPlan = &cloudCredentialResource{}

// cloudCredentialResourceModel describes the resource data model.
type cloudCredentialResourceModel struct {
	ID                  types.String   `tfsdk:"id"`
	Rancher             types.Object   `tfsdk:"rancher"`
	CredentialName      types.String   `tfsdk:"credential_name"`
	HarvesterClusterID  types.String   `tfsdk:"harvester_cluster_id"`
	HarvesterKubeconfig types.String   `tfsdk:"harvester_kubeconfig"`
	Annotations         types.Map      `tfsdk:"annotations"`
	CredentialID        types.String   `tfsdk:"credential_id"`
	Timeouts            timeouts.Value `tfsdk:"timeouts"`
}

func (m *cloudCredentialResourceModel) identity() *types.String       { return &m.ID }
func (m *cloudCredentialResourceModel) timeoutsValue() timeouts.Value { return m.Timeouts }

func (m *cloudCredentialResourceModel) input(ctx context.Context) (external.CloudCredentialInput, diag.Diagnostics) {
	d, diags := descriptorFrom(ctx, path.Root("rancher"), m.Rancher)
	annotations, mapDiags := stringMap(ctx, m.Annotations)
	diags.Append(mapDiags...)
	return external.CloudCredentialInput{
		Rancher:             d,
		Name:                m.CredentialName.ValueString(),
		HarvesterClusterID:  m.HarvesterClusterID.ValueString(),
		HarvesterKubeconfig: m.HarvesterKubeconfig.ValueString(),
		Annotations:         annotations,
	}, diags
}

func (m *cloudCredentialResourceModel) output(ctx context.Context) (external.CloudCredentialOutput, diag.Diagnostics) {
	in, diags := m.input(ctx)
	return external.CloudCredentialOutput{CloudCredentialInput: in, CredentialID: m.CredentialID.ValueString()}, diags
}

func (m *cloudCredentialResourceModel) apply(out external.CloudCredentialOutput) {
	m.CredentialID = types.StringValue(out.CredentialID)
}

// NewCloudCredentialResource returns a resource that registers a Harvester
// cloud credential with Rancher.
func NewCloudCredentialResource() resource.Resource {
	return &cloudCredentialResource{
		typeName: "cloud_credential",
		description: "Registers a Harvester cloud credential with Rancher. Unlike the other " +
			"resources, destroying it deletes the credential.",
		attributes: func() map[string]schema.Attribute {
			return map[string]schema.Attribute{
				"rancher": connectionAttribute("Connection to the Rancher server."),
				"credential_name": schema.StringAttribute{
					Required:            true,
					MarkdownDescription: "Name of the credential.",
					Validators: []validator.String{
						stringvalidator.LengthAtLeast(1),
					},
				},
				"harvester_cluster_id": schema.StringAttribute{
					Required:            true,
					MarkdownDescription: "Management cluster id of the Harvester cluster, see `rancherops_cluster_id`.",
				},
				"harvester_kubeconfig": schema.StringAttribute{
					Required:            true,
					Sensitive:           true,
					MarkdownDescription: "Kubeconfig granting access to the Harvester cluster.",
				},
				"annotations": schema.MapAttribute{
					ElementType:         types.StringType,
					Optional:            true,
					MarkdownDescription: "Annotations to set on the credential.",
				},
				"credential_id": schema.StringAttribute{
					Computed:            true,
					MarkdownDescription: "Id Rancher assigned to the credential.",
					PlanModifiers: []planmodifier.String{
						stringplanmodifier.UseStateForUnknown(),
					},
				},
			}
		},
		newProvider: func(d external.Deps) lifecycle.Provider[external.CloudCredentialInput, external.CloudCredentialOutput] {
			return &external.CloudCredential{Deps: d}
		},
	}
}
