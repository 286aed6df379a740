// Copyright (c) HashiCorp, Inc.
// SPDX-License-Identifier: MPL-2.0

package rancherops

import (
	"context"

	"github.com/hashicorp/terraform-plugin-framework-timeouts/resource/timeouts"
	"github.com/hashicorp/terraform-plugin-framework-validators/stringvalidator"
	"github.com/hashicorp/terraform-plugin-framework/diag"
	"github.com/hashicorp/terraform-plugin-framework/resource"
	"github.com/hashicorp/terraform-plugin-framework/resource/schema"
	"github.com/hashicorp/terraform-plugin-framework/schema/validator"
	"github.com/hashicorp/terraform-plugin-framework/types"

	"github.com/tinkerbell-community/terraform-provider-rancherops/rancherops/external"
	"github.com/tinkerbell-community/terraform-provider-rancherops/rancherops/lifecycle"
)

type rancherKubeconfigResource = lifecycleResource[rancherKubeconfigResourceModel, *rancherKubeconfigResourceModel, external.RancherKubeconfigInput, external.RancherKubeconfigOutput]

var _ resource.ResourceWithModifyPlan = &rancherKubeconfigResource{}

// rancherKubeconfigResourceModel describes the resource data model.
type rancherKubeconfigResourceModel struct {
	ID          types.String   `tfsdk:"id"`
	URL         types.String   `tfsdk:"url"`
	Username    types.String   `tfsdk:"username"`
	Password    types.String   `tfsdk:"password"`
	ClusterName types.String   `tfsdk:"cluster_name"`
	Insecure    types.Bool     `tfsdk:"insecure"`
	Kubeconfig  types.String   `tfsdk:"kubeconfig"`
	Timeouts    timeouts.Value `tfsdk:"timeouts"`
}

func (m *rancherKubeconfigResourceModel) identity() *types.String       { return &m.ID }
func (m *rancherKubeconfigResourceModel) timeoutsValue() timeouts.Value { return m.Timeouts }

func (m *rancherKubeconfigResourceModel) input(context.Context) (external.RancherKubeconfigInput, diag.Diagnostics) {
	return external.RancherKubeconfigInput{
		URL:         m.URL.ValueString(),
		Username:    m.Username.ValueString(),
		Password:    m.Password.ValueString(),
		ClusterName: m.ClusterName.ValueString(),
		Insecure:    m.Insecure.ValueBool(),
	}, nil
}

func (m *rancherKubeconfigResourceModel) output(ctx context.Context) (external.RancherKubeconfigOutput, diag.Diagnostics) {
	in, diags := m.input(ctx)
	return external.RancherKubeconfigOutput{RancherKubeconfigInput: in, Kubeconfig: m.Kubeconfig.ValueString()}, diags
}

func (m *rancherKubeconfigResourceModel) apply(out external.RancherKubeconfigOutput) {
	m.Kubeconfig = types.StringValue(out.Kubeconfig)
}

// NewRancherKubeconfigResource returns a resource that generates a kubeconfig
// for a cluster managed by Rancher.
func NewRancherKubeconfigResource() resource.Resource {
	required := func(description string, sensitive bool) schema.StringAttribute {
		return schema.StringAttribute{
			Required:            true,
			Sensitive:           sensitive,
			MarkdownDescription: description,
			Validators: []validator.String{
				stringvalidator.LengthAtLeast(1),
			},
		}
	}
	return &rancherKubeconfigResource{
		typeName: "rancher_kubeconfig",
		description: "Logs in to Rancher and generates a kubeconfig for a managed cluster through " +
			"the `generateKubeconfig` action.",
		attributes: func() map[string]schema.Attribute {
			return map[string]schema.Attribute{
				"url":          required("Base URL of the Rancher server.", false),
				"username":     required("Local user to log in as.", false),
				"password":     required("Password of the local user.", true),
				"cluster_name": required("Management cluster id, for example `local` or `c-m-abcdef12`.", false),
				"insecure": schema.BoolAttribute{
					Optional: true,
					MarkdownDescription: "Skip TLS verification when talking to Rancher and disable it in the " +
						"returned kubeconfig.",
				},
				"kubeconfig": schema.StringAttribute{
					Computed:            true,
					Sensitive:           true,
					MarkdownDescription: "Generated kubeconfig.",
				},
			}
		},
		newProvider: func(d external.Deps) lifecycle.Provider[external.RancherKubeconfigInput, external.RancherKubeconfigOutput] {
			return &external.RancherKubeconfig{Deps: d}
		},
	}
}
