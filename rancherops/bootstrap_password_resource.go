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

type bootstrapPasswordResource = lifecycleResource[bootstrapPasswordResourceModel, *bootstrapPasswordResourceModel, external.BootstrapPasswordInput, external.BootstrapPasswordOutput]

var _ resource.ResourceWithModifyPlan = &bootstrapPasswordResource{}

// bootstrapPasswordResourceModel describes the resource data model.
type bootstrapPasswordResourceModel struct {
	ID            types.String   `tfsdk:"id"`
	Kubeconfig    types.String   `tfsdk:"kubeconfig"`
	RancherURL    types.String   `tfsdk:"rancher_url"`
	Password      types.String   `tfsdk:"password"`
	Insecure      types.Bool     `tfsdk:"insecure"`
	Timeout       types.Int64    `tfsdk:"timeout"`
	AdminPassword types.String   `tfsdk:"admin_password"`
	Timeouts      timeouts.Value `tfsdk:"timeouts"`
}

func (m *bootstrapPasswordResourceModel) identity() *types.String       { return &m.ID }
func (m *bootstrapPasswordResourceModel) timeoutsValue() timeouts.Value { return m.Timeouts }

func (m *bootstrapPasswordResourceModel) input(context.Context) (external.BootstrapPasswordInput, diag.Diagnostics) {
	return external.BootstrapPasswordInput{
		Kubeconfig: m.Kubeconfig.ValueString(),
		RancherURL: m.RancherURL.ValueString(),
		Password:   m.Password.ValueString(),
		Insecure:   m.Insecure.ValueBool(),
		Timeout:    seconds(m.Timeout),
	}, nil
}

func (m *bootstrapPasswordResourceModel) output(ctx context.Context) (external.BootstrapPasswordOutput, diag.Diagnostics) {
	in, diags := m.input(ctx)
	return external.BootstrapPasswordOutput{BootstrapPasswordInput: in, AdminPassword: m.AdminPassword.ValueString()}, diags
}

func (m *bootstrapPasswordResourceModel) apply(out external.BootstrapPasswordOutput) {
	m.AdminPassword = types.StringValue(out.AdminPassword)
}

// NewBootstrapPasswordResource returns a resource that replaces the bootstrap
// password of a new Rancher install.
func NewBootstrapPasswordResource() resource.Resource {
	return &bootstrapPasswordResource{
		typeName: "bootstrap_password",
		description: "Reads the bootstrap password of a fresh Rancher install from the " +
			"`cattle-system/bootstrap-secret` secret, logs in as `admin` and sets a new password. " +
			"Changing `password` later rotates the admin password.",
		attributes: func() map[string]schema.Attribute {
			return map[string]schema.Attribute{
				"kubeconfig": kubeconfigAttribute(),
				"rancher_url": schema.StringAttribute{
					Required:            true,
					MarkdownDescription: "Base URL of the Rancher server.",
					Validators: []validator.String{
						stringvalidator.LengthAtLeast(1),
					},
				},
				"password": schema.StringAttribute{
					Optional:            true,
					Sensitive:           true,
					MarkdownDescription: "Admin password to set. A random password is generated when unset.",
					Validators: []validator.String{
						stringvalidator.LengthAtLeast(12),
					},
				},
				"insecure": schema.BoolAttribute{
					Optional:            true,
					MarkdownDescription: "Skip TLS certificate verification when talking to Rancher.",
				},
				"timeout": secondsAttribute("Seconds to wait for the bootstrap secret. Defaults to 300."),
				"admin_password": schema.StringAttribute{
					Computed:            true,
					Sensitive:           true,
					MarkdownDescription: "Admin password now in effect.",
				},
			}
		},
		newProvider: func(d external.Deps) lifecycle.Provider[external.BootstrapPasswordInput, external.BootstrapPasswordOutput] {
			return &external.BootstrapPassword{Deps: d}
		},
	}
}
