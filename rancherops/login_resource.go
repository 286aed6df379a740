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
	"github.com/hashicorp/terraform-plugin-framework/schema/validator"
	"github.com/hashicorp/terraform-plugin-framework/types"

	"github.com/tinkerbell-community/terraform-provider-rancherops/rancherops/external"
	"github.com/tinkerbell-community/terraform-provider-rancherops/rancherops/lifecycle"
)

type loginResource = lifecycleResource[loginResourceModel, *loginResourceModel, external.LoginInput, external.LoginOutput]

var _ resource.ResourceWithModifyPlan = &loginResource{}

// loginResourceModel describes the resource data model.
type loginResourceModel struct {
	ID        types.String   `tfsdk:"id"`
	Server    types.String   `tfsdk:"server"`
	Username  types.String   `tfsdk:"username"`
	Password  types.String   `tfsdk:"password"`
	Token     types.String   `tfsdk:"token"`
	Insecure  types.Bool     `tfsdk:"insecure"`
	Timeout   types.Int64    `tfsdk:"timeout"`
	AuthToken types.String   `tfsdk:"auth_token"`
	Timeouts  timeouts.Value `tfsdk:"timeouts"`
}

func (m *loginResourceModel) identity() *types.String       { return &m.ID }
func (m *loginResourceModel) timeoutsValue() timeouts.Value { return m.Timeouts }

func (m *loginResourceModel) input(context.Context) (external.LoginInput, diag.Diagnostics) {
	return external.LoginInput{
		Server:   m.Server.ValueString(),
		Username: m.Username.ValueString(),
		Password: m.Password.ValueString(),
		Token:    m.Token.ValueString(),
		Insecure: m.Insecure.ValueBool(),
		Timeout:  seconds(m.Timeout),
	}, nil
}

func (m *loginResourceModel) output(ctx context.Context) (external.LoginOutput, diag.Diagnostics) {
	in, diags := m.input(ctx)
	return external.LoginOutput{LoginInput: in, AuthToken: m.AuthToken.ValueString()}, diags
}

func (m *loginResourceModel) apply(out external.LoginOutput) {
	m.AuthToken = types.StringValue(out.AuthToken)
}

// NewLoginResource returns a resource that exchanges local credentials for a
// Rancher session token.
func NewLoginResource() resource.Resource {
	return &loginResource{
		typeName: "login",
		description: "Logs in to a Rancher server with a local user and exposes the session token. " +
			"The login is retried until the server accepts connections. A configured `token` is " +
			"passed through unchanged.",
		attributes: func() map[string]schema.Attribute {
			return map[string]schema.Attribute{
				"server": schema.StringAttribute{
					Required:            true,
					MarkdownDescription: "Base URL of the Rancher server.",
					Validators: []validator.String{
						stringvalidator.LengthAtLeast(1),
					},
				},
				"username": schema.StringAttribute{
					Optional:            true,
					MarkdownDescription: "Local user to log in as.",
					Validators: []validator.String{
						stringvalidator.AlsoRequires(path.MatchRoot("password")),
						stringvalidator.ExactlyOneOf(path.MatchRoot("token")),
					},
				},
				"password": schema.StringAttribute{
					Optional:            true,
					Sensitive:           true,
					MarkdownDescription: "Password of the local user.",
				},
				"token": schema.StringAttribute{
					Optional:            true,
					Sensitive:           true,
					MarkdownDescription: "Existing token to pass through instead of logging in.",
				},
				"insecure": schema.BoolAttribute{
					Optional:            true,
					MarkdownDescription: "Skip TLS certificate verification.",
				},
				"timeout": secondsAttribute("Seconds to keep retrying the login. Defaults to 60."),
				"auth_token": schema.StringAttribute{
					Computed:            true,
					Sensitive:           true,
					MarkdownDescription: "Session token.",
				},
			}
		},
		newProvider: func(d external.Deps) lifecycle.Provider[external.LoginInput, external.LoginOutput] {
			return &external.Login{Deps: d}
		},
	}
}
