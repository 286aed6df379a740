// Copyright (c) HashiCorp, Inc.
// SPDX-License-Identifier: MPL-2.0

package rancherops

import (
	"context"
	"time"

	"github.com/hashicorp/terraform-plugin-framework-validators/stringvalidator"
	"github.com/hashicorp/terraform-plugin-framework/diag"
	"github.com/hashicorp/terraform-plugin-framework/path"
	"github.com/hashicorp/terraform-plugin-framework/resource/schema"
	"github.com/hashicorp/terraform-plugin-framework/schema/validator"
	"github.com/hashicorp/terraform-plugin-framework/types"
	"github.com/hashicorp/terraform-plugin-framework/types/basetypes"

	"github.com/tinkerbell-community/terraform-provider-rancherops/rancherops/connection"
)

// connectionModel describes a nested connection block: a kubeconfig, or a
// server with a token or a username and password.
type connectionModel struct {
	Kubeconfig types.String `tfsdk:"kubeconfig"`
	Server     types.String `tfsdk:"server"`
	Token      types.String `tfsdk:"token"`
	Username   types.String `tfsdk:"username"`
	Password   types.String `tfsdk:"password"`
	Insecure   types.Bool   `tfsdk:"insecure"`
}

func (m connectionModel) known() bool {
	return !m.Kubeconfig.IsUnknown() &&
		!m.Server.IsUnknown() &&
		!m.Token.IsUnknown() &&
		!m.Username.IsUnknown() &&
		!m.Password.IsUnknown() &&
		!m.Insecure.IsUnknown()
}

func connectionAttribute(description string) schema.SingleNestedAttribute {
	sibling := func(name string) path.Expression {
		return path.MatchRelative().AtParent().AtName(name)
	}
	return schema.SingleNestedAttribute{
		Required:            true,
		MarkdownDescription: description,
		Attributes: map[string]schema.Attribute{
			"kubeconfig": schema.StringAttribute{
				Optional:            true,
				Sensitive:           true,
				MarkdownDescription: "Kubeconfig document. The current context, or the first listed one, is used.",
				Validators: []validator.String{
					stringvalidator.ExactlyOneOf(sibling("server")),
					stringvalidator.ConflictsWith(sibling("token"), sibling("username"), sibling("password")),
				},
			},
			"server": schema.StringAttribute{
				Optional:            true,
				MarkdownDescription: "Base URL of the API server.",
				Validators: []validator.String{
					stringvalidator.LengthAtLeast(1),
				},
			},
			"token": schema.StringAttribute{
				Optional:            true,
				Sensitive:           true,
				MarkdownDescription: "Bearer token. Takes precedence over username and password.",
			},
			"username": schema.StringAttribute{
				Optional:            true,
				MarkdownDescription: "Local user to log in as.",
				Validators: []validator.String{
					stringvalidator.AlsoRequires(sibling("password")),
				},
			},
			"password": schema.StringAttribute{
				Optional:            true,
				Sensitive:           true,
				MarkdownDescription: "Password of the local user.",
				Validators: []validator.String{
					stringvalidator.AlsoRequires(sibling("username")),
				},
			},
			"insecure": schema.BoolAttribute{
				Optional:            true,
				MarkdownDescription: "Skip TLS certificate verification.",
			},
		},
	}
}

// descriptorFrom converts a connection block. A block that is not yet known
// yields a nil descriptor without error, which only happens while planning.
func descriptorFrom(ctx context.Context, at path.Path, obj types.Object) (connection.Descriptor, diag.Diagnostics) {
	if obj.IsNull() || obj.IsUnknown() {
		return nil, nil
	}

	var m connectionModel
	diags := obj.As(ctx, &m, basetypes.ObjectAsOptions{})
	if diags.HasError() || !m.known() {
		return nil, diags
	}

	d, err := connection.NewDescriptor(connection.Fields{
		Kubeconfig: m.Kubeconfig.ValueString(),
		Server:     m.Server.ValueString(),
		Token:      m.Token.ValueString(),
		Username:   m.Username.ValueString(),
		Password:   m.Password.ValueString(),
		Insecure:   m.Insecure.ValueBool(),
	})
	if err != nil {
		diags.AddAttributeError(at, "Invalid Connection", err.Error())
		return nil, diags
	}
	return d, diags
}

// seconds reads an optional whole-second attribute; null means zero, which
// callers treat as their default.
func seconds(v types.Int64) time.Duration {
	if v.IsNull() || v.IsUnknown() {
		return 0
	}
	return time.Duration(v.ValueInt64()) * time.Second
}
