// Copyright (c) HashiCorp, Inc.
// SPDX-License-Identifier: MPL-2.0

package rancherops

import (
	"context"

	"github.com/hashicorp/terraform-plugin-framework-timeouts/resource/timeouts"
	"github.com/hashicorp/terraform-plugin-framework-validators/int64validator"
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

type remoteKubeconfigResource = lifecycleResource[remoteKubeconfigResourceModel, *remoteKubeconfigResourceModel, external.RemoteKubeconfigInput, external.RemoteKubeconfigOutput]

var _ resource.ResourceWithModifyPlan = &remoteKubeconfigResource{}

// remoteKubeconfigResourceModel describes the resource data model.
type remoteKubeconfigResourceModel struct {
	ID                  types.String   `tfsdk:"id"`
	Hostname            types.String   `tfsdk:"hostname"`
	Port                types.Int64    `tfsdk:"port"`
	Username            types.String   `tfsdk:"username"`
	Password            types.String   `tfsdk:"password"`
	PrivateKey          types.String   `tfsdk:"private_key"`
	PrivateKeyPath      types.String   `tfsdk:"private_key_path"`
	Path                types.String   `tfsdk:"path"`
	UpdateServerAddress types.Bool     `tfsdk:"update_server_address"`
	Insecure            types.Bool     `tfsdk:"insecure"`
	PollInterval        types.Int64    `tfsdk:"poll_interval"`
	Timeout             types.Int64    `tfsdk:"timeout"`
	InitialDelay        types.Int64    `tfsdk:"initial_delay"`
	Kubeconfig          types.String   `tfsdk:"kubeconfig"`
	Timeouts            timeouts.Value `tfsdk:"timeouts"`
}

func (m *remoteKubeconfigResourceModel) identity() *types.String       { return &m.ID }
func (m *remoteKubeconfigResourceModel) timeoutsValue() timeouts.Value { return m.Timeouts }

func (m *remoteKubeconfigResourceModel) input(context.Context) (external.RemoteKubeconfigInput, diag.Diagnostics) {
	return external.RemoteKubeconfigInput{
		Host:                m.Hostname.ValueString(),
		Port:                int(m.Port.ValueInt64()),
		Username:            m.Username.ValueString(),
		Password:            m.Password.ValueString(),
		PrivateKey:          m.PrivateKey.ValueString(),
		PrivateKeyPath:      m.PrivateKeyPath.ValueString(),
		Path:                m.Path.ValueString(),
		UpdateServerAddress: m.UpdateServerAddress.ValueBool(),
		Insecure:            m.Insecure.ValueBool(),
		PollInterval:        seconds(m.PollInterval),
		Timeout:             seconds(m.Timeout),
		InitialDelay:        seconds(m.InitialDelay),
	}, nil
}

func (m *remoteKubeconfigResourceModel) output(ctx context.Context) (external.RemoteKubeconfigOutput, diag.Diagnostics) {
	in, diags := m.input(ctx)
	return external.RemoteKubeconfigOutput{RemoteKubeconfigInput: in, Kubeconfig: m.Kubeconfig.ValueString()}, diags
}

func (m *remoteKubeconfigResourceModel) apply(out external.RemoteKubeconfigOutput) {
	m.Kubeconfig = types.StringValue(out.Kubeconfig)
}

// NewRemoteKubeconfigResource returns a resource that reads a kubeconfig
// from a host over SFTP.
func NewRemoteKubeconfigResource() resource.Resource {
	credential := func(description string) schema.StringAttribute {
		return schema.StringAttribute{
			Optional:            true,
			Sensitive:           true,
			MarkdownDescription: description,
		}
	}
	password := credential("SSH password.")
	password.Validators = []validator.String{
		stringvalidator.AtLeastOneOf(
			path.MatchRoot("private_key"),
			path.MatchRoot("private_key_path"),
		),
	}
	return &remoteKubeconfigResource{
		typeName: "remote_kubeconfig",
		description: "Waits for a kubeconfig file to appear on a host, for example " +
			"`/etc/rancher/rke2/rke2.yaml` after an RKE2 install, and reads it over SFTP.",
		attributes: func() map[string]schema.Attribute {
			return map[string]schema.Attribute{
				"hostname": schema.StringAttribute{
					Required:            true,
					MarkdownDescription: "Host to connect to.",
					Validators: []validator.String{
						stringvalidator.LengthAtLeast(1),
					},
				},
				"port": schema.Int64Attribute{
					Optional:            true,
					MarkdownDescription: "SSH port. Defaults to 22.",
					Validators: []validator.Int64{
						int64validator.Between(1, 65535),
					},
				},
				"username": schema.StringAttribute{
					Required:            true,
					MarkdownDescription: "SSH user.",
				},
				"password":         password,
				"private_key":      credential("PEM-encoded SSH private key."),
				"private_key_path": credential("Path to an SSH private key. `~` is expanded."),
				"path": schema.StringAttribute{
					Required:            true,
					MarkdownDescription: "Path of the kubeconfig on the host.",
					Validators: []validator.String{
						stringvalidator.LengthAtLeast(1),
					},
				},
				"update_server_address": schema.BoolAttribute{
					Optional:            true,
					MarkdownDescription: "Point the kubeconfig's cluster at `https://<hostname>:6443`.",
				},
				"insecure": schema.BoolAttribute{
					Optional:            true,
					MarkdownDescription: "Disable TLS verification in the returned kubeconfig.",
				},
				"poll_interval": secondsAttribute("Seconds between reads. Defaults to the provider's poll interval."),
				"timeout":       secondsAttribute("Seconds to wait for the file. Defaults to 300."),
				"initial_delay": secondsAttribute("Seconds to wait before the first read."),
				"kubeconfig": schema.StringAttribute{
					Computed:            true,
					Sensitive:           true,
					MarkdownDescription: "Contents of the kubeconfig.",
					PlanModifiers: []planmodifier.String{
						stringplanmodifier.UseStateForUnknown(),
					},
				},
			}
		},
		newProvider: func(d external.Deps) lifecycle.Provider[external.RemoteKubeconfigInput, external.RemoteKubeconfigOutput] {
			return &external.RemoteKubeconfig{Deps: d}
		},
	}
}
