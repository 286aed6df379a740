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
	"github.com/hashicorp/terraform-plugin-framework/resource/schema/planmodifier"
	"github.com/hashicorp/terraform-plugin-framework/resource/schema/stringplanmodifier"
	"github.com/hashicorp/terraform-plugin-framework/schema/validator"
	"github.com/hashicorp/terraform-plugin-framework/types"

	"github.com/tinkerbell-community/terraform-provider-rancherops/rancherops/external"
	"github.com/tinkerbell-community/terraform-provider-rancherops/rancherops/lifecycle"
)

type registrationTokenResource = lifecycleResource[registrationTokenResourceModel, *registrationTokenResourceModel, external.RegistrationTokenInput, external.RegistrationTokenOutput]

var _ resource.ResourceWithModifyPlan = &registrationTokenResource{}

// registrationTokenResourceModel describes the resource data model.
type registrationTokenResourceModel struct {
	ID               types.String   `tfsdk:"id"`
	Kubeconfig       types.String   `tfsdk:"kubeconfig"`
	ClusterNamespace types.String   `tfsdk:"cluster_namespace"`
	Timeout          types.Int64    `tfsdk:"timeout"`
	PollInterval     types.Int64    `tfsdk:"poll_interval"`
	ManifestURL      types.String   `tfsdk:"manifest_url"`
	Timeouts         timeouts.Value `tfsdk:"timeouts"`
}

func (m *registrationTokenResourceModel) identity() *types.String       { return &m.ID }
func (m *registrationTokenResourceModel) timeoutsValue() timeouts.Value { return m.Timeouts }

func (m *registrationTokenResourceModel) input(context.Context) (external.RegistrationTokenInput, diag.Diagnostics) {
	return external.RegistrationTokenInput{
		Kubeconfig:       m.Kubeconfig.ValueString(),
		ClusterNamespace: m.ClusterNamespace.ValueString(),
		Timeout:          seconds(m.Timeout),
		PollInterval:     seconds(m.PollInterval),
	}, nil
}

func (m *registrationTokenResourceModel) output(ctx context.Context) (external.RegistrationTokenOutput, diag.Diagnostics) {
	in, diags := m.input(ctx)
	return external.RegistrationTokenOutput{RegistrationTokenInput: in, ManifestURL: m.ManifestURL.ValueString()}, diags
}

func (m *registrationTokenResourceModel) apply(out external.RegistrationTokenOutput) {
	m.ManifestURL = types.StringValue(out.ManifestURL)
}

// NewClusterRegistrationTokenResource returns a resource that waits for the
// import manifest URL of a cluster.
func NewClusterRegistrationTokenResource() resource.Resource {
	return &registrationTokenResource{
		typeName: "cluster_registration_token",
		description: "Waits for Rancher to publish the import manifest URL of a cluster's default " +
			"registration token. Read through the Rancher local cluster's Kubernetes API.",
		attributes: func() map[string]schema.Attribute {
			return map[string]schema.Attribute{
				"kubeconfig": kubeconfigAttribute(),
				"cluster_namespace": schema.StringAttribute{
					Required:            true,
					MarkdownDescription: "Namespace of the cluster, which is its management cluster id.",
					Validators: []validator.String{
						stringvalidator.LengthAtLeast(1),
					},
				},
				"timeout":       secondsAttribute("Seconds to wait for the manifest URL. Defaults to 30."),
				"poll_interval": secondsAttribute("Seconds between polls. Defaults to the provider's poll interval."),
				"manifest_url": schema.StringAttribute{
					Computed:            true,
					MarkdownDescription: "URL of the registration manifest to apply on the cluster.",
					PlanModifiers: []planmodifier.String{
						stringplanmodifier.UseStateForUnknown(),
					},
				},
			}
		},
		newProvider: func(d external.Deps) lifecycle.Provider[external.RegistrationTokenInput, external.RegistrationTokenOutput] {
			return &external.RegistrationToken{Deps: d}
		},
	}
}
