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
	"github.com/hashicorp/terraform-plugin-framework/resource/schema/boolplanmodifier"
	"github.com/hashicorp/terraform-plugin-framework/resource/schema/planmodifier"
	"github.com/hashicorp/terraform-plugin-framework/schema/validator"
	"github.com/hashicorp/terraform-plugin-framework/types"

	"github.com/tinkerbell-community/terraform-provider-rancherops/rancherops/api"
	"github.com/tinkerbell-community/terraform-provider-rancherops/rancherops/external"
	"github.com/tinkerbell-community/terraform-provider-rancherops/rancherops/lifecycle"
)

type kubeWaitResource = lifecycleResource[kubeWaitResourceModel, *kubeWaitResourceModel, external.KubeWaitInput, external.KubeWaitOutput]

var _ resource.ResourceWithModifyPlan = &kubeWaitResource{}

// kubeWaitResourceModel describes the resource data model.
type kubeWaitResourceModel struct {
	ID            types.String   `tfsdk:"id"`
	Kubeconfig    types.String   `tfsdk:"kubeconfig"`
	APIVersion    types.String   `tfsdk:"api_version"`
	Kind          types.String   `tfsdk:"kind"`
	Namespace     types.String   `tfsdk:"namespace"`
	Name          types.String   `tfsdk:"name"`
	Condition     types.String   `tfsdk:"condition"`
	ExpectedValue types.String   `tfsdk:"expected_value"`
	Timeout       types.Int64    `tfsdk:"timeout"`
	PollInterval  types.Int64    `tfsdk:"poll_interval"`
	Reached       types.Bool     `tfsdk:"reached"`
	Timeouts      timeouts.Value `tfsdk:"timeouts"`
}

func (m *kubeWaitResourceModel) identity() *types.String       { return &m.ID }
func (m *kubeWaitResourceModel) timeoutsValue() timeouts.Value { return m.Timeouts }

func (m *kubeWaitResourceModel) input(context.Context) (external.KubeWaitInput, diag.Diagnostics) {
	return external.KubeWaitInput{
		Kubeconfig:    m.Kubeconfig.ValueString(),
		APIVersion:    m.APIVersion.ValueString(),
		Kind:          m.Kind.ValueString(),
		Namespace:     m.Namespace.ValueString(),
		Name:          m.Name.ValueString(),
		Condition:     m.Condition.ValueString(),
		ExpectedValue: m.ExpectedValue.ValueString(),
		Timeout:       seconds(m.Timeout),
		PollInterval:  seconds(m.PollInterval),
	}, nil
}

func (m *kubeWaitResourceModel) output(ctx context.Context) (external.KubeWaitOutput, diag.Diagnostics) {
	in, diags := m.input(ctx)
	return external.KubeWaitOutput{KubeWaitInput: in, Reached: m.Reached.ValueBool()}, diags
}

func (m *kubeWaitResourceModel) apply(out external.KubeWaitOutput) {
	m.Reached = types.BoolValue(out.Reached)
}

// NewKubeWaitResource returns a resource that blocks until a Kubernetes
// object exists and, optionally, reports a condition.
func NewKubeWaitResource() resource.Resource {
	required := func(description string) schema.StringAttribute {
		return schema.StringAttribute{
			Required:            true,
			MarkdownDescription: description,
			Validators: []validator.String{
				stringvalidator.LengthAtLeast(1),
			},
		}
	}
	return &kubeWaitResource{
		typeName: "kube_wait",
		description: "Waits until a Kubernetes object exists. When `condition` is set, also waits for " +
			"the status condition of that type to report `expected_value`.",
		attributes: func() map[string]schema.Attribute {
			return map[string]schema.Attribute{
				"kubeconfig":  kubeconfigAttribute(),
				"api_version": required("API version of the object, for example `apps/v1`."),
				"kind":        required("Kind of the object, for example `Deployment`."),
				"namespace": schema.StringAttribute{
					Optional:            true,
					MarkdownDescription: "Namespace of the object. Leave unset for cluster-scoped objects.",
				},
				"name": required("Name of the object."),
				"condition": schema.StringAttribute{
					Optional:            true,
					MarkdownDescription: "Status condition type to wait for, for example `Available`.",
				},
				"expected_value": schema.StringAttribute{
					Optional:            true,
					MarkdownDescription: "Expected status of the condition. Defaults to `" + api.DefaultExpectedValue + "`.",
					Validators: []validator.String{
						stringvalidator.AlsoRequires(path.MatchRoot("condition")),
					},
				},
				"timeout":       secondsAttribute("Seconds to wait. Defaults to 300."),
				"poll_interval": secondsAttribute("Seconds between polls. Defaults to the provider's poll interval."),
				"reached": schema.BoolAttribute{
					Computed:            true,
					MarkdownDescription: "Whether the wait completed.",
					PlanModifiers: []planmodifier.Bool{
						boolplanmodifier.UseStateForUnknown(),
					},
				},
			}
		},
		newProvider: func(d external.Deps) lifecycle.Provider[external.KubeWaitInput, external.KubeWaitOutput] {
			return &external.KubeWait{Deps: d}
		},
	}
}
