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

type appResource = lifecycleResource[appResourceModel, *appResourceModel, external.AppInput, external.AppOutput]

var _ resource.ResourceWithModifyPlan = &appResource{}

// appResourceModel describes the resource data model.
type appResourceModel struct {
	ID           types.String   `tfsdk:"id"`
	Rancher      types.Object   `tfsdk:"rancher"`
	Repo         types.String   `tfsdk:"repo"`
	ChartName    types.String   `tfsdk:"chart_name"`
	ChartVersion types.String   `tfsdk:"chart_version"`
	Namespace    types.String   `tfsdk:"namespace"`
	Values       types.Dynamic  `tfsdk:"values"`
	Timeouts     timeouts.Value `tfsdk:"timeouts"`
}

func (m *appResourceModel) identity() *types.String       { return &m.ID }
func (m *appResourceModel) timeoutsValue() timeouts.Value { return m.Timeouts }

func (m *appResourceModel) input(ctx context.Context) (external.AppInput, diag.Diagnostics) {
	d, diags := descriptorFrom(ctx, path.Root("rancher"), m.Rancher)
	values, valueDiags := dynamicToMap(ctx, m.Values)
	diags.Append(valueDiags...)
	return external.AppInput{
		Rancher:      d,
		Repo:         m.Repo.ValueString(),
		ChartName:    m.ChartName.ValueString(),
		ChartVersion: m.ChartVersion.ValueString(),
		Namespace:    m.Namespace.ValueString(),
		Values:       values,
	}, diags
}

func (m *appResourceModel) output(ctx context.Context) (external.AppOutput, diag.Diagnostics) {
	in, diags := m.input(ctx)
	return external.AppOutput{AppInput: in}, diags
}

func (m *appResourceModel) apply(external.AppOutput) {}

// NewAppResource returns a resource that installs a chart through Rancher.
func NewAppResource() resource.Resource {
	required := func(description string) schema.StringAttribute {
		return schema.StringAttribute{
			Required:            true,
			MarkdownDescription: description,
			Validators: []validator.String{
				stringvalidator.LengthAtLeast(1),
			},
		}
	}
	return &appResource{
		typeName: "app",
		description: "Installs a chart from a Rancher cluster repository and upgrades it when the " +
			"version or values change. Destroying the resource leaves the release installed.",
		attributes: func() map[string]schema.Attribute {
			return map[string]schema.Attribute{
				"rancher":       connectionAttribute("Connection to the Rancher server or downstream cluster."),
				"repo":          required("Name of the cluster repository, for example `rancher-charts`."),
				"chart_name":    required("Chart to install. Also used as the release name."),
				"chart_version": required("Chart version."),
				"namespace":     required("Namespace to install the release into."),
				"values": schema.DynamicAttribute{
					Optional:            true,
					MarkdownDescription: "Chart values as an object.",
				},
			}
		},
		newProvider: func(d external.Deps) lifecycle.Provider[external.AppInput, external.AppOutput] {
			return &external.App{Deps: d}
		},
	}
}
