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

type (
	settingResource          = lifecycleResource[settingResourceModel, *settingResourceModel, external.SettingInput, external.SettingOutput]
	harvesterSettingResource = lifecycleResource[harvesterSettingResourceModel, *harvesterSettingResourceModel, external.HarvesterSettingInput, external.HarvesterSettingOutput]
)

var (
	_ resource.ResourceWithModifyPlan = &settingResource{}
	_ resource.ResourceWithModifyPlan = &harvesterSettingResource{}
)

func settingNameAttribute() schema.StringAttribute {
	return schema.StringAttribute{
		Required:            true,
		MarkdownDescription: "Name of the setting.",
		Validators: []validator.String{
			stringvalidator.LengthAtLeast(1),
		},
	}
}

func settingValueAttribute() schema.StringAttribute {
	return schema.StringAttribute{
		Required:            true,
		MarkdownDescription: "Value to set.",
	}
}

// settingResourceModel describes the resource data model.
type settingResourceModel struct {
	ID           types.String   `tfsdk:"id"`
	Rancher      types.Object   `tfsdk:"rancher"`
	SettingName  types.String   `tfsdk:"setting_name"`
	SettingValue types.String   `tfsdk:"setting_value"`
	GroupName    types.String   `tfsdk:"group_name"`
	Timeouts     timeouts.Value `tfsdk:"timeouts"`
}

func (m *settingResourceModel) identity() *types.String       { return &m.ID }
func (m *settingResourceModel) timeoutsValue() timeouts.Value { return m.Timeouts }

func (m *settingResourceModel) input(ctx context.Context) (external.SettingInput, diag.Diagnostics) {
	d, diags := descriptorFrom(ctx, path.Root("rancher"), m.Rancher)
	return external.SettingInput{
		Rancher: d,
		Name:    m.SettingName.ValueString(),
		Value:   m.SettingValue.ValueString(),
		Group:   m.GroupName.ValueString(),
	}, diags
}

func (m *settingResourceModel) output(ctx context.Context) (external.SettingOutput, diag.Diagnostics) {
	in, diags := m.input(ctx)
	return external.SettingOutput{SettingInput: in}, diags
}

func (m *settingResourceModel) apply(external.SettingOutput) {}

// NewSettingResource returns a resource that writes a Rancher setting.
func NewSettingResource() resource.Resource {
	return &settingResource{
		typeName: "setting",
		description: "Writes the value of a Rancher setting. Settings exist on the server before " +
			"and after this resource; destroying it leaves the last value in place.",
		attributes: func() map[string]schema.Attribute {
			return map[string]schema.Attribute{
				"rancher":       connectionAttribute("Connection to the Rancher server."),
				"setting_name":  settingNameAttribute(),
				"setting_value": settingValueAttribute(),
				"group_name": schema.StringAttribute{
					Optional: true,
					MarkdownDescription: "API group serving the setting, for example `management.cattle.io`. " +
						"When unset the `/v3/settings` API is used.",
				},
			}
		},
		newProvider: func(d external.Deps) lifecycle.Provider[external.SettingInput, external.SettingOutput] {
			return &external.Setting{Deps: d}
		},
	}
}

// harvesterSettingResourceModel describes the resource data model.
type harvesterSettingResourceModel struct {
	ID           types.String   `tfsdk:"id"`
	Harvester    types.Object   `tfsdk:"harvester"`
	SettingName  types.String   `tfsdk:"setting_name"`
	SettingValue types.String   `tfsdk:"setting_value"`
	Timeouts     timeouts.Value `tfsdk:"timeouts"`
}

func (m *harvesterSettingResourceModel) identity() *types.String       { return &m.ID }
func (m *harvesterSettingResourceModel) timeoutsValue() timeouts.Value { return m.Timeouts }

func (m *harvesterSettingResourceModel) input(ctx context.Context) (external.HarvesterSettingInput, diag.Diagnostics) {
	d, diags := descriptorFrom(ctx, path.Root("harvester"), m.Harvester)
	return external.HarvesterSettingInput{
		Harvester: d,
		Name:      m.SettingName.ValueString(),
		Value:     m.SettingValue.ValueString(),
	}, diags
}

func (m *harvesterSettingResourceModel) output(ctx context.Context) (external.HarvesterSettingOutput, diag.Diagnostics) {
	in, diags := m.input(ctx)
	return external.HarvesterSettingOutput{HarvesterSettingInput: in}, diags
}

func (m *harvesterSettingResourceModel) apply(external.HarvesterSettingOutput) {}

// NewHarvesterSettingResource returns a resource that patches a Harvester
// setting.
func NewHarvesterSettingResource() resource.Resource {
	return &harvesterSettingResource{
		typeName: "harvester_setting",
		description: "Replaces the value of a Harvester setting with a JSON patch. " +
			"Destroying the resource leaves the last value in place.",
		attributes: func() map[string]schema.Attribute {
			return map[string]schema.Attribute{
				"harvester":     connectionAttribute("Connection to the Harvester cluster."),
				"setting_name":  settingNameAttribute(),
				"setting_value": settingValueAttribute(),
			}
		},
		newProvider: func(d external.Deps) lifecycle.Provider[external.HarvesterSettingInput, external.HarvesterSettingOutput] {
			return &external.HarvesterSetting{Deps: d}
		},
	}
}
