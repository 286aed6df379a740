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

type vmIPAddressResource = lifecycleResource[vmIPAddressResourceModel, *vmIPAddressResourceModel, external.VMIPAddressInput, external.VMIPAddressOutput]

var _ resource.ResourceWithModifyPlan = &vmIPAddressResource{}

// vmIPAddressResourceModel describes the resource data model.
type vmIPAddressResourceModel struct {
	ID         types.String   `tfsdk:"id"`
	Kubeconfig types.String   `tfsdk:"kubeconfig"`
	Namespace  types.String   `tfsdk:"namespace"`
	Name       types.String   `tfsdk:"name"`
	Timeout    types.Int64    `tfsdk:"timeout"`
	IPAddress  types.String   `tfsdk:"ip_address"`
	Timeouts   timeouts.Value `tfsdk:"timeouts"`
}

func (m *vmIPAddressResourceModel) identity() *types.String       { return &m.ID }
func (m *vmIPAddressResourceModel) timeoutsValue() timeouts.Value { return m.Timeouts }

func (m *vmIPAddressResourceModel) input(context.Context) (external.VMIPAddressInput, diag.Diagnostics) {
	return external.VMIPAddressInput{
		Kubeconfig: m.Kubeconfig.ValueString(),
		Namespace:  m.Namespace.ValueString(),
		Name:       m.Name.ValueString(),
		Timeout:    seconds(m.Timeout),
	}, nil
}

func (m *vmIPAddressResourceModel) output(ctx context.Context) (external.VMIPAddressOutput, diag.Diagnostics) {
	in, diags := m.input(ctx)
	return external.VMIPAddressOutput{VMIPAddressInput: in, IPAddress: m.IPAddress.ValueString()}, diags
}

func (m *vmIPAddressResourceModel) apply(out external.VMIPAddressOutput) {
	m.IPAddress = types.StringValue(out.IPAddress)
}

// NewVMIPAddressResource returns a resource that waits for a Harvester
// virtual machine to report an address.
func NewVMIPAddressResource() resource.Resource {
	required := func(description string) schema.StringAttribute {
		return schema.StringAttribute{
			Required:            true,
			MarkdownDescription: description,
			Validators: []validator.String{
				stringvalidator.LengthAtLeast(1),
			},
		}
	}
	return &vmIPAddressResource{
		typeName:    "vm_ip_address",
		description: "Waits for a Harvester virtual machine instance to report a valid IP address.",
		attributes: func() map[string]schema.Attribute {
			return map[string]schema.Attribute{
				"kubeconfig": kubeconfigAttribute(),
				"namespace":  required("Namespace of the virtual machine."),
				"name":       required("Name of the virtual machine."),
				"timeout":    secondsAttribute("Seconds to wait for an address. Defaults to 30."),
				"ip_address": schema.StringAttribute{
					Computed:            true,
					MarkdownDescription: "First valid address reported on the instance's interfaces.",
				},
			}
		},
		newProvider: func(d external.Deps) lifecycle.Provider[external.VMIPAddressInput, external.VMIPAddressOutput] {
			return &external.VMIPAddress{Deps: d}
		},
	}
}
