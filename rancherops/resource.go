// Copyright (c) HashiCorp, Inc.
// SPDX-License-Identifier: MPL-2.0

package rancherops

import (
	"context"
	"fmt"
	"time"

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
	"github.com/hashicorp/terraform-plugin-log/tflog"

	"github.com/tinkerbell-community/terraform-provider-rancherops/rancherops/external"
	"github.com/tinkerbell-community/terraform-provider-rancherops/rancherops/lifecycle"
)

// defaultOperationTimeout bounds a create, update or delete when the
// timeouts block is not set. Resource inputs carry their own, shorter wait
// budgets.
const defaultOperationTimeout = 30 * time.Minute

// lifecycleModel is implemented by every resource model. input reads the
// desired inputs from a plan, output rebuilds the recorded result from
// state, and apply writes a provider result into the model's computed
// attributes.
type lifecycleModel[I, O any] interface {
	identity() *types.String
	timeoutsValue() timeouts.Value
	input(ctx context.Context) (I, diag.Diagnostics)
	output(ctx context.Context) (O, diag.Diagnostics)
	apply(out O)
}

type lifecycleModelPtr[M, I, O any] interface {
	*M
	lifecycleModel[I, O]
}

// lifecycleResource serves a lifecycle.Provider as a Terraform resource.
// Terraform owns ordering and state; the provider owns the remote calls.
type lifecycleResource[M any, PM lifecycleModelPtr[M, I, O], I, O any] struct {
	typeName    string
	description string
	attributes  func() map[string]schema.Attribute
	newProvider func(external.Deps) lifecycle.Provider[I, O]

	providerData *rancheropsProviderData
}

func (r *lifecycleResource[M, PM, I, O]) provider() lifecycle.Provider[I, O] {
	var deps external.Deps
	if r.providerData != nil {
		deps = r.providerData.deps
	}
	return r.newProvider(deps)
}

// Metadata returns the resource type name.
func (r *lifecycleResource[M, PM, I, O]) Metadata(
	ctx context.Context,
	req resource.MetadataRequest,
	resp *resource.MetadataResponse,
) {
	resp.TypeName = req.ProviderTypeName + "_" + r.typeName
}

// Schema adds the id and timeouts attributes shared by every resource.
func (r *lifecycleResource[M, PM, I, O]) Schema(
	ctx context.Context,
	req resource.SchemaRequest,
	resp *resource.SchemaResponse,
) {
	attrs := r.attributes()
	attrs["id"] = schema.StringAttribute{
		Computed:            true,
		MarkdownDescription: "Identity derived from the resource's stable inputs.",
		PlanModifiers: []planmodifier.String{
			stringplanmodifier.UseStateForUnknown(),
		},
	}
	attrs["timeouts"] = timeouts.Attributes(ctx, timeouts.Opts{
		Create: true,
		Update: true,
		Delete: true,
	})

	resp.Schema = schema.Schema{
		MarkdownDescription: r.description,
		Attributes:          attrs,
	}
}

// Configure sets the provider data for the resource.
func (r *lifecycleResource[M, PM, I, O]) Configure(
	ctx context.Context,
	req resource.ConfigureRequest,
	resp *resource.ConfigureResponse,
) {
	if req.ProviderData == nil {
		return
	}

	providerData, ok := req.ProviderData.(*rancheropsProviderData)
	if !ok {
		resp.Diagnostics.AddError(
			"Unexpected Resource Configure Type",
			fmt.Sprintf(
				"Expected *rancheropsProviderData, got: %T. Please report this issue to the provider developers.",
				req.ProviderData,
			),
		)
		return
	}

	r.providerData = providerData
}

// Create runs the provider's Create and records its identity and result.
func (r *lifecycleResource[M, PM, I, O]) Create(
	ctx context.Context,
	req resource.CreateRequest,
	resp *resource.CreateResponse,
) {
	var plan M

	diags := req.Plan.Get(ctx, &plan)
	resp.Diagnostics.Append(diags...)
	if resp.Diagnostics.HasError() {
		return
	}
	m := PM(&plan)

	createTimeout, diags := m.timeoutsValue().Create(ctx, defaultOperationTimeout)
	resp.Diagnostics.Append(diags...)
	in, diags := m.input(ctx)
	resp.Diagnostics.Append(diags...)
	if resp.Diagnostics.HasError() {
		return
	}

	createCtx, cancel := context.WithTimeout(ctx, createTimeout)
	defer cancel()

	tflog.Debug(ctx, "creating resource", map[string]any{"type": r.typeName})
	res, err := r.provider().Create(createCtx, in)
	if err != nil {
		resp.Diagnostics.Append(errorToDiagnostics("Failed to Create "+r.typeName, err)...)
		return
	}
	tflog.Debug(ctx, "created resource", map[string]any{"type": r.typeName, "id": res.ID})

	*m.identity() = types.StringValue(res.ID)
	m.apply(res.Out)

	diags = resp.State.Set(ctx, plan)
	resp.Diagnostics.Append(diags...)
}

// Read keeps the recorded state. These resources describe one-shot
// operations; there is nothing to refresh between applies.
func (r *lifecycleResource[M, PM, I, O]) Read(
	ctx context.Context,
	req resource.ReadRequest,
	resp *resource.ReadResponse,
) {
	tflog.Trace(ctx, "keeping recorded state", map[string]any{"type": r.typeName})
}

// Update runs the provider's Update for changes that do not require
// replacement. The identity never changes in place.
func (r *lifecycleResource[M, PM, I, O]) Update(
	ctx context.Context,
	req resource.UpdateRequest,
	resp *resource.UpdateResponse,
) {
	var plan, state M

	diags := req.Plan.Get(ctx, &plan)
	resp.Diagnostics.Append(diags...)
	diags = req.State.Get(ctx, &state)
	resp.Diagnostics.Append(diags...)
	if resp.Diagnostics.HasError() {
		return
	}
	m, prior := PM(&plan), PM(&state)

	updateTimeout, diags := m.timeoutsValue().Update(ctx, defaultOperationTimeout)
	resp.Diagnostics.Append(diags...)
	in, diags := m.input(ctx)
	resp.Diagnostics.Append(diags...)
	old, diags := prior.output(ctx)
	resp.Diagnostics.Append(diags...)
	if resp.Diagnostics.HasError() {
		return
	}

	updateCtx, cancel := context.WithTimeout(ctx, updateTimeout)
	defer cancel()

	id := prior.identity().ValueString()
	tflog.Debug(ctx, "updating resource", map[string]any{"type": r.typeName, "id": id})
	out, err := r.provider().Update(updateCtx, id, old, in)
	if err != nil {
		resp.Diagnostics.Append(errorToDiagnostics("Failed to Update "+r.typeName, err)...)
		return
	}

	*m.identity() = *prior.identity()
	m.apply(out)

	diags = resp.State.Set(ctx, plan)
	resp.Diagnostics.Append(diags...)
}

// Delete runs the provider's Delete. The state is removed by the framework.
func (r *lifecycleResource[M, PM, I, O]) Delete(
	ctx context.Context,
	req resource.DeleteRequest,
	resp *resource.DeleteResponse,
) {
	var state M

	diags := req.State.Get(ctx, &state)
	resp.Diagnostics.Append(diags...)
	if resp.Diagnostics.HasError() {
		return
	}
	m := PM(&state)

	deleteTimeout, diags := m.timeoutsValue().Delete(ctx, defaultOperationTimeout)
	resp.Diagnostics.Append(diags...)
	out, diags := m.output(ctx)
	resp.Diagnostics.Append(diags...)
	if resp.Diagnostics.HasError() {
		return
	}

	deleteCtx, cancel := context.WithTimeout(ctx, deleteTimeout)
	defer cancel()

	id := m.identity().ValueString()
	tflog.Debug(ctx, "deleting resource", map[string]any{"type": r.typeName, "id": id})
	if err := r.provider().Delete(deleteCtx, id, out); err != nil {
		resp.Diagnostics.Append(errorToDiagnostics("Failed to Delete "+r.typeName, err)...)
	}
}

// ModifyPlan asks the provider which changed fields force a replacement.
func (r *lifecycleResource[M, PM, I, O]) ModifyPlan(
	ctx context.Context,
	req resource.ModifyPlanRequest,
	resp *resource.ModifyPlanResponse,
) {
	// Only modify plan during updates
	if req.State.Raw.IsNull() || req.Plan.Raw.IsNull() {
		return
	}

	var plan, state M

	diags := req.Plan.Get(ctx, &plan)
	resp.Diagnostics.Append(diags...)
	diags = req.State.Get(ctx, &state)
	resp.Diagnostics.Append(diags...)
	if resp.Diagnostics.HasError() {
		return
	}

	in, diags := PM(&plan).input(ctx)
	resp.Diagnostics.Append(diags...)
	old, diags := PM(&state).output(ctx)
	resp.Diagnostics.Append(diags...)
	if resp.Diagnostics.HasError() {
		return
	}

	diff := r.provider().Diff(old, in)
	if !diff.Changed {
		return
	}
	tflog.Debug(ctx, "planned change", map[string]any{
		"type":    r.typeName,
		"fields":  diff.Fields,
		"replace": diff.Replaces,
	})
	for _, field := range diff.Replaces {
		resp.RequiresReplace = append(resp.RequiresReplace, path.Root(field))
	}
}

func secondsAttribute(description string) schema.Int64Attribute {
	return schema.Int64Attribute{
		Optional:            true,
		MarkdownDescription: description,
		Validators: []validator.Int64{
			int64validator.AtLeast(1),
		},
	}
}

// kubeconfigAttribute is the cluster-side connection of resources that read
// Kubernetes objects.
func kubeconfigAttribute() schema.StringAttribute {
	return schema.StringAttribute{
		Required:            true,
		Sensitive:           true,
		MarkdownDescription: "Kubeconfig document of the cluster to read from.",
		Validators: []validator.String{
			stringvalidator.LengthAtLeast(1),
		},
	}
}
