// Copyright (c) HashiCorp, Inc.
// SPDX-License-Identifier: MPL-2.0

package rancherops

import (
	"context"
	"fmt"

	"github.com/hashicorp/terraform-plugin-framework/attr"
	"github.com/hashicorp/terraform-plugin-framework/diag"
	"github.com/hashicorp/terraform-plugin-framework/types"
	"github.com/hashicorp/terraform-plugin-framework/types/basetypes"
)

// dynamicToMap converts a types.Dynamic value to map[string]any.
// This is used to turn free-form chart values into a JSON request body.
func dynamicToMap(_ context.Context, d types.Dynamic) (map[string]any, diag.Diagnostics) {
	if d.IsNull() || d.IsUnknown() {
		return nil, nil
	}

	underlying := d.UnderlyingValue()
	if underlying == nil {
		return nil, nil
	}
	result, err := encodeAttrValue(underlying)
	if err != nil {
		return nil, diag.Diagnostics{diag.NewErrorDiagnostic(
			"Failed to convert Dynamic to map",
			fmt.Sprintf("Error encoding attribute value: %s", err),
		)}
	}
	if result == nil {
		return nil, nil
	}

	m, ok := result.(map[string]any)
	if !ok {
		return nil, diag.Diagnostics{diag.NewErrorDiagnostic(
			"Invalid Dynamic value",
			fmt.Sprintf("Expected an object or map, got %T", result),
		)}
	}

	return m, nil
}

// stringMap converts a types.Map of strings, treating null and unknown as empty.
func stringMap(ctx context.Context, m types.Map) (map[string]string, diag.Diagnostics) {
	if m.IsNull() || m.IsUnknown() {
		return nil, nil
	}
	out := make(map[string]string, len(m.Elements()))
	diags := m.ElementsAs(ctx, &out, false)
	return out, diags
}

// stringList converts a types.List of strings, treating null and unknown as empty.
func stringList(ctx context.Context, l types.List) ([]string, diag.Diagnostics) {
	if l.IsNull() || l.IsUnknown() {
		return nil, nil
	}
	out := make([]string, 0, len(l.Elements()))
	diags := l.ElementsAs(ctx, &out, false)
	return out, diags
}

// encodeAttrValue converts attr.Value to any. Whole numbers stay integers so
// that they render as such in JSON bodies.
func encodeAttrValue(v attr.Value) (any, error) {
	if v == nil || v.IsNull() || v.IsUnknown() {
		return nil, nil
	}

	switch vv := v.(type) {
	case basetypes.StringValue:
		return vv.ValueString(), nil
	case basetypes.NumberValue:
		bf := vv.ValueBigFloat()
		if bf == nil {
			return nil, nil
		}
		if bf.IsInt() {
			if i, acc := bf.Int64(); acc == 0 {
				return i, nil
			}
		}
		f, _ := bf.Float64()
		return f, nil
	case basetypes.Int64Value:
		return vv.ValueInt64(), nil
	case basetypes.Float64Value:
		return vv.ValueFloat64(), nil
	case basetypes.BoolValue:
		return vv.ValueBool(), nil
	case basetypes.ObjectValue:
		return encodeElements(vv.Attributes())
	case basetypes.MapValue:
		return encodeElements(vv.Elements())
	case basetypes.TupleValue:
		return encodeSequence(vv.Elements())
	case basetypes.ListValue:
		return encodeSequence(vv.Elements())
	case basetypes.SetValue:
		return encodeSequence(vv.Elements())
	case basetypes.DynamicValue:
		return encodeAttrValue(vv.UnderlyingValue())
	default:
		return nil, fmt.Errorf("tried to encode unsupported type: %T: %v", v, vv)
	}
}

func encodeSequence(elems []attr.Value) ([]any, error) {
	l := make([]any, len(elems))
	for i, e := range elems {
		var err error
		l[i], err = encodeAttrValue(e)
		if err != nil {
			return nil, err
		}
	}
	return l, nil
}

func encodeElements(elems map[string]attr.Value) (map[string]any, error) {
	m := make(map[string]any, len(elems))
	for k, e := range elems {
		var err error
		m[k], err = encodeAttrValue(e)
		if err != nil {
			return nil, err
		}
	}
	return m, nil
}
