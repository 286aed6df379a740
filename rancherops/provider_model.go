// Copyright (c) HashiCorp, Inc.
// SPDX-License-Identifier: MPL-2.0

package rancherops

import (
	"github.com/hashicorp/terraform-plugin-framework/types"
)

// providerModel describes the provider configuration data model.
type providerModel struct {
	RequestTimeout types.String `tfsdk:"request_timeout"`
	RetryLimit     types.Int64  `tfsdk:"retry_limit"`
	RetryDelay     types.String `tfsdk:"retry_delay"`
	PollInterval   types.String `tfsdk:"poll_interval"`
	InitialDelay   types.String `tfsdk:"initial_delay"`
}
