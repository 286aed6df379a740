// Copyright (c) HashiCorp, Inc.
// SPDX-License-Identifier: MPL-2.0

package rancherops

import (
	"errors"
	"fmt"

	"github.com/hashicorp/terraform-plugin-framework/diag"

	"github.com/tinkerbell-community/terraform-provider-rancherops/rancherops/api"
	"github.com/tinkerbell-community/terraform-provider-rancherops/rancherops/connection"
	"github.com/tinkerbell-community/terraform-provider-rancherops/rancherops/converge"
	"github.com/tinkerbell-community/terraform-provider-rancherops/rancherops/remote"
)

// errorToDiagnostics converts an operation failure into Terraform
// diagnostics. The first diagnostic always carries summary and the full error;
// known error types add a second one describing the cause.
func errorToDiagnostics(summary string, err error) diag.Diagnostics {
	var diags diag.Diagnostics
	diags.AddError(summary, err.Error())

	var (
		statusErr  *api.StatusError
		authErr    *api.AuthError
		timeoutErr *converge.TimeoutError
		configErr  *connection.ConfigError
		accessErr  *remote.AccessError
	)
	switch {
	case errors.As(err, &timeoutErr):
		detail := fmt.Sprintf("Gave up after %d attempts over %s.", timeoutErr.Attempts, timeoutErr.Timeout)
		if timeoutErr.LastErr != nil {
			detail += " Last error: " + timeoutErr.LastErr.Error()
		}
		diags.AddError("Timed out waiting for "+timeoutErr.Resource, detail)
	case errors.As(err, &authErr):
		diags.AddError("Authentication failed", authErr.Error())
	case errors.As(err, &statusErr):
		diags.AddError(
			fmt.Sprintf("API response status: %d", statusErr.StatusCode),
			fmt.Sprintf("%s %s returned: %s", statusErr.Method, statusErr.URL, statusErr.Body),
		)
	case errors.As(err, &configErr):
		diags.AddError("Invalid connection configuration", configErr.Error())
	case errors.As(err, &accessErr):
		diags.AddError("Remote host access denied", accessErr.Error())
	}
	return diags
}
