// Copyright (c) HashiCorp, Inc.
// SPDX-License-Identifier: MPL-2.0

package rancherops

import (
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tinkerbell-community/terraform-provider-rancherops/rancherops/api"
	"github.com/tinkerbell-community/terraform-provider-rancherops/rancherops/converge"
	"github.com/tinkerbell-community/terraform-provider-rancherops/rancherops/remote"
)

func TestErrorToDiagnostics(t *testing.T) {
	tests := []struct {
		name          string
		err           error
		wantSummaries []string
		wantDetail    string
	}{
		{
			name:          "plain error",
			err:           errors.New("boom"),
			wantSummaries: []string{"Failed to Create setting"},
		},
		{
			name: "status error",
			err: fmt.Errorf("failed to set setting x: %w", &api.StatusError{
				Method:     "PUT",
				URL:        "https://rancher.example/v3/settings/x",
				StatusCode: 422,
				Body:       `{"message":"invalid"}`,
			}),
			wantSummaries: []string{"Failed to Create setting", "API response status: 422"},
			wantDetail:    `PUT https://rancher.example/v3/settings/x returned: {"message":"invalid"}`,
		},
		{
			name: "timeout",
			err: &converge.TimeoutError{
				Resource: "/v3/clusters",
				Timeout:  30 * time.Second,
				Attempts: 6,
				LastErr:  errors.New("503"),
			},
			wantSummaries: []string{"Failed to Create setting", "Timed out waiting for /v3/clusters"},
			wantDetail:    "Gave up after 6 attempts over 30s. Last error: 503",
		},
		{
			name:          "auth",
			err:           &api.AuthError{Server: "https://rancher.example", Reason: "credentials rejected"},
			wantSummaries: []string{"Failed to Create setting", "Authentication failed"},
		},
		{
			name:          "remote access",
			err:           &remote.AccessError{Host: "10.0.0.5", Reason: "permission denied"},
			wantSummaries: []string{"Failed to Create setting", "Remote host access denied"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			diags := errorToDiagnostics("Failed to Create setting", tt.err)
			require.Len(t, diags, len(tt.wantSummaries))
			for i, want := range tt.wantSummaries {
				assert.Equal(t, want, diags[i].Summary())
			}
			assert.Equal(t, tt.err.Error(), diags[0].Detail())
			if tt.wantDetail != "" {
				assert.Equal(t, tt.wantDetail, diags[1].Detail())
			}
		})
	}
}
