// Copyright (c) HashiCorp, Inc.
// SPDX-License-Identifier: MPL-2.0

// Package rancherops implements the Terraform provider: its configuration and
// the resources backed by the providers in package external.
package rancherops

import (
	"context"
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/hashicorp/go-hclog"
	"github.com/hashicorp/terraform-plugin-framework-validators/int64validator"
	"github.com/hashicorp/terraform-plugin-framework/datasource"
	"github.com/hashicorp/terraform-plugin-framework/diag"
	"github.com/hashicorp/terraform-plugin-framework/path"
	"github.com/hashicorp/terraform-plugin-framework/provider"
	"github.com/hashicorp/terraform-plugin-framework/provider/schema"
	"github.com/hashicorp/terraform-plugin-framework/resource"
	"github.com/hashicorp/terraform-plugin-framework/schema/validator"
	"github.com/hashicorp/terraform-plugin-framework/types"

	"github.com/tinkerbell-community/terraform-provider-rancherops/rancherops/api"
	"github.com/tinkerbell-community/terraform-provider-rancherops/rancherops/converge"
	"github.com/tinkerbell-community/terraform-provider-rancherops/rancherops/external"
)

const logLevelEnv = "TF_LOG_PROVIDER_RANCHEROPS"

// Ensure the implementation satisfies the provider interfaces.
var _ provider.Provider = &rancheropsProvider{}

// rancheropsProvider defines the provider implementation.
type rancheropsProvider struct {
	version string
}

// rancheropsProviderData is handed to every resource.
type rancheropsProviderData struct {
	logger hclog.Logger
	deps   external.Deps
}

// providerSettings is the resolved provider configuration.
type providerSettings struct {
	RequestTimeout time.Duration
	RetryLimit     int
	RetryDelay     time.Duration
	PollInterval   time.Duration
	InitialDelay   time.Duration
}

func defaultSettings() providerSettings {
	return providerSettings{
		RequestTimeout: api.DefaultRequestTimeout,
		RetryLimit:     api.DefaultRetryLimit,
		RetryDelay:     api.DefaultRetryDelay,
		PollInterval:   converge.DefaultInterval,
		InitialDelay:   converge.DefaultInitialDelay,
	}
}

// New returns a new provider instance.
func New(version string) func() provider.Provider {
	return func() provider.Provider {
		return &rancheropsProvider{
			version: version,
		}
	}
}

// Metadata returns the provider type name.
func (p *rancheropsProvider) Metadata(
	ctx context.Context,
	req provider.MetadataRequest,
	resp *provider.MetadataResponse,
) {
	resp.TypeName = "rancherops"
	resp.Version = p.version
}

// Schema defines the provider-level schema for configuration data.
func (p *rancheropsProvider) Schema(
	ctx context.Context,
	req provider.SchemaRequest,
	resp *provider.SchemaResponse,
) {
	resp.Schema = schema.Schema{
		Description: "The rancherops provider drives one-shot operations against Rancher and " +
			"Harvester management planes: logins, settings, chart installs, credentials and " +
			"waits for asynchronously published values.",
		Attributes: map[string]schema.Attribute{
			"request_timeout": schema.StringAttribute{
				Optional: true,
				Description: "Timeout of a single HTTP request, as a Go duration. Defaults to 10s. " +
					"Can be set with RANCHEROPS_REQUEST_TIMEOUT environment variable.",
				Validators: []validator.String{durationValidator{}},
			},
			"retry_limit": schema.Int64Attribute{
				Optional: true,
				Description: "Number of retries of an idempotent request after a connection failure " +
					"or a 429/5xx response. Defaults to 2. Can be set with RANCHEROPS_RETRY_LIMIT environment variable.",
				Validators: []validator.Int64{int64validator.Between(0, 20)},
			},
			"retry_delay": schema.StringAttribute{
				Optional: true,
				Description: "Delay between request retries, as a Go duration. Defaults to 1s. " +
					"Can be set with RANCHEROPS_RETRY_DELAY environment variable.",
				Validators: []validator.String{durationValidator{}},
			},
			"poll_interval": schema.StringAttribute{
				Optional: true,
				Description: "Default interval between polls while waiting for a value or condition. " +
					"Defaults to 5s. Can be set with RANCHEROPS_POLL_INTERVAL environment variable.",
				Validators: []validator.String{durationValidator{}},
			},
			"initial_delay": schema.StringAttribute{
				Optional: true,
				Description: "Delay before the first poll of a wait. Defaults to 1s. " +
					"Can be set with RANCHEROPS_INITIAL_DELAY environment variable.",
				Validators: []validator.String{durationValidator{}},
			},
		},
	}
}

// Configure resolves the provider settings and builds the shared resource
// dependencies.
func (p *rancheropsProvider) Configure(
	ctx context.Context,
	req provider.ConfigureRequest,
	resp *provider.ConfigureResponse,
) {
	var config providerModel

	diags := req.Config.Get(ctx, &config)
	resp.Diagnostics.Append(diags...)
	if resp.Diagnostics.HasError() {
		return
	}

	settings, diags := resolveSettings(config)
	resp.Diagnostics.Append(diags...)
	if resp.Diagnostics.HasError() {
		return
	}

	logger := hclog.New(&hclog.LoggerOptions{
		Name:   "rancherops",
		Level:  hclog.LevelFromString(os.Getenv(logLevelEnv)),
		Output: os.Stderr,
	})
	logger.Debug("configured provider",
		"request_timeout", settings.RequestTimeout,
		"retry_limit", settings.RetryLimit,
		"retry_delay", settings.RetryDelay,
		"poll_interval", settings.PollInterval,
		"initial_delay", settings.InitialDelay,
	)

	providerData := &rancheropsProviderData{
		logger: logger,
		deps:   settings.deps(logger),
	}

	resp.DataSourceData = providerData
	resp.ResourceData = providerData
}

func (s providerSettings) deps(logger hclog.Logger) external.Deps {
	initialDelay := s.InitialDelay
	if initialDelay == 0 {
		initialDelay = -1
	}
	return external.Deps{
		Logger: logger,
		ClientOptions: []api.Option{
			api.WithRequestTimeout(s.RequestTimeout),
			api.WithRetryLimit(s.RetryLimit),
			api.WithRetryDelay(s.RetryDelay),
		},
		PollInterval: s.PollInterval,
		InitialDelay: initialDelay,
	}
}

// resolveSettings applies the precedence configuration value > environment
// variable > default value.
func resolveSettings(config providerModel) (providerSettings, diag.Diagnostics) {
	var diags diag.Diagnostics
	s := defaultSettings()

	durations := []struct {
		attr  string
		env   string
		value types.String
		dst   *time.Duration
	}{
		{"request_timeout", "RANCHEROPS_REQUEST_TIMEOUT", config.RequestTimeout, &s.RequestTimeout},
		{"retry_delay", "RANCHEROPS_RETRY_DELAY", config.RetryDelay, &s.RetryDelay},
		{"poll_interval", "RANCHEROPS_POLL_INTERVAL", config.PollInterval, &s.PollInterval},
		{"initial_delay", "RANCHEROPS_INITIAL_DELAY", config.InitialDelay, &s.InitialDelay},
	}
	for _, d := range durations {
		raw := os.Getenv(d.env)
		if !d.value.IsNull() && !d.value.IsUnknown() {
			raw = d.value.ValueString()
		}
		if raw == "" {
			continue
		}
		v, err := time.ParseDuration(raw)
		if err != nil || v < 0 {
			diags.AddAttributeError(
				path.Root(d.attr),
				"Invalid Duration",
				fmt.Sprintf("%q is not a valid non-negative duration (from %s or %s).", raw, d.attr, d.env),
			)
			continue
		}
		*d.dst = v
	}

	if !config.RetryLimit.IsNull() && !config.RetryLimit.IsUnknown() {
		s.RetryLimit = int(config.RetryLimit.ValueInt64())
	} else if envValue := os.Getenv("RANCHEROPS_RETRY_LIMIT"); envValue != "" {
		parsed, err := strconv.Atoi(envValue)
		if err != nil || parsed < 0 {
			diags.AddAttributeError(
				path.Root("retry_limit"),
				"Invalid Retry Limit",
				fmt.Sprintf("RANCHEROPS_RETRY_LIMIT must be a non-negative integer, got %q.", envValue),
			)
		} else {
			s.RetryLimit = parsed
		}
	}

	return s, diags
}

// Resources returns the resources implemented by this provider.
func (p *rancheropsProvider) Resources(ctx context.Context) []func() resource.Resource {
	return []func() resource.Resource{
		NewLoginResource,
		NewSettingResource,
		NewHarvesterSettingResource,
		NewAppResource,
		NewCloudCredentialResource,
		NewFleetRepoResource,
		NewClusterIDResource,
		NewClusterRegistrationTokenResource,
		NewVMIPAddressResource,
		NewBootstrapPasswordResource,
		NewKubeWaitResource,
		NewRemoteKubeconfigResource,
		NewRancherKubeconfigResource,
	}
}

// DataSources returns the data sources implemented by this provider.
func (p *rancheropsProvider) DataSources(ctx context.Context) []func() datasource.DataSource {
	return nil
}
