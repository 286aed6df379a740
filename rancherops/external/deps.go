// Copyright (c) HashiCorp, Inc.
// SPDX-License-Identifier: MPL-2.0

// Package external implements the Rancher and Harvester resources as
// lifecycle providers.
package external

import (
	"context"
	"time"

	"github.com/hashicorp/go-hclog"

	"github.com/tinkerbell-community/terraform-provider-rancherops/rancherops/api"
	"github.com/tinkerbell-community/terraform-provider-rancherops/rancherops/connection"
	"github.com/tinkerbell-community/terraform-provider-rancherops/rancherops/converge"
	"github.com/tinkerbell-community/terraform-provider-rancherops/rancherops/remote"
)

// Default wait budgets per operation.
const (
	LoginTimeout             = 60 * time.Second
	ClusterIDTimeout         = 30 * time.Second
	RegistrationTokenTimeout = 30 * time.Second
	VMIPTimeout              = 30 * time.Second
	BootstrapTimeout         = 300 * time.Second
	KubeWaitTimeout          = 300 * time.Second
	RemoteFileTimeout        = 300 * time.Second
)

// Deps carries what every provider call needs. The zero value is usable.
type Deps struct {
	Logger        hclog.Logger
	ClientOptions []api.Option

	// PollInterval and InitialDelay apply to every convergence wait; zero
	// means the converge defaults. A negative InitialDelay disables the delay.
	PollInterval time.Duration
	InitialDelay time.Duration

	Dialer remote.Dialer
}

func (d Deps) logger(name string) hclog.Logger {
	if d.Logger == nil {
		return hclog.NewNullLogger()
	}
	return d.Logger.Named(name)
}

func (d Deps) clientOptions(logger hclog.Logger) []api.Option {
	return append(append([]api.Option(nil), d.ClientOptions...), api.WithLogger(logger))
}

// wait builds poll options bounded by timeout. interval, when positive,
// overrides the configured poll interval.
func (d Deps) wait(timeout, interval time.Duration) []converge.Option {
	opts := []converge.Option{converge.WithTimeout(timeout)}
	if interval > 0 {
		opts = append(opts, converge.WithInterval(interval))
	} else if d.PollInterval > 0 {
		opts = append(opts, converge.WithInterval(d.PollInterval))
	}
	if d.InitialDelay != 0 {
		opts = append(opts, converge.WithInitialDelay(d.InitialDelay))
	}
	return opts
}

func (d Deps) connect(ctx context.Context, desc connection.Descriptor, logger hclog.Logger) (*api.Client, error) {
	return api.Connect(ctx, desc, d.clientOptions(logger)...)
}

func (d Deps) connectKubeconfig(ctx context.Context, kubeconfig string, logger hclog.Logger) (*api.Client, error) {
	return d.connect(ctx, connection.ClusterAccess{Kubeconfig: kubeconfig}, logger)
}

func (d Deps) dialer(logger hclog.Logger) remote.Dialer {
	if d.Dialer != nil {
		return d.Dialer
	}
	return &remote.SFTPDialer{Logger: logger}
}

func orDefault(d, def time.Duration) time.Duration {
	if d <= 0 {
		return def
	}
	return d
}
