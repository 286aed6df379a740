// Copyright (c) HashiCorp, Inc.
// SPDX-License-Identifier: MPL-2.0

package external

import (
	"context"
	"fmt"
	"net"
	"time"

	"github.com/tinkerbell-community/terraform-provider-rancherops/rancherops/connection"
	"github.com/tinkerbell-community/terraform-provider-rancherops/rancherops/converge"
	"github.com/tinkerbell-community/terraform-provider-rancherops/rancherops/lifecycle"
	"github.com/tinkerbell-community/terraform-provider-rancherops/rancherops/remote"
)

const kubeAPIPort = "6443"

type RemoteKubeconfigInput struct {
	Host                string
	Port                int
	Username            string
	Password            string
	PrivateKey          string
	PrivateKeyPath      string
	Path                string
	UpdateServerAddress bool
	Insecure            bool
	PollInterval        time.Duration
	Timeout             time.Duration
	InitialDelay        time.Duration
}

type RemoteKubeconfigOutput struct {
	RemoteKubeconfigInput
	Kubeconfig string
}

func (in RemoteKubeconfigInput) target() remote.Target {
	return remote.Target{
		Host:           in.Host,
		Port:           in.Port,
		Username:       in.Username,
		Password:       in.Password,
		PrivateKey:     []byte(in.PrivateKey),
		PrivateKeyPath: in.PrivateKeyPath,
	}
}

// RemoteKubeconfig reads a kubeconfig written by a freshly installed
// Kubernetes distribution on a host, waiting for the file to appear.
type RemoteKubeconfig struct {
	Deps
}

var _ lifecycle.Provider[RemoteKubeconfigInput, RemoteKubeconfigOutput] = (*RemoteKubeconfig)(nil)

func (p *RemoteKubeconfig) Create(ctx context.Context, in RemoteKubeconfigInput) (lifecycle.CreateResult[RemoteKubeconfigOutput], error) {
	logger := p.logger("remote_kubeconfig").With("host", in.Host, "path", in.Path)

	wait := p.wait(orDefault(in.Timeout, RemoteFileTimeout), in.PollInterval)
	if in.InitialDelay > 0 {
		wait = append(wait, converge.WithInitialDelay(in.InitialDelay))
	}
	data, err := remote.FetchFile(ctx, p.dialer(logger), in.target(), in.Path, wait...)
	if err != nil {
		return lifecycle.CreateResult[RemoteKubeconfigOutput]{}, fmt.Errorf("failed to fetch kubeconfig from %s at %s: %w", in.target().Address(), in.Path, err)
	}

	if in.Insecure {
		if data, err = connection.MakeInsecure(data); err != nil {
			return lifecycle.CreateResult[RemoteKubeconfigOutput]{}, err
		}
	}
	if in.UpdateServerAddress {
		server := "https://" + net.JoinHostPort(in.Host, kubeAPIPort)
		if data, err = connection.SetServer(data, server); err != nil {
			return lifecycle.CreateResult[RemoteKubeconfigOutput]{}, err
		}
	}
	logger.Info("fetched kubeconfig")

	return lifecycle.CreateResult[RemoteKubeconfigOutput]{
		ID:  lifecycle.StableID("kubeconfig", in.Host+":"+in.Path),
		Out: RemoteKubeconfigOutput{RemoteKubeconfigInput: in, Kubeconfig: string(data)},
	}, nil
}

func (p *RemoteKubeconfig) Diff(old RemoteKubeconfigOutput, in RemoteKubeconfigInput) lifecycle.DiffResult {
	return new(lifecycle.Diff).
		Compare("hostname", old.Host, in.Host, true).
		Compare("path", old.Path, in.Path, true).
		Compare("update_server_address", old.UpdateServerAddress, in.UpdateServerAddress, true).
		Compare("insecure", old.Insecure, in.Insecure, true).
		Compare("port", old.Port, in.Port, false).
		Compare("username", old.Username, in.Username, false).
		Compare("password", old.Password, in.Password, false).
		Compare("private_key", old.PrivateKey, in.PrivateKey, false).
		Compare("private_key_path", old.PrivateKeyPath, in.PrivateKeyPath, false).
		Compare("poll_interval", old.PollInterval, in.PollInterval, false).
		Compare("timeout", old.Timeout, in.Timeout, false).
		Compare("initial_delay", old.InitialDelay, in.InitialDelay, false).
		Result()
}

// Update keeps the fetched kubeconfig; only access settings changed.
func (p *RemoteKubeconfig) Update(_ context.Context, _ string, old RemoteKubeconfigOutput, in RemoteKubeconfigInput) (RemoteKubeconfigOutput, error) {
	return RemoteKubeconfigOutput{RemoteKubeconfigInput: in, Kubeconfig: old.Kubeconfig}, nil
}

// Delete does nothing: the file belongs to the host.
func (p *RemoteKubeconfig) Delete(context.Context, string, RemoteKubeconfigOutput) error {
	return nil
}
