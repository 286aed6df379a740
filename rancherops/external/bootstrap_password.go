// Copyright (c) HashiCorp, Inc.
// SPDX-License-Identifier: MPL-2.0

package external

import (
	"context"
	"crypto/rand"
	"fmt"
	"math/big"
	"time"

	"github.com/tinkerbell-community/terraform-provider-rancherops/rancherops/api"
	"github.com/tinkerbell-community/terraform-provider-rancherops/rancherops/connection"
	"github.com/tinkerbell-community/terraform-provider-rancherops/rancherops/converge"
	"github.com/tinkerbell-community/terraform-provider-rancherops/rancherops/lifecycle"
)

const (
	adminUsername          = "admin"
	changePasswordPath     = "/v3/users"
	generatedPasswordChars = "abcdefghijkmnopqrstuvwxyzABCDEFGHJKLMNPQRSTUVWXYZ23456789"
	generatedPasswordLen   = 20
)

type BootstrapPasswordInput struct {
	Kubeconfig string
	RancherURL string

	// Password is the admin password to set. Empty generates one.
	Password string
	Insecure bool
	Timeout  time.Duration
}

type BootstrapPasswordOutput struct {
	BootstrapPasswordInput
	AdminPassword string
}

type changePasswordRequest struct {
	CurrentPassword string `json:"currentPassword"`
	NewPassword     string `json:"newPassword"`
}

// BootstrapPassword replaces the bootstrap password of a fresh Rancher
// install: it reads the bootstrap secret through the cluster, logs in as
// admin and changes the password.
type BootstrapPassword struct {
	Deps
}

var _ lifecycle.Provider[BootstrapPasswordInput, BootstrapPasswordOutput] = (*BootstrapPassword)(nil)

func (p *BootstrapPassword) Create(ctx context.Context, in BootstrapPasswordInput) (lifecycle.CreateResult[BootstrapPasswordOutput], error) {
	logger := p.logger("bootstrap_password").With("rancher", in.RancherURL)

	password := in.Password
	if password == "" {
		logger.Warn("no password provided for the Rancher admin user, generating one")
		var err error
		if password, err = generatePassword(); err != nil {
			return lifecycle.CreateResult[BootstrapPasswordOutput]{}, err
		}
	}

	c, err := p.connectKubeconfig(ctx, in.Kubeconfig, logger)
	if err != nil {
		return lifecycle.CreateResult[BootstrapPasswordOutput]{}, err
	}

	wait := p.wait(orDefault(in.Timeout, BootstrapTimeout), 0)
	bootstrap, err := api.FetchBootstrapPassword(ctx, c, wait...)
	if err != nil {
		return lifecycle.CreateResult[BootstrapPasswordOutput]{}, fmt.Errorf("failed to fetch bootstrap password: %w", err)
	}

	if err := p.changePassword(ctx, in, bootstrap, password, wait); err != nil {
		return lifecycle.CreateResult[BootstrapPasswordOutput]{}, err
	}
	logger.Info("admin password set")

	return lifecycle.CreateResult[BootstrapPasswordOutput]{
		ID:  lifecycle.StableID("cattle-system", "bootstrap-password", connection.TrimServer(in.RancherURL)),
		Out: BootstrapPasswordOutput{BootstrapPasswordInput: in, AdminPassword: password},
	}, nil
}

func (p *BootstrapPassword) changePassword(ctx context.Context, in BootstrapPasswordInput, current, next string, wait []converge.Option) error {
	logger := p.logger("bootstrap_password").With("rancher", in.RancherURL)
	opts := p.clientOptions(logger)

	token, err := api.LoginWithRetry(ctx, in.RancherURL, adminUsername, current, in.Insecure, wait, opts...)
	if err != nil {
		return fmt.Errorf("failed to login to Rancher as %s: %w", adminUsername, err)
	}
	t, err := connection.FromToken(in.RancherURL, token, in.Insecure)
	if err != nil {
		return err
	}
	c, err := api.NewClient(t, opts...)
	if err != nil {
		return err
	}

	body := changePasswordRequest{CurrentPassword: current, NewPassword: next}
	if _, err := c.Post(ctx, changePasswordPath, body, map[string][]string{"action": {"changepassword"}}); err != nil {
		return fmt.Errorf("failed to update password for user %s: %w", adminUsername, err)
	}
	return nil
}

func (p *BootstrapPassword) Diff(old BootstrapPasswordOutput, in BootstrapPasswordInput) lifecycle.DiffResult {
	return new(lifecycle.Diff).
		Compare("kubeconfig", old.Kubeconfig, in.Kubeconfig, false).
		Compare("rancher_url", connection.TrimServer(old.RancherURL), connection.TrimServer(in.RancherURL), true).
		Compare("password", old.Password, in.Password, false).
		Compare("insecure", old.Insecure, in.Insecure, false).
		Compare("timeout", old.Timeout, in.Timeout, false).
		Result()
}

// Update changes the admin password from the recorded one to the newly
// configured one. Clearing the password keeps the recorded password.
func (p *BootstrapPassword) Update(ctx context.Context, _ string, old BootstrapPasswordOutput, in BootstrapPasswordInput) (BootstrapPasswordOutput, error) {
	out := BootstrapPasswordOutput{BootstrapPasswordInput: in, AdminPassword: old.AdminPassword}
	if in.Password == "" || in.Password == old.AdminPassword {
		return out, nil
	}
	wait := p.wait(orDefault(in.Timeout, LoginTimeout), 0)
	if err := p.changePassword(ctx, in, old.AdminPassword, in.Password, wait); err != nil {
		return BootstrapPasswordOutput{}, err
	}
	out.AdminPassword = in.Password
	return out, nil
}

// Delete does nothing: the admin user outlives this resource.
func (p *BootstrapPassword) Delete(context.Context, string, BootstrapPasswordOutput) error {
	return nil
}

func generatePassword() (string, error) {
	b := make([]byte, generatedPasswordLen)
	limit := big.NewInt(int64(len(generatedPasswordChars)))
	for i := range b {
		n, err := rand.Int(rand.Reader, limit)
		if err != nil {
			return "", fmt.Errorf("generate password: %w", err)
		}
		b[i] = generatedPasswordChars[n.Int64()]
	}
	return string(b), nil
}
