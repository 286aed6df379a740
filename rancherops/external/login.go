// Copyright (c) HashiCorp, Inc.
// SPDX-License-Identifier: MPL-2.0

package external

import (
	"context"
	"fmt"
	"time"

	"github.com/tinkerbell-community/terraform-provider-rancherops/rancherops/api"
	"github.com/tinkerbell-community/terraform-provider-rancherops/rancherops/connection"
	"github.com/tinkerbell-community/terraform-provider-rancherops/rancherops/lifecycle"
)

type LoginInput struct {
	Server   string
	Username string
	Password string
	Token    string
	Insecure bool
	Timeout  time.Duration
}

type LoginOutput struct {
	LoginInput
	AuthToken string
}

// Login resolves a session token for a Rancher server. A configured token is
// passed through; otherwise the login is retried until the server answers.
type Login struct {
	Deps
}

var _ lifecycle.Provider[LoginInput, LoginOutput] = (*Login)(nil)

func (p *Login) Create(ctx context.Context, in LoginInput) (lifecycle.CreateResult[LoginOutput], error) {
	logger := p.logger("login")
	d := connection.Direct{
		Server:   in.Server,
		Token:    in.Token,
		Username: in.Username,
		Password: in.Password,
		Insecure: in.Insecure,
	}
	if err := d.Validate(); err != nil {
		return lifecycle.CreateResult[LoginOutput]{}, err
	}

	token := in.Token
	if d.NeedsLogin() {
		var err error
		token, err = api.LoginWithRetry(ctx, in.Server, in.Username, in.Password, in.Insecure,
			p.wait(orDefault(in.Timeout, LoginTimeout), 0), p.clientOptions(logger)...)
		if err != nil {
			return lifecycle.CreateResult[LoginOutput]{}, fmt.Errorf("failed to login to %s as %s: %w", in.Server, in.Username, err)
		}
		logger.Info("logged in", "server", in.Server, "username", in.Username)
	}

	return lifecycle.CreateResult[LoginOutput]{
		ID:  lifecycle.StableID(connection.TrimServer(in.Server), "login", in.Username),
		Out: LoginOutput{LoginInput: in, AuthToken: token},
	}, nil
}

func (p *Login) Diff(old LoginOutput, in LoginInput) lifecycle.DiffResult {
	return new(lifecycle.Diff).
		Compare("server", connection.TrimServer(old.Server), connection.TrimServer(in.Server), true).
		Compare("username", old.Username, in.Username, true).
		Compare("password", old.Password, in.Password, true).
		Compare("token", old.Token, in.Token, false).
		Compare("insecure", old.Insecure, in.Insecure, false).
		Result()
}

// Update logs in again with the new settings.
func (p *Login) Update(ctx context.Context, _ string, _ LoginOutput, in LoginInput) (LoginOutput, error) {
	res, err := p.Create(ctx, in)
	return res.Out, err
}

// Delete does nothing: sessions expire on the server.
func (p *Login) Delete(context.Context, string, LoginOutput) error {
	return nil
}
