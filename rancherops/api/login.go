// Copyright (c) HashiCorp, Inc.
// SPDX-License-Identifier: MPL-2.0

package api

import (
	"context"
	"fmt"
	"net/http"
	"net/url"

	"github.com/tinkerbell-community/terraform-provider-rancherops/rancherops/connection"
	"github.com/tinkerbell-community/terraform-provider-rancherops/rancherops/converge"
)

const loginPath = "/v3-public/localProviders/local"

type loginRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

// Login exchanges local credentials for a session token. A rejected login is
// an *AuthError and is never retried here.
func Login(ctx context.Context, server, username, password string, insecure bool, opts ...Option) (string, error) {
	if username == "" || password == "" {
		return "", &connection.ConfigError{Reason: "username and password are required to log in to " + server}
	}
	t, err := connection.Anonymous(server, insecure)
	if err != nil {
		return "", err
	}
	c, err := NewClient(t, opts...)
	if err != nil {
		return "", err
	}

	c.logger.Debug("logging in", "username", username)
	obj, err := c.Post(ctx, loginPath, loginRequest{Username: username, Password: password}, url.Values{"action": {"login"}})
	if err != nil {
		switch code := StatusCode(err); {
		case code == http.StatusUnauthorized || code == http.StatusForbidden:
			return "", &AuthError{Server: t.BaseURL(), Reason: "credentials rejected", Err: err}
		case code != 0:
			return "", &AuthError{Server: t.BaseURL(), Reason: "unexpected response", Err: err}
		}
		return "", fmt.Errorf("login to %s: %w", t.BaseURL(), err)
	}

	token, _ := obj.String("token")
	if token == "" {
		return "", &AuthError{Server: t.BaseURL(), Reason: "response carries no token"}
	}
	c.logger.Debug("login succeeded", "token", redact(token))
	return token, nil
}

// LoginWithRetry keeps logging in until the endpoint answers. Transport
// failures and 5xx responses are retried within the wait options; any other
// rejection is returned immediately.
func LoginWithRetry(ctx context.Context, server, username, password string, insecure bool, wait []converge.Option, opts ...Option) (string, error) {
	probe := func(ctx context.Context) (string, bool, error) {
		token, err := Login(ctx, server, username, password, insecure, opts...)
		if err != nil {
			if IsTransient(err) {
				return "", false, converge.Transient(err)
			}
			return "", false, err
		}
		return token, true, nil
	}
	wait = append([]converge.Option{converge.WithResource("login to " + server)}, wait...)
	return converge.WaitFor(ctx, probe, wait...)
}

// Session resolves the token for a direct descriptor: the configured token
// verbatim, or a fresh login.
func Session(ctx context.Context, d connection.Direct, opts ...Option) (string, error) {
	if err := d.Validate(); err != nil {
		return "", err
	}
	if !d.NeedsLogin() {
		return d.Token, nil
	}
	return Login(ctx, d.Server, d.Username, d.Password, d.Insecure, opts...)
}

// Connect resolves a descriptor into a ready client, logging in first when
// the descriptor carries credentials instead of a token.
func Connect(ctx context.Context, d connection.Descriptor, opts ...Option) (*Client, error) {
	if d == nil {
		return nil, &connection.ConfigError{Reason: "no connection configured"}
	}
	if err := d.Validate(); err != nil {
		return nil, err
	}

	var (
		t   *connection.Transport
		err error
	)
	switch d := d.(type) {
	case connection.ClusterAccess:
		t, err = connection.FromKubeconfig([]byte(d.Kubeconfig))
	case connection.Direct:
		var token string
		if token, err = Session(ctx, d, opts...); err != nil {
			return nil, err
		}
		t, err = connection.FromToken(d.Server, token, d.Insecure)
	default:
		err = &connection.ConfigError{Reason: fmt.Sprintf("unsupported connection %T", d)}
	}
	if err != nil {
		return nil, err
	}
	return NewClient(t, opts...)
}

func redact(token string) string {
	if len(token) <= 8 {
		return "***"
	}
	return token[:4] + "***"
}
