// Copyright (c) HashiCorp, Inc.
// SPDX-License-Identifier: MPL-2.0

package connection

import (
	"crypto/tls"
	"encoding/base64"
	"fmt"
	"net/http"
	"time"

	restclient "k8s.io/client-go/rest"
)

// TLSPolicy is the trust policy resolved once per descriptor.
type TLSPolicy struct {
	Insecure bool
	CAData   []byte
	CertData []byte
	KeyData  []byte
}

// Transport is an authenticated transport: base URL, TLS policy and headers.
// It is immutable once constructed.
type Transport struct {
	baseURL string
	tls     TLSPolicy
	header  http.Header
}

func (t *Transport) BaseURL() string {
	return t.baseURL
}

func (t *Transport) Insecure() bool {
	return t.tls.Insecure
}

// TLS returns a copy of the resolved trust policy.
func (t *Transport) TLS() TLSPolicy {
	p := t.tls
	p.CAData = append([]byte(nil), t.tls.CAData...)
	p.CertData = append([]byte(nil), t.tls.CertData...)
	p.KeyData = append([]byte(nil), t.tls.KeyData...)
	return p
}

// Header returns a copy of the headers attached to every request.
func (t *Transport) Header() http.Header {
	return t.header.Clone()
}

// TLSConfig builds the client TLS configuration for the policy.
func (t *Transport) TLSConfig() (*tls.Config, error) {
	cfg, err := restclient.TLSConfigFor(&restclient.Config{
		Host: t.baseURL,
		TLSClientConfig: restclient.TLSClientConfig{
			Insecure: t.tls.Insecure,
			CAData:   t.tls.CAData,
			CertData: t.tls.CertData,
			KeyData:  t.tls.KeyData,
		},
	})
	if err != nil {
		return nil, &ConfigError{Reason: "cannot build TLS configuration for " + t.baseURL, Err: err}
	}
	if cfg == nil {
		cfg = &tls.Config{MinVersion: tls.VersionTLS12}
	}
	return cfg, nil
}

// HTTPClient returns a client bound to the transport's TLS policy.
func (t *Transport) HTTPClient(timeout time.Duration) (*http.Client, error) {
	tlsConfig, err := t.TLSConfig()
	if err != nil {
		return nil, err
	}
	rt := http.DefaultTransport.(*http.Transport).Clone()
	rt.TLSClientConfig = tlsConfig
	return &http.Client{Transport: rt, Timeout: timeout}, nil
}

// FromToken builds a bearer transport for a server URL.
func FromToken(server, token string, insecure bool) (*Transport, error) {
	server = TrimServer(server)
	if server == "" {
		return nil, configErrorf("server is required")
	}
	if token == "" {
		return nil, configErrorf("token is required for %s", server)
	}
	h := http.Header{}
	h.Set("Authorization", "Bearer "+token)
	return &Transport{
		baseURL: server,
		tls:     TLSPolicy{Insecure: insecure},
		header:  h,
	}, nil
}

// Anonymous builds a transport without credentials, used to reach public
// endpoints such as login.
func Anonymous(server string, insecure bool) (*Transport, error) {
	server = TrimServer(server)
	if server == "" {
		return nil, configErrorf("server is required")
	}
	return &Transport{
		baseURL: server,
		tls:     TLSPolicy{Insecure: insecure},
		header:  http.Header{},
	}, nil
}

// FromKubeconfig resolves a kubeconfig document into a transport. Auth
// precedence is token, then auth-provider access-token, then basic auth;
// client certificates alone are accepted as credentials too.
func FromKubeconfig(data []byte) (*Transport, error) {
	kc, err := ParseKubeconfig(data)
	if err != nil {
		return nil, err
	}
	sel, err := kc.Select()
	if err != nil {
		return nil, err
	}

	policy := TLSPolicy{Insecure: sel.Cluster.InsecureSkipTLSVerify}
	if !policy.Insecure {
		if policy.CAData, err = decodeBase64("certificate-authority-data", sel.Cluster.CertificateAuthorityData); err != nil {
			return nil, err
		}
	}
	if policy.CertData, err = decodeBase64("client-certificate-data", sel.User.ClientCertificateData); err != nil {
		return nil, err
	}
	if policy.KeyData, err = decodeBase64("client-key-data", sel.User.ClientKeyData); err != nil {
		return nil, err
	}
	if (len(policy.CertData) == 0) != (len(policy.KeyData) == 0) {
		return nil, configErrorf("%s: client certificate and key must be provided together", sel)
	}

	h := http.Header{}
	switch {
	case sel.User.Token != "":
		h.Set("Authorization", "Bearer "+sel.User.Token)
	case sel.User.AuthProvider != nil && sel.User.AuthProvider.Config["access-token"] != "":
		h.Set("Authorization", "Bearer "+sel.User.AuthProvider.Config["access-token"])
	case sel.User.Username != "" && sel.User.Password != "":
		creds := base64.StdEncoding.EncodeToString([]byte(sel.User.Username + ":" + sel.User.Password))
		h.Set("Authorization", "Basic "+creds)
	case len(policy.CertData) > 0:
	default:
		return nil, configErrorf("%s: user has no token, username/password or client certificate", sel)
	}

	return &Transport{
		baseURL: TrimServer(sel.Cluster.Server),
		tls:     policy,
		header:  h,
	}, nil
}

func decodeBase64(field, value string) ([]byte, error) {
	if value == "" {
		return nil, nil
	}
	b, err := base64.StdEncoding.DecodeString(value)
	if err != nil {
		return nil, &ConfigError{Reason: fmt.Sprintf("%s is not valid base64", field), Err: err}
	}
	return b, nil
}
