// Copyright (c) HashiCorp, Inc.
// SPDX-License-Identifier: MPL-2.0

// Package connection turns a connection descriptor (a kubeconfig document or a
// direct server and credential set) into an immutable authenticated transport.
package connection

import "strings"

// Descriptor addresses a remote control-plane API. Exactly one variant is used
// per apply: ClusterAccess or Direct.
type Descriptor interface {
	// Validate checks the variant without touching the network.
	Validate() error

	descriptor()
}

// ClusterAccess addresses the API through an embedded kubeconfig document.
type ClusterAccess struct {
	Kubeconfig string
}

func (ClusterAccess) descriptor() {}

func (d ClusterAccess) Validate() error {
	if strings.TrimSpace(d.Kubeconfig) == "" {
		return configErrorf("kubeconfig is empty")
	}
	return nil
}

// Direct addresses the API by URL with either a bearer token or a username and
// password pair that must be exchanged for a session token.
type Direct struct {
	Server   string
	Token    string
	Username string
	Password string
	Insecure bool
}

func (Direct) descriptor() {}

func (d Direct) Validate() error {
	if strings.TrimSpace(d.Server) == "" {
		return configErrorf("server is required")
	}
	if d.Token != "" {
		return nil
	}
	if d.Username == "" || d.Password == "" {
		return configErrorf("either token or username and password must be provided for %s", d.Server)
	}
	return nil
}

// NeedsLogin reports whether a session token must be obtained first.
func (d Direct) NeedsLogin() bool {
	return d.Token == ""
}

// Fields is the flat form connection settings arrive in from configuration.
type Fields struct {
	Kubeconfig string
	Server     string
	Token      string
	Username   string
	Password   string
	Insecure   bool
}

// NewDescriptor picks the variant described by f. Setting both a kubeconfig
// and a server, or neither, is a configuration error.
func NewDescriptor(f Fields) (Descriptor, error) {
	hasKubeconfig := strings.TrimSpace(f.Kubeconfig) != ""
	hasServer := strings.TrimSpace(f.Server) != ""

	var d Descriptor
	switch {
	case hasKubeconfig && hasServer:
		return nil, configErrorf("kubeconfig and server are mutually exclusive")
	case hasKubeconfig:
		d = ClusterAccess{Kubeconfig: f.Kubeconfig}
	case hasServer:
		d = Direct{
			Server:   f.Server,
			Token:    f.Token,
			Username: f.Username,
			Password: f.Password,
			Insecure: f.Insecure,
		}
	default:
		return nil, configErrorf("one of kubeconfig or server must be provided")
	}

	if err := d.Validate(); err != nil {
		return nil, err
	}
	return d, nil
}

// TrimServer strips trailing slashes from a server URL.
func TrimServer(server string) string {
	return strings.TrimRight(strings.TrimSpace(server), "/")
}
