// Copyright (c) HashiCorp, Inc.
// SPDX-License-Identifier: MPL-2.0

package connection

import (
	"fmt"

	"sigs.k8s.io/yaml"
)

// Kubeconfig is the subset of a cluster access document the resolver consumes.
// Lists keep document order so "first-listed context" is well defined.
type Kubeconfig struct {
	CurrentContext string         `json:"current-context,omitempty"`
	Clusters       []NamedCluster `json:"clusters"`
	Contexts       []NamedContext `json:"contexts"`
	Users          []NamedUser    `json:"users"`
}

type NamedCluster struct {
	Name    string  `json:"name"`
	Cluster Cluster `json:"cluster"`
}

type Cluster struct {
	Server                   string `json:"server"`
	InsecureSkipTLSVerify    bool   `json:"insecure-skip-tls-verify,omitempty"`
	CertificateAuthorityData string `json:"certificate-authority-data,omitempty"`
}

type NamedContext struct {
	Name    string  `json:"name"`
	Context Context `json:"context"`
}

type Context struct {
	Cluster   string `json:"cluster"`
	User      string `json:"user"`
	Namespace string `json:"namespace,omitempty"`
}

type NamedUser struct {
	Name string `json:"name"`
	User User   `json:"user"`
}

type User struct {
	ClientCertificateData string        `json:"client-certificate-data,omitempty"`
	ClientKeyData         string        `json:"client-key-data,omitempty"`
	Token                 string        `json:"token,omitempty"`
	Username              string        `json:"username,omitempty"`
	Password              string        `json:"password,omitempty"`
	AuthProvider          *AuthProvider `json:"auth-provider,omitempty"`
}

type AuthProvider struct {
	Name   string            `json:"name"`
	Config map[string]string `json:"config,omitempty"`
}

// ParseKubeconfig decodes a YAML or JSON cluster access document.
func ParseKubeconfig(data []byte) (*Kubeconfig, error) {
	if len(data) == 0 {
		return nil, configErrorf("kubeconfig is empty")
	}
	var kc Kubeconfig
	if err := yaml.Unmarshal(data, &kc); err != nil {
		return nil, &ConfigError{Reason: "kubeconfig is not valid YAML/JSON", Err: err}
	}
	return &kc, nil
}

// Selection is the context chosen from a document together with the entries it
// references.
type Selection struct {
	Context string
	Cluster Cluster
	User    User
}

// Select resolves the current context, or the first listed one when no current
// context is set, and the cluster and user it references.
func (kc *Kubeconfig) Select() (*Selection, error) {
	switch {
	case len(kc.Clusters) == 0:
		return nil, configErrorf("kubeconfig has no clusters")
	case len(kc.Contexts) == 0:
		return nil, configErrorf("kubeconfig has no contexts")
	case len(kc.Users) == 0:
		return nil, configErrorf("kubeconfig has no users")
	}

	name := kc.CurrentContext
	if name == "" {
		name = kc.Contexts[0].Name
	}

	var ctx *Context
	for i := range kc.Contexts {
		if kc.Contexts[i].Name == name {
			ctx = &kc.Contexts[i].Context
			break
		}
	}
	if ctx == nil {
		return nil, configErrorf("context %q not found in kubeconfig", name)
	}

	sel := &Selection{Context: name}
	found := false
	for _, c := range kc.Clusters {
		if c.Name == ctx.Cluster {
			sel.Cluster, found = c.Cluster, true
			break
		}
	}
	if !found {
		return nil, configErrorf("context %q references unknown cluster %q", name, ctx.Cluster)
	}

	found = false
	for _, u := range kc.Users {
		if u.Name == ctx.User {
			sel.User, found = u.User, true
			break
		}
	}
	if !found {
		return nil, configErrorf("context %q references unknown user %q", name, ctx.User)
	}

	if sel.Cluster.Server == "" {
		return nil, configErrorf("cluster %q has no server", ctx.Cluster)
	}

	return sel, nil
}

func (s *Selection) String() string {
	return fmt.Sprintf("context %q (%s)", s.Context, s.Cluster.Server)
}
