// Copyright (c) HashiCorp, Inc.
// SPDX-License-Identifier: MPL-2.0

package connection

import (
	"k8s.io/client-go/tools/clientcmd"
	clientcmdapi "k8s.io/client-go/tools/clientcmd/api"
)

// MakeInsecure returns doc with TLS verification disabled on the cluster of
// the current context. The CA data is dropped since the two are exclusive.
func MakeInsecure(doc []byte) ([]byte, error) {
	return rewriteCluster(doc, func(c *clientcmdapi.Cluster) {
		c.InsecureSkipTLSVerify = true
		c.CertificateAuthorityData = nil
		c.CertificateAuthority = ""
	})
}

// SetServer returns doc with the server of the current context's cluster
// replaced by server.
func SetServer(doc []byte, server string) ([]byte, error) {
	server = TrimServer(server)
	if server == "" {
		return nil, configErrorf("server is required")
	}
	return rewriteCluster(doc, func(c *clientcmdapi.Cluster) {
		c.Server = server
	})
}

func rewriteCluster(doc []byte, mutate func(*clientcmdapi.Cluster)) ([]byte, error) {
	kc, err := ParseKubeconfig(doc)
	if err != nil {
		return nil, err
	}
	sel, err := kc.Select()
	if err != nil {
		return nil, err
	}

	cfg, err := clientcmd.Load(doc)
	if err != nil {
		return nil, &ConfigError{Reason: "cannot load kubeconfig", Err: err}
	}
	ctx, ok := cfg.Contexts[sel.Context]
	if !ok {
		return nil, configErrorf("context %q not found in kubeconfig", sel.Context)
	}
	cluster, ok := cfg.Clusters[ctx.Cluster]
	if !ok {
		return nil, configErrorf("context %q references unknown cluster %q", sel.Context, ctx.Cluster)
	}
	mutate(cluster)

	out, err := clientcmd.Write(*cfg)
	if err != nil {
		return nil, &ConfigError{Reason: "cannot encode kubeconfig", Err: err}
	}
	return out, nil
}
