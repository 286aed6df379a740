// Copyright (c) HashiCorp, Inc.
// SPDX-License-Identifier: MPL-2.0

package api

import (
	"context"
	"encoding/base64"
	"net/netip"
	"net/url"
	"strings"

	"k8s.io/apimachinery/pkg/apis/meta/v1/unstructured"

	"github.com/tinkerbell-community/terraform-provider-rancherops/rancherops/converge"
)

// Extractor pulls a value out of a response object. It returns false when the
// value is absent or fails validation, which keeps the fetch polling.
type Extractor[T any] func(obj *Object) (T, bool)

// FetchValue polls path until extract yields a value. 404 and invalid values
// are not ready; 5xx and connection failures are retried until the deadline;
// other error statuses and malformed bodies are fatal.
func FetchValue[T any](ctx context.Context, c *Client, path string, query url.Values, extract Extractor[T], opts ...converge.Option) (T, error) {
	probe := func(ctx context.Context) (T, bool, error) {
		var zero T
		obj, err := c.Get(ctx, path, query)
		switch {
		case IsNotFound(err):
			c.logger.Trace("value source not found yet", "path", path)
			return zero, false, nil
		case IsTransient(err):
			return zero, false, converge.Transient(err)
		case err != nil:
			return zero, false, err
		}
		v, ok := extract(obj)
		if !ok {
			c.logger.Trace("value not available yet", "path", path)
		}
		return v, ok, nil
	}

	opts = append([]converge.Option{converge.WithResource(path)}, opts...)
	return converge.WaitFor(ctx, probe, opts...)
}

// StringAt extracts a non-empty string field.
func StringAt(path string) Extractor[string] {
	return func(obj *Object) (string, bool) {
		s, ok := obj.String(path)
		return s, ok && s != ""
	}
}

func RegistrationTokenPath(namespace string) string {
	return "/apis/management.cattle.io/v3/namespaces/" + namespace + "/clusterregistrationtokens/default-token"
}

// FetchManifestURL waits for the default registration token of a cluster
// namespace to publish its manifest URL.
func FetchManifestURL(ctx context.Context, c *Client, namespace string, opts ...converge.Option) (string, error) {
	return FetchValue(ctx, c, RegistrationTokenPath(namespace), nil, StringAt("status.manifestUrl"), opts...)
}

// FetchVMIP waits for a virtual machine instance to report a valid address on
// one of its interfaces.
func FetchVMIP(ctx context.Context, c *Client, namespace, name string, opts ...converge.Option) (string, error) {
	path, err := ObjectPath("kubevirt.io/v1", "VirtualMachineInstance", namespace, name)
	if err != nil {
		return "", err
	}
	return FetchValue(ctx, c, path, nil, func(obj *Object) (string, bool) {
		fields, err := obj.Fields()
		if err != nil {
			return "", false
		}
		interfaces, _, err := unstructured.NestedSlice(fields, "status", "interfaces")
		if err != nil {
			return "", false
		}
		for _, iface := range interfaces {
			m, ok := iface.(map[string]any)
			if !ok {
				continue
			}
			ip, _, _ := unstructured.NestedString(m, "ipAddress")
			if addr, ok := ParseIP(ip); ok {
				return addr, true
			}
		}
		return "", false
	}, opts...)
}

// ParseIP validates a reported address, dropping any prefix length.
func ParseIP(s string) (string, bool) {
	s = strings.TrimSpace(s)
	if i := strings.IndexByte(s, '/'); i >= 0 {
		s = s[:i]
	}
	addr, err := netip.ParseAddr(s)
	if err != nil || addr.IsUnspecified() {
		return "", false
	}
	return addr.String(), true
}

const bootstrapSecretPath = "/api/v1/namespaces/cattle-system/secrets/bootstrap-secret"

// FetchBootstrapPassword waits for the initial admin password secret.
func FetchBootstrapPassword(ctx context.Context, c *Client, opts ...converge.Option) (string, error) {
	return FetchValue(ctx, c, bootstrapSecretPath, nil, func(obj *Object) (string, bool) {
		enc, ok := obj.String("data.bootstrapPassword")
		if !ok || enc == "" {
			return "", false
		}
		dec, err := base64.StdEncoding.DecodeString(enc)
		if err != nil || len(dec) == 0 {
			return "", false
		}
		return string(dec), true
	}, opts...)
}

const clustersPath = "/apis/management.cattle.io/v3/clusters"

// FetchClusterID waits for a management cluster with the given display name
// and returns its object name.
func FetchClusterID(ctx context.Context, c *Client, displayName string, opts ...converge.Option) (string, error) {
	query := url.Values{"displayName": {displayName}}
	return FetchValue(ctx, c, clustersPath, query, func(obj *Object) (string, bool) {
		fields, err := obj.Fields()
		if err != nil {
			return "", false
		}
		items, _, err := unstructured.NestedSlice(fields, "items")
		if err != nil {
			return "", false
		}
		for _, item := range items {
			m, ok := item.(map[string]any)
			if !ok {
				continue
			}
			got, _, _ := unstructured.NestedString(m, "spec", "displayName")
			id, _, _ := unstructured.NestedString(m, "metadata", "name")
			if got == displayName && id != "" {
				return id, true
			}
		}
		return "", false
	}, opts...)
}
