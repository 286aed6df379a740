// Copyright (c) HashiCorp, Inc.
// SPDX-License-Identifier: MPL-2.0

package api

import (
	"context"
	"fmt"
	"time"

	"k8s.io/apimachinery/pkg/api/meta"
	"k8s.io/apimachinery/pkg/runtime/schema"

	"github.com/tinkerbell-community/terraform-provider-rancherops/rancherops/converge"
)

const DefaultExpectedValue = "True"

// ConditionWait describes an object condition to wait for. An empty Type waits
// for the object to exist.
type ConditionWait struct {
	Path     string
	Type     string
	Expected string
	Timeout  time.Duration
	Interval time.Duration
}

func (w ConditionWait) String() string {
	if w.Type == "" {
		return w.Path
	}
	return fmt.Sprintf("%s condition %s=%s", w.Path, w.Type, w.expected())
}

func (w ConditionWait) expected() string {
	if w.Expected == "" {
		return DefaultExpectedValue
	}
	return w.Expected
}

// WaitForCondition polls the object until its condition reports the expected
// status. A missing object is not ready; a 5xx or connection failure is
// retried until the deadline; any other error status is fatal.
func WaitForCondition(ctx context.Context, c *Client, w ConditionWait, opts ...converge.Option) (bool, error) {
	probe := func(ctx context.Context) (bool, bool, error) {
		obj, err := c.Get(ctx, w.Path, nil)
		switch {
		case IsNotFound(err):
			c.logger.Trace("object not found yet", "path", w.Path)
			return false, false, nil
		case IsTransient(err):
			return false, false, converge.Transient(err)
		case err != nil:
			return false, false, err
		}

		if w.Type == "" {
			return true, true, nil
		}
		if obj.Count("status.conditions", "type", w.Type, "status", w.expected()) > 0 {
			return true, true, nil
		}
		c.logger.Trace("condition not met", "path", w.Path, "type", w.Type, "expected", w.expected())
		return false, false, nil
	}

	opts = append([]converge.Option{converge.WithResource(w.String())}, opts...)
	if w.Timeout > 0 {
		opts = append(opts, converge.WithTimeout(w.Timeout))
	}
	if w.Interval > 0 {
		opts = append(opts, converge.WithInterval(w.Interval))
	}
	return converge.WaitFor(ctx, probe, opts...)
}

// ObjectPath builds the REST path of a named object. Core objects ("v1") live
// under /api, grouped ones under /apis. Cluster-scoped objects pass an empty
// namespace.
func ObjectPath(apiVersion, kind, namespace, name string) (string, error) {
	gv, err := schema.ParseGroupVersion(apiVersion)
	if err != nil {
		return "", fmt.Errorf("invalid api version %q: %w", apiVersion, err)
	}
	if gv.Version == "" || kind == "" || name == "" {
		return "", fmt.Errorf("api version, kind and name are required, got %q, %q, %q", apiVersion, kind, name)
	}
	resource, _ := meta.UnsafeGuessKindToResource(gv.WithKind(kind))

	p := "/apis/" + gv.String()
	if gv.Group == "" {
		p = "/api/" + gv.Version
	}
	if namespace != "" {
		p += "/namespaces/" + namespace
	}
	return p + "/" + resource.Resource + "/" + name, nil
}
