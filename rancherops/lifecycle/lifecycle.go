// Copyright (c) HashiCorp, Inc.
// SPDX-License-Identifier: MPL-2.0

// Package lifecycle defines the create/diff/update/delete contract every
// external resource implements, with helpers for diffing and identity.
package lifecycle

import (
	"context"
	"fmt"
	"sort"
	"strings"

	"github.com/google/go-cmp/cmp"
	"github.com/google/go-cmp/cmp/cmpopts"
	"github.com/mitchellh/hashstructure"
)

// Provider manages one category of external resource. I is the desired
// input and O the recorded output, which carries everything needed to diff
// and delete later.
type Provider[I, O any] interface {
	// Create performs the side effect and returns the fully populated output.
	// On error no output is recorded.
	Create(ctx context.Context, in I) (CreateResult[O], error)

	// Diff compares the recorded output with a new input. It must not touch
	// the network.
	Diff(old O, in I) DiffResult

	// Update applies in to the resource identified by id.
	Update(ctx context.Context, id string, old O, in I) (O, error)

	// Delete removes the resource. Providers whose resource is owned
	// elsewhere implement it as a documented no-op.
	Delete(ctx context.Context, id string, out O) error
}

type CreateResult[O any] struct {
	ID  string
	Out O
}

// DiffResult lists the changed fields and the subset that force
// replacement.
type DiffResult struct {
	Changed  bool
	Fields   []string
	Replaces []string
}

func (d DiffResult) RequiresReplace() bool {
	return len(d.Replaces) > 0
}

func (d DiffResult) String() string {
	if !d.Changed {
		return "no changes"
	}
	s := "changed: " + strings.Join(d.Fields, ", ")
	if len(d.Replaces) > 0 {
		s += "; replace: " + strings.Join(d.Replaces, ", ")
	}
	return s
}

// Diff accumulates field comparisons into a DiffResult.
type Diff struct {
	fields   []string
	replaces []string
}

// Compare records field as changed when old and cur differ, and as
// replace-triggering when replace is set.
func (d *Diff) Compare(field string, old, cur any, replace bool) *Diff {
	if !Equal(old, cur) {
		d.fields = append(d.fields, field)
		if replace {
			d.replaces = append(d.replaces, field)
		}
	}
	return d
}

func (d *Diff) Result() DiffResult {
	fields := append([]string(nil), d.fields...)
	replaces := append([]string(nil), d.replaces...)
	sort.Strings(fields)
	sort.Strings(replaces)
	return DiffResult{
		Changed:  len(fields) > 0,
		Fields:   fields,
		Replaces: replaces,
	}
}

// Equal compares free-form values structurally. Nil and empty maps and slices
// are equal.
func Equal(a, b any) bool {
	return cmp.Equal(a, b, cmpopts.EquateEmpty())
}

// StableID joins identity parts with "/".
func StableID(parts ...string) string {
	return strings.Join(parts, "/")
}

// HashID derives a short identity from a structured value, for resources
// whose natural key is a set of inputs rather than a name.
func HashID(prefix string, v any) (string, error) {
	h, err := hashstructure.Hash(v, nil)
	if err != nil {
		return "", fmt.Errorf("hash %s identity: %w", prefix, err)
	}
	return fmt.Sprintf("%s-%016x", prefix, h), nil
}
