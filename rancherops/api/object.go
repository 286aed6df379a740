// Copyright (c) HashiCorp, Inc.
// SPDX-License-Identifier: MPL-2.0

package api

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/thedevsaddam/gojsonq/v2"
	"k8s.io/apimachinery/pkg/apis/meta/v1/unstructured"
)

// Object is a decoded JSON response body.
type Object struct {
	raw []byte
}

// NewObject validates raw as JSON. An empty body is a valid, empty object.
func NewObject(raw []byte) (*Object, error) {
	if len(raw) > 0 && !json.Valid(raw) {
		return nil, fmt.Errorf("response is not valid JSON")
	}
	return &Object{raw: raw}, nil
}

func (o *Object) Raw() []byte {
	return o.raw
}

func (o *Object) Empty() bool {
	return len(o.raw) == 0
}

func (o *Object) query() *gojsonq.JSONQ {
	return gojsonq.New().FromString(string(o.raw))
}

// Find returns the value at a gojsonq path such as "status.interfaces.[0].ipAddress".
func (o *Object) Find(path string) any {
	if o.Empty() {
		return nil
	}
	return o.query().Find(path)
}

// String returns the string at path. The second result is false when the path
// is missing or holds a non-string value.
func (o *Object) String(path string) (string, bool) {
	s, ok := o.Find(path).(string)
	return s, ok
}

// Count counts the entries of the array at path whose fields equal the given
// values, e.g. Count("status.conditions", "type", "Ready", "status", "True").
// Anything other than an array at path counts as zero.
func (o *Object) Count(path string, fieldValues ...string) int {
	fields, err := o.Fields()
	if err != nil || fields == nil {
		return 0
	}
	if _, found, err := unstructured.NestedSlice(fields, strings.Split(path, ".")...); !found || err != nil {
		return 0
	}
	q := o.query().From(path)
	for i := 0; i+1 < len(fieldValues); i += 2 {
		q = q.Where(fieldValues[i], "=", fieldValues[i+1])
	}
	return q.Count()
}

// Fields decodes the body as a JSON object for use with the unstructured
// field helpers. An empty body yields nil.
func (o *Object) Fields() (map[string]any, error) {
	if o.Empty() {
		return nil, nil
	}
	var m map[string]any
	if err := json.Unmarshal(o.raw, &m); err != nil {
		return nil, err
	}
	return m, nil
}

// Decode unmarshals the whole body into v.
func (o *Object) Decode(v any) error {
	if o.Empty() {
		return nil
	}
	return json.Unmarshal(o.raw, v)
}
