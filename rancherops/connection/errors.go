// Copyright (c) HashiCorp, Inc.
// SPDX-License-Identifier: MPL-2.0

package connection

import (
	"errors"
	"fmt"
)

// ConfigError reports a malformed or under-specified connection descriptor.
// It is always raised before any network call.
type ConfigError struct {
	Reason string
	Err    error
}

func (e *ConfigError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("invalid connection configuration: %s: %v", e.Reason, e.Err)
	}
	return "invalid connection configuration: " + e.Reason
}

func (e *ConfigError) Unwrap() error {
	return e.Err
}

func configErrorf(format string, args ...any) error {
	return &ConfigError{Reason: fmt.Sprintf(format, args...)}
}

// IsConfigError reports whether err is, or wraps, a *ConfigError.
func IsConfigError(err error) bool {
	var ce *ConfigError
	return errors.As(err, &ce)
}
