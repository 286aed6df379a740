// Copyright (c) HashiCorp, Inc.
// SPDX-License-Identifier: MPL-2.0

// Package converge implements bounded polling: call a probe until it reports a
// value, fails fatally, or the deadline passes.
package converge

import (
	"context"
	"errors"
	"fmt"
	"time"

	"k8s.io/apimachinery/pkg/util/wait"
)

const (
	DefaultInterval     = 5 * time.Second
	DefaultTimeout      = 300 * time.Second
	DefaultInitialDelay = 1 * time.Second
)

// Probe is a single convergence attempt. It returns ready=true together with the
// value once the remote system has converged. A nil error with ready=false means
// "not ready yet". Errors wrapped with Transient are retried until the deadline;
// every other error aborts polling immediately.
type Probe[T any] func(ctx context.Context) (value T, ready bool, err error)

// Options controls a WaitFor call.
type Options struct {
	Interval     time.Duration
	Timeout      time.Duration
	InitialDelay time.Duration

	// Resource names what is being awaited; it is used in timeout errors.
	Resource string
}

// Option mutates Options.
type Option func(*Options)

func WithInterval(d time.Duration) Option {
	return func(o *Options) { o.Interval = d }
}

func WithTimeout(d time.Duration) Option {
	return func(o *Options) { o.Timeout = d }
}

func WithInitialDelay(d time.Duration) Option {
	return func(o *Options) { o.InitialDelay = d }
}

// WithResource labels the awaited resource or condition for error messages.
func WithResource(name string) Option {
	return func(o *Options) { o.Resource = name }
}

// WithOptions copies every field of base, keeping the resource label of base only
// when it is set.
func WithOptions(base Options) Option {
	return func(o *Options) {
		o.Interval = base.Interval
		o.Timeout = base.Timeout
		o.InitialDelay = base.InitialDelay
		if base.Resource != "" {
			o.Resource = base.Resource
		}
	}
}

func newOptions(opts []Option) Options {
	o := Options{
		Interval:     DefaultInterval,
		Timeout:      DefaultTimeout,
		InitialDelay: DefaultInitialDelay,
		Resource:     "condition",
	}
	for _, opt := range opts {
		opt(&o)
	}
	if o.Interval < 0 {
		o.Interval = 0
	}
	if o.Timeout < 0 {
		o.Timeout = 0
	}
	if o.InitialDelay < 0 {
		o.InitialDelay = 0
	}
	return o
}

// WaitFor sleeps for the initial delay, then invokes probe until it is ready.
// The probe's context expires with the timeout. A zero timeout still runs the
// probe exactly once.
func WaitFor[T any](ctx context.Context, probe Probe[T], opts ...Option) (T, error) {
	var zero T
	o := newOptions(opts)

	if err := sleep(ctx, o.InitialDelay); err != nil {
		return zero, fmt.Errorf("waiting for %s: %w", o.Resource, err)
	}

	var (
		value    T
		attempts int
		lastErr  error
		fatal    error
	)
	err := wait.PollUntilContextTimeout(ctx, o.Interval, o.Timeout, true, func(ctx context.Context) (bool, error) {
		attempts++
		v, ready, err := probe(ctx)
		var te *TransientError
		switch {
		case err == nil && ready:
			value = v
			return true, nil
		case errors.As(err, &te):
			lastErr = te.Err
		case err != nil && ctx.Err() != nil:
			// The probe was cut short by the deadline.
			lastErr = err
		case err != nil:
			fatal = err
			return false, err
		}
		return false, nil
	})

	switch {
	case err == nil:
		return value, nil
	case fatal != nil:
		return zero, fatal
	case ctx.Err() != nil:
		return zero, fmt.Errorf("waiting for %s: %w", o.Resource, ctx.Err())
	case wait.Interrupted(err):
		return zero, &TimeoutError{
			Resource: o.Resource,
			Timeout:  o.Timeout,
			Attempts: attempts,
			LastErr:  lastErr,
		}
	default:
		return zero, err
	}
}

func sleep(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}

// TimeoutError is returned when the deadline elapses without the probe succeeding.
type TimeoutError struct {
	Resource string
	Timeout  time.Duration
	Attempts int
	LastErr  error
}

func (e *TimeoutError) Error() string {
	msg := fmt.Sprintf("timed out after %s waiting for %s (%d attempts)", e.Timeout, e.Resource, e.Attempts)
	if e.LastErr != nil {
		msg += ": last error: " + e.LastErr.Error()
	}
	return msg
}

// Unwrap exposes the last transient error, if any.
func (e *TimeoutError) Unwrap() error {
	return e.LastErr
}

// IsTimeout reports whether err is, or wraps, a *TimeoutError.
func IsTimeout(err error) bool {
	var te *TimeoutError
	return errors.As(err, &te)
}

// TransientError marks a probe failure that should be retried until the deadline.
type TransientError struct {
	Err error
}

func (e *TransientError) Error() string {
	return e.Err.Error()
}

func (e *TransientError) Unwrap() error {
	return e.Err
}

// Transient marks err as retryable by WaitFor. A nil err stays nil.
func Transient(err error) error {
	if err == nil {
		return nil
	}
	return &TransientError{Err: err}
}

// IsTransient reports whether err was marked with Transient.
func IsTransient(err error) bool {
	var te *TransientError
	return errors.As(err, &te)
}
