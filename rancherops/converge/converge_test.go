// Copyright (c) HashiCorp, Inc.
// SPDX-License-Identifier: MPL-2.0

package converge

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func fast(extra ...Option) []Option {
	return append([]Option{
		WithInitialDelay(0),
		WithInterval(10 * time.Millisecond),
		WithTimeout(time.Second),
	}, extra...)
}

func TestWaitFor_ReturnsFirstValueAndStops(t *testing.T) {
	t.Parallel()
	var calls int32
	probe := func(context.Context) (string, bool, error) {
		n := atomic.AddInt32(&calls, 1)
		if n < 3 {
			return "", false, nil
		}
		return "done", true, nil
	}

	v, err := WaitFor(context.Background(), probe, fast()...)
	require.NoError(t, err)
	assert.Equal(t, "done", v)

	time.Sleep(50 * time.Millisecond)
	assert.Equal(t, int32(3), atomic.LoadInt32(&calls), "no probes after success")
}

func TestWaitFor_TimesOut(t *testing.T) {
	t.Parallel()
	var calls int32
	probe := func(context.Context) (int, bool, error) {
		atomic.AddInt32(&calls, 1)
		return 0, false, nil
	}

	start := time.Now()
	_, err := WaitFor(context.Background(), probe,
		WithInitialDelay(30*time.Millisecond),
		WithInterval(20*time.Millisecond),
		WithTimeout(100*time.Millisecond),
		WithResource("VMI default/vm-1"),
	)
	elapsed := time.Since(start)

	require.Error(t, err)
	assert.True(t, IsTimeout(err))
	assert.Contains(t, err.Error(), "VMI default/vm-1")
	assert.Contains(t, err.Error(), "100ms")
	assert.GreaterOrEqual(t, elapsed, 130*time.Millisecond)
	assert.Less(t, elapsed, time.Second)

	n := atomic.LoadInt32(&calls)
	assert.GreaterOrEqual(t, n, int32(3))
	assert.LessOrEqual(t, n, int32(7))
}

func TestWaitFor_ZeroTimeoutProbesOnce(t *testing.T) {
	t.Parallel()
	var calls int32
	probe := func(context.Context) (bool, bool, error) {
		atomic.AddInt32(&calls, 1)
		return false, false, nil
	}

	_, err := WaitFor(context.Background(), probe, WithInitialDelay(0), WithTimeout(0))
	require.Error(t, err)
	assert.True(t, IsTimeout(err))
	assert.Equal(t, int32(1), atomic.LoadInt32(&calls))
}

func TestWaitFor_FatalErrorPropagates(t *testing.T) {
	t.Parallel()
	boom := errors.New("401 unauthorized")
	var calls int32
	probe := func(context.Context) (string, bool, error) {
		atomic.AddInt32(&calls, 1)
		return "", false, boom
	}

	_, err := WaitFor(context.Background(), probe, fast()...)
	require.ErrorIs(t, err, boom)
	assert.False(t, IsTimeout(err))
	assert.Equal(t, int32(1), atomic.LoadInt32(&calls))
}

func TestWaitFor_TransientErrorsAreRetried(t *testing.T) {
	t.Parallel()
	var calls int32
	probe := func(context.Context) (string, bool, error) {
		if atomic.AddInt32(&calls, 1) < 3 {
			return "", false, Transient(errors.New("connection refused"))
		}
		return "ok", true, nil
	}

	v, err := WaitFor(context.Background(), probe, fast()...)
	require.NoError(t, err)
	assert.Equal(t, "ok", v)
}

func TestWaitFor_TimeoutCarriesLastTransientError(t *testing.T) {
	t.Parallel()
	cause := errors.New("503 service unavailable")
	probe := func(context.Context) (string, bool, error) {
		return "", false, Transient(cause)
	}

	_, err := WaitFor(context.Background(), probe, WithInitialDelay(0), WithTimeout(0))
	require.Error(t, err)
	assert.True(t, IsTimeout(err))
	assert.ErrorIs(t, err, cause)
	assert.False(t, IsTransient(err), "timeout must not look transient to an outer poller")
}

func TestWaitFor_ContextCancelled(t *testing.T) {
	t.Parallel()
	ctx, cancel := context.WithCancel(context.Background())
	probe := func(context.Context) (string, bool, error) {
		cancel()
		return "", false, nil
	}

	_, err := WaitFor(ctx, probe, fast()...)
	require.ErrorIs(t, err, context.Canceled)
	assert.False(t, IsTimeout(err))
}

func TestWaitFor_IndependentDeadlines(t *testing.T) {
	t.Parallel()
	errs := make(chan error, 2)
	for _, timeout := range []time.Duration{20 * time.Millisecond, 200 * time.Millisecond} {
		go func(timeout time.Duration) {
			_, err := WaitFor(context.Background(), func(context.Context) (int, bool, error) {
				return 0, false, nil
			}, WithInitialDelay(0), WithInterval(5*time.Millisecond), WithTimeout(timeout))
			errs <- err
		}(timeout)
	}

	first := <-errs
	second := <-errs
	var te1, te2 *TimeoutError
	require.ErrorAs(t, first, &te1)
	require.ErrorAs(t, second, &te2)
	assert.Equal(t, 20*time.Millisecond, te1.Timeout)
	assert.Equal(t, 200*time.Millisecond, te2.Timeout)
}

func TestTransient_Nil(t *testing.T) {
	t.Parallel()
	assert.NoError(t, Transient(nil))
	assert.False(t, IsTransient(errors.New("x")))
}

func TestWaitFor_ProbeContextCarriesDeadline(t *testing.T) {
	t.Parallel()
	var sawDeadline atomic.Bool
	probe := func(ctx context.Context) (string, bool, error) {
		deadline, ok := ctx.Deadline()
		sawDeadline.Store(ok && time.Until(deadline) <= time.Second)
		return "ok", true, nil
	}

	_, err := WaitFor(context.Background(), probe, fast()...)
	require.NoError(t, err)
	assert.True(t, sawDeadline.Load())
}

func TestWaitFor_ProbeCutShortByDeadlineTimesOut(t *testing.T) {
	t.Parallel()
	probe := func(ctx context.Context) (string, bool, error) {
		<-ctx.Done()
		return "", false, errors.New("read tcp 10.0.0.5:22: use of closed network connection")
	}

	start := time.Now()
	_, err := WaitFor(context.Background(), probe, WithInitialDelay(0), WithTimeout(50*time.Millisecond))
	require.Error(t, err)
	assert.True(t, IsTimeout(err))
	assert.Contains(t, err.Error(), "use of closed network connection")
	assert.Less(t, time.Since(start), time.Second)
}
