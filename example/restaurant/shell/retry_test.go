package shell_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/AntonStoeckl/orchestrating-eventstore-go/eventstore"
	"github.com/AntonStoeckl/orchestrating-eventstore-go/example/restaurant/shell"
	"github.com/AntonStoeckl/orchestrating-eventstore-go/testutil/observability/testdoubles"
)

func Test_RetryWithExponentialBackoff_Success_NoRetries(t *testing.T) {
	// arrange
	callCount := 0
	fn := func(_ context.Context) error {
		callCount++
		return nil
	}

	// act
	meta, err := shell.RetryWithExponentialBackoff(context.Background(), fn)

	// assert
	assert.NoError(t, err)
	assert.Equal(t, 1, callCount)
	assert.Equal(t, 1, meta.Attempts)
	assert.Equal(t, time.Duration(0), meta.TotalDelay)
	assert.Equal(t, "none", meta.LastErrorType)
}

func Test_RetryWithExponentialBackoff_RetryOnConcurrencyConflict(t *testing.T) {
	// arrange
	callCount := 0
	fn := func(_ context.Context) error {
		callCount++
		if callCount < 3 {
			return errors.Join(errors.New("saving failed"), eventstore.ErrConcurrencyConflict)
		}
		return nil
	}

	// act
	meta, err := shell.RetryWithExponentialBackoff(context.Background(), fn, shell.WithBaseDelay(time.Millisecond))

	// assert
	assert.NoError(t, err)
	assert.Equal(t, 3, callCount)
	assert.Equal(t, 3, meta.Attempts)
	assert.Greater(t, meta.TotalDelay, time.Duration(0))
	assert.Equal(t, "none", meta.LastErrorType)
}

func Test_RetryWithExponentialBackoff_NonRetryableErrorFailsFast(t *testing.T) {
	// arrange
	callCount := 0
	fn := func(_ context.Context) error {
		callCount++
		return eventstore.ErrStreamFinalized
	}

	// act
	meta, err := shell.RetryWithExponentialBackoff(context.Background(), fn)

	// assert
	assert.ErrorIs(t, err, eventstore.ErrStreamFinalized)
	assert.Equal(t, 1, callCount)
	assert.Equal(t, "other", meta.LastErrorType)
}

func Test_RetryWithExponentialBackoff_GivesUpAfterMaxAttempts(t *testing.T) {
	// arrange
	metrics := testdoubles.NewMetricsCollectorSpy()
	callCount := 0
	fn := func(_ context.Context) error {
		callCount++
		return eventstore.ErrConcurrencyConflict
	}

	// act
	meta, err := shell.RetryWithExponentialBackoff(
		context.Background(),
		fn,
		shell.WithMaxAttempts(3),
		shell.WithBaseDelay(time.Millisecond),
		shell.WithJitterFactor(0),
		shell.WithRetryMetrics(metrics, "handle"),
	)

	// assert
	assert.ErrorIs(t, err, eventstore.ErrConcurrencyConflict)
	assert.Equal(t, 3, callCount)
	assert.Equal(t, 3, meta.Attempts)
	assert.Equal(t, 3*time.Millisecond, meta.TotalDelay)
	assert.Equal(t, "concurrency_conflict", meta.LastErrorType)

	assert.Len(t, metrics.Records(shell.RetryDelayMetric), 2)
	assert.Len(t, metrics.Records(shell.RetriesMetric), 2)
	maxReached := metrics.Records(shell.MaxRetriesReachedMetric)
	require.Len(t, maxReached, 1)
	assert.Equal(t, "concurrency_conflict", maxReached[0].Labels["final_error_type"])
	assert.Equal(t, "handle", maxReached[0].Labels["operation"])
}

func Test_RetryWithExponentialBackoff_StopsWhenTheContextIsCanceled(t *testing.T) {
	// arrange
	ctx, cancel := context.WithCancel(context.Background())
	fn := func(_ context.Context) error {
		cancel()
		return eventstore.ErrConcurrencyConflict
	}

	// act
	meta, err := shell.RetryWithExponentialBackoff(ctx, fn, shell.WithBaseDelay(time.Hour))

	// assert
	assert.ErrorIs(t, err, context.Canceled)
	assert.Equal(t, 1, meta.Attempts)
	assert.Equal(t, "context_canceled", meta.LastErrorType)
}

func Test_RetryWithExponentialBackoff_InvalidOptions(t *testing.T) {
	fn := func(_ context.Context) error { return nil }

	tests := []struct {
		name        string
		option      shell.RetryOption
		expectedErr error
	}{
		{name: "max attempts", option: shell.WithMaxAttempts(0), expectedErr: shell.ErrInvalidMaxAttempts},
		{name: "negative base delay", option: shell.WithBaseDelay(-time.Second), expectedErr: shell.ErrNegativeBaseDelay},
		{name: "jitter factor", option: shell.WithJitterFactor(1.5), expectedErr: shell.ErrInvalidJitterFactor},
		{name: "nil metrics", option: shell.WithRetryMetrics(nil, "handle"), expectedErr: shell.ErrNilMetricsCollector},
		{name: "empty operation", option: shell.WithRetryMetrics(testdoubles.NewMetricsCollectorSpy(), ""), expectedErr: shell.ErrEmptyOperation},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := shell.RetryWithExponentialBackoff(context.Background(), fn, tt.option)

			assert.ErrorIs(t, err, tt.expectedErr)
		})
	}
}
