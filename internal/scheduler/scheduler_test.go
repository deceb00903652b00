package scheduler

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"
)

type fakeResetter struct {
	calls []time.Time
	err   error
}

func (f *fakeResetter) ResetExpired(_ context.Context, now time.Time) ([]string, error) {
	f.calls = append(f.calls, now)
	return []string{"st-1"}, f.err
}

func TestAddLimitReset(t *testing.T) {
	s := New(zaptest.NewLogger(t))

	require.NoError(t, s.AddLimitReset("@hourly", &fakeResetter{}))
	assert.Len(t, s.cron.Entries(), 1)

	assert.Error(t, s.AddLimitReset("not a schedule", &fakeResetter{}))
}

func TestRunLimitReset(t *testing.T) {
	fixed := time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)
	s := New(zaptest.NewLogger(t))
	s.now = func() time.Time { return fixed }

	resetter := &fakeResetter{}
	s.runLimitReset(context.Background(), resetter)
	require.Len(t, resetter.calls, 1)
	assert.Equal(t, fixed, resetter.calls[0])

	// Errors are logged, not propagated.
	failing := &fakeResetter{err: errors.New("boom")}
	s.runLimitReset(context.Background(), failing)
	assert.Len(t, failing.calls, 1)
}

func TestRunStopsWithContext(t *testing.T) {
	s := New(zaptest.NewLogger(t))
	ctx, cancel := context.WithCancel(context.Background())

	done := make(chan error, 1)
	go func() { done <- s.Run(ctx) }()
	cancel()

	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(5 * time.Second):
		t.Fatal("scheduler did not stop")
	}
}
