package sweeper

import (
	"context"
	"errors"
	"io"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/Skotchmaster/cocoiru/internal/logging"
)

type countingSweeper struct {
	calls atomic.Int64
	err   error
}

func (s *countingSweeper) SweepRevoked(context.Context) (int64, error) {
	s.calls.Add(1)
	return 1, s.err
}

func TestRun_SweepsUntilCancelled(t *testing.T) {
	t.Parallel()

	s := &countingSweeper{}
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		Run(ctx, s, 5*time.Millisecond, logging.NewWithWriter(io.Discard, "error"))
		close(done)
	}()

	assert.Eventually(t, func() bool { return s.calls.Load() >= 2 }, time.Second, 5*time.Millisecond)
	cancel()

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("sweeper did not stop after cancel")
	}
}

func TestRun_KeepsGoingAfterErrors(t *testing.T) {
	t.Parallel()

	s := &countingSweeper{err: errors.New("db down")}
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go Run(ctx, s, 5*time.Millisecond, logging.NewWithWriter(io.Discard, "error"))

	assert.Eventually(t, func() bool { return s.calls.Load() >= 3 }, time.Second, 5*time.Millisecond)
}

func TestRun_DisabledReturnsImmediately(t *testing.T) {
	t.Parallel()

	s := &countingSweeper{}
	Run(context.Background(), s, 0, logging.NewWithWriter(io.Discard, "error"))
	assert.Zero(t, s.calls.Load())
}
