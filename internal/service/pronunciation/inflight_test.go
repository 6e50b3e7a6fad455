package pronunciation

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestInflight(t *testing.T) {
	var f inflight
	require.NoError(t, f.wait(context.Background()))

	f.add()
	f.add()
	assert.Equal(t, 2, f.count())

	done := make(chan error, 1)
	go func() { done <- f.wait(context.Background()) }()

	f.done()
	select {
	case <-done:
		t.Fatal("wait returned with one item left")
	case <-time.After(20 * time.Millisecond):
	}
	f.done()
	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(waitTimeout):
		t.Fatal("wait did not return after the last done")
	}

	// после простоя счётчик снова работает
	f.add()
	cause := errors.New("shutdown")
	ctx, cancel := context.WithCancelCause(context.Background())
	cancel(cause)
	assert.ErrorIs(t, f.wait(ctx), cause)
	f.done()
	assert.NoError(t, f.wait(context.Background()))
}

func TestInflight_DoneBelowZeroPanics(t *testing.T) {
	var f inflight
	assert.Panics(t, f.done)
}
