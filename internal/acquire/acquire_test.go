package acquire

import (
	"context"
	"errors"
	"image"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func page() image.Image { return image.NewGray(image.Rect(0, 0, 20, 30)) }

func blocking() Rasterizer {
	return RasterizerFunc(func(ctx context.Context, _ string, _ int) (image.Image, error) {
		<-ctx.Done()
		return nil, ctx.Err()
	})
}

func TestRasterize_OK(t *testing.T) {
	var gotDPI int
	r := RasterizerFunc(func(_ context.Context, _ string, dpi int) (image.Image, error) {
		gotDPI = dpi
		return page(), nil
	})
	res := Rasterize(context.Background(), r, "a.pdf", 0, time.Second)
	assert.Equal(t, OK, res.Kind)
	require.NotNil(t, res.Image)
	assert.Equal(t, DefaultDPI, gotDPI)
}

func TestRasterize_TimedOutIsDistinct(t *testing.T) {
	res := Rasterize(context.Background(), blocking(), "a.pdf", 300, 20*time.Millisecond)
	assert.Equal(t, TimedOut, res.Kind)
	assert.Nil(t, res.Image)
	assert.NoError(t, res.Err)
	assert.False(t, IsCorrupted(res))
}

func TestRasterize_ConversionFailed(t *testing.T) {
	r := RasterizerFunc(func(context.Context, string, int) (image.Image, error) {
		return nil, errors.New("renderer exploded")
	})
	res := Rasterize(context.Background(), r, "a.pdf", 300, time.Second)
	assert.Equal(t, ConversionFailed, res.Kind)
	assert.Equal(t, "renderer exploded", res.Reason)
}

func TestRasterize_NilImageIsFailure(t *testing.T) {
	r := RasterizerFunc(func(context.Context, string, int) (image.Image, error) { return nil, nil })
	res := Rasterize(context.Background(), r, "a.pdf", 300, time.Second)
	assert.Equal(t, ConversionFailed, res.Kind)
	assert.ErrorIs(t, res.Err, ErrNoImage)
}

func TestRasterize_ParentCancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	res := Rasterize(ctx, blocking(), "a.pdf", 300, time.Second)
	assert.Equal(t, ConversionFailed, res.Kind)
	assert.ErrorIs(t, res.Err, context.Canceled)
}

func TestWithRetry_RetriesOnlyTimeouts(t *testing.T) {
	var timeouts []int
	res, attempts := WithRetry(context.Background(), blocking(), "a.pdf", RetryOptions{
		Timeout:    10 * time.Millisecond,
		MaxRetries: 3,
		OnTimeout:  func(attempt, _ int) { timeouts = append(timeouts, attempt) },
	})
	assert.Equal(t, TimedOut, res.Kind)
	assert.Equal(t, 3, attempts)
	assert.Equal(t, []int{1, 2, 3}, timeouts)
}

func TestWithRetry_ConversionFailureIsTerminal(t *testing.T) {
	var calls atomic.Int32
	r := RasterizerFunc(func(context.Context, string, int) (image.Image, error) {
		calls.Add(1)
		return nil, ErrCorrupted
	})
	res, attempts := WithRetry(context.Background(), r, "a.pdf", RetryOptions{Timeout: time.Second})
	assert.Equal(t, ConversionFailed, res.Kind)
	assert.Equal(t, 1, attempts)
	assert.Equal(t, int32(1), calls.Load())
	assert.True(t, IsCorrupted(res))
}

func TestWithRetry_SucceedsAfterTimeout(t *testing.T) {
	var calls atomic.Int32
	r := RasterizerFunc(func(ctx context.Context, _ string, _ int) (image.Image, error) {
		if calls.Add(1) == 1 {
			<-ctx.Done()
			return nil, ctx.Err()
		}
		return page(), nil
	})
	res, attempts := WithRetry(context.Background(), r, "a.pdf", RetryOptions{Timeout: 20 * time.Millisecond, MaxRetries: 3})
	assert.Equal(t, OK, res.Kind)
	assert.Equal(t, 2, attempts)
}

func TestWithRetry_CancelledBeforeStart(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	res, attempts := WithRetry(ctx, blocking(), "a.pdf", RetryOptions{})
	assert.Equal(t, ConversionFailed, res.Kind)
	assert.Zero(t, attempts)
}

func TestIsCorrupted(t *testing.T) {
	tests := []struct {
		name string
		res  Result
		want bool
	}{
		{"sentinel", Result{Kind: ConversionFailed, Err: ErrCorrupted}, true},
		{"xref", Result{Kind: ConversionFailed, Reason: "malformed PDF: invalid xref table"}, true},
		{"trailer", Result{Kind: ConversionFailed, Reason: "no trailer found"}, true},
		{"render", Result{Kind: ConversionFailed, Reason: "renderer exploded"}, false},
		{"timeout", Result{Kind: TimedOut, Reason: "corrupt"}, false},
		{"ok", Result{Kind: OK}, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, IsCorrupted(tt.res))
		})
	}
}

func TestKind_String(t *testing.T) {
	assert.Equal(t, "ok", OK.String())
	assert.Equal(t, "timed_out", TimedOut.String())
	assert.Equal(t, "conversion_failed", ConversionFailed.String())
}
