package resilience

import (
	"context"
	"errors"
	"testing"
	"time"
)

var errTemporary = errors.New("temporary error")

func fastRetry() RetryConfig {
	return RetryConfig{
		MaxAttempts:    3,
		InitialBackoff: time.Millisecond,
		MaxBackoff:     10 * time.Millisecond,
		BackoffFactor:  2.0,
	}
}

func TestRetry_SucceedsOnFirstAttempt(t *testing.T) {
	callCount := 0
	result, err := Retry(context.Background(), DefaultRetryConfig(), func(context.Context) (string, error) {
		callCount++
		return "success", nil
	})
	if err != nil {
		t.Errorf("expected no error, got %v", err)
	}
	if result != "success" {
		t.Errorf("expected 'success', got %s", result)
	}
	if callCount != 1 {
		t.Errorf("expected 1 call, got %d", callCount)
	}
}

func TestRetry_SucceedsAfterRetry(t *testing.T) {
	callCount := 0
	result, err := Retry(context.Background(), fastRetry(), func(context.Context) (int, error) {
		callCount++
		if callCount < 3 {
			return 0, errTemporary
		}
		return 42, nil
	})
	if err != nil {
		t.Errorf("expected no error, got %v", err)
	}
	if result != 42 {
		t.Errorf("expected 42, got %d", result)
	}
	if callCount != 3 {
		t.Errorf("expected 3 calls, got %d", callCount)
	}
}

func TestRetry_ExceedsMaxAttempts(t *testing.T) {
	callCount := 0
	_, err := Retry(context.Background(), fastRetry(), func(context.Context) (string, error) {
		callCount++
		return "", errTemporary
	})
	if !errors.Is(err, errTemporary) {
		t.Errorf("expected errTemporary, got %v", err)
	}
	if callCount != 3 {
		t.Errorf("expected 3 calls, got %d", callCount)
	}
}

func TestRetry_StopsOnNonRetryable(t *testing.T) {
	permanent := errors.New("permanent")
	cfg := fastRetry()
	cfg.RetryIf = func(err error) bool { return !errors.Is(err, permanent) }

	callCount := 0
	_, err := Retry(context.Background(), cfg, func(context.Context) (string, error) {
		callCount++
		return "", permanent
	})
	if !errors.Is(err, permanent) {
		t.Errorf("expected permanent error, got %v", err)
	}
	if callCount != 1 {
		t.Errorf("expected 1 call, got %d", callCount)
	}
}

func TestRetry_RespectsContext(t *testing.T) {
	cfg := fastRetry()
	cfg.InitialBackoff = time.Second
	cfg.MaxBackoff = time.Second

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()

	start := time.Now()
	_, err := Retry(ctx, cfg, func(context.Context) (string, error) {
		return "", errTemporary
	})
	if !errors.Is(err, errTemporary) {
		t.Errorf("expected the last attempt error, got %v", err)
	}
	if elapsed := time.Since(start); elapsed > 500*time.Millisecond {
		t.Errorf("retry should stop on context end, took %v", elapsed)
	}
}

func TestRetry_UsesServerHint(t *testing.T) {
	cfg := fastRetry()
	cfg.MaxAttempts = 2
	cfg.MaxBackoff = 5 * time.Millisecond
	cfg.RetryAfter = func(error) time.Duration { return time.Hour }

	var got time.Duration
	cfg.OnRetry = func(_ int, _ error, backoff time.Duration) { got = backoff }

	_, _ = Retry(context.Background(), cfg, func(context.Context) (string, error) {
		return "", errTemporary
	})
	if got != 5*time.Millisecond {
		t.Errorf("expected hint capped at MaxBackoff, got %v", got)
	}
}

func TestNextBackoff_Exponential(t *testing.T) {
	cfg := RetryConfig{InitialBackoff: 10 * time.Millisecond, MaxBackoff: time.Second, BackoffFactor: 2}
	want := []time.Duration{10 * time.Millisecond, 20 * time.Millisecond, 40 * time.Millisecond}
	for i, w := range want {
		if got := nextBackoff(i+1, cfg, errTemporary); got != w {
			t.Errorf("attempt %d: expected %v, got %v", i+1, w, got)
		}
	}
	cfg.MaxBackoff = 15 * time.Millisecond
	if got := nextBackoff(3, cfg, errTemporary); got != 15*time.Millisecond {
		t.Errorf("expected cap at 15ms, got %v", got)
	}
}

func TestDefaultRetryIf(t *testing.T) {
	if DefaultRetryIf(context.Canceled) {
		t.Error("context.Canceled should not be retried")
	}
	if !DefaultRetryIf(errTemporary) {
		t.Error("ordinary errors should be retried")
	}
}
