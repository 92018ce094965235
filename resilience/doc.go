// Package resilience provides the admission and retry primitives used around
// outbound API calls.
//
// This package includes:
//   - RateLimiter: sliding-window log limiter that blocks callers until a slot frees
//   - Retry: caller-side retry with exponential backoff
//
// The rate limiter is owned by a single client instance, never a process-wide
// global, so independently configured clients do not interfere:
//
//	rl, err := resilience.NewRateLimiter(resilience.RateLimiterConfig{
//	    Name:              "gemini",
//	    RequestsPerWindow: 60,
//	    Window:            time.Minute,
//	})
//	if err != nil {
//	    return err
//	}
//	if err := rl.Acquire(ctx); err != nil {
//	    return err // ctx ended while waiting
//	}
package resilience
