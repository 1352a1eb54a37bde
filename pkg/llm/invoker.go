// Package llm defines the narrow contract the broker depends on for
// model round trips, plus a timeout adapter.
package llm

import (
	"context"
	"fmt"
	"time"
)

// Metadata carries implementation-defined, non-authoritative details
// about an invocation (token usage, model name, latency) that the broker
// never branches on.
type Metadata map[string]any

// Invoker is the external LLM collaborator contract: a
// blocking callable from prompt text to reply text, plus optional
// metadata. Adapters decide their own retry/backoff/timeout policy
// internally; WithTimeout below is a convenience wrapper for adapters
// that only expose a context-unaware client.
type Invoker interface {
	Invoke(prompt string) (string, Metadata, error)
}

// Func adapts a plain function to the Invoker interface.
type Func func(prompt string) (string, Metadata, error)

func (f Func) Invoke(prompt string) (string, Metadata, error) { return f(prompt) }

// timeoutInvoker wraps an Invoker with a hard wall-clock budget. A
// timeout is surfaced as an error, which the broker treats identically
// to a parse failure for retry accounting.
type timeoutInvoker struct {
	inner   Invoker
	timeout time.Duration
}

// WithTimeout returns an Invoker that aborts inner.Invoke after d. The
// underlying call is not guaranteed to stop running — Go has no
// preemptive cancellation for arbitrary blocking calls — but the caller
// receives a timeout error promptly and may proceed to retry.
func WithTimeout(inner Invoker, d time.Duration) Invoker {
	return &timeoutInvoker{inner: inner, timeout: d}
}

func (t *timeoutInvoker) Invoke(prompt string) (string, Metadata, error) {
	type result struct {
		text string
		meta Metadata
		err  error
	}
	done := make(chan result, 1)
	go func() {
		text, meta, err := t.inner.Invoke(prompt)
		done <- result{text, meta, err}
	}()

	ctx, cancel := context.WithTimeout(context.Background(), t.timeout)
	defer cancel()

	select {
	case r := <-done:
		return r.text, r.meta, r.err
	case <-ctx.Done():
		return "", nil, fmt.Errorf("llm invocation timed out after %s", t.timeout)
	}
}
