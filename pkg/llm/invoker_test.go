package llm

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestWithTimeout_PassesThroughFastCall(t *testing.T) {
	inner := Func(func(prompt string) (string, Metadata, error) {
		return "ok:" + prompt, Metadata{"tokens": 3}, nil
	})
	wrapped := WithTimeout(inner, time.Second)

	text, meta, err := wrapped.Invoke("hi")
	require.NoError(t, err)
	assert.Equal(t, "ok:hi", text)
	assert.Equal(t, 3, meta["tokens"])
}

func TestWithTimeout_SurfacesTimeoutAsError(t *testing.T) {
	inner := Func(func(prompt string) (string, Metadata, error) {
		time.Sleep(50 * time.Millisecond)
		return "too late", nil, nil
	})
	wrapped := WithTimeout(inner, 5*time.Millisecond)

	_, _, err := wrapped.Invoke("hi")
	assert.Error(t, err)
}
