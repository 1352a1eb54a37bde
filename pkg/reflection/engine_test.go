package reflection

import (
	"errors"
	"math/rand"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/skillbroker/skillbroker/pkg/llm"
	"github.com/skillbroker/skillbroker/pkg/memory"
)

type fakeInvoker struct {
	response string
	err      error
}

func (f fakeInvoker) Invoke(string) (string, llm.Metadata, error) { return f.response, nil, f.err }

func TestParseBatchResponse_ExtractsKnownAgentsOnly(t *testing.T) {
	response := "AGENT a1: moved to higher ground\nAGENT ghost: unrelated\nnoise line\nAGENT a2: stayed home\n"
	out := ParseBatchResponse(response, []string{"a1", "a2"}, 2020, 0.9)

	require.Len(t, out, 2)
	assert.Equal(t, "moved to higher ground", out["a1"].Summary)
	assert.Equal(t, "stayed home", out["a2"].Summary)
	assert.Equal(t, 0.9, out["a1"].Importance)
}

func TestEngine_Run_StoresInsightsAsReflectionMemories(t *testing.T) {
	mem := memory.New(memory.DefaultStoreConfig(), nil, rand.New(rand.NewSource(1)))
	mem.Add("a1", "flood warning", 0.8, "critical", "community", 2019, nil)

	eng := &Engine{
		Memory:  mem,
		Invoker: fakeInvoker{response: "AGENT a1: learned to evacuate early"},
		Config:  DefaultConfig(),
	}

	insights := eng.Run([]string{"a1"}, 2020)
	require.Contains(t, insights, "a1")
	assert.Equal(t, 0.9, insights["a1"].Importance)

	recalled := mem.Retrieve("a1", 2020, "", 10, nil, nil)
	found := false
	for _, line := range recalled {
		if line == "learned to evacuate early" {
			found = true
		}
	}
	assert.True(t, found)
}

func TestEngine_Run_InvokerFailureSkipsBatchWithoutPanic(t *testing.T) {
	mem := memory.New(memory.DefaultStoreConfig(), nil, rand.New(rand.NewSource(1)))
	eng := &Engine{
		Memory:  mem,
		Invoker: fakeInvoker{err: errors.New("timeout")},
		Config:  DefaultConfig(),
	}

	insights := eng.Run([]string{"a1"}, 2020)
	assert.Nil(t, insights)
}

func TestEngine_ShouldRun_RespectsCadence(t *testing.T) {
	eng := &Engine{Config: Config{CadenceYears: 2}}
	assert.True(t, eng.ShouldRun(2020))
	assert.False(t, eng.ShouldRun(2021))
}
