package context

import (
	"fmt"

	"github.com/pkoukk/tiktoken-go"
)

// TokenBudget optionally caps the assembled payload's token footprint.
// This is a non-functional addition layered on top of the specified
// context-assembly behavior: when MaxTokens is 0, no budget is enforced.
// When a ceiling is configured, the lowest-salience memory lines are
// dropped first — skill options and agent-state fields are never trimmed.
type TokenBudget struct {
	MaxTokens int
	Encoding  string // tiktoken encoding name, default "cl100k_base"
}

// Trim drops trailing (lowest-salience) memory lines from payload until
// its estimated token count fits MaxTokens, or until no memory lines
// remain. Encoding lookup failures degrade to no trimming rather than an
// error — token budgeting is observability, not a correctness gate.
func (b TokenBudget) Trim(p Payload) Payload {
	if b.MaxTokens <= 0 {
		return p
	}
	enc, err := tiktoken.GetEncoding(b.encodingName())
	if err != nil {
		return p
	}
	for len(p.Memory) > 0 && b.estimate(enc, p) > b.MaxTokens {
		p.Memory = p.Memory[:len(p.Memory)-1]
	}
	return p
}

func (b TokenBudget) encodingName() string {
	if b.Encoding == "" {
		return "cl100k_base"
	}
	return b.Encoding
}

func (b TokenBudget) estimate(enc *tiktoken.Tiktoken, p Payload) int {
	total := 0
	for _, line := range p.Memory {
		total += len(enc.Encode(line, nil, nil))
	}
	for _, def := range p.FilteredSkills {
		total += len(enc.Encode(def.Name, nil, nil))
	}
	for k, v := range p.Personal {
		total += len(enc.Encode(fmt.Sprintf("%s=%v", k, v), nil, nil))
	}
	return total
}
