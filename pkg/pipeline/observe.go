package pipeline

import (
	"slices"
	"time"

	"github.com/urmzd/homeagent/pkg/agent"
	"github.com/urmzd/homeagent/pkg/intent"
	"github.com/urmzd/homeagent/pkg/tools"
)

// Role of a conversation message.
type Role string

// Message roles
const (
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
)

// Message is one turn of the rolling conversation memory.
type Message struct {
	Role Role      `json:"role"`
	Text string    `json:"text"`
	At   time.Time `json:"at"`
}

// Observation is the read-only view of the last processed command, for
// front ends that display it without re-deriving anything.
type Observation struct {
	Command     string           `json:"command"`
	Intent      intent.Intent    `json:"intent"`
	Results     []string         `json:"results"`
	ToolResults []tools.Result   `json:"tool_results"`
	Steps       []agent.Trace    `json:"steps,omitempty"`
	Tier        Tier             `json:"tier"`
	Response    string           `json:"response"`
	Patterns    map[int][]string `json:"patterns,omitempty"`
	At          time.Time        `json:"at"`
}

func (p *Pipeline) finish(text string, in intent.Intent, out outcome, response string, patterns map[int][]string) Observation {
	now := time.Now()
	obs := Observation{
		Command:     text,
		Intent:      in,
		Results:     slices.Clone(out.results),
		ToolResults: slices.Clone(out.tools),
		Steps:       slices.Clone(out.steps),
		Tier:        out.tier,
		Response:    response,
		Patterns:    patterns,
		At:          now,
	}
	if obs.Results == nil {
		obs.Results = []string{}
	}
	if obs.ToolResults == nil {
		obs.ToolResults = []tools.Result{}
	}

	p.mu.Lock()
	defer p.mu.Unlock()
	p.last = obs
	p.mem = append(p.mem,
		Message{Role: RoleUser, Text: text, At: now},
		Message{Role: RoleAssistant, Text: response, At: now},
	)
	if over := len(p.mem) - p.memLimit; over > 0 {
		p.mem = slices.Clone(p.mem[over:])
	}
	return obs
}

// Snapshot returns the observation of the last command.
func (p *Pipeline) Snapshot() Observation {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return p.last
}

// LastIntent returns the intent of the last command.
func (p *Pipeline) LastIntent() intent.Intent {
	return p.Snapshot().Intent
}

// LastResults returns the result strings of the last command.
func (p *Pipeline) LastResults() []string {
	return slices.Clone(p.Snapshot().Results)
}

// LastResponse returns the response to the last command.
func (p *Pipeline) LastResponse() string {
	return p.Snapshot().Response
}

// Memory returns the conversation so far, oldest first.
func (p *Pipeline) Memory() []Message {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return slices.Clone(p.mem)
}
