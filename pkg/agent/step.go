package agent

import (
	"encoding/json"
	"fmt"
	"regexp"
	"strings"

	"github.com/urmzd/homeagent/pkg/tools"
)

// Protocol markers
const (
	markerThought     = "Thought:"
	markerAction      = "Action:"
	markerActionInput = "Action Input:"
	markerObservation = "Observation:"
	markerFinal       = "Final Answer:"
)

var (
	reAction      = regexp.MustCompile(`(?m)^[ \t]*Action[ \t]*\d*[ \t]*:[ \t]*(.*)$`)
	reActionInput = regexp.MustCompile(`(?s)Action[ \t]*\d*[ \t]*Input[ \t]*\d*[ \t]*:[ \t]*(.*)`)
	reFinal       = regexp.MustCompile(`(?s)Final[ \t]+Answer[ \t]*:[ \t]*(.*)`)
	reObservation = regexp.MustCompile(`(?m)^[ \t]*Observation[ \t]*:`)
	reKeyValue    = regexp.MustCompile(`(\w+)\s*=\s*("[^"]*"|'[^']*'|[^,;\n]+)`)
	reCodeFence   = regexp.MustCompile("(?s)^```[a-zA-Z]*\\s*(.*?)\\s*```$")
)

// Step is one parsed model turn: either a tool call or a final answer.
type Step struct {
	Thought  string
	Action   string
	RawInput string
	Final    string
}

// IsFinal reports whether the step terminates the loop.
func (s Step) IsFinal() bool {
	return s.Action == "" && s.Final != ""
}

// ParseStep extracts the thought, action and action input, or the final
// answer, from a model turn. Anything after a model-written "Observation:" is
// discarded, since observations only come from real tool calls.
func ParseStep(text string) (Step, error) {
	if loc := reObservation.FindStringIndex(text); loc != nil {
		text = text[:loc[0]]
	}

	actionLoc := reAction.FindStringSubmatchIndex(text)
	finalLoc := reFinal.FindStringSubmatchIndex(text)

	var step Step
	switch {
	case actionLoc != nil && (finalLoc == nil || actionLoc[0] < finalLoc[0]):
		step.Thought = thought(text[:actionLoc[0]])
		step.Action = cleanToolName(text[actionLoc[2]:actionLoc[3]])
		if step.Action == "" {
			return Step{}, fmt.Errorf("%w: empty action", ErrUnparsable)
		}
		if m := reActionInput.FindStringSubmatch(text[actionLoc[1]:]); m != nil {
			in := m[1]
			if f := reFinal.FindStringIndex(in); f != nil {
				in = in[:f[0]]
			}
			step.RawInput = strings.TrimSpace(in)
		}
		return step, nil

	case finalLoc != nil:
		step.Thought = thought(text[:finalLoc[0]])
		step.Final = strings.TrimSpace(text[finalLoc[2]:finalLoc[3]])
		if step.Final == "" {
			return Step{}, fmt.Errorf("%w: empty final answer", ErrUnparsable)
		}
		return step, nil
	}

	return Step{}, fmt.Errorf("%w: no %q or %q marker in %q", ErrUnparsable, markerAction, markerFinal, abbreviate(text, 120))
}

func thought(s string) string {
	s = strings.TrimSpace(s)
	if i := strings.LastIndex(s, markerThought); i >= 0 {
		s = s[i+len(markerThought):]
	}
	return strings.TrimSpace(s)
}

// cleanToolName strips decoration models put around tool names:
// backticks, quotes, brackets, and a trailing argument list.
func cleanToolName(s string) string {
	s = strings.TrimSpace(s)
	if i := strings.Index(s, "("); i > 0 {
		s = s[:i]
	}
	s = strings.Trim(s, "`'\"[]* ")
	return strings.ToLower(s)
}

// ParseInput turns a raw action input into tool arguments. It accepts a JSON
// object, key=value pairs, comma-separated positional values, or a bare
// string bound to the tool's first required parameter.
func ParseInput(raw string, desc tools.Descriptor) map[string]any {
	s := strings.TrimSpace(raw)
	if m := reCodeFence.FindStringSubmatch(s); m != nil {
		s = strings.TrimSpace(m[1])
	}
	if s == "" || s == "{}" || strings.EqualFold(s, "none") {
		return map[string]any{}
	}

	if obj := firstJSONObject(s); obj != "" {
		var args map[string]any
		if err := json.Unmarshal([]byte(obj), &args); err == nil {
			return args
		}
	}
	if strings.Contains(s, `":`) {
		var args map[string]any
		if err := json.Unmarshal([]byte("{"+s+"}"), &args); err == nil {
			return args
		}
	}

	if pairs := reKeyValue.FindAllStringSubmatch(s, -1); len(pairs) > 0 {
		args := make(map[string]any, len(pairs))
		for _, p := range pairs {
			args[p[1]] = unquote(p[2])
		}
		return args
	}

	required := desc.Required()
	if len(required) == 0 {
		return map[string]any{}
	}
	if len(required) > 1 {
		parts := strings.Split(s, ",")
		if len(parts) == len(required) {
			args := make(map[string]any, len(parts))
			for i, p := range parts {
				args[required[i]] = unquote(p)
			}
			return args
		}
	}
	return map[string]any{required[0]: unquote(s)}
}

// firstJSONObject returns the first balanced {...} span of s.
func firstJSONObject(s string) string {
	start, depth := -1, 0
	inString, escaped := false, false
	for i, ch := range s {
		if inString {
			switch {
			case escaped:
				escaped = false
			case ch == '\\':
				escaped = true
			case ch == '"':
				inString = false
			}
			continue
		}
		switch ch {
		case '"':
			if start >= 0 {
				inString = true
			}
		case '{':
			if depth == 0 {
				start = i
			}
			depth++
		case '}':
			if depth > 0 {
				depth--
				if depth == 0 {
					return s[start : i+1]
				}
			}
		}
	}
	return ""
}

func unquote(s string) string {
	s = strings.TrimSpace(s)
	if len(s) >= 2 {
		if (s[0] == '"' && s[len(s)-1] == '"') || (s[0] == '\'' && s[len(s)-1] == '\'') {
			s = s[1 : len(s)-1]
		}
	}
	return strings.TrimSpace(s)
}

func abbreviate(s string, n int) string {
	s = strings.TrimSpace(s)
	if len(s) <= n {
		return s
	}
	return s[:n] + "..."
}

func encodeInput(args map[string]any) string {
	if len(args) == 0 {
		return "{}"
	}
	raw, err := json.Marshal(args)
	if err != nil {
		return fmt.Sprint(args)
	}
	return string(raw)
}
