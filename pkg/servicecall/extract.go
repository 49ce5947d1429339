// Package servicecall implements the direct resolver: the model is shown the
// devices in Home Assistant notation and answers with service-call JSON,
// which is extracted in tiers and applied through the tool set.
package servicecall

import (
	"bytes"
	"encoding/json"
	"regexp"
	"strings"

	"github.com/spf13/cast"
)

// Call is one Home Assistant style service call, e.g.
// {"service": "light.turn_on", "target_device": "light.light_living", "parameters": {"state": 2}}.
type Call struct {
	Service    string         `json:"service"`
	Targets    []string       `json:"targets"`
	Parameters map[string]any `json:"parameters,omitempty"`
}

// Domain returns the part of the service before the dot ("light").
func (c Call) Domain() string {
	domain, _, _ := strings.Cut(c.Service, ".")
	return domain
}

// Verb returns the part of the service after the dot ("turn_on").
func (c Call) Verb() string {
	_, verb, _ := strings.Cut(c.Service, ".")
	return verb
}

// Tier reports which extraction layer produced the calls.
type Tier int

// Extraction tiers, strictest first
const (
	TierNone Tier = iota
	TierJSON
	TierStructured
	TierLoose
)

func (t Tier) String() string {
	switch t {
	case TierJSON:
		return "json"
	case TierStructured:
		return "structured"
	case TierLoose:
		return "loose"
	default:
		return "none"
	}
}

var (
	reCodeBlock = regexp.MustCompile("(?is)```[ \t]*(homeassistant|json)?[ \t]*\r?\n(.*?)\r?\n?```")
	reRawCall   = regexp.MustCompile(`(?is)\{[^{}]*"service"[^{}]*(?:\{[^{}]*\}[^{}]*)?\}`)
	reLooseOne  = regexp.MustCompile(`(?is)"service"\s*:\s*"([\w.]+)".*?"target_device"\s*:\s*"([\w.]+)"`)
	reLooseMany = regexp.MustCompile(`(?is)"service"\s*:\s*"([\w.]+)".*?"target_devices"\s*:\s*\[(.*?)\]`)
	reQuoted    = regexp.MustCompile(`"([\w.]+)"`)
)

// Extract runs the tiers in order and returns the calls of the first tier
// that yields any. TierNone with no calls is a normal outcome.
func Extract(text string) ([]Call, Tier) {
	if calls := ExtractJSON(text); len(calls) > 0 {
		return calls, TierJSON
	}
	if calls := ExtractStructured(text); len(calls) > 0 {
		return calls, TierStructured
	}
	if calls := ExtractLoose(text); len(calls) > 0 {
		return calls, TierLoose
	}
	return nil, TierNone
}

// ExtractJSON decodes fenced code blocks. A block may hold one call, several
// calls one after another, or an array of calls.
func ExtractJSON(text string) []Call {
	var out []Call
	seen := map[string]bool{}
	for _, m := range reCodeBlock.FindAllStringSubmatch(text, -1) {
		dec := json.NewDecoder(strings.NewReader(m[2]))
		for {
			var v any
			if err := dec.Decode(&v); err != nil {
				break
			}
			for _, obj := range objects(v) {
				if c, ok := fromObject(obj); ok {
					out = appendUnique(out, seen, c)
				}
			}
		}
	}
	return out
}

// ExtractStructured finds call objects written inline, outside code blocks or
// inside blocks that do not decode as a whole.
func ExtractStructured(text string) []Call {
	var out []Call
	seen := map[string]bool{}
	for _, raw := range reRawCall.FindAllString(text, -1) {
		var obj map[string]any
		if err := json.Unmarshal([]byte(raw), &obj); err != nil {
			continue
		}
		if c, ok := fromObject(obj); ok {
			out = appendUnique(out, seen, c)
		}
	}
	return out
}

// ExtractLoose pulls service and target names out of text that is not valid
// JSON. Parameters are lost at this tier.
func ExtractLoose(text string) []Call {
	var out []Call
	seen := map[string]bool{}
	for _, m := range reLooseOne.FindAllStringSubmatch(text, -1) {
		out = appendUnique(out, seen, Call{Service: strings.ToLower(m[1]), Targets: []string{m[2]}})
	}
	for _, m := range reLooseMany.FindAllStringSubmatch(text, -1) {
		var targets []string
		for _, q := range reQuoted.FindAllStringSubmatch(m[2], -1) {
			targets = append(targets, q[1])
		}
		if len(targets) > 0 {
			out = appendUnique(out, seen, Call{Service: strings.ToLower(m[1]), Targets: targets})
		}
	}
	return out
}

func objects(v any) []map[string]any {
	switch t := v.(type) {
	case map[string]any:
		return []map[string]any{t}
	case []any:
		var out []map[string]any
		for _, item := range t {
			if obj, ok := item.(map[string]any); ok {
				out = append(out, obj)
			}
		}
		return out
	}
	return nil
}

func fromObject(obj map[string]any) (Call, bool) {
	service := strings.ToLower(strings.TrimSpace(cast.ToString(obj["service"])))
	if !strings.Contains(service, ".") {
		return Call{}, false
	}
	c := Call{Service: service}
	if t := cast.ToString(obj["target_device"]); t != "" {
		c.Targets = []string{t}
	} else if ts, err := cast.ToStringSliceE(obj["target_devices"]); err == nil {
		c.Targets = ts
	}
	if len(c.Targets) == 0 {
		return Call{}, false
	}
	if params, ok := obj["parameters"].(map[string]any); ok && len(params) > 0 {
		c.Parameters = params
	}
	return c, true
}

func appendUnique(calls []Call, seen map[string]bool, c Call) []Call {
	var key bytes.Buffer
	_ = json.NewEncoder(&key).Encode(c)
	if seen[key.String()] {
		return calls
	}
	seen[key.String()] = true
	return append(calls, c)
}

// StripBlocks removes fenced code blocks, leaving the model's prose.
func StripBlocks(text string) string {
	return strings.TrimSpace(reCodeBlock.ReplaceAllString(text, ""))
}
