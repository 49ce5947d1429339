package device

import (
	"regexp"
	"slices"
	"strings"
)

var (
	roomSeparators = regexp.MustCompile(`[\s\-]+`)
	roomFillers    = regexp.MustCompile(`\b(the|all|devices|in|on|of|room|rooms)\b`)
	whitespace     = regexp.MustCompile(`\s+`)
)

// roomSynonyms maps filler-stripped spellings onto canonical room ids.
var roomSynonyms = map[string][]string{
	"living":         {"living_room"},
	"living room":    {"living_room"},
	"lounge":         {"living_room", "living"},
	"master bedroom": {"master_bedroom"},
	"master":         {"master_bedroom"},
	"bedroom":        {"master_bedroom"},
}

// CanonicalRoom lowercases a room name and joins its words with underscores:
// "Living Room" becomes "living_room".
func CanonicalRoom(room string) string {
	r := strings.ToLower(strings.TrimSpace(room))
	r = strings.ReplaceAll(r, "_", " ")
	r = strings.TrimSpace(roomSeparators.ReplaceAllString(r, " "))
	return strings.ReplaceAll(r, " ", "_")
}

// MatchRoom resolves free text such as "in the living room" against the known
// canonical rooms. It strips filler words, tries the exact and synonym spellings,
// then falls back to substring matching. ok is false when nothing matches.
func MatchRoom(text string, available []string) (string, bool) {
	if strings.TrimSpace(text) == "" || len(available) == 0 {
		return "", false
	}

	full := strings.ReplaceAll(CanonicalRoom(text), "_", " ")
	if slices.Contains(available, CanonicalRoom(full)) {
		return CanonicalRoom(full), true
	}

	t := strings.ToLower(strings.TrimSpace(text))
	t = roomFillers.ReplaceAllString(t, "")
	t = strings.TrimSpace(whitespace.ReplaceAllString(t, " "))
	if t == "" {
		return "", false
	}

	candidates := []string{t, strings.ReplaceAll(t, " ", "_"), strings.ReplaceAll(t, "_", " ")}
	candidates = append(candidates, roomSynonyms[strings.ReplaceAll(t, "_", " ")]...)
	for _, cand := range candidates {
		c := strings.ReplaceAll(cand, " ", "_")
		if slices.Contains(available, c) {
			return c, true
		}
	}

	spaced := strings.ReplaceAll(t, "_", " ")
	for _, room := range available {
		r := strings.ReplaceAll(room, "_", " ")
		if strings.Contains(spaced, r) || strings.Contains(r, spaced) {
			return room, true
		}
	}
	return "", false
}
