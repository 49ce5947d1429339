package intent

import (
	"regexp"
	"strconv"
	"strings"

	"github.com/urmzd/homeagent/pkg/device"
)

// DefaultRooms is the room list used when the parser has no registry to consult.
var DefaultRooms = []string{"entrance", "garage", "kitchen", "living_room", "master_bedroom"}

// Fallback rooms for commands that name none.
const (
	DefaultTemperatureRoom = "living_room"
	DefaultLightRoom       = "kitchen"
)

var (
	reSetTemp    = regexp.MustCompile(`(?:set|adjust|change).{0,40}temp(?:erature)?\s*(?:to|at)?\s*(\d+(?:\.\d+)?)`)
	reAdjustTemp = regexp.MustCompile(`(increase|decrease|raise|lower|warmer|cooler).{0,20}temp(?:erature)?(?:\s+by\s+(\d+(?:\.\d+)?))?`)
	reUnlock     = regexp.MustCompile(`\bunlock\b`)
	reLock       = regexp.MustCompile(`\block\b`)
	reFrontDoor  = regexp.MustCompile(`front\s+door`)
	reLightOn    = regexp.MustCompile(`(?:turn|switch)\s+on|lights?\s+on`)
	reLightOff   = regexp.MustCompile(`(?:turn|switch)\s+off|lights?\s+off`)
	reTrailRoom  = regexp.MustCompile(`in\s+the\s+([a-z_\s]+)$|in\s+([a-z_\s]+)$`)
	reGazetteer  = regexp.MustCompile(`(living\s*room|master\s*bedroom|bedroom|kitchen|entrance|garage)`)
	reWarmer     = regexp.MustCompile(`\bwarmer\b`)
	reCooler     = regexp.MustCompile(`\bcooler\b`)
)

var statusKeywords = []string{"status", "what's", "what is", "show"}

// Parser is the deterministic rule-based resolver.
type Parser struct {
	rooms func() []string
}

// NewParser creates a parser that validates room names against rooms.
// A nil function falls back to DefaultRooms.
func NewParser(rooms func() []string) *Parser {
	return &Parser{rooms: rooms}
}

func (p *Parser) available() []string {
	if p.rooms != nil {
		if rooms := p.rooms(); len(rooms) > 0 {
			return rooms
		}
	}
	return DefaultRooms
}

// NormalizeRoom maps free room text onto a known canonical room id.
func (p *Parser) NormalizeRoom(text string) (string, bool) {
	return device.MatchRoom(text, p.available())
}

// Parse classifies text. Rules are checked top to bottom and the first match wins:
// absolute temperature, relative temperature, unlock, lock, lights, status,
// bare warmer/cooler, unknown.
func (p *Parser) Parse(text string) Intent {
	c := strings.ToLower(text)

	if m := reSetTemp.FindStringSubmatch(c); m != nil {
		temp, _ := strconv.ParseFloat(m[1], 64)
		in := newIntent(ActionSetTemperature)
		in.Parameters[ParamRoom] = p.gazetteerRoom(c, DefaultTemperatureRoom)
		in.Parameters[ParamTemperature] = temp
		return in
	}

	if m := reAdjustTemp.FindStringSubmatch(c); m != nil {
		delta := 1.0
		if m[2] != "" {
			delta, _ = strconv.ParseFloat(m[2], 64)
		}
		switch m[1] {
		case "decrease", "lower", "cooler":
			delta = -delta
		}
		return p.adjust(c, delta)
	}

	if reUnlock.MatchString(c) {
		return lockIntent(ActionUnlock, c)
	}
	if reLock.MatchString(c) && !strings.Contains(c, "unlock") {
		return lockIntent(ActionLock, c)
	}

	on := reLightOn.MatchString(c)
	off := reLightOff.MatchString(c)
	if strings.Contains(c, "light") && (on || off) {
		action := ActionLightOff
		if on {
			action = ActionLightOn
		}
		in := newIntent(action)
		in.Parameters[ParamRoom] = p.lightRoom(c)
		return in
	}

	for _, k := range statusKeywords {
		if strings.Contains(c, k) {
			in := newIntent(ActionStatus)
			if m := reGazetteer.FindStringSubmatch(c); m != nil {
				if room, ok := p.NormalizeRoom(m[1]); ok {
					in.Targets = []string{room}
				}
			}
			return in
		}
	}

	if reWarmer.MatchString(c) {
		return p.adjust(c, 1.0)
	}
	if reCooler.MatchString(c) {
		return p.adjust(c, -1.0)
	}

	return newIntent(ActionUnknown)
}

func (p *Parser) adjust(c string, delta float64) Intent {
	in := newIntent(ActionAdjustTemperature)
	in.Parameters[ParamRoom] = p.gazetteerRoom(c, DefaultTemperatureRoom)
	in.Parameters[ParamDelta] = delta
	return in
}

func (p *Parser) gazetteerRoom(c, fallback string) string {
	if m := reGazetteer.FindStringSubmatch(c); m != nil {
		if room, ok := p.NormalizeRoom(m[1]); ok {
			return room
		}
	}
	return fallback
}

// lightRoom prefers a trailing "in (the) <room>" clause over the gazetteer.
func (p *Parser) lightRoom(c string) string {
	var text string
	if m := reTrailRoom.FindStringSubmatch(c); m != nil {
		text = m[1]
		if text == "" {
			text = m[2]
		}
	}
	if text == "" {
		if m := reGazetteer.FindStringSubmatch(c); m != nil {
			text = m[1]
		}
	}
	if room, ok := p.NormalizeRoom(text); ok {
		return room
	}
	return DefaultLightRoom
}

func lockIntent(action Action, c string) Intent {
	in := newIntent(action)
	if reFrontDoor.MatchString(c) {
		in.Targets = []string{FrontDoorLock}
		in.Parameters[ParamScope] = ScopeFront
	} else {
		in.Parameters[ParamScope] = ScopeAll
	}
	return in
}
