package servicecall

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/urmzd/homeagent/pkg/device"
)

// Services lists the calls the direct resolver understands.
var Services = []string{
	"light.turn_on(state)",
	"light.turn_off()",
	"climate.set_temperature(temperature)",
	"climate.turn_on(temperature)",
	"climate.turn_off()",
	"media_player.select_source(channel)",
	"media_player.turn_on()",
	"media_player.turn_off()",
	"lock.lock()",
	"lock.unlock()",
}

// Entity returns the Home Assistant entity id of d, or "" for device types
// the direct resolver does not drive.
func Entity(d *device.Device) string {
	if domain := entityDomain(d.Type); domain != "" {
		return domain + "." + d.ID
	}
	return ""
}

func entityDomain(t device.Type) string {
	switch t {
	case device.TypeLight:
		return "light"
	case device.TypeThermostat, device.TypeAC:
		return "climate"
	case device.TypeTV:
		return "media_player"
	case device.TypeLock:
		return "lock"
	}
	return ""
}

// Line renders one device for the prompt, e.g.
// "light.light_living 'Living Room Light' = on;warm_white".
func Line(d *device.Device) string {
	entity := Entity(d)
	if entity == "" {
		return ""
	}
	var state string
	switch d.Type {
	case device.TypeLight:
		state = d.Power() + ";" + d.Mode()
	case device.TypeThermostat, device.TypeAC:
		state = d.Power()
		if t, ok := d.TargetTemperature(); ok {
			state += fmt.Sprintf(";%g°C", t)
		}
	case device.TypeTV:
		state = fmt.Sprintf("channel_%d;%s", d.Channel(), d.ChannelName())
	case device.TypeLock:
		state = "unlocked"
		if d.Locked() {
			state = "locked"
		}
	}
	return fmt.Sprintf("%s '%s' = %s", entity, d.DisplayName(), state)
}

// Prompt builds the single-shot prompt for command over the given devices.
func Prompt(devices []device.Device, command string) string {
	var lines []string
	var tv *device.Device
	for i := range devices {
		if l := Line(&devices[i]); l != "" {
			lines = append(lines, l)
		}
		if tv == nil && devices[i].Type == device.TypeTV {
			tv = &devices[i]
		}
	}

	var b strings.Builder
	b.WriteString("You are a helpful AI assistant that controls devices in a house. ")
	b.WriteString("Complete the task as instructed with the information provided only.\n\n")
	fmt.Fprintf(&b, "Services: %s\n\n", strings.Join(Services, ", "))
	fmt.Fprintf(&b, "Devices:\n%s\n\n", strings.Join(lines, "\n"))
	b.WriteString("When controlling devices, respond naturally and then output commands in a homeassistant code block:\n")
	b.WriteString("```homeassistant\n")
	b.WriteString(`{"service": "light.turn_on", "target_device": "light.light_living", "parameters": {"state": 2}}`)
	b.WriteString("\n```\n\n")
	b.WriteString("For multiple devices, you can use \"target_devices\" with an array:\n")
	b.WriteString("```homeassistant\n")
	b.WriteString(`{"service": "light.turn_on", "target_devices": ["light.light_living", "light.light_bedroom"], "parameters": {"state": 1}}`)
	b.WriteString("\n```\n\n")
	b.WriteString("Remember:\n")
	b.WriteString("- Light states: 0=off, 1=warm_white, 2=bright_yellow, 3=cool_blue\n")
	if tv != nil {
		chans := tv.Channels()
		parts := make([]string, len(chans))
		for i, ch := range chans {
			parts[i] = fmt.Sprintf("%d=%s", ch.ID, ch.Name)
		}
		fmt.Fprintf(&b, "- TV channels: %s\n", strings.Join(parts, ", "))
	}
	b.WriteString("- AC temperature range: 18-28°C\n\n")
	fmt.Fprintf(&b, "User: %s\nAssistant:", command)
	return b.String()
}

var sceneKeywords = []struct {
	scene string
	re    *regexp.Regexp
}{
	{"movie", regexp.MustCompile(`\b(movie (night|mode|time)|watch a (movie|film))\b`)},
	{"sleep", regexp.MustCompile(`\b(bedtime|goodnight|good night|sleep mode|going to sleep)\b`)},
	{"away", regexp.MustCompile(`\b(away mode|i'?m leaving|leaving the house)\b`)},
	{"morning", regexp.MustCompile(`\b(good morning|morning mode|wake up|waking up)\b`)},
}

// SceneFor recognizes commands that name a predefined scene so they can be
// applied without a model round trip.
func SceneFor(command string) (string, bool) {
	c := strings.ToLower(command)
	for _, k := range sceneKeywords {
		if k.re.MatchString(c) {
			return k.scene, true
		}
	}
	return "", false
}
