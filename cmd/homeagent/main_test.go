package main

import (
	"bytes"
	"io"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type harness struct {
	t  *testing.T
	db string
}

func newHarness(t *testing.T) *harness {
	t.Helper()
	t.Setenv("TZ", "UTC")
	return &harness{t: t, db: filepath.Join(t.TempDir(), "homeagent.db")}
}

func (h *harness) run(stdin string, args ...string) (string, error) {
	h.t.Helper()
	root := newRootCmd()
	var out bytes.Buffer
	root.SetOut(&out)
	root.SetErr(io.Discard)
	root.SetIn(strings.NewReader(stdin))
	root.SetArgs(append([]string{"--db", h.db, "--backend", "none", "--mode", "rules", "--log-level", "error"}, args...))
	err := root.Execute()
	return out.String(), err
}

func TestAsk(t *testing.T) {
	h := newHarness(t)

	out, err := h.run("", "ask", "turn", "on", "the", "lights", "in", "the", "garage")
	require.NoError(t, err)
	assert.Equal(t, "Turned on 1 light in garage\n", out)

	out, err = h.run("", "ask", "--trace", "lock the front door")
	require.NoError(t, err)
	assert.Contains(t, out, "tier: rules")
	assert.Contains(t, out, "control_door_lock [ok]")

	_, err = h.run("", "ask")
	assert.Error(t, err)
}

func TestDevices(t *testing.T) {
	h := newHarness(t)

	out, err := h.run("", "devices")
	require.NoError(t, err)
	lines := strings.Split(strings.TrimSpace(out), "\n")
	assert.Len(t, lines, 16)
	assert.True(t, strings.HasPrefix(lines[0], "ID"))

	out, err = h.run("", "devices", "--room", "garage")
	require.NoError(t, err)
	assert.Contains(t, out, "light_garage")
	assert.NotContains(t, out, "light_kitchen")

	_, err = h.run("", "devices", "--room", "attic")
	assert.ErrorContains(t, err, "unknown room")
}

func TestHistory(t *testing.T) {
	h := newHarness(t)

	out, err := h.run("", "history")
	require.NoError(t, err)
	assert.Equal(t, 1, strings.Count(out, "\n"), "header only")

	_, err = h.run("", "ask", "turn on the lights in the garage")
	require.NoError(t, err)

	out, err = h.run("", "history")
	require.NoError(t, err)
	assert.Contains(t, out, "light_garage")

	out, err = h.run("", "history", "--patterns")
	require.NoError(t, err)
	assert.Contains(t, out, "HOUR")
	assert.Contains(t, out, "Turn on lights in garage")
	assert.Equal(t, 2, strings.Count(out, "\n"), "one hour bucket below the learning threshold")

	out, err = h.run("", "history", "--clear")
	require.NoError(t, err)
	assert.Equal(t, "History cleared\n", out)

	out, err = h.run("", "history")
	require.NoError(t, err)
	assert.NotContains(t, out, "light_garage")
}

func TestDevicesDocument(t *testing.T) {
	h := newHarness(t)
	path := filepath.Join(t.TempDir(), "devices.json")

	_, err := h.run("", "--devices", path, "devices")
	require.ErrorContains(t, err, "device document not found")

	out, err := h.run("", "--devices", path, "--seed", "devices", "--room", "garage")
	require.NoError(t, err)
	assert.Contains(t, out, "light_garage")

	_, err = h.run("", "--devices", path, "devices")
	assert.NoError(t, err)
}

func TestTools(t *testing.T) {
	h := newHarness(t)

	out, err := h.run("", "tools")
	require.NoError(t, err)
	assert.Contains(t, out, "control_door_lock")
	assert.Contains(t, out, "device_id,action")

	out, err = h.run("", "tools", "invoke", "control_door_lock", `{"device_id": "door_bedroom", "action": "lock"}`)
	require.NoError(t, err)
	assert.NotEmpty(t, out)

	_, err = h.run("", "tools", "invoke", "control_door_lock", `{"device_id": "door_bedroom", "action": "smash"}`)
	assert.Error(t, err)

	_, err = h.run("", "tools", "invoke", "teleport")
	assert.ErrorContains(t, err, "unknown tool")

	_, err = h.run("", "tools", "invoke", "control_door_lock", "not json")
	assert.ErrorContains(t, err, "JSON object")
}

func TestConfig(t *testing.T) {
	h := newHarness(t)

	out, err := h.run("", "config")
	require.NoError(t, err)
	assert.Contains(t, out, "0.0.0.0:8080")

	// --backend and --mode are always passed by the harness, so they are saved too
	out, err = h.run("", "config", "set", "--max-steps", "4", "--memory-limit", "10")
	require.NoError(t, err)
	assert.Equal(t, "Settings saved\n", out)

	out, err = h.run("", "config")
	require.NoError(t, err)
	for _, want := range []string{"max-steps     4", "memory-limit  10", "mode          rules", "backend       none"} {
		assert.Contains(t, out, want)
	}

	_, err = h.run("", "config", "set", "--max-steps", "0")
	assert.Error(t, err)
}

func TestRepl(t *testing.T) {
	h := newHarness(t)

	out, err := h.run("turn on the lights in the garage\n\nexit\nlock the front door\n", "repl")

	require.NoError(t, err)
	assert.Equal(t, "> Turned on 1 light in garage\n> > ", out)
}
