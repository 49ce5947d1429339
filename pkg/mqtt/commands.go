package mqtt

import (
	"context"
	"encoding/json"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
)

// Processor is the command entry point.
type Processor interface {
	Process(ctx context.Context, text string) string
}

// CommandRequest is accepted on <prefix>/commands. A plain-text payload is
// treated as the command itself.
type CommandRequest struct {
	ID      string `json:"id,omitempty"`
	Command string `json:"command"`
}

// CommandResponse is published on <prefix>/responses.
type CommandResponse struct {
	ID       string    `json:"id"`
	Command  string    `json:"command"`
	Response string    `json:"response"`
	At       time.Time `json:"at"`
}

// Bridge feeds commands from the broker into a processor and publishes the
// responses.
type Bridge struct {
	client Client
	prefix string
	proc   Processor
}

// NewBridge creates a command bridge. An empty prefix means DefaultPrefix.
func NewBridge(c Client, prefix string, proc Processor) *Bridge {
	if prefix = strings.Trim(prefix, "/"); prefix == "" {
		prefix = DefaultPrefix
	}
	return &Bridge{client: c, prefix: prefix, proc: proc}
}

// CommandTopic is where commands are read from.
func (b *Bridge) CommandTopic() string { return b.prefix + "/commands" }

// ResponseTopic is where responses are written.
func (b *Bridge) ResponseTopic() string { return b.prefix + "/responses" }

// Start subscribes to the command topic. Commands run on the client's
// callback goroutine, using ctx for every command.
func (b *Bridge) Start(ctx context.Context) error {
	return b.client.Subscribe(b.CommandTopic(), func(_ string, payload []byte) {
		b.handle(ctx, payload)
	})
}

func (b *Bridge) handle(ctx context.Context, payload []byte) {
	req := decodeRequest(payload)
	if req.Command == "" {
		log.Debug().Msg("ignoring empty mqtt command")
		return
	}
	if req.ID == "" {
		req.ID = uuid.NewString()
	}

	resp := CommandResponse{
		ID:       req.ID,
		Command:  req.Command,
		Response: b.proc.Process(ctx, req.Command),
		At:       time.Now(),
	}
	out, err := json.Marshal(resp)
	if err != nil {
		log.Error().Err(err).Str("id", req.ID).Msg("failed to encode mqtt response")
		return
	}
	if err := b.client.Publish(b.ResponseTopic(), out, false); err != nil {
		log.Warn().Err(err).Str("id", req.ID).Msg("failed to publish mqtt response")
	}
}

func decodeRequest(payload []byte) CommandRequest {
	text := strings.TrimSpace(string(payload))
	if strings.HasPrefix(text, "{") {
		var req CommandRequest
		if err := json.Unmarshal([]byte(text), &req); err == nil {
			req.Command = strings.TrimSpace(req.Command)
			return req
		}
	}
	return CommandRequest{Command: text}
}
