package mqtt

import (
	"context"
	"encoding/json"
	"strings"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/urmzd/homeagent/pkg/device"
	"github.com/urmzd/homeagent/pkg/metrics"
)

// DefaultPrefix is the root of every topic.
const DefaultPrefix = "homeagent"

// StateMessage is the retained payload of a device state topic.
type StateMessage struct {
	DeviceID string       `json:"device_id"`
	Type     device.Type  `json:"type"`
	Room     string       `json:"room"`
	State    device.State `json:"state"`
	Patch    device.State `json:"patch,omitempty"`
	At       time.Time    `json:"at"`
}

// Publisher writes device state to <prefix>/devices/<id>/state.
type Publisher struct {
	client  Client
	prefix  string
	metrics *metrics.Recorder
}

// NewPublisher creates a publisher. An empty prefix means DefaultPrefix.
func NewPublisher(c Client, prefix string, m *metrics.Recorder) *Publisher {
	if prefix = strings.Trim(prefix, "/"); prefix == "" {
		prefix = DefaultPrefix
	}
	return &Publisher{client: c, prefix: prefix, metrics: m}
}

// StateTopic returns the topic for a device.
func (p *Publisher) StateTopic(id string) string {
	return p.prefix + "/devices/" + id + "/state"
}

// Attach publishes every registry change from now on.
func (p *Publisher) Attach(reg *device.Registry) {
	reg.Subscribe(func(c device.Change) {
		_ = p.Publish(StateMessage{
			DeviceID: c.DeviceID,
			Type:     c.Type,
			Room:     c.Room,
			State:    c.State,
			Patch:    c.Patch,
			At:       c.At,
		})
	})
}

// PublishAll publishes the current state of every device, so that retained
// topics are correct after a restart.
func (p *Publisher) PublishAll(ctx context.Context, reg *device.Registry) error {
	var firstErr error
	for _, d := range reg.List() {
		if err := ctx.Err(); err != nil {
			return err
		}
		msg := StateMessage{DeviceID: d.ID, Type: d.Type, Room: d.Room, State: d.State, At: d.LastUpdated}
		if err := p.Publish(msg); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	return firstErr
}

// Publish sends one retained state message.
func (p *Publisher) Publish(msg StateMessage) error {
	payload, err := json.Marshal(msg)
	if err == nil {
		err = p.client.Publish(p.StateTopic(msg.DeviceID), payload, true)
	}
	p.metrics.ObservePublish(err)
	if err != nil {
		log.Warn().Err(err).Str("device", msg.DeviceID).Msg("failed to publish device state")
	}
	return err
}
