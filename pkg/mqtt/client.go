// Package mqtt fans device state changes out to an MQTT broker and accepts
// commands published to it.
package mqtt

import (
	"crypto/tls"
	"fmt"
	"net/url"
	"time"

	paho "github.com/eclipse/paho.mqtt.golang"
	"github.com/rs/zerolog/log"
)

// DefaultWait bounds how long a publish or subscribe waits for the broker.
const DefaultWait = 5 * time.Second

// Handler receives the payload of a message on topic.
type Handler func(topic string, payload []byte)

// Client is the broker surface the publisher and the command bridge need.
type Client interface {
	Publish(topic string, payload []byte, retain bool) error
	Subscribe(topic string, h Handler) error
	Close()
}

// PahoClient adapts a paho client to Client.
type PahoClient struct {
	cli  paho.Client
	wait time.Duration
}

// Connect dials brokerURL (mqtt://, tcp://, ssl://, tls://, ws:// or wss://),
// with optional user:password credentials in the URL.
func Connect(brokerURL, clientID string) (*PahoClient, error) {
	u, err := url.Parse(brokerURL)
	if err != nil {
		return nil, fmt.Errorf("invalid broker url %q: %w", brokerURL, err)
	}

	var server string
	switch u.Scheme {
	case "mqtt", "tcp":
		server = "tcp://" + u.Host
	case "ssl", "tls":
		server = "ssl://" + u.Host
	case "ws", "wss":
		server = u.Scheme + "://" + u.Host + u.Path
	default:
		return nil, fmt.Errorf("unsupported broker scheme %q", u.Scheme)
	}

	opts := paho.NewClientOptions().
		AddBroker(server).
		SetClientID(clientID).
		SetAutoReconnect(true).
		SetConnectTimeout(DefaultWait)
	opts.OnConnect = func(paho.Client) {
		log.Info().Str("broker", server).Msg("mqtt connected")
	}
	opts.OnConnectionLost = func(_ paho.Client, err error) {
		log.Error().Err(err).Str("broker", server).Msg("mqtt connection lost")
	}
	if u.User != nil {
		pw, _ := u.User.Password()
		opts.SetUsername(u.User.Username())
		opts.SetPassword(pw)
	}
	if u.Scheme == "ssl" || u.Scheme == "tls" || u.Scheme == "wss" {
		opts.SetTLSConfig(&tls.Config{MinVersion: tls.VersionTLS12})
	}

	cli := paho.NewClient(opts)
	t := cli.Connect()
	if !t.WaitTimeout(DefaultWait) {
		return nil, fmt.Errorf("connect to %s: timed out", server)
	}
	if err := t.Error(); err != nil {
		return nil, fmt.Errorf("connect to %s: %w", server, err)
	}
	return &PahoClient{cli: cli, wait: DefaultWait}, nil
}

func (c *PahoClient) Publish(topic string, payload []byte, retain bool) error {
	t := c.cli.Publish(topic, 1, retain, payload)
	if !t.WaitTimeout(c.wait) {
		return fmt.Errorf("publish to %s: timed out", topic)
	}
	return t.Error()
}

func (c *PahoClient) Subscribe(topic string, h Handler) error {
	t := c.cli.Subscribe(topic, 1, func(_ paho.Client, m paho.Message) {
		h(m.Topic(), m.Payload())
	})
	if !t.WaitTimeout(c.wait) {
		return fmt.Errorf("subscribe to %s: timed out", topic)
	}
	if err := t.Error(); err != nil {
		return err
	}
	log.Info().Str("topic", topic).Msg("mqtt subscribed")
	return nil
}

// Close disconnects, letting in-flight work finish for up to 250ms.
func (c *PahoClient) Close() {
	c.cli.Disconnect(250)
}
