package mqtt

import (
	"errors"
	"fmt"
	"time"

	paho "github.com/eclipse/paho.mqtt.golang"
	"github.com/rs/zerolog/log"
	"github.com/sweeney/matrix-clock/internal/syncutil"
	"github.com/sweeney/matrix-clock/internal/timesync"
)

// BufferSize is how many messages are held while the broker is unreachable.
const BufferSize = 100

const publishTimeout = 5 * time.Second

// RealPublisher publishes to an MQTT broker. Messages published while the
// connection is down are buffered and replayed, oldest first, on reconnect.
type RealPublisher struct {
	client paho.Client
	mu     syncutil.Mutex
	outbox *outbox
}

// NewRealPublisher starts connecting to broker in the background and returns
// immediately; the clock must not wait for the broker.
func NewRealPublisher(broker, clientID string) *RealPublisher {
	p := &RealPublisher{outbox: newOutbox(BufferSize)}

	will, _ := FormatSystemPayload(SystemEvent{Event: "OFFLINE", Reason: "LWT"})
	opts := paho.NewClientOptions().
		AddBroker(broker).
		SetClientID(clientID).
		SetAutoReconnect(true).
		SetConnectRetry(true).
		SetConnectRetryInterval(5*time.Second).
		SetBinaryWill(TopicSystem, will, 1, true).
		SetOnConnectHandler(func(paho.Client) {
			log.Info().Str("broker", broker).Msg("mqtt connected")
			p.replay()
		}).
		SetConnectionLostHandler(func(_ paho.Client, err error) {
			log.Warn().Err(err).Msg("mqtt connection lost")
		})

	p.client = paho.NewClient(opts)
	p.client.Connect()
	return p
}

func newPublisherWithClient(client paho.Client) *RealPublisher {
	return &RealPublisher{client: client, outbox: newOutbox(BufferSize)}
}

// Publish sends a sync event (QoS 0, not retained).
func (p *RealPublisher) Publish(event timesync.Event) error {
	payload, err := FormatPayload(event)
	if err != nil {
		return fmt.Errorf("format payload: %w", err)
	}
	return p.publish(bufferedMsg{topic: Topic, payload: payload})
}

// PublishSystem sends a lifecycle event (QoS 1).
func (p *RealPublisher) PublishSystem(event SystemEvent) error {
	payload, err := FormatSystemPayload(event)
	if err != nil {
		return fmt.Errorf("format system payload: %w", err)
	}
	return p.publish(bufferedMsg{topic: TopicSystem, payload: payload, qos: 1, retained: event.Retained})
}

func (p *RealPublisher) publish(msg bufferedMsg) error {
	p.mu.Lock()
	defer p.mu.Unlock()

	if !p.client.IsConnectionOpen() {
		p.outbox.add(msg)
		return nil
	}
	return p.send(msg)
}

// send must be called with mu held.
func (p *RealPublisher) send(msg bufferedMsg) error {
	token := p.client.Publish(msg.topic, msg.qos, msg.retained, msg.payload)
	if !token.WaitTimeout(publishTimeout) {
		p.outbox.add(msg)
		return errors.New("publish timeout")
	}
	if err := token.Error(); err != nil {
		return fmt.Errorf("publish: %w", err)
	}
	return nil
}

func (p *RealPublisher) replay() {
	p.mu.Lock()
	defer p.mu.Unlock()

	msgs := p.outbox.drain()
	if len(msgs) == 0 {
		return
	}
	log.Info().Int("count", len(msgs)).Msg("mqtt replaying buffered messages")
	for _, msg := range msgs {
		if err := p.send(msg); err != nil {
			log.Warn().Err(err).Str("topic", msg.topic).Msg("mqtt replay failed")
		}
	}
}

// Buffered returns the number of messages waiting for a connection.
func (p *RealPublisher) Buffered() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.outbox.len()
}

// IsConnected reports whether the broker connection is up.
func (p *RealPublisher) IsConnected() bool {
	return p.client.IsConnectionOpen()
}

// Close disconnects from the broker.
func (p *RealPublisher) Close() error {
	p.client.Disconnect(1000)
	return nil
}

// NopPublisher discards everything. Used when no broker is configured.
type NopPublisher struct{}

// Publish does nothing.
func (NopPublisher) Publish(timesync.Event) error { return nil }

// PublishSystem does nothing.
func (NopPublisher) PublishSystem(SystemEvent) error { return nil }

// Close does nothing.
func (NopPublisher) Close() error { return nil }

// IsConnected is always false.
func (NopPublisher) IsConnected() bool { return false }
