package mqtt

import (
	"fmt"
	"log"
	"sync"
	"time"

	paho "github.com/eclipse/paho.mqtt.golang"
)

// backlogLimit bounds the messages held while the broker is unreachable.
const backlogLimit = 64

// RealPublisher publishes to an actual MQTT broker.
// It never blocks startup on the broker: messages published while
// disconnected are queued and replayed once the connection comes up.
type RealPublisher struct {
	client paho.Client

	mu      sync.Mutex
	backlog *backlog
}

// NewRealPublisher creates a publisher for the given broker and starts
// connecting in the background.
func NewRealPublisher(broker, clientID string) *RealPublisher {
	p := &RealPublisher{backlog: newBacklog(backlogLimit)}

	will := WillPayload(time.Now())

	opts := paho.NewClientOptions().
		AddBroker(broker).
		SetClientID(clientID).
		SetAutoReconnect(true).
		SetConnectRetry(true).
		SetConnectRetryInterval(5 * time.Second).
		SetBinaryWill(TopicSystem, will, 1, true).
		SetOnConnectHandler(p.onConnect).
		SetConnectionLostHandler(func(_ paho.Client, err error) {
			log.Printf("mqtt: connection lost: %v", err)
		})

	p.client = paho.NewClient(opts)
	// With ConnectRetry the token only completes once connected; don't wait on it.
	p.client.Connect()
	return p
}

func (p *RealPublisher) onConnect(paho.Client) {
	p.mu.Lock()
	msgs := p.backlog.drain()
	p.mu.Unlock()

	log.Printf("mqtt: connected, replaying %d queued messages", len(msgs))
	for _, m := range msgs {
		if err := p.send(m); err != nil {
			log.Printf("mqtt: replay failed: %v", err)
		}
	}
}

// PublishSystem sends a system event to the MQTT broker, or queues it
// while disconnected.
func (p *RealPublisher) PublishSystem(event SystemEvent) error {
	payload, err := FormatSystemPayload(event)
	if err != nil {
		return fmt.Errorf("format system payload: %w", err)
	}

	// QoS 1 (at-least-once) - alerts should survive a flaky link
	msg := bufferedMsg{topic: TopicSystem, payload: payload, qos: 1, retained: event.Retained}

	p.mu.Lock()
	if !p.client.IsConnectionOpen() {
		p.backlog.push(msg)
		p.mu.Unlock()
		return nil
	}
	p.mu.Unlock()

	return p.send(msg)
}

func (p *RealPublisher) send(m bufferedMsg) error {
	token := p.client.Publish(m.topic, m.qos, m.retained, m.payload)
	if !token.WaitTimeout(5 * time.Second) {
		return fmt.Errorf("publish system timeout")
	}
	if err := token.Error(); err != nil {
		return fmt.Errorf("publish system: %w", err)
	}
	return nil
}

// IsConnected reports whether the broker connection is up.
func (p *RealPublisher) IsConnected() bool {
	return p.client.IsConnectionOpen()
}

// Close disconnects from the broker.
func (p *RealPublisher) Close() error {
	p.client.Disconnect(1000) // 1 second timeout
	return nil
}
