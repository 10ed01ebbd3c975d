package remote

import (
	"fmt"
	"log"
	"sync"
	"time"

	paho "github.com/eclipse/paho.mqtt.golang"
)

// RealSubscriber subscribes on an actual MQTT broker. Subscriptions are
// restored after every reconnect.
type RealSubscriber struct {
	client paho.Client

	mu   sync.Mutex
	subs map[string]paho.MessageHandler
}

// NewRealSubscriber connects to broker. onLost, if set, runs whenever the
// connection drops.
func NewRealSubscriber(broker, clientID string, onLost func()) (*RealSubscriber, error) {
	s := &RealSubscriber{subs: make(map[string]paho.MessageHandler)}

	opts := paho.NewClientOptions().
		AddBroker(broker).
		SetClientID(clientID).
		SetAutoReconnect(true).
		SetConnectRetry(true).
		SetConnectRetryInterval(5 * time.Second).
		SetOnConnectHandler(s.resubscribe).
		SetConnectionLostHandler(func(_ paho.Client, err error) {
			log.Printf("remote: connection lost: %v", err)
			if onLost != nil {
				onLost()
			}
		})

	s.client = paho.NewClient(opts)
	token := s.client.Connect()
	if !token.WaitTimeout(10 * time.Second) {
		return nil, fmt.Errorf("connection timeout")
	}
	if err := token.Error(); err != nil {
		return nil, fmt.Errorf("connect to broker: %w", err)
	}

	return s, nil
}

func (s *RealSubscriber) resubscribe(c paho.Client) {
	s.mu.Lock()
	subs := make(map[string]paho.MessageHandler, len(s.subs))
	for t, h := range s.subs {
		subs[t] = h
	}
	s.mu.Unlock()

	if len(subs) == 0 {
		log.Printf("remote: connected")
		return
	}
	for topic, h := range subs {
		token := c.Subscribe(topic, 1, h)
		if !token.WaitTimeout(5*time.Second) || token.Error() != nil {
			log.Printf("remote: resubscribe %s failed: %v", topic, token.Error())
		}
	}
	log.Printf("remote: reconnected, %d subscriptions restored", len(subs))
}

// Subscribe registers handler for topic at QoS 1.
func (s *RealSubscriber) Subscribe(topic string, handler func(topic string, payload []byte)) error {
	h := func(_ paho.Client, m paho.Message) {
		handler(m.Topic(), m.Payload())
	}

	s.mu.Lock()
	s.subs[topic] = h
	s.mu.Unlock()

	token := s.client.Subscribe(topic, 1, h)
	if !token.WaitTimeout(5 * time.Second) {
		return fmt.Errorf("subscribe timeout")
	}
	if err := token.Error(); err != nil {
		return fmt.Errorf("subscribe: %w", err)
	}
	return nil
}

// IsConnected reports whether the client is connected.
func (s *RealSubscriber) IsConnected() bool {
	return s.client.IsConnected()
}

// Close disconnects from the broker.
func (s *RealSubscriber) Close() error {
	s.client.Disconnect(250)
	return nil
}
