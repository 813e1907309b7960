package inbound

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/bilal/transition-relay/internal/config"
	"github.com/bilal/transition-relay/internal/metrics"
	mqtt "github.com/eclipse/paho.mqtt.golang"
	"github.com/rs/zerolog/log"
)

// Subscriber relays strings published to an MQTT topic. The last topic
// segment is the identity, e.g. transition/M0RND.
type Subscriber struct {
	client  mqtt.Client
	topic   string
	qos     byte
	relay   Handler
	timeout time.Duration
}

func NewSubscriber(cfg *config.Config, h Handler) *Subscriber {
	opts := mqtt.NewClientOptions().
		AddBroker(cfg.MQTT.Broker).
		SetClientID(cfg.MQTT.ClientID).
		SetAutoReconnect(true).
		SetOrderMatters(false)

	// a station submission makes at most two POSTs
	timeout := 2 * cfg.Relay.Timeout
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	s := &Subscriber{
		topic:   cfg.MQTT.Topic,
		qos:     cfg.MQTT.QoS,
		relay:   h,
		timeout: timeout,
	}
	// resubscribe after every (re)connect
	opts.SetOnConnectHandler(func(c mqtt.Client) {
		if err := s.subscribe(c); err != nil {
			log.Error().Err(err).Str("topic", s.topic).Msg("mqtt subscribe failed")
		}
	})
	opts.SetConnectionLostHandler(func(_ mqtt.Client, err error) {
		log.Warn().Err(err).Msg("mqtt connection lost")
	})

	s.client = mqtt.NewClient(opts)
	return s
}

// Start connects to the broker; subscription happens in the connect handler.
func (s *Subscriber) Start() error {
	token := s.client.Connect()
	if !token.WaitTimeout(10 * time.Second) {
		return errors.New("mqtt connect timed out")
	}
	if err := token.Error(); err != nil {
		return fmt.Errorf("mqtt connect: %w", err)
	}
	log.Info().Str("topic", s.topic).Msg("mqtt subscriber started")
	return nil
}

func (s *Subscriber) subscribe(c mqtt.Client) error {
	token := c.Subscribe(s.topic, s.qos, s.onMessage)
	token.Wait()
	return token.Error()
}

func (s *Subscriber) Shutdown() {
	log.Info().Msg("mqtt subscriber stopping")
	s.client.Disconnect(250)
}

func (s *Subscriber) onMessage(_ mqtt.Client, msg mqtt.Message) {
	identity := IdentityFromTopic(msg.Topic())
	metrics.InboundTotal.WithLabelValues("mqtt").Inc()

	ctx, cancel := context.WithTimeout(context.Background(), s.timeout)
	defer cancel()

	res := s.relay.Handle(ctx, identity, string(msg.Payload()))
	log.Debug().
		Str("topic", msg.Topic()).
		Str("identity", identity).
		Str("status", string(res.Status())).
		Msg("mqtt submission handled")
}

// IdentityFromTopic returns the last non-empty segment of topic.
func IdentityFromTopic(topic string) string {
	parts := strings.Split(strings.TrimRight(topic, "/"), "/")
	return parts[len(parts)-1]
}
