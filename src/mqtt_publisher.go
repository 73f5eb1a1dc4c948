package lmrdecode

/*------------------------------------------------------------------
 *
 * Purpose:	Publish decoded messages to an MQTT broker.
 *
 * Description:	The publisher is a message listener, so it runs on
 *		the decode goroutine and must never block it.  Messages
 *		are serialised and put on a bounded queue; a separate
 *		goroutine drains the queue to the broker.  When the
 *		queue is full the newest message is dropped and counted.
 *
 *		Topic is {topic_prefix}/{protocol}.
 *
 *------------------------------------------------------------------*/

import (
	"encoding/json"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/charmbracelet/log"
	mqtt "github.com/eclipse/paho.mqtt.golang"
	"github.com/google/uuid"
)

const defaultMQTTQueueSize = 256

type MQTTConfig struct {
	Broker      string `yaml:"broker,omitempty"` // e.g. tcp://localhost:1883
	ClientID    string `yaml:"client_id,omitempty"`
	Username    string `yaml:"username,omitempty"`
	Password    string `yaml:"password,omitempty"`
	TopicPrefix string `yaml:"topic_prefix,omitempty"`
	QoS         byte   `yaml:"qos,omitempty"`
	Retain      bool   `yaml:"retain,omitempty"`
	QueueSize   int    `yaml:"queue_size,omitempty"`
}

func (c MQTTConfig) Enabled() bool {
	return c.Broker != ""
}

func (c MQTTConfig) Validate() error {
	if c.QoS > 2 {
		return configError("mqtt: qos %d", c.QoS)
	}
	if c.QueueSize < 0 {
		return configError("mqtt: queue size %d", c.QueueSize)
	}
	return nil
}

// MessageRecord is the JSON published for each message.
type MessageRecord struct {
	Pipeline  string            `json:"pipeline"`
	Channel   string            `json:"channel,omitempty"`
	Protocol  string            `json:"protocol"`
	Timestamp time.Time         `json:"timestamp"`
	Message   string            `json:"message"`
	IDs       []string          `json:"ids,omitempty"`
	Aliases   map[string]string `json:"aliases,omitempty"`
}

func NewMessageRecord(pipelineID uuid.UUID, channel string, m Message) MessageRecord {
	var r = MessageRecord{
		Pipeline:  pipelineID.String(),
		Channel:   channel,
		Protocol:  m.Protocol().String(),
		Timestamp: m.Timestamp().UTC(),
		Message:   m.String(),
		IDs:       sortedIdentifiers(m),
	}
	for _, id := range r.IDs {
		if a, ok := m.Alias(id); ok {
			if r.Aliases == nil {
				r.Aliases = make(map[string]string)
			}
			r.Aliases[id] = a
		}
	}
	return r
}

// publishFunc delivers one payload.  Lets tests stand in for a broker.
type publishFunc func(topic string, payload []byte) error

type MQTTPublisher struct {
	config     MQTTConfig
	pipelineID uuid.UUID
	channel    string
	publish    publishFunc
	disconnect func()
	log        *log.Logger

	queue   chan queuedMessage
	dropped atomic.Uint64
	sent    atomic.Uint64

	closeOnce sync.Once
	done      sync.WaitGroup
}

type queuedMessage struct {
	topic   string
	payload []byte
}

// NewMQTTPublisher connects to the broker and starts the publish goroutine.
func NewMQTTPublisher(config MQTTConfig, pipelineID uuid.UUID, channel string) (*MQTTPublisher, error) {
	if !config.Enabled() {
		return nil, configError("mqtt: no broker configured")
	}
	if err := config.Validate(); err != nil {
		return nil, err
	}

	var clientID = config.ClientID
	if clientID == "" {
		clientID = "lmrdecode-" + uuid.New().String()[:8]
	}

	var l = logger.With("component", "mqtt")

	var opts = mqtt.NewClientOptions()
	opts.AddBroker(config.Broker)
	opts.SetClientID(clientID)
	if config.Username != "" {
		opts.SetUsername(config.Username)
		opts.SetPassword(config.Password)
	}
	opts.SetAutoReconnect(true)
	opts.SetConnectTimeout(10 * time.Second)
	opts.SetOnConnectHandler(func(client mqtt.Client) {
		l.Info("Connected to broker", "broker", config.Broker)
	})
	opts.SetConnectionLostHandler(func(client mqtt.Client, err error) {
		l.Warn("Connection lost", "err", err)
	})

	var client = mqtt.NewClient(opts)
	if token := client.Connect(); token.Wait() && token.Error() != nil {
		return nil, fmt.Errorf("connecting to MQTT broker %s: %w", config.Broker, token.Error())
	}

	var publish = func(topic string, payload []byte) error {
		var token = client.Publish(topic, config.QoS, config.Retain, payload)
		token.Wait()
		return token.Error()
	}

	return newMQTTPublisher(config, pipelineID, channel, publish, func() { client.Disconnect(250) }), nil
}

func newMQTTPublisher(config MQTTConfig, pipelineID uuid.UUID, channel string, publish publishFunc, disconnect func()) *MQTTPublisher {
	var size = config.QueueSize
	if size == 0 {
		size = defaultMQTTQueueSize
	}
	if config.TopicPrefix == "" {
		config.TopicPrefix = "lmrdecode"
	}

	var p = &MQTTPublisher{
		config:     config,
		pipelineID: pipelineID,
		channel:    channel,
		publish:    publish,
		disconnect: disconnect,
		log:        logger.With("component", "mqtt"),
		queue:      make(chan queuedMessage, size),
	}

	p.done.Add(1)
	go p.run()

	return p
}

// Receive queues m for publishing.  Never blocks.
func (p *MQTTPublisher) Receive(m Message) {
	var payload, err = json.Marshal(NewMessageRecord(p.pipelineID, p.channel, m))
	if err != nil {
		p.log.Error("Can't serialise message", "err", err)
		return
	}

	var q = queuedMessage{
		topic:   p.config.TopicPrefix + "/" + m.Protocol().String(),
		payload: payload,
	}

	select {
	case p.queue <- q:
	default:
		p.dropped.Add(1)
		metrics.mqttDropped.Inc()
	}
}

func (p *MQTTPublisher) run() {
	defer p.done.Done()

	for q := range p.queue {
		if err := p.publish(q.topic, q.payload); err != nil {
			p.log.Warn("Publish failed", "topic", q.topic, "err", err)
			continue
		}
		p.sent.Add(1)
	}
}

// Close publishes whatever is queued then disconnects.
// Receive must not be called after Close.
func (p *MQTTPublisher) Close() {
	p.closeOnce.Do(func() {
		close(p.queue)
		p.done.Wait()
		if p.disconnect != nil {
			p.disconnect()
		}
	})
}

func (p *MQTTPublisher) Dropped() uint64 {
	return p.dropped.Load()
}

func (p *MQTTPublisher) Sent() uint64 {
	return p.sent.Load()
}
