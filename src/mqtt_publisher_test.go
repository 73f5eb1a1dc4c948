package lmrdecode

import (
	"encoding/json"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var testPipelineID = uuid.MustParse("6ba7b810-9dad-11d1-80b4-00c04fd430c8")

func testGTCMessage() *MPT1327Message {
	var header = messageHeader{
		protocol:  DecoderMPT1327,
		timestamp: time.Date(2024, 3, 1, 12, 0, 0, 0, time.FixedZone("BST", 3600)),
	}
	var m = &MPT1327Message{
		messageHeader: header,
		Type:          MPT1327GoToChannel,
		SystemID:      0x1234,
		Prefix:        20,
		Ident1:        1002,
		Ident2:        1001,
		ChannelNumber: 5,
	}
	m.setAlias("020-1001", "Alice")
	return m
}

func Test_NewMessageRecord(t *testing.T) {
	var r = NewMessageRecord(testPipelineID, "Site 1", testGTCMessage())

	assert.Equal(t, testPipelineID.String(), r.Pipeline)
	assert.Equal(t, "Site 1", r.Channel)
	assert.Equal(t, "mpt1327", r.Protocol)
	assert.Equal(t, time.UTC, r.Timestamp.Location())
	assert.Equal(t, 11, r.Timestamp.Hour())
	assert.Equal(t, []string{"020-1001", "020-1002"}, r.IDs)
	assert.Equal(t, map[string]string{"020-1001": "Alice"}, r.Aliases)
	assert.Equal(t, "MPT1327 GTC SYS:1234 TO:020-1002 FROM:020-1001 (Alice) CHAN:5", r.Message)

	var raw = NewMessageRecord(testPipelineID, "", &RawMessage{messageHeader: messageHeader{protocol: DecoderMDC1200}})
	assert.Nil(t, raw.Aliases)
	assert.Empty(t, raw.IDs)
}

type fakeBroker struct {
	mu       sync.Mutex
	topics   []string
	payloads [][]byte
	err      error
}

func (b *fakeBroker) publish(topic string, payload []byte) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.err != nil {
		return b.err
	}
	b.topics = append(b.topics, topic)
	b.payloads = append(b.payloads, payload)
	return nil
}

func Test_MQTTPublish(t *testing.T) {
	quietLogs(t)
	freshMetrics(t)

	var broker fakeBroker
	var disconnected bool
	var p = newMQTTPublisher(MQTTConfig{Broker: "tcp://test:1883", TopicPrefix: "radio"}, testPipelineID, "Site 1",
		broker.publish, func() { disconnected = true })

	p.Receive(testGTCMessage())
	p.Receive(&RawMessage{messageHeader: messageHeader{protocol: DecoderFleetsync2}, Bits: bitsOf("1111")})
	p.Close()
	p.Close()

	assert.True(t, disconnected)
	assert.Equal(t, uint64(2), p.Sent())
	assert.Zero(t, p.Dropped())
	assert.Equal(t, []string{"radio/mpt1327", "radio/fleetsync2"}, broker.topics)

	var r MessageRecord
	require.NoError(t, json.Unmarshal(broker.payloads[0], &r))
	assert.Equal(t, "Site 1", r.Channel)
	assert.Equal(t, "Alice", r.Aliases["020-1001"])

	require.NoError(t, json.Unmarshal(broker.payloads[1], &r))
	assert.Equal(t, "Fleetsync II F", r.Message)
}

func Test_MQTTDefaultTopic(t *testing.T) {
	quietLogs(t)

	var broker fakeBroker
	var p = newMQTTPublisher(MQTTConfig{Broker: "tcp://test:1883"}, testPipelineID, "", broker.publish, nil)
	p.Receive(testGTCMessage())
	p.Close()

	assert.Equal(t, []string{"lmrdecode/mpt1327"}, broker.topics)
}

func Test_MQTTDropsWhenFull(t *testing.T) {
	quietLogs(t)
	freshMetrics(t)

	var started = make(chan struct{})
	var release = make(chan struct{})
	var calls int
	var publish = func(topic string, payload []byte) error {
		calls++
		if calls == 1 {
			close(started)
			<-release
		}
		return nil
	}

	var p = newMQTTPublisher(MQTTConfig{Broker: "tcp://test:1883", QueueSize: 1}, testPipelineID, "", publish, nil)

	p.Receive(testGTCMessage())
	<-started

	p.Receive(testGTCMessage()) // Queued.
	p.Receive(testGTCMessage()) // Queue full.
	assert.Equal(t, uint64(1), p.Dropped())
	assert.InDelta(t, 1.0, testutil.ToFloat64(metrics.mqttDropped), 0)

	close(release)
	p.Close()
	assert.Equal(t, uint64(2), p.Sent())
}

func Test_MQTTPublishFailure(t *testing.T) {
	quietLogs(t)

	var broker = fakeBroker{err: errors.New("not connected")}
	var p = newMQTTPublisher(MQTTConfig{Broker: "tcp://test:1883"}, testPipelineID, "", broker.publish, nil)
	p.Receive(testGTCMessage())
	p.Close()

	assert.Zero(t, p.Sent())
	assert.Zero(t, p.Dropped())
}

func Test_MQTTConfig(t *testing.T) {
	assert.False(t, MQTTConfig{}.Enabled())
	assert.NoError(t, MQTTConfig{Broker: "tcp://x:1883", QoS: 2}.Validate())
	assert.ErrorIs(t, MQTTConfig{QoS: 3}.Validate(), ErrConfiguration)
	assert.ErrorIs(t, MQTTConfig{QueueSize: -1}.Validate(), ErrConfiguration)

	var _, err = NewMQTTPublisher(MQTTConfig{}, testPipelineID, "")
	assert.ErrorIs(t, err, ErrConfiguration)

	_, err = NewMQTTPublisher(MQTTConfig{Broker: "tcp://x:1883", QoS: 3}, testPipelineID, "")
	assert.ErrorIs(t, err, ErrConfiguration)
}
