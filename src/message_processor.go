package lmrdecode

/*------------------------------------------------------------------
 *
 * Purpose:	Turn captured frames into messages.
 *
 * Description:	A processor validates each frame, decodes it, looks
 *		up aliases for the identities it mentions and
 *		dispatches the message.  Frames that fail validation
 *		are counted and dropped.  Nothing is ever retried or
 *		corrected.
 *
 *------------------------------------------------------------------*/

import (
	"fmt"
	"sync/atomic"

	"github.com/charmbracelet/log"
)

type MessageProcessor interface {
	Listener[MessageFrame]

	AddMessageListener(l Listener[Message]) (cancel func())

	// Counters since creation.
	Decoded() uint64
	Invalid() uint64
}

// messageDispatcher is the part every processor shares.
type messageDispatcher struct {
	protocol  DecoderType
	aliases   *AliasList
	listeners Broadcaster[Message]
	log       *log.Logger

	decoded atomic.Uint64
	invalid atomic.Uint64
}

func (d *messageDispatcher) init(protocol DecoderType, aliases *AliasList) {
	d.protocol = protocol
	d.aliases = aliases
	d.log = logger.With("decoder", protocol.String())
}

func (d *messageDispatcher) AddMessageListener(l Listener[Message]) func() {
	return d.listeners.AddListener(l)
}

func (d *messageDispatcher) Decoded() uint64 {
	return d.decoded.Load()
}

func (d *messageDispatcher) Invalid() uint64 {
	return d.invalid.Load()
}

func (d *messageDispatcher) dispatch(m Message) {
	for _, id := range m.Identifiers() {
		if alias, ok := d.aliases.Lookup(id); ok {
			m.header().setAlias(id, alias)
		}
	}

	d.decoded.Add(1)
	metrics.messagesDecoded.WithLabelValues(d.protocol.String()).Inc()
	d.listeners.Dispatch(m)
}

func (d *messageDispatcher) reject(frame MessageFrame, reason error) {
	d.invalid.Add(1)
	metrics.framesInvalid.WithLabelValues(d.protocol.String()).Inc()
	d.log.Debug("Dropped invalid frame", "pattern", frame.Pattern.Name(), "reason", reason)
}

/*------------------------------------------------------------------
 *
 * Name:	FrameProcessor
 *
 * Purpose:	A processor built from a parse function, for
 *		protocols whose frames become exactly one message.
 *
 *------------------------------------------------------------------*/

type FrameParser func(frame MessageFrame) (Message, error)

type FrameProcessor struct {
	messageDispatcher
	parse FrameParser
}

func NewFrameProcessor(protocol DecoderType, aliases *AliasList, parse FrameParser) *FrameProcessor {
	Assert(parse != nil)

	var p = &FrameProcessor{parse: parse}
	p.init(protocol, aliases)
	return p
}

func (p *FrameProcessor) Receive(frame MessageFrame) {
	var m, err = p.parse(frame)
	if err != nil {
		p.reject(frame, err)
		return
	}
	p.dispatch(m)
}

// rawFrameParser accepts every frame as-is.
func rawFrameParser(protocol DecoderType) FrameParser {
	return func(frame MessageFrame) (Message, error) {
		return &RawMessage{
			messageHeader: newMessageHeader(protocol, frame),
			Bits:          frame.Bits,
		}, nil
	}
}

// parseP25NetworkID checks the data unit identifier is one that exists.
// The BCH code protecting the NID isn't checked.
func parseP25NetworkID(frame MessageFrame) (Message, error) {
	if len(frame.Bits) < 16 {
		return nil, fmt.Errorf("network identifier too short: %d bits", len(frame.Bits))
	}

	var duid = P25DataUnit(frame.Bits.Uint(12, 4))
	if !duid.valid() {
		return nil, fmt.Errorf("unknown data unit id %X", uint8(duid))
	}

	return &P25NetworkID{
		messageHeader: newMessageHeader(DecoderP25Phase1, frame),
		NAC:           uint16(frame.Bits.Uint(0, 12)),
		DataUnit:      duid,
	}, nil
}
