package lmrdecode

/*------------------------------------------------------------------
 *
 * Purpose:	Own the decoders for one channel and feed them.
 *
 * Description:	Process runs synchronously on the caller's goroutine:
 *		every listener for a buffer has been called before it
 *		returns.  Process, Reset and Stop may be called from
 *		different goroutines; they are serialised.
 *
 *		Once stopped, a pipeline ignores further input.
 *
 *		Listeners run while Process holds the pipeline lock.
 *		A listener must not call Reset or Stop on the same
 *		pipeline directly; it can hand the call to another
 *		goroutine, which proceeds once Process returns.
 *
 *------------------------------------------------------------------*/

import (
	"sync"
	"sync/atomic"

	"github.com/charmbracelet/log"
	"github.com/google/uuid"
)

type Pipeline struct {
	id         uuid.UUID
	channel    ChannelConfig
	sampleRate int
	log        *log.Logger

	mu          sync.Mutex
	stopped     atomic.Bool
	rateWarned  bool
	decoders    []*Decoder
	filters     *FilterSet
	traffic     *TrafficChannelManager
	messages    Broadcaster[Message]
	corrections Broadcaster[FrequencyCorrection]
}

func newPipeline(channel ChannelConfig, decoders []*Decoder, filters *FilterSet, traffic *TrafficChannelManager) *Pipeline {
	var p = &Pipeline{
		id:         uuid.New(),
		channel:    channel,
		sampleRate: DefaultSampleRate,
		decoders:   decoders,
		filters:    filters,
		traffic:    traffic,
	}
	p.log = logger.With("pipeline", p.id.String()[:8], "channel", channel.Name)

	for _, d := range decoders {
		if d.processor != nil {
			d.processor.AddMessageListener(&p.messages)
		}
		if fsk4, ok := d.demod.(*FSK4Demodulator); ok {
			fsk4.AddCorrectionListener(&p.corrections)
		}
	}

	// No new series once Stop has deleted them.
	p.corrections.AddListener(ListenerFunc[FrequencyCorrection](func(c FrequencyCorrection) {
		if !p.stopped.Load() {
			metrics.frequencyCorrection.WithLabelValues(p.id.String()).Set(float64(c.Hz))
		}
	}))

	if traffic != nil {
		traffic.onChange = func(active int) {
			if !p.stopped.Load() {
				metrics.trafficChannels.WithLabelValues(p.id.String()).Set(float64(active))
			}
		}
		p.messages.AddListener(traffic)
	}

	p.log.Info("Pipeline built", "decoders", len(decoders), "primary", channel.Decoder.Type.Label())

	return p
}

func (p *Pipeline) ID() uuid.UUID {
	return p.id
}

// Channel is a copy of the configuration the pipeline was built from.
func (p *Pipeline) Channel() ChannelConfig {
	return p.channel.Copy()
}

func (p *Pipeline) SampleRate() int {
	return p.sampleRate
}

func (p *Pipeline) Decoders() []*Decoder {
	return p.decoders
}

// Decoder of type t, or nil.
func (p *Pipeline) Decoder(t DecoderType) *Decoder {
	for _, d := range p.decoders {
		if d.Type == t {
			return d
		}
	}
	return nil
}

/*------------------------------------------------------------------
 *
 * Name:	Process
 *
 * Purpose:	Push one buffer of samples through every decoder.
 *
 * Description:	A buffer at the wrong rate is dropped, with a warning
 *		the first time.  Input after Stop is ignored, and a
 *		buffer in progress when Stop is called goes no further
 *		than the decoder it has reached.
 *
 *------------------------------------------------------------------*/

func (p *Pipeline) Process(buf SampleBuffer) {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.stopped.Load() {
		return
	}

	if buf.SampleRate != p.sampleRate {
		if !p.rateWarned {
			p.log.Warn("Dropping samples at unexpected rate", "rate", buf.SampleRate, "expected", p.sampleRate)
			p.rateWarned = true
		}
		return
	}

	for _, d := range p.decoders {
		if p.stopped.Load() {
			return
		}
		d.Receive(buf)
	}
}

// Reset clears all filter, demodulator and framer state, and
// releases traffic channel allocations.
func (p *Pipeline) Reset() {
	p.mu.Lock()
	defer p.mu.Unlock()

	for _, d := range p.decoders {
		d.Reset()
	}
	if p.traffic != nil {
		p.traffic.Reset()
	}
}

// Stop is final.  Safe to call more than once.  The per-pipeline
// metric series are removed.
func (p *Pipeline) Stop() {
	// Flag first, so a Process holding the lock gives up early.
	if p.stopped.Swap(true) {
		return
	}

	p.mu.Lock()
	defer p.mu.Unlock()

	for _, d := range p.decoders {
		d.Reset()
	}
	if p.traffic != nil {
		p.traffic.Reset()
	}

	metrics.frequencyCorrection.DeleteLabelValues(p.id.String())
	metrics.trafficChannels.DeleteLabelValues(p.id.String())

	p.log.Info("Pipeline stopped")
}

func (p *Pipeline) Stopped() bool {
	return p.stopped.Load()
}

// AddMessageListener receives every message from every decoder,
// unfiltered.  Use MessageFilters to select.
func (p *Pipeline) AddMessageListener(l Listener[Message]) func() {
	return p.messages.AddListener(l)
}

func (p *Pipeline) AddFrequencyCorrectionListener(l Listener[FrequencyCorrection]) func() {
	return p.corrections.AddListener(l)
}

func (p *Pipeline) MessageFilters() *FilterSet {
	return p.filters
}

// Traffic is nil unless the channel is an MPT1327 control channel.
func (p *Pipeline) Traffic() *TrafficChannelManager {
	return p.traffic
}

func (p *Pipeline) TapPoints() []TapPoint {
	var out []TapPoint
	for _, d := range p.decoders {
		out = append(out, d.taps...)
	}
	return out
}

func (p *Pipeline) findTap(decoder DecoderType, name string, kind TapKind) (TapPoint, error) {
	for _, d := range p.decoders {
		if d.Type != decoder {
			continue
		}
		for _, tp := range d.taps {
			if tp.Name == name {
				if tp.Kind != kind {
					return TapPoint{}, configError("tap point %q carries %s, not %s", name, tp.Kind, kind)
				}
				return tp, nil
			}
		}
	}
	return TapPoint{}, configError("no tap point %q on %s decoder", name, decoder)
}

// ObserveSamples attaches l to a sample tap point without disturbing
// the chain.  Returns a function that detaches it.
func (p *Pipeline) ObserveSamples(decoder DecoderType, name string, l Listener[SampleBuffer]) (func(), error) {
	var tp, err = p.findTap(decoder, name, TapSamples)
	if err != nil {
		return nil, err
	}
	return tp.samples.Observe(l), nil
}

// ObserveSymbols attaches l to a symbol tap point.
func (p *Pipeline) ObserveSymbols(decoder DecoderType, name string, l Listener[bool]) (func(), error) {
	var tp, err = p.findTap(decoder, name, TapSymbols)
	if err != nil {
		return nil, err
	}
	return tp.symbols.Observe(l), nil
}
