package lmrdecode

/*------------------------------------------------------------------
 *
 * Purpose:	One decoder chain inside a pipeline:
 *
 *		filter stages -> demodulator -> symbol fan-out
 *			-> framers -> message processor
 *
 *		Audio-only decoders stop after the filter stages.
 *
 *------------------------------------------------------------------*/

import (
	"fmt"
)

type TapKind int

const (
	TapSamples TapKind = iota
	TapSymbols
)

func (k TapKind) String() string {
	return IfThenElse(k == TapSymbols, "symbols", "samples")
}

// TapPoint is a named place between two stages where an observer
// can see exactly what passes from one to the other.
type TapPoint struct {
	Decoder DecoderType
	Name    string
	Kind    TapKind

	samples *Output[SampleBuffer]
	symbols *Output[bool]
}

func tapName(upstream string, downstream string) string {
	return fmt.Sprintf("%s > < %s", upstream, downstream)
}

// Stage labels, used to name tap points.
const (
	stageLowPass     = "Low Pass Filter"
	stageHalfBand    = "Half-band Decimation Filter"
	stageHighPass    = "High Pass Filter"
	stageAudioFilter = "Audio Filter"
	stageAudioOutput = "Audio Output"
	stageDecoder     = "Decoder"
	stageFramer      = "Sync Detect/Message Framer"
)

type Decoder struct {
	Type DecoderType

	filters   []*RealFIRFilter
	demod     Demodulator
	symbols   Broadcaster[bool]
	framers   []*MessageFramer
	processor MessageProcessor
	taps      []TapPoint
}

func (d *Decoder) Receive(buf SampleBuffer) {
	if len(d.filters) > 0 {
		d.filters[0].Receive(buf)
	} else if d.demod != nil {
		d.demod.Receive(buf)
	}
}

func (d *Decoder) Filters() []*RealFIRFilter {
	return d.filters
}

// Demodulator is nil for audio-only decoders.
func (d *Decoder) Demodulator() Demodulator { //nolint:ireturn
	return d.demod
}

func (d *Decoder) Framers() []*MessageFramer {
	return d.framers
}

// Processor is nil for audio-only decoders.
func (d *Decoder) Processor() MessageProcessor { //nolint:ireturn
	return d.processor
}

// Audio is the filtered output of an audio-only decoder, nil otherwise.
func (d *Decoder) Audio() *Output[SampleBuffer] {
	if d.demod != nil || len(d.filters) == 0 {
		return nil
	}
	return d.filters[len(d.filters)-1].Output()
}

func (d *Decoder) TapPoints() []TapPoint {
	return d.taps
}

// Reset returns every stage to its initial state.  Partial frames are
// abandoned.
func (d *Decoder) Reset() {
	for _, f := range d.filters {
		f.Reset()
	}
	if d.demod != nil {
		d.demod.Reset()
	}
	for _, f := range d.framers {
		f.Reset()
	}
}

/*------------------------------------------------------------------
 *
 * Name:	Assembly helpers
 *
 *------------------------------------------------------------------*/

type labelledFilter struct {
	label  string
	filter *RealFIRFilter
}

// connect wires filters -> demodulator -> fan-out -> framers -> processor
// and records the tap points along the way.
func (d *Decoder) connect(filters []labelledFilter, demod Demodulator, patterns []SyncPattern, processor MessageProcessor) {
	for i, f := range filters {
		d.filters = append(d.filters, f.filter)

		var downstream string
		switch {
		case i+1 < len(filters):
			downstream = filters[i+1].label
			f.filter.SetListener(filters[i+1].filter)
		case demod != nil:
			downstream = stageDecoder
			f.filter.SetListener(demod)
		default:
			downstream = stageAudioOutput
		}

		d.taps = append(d.taps, TapPoint{
			Decoder: d.Type,
			Name:    tapName(f.label, downstream),
			Kind:    TapSamples,
			samples: f.filter.Output(),
		})
	}

	if demod == nil {
		return
	}

	d.demod = demod
	demod.Output().SetListener(&d.symbols)
	d.taps = append(d.taps, TapPoint{
		Decoder: d.Type,
		Name:    tapName(stageDecoder, stageFramer),
		Kind:    TapSymbols,
		symbols: demod.Output(),
	})

	d.processor = processor
	for _, p := range patterns {
		var framer = NewMessageFramer(p)
		framer.protocol = d.Type.String()
		framer.AddListener(processor)
		d.symbols.AddListener(framer)
		d.framers = append(d.framers, framer)
	}
}
