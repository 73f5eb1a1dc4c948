package lmrdecode

/*------------------------------------------------------------------
 *
 * Purpose:	Turn a channel configuration into a running pipeline.
 *
 * Description:	Each decoder type has a fixed chain.  Input is real
 *		audio at 48000 samples per second.
 *
 *		MPT1327		low pass, half-band /2, high pass @ 24000,
 *				1200 baud FFSK, control and traffic framers
 *
 *		P25 phase 1	low pass, C4FM 4800 symbols/sec, NID framer
 *
 *		LTR, Passport	sub-audio low pass /8, 300 baud baseband
 *
 *		AM, NBFM	audio low pass only
 *
 *		Auxiliary decoders each get their own half-band and
 *		FFSK chain fed from the same input.
 *
 *------------------------------------------------------------------*/

import (
	"fmt"
	"time"
)

const (
	halfBandGain       = 1.0
	subAudioDecimation = 8
	mpt1327Baud        = 1200
	auxBaud            = 1200
	ffskMarkHz         = 1200.0
	ffskSpaceHz        = 1800.0
	subAudioBaud       = 300
	p25SymbolRate      = 4800
)

type DecoderFactory struct {
	filters     *FilterLibrary
	aliasLists  map[string]*AliasList
	channelMaps map[string]*ChannelMap
	now         func() time.Time
}

type FactoryOption func(*DecoderFactory)

func WithAliasLists(lists ...*AliasList) FactoryOption {
	return func(f *DecoderFactory) {
		for _, l := range lists {
			f.aliasLists[l.Name()] = l
		}
	}
}

func WithChannelMaps(maps ...ChannelMap) FactoryOption {
	return func(f *DecoderFactory) {
		for i := range maps {
			var m = maps[i]
			f.channelMaps[m.Name] = &m
		}
	}
}

// WithClock replaces time.Now for the traffic channel manager.
func WithClock(now func() time.Time) FactoryOption {
	return func(f *DecoderFactory) {
		f.now = now
	}
}

func NewDecoderFactory(filters *FilterLibrary, opts ...FactoryOption) *DecoderFactory {
	Assert(filters != nil)

	var f = &DecoderFactory{
		filters:     filters,
		aliasLists:  make(map[string]*AliasList),
		channelMaps: make(map[string]*ChannelMap),
		now:         time.Now,
	}
	for _, opt := range opts {
		opt(f)
	}
	return f
}

/*------------------------------------------------------------------
 *
 * Name:	Build
 *
 * Purpose:	Assemble every stage for one channel.
 *
 * Returns:	A pipeline ready for Process, or an error wrapping
 *		ErrConfiguration.  Nothing is left half built.
 *
 *------------------------------------------------------------------*/

func (f *DecoderFactory) Build(channel ChannelConfig) (*Pipeline, error) {
	channel = channel.Copy()

	if err := channel.Decoder.applyDefaults(); err != nil {
		return nil, fmt.Errorf("channel %q: %w", channel.Name, err)
	}
	if err := channel.Validate(); err != nil {
		return nil, err
	}

	var aliases *AliasList
	if channel.AliasList != "" {
		var ok bool
		if aliases, ok = f.aliasLists[channel.AliasList]; !ok {
			return nil, configError("channel %q: no alias list named %q", channel.Name, channel.AliasList)
		}
	}

	var channelMap *ChannelMap
	if name := channel.Decoder.ChannelMapName; name != "" {
		var ok bool
		if channelMap, ok = f.channelMaps[name]; !ok {
			return nil, configError("channel %q: no channel map named %q", channel.Name, name)
		}
	}

	var primary, err = f.primaryDecoder(channel.Decoder, aliases, channelMap)
	if err != nil {
		return nil, fmt.Errorf("channel %q: %w", channel.Name, err)
	}

	var decoders = []*Decoder{primary}
	var types = []DecoderType{primary.Type}

	for _, t := range channel.AuxDecoders {
		var aux, err = f.auxDecoder(t, aliases)
		if err != nil {
			return nil, fmt.Errorf("channel %q: %w", channel.Name, err)
		}
		decoders = append(decoders, aux)
		types = append(types, t)
	}

	var traffic *TrafficChannelManager
	if channel.Type == ChannelStandard && channel.Decoder.Type == DecoderMPT1327 && channel.Decoder.TrafficChannelPoolSize > 0 {
		if traffic, err = NewTrafficChannelManager(channel.Decoder.TrafficChannelPoolSize, channel.Decoder.CallTimeout); err != nil {
			return nil, fmt.Errorf("channel %q: %w", channel.Name, err)
		}
		traffic.now = f.now
	}

	return newPipeline(channel, decoders, BuildMessageFilters(types), traffic), nil
}

func (f *DecoderFactory) filter(name string, decimation int) (*RealFIRFilter, error) {
	var taps, err = f.filters.Get(name)
	if err != nil {
		return nil, err
	}
	if name == FilterHalfBand {
		return NewHalfBandDecimator(taps, halfBandGain)
	}
	return NewRealFIRFilter(taps, 1.0, decimation)
}

// filterChain builds the stages in order.
func (f *DecoderFactory) filterChain(stages ...labelledStage) ([]labelledFilter, error) {
	var out = make([]labelledFilter, 0, len(stages))
	for _, s := range stages {
		var flt, err = f.filter(s.taps, s.decimation)
		if err != nil {
			return nil, err
		}
		out = append(out, labelledFilter{label: s.label, filter: flt})
	}
	return out, nil
}

type labelledStage struct {
	label      string
	taps       string
	decimation int
}

func (f *DecoderFactory) primaryDecoder(config DecoderConfiguration, aliases *AliasList, channelMap *ChannelMap) (*Decoder, error) {
	switch config.Type {
	case DecoderMPT1327:
		return f.mpt1327Decoder(config, aliases, channelMap)

	case DecoderP25Phase1:
		return f.p25Decoder(config, aliases)

	case DecoderLTRStandard, DecoderLTRNet:
		var pattern = IfThenElse(config.Direction == DirectionInbound, SyncLTRInbound, SyncLTROutbound)
		return f.subAudioDecoder(config.Type, pattern, aliases)

	case DecoderPassport:
		return f.subAudioDecoder(config.Type, SyncPassport, aliases)

	case DecoderAM, DecoderNBFM:
		return f.audioDecoder(config.Type)

	default:
		return nil, configError("no primary decoder of type %s", config.Type)
	}
}

/*------------------------------------------------------------------
 *
 * Name:	mpt1327Decoder
 *
 * Description:	The French sync words are sent with the opposite tone
 *		convention, so they decode with normal polarity while
 *		the standard words need it inverted.
 *
 *------------------------------------------------------------------*/

func (f *DecoderFactory) mpt1327Decoder(config DecoderConfiguration, aliases *AliasList, channelMap *ChannelMap) (*Decoder, error) {
	var filters, err = f.filterChain(
		labelledStage{stageLowPass, FilterMPT1327LowPass, 1},
		labelledStage{stageHalfBand, FilterHalfBand, 2},
		labelledStage{stageHighPass, FilterMPT1327HighPass, 1},
	)
	if err != nil {
		return nil, err
	}

	var polarity = PolarityInverted
	var patterns = []SyncPattern{SyncMPT1327Control, SyncMPT1327Traffic}
	if config.Sync == MPT1327SyncFrench {
		polarity = PolarityNormal
		patterns = []SyncPattern{SyncMPT1327ControlFrench, SyncMPT1327TrafficFrench}
	}

	demod, err := NewFSK2Demodulator(FSK2Config{
		SampleRate:   DefaultSampleRate / 2,
		Baud:         mpt1327Baud,
		MarkHz:       ffskMarkHz,
		SpaceHz:      ffskSpaceHz,
		Polarity:     polarity,
		UsePrefilter: true,
	})
	if err != nil {
		return nil, err
	}

	var d = &Decoder{Type: DecoderMPT1327}
	d.connect(filters, demod, patterns, NewMPT1327MessageProcessor(aliases, channelMap))
	return d, nil
}

// p25Decoder only understands C4FM.  CQPSK (simulcast) needs complex
// baseband samples, which a real audio input can't provide.
func (f *DecoderFactory) p25Decoder(config DecoderConfiguration, aliases *AliasList) (*Decoder, error) {
	if config.Modulation != P25ModulationC4FM {
		return nil, configError("p25: %s modulation requires complex baseband samples", config.Modulation.Label())
	}

	var filters, err = f.filterChain(labelledStage{stageLowPass, FilterP25LowPass, 1})
	if err != nil {
		return nil, err
	}

	demod, err := NewFSK4Demodulator(FSK4Config{
		SampleRate:    DefaultSampleRate,
		SymbolRate:    p25SymbolRate,
		MaxCorrection: config.AFCMaximumCorrection,
		AFC:           config.AFC,
	})
	if err != nil {
		return nil, err
	}

	var d = &Decoder{Type: DecoderP25Phase1}
	d.connect(filters, demod, []SyncPattern{SyncP25Phase1}, NewFrameProcessor(DecoderP25Phase1, aliases, parseP25NetworkID))
	return d, nil
}

// subAudioDecoder handles the low speed data sent under voice.
func (f *DecoderFactory) subAudioDecoder(t DecoderType, pattern SyncPattern, aliases *AliasList) (*Decoder, error) {
	var filters, err = f.filterChain(labelledStage{stageLowPass, FilterSubAudioLowPass, subAudioDecimation})
	if err != nil {
		return nil, err
	}

	demod, err := NewBasebandDemodulator(BasebandConfig{
		SampleRate: DefaultSampleRate / subAudioDecimation,
		Baud:       subAudioBaud,
		Polarity:   PolarityNormal,
	})
	if err != nil {
		return nil, err
	}

	var d = &Decoder{Type: t}
	d.connect(filters, demod, []SyncPattern{pattern}, NewFrameProcessor(t, aliases, rawFrameParser(t)))
	return d, nil
}

func (f *DecoderFactory) audioDecoder(t DecoderType) (*Decoder, error) {
	var filters, err = f.filterChain(labelledStage{stageAudioFilter, FilterAudioLowPass, 1})
	if err != nil {
		return nil, err
	}

	var d = &Decoder{Type: t}
	d.connect(filters, nil, nil, nil)
	return d, nil
}

var auxSyncPatterns = map[DecoderType]SyncPattern{
	DecoderFleetsync2: SyncFleetsync2,
	DecoderMDC1200:    SyncMDC1200,
	DecoderLJ1200:     SyncLJ1200,
	DecoderTait1200:   SyncTait1200,
}

func (f *DecoderFactory) auxDecoder(t DecoderType, aliases *AliasList) (*Decoder, error) {
	var pattern, ok = auxSyncPatterns[t]
	if !ok {
		return nil, configError("no auxiliary decoder of type %s", t)
	}

	filters, err := f.filterChain(
		labelledStage{stageHalfBand, FilterHalfBand, 2},
		labelledStage{stageHighPass, FilterMPT1327HighPass, 1},
	)
	if err != nil {
		return nil, err
	}

	demod, err := NewFSK2Demodulator(FSK2Config{
		SampleRate:   DefaultSampleRate / 2,
		Baud:         auxBaud,
		MarkHz:       ffskMarkHz,
		SpaceHz:      ffskSpaceHz,
		Polarity:     PolarityNormal,
		UsePrefilter: true,
	})
	if err != nil {
		return nil, err
	}

	var d = &Decoder{Type: t}
	d.connect(filters, demod, []SyncPattern{pattern}, NewFrameProcessor(t, aliases, rawFrameParser(t)))
	return d, nil
}
