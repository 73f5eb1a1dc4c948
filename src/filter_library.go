package lmrdecode

/*------------------------------------------------------------------
 *
 * Purpose:	The named tap sets the decoder factory builds from.
 *
 * Description:	Everything is designed once, when the library is
 *		created, then shared read-only by every pipeline.
 *
 *------------------------------------------------------------------*/

import (
	"maps"
	"slices"
)

// Names of the standard tap sets.
const (
	FilterHalfBand        = "half-band"
	FilterMPT1327LowPass  = "mpt1327-low-pass"
	FilterMPT1327HighPass = "mpt1327-high-pass"
	FilterP25LowPass      = "p25-c4fm-low-pass"
	FilterAudioLowPass    = "audio-low-pass"
	FilterSubAudioLowPass = "sub-audio-low-pass"
)

// Half-band kernel length.  4k+3 so the outer taps are non-zero.
const halfBandTaps = 31

// Input sample rate the standard library is designed for.
const DefaultSampleRate = 48000

// StandardFilterSpecifications are the designs in DefaultFilterLibrary.
func StandardFilterSpecifications() []FilterSpecification {
	return []FilterSpecification{
		{
			Name:              FilterMPT1327LowPass,
			Kind:              LowPass,
			SampleRate:        DefaultSampleRate,
			PassBandEdge:      3200,
			StopBandEdge:      4000,
			PassBandAmplitude: 1.0,
			StopBandAmplitude: 0.0,
			PassBandRipple:    0.02,
			StopBandRipple:    0.03,
			GridDensity:       16,
		},
		{
			// Runs after the half-band decimator.
			Name:              FilterMPT1327HighPass,
			Kind:              HighPass,
			SampleRate:        DefaultSampleRate / 2,
			StopBandEdge:      800,
			PassBandEdge:      1000,
			PassBandAmplitude: 1.0,
			StopBandAmplitude: 0.0,
			PassBandRipple:    0.08,
			StopBandRipple:    0.03,
			GridDensity:       16,
		},
		{
			Name:              FilterP25LowPass,
			Kind:              LowPass,
			SampleRate:        DefaultSampleRate,
			PassBandEdge:      2500,
			StopBandEdge:      4000,
			PassBandAmplitude: 1.0,
			StopBandAmplitude: 0.0,
			PassBandRipple:    0.01,
			StopBandRipple:    0.01,
			GridDensity:       16,
		},
		{
			Name:              FilterAudioLowPass,
			Kind:              LowPass,
			SampleRate:        DefaultSampleRate,
			PassBandEdge:      3000,
			StopBandEdge:      4000,
			PassBandAmplitude: 1.0,
			StopBandAmplitude: 0.0,
			PassBandRipple:    0.05,
			StopBandRipple:    0.01,
			GridDensity:       16,
		},
		{
			// LTR and Passport signalling sits under the voice.
			Name:              FilterSubAudioLowPass,
			Kind:              LowPass,
			SampleRate:        DefaultSampleRate,
			PassBandEdge:      300,
			StopBandEdge:      1000,
			PassBandAmplitude: 1.0,
			StopBandAmplitude: 0.0,
			PassBandRipple:    0.05,
			StopBandRipple:    0.03,
			GridDensity:       16,
		},
	}
}

type FilterLibrary struct {
	taps map[string]TapSet
}

// NewFilterLibrary designs every specification.  Names must be unique.
func NewFilterLibrary(specs ...FilterSpecification) (*FilterLibrary, error) {
	var lib = &FilterLibrary{taps: make(map[string]TapSet, len(specs))}

	for _, s := range specs {
		if s.Name == "" {
			return nil, configError("filter specification without a name")
		}
		if _, dup := lib.taps[s.Name]; dup {
			return nil, configError("filter %q specified twice", s.Name)
		}

		var taps, err = DesignFilter(s)
		if err != nil {
			return nil, err
		}
		lib.taps[s.Name] = taps
	}

	return lib, nil
}

// DefaultFilterLibrary has every tap set the decoder factory needs.
func DefaultFilterLibrary() (*FilterLibrary, error) {
	var lib, err = NewFilterLibrary(StandardFilterSpecifications()...)
	if err != nil {
		return nil, err
	}

	halfBand, err := NewTapSet(FilterHalfBand, genHalfBand(halfBandTaps, WindowBlackman))
	if err != nil {
		return nil, err
	}
	if err := lib.Add(halfBand); err != nil {
		return nil, err
	}

	return lib, nil
}

// Add puts an already designed tap set in the library.
func (l *FilterLibrary) Add(t TapSet) error {
	if t.IsZero() || t.Name() == "" {
		return configError("tap set needs a name and taps")
	}
	if _, dup := l.taps[t.Name()]; dup {
		return configError("tap set %q already in library", t.Name())
	}
	l.taps[t.Name()] = t
	return nil
}

// Get fails with ErrConfiguration for unknown names.
func (l *FilterLibrary) Get(name string) (TapSet, error) {
	var t, ok = l.taps[name]
	if !ok {
		return TapSet{}, configError("no tap set named %q", name)
	}
	return t, nil
}

// Names in sorted order.
func (l *FilterLibrary) Names() []string {
	return slices.Sorted(maps.Keys(l.taps))
}
