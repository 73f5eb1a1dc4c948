package lmrdecode

import (
	"cmp"
	"slices"
)

// ChannelRange maps a contiguous block of channel numbers to frequencies.
type ChannelRange struct {
	First   int   `yaml:"first"`
	Last    int   `yaml:"last"`
	Base    int64 `yaml:"base"`    // Hz, frequency of First.
	Spacing int64 `yaml:"spacing"` // Hz
}

// ChannelMap turns the channel numbers in trunking messages into frequencies.
type ChannelMap struct {
	Name   string         `yaml:"name"`
	Ranges []ChannelRange `yaml:"ranges"`
}

func (m *ChannelMap) Validate() error {
	if m.Name == "" {
		return configError("channel map without a name")
	}

	var ranges = slices.Clone(m.Ranges)
	slices.SortFunc(ranges, func(a, b ChannelRange) int { return cmp.Compare(a.First, b.First) })

	for i, r := range ranges {
		if r.First < 0 || r.Last < r.First {
			return configError("channel map %q: range %d..%d", m.Name, r.First, r.Last)
		}
		if r.Base <= 0 || r.Spacing <= 0 {
			return configError("channel map %q: range %d..%d needs a base frequency and spacing", m.Name, r.First, r.Last)
		}
		if i > 0 && r.First <= ranges[i-1].Last {
			return configError("channel map %q: ranges %d..%d and %d..%d overlap", m.Name, ranges[i-1].First, ranges[i-1].Last, r.First, r.Last)
		}
	}

	return nil
}

// Frequency in Hz for channel, or false if no range covers it.
func (m *ChannelMap) Frequency(channel int) (int64, bool) {
	if m == nil {
		return 0, false
	}
	for _, r := range m.Ranges {
		if channel >= r.First && channel <= r.Last {
			return r.Base + int64(channel-r.First)*r.Spacing, true
		}
	}
	return 0, false
}
