package lmrdecode

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func mptFSK2Config(polarity Polarity, prefilter bool) FSK2Config {
	return FSK2Config{
		SampleRate:   24000,
		Baud:         1200,
		MarkHz:       1200,
		SpaceHz:      1800,
		Polarity:     polarity,
		UsePrefilter: prefilter,
	}
}

func Test_FSK2Demodulate(t *testing.T) {
	quietLogs(t)

	var tests = []struct {
		name      string
		polarity  Polarity
		prefilter bool
	}{
		{"normal", PolarityNormal, false},
		{"normal prefiltered", PolarityNormal, true},
		{"inverted", PolarityInverted, false},
		{"inverted prefiltered", PolarityInverted, true},
	}

	for i, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var d, err = NewFSK2Demodulator(mptFSK2Config(tt.polarity, tt.prefilter))
			require.NoError(t, err)

			var got collector[bool]
			d.Output().SetListener(&got)

			var bits = concatBits(alternatingBits(64), randomBits(testRand(uint64(i)), 400))

			// Inverted means a one is sent on the space tone.
			var one, zero = 1200.0, 1800.0
			if tt.polarity == PolarityInverted {
				one, zero = zero, one
			}
			feed(d, ffsk(bits, 24000, 1200, one, zero, 0.5), 24000, 480)

			assert.InDelta(t, len(bits), got.Len(), 5)
			assert.Zero(t, alignedErrors(got.Values(), bits, 80, 440, 12))
			assert.True(t, d.Locked())
		})
	}
}

func Test_FSK2Reset(t *testing.T) {
	quietLogs(t)

	var d, err = NewFSK2Demodulator(mptFSK2Config(PolarityNormal, true))
	require.NoError(t, err)

	var got collector[bool]
	d.Output().SetListener(&got)

	var bits = concatBits(alternatingBits(64), randomBits(testRand(9), 200))
	var audio = ffsk(bits, 24000, 1200, 1200, 1800, 0.5)

	feed(d, audio, 24000, 1000)
	var first = got.Values()
	require.True(t, d.Locked())

	d.Reset()
	assert.False(t, d.Locked())

	got = collector[bool]{}
	d.Output().SetListener(&got)
	feed(d, audio, 24000, 333)

	assert.Equal(t, first, got.Values(), "same output after reset, however it is chunked")
}

func Test_FSK2ConfigErrors(t *testing.T) {
	var good = mptFSK2Config(PolarityNormal, true)
	var d, err = NewFSK2Demodulator(good)
	require.NoError(t, err)
	assert.Equal(t, good, d.Config())

	var tests = []struct {
		name   string
		modify func(*FSK2Config)
	}{
		{"no sample rate", func(c *FSK2Config) { c.SampleRate = 0 }},
		{"no baud", func(c *FSK2Config) { c.Baud = 0 }},
		{"too few samples per bit", func(c *FSK2Config) { c.SampleRate = 4000 }},
		{"tone above nyquist", func(c *FSK2Config) { c.SpaceHz = 13000 }},
		{"same tones", func(c *FSK2Config) { c.SpaceHz = c.MarkHz }},
		{"zero tone", func(c *FSK2Config) { c.MarkHz = 0 }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var c = good
			tt.modify(&c)
			var _, err = NewFSK2Demodulator(c)
			assert.ErrorIs(t, err, ErrConfiguration)
		})
	}
}

func Test_PolarityString(t *testing.T) {
	assert.Equal(t, "normal", PolarityNormal.String())
	assert.Equal(t, "inverted", PolarityInverted.String())
}
