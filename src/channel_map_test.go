package lmrdecode

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func Test_ChannelMapFrequency(t *testing.T) {
	var m = &ChannelMap{
		Name: "site",
		Ranges: []ChannelRange{
			{First: 1, Last: 10, Base: 165_012_500, Spacing: 12_500},
			{First: 100, Last: 199, Base: 170_000_000, Spacing: 6_250},
		},
	}
	assert.NoError(t, m.Validate())

	var tests = []struct {
		channel int
		want    int64
		found   bool
	}{
		{1, 165_012_500, true},
		{10, 165_125_000, true},
		{11, 0, false},
		{100, 170_000_000, true},
		{150, 170_312_500, true},
		{0, 0, false},
	}

	for _, tt := range tests {
		var f, ok = m.Frequency(tt.channel)
		assert.Equal(t, tt.found, ok, "channel %d", tt.channel)
		assert.Equal(t, tt.want, f, "channel %d", tt.channel)
	}

	var none *ChannelMap
	var _, ok = none.Frequency(1)
	assert.False(t, ok)
}

func Test_ChannelMapValidate(t *testing.T) {
	var tests = []struct {
		name   string
		ranges []ChannelRange
	}{
		{"reversed", []ChannelRange{{First: 10, Last: 1, Base: 1, Spacing: 1}}},
		{"negative", []ChannelRange{{First: -1, Last: 1, Base: 1, Spacing: 1}}},
		{"no base", []ChannelRange{{First: 1, Last: 2, Spacing: 1}}},
		{"no spacing", []ChannelRange{{First: 1, Last: 2, Base: 1}}},
		{"overlap", []ChannelRange{
			{First: 50, Last: 60, Base: 1, Spacing: 1},
			{First: 1, Last: 50, Base: 1, Spacing: 1},
		}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var m = ChannelMap{Name: "m", Ranges: tt.ranges}
			assert.ErrorIs(t, m.Validate(), ErrConfiguration)
		})
	}

	var unnamed ChannelMap
	assert.ErrorIs(t, unnamed.Validate(), ErrConfiguration)
}
