package lmrdecode

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"pgregory.net/rapid"
)

func Test_MPT1327Codeword(t *testing.T) {
	assert.Equal(t, uint64(0x3), MPT1327Codeword(0))
	assert.Equal(t, uint64(0x123400000000eac6), MPT1327Codeword(MPT1327CCSCInfo(0x1234)))
	assert.Equal(t, uint64(0xe4fff8000000b5eb), MPT1327Codeword(MPT1327AddressInfo(MPT1327ALH, 100, 8191, 0)))

	assert.True(t, mpt1327CodewordValid(0x3))
	assert.False(t, mpt1327CodewordValid(0xaaaaaaaaaaaaaaaa))
	assert.False(t, mpt1327CodewordValid(0x5555555555555555))
}

func Test_MPT1327CodewordSingleErrors(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		var info = rapid.Uint64Range(0, 1<<48-1).Draw(t, "info")
		var bit = rapid.IntRange(0, 63).Draw(t, "bit")

		var word = MPT1327Codeword(info)
		assert.True(t, mpt1327CodewordValid(word))
		assert.Equal(t, info, mpt1327Info(word))
		assert.False(t, mpt1327CodewordValid(word^1<<bit))
	})
}

func Test_MPT1327CodewordBits(t *testing.T) {
	var bits = MPT1327CodewordBits(0x8000000000000001)
	require.Len(t, bits, 64)
	assert.True(t, bits[0])
	assert.True(t, bits[63])
	assert.Equal(t, uint64(0x8000000000000001), bits.Uint(0, 64))
}

func Test_MPT1327AddressFieldsRoundTrip(t *testing.T) {
	var types = MPT1327MessageTypes()[1:] // Everything but GTC.

	rapid.Check(t, func(t *rapid.T) {
		var typ = rapid.SampledFrom(types).Draw(t, "type")
		var prefix = uint8(rapid.IntRange(0, 127).Draw(t, "prefix"))
		var ident1 = uint16(rapid.IntRange(0, 8191).Draw(t, "ident1"))
		var ident2 = uint16(rapid.IntRange(0, 8191).Draw(t, "ident2"))

		var m MPT1327Message
		require.NoError(t, mpt1327AddressFields(MPT1327AddressInfo(typ, prefix, ident1, ident2), &m))
		assert.Equal(t, typ, m.Type)
		assert.Equal(t, prefix, m.Prefix)
		assert.Equal(t, ident1, m.Ident1)
		assert.Equal(t, ident2, m.Ident2)
	})
}

func Test_MPT1327GoToChannelFields(t *testing.T) {
	var m MPT1327Message
	require.NoError(t, mpt1327AddressFields(MPT1327GoToChannelInfo(100, 1001, 517, 1002, true), &m))

	assert.Equal(t, MPT1327GoToChannel, m.Type)
	assert.Equal(t, uint8(100), m.Prefix)
	assert.Equal(t, uint16(1001), m.Ident1)
	assert.Equal(t, uint16(1002), m.Ident2)
	assert.Equal(t, 517, m.ChannelNumber)
	assert.True(t, m.DataCall)
}

func Test_MPT1327ReservedFields(t *testing.T) {
	var m MPT1327Message

	// CAT 1
	var info = MPT1327AddressInfo(MPT1327AHY, 1, 2, 3) | 1<<23
	assert.Error(t, mpt1327AddressFields(info, &m))

	// TYPE 0 FUNC 7
	info = MPT1327AddressInfo(MPT1327ALH, 1, 2, 3) | 7<<18
	assert.Error(t, mpt1327AddressFields(info, &m))
}

func Test_MPT1327MessageTypeString(t *testing.T) {
	assert.Equal(t, "GTC", MPT1327GoToChannel.String())
	assert.Equal(t, "AHYP", MPT1327AHYP.String())
	assert.Equal(t, "MPT1327MessageType(99)", MPT1327MessageType(99).String())
	assert.Len(t, MPT1327MessageTypes(), 32)
	assert.NotContains(t, MPT1327MessageTypes(), MPT1327Unknown)
}

/*------------------------------------------------------------------
 *
 * Processor
 *
 *------------------------------------------------------------------*/

func mpt1327Frame(pattern SyncPattern, infos ...uint64) MessageFrame {
	var words = make([]uint64, len(infos))
	for i, info := range infos {
		words[i] = MPT1327Codeword(info)
	}
	return MessageFrame{
		Pattern:   pattern,
		Bits:      mpt1327Payload(words...),
		Timestamp: time.Date(2026, 3, 4, 5, 6, 7, 0, time.UTC),
	}
}

func newTestMPT1327Processor(aliases *AliasList, channels *ChannelMap) (*MPT1327MessageProcessor, *collector[Message]) {
	var p = NewMPT1327MessageProcessor(aliases, channels)
	var got = &collector[Message]{}
	p.AddMessageListener(got)
	return p, got
}

func Test_MPT1327ProcessorAloha(t *testing.T) {
	freshMetrics(t)
	var p, got = newTestMPT1327Processor(nil, nil)

	p.Receive(mpt1327Frame(SyncMPT1327Control,
		MPT1327CCSCInfo(0x1234),
		MPT1327AddressInfo(MPT1327ALH, 100, 8191, 0),
	))

	require.Equal(t, 1, got.Len())
	var m = got.Values()[0].(*MPT1327Message)

	assert.Equal(t, MPT1327ControlChannel, m.Channel)
	assert.Equal(t, MPT1327ALH, m.Type)
	assert.Equal(t, uint16(0x1234), m.SystemID)
	assert.Equal(t, uint8(100), m.Prefix)
	assert.Equal(t, uint16(8191), m.Ident1)
	assert.Empty(t, m.DataCodewords)
	assert.Empty(t, m.Identifiers(), "ALLI is not an identity")
	assert.Equal(t, DecoderMPT1327, m.Protocol())
	assert.Equal(t, SyncMPT1327Control.Name(), m.SyncPattern())
	assert.Equal(t, 2026, m.Timestamp().Year())
	assert.Equal(t, "MPT1327 ALH SYS:1234 TO:ALLI", m.String())

	assert.Equal(t, uint64(1), p.Decoded())
	assert.Zero(t, p.Invalid())
}

func Test_MPT1327ProcessorGoToChannel(t *testing.T) {
	freshMetrics(t)

	var aliases = NewAliasList("fleet", map[string]string{
		"020-1001": "Alice",
		"020-10*":  "Fleet",
	})
	var channels = &ChannelMap{
		Name:   "band",
		Ranges: []ChannelRange{{First: 1, Last: 100, Base: 150_000_000, Spacing: 12_500}},
	}
	var p, got = newTestMPT1327Processor(aliases, channels)

	p.Receive(mpt1327Frame(SyncMPT1327Control,
		MPT1327CCSCInfo(1),
		MPT1327GoToChannelInfo(20, 1001, 5, 1002, false),
	))

	require.Equal(t, 1, got.Len())
	var m = got.Values()[0].(*MPT1327Message)

	assert.Equal(t, MPT1327GoToChannel, m.Type)
	assert.Equal(t, 5, m.ChannelNumber)
	assert.Equal(t, int64(150_050_000), m.Frequency)
	assert.Equal(t, []string{"020-1001", "020-1002"}, m.Identifiers())

	var alias, ok = m.Alias("020-1001")
	assert.True(t, ok)
	assert.Equal(t, "Alice", alias)
	assert.Equal(t, map[string]string{"020-1001": "Alice", "020-1002": "Fleet"}, m.Aliases())

	assert.Equal(t, "MPT1327 GTC SYS:0001 TO:020-1001 (Alice) FROM:020-1002 (Fleet) CHAN:5 FREQ:150.05000", m.String())
}

func Test_MPT1327ProcessorUnmappedChannel(t *testing.T) {
	freshMetrics(t)
	var p, got = newTestMPT1327Processor(nil, nil)

	p.Receive(mpt1327Frame(SyncMPT1327Control,
		MPT1327CCSCInfo(1),
		MPT1327GoToChannelInfo(100, 1001, 900, 1002, true),
	))

	require.Equal(t, 1, got.Len())
	var m = got.Values()[0].(*MPT1327Message)
	assert.Zero(t, m.Frequency)
	assert.Equal(t, "MPT1327 GTC SYS:0001 TO:100-1001 FROM:100-1002 CHAN:900 DATA", m.String())
}

func Test_MPT1327ProcessorDataCodewords(t *testing.T) {
	freshMetrics(t)
	var p, got = newTestMPT1327Processor(nil, nil)

	p.Receive(mpt1327Frame(SyncMPT1327Control,
		MPT1327CCSCInfo(1),
		MPT1327AddressInfo(MPT1327HEAD, 3, 40, 50),
		0x0123456789A,
		0x000000000001,
		MPT1327AddressInfo(MPT1327ACK, 3, 40, 50),
	))

	require.Equal(t, 1, got.Len())
	var m = got.Values()[0].(*MPT1327Message)
	assert.Equal(t, []uint64{0x0123456789A, 0x1}, m.DataCodewords, "stops at the next address codeword")
	assert.Equal(t, "MPT1327 HEAD SYS:0001 TO:003-0040 FROM:003-0050 DATA:[00123456789A 000000000001]", m.String())
}

func Test_MPT1327ProcessorTraffic(t *testing.T) {
	freshMetrics(t)
	var p, got = newTestMPT1327Processor(nil, nil)

	p.Receive(mpt1327Frame(SyncMPT1327TrafficFrench,
		MPT1327AddressInfo(MPT1327CLEAR, 7, 8, 9),
	))

	require.Equal(t, 1, got.Len())
	var m = got.Values()[0].(*MPT1327Message)
	assert.Equal(t, MPT1327TrafficChannel, m.Channel)
	assert.Equal(t, MPT1327CLEAR, m.Type)
	assert.Equal(t, "MPT1327 CLEAR TO:007-0008 FROM:007-0009", m.String())
}

func Test_MPT1327ProcessorRejects(t *testing.T) {
	var reg = freshMetrics(t)
	quietLogs(t)
	var p, got = newTestMPT1327Processor(nil, nil)

	var good = mpt1327Frame(SyncMPT1327Control, MPT1327CCSCInfo(1), MPT1327AddressInfo(MPT1327ALH, 1, 2, 0))

	var corrupt = good
	corrupt.Bits = append(BitString(nil), good.Bits...)
	corrupt.Bits[10] = !corrupt.Bits[10]

	var frames = []MessageFrame{
		corrupt,
		// Address codeword where the CCSC should be.
		mpt1327Frame(SyncMPT1327Control, MPT1327AddressInfo(MPT1327ALH, 1, 2, 0)),
		// Data codeword where the address should be.
		mpt1327Frame(SyncMPT1327Control, MPT1327CCSCInfo(1), MPT1327CCSCInfo(2)),
		// Reserved category.
		mpt1327Frame(SyncMPT1327Traffic, MPT1327AddressInfo(MPT1327AHY, 1, 2, 3)|1<<23),
		// Not an MPT1327 pattern at all.
		{Pattern: SyncP25Phase1, Bits: good.Bits},
		// Too short for an address codeword.
		{Pattern: SyncMPT1327Traffic, Bits: good.Bits[:40]},
	}
	for _, f := range frames {
		p.Receive(f)
	}

	assert.Zero(t, got.Len())
	assert.Equal(t, uint64(len(frames)), p.Invalid())
	assert.Contains(t, scrape(t, reg), `lmrdecode_frames_invalid_total{protocol="mpt1327"} 6`)

	p.Receive(good)
	assert.Equal(t, 1, got.Len())
}
