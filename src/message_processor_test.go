package lmrdecode

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func Test_FrameProcessorRaw(t *testing.T) {
	freshMetrics(t)

	var p = NewFrameProcessor(DecoderFleetsync2, nil, rawFrameParser(DecoderFleetsync2))
	var got collector[Message]
	p.AddMessageListener(&got)

	p.Receive(MessageFrame{Pattern: SyncFleetsync2, Bits: bitsOf("1010 0101 11")})

	require.Equal(t, 1, got.Len())
	var m = got.Values()[0].(*RawMessage)
	assert.Equal(t, DecoderFleetsync2, m.Protocol())
	assert.Equal(t, "Fleetsync II A5C", m.String())
	assert.Empty(t, m.Identifiers())
	assert.Equal(t, uint64(1), p.Decoded())
}

func Test_FrameProcessorRejects(t *testing.T) {
	quietLogs(t)
	freshMetrics(t)

	var p = NewFrameProcessor(DecoderLTRStandard, nil, func(MessageFrame) (Message, error) {
		return nil, errors.New("nope")
	})
	var got collector[Message]
	p.AddMessageListener(&got)

	p.Receive(MessageFrame{Pattern: SyncLTROutbound, Bits: bitsOf("1")})
	p.Receive(MessageFrame{Pattern: SyncLTROutbound, Bits: bitsOf("1")})

	assert.Zero(t, got.Len())
	assert.Equal(t, uint64(2), p.Invalid())
	assert.Zero(t, p.Decoded())
}

func p25Frame(nid string) MessageFrame {
	return MessageFrame{Pattern: SyncP25Phase1, Bits: concatBits(bitsOf(nid), make(BitString, 48))}
}

func Test_ParseP25NetworkID(t *testing.T) {
	var m, err = parseP25NetworkID(p25Frame("0010 0011 0100 0111"))
	require.NoError(t, err)

	var nid = m.(*P25NetworkID)
	assert.Equal(t, uint16(0x234), nid.NAC)
	assert.Equal(t, P25TrunkingSignalingDataUnit, nid.DataUnit)
	assert.Equal(t, []string{"NAC-234"}, nid.Identifiers())
	assert.Equal(t, "P25 NAC NAC-234 TSBK", nid.String())

	_, err = parseP25NetworkID(p25Frame("0010 0011 0100 0001"))
	assert.Error(t, err, "DUID 1 is not assigned")

	_, err = parseP25NetworkID(MessageFrame{Pattern: SyncP25Phase1, Bits: bitsOf("0101")})
	assert.Error(t, err)
}

func Test_P25AliasLookup(t *testing.T) {
	freshMetrics(t)

	var aliases = NewAliasList("nacs", map[string]string{"NAC-293": "County"})
	var p = NewFrameProcessor(DecoderP25Phase1, aliases, parseP25NetworkID)
	var got collector[Message]
	p.AddMessageListener(&got)

	p.Receive(p25Frame("0010 1001 0011 0111"))

	require.Equal(t, 1, got.Len())
	assert.Equal(t, "P25 NAC NAC-293 (County) TSBK", got.Values()[0].String())
}

func Test_P25DataUnitString(t *testing.T) {
	assert.Equal(t, "LDU1", P25LogicalLinkDataUnit1.String())
	assert.Equal(t, "DUID-1", P25DataUnit(1).String())
}
