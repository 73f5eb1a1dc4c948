package lmrdecode

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func Test_MessageFilters(t *testing.T) {
	var alh = &MPT1327Message{messageHeader: messageHeader{protocol: DecoderMPT1327}, Type: MPT1327ALH}
	var gtcMessage = &MPT1327Message{messageHeader: messageHeader{protocol: DecoderMPT1327}, Type: MPT1327GoToChannel}
	var fleetsync = &RawMessage{messageHeader: messageHeader{protocol: DecoderFleetsync2}}
	var p25 = &P25NetworkID{messageHeader: messageHeader{protocol: DecoderP25Phase1}}

	var set = BuildMessageFilters([]DecoderType{DecoderMPT1327, DecoderFleetsync2})
	require.Len(t, set.Filters(), 2)
	assert.Equal(t, "Message Filters", set.Name())

	assert.True(t, set.Passes(alh))
	assert.True(t, set.Passes(gtcMessage))
	assert.True(t, set.Passes(fleetsync))
	assert.False(t, set.CanProcess(p25))
	assert.False(t, set.Passes(p25), "nothing understands it")

	var mpt = set.Filters()[0].(*MPT1327MessageFilter)
	mpt.SetEnabled(MPT1327ALH, false)
	assert.False(t, set.Passes(alh))
	assert.True(t, set.Passes(gtcMessage))
	mpt.SetEnabled(MPT1327ALH, true)
	assert.True(t, set.Passes(alh))

	var fs = set.Filters()[1].(*ProtocolFilter)
	assert.Equal(t, "Fleetsync II", fs.Name())
	fs.SetEnabled(false)
	assert.True(t, set.CanProcess(fleetsync))
	assert.False(t, set.Passes(fleetsync))
	assert.False(t, mpt.Passes(fleetsync))
}

func Test_MessageFiltersPassAll(t *testing.T) {
	var set = BuildMessageFilters([]DecoderType{DecoderNBFM})
	require.Len(t, set.Filters(), 1)
	assert.Equal(t, "All messages", set.Filters()[0].Name())
	assert.True(t, set.Passes(&RawMessage{messageHeader: messageHeader{protocol: DecoderMDC1200}}))

	set.Add(NewProtocolFilter(DecoderMDC1200))
	assert.Len(t, set.Filters(), 2)
}
