package lmrdecode

/*------------------------------------------------------------------
 *
 * Purpose:	Decode MPT1327 frames.
 *
 * Description:	Control channel frames:
 *
 *		  codeword 0	CCSC, carrying the system identity
 *		  codeword 1	address codeword
 *		  codeword 2..	data codewords belonging to it
 *
 *		Traffic channel frames have no CCSC; the address
 *		codeword comes first.
 *
 *		The frame is dropped unless the leading codewords pass
 *		their check bits.  Data codewords are collected until
 *		one fails, is an address codeword, or the frame runs out.
 *
 *------------------------------------------------------------------*/

import (
	"errors"
	"fmt"
)

type MPT1327MessageProcessor struct {
	messageDispatcher
	channelMap *ChannelMap
}

func NewMPT1327MessageProcessor(aliases *AliasList, channelMap *ChannelMap) *MPT1327MessageProcessor {
	var p = &MPT1327MessageProcessor{channelMap: channelMap}
	p.init(DecoderMPT1327, aliases)
	return p
}

func (p *MPT1327MessageProcessor) Receive(frame MessageFrame) {
	var m, err = p.parse(frame)
	if err != nil {
		p.reject(frame, err)
		return
	}
	p.dispatch(m)
}

func (p *MPT1327MessageProcessor) parse(frame MessageFrame) (*MPT1327Message, error) {
	var kind MPT1327ChannelKind
	switch frame.Pattern.Name() {
	case SyncMPT1327Control.Name(), SyncMPT1327ControlFrench.Name():
		kind = MPT1327ControlChannel
	case SyncMPT1327Traffic.Name(), SyncMPT1327TrafficFrench.Name():
		kind = MPT1327TrafficChannel
	default:
		return nil, fmt.Errorf("not an MPT1327 sync pattern: %s", frame.Pattern.Name())
	}

	var words = frame.Bits
	var codeword = func(i int) (uint64, bool) {
		var start = i * mpt1327CodewordBits
		if start+mpt1327CodewordBits > len(words) {
			return 0, false
		}
		return words.Uint(start, mpt1327CodewordBits), true
	}

	var m = &MPT1327Message{
		messageHeader: newMessageHeader(DecoderMPT1327, frame),
		Channel:       kind,
	}

	var next = 0

	if kind == MPT1327ControlChannel {
		var ccsc, ok = codeword(next)
		if !ok || !mpt1327CodewordValid(ccsc) {
			return nil, errors.New("CCSC codeword failed check")
		}
		if mpt1327IsAddress(mpt1327Info(ccsc)) {
			return nil, errors.New("expected CCSC, found address codeword")
		}
		m.SystemID = uint16(mpt1327Field(mpt1327Info(ccsc), 1, 15))
		next++
	}

	var address, ok = codeword(next)
	if !ok || !mpt1327CodewordValid(address) {
		return nil, errors.New("address codeword failed check")
	}
	var info = mpt1327Info(address)
	if !mpt1327IsAddress(info) {
		return nil, errors.New("expected address codeword, found data")
	}
	if err := mpt1327AddressFields(info, m); err != nil {
		return nil, err
	}
	next++

	if m.Type == MPT1327GoToChannel {
		if f, found := p.channelMap.Frequency(m.ChannelNumber); found {
			m.Frequency = f
		}
	}

	for {
		var word, ok = codeword(next)
		if !ok || !mpt1327CodewordValid(word) || mpt1327IsAddress(mpt1327Info(word)) {
			break
		}
		m.DataCodewords = append(m.DataCodewords, mpt1327Info(word))
		next++
	}

	return m, nil
}
