package lmrdecode

/*------------------------------------------------------------------
 *
 * Purpose:	Decide which decoded messages a consumer wants to see.
 *
 * Description:	A filter set holds one filter per protocol the
 *		pipeline can produce.  A message passes if some filter
 *		that understands it lets it through.  Messages no
 *		filter understands are dropped.
 *
 *------------------------------------------------------------------*/

import (
	"sync"
)

type MessageFilter interface {
	Name() string

	// CanProcess reports whether this filter understands m.
	CanProcess(m Message) bool

	// Passes is only meaningful when CanProcess is true.
	Passes(m Message) bool
}

// AllPassFilter lets everything through.
type AllPassFilter struct{}

func (AllPassFilter) Name() string              { return "All messages" }
func (AllPassFilter) CanProcess(m Message) bool { return true }
func (AllPassFilter) Passes(m Message) bool     { return true }

// ProtocolFilter passes every message of one protocol while enabled.
type ProtocolFilter struct {
	protocol DecoderType

	mu      sync.RWMutex
	enabled bool
}

func NewProtocolFilter(protocol DecoderType) *ProtocolFilter {
	return &ProtocolFilter{protocol: protocol, enabled: true}
}

func (f *ProtocolFilter) Name() string {
	return f.protocol.Label()
}

func (f *ProtocolFilter) CanProcess(m Message) bool {
	return m.Protocol() == f.protocol
}

func (f *ProtocolFilter) Passes(m Message) bool {
	f.mu.RLock()
	defer f.mu.RUnlock()
	return f.enabled
}

func (f *ProtocolFilter) SetEnabled(enabled bool) {
	f.mu.Lock()
	f.enabled = enabled
	f.mu.Unlock()
}

// MPT1327MessageFilter can switch individual message types on and off.
type MPT1327MessageFilter struct {
	mu       sync.RWMutex
	disabled map[MPT1327MessageType]bool
}

func NewMPT1327MessageFilter() *MPT1327MessageFilter {
	return &MPT1327MessageFilter{disabled: make(map[MPT1327MessageType]bool)}
}

func (f *MPT1327MessageFilter) Name() string {
	return "MPT1327"
}

func (f *MPT1327MessageFilter) CanProcess(m Message) bool {
	var _, ok = m.(*MPT1327Message)
	return ok
}

func (f *MPT1327MessageFilter) Passes(m Message) bool {
	var mpt, ok = m.(*MPT1327Message)
	if !ok {
		return false
	}
	f.mu.RLock()
	defer f.mu.RUnlock()
	return !f.disabled[mpt.Type]
}

func (f *MPT1327MessageFilter) SetEnabled(t MPT1327MessageType, enabled bool) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if enabled {
		delete(f.disabled, t)
	} else {
		f.disabled[t] = true
	}
}

type FilterSet struct {
	name    string
	filters []MessageFilter
}

func NewFilterSet(name string, filters ...MessageFilter) *FilterSet {
	return &FilterSet{name: name, filters: filters}
}

func (s *FilterSet) Name() string {
	return s.name
}

func (s *FilterSet) Add(f MessageFilter) {
	s.filters = append(s.filters, f)
}

func (s *FilterSet) Filters() []MessageFilter {
	return s.filters
}

func (s *FilterSet) CanProcess(m Message) bool {
	for _, f := range s.filters {
		if f.CanProcess(m) {
			return true
		}
	}
	return false
}

func (s *FilterSet) Passes(m Message) bool {
	for _, f := range s.filters {
		if f.CanProcess(m) && f.Passes(m) {
			return true
		}
	}
	return false
}

// messageFilterFor is the filter for one decoder type, or nil if the
// type has none of its own.
func messageFilterFor(t DecoderType) MessageFilter { //nolint:ireturn
	switch t {
	case DecoderMPT1327:
		return NewMPT1327MessageFilter()
	case DecoderP25Phase1, DecoderLTRStandard, DecoderLTRNet, DecoderPassport,
		DecoderFleetsync2, DecoderMDC1200, DecoderLJ1200, DecoderTait1200:
		return NewProtocolFilter(t)
	default:
		return nil
	}
}

// BuildMessageFilters makes the filter set for a channel's decoders.
// If none of them has a filter of its own the set passes everything.
func BuildMessageFilters(types []DecoderType) *FilterSet {
	var set = NewFilterSet("Message Filters")
	for _, t := range types {
		if f := messageFilterFor(t); f != nil {
			set.Add(f)
		}
	}
	if len(set.filters) == 0 {
		set.Add(AllPassFilter{})
	}
	return set
}
