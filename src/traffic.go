package lmrdecode

/*------------------------------------------------------------------
 *
 * Purpose:	Keep track of the traffic channels a control channel
 *		hands out.
 *
 * Description:	Each Go To Channel message allocates a traffic
 *		channel from a fixed size pool, or refreshes the
 *		allocation if the channel is already active.  An
 *		allocation not refreshed within the call timeout is
 *		released.  When the pool is full, new grants are
 *		rejected and reported, never queued.
 *
 *		Expiry is driven by message arrival and by explicit
 *		calls to Expire, so there is no goroutine to manage.
 *
 *------------------------------------------------------------------*/

import (
	"cmp"
	"slices"
	"sync"
	"time"

	"github.com/charmbracelet/log"
)

type TrafficEventKind int

const (
	TrafficAllocated TrafficEventKind = iota
	TrafficRefreshed
	TrafficReleased
	TrafficRejected // Pool exhausted.
)

func (k TrafficEventKind) String() string {
	switch k {
	case TrafficAllocated:
		return "allocated"
	case TrafficRefreshed:
		return "refreshed"
	case TrafficReleased:
		return "released"
	case TrafficRejected:
		return "rejected"
	default:
		return "unknown"
	}
}

type TrafficAllocation struct {
	Channel   int
	Frequency int64 // Hz, 0 if unknown.
	To        string
	From      string
	DataCall  bool
	Started   time.Time
	LastSeen  time.Time
}

type TrafficEvent struct {
	Kind       TrafficEventKind
	Allocation TrafficAllocation
}

type TrafficChannelManager struct {
	poolSize int
	timeout  time.Duration
	now      func() time.Time
	log      *log.Logger

	mu     sync.Mutex
	active map[int]*TrafficAllocation

	events Broadcaster[TrafficEvent]

	onChange func(active int)
}

func NewTrafficChannelManager(poolSize int, callTimeout time.Duration) (*TrafficChannelManager, error) {
	if poolSize < 1 || poolSize > MaxTrafficChannelPoolSize {
		return nil, configError("traffic channel pool size %d outside 1 .. %d", poolSize, MaxTrafficChannelPoolSize)
	}
	if callTimeout <= 0 {
		return nil, configError("call timeout %v", callTimeout)
	}

	return &TrafficChannelManager{
		poolSize: poolSize,
		timeout:  callTimeout,
		now:      time.Now,
		log:      logger.With("component", "traffic"),
		active:   make(map[int]*TrafficAllocation),
	}, nil
}

func (t *TrafficChannelManager) AddListener(l Listener[TrafficEvent]) func() {
	return t.events.AddListener(l)
}

// Receive looks for channel grants.  Everything else only drives expiry.
func (t *TrafficChannelManager) Receive(m Message) {
	var events = t.expire(t.now())

	if gtc, ok := m.(*MPT1327Message); ok && gtc.Type == MPT1327GoToChannel {
		events = append(events, t.grant(gtc))
	}

	t.publish(events)
}

// Expire releases allocations idle since before now minus the timeout.
func (t *TrafficChannelManager) Expire(now time.Time) {
	t.publish(t.expire(now))
}

// Active allocations ordered by channel number.
func (t *TrafficChannelManager) Active() []TrafficAllocation {
	t.mu.Lock()
	defer t.mu.Unlock()

	var out = make([]TrafficAllocation, 0, len(t.active))
	for _, a := range t.active {
		out = append(out, *a)
	}
	slices.SortFunc(out, func(a, b TrafficAllocation) int { return cmp.Compare(a.Channel, b.Channel) })
	return out
}

// Reset releases everything without reporting it.
func (t *TrafficChannelManager) Reset() {
	t.mu.Lock()
	clear(t.active)
	t.mu.Unlock()
	t.changed(0)
}

func (t *TrafficChannelManager) grant(m *MPT1327Message) TrafficEvent {
	var now = t.now()

	t.mu.Lock()
	defer t.mu.Unlock()

	var to = mpt1327Identifier(m.Prefix, m.Ident1)
	var from = mpt1327Identifier(m.Prefix, m.Ident2)

	if a, ok := t.active[m.ChannelNumber]; ok {
		a.LastSeen = now
		a.To = to
		a.From = from
		return TrafficEvent{Kind: TrafficRefreshed, Allocation: *a}
	}

	var a = TrafficAllocation{
		Channel:   m.ChannelNumber,
		Frequency: m.Frequency,
		To:        to,
		From:      from,
		DataCall:  m.DataCall,
		Started:   now,
		LastSeen:  now,
	}

	if len(t.active) >= t.poolSize {
		t.log.Warn("Traffic channel pool exhausted", "channel", a.Channel, "pool", t.poolSize)
		return TrafficEvent{Kind: TrafficRejected, Allocation: a}
	}

	t.active[a.Channel] = &a
	t.changedLocked()
	return TrafficEvent{Kind: TrafficAllocated, Allocation: a}
}

func (t *TrafficChannelManager) expire(now time.Time) []TrafficEvent {
	t.mu.Lock()
	defer t.mu.Unlock()

	var events []TrafficEvent
	for ch, a := range t.active {
		if now.Sub(a.LastSeen) > t.timeout {
			events = append(events, TrafficEvent{Kind: TrafficReleased, Allocation: *a})
			delete(t.active, ch)
		}
	}
	if len(events) > 0 {
		slices.SortFunc(events, func(a, b TrafficEvent) int { return cmp.Compare(a.Allocation.Channel, b.Allocation.Channel) })
		t.changedLocked()
	}
	return events
}

func (t *TrafficChannelManager) publish(events []TrafficEvent) {
	for _, e := range events {
		t.log.Debug("Traffic channel", "event", e.Kind, "channel", e.Allocation.Channel)
		t.events.Dispatch(e)
	}
}

func (t *TrafficChannelManager) changedLocked() {
	t.changed(len(t.active))
}

func (t *TrafficChannelManager) changed(active int) {
	if t.onChange != nil {
		t.onChange(active)
	}
}
