package event

import "uniotcore/internal/fourcc"

// Topic and Message are the event bus's vocabulary — FourCC tags shared
// with data channels by convention, though the two stores are
// independent (spec.md §3).
type Topic = fourcc.Topic
type Message = fourcc.Message

// listenerRef is the narrow view of a registered Listener the Bus
// dispatch loop needs, without depending on the concrete Listener type —
// lets RegisterEntity recognize listeners among arbitrary Registerables.
type listenerRef interface {
	ID() EntityID
	subscribes(topic Topic) bool
	onEventReceived(topic Topic, msg Message)
}

// Kit groups several entities that register as a unit (an MQTT device,
// a Lisp engine) — RegisterEntities must call Bus.RegisterEntity for
// each of its members (spec.md §4.E: "registerKit... delegates to the
// kit, which calls registerEntity for its members").
type Kit interface {
	RegisterEntities(b *Bus)
	UnregisterEntities(b *Bus)
}

type eventRecord struct {
	topic Topic
	msg   Message
}

// Bus is the typed publish/subscribe event bus of spec.md §4.E.
type Bus struct {
	entities  map[EntityID]Registerable
	listeners map[EntityID]listenerRef
	channels  map[Topic]*Channel
	pending   []eventRecord
}

// NewBus allocates an empty Bus.
func NewBus() *Bus {
	return &Bus{
		entities:  make(map[EntityID]Registerable),
		listeners: make(map[EntityID]listenerRef),
		channels:  make(map[Topic]*Channel),
	}
}

// RegisterEntity attaches e to the bus. Duplicate registration is a
// no-op.
func (b *Bus) RegisterEntity(e Registerable) {
	if _, ok := b.entities[e.ID()]; ok {
		return
	}
	b.entities[e.ID()] = e
	e.attachedTo(b)
	if l, ok := e.(listenerRef); ok {
		b.listeners[e.ID()] = l
	}
}

// UnregisterEntity detaches e from the bus. Symmetric with
// RegisterEntity; a no-op if e was never registered, or if called again
// after a prior unregister.
func (b *Bus) UnregisterEntity(e Registerable) {
	if _, ok := b.entities[e.ID()]; !ok {
		return
	}
	delete(b.entities, e.ID())
	delete(b.listeners, e.ID())
	e.detachedFrom(b)
}

// RegisterKit lets a Kit register its own member entities against this
// bus.
func (b *Bus) RegisterKit(k Kit) { k.RegisterEntities(b) }

// UnregisterKit lets a Kit unregister its own member entities.
func (b *Bus) UnregisterKit(k Kit) { k.UnregisterEntities(b) }

// OpenDataChannel opens a bounded data channel on topic with the given
// capacity. Idempotent — reopening an already-open topic is a no-op.
func (b *Bus) OpenDataChannel(topic Topic, capacity int) {
	if _, ok := b.channels[topic]; ok {
		return
	}
	b.channels[topic] = newChannel(capacity)
}

// CloseDataChannel closes topic's data channel, dropping any queued
// bytes. Idempotent.
func (b *Bus) CloseDataChannel(topic Topic) {
	delete(b.channels, topic)
}

// SendDataToChannel enqueues data on topic's channel. Returns false if
// the channel is not open; otherwise always succeeds, dropping the
// oldest queued entry if the channel was already full.
func (b *Bus) SendDataToChannel(topic Topic, data []byte) bool {
	ch, ok := b.channels[topic]
	if !ok {
		return false
	}
	return ch.send(data)
}

// ReceiveDataFromChannel pops and returns the front element of topic's
// channel, or ok=false if the channel is closed or empty.
func (b *Bus) ReceiveDataFromChannel(topic Topic) (data []byte, ok bool) {
	ch, open := b.channels[topic]
	if !open {
		return nil, false
	}
	return ch.receive()
}

// IsDataChannelEmpty reports whether topic's channel holds no data. A
// closed channel is reported empty.
func (b *Bus) IsDataChannelEmpty(topic Topic) bool {
	ch, ok := b.channels[topic]
	if !ok {
		return true
	}
	return ch.isEmpty()
}

// EmitEvent enqueues (topic, msg) onto the bus's pending queue, to be
// delivered on the next Execute call.
func (b *Bus) EmitEvent(topic Topic, msg Message) {
	b.pending = append(b.pending, eventRecord{topic: topic, msg: msg})
}

// Execute drains the pending queue exactly once: every listener whose
// subscription set contains a pending event's topic receives it, in
// emit order. Events emitted by listener callbacks during this drain —
// by b.pending being re-seeded from nil before the loop starts — land in
// the next Execute call instead of this one, preventing unbounded
// re-entrance (spec.md §4.E).
func (b *Bus) Execute() {
	batch := b.pending
	b.pending = nil

	for _, rec := range batch {
		for _, l := range b.listeners {
			if l.subscribes(rec.topic) {
				l.onEventReceived(rec.topic, rec.msg)
			}
		}
	}
}
