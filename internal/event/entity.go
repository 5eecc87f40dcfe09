// Package event implements the typed publish/subscribe bus of spec.md
// §4.E: bounded data channels keyed by topic, entity lifetime tracking,
// and a single-pass FIFO event drain invoked once per scheduler tick.
package event

import "sync/atomic"

// EntityID identifies an Entity in a Bus's reverse index. Per spec.md
// §9's cyclic-reference redesign note, the bus and its entities hold
// only opaque ids and mirrored sets — never intrusive back-pointers.
type EntityID uint64

var nextEntityID uint64

func newEntityID() EntityID {
	return EntityID(atomic.AddUint64(&nextEntityID, 1))
}

// Registerable is what a Bus needs from anything it tracks: an identity,
// and the two hooks it calls to keep the bus↔entity mirror in sync.
type Registerable interface {
	ID() EntityID
	attachedTo(b *Bus)
	detachedFrom(b *Bus)
}

// Entity is the base of emitters and listeners (spec.md §3): it tracks
// every bus it has joined so Destroy can unregister from all of them.
type Entity struct {
	id    EntityID
	buses map[*Bus]struct{}
}

// NewEntity allocates a fresh Entity with its own process-lifetime id.
func NewEntity() Entity {
	return Entity{id: newEntityID(), buses: make(map[*Bus]struct{})}
}

// ID returns the entity's identity within any bus it is registered on.
func (e *Entity) ID() EntityID { return e.id }

func (e *Entity) attachedTo(b *Bus) { e.buses[b] = struct{}{} }

func (e *Entity) detachedFrom(b *Bus) { delete(e.buses, b) }

// Destroy unregisters the entity from every bus it is currently attached
// to. Safe to call more than once, or on an entity attached to nothing.
func (e *Entity) Destroy() {
	for b := range e.buses {
		b.UnregisterEntity(e)
	}
}

// Emitter is an Entity that only ever calls Bus.EmitEvent — it carries no
// state beyond the base Entity.
type Emitter struct {
	Entity
}

// NewEmitter allocates a fresh Emitter.
func NewEmitter() *Emitter {
	e := NewEntity()
	return &Emitter{Entity: e}
}

// Listener is an Entity with a topic subscription set and a dispatch
// callback invoked by Bus.Execute for every matching event.
type Listener struct {
	Entity
	topics  map[Topic]struct{}
	onEvent func(topic Topic, msg Message)
}

// NewListener allocates a Listener that calls onEvent for every event on
// a subscribed topic, in the order Bus.Execute delivers them.
func NewListener(onEvent func(topic Topic, msg Message)) *Listener {
	return &Listener{Entity: NewEntity(), topics: make(map[Topic]struct{}), onEvent: onEvent}
}

// Subscribe adds topic to the listener's subscription set.
func (l *Listener) Subscribe(topic Topic) { l.topics[topic] = struct{}{} }

// Unsubscribe removes topic from the listener's subscription set.
func (l *Listener) Unsubscribe(topic Topic) { delete(l.topics, topic) }

func (l *Listener) subscribes(topic Topic) bool {
	_, ok := l.topics[topic]
	return ok
}

func (l *Listener) onEventReceived(topic Topic, msg Message) {
	if l.onEvent != nil {
		l.onEvent(topic, msg)
	}
}
