package register

import (
	"uniotcore/internal/container"
	"uniotcore/internal/fourcc"
)

// TagDead is the sentinel tag written into an object-register slot once
// its backing record has been destroyed (spec.md §3, §4.F).
var TagDead = fourcc.MakeString("DEAD")

type objectSlot struct {
	tag      uint32
	handleID uint64
	dead     bool
}

// objectTable is the object half of the register manager (spec.md §3
// "Register (Object)"): name -> ordered (tag, handle) sequence, with
// handles dereferenced weakly through the live-records set. Backed by an
// OrderedMap so rangeTags walks names in link order instead of Go's
// randomized map iteration.
type objectTable struct {
	names *container.OrderedMap[string, []objectSlot]
}

func newObjectTable() *objectTable {
	return &objectTable{names: container.NewOrderedMap[string, []objectSlot]()}
}

func (t *objectTable) link(name string, r *Record, tag uint32) {
	slots, _ := t.names.Get(name)
	t.names.Set(name, append(slots, objectSlot{tag: tag, handleID: r.ID()}))
}

// get resolves the slot at (name, index), probing the live set before
// returning the backing value. A dead backing record rewrites the slot
// in place to the dead sentinel and reports absent, per spec.md §4.F.
func (t *objectTable) get(name string, index int) (any, bool) {
	slots, ok := t.names.Get(name)
	if !ok || index < 0 || index >= len(slots) {
		return nil, false
	}
	slot := &slots[index]
	if slot.dead {
		return nil, false
	}

	rec, alive := isAlive(slot.handleID)
	if !alive {
		slot.tag = uint32(TagDead)
		slot.handleID = 0
		slot.dead = true
		return nil, false
	}
	return rec.value, true
}

func (t *objectTable) length(name string) (int, bool) {
	slots, ok := t.names.Get(name)
	return len(slots), ok
}

// rangeTags calls fn with, per name in link order, the current tag
// sequence — dead slots report TagDead — for serialization (spec.md §4.F:
// "writes each object register as an array of tags, not handles").
func (t *objectTable) rangeTags(fn func(name string, tags []uint32)) {
	t.names.Range(func(name string, slots []objectSlot) bool {
		tags := make([]uint32, len(slots))
		for i, s := range slots {
			tags[i] = s.tag
		}
		fn(name, tags)
		return true
	})
}
