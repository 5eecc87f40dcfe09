package register

import "sync"

// Record is a weakly-referenceable object-register backing value
// (spec.md §3 "Live records set"). It inserts itself into the
// process-wide live set on construction and removes itself on Destroy —
// the one hidden global the redesign notes (§9) explicitly allow,
// because the live set is intrinsically process-wide.
type Record struct {
	id    uint64
	value any
}

var (
	liveMu       sync.Mutex
	live         = make(map[uint64]*Record)
	nextRecordID uint64
)

// NewRecord wraps value as a live, weakly-referenceable record. value is
// what GetObject type-asserts back out.
func NewRecord(value any) *Record {
	liveMu.Lock()
	defer liveMu.Unlock()
	nextRecordID++
	r := &Record{id: nextRecordID, value: value}
	live[r.id] = r
	return r
}

// ID returns the record's handle id, stored in an object register slot.
func (r *Record) ID() uint64 { return r.id }

// Destroy removes the record from the live set. Subsequent
// GetObject lookups against its id report absent and rewrite their
// owning slot to the dead sentinel.
func (r *Record) Destroy() {
	liveMu.Lock()
	defer liveMu.Unlock()
	delete(live, r.id)
}

// isAlive probes the live set — the check the register manager performs
// before every object-register dereference.
func isAlive(id uint64) (*Record, bool) {
	liveMu.Lock()
	defer liveMu.Unlock()
	r, ok := live[id]
	return r, ok
}
