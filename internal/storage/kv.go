// Package storage implements the persistent CBOR storage of spec.md
// §4.L: per-name CBOR blobs with a CRC32-C footer, backed by a narrow KV
// driver contract. The underlying flash key/value storage driver is
// deliberately out of scope (spec.md §1); this package ships a
// SQLite-backed KV as the default host/gateway implementation, the way
// the teacher's own state store sits over modernc.org/sqlite.
package storage

// KV is the narrow key/value contract the persistent storage layer
// depends on. Implementations own durability; this package owns the
// CBOR/CRC framing on top. Get reports a missing key as an error
// satisfying errdefs.IsNotFound, not a boolean, so storage boundaries
// classify absence the same way the teacher's container backends do.
type KV interface {
	Get(name string) ([]byte, error)
	Set(name string, data []byte) error
}
