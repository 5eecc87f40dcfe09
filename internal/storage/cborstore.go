package storage

import (
	"encoding/binary"
	"log/slog"

	"github.com/containerd/errdefs"

	"uniotcore/internal/buf"
	"uniotcore/internal/cbor"
)

// CBORStore restores and persists per-name CBOR blobs over a KV driver,
// each record framed as CBOR(body) || CRC32C(body) (spec.md §4.L, §6).
// Missing keys and CRC footer mismatches both read as absent, never
// error — callers initialize their own defaults.
type CBORStore struct {
	kv KV
}

// NewCBORStore wraps kv with CBOR/CRC framing.
func NewCBORStore(kv KV) *CBORStore {
	return &CBORStore{kv: kv}
}

// Restore reads name's blob, validates its CRC32-C footer, and decodes
// the body as a CBOR object. ok is false for a missing key, a truncated
// or corrupt footer, or an undecodable body.
func (s *CBORStore) Restore(name string) (obj *cbor.Object, ok bool) {
	blob, err := s.kv.Get(name)
	if err != nil {
		// Missing key and any other KV read failure both read as absent
		// to the caller — it initializes its own defaults either way —
		// but errdefs.IsNotFound distinguishes the two at this boundary,
		// so a real driver fault still gets logged instead of silently
		// looking like first boot.
		if !errdefs.IsNotFound(err) {
			slog.Warn("storage: kv get failed", "name", name, "error", err)
		}
		return nil, false
	}
	if len(blob) < 4 {
		return nil, false
	}
	footer := blob[len(blob)-4:]

	// The blob owns its own backing array; Prune narrows its logical
	// length to the body, the same way the source runtime narrows a
	// fixed-capacity buffer after stripping a trailing footer.
	body := buf.FromBytes(blob)
	body.Prune(len(blob) - 4)

	if binary.BigEndian.Uint32(footer) != body.CRC32C() {
		return nil, false
	}
	o, err := cbor.DecodeObject(body.Bytes())
	if err != nil {
		return nil, false
	}
	return o, true
}

// Store re-encodes obj and rewrites name's blob with a fresh CRC32-C
// footer, through a single KV write.
func (s *CBORStore) Store(name string, obj *cbor.Object) error {
	encoded, err := obj.Encode()
	if err != nil {
		return err
	}
	body := buf.FromBytes(encoded)
	footer := make([]byte, 4)
	binary.BigEndian.PutUint32(footer, body.CRC32C())
	return s.kv.Set(name, append(body.Bytes(), footer...))
}
