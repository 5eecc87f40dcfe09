package storage

import (
	"fmt"
	"testing"

	"github.com/containerd/errdefs"

	"uniotcore/internal/cbor"
)

type memKV struct{ m map[string][]byte }

func newMemKV() *memKV { return &memKV{m: make(map[string][]byte)} }

func (k *memKV) Get(name string) ([]byte, error) {
	v, ok := k.m[name]
	if !ok {
		return nil, fmt.Errorf("memkv: %q: %w", name, errdefs.ErrNotFound)
	}
	return v, nil
}

func (k *memKV) Set(name string, data []byte) error {
	k.m[name] = append([]byte(nil), data...)
	return nil
}

func TestCBORStoreRoundTrip(t *testing.T) {
	store := NewCBORStore(newMemKV())

	obj := cbor.NewObject()
	obj.PutText("name", "ctrl")
	obj.PutInt64("rebootCount", 2)

	if err := store.Store("ctrl.cbor", obj); err != nil {
		t.Fatalf("Store: %v", err)
	}

	restored, ok := store.Restore("ctrl.cbor")
	if !ok {
		t.Fatalf("expected Restore to succeed")
	}
	if restored.GetText("name") != "ctrl" || restored.GetInt64("rebootCount") != 2 {
		t.Fatalf("restored = %+v, want name=ctrl rebootCount=2", restored)
	}
}

func TestCBORStoreMissingKeyIsAbsent(t *testing.T) {
	store := NewCBORStore(newMemKV())
	if _, ok := store.Restore("nonexistent.cbor"); ok {
		t.Fatalf("expected absent for missing key")
	}
}

func TestCBORStoreCorruptFooterIsAbsent(t *testing.T) {
	kv := newMemKV()
	store := NewCBORStore(kv)

	obj := cbor.NewObject().PutInt64("v", 1)
	if err := store.Store("x.cbor", obj); err != nil {
		t.Fatalf("Store: %v", err)
	}

	blob := kv.m["x.cbor"]
	corrupt := append([]byte(nil), blob...)
	corrupt[0] ^= 0xFF // flip a body byte without touching the footer
	kv.m["x.cbor"] = corrupt

	if _, ok := store.Restore("x.cbor"); ok {
		t.Fatalf("expected absent after body corruption invalidates the CRC footer")
	}
}
