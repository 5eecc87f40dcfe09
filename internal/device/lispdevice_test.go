package device

import (
	"crypto/ed25519"
	"fmt"
	"testing"

	"github.com/containerd/errdefs"

	"uniotcore/internal/cose"
	"uniotcore/internal/event"
	"uniotcore/internal/fourcc"
	"uniotcore/internal/lisp"
	"uniotcore/internal/platform/gpio"
	"uniotcore/internal/platform/timer"
	"uniotcore/internal/register"
	"uniotcore/internal/scheduler"
	"uniotcore/internal/storage"
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

func newTestDevice(t *testing.T) (*LispDevice, *event.Bus) {
	t.Helper()
	pub, _, err := ed25519.GenerateKey(nil)
	if err != nil {
		t.Fatalf("generate key: %v", err)
	}

	driver := gpio.NewSimulated()
	regs := register.NewManager(driver)
	bus := event.NewBus()
	bus.OpenDataChannel(fourcc.TopicInEvent, 4)
	bus.OpenDataChannel(fourcc.TopicOutEvent, 4)
	newTimer, _ := timer.NewSimulated()
	sched := scheduler.New(nil)
	eng := lisp.NewEngine(bus, regs, sched, newTimer, 8000)

	store := storage.NewCBORStore(newMemKV())
	verifier := cose.Ed25519Verifier{PublicKey: pub}
	d := NewLispDevice("dev-1", eng, store, verifier, bus)
	return d, bus
}

func TestHandlePushScriptPersistsAndRuns(t *testing.T) {
	d, _ := newTestDevice(t)
	script := []byte(`(task -1 1000 (define x 1))`)

	if err := d.Handle("PUBLIC_UNIOT/users/owner/devices/dev-1/script/push", script); err != nil {
		t.Fatalf("Handle: %v", err)
	}
	if !d.engine.IsRunning() {
		t.Fatalf("expected engine to keep running for a self-scheduling script")
	}

	obj, ok := d.store.Restore(scriptStorageName)
	if !ok {
		t.Fatalf("expected pushed script to be persisted")
	}
	if string(obj.GetBytes("script")) != string(script) {
		t.Fatalf("persisted script = %q, want %q", obj.GetBytes("script"), script)
	}

	// A fresh device restoring from the same store should run the
	// persisted script at boot without needing the envelope again.
	d2, _ := newTestDevice(t)
	d2.store = d.store
	if err := d2.RunStoredCode(); err != nil {
		t.Fatalf("RunStoredCode: %v", err)
	}
	if !d2.engine.IsRunning() {
		t.Fatalf("expected restored script to run")
	}
}

func TestHandleRunAdHocDoesNotPersist(t *testing.T) {
	d, _ := newTestDevice(t)
	script := []byte(`(task -1 1000 (define y 2))`)

	if err := d.Handle("devices/dev-1/script/run", script); err != nil {
		t.Fatalf("Handle: %v", err)
	}
	if !d.engine.IsRunning() {
		t.Fatalf("expected ad-hoc script to run")
	}
	if _, ok := d.store.Restore(scriptStorageName); ok {
		t.Fatalf("expected ad-hoc script not to be persisted")
	}
}

func TestHandleEventForwardsToIncomingChannel(t *testing.T) {
	d, bus := newTestDevice(t)

	if err := d.Handle("devices/dev-1/event", []byte("payload-bytes")); err != nil {
		t.Fatalf("Handle: %v", err)
	}

	got, ok := bus.ReceiveDataFromChannel(fourcc.TopicInEvent)
	if !ok {
		t.Fatalf("expected forwarded payload on IN_EVENT channel")
	}
	if string(got) != "payload-bytes" {
		t.Fatalf("got %q, want %q", got, "payload-bytes")
	}
}

func TestPublishLispEventEncodesOnOutChannel(t *testing.T) {
	d, bus := newTestDevice(t)
	d.PublishLispEvent("ping", 42)

	data, ok := bus.ReceiveDataFromChannel(fourcc.TopicOutEvent)
	if !ok {
		t.Fatalf("expected a published event on OUT_EVENT channel")
	}
	if len(data) == 0 {
		t.Fatalf("expected non-empty encoded event")
	}
}

func TestUnmatchedTopicIsANoOp(t *testing.T) {
	d, _ := newTestDevice(t)
	if err := d.Handle("devices/dev-1/unknown", []byte("x")); err != nil {
		t.Fatalf("Handle: %v", err)
	}
}
