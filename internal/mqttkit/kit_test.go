package mqttkit

import (
	"crypto/ed25519"
	"testing"

	"uniotcore/internal/cose"
	"uniotcore/internal/event"
	"uniotcore/internal/fourcc"
	"uniotcore/internal/identity"
	"uniotcore/internal/platform/timer"
)

type fakeDevice struct {
	id       string
	verifier cose.Verifier
	topics   []string
	handled  []string
}

func (d *fakeDevice) DeviceID() string               { return d.id }
func (d *fakeDevice) Verifier() cose.Verifier         { return d.verifier }
func (d *fakeDevice) SubscriptionTopics() []string    { return d.topics }
func (d *fakeDevice) Handle(topic string, _ []byte) error {
	d.handled = append(d.handled, topic)
	return nil
}

func newTestKit(t *testing.T, devices ...Device) *Kit {
	t.Helper()
	pub, priv, err := ed25519.GenerateKey(nil)
	if err != nil {
		t.Fatalf("generate key: %v", err)
	}
	creds := identity.NewCredentials("dev-1", "owner-1", "creator-1", pub, priv, []byte{0x01})
	bus := event.NewBus()
	newTimer, _ := timer.NewSimulated()
	return NewKit(Config{}, &creds, bus, newTimer, nil, devices...)
}

func TestOnConnectionEventTracksNetworkUp(t *testing.T) {
	k := newTestKit(t)

	k.onConnectionEvent(fourcc.TopicConnection, fourcc.MsgConnSuccess)
	if !k.networkUp.Load() {
		t.Fatal("expected networkUp after MsgConnSuccess")
	}

	k.onConnectionEvent(fourcc.TopicConnection, fourcc.MsgConnDisconnected)
	if k.networkUp.Load() {
		t.Fatal("expected networkUp cleared after MsgConnDisconnected")
	}

	k.onConnectionEvent(fourcc.TopicConnection, fourcc.MsgConnAvailable)
	if !k.networkUp.Load() {
		t.Fatal("expected networkUp after MsgConnAvailable")
	}

	k.onConnectionEvent(fourcc.TopicConnection, fourcc.MsgConnFailed)
	if k.networkUp.Load() {
		t.Fatal("expected networkUp cleared after MsgConnFailed")
	}
}

func TestTaskFiredWithoutPreconditionsDoesNotPanic(t *testing.T) {
	k := newTestKit(t)
	// No network, no client: taskFired must no-op, not dial out.
	k.taskFired(nil, -1)
	if k.client != nil {
		t.Fatal("expected no client to be created without network+time preconditions")
	}
}

func TestMatchesDeviceDispatchesBySubscriptionFilter(t *testing.T) {
	d := &fakeDevice{id: "dev-1", topics: []string{"script/push", "event"}}
	k := newTestKit(t, d)

	if !k.matchesDevice(d, DeviceTopic("owner-1", "dev-1", "script/push")) {
		t.Fatal("expected push-script topic to match device")
	}
	if !k.matchesDevice(d, DeviceTopic("owner-1", "dev-1", "event")) {
		t.Fatal("expected event topic to match device")
	}
	if k.matchesDevice(d, DeviceTopic("owner-1", "dev-1", "unrelated")) {
		t.Fatal("expected unrelated suffix not to match")
	}
	if k.matchesDevice(d, DeviceTopic("owner-2", "dev-1", "script/push")) {
		t.Fatal("expected a different owner's topic not to match")
	}
}

func TestMarkTimeSyncedGatesConnect(t *testing.T) {
	pub, priv, err := ed25519.GenerateKey(nil)
	if err != nil {
		t.Fatalf("generate key: %v", err)
	}
	creds := identity.NewCredentials("dev-1", "owner-1", "creator-1", pub, priv, []byte{0x01})
	bus := event.NewBus()
	newTimer, _ := timer.NewSimulated()
	// A connection-refused loopback address fails fast instead of
	// dialing the real broker or waiting out the connect timeout.
	k := NewKit(Config{BrokerURL: "tcp://127.0.0.1:1"}, &creds, bus, newTimer, nil)

	k.onConnectionEvent(fourcc.TopicConnection, fourcc.MsgConnSuccess)
	k.taskFired(nil, -1)
	if k.client != nil {
		t.Fatal("expected no connect attempt before time sync")
	}

	k.MarkTimeSynced(true)
	// Connect is attempted now and fails immediately against the refused
	// loopback address, but taskFired must reach the dial attempt rather
	// than bailing out on the precondition check.
	k.taskFired(nil, -1)
	if k.client == nil {
		t.Fatal("expected a client to be constructed once both preconditions are met")
	}
}
