// Package device implements the device side of the broker contract
// (spec.md §4.I): owns the stored script bytes, runs them at boot, and
// forwards broker messages into the Lisp engine.
package device

import (
	"strings"

	"uniotcore/internal/cbor"
	"uniotcore/internal/cose"
	"uniotcore/internal/event"
	"uniotcore/internal/fourcc"
	"uniotcore/internal/lisp"
	"uniotcore/internal/storage"
)

const (
	scriptStorageName = "script.cbor"

	subScriptPush = "script/push"
	subScriptRun  = "script/run"
	subEvent      = "event"
)

// LispDevice owns one device's stored script and forwards broker
// traffic into its Lisp engine. The MQTT kit (component J) decodes and
// verifies each incoming COSE_Sign1 envelope before calling Handle — by
// the time a payload reaches here it is already plaintext (spec.md §4.J:
// "the inner payload bytes are handed to device.handle(topic,
// payload)").
type LispDevice struct {
	deviceID string
	engine   *lisp.Engine
	store    *storage.CBORStore
	verifier cose.Verifier
	bus      *event.Bus
}

// NewLispDevice wires a LispDevice for deviceID. verifier is the owner's
// public key, exposed for the MQTT kit to check downstream envelopes
// against before calling Handle (spec.md §6: "Verification key is the
// publisher's public key (owner for downstream)").
func NewLispDevice(deviceID string, engine *lisp.Engine, store *storage.CBORStore, verifier cose.Verifier, bus *event.Bus) *LispDevice {
	return &LispDevice{deviceID: deviceID, engine: engine, store: store, verifier: verifier, bus: bus}
}

// DeviceID returns the device identifier this handle was created for.
func (d *LispDevice) DeviceID() string { return d.deviceID }

// Verifier returns the owner's public key verifier, for the MQTT kit to
// check incoming envelopes against.
func (d *LispDevice) Verifier() cose.Verifier { return d.verifier }

// SubscriptionTopics lists the device-scoped topic suffixes this device
// needs subscribed on its behalf (spec.md §4.I, §6).
func (d *LispDevice) SubscriptionTopics() []string {
	return []string{subScriptPush, subScriptRun, subEvent}
}

// Handle dispatches an already topic-matched, already-verified MQTT
// payload to the right action by suffix (spec.md §4.J: "handed to
// device.handle(topic, payload)").
func (d *LispDevice) Handle(topic string, payload []byte) error {
	switch {
	case strings.HasSuffix(topic, subScriptPush):
		return d.HandlePushScript(payload)
	case strings.HasSuffix(topic, subScriptRun):
		return d.HandleRunAdHoc(payload)
	case strings.HasSuffix(topic, subEvent):
		return d.handleEvent(payload)
	default:
		return nil
	}
}

// RunStoredCode restores and runs the last persisted script — called
// once at boot.
func (d *LispDevice) RunStoredCode() error {
	src, ok := StoredScript(d.store)
	if !ok {
		return nil
	}
	return d.engine.RunCode(src)
}

// HandlePushScript persists a new script payload and runs it.
func (d *LispDevice) HandlePushScript(payload []byte) error {
	if err := StoreScript(d.store, payload); err != nil {
		return err
	}
	return d.engine.RunCode(payload)
}

// StoredScript restores the last persisted script from store, the same
// record HandlePushScript writes and RunStoredCode reads at boot. Shared
// with cmd/uniotctl so the operator CLI can push/inspect scripts through
// the same storage path a broker push would use (spec.md §4.I).
func StoredScript(store *storage.CBORStore) ([]byte, bool) {
	obj, ok := store.Restore(scriptStorageName)
	if !ok {
		return nil, false
	}
	src := obj.GetBytes("script")
	if len(src) == 0 {
		return nil, false
	}
	return src, true
}

// StoreScript persists payload as the device's stored script.
func StoreScript(store *storage.CBORStore, payload []byte) error {
	obj := cbor.NewObject()
	obj.PutBytes("script", payload)
	return store.Store(scriptStorageName, obj)
}

// HandleRunAdHoc runs a one-shot script payload without persisting it.
func (d *LispDevice) HandleRunAdHoc(payload []byte) error {
	return d.engine.RunCode(payload)
}

// handleEvent forwards an inbound group/device event payload into the
// engine's incoming-event pipeline via the IN_EVENT channel and
// IN_LISP_EVENT/IN_NEW_EVENT notification (spec.md §4.G "Incoming
// events").
func (d *LispDevice) handleEvent(payload []byte) error {
	d.bus.SendDataToChannel(fourcc.TopicInEvent, payload)
	d.bus.EmitEvent(fourcc.TopicInLispEvent, fourcc.MsgInNewEvent)
	return nil
}

// PublishLispEvent mirrors what the push_event primitive produces, for
// broker-originated event publication outside the interpreter (spec.md
// §4.I).
func (d *LispDevice) PublishLispEvent(id string, value int64) {
	obj := cbor.NewObject()
	obj.PutText("eventID", id)
	obj.PutInt64("value", value)

	data, err := obj.Encode()
	if err != nil {
		return
	}
	d.bus.SendDataToChannel(fourcc.TopicOutEvent, data)
	d.bus.EmitEvent(fourcc.TopicOutEvent, fourcc.MsgOutLispEvent)
	d.bus.EmitEvent(fourcc.TopicOutEvent, fourcc.MsgOutNewEvent)
}
