package mqttkit

import "uniotcore/internal/cose"

// Device is the contract the MQTT kit dispatches matched, verified
// payloads into — the device side of the broker contract (spec.md §4.I
// implemented against §4.J). internal/device.LispDevice is the one
// implementation shipped here.
type Device interface {
	// DeviceID identifies the device within its owner's scope, used to
	// build its device-scoped topic filters.
	DeviceID() string

	// Verifier is the key the kit checks this device's incoming
	// envelopes against (the owner's public key for downstream
	// messages, spec.md §6).
	Verifier() cose.Verifier

	// SubscriptionTopics lists the device-scoped topic suffixes this
	// device wants subscribed, e.g. "script/push".
	SubscriptionTopics() []string

	// Handle receives an already topic-matched, already-verified
	// plaintext payload.
	Handle(topic string, payload []byte) error
}
