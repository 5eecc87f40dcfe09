// Package netctl implements the network scheduler and controller of
// spec.md §4.K: a small state machine driving the status LED and
// recovery actions, a reboot-loop watchdog, and button-triggered
// credential reset/reconnect.
package netctl

import (
	"sync"

	"uniotcore/internal/event"
	"uniotcore/internal/fourcc"
)

// State is one of the network scheduler's lifecycle states (spec.md
// §4.K). Grounded on the teacher's own Phase enum idiom
// (machine.Phase/mesh.Phase): a small uint8 with a String method, guarded
// by a mutex rather than atomics since transitions also need to emit.
type State uint8

const (
	StateAccessPoint State = iota
	StateConnecting
	StateConnected
	StateDisconnected
	StateFailed
	StateAvailable
)

func (s State) String() string {
	switch s {
	case StateAccessPoint:
		return "access_point"
	case StateConnecting:
		return "connecting"
	case StateConnected:
		return "connected"
	case StateDisconnected:
		return "disconnected"
	case StateFailed:
		return "failed"
	case StateAvailable:
		return "available"
	default:
		return "unknown"
	}
}

// Scheduler is the network state machine of spec.md §4.K: states
// {AccessPoint, Connecting, Connected, Disconnected, Failed, Available},
// transitions emitted as events on fourcc.TopicConnection. Unlike the
// teacher's Phase.Transition, there is no validity table — the
// underlying Wi-Fi driver (out of scope per spec.md §1) can report any
// of these states at any time, so every transition is accepted.
type Scheduler struct {
	mu    sync.Mutex
	state State
	bus   *event.Bus
}

// NewScheduler creates a Scheduler starting in StateDisconnected, emitting
// its transitions on bus.
func NewScheduler(bus *event.Bus) *Scheduler {
	return &Scheduler{state: StateDisconnected, bus: bus}
}

// State returns the scheduler's current state.
func (s *Scheduler) State() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

func (s *Scheduler) transition(to State, msg fourcc.Message) {
	s.mu.Lock()
	s.state = to
	s.mu.Unlock()
	s.bus.EmitEvent(fourcc.TopicConnection, msg)
}

// Success reports a successful connection.
func (s *Scheduler) Success() { s.transition(StateConnected, fourcc.MsgConnSuccess) }

// AccessPoint reports the device has dropped into AP + captive-portal
// mode.
func (s *Scheduler) AccessPoint() { s.transition(StateAccessPoint, fourcc.MsgConnAccessPoint) }

// Connecting reports a connection attempt is underway.
func (s *Scheduler) Connecting() { s.transition(StateConnecting, fourcc.MsgConnConnecting) }

// Disconnected reports the connection was lost.
func (s *Scheduler) Disconnected() { s.transition(StateDisconnected, fourcc.MsgConnDisconnected) }

// Available reports the underlying network driver sees an SSID it can
// join but hasn't connected yet.
func (s *Scheduler) Available() { s.transition(StateAvailable, fourcc.MsgConnAvailable) }

// Failed reports a connection attempt failed outright.
func (s *Scheduler) Failed() { s.transition(StateFailed, fourcc.MsgConnFailed) }

// Reconnect forces a transition via Connecting (spec.md §4.K).
func (s *Scheduler) Reconnect() { s.Connecting() }

// Config drops into AP + captive portal to accept new credentials. The
// captive-portal HTTP server itself is out of scope (spec.md §1); this
// only performs the state transition the rest of the system reacts to.
func (s *Scheduler) Config() { s.AccessPoint() }

// CredentialStore is the narrow contract netctl needs to persist and
// wipe Wi-Fi credentials (the Wi-Fi driver itself is out of scope per
// spec.md §1).
type CredentialStore interface {
	SaveCredentials(ssid, pass string) error
	ForgetCredentials() error
}

// Forget wipes stored credentials and falls back to Config (spec.md
// §4.K).
func (s *Scheduler) Forget(store CredentialStore) error {
	if err := store.ForgetCredentials(); err != nil {
		return err
	}
	s.Config()
	return nil
}

// SetCredentials commits new Wi-Fi credentials synchronously (spec.md
// §4.K "setCredentials(ssid, pass)").
func (s *Scheduler) SetCredentials(store CredentialStore, ssid, pass string) error {
	return store.SaveCredentials(ssid, pass)
}
