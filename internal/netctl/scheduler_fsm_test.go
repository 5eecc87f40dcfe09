package netctl

import (
	"testing"

	"uniotcore/internal/event"
	"uniotcore/internal/fourcc"
)

func collectConnection(bus *event.Bus) (*event.Listener, *[]event.Message) {
	var got []event.Message
	l := event.NewListener(func(_ event.Topic, msg event.Message) {
		got = append(got, msg)
	})
	l.Subscribe(fourcc.TopicConnection)
	bus.RegisterEntity(l)
	return l, &got
}

func TestSchedulerEmitsStateTransitions(t *testing.T) {
	bus := event.NewBus()
	_, got := collectConnection(bus)
	s := NewScheduler(bus)

	s.Connecting()
	s.Success()
	s.Disconnected()
	s.Failed()
	s.AccessPoint()
	s.Available()
	bus.Execute()

	want := []event.Message{
		fourcc.MsgConnConnecting,
		fourcc.MsgConnSuccess,
		fourcc.MsgConnDisconnected,
		fourcc.MsgConnFailed,
		fourcc.MsgConnAccessPoint,
		fourcc.MsgConnAvailable,
	}
	if len(*got) != len(want) {
		t.Fatalf("got %d events, want %d: %v", len(*got), len(want), *got)
	}
	for i, w := range want {
		if (*got)[i] != w {
			t.Errorf("event[%d] = %v, want %v", i, (*got)[i], w)
		}
	}
	if s.State() != StateAvailable {
		t.Errorf("final state = %v, want %v", s.State(), StateAvailable)
	}
}

type fakeCredStore struct {
	forgotten bool
	savedSSID string
	savedPass string
	forgetErr error
}

func (f *fakeCredStore) SaveCredentials(ssid, pass string) error {
	f.savedSSID, f.savedPass = ssid, pass
	return nil
}

func (f *fakeCredStore) ForgetCredentials() error {
	f.forgotten = true
	return f.forgetErr
}

func TestReconnectForcesConnecting(t *testing.T) {
	bus := event.NewBus()
	s := NewScheduler(bus)
	s.Success()
	s.Reconnect()
	if s.State() != StateConnecting {
		t.Fatalf("State() = %v, want %v", s.State(), StateConnecting)
	}
}

func TestForgetWipesCredentialsAndEntersAccessPoint(t *testing.T) {
	bus := event.NewBus()
	s := NewScheduler(bus)
	store := &fakeCredStore{}

	if err := s.Forget(store); err != nil {
		t.Fatalf("Forget: %v", err)
	}
	if !store.forgotten {
		t.Fatal("expected ForgetCredentials to be called")
	}
	if s.State() != StateAccessPoint {
		t.Fatalf("State() = %v, want %v", s.State(), StateAccessPoint)
	}
}

func TestSetCredentialsCommitsSynchronously(t *testing.T) {
	bus := event.NewBus()
	s := NewScheduler(bus)
	store := &fakeCredStore{}

	if err := s.SetCredentials(store, "my-ssid", "my-pass"); err != nil {
		t.Fatalf("SetCredentials: %v", err)
	}
	if store.savedSSID != "my-ssid" || store.savedPass != "my-pass" {
		t.Fatalf("got (%q, %q), want (%q, %q)", store.savedSSID, store.savedPass, "my-ssid", "my-pass")
	}
}
