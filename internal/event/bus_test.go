package event

import "testing"

func TestDataChannelKeepsNewestOnOverflow(t *testing.T) {
	b := NewBus()
	topic := Topic(1)
	b.OpenDataChannel(topic, 2)

	b.SendDataToChannel(topic, []byte("a"))
	b.SendDataToChannel(topic, []byte("b"))
	b.SendDataToChannel(topic, []byte("c")) // drops "a"

	first, ok := b.ReceiveDataFromChannel(topic)
	if !ok || string(first) != "b" {
		t.Fatalf("first = %q, ok=%v, want \"b\"", first, ok)
	}
	second, ok := b.ReceiveDataFromChannel(topic)
	if !ok || string(second) != "c" {
		t.Fatalf("second = %q, ok=%v, want \"c\"", second, ok)
	}
	if !b.IsDataChannelEmpty(topic) {
		t.Fatalf("channel should be empty after draining both entries")
	}
}

func TestSendToUnopenedChannelFails(t *testing.T) {
	b := NewBus()
	if b.SendDataToChannel(Topic(99), []byte("x")) {
		t.Fatalf("send to unopened channel should fail")
	}
}

func TestCloseDataChannelDropsQueuedBytes(t *testing.T) {
	b := NewBus()
	topic := Topic(2)
	b.OpenDataChannel(topic, 4)
	b.SendDataToChannel(topic, []byte("x"))
	b.CloseDataChannel(topic)

	if !b.IsDataChannelEmpty(topic) {
		t.Fatalf("closed channel should read as empty")
	}
	if b.SendDataToChannel(topic, []byte("y")) {
		t.Fatalf("send to closed channel should fail")
	}
}

func TestExecuteDeliversInEmitOrder(t *testing.T) {
	b := NewBus()
	topic := Topic(10)

	var received []Message
	l := NewListener(func(_ Topic, msg Message) {
		received = append(received, msg)
	})
	l.Subscribe(topic)
	b.RegisterEntity(l)

	b.EmitEvent(topic, Message(1))
	b.EmitEvent(topic, Message(2))
	b.EmitEvent(topic, Message(3))
	b.Execute()

	want := []Message{1, 2, 3}
	if len(received) != len(want) {
		t.Fatalf("received = %v, want %v", received, want)
	}
	for i := range want {
		if received[i] != want[i] {
			t.Fatalf("received = %v, want %v", received, want)
		}
	}
}

func TestEventsEmittedDuringDispatchAreDeferred(t *testing.T) {
	b := NewBus()
	topicA := Topic(20)
	topicB := Topic(21)

	var order []string
	l := NewListener(func(topic Topic, msg Message) {
		if topic == topicA {
			order = append(order, "a")
			b.EmitEvent(topicB, Message(0)) // re-entrant emit
		} else {
			order = append(order, "b")
		}
	})
	l.Subscribe(topicA)
	l.Subscribe(topicB)
	b.RegisterEntity(l)

	b.EmitEvent(topicA, Message(0))
	b.Execute() // only "a" should run; the re-entrant emit is deferred

	if len(order) != 1 || order[0] != "a" {
		t.Fatalf("after first Execute, order = %v, want [a]", order)
	}

	b.Execute() // the deferred "b" event delivers now
	if len(order) != 2 || order[1] != "b" {
		t.Fatalf("after second Execute, order = %v, want [a b]", order)
	}
}

func TestUnregisterDuringDispatchAffectsOnlySubsequentEvents(t *testing.T) {
	b := NewBus()
	topic := Topic(30)

	var calls int
	var l *Listener
	l = NewListener(func(Topic, Message) {
		calls++
		b.UnregisterEntity(l)
	})
	l.Subscribe(topic)
	b.RegisterEntity(l)

	b.EmitEvent(topic, Message(1))
	b.EmitEvent(topic, Message(2))
	b.Execute()

	if calls != 1 {
		t.Fatalf("calls = %d, want 1 (unregistering mid-drain must not affect the in-flight event but must drop subsequent ones)", calls)
	}

	b.EmitEvent(topic, Message(3))
	b.Execute()
	if calls != 1 {
		t.Fatalf("calls = %d after unregister, want still 1", calls)
	}
}

func TestEntityDestroyUnregistersFromAllBuses(t *testing.T) {
	b1 := NewBus()
	b2 := NewBus()
	e := NewEmitter()
	b1.RegisterEntity(e)
	b2.RegisterEntity(e)

	e.Destroy()

	// Re-registering after Destroy should behave like a fresh register —
	// proof that UnregisterEntity actually ran against both buses.
	b1.RegisterEntity(e)
	if _, ok := b2.entities[e.ID()]; ok {
		t.Fatalf("entity still registered on b2 after Destroy")
	}
}
