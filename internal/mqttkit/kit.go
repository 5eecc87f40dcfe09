// Package mqttkit implements the MQTT side of the broker contract
// (spec.md §4.J): connects with signed credentials, publishes the
// LWT/status pair, dispatches incoming messages to devices by topic
// (MQTT wildcard rules), and re-subscribes on owner change.
package mqttkit

import (
	"crypto/ed25519"
	"fmt"
	"io"
	"log/slog"
	"sync/atomic"
	"time"

	mqtt "github.com/eclipse/paho.mqtt.golang"
	gocose "github.com/veraison/go-cose"

	"uniotcore/internal/cbor"
	"uniotcore/internal/cose"
	"uniotcore/internal/event"
	"uniotcore/internal/fourcc"
	"uniotcore/internal/identity"
	"uniotcore/internal/platform/timer"
	"uniotcore/internal/register"
	"uniotcore/internal/scheduler"
)

// Config carries the broker connection parameters fixed at construction
// (spec.md §6 "Configuration surface").
type Config struct {
	// BrokerURL defaults to the compile-time broker address
	// "tcp://mqtt.uniot.io:1883" if left empty.
	BrokerURL string
	// MaxPacketSize is advertised to the broker (MQTT_MAX_PACKET_SIZE).
	MaxPacketSize uint32
}

const defaultBrokerURL = "tcp://mqtt.uniot.io:1883"

// Kit composes a paho PubSub client with one device's broker credentials,
// the set of Devices it serves, and one scheduled (re)connect task
// (spec.md §4.J).
type Kit struct {
	cfg   Config
	creds *identity.Credentials
	regs  *register.Manager

	devices []Device

	client       mqtt.Client
	connectionID atomic.Int64
	subscribed   map[string]struct{}

	networkUp  atomic.Bool
	timeSynced atomic.Bool

	bus           *event.Bus
	listener      *event.Listener
	eventListener *event.Listener

	task *scheduler.Task
	log  *slog.Logger
}

// NewKit wires a Kit for creds against bus's CONNECTION topic, serving
// devices. newTimer backs the kit's single scheduled task. regs, if
// non-nil, is serialized into the LWT/status payload's "misc.registers"
// field (spec.md §6).
func NewKit(cfg Config, creds *identity.Credentials, bus *event.Bus, newTimer timer.Factory, regs *register.Manager, devices ...Device) *Kit {
	if cfg.BrokerURL == "" {
		cfg.BrokerURL = defaultBrokerURL
	}
	k := &Kit{
		cfg:        cfg,
		creds:      creds,
		regs:       regs,
		devices:    devices,
		subscribed: make(map[string]struct{}),
		bus:        bus,
		log:        slog.Default(),
	}
	k.listener = event.NewListener(k.onConnectionEvent)
	k.listener.Subscribe(fourcc.TopicConnection)
	k.eventListener = event.NewListener(k.onOutEvent)
	k.eventListener.Subscribe(fourcc.TopicOutEvent)
	k.task = scheduler.NewTask("mqtt.kit", newTimer, k.taskFired)
	return k
}

// RegisterEntities satisfies event.Kit, wiring the kit's CONNECTION and
// OUT_EVENT listeners onto bus.
func (k *Kit) RegisterEntities(b *event.Bus) {
	b.RegisterEntity(k.listener)
	b.RegisterEntity(k.eventListener)
}

// UnregisterEntities satisfies event.Kit.
func (k *Kit) UnregisterEntities(b *event.Bus) {
	b.UnregisterEntity(k.listener)
	b.UnregisterEntity(k.eventListener)
}

// RegisterTasks satisfies scheduler.Kit, arming the kit's single
// (re)connect/renewal task (spec.md §4.D "push(connectionKit)").
func (k *Kit) RegisterTasks(s *scheduler.Scheduler) {
	s.Push("mqtt.kit", k.task)
	_ = k.task.Attach(2000, 0)
}

// MarkTimeSynced records that the device's clock has completed NTP sync
// (spec.md §4.J "On network up and time-synced events"). Connect attempts
// are withheld until both this and network-up are true.
func (k *Kit) MarkTimeSynced(synced bool) { k.timeSynced.Store(synced) }

func (k *Kit) onConnectionEvent(_ event.Topic, msg event.Message) {
	switch msg {
	case fourcc.MsgConnSuccess, fourcc.MsgConnAvailable:
		k.networkUp.Store(true)
	case fourcc.MsgConnDisconnected, fourcc.MsgConnFailed, fourcc.MsgConnAccessPoint:
		k.networkUp.Store(false)
	}
}

// onOutEvent drains the OUT_EVENT data channel and publishes each queued
// push_event payload to the owner's "all" group event topic, retained, so
// a subscriber connecting after the fact still sees the last value
// (spec.md §6 "CBOR event payload", §8 scenario 5).
func (k *Kit) onOutEvent(_ event.Topic, msg event.Message) {
	switch msg {
	case fourcc.MsgOutNewEvent, fourcc.MsgOutLispEvent:
	default:
		return
	}
	for {
		data, ok := k.bus.ReceiveDataFromChannel(fourcc.TopicOutEvent)
		if !ok {
			return
		}
		obj, err := cbor.DecodeObject(data)
		if err != nil {
			k.log.Warn("mqttkit: dropping malformed out event", "error", err)
			continue
		}
		eventID := obj.GetText("eventID")
		if eventID == "" {
			continue
		}
		topic := EventTopic(k.creds.OwnerID, eventID)
		if err := k.Publish(topic, data, true, true); err != nil {
			k.log.Warn("mqttkit: publish event failed", "topic", topic, "error", err)
		}
	}
}

// taskFired is the kit's single scheduled task: (re)connects when
// network+time preconditions are met and the client is not already
// connected, and handles owner-changed renewal after a successful
// connect (spec.md §4.J "Renewal").
func (k *Kit) taskFired(self *scheduler.Task, repeatsLeft int32) {
	if k.client == nil || !k.client.IsConnectionOpen() {
		if !k.networkUp.Load() || !k.timeSynced.Load() {
			return
		}
		if err := k.connect(); err != nil {
			k.log.Warn("mqttkit: connect failed", "error", err)
			k.bus.EmitEvent(fourcc.TopicConnection, fourcc.MsgConnFailed)
		}
		return
	}
	if k.creds.OwnerChanged {
		k.resubscribeAll()
		k.creds.AckOwnerChange()
	}
}

// connect builds the signed broker password, last-will payload, and
// paho client options, then opens the connection (spec.md §4.J, §6
// "Broker authentication").
func (k *Kit) connect() error {
	password, err := identity.BuildBrokerPassword(*k.creds, time.Now().UnixMilli())
	if err != nil {
		return fmt.Errorf("mqttkit: build broker password: %w", err)
	}

	connID := k.connectionID.Add(1)
	statusTopic := StatusTopic(k.creds.OwnerID, k.creds.DeviceID)

	will := cbor.NewObject()
	will.PutInt64("online", 0)
	will.PutInt64("connection_id", connID)
	k.putMisc(will)
	willPayload, err := will.Encode()
	if err != nil {
		return fmt.Errorf("mqttkit: encode LWT payload: %w", err)
	}

	opts := mqtt.NewClientOptions()
	opts.AddBroker(k.cfg.BrokerURL)
	opts.SetClientID(k.creds.ClientID())
	opts.SetUsername(string(k.creds.PublicKey))
	opts.SetPassword(string(password))
	opts.SetWill(statusTopic, string(willPayload), 1, true)
	opts.SetCleanSession(true)
	// Reconnect is driven by the kit's own scheduled task, not paho's
	// internal retry loop, so a single task tick always reflects the
	// current connection state (spec.md §7 "MQTT connect fail ... retry
	// next task tick").
	opts.SetAutoReconnect(false)
	opts.SetConnectionLostHandler(func(_ mqtt.Client, err error) {
		k.log.Warn("mqttkit: connection lost", "error", err)
	})
	opts.SetDefaultPublishHandler(k.onMessage)
	opts.SetOnConnectHandler(func(c mqtt.Client) {
		k.onConnect(c, connID, statusTopic)
	})

	k.client = mqtt.NewClient(opts)
	token := k.client.Connect()
	if !token.WaitTimeout(5*time.Second) || token.Error() != nil {
		if err := token.Error(); err != nil {
			return err
		}
		return fmt.Errorf("mqttkit: connect timed out")
	}
	return nil
}

// onConnect publishes the paired online=1 retained status message and
// (re)subscribes every device's topics (spec.md §4.J).
func (k *Kit) onConnect(c mqtt.Client, connID int64, statusTopic string) {
	status := cbor.NewObject()
	status.PutInt64("online", 1)
	status.PutInt64("connection_id", connID)
	k.putMisc(status)
	payload, err := status.Encode()
	if err != nil {
		k.log.Warn("mqttkit: encode status payload", "error", err)
		return
	}
	c.Publish(statusTopic, 1, true, payload)
	k.resubscribeAll()
	k.bus.EmitEvent(fourcc.TopicConnection, fourcc.MsgConnSuccess)
}

// putMisc serializes the register manager's GPIO/object tables into
// dst's "misc.registers" field, if a register manager was wired in
// (spec.md §6 "misc.registers").
func (k *Kit) putMisc(dst *cbor.Object) {
	if k.regs == nil {
		return
	}
	k.regs.SerializeRegisters(dst.Map("misc"))
}

// resubscribeAll tears down every current subscription and reissues one
// per device topic (spec.md §4.J "Renewal" — also used for the initial
// subscribe on connect).
func (k *Kit) resubscribeAll() {
	for filter := range k.subscribed {
		k.client.Unsubscribe(filter)
		delete(k.subscribed, filter)
	}
	for _, d := range k.devices {
		for _, sub := range d.SubscriptionTopics() {
			filter := DeviceTopic(k.creds.OwnerID, d.DeviceID(), sub)
			k.subscribed[filter] = struct{}{}
			k.client.Subscribe(filter, 1, nil)
		}
	}
}

// onMessage matches an incoming message against every device's
// subscription filters, verifies it as COSE_Sign1 against that device's
// verifier, and on success hands the decoded payload to device.Handle
// (spec.md §4.J "Topic dispatch").
func (k *Kit) onMessage(_ mqtt.Client, msg mqtt.Message) {
	topic := msg.Topic()
	for _, d := range k.devices {
		if !k.matchesDevice(d, topic) {
			continue
		}
		payload, ok := cose.Verify(msg.Payload(), d.Verifier(), nil)
		if !ok {
			k.log.Warn("mqttkit: dropping unverifiable payload", "topic", topic)
			return
		}
		if err := d.Handle(topic, payload); err != nil {
			k.log.Warn("mqttkit: device handle error", "topic", topic, "error", err)
		}
		return
	}
}

func (k *Kit) matchesDevice(d Device, topic string) bool {
	for _, sub := range d.SubscriptionTopics() {
		filter := DeviceTopic(k.creds.OwnerID, d.DeviceID(), sub)
		if MatchesTopicFilter(filter, topic) {
			return true
		}
	}
	return false
}

// Publish sends payload on topic, either wrapped in a signed COSE_Sign1
// envelope (sign=true) or in an unsigned envelope that any verifying
// reader will reject (sign=false) — spec.md §4.J "Publish with
// sign=true/false". retain sets the MQTT retained flag.
func (k *Kit) Publish(topic string, payload []byte, sign, retain bool) error {
	if k.client == nil || !k.client.IsConnectionOpen() {
		return fmt.Errorf("mqttkit: not connected")
	}
	var envelope []byte
	var err error
	if sign {
		envelope, err = cose.Sign(k.creds.Signer, k.creds.KeyID, nil, payload)
	} else {
		envelope, err = cose.Sign(unsignedStub{}, k.creds.KeyID, nil, payload)
	}
	if err != nil {
		return fmt.Errorf("mqttkit: build envelope: %w", err)
	}
	token := k.client.Publish(topic, 1, retain, envelope)
	token.Wait()
	return token.Error()
}

// unsignedStub backs Publish's sign=false path: it builds a structurally
// valid COSE_Sign1 envelope whose signature bytes are all zero, so any
// reader that actually verifies rejects it outright, matching spec.md
// §4.J's "readers that require a signature reject".
type unsignedStub struct{}

func (unsignedStub) Algorithm() gocose.Algorithm { return gocose.AlgorithmEdDSA }

func (unsignedStub) Sign(_ io.Reader, _ []byte) ([]byte, error) {
	return make([]byte, ed25519.SignatureSize), nil
}
