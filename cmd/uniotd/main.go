// Command uniotd is the on-device runtime daemon (spec.md, SPEC_FULL.md
// §0.1): wires the event bus, register manager, scheduler, Lisp engine,
// MQTT broker kit and network controller together and runs the
// cooperative scheduler loop until signaled.
package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"go.opentelemetry.io/otel"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"

	"uniotcore/config"
	"uniotcore/internal/cose"
	"uniotcore/internal/device"
	"uniotcore/internal/event"
	"uniotcore/internal/fourcc"
	"uniotcore/internal/identity"
	"uniotcore/internal/lisp"
	"uniotcore/internal/logging"
	"uniotcore/internal/mqttkit"
	"uniotcore/internal/netctl"
	"uniotcore/internal/platform/gpio"
	"uniotcore/internal/platform/timer"
	"uniotcore/internal/register"
	"uniotcore/internal/scheduler"
	"uniotcore/internal/storage"
)

const version = "0.1.0"

const (
	tickMs       = 20
	buttonTag    = uint32(1)
	longPressMs  = 1000
	ntpThreshold = 500 * time.Millisecond
)

func main() {
	tp := sdktrace.NewTracerProvider()
	otel.SetTracerProvider(tp)
	defer func() {
		_ = tp.Shutdown(context.Background())
	}()

	if err := logging.Configure(logging.LevelInfo); err != nil {
		_, _ = os.Stderr.WriteString("configure logger: " + err.Error() + "\n")
		os.Exit(1)
	}

	if err := rootCmd().Execute(); err != nil {
		slog.Error("command failed", "err", err)
		os.Exit(1)
	}
}

func rootCmd() *cobra.Command {
	var configPath string
	var debug bool

	cmd := &cobra.Command{
		Use:     "uniotd",
		Short:   "Uniot on-device runtime daemon",
		Version: version,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			level := logging.LevelInfo
			if debug {
				level = logging.LevelDebug
			}
			return logging.Configure(level)
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()
			return run(ctx, configPath)
		},
	}

	cmd.PersistentFlags().BoolVar(&debug, "debug", false, "Enable debug logging")
	cmd.Flags().StringVar(&configPath, "config", config.Path(), "Device config path")
	return cmd
}

func run(ctx context.Context, configPath string) error {
	dev, err := config.Bootstrap(configPath)
	if err != nil {
		return fmt.Errorf("bootstrap config: %w", err)
	}
	id, err := config.DecodeIdentity(dev)
	if err != nil {
		return fmt.Errorf("decode identity: %w", err)
	}
	if id.OwnerPublicKey == nil {
		slog.Warn("uniotd: no owner public key configured, inbound commands will be rejected until one is provisioned")
	}

	statePath := config.StoragePath()
	if err := os.MkdirAll(filepath.Dir(statePath), 0o755); err != nil {
		return fmt.Errorf("create state dir: %w", err)
	}
	kv, err := storage.OpenSQLiteKV(statePath)
	if err != nil {
		return fmt.Errorf("open state store: %w", err)
	}
	defer kv.Close()
	store := storage.NewCBORStore(kv)

	driver := gpio.NewSimulated()
	regs := register.NewManager(driver)
	bus := event.NewBus()
	bus.OpenDataChannel(fourcc.TopicInEvent, 16)
	bus.OpenDataChannel(fourcc.TopicOutEvent, 16)

	sched := scheduler.New(nil)
	newTimer := timer.NewRealtime()

	engine := lisp.NewEngine(bus, regs, sched, newTimer, dev.LispHeapBytes)

	verifier := cose.Ed25519Verifier{PublicKey: id.OwnerPublicKey}
	lispDevice := device.NewLispDevice(dev.DeviceID, engine, store, verifier, bus)
	if err := lispDevice.RunStoredCode(); err != nil {
		slog.Warn("uniotd: stored script failed at boot", "error", err)
	}

	creds := identity.NewCredentials(dev.DeviceID, dev.OwnerID, dev.OwnerID, id.PublicKey, id.PrivateKey, id.KeyID)
	mqttKit := mqttkit.NewKit(mqttkit.Config{
		BrokerURL:     "tcp://" + dev.BrokerAddr,
		MaxPacketSize: uint32(dev.MQTTMaxPacketSize),
	}, &creds, bus, newTimer, regs, lispDevice)

	netSched := netctl.NewScheduler(bus)
	watchdog := netctl.NewWatchdog(store, int64(dev.MaxRebootCount), uint32(dev.RebootWindowMs))

	var button *netctl.Button
	var controller *netctl.Controller
	if dev.HasButton() {
		button = netctl.NewButton(driver, dev.PinBtn, dev.ActiveLevelBtn, longPressMs, func(count int) {
			if controller != nil {
				controller.OnButtonLongPress(count)
			}
		})
	}
	controller = netctl.NewController(netSched, watchdog, driver, dev.PinLed, dev.HasLed(), dev.ActiveLevelLed, button, netctlCredentialAdapter{}, newTimer)

	if button != nil && dev.RegisterLispBtn {
		regs.Link("bclicked", register.NewRecord(button), buttonTag)
	}

	ntpSync := netctl.NewNTPSync("", ntpThreshold, newTimer, mqttKit.MarkTimeSynced)

	bus.RegisterKit(mqttKit)
	bus.RegisterKit(controller)
	sched.PushKit(mqttKit)
	sched.PushKit(controller)
	sched.PushKit(ntpSync)

	slog.Info("uniotd: running", "device_id", dev.DeviceID, "broker", dev.BrokerAddr)

	ticker := time.NewTicker(tickMs * time.Millisecond)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			slog.Info("uniotd: shutting down")
			return nil
		case <-ticker.C:
			sched.Loop(tickMs)
			bus.Execute()
		}
	}
}

// netctlCredentialAdapter satisfies netctl.CredentialStore. Wi-Fi
// provisioning itself is out of scope (spec.md §1); forgetting
// credentials just re-enters the access-point phase so a provisioning
// tool can reconfigure the device.
type netctlCredentialAdapter struct{}

func (netctlCredentialAdapter) SaveCredentials(ssid, pass string) error { return nil }
func (netctlCredentialAdapter) ForgetCredentials() error                { return nil }
