package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"uniotcore/cmd/uniotctl/ui"
	"uniotcore/config"
	"uniotcore/internal/device"
	"uniotcore/internal/netctl"
	"uniotcore/internal/storage"
)

// statusCmd reports what's available from disk: the persisted config
// and the state database a running uniotd shares the machine with.
// Nothing here requires uniotd to be running — there is no control
// socket in this system (SPEC_FULL.md §0.1), so in-memory state like
// the live task list or network phase isn't reachable from here.
func statusCmd(configPath *string) *cobra.Command {
	return &cobra.Command{
		Use:   "status",
		Short: "Show device configuration and persisted state",
		RunE: func(cmd *cobra.Command, args []string) error {
			path := resolveConfigPath(*configPath)
			dev, err := config.Load(path)
			if err != nil {
				return fmt.Errorf("load config: %w", err)
			}
			id, err := config.DecodeIdentity(dev)
			if err != nil {
				return fmt.Errorf("decode identity: %w", err)
			}

			rebootCount := "n/a (no state file yet)"
			scriptDisplay := "none"
			if kv, err := storage.OpenSQLiteKV(config.StoragePath()); err == nil {
				defer kv.Close()
				store := storage.NewCBORStore(kv)
				rebootCount = fmt.Sprintf("%d", netctl.RebootCount(store))
				if src, ok := device.StoredScript(store); ok {
					scriptDisplay = fmt.Sprintf("%d bytes", len(src))
				}
			}

			fmt.Print(ui.KeyValues("",
				ui.KV("device id", dev.DeviceID),
				ui.KV("owner id", dev.OwnerID),
				ui.KV("broker", dev.BrokerAddr),
				ui.KV("device key", ui.Bool(len(id.PublicKey) > 0)),
				ui.KV("owner key configured", ui.Bool(id.OwnerPublicKey != nil)),
				ui.KV("button pin", pinDisplay(dev.HasButton(), dev.PinBtn)),
				ui.KV("led pin", pinDisplay(dev.HasLed(), dev.PinLed)),
				ui.KV("max reboot count", fmt.Sprintf("%d", dev.MaxRebootCount)),
				ui.KV("reboot window ms", fmt.Sprintf("%d", dev.RebootWindowMs)),
				ui.KV("persisted reboot count", rebootCount),
				ui.KV("stored script", scriptDisplay),
				ui.KV("config path", path),
				ui.KV("state path", config.StoragePath()),
			))
			return nil
		},
	}
}

func pinDisplay(has bool, pin uint8) string {
	if !has {
		return ui.Muted("absent")
	}
	return fmt.Sprintf("%d", pin)
}

func resolveConfigPath(configPath string) string {
	if configPath != "" {
		return configPath
	}
	return config.Path()
}
