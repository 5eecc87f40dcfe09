package main

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"uniotcore/cmd/uniotctl/ui"
	"uniotcore/config"
	"uniotcore/internal/device"
	"uniotcore/internal/event"
	"uniotcore/internal/lisp"
	"uniotcore/internal/platform/gpio"
	"uniotcore/internal/platform/timer"
	"uniotcore/internal/register"
	"uniotcore/internal/scheduler"
	"uniotcore/internal/storage"
)

func scriptCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "script",
		Short: "Push or run a Lisp script against the device's state database",
	}
	cmd.AddCommand(scriptPushCmd())
	cmd.AddCommand(scriptRunCmd())
	return cmd
}

// scriptPushCmd persists file the way a broker "script/push" message
// would, through device.StoreScript, then runs it once through a scratch
// engine from newScratchEngine (simulated GPIO, fresh register manager,
// no store). This is the local-dev stand-in for a broker push
// named in SPEC_FULL.md §0.1.
func scriptPushCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "push <file>",
		Short: "Push a script into the device's persisted state and run it",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			src, err := os.ReadFile(args[0])
			if err != nil {
				return fmt.Errorf("read script: %w", err)
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

			if err := device.StoreScript(store, src); err != nil {
				return fmt.Errorf("store script: %w", err)
			}

			eng := newScratchEngine()
			if err := eng.RunCode(src); err != nil {
				return fmt.Errorf("run script: %w", err)
			}

			fmt.Println(ui.SuccessMsg("pushed %d bytes, running=%v", len(src), eng.IsRunning()))
			return nil
		},
	}
}

// scriptRunCmd evaluates file once without touching persisted state —
// the local-dev stand-in for a broker "script/run" ad-hoc message.
func scriptRunCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "run <file>",
		Short: "Run a script once without persisting it",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			src, err := os.ReadFile(args[0])
			if err != nil {
				return fmt.Errorf("read script: %w", err)
			}

			eng := newScratchEngine()
			if err := eng.RunCode(src); err != nil {
				return fmt.Errorf("run script: %w", err)
			}

			fmt.Println(ui.SuccessMsg("ran %d bytes, running=%v", len(src), eng.IsRunning()))
			return nil
		},
	}
}

// newScratchEngine builds a throwaway Lisp engine with no register
// wiring beyond a simulated GPIO driver — enough to evaluate a script's
// top-level forms without a live device underneath it.
func newScratchEngine() *lisp.Engine {
	driver := gpio.NewSimulated()
	regs := register.NewManager(driver)
	bus := event.NewBus()
	sched := scheduler.New(nil)
	newTimer, _ := timer.NewSimulated()
	return lisp.NewEngine(bus, regs, sched, newTimer, config.Defaults().LispHeapBytes)
}
