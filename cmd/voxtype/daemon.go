package main

import (
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/peteonrails/voxtype/internal/app"
	"github.com/peteonrails/voxtype/internal/audio"
	"github.com/peteonrails/voxtype/internal/config"
	"github.com/peteonrails/voxtype/internal/metrics"
	"github.com/peteonrails/voxtype/internal/transcribe"
)

func newDaemonCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "daemon",
		Short: "Run the dictation daemon in the foreground (default action)",
		RunE:  runDaemon,
	}
}

func runDaemon(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	if err := audio.Initialize(); err != nil {
		return fmt.Errorf("initialize audio: %w", err)
	}
	defer audio.Terminate()

	executable, err := os.Executable()
	if err != nil {
		return fmt.Errorf("resolve own executable path: %w", err)
	}
	manager := transcribe.NewManager(cfg.Whisper, executable)

	daemon, err := app.New(cfg, manager, newRealCaptureFactory())
	if err != nil {
		return err
	}

	if metricsDir, err := config.GetMetricsDir(); err == nil {
		if mgr, err := metrics.NewMetricsManager(metricsDir); err == nil {
			daemon.SetMetricsManager(mgr)
		} else {
			log.Printf("[APP] metrics disabled: %v", err)
		}
	}

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)
	go func() {
		<-sigCh
		log.Print("[APP] shutting down")
		daemon.Stop()
	}()

	if !flagQuiet {
		fmt.Printf("voxtype daemon started (hotkey: %s, mode: %s)\n", cfg.Hotkey.Key, cfg.Hotkey.Mode)
	}
	return daemon.Run()
}
