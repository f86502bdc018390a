package main

import (
	"context"
	"errors"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rk/wallify/config"
	"github.com/rk/wallify/pkg/api"
	"github.com/rk/wallify/pkg/rotation"
	"github.com/rk/wallify/pkg/schedule"
	"github.com/rk/wallify/pkg/sysinfo"
	"github.com/rk/wallify/util/log"
	"github.com/spf13/cobra"
)

func newRunCmd() *cobra.Command {
	var noBoot bool
	cmd := &cobra.Command{
		Use:   "run",
		Short: "Run the rotation daemon",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()
			return runDaemon(ctx, !noBoot)
		},
	}
	cmd.Flags().BoolVar(&noBoot, "no-boot", false, "do not rotate on start")
	return cmd
}

func runDaemon(ctx context.Context, bootTrigger bool) error {
	dataDir, err := config.EnsurePath()
	if err != nil {
		return err
	}
	acquired, err := acquireLock(dataDir)
	if err != nil {
		return err
	}
	if !acquired {
		return errors.New("another instance of " + config.AppName + " is already running")
	}
	defer releaseLock()

	d, err := newDeps(cascadePath)
	if err != nil {
		return err
	}
	d.cleanupScratch()

	checker := schedule.NewConstraintChecker(schedule.SystemProbes(rotation.NewDownloadClient()), dataDir)
	sched := schedule.New(d.orch, d.cfg, checker)

	var srv *api.Server
	if d.appCfg.GetAPIEnabled() {
		srv = api.NewServer(api.Options{
			Addr:      d.appCfg.GetAPIAddr(),
			Version:   config.AppVersion,
			Scheduler: sched,
			State:     d.orch,
			Store:     d.store,
			ExportDir: d.exportDir,
			Gatherer:  d.registry,
		})
		go func() {
			if err := srv.Start(); err != nil {
				log.Printf("API server stopped: %v", err)
			}
		}()
		go srv.Forward(ctx, d.orch.Events())
	}

	if err := sched.Start(ctx); err != nil {
		return err
	}
	// Called from inside prefs writes, where Config's lock may be held.
	d.prefs.AddChangeListener(func() {
		minutes := d.prefs.IntWithFallback(rotation.IntervalMinutesPrefKey, rotation.DefaultIntervalMinutes)
		if err := sched.Reschedule(ctx, minutes); err != nil {
			log.Printf("Failed to apply new interval: %v", err)
		}
	})

	if d.appCfg.GetPowerTriggerEnabled() {
		go sched.WatchPower(ctx, sysinfo.Charging, schedule.DefaultPowerPollInterval)
	}
	if bootTrigger {
		go func() {
			res := sched.Trigger(ctx, rotation.TriggerBoot, schedule.PolicyKeep)
			log.Printf("Boot trigger finished: %s %s", res.Status, res.Reason)
		}()
	}

	<-ctx.Done()
	log.Print("Shutting down...")
	sched.Stop()
	if srv != nil {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := srv.Stop(shutdownCtx); err != nil {
			log.Printf("API shutdown: %v", err)
		}
	}
	return nil
}
