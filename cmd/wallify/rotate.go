package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"os"
	"os/signal"
	"time"

	"github.com/rk/wallify/config"
	"github.com/rk/wallify/pkg/rotation"
	"github.com/rk/wallify/pkg/schedule"
	"github.com/spf13/cobra"
)

// rotateTimeout bounds a cycle delegated to the daemon.
const rotateTimeout = 5 * time.Minute

func newRotateCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "rotate",
		Short: "Change the wallpaper now",
		Long: "Runs one rotation cycle. When the daemon is running the request is " +
			"sent to it, cancelling any cycle it has in progress.",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt)
			defer stop()

			res, err := rotateOnce(ctx)
			if err != nil {
				return err
			}
			return printResult(cmd.OutOrStdout(), res)
		},
	}
}

func rotateOnce(ctx context.Context) (schedule.Result, error) {
	dataDir, err := config.EnsurePath()
	if err != nil {
		return schedule.Result{}, err
	}
	acquired, err := acquireLock(dataDir)
	if err != nil {
		return schedule.Result{}, err
	}
	if !acquired {
		p, _, err := openPrefs()
		if err != nil {
			return schedule.Result{}, err
		}
		return rotateRemote(ctx, http.DefaultClient, "http://"+config.NewAppConfig(p).GetAPIAddr())
	}
	defer releaseLock()

	d, err := newDeps(cascadePath)
	if err != nil {
		return schedule.Result{}, err
	}
	sched := schedule.New(d.orch, d.cfg, nil)
	return sched.Trigger(ctx, rotation.TriggerManual, schedule.PolicyReplace), nil
}

// rotateRemote asks a running daemon to rotate.
func rotateRemote(ctx context.Context, client *http.Client, baseURL string) (schedule.Result, error) {
	ctx, cancel := context.WithTimeout(ctx, rotateTimeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, baseURL+"/rotate", nil)
	if err != nil {
		return schedule.Result{}, err
	}
	resp, err := client.Do(req)
	if err != nil {
		return schedule.Result{}, fmt.Errorf("daemon is running but its API is unreachable: %w", err)
	}
	defer resp.Body.Close()

	var res schedule.Result
	if err := json.NewDecoder(resp.Body).Decode(&res); err != nil {
		return schedule.Result{}, fmt.Errorf("unexpected response from daemon (%s): %w", resp.Status, err)
	}
	return res, nil
}

func printResult(w io.Writer, res schedule.Result) error {
	switch res.Status {
	case schedule.StatusSuccess:
		status := "Wallpaper updated"
		if res.Outcome != nil && res.Outcome.Status != "" {
			status = res.Outcome.Status
		}
		fmt.Fprintln(w, status)
		return nil
	case schedule.StatusSkipped:
		fmt.Fprintf(w, "Skipped: %s\n", res.Reason)
		return nil
	default:
		return fmt.Errorf("rotation failed: %s", res.Reason)
	}
}
