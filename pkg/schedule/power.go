package schedule

import (
	"context"
	"errors"
	"time"

	"github.com/rk/wallify/pkg/rotation"
	"github.com/rk/wallify/pkg/sysinfo"
	"github.com/rk/wallify/util/log"
)

// DefaultPowerPollInterval is how often WatchPower samples the charging state.
const DefaultPowerPollInterval = 30 * time.Second

// WatchPower polls probe and fires a power_connected trigger whenever the
// device goes from not charging to charging. It returns when ctx is done or
// the platform cannot report charging state.
func (s *Scheduler) WatchPower(ctx context.Context, probe func() (bool, error), interval time.Duration) {
	prev, err := probe()
	if errors.Is(err, sysinfo.ErrUnsupported) {
		log.Print("Power state not available on this platform; power trigger disabled.")
		return
	}

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			charging, err := probe()
			if err != nil {
				log.Debugf("Power probe failed: %v", err)
				continue
			}
			if charging && !prev {
				log.Print("Power connected, triggering rotation.")
				res := s.Trigger(ctx, rotation.TriggerPowerConnected, PolicyKeep)
				log.Printf("Power trigger finished: %s %s", res.Status, res.Reason)
			}
			prev = charging
		}
	}
}
