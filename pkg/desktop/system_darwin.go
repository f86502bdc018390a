//go:build darwin

package desktop

import (
	"context"
	"fmt"

	"github.com/rk/wallify/pkg/rotation"
)

type macSetter struct {
	run runner
}

func platformSetter(run runner) setter {
	return &macSetter{run: run}
}

// macOS derives the lock screen from the desktop picture.
func (m *macSetter) set(ctx context.Context, slot rotation.Slot, path string) error {
	if slot != rotation.SlotHome {
		return ErrSlotUnsupported
	}
	script := fmt.Sprintf(`tell application "System Events" to tell every desktop to set picture to POSIX file "%s"`, path)
	return m.run(ctx, "osascript", "-e", script)
}
