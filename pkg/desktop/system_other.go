//go:build !linux && !darwin && !windows

package desktop

import (
	"context"
	"fmt"
	"runtime"

	"github.com/rk/wallify/pkg/rotation"
)

type unsupportedSetter struct{}

func platformSetter(runner) setter {
	return unsupportedSetter{}
}

func (unsupportedSetter) set(context.Context, rotation.Slot, string) error {
	return fmt.Errorf("%w: %s", ErrSlotUnsupported, runtime.GOOS)
}
