//go:build windows

package desktop

import (
	"context"
	"fmt"
	"unsafe"

	"github.com/rk/wallify/pkg/rotation"
	"golang.org/x/sys/windows"
)

var (
	user32               = windows.NewLazySystemDLL("user32.dll")
	systemParametersInfo = user32.NewProc("SystemParametersInfoW")
)

const (
	spiSetDeskWallpaper = 0x0014
	spifUpdateIniFile   = 0x01
	spifSendChange      = 0x02
)

type windowsSetter struct{}

func platformSetter(runner) setter {
	return windowsSetter{}
}

// The lock screen image needs the WinRT personalization API, which is not
// reachable through user32.
func (windowsSetter) set(ctx context.Context, slot rotation.Slot, path string) error {
	if slot != rotation.SlotHome {
		return ErrSlotUnsupported
	}
	if err := ctx.Err(); err != nil {
		return err
	}
	imagePathUTF16, err := windows.UTF16PtrFromString(path)
	if err != nil {
		return err
	}
	ret, _, err := systemParametersInfo.Call(
		uintptr(spiSetDeskWallpaper),
		uintptr(0),
		uintptr(unsafe.Pointer(imagePathUTF16)),
		uintptr(spifUpdateIniFile|spifSendChange),
	)
	if ret == 0 {
		return fmt.Errorf("SystemParametersInfoW: %w", err)
	}
	return nil
}
