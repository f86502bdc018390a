//go:build windows

package sysinfo

import (
	"fmt"
	"unsafe"

	"golang.org/x/sys/windows"
)

var (
	user32               = windows.NewLazySystemDLL("user32.dll")
	kernel32             = windows.NewLazySystemDLL("kernel32.dll")
	getSystemMetrics     = user32.NewProc("GetSystemMetrics")
	getSystemPowerStatus = kernel32.NewProc("GetSystemPowerStatus")
)

const (
	smCXScreen = 0
	smCYScreen = 1
)

// systemPowerStatus mirrors SYSTEM_POWER_STATUS.
type systemPowerStatus struct {
	ACLineStatus        byte
	BatteryFlag         byte
	BatteryLifePercent  byte
	SystemStatusFlag    byte
	BatteryLifeTime     uint32
	BatteryFullLifeTime uint32
}

const (
	batteryFlagNoBattery  = 128
	batteryPercentUnknown = 255
)

func powerStatus() (systemPowerStatus, error) {
	var st systemPowerStatus
	r, _, err := getSystemPowerStatus.Call(uintptr(unsafe.Pointer(&st)))
	if r == 0 {
		return st, fmt.Errorf("GetSystemPowerStatus: %w", err)
	}
	return st, nil
}

// Charging reports whether the machine is on AC power.
func Charging() (bool, error) {
	st, err := powerStatus()
	if err != nil {
		return false, err
	}
	switch st.ACLineStatus {
	case 1:
		return true, nil
	case 0:
		return false, nil
	default:
		return false, ErrUnsupported
	}
}

// BatteryLevel returns the battery charge in percent.
func BatteryLevel() (int, error) {
	st, err := powerStatus()
	if err != nil {
		return 0, err
	}
	if st.BatteryFlag&batteryFlagNoBattery != 0 || st.BatteryLifePercent == batteryPercentUnknown {
		return 0, ErrUnsupported
	}
	return int(st.BatteryLifePercent), nil
}

func diskUsage(path string) (free, total uint64, err error) {
	p, err := windows.UTF16PtrFromString(path)
	if err != nil {
		return 0, 0, err
	}
	var totalFree uint64
	if err := windows.GetDiskFreeSpaceEx(p, &free, &total, &totalFree); err != nil {
		return 0, 0, fmt.Errorf("GetDiskFreeSpaceEx %s: %w", path, err)
	}
	return free, total, nil
}

// Windows exposes no load average.
func loadPerCPU() (float64, error) {
	return 0, ErrUnsupported
}

// GetScreenDimensions returns the primary desktop dimension (width and height) in pixels.
func GetScreenDimensions() (int, int, error) {
	width, _, err := getSystemMetrics.Call(uintptr(smCXScreen))
	if width == 0 {
		return 0, 0, err
	}
	height, _, err := getSystemMetrics.Call(uintptr(smCYScreen))
	if height == 0 {
		return 0, 0, err
	}
	return int(width), int(height), nil
}
