//go:build !linux && !darwin && !windows

package sysinfo

// Charging is not supported on this platform.
func Charging() (bool, error) { return false, ErrUnsupported }

// BatteryLevel is not supported on this platform.
func BatteryLevel() (int, error) { return 0, ErrUnsupported }

func diskUsage(string) (uint64, uint64, error) { return 0, 0, ErrUnsupported }

func loadPerCPU() (float64, error) { return 0, ErrUnsupported }

// GetScreenDimensions is not supported on this platform.
func GetScreenDimensions() (int, int, error) { return 0, 0, ErrUnsupported }
