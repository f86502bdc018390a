//go:build linux

package sysinfo

import (
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"runtime"
	"strconv"
	"strings"
)

var (
	powerSupplyDir = "/sys/class/power_supply"
	loadAvgPath    = "/proc/loadavg"
)

func readAttr(dir, name string) string {
	data, err := os.ReadFile(filepath.Join(dir, name))
	if err != nil {
		return ""
	}
	return strings.TrimSpace(string(data))
}

// Charging reports whether the machine runs on external power. A machine
// with no battery is considered to be charging.
func Charging() (bool, error) {
	entries, err := os.ReadDir(powerSupplyDir)
	if err != nil {
		return false, ErrUnsupported
	}
	sawBattery := false
	for _, e := range entries {
		dir := filepath.Join(powerSupplyDir, e.Name())
		switch readAttr(dir, "type") {
		case "Mains", "USB":
			if readAttr(dir, "online") == "1" {
				return true, nil
			}
		case "Battery":
			sawBattery = true
			switch readAttr(dir, "status") {
			case "Charging", "Full":
				return true, nil
			}
		}
	}
	return !sawBattery, nil
}

// BatteryLevel returns the first battery's charge in percent.
func BatteryLevel() (int, error) {
	entries, err := os.ReadDir(powerSupplyDir)
	if err != nil {
		return 0, ErrUnsupported
	}
	for _, e := range entries {
		dir := filepath.Join(powerSupplyDir, e.Name())
		if readAttr(dir, "type") != "Battery" {
			continue
		}
		level, err := strconv.Atoi(readAttr(dir, "capacity"))
		if err != nil {
			continue
		}
		return level, nil
	}
	return 0, ErrUnsupported
}

func loadPerCPU() (float64, error) {
	data, err := os.ReadFile(loadAvgPath)
	if err != nil {
		return 0, ErrUnsupported
	}
	load, err := parseLoadAvg(string(data))
	if err != nil {
		return 0, err
	}
	return load / float64(runtime.NumCPU()), nil
}

// parseLoadAvg reads the 1-minute average from /proc/loadavg content.
func parseLoadAvg(s string) (float64, error) {
	fields := strings.Fields(s)
	if len(fields) == 0 {
		return 0, fmt.Errorf("empty loadavg")
	}
	return strconv.ParseFloat(fields[0], 64)
}

// GetScreenDimensions returns the desktop dimensions on Linux.
func GetScreenDimensions() (int, int, error) {
	out, err := exec.Command("xdpyinfo").Output()
	if err != nil {
		return 0, 0, fmt.Errorf("failed to get screen resolution: %w", err)
	}
	return parseXdpyinfo(string(out))
}

// parseXdpyinfo looks for "dimensions:    1920x1080 pixels (508x285 millimeters)".
func parseXdpyinfo(out string) (int, int, error) {
	for _, line := range strings.Split(out, "\n") {
		if !strings.Contains(line, "dimensions:") {
			continue
		}
		parts := strings.Fields(line)
		if len(parts) < 2 {
			continue
		}
		dimensions := strings.Split(parts[1], "x")
		if len(dimensions) != 2 {
			continue
		}
		width, errW := strconv.Atoi(dimensions[0])
		height, errH := strconv.Atoi(dimensions[1])
		if errW == nil && errH == nil {
			return width, height, nil
		}
	}
	return 0, 0, fmt.Errorf("failed to parse screen resolution")
}
