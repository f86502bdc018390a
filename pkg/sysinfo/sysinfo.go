// Package sysinfo probes the host conditions that gate scheduled rotations
// and reports the primary screen size.
package sysinfo

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/rk/wallify/util/log"
)

// ErrUnsupported is returned by probes the current platform cannot answer.
var ErrUnsupported = errors.New("probe not supported on this platform")

// Thresholds
const (
	LowBatteryPercent = 15
	LowStoragePercent = 5
	LowStorageBytes   = 256 << 20
	IdleLoadPerCPU    = 0.5
)

// ConnectivityCheckURL answers 204 when the internet is reachable.
const ConnectivityCheckURL = "https://connectivitycheck.gstatic.com/generate_204"

// NetworkConnectivityCheckTimeout bounds a single connectivity probe.
const NetworkConnectivityCheckTimeout = 4 * time.Second

// BatteryLow reports whether the battery is below LowBatteryPercent.
func BatteryLow() (bool, error) {
	level, err := BatteryLevel()
	if err != nil {
		return false, err
	}
	return level < LowBatteryPercent, nil
}

// StorageLow reports whether the filesystem holding path is nearly full.
func StorageLow(path string) (bool, error) {
	free, total, err := diskUsage(path)
	if err != nil {
		return false, err
	}
	return storageLow(free, total), nil
}

func storageLow(free, total uint64) bool {
	if free < LowStorageBytes {
		return true
	}
	return total > 0 && free*100 < total*LowStoragePercent
}

// Idle reports whether the 1-minute load average is below IdleLoadPerCPU
// per logical CPU.
func Idle() (bool, error) {
	perCPU, err := loadPerCPU()
	if err != nil {
		return false, err
	}
	return perCPU < IdleLoadPerCPU, nil
}

// NetworkAvailable checks connectivity with a HEAD request to checkURL.
func NetworkAvailable(ctx context.Context, client *http.Client, checkURL string) bool {
	ctx, cancel := context.WithTimeout(ctx, NetworkConnectivityCheckTimeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodHead, checkURL, nil)
	if err != nil {
		log.Printf("NetworkAvailable: Error creating request: %v", err)
		return false
	}

	resp, err := client.Do(req)
	if err != nil {
		log.Printf("NetworkAvailable: Network check failed: %v", err)
		return false
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 200 && resp.StatusCode < 300 {
		return true
	}
	log.Printf("NetworkAvailable: Network check returned non-success status: %d", resp.StatusCode)
	return false
}
