//go:build linux

package sysinfo

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func fakeSupply(t *testing.T, root, name string, attrs map[string]string) {
	t.Helper()
	dir := filepath.Join(root, name)
	require.NoError(t, os.MkdirAll(dir, 0755))
	for k, v := range attrs {
		require.NoError(t, os.WriteFile(filepath.Join(dir, k), []byte(v+"\n"), 0644))
	}
}

func withPowerSupplyDir(t *testing.T, dir string) {
	old := powerSupplyDir
	powerSupplyDir = dir
	t.Cleanup(func() { powerSupplyDir = old })
}

func TestChargingLinux(t *testing.T) {
	t.Run("ACOnline", func(t *testing.T) {
		root := t.TempDir()
		fakeSupply(t, root, "AC", map[string]string{"type": "Mains", "online": "1"})
		fakeSupply(t, root, "BAT0", map[string]string{"type": "Battery", "status": "Discharging", "capacity": "80"})
		withPowerSupplyDir(t, root)

		charging, err := Charging()
		require.NoError(t, err)
		assert.True(t, charging)
	})

	t.Run("OnBattery", func(t *testing.T) {
		root := t.TempDir()
		fakeSupply(t, root, "AC", map[string]string{"type": "Mains", "online": "0"})
		fakeSupply(t, root, "BAT0", map[string]string{"type": "Battery", "status": "Discharging", "capacity": "9"})
		withPowerSupplyDir(t, root)

		charging, err := Charging()
		require.NoError(t, err)
		assert.False(t, charging)

		low, err := BatteryLow()
		require.NoError(t, err)
		assert.True(t, low)
	})

	t.Run("NoBattery", func(t *testing.T) {
		withPowerSupplyDir(t, t.TempDir())

		charging, err := Charging()
		require.NoError(t, err)
		assert.True(t, charging)

		_, err = BatteryLevel()
		assert.ErrorIs(t, err, ErrUnsupported)
	})

	t.Run("NoSysfs", func(t *testing.T) {
		withPowerSupplyDir(t, filepath.Join(t.TempDir(), "missing"))
		_, err := Charging()
		assert.ErrorIs(t, err, ErrUnsupported)
	})
}

func TestIdleLinux(t *testing.T) {
	path := filepath.Join(t.TempDir(), "loadavg")
	old := loadAvgPath
	loadAvgPath = path
	t.Cleanup(func() { loadAvgPath = old })

	require.NoError(t, os.WriteFile(path, []byte("0.00 0.01 0.05 1/123 4567\n"), 0644))
	idle, err := Idle()
	require.NoError(t, err)
	assert.True(t, idle)

	require.NoError(t, os.WriteFile(path, []byte("512.00 400.00 300.00 9/999 1\n"), 0644))
	idle, err = Idle()
	require.NoError(t, err)
	assert.False(t, idle)
}

func TestParseXdpyinfo(t *testing.T) {
	w, h, err := parseXdpyinfo("screen #0:\n  dimensions:    2560x1440 pixels (677x381 millimeters)\n")
	require.NoError(t, err)
	assert.Equal(t, 2560, w)
	assert.Equal(t, 1440, h)

	_, _, err = parseXdpyinfo("nothing useful")
	assert.Error(t, err)
}

func TestStorageLowOnTempDir(t *testing.T) {
	_, err := StorageLow(t.TempDir())
	assert.NoError(t, err)

	_, err = StorageLow(filepath.Join(t.TempDir(), "does", "not", "exist"))
	assert.Error(t, err)
}
