package config

import "fyne.io/fyne/v2"

// AppConfig holds the daemon-wide settings that are not part of a rotation
// cycle.
type AppConfig struct {
	prefs fyne.Preferences
}

// NewAppConfig creates a new AppConfig instance
func NewAppConfig(p fyne.Preferences) *AppConfig {
	return &AppConfig{prefs: p}
}

// APIEnabledKey is the key for the local API server preference
const APIEnabledKey = "apiEnabled"

// GetAPIEnabled returns whether the local API server should be started
func (c *AppConfig) GetAPIEnabled() bool {
	return c.prefs.BoolWithFallback(APIEnabledKey, true)
}

// SetAPIEnabled sets whether the local API server should be started
func (c *AppConfig) SetAPIEnabled(enabled bool) {
	c.prefs.SetBool(APIEnabledKey, enabled)
}

// APIAddrKey is the key for the local API listen address
const APIAddrKey = "apiAddr"

// GetAPIAddr returns the address the local API server binds to
func (c *AppConfig) GetAPIAddr() string {
	return c.prefs.StringWithFallback(APIAddrKey, DefaultAPIAddr)
}

// SetAPIAddr sets the address the local API server binds to
func (c *AppConfig) SetAPIAddr(addr string) {
	c.prefs.SetString(APIAddrKey, addr)
}

// PowerTriggerEnabledKey is the key for the power-connected trigger preference
const PowerTriggerEnabledKey = "powerTriggerEnabled"

// GetPowerTriggerEnabled returns whether connecting external power starts a cycle
func (c *AppConfig) GetPowerTriggerEnabled() bool {
	return c.prefs.BoolWithFallback(PowerTriggerEnabledKey, true)
}

// SetPowerTriggerEnabled sets whether connecting external power starts a cycle
func (c *AppConfig) SetPowerTriggerEnabled(enabled bool) {
	c.prefs.SetBool(PowerTriggerEnabledKey, enabled)
}

// ApplyModeKey is the key selecting how fitted images reach the desktop
const ApplyModeKey = "applyMode"

// Apply modes.
const (
	ApplyModeSystem = "system" // desktop environment commands
	ApplyModeExport = "export" // write files for an external host
)

// GetApplyMode returns the configured apply mode
func (c *AppConfig) GetApplyMode() string {
	switch mode := c.prefs.StringWithFallback(ApplyModeKey, ApplyModeSystem); mode {
	case ApplyModeExport:
		return mode
	default:
		return ApplyModeSystem
	}
}

// SetApplyMode sets the apply mode
func (c *AppConfig) SetApplyMode(mode string) {
	c.prefs.SetString(ApplyModeKey, mode)
}
