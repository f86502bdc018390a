package rotation

import (
	"errors"
	"fmt"
	"os"
	"os/user"
	"strings"
	"sync"

	"fyne.io/fyne/v2"
	"github.com/rk/wallify/util/log"
	"github.com/zalando/go-keyring"
)

// Constraints are the host conditions a scheduled cycle waits for.
type Constraints struct {
	RequireCharging      bool `json:"requireCharging"`
	RequireNetwork       bool `json:"requireNetwork"`
	RequireBatteryNotLow bool `json:"requireBatteryNotLow"`
	RequireStorageNotLow bool `json:"requireStorageNotLow"`
	RequireIdle          bool `json:"requireIdle"`
}

// RotationConfig is the read-only view of the configuration used by one cycle.
type RotationConfig struct {
	Tag          string      `json:"tag"`
	TargetWidth  int         `json:"targetWidth"`
	TargetHeight int         `json:"targetHeight"`
	Target       SlotTarget  `json:"slotTarget"`
	Constraints  Constraints `json:"constraints"`
}

// reloader is implemented by preference stores that can pick up writes made
// by another process.
type reloader interface {
	Reload() error
}

// Config provides typed access to the rotation settings held in the
// preference store.
type Config struct {
	prefs  fyne.Preferences
	userid string
	mu     sync.RWMutex
}

// NewConfig wraps p.
func NewConfig(p fyne.Preferences) *Config {
	userid := "wallify"
	if u, err := user.Current(); err == nil {
		userid = u.Uid
	}
	return &Config{prefs: p, userid: userid}
}

// Preferences exposes the underlying store.
func (c *Config) Preferences() fyne.Preferences {
	return c.prefs
}

// Reload refreshes the store from disk when it supports it.
func (c *Config) Reload() error {
	if r, ok := c.prefs.(reloader); ok {
		return r.Reload()
	}
	return nil
}

// Snapshot reads every rotation setting at once.
func (c *Config) Snapshot() RotationConfig {
	return RotationConfig{
		Tag:          c.GetTag(),
		TargetWidth:  c.GetScreenWidth(),
		TargetHeight: c.GetScreenHeight(),
		Target:       ResolveSlotTarget(c.GetWallpaperLocation()),
		Constraints:  c.GetConstraints(),
	}
}

// GetTag returns the search tag.
func (c *Config) GetTag() string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	tag := strings.TrimSpace(c.prefs.StringWithFallback(TagPrefKey, DefaultTag))
	if tag == "" {
		return DefaultTag
	}
	return tag
}

// SetTag sets the search tag.
func (c *Config) SetTag(tag string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.prefs.SetString(TagPrefKey, tag)
}

// GetScreenWidth returns the target width.
func (c *Config) GetScreenWidth() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	if w := c.prefs.IntWithFallback(ScreenWidthPrefKey, DefaultScreenWidth); w > 0 {
		return w
	}
	return DefaultScreenWidth
}

// GetScreenHeight returns the target height.
func (c *Config) GetScreenHeight() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	if h := c.prefs.IntWithFallback(ScreenHeightPrefKey, DefaultScreenHeight); h > 0 {
		return h
	}
	return DefaultScreenHeight
}

// SetScreenSize sets the target dimensions.
func (c *Config) SetScreenSize(width, height int) error {
	if width <= 0 || height <= 0 {
		return fmt.Errorf("invalid screen size %dx%d", width, height)
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	c.prefs.SetInt(ScreenWidthPrefKey, width)
	c.prefs.SetInt(ScreenHeightPrefKey, height)
	return nil
}

// GetWallpaperLocation returns the raw slot code.
func (c *Config) GetWallpaperLocation() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.prefs.IntWithFallback(WallpaperLocationPrefKey, DefaultWallpaperLocation)
}

// SetWallpaperLocation sets the slot code.
func (c *Config) SetWallpaperLocation(code int) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.prefs.SetInt(WallpaperLocationPrefKey, code)
}

// GetConstraints returns the scheduling constraints.
func (c *Config) GetConstraints() Constraints {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return Constraints{
		RequireCharging:      c.prefs.BoolWithFallback(RequireChargingPrefKey, false),
		RequireNetwork:       c.prefs.BoolWithFallback(RequireNetworkPrefKey, true),
		RequireBatteryNotLow: c.prefs.BoolWithFallback(RequireBatteryNotLowPrefKey, false),
		RequireStorageNotLow: c.prefs.BoolWithFallback(RequireStorageNotLowPrefKey, false),
		RequireIdle:          c.prefs.BoolWithFallback(RequireIdlePrefKey, false),
	}
}

// SetConstraints stores the scheduling constraints.
func (c *Config) SetConstraints(cs Constraints) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.prefs.SetBool(RequireChargingPrefKey, cs.RequireCharging)
	c.prefs.SetBool(RequireNetworkPrefKey, cs.RequireNetwork)
	c.prefs.SetBool(RequireBatteryNotLowPrefKey, cs.RequireBatteryNotLow)
	c.prefs.SetBool(RequireStorageNotLowPrefKey, cs.RequireStorageNotLow)
	c.prefs.SetBool(RequireIdlePrefKey, cs.RequireIdle)
}

// GetIntervalMinutes returns the periodic interval, never below the minimum.
func (c *Config) GetIntervalMinutes() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	m := c.prefs.IntWithFallback(IntervalMinutesPrefKey, DefaultIntervalMinutes)
	if m < MinIntervalMinutes {
		return MinIntervalMinutes
	}
	return m
}

// SetIntervalMinutes sets the periodic interval.
func (c *Config) SetIntervalMinutes(m int) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.prefs.SetInt(IntervalMinutesPrefKey, m)
}

func apiKeyName(p Provider) string {
	return apiKeyService + "_" + string(p) + "_api_key"
}

func apiKeyEnv(p Provider) string {
	return "WALLIFY_" + strings.ToUpper(string(p)) + "_API_KEY"
}

// GetAPIKey returns the key for p from the OS keyring, falling back to the
// WALLIFY_<PROVIDER>_API_KEY environment variable.
func (c *Config) GetAPIKey(p Provider) string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	key, err := keyring.Get(apiKeyName(p), c.userid)
	if err == nil && key != "" {
		return key
	}
	if err != nil && !errors.Is(err, keyring.ErrNotFound) {
		log.Debugf("keyring lookup for %s failed: %v", p, err)
	}
	return os.Getenv(apiKeyEnv(p))
}

// SetAPIKey stores the key for p in the OS keyring. An empty key deletes it.
func (c *Config) SetAPIKey(p Provider, key string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if key == "" {
		err := keyring.Delete(apiKeyName(p), c.userid)
		if err != nil && !errors.Is(err, keyring.ErrNotFound) {
			return fmt.Errorf("deleting %s api key: %w", p, err)
		}
		return nil
	}
	if err := keyring.Set(apiKeyName(p), c.userid, key); err != nil {
		return fmt.Errorf("saving %s api key: %w", p, err)
	}
	return nil
}
