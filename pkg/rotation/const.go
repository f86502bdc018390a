package rotation

import "time"

// Preference keys read by a rotation cycle.
const (
	TagPrefKey                  = "tag"                  // TagPrefKey is the search tag sent to every provider
	ScreenWidthPrefKey          = "screenWidth"          // ScreenWidthPrefKey is the target width in pixels
	ScreenHeightPrefKey         = "screenHeight"         // ScreenHeightPrefKey is the target height in pixels
	WallpaperLocationPrefKey    = "wallpaperLocation"    // WallpaperLocationPrefKey is the slot code (0 home, 1 lock, 2|3 both)
	RequireChargingPrefKey      = "requireCharging"      // RequireChargingPrefKey gates scheduled cycles on external power
	RequireBatteryNotLowPrefKey = "requireBatteryNotLow" // RequireBatteryNotLowPrefKey gates scheduled cycles on battery level
	RequireStorageNotLowPrefKey = "requireStorageNotLow" // RequireStorageNotLowPrefKey gates scheduled cycles on free disk
	RequireIdlePrefKey          = "requireIdle"          // RequireIdlePrefKey gates scheduled cycles on system load
	RequireNetworkPrefKey       = "requireNetwork"       // RequireNetworkPrefKey gates scheduled cycles on connectivity
	IntervalMinutesPrefKey      = "intervalMinutes"      // IntervalMinutesPrefKey is the periodic trigger interval
)

// Preference keys written by a rotation cycle.
const (
	ImageURLsPrefKey           = "imageUrls"           // ImageURLsPrefKey holds the candidate pool as a JSON array
	LastWallpaperChangePrefKey = "lastWallpaperChange" // LastWallpaperChangePrefKey holds the last successful apply time
	StatusHistoryPrefKey       = "statusHistory"       // StatusHistoryPrefKey holds the recent cycle outcomes as a JSON array
)

// Defaults
const (
	DefaultTag               = "nature"
	DefaultScreenWidth       = 1080
	DefaultScreenHeight      = 1920
	DefaultWallpaperLocation = 1
	DefaultIntervalMinutes   = 15
	MinIntervalMinutes       = 15
)

// Internal constants
const (
	MinImageBytes      = 1000
	MaxStatusHistory   = 50
	TimestampLayout    = "2006-01-02 15:04:05"
	ScratchFilePrefix  = "wallpaper_cache_"
	StaleScratchMaxAge = 24 * time.Hour
	ProviderPageSize   = 30
	eventBufferSize    = 16
)

// HTTP timeouts
const (
	ProviderTimeout = 15 * time.Second
	DownloadTimeout = 15 * time.Second
	DialTimeout     = 10 * time.Second
)

// DetectTimeout bounds a single face or salient region detection.
const DetectTimeout = 15 * time.Second

// apiKeyService is the keyring service prefix for provider API keys.
const apiKeyService = "wallify"
