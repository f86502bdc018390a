package rotation

import (
	"testing"

	"github.com/rk/wallify/pkg/prefs"
	"github.com/stretchr/testify/assert"
	"github.com/zalando/go-keyring"
)

func TestConfigDefaults(t *testing.T) {
	cfg := NewConfig(prefs.NewInMemory())

	snap := cfg.Snapshot()
	assert.Equal(t, "nature", snap.Tag)
	assert.Equal(t, 1080, snap.TargetWidth)
	assert.Equal(t, 1920, snap.TargetHeight)
	assert.Equal(t, TargetLock, snap.Target)
	assert.Equal(t, Constraints{RequireNetwork: true}, snap.Constraints)
	assert.Equal(t, 15, cfg.GetIntervalMinutes())
}

func TestConfigSetters(t *testing.T) {
	cfg := NewConfig(prefs.NewInMemory())

	cfg.SetTag("mountains")
	assert.NoError(t, cfg.SetScreenSize(1440, 3120))
	assert.Error(t, cfg.SetScreenSize(0, 100))
	cfg.SetWallpaperLocation(3)
	cfg.SetConstraints(Constraints{RequireCharging: true, RequireIdle: true})

	snap := cfg.Snapshot()
	assert.Equal(t, "mountains", snap.Tag)
	assert.Equal(t, 1440, snap.TargetWidth)
	assert.Equal(t, 3120, snap.TargetHeight)
	assert.Equal(t, TargetBoth, snap.Target)
	assert.Equal(t, Constraints{RequireCharging: true, RequireIdle: true}, snap.Constraints)

	cfg.SetTag("   ")
	assert.Equal(t, DefaultTag, cfg.GetTag())
}

func TestConfigIntervalFloor(t *testing.T) {
	cfg := NewConfig(prefs.NewInMemory())

	cfg.SetIntervalMinutes(5)
	assert.Equal(t, MinIntervalMinutes, cfg.GetIntervalMinutes())

	cfg.SetIntervalMinutes(60)
	assert.Equal(t, 60, cfg.GetIntervalMinutes())
}

func TestConfigAPIKeys(t *testing.T) {
	keyring.MockInit()
	cfg := NewConfig(prefs.NewInMemory())

	assert.Empty(t, cfg.GetAPIKey(ProviderPexels))

	t.Setenv("WALLIFY_PEXELS_API_KEY", "from-env")
	assert.Equal(t, "from-env", cfg.GetAPIKey(ProviderPexels))

	assert.NoError(t, cfg.SetAPIKey(ProviderPexels, "from-keyring"))
	assert.Equal(t, "from-keyring", cfg.GetAPIKey(ProviderPexels))

	assert.NoError(t, cfg.SetAPIKey(ProviderPexels, ""))
	assert.Equal(t, "from-env", cfg.GetAPIKey(ProviderPexels))
	assert.NoError(t, cfg.SetAPIKey(ProviderUnsplash, ""))
}
