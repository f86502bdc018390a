package main

import (
	"fmt"
	"io"
	"sort"
	"strconv"
	"strings"

	"fyne.io/fyne/v2"
	"github.com/rk/wallify/config"
	"github.com/rk/wallify/pkg/rotation"
	"github.com/spf13/cobra"
)

// setting is a user editable preference.
type setting struct {
	get func(cfg *rotation.Config, app *config.AppConfig) string
	set func(cfg *rotation.Config, app *config.AppConfig, value string) error
}

func boolSetting(read func(rotation.Constraints) bool, write func(*rotation.Constraints, bool)) setting {
	return setting{
		get: func(cfg *rotation.Config, _ *config.AppConfig) string {
			return strconv.FormatBool(read(cfg.GetConstraints()))
		},
		set: func(cfg *rotation.Config, _ *config.AppConfig, value string) error {
			b, err := strconv.ParseBool(value)
			if err != nil {
				return err
			}
			cs := cfg.GetConstraints()
			write(&cs, b)
			cfg.SetConstraints(cs)
			return nil
		},
	}
}

func intSetting(read func(*rotation.Config) int, write func(*rotation.Config, int) error) setting {
	return setting{
		get: func(cfg *rotation.Config, _ *config.AppConfig) string {
			return strconv.Itoa(read(cfg))
		},
		set: func(cfg *rotation.Config, _ *config.AppConfig, value string) error {
			n, err := strconv.Atoi(value)
			if err != nil {
				return err
			}
			return write(cfg, n)
		},
	}
}

var settings = map[string]setting{
	rotation.TagPrefKey: {
		get: func(cfg *rotation.Config, _ *config.AppConfig) string { return cfg.GetTag() },
		set: func(cfg *rotation.Config, _ *config.AppConfig, v string) error { cfg.SetTag(v); return nil },
	},
	rotation.ScreenWidthPrefKey: intSetting((*rotation.Config).GetScreenWidth, func(cfg *rotation.Config, n int) error {
		return cfg.SetScreenSize(n, cfg.GetScreenHeight())
	}),
	rotation.ScreenHeightPrefKey: intSetting((*rotation.Config).GetScreenHeight, func(cfg *rotation.Config, n int) error {
		return cfg.SetScreenSize(cfg.GetScreenWidth(), n)
	}),
	rotation.WallpaperLocationPrefKey: intSetting((*rotation.Config).GetWallpaperLocation, func(cfg *rotation.Config, n int) error {
		if n < 0 || n > 3 {
			return fmt.Errorf("location must be 0 (home), 1 (lock) or 2 (both)")
		}
		cfg.SetWallpaperLocation(n)
		return nil
	}),
	rotation.IntervalMinutesPrefKey: intSetting((*rotation.Config).GetIntervalMinutes, func(cfg *rotation.Config, n int) error {
		cfg.SetIntervalMinutes(n)
		return nil
	}),
	rotation.RequireChargingPrefKey: boolSetting(
		func(c rotation.Constraints) bool { return c.RequireCharging },
		func(c *rotation.Constraints, b bool) { c.RequireCharging = b }),
	rotation.RequireBatteryNotLowPrefKey: boolSetting(
		func(c rotation.Constraints) bool { return c.RequireBatteryNotLow },
		func(c *rotation.Constraints, b bool) { c.RequireBatteryNotLow = b }),
	rotation.RequireStorageNotLowPrefKey: boolSetting(
		func(c rotation.Constraints) bool { return c.RequireStorageNotLow },
		func(c *rotation.Constraints, b bool) { c.RequireStorageNotLow = b }),
	rotation.RequireIdlePrefKey: boolSetting(
		func(c rotation.Constraints) bool { return c.RequireIdle },
		func(c *rotation.Constraints, b bool) { c.RequireIdle = b }),
	rotation.RequireNetworkPrefKey: boolSetting(
		func(c rotation.Constraints) bool { return c.RequireNetwork },
		func(c *rotation.Constraints, b bool) { c.RequireNetwork = b }),
	config.APIEnabledKey: {
		get: func(_ *rotation.Config, app *config.AppConfig) string { return strconv.FormatBool(app.GetAPIEnabled()) },
		set: func(_ *rotation.Config, app *config.AppConfig, v string) error {
			b, err := strconv.ParseBool(v)
			if err == nil {
				app.SetAPIEnabled(b)
			}
			return err
		},
	},
	config.APIAddrKey: {
		get: func(_ *rotation.Config, app *config.AppConfig) string { return app.GetAPIAddr() },
		set: func(_ *rotation.Config, app *config.AppConfig, v string) error { app.SetAPIAddr(v); return nil },
	},
	config.PowerTriggerEnabledKey: {
		get: func(_ *rotation.Config, app *config.AppConfig) string {
			return strconv.FormatBool(app.GetPowerTriggerEnabled())
		},
		set: func(_ *rotation.Config, app *config.AppConfig, v string) error {
			b, err := strconv.ParseBool(v)
			if err == nil {
				app.SetPowerTriggerEnabled(b)
			}
			return err
		},
	},
	config.ApplyModeKey: {
		get: func(_ *rotation.Config, app *config.AppConfig) string { return app.GetApplyMode() },
		set: func(_ *rotation.Config, app *config.AppConfig, v string) error {
			if v != config.ApplyModeSystem && v != config.ApplyModeExport {
				return fmt.Errorf("mode must be %q or %q", config.ApplyModeSystem, config.ApplyModeExport)
			}
			app.SetApplyMode(v)
			return nil
		},
	},
}

func settingKeys() []string {
	keys := make([]string, 0, len(settings))
	for k := range settings {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

func newConfigCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "config",
		Short: "Read or change settings",
	}

	cmd.AddCommand(&cobra.Command{
		Use:   "get [key]",
		Short: "Print one or all settings",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			p, _, err := openPrefs()
			if err != nil {
				return err
			}
			return configGet(cmd.OutOrStdout(), p, args)
		},
	})

	cmd.AddCommand(&cobra.Command{
		Use:   "set <key> <value>",
		Short: "Change a setting",
		Long:  "Change a setting. Known keys: " + strings.Join(settingKeys(), ", "),
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			p, _, err := openPrefs()
			if err != nil {
				return err
			}
			return configSet(p, args[0], args[1])
		},
	})

	cmd.AddCommand(&cobra.Command{
		Use:   "set-key <provider> [api-key]",
		Short: "Store a provider API key in the OS keyring (empty removes it)",
		Args:  cobra.RangeArgs(1, 2),
		RunE: func(cmd *cobra.Command, args []string) error {
			provider := rotation.Provider(strings.ToLower(args[0]))
			if !provider.Valid() {
				return fmt.Errorf("unknown provider %q", args[0])
			}
			key := ""
			if len(args) == 2 {
				key = args[1]
			}
			p, _, err := openPrefs()
			if err != nil {
				return err
			}
			return rotation.NewConfig(p).SetAPIKey(provider, key)
		},
	})
	return cmd
}

func configGet(w io.Writer, p fyne.Preferences, args []string) error {
	cfg, app := rotation.NewConfig(p), config.NewAppConfig(p)
	if len(args) == 1 {
		s, ok := settings[args[0]]
		if !ok {
			return fmt.Errorf("unknown setting %q", args[0])
		}
		fmt.Fprintln(w, s.get(cfg, app))
		return nil
	}
	for _, k := range settingKeys() {
		fmt.Fprintf(w, "%s = %s\n", k, settings[k].get(cfg, app))
	}
	return nil
}

func configSet(p fyne.Preferences, key, value string) error {
	s, ok := settings[key]
	if !ok {
		return fmt.Errorf("unknown setting %q", key)
	}
	if err := s.set(rotation.NewConfig(p), config.NewAppConfig(p), value); err != nil {
		return fmt.Errorf("invalid value for %s: %w", key, err)
	}
	return nil
}
