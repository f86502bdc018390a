package main

import (
	"fmt"
	"path/filepath"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/rk/wallify/config"
	"github.com/rk/wallify/pkg/desktop"
	"github.com/rk/wallify/pkg/prefs"
	"github.com/rk/wallify/pkg/rotation"
	"github.com/rk/wallify/util/log"
)

// DefaultCascadeName is the pigo face cascade looked up in the data dir.
const DefaultCascadeName = "facefinder"

// deps is the wired application graph shared by the commands.
type deps struct {
	dataDir   string
	prefs     *prefs.Store
	appCfg    *config.AppConfig
	cfg       *rotation.Config
	store     *rotation.Store
	registry  *prometheus.Registry
	metrics   *rotation.Metrics
	fetcher   *rotation.Fetcher
	exportDir string
	orch      *rotation.Orchestrator
}

// openPrefs opens the preference file in the data directory.
func openPrefs() (*prefs.Store, string, error) {
	dataDir, err := config.EnsurePath()
	if err != nil {
		return nil, "", fmt.Errorf("preparing data dir: %w", err)
	}
	path, err := config.PrefsFile()
	if err != nil {
		return nil, "", err
	}
	p, err := prefs.Open(path)
	if err != nil {
		return nil, "", err
	}
	return p, dataDir, nil
}

// newDeps wires everything a rotation cycle needs. cascadePath may be
// empty to use the default location.
func newDeps(cascadePath string) (*deps, error) {
	p, dataDir, err := openPrefs()
	if err != nil {
		return nil, err
	}
	scratchDir, err := config.ScratchDir()
	if err != nil {
		return nil, err
	}
	exportDir, err := config.ExportDir()
	if err != nil {
		return nil, err
	}

	d := &deps{
		dataDir:   dataDir,
		prefs:     p,
		appCfg:    config.NewAppConfig(p),
		cfg:       rotation.NewConfig(p),
		store:     rotation.NewStore(p),
		registry:  prometheus.NewRegistry(),
		exportDir: exportDir,
	}
	d.registry.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	d.metrics = rotation.NewMetrics(d.registry)

	tuning := rotation.DefaultTuningConfig()
	if cascadePath == "" {
		cascadePath = filepath.Join(dataDir, DefaultCascadeName)
	}
	var faces rotation.FaceDetector
	if detector, err := rotation.LoadPigoDetector(cascadePath, tuning); err != nil {
		log.Printf("Face filtering disabled: %v", err)
	} else {
		faces = detector
	}

	var applier rotation.Applier
	switch d.appCfg.GetApplyMode() {
	case config.ApplyModeExport:
		applier = desktop.NewExportApplier(exportDir, tuning.EncodingQuality)
	default:
		applier = desktop.NewSystemApplier(exportDir, tuning.EncodingQuality)
	}

	d.fetcher = rotation.NewFetcher(rotation.NewDownloadClient(), scratchDir)
	sources := rotation.NewRegisteredSources(d.cfg, rotation.NewProviderClient())

	d.orch = rotation.NewOrchestrator(rotation.Dependencies{
		Config:   d.cfg,
		Store:    d.store,
		Source:   rotation.NewAggregator(sources, rotation.ProviderTimeout, d.metrics),
		Selector: rotation.NewContentFilter(d.fetcher, faces, d.metrics),
		Fitter:   rotation.NewAdjuster(rotation.NewSmartcropDetector(tuning.Resampler), tuning.Resampler),
		Applier:  applier,
		Metrics:  d.metrics,
	})
	return d, nil
}

// cleanupScratch removes downloads abandoned by an earlier crash.
func (d *deps) cleanupScratch() {
	n, err := d.fetcher.CleanupStale(rotation.StaleScratchMaxAge)
	if err != nil {
		log.Printf("Scratch cleanup failed: %v", err)
		return
	}
	if n > 0 {
		log.Printf("Removed %d stale scratch files", n)
	}
}
