// Package desktop applies fitted wallpapers, either by exporting them for a
// host process or by driving the platform's wallpaper settings.
package desktop

import (
	"context"
	"errors"
	"fmt"
	"image"
	"os"
	"os/exec"
	"path/filepath"
	"strings"

	"github.com/disintegration/imaging"
	"github.com/google/uuid"
	"github.com/rk/wallify/pkg/rotation"
	"github.com/rk/wallify/util/log"
)

// ErrSlotUnsupported is returned when the desktop cannot set the requested slot.
var ErrSlotUnsupported = errors.New("wallpaper slot not supported by this desktop")

var (
	_ rotation.Applier = (*ExportApplier)(nil)
	_ rotation.Applier = (*SystemApplier)(nil)
)

// ExportApplier writes each slot's wallpaper to a JPEG in dir. Without
// versioning the files are wallpaper_home.jpg and wallpaper_lock.jpg.
type ExportApplier struct {
	dir       string
	quality   int
	versioned bool
}

// NewExportApplier creates an applier writing stable file names.
func NewExportApplier(dir string, quality int) *ExportApplier {
	return &ExportApplier{dir: dir, quality: quality}
}

// Path returns the stable export path for slot.
func (e *ExportApplier) Path(slot rotation.Slot) string {
	return filepath.Join(e.dir, "wallpaper_"+slot.String()+".jpg")
}

// ApplyImage writes img for slot.
func (e *ExportApplier) ApplyImage(ctx context.Context, img image.Image, slot rotation.Slot) error {
	_, err := e.Write(ctx, img, slot)
	return err
}

// Write encodes img and returns the written path. Versioned appliers give
// every write a fresh name, since some desktops cache by URI, and remove the
// slot's previous files.
func (e *ExportApplier) Write(ctx context.Context, img image.Image, slot rotation.Slot) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	if err := os.MkdirAll(e.dir, 0755); err != nil {
		return "", fmt.Errorf("creating export dir: %w", err)
	}

	dest := e.Path(slot)
	if e.versioned {
		dest = filepath.Join(e.dir, fmt.Sprintf("wallpaper_%s_%s.jpg", slot, uuid.NewString()[:8]))
	}

	tmp := dest + ".tmp.jpg"
	if err := imaging.Save(img, tmp, imaging.JPEGQuality(e.quality)); err != nil {
		os.Remove(tmp)
		return "", fmt.Errorf("encoding wallpaper: %w", err)
	}
	if err := os.Rename(tmp, dest); err != nil {
		os.Remove(tmp)
		return "", fmt.Errorf("publishing wallpaper: %w", err)
	}

	if e.versioned {
		e.pruneVersions(slot, dest)
	}
	return dest, nil
}

func (e *ExportApplier) pruneVersions(slot rotation.Slot, keep string) {
	matches, err := filepath.Glob(filepath.Join(e.dir, "wallpaper_"+slot.String()+"_*.jpg"))
	if err != nil {
		return
	}
	for _, m := range matches {
		if m == keep || strings.HasSuffix(m, ".tmp.jpg") {
			continue
		}
		if err := os.Remove(m); err != nil {
			log.Debugf("Failed to prune old wallpaper %s: %v", m, err)
		}
	}
}

// runner executes an external command.
type runner func(ctx context.Context, name string, args ...string) error

func runCommand(ctx context.Context, name string, args ...string) error {
	out, err := exec.CommandContext(ctx, name, args...).CombinedOutput()
	if err != nil {
		return fmt.Errorf("%s: %w: %s", name, err, strings.TrimSpace(string(out)))
	}
	return nil
}

// setter sets an already written image file on a slot.
type setter interface {
	set(ctx context.Context, slot rotation.Slot, path string) error
}

// SystemApplier writes the image and hands it to the desktop environment.
type SystemApplier struct {
	export *ExportApplier
	setter setter
}

// NewSystemApplier creates an applier for the current platform.
func NewSystemApplier(dir string, quality int) *SystemApplier {
	return &SystemApplier{
		export: &ExportApplier{dir: dir, quality: quality, versioned: true},
		setter: platformSetter(runCommand),
	}
}

// ApplyImage writes img and sets it on slot.
func (s *SystemApplier) ApplyImage(ctx context.Context, img image.Image, slot rotation.Slot) error {
	path, err := s.export.Write(ctx, img, slot)
	if err != nil {
		return err
	}
	if err := s.setter.set(ctx, slot, path); err != nil {
		return fmt.Errorf("setting %s wallpaper: %w", slot, err)
	}
	return nil
}

// Latest returns the most recently written wallpaper file for slot in dir,
// whether exported under a stable or a versioned name.
func Latest(dir string, slot rotation.Slot) (string, error) {
	matches, err := filepath.Glob(filepath.Join(dir, "wallpaper_"+slot.String()+"*.jpg"))
	if err != nil {
		return "", err
	}
	var (
		best    string
		bestMod int64
	)
	for _, m := range matches {
		if strings.HasSuffix(m, ".tmp.jpg") {
			continue
		}
		info, err := os.Stat(m)
		if err != nil {
			continue
		}
		if mod := info.ModTime().UnixNano(); best == "" || mod > bestMod {
			best, bestMod = m, mod
		}
	}
	if best == "" {
		return "", os.ErrNotExist
	}
	return best, nil
}
