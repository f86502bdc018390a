package rotation

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/rk/wallify/util/log"
)

// MaxImageBytes caps a single download.
const MaxImageBytes = 64 << 20

// Downloader fetches a remote image into a local scratch file.
type Downloader interface {
	Download(ctx context.Context, url string) (string, error)
}

// Fetcher downloads candidates into a scratch directory.
type Fetcher struct {
	client *http.Client
	dir    string
}

// NewFetcher creates a Fetcher writing into dir. A nil client uses
// NewDownloadClient.
func NewFetcher(client *http.Client, dir string) *Fetcher {
	if client == nil {
		client = NewDownloadClient()
	}
	return &Fetcher{client: client, dir: dir}
}

// Dir returns the scratch directory.
func (f *Fetcher) Dir() string {
	return f.dir
}

// Download writes url to a uniquely named scratch file and returns its path.
// The caller owns the file. Errors are *FetchError.
func (f *Fetcher) Download(ctx context.Context, url string) (string, error) {
	path, err := f.download(ctx, url)
	if err != nil {
		return "", &FetchError{URL: url, Err: err}
	}
	return path, nil
}

func (f *Fetcher) download(ctx context.Context, url string) (string, error) {
	if err := os.MkdirAll(f.dir, 0755); err != nil {
		return "", fmt.Errorf("creating scratch dir: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return "", err
	}
	resp, err := f.client.Do(req)
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("unexpected status %d", resp.StatusCode)
	}

	path := filepath.Join(f.dir, ScratchFilePrefix+uuid.NewString()+".jpg")
	out, err := os.Create(path)
	if err != nil {
		return "", fmt.Errorf("creating scratch file: %w", err)
	}

	n, err := io.Copy(out, io.LimitReader(resp.Body, MaxImageBytes+1))
	closeErr := out.Close()
	switch {
	case err != nil:
		os.Remove(path)
		return "", fmt.Errorf("reading body: %w", err)
	case closeErr != nil:
		os.Remove(path)
		return "", closeErr
	case n < MinImageBytes:
		os.Remove(path)
		return "", fmt.Errorf("%w: %d bytes", ErrUndersized, n)
	case n > MaxImageBytes:
		os.Remove(path)
		return "", fmt.Errorf("payload exceeds %d bytes", MaxImageBytes)
	}
	return path, nil
}

// CleanupStale removes scratch files older than maxAge, left behind by
// cycles that were killed mid-download.
func (f *Fetcher) CleanupStale(maxAge time.Duration) (int, error) {
	entries, err := os.ReadDir(f.dir)
	if errors.Is(err, os.ErrNotExist) {
		return 0, nil
	}
	if err != nil {
		return 0, err
	}
	cutoff := time.Now().Add(-maxAge)
	removed := 0
	for _, e := range entries {
		if e.IsDir() || !strings.HasPrefix(e.Name(), ScratchFilePrefix) {
			continue
		}
		info, err := e.Info()
		if err != nil || info.ModTime().After(cutoff) {
			continue
		}
		if err := os.Remove(filepath.Join(f.dir, e.Name())); err != nil {
			log.Printf("Failed to remove stale scratch file %s: %v", e.Name(), err)
			continue
		}
		removed++
	}
	return removed, nil
}
