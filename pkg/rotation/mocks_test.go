package rotation

import (
	"bytes"
	"context"
	"image"
	"image/color"
	"image/jpeg"
	"math/rand"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

// MockDownloader implements Downloader for testing
type MockDownloader struct {
	mock.Mock
}

func (m *MockDownloader) Download(ctx context.Context, url string) (string, error) {
	args := m.Called(ctx, url)
	return args.String(0), args.Error(1)
}

// MockFaceDetector implements FaceDetector for testing
type MockFaceDetector struct {
	mock.Mock
}

func (m *MockFaceDetector) DetectFaces(ctx context.Context, img image.Image) ([]image.Rectangle, error) {
	args := m.Called(ctx, img)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]image.Rectangle), args.Error(1)
}

// MockSalientDetector implements SalientDetector for testing
type MockSalientDetector struct {
	mock.Mock
}

func (m *MockSalientDetector) DetectSalient(ctx context.Context, img image.Image, width, height int) ([]image.Rectangle, error) {
	args := m.Called(ctx, img, width, height)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]image.Rectangle), args.Error(1)
}

// MockApplier implements Applier for testing
type MockApplier struct {
	mock.Mock
}

func (m *MockApplier) ApplyImage(ctx context.Context, img image.Image, slot Slot) error {
	args := m.Called(ctx, img, slot)
	return args.Error(0)
}

// MockSource implements ImageSource for testing
type MockSource struct {
	mock.Mock
	name Provider
}

func (m *MockSource) Name() Provider { return m.name }

func (m *MockSource) Search(ctx context.Context, q SearchQuery) ([]Candidate, error) {
	args := m.Called(ctx, q)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]Candidate), args.Error(1)
}

// testImage returns a noisy image so its JPEG encoding is well above
// MinImageBytes.
func testImage(w, h int) *image.RGBA {
	rng := rand.New(rand.NewSource(int64(w*31 + h)))
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			img.Set(x, y, color.RGBA{uint8(rng.Intn(256)), uint8(rng.Intn(256)), uint8(rng.Intn(256)), 255})
		}
	}
	return img
}

func jpegBytes(t *testing.T, w, h int) []byte {
	t.Helper()
	var buf bytes.Buffer
	require.NoError(t, jpeg.Encode(&buf, testImage(w, h), &jpeg.Options{Quality: 90}))
	return buf.Bytes()
}

// writeScratch writes a decodable JPEG into dir and returns its path.
func writeScratch(t *testing.T, dir, name string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(path, jpegBytes(t, 64, 96), 0644))
	return path
}
