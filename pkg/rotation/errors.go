package rotation

import (
	"errors"
	"fmt"
)

// Cycle level failures.
var (
	ErrNoCandidatesAvailable = errors.New("no wallpapers available")
	ErrNoAcceptableImage     = errors.New("no acceptable image in pool")
	ErrApplyFailed           = errors.New("applying wallpaper failed")
	ErrUndersized            = errors.New("image payload too small")
	ErrMissingAPIKey         = errors.New("missing api key")
)

// FetchError reports a failed download of a candidate URL.
type FetchError struct {
	URL string
	Err error
}

func (e *FetchError) Error() string {
	return fmt.Sprintf("fetching %s: %v", e.URL, e.Err)
}

func (e *FetchError) Unwrap() error { return e.Err }

// DecodeError reports a downloaded file that is not a readable image.
type DecodeError struct {
	URL string
	Err error
}

func (e *DecodeError) Error() string {
	return fmt.Sprintf("decoding %s: %v", e.URL, e.Err)
}

func (e *DecodeError) Unwrap() error { return e.Err }

// DetectionError reports a detector that could not analyse an image.
type DetectionError struct {
	Detector string
	Err      error
}

func (e *DetectionError) Error() string {
	return fmt.Sprintf("%s detection: %v", e.Detector, e.Err)
}

func (e *DetectionError) Unwrap() error { return e.Err }

// ApplyError reports the slot whose apply aborted the cycle.
type ApplyError struct {
	Slot Slot
	Err  error
}

func (e *ApplyError) Error() string {
	return fmt.Sprintf("applying %s wallpaper: %v", e.Slot, e.Err)
}

func (e *ApplyError) Unwrap() error { return e.Err }

// Is matches ErrApplyFailed.
func (e *ApplyError) Is(target error) bool {
	return target == ErrApplyFailed
}

// ProviderError reports a provider query that contributed no results.
type ProviderError struct {
	Provider Provider
	Status   int
	Err      error
}

func (e *ProviderError) Error() string {
	if e.Status != 0 {
		return fmt.Sprintf("%s: unexpected status %d", e.Provider, e.Status)
	}
	return fmt.Sprintf("%s: %v", e.Provider, e.Err)
}

func (e *ProviderError) Unwrap() error { return e.Err }
