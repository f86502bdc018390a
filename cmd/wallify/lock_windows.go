//go:build windows

package main

import (
	"errors"
	"fmt"
	"path/filepath"
	"strings"

	"github.com/rk/wallify/config"
	"github.com/rk/wallify/util/log"
	"golang.org/x/sys/windows"
)

var (
	mutex windows.Handle
)

// acquireLock tries to acquire a single-instance lock (mutex on Windows).
// The data dir is part of the name so separate WALLIFY_HOME trees do not
// block each other.
func acquireLock(dir string) (bool, error) {
	name := config.AppName + "_SingleInstanceMutex_" + strings.NewReplacer(`\`, "_", ":", "_").Replace(filepath.Clean(dir))
	namePtr, err := windows.UTF16PtrFromString(name)
	if err != nil {
		return false, err
	}

	h, err := windows.CreateMutex(nil, true, namePtr)
	if err != nil {
		if errors.Is(err, windows.ERROR_ALREADY_EXISTS) {
			if h != 0 {
				windows.CloseHandle(h)
			}
			return false, nil
		}
		return false, fmt.Errorf("failed to create mutex: %w", err)
	}

	mutex = h
	return true, nil
}

// releaseLock releases the single-instance lock.
func releaseLock() {
	if mutex != 0 {
		if err := windows.ReleaseMutex(mutex); err != nil {
			log.Printf("Failed to release mutex %v", err)
		}
		if err := windows.CloseHandle(mutex); err != nil {
			log.Printf("Failed to close mutex handle: %v", err)
		}
		mutex = 0
	}
}
