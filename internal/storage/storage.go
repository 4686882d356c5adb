// Package storage resolves the directories the manager writes into: a
// private storage directory for bundles and icons, and the applications
// directory that desktop-menu entries go to. The applications directory
// depends on whether the process runs inside a Flatpak sandbox, where
// writes to the host's menu are not possible.
package storage

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
)

// Mode selects where menu entries are written. It is resolved once at
// startup and injected into everything that needs it.
type Mode int

const (
	// ModeUnrestricted writes menu entries to the user's standard
	// applications directory, visible to the whole desktop environment.
	ModeUnrestricted Mode = iota
	// ModeSandboxed writes nothing to the host menu; the applications
	// directory falls under the sandbox-private data dir.
	ModeSandboxed
)

// String returns the mode name for logs.
func (m Mode) String() string {
	if m == ModeSandboxed {
		return "sandboxed"
	}
	return "unrestricted"
}

// ErrNoBaseDir reports that a required platform base directory (data dir or
// home) could not be determined.
var ErrNoBaseDir = errors.New("base directory not found")

const (
	storageSubdir   = "axec/appimages"
	applicationsDir = ".local/share/applications"
)

// DetectMode inspects the environment for Flatpak sandbox markers.
func DetectMode() Mode {
	if os.Getenv("FLATPAK_ID") != "" || os.Getenv("container") == "flatpak" {
		return ModeSandboxed
	}
	return ModeUnrestricted
}

// Locator resolves and creates the storage and applications directories.
type Locator struct {
	mode Mode
}

// NewLocator returns a Locator for the given mode.
func NewLocator(mode Mode) *Locator {
	return &Locator{mode: mode}
}

// Mode returns the sandbox mode the locator was built with.
func (l *Locator) Mode() Mode {
	return l.mode
}

// Dirs returns the bundle storage directory and the menu-entry directory,
// creating both if absent. Inside a sandbox the menu entries live under the
// data dir, where only the sandbox sees them; otherwise they go to the
// home-relative applications directory.
func (l *Locator) Dirs() (storageDir, appsDir string, err error) {
	dataDir, err := dataDir()
	if err != nil {
		return "", "", err
	}
	storageDir = filepath.Join(dataDir, storageSubdir)

	if l.mode == ModeSandboxed {
		appsDir = filepath.Join(dataDir, "applications")
	} else {
		home, herr := os.UserHomeDir()
		if herr != nil {
			return "", "", fmt.Errorf("%w: home: %v", ErrNoBaseDir, herr)
		}
		appsDir = filepath.Join(home, applicationsDir)
	}

	if err := os.MkdirAll(storageDir, 0755); err != nil {
		return "", "", err
	}
	if err := os.MkdirAll(appsDir, 0755); err != nil {
		return "", "", err
	}
	return storageDir, appsDir, nil
}

// dataDir resolves the XDG data directory: $XDG_DATA_HOME when set,
// otherwise ~/.local/share.
func dataDir() (string, error) {
	if dir := os.Getenv("XDG_DATA_HOME"); dir != "" {
		return dir, nil
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("%w: XDG data dir: %v", ErrNoBaseDir, err)
	}
	return filepath.Join(home, ".local", "share"), nil
}
