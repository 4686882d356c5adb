// Package registry implements the four user-facing operations over the
// AppImage storage directory: list, add, remove and launch. Storage itself
// is the only record of what is installed; entries are reconstructed from
// filenames on every list, so every operation re-resolves directories and
// re-derives ids instead of consulting a cache.
package registry

import (
	"errors"
	"fmt"
	"io"
	"os"
	"os/exec"
	"path/filepath"
	"syscall"

	"axec/internal/desktop"
	"axec/internal/icon"
	"axec/internal/models"
	"axec/internal/naming"
	"axec/internal/overrides"
	"axec/internal/storage"

	"github.com/rs/zerolog"
)

// ErrNotFound marks a missing source file, bundle or menu entry. The front
// end matches on it to phrase failures; the message always contains
// "not found".
var ErrNotFound = errors.New("not found")

// Spawner starts the bundle at path as an independent process without
// waiting for it. Injected so tests never spawn anything.
type Spawner func(path string) error

// SpawnDetached starts the bundle in its own session so it outlives the
// manager process.
func SpawnDetached(path string) error {
	cmd := exec.Command(path)
	cmd.SysProcAttr = &syscall.SysProcAttr{Setsid: true}
	if err := cmd.Start(); err != nil {
		return err
	}
	return cmd.Process.Release()
}

// Registry composes the locator, icon extractor and overrides store into
// the user-facing operations.
type Registry struct {
	locator   *storage.Locator
	extractor *icon.Extractor
	names     *overrides.Store
	spawn     Spawner
	log       zerolog.Logger
}

// New creates a Registry. A nil spawn falls back to SpawnDetached.
func New(locator *storage.Locator, extractor *icon.Extractor, names *overrides.Store, spawn Spawner, log zerolog.Logger) *Registry {
	if spawn == nil {
		spawn = SpawnDetached
	}
	return &Registry{
		locator:   locator,
		extractor: extractor,
		names:     names,
		spawn:     spawn,
		log:       log,
	}
}

// List reconstructs entries from the storage directory contents. Ordering
// follows directory enumeration. An unreadable storage directory is treated
// as empty: on first run there is simply nothing installed yet.
func (r *Registry) List() ([]models.AppImageEntry, error) {
	storageDir, appsDir, err := r.locator.Dirs()
	if err != nil {
		return nil, err
	}

	names, err := r.names.Load()
	if err != nil {
		r.log.Warn().Err(err).Msg("overrides unreadable, using derived names")
		names = map[string]string{}
	}

	entries := []models.AppImageEntry{}
	dirents, err := os.ReadDir(storageDir)
	if err != nil {
		return entries, nil
	}

	for _, d := range dirents {
		if d.IsDir() {
			continue
		}
		ext := filepath.Ext(d.Name())
		if ext == "" || !models.IsBundleExt(ext[1:]) {
			continue
		}

		path := filepath.Join(storageDir, d.Name())
		name := naming.DeriveName(path)
		id := naming.Sanitize(name)
		if custom := names[id]; custom != "" {
			name = custom
		}

		entries = append(entries, models.AppImageEntry{
			ID:          id,
			Name:        name,
			Path:        path,
			IconPath:    findIcon(storageDir, id),
			DesktopFile: desktop.EntryPath(appsDir, id),
		})
	}
	return entries, nil
}

// Add imports the AppImage at sourcePath: it copies the file into storage
// under the id-keyed name, makes it executable, extracts an icon
// best-effort and, outside a sandbox, writes the menu entry. A failing
// entry write is reported but not rolled back; re-adding the same id
// overwrites everything cleanly.
func (r *Registry) Add(sourcePath string) (*models.AppImageEntry, error) {
	if _, err := os.Stat(sourcePath); err != nil {
		return nil, fmt.Errorf("%w: file %s", ErrNotFound, sourcePath)
	}

	storageDir, appsDir, err := r.locator.Dirs()
	if err != nil {
		return nil, err
	}

	name := naming.DeriveName(sourcePath)
	id := naming.Sanitize(name)
	destPath := filepath.Join(storageDir, id+".AppImage")

	// A previous tool may have stored the bundle with the lowercase
	// extension; re-importing must not leave two case variants per id.
	os.Remove(filepath.Join(storageDir, id+".appimage"))

	if err := copyFile(sourcePath, destPath); err != nil {
		return nil, fmt.Errorf("copy bundle: %w", err)
	}
	if err := os.Chmod(destPath, 0755); err != nil {
		return nil, fmt.Errorf("make executable: %w", err)
	}

	iconPath := r.extractor.Extract(destPath, storageDir, id)

	displayName := name
	if custom, err := r.names.Get(id); err == nil && custom != "" {
		displayName = custom
	}

	entryPath := desktop.EntryPath(appsDir, id)
	if r.locator.Mode() == storage.ModeUnrestricted {
		if err := desktop.Write(displayName, destPath, iconPath, entryPath); err != nil {
			return nil, fmt.Errorf("write menu entry: %w", err)
		}
	}

	r.log.Info().Str("id", id).Str("bundle", destPath).Bool("icon", iconPath != "").Msg("added")
	return &models.AppImageEntry{
		ID:          id,
		Name:        displayName,
		Path:        destPath,
		IconPath:    iconPath,
		DesktopFile: entryPath,
	}, nil
}

// Remove deletes the bundle (either case variant), all icon variants and,
// outside a sandbox, the menu entry. Icon removal is best-effort and never
// decides the outcome; Remove fails NotFound only when neither a bundle nor
// a menu entry existed.
func (r *Registry) Remove(id string) error {
	storageDir, appsDir, err := r.locator.Dirs()
	if err != nil {
		return err
	}

	removed := false
	for _, ext := range models.BundleExtensions {
		path := filepath.Join(storageDir, id+"."+ext)
		if _, err := os.Stat(path); err != nil {
			continue
		}
		if err := os.Remove(path); err != nil {
			return fmt.Errorf("remove bundle: %w", err)
		}
		removed = true
	}

	for _, ext := range models.IconExtensions {
		os.Remove(filepath.Join(storageDir, id+"."+ext))
	}

	if r.locator.Mode() == storage.ModeUnrestricted {
		if desktop.Remove(desktop.EntryPath(appsDir, id)) {
			removed = true
		}
	}

	if !removed {
		return fmt.Errorf("%w: app %s", ErrNotFound, id)
	}
	r.log.Info().Str("id", id).Msg("removed")
	return nil
}

// Launch starts the stored bundle for id as a detached process. It returns
// as soon as the process started; what the program does afterwards is its
// own business.
func (r *Registry) Launch(id string) error {
	storageDir, _, err := r.locator.Dirs()
	if err != nil {
		return err
	}

	path := findBundle(storageDir, id)
	if path == "" {
		return fmt.Errorf("%w: AppImage %s", ErrNotFound, id)
	}

	if err := r.spawn(path); err != nil {
		return fmt.Errorf("launch %s: %w", id, err)
	}
	r.log.Info().Str("id", id).Msg("launched")
	return nil
}

// Rename stores a display-name override for id and, outside a sandbox,
// rewrites the menu entry with the new label. An empty name reverts to the
// derived one. Ids and stored files never change.
func (r *Registry) Rename(id, name string) error {
	storageDir, appsDir, err := r.locator.Dirs()
	if err != nil {
		return err
	}

	path := findBundle(storageDir, id)
	if path == "" {
		return fmt.Errorf("%w: AppImage %s", ErrNotFound, id)
	}

	if err := r.names.Set(id, name); err != nil {
		return fmt.Errorf("save name: %w", err)
	}

	if r.locator.Mode() != storage.ModeUnrestricted {
		return nil
	}

	displayName := name
	if displayName == "" {
		displayName = naming.DeriveName(path)
	}
	entryPath := desktop.EntryPath(appsDir, id)
	if err := desktop.Write(displayName, path, findIcon(storageDir, id), entryPath); err != nil {
		return fmt.Errorf("write menu entry: %w", err)
	}
	return nil
}

// findBundle returns the stored bundle path for id under either accepted
// case variant, or "".
func findBundle(storageDir, id string) string {
	for _, ext := range models.BundleExtensions {
		path := filepath.Join(storageDir, id+"."+ext)
		if _, err := os.Stat(path); err == nil {
			return path
		}
	}
	return ""
}

// findIcon returns the current icon path for id, trying each recognized
// extension, or "".
func findIcon(storageDir, id string) string {
	for _, ext := range models.IconExtensions {
		path := filepath.Join(storageDir, id+"."+ext)
		if _, err := os.Stat(path); err == nil {
			return path
		}
	}
	return ""
}

func copyFile(src, dest string) error {
	in, err := os.Open(src)
	if err != nil {
		return err
	}
	defer in.Close()

	out, err := os.Create(dest)
	if err != nil {
		return err
	}

	if _, err := io.Copy(out, in); err != nil {
		out.Close()
		return err
	}
	return out.Close()
}
