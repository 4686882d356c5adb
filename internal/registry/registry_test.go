package registry

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"axec/internal/icon"
	"axec/internal/logging"
	"axec/internal/models"
	"axec/internal/overrides"
	"axec/internal/storage"
)

// noIconRunner simulates an AppImage whose self-extraction fails, which
// must degrade to "no icon" everywhere.
type noIconRunner struct{}

func (noIconRunner) Run(bundlePath, workDir string) error {
	return errors.New("exit status 1")
}

// dirIconRunner extracts a tree containing a .DirIcon.
type dirIconRunner struct{}

func (dirIconRunner) Run(bundlePath, workDir string) error {
	root := filepath.Join(workDir, "squashfs-root")
	if err := os.MkdirAll(root, 0755); err != nil {
		return err
	}
	return os.WriteFile(filepath.Join(root, ".DirIcon"), []byte("icon"), 0644)
}

type env struct {
	reg      *Registry
	dataDir  string
	appsDir  string
	launched []string
}

func newEnv(t *testing.T, mode storage.Mode, runner icon.Runner) *env {
	t.Helper()
	tmp := t.TempDir()
	dataDir := filepath.Join(tmp, "data")
	home := filepath.Join(tmp, "home")
	t.Setenv("XDG_DATA_HOME", dataDir)
	t.Setenv("HOME", home)

	e := &env{dataDir: dataDir}
	if mode == storage.ModeSandboxed {
		e.appsDir = filepath.Join(dataDir, "applications")
	} else {
		e.appsDir = filepath.Join(home, ".local", "share", "applications")
	}

	log := logging.NewTestLogger(os.Stderr)
	spawn := func(path string) error {
		e.launched = append(e.launched, path)
		return nil
	}
	e.reg = New(
		storage.NewLocator(mode),
		icon.NewExtractor(runner, log),
		overrides.New(filepath.Join(tmp, "names.yaml")),
		spawn,
		log,
	)
	return e
}

func (e *env) storageDir() string {
	return filepath.Join(e.dataDir, "axec", "appimages")
}

func writeSource(t *testing.T, name string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	if err := os.WriteFile(path, []byte("fake appimage"), 0644); err != nil {
		t.Fatalf("write source: %v", err)
	}
	return path
}

func TestAddThenList(t *testing.T) {
	e := newEnv(t, storage.ModeUnrestricted, noIconRunner{})
	src := writeSource(t, "MyApp-1.2.3_x86_64.AppImage")

	added, err := e.reg.Add(src)
	if err != nil {
		t.Fatalf("Add() error = %v", err)
	}
	if added.ID != "myapp-1-2-3_x86_64" {
		t.Errorf("id = %q", added.ID)
	}
	if added.Name != "MyApp-1 2 3_x86_64" {
		t.Errorf("name = %q", added.Name)
	}

	// The stored copy must be executable.
	info, err := os.Stat(added.Path)
	if err != nil {
		t.Fatalf("stat bundle: %v", err)
	}
	if info.Mode().Perm() != 0755 {
		t.Errorf("bundle mode = %v, want 0755", info.Mode().Perm())
	}

	entries, err := e.reg.List()
	if err != nil {
		t.Fatalf("List() error = %v", err)
	}
	if len(entries) != 1 {
		t.Fatalf("List() returned %d entries, want 1", len(entries))
	}
	if entries[0].ID != added.ID || entries[0].Path != added.Path {
		t.Errorf("listed entry %+v does not match added %+v", entries[0], added)
	}
}

func TestAddWritesMenuEntryUnrestricted(t *testing.T) {
	e := newEnv(t, storage.ModeUnrestricted, noIconRunner{})

	added, err := e.reg.Add(writeSource(t, "Firefox.AppImage"))
	if err != nil {
		t.Fatalf("Add() error = %v", err)
	}

	data, err := os.ReadFile(added.DesktopFile)
	if err != nil {
		t.Fatalf("menu entry not written: %v", err)
	}
	content := string(data)
	if !strings.Contains(content, "Name=Firefox") {
		t.Errorf("entry missing name:\n%s", content)
	}
	if !strings.Contains(content, `Exec="`+added.Path+`" %U`) {
		t.Errorf("entry missing exec line:\n%s", content)
	}
}

func TestAddSandboxedSkipsMenuEntry(t *testing.T) {
	e := newEnv(t, storage.ModeSandboxed, noIconRunner{})

	added, err := e.reg.Add(writeSource(t, "Firefox.AppImage"))
	if err != nil {
		t.Fatalf("Add() error = %v", err)
	}

	if added.DesktopFile != filepath.Join(e.appsDir, "axec-firefox.desktop") {
		t.Errorf("computed entry path = %s", added.DesktopFile)
	}
	if _, err := os.Stat(added.DesktopFile); !os.IsNotExist(err) {
		t.Error("sandboxed add must not write the menu entry")
	}
}

func TestAddExtractsIcon(t *testing.T) {
	e := newEnv(t, storage.ModeUnrestricted, dirIconRunner{})

	added, err := e.reg.Add(writeSource(t, "Firefox.AppImage"))
	if err != nil {
		t.Fatalf("Add() error = %v", err)
	}
	want := filepath.Join(e.storageDir(), "firefox.png")
	if added.IconPath != want {
		t.Errorf("icon path = %q, want %q", added.IconPath, want)
	}

	data, _ := os.ReadFile(added.DesktopFile)
	if !strings.Contains(string(data), "Icon="+want) {
		t.Error("menu entry missing icon line")
	}
}

func TestAddMissingSourceHasNoSideEffects(t *testing.T) {
	e := newEnv(t, storage.ModeUnrestricted, noIconRunner{})

	_, err := e.reg.Add("/tmp/nonexistent.AppImage")
	if err == nil || !strings.Contains(err.Error(), "not found") {
		t.Fatalf("Add() error = %v, want not found", err)
	}
	if !errors.Is(err, ErrNotFound) {
		t.Error("error should wrap ErrNotFound")
	}
	if _, err := os.Stat(e.dataDir); !os.IsNotExist(err) {
		t.Error("failed add must not create directories")
	}
}

func TestAddTwiceSameIDOverwrites(t *testing.T) {
	e := newEnv(t, storage.ModeUnrestricted, dirIconRunner{})

	first := writeSource(t, "MyApp.AppImage")
	if _, err := e.reg.Add(first); err != nil {
		t.Fatalf("first Add() error = %v", err)
	}

	// Punctuation collapses away, so this derives the same id as MyApp.
	second := filepath.Join(t.TempDir(), "MyApp!!!.AppImage")
	if err := os.WriteFile(second, []byte("newer build"), 0644); err != nil {
		t.Fatal(err)
	}
	added, err := e.reg.Add(second)
	if err != nil {
		t.Fatalf("second Add() error = %v", err)
	}
	if added.ID != "myapp" {
		t.Fatalf("id = %q, want myapp", added.ID)
	}

	entries, err := e.reg.List()
	if err != nil {
		t.Fatalf("List() error = %v", err)
	}
	if len(entries) != 1 {
		t.Fatalf("expected 1 entry after re-add, got %d", len(entries))
	}

	data, err := os.ReadFile(entries[0].Path)
	if err != nil || string(data) != "newer build" {
		t.Errorf("bundle content = %q, err = %v; want overwritten copy", data, err)
	}

	// At most one bundle and one icon file for the id.
	dirents, _ := os.ReadDir(e.storageDir())
	bundles, icons := 0, 0
	for _, d := range dirents {
		ext := strings.TrimPrefix(filepath.Ext(d.Name()), ".")
		if models.IsBundleExt(ext) {
			bundles++
		} else {
			icons++
		}
	}
	if bundles != 1 || icons > 1 {
		t.Errorf("storage has %d bundles, %d icons; want 1 bundle, at most 1 icon", bundles, icons)
	}
}

func TestAddCleansStaleLowercaseBundle(t *testing.T) {
	e := newEnv(t, storage.ModeUnrestricted, noIconRunner{})

	if err := os.MkdirAll(e.storageDir(), 0755); err != nil {
		t.Fatal(err)
	}
	stale := filepath.Join(e.storageDir(), "myapp.appimage")
	if err := os.WriteFile(stale, []byte("stale"), 0644); err != nil {
		t.Fatal(err)
	}

	if _, err := e.reg.Add(writeSource(t, "MyApp.AppImage")); err != nil {
		t.Fatalf("Add() error = %v", err)
	}
	if _, err := os.Stat(stale); !os.IsNotExist(err) {
		t.Error("stale lowercase bundle not cleaned up on re-import")
	}
}

func TestRemove(t *testing.T) {
	e := newEnv(t, storage.ModeUnrestricted, dirIconRunner{})

	added, err := e.reg.Add(writeSource(t, "MyApp.AppImage"))
	if err != nil {
		t.Fatalf("Add() error = %v", err)
	}

	if err := e.reg.Remove(added.ID); err != nil {
		t.Fatalf("Remove() error = %v", err)
	}

	entries, _ := e.reg.List()
	if len(entries) != 0 {
		t.Errorf("entry still listed after remove")
	}
	if _, err := os.Stat(added.IconPath); !os.IsNotExist(err) {
		t.Error("icon not deleted")
	}
	if _, err := os.Stat(added.DesktopFile); !os.IsNotExist(err) {
		t.Error("menu entry not deleted")
	}

	err = e.reg.Remove(added.ID)
	if err == nil || !strings.Contains(err.Error(), "not found") {
		t.Errorf("second Remove() error = %v, want not found", err)
	}
}

func TestRemoveNeverAddedID(t *testing.T) {
	e := newEnv(t, storage.ModeUnrestricted, noIconRunner{})

	err := e.reg.Remove("never-added-id")
	if err == nil || !strings.Contains(err.Error(), "not found") {
		t.Errorf("Remove() error = %v, want not found", err)
	}
}

func TestRemoveAcceptsLowercaseVariant(t *testing.T) {
	e := newEnv(t, storage.ModeSandboxed, noIconRunner{})

	if err := os.MkdirAll(e.storageDir(), 0755); err != nil {
		t.Fatal(err)
	}
	path := filepath.Join(e.storageDir(), "oldtool.appimage")
	if err := os.WriteFile(path, []byte("x"), 0644); err != nil {
		t.Fatal(err)
	}

	if err := e.reg.Remove("oldtool"); err != nil {
		t.Errorf("Remove() error = %v", err)
	}
}

func TestLaunch(t *testing.T) {
	e := newEnv(t, storage.ModeUnrestricted, noIconRunner{})

	added, err := e.reg.Add(writeSource(t, "MyApp.AppImage"))
	if err != nil {
		t.Fatalf("Add() error = %v", err)
	}

	if err := e.reg.Launch(added.ID); err != nil {
		t.Fatalf("Launch() error = %v", err)
	}
	if len(e.launched) != 1 || e.launched[0] != added.Path {
		t.Errorf("launched = %v, want [%s]", e.launched, added.Path)
	}
}

func TestLaunchMissingBundle(t *testing.T) {
	e := newEnv(t, storage.ModeUnrestricted, noIconRunner{})

	err := e.reg.Launch("ghost")
	if err == nil || !strings.Contains(err.Error(), "not found") {
		t.Errorf("Launch() error = %v, want not found", err)
	}
	if len(e.launched) != 0 {
		t.Error("no process should be spawned for a missing bundle")
	}
}

func TestLaunchSpawnFailurePropagates(t *testing.T) {
	e := newEnv(t, storage.ModeUnrestricted, noIconRunner{})
	e.reg.spawn = func(path string) error { return errors.New("exec format error") }

	added, err := e.reg.Add(writeSource(t, "MyApp.AppImage"))
	if err != nil {
		t.Fatalf("Add() error = %v", err)
	}
	if err := e.reg.Launch(added.ID); err == nil {
		t.Error("Launch() should propagate spawn failure")
	}
}

func TestRenameUpdatesListAndMenuEntry(t *testing.T) {
	e := newEnv(t, storage.ModeUnrestricted, noIconRunner{})

	added, err := e.reg.Add(writeSource(t, "MyApp.AppImage"))
	if err != nil {
		t.Fatalf("Add() error = %v", err)
	}

	if err := e.reg.Rename(added.ID, "Shiny Name"); err != nil {
		t.Fatalf("Rename() error = %v", err)
	}

	entries, _ := e.reg.List()
	if len(entries) != 1 || entries[0].Name != "Shiny Name" {
		t.Errorf("entries = %+v, want renamed entry", entries)
	}
	if entries[0].ID != added.ID {
		t.Error("rename must not change the id")
	}

	data, _ := os.ReadFile(added.DesktopFile)
	if !strings.Contains(string(data), "Name=Shiny Name") {
		t.Error("menu entry not rewritten with override")
	}

	// Clearing the override reverts to the name derived from the stored
	// bundle filename, which is the sanitized id.
	if err := e.reg.Rename(added.ID, ""); err != nil {
		t.Fatalf("Rename(clear) error = %v", err)
	}
	entries, _ = e.reg.List()
	if entries[0].Name != "myapp" {
		t.Errorf("name after clearing = %q, want myapp", entries[0].Name)
	}
}

func TestRenameMissingBundle(t *testing.T) {
	e := newEnv(t, storage.ModeUnrestricted, noIconRunner{})

	err := e.reg.Rename("ghost", "Name")
	if err == nil || !strings.Contains(err.Error(), "not found") {
		t.Errorf("Rename() error = %v, want not found", err)
	}
}

func TestListEmptyStorage(t *testing.T) {
	e := newEnv(t, storage.ModeUnrestricted, noIconRunner{})

	entries, err := e.reg.List()
	if err != nil {
		t.Fatalf("List() error = %v", err)
	}
	if len(entries) != 0 {
		t.Errorf("List() on fresh storage = %d entries", len(entries))
	}
}

func TestListIgnoresForeignFiles(t *testing.T) {
	e := newEnv(t, storage.ModeUnrestricted, noIconRunner{})

	if _, err := e.reg.Add(writeSource(t, "MyApp.AppImage")); err != nil {
		t.Fatal(err)
	}
	for _, name := range []string{"notes.txt", "stray.png"} {
		if err := os.WriteFile(filepath.Join(e.storageDir(), name), []byte("x"), 0644); err != nil {
			t.Fatal(err)
		}
	}

	entries, err := e.reg.List()
	if err != nil {
		t.Fatalf("List() error = %v", err)
	}
	if len(entries) != 1 {
		t.Errorf("List() = %d entries, want 1", len(entries))
	}
}
