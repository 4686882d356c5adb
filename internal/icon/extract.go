// Package icon recovers a representative icon from an AppImage by running
// the bundle's self-extraction and searching the unpacked tree. Extraction
// is strictly best-effort: an entry without an icon is a valid degraded
// state, so no failure here ever propagates.
package icon

import (
	"fmt"
	"io"
	"os"
	"os/exec"
	"path/filepath"
	"strings"

	"axec/internal/models"

	"github.com/rs/zerolog"
)

// Runner invokes the bundle's self-extraction in workDir. It exists so
// tests can fake the subprocess.
type Runner interface {
	Run(bundlePath, workDir string) error
}

// ExecRunner runs `<bundle> --appimage-extract` as a real subprocess. The
// call blocks until the extraction process exits.
type ExecRunner struct{}

// Run implements Runner.
func (ExecRunner) Run(bundlePath, workDir string) error {
	cmd := exec.Command(bundlePath, "--appimage-extract")
	cmd.Dir = workDir
	return cmd.Run()
}

// iconDirs are the theme subdirectories searched inside squashfs-root,
// largest resolution first. The top-level .DirIcon is always tried before
// any of these.
var iconDirs = []string{
	"usr/share/icons/hicolor/256x256/apps",
	"usr/share/icons/hicolor/128x128/apps",
	"usr/share/icons/hicolor/64x64/apps",
	"usr/share/pixmaps",
}

// Extractor extracts icons into a storage directory.
type Extractor struct {
	runner Runner
	log    zerolog.Logger
}

// NewExtractor returns an Extractor using the given runner.
func NewExtractor(runner Runner, log zerolog.Logger) *Extractor {
	return &Extractor{runner: runner, log: log}
}

// Extract unpacks the bundle in a disposable temp directory, picks the best
// icon candidate and copies it to storageDir as {id}.{ext}. It returns the
// copied icon path, or "" when no icon could be recovered for any reason.
func (e *Extractor) Extract(bundlePath, storageDir, id string) string {
	workDir, err := os.MkdirTemp("", "axec-extract-")
	if err != nil {
		e.log.Debug().Err(err).Msg("icon: temp dir failed")
		return ""
	}
	defer os.RemoveAll(workDir)

	if err := e.runner.Run(bundlePath, workDir); err != nil {
		e.log.Debug().Err(err).Str("bundle", bundlePath).Msg("icon: extraction failed")
		return ""
	}

	src := findCandidate(filepath.Join(workDir, "squashfs-root"))
	if src == "" {
		e.log.Debug().Str("bundle", bundlePath).Msg("icon: no candidate found")
		return ""
	}

	ext := strings.ToLower(strings.TrimPrefix(filepath.Ext(src), "."))
	if ext == "" {
		ext = "png"
	}
	dest := filepath.Join(storageDir, fmt.Sprintf("%s.%s", id, ext))
	if err := copyFile(src, dest); err != nil {
		e.log.Debug().Err(err).Str("icon", src).Msg("icon: copy failed")
		return ""
	}
	return dest
}

// findCandidate returns the first existing icon in priority order: the
// default top-level .DirIcon, then theme directories by resolution.
func findCandidate(squashRoot string) string {
	candidates := []string{filepath.Join(squashRoot, ".DirIcon")}

	for _, sub := range iconDirs {
		dir := filepath.Join(squashRoot, sub)
		entries, err := os.ReadDir(dir)
		if err != nil {
			continue
		}
		for _, entry := range entries {
			ext := strings.TrimPrefix(filepath.Ext(entry.Name()), ".")
			if isIconExt(ext) {
				candidates = append(candidates, filepath.Join(dir, entry.Name()))
			}
		}
	}

	for _, c := range candidates {
		if info, err := os.Stat(c); err == nil && !info.IsDir() {
			return c
		}
	}
	return ""
}

func isIconExt(ext string) bool {
	for _, e := range models.IconExtensions {
		if strings.EqualFold(ext, e) {
			return true
		}
	}
	return false
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
