// Package desktop renders and writes XDG desktop-menu entries for managed
// AppImages. One entry file exists per bundle id; writing fully replaces
// any previous file.
package desktop

import (
	"fmt"
	"os"
	"path/filepath"
)

// EntryPath returns the menu-entry path for an id inside appsDir. The path
// is always computable, even in sandboxed mode where the file is never
// written.
func EntryPath(appsDir, id string) string {
	return filepath.Join(appsDir, fmt.Sprintf("axec-%s.desktop", id))
}

// Render produces the desktop-entry text for a bundle. The Exec line quotes
// the bundle path and passes file/URL arguments through; the icon line is
// rendered empty when no icon was extracted. X-AppImage-Integrate=false
// keeps appimaged-style integrators from re-registering the bundle.
func Render(name, execPath, iconPath string) string {
	iconLine := ""
	if iconPath != "" {
		iconLine = "Icon=" + iconPath
	}
	return fmt.Sprintf(`[Desktop Entry]
Type=Application
Name=%s
Exec="%s" %%U
Terminal=false
Categories=Utility;
%s
X-AppImage-Version=1
X-AppImage-Integrate=false
`, name, execPath, iconLine)
}

// Write renders the entry and replaces whatever exists at entryPath.
func Write(name, execPath, iconPath, entryPath string) error {
	return os.WriteFile(entryPath, []byte(Render(name, execPath, iconPath)), 0644)
}

// Remove deletes the entry file if present and reports whether a file was
// actually removed.
func Remove(entryPath string) bool {
	if _, err := os.Stat(entryPath); err != nil {
		return false
	}
	return os.Remove(entryPath) == nil
}
