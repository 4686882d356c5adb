package models

import "strings"

// AppImageEntry represents a managed AppImage bundle reconstructed from
// storage contents. There is no persisted index: every field derives from
// the stored bundle's filename and the directory layout.
type AppImageEntry struct {
	ID          string `json:"id"`           // Sanitized stable key for all on-disk artifacts
	Name        string `json:"name"`         // Display name shown in menus and lists
	Path        string `json:"path"`         // Absolute path to the stored bundle
	IconPath    string `json:"icon_path"`    // Absolute path to the extracted icon, "" if none
	DesktopFile string `json:"desktop_file"` // Computed menu-entry path (may not exist when sandboxed)
}

// BundleExtensions are the accepted bundle filename extensions. Imports
// always write the first variant; the second is accepted for files created
// by other tools.
var BundleExtensions = []string{"AppImage", "appimage"}

// IconExtensions are the recognized icon image extensions, in the order
// icon lookup tries them.
var IconExtensions = []string{"png", "svg", "ico", "xpm"}

// IsBundleExt reports whether ext (without the dot) names a bundle file.
func IsBundleExt(ext string) bool {
	for _, e := range BundleExtensions {
		if strings.EqualFold(ext, e) {
			return true
		}
	}
	return false
}

// HasIcon reports whether the entry has an extracted icon.
func (e *AppImageEntry) HasIcon() bool {
	return e.IconPath != ""
}
