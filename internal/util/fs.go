package util

import (
	"path/filepath"
	"strings"
	"unicode/utf8"
)

// maxNameRunes caps the stem of a sanitized file name.
const maxNameRunes = 120

// SanitizeFilename reduces an uploaded file name to a safe base name:
// directories are dropped, forbidden characters and spaces become underscores,
// runs of underscores collapse, and the stem is truncated. The extension is kept
// so the backend can still tell the payload format.
func SanitizeFilename(name string) string {
	name = filepath.Base(strings.ReplaceAll(name, `\`, "/"))
	if name == "." || name == "/" {
		name = ""
	}
	ext := filepath.Ext(name)
	stem := strings.TrimSuffix(name, ext)

	stem = strings.ReplaceAll(stem, " ", "_")
	forbidden := `[]/:*?"<>|#%{}$!@+^~` + "`" + `=&;`
	for _, r := range forbidden {
		stem = strings.ReplaceAll(stem, string(r), "_")
	}
	for strings.Contains(stem, "__") {
		stem = strings.ReplaceAll(stem, "__", "_")
	}
	stem = strings.Trim(stem, "._-")

	if utf8.RuneCountInString(stem) > maxNameRunes {
		stem = string([]rune(stem)[:maxNameRunes])
	}
	if stem == "" {
		stem = "upload"
	}
	return stem + strings.ToLower(ext)
}
