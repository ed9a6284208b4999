package model

import (
	"strings"
)

// ParseClipFilename recovers the original page URL from an uploaded clip
// filename. Browser extensions name clips "{prefix}_{url}.html" where every
// "/" in the URL was replaced with "$". Returns "" when nothing can be
// recovered.
func ParseClipFilename(filename string) string {
	name := filename
	for _, ext := range []string{".html", ".htm"} {
		if strings.HasSuffix(strings.ToLower(name), ext) {
			name = name[:len(name)-len(ext)]
			break
		}
	}

	// Drop the random prefix when present
	if idx := strings.Index(name, "_"); idx >= 0 {
		name = name[idx+1:]
	}

	if name == "" {
		return ""
	}

	return strings.ReplaceAll(name, "$", "/")
}
