package textutil

import (
	"path/filepath"
	"strings"
)

// fileNameReplacer replaces filesystem- and header-unsafe characters.
var fileNameReplacer = strings.NewReplacer(
	"/", "-",
	"\\", "-",
	":", "-",
	"*", "-",
	"?", "",
	"\"", "",
	"<", "",
	">", "",
	"|", "",
	"\r", "",
	"\n", "",
	"\x00", "",
)

// SanitizeFileName replaces filesystem-unsafe characters in a filename.
// Path separators and a few punctuation marks become dashes. Quotes and line
// breaks are removed so the result is safe inside a Content-Disposition header.
func SanitizeFileName(name string) string {
	name = strings.TrimSpace(name)
	if name == "" {
		return ""
	}
	return strings.TrimSpace(fileNameReplacer.Replace(name))
}

// StemName returns the base of an uploaded file name without its extension,
// e.g. "cards/Rin.png" becomes "Rin".
func StemName(fileName string) string {
	base := filepath.Base(strings.ReplaceAll(strings.TrimSpace(fileName), "\\", "/"))
	if base == "." || base == "/" {
		return ""
	}
	return strings.TrimSpace(strings.TrimSuffix(base, filepath.Ext(base)))
}
