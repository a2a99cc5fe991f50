package mediapath

import (
	"path"
	"strings"
)

const (
	// MaxFilenameLength is the longest filename accepted anywhere.
	MaxFilenameLength = 255
	// MaxNamePartLength caps the name portion (extension excluded)
	// produced by SanitizeFilename.
	MaxNamePartLength = 100

	invalidChars = `<>:"/\|?*`
)

// reservedNames are Windows device names that must never be used as the
// name portion of a filename, case-insensitively.
var reservedNames = map[string]struct{}{
	"CON": {}, "PRN": {}, "AUX": {}, "NUL": {},
	"COM1": {}, "COM2": {}, "COM3": {}, "COM4": {}, "COM5": {},
	"COM6": {}, "COM7": {}, "COM8": {}, "COM9": {},
	"LPT1": {}, "LPT2": {}, "LPT3": {}, "LPT4": {}, "LPT5": {},
	"LPT6": {}, "LPT7": {}, "LPT8": {}, "LPT9": {},
}

// suspiciousExtensions are extensions that are never accepted for
// upload regardless of the declared MIME type.
var suspiciousExtensions = map[string]struct{}{
	".exe": {}, ".bat": {}, ".cmd": {}, ".com": {}, ".pif": {},
	".scr": {}, ".vbs": {}, ".js": {}, ".jar": {}, ".php": {},
	".asp": {}, ".aspx": {}, ".jsp": {}, ".py": {}, ".pl": {},
	".sh": {}, ".ps1": {}, ".vb": {},
}

// allowedPrefixes are the only top-level directories a relative media
// path may resolve into.
var allowedPrefixes = []string{"users/", "teams/", "temp/"}

func isReserved(name string) bool {
	_, ok := reservedNames[strings.ToUpper(name)]
	return ok
}

// splitExt splits a filename into name and extension, keeping the dot
// on the extension. Unlike path.Ext it treats a lone leading dot as
// part of the name.
func splitExt(filename string) (name, ext string) {
	ext = path.Ext(filename)
	if ext == filename {
		return filename, ""
	}
	return strings.TrimSuffix(filename, ext), ext
}

// ValidateFilename reports whether a filename is acceptable as-is:
// non-empty, within length limits, free of dangerous characters,
// not a reserved device name, and not a hidden file.
func ValidateFilename(filename string) bool {
	if filename == "" || len(filename) > MaxFilenameLength {
		return false
	}
	if strings.ContainsAny(filename, invalidChars) {
		return false
	}
	name, _ := splitExt(filename)
	if isReserved(name) {
		return false
	}
	if strings.HasPrefix(filename, ".") {
		return false
	}
	return true
}

// SanitizeFilename rewrites a filename into an acceptable one:
// dangerous characters become underscores, reserved device names get a
// "_file" suffix, the name portion is capped at MaxNamePartLength,
// boundary dots are stripped, and a fully-emptied name falls back to
// "unnamed_file". The function is idempotent.
func SanitizeFilename(filename string) string {
	if filename == "" {
		return "unnamed_file"
	}

	var b strings.Builder
	for _, r := range filename {
		if strings.ContainsRune(invalidChars, r) {
			b.WriteRune('_')
		} else {
			b.WriteRune(r)
		}
	}
	filename = b.String()

	name, ext := splitExt(filename)
	if isReserved(name) {
		name += "_file"
	}
	if len(name) > MaxNamePartLength {
		name = name[:MaxNamePartLength]
	}
	name = strings.Trim(name, ".")
	if name == "" {
		name = "unnamed_file"
	}
	return name + ext
}

// SanitizeFilenameAdvanced extends SanitizeFilename with control
// character stripping, double-extension collapsing and whitespace
// normalization. Use it for user-supplied filenames headed for disk.
func SanitizeFilenameAdvanced(filename string) string {
	if filename == "" {
		return "unnamed_file"
	}

	filename = strings.Map(func(r rune) rune {
		if r <= 0x0f {
			return -1
		}
		return r
	}, filename)

	filename = SanitizeFilename(filename)

	// name.tar.gz is fine; name.a.b.c hides the real extension.
	if parts := strings.Split(filename, "."); len(parts) > 3 {
		name := strings.Join(parts[:len(parts)-1], "_")
		filename = name + "." + parts[len(parts)-1]
	}

	filename = strings.TrimSpace(filename)
	filename = strings.Join(strings.Fields(filename), " ")
	if filename == "" {
		return "unnamed_file"
	}
	return filename
}

// ValidatePathSecurity reports whether a relative media path is safe to
// hand to the filesystem: no traversal segments, not absolute, and
// rooted under one of the allow-listed prefixes. It must be called
// before every read or write that takes a caller-influenced path.
func ValidatePathSecurity(relPath string) bool {
	// Reject traversal before normalization so "a/../b" never slips
	// through as "b".
	if strings.Contains(relPath, "..") || strings.HasPrefix(relPath, "/") {
		return false
	}

	normalized := path.Clean(strings.ReplaceAll(relPath, "\\", "/"))
	for _, prefix := range allowedPrefixes {
		if strings.HasPrefix(normalized, prefix) {
			return true
		}
	}
	return false
}

// ValidateFileExtension reports whether the filename's extension is
// acceptable. Suspicious executable/script extensions are always
// rejected; when allowed is non-empty the extension must also be in it.
func ValidateFileExtension(filename string, allowed []string) bool {
	if filename == "" {
		return false
	}
	ext := strings.ToLower(path.Ext(filename))
	if _, bad := suspiciousExtensions[ext]; bad {
		return false
	}
	if len(allowed) == 0 {
		return true
	}
	for _, a := range allowed {
		if ext == strings.ToLower(a) {
			return true
		}
	}
	return false
}

// ValidateFilenameSecurity is a stricter filename check applied to
// upload names: control characters, traversal sequences, more than
// three dot-separated segments (a double-extension heuristic), and
// over-long names are all rejected.
func ValidateFilenameSecurity(filename string) bool {
	if filename == "" || len(filename) > MaxFilenameLength {
		return false
	}
	for _, r := range filename {
		if r <= 0x0f {
			return false
		}
	}
	if strings.Contains(filename, "..") ||
		strings.HasPrefix(filename, "/") ||
		strings.HasPrefix(filename, "\\") {
		return false
	}
	if len(strings.Split(filename, ".")) > 3 {
		return false
	}
	return true
}
