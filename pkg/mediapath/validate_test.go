package mediapath_test

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/dmitrymomot/mediakit/pkg/mediapath"
)

func TestValidateFilename(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name     string
		filename string
		want     bool
	}{
		{"simple name", "report.pdf", true},
		{"spaces allowed", "annual report 2025.pdf", true},
		{"empty", "", false},
		{"dangerous character", "bad|name.txt", false},
		{"angle brackets", "<script>.txt", false},
		{"reserved device name", "CON.txt", false},
		{"reserved lowercase", "nul.log", false},
		{"hidden file", ".hidden", false},
		{"too long", strings.Repeat("a", 252) + ".txt", false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			assert.Equal(t, tt.want, mediapath.ValidateFilename(tt.filename))
		})
	}
}

func TestSanitizeFilename(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name     string
		filename string
		want     string
	}{
		{"clean passes through", "report.pdf", "report.pdf"},
		{"dangerous chars replaced", `a<b>c:d.txt`, "a_b_c_d.txt"},
		{"reserved name suffixed", "CON.txt", "CON_file.txt"},
		{"empty falls back", "", "unnamed_file"},
		{"leading dot stripped", ".hidden", "hidden"},
		{"name part capped", strings.Repeat("x", 150) + ".txt", strings.Repeat("x", 100) + ".txt"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			assert.Equal(t, tt.want, mediapath.SanitizeFilename(tt.filename))
		})
	}
}

func TestSanitizeFilenameIdempotent(t *testing.T) {
	t.Parallel()

	inputs := []string{"report.pdf", `a<b>c.txt`, "CON.txt", ".hidden", ""}
	for _, in := range inputs {
		once := mediapath.SanitizeFilename(in)
		assert.Equal(t, once, mediapath.SanitizeFilename(once), "input %q", in)
	}
}

func TestSanitizeFilenameAdvanced(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name     string
		filename string
		want     string
	}{
		{"control chars stripped", "file\x00\x01name.txt", "filename.txt"},
		{"tar.gz preserved", "archive.tar.gz", "archive.tar.gz"},
		{"hidden extension collapsed", "evil.txt.exe.jpg", "evil_txt_exe.jpg"},
		{"whitespace normalized", "  annual   report.pdf ", "annual report.pdf"},
		{"empty falls back", "", "unnamed_file"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			assert.Equal(t, tt.want, mediapath.SanitizeFilenameAdvanced(tt.filename))
		})
	}
}

func TestValidatePathSecurity(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		path string
		want bool
	}{
		{"user file", "users/1/avatar.jpg", true},
		{"project file", "teams/2/projects/site/images/a.png", true},
		{"temp staging", "temp/uploads/abc.jpg", true},
		{"backslashes normalized", `users\1\file.txt`, true},
		{"traversal", "../etc/passwd", false},
		{"traversal mid-path", "users/../teams/1", false},
		{"absolute", "/etc/passwd", false},
		{"outside allow-list", "backups/dump.sql", false},
		{"bare prefix without slash", "users", false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			assert.Equal(t, tt.want, mediapath.ValidatePathSecurity(tt.path))
		})
	}
}

func TestValidateFileExtension(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name     string
		filename string
		allowed  []string
		want     bool
	}{
		{"allowed extension", "photo.jpg", []string{".jpg", ".png"}, true},
		{"case insensitive", "photo.JPG", []string{".jpg"}, true},
		{"not in allow-list", "doc.pdf", []string{".jpg"}, false},
		{"executable always rejected", "setup.exe", nil, false},
		{"script always rejected", "run.sh", []string{".sh"}, false},
		{"empty allow-list accepts benign", "notes.txt", nil, true},
		{"no extension with allow-list", "README", []string{".txt"}, false},
		{"empty filename", "", nil, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			assert.Equal(t, tt.want, mediapath.ValidateFileExtension(tt.filename, tt.allowed))
		})
	}
}

func TestValidateFilenameSecurity(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name     string
		filename string
		want     bool
	}{
		{"plain name", "report.pdf", true},
		{"two extensions ok", "archive.tar.gz", true},
		{"traversal", "..secret.txt", false},
		{"control char", "a\x01b.txt", false},
		{"too many segments", "a.b.c.d", false},
		{"leading slash", "/etc/passwd", false},
		{"leading backslash", `\share\f.txt`, false},
		{"too long", strings.Repeat("a", 300), false},
		{"empty", "", false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			assert.Equal(t, tt.want, mediapath.ValidateFilenameSecurity(tt.filename))
		})
	}
}
