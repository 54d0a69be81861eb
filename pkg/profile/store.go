package profile

import (
	"os"
	"path/filepath"
	"strings"
	"unicode"

	"github.com/BurntSushi/toml"
	"github.com/cockroachdb/errors"
)

const (
	appName = "scratchpad"

	// EnvProfilesDir overrides the user profile directory.
	EnvProfilesDir = "SCRATCHPAD_PROFILES_DIR"
)

// UserDir returns the directory holding user-supplied profiles.
func UserDir() (string, error) {
	if dir := os.Getenv(EnvProfilesDir); dir != "" {
		return dir, nil
	}
	base, err := os.UserConfigDir()
	if err != nil {
		return "", errors.Wrap(err, "could not determine user config directory")
	}
	return filepath.Join(base, appName, "language_profiles"), nil
}

// Document is the on-disk form of a profile.
type Document struct {
	Name                string              `toml:"name"`
	LanguageID          string              `toml:"language_id"`
	SourceFileExtension string              `toml:"source_file_extension"`
	Compile             bool                `toml:"compile"`
	Command             map[string][]string `toml:"command"`
}

// Save writes doc as a new document under dir and returns its path. An
// existing file is never overwritten.
func Save(dir string, doc *Document) (string, error) {
	if doc.Name == "" {
		return "", errors.New("profile name must not be empty")
	}
	if len(doc.Command["default"]) == 0 {
		return "", errors.Errorf("profile '%s' has no default command", doc.Name)
	}

	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", errors.Wrapf(err, "failed to create directory: %s", dir)
	}

	p := DocumentPath(dir, doc.Name)
	w, err := os.OpenFile(p, os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0o644)
	if err != nil {
		return "", errors.Wrapf(err, "failed to create file: %s", p)
	}
	defer w.Close()

	if err := toml.NewEncoder(w).Encode(doc); err != nil {
		return "", errors.Wrapf(err, "failed to encode profile: %s", p)
	}

	return p, nil
}

// DocumentPath is the path Save writes the document named name to.
func DocumentPath(dir, name string) string {
	return filepath.Join(dir, fileName(name))
}

func fileName(name string) string {
	var b strings.Builder
	dash := false
	for _, r := range strings.ToLower(name) {
		switch {
		case unicode.IsLetter(r) || unicode.IsDigit(r):
			b.WriteRune(r)
			dash = false
		case r == '+':
			b.WriteString("p")
			dash = false
		case !dash && b.Len() > 0:
			b.WriteByte('-')
			dash = true
		}
	}
	slug := strings.TrimSuffix(b.String(), "-")
	if slug == "" {
		slug = "profile"
	}
	return slug + documentExt
}
