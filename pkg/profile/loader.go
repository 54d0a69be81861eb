package profile

import (
	"embed"
	"io/fs"
	"os"
	"path"
	"path/filepath"
	"runtime"
	"sort"
	"strings"

	"github.com/BurntSushi/toml"
	"github.com/cockroachdb/errors"
	"go.uber.org/zap"

	"github.com/yutopp/scratchpad/pkg/domain"
)

const documentExt = ".toml"

//go:embed builtin/*.toml
var builtinFS embed.FS

// Source is a flat directory of profile documents.
type Source struct {
	Name string
	FS   fs.FS

	embedded bool
}

func Builtin() Source {
	sub, err := fs.Sub(builtinFS, "builtin")
	if err != nil {
		panic(err)
	}
	return Source{Name: "builtin", FS: sub, embedded: true}
}

func DirSource(dir string) Source {
	return Source{Name: dir, FS: os.DirFS(dir)}
}

type Loader struct {
	platform string
	logger   *zap.Logger
}

type Option func(*Loader)

// WithPlatform selects command overrides for goos instead of runtime.GOOS.
func WithPlatform(goos string) Option {
	return func(l *Loader) {
		l.platform = goos
	}
}

func WithLogger(logger *zap.Logger) Option {
	return func(l *Loader) {
		l.logger = logger
	}
}

func NewLoader(opts ...Option) *Loader {
	l := &Loader{
		platform: runtime.GOOS,
		logger:   zap.NewNop(),
	}
	for _, opt := range opts {
		opt(l)
	}
	return l
}

// LoadDirs loads every document found in dirs. Directories that do not exist
// are skipped.
func LoadDirs(dirs ...string) ([]*domain.Profile, error) {
	return NewLoader().LoadDirs(dirs...)
}

// Default loads the built-in profiles merged with the ones in userDir.
func Default(userDir string) ([]*domain.Profile, error) {
	return NewLoader().Default(userDir)
}

func (l *Loader) Default(userDir string) ([]*domain.Profile, error) {
	sources := []Source{Builtin()}
	dirSources, err := l.dirSources(userDir)
	if err != nil {
		return nil, err
	}
	return l.Load(append(sources, dirSources...)...)
}

func (l *Loader) LoadDirs(dirs ...string) ([]*domain.Profile, error) {
	sources, err := l.dirSources(dirs...)
	if err != nil {
		return nil, err
	}
	return l.Load(sources...)
}

func (l *Loader) dirSources(dirs ...string) ([]Source, error) {
	sources := make([]Source, 0, len(dirs))
	for _, dir := range dirs {
		if dir == "" {
			continue
		}
		info, err := os.Stat(dir)
		if err != nil {
			if errors.Is(err, fs.ErrNotExist) {
				l.logger.Debug("profile directory not found", zap.String("dir", dir))
				continue
			}
			return nil, errors.Wrapf(err, "failed to stat profile directory: %s", dir)
		}
		if !info.IsDir() {
			return nil, errors.Errorf("profile path is not a directory: '%s'", dir)
		}
		sources = append(sources, DirSource(dir))
	}
	return sources, nil
}

// Load reads all sources into one listing sorted by name. Names must be
// unique across every source.
func (l *Loader) Load(sources ...Source) ([]*domain.Profile, error) {
	var profiles []*domain.Profile
	seen := make(map[string]string)

	for _, src := range sources {
		entries, err := fs.ReadDir(src.FS, ".")
		if err != nil {
			return nil, errors.Wrapf(err, "failed to read profile directory: %s", src.Name)
		}

		for _, entry := range entries {
			if entry.IsDir() || !strings.HasSuffix(entry.Name(), documentExt) {
				continue
			}
			p, err := l.loadDocument(src, entry.Name())
			if err != nil {
				return nil, err
			}

			if prev, ok := seen[p.Name()]; ok {
				return nil, &DuplicateProfileNameError{
					Name:  p.Name(),
					Paths: []string{prev, p.Source()},
				}
			}
			seen[p.Name()] = p.Source()

			l.logger.Debug("profile loaded",
				zap.String("name", p.Name()),
				zap.String("path", p.Source()),
				zap.Bool("compile", p.RequiresCompile()),
			)
			profiles = append(profiles, p)
		}
	}

	sort.SliceStable(profiles, func(i, j int) bool {
		return profiles[i].Name() < profiles[j].Name()
	})

	return profiles, nil
}

// document mirrors the on-disk layout. Pointers tell absent keys apart from
// zero values.
type document struct {
	Name                *string             `toml:"name"`
	LanguageID          *string             `toml:"language_id"`
	SourceFileExtension *string             `toml:"source_file_extension"`
	Compile             *bool               `toml:"compile"`
	Command             map[string][]string `toml:"command"`
}

func (l *Loader) loadDocument(src Source, name string) (*domain.Profile, error) {
	docPath := sourcePath(src, name)

	data, err := fs.ReadFile(src.FS, name)
	if err != nil {
		return nil, errors.Wrapf(err, "failed to read profile: %s", docPath)
	}

	var doc document
	md, err := toml.Decode(string(data), &doc)
	if err != nil {
		return nil, &MalformedProfileError{Path: docPath, Err: err}
	}
	if undecoded := md.Undecoded(); len(undecoded) > 0 {
		keys := make([]string, 0, len(undecoded))
		for _, k := range undecoded {
			keys = append(keys, k.String())
		}
		l.logger.Debug("ignoring unknown profile keys", zap.String("path", docPath), zap.Strings("keys", keys))
	}

	if doc.Command == nil && md.IsDefined("command") {
		return nil, &MalformedProfileError{Path: docPath, Key: "command", Err: errors.New("must be a table")}
	}

	return l.buildProfile(docPath, &doc)
}

// FromDocument validates doc as if it had been loaded from docPath.
func (l *Loader) FromDocument(docPath string, doc *Document) (*domain.Profile, error) {
	return l.buildProfile(docPath, &document{
		Name:                &doc.Name,
		LanguageID:          &doc.LanguageID,
		SourceFileExtension: &doc.SourceFileExtension,
		Compile:             &doc.Compile,
		Command:             doc.Command,
	})
}

func (l *Loader) buildProfile(docPath string, doc *document) (*domain.Profile, error) {
	missing := func(key string) error {
		return &MalformedProfileError{Path: docPath, Key: key, Err: errors.New("required key is missing")}
	}
	switch {
	case doc.Name == nil:
		return nil, missing("name")
	case doc.LanguageID == nil:
		return nil, missing("language_id")
	case doc.SourceFileExtension == nil:
		return nil, missing("source_file_extension")
	case doc.Compile == nil:
		return nil, missing("compile")
	case doc.Command == nil:
		return nil, missing("command")
	}
	if *doc.Name == "" {
		return nil, &MalformedProfileError{Path: docPath, Key: "name", Err: errors.New("must not be empty")}
	}
	if _, ok := doc.Command["default"]; !ok {
		return nil, missing("command.default")
	}

	key, command := l.selectCommand(doc.Command)
	if len(command) == 0 {
		return nil, &MalformedProfileError{Path: docPath, Key: "command." + key, Err: errors.New("must not be empty")}
	}

	return domain.NewProfile(domain.ProfileSpec{
		Name:                *doc.Name,
		LanguageID:          *doc.LanguageID,
		SourceFileExtension: strings.TrimPrefix(*doc.SourceFileExtension, "."),
		RequiresCompile:     *doc.Compile,
		Command:             command,
		Source:              docPath,
	})
}

// selectCommand picks the template for the loader's platform, falling back to
// the default one.
func (l *Loader) selectCommand(commands map[string][]string) (string, []string) {
	for _, key := range platformKeys(l.platform) {
		if cmd, ok := commands[key]; ok {
			return key, cmd
		}
	}
	return "default", commands["default"]
}

// systemNames maps GOOS to the operating system names documents may use as
// command keys.
var systemNames = map[string]string{
	"windows": "Windows",
	"linux":   "Linux",
	"darwin":  "Darwin",
	"freebsd": "FreeBSD",
	"openbsd": "OpenBSD",
	"netbsd":  "NetBSD",
}

func platformKeys(goos string) []string {
	keys := make([]string, 0, 2)
	if name, ok := systemNames[goos]; ok {
		keys = append(keys, name)
	}
	return append(keys, goos)
}

func sourcePath(src Source, name string) string {
	if src.embedded {
		return path.Join(src.Name, name)
	}
	return filepath.Join(src.Name, name)
}
