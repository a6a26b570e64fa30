package settings

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/pelletier/go-toml/v2"
	"gopkg.in/yaml.v3"
)

// DefaultFileNames are the settings files FindStore looks for, in order.
var DefaultFileNames = []string{".nopreview.yaml", ".nopreview.json", ".nopreview.toml"}

// Store loads and saves a Config.
type Store interface {
	Load() (Config, error)
	Save(cfg Config) error
}

// Format is a settings file encoding.
type Format string

const (
	// FormatYAML is used for .yaml and .yml files.
	FormatYAML Format = "yaml"
	// FormatJSON is used for .json files, including a host's data.json.
	FormatJSON Format = "json"
	// FormatTOML is used for .toml files.
	FormatTOML Format = "toml"
)

// InferFormat picks the encoding from the file extension.
func InferFormat(path string) (Format, error) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		return FormatYAML, nil
	case ".json":
		return FormatJSON, nil
	case ".toml":
		return FormatTOML, nil
	default:
		return "", fmt.Errorf("cannot infer settings format from %q (supported: .yaml, .yml, .json, .toml)", path)
	}
}

// FileStore persists a Config in a single file.
type FileStore struct {
	path   string
	format Format
}

// NewFileStore creates a store for path. The format follows the extension.
func NewFileStore(path string) (*FileStore, error) {
	format, err := InferFormat(path)
	if err != nil {
		return nil, err
	}
	return &FileStore{path: path, format: format}, nil
}

// Path returns the settings file path.
func (s *FileStore) Path() string {
	return s.path
}

// stored mirrors Config with a pointer so that an absent key can be told
// apart from an empty list.
type stored struct {
	NonPreviewExtensions *[]string `yaml:"nonPreviewExtensions" json:"nonPreviewExtensions" toml:"nonPreviewExtensions"`
}

// Load reads the file and merges it onto Defaults.
// A missing file is not an error; it yields the defaults.
// A present key replaces the default, even when empty.
func (s *FileStore) Load() (Config, error) {
	cfg := Defaults()

	data, err := os.ReadFile(s.path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return cfg, nil
		}
		return Config{}, err
	}

	var raw stored
	if err := s.unmarshal(data, &raw); err != nil {
		return Config{}, fmt.Errorf("parsing %s: %w", s.path, err)
	}

	if raw.NonPreviewExtensions != nil {
		cfg.NonPreviewExtensions = Normalize(*raw.NonPreviewExtensions)
	}
	return cfg, nil
}

// Save writes cfg to the file, replacing it atomically.
func (s *FileStore) Save(cfg Config) error {
	if err := cfg.Validate(); err != nil {
		return err
	}

	data, err := s.marshal(cfg)
	if err != nil {
		return fmt.Errorf("encoding settings: %w", err)
	}

	dir := filepath.Dir(s.path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("creating settings dir: %w", err)
	}

	tmp, err := os.CreateTemp(dir, ".nopreview-*.tmp")
	if err != nil {
		return fmt.Errorf("creating temp file: %w", err)
	}
	tmpName := tmp.Name()

	if _, err := tmp.Write(data); err != nil {
		_ = tmp.Close()
		_ = os.Remove(tmpName)
		return fmt.Errorf("writing settings: %w", err)
	}
	if err := tmp.Close(); err != nil {
		_ = os.Remove(tmpName)
		return fmt.Errorf("writing settings: %w", err)
	}

	if err := os.Rename(tmpName, s.path); err != nil {
		_ = os.Remove(tmpName)
		return fmt.Errorf("replacing settings: %w", err)
	}
	return nil
}

func (s *FileStore) unmarshal(data []byte, v *stored) error {
	if len(strings.TrimSpace(string(data))) == 0 {
		return nil
	}
	switch s.format {
	case FormatJSON:
		return json.Unmarshal(data, v)
	case FormatTOML:
		return toml.Unmarshal(data, v)
	default:
		return yaml.Unmarshal(data, v)
	}
}

func (s *FileStore) marshal(cfg Config) ([]byte, error) {
	if cfg.NonPreviewExtensions == nil {
		cfg.NonPreviewExtensions = []string{}
	}
	switch s.format {
	case FormatJSON:
		data, err := json.MarshalIndent(cfg, "", "  ")
		if err != nil {
			return nil, err
		}
		return append(data, '\n'), nil
	case FormatTOML:
		return toml.Marshal(cfg)
	default:
		return yaml.Marshal(cfg)
	}
}

// FindStore searches for a settings file starting from startDir and walking
// up to parent directories. If none is found, it returns a store for
// .nopreview.yaml in startDir, which loads as defaults until first saved.
func FindStore(startDir string) (*FileStore, error) {
	dir := startDir

	for {
		for _, name := range DefaultFileNames {
			p := filepath.Join(dir, name)
			if _, err := os.Stat(p); err == nil {
				return NewFileStore(p)
			}
		}

		parent := filepath.Dir(dir)
		if parent == dir {
			return NewFileStore(filepath.Join(startDir, DefaultFileNames[0]))
		}
		dir = parent
	}
}

// MemoryStore keeps settings in memory. It backs one-off overrides such as
// command-line extension lists, which must never be written to disk.
type MemoryStore struct {
	mu  sync.Mutex
	cfg Config
}

// NewMemoryStore creates a store holding a normalized copy of cfg.
func NewMemoryStore(cfg Config) *MemoryStore {
	return &MemoryStore{cfg: Config{NonPreviewExtensions: Normalize(cfg.NonPreviewExtensions)}}
}

// Load implements Store.
func (m *MemoryStore) Load() (Config, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.cfg.Clone(), nil
}

// Save implements Store.
func (m *MemoryStore) Save(cfg Config) error {
	if err := cfg.Validate(); err != nil {
		return err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.cfg = cfg.Clone()
	return nil
}
