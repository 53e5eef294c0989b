package roster

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/MrSnakeDoc/sitepulse/internal/domain"
)

// Loader handles loading and parsing of the roster file
type Loader struct {
	filePath string
	mapper   *Mapper
}

// NewLoader creates a new roster loader
func NewLoader(filePath string) *Loader {
	return &Loader{
		filePath: filePath,
		mapper:   NewMapper(),
	}
}

// Path returns the file the loader reads
func (l *Loader) Path() string {
	return l.filePath
}

// Read reads and parses the roster file without validating it
func (l *Loader) Read() (File, error) {
	data, err := os.ReadFile(l.filePath)
	if err != nil {
		return File{}, fmt.Errorf("failed to read roster file: %w", err)
	}

	// Allow ${VAR} references, handy for per-environment URLs.
	data = []byte(os.ExpandEnv(string(data)))

	var file File
	if err := yaml.Unmarshal(data, &file); err != nil {
		return File{}, fmt.Errorf("failed to parse roster yaml: %w", err)
	}
	return file, nil
}

// Load reads the roster file and maps it to validated sites
func (l *Loader) Load() ([]domain.Site, error) {
	file, err := l.Read()
	if err != nil {
		return nil, err
	}
	return l.mapper.MapSites(file)
}
