package config

import (
	"fmt"
	"os"
	"strings"

	"gopkg.in/yaml.v3"
)

// areasFile is the layout of the AREAS_FILE seed:
//
//	areas:
//	  - Cabang Malang
//	  - Cabang Batu
type areasFile struct {
	Areas []string `yaml:"areas"`
}

// LoadAreas reads area names from a YAML seed file. Blank and repeated names are dropped.
func LoadAreas(path string) ([]string, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read areas %s: %w", path, err)
	}
	var file areasFile
	if err := yaml.Unmarshal(data, &file); err != nil {
		return nil, fmt.Errorf("parse areas %s: %w", path, err)
	}

	seen := make(map[string]bool, len(file.Areas))
	names := make([]string, 0, len(file.Areas))
	for _, name := range file.Areas {
		name = strings.TrimSpace(name)
		if name == "" || seen[strings.ToLower(name)] {
			continue
		}
		seen[strings.ToLower(name)] = true
		names = append(names, name)
	}
	return names, nil
}
