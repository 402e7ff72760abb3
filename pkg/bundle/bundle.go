// pkg/bundle/bundle.go
package bundle

import (
	"bytes"
	"encoding/json"
	"fmt"
	"path/filepath"
	"strings"

	"field-validation/internal/models"

	"github.com/spf13/afero"
	"gopkg.in/yaml.v3"
)

// Load reads a bundle from fs. Files ending in .yaml or .yml are decoded as
// YAML, everything else as JSON.
func Load(fs afero.Fs, path string) (*Bundle, error) {
	data, err := afero.ReadFile(fs, path)
	if err != nil {
		return nil, err
	}
	return Parse(data, filepath.Ext(path))
}

// Parse decodes and shape-checks bundle data. ext selects the format.
func Parse(data []byte, ext string) (*Bundle, error) {
	var b Bundle
	switch strings.ToLower(ext) {
	case ".yaml", ".yml":
		if err := yaml.Unmarshal(data, &b); err != nil {
			return nil, fmt.Errorf("parse yaml: %w", err)
		}
	default:
		dec := json.NewDecoder(bytes.NewReader(data))
		dec.DisallowUnknownFields()
		if err := dec.Decode(&b); err != nil {
			return nil, fmt.Errorf("parse json: %w", err)
		}
	}

	seen := make(map[string]bool, len(b.Forms))
	for i := range b.Forms {
		f := &b.Forms[i]
		if seen[f.ID] {
			return nil, fmt.Errorf("form %q declared more than once", f.ID)
		}
		seen[f.ID] = true
		if err := models.ValidateShape(f); err != nil {
			return nil, err
		}
	}
	return &b, nil
}
