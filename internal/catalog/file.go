package catalog

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"
)

// FileSource reads candidates from a local YAML or JSON file. The format
// is chosen by extension; anything other than .json is read as YAML.
type FileSource struct {
	Path string
}

// NewFileSource creates a FileSource for path.
func NewFileSource(path string) *FileSource {
	return &FileSource{Path: path}
}

func (s *FileSource) Fetch(ctx context.Context) ([]Candidate, error) {
	if err := ctx.Err(); err != nil {
		return nil, &SourceFetchError{Source: s.Path, Err: err}
	}

	data, err := os.ReadFile(s.Path)
	if err != nil {
		return nil, &SourceFetchError{Source: s.Path, Err: err}
	}

	var doc struct {
		Problems []Candidate `json:"problems" yaml:"problems"`
	}
	if strings.EqualFold(filepath.Ext(s.Path), ".json") {
		err = json.Unmarshal(data, &doc)
	} else {
		err = yaml.Unmarshal(data, &doc)
	}
	if err != nil {
		return nil, &SourceFetchError{Source: s.Path, Err: fmt.Errorf("decode: %w", err)}
	}

	for i := range doc.Problems {
		if doc.Problems[i].ID == "" {
			doc.Problems[i].ID = doc.Problems[i].Name
		}
	}
	return doc.Problems, nil
}
