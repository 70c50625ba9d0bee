package directory

import (
	"bytes"
	"context"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// FileSource reads entries from a YAML document:
//
//	entries:
//	  - name: Royal Hospital
//	    phone: "024123456"
//	    city: Muscat
//	    category: Hospital
type FileSource struct {
	Path string
}

type fileDocument struct {
	Entries []Entry `yaml:"entries"`
}

func (s FileSource) Name() string { return "file" }

func (s FileSource) Discover(context.Context) ([]Entry, error) {
	data, err := os.ReadFile(s.Path)
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", s.Path, err)
	}
	return ParseYAML(data)
}

func ParseYAML(data []byte) ([]Entry, error) {
	if len(bytes.TrimSpace(data)) == 0 {
		return nil, nil
	}
	var doc fileDocument
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("decode directory yaml: %w", err)
	}
	return doc.Entries, nil
}
