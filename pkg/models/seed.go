package models

import (
	"errors"
	"fmt"
	"io"
	"os"

	"gopkg.in/yaml.v3"
)

type Entries []Entry

// Seed file listing values to import into the config store
type Seed struct {
	// Kubernetes namespace used when a secret reference omits one
	Namespace string `yaml:"namespace"`
	// Entries by store key
	Entries Entries `yaml:"entries"`
}

// Load a YAML seed file
func ReadSeed(path string) (*Seed, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	s := Seed{}
	err = yaml.NewDecoder(f).Decode(&s)
	if err != nil && !errors.Is(err, io.EOF) {
		return nil, fmt.Errorf("failed to decode seed file %s: %w", path, err)
	}
	return &s, nil
}

func (o *Entries) UnmarshalYAML(node *yaml.Node) error {
	switch node.Kind {
	case yaml.MappingNode:
		for i := 0; i < len(node.Content); i += 2 {
			var entry Entry
			err := node.Content[i+1].Decode(&entry.Value)
			if err != nil {
				return fmt.Errorf("entry %s: %w", node.Content[i].Value, err)
			}
			entry.Name = node.Content[i].Value
			*o = append(*o, entry)
		}
	default:
		return fmt.Errorf("invalid node kind: %v", node.Kind)
	}
	return nil
}
