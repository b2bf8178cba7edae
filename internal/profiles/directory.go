// Package profiles resolves opaque profile identifiers into display names.
package profiles

import (
	"context"
	"errors"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

var ErrUnknownProfile = errors.New("unknown profile")

// Directory maps a profile id to the name shown to users.
type Directory interface {
	DisplayName(ctx context.Context, id string) (string, error)
}

// StaticDirectory is an in-memory Directory. It is safe for concurrent reads.
type StaticDirectory struct {
	names map[string]string
}

func NewStaticDirectory(names map[string]string) *StaticDirectory {
	copied := make(map[string]string, len(names))
	for id, name := range names {
		copied[id] = name
	}
	return &StaticDirectory{names: copied}
}

// DefaultDirectory holds the profiles known out of the box.
func DefaultDirectory() *StaticDirectory {
	return NewStaticDirectory(map[string]string{
		"adriBana": "Adrian Banachowicz",
		"mareNowa": "Marek Nowak",
	})
}

func (d *StaticDirectory) DisplayName(_ context.Context, id string) (string, error) {
	name, ok := d.names[id]
	if !ok {
		return "", ErrUnknownProfile
	}
	return name, nil
}

type profileFile struct {
	Profiles []struct {
		ID   string `yaml:"id"`
		Name string `yaml:"name"`
	} `yaml:"profiles"`
}

// LoadFile reads a YAML document of the form
//
//	profiles:
//	  - id: adriBana
//	    name: Adrian Banachowicz
func LoadFile(path string) (*StaticDirectory, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read profiles file: %w", err)
	}
	return Parse(raw)
}

func Parse(raw []byte) (*StaticDirectory, error) {
	var doc profileFile
	if err := yaml.Unmarshal(raw, &doc); err != nil {
		return nil, fmt.Errorf("failed to parse profiles file: %w", err)
	}

	names := make(map[string]string, len(doc.Profiles))
	for i, p := range doc.Profiles {
		if p.ID == "" {
			return nil, fmt.Errorf("profile #%d has no id", i+1)
		}
		names[p.ID] = p.Name
	}
	return NewStaticDirectory(names), nil
}
