package graph

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/ferrobraz/parley/pkg/domain"
	"gopkg.in/yaml.v3"
)

// fileSpec is the on-disk shape of one partner's content file.
type fileSpec struct {
	Partner string        `yaml:"partner"`
	Root    string        `yaml:"root"`
	Block   string        `yaml:"block,omitempty"`
	Nodes   []domain.Node `yaml:"nodes"`
}

// Parse builds a validated graph from raw YAML content.
func Parse(data []byte) (*Graph, error) {
	var spec fileSpec
	if err := yaml.Unmarshal(data, &spec); err != nil {
		return nil, fmt.Errorf("failed to parse graph content: %w", err)
	}
	if spec.Partner == "" {
		return nil, fmt.Errorf("graph content missing partner name")
	}
	for i, n := range spec.Nodes {
		if n.ID == "" {
			return nil, fmt.Errorf("graph %q: node at index %d missing id", spec.Partner, i)
		}
	}

	g := New(spec.Partner, spec.Root, spec.Block, spec.Nodes)
	if err := g.Validate(); err != nil {
		return nil, err
	}
	return g, nil
}

// LoadFile reads and parses one partner content file.
func LoadFile(path string) (*Graph, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read graph file: %w", err)
	}
	g, err := Parse(data)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return g, nil
}

// LoadDir builds a registry from every .yaml/.yml file in a directory.
// One file per dialogue partner. Fails fast on the first invalid graph.
func LoadDir(dir string) (*Registry, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("failed to read content directory: %w", err)
	}

	reg := NewRegistry()
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		ext := filepath.Ext(entry.Name())
		if ext != ".yaml" && ext != ".yml" {
			continue
		}
		g, err := LoadFile(filepath.Join(dir, entry.Name()))
		if err != nil {
			return nil, err
		}
		reg.Add(g)
	}

	if len(reg.graphs) == 0 {
		return nil, fmt.Errorf("no graph content found in %s", dir)
	}
	return reg, nil
}
