package project

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/go-viper/mapstructure/v2"
	"github.com/mitchellh/go-homedir"
	"gopkg.in/yaml.v3"
)

// ErrConfig marks an invalid project configuration.
var ErrConfig = errors.New("invalid project configuration")

// DefaultFiles are tried, in order, when no explicit project file exists.
var DefaultFiles = []string{"goproj.yaml", "goproj.yml", "goproj.json"}

// Set is an ordered collection of resolved projects, unique by ID.
type Set struct {
	projects []*Project
	byID     map[string]*Project

	// Warnings lists non-fatal problems found while decoding, such as unknown fields.
	Warnings []string
}

func newSet() *Set {
	return &Set{byID: make(map[string]*Project)}
}

func (s *Set) add(p *Project) bool {
	if _, ok := s.byID[p.ID()]; ok {
		return false
	}
	s.byID[p.ID()] = p
	s.projects = append(s.projects, p)
	return true
}

// All returns every project in declaration order.
func (s *Set) All() []*Project {
	out := make([]*Project, len(s.projects))
	copy(out, s.projects)
	return out
}

// Len returns the number of projects.
func (s *Set) Len() int { return len(s.projects) }

// Get returns the project with the given ID.
func (s *Set) Get(id string) (*Project, bool) {
	p, ok := s.byID[id]
	return p, ok
}

// ByName returns every configuration of the named project.
func (s *Set) ByName(name string) []*Project {
	var out []*Project
	for _, p := range s.projects {
		if p.Name() == name {
			out = append(out, p)
		}
	}
	return out
}

// Filter returns the projects whose ID matches all tokens.
func (s *Set) Filter(tokens ...string) []*Project {
	var out []*Project
	for _, p := range s.projects {
		if p.Match(tokens...) {
			out = append(out, p)
		}
	}
	return out
}

// IDs returns the IDs of all projects in order.
func (s *Set) IDs() []string {
	ids := make([]string, len(s.projects))
	for i, p := range s.projects {
		ids[i] = p.ID()
	}
	return ids
}

// FindFile locates the project file for a workspace. An explicit name is
// resolved against root; otherwise DefaultFiles are tried in order.
func FindFile(root, name string) (string, error) {
	if name != "" {
		expanded, err := homedir.Expand(name)
		if err != nil {
			return "", fmt.Errorf("failed to expand project file path: %w", err)
		}
		if !filepath.IsAbs(expanded) {
			expanded = filepath.Join(root, expanded)
		}
		if _, err := os.Stat(expanded); err == nil {
			return expanded, nil
		}
		if !isDefault(name) {
			return "", fmt.Errorf("project file not found: %s", expanded)
		}
	}
	for _, candidate := range DefaultFiles {
		path := filepath.Join(root, candidate)
		if _, err := os.Stat(path); err == nil {
			return path, nil
		}
	}
	return "", fmt.Errorf("no project file found in %s (tried %s)", root, strings.Join(DefaultFiles, ", "))
}

func isDefault(name string) bool {
	for _, f := range DefaultFiles {
		if f == name {
			return true
		}
	}
	return false
}

// LoadFile reads and resolves a project file.
func LoadFile(path string) (*Set, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read project file: %w", err)
	}
	set, err := Parse(data)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return set, nil
}

// Parse resolves a project document of the form
//
//	projects:
//	  <name>:
//	    <key>: {extends: <other key>, os: ..., arch: ..., ...}
//
// The projects (or projectList) wrapper is optional; without it the top
// level is the name mapping. YAML and JSON are both accepted. Declaration order is kept.
func Parse(data []byte) (*Set, error) {
	var doc yaml.Node
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrConfig, err)
	}
	set := newSet()
	if len(doc.Content) == 0 {
		return set, nil
	}

	top := doc.Content[0]
	if top.Kind != yaml.MappingNode {
		return nil, fmt.Errorf("%w: top level must be a mapping", ErrConfig)
	}
	list := lookup(top, "projects")
	if list == nil {
		list = lookup(top, "projectList")
	}
	if list == nil {
		// No wrapper key: the document itself maps names to configurations
		list = top
	}
	if list.Kind != yaml.MappingNode {
		return nil, fmt.Errorf("%w: projects must be a mapping", ErrConfig)
	}

	var errs []error
	for i := 0; i+1 < len(list.Content); i += 2 {
		name := list.Content[i].Value
		if strings.HasPrefix(name, "$") {
			continue
		}
		projects, warnings, err := parseProject(name, list.Content[i+1])
		set.Warnings = append(set.Warnings, warnings...)
		if err != nil {
			errs = append(errs, err)
			continue
		}
		for _, p := range projects {
			if !set.add(p) {
				errs = append(errs, fmt.Errorf("%w: duplicate project %s", ErrConfig, p.ID()))
			}
		}
	}
	if err := errors.Join(errs...); err != nil {
		return nil, err
	}
	return set, nil
}

func lookup(m *yaml.Node, key string) *yaml.Node {
	for i := 0; i+1 < len(m.Content); i += 2 {
		if m.Content[i].Value == key {
			return m.Content[i+1]
		}
	}
	return nil
}

// parseProject decodes and flattens every configuration key of one project.
func parseProject(name string, node *yaml.Node) ([]*Project, []string, error) {
	if node.Kind != yaml.MappingNode {
		return nil, nil, fmt.Errorf("%w: project %s must be a mapping of configurations", ErrConfig, name)
	}

	var (
		order    []string
		raws     = make(map[string]Raw)
		warnings []string
	)
	for i := 0; i+1 < len(node.Content); i += 2 {
		key := node.Content[i].Value
		if strings.HasPrefix(key, "$") {
			continue
		}
		if _, dup := raws[key]; dup {
			return nil, warnings, fmt.Errorf("%w: %s.%s is declared twice", ErrConfig, name, key)
		}
		raw, unused, err := decodeRaw(node.Content[i+1])
		if err != nil {
			return nil, warnings, fmt.Errorf("%w: %s.%s: %v", ErrConfig, name, key, err)
		}
		for _, field := range unused {
			warnings = append(warnings, fmt.Sprintf("%s.%s: unknown field %q", name, key, field))
		}
		raws[key] = raw
		order = append(order, key)
	}

	resolved, err := flatten(name, order, raws)
	if err != nil {
		return nil, warnings, err
	}
	projects := make([]*Project, 0, len(order))
	for _, key := range order {
		projects = append(projects, resolved[key])
	}
	return projects, warnings, nil
}

func decodeRaw(node *yaml.Node) (Raw, []string, error) {
	var fields map[string]any
	if err := node.Decode(&fields); err != nil {
		return Raw{}, nil, err
	}

	var raw Raw
	var md mapstructure.Metadata
	dec, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		WeaklyTypedInput: true,
		Metadata:         &md,
		Result:           &raw,
	})
	if err != nil {
		return Raw{}, nil, err
	}
	if err := dec.Decode(fields); err != nil {
		return Raw{}, nil, err
	}
	return raw, md.Unused, nil
}

// flatten resolves extends chains within one project. A key may extend any
// other key of the same project; cycles and unknown keys are rejected.
func flatten(name string, order []string, raws map[string]Raw) (map[string]*Project, error) {
	const (
		visiting = 1
		done     = 2
	)
	state := make(map[string]int)
	resolved := make(map[string]*Project)

	var visit func(key string, chain []string) (*Project, error)
	visit = func(key string, chain []string) (*Project, error) {
		switch state[key] {
		case done:
			return resolved[key], nil
		case visiting:
			return nil, fmt.Errorf("%w: %s: cyclic extends %s", ErrConfig, name, strings.Join(append(chain, key), " -> "))
		}
		state[key] = visiting
		raw := raws[key]

		var base *Project
		if raw.Extends != nil && *raw.Extends != "" {
			parent := *raw.Extends
			if _, ok := raws[parent]; !ok {
				return nil, fmt.Errorf("%w: %s.%s extends unknown key %q", ErrConfig, name, key, parent)
			}
			var err error
			base, err = visit(parent, append(chain, key))
			if err != nil {
				return nil, err
			}
		}

		p := Merge(name, key, base, raw)
		p.scriptPath = expand(p.scriptPath)
		p.buildPath = expand(p.buildPath)
		resolved[key] = p
		state[key] = done
		return p, nil
	}

	for _, key := range order {
		if _, err := visit(key, nil); err != nil {
			return nil, err
		}
	}
	return resolved, nil
}

// expand replaces a leading ~ with the home directory, leaving the path
// unchanged when expansion is impossible.
func expand(path string) string {
	expanded, err := homedir.Expand(path)
	if err != nil {
		return path
	}
	return expanded
}
