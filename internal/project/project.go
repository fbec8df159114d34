package project

import (
	"slices"
	"strings"
)

// Raw holds the fields of one configuration entry as written in the project
// file. A nil field is unset and inherits from the entry it extends.
type Raw struct {
	Extends       *string  `mapstructure:"extends"`
	OS            *string  `mapstructure:"os"`
	Arch          *string  `mapstructure:"arch"`
	ScriptPath    *string  `mapstructure:"scriptPath"`
	BuildArgs     []string `mapstructure:"buildArgs"`
	BuildPath     *string  `mapstructure:"buildPath"`
	BuildCopy     []string `mapstructure:"buildCopy"`
	StartArgs     []string `mapstructure:"startArgs"`
	StartDelay    *float64 `mapstructure:"startDelay"`
	StopDelay     *float64 `mapstructure:"stopDelay"`
	StopPort      *string  `mapstructure:"stopPort"`
	DlvFlags      []string `mapstructure:"dlvFlags"`
	DebuggerFlags []string `mapstructure:"debuggerFlags"`
}

// Project is a resolved, inheritance-flattened build/run target.
// It is immutable: accessors return copies of slice fields.
type Project struct {
	name          string
	key           string
	os            string
	arch          string
	scriptPath    string
	buildArgs     []string
	buildPath     string
	buildCopy     []string
	startArgs     []string
	startDelay    *float64
	stopDelay     *float64
	stopPort      string
	debuggerFlags []string
}

// Merge flattens raw over base. Fields set in raw win; unset fields keep the
// base value. The identity always comes from name and key, never from base.
func Merge(name, key string, base *Project, raw Raw) *Project {
	p := &Project{}
	if base != nil {
		*p = *base
		p.buildArgs = slices.Clone(base.buildArgs)
		p.buildCopy = slices.Clone(base.buildCopy)
		p.startArgs = slices.Clone(base.startArgs)
		p.debuggerFlags = slices.Clone(base.debuggerFlags)
	}
	p.name = name
	p.key = key

	setString(&p.os, raw.OS)
	setString(&p.arch, raw.Arch)
	setString(&p.scriptPath, raw.ScriptPath)
	setString(&p.buildPath, raw.BuildPath)
	setString(&p.stopPort, raw.StopPort)
	setSlice(&p.buildArgs, raw.BuildArgs)
	setSlice(&p.buildCopy, raw.BuildCopy)
	setSlice(&p.startArgs, raw.StartArgs)
	setSlice(&p.debuggerFlags, raw.DlvFlags)
	setSlice(&p.debuggerFlags, raw.DebuggerFlags)
	if raw.StartDelay != nil {
		d := *raw.StartDelay
		p.startDelay = &d
	}
	if raw.StopDelay != nil {
		d := *raw.StopDelay
		p.stopDelay = &d
	}
	return p
}

func setString(dst *string, v *string) {
	if v != nil {
		*dst = *v
	}
}

func setSlice(dst *[]string, v []string) {
	if v != nil {
		*dst = slices.Clone(v)
	}
}

// ID returns "name.key".
func (p *Project) ID() string { return p.name + "." + p.key }

func (p *Project) Name() string       { return p.name }
func (p *Project) Key() string        { return p.key }
func (p *Project) OS() string         { return p.os }
func (p *Project) Arch() string       { return p.arch }
func (p *Project) ScriptPath() string { return p.scriptPath }
func (p *Project) BuildPath() string  { return p.buildPath }
func (p *Project) StopPort() string   { return p.stopPort }

func (p *Project) BuildArgs() []string     { return slices.Clone(p.buildArgs) }
func (p *Project) BuildCopy() []string     { return slices.Clone(p.buildCopy) }
func (p *Project) StartArgs() []string     { return slices.Clone(p.startArgs) }
func (p *Project) DebuggerFlags() []string { return slices.Clone(p.debuggerFlags) }

// StartDelay returns the configured start delay in seconds, 0 when unset.
func (p *Project) StartDelay() float64 { return deref(p.startDelay) }

// StopDelay returns the configured stop delay in seconds, 0 when unset.
func (p *Project) StopDelay() float64 { return deref(p.stopDelay) }

func clonePtr(f *float64) *float64 {
	if f == nil {
		return nil
	}
	v := *f
	return &v
}

func deref(f *float64) float64 {
	if f == nil {
		return 0
	}
	return *f
}

// Match reports whether every token equals one of the dot-separated
// segments of the project ID.
func (p *Project) Match(tokens ...string) bool {
	segments := strings.Split(p.ID(), ".")
	for _, tok := range tokens {
		if tok == "" {
			continue
		}
		if !slices.Contains(segments, tok) {
			return false
		}
	}
	return true
}

// View is the serializable form of a Project.
type View struct {
	ID            string   `json:"id" yaml:"id"`
	Name          string   `json:"name" yaml:"name"`
	Key           string   `json:"key" yaml:"key"`
	OS            string   `json:"os" yaml:"os"`
	Arch          string   `json:"arch" yaml:"arch"`
	ScriptPath    string   `json:"scriptPath,omitempty" yaml:"scriptPath,omitempty"`
	BuildArgs     []string `json:"buildArgs,omitempty" yaml:"buildArgs,omitempty"`
	BuildPath     string   `json:"buildPath,omitempty" yaml:"buildPath,omitempty"`
	BuildCopy     []string `json:"buildCopy,omitempty" yaml:"buildCopy,omitempty"`
	StartArgs     []string `json:"startArgs,omitempty" yaml:"startArgs,omitempty"`
	StartDelay    *float64 `json:"startDelay,omitempty" yaml:"startDelay,omitempty"`
	StopDelay     *float64 `json:"stopDelay,omitempty" yaml:"stopDelay,omitempty"`
	StopPort      string   `json:"stopPort,omitempty" yaml:"stopPort,omitempty"`
	DebuggerFlags []string `json:"dlvFlags,omitempty" yaml:"dlvFlags,omitempty"`
}

func (p *Project) View() View {
	return View{
		ID:            p.ID(),
		Name:          p.name,
		Key:           p.key,
		OS:            p.os,
		Arch:          p.arch,
		ScriptPath:    p.scriptPath,
		BuildArgs:     p.BuildArgs(),
		BuildPath:     p.buildPath,
		BuildCopy:     p.BuildCopy(),
		StartArgs:     p.StartArgs(),
		StartDelay:    clonePtr(p.startDelay),
		StopDelay:     clonePtr(p.stopDelay),
		StopPort:      p.stopPort,
		DebuggerFlags: p.DebuggerFlags(),
	}
}

// Dedupe returns projects in their original order with repeated IDs removed.
func Dedupe(projects []*Project) []*Project {
	seen := make(map[string]bool)
	result := make([]*Project, 0, len(projects))
	for _, p := range projects {
		if p == nil || seen[p.ID()] {
			continue
		}
		seen[p.ID()] = true
		result = append(result, p)
	}
	return result
}
