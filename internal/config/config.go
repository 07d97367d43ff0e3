// Package config loads cppsema.toml.
//
// The file is looked up from the working directory upwards. Every key is
// optional; missing keys keep their defaults and command-line flags
// override whatever the file sets.
//
//	[engine]
//	allow_recursion_bindings = true
//	gnu_extensions = false
//	eval_step_budget = 65536
//	max_instantiation_depth = 64
//	max_diagnostics = 100
//
//	[output]
//	format = "pretty"   # pretty | json | short
//	color = "auto"      # auto | on | off
//	path_mode = "auto"  # auto | absolute | relative | basename
//	context = 1
//
//	[trace]
//	level = "off"
//	mode = "stream"
//	output = "-"
//
//	[files]
//	include = ["src/**/*.cpp"]
//	exclude = ["third_party/**"]
//	cache = true
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"slices"
	"strings"

	"github.com/BurntSushi/toml"

	"cppsema/internal/sema"
	"cppsema/internal/trace"
)

// FileName is the manifest looked up by Find.
const FileName = "cppsema.toml"

type Config struct {
	Engine Engine `toml:"engine"`
	Output Output `toml:"output"`
	Trace  Trace  `toml:"trace"`
	Files  Files  `toml:"files"`

	// Path is the file the values came from; empty for defaults.
	Path string `toml:"-"`
}

type Engine struct {
	AllowRecursionBindings bool `toml:"allow_recursion_bindings"`
	GNUExtensions          bool `toml:"gnu_extensions"`
	EvalStepBudget         int  `toml:"eval_step_budget"`
	MaxInstantiationDepth  int  `toml:"max_instantiation_depth"`
	MaxDiagnostics         int  `toml:"max_diagnostics"`
}

type Output struct {
	Format   string `toml:"format"`
	Color    string `toml:"color"`
	PathMode string `toml:"path_mode"`
	Context  int    `toml:"context"`
}

type Trace struct {
	Level  string `toml:"level"`
	Mode   string `toml:"mode"`
	Output string `toml:"output"`
	Format string `toml:"format"`
}

type Files struct {
	Include []string `toml:"include"`
	Exclude []string `toml:"exclude"`
	Cache   bool     `toml:"cache"`
}

func Default() Config {
	sc := sema.DefaultConfig()
	return Config{
		Engine: Engine{
			AllowRecursionBindings: sc.AllowRecursionBindings,
			EvalStepBudget:         sc.EvalStepBudget,
			MaxInstantiationDepth:  sc.MaxInstantiationDepth,
			MaxDiagnostics:         100,
		},
		Output: Output{Format: "pretty", Color: "auto", PathMode: "auto", Context: 1},
		Trace:  Trace{Level: "off", Mode: "stream", Output: "-", Format: "auto"},
		Files:  Files{Cache: true},
	}
}

// Sema returns the engine settings in the form sema.Analyze takes.
func (c *Config) Sema() sema.Config {
	return sema.Config{
		AllowRecursionBindings: c.Engine.AllowRecursionBindings,
		EvalStepBudget:         c.Engine.EvalStepBudget,
		MaxInstantiationDepth:  c.Engine.MaxInstantiationDepth,
	}
}

// Fingerprint identifies the settings that change analysis results; it is
// part of every cache key.
func (c *Config) Fingerprint() string {
	e := c.Engine
	return fmt.Sprintf("rec=%t gnu=%t steps=%d depth=%d", e.AllowRecursionBindings, e.GNUExtensions, e.EvalStepBudget, e.MaxInstantiationDepth)
}

// Find walks from startDir to the filesystem root looking for FileName.
func Find(startDir string) (string, bool, error) {
	if startDir == "" {
		startDir = "."
	}
	dir, err := filepath.Abs(startDir)
	if err != nil {
		return "", false, fmt.Errorf("failed to resolve start directory: %w", err)
	}
	for {
		candidate := filepath.Join(dir, FileName)
		if _, err := os.Stat(candidate); err == nil {
			return candidate, true, nil
		} else if !errors.Is(err, os.ErrNotExist) {
			return "", false, fmt.Errorf("failed to stat %q: %w", candidate, err)
		}
		parent := filepath.Dir(dir)
		if parent == dir {
			return "", false, nil
		}
		dir = parent
	}
}

// Discover loads the nearest manifest above startDir, or the defaults when
// there is none.
func Discover(startDir string) (Config, error) {
	path, ok, err := Find(startDir)
	if err != nil || !ok {
		return Default(), err
	}
	return Load(path)
}

func Load(path string) (Config, error) {
	cfg := Default()
	meta, err := toml.DecodeFile(path, &cfg)
	if err != nil {
		return Default(), fmt.Errorf("%s: failed to parse TOML: %w", path, err)
	}
	if undecoded := meta.Undecoded(); len(undecoded) > 0 {
		keys := make([]string, len(undecoded))
		for i, k := range undecoded {
			keys[i] = k.String()
		}
		return Default(), fmt.Errorf("%s: unknown keys: %s", path, strings.Join(keys, ", "))
	}
	cfg.Path = path
	if err := cfg.Validate(); err != nil {
		return Default(), fmt.Errorf("%s: %w", path, err)
	}
	return cfg, nil
}

var (
	outputFormats = []string{"pretty", "json", "short"}
	colorModes    = []string{"auto", "on", "off"}
	pathModes     = []string{"auto", "absolute", "relative", "basename"}
)

func (c *Config) Validate() error {
	switch {
	case c.Engine.EvalStepBudget < 0:
		return fmt.Errorf("[engine].eval_step_budget must not be negative")
	case c.Engine.MaxInstantiationDepth < 0:
		return fmt.Errorf("[engine].max_instantiation_depth must not be negative")
	case c.Engine.MaxDiagnostics < 0:
		return fmt.Errorf("[engine].max_diagnostics must not be negative")
	case !slices.Contains(outputFormats, c.Output.Format):
		return fmt.Errorf("[output].format %q (expected %s)", c.Output.Format, strings.Join(outputFormats, "|"))
	case !slices.Contains(colorModes, c.Output.Color):
		return fmt.Errorf("[output].color %q (expected %s)", c.Output.Color, strings.Join(colorModes, "|"))
	case !slices.Contains(pathModes, c.Output.PathMode):
		return fmt.Errorf("[output].path_mode %q (expected %s)", c.Output.PathMode, strings.Join(pathModes, "|"))
	case c.Output.Context < 0:
		return fmt.Errorf("[output].context must not be negative")
	}
	if _, err := trace.ParseLevel(c.Trace.Level); err != nil {
		return fmt.Errorf("[trace].level: %w", err)
	}
	if _, err := trace.ParseMode(c.Trace.Mode); err != nil {
		return fmt.Errorf("[trace].mode: %w", err)
	}
	if _, err := trace.ParseFormat(c.Trace.Format); err != nil {
		return fmt.Errorf("[trace].format: %w", err)
	}
	return nil
}

// Tracer builds the trace configuration.
func (c *Config) Tracer() (trace.Config, error) {
	level, err := trace.ParseLevel(c.Trace.Level)
	if err != nil {
		return trace.Config{}, err
	}
	mode, err := trace.ParseMode(c.Trace.Mode)
	if err != nil {
		return trace.Config{}, err
	}
	format, err := trace.ParseFormat(c.Trace.Format)
	if err != nil {
		return trace.Config{}, err
	}
	return trace.Config{Level: level, Mode: mode, Format: format, OutputPath: c.Trace.Output}, nil
}
