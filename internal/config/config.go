package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"
)

// FileName is the config file looked up in the working directory.
const FileName = ".testbridge.yml"

// Config captures CLI options sourced from config files or flags.
type Config struct {
	Directory string   `yaml:"directory"`
	Files     []string `yaml:"files"`
	FileList  string   `yaml:"file_list"`
	AllFiles  bool     `yaml:"all_files"`
	Suites    []string `yaml:"suites"`

	Only []string `yaml:"only"`
	Skip []string `yaml:"skip"`

	Output      string `yaml:"output"`
	XMLDir      string `yaml:"xml_dir"`
	Format      string `yaml:"format"`
	Product     string `yaml:"product"`
	MetricsFile string `yaml:"metrics_file"`

	Verbose bool `yaml:"verbose"`
	Debug   bool `yaml:"debug"`

	TestRoot      string            `yaml:"test_root"`
	MaxTraceDepth int               `yaml:"max_trace_depth"`
	Properties    map[string]string `yaml:"properties"`
}

// Default returns the baseline configuration used when no flags or config file specify values.
func Default() Config {
	return Config{
		Directory:     ".",
		Format:        FormatText,
		MaxTraceDepth: DefaultMaxTraceDepth,
	}
}

const (
	// FormatText renders the plain text report.
	FormatText = "text"
	// FormatTable renders a summary table.
	FormatTable = "table"
	// FormatJSON renders machine readable output.
	FormatJSON = "json"

	// DefaultMaxTraceDepth bounds the frames printed for assertion failures.
	DefaultMaxTraceDepth = 5
)

// Load reads .testbridge.yml from root when present. Missing files are ignored.
func Load(root string) (Config, error) {
	cfg := Default()
	path := filepath.Join(root, FileName)
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return cfg, nil
		}
		return cfg, fmt.Errorf("read config %q: %w", path, err)
	}

	if err := Validate(data); err != nil {
		return cfg, fmt.Errorf("validate config %q: %w", path, err)
	}

	var fileCfg Config
	if err := yaml.Unmarshal(data, &fileCfg); err != nil {
		return cfg, fmt.Errorf("parse config %q: %w", path, err)
	}

	cfg = merge(cfg, fileCfg)
	return cfg, nil
}

func merge(base, override Config) Config {
	out := base

	if override.Directory != "" {
		out.Directory = override.Directory
	}
	if len(override.Files) > 0 {
		out.Files = append([]string{}, override.Files...)
	}
	if override.FileList != "" {
		out.FileList = override.FileList
	}
	if len(override.Suites) > 0 {
		out.Suites = append([]string{}, override.Suites...)
	}
	if len(override.Only) > 0 {
		out.Only = append([]string{}, override.Only...)
	}
	if len(override.Skip) > 0 {
		out.Skip = append([]string{}, override.Skip...)
	}
	if override.Output != "" {
		out.Output = override.Output
	}
	if override.XMLDir != "" {
		out.XMLDir = override.XMLDir
	}
	if override.Format != "" {
		out.Format = override.Format
	}
	if override.Product != "" {
		out.Product = override.Product
	}
	if override.MetricsFile != "" {
		out.MetricsFile = override.MetricsFile
	}
	if override.TestRoot != "" {
		out.TestRoot = override.TestRoot
	}
	if override.MaxTraceDepth > 0 {
		out.MaxTraceDepth = override.MaxTraceDepth
	}
	if len(override.Properties) > 0 {
		out.Properties = make(map[string]string, len(override.Properties))
		for k, v := range override.Properties {
			out.Properties[k] = v
		}
	}
	if override.AllFiles {
		out.AllFiles = true
	}
	if override.Verbose {
		out.Verbose = true
	}
	if override.Debug {
		out.Debug = true
	}

	return out
}

// ApplyFlags mutates cfg by applying values from CLI flags when they are present.
func ApplyFlags(cfg *Config, flags FlagValues) {
	if flags.Directory.Set {
		cfg.Directory = flags.Directory.Value
	}
	if len(flags.Files.Values) > 0 {
		cfg.Files = append([]string{}, flags.Files.Values...)
	}
	if flags.FileList.Set {
		cfg.FileList = flags.FileList.Value
	}
	if len(flags.Suites.Values) > 0 {
		cfg.Suites = append([]string{}, flags.Suites.Values...)
	}
	if len(flags.Only.Values) > 0 {
		cfg.Only = append([]string{}, flags.Only.Values...)
	}
	if len(flags.Skip.Values) > 0 {
		cfg.Skip = append([]string{}, flags.Skip.Values...)
	}
	if flags.Output.Set {
		cfg.Output = flags.Output.Value
	}
	if flags.XMLDir.Set {
		cfg.XMLDir = flags.XMLDir.Value
	}
	if flags.Format.Set {
		cfg.Format = flags.Format.Value
	}
	if flags.Product.Set {
		cfg.Product = flags.Product.Value
	}
	if flags.MetricsFile.Set {
		cfg.MetricsFile = flags.MetricsFile.Value
	}
	if flags.AllFiles.Set {
		cfg.AllFiles = flags.AllFiles.Value
	}
	if flags.Verbose.Set {
		cfg.Verbose = flags.Verbose.Value
	}
	if flags.Debug.Set {
		cfg.Debug = flags.Debug.Value
	}
}

// FlagValues captures CLI flag state with knowledge of whether each flag was set explicitly.
type FlagValues struct {
	Directory   StringFlag
	Files       SliceFlag
	FileList    StringFlag
	Suites      SliceFlag
	Only        SliceFlag
	Skip        SliceFlag
	Output      StringFlag
	XMLDir      StringFlag
	Format      StringFlag
	Product     StringFlag
	MetricsFile StringFlag
	AllFiles    BoolFlag
	Verbose     BoolFlag
	Debug       BoolFlag
}

// StringFlag represents a string flag and whether it was set.
type StringFlag struct {
	Value string
	Set   bool
}

// SliceFlag represents a slice flag and whether it captured values via CLI.
type SliceFlag struct {
	Values []string
}

// BoolFlag represents a bool flag and whether it was set.
type BoolFlag struct {
	Value bool
	Set   bool
}
