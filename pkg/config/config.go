// Package config reads batch run configuration from YAML and owns the
// shared logrus setup.
package config

import (
	"fmt"
	"os"
	"reflect"
	"strings"

	"github.com/taKana671/WalkingInBulletWorld-sub000/pkg/solid"
	"gopkg.in/yaml.v3"
)

// Output formats.
const (
	FormatSTL  = "stl"
	FormatJSON = "json"
)

var availableLoggingLevels = []string{"panic", "fatal", "error", "warn", "info", "debug"}
var availableLoggingLevelsString = strings.Join(availableLoggingLevels, ", ")

// Config describes one batch run.
type Config struct {
	LogLevel string      `yaml:"log_level"`
	Format   string      `yaml:"format"`
	OutDir   string      `yaml:"out_dir"`
	Cache    bool        `yaml:"cache"`
	Solids   []SolidSpec `yaml:"solids"`
}

// SolidSpec is one named solid. Params holds the shape fields using the
// yaml tags of the matching solid parameter struct; omitted fields keep the
// shape's defaults.
type SolidSpec struct {
	Name   string     `yaml:"name"`
	Kind   string     `yaml:"kind"`
	Params yaml.Node  `yaml:"params"`
	Place  *Placement `yaml:"place,omitempty"`
}

// Placement positions a solid in the scene. Rotate is heading, pitch and
// roll in degrees.
type Placement struct {
	At     *[3]float64 `yaml:"at,omitempty"`
	Rotate *[3]float64 `yaml:"rotate,omitempty"`
	Scale  *[3]float64 `yaml:"scale,omitempty"`
	Color  *[4]float32 `yaml:"color,omitempty"`
}

// Default returns the configuration used for omitted keys.
func Default() *Config {
	return &Config{
		LogLevel: "info",
		Format:   FormatSTL,
		OutDir:   ".",
		Cache:    true,
	}
}

// Load reads and validates the YAML file at path.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("config: %w", err)
	}
	c, err := Parse(data)
	if err != nil {
		return nil, fmt.Errorf("config: %s: %w", path, err)
	}
	return c, nil
}

// Parse decodes YAML over the defaults and validates the result.
func Parse(data []byte) (*Config, error) {
	c := Default()
	if err := yaml.Unmarshal(data, c); err != nil {
		return nil, err
	}
	c.LogLevel = strings.ToLower(c.LogLevel)
	c.Format = strings.ToLower(c.Format)
	if err := c.Validate(); err != nil {
		return nil, err
	}
	return c, nil
}

type checkFunc func(c *Config) error

// Validate checks the logging level, the output format and every solid.
func (c *Config) Validate() error {
	checkFuncs := []checkFunc{
		checkLoggingLevel,
		checkFormat,
		checkSolids,
	}

	for _, check := range checkFuncs {
		if err := check(c); err != nil {
			return err
		}
	}
	return nil
}

func checkLoggingLevel(c *Config) error {
	for _, l := range availableLoggingLevels {
		if l == c.LogLevel {
			return nil
		}
	}
	return fmt.Errorf("invalid log_level %q, one of: %s", c.LogLevel, availableLoggingLevelsString)
}

func checkFormat(c *Config) error {
	switch c.Format {
	case FormatSTL, FormatJSON:
		return nil
	}
	return fmt.Errorf("invalid format %q, one of: %s, %s", c.Format, FormatSTL, FormatJSON)
}

func checkSolids(c *Config) error {
	seen := make(map[string]bool, len(c.Solids))
	for i := range c.Solids {
		s := &c.Solids[i]
		if s.Name == "" {
			return fmt.Errorf("solid %d: missing name", i)
		}
		if seen[s.Name] {
			return fmt.Errorf("solid %q: duplicate name", s.Name)
		}
		seen[s.Name] = true
		if _, err := s.Solid(); err != nil {
			return fmt.Errorf("solid %q: %w", s.Name, err)
		}
	}
	return nil
}

// Solid decodes and validates the shape parameters.
func (s *SolidSpec) Solid() (solid.Params, error) {
	var (
		p   solid.Params
		err error
	)
	switch strings.ToLower(s.Kind) {
	case solid.ShapeTube:
		v := solid.DefaultTube()
		err = s.decode(&v)
		p = v
	case solid.ShapeRing:
		v := solid.DefaultRing()
		err = s.decode(&v)
		p = v
	case solid.ShapeSphere:
		v := solid.DefaultSphere()
		err = s.decode(&v)
		p = v
	case solid.ShapeCube:
		v := solid.DefaultCube()
		err = s.decode(&v)
		p = v
	case solid.ShapePrism:
		v := solid.DefaultPrism()
		err = s.decode(&v)
		p = v
	default:
		return nil, fmt.Errorf("unknown kind %q, one of: %s", s.Kind, strings.Join(solid.Shapes, ", "))
	}
	if err != nil {
		return nil, fmt.Errorf("params: %w", err)
	}
	if err := p.Validate(); err != nil {
		return nil, err
	}
	return p, nil
}

// decode lays the params mapping over v. Keys that name no field of v are
// rejected so that a typo never silently falls back to a default.
func (s *SolidSpec) decode(v any) error {
	if s.Params.Kind == 0 {
		return nil
	}
	if s.Params.Kind != yaml.MappingNode {
		return nodeErr(&s.Params, "expected a mapping")
	}
	known := yamlFields(v)
	for i := 0; i+1 < len(s.Params.Content); i += 2 {
		key := s.Params.Content[i]
		if !known[key.Value] {
			return nodeErr(key, fmt.Sprintf("unknown field %q", key.Value))
		}
	}
	return s.Params.Decode(v)
}

// nodeErr prefixes msg with the node's line when it came from a file.
func nodeErr(n *yaml.Node, msg string) error {
	if n.Line > 0 {
		return fmt.Errorf("line %d: %s", n.Line, msg)
	}
	return fmt.Errorf("%s", msg)
}

// yamlFields returns the yaml keys of the struct v points to.
func yamlFields(v any) map[string]bool {
	t := reflect.TypeOf(v).Elem()
	fields := make(map[string]bool, t.NumField())
	for i := 0; i < t.NumField(); i++ {
		name, _, _ := strings.Cut(t.Field(i).Tag.Get("yaml"), ",")
		if name != "" && name != "-" {
			fields[name] = true
		}
	}
	return fields
}
