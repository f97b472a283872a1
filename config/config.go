// Package config loads the partition planner configuration.
//
// The configuration is a YAML file. Every key can be overridden by an
// environment variable prefixed with PPLAN_, with dots replaced by
// underscores: PPLAN_DISK_SIZE overrides disk_size and PPLAN_LOG_LEVEL
// overrides log.level.
package config

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/dustin/go-humanize"
	"github.com/go-playground/validator/v10"
	"github.com/spf13/viper"

	"q.log/pplan/logging"
	"q.log/pplan/pplan"
	"q.log/pplan/simplex"
)

// EnvPrefix is the prefix of the environment variables read by Load.
const EnvPrefix = "PPLAN"

// Config is the planner configuration.
type Config struct {
	// Name is the key of the proposal in the output.
	Name string `mapstructure:"name" yaml:"name" validate:"required"`
	// Unit is the unit of every partition size, e.g. MB or GiB.
	Unit string `mapstructure:"unit" yaml:"unit" validate:"required"`
	// DiskSize is either a number in Unit or a size with its own unit,
	// like "500GB".
	DiskSize     string             `mapstructure:"disk_size"    yaml:"disk_size"    validate:"required"`
	Partitions   []Partition        `mapstructure:"partitions"   yaml:"partitions"   validate:"required,min=1,unique=Name,dive"`
	Penalization pplan.Penalization `mapstructure:"penalization" yaml:"penalization"`
	Solver       Solver             `mapstructure:"solver"       yaml:"solver"`
	Log          logging.Config     `mapstructure:"log"          yaml:"log"`
}

// Partition is the request for one partition, in Unit.
type Partition struct {
	Name    string   `mapstructure:"name"    yaml:"name"    validate:"required"`
	Min     *float64 `mapstructure:"min"     yaml:"min"     validate:"omitempty,gte=0"`
	Max     *float64 `mapstructure:"max"     yaml:"max"     validate:"omitempty,gte=0"`
	Current *float64 `mapstructure:"current" yaml:"current" validate:"omitempty,gte=0"`
}

// Solver tunes the simplex solver.
type Solver struct {
	Tolerance     float64 `mapstructure:"tolerance"      yaml:"tolerance"      validate:"gte=0"`
	MaxIterations int     `mapstructure:"max_iterations" yaml:"max_iterations" validate:"gte=0"`
}

// Default returns the configuration used for the keys a file leaves out.
func Default() Config {
	return Config{
		Name:         "proposal",
		Unit:         "MB",
		Penalization: pplan.DefaultPenalization(),
		Log:          logging.Config{Level: "info", Format: "text"},
	}
}

// Load reads the configuration file at path, applies the environment
// overrides and validates the result.
func Load(path string) (*Config, error) {
	v := viper.New()
	v.SetConfigFile(path)
	v.SetConfigType("yaml")

	def := Default()
	v.SetDefault("name", def.Name)
	v.SetDefault("unit", def.Unit)
	v.SetDefault("disk_size", "")
	v.SetDefault("solver.tolerance", 0)
	v.SetDefault("solver.max_iterations", 0)
	v.SetDefault("log.level", def.Log.Level)
	v.SetDefault("log.format", def.Log.Format)
	v.SetDefault("log.file", "")

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		return nil, fmt.Errorf("read config: %w", err)
	}

	cfg := def
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Validate checks the field constraints and the disk size.
func (c *Config) Validate() error {
	if err := validator.New().Struct(c); err != nil {
		return fmt.Errorf("config validation failed: %w", err)
	}
	if _, err := c.Disk(); err != nil {
		return fmt.Errorf("config validation failed: %w", err)
	}
	return nil
}

// Disk returns the disk size in Unit.
func (c *Config) Disk() (float64, error) {
	if size, err := strconv.ParseFloat(strings.TrimSpace(c.DiskSize), 64); err == nil {
		if size <= 0 {
			return 0, fmt.Errorf("disk size %q must be positive", c.DiskSize)
		}
		return size, nil
	}

	bytes, err := humanize.ParseBytes(c.DiskSize)
	if err != nil {
		return 0, fmt.Errorf("disk size %q: %w", c.DiskSize, err)
	}
	unit, err := humanize.ParseBytes("1" + c.Unit)
	if err != nil {
		return 0, fmt.Errorf("unit %q: %w", c.Unit, err)
	}
	if bytes == 0 {
		return 0, fmt.Errorf("disk size %q must be positive", c.DiskSize)
	}
	return float64(bytes) / float64(unit), nil
}

// Constraints returns the planner request of every partition.
func (c *Config) Constraints() []pplan.Constraint {
	out := make([]pplan.Constraint, len(c.Partitions))
	for i, p := range c.Partitions {
		out[i] = pplan.Constraint{Name: p.Name, Min: p.Min, Max: p.Max, Current: p.Current}
	}
	return out
}

// SolverOptions returns the solver options set in the configuration.
func (c *Config) SolverOptions() []simplex.Option {
	return []simplex.Option{
		simplex.WithTolerance(c.Solver.Tolerance),
		simplex.WithMaxIterations(c.Solver.MaxIterations),
	}
}
