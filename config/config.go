// Package config loads nnview settings from YAML.
package config

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/go-playground/validator/v10"
	"gopkg.in/yaml.v3"

	"github.com/viant/nnview/point"
)

var validate = validator.New()

// Config is the top-level configuration.
type Config struct {
	Dataset  Dataset  `yaml:"dataset"`
	Query    Query    `yaml:"query"`
	Gallery  Gallery  `yaml:"gallery"`
	Classes  []string `yaml:"classes" validate:"dive,required"`
	ImageDir string   `yaml:"image_dir"`
	Log      Log      `yaml:"log"`
	Metrics  Metrics  `yaml:"metrics"`
}

// Dataset names where points come from. With both CSV and DB set the CSV
// is imported into DB.
type Dataset struct {
	CSV string `yaml:"csv"`
	DB  string `yaml:"db"`
	ID  string `yaml:"id"`
}

// Query holds engine settings.
type Query struct {
	DefaultK       int    `yaml:"default_k" validate:"gte=0"`
	MaxK           int    `yaml:"max_k" validate:"gte=0"`
	Policy         string `yaml:"policy" validate:"oneof=id first"`
	Index          string `yaml:"index" validate:"oneof=auto brute partial cover vptree"`
	AsyncThreshold int    `yaml:"async_threshold" validate:"gte=0"`
	Workers        int    `yaml:"workers" validate:"gte=0"`
}

// Gallery controls the neighbor image grid.
type Gallery struct {
	Width int `yaml:"width" validate:"gte=1"`
}

// Log configures the logger.
type Log struct {
	Level  string `yaml:"level" validate:"oneof=debug info warn error"`
	Format string `yaml:"format" validate:"oneof=text json"`
}

// Metrics configures the Prometheus endpoint; an empty Addr disables it.
type Metrics struct {
	Addr string `yaml:"addr" validate:"omitempty,hostname_port"`
}

// Default returns the built-in configuration.
func Default() *Config {
	return &Config{
		Query: Query{
			DefaultK:       7,
			MaxK:           100,
			Policy:         "id",
			Index:          "auto",
			AsyncThreshold: 10000,
		},
		Gallery:  Gallery{Width: 5},
		Classes:  []string{"Non-Covid", "Covid"},
		ImageDir: "images",
		Log:      Log{Level: "info", Format: "text"},
	}
}

// Load reads path over the defaults and validates the result.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("config: %w", err)
	}
	return Parse(data)
}

// Parse decodes YAML over the defaults and validates the result. Unknown
// keys are rejected.
func Parse(data []byte) (*Config, error) {
	cfg := Default()
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(cfg); err != nil && !errors.Is(err, io.EOF) {
		return nil, fmt.Errorf("config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate checks field constraints.
func (c *Config) Validate() error {
	if c == nil {
		return fmt.Errorf("config: nil config: %w", point.ErrInvalidArgument)
	}
	if err := validate.Struct(c); err != nil {
		return formatValidationError(err)
	}
	if c.Query.MaxK > 0 && c.Query.DefaultK > c.Query.MaxK {
		return fmt.Errorf("config: query.default_k %d exceeds query.max_k %d: %w", c.Query.DefaultK, c.Query.MaxK, point.ErrInvalidArgument)
	}
	return nil
}

func formatValidationError(err error) error {
	var validationErrs validator.ValidationErrors
	if !errors.As(err, &validationErrs) || len(validationErrs) == 0 {
		return fmt.Errorf("config: %w", err)
	}
	e := validationErrs[0]
	field := e.Namespace()
	switch e.Tag() {
	case "required":
		return fmt.Errorf("config: %s: field is required: %w", field, point.ErrInvalidArgument)
	case "gte":
		return fmt.Errorf("config: %s: must be at least %s: %w", field, e.Param(), point.ErrInvalidArgument)
	case "oneof":
		return fmt.Errorf("config: %s: must be one of [%s], got %v: %w", field, e.Param(), e.Value(), point.ErrInvalidArgument)
	default:
		return fmt.Errorf("config: %s: validation failed (%s): %w", field, e.Tag(), point.ErrInvalidArgument)
	}
}
