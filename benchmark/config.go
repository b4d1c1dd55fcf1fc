package benchmark

import (
	"os"

	"github.com/pkg/errors"
	"gopkg.in/yaml.v3"

	"github.com/nvr-ai/detbench/inference/detectors"
)

// Config represents the overall benchmark configuration.
type Config struct {
	ModelsDir       string           `json:"models_dir"       yaml:"models_dir"`
	ImagesDir       string           `json:"images_dir"       yaml:"images_dir"`
	OutputDir       string           `json:"output_dir"       yaml:"output_dir"`
	ModelExtensions []string         `json:"model_extensions" yaml:"model_extensions"`
	ImageExtensions []string         `json:"image_extensions" yaml:"image_extensions"`
	Concurrency     int              `json:"concurrency"      yaml:"concurrency"`
	Detector        detectors.Config `json:"detector"         yaml:"detector"`
}

// DefaultConfig returns a default benchmark configuration.
func DefaultConfig() *Config {
	return &Config{
		ModelsDir:       "models",
		ImagesDir:       "images",
		OutputDir:       ".",
		ModelExtensions: append([]string(nil), DefaultModelExtensions...),
		ImageExtensions: append([]string(nil), DefaultImageExtensions...),
		Concurrency:     1,
		Detector:        detectors.DefaultConfig(),
	}
}

// Validate checks that the configuration can drive a run.
func (c *Config) Validate() error {
	if c.ModelsDir == "" {
		return errors.New("models_dir is required")
	}
	if c.ImagesDir == "" {
		return errors.New("images_dir is required")
	}
	if len(c.ModelExtensions) == 0 {
		return errors.New("model_extensions must not be empty")
	}
	if len(c.ImageExtensions) == 0 {
		return errors.New("image_extensions must not be empty")
	}
	if c.Concurrency < 1 {
		return errors.Errorf("concurrency must be at least 1, got %d", c.Concurrency)
	}
	return c.Detector.Validate()
}

// LoadConfig loads a YAML or JSON configuration file over the defaults.
//
// Arguments:
//   - filename: The configuration file.
//
// Returns:
//   - *Config: The merged configuration.
//   - error: An error if the file cannot be read or parsed.
func LoadConfig(filename string) (*Config, error) {
	config := DefaultConfig()
	if err := config.Merge(filename); err != nil {
		return nil, err
	}
	return config, nil
}

// Merge overlays the settings present in a YAML or JSON file onto c. Keys
// absent from the file keep their current values.
func (c *Config) Merge(filename string) error {
	data, err := os.ReadFile(filename)
	if err != nil {
		return errors.Wrap(err, "failed to read config file")
	}
	if err := yaml.Unmarshal(data, c); err != nil {
		return errors.Wrap(err, "failed to unmarshal config")
	}
	return nil
}

// SaveConfig saves the configuration as YAML.
func (c *Config) SaveConfig(filename string) error {
	data, err := yaml.Marshal(c)
	if err != nil {
		return errors.Wrap(err, "failed to marshal config")
	}
	if err := os.WriteFile(filename, data, 0o644); err != nil {
		return errors.Wrap(err, "failed to write config file")
	}
	return nil
}
