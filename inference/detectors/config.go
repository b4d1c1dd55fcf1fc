// Package detectors - Concrete detector adapters and their per-image outputs.
package detectors

import (
	"image"
	"strconv"
	"strings"

	"github.com/pkg/errors"

	"github.com/nvr-ai/detbench/inference/providers"
)

// Config represents the configuration for the ONNX detector.
type Config struct {
	// SharedLibPath points at the onnxruntime shared library. Empty uses the platform default.
	SharedLibPath string `json:"shared_lib_path" yaml:"shared_lib_path"`

	// InputSize is used for models with dynamic spatial input dimensions.
	InputSize image.Point `json:"input_size" yaml:"input_size"`

	// ConfidenceThreshold filters detections below this confidence level.
	ConfidenceThreshold float32 `json:"confidence_threshold" yaml:"confidence_threshold"`

	// NMSThreshold controls the Non-Maximum Suppression IoU threshold.
	NMSThreshold float32 `json:"nms_threshold" yaml:"nms_threshold"`

	// Classes lists class ids to keep (empty = all classes).
	Classes []int `json:"classes" yaml:"classes"`

	// Labels is an optional label file, one class name per line.
	Labels string `json:"labels" yaml:"labels"`

	// Provider selects the onnxruntime execution provider. Defaults to CPU.
	Provider providers.Config `json:"provider" yaml:"provider"`
}

// DefaultConfig returns the detector defaults: 640x640 input, 0.25
// confidence, 0.7 NMS IoU and every class.
//
// Returns:
//   - Config: The default configuration.
func DefaultConfig() Config {
	return Config{
		InputSize:           image.Point{X: 640, Y: 640},
		ConfidenceThreshold: 0.25,
		NMSThreshold:        0.7,
	}
}

// Validate checks thresholds and sizes.
func (c Config) Validate() error {
	if c.ConfidenceThreshold < 0 || c.ConfidenceThreshold > 1 {
		return errors.Errorf("confidence threshold must be in [0,1], got %v", c.ConfidenceThreshold)
	}
	if c.NMSThreshold < 0 || c.NMSThreshold > 1 {
		return errors.Errorf("nms threshold must be in [0,1], got %v", c.NMSThreshold)
	}
	if c.InputSize.X < 0 || c.InputSize.Y < 0 {
		return errors.Errorf("input size must not be negative, got %v", c.InputSize)
	}
	for _, id := range c.Classes {
		if id < 0 {
			return errors.Errorf("class ids must not be negative, got %d", id)
		}
	}
	return c.Provider.Validate()
}

// ParseClasses parses a comma-separated list of class ids such as "0,2, 5".
// An empty string yields no filter.
//
// Arguments:
//   - s: The class list.
//
// Returns:
//   - []int: The class ids.
//   - error: An error if any element is not an integer.
func ParseClasses(s string) ([]int, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil, nil
	}
	parts := strings.Split(s, ",")
	classes := make([]int, 0, len(parts))
	for _, p := range parts {
		id, err := strconv.Atoi(strings.TrimSpace(p))
		if err != nil {
			return nil, errors.New("classes must be comma-separated integers")
		}
		classes = append(classes, id)
	}
	return classes, nil
}
