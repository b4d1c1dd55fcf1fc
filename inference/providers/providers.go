// Package providers - Execution provider selection for onnxruntime sessions.
package providers

import (
	"fmt"
	"strings"

	"github.com/pkg/errors"
	ort "github.com/yalue/onnxruntime_go"
)

// Backend names an onnxruntime execution provider.
type Backend string

const (
	// CPUBackend runs on the default CPU provider.
	CPUBackend Backend = "cpu"
	// CUDABackend uses NVIDIA CUDA.
	CUDABackend Backend = "cuda"
	// CoreMLBackend uses Apple CoreML for macOS acceleration.
	CoreMLBackend Backend = "coreml"
	// OpenVINOBackend uses Intel OpenVINO.
	OpenVINOBackend Backend = "openvino"
)

// Backends lists every supported backend.
var Backends = []Backend{CPUBackend, CUDABackend, CoreMLBackend, OpenVINOBackend}

// ParseBackend resolves a backend name case-insensitively. Empty selects CPU.
func ParseBackend(s string) (Backend, error) {
	s = strings.ToLower(strings.TrimSpace(s))
	if s == "" {
		return CPUBackend, nil
	}
	for _, b := range Backends {
		if string(b) == s {
			return b, nil
		}
	}
	return "", errors.Errorf("unsupported execution provider %q", s)
}

// Config selects the execution provider for a session.
type Config struct {
	// Backend is the execution provider. Empty means CPU.
	Backend Backend `json:"backend" yaml:"backend"`

	// Options are passed to the provider as-is, e.g. {"device_id": "0"} for
	// CUDA or {"device_type": "GPU"} for OpenVINO.
	// See: https://onnxruntime.ai/docs/execution-providers/
	Options map[string]string `json:"options,omitempty" yaml:"options,omitempty"`

	// IntraOpThreads parallelizes execution within graph nodes. 0 uses the runtime default.
	IntraOpThreads int `json:"intra_op_threads" yaml:"intra_op_threads"`

	// InterOpThreads parallelizes independent graph nodes. 0 uses the runtime default.
	InterOpThreads int `json:"inter_op_threads" yaml:"inter_op_threads"`
}

// Validate checks the backend name and thread counts.
func (c Config) Validate() error {
	if _, err := ParseBackend(string(c.Backend)); err != nil {
		return err
	}
	if c.IntraOpThreads < 0 || c.InterOpThreads < 0 {
		return errors.New("thread counts must not be negative")
	}
	return nil
}

// SessionOptions creates onnxruntime session options for the configuration.
// The caller must Destroy the returned options.
//
// Returns:
//   - *ort.SessionOptions: The configured options.
//   - error: An error if the provider is unavailable in the loaded runtime.
func (c Config) SessionOptions() (*ort.SessionOptions, error) {
	backend, err := ParseBackend(string(c.Backend))
	if err != nil {
		return nil, err
	}

	options, err := ort.NewSessionOptions()
	if err != nil {
		return nil, errors.Wrap(err, "error creating ORT session options")
	}

	if err := c.apply(options, backend); err != nil {
		options.Destroy()
		return nil, err
	}
	return options, nil
}

func (c Config) apply(options *ort.SessionOptions, backend Backend) error {
	// Enables graph rewrites such as fusion and constant folding.
	if err := options.SetGraphOptimizationLevel(ort.GraphOptimizationLevelEnableExtended); err != nil {
		return errors.Wrap(err, "error setting graph optimization level")
	}
	if c.IntraOpThreads > 0 {
		if err := options.SetIntraOpNumThreads(c.IntraOpThreads); err != nil {
			return errors.Wrap(err, "error setting intra-op threads")
		}
	}
	if c.InterOpThreads > 0 {
		if err := options.SetInterOpNumThreads(c.InterOpThreads); err != nil {
			return errors.Wrap(err, "error setting inter-op threads")
		}
	}

	switch backend {
	case CPUBackend:
		// CPU is always registered.
		return nil
	case CUDABackend:
		cudaOptions, err := ort.NewCUDAProviderOptions()
		if err != nil {
			return errors.Wrap(err, "error creating CUDA provider options")
		}
		defer cudaOptions.Destroy()

		if len(c.Options) > 0 {
			if err := cudaOptions.Update(c.Options); err != nil {
				return errors.Wrap(err, "error updating CUDA provider options")
			}
		}
		if err := options.AppendExecutionProviderCUDA(cudaOptions); err != nil {
			return errors.Wrap(err, "error enabling CUDA")
		}
	case CoreMLBackend:
		flags, err := coreMLFlags(c.Options)
		if err != nil {
			return err
		}
		if err := options.AppendExecutionProviderCoreML(flags); err != nil {
			return errors.Wrap(err, "error enabling CoreML")
		}
	case OpenVINOBackend:
		opts := c.Options
		if opts == nil {
			opts = map[string]string{}
		}
		if err := options.AppendExecutionProviderOpenVINO(opts); err != nil {
			return errors.Wrap(err, "error enabling OpenVINO")
		}
	}
	return nil
}

// coreMLFlags reads the legacy CoreML flag bitmask from the "flags" option.
func coreMLFlags(options map[string]string) (uint32, error) {
	s, ok := options["flags"]
	if !ok || s == "" {
		return 0, nil
	}
	var flags uint32
	if _, err := fmt.Sscanf(s, "%d", &flags); err != nil {
		return 0, errors.Errorf("invalid CoreML flags %q", s)
	}
	return flags, nil
}
