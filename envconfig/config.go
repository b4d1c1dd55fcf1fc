// Package envconfig reads harness settings from DETBENCH_* environment variables.
//
// Values are read on every call so tests can override them with t.Setenv.
package envconfig

import (
	"log/slog"
	"os"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
)

// Load reads a .env file from the working directory, if present. Variables
// already set in the environment take precedence over the file.
func Load(filenames ...string) error {
	err := godotenv.Load(filenames...)
	if err != nil && os.IsNotExist(err) {
		return nil
	}
	return err
}

// Var returns an environment variable stripped of whitespace and quotes.
func Var(key string) string {
	return strings.Trim(strings.TrimSpace(os.Getenv(key)), "\"'")
}

// Bool returns a function that reads k as a boolean. Any non-empty value that
// does not parse counts as true.
func Bool(k string) func() bool {
	return func() bool {
		if s := Var(k); s != "" {
			b, err := strconv.ParseBool(s)
			if err != nil {
				return true
			}
			return b
		}
		return false
	}
}

// String returns a function that reads k.
func String(k string) func() string {
	return func() string {
		return Var(k)
	}
}

// Int returns a function that reads k as an integer with a default.
func Int(k string, defaultValue int) func() int {
	return func() int {
		if s := Var(k); s != "" {
			n, err := strconv.Atoi(s)
			if err != nil {
				slog.Warn("invalid environment variable, using default", "key", k, "value", s, "default", defaultValue)
				return defaultValue
			}
			return n
		}
		return defaultValue
	}
}

var (
	// ModelsDir overrides the models directory. Configure with DETBENCH_MODELS.
	ModelsDir = String("DETBENCH_MODELS")
	// ImagesDir overrides the images directory. Configure with DETBENCH_IMAGES.
	ImagesDir = String("DETBENCH_IMAGES")
	// OutputDir overrides the export directory. Configure with DETBENCH_OUTPUT.
	OutputDir = String("DETBENCH_OUTPUT")
	// SharedLibPath points at the onnxruntime shared library. Configure with DETBENCH_ONNXRUNTIME_LIB.
	SharedLibPath = String("DETBENCH_ONNXRUNTIME_LIB")
	// Concurrency sets how many models are benchmarked at once. Configure with DETBENCH_CONCURRENCY.
	Concurrency = Int("DETBENCH_CONCURRENCY", 0)
	// Debug enables debug logging. Configure with DETBENCH_DEBUG.
	Debug = Bool("DETBENCH_DEBUG")
)

// LogLevel returns the slog level implied by DETBENCH_DEBUG.
func LogLevel() slog.Level {
	if Debug() {
		return slog.LevelDebug
	}
	return slog.LevelInfo
}

// EnvVar documents one supported variable.
type EnvVar struct {
	Name        string
	Value       any
	Description string
}

// AsMap returns every supported variable with its current value.
func AsMap() map[string]EnvVar {
	return map[string]EnvVar{
		"DETBENCH_MODELS":          {"DETBENCH_MODELS", ModelsDir(), "Directory scanned for model files"},
		"DETBENCH_IMAGES":          {"DETBENCH_IMAGES", ImagesDir(), "Directory scanned for images"},
		"DETBENCH_OUTPUT":          {"DETBENCH_OUTPUT", OutputDir(), "Directory the exports are written to"},
		"DETBENCH_ONNXRUNTIME_LIB": {"DETBENCH_ONNXRUNTIME_LIB", SharedLibPath(), "Path to the onnxruntime shared library"},
		"DETBENCH_CONCURRENCY":     {"DETBENCH_CONCURRENCY", Concurrency(), "Models benchmarked at once"},
		"DETBENCH_DEBUG":           {"DETBENCH_DEBUG", Debug(), "Show additional debug information"},
	}
}
