package cmd

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nvr-ai/detbench/inference"
	"github.com/nvr-ai/detbench/inference/detectors"
	"github.com/nvr-ai/detbench/inference/providers"
)

type stubDetector struct {
	raw    []inference.RawDetection
	err    error
	closed bool
}

func (d *stubDetector) Infer(ctx context.Context, imagePath string) ([]inference.RawDetection, error) {
	return d.raw, d.err
}

func (d *stubDetector) ClassName(classID int) string {
	return inference.COCOClasses.NameOf(classID)
}

func (d *stubDetector) Close() error {
	d.closed = true
	return nil
}

func loaderFor(det inference.Detector, err error) inference.Loader {
	return inference.LoaderFunc(func(ctx context.Context, modelPath string) (inference.Detector, error) {
		if err != nil {
			return nil, err
		}
		return det, nil
	})
}

func TestBuildConfigPrecedence(t *testing.T) {
	t.Setenv("DETBENCH_MODELS", "/env/models")
	t.Setenv("DETBENCH_IMAGES", "/env/images")
	t.Setenv("DETBENCH_OUTPUT", "/env/out")
	t.Setenv("DETBENCH_CONCURRENCY", "")
	t.Setenv("DETBENCH_ONNXRUNTIME_LIB", "")

	path := filepath.Join(t.TempDir(), "bench.yaml")
	require.NoError(t, os.WriteFile(path, []byte("images_dir: /file/images\noutput_dir: /file/out\n"), 0o644))

	runCmd := newRunCmd()
	require.NoError(t, runCmd.Flags().Set("config", path))
	require.NoError(t, runCmd.Flags().Set("output", "/flag/out"))
	require.NoError(t, runCmd.Flags().Set("classes", "0, 2"))
	require.NoError(t, runCmd.Flags().Set("provider", "CUDA"))

	config, err := buildConfig(runCmd)
	require.NoError(t, err)

	assert.Equal(t, "/env/models", config.ModelsDir)
	assert.Equal(t, "/file/images", config.ImagesDir)
	assert.Equal(t, "/flag/out", config.OutputDir)
	assert.Equal(t, []int{0, 2}, config.Detector.Classes)
	assert.Equal(t, 1, config.Concurrency)
	assert.Equal(t, providers.CUDABackend, config.Detector.Provider.Backend)
}

func TestDetectorConfigFromFlags(t *testing.T) {
	t.Setenv("DETBENCH_ONNXRUNTIME_LIB", "/opt/ort/libonnxruntime.so")

	detectCmd := newDetectCmd()
	require.NoError(t, detectCmd.Flags().Set("conf", "0.5"))
	require.NoError(t, detectCmd.Flags().Set("classes", "1,3"))

	config, err := detectorConfig(detectCmd)
	require.NoError(t, err)
	assert.InDelta(t, 0.5, config.ConfidenceThreshold, 1e-6)
	assert.Equal(t, []int{1, 3}, config.Classes)
	assert.Equal(t, "/opt/ort/libonnxruntime.so", config.SharedLibPath)
	assert.Equal(t, providers.CPUBackend, config.Provider.Backend)

	require.NoError(t, detectCmd.Flags().Set("provider", "tpu"))
	_, err = detectorConfig(detectCmd)
	assert.Error(t, err)
}

func TestBuildConfigRejectsBadFlags(t *testing.T) {
	runCmd := newRunCmd()
	require.NoError(t, runCmd.Flags().Set("classes", "person"))
	_, err := buildConfig(runCmd)
	assert.EqualError(t, err, "classes must be comma-separated integers")

	runCmd = newRunCmd()
	require.NoError(t, runCmd.Flags().Set("concurrency", "0"))
	_, err = buildConfig(runCmd)
	assert.Error(t, err)
}

func TestRunWithMissingDirectoriesWritesEmptyExports(t *testing.T) {
	root := t.TempDir()
	out := filepath.Join(root, "reports")

	cli := NewCLI()
	var stdout, stderr bytes.Buffer
	cli.SetOut(&stdout)
	cli.SetErr(&stderr)
	cli.SetArgs([]string{
		"run",
		"--models", filepath.Join(root, "models"),
		"--images", filepath.Join(root, "images"),
		"--output", out,
	})

	require.NoError(t, cli.ExecuteContext(context.Background()))

	assert.Contains(t, stdout.String(), "Starting YOLO Model Benchmark")
	assert.Contains(t, stdout.String(), "Models tested: 0")

	csvFiles, err := filepath.Glob(filepath.Join(out, "benchmark_summary_*.csv"))
	require.NoError(t, err)
	assert.Len(t, csvFiles, 1)
	jsonFiles, err := filepath.Glob(filepath.Join(out, "benchmark_results_*.json"))
	require.NoError(t, err)
	assert.Len(t, jsonFiles, 1)
}

func TestDetectTestFlag(t *testing.T) {
	det := &stubDetector{}
	detectCmd := newDetectCmd()
	var stdout bytes.Buffer
	detectCmd.SetOut(&stdout)
	detectCmd.SetContext(context.Background())
	require.NoError(t, detectCmd.Flags().Set("test", "true"))

	require.NoError(t, detect(detectCmd, loaderFor(det, nil)))
	assert.Equal(t, "Model loaded successfully\n", stdout.String())
	assert.True(t, det.closed)
}

func TestDetectLoadFailure(t *testing.T) {
	detectCmd := newDetectCmd()
	detectCmd.SetContext(context.Background())
	require.NoError(t, detectCmd.Flags().Set("test", "true"))

	err := detect(detectCmd, loaderFor(nil, errors.New("bad weights")))
	assert.ErrorContains(t, err, "bad weights")
}

func TestDetectRequiresImage(t *testing.T) {
	detectCmd := newDetectCmd()
	detectCmd.SetContext(context.Background())

	err := detect(detectCmd, loaderFor(&stubDetector{}, nil))
	assert.EqualError(t, err, "--image is required")
}

func TestDetectPrintsAndSavesDetections(t *testing.T) {
	dir := t.TempDir()
	det := &stubDetector{raw: []inference.RawDetection{
		inference.NewRawDetection(2, 0.5, [4]float32{10.7, 20.2, 30.9, 40.1}),
	}}

	detectCmd := newDetectCmd()
	var stdout bytes.Buffer
	detectCmd.SetOut(&stdout)
	detectCmd.SetContext(context.Background())
	require.NoError(t, detectCmd.Flags().Set("image", "images/street.jpg"))
	require.NoError(t, detectCmd.Flags().Set("output", dir))
	require.NoError(t, detectCmd.Flags().Set("json", "true"))
	require.NoError(t, detectCmd.Flags().Set("no-draw", "true"))

	require.NoError(t, detect(detectCmd, loaderFor(det, nil)))

	var printed detectors.DetectionFile
	require.NoError(t, json.Unmarshal(stdout.Bytes(), &printed))
	require.Len(t, printed.Detections, 1)
	assert.Equal(t, "car", printed.Detections[0].ClassName)
	assert.Equal(t, detectors.BoundingBoxRecord{Left: 10, Top: 20, Right: 30, Bottom: 40}, printed.Detections[0].BoundingBox)

	data, err := os.ReadFile(filepath.Join(dir, "street_detection.json"))
	require.NoError(t, err)
	var saved detectors.DetectionFile
	require.NoError(t, json.Unmarshal(data, &saved))
	assert.Equal(t, printed, saved)
}

func TestDetectInferenceFailure(t *testing.T) {
	detectCmd := newDetectCmd()
	detectCmd.SetContext(context.Background())
	require.NoError(t, detectCmd.Flags().Set("image", "images/street.jpg"))

	err := detect(detectCmd, loaderFor(&stubDetector{err: errors.New("corrupt image")}, nil))
	assert.EqualError(t, err, "corrupt image")
}

func TestDetectOutputDefaults(t *testing.T) {
	detectCmd := newDetectCmd()
	require.NoError(t, detectCmd.Flags().Set("json", "true"))

	out := detectOutput(detectCmd)
	assert.Equal(t, defaultAnnotationDir, out.Dir)
	assert.True(t, out.Annotate)
	assert.False(t, out.SaveJSON)
}
