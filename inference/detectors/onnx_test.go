package detectors

import (
	"context"
	"image"
	"image/color"
	"image/png"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nvr-ai/detbench/envconfig"
	"github.com/nvr-ai/detbench/inference"
)

func TestNewONNXLoaderValidatesConfig(t *testing.T) {
	config := DefaultConfig()
	config.ConfidenceThreshold = 3

	_, err := NewONNXLoader(config)
	assert.Error(t, err)
}

func TestONNXLoaderRejectsOtherFormats(t *testing.T) {
	loader, err := NewONNXLoader(DefaultConfig())
	require.NoError(t, err)

	for _, name := range []string{"yolov8n.pt", "yolov8n.engine", "yolov8n"} {
		_, err := loader.Load(context.Background(), filepath.Join("models", name))
		assert.ErrorContains(t, err, "only .onnx models can be loaded", name)
	}
}

// testModel returns a loader and model path, skipping when the onnxruntime
// library or the model is not available on this machine.
//
// DETBENCH_ONNXRUNTIME_LIB points at the library, DETBENCH_TEST_MODEL at a
// YOLOv8 ONNX export.
func testModel(tb testing.TB) (*ONNXLoader, string) {
	tb.Helper()

	model := envconfig.Var("DETBENCH_TEST_MODEL")
	if model == "" {
		model = "../../testdata/yolov8n.onnx"
	}
	if _, err := os.Stat(model); err != nil {
		tb.Skipf("Skipping ONNX test - model not available: %v", err)
	}

	config := DefaultConfig()
	config.SharedLibPath = envconfig.SharedLibPath()
	loader, err := NewONNXLoader(config)
	require.NoError(tb, err)
	return loader, model
}

func loadOrSkip(tb testing.TB, loader *ONNXLoader, model string) inference.Detector {
	tb.Helper()
	det, err := loader.Load(context.Background(), model)
	if err != nil {
		if strings.Contains(err.Error(), "ONNX Runtime library not found") {
			tb.Skipf("Skipping ONNX test - library not available: %v", err)
		}
		require.NoError(tb, err)
	}
	return det
}

func writeTestImage(tb testing.TB) string {
	tb.Helper()
	img := image.NewRGBA(image.Rect(0, 0, 320, 240))
	for y := 0; y < 240; y++ {
		for x := 0; x < 320; x++ {
			img.SetRGBA(x, y, color.RGBA{R: uint8(x), G: uint8(y), B: 128, A: 255})
		}
	}
	path := filepath.Join(tb.TempDir(), "gradient.png")
	f, err := os.Create(path)
	require.NoError(tb, err)
	require.NoError(tb, png.Encode(f, img))
	require.NoError(tb, f.Close())
	return path
}

func TestONNXDetectorInfer(t *testing.T) {
	loader, model := testModel(t)
	det := loadOrSkip(t, loader, model)
	defer det.Close()

	size := det.(*ONNXDetector).session.InputSize()
	assert.Positive(t, size.X)
	assert.Positive(t, size.Y)

	raw, err := det.Infer(context.Background(), writeTestImage(t))
	require.NoError(t, err)
	for i, r := range raw {
		assert.GreaterOrEqual(t, r.Confidence, float32(0.25))
		assert.Equal(t, 4, r.Box.Shape().TotalSize())
		if i > 0 {
			assert.LessOrEqual(t, r.Confidence, raw[i-1].Confidence)
		}
	}

	_, err = det.Infer(context.Background(), filepath.Join(t.TempDir(), "missing.png"))
	assert.Error(t, err)

	require.NoError(t, det.Close())
	_, err = det.Infer(context.Background(), writeTestImage(t))
	assert.EqualError(t, err, "model not loaded")
}

func BenchmarkONNXDetectorInfer(b *testing.B) {
	loader, model := testModel(b)
	det := loadOrSkip(b, loader, model)
	defer det.Close()

	path := writeTestImage(b)
	ctx := context.Background()

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		if _, err := det.Infer(ctx, path); err != nil {
			b.Fatalf("inference failed: %v", err)
		}
	}
}
