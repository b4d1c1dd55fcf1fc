// Package detectors - ONNX model inference.
package detectors

import (
	"context"
	"log/slog"
	"path/filepath"
	"strings"
	"sync"

	"github.com/pkg/errors"

	"github.com/nvr-ai/detbench/inference"
)

// ONNXLoader loads YOLO detection models exported to ONNX.
type ONNXLoader struct {
	config Config
}

// NewONNXLoader creates a loader. The onnxruntime environment is initialized
// lazily on the first Load.
//
// Arguments:
//   - config: The detector configuration shared by every loaded model.
//
// Returns:
//   - *ONNXLoader: The loader.
//   - error: An error if the configuration is invalid.
func NewONNXLoader(config Config) (*ONNXLoader, error) {
	if err := config.Validate(); err != nil {
		return nil, err
	}
	return &ONNXLoader{config: config}, nil
}

// Load opens the model at modelPath. Only .onnx artifacts are supported;
// other packaged formats fail to load.
func (l *ONNXLoader) Load(_ context.Context, modelPath string) (inference.Detector, error) {
	if ext := strings.ToLower(filepath.Ext(modelPath)); ext != ".onnx" {
		return nil, errors.Errorf("unsupported model format %q: only .onnx models can be loaded", ext)
	}
	if err := inference.InitializeEnvironment(l.config.SharedLibPath); err != nil {
		return nil, err
	}

	classes := inference.COCOClasses
	if l.config.Labels != "" {
		set, err := inference.LoadClassSet(l.config.Labels)
		if err != nil {
			return nil, err
		}
		classes = set
	}

	session, err := inference.NewSession(inference.SessionArgs{
		ModelPath: modelPath,
		InputSize: l.config.InputSize,
		Provider:  l.config.Provider,
	})
	if err != nil {
		return nil, errors.Wrapf(err, "failed to load %s", filepath.Base(modelPath))
	}
	slog.Debug("onnx model loaded", "model", filepath.Base(modelPath), "input", session.InputSize(), "classes", classes.Len())

	return &ONNXDetector{
		session: session,
		classes: classes,
		opts: inference.DecodeOptions{
			ConfidenceThreshold: l.config.ConfidenceThreshold,
			IoUThreshold:        l.config.NMSThreshold,
			Classes:             l.config.Classes,
			ClassAware:          true,
		},
	}, nil
}

// ONNXDetector runs a loaded ONNX session against image files.
type ONNXDetector struct {
	mu      sync.Mutex
	session *inference.Session
	classes *inference.ClassSet
	opts    inference.DecodeOptions
}

// Infer runs inference on the image at imagePath.
//
// Arguments:
//   - ctx: Unused; inference runs to completion once started.
//   - imagePath: Path to the image file.
//
// Returns:
//   - []inference.RawDetection: The detections, highest confidence first.
//   - error: An error if decoding or inference fails.
func (d *ONNXDetector) Infer(_ context.Context, imagePath string) ([]inference.RawDetection, error) {
	img, err := inference.DecodeImage(imagePath)
	if err != nil {
		return nil, err
	}

	d.mu.Lock()
	defer d.mu.Unlock()

	if d.session == nil {
		return nil, errors.New("model not loaded")
	}
	boxes, err := d.session.Detect(img, d.opts)
	if err != nil {
		return nil, err
	}

	raw := make([]inference.RawDetection, 0, len(boxes))
	for i := range boxes {
		raw = append(raw, boxes[i].Raw())
	}
	return raw, nil
}

// ClassName resolves a class index against the detector's label set.
func (d *ONNXDetector) ClassName(classID int) string {
	return d.classes.NameOf(classID)
}

// Close releases the session.
func (d *ONNXDetector) Close() error {
	d.mu.Lock()
	defer d.mu.Unlock()

	if d.session == nil {
		return nil
	}
	err := d.session.Close()
	d.session = nil
	return err
}
