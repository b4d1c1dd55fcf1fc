// Package inference - Inference sessions.
package inference

import (
	"image"
	"os"
	"runtime"
	"sync"

	"github.com/pkg/errors"
	ort "github.com/yalue/onnxruntime_go"

	"github.com/nvr-ai/detbench/inference/providers"
)

var envMu sync.Mutex

// DefaultSharedLibPath returns the conventional onnxruntime library location
// for the current platform.
//
// Returns:
//   - string: The path to the shared library.
func DefaultSharedLibPath() string {
	switch runtime.GOOS {
	case "windows":
		return "./third_party/onnxruntime.dll"
	case "darwin":
		return "./third_party/libonnxruntime.dylib"
	default:
		if runtime.GOARCH == "arm64" {
			return "./third_party/onnxruntime_arm64.so"
		}
		return "./third_party/onnxruntime.so"
	}
}

// InitializeEnvironment loads the onnxruntime shared library once per process.
// Later calls are no-ops.
//
// Arguments:
//   - libPath: Path to the onnxruntime shared library. Empty uses DefaultSharedLibPath.
//
// Returns:
//   - error: An error if the library is missing or fails to initialize.
func InitializeEnvironment(libPath string) error {
	envMu.Lock()
	defer envMu.Unlock()

	if ort.IsInitialized() {
		return nil
	}
	if libPath == "" {
		libPath = DefaultSharedLibPath()
	}
	if _, err := os.Stat(libPath); err != nil {
		return errors.Wrapf(err, "ONNX Runtime library not found at %s", libPath)
	}

	ort.SetSharedLibraryPath(libPath)
	if err := ort.InitializeEnvironment(); err != nil {
		return errors.Wrap(err, "error initializing ORT environment")
	}
	return nil
}

// DestroyEnvironment tears down the onnxruntime environment if it was started.
func DestroyEnvironment() error {
	envMu.Lock()
	defer envMu.Unlock()

	if !ort.IsInitialized() {
		return nil
	}
	return ort.DestroyEnvironment()
}

// SessionArgs are the arguments for creating a Session.
type SessionArgs struct {
	// ModelPath is the path to the ONNX model file.
	ModelPath string
	// InputSize is used when the model declares dynamic spatial dimensions.
	InputSize image.Point
	// Provider selects the execution provider and threading.
	Provider providers.Config
}

// Session holds a native onnxruntime session with its preallocated single
// input and single output tensors.
type Session struct {
	session   *ort.AdvancedSession
	input     *ort.Tensor[float32]
	output    *ort.Tensor[float32]
	inputSize image.Point
	rows      int
	anchors   int
}

// NewSession creates a session for a single-input single-output detection model.
//
// The input and output shapes are read from the model itself. Dynamic
// dimensions on the input are resolved from args.InputSize; the output must
// be fully static as [1, 4+C, N].
//
// Arguments:
//   - args: The arguments for the session.
//
// Returns:
//   - *Session: The session, ready for Run.
//   - error: An error if the model cannot be inspected or loaded.
func NewSession(args SessionArgs) (*Session, error) {
	inputs, outputs, err := ort.GetInputOutputInfo(args.ModelPath)
	if err != nil {
		return nil, errors.Wrap(err, "error reading model inputs and outputs")
	}
	if len(inputs) != 1 || len(outputs) != 1 {
		return nil, errors.Errorf("expected 1 input and 1 output, model has %d and %d", len(inputs), len(outputs))
	}

	inShape, size, err := resolveInputShape(inputs[0].Dimensions, args.InputSize)
	if err != nil {
		return nil, err
	}
	outDims := outputs[0].Dimensions
	if len(outDims) != 3 || outDims[1] <= 4 || outDims[2] <= 0 {
		return nil, errors.Errorf("unsupported output shape %v, want [1 4+C N]", outDims)
	}
	outShape := ort.NewShape(1, outDims[1], outDims[2])

	inputTensor, err := ort.NewEmptyTensor[float32](inShape)
	if err != nil {
		return nil, errors.Wrap(err, "error creating input tensor")
	}
	outputTensor, err := ort.NewEmptyTensor[float32](outShape)
	if err != nil {
		inputTensor.Destroy()
		return nil, errors.Wrap(err, "error creating output tensor")
	}

	options, err := args.Provider.SessionOptions()
	if err != nil {
		inputTensor.Destroy()
		outputTensor.Destroy()
		return nil, err
	}
	defer options.Destroy()

	session, err := ort.NewAdvancedSession(
		args.ModelPath,
		[]string{inputs[0].Name},
		[]string{outputs[0].Name},
		[]ort.Value{inputTensor},
		[]ort.Value{outputTensor},
		options,
	)
	if err != nil {
		inputTensor.Destroy()
		outputTensor.Destroy()
		return nil, errors.Wrap(err, "error creating ORT session")
	}

	return &Session{
		session:   session,
		input:     inputTensor,
		output:    outputTensor,
		inputSize: size,
		rows:      int(outDims[1]),
		anchors:   int(outDims[2]),
	}, nil
}

func resolveInputShape(dims ort.Shape, fallback image.Point) (ort.Shape, image.Point, error) {
	if len(dims) != 4 {
		return nil, image.Point{}, errors.Errorf("unsupported input shape %v, want [1 3 H W]", dims)
	}
	h, w := dims[2], dims[3]
	if h <= 0 {
		h = int64(fallback.Y)
	}
	if w <= 0 {
		w = int64(fallback.X)
	}
	if h <= 0 || w <= 0 {
		return nil, image.Point{}, errors.Errorf("model input %v is dynamic and no input size is configured", dims)
	}
	return ort.NewShape(1, 3, h, w), image.Point{X: int(w), Y: int(h)}, nil
}

// InputSize returns the width and height the model consumes.
func (s *Session) InputSize() image.Point {
	return s.inputSize
}

// Detect prepares img, runs the model and decodes its output.
//
// Arguments:
//   - img: The source image.
//   - opts: Decoding thresholds and class filter.
//
// Returns:
//   - []BoundingBox: Boxes in source image pixels.
//   - error: An error if preparation, execution or decoding fails.
func (s *Session) Detect(img image.Image, opts DecodeOptions) ([]BoundingBox, error) {
	if s.session == nil {
		return nil, errors.New("session is closed")
	}
	if err := PrepareInput(img, s.inputSize, s.input.GetData()); err != nil {
		return nil, errors.Wrap(err, "failed to prepare input")
	}
	if err := s.session.Run(); err != nil {
		return nil, errors.Wrap(err, "failed to run inference")
	}
	b := img.Bounds()
	return DecodeYOLO(s.output.GetData(), s.rows, s.anchors, s.inputSize, image.Point{X: b.Dx(), Y: b.Dy()}, opts)
}

// Close releases the native session and tensors.
func (s *Session) Close() error {
	if s.input != nil {
		s.input.Destroy()
		s.input = nil
	}
	if s.output != nil {
		s.output.Destroy()
		s.output = nil
	}
	if s.session != nil {
		err := s.session.Destroy()
		s.session = nil
		if err != nil {
			return errors.Wrap(err, "error destroying ORT session")
		}
	}
	return nil
}
