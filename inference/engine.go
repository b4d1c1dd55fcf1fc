// Package inference - Detector adapter boundary and the numeric plumbing shared by adapters.
package inference

import (
	"context"

	"gorgonia.org/tensor"
)

// RawDetection is one predicted instance as the backend produced it.
//
// The fields keep the backend's native numeric representation: YOLO heads emit
// float32 class indices and scores, and the box is a 4-element tensor view over
// the decoded output buffer. Callers must convert these to portable scalars
// before they leave the adapter boundary.
type RawDetection struct {
	// ClassID is the predicted class index as emitted by the model.
	ClassID float32
	// Confidence is the class score in [0,1].
	Confidence float32
	// Box holds left, top, right, bottom in source image pixels.
	Box tensor.Tensor
}

// NewRawDetection builds a RawDetection with a float32 box tensor.
//
// Arguments:
//   - classID: The class index.
//   - confidence: The confidence score.
//   - box: The left, top, right, bottom coordinates.
//
// Returns:
//   - RawDetection: The detection.
func NewRawDetection(classID int, confidence float32, box [4]float32) RawDetection {
	backing := []float32{box[0], box[1], box[2], box[3]}
	return RawDetection{
		ClassID:    float32(classID),
		Confidence: confidence,
		Box:        tensor.New(tensor.WithShape(4), tensor.WithBacking(backing)),
	}
}

// Detector runs a loaded model against images.
type Detector interface {
	// Infer runs the model on the image at imagePath.
	Infer(ctx context.Context, imagePath string) ([]RawDetection, error)
	// ClassName resolves a class index to its label.
	ClassName(classID int) string
	// Close releases the model.
	Close() error
}

// Loader instantiates detectors from model artifacts.
type Loader interface {
	Load(ctx context.Context, modelPath string) (Detector, error)
}

// LoaderFunc adapts a function to the Loader interface.
type LoaderFunc func(ctx context.Context, modelPath string) (Detector, error)

// Load calls f.
func (f LoaderFunc) Load(ctx context.Context, modelPath string) (Detector, error) {
	return f(ctx, modelPath)
}
