package benchmark

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/pkg/errors"
	"gorgonia.org/tensor"

	"github.com/nvr-ai/detbench/inference"
)

// RunInference runs det on one image and records timing and detections.
//
// Failures never escape: an adapter error, a panic or an output that cannot
// be normalized all yield a failed ImageResult carrying the error message and
// the time elapsed up to the failure.
//
// Arguments:
//   - ctx: Passed through to the detector.
//   - det: The loaded detector.
//   - img: The image to run.
//
// Returns:
//   - ImageResult: The outcome.
func RunInference(ctx context.Context, det inference.Detector, img ImageArtifact) ImageResult {
	start := time.Now()
	detections, err := infer(ctx, det, img)
	elapsed := time.Since(start).Seconds()

	if err != nil {
		msg := "unknown error"
		var herr *Error
		if errors.As(err, &herr) && herr.Err != nil && herr.Err.Error() != "" {
			msg = herr.Err.Error()
		}
		return ImageResult{
			ImageName:     img.Name,
			ImagePath:     img.Path,
			Success:       false,
			InferenceTime: elapsed,
			Detections:    []inference.Detection{},
			Error:         msg,
		}
	}

	res := ImageResult{
		ImageName:     img.Name,
		ImagePath:     img.Path,
		Success:       true,
		InferenceTime: elapsed,
		NumDetections: len(detections),
		Detections:    detections,
	}
	if res.NumDetections > 0 {
		res.AverageConfidence = res.ConfidenceSum() / float64(res.NumDetections)
	}
	return res
}

func infer(ctx context.Context, det inference.Detector, img ImageArtifact) (detections []inference.Detection, err error) {
	defer func() {
		if r := recover(); r != nil {
			detections = nil
			err = newError(KindInference, "infer", img.Path, fmt.Errorf("detector panicked: %v", r))
		}
	}()

	raw, err := det.Infer(ctx, img.Path)
	if err != nil {
		return nil, newError(KindInference, "infer", img.Path, err)
	}

	detections = make([]inference.Detection, 0, len(raw))
	for i, r := range raw {
		d, err := normalize(det, r)
		if err != nil {
			return nil, newError(KindInference, "infer", img.Path, errors.Wrapf(err, "detection %d", i))
		}
		detections = append(detections, d)
	}
	return detections, nil
}

// normalize converts a backend detection into portable scalars. This is the
// only place backend numeric types are read.
func normalize(det inference.Detector, raw inference.RawDetection) (inference.Detection, error) {
	box, err := boxScalars(raw.Box)
	if err != nil {
		return inference.Detection{}, err
	}
	classID := int(raw.ClassID)
	return inference.Detection{
		ClassID:     classID,
		ClassName:   det.ClassName(classID),
		Confidence:  float64(raw.Confidence),
		BBox:        inference.BBox(box),
		DetectionID: uuid.NewString(),
	}, nil
}

// boxScalars reads a four element box tensor of any numeric dtype. Views
// are materialized first so strided columns of a larger output are read
// element by element rather than from their backing buffer.
func boxScalars(box tensor.Tensor) ([4]float64, error) {
	var out [4]float64
	if box == nil {
		return out, errors.New("bounding box tensor is nil")
	}
	if n := box.Shape().TotalSize(); n != 4 {
		return out, errors.Errorf("bounding box tensor has %d elements, want 4", n)
	}

	switch data := tensor.Materialize(box).Data().(type) {
	case []float32:
		return toBox(data)
	case []float64:
		return toBox(data)
	case []int:
		return toBox(data)
	case []int32:
		return toBox(data)
	case []int64:
		return toBox(data)
	default:
		return out, errors.Errorf("unsupported bounding box dtype %v", box.Dtype())
	}
}

func toBox[T float32 | float64 | int | int32 | int64](data []T) ([4]float64, error) {
	var out [4]float64
	if len(data) != len(out) {
		return out, errors.Errorf("bounding box tensor holds %d elements, want 4", len(data))
	}
	for i, v := range data {
		out[i] = float64(v)
	}
	return out, nil
}
