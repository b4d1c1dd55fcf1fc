package inference

import (
	"image"
	"sort"

	"github.com/pkg/errors"
)

// DecodeOptions controls YOLO output decoding.
type DecodeOptions struct {
	// ConfidenceThreshold drops candidates scoring below it.
	ConfidenceThreshold float32
	// IoUThreshold is the NMS overlap above which lower scored boxes are suppressed.
	IoUThreshold float32
	// Classes restricts output to these class ids. Empty keeps every class.
	Classes []int
	// ClassAware limits suppression to boxes of the same class.
	ClassAware bool
}

// DecodeYOLO turns a YOLOv8-style output tensor of shape 1x(4+C)xN into boxes
// scaled to the source image, filtered and suppressed.
//
// Arguments:
//   - output: The raw output buffer, row-major.
//   - rows: 4 plus the number of classes.
//   - anchors: The number of candidate boxes N.
//   - input: The model input size the boxes are expressed in.
//   - original: The source image size to scale boxes to.
//   - opts: Thresholds and class filter.
//
// Returns:
//   - []BoundingBox: Boxes sorted by descending confidence.
//   - error: An error if the buffer does not match the shape.
func DecodeYOLO(output []float32, rows, anchors int, input, original image.Point, opts DecodeOptions) ([]BoundingBox, error) {
	if rows <= 4 || anchors <= 0 {
		return nil, errors.Errorf("invalid output shape [%d %d]", rows, anchors)
	}
	if len(output) < rows*anchors {
		return nil, errors.Errorf("output holds %d floats, shape needs %d", len(output), rows*anchors)
	}
	if input.X <= 0 || input.Y <= 0 {
		return nil, errors.Errorf("invalid input size %v", input)
	}

	var allowed map[int]bool
	if len(opts.Classes) > 0 {
		allowed = make(map[int]bool, len(opts.Classes))
		for _, c := range opts.Classes {
			allowed[c] = true
		}
	}

	sx := float32(original.X) / float32(input.X)
	sy := float32(original.Y) / float32(input.Y)

	boxes := make([]BoundingBox, 0, 64)
	for idx := 0; idx < anchors; idx++ {
		classID := -1
		probability := float32(-1e9)
		for col := 0; col < rows-4; col++ {
			p := output[anchors*(col+4)+idx]
			if p > probability {
				probability = p
				classID = col
			}
		}
		if probability < opts.ConfidenceThreshold {
			continue
		}
		if allowed != nil && !allowed[classID] {
			continue
		}

		xc, yc := output[idx], output[anchors+idx]
		w, h := output[2*anchors+idx], output[3*anchors+idx]
		boxes = append(boxes, BoundingBox{
			ClassID:    classID,
			Confidence: probability,
			X1:         (xc - w/2) * sx,
			Y1:         (yc - h/2) * sy,
			X2:         (xc + w/2) * sx,
			Y2:         (yc + h/2) * sy,
		})
	}

	sort.SliceStable(boxes, func(i, j int) bool {
		return boxes[i].Confidence > boxes[j].Confidence
	})
	return ApplyNMS(boxes, opts.IoUThreshold, opts.ClassAware), nil
}

// ApplyNMS performs greedy Non-Maximum Suppression.
//
// Arguments:
//   - boxes: Boxes sorted by descending confidence.
//   - iouThreshold: IoU above which overlapping boxes are suppressed.
//   - classAware: Suppress only within the same class.
//
// Returns:
//   - The kept boxes, still sorted by confidence.
func ApplyNMS(boxes []BoundingBox, iouThreshold float32, classAware bool) []BoundingBox {
	n := len(boxes)
	if n == 0 {
		return nil
	}

	kept := make([]BoundingBox, 0, n)
	used := make([]bool, n)
	for i := 0; i < n; i++ {
		if used[i] {
			continue
		}
		anchor := boxes[i]
		kept = append(kept, anchor)
		used[i] = true

		for j := i + 1; j < n; j++ {
			if used[j] {
				continue
			}
			if classAware && boxes[j].ClassID != anchor.ClassID {
				continue
			}
			if anchor.IoU(&boxes[j]) > iouThreshold {
				used[j] = true
			}
		}
	}
	return kept
}
