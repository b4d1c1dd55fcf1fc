package inference

import (
	"fmt"
	"image"

	"github.com/chewxy/math32"
)

// BoundingBox is a scored candidate box in source image pixels.
type BoundingBox struct {
	ClassID        int
	Confidence     float32
	X1, Y1, X2, Y2 float32
}

func (b *BoundingBox) String() string {
	return fmt.Sprintf("Object %d (confidence %f): (%f, %f), (%f, %f)",
		b.ClassID, b.Confidence, b.X1, b.Y1, b.X2, b.Y2)
}

// ToRect converts the box to an image.Rectangle. Fractional pixels at the
// edges are truncated.
func (b *BoundingBox) ToRect() image.Rectangle {
	return image.Rect(int(b.X1), int(b.Y1), int(b.X2), int(b.Y2)).Canon()
}

// Area returns the box area, zero for degenerate boxes.
func (b *BoundingBox) Area() float32 {
	return math32.Max(0, b.X2-b.X1) * math32.Max(0, b.Y2-b.Y1)
}

// Intersection returns the overlapping area of b and other.
func (b *BoundingBox) Intersection(other *BoundingBox) float32 {
	w := math32.Min(b.X2, other.X2) - math32.Max(b.X1, other.X1)
	h := math32.Min(b.Y2, other.Y2) - math32.Max(b.Y1, other.Y1)
	if w <= 0 || h <= 0 {
		return 0
	}
	return w * h
}

// Union returns the combined area of b and other.
func (b *BoundingBox) Union(other *BoundingBox) float32 {
	return b.Area() + other.Area() - b.Intersection(other)
}

// IoU calculates the Intersection over Union between two bounding boxes.
//
// Arguments:
//   - other: The other bounding box.
//
// Returns:
//   - The IoU value between 0 and 1, 0 when both boxes are empty.
func (b *BoundingBox) IoU(other *BoundingBox) float32 {
	union := b.Union(other)
	if union <= 0 {
		return 0
	}
	return b.Intersection(other) / union
}

// Raw converts the box into a RawDetection.
func (b *BoundingBox) Raw() RawDetection {
	return NewRawDetection(b.ClassID, b.Confidence, [4]float32{b.X1, b.Y1, b.X2, b.Y2})
}
