package inference

// BBox is a bounding box as left, top, right, bottom in source image pixels.
// It serializes as a four-element array.
type BBox [4]float64

// Left returns the left edge.
func (b BBox) Left() float64 { return b[0] }

// Top returns the top edge.
func (b BBox) Top() float64 { return b[1] }

// Right returns the right edge.
func (b BBox) Right() float64 { return b[2] }

// Bottom returns the bottom edge.
func (b BBox) Bottom() float64 { return b[3] }

// Detection is one predicted object instance with portable scalar fields.
type Detection struct {
	ClassID     int     `json:"class_id"`
	ClassName   string  `json:"class_name"`
	Confidence  float64 `json:"confidence"`
	BBox        BBox    `json:"bbox"`
	DetectionID string  `json:"detection_id"`
}

// ConfidenceSum returns the sum of detection confidences.
func ConfidenceSum(detections []Detection) float64 {
	var sum float64
	for _, d := range detections {
		sum += d.Confidence
	}
	return sum
}
