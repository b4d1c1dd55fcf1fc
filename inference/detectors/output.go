package detectors

import (
	"encoding/json"
	"os"
	"path/filepath"
	"strings"

	"github.com/pkg/errors"

	"github.com/nvr-ai/detbench/inference"
)

// BoundingBoxRecord is the integer pixel box written to detection files.
type BoundingBoxRecord struct {
	Left   int `json:"left"`
	Top    int `json:"top"`
	Right  int `json:"right"`
	Bottom int `json:"bottom"`
}

// DetectionRecord is one detection in the per-image detection file format.
type DetectionRecord struct {
	BoundingBox BoundingBoxRecord `json:"bounding_box"`
	Confidence  float64           `json:"confidence"`
	ClassName   string            `json:"class_name"`
	ClassID     int               `json:"class_id"`
	DetectionID string            `json:"detection_id"`
}

// DetectionFile is the document written per image and printed by the detect command.
type DetectionFile struct {
	Detections []DetectionRecord `json:"detections"`
}

// NewDetectionFile converts detections to records, truncating box coordinates to whole pixels.
func NewDetectionFile(detections []inference.Detection) DetectionFile {
	records := make([]DetectionRecord, 0, len(detections))
	for _, d := range detections {
		records = append(records, DetectionRecord{
			BoundingBox: BoundingBoxRecord{
				Left:   int(d.BBox.Left()),
				Top:    int(d.BBox.Top()),
				Right:  int(d.BBox.Right()),
				Bottom: int(d.BBox.Bottom()),
			},
			Confidence:  d.Confidence,
			ClassName:   d.ClassName,
			ClassID:     d.ClassID,
			DetectionID: d.DetectionID,
		})
	}
	return DetectionFile{Detections: records}
}

// Output writes per-image artifacts for detections.
type Output struct {
	// Dir receives the files. It is created on first write.
	Dir string
	// Annotate draws boxes onto a copy of the image.
	Annotate bool
	// SaveJSON writes <stem>_detection.json.
	SaveJSON bool
}

// Enabled reports whether Write produces anything.
func (o Output) Enabled() bool {
	return o.Dir != "" && (o.Annotate || o.SaveJSON)
}

// Write stores the configured artifacts for one image.
//
// Arguments:
//   - imagePath: The source image.
//   - detections: The detections found in it.
//
// Returns:
//   - []string: Paths of the written files.
//   - error: The first error encountered.
func (o Output) Write(imagePath string, detections []inference.Detection) ([]string, error) {
	if !o.Enabled() {
		return nil, nil
	}
	if err := os.MkdirAll(o.Dir, 0o755); err != nil {
		return nil, errors.Wrap(err, "failed to create output directory")
	}

	var written []string
	if o.SaveJSON {
		path, err := o.writeJSON(imagePath, detections)
		if err != nil {
			return written, err
		}
		written = append(written, path)
	}
	if o.Annotate {
		path := filepath.Join(o.Dir, filepath.Base(imagePath))
		if err := Annotate(imagePath, path, detections); err != nil {
			return written, err
		}
		written = append(written, path)
	}
	return written, nil
}

func (o Output) writeJSON(imagePath string, detections []inference.Detection) (string, error) {
	base := filepath.Base(imagePath)
	stem := strings.TrimSuffix(base, filepath.Ext(base))
	path := filepath.Join(o.Dir, stem+"_detection.json")

	data, err := json.MarshalIndent(NewDetectionFile(detections), "", "  ")
	if err != nil {
		return "", errors.Wrap(err, "failed to marshal detections")
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return "", errors.Wrap(err, "failed to write detection file")
	}
	return path, nil
}
