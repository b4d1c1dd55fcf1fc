package inference

import (
	"bufio"
	"os"
	"strings"

	"github.com/pkg/errors"
)

// UnknownClass is returned for class indices outside a label set.
const UnknownClass = "unknown"

// ClassSet maps model class indices to human-readable labels.
type ClassSet struct {
	// Name identifies the label set.
	Name string
	// Labels is indexed by class id.
	Labels []string
	// nameToIdx for fast lookup by name
	nameToIdx map[string]int
}

// NewClassSet builds a label set and its reverse index.
func NewClassSet(name string, labels []string) *ClassSet {
	s := &ClassSet{Name: name, Labels: labels}
	s.nameToIdx = make(map[string]int, len(labels))
	for i, l := range labels {
		s.nameToIdx[l] = i
	}
	return s
}

// LoadClassSet reads a label file with one class name per line. Blank lines
// are skipped so trailing newlines do not shift indices.
//
// Arguments:
//   - path: Path to the label file.
//
// Returns:
//   - *ClassSet: The label set named after the file.
//   - error: An error if the file cannot be read or holds no labels.
func LoadClassSet(path string) (*ClassSet, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, errors.Wrap(err, "failed to open label file")
	}
	defer f.Close()

	var labels []string
	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}
		labels = append(labels, line)
	}
	if err := scanner.Err(); err != nil {
		return nil, errors.Wrap(err, "failed to read label file")
	}
	if len(labels) == 0 {
		return nil, errors.Errorf("label file %s holds no labels", path)
	}
	return NewClassSet(path, labels), nil
}

// NameOf returns the label for idx, or UnknownClass when idx is out of range.
func (s *ClassSet) NameOf(idx int) string {
	if idx < 0 || idx >= len(s.Labels) {
		return UnknownClass
	}
	return s.Labels[idx]
}

// IndexOf returns the class index for name.
func (s *ClassSet) IndexOf(name string) (int, bool) {
	idx, ok := s.nameToIdx[name]
	return idx, ok
}

// Len returns the number of classes.
func (s *ClassSet) Len() int {
	return len(s.Labels)
}

// COCOClasses is the 80-class COCO label set in the zero-based order YOLO
// detection heads use.
var COCOClasses = NewClassSet("coco", []string{
	"person", "bicycle", "car", "motorcycle", "airplane", "bus", "train", "truck", "boat",
	"traffic light", "fire hydrant", "stop sign", "parking meter", "bench", "bird", "cat", "dog", "horse",
	"sheep", "cow", "elephant", "bear", "zebra", "giraffe", "backpack", "umbrella", "handbag", "tie",
	"suitcase", "frisbee", "skis", "snowboard", "sports ball", "kite", "baseball bat", "baseball glove",
	"skateboard", "surfboard", "tennis racket", "bottle", "wine glass", "cup", "fork", "knife", "spoon",
	"bowl", "banana", "apple", "sandwich", "orange", "broccoli", "carrot", "hot dog", "pizza", "donut",
	"cake", "chair", "couch", "potted plant", "bed", "dining table", "toilet", "tv", "laptop", "mouse",
	"remote", "keyboard", "cell phone", "microwave", "oven", "toaster", "sink", "refrigerator", "book",
	"clock", "vase", "scissors", "teddy bear", "hair drier", "toothbrush",
})
