//go:build !gocv

package detectors

import (
	"github.com/pkg/errors"

	"github.com/nvr-ai/detbench/inference"
)

// ErrAnnotationUnavailable is returned by Annotate in builds without the gocv tag.
var ErrAnnotationUnavailable = errors.New("gocv build tag is not enabled")

// Annotate returns ErrAnnotationUnavailable, drawing needs OpenCV.
func Annotate(src, dst string, detections []inference.Detection) error {
	return ErrAnnotationUnavailable
}
