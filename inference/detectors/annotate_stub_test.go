//go:build !gocv

package detectors

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestAnnotateRequiresGocv(t *testing.T) {
	dir := t.TempDir()
	out := Output{Dir: dir, SaveJSON: true, Annotate: true}

	written, err := out.Write("images/street.jpg", sampleDetections)
	assert.ErrorIs(t, err, ErrAnnotationUnavailable)
	// The detection file is written before annotation is attempted.
	assert.Equal(t, []string{filepath.Join(dir, "street_detection.json")}, written)
}
