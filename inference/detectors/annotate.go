//go:build gocv

package detectors

import (
	"fmt"
	"image"
	"image/color"

	"github.com/pkg/errors"
	"gocv.io/x/gocv"

	"github.com/nvr-ai/detbench/inference"
)

var (
	boxColor   = color.RGBA{G: 255, A: 255}
	labelColor = color.RGBA{R: 255, G: 255, B: 255, A: 255}
)

// Annotate draws each detection's box and "class confidence" label onto the
// image at src and writes the result to dst.
//
// Arguments:
//   - src: The source image path.
//   - dst: The annotated image path. The encoder is chosen from its extension.
//   - detections: The detections to draw.
//
// Returns:
//   - error: An error if the image cannot be read or written.
func Annotate(src, dst string, detections []inference.Detection) error {
	mat := gocv.IMRead(src, gocv.IMReadColor)
	if mat.Empty() {
		return errors.Errorf("failed to read image %s", src)
	}
	defer mat.Close()

	for _, d := range detections {
		rect := image.Rect(int(d.BBox.Left()), int(d.BBox.Top()), int(d.BBox.Right()), int(d.BBox.Bottom()))
		gocv.Rectangle(&mat, rect, boxColor, 2)

		label := fmt.Sprintf("%s %.2f", d.ClassName, d.Confidence)
		origin := image.Pt(rect.Min.X, rect.Min.Y-5)
		if origin.Y < 10 {
			origin.Y = rect.Min.Y + 15
		}
		gocv.PutText(&mat, label, origin, gocv.FontHersheySimplex, 0.5, labelColor, 1)
	}

	if ok := gocv.IMWrite(dst, mat); !ok {
		return errors.Errorf("failed to write annotated image %s", dst)
	}
	return nil
}
