package inference

import (
	"image"

	"github.com/nfnt/resize"
	"github.com/pkg/errors"
)

// PrepareInput resizes img to the model input size and writes it into dst as
// planar RGB floats in [0,1] (NCHW with N=1).
//
// Arguments:
//   - img: The image to prepare.
//   - size: The model input width and height.
//   - dst: The destination buffer, at least 3*size.X*size.Y floats.
//
// Returns:
//   - error: An error if the destination buffer is too small.
func PrepareInput(img image.Image, size image.Point, dst []float32) error {
	channelSize := size.X * size.Y
	if channelSize <= 0 {
		return errors.Errorf("invalid input size %v", size)
	}
	if len(dst) < channelSize*3 {
		return errors.Errorf("destination tensor only holds %d floats, needs "+
			"%d (make sure it's the right shape!)", len(dst), channelSize*3)
	}
	red := dst[0:channelSize]
	green := dst[channelSize : channelSize*2]
	blue := dst[channelSize*2 : channelSize*3]

	img = resize.Resize(uint(size.X), uint(size.Y), img, resize.Bilinear)
	bounds := img.Bounds()

	i := 0
	for y := 0; y < size.Y; y++ {
		for x := 0; x < size.X; x++ {
			r, g, b, _ := img.At(bounds.Min.X+x, bounds.Min.Y+y).RGBA()
			red[i] = float32(r>>8) / 255.0
			green[i] = float32(g>>8) / 255.0
			blue[i] = float32(b>>8) / 255.0
			i++
		}
	}
	return nil
}
