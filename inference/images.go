package inference

import (
	"image"
	_ "image/gif"
	"image/jpeg"
	"image/png"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/chai2010/webp"
	"github.com/pkg/errors"
	"golang.org/x/image/bmp"
	"golang.org/x/image/tiff"
)

// ImageFormat represents supported input image formats.
type ImageFormat string

// Decodable input formats, keyed by FormatFromPath.
const (
	FormatJPEG ImageFormat = "jpeg"
	FormatPNG  ImageFormat = "png"
	FormatBMP  ImageFormat = "bmp"
	FormatTIFF ImageFormat = "tiff"
	FormatWebP ImageFormat = "webp"
)

// FormatFromPath maps a file extension to its ImageFormat.
func FormatFromPath(path string) (ImageFormat, bool) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".jpg", ".jpeg":
		return FormatJPEG, true
	case ".png":
		return FormatPNG, true
	case ".bmp":
		return FormatBMP, true
	case ".tif", ".tiff":
		return FormatTIFF, true
	case ".webp":
		return FormatWebP, true
	default:
		return "", false
	}
}

// DecodeImage reads and decodes the image at path, picking the decoder from
// the file extension and falling back to content sniffing.
//
// Arguments:
//   - path: Path to the image file.
//
// Returns:
//   - image.Image: The decoded image.
//   - error: An error if the file cannot be opened or decoded.
func DecodeImage(path string) (image.Image, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, errors.Wrap(err, "failed to open image")
	}
	defer f.Close()

	img, err := decode(f, path)
	if err != nil {
		return nil, errors.Wrapf(err, "failed to decode image %s", filepath.Base(path))
	}
	return img, nil
}

func decode(r io.Reader, path string) (image.Image, error) {
	format, ok := FormatFromPath(path)
	if !ok {
		img, _, err := image.Decode(r)
		return img, err
	}

	switch format {
	case FormatJPEG:
		return jpeg.Decode(r)
	case FormatPNG:
		return png.Decode(r)
	case FormatBMP:
		return bmp.Decode(r)
	case FormatTIFF:
		return tiff.Decode(r)
	case FormatWebP:
		return webp.Decode(r)
	}
	return nil, errors.Errorf("unsupported image format: %s", format)
}
