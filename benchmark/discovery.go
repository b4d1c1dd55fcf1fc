package benchmark

import (
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/pkg/errors"
)

// DefaultModelExtensions are the packaged model formats picked up from the models directory.
var DefaultModelExtensions = []string{".pt", ".onnx", ".engine"}

// DefaultImageExtensions are the raster formats picked up from the images directory.
var DefaultImageExtensions = []string{".jpg", ".jpeg", ".png", ".bmp", ".tiff", ".webp"}

// DiscoverModels lists the model files in dir whose extension is whitelisted.
//
// Arguments:
//   - dir: The models directory, scanned non-recursively.
//   - extensions: The extension whitelist, e.g. ".onnx".
//
// Returns:
//   - []ModelArtifact: The models, sorted by file name. Empty, never nil, on error.
//   - error: A KindDiscoveryAbsent Error if dir does not exist, KindFatal if it cannot be read.
//     Callers treat KindDiscoveryAbsent as an empty set.
func DiscoverModels(dir string, extensions []string) ([]ModelArtifact, error) {
	paths, err := discover(dir, extensions)
	if err != nil {
		return []ModelArtifact{}, err
	}
	models := make([]ModelArtifact, 0, len(paths))
	for _, p := range paths {
		models = append(models, ModelArtifact{Name: filepath.Base(p), Path: p})
	}
	return models, nil
}

// DiscoverImages lists the image files in dir whose extension is whitelisted.
//
// Arguments:
//   - dir: The images directory, scanned non-recursively.
//   - extensions: The extension whitelist, e.g. ".jpg".
//
// Returns:
//   - []ImageArtifact: The images, sorted by file name. Empty, never nil, on error.
//   - error: A KindDiscoveryAbsent Error if dir does not exist, KindFatal if it cannot be read.
//     Callers treat KindDiscoveryAbsent as an empty set.
func DiscoverImages(dir string, extensions []string) ([]ImageArtifact, error) {
	paths, err := discover(dir, extensions)
	if err != nil {
		return []ImageArtifact{}, err
	}
	images := make([]ImageArtifact, 0, len(paths))
	for _, p := range paths {
		images = append(images, ImageArtifact{Name: filepath.Base(p), Path: p})
	}
	return images, nil
}

func discover(dir string, extensions []string) ([]string, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, newError(KindDiscoveryAbsent, "discover", dir, err)
		}
		return nil, newError(KindFatal, "discover", dir, err)
	}

	allowed := make(map[string]bool, len(extensions))
	for _, ext := range extensions {
		allowed[normalizeExt(ext)] = true
	}

	var paths []string
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		if !allowed[normalizeExt(filepath.Ext(entry.Name()))] {
			continue
		}
		paths = append(paths, filepath.Join(dir, entry.Name()))
	}

	sort.Slice(paths, func(i, j int) bool {
		return filepath.Base(paths[i]) < filepath.Base(paths[j])
	})
	return paths, nil
}

// normalizeExt lowercases ext and ensures a leading dot.
func normalizeExt(ext string) string {
	ext = strings.ToLower(strings.TrimSpace(ext))
	if ext != "" && !strings.HasPrefix(ext, ".") {
		ext = "." + ext
	}
	return ext
}
