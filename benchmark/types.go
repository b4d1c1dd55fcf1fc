// Package benchmark - Functionality for running benchmarks.
package benchmark

import (
	"time"

	"github.com/nvr-ai/detbench/inference"
)

// ModelArtifact identifies one model file to benchmark.
type ModelArtifact struct {
	Name string `json:"model_name"`
	Path string `json:"model_path"`
}

// ImageArtifact identifies one input image.
type ImageArtifact struct {
	Name string `json:"image_name"`
	Path string `json:"image_path"`
}

// ImageResult is the outcome of running one model on one image.
type ImageResult struct {
	ImageName         string                `json:"image_name"`
	ImagePath         string                `json:"image_path"`
	Success           bool                  `json:"success"`
	InferenceTime     float64               `json:"inference_time"`
	NumDetections     int                   `json:"num_detections"`
	Detections        []inference.Detection `json:"detections"`
	AverageConfidence float64               `json:"average_confidence"`
	Error             string                `json:"error,omitempty"`
}

// ConfidenceSum returns the summed confidence of the image's detections.
func (r ImageResult) ConfidenceSum() float64 {
	return inference.ConfidenceSum(r.Detections)
}

// ModelResult is the outcome of running one model against the full image set.
//
// TotalConfidenceSum is kept raw so the model average is weighted by
// detection count: AverageConfidence = TotalConfidenceSum / TotalDetections.
type ModelResult struct {
	ModelName            string        `json:"model_name"`
	ModelPath            string        `json:"model_path"`
	ModelLoadTime        float64       `json:"model_load_time"`
	TotalImages          int           `json:"total_images"`
	SuccessfulInferences int           `json:"successful_inferences"`
	FailedInferences     int           `json:"failed_inferences"`
	TotalInferenceTime   float64       `json:"total_inference_time"`
	AverageInferenceTime float64       `json:"average_inference_time"`
	TotalDetections      int           `json:"total_detections"`
	TotalConfidenceSum   float64       `json:"total_confidence_sum"`
	AverageConfidence    float64       `json:"average_confidence"`
	ImageResults         []ImageResult `json:"image_results"`
}

func newModelResult(model ModelArtifact, loadTime float64, totalImages int) *ModelResult {
	return &ModelResult{
		ModelName:     model.Name,
		ModelPath:     model.Path,
		ModelLoadTime: loadTime,
		TotalImages:   totalImages,
		ImageResults:  make([]ImageResult, 0, totalImages),
	}
}

// add folds one image outcome into the running sums.
func (r *ModelResult) add(res ImageResult) {
	if res.Success {
		r.SuccessfulInferences++
		r.TotalDetections += res.NumDetections
		r.TotalConfidenceSum += res.ConfidenceSum()
	} else {
		r.FailedInferences++
	}
	r.TotalInferenceTime += res.InferenceTime
	r.ImageResults = append(r.ImageResults, res)
}

// finalize computes the derived averages. Both are 0 when their divisor is 0.
func (r *ModelResult) finalize() {
	r.AverageInferenceTime = 0
	if r.TotalImages > 0 {
		r.AverageInferenceTime = r.TotalInferenceTime / float64(r.TotalImages)
	}
	r.AverageConfidence = 0
	if r.TotalDetections > 0 {
		r.AverageConfidence = r.TotalConfidenceSum / float64(r.TotalDetections)
	}
}

// SuccessRate returns successful inferences as a percentage of total images.
func (r *ModelResult) SuccessRate() float64 {
	if r.TotalImages == 0 {
		return 0
	}
	return float64(r.SuccessfulInferences) / float64(r.TotalImages) * 100
}

// AverageDetectionsPerImage returns total detections over total images.
func (r *ModelResult) AverageDetectionsPerImage() float64 {
	if r.TotalImages == 0 {
		return 0
	}
	return float64(r.TotalDetections) / float64(r.TotalImages)
}

// Run is every ModelResult of one harness invocation.
type Run struct {
	Timestamp          time.Time     `json:"timestamp"`
	TotalBenchmarkTime float64       `json:"total_benchmark_time"`
	ModelResults       []ModelResult `json:"model_results"`
}
