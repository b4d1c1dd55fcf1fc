package benchmark

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/nvr-ai/detbench/inference"
)

// Suite discovers models and images and benchmarks every model against every image.
type Suite struct {
	loader inference.Loader
	config Config
	out    io.Writer
	log    *slog.Logger
	now    func() time.Time
}

// Option configures a Suite.
type Option func(*Suite)

// WithOutput sets the writer for progress lines. Defaults to io.Discard.
func WithOutput(w io.Writer) Option {
	return func(s *Suite) {
		s.out = w
	}
}

// WithLogger sets the diagnostic logger. Defaults to slog.Default().
func WithLogger(l *slog.Logger) Option {
	return func(s *Suite) {
		s.log = l
	}
}

// WithClock sets the clock used to stamp runs.
func WithClock(now func() time.Time) Option {
	return func(s *Suite) {
		s.now = now
	}
}

// NewSuite creates a new benchmark suite.
//
// Arguments:
//   - loader: Instantiates a detector per model artifact.
//   - config: Directories, whitelists and concurrency.
//   - opts: Optional output, logger and clock.
//
// Returns:
//   - *Suite: The benchmark suite.
func NewSuite(loader inference.Loader, config Config, opts ...Option) *Suite {
	s := &Suite{
		loader: loader,
		config: config,
		out:    io.Discard,
		log:    slog.Default(),
		now:    time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	s.out = &lockedWriter{w: s.out}
	return s
}

// Run discovers artifacts and benchmarks each model in discovery order.
//
// Missing directories and empty input sets end the run early with zero
// results and no error. Model load failures skip that model. Inference
// failures are recorded per image. Cancelling ctx stops the run between
// models or images; nothing is recorded for the interrupted work.
//
// Arguments:
//   - ctx: Checked between models and between images.
//
// Returns:
//   - *Run: The results, in model discovery order.
//   - error: A KindFatal Error if a directory exists but cannot be read or
//     ctx was cancelled.
func (s *Suite) Run(ctx context.Context) (*Run, error) {
	run := &Run{
		Timestamp:    s.now(),
		ModelResults: []ModelResult{},
	}

	fmt.Fprintln(s.out, "Starting YOLO Model Benchmark")
	fmt.Fprintln(s.out, separator)

	models, err := s.discoverModels()
	if err != nil {
		return run, err
	}
	if len(models) == 0 {
		s.log.Warn("no models found for benchmarking", "dir", s.config.ModelsDir)
		fmt.Fprintln(s.out, "No models found for benchmarking!")
		return run, nil
	}

	images, err := s.discoverImages()
	if err != nil {
		return run, err
	}
	if len(images) == 0 {
		s.log.Warn("no images found for benchmarking", "dir", s.config.ImagesDir)
		fmt.Fprintln(s.out, "No images found for benchmarking!")
		return run, nil
	}

	fmt.Fprintf(s.out, "Found %d models and %d images\n", len(models), len(images))

	start := time.Now()
	results := s.benchmarkModels(ctx, models, images)
	run.TotalBenchmarkTime = time.Since(start).Seconds()

	if err := ctx.Err(); err != nil {
		s.log.Warn("benchmark interrupted", "error", err)
		return run, newError(KindFatal, "run", "", err)
	}

	for _, r := range results {
		if r != nil {
			run.ModelResults = append(run.ModelResults, *r)
		}
	}
	return run, nil
}

// benchmarkModels returns one slot per model, nil for skipped models. Slots
// are filled by discovery index so order never depends on completion timing.
func (s *Suite) benchmarkModels(ctx context.Context, models []ModelArtifact, images []ImageArtifact) []*ModelResult {
	results := make([]*ModelResult, len(models))

	if s.config.Concurrency <= 1 {
		for i, m := range models {
			results[i], _ = s.BenchmarkModel(ctx, m, images)
		}
		return results
	}

	var g errgroup.Group
	g.SetLimit(s.config.Concurrency)
	for i, m := range models {
		i, m := i, m
		g.Go(func() error {
			results[i], _ = s.BenchmarkModel(ctx, m, images)
			return nil
		})
	}
	_ = g.Wait()
	return results
}

// BenchmarkModel loads model and runs it against every image in order.
//
// Arguments:
//   - ctx: Checked before loading and before each image.
//   - model: The model artifact.
//   - images: The image artifacts, in discovery order.
//
// Returns:
//   - *ModelResult: The aggregated result, nil when the model was skipped.
//   - error: KindModelLoad if loading failed, KindEmptyInput if images is empty,
//     KindFatal if ctx was cancelled.
func (s *Suite) BenchmarkModel(ctx context.Context, model ModelArtifact, images []ImageArtifact) (*ModelResult, error) {
	if err := ctx.Err(); err != nil {
		return nil, newError(KindFatal, "benchmark", model.Path, err)
	}
	fmt.Fprintf(s.out, "\nBenchmarking model: %s\n", model.Name)

	loadStart := time.Now()
	det, err := s.loader.Load(ctx, model.Path)
	loadTime := time.Since(loadStart).Seconds()
	if err != nil {
		herr := newError(KindModelLoad, "load", model.Path, err)
		s.log.Error("failed to load model", "model", model.Name, "error", err)
		fmt.Fprintf(s.out, "Failed to load model %s: %v\n", model.Name, err)
		return nil, herr
	}
	defer func() {
		if err := det.Close(); err != nil {
			s.log.Warn("failed to release model", "model", model.Name, "error", err)
		}
	}()
	fmt.Fprintf(s.out, "Model loaded in %.3fs\n", loadTime)

	if len(images) == 0 {
		s.log.Warn("no images found for benchmarking", "model", model.Name)
		fmt.Fprintln(s.out, "No images found for benchmarking!")
		return nil, newError(KindEmptyInput, "benchmark", model.Path, nil)
	}

	result := newModelResult(model, loadTime, len(images))
	for i, img := range images {
		if err := ctx.Err(); err != nil {
			return nil, newError(KindFatal, "benchmark", model.Path, err)
		}
		fmt.Fprintf(s.out, "[%s] Processing image %d/%d: %s\n", model.Name, i+1, len(images), img.Name)

		res := RunInference(ctx, det, img)
		if !res.Success {
			s.log.Debug("inference failed", "model", model.Name, "image", img.Name, "error", res.Error)
		}
		result.add(res)
	}
	result.finalize()

	fmt.Fprintf(s.out, "Completed benchmarking %s\n", model.Name)
	fmt.Fprintf(s.out, "Success rate: %d/%d\n", result.SuccessfulInferences, result.TotalImages)
	fmt.Fprintf(s.out, "Average inference time: %.3fs\n", result.AverageInferenceTime)
	fmt.Fprintf(s.out, "Total detections: %d\n", result.TotalDetections)
	fmt.Fprintf(s.out, "Average confidence: %.3f\n", result.AverageConfidence)

	return result, nil
}

func (s *Suite) discoverModels() ([]ModelArtifact, error) {
	models, err := DiscoverModels(s.config.ModelsDir, s.config.ModelExtensions)
	if IsKind(err, KindDiscoveryAbsent) {
		s.log.Warn("models directory not found", "dir", s.config.ModelsDir)
		fmt.Fprintf(s.out, "Models directory '%s' not found!\n", s.config.ModelsDir)
		return nil, nil
	}
	return models, err
}

func (s *Suite) discoverImages() ([]ImageArtifact, error) {
	images, err := DiscoverImages(s.config.ImagesDir, s.config.ImageExtensions)
	if IsKind(err, KindDiscoveryAbsent) {
		s.log.Warn("images directory not found", "dir", s.config.ImagesDir)
		fmt.Fprintf(s.out, "Images directory '%s' not found!\n", s.config.ImagesDir)
		return nil, nil
	}
	return images, err
}

const separator = "=================================================="

// lockedWriter serializes progress lines from concurrently benchmarked models.
type lockedWriter struct {
	mu sync.Mutex
	w  io.Writer
}

func (l *lockedWriter) Write(p []byte) (int, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.w.Write(p)
}
