package cmd

import (
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/nvr-ai/detbench/benchmark"
	"github.com/nvr-ai/detbench/envconfig"
	"github.com/nvr-ai/detbench/inference"
	"github.com/nvr-ai/detbench/inference/detectors"
	"github.com/nvr-ai/detbench/inference/providers"
)

// defaultAnnotationDir receives annotated images when --output is not set.
const defaultAnnotationDir = "output"

func newDetectCmd() *cobra.Command {
	detectCmd := &cobra.Command{
		Use:   "detect",
		Short: "Run one model on one image and print the detections as JSON",
		Args:  cobra.NoArgs,
		RunE:  DetectHandler,
	}

	detectCmd.Flags().String("model", "models/yolov8n.onnx", "Model path")
	detectCmd.Flags().String("image", "", "Image path")
	detectCmd.Flags().Float32("conf", 0.25, "Confidence threshold")
	detectCmd.Flags().Float32("nms", 0.7, "NMS IoU threshold")
	detectCmd.Flags().String("classes", "", "Filter by class ids, comma separated")
	detectCmd.Flags().String("labels", "", "Label file with one class name per line")
	detectCmd.Flags().String("output", "", "Directory for annotated images and detection files")
	detectCmd.Flags().Bool("no-draw", false, "Skip drawing on images, only output JSON")
	detectCmd.Flags().Bool("json", false, "Save <image>_detection.json into the output directory")
	detectCmd.Flags().Bool("test", false, "Only test that the model loads")
	detectCmd.Flags().String("lib", "", "Path to the onnxruntime shared library")
	detectCmd.Flags().String("provider", "cpu", "Execution provider (cpu, cuda, coreml, openvino)")

	return detectCmd
}

// DetectHandler loads a model, runs it on one image and prints the result.
func DetectHandler(cmd *cobra.Command, args []string) error {
	config, err := detectorConfig(cmd)
	if err != nil {
		return err
	}
	loader, err := detectors.NewONNXLoader(config)
	if err != nil {
		return err
	}
	defer func() {
		if err := inference.DestroyEnvironment(); err != nil {
			slog.Warn("failed to destroy onnxruntime environment", "error", err)
		}
	}()

	return detect(cmd, loader)
}

func detect(cmd *cobra.Command, loader inference.Loader) error {
	flags := cmd.Flags()
	modelPath, _ := flags.GetString("model")
	imagePath, _ := flags.GetString("image")
	testOnly, _ := flags.GetBool("test")

	det, err := loader.Load(cmd.Context(), modelPath)
	if err != nil {
		return fmt.Errorf("error loading model: %w", err)
	}
	defer det.Close()

	if testOnly {
		fmt.Fprintln(cmd.OutOrStdout(), "Model loaded successfully")
		return nil
	}
	if imagePath == "" {
		return errors.New("--image is required")
	}

	res := benchmark.RunInference(cmd.Context(), det, benchmark.ImageArtifact{
		Name: filepath.Base(imagePath),
		Path: imagePath,
	})
	if !res.Success {
		return errors.New(res.Error)
	}
	slog.Debug("detection complete", "image", res.ImageName, "detections", res.NumDetections, "seconds", res.InferenceTime)

	out := detectOutput(cmd)
	written, err := out.Write(imagePath, res.Detections)
	for _, path := range written {
		slog.Debug("saved detection output", "path", path)
	}
	if err != nil {
		// Outputs are a side channel; the detections are still printed.
		slog.Warn("failed to save detection output", "image", imagePath, "error", err)
	}

	data, err := json.Marshal(detectors.NewDetectionFile(res.Detections))
	if err != nil {
		return err
	}
	fmt.Fprintln(cmd.OutOrStdout(), string(data))
	return nil
}

// detectOutput mirrors the output layout of the detect command: annotated
// images go to --output or ./output, detection files only to an explicit --output.
func detectOutput(cmd *cobra.Command) detectors.Output {
	flags := cmd.Flags()
	dir, _ := flags.GetString("output")
	noDraw, _ := flags.GetBool("no-draw")
	saveJSON, _ := flags.GetBool("json")

	out := detectors.Output{
		Dir:      dir,
		Annotate: !noDraw,
		SaveJSON: saveJSON && dir != "",
	}
	if out.Dir == "" {
		out.Dir = defaultAnnotationDir
	}
	return out
}

func detectorConfig(cmd *cobra.Command) (detectors.Config, error) {
	flags := cmd.Flags()
	config := detectors.DefaultConfig()
	config.SharedLibPath = envconfig.SharedLibPath()

	config.ConfidenceThreshold, _ = flags.GetFloat32("conf")
	config.NMSThreshold, _ = flags.GetFloat32("nms")
	config.Labels, _ = flags.GetString("labels")
	if flags.Changed("lib") {
		config.SharedLibPath, _ = flags.GetString("lib")
	}

	s, _ := flags.GetString("classes")
	classes, err := detectors.ParseClasses(s)
	if err != nil {
		return config, err
	}
	config.Classes = classes

	s, _ = flags.GetString("provider")
	backend, err := providers.ParseBackend(s)
	if err != nil {
		return config, err
	}
	config.Provider.Backend = backend

	return config, config.Validate()
}
