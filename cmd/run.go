package cmd

import (
	"log/slog"

	"github.com/spf13/cobra"

	"github.com/nvr-ai/detbench/benchmark"
	"github.com/nvr-ai/detbench/envconfig"
	"github.com/nvr-ai/detbench/inference"
	"github.com/nvr-ai/detbench/inference/detectors"
	"github.com/nvr-ai/detbench/inference/providers"
)

func newRunCmd() *cobra.Command {
	runCmd := &cobra.Command{
		Use:   "run",
		Short: "Benchmark every model against every image",
		Args:  cobra.NoArgs,
		RunE:  RunHandler,
	}

	runCmd.Flags().String("config", "", "Path to a YAML or JSON configuration file")
	runCmd.Flags().String("models", "", "Directory containing model files")
	runCmd.Flags().String("images", "", "Directory containing images")
	runCmd.Flags().String("output", "", "Directory the result exports are written to")
	runCmd.Flags().Int("concurrency", 1, "Number of models benchmarked at once")
	runCmd.Flags().Float32("conf", 0.25, "Confidence threshold")
	runCmd.Flags().Float32("nms", 0.7, "NMS IoU threshold")
	runCmd.Flags().String("classes", "", "Filter by class ids, comma separated")
	runCmd.Flags().String("labels", "", "Label file with one class name per line")
	runCmd.Flags().String("lib", "", "Path to the onnxruntime shared library")
	runCmd.Flags().String("provider", "cpu", "Execution provider (cpu, cuda, coreml, openvino)")
	runCmd.Flags().Int("threads", 0, "Intra-op threads per model, 0 uses the runtime default")

	return runCmd
}

// RunHandler runs the benchmark and writes the exports.
func RunHandler(cmd *cobra.Command, args []string) error {
	config, err := buildConfig(cmd)
	if err != nil {
		return err
	}

	loader, err := detectors.NewONNXLoader(config.Detector)
	if err != nil {
		return err
	}
	defer func() {
		if err := inference.DestroyEnvironment(); err != nil {
			slog.Warn("failed to destroy onnxruntime environment", "error", err)
		}
	}()

	suite := benchmark.NewSuite(loader, *config,
		benchmark.WithOutput(cmd.OutOrStdout()),
		benchmark.WithLogger(slog.Default()),
	)
	run, err := suite.Run(cmd.Context())
	if err != nil {
		return err
	}

	_, _, err = benchmark.NewReporter(config.OutputDir, cmd.OutOrStdout(), slog.Default()).Report(run)
	return err
}

// buildConfig layers defaults, environment, the config file and flags, in
// increasing precedence.
func buildConfig(cmd *cobra.Command) (*benchmark.Config, error) {
	config := benchmark.DefaultConfig()
	applyEnv(config)
	if path, _ := cmd.Flags().GetString("config"); path != "" {
		if err := config.Merge(path); err != nil {
			return nil, err
		}
	}

	flags := cmd.Flags()
	if flags.Changed("models") {
		config.ModelsDir, _ = flags.GetString("models")
	}
	if flags.Changed("images") {
		config.ImagesDir, _ = flags.GetString("images")
	}
	if flags.Changed("output") {
		config.OutputDir, _ = flags.GetString("output")
	}
	if flags.Changed("concurrency") {
		config.Concurrency, _ = flags.GetInt("concurrency")
	}
	if flags.Changed("conf") {
		config.Detector.ConfidenceThreshold, _ = flags.GetFloat32("conf")
	}
	if flags.Changed("nms") {
		config.Detector.NMSThreshold, _ = flags.GetFloat32("nms")
	}
	if flags.Changed("classes") {
		s, _ := flags.GetString("classes")
		classes, err := detectors.ParseClasses(s)
		if err != nil {
			return nil, err
		}
		config.Detector.Classes = classes
	}
	if flags.Changed("labels") {
		config.Detector.Labels, _ = flags.GetString("labels")
	}
	if flags.Changed("lib") {
		config.Detector.SharedLibPath, _ = flags.GetString("lib")
	}
	if flags.Changed("provider") {
		s, _ := flags.GetString("provider")
		backend, err := providers.ParseBackend(s)
		if err != nil {
			return nil, err
		}
		config.Detector.Provider.Backend = backend
	}
	if flags.Changed("threads") {
		config.Detector.Provider.IntraOpThreads, _ = flags.GetInt("threads")
	}

	if err := config.Validate(); err != nil {
		return nil, err
	}
	return config, nil
}

// applyEnv fills settings from DETBENCH_* variables.
func applyEnv(config *benchmark.Config) {
	if v := envconfig.ModelsDir(); v != "" {
		config.ModelsDir = v
	}
	if v := envconfig.ImagesDir(); v != "" {
		config.ImagesDir = v
	}
	if v := envconfig.OutputDir(); v != "" {
		config.OutputDir = v
	}
	if v := envconfig.Concurrency(); v > 0 {
		config.Concurrency = v
	}
	if v := envconfig.SharedLibPath(); v != "" {
		config.Detector.SharedLibPath = v
	}
}
