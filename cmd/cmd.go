// Package cmd implements the detbench command line.
package cmd

import (
	"fmt"
	"io"
	"log/slog"

	"github.com/spf13/cobra"

	"github.com/nvr-ai/detbench/envconfig"
)

// NewCLI builds the root command with the run and detect subcommands.
func NewCLI() *cobra.Command {
	cobra.EnableCommandSorting = false

	rootCmd := &cobra.Command{
		Use:           "detbench",
		Short:         "Object detection model benchmark harness",
		SilenceUsage:  true,
		SilenceErrors: true,
		CompletionOptions: cobra.CompletionOptions{
			DisableDefaultCmd: true,
		},
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			if err := envconfig.Load(); err != nil {
				return fmt.Errorf("failed to load .env: %w", err)
			}
			verbose, _ := cmd.Flags().GetBool("verbose")
			slog.SetDefault(newLogger(cmd.ErrOrStderr(), verbose))
			return nil
		},
	}

	rootCmd.PersistentFlags().Bool("verbose", false, "Enable debug logging")

	runCmd := newRunCmd()
	detectCmd := newDetectCmd()

	envVars := envconfig.AsMap()
	appendEnvDocs(runCmd, []envconfig.EnvVar{
		envVars["DETBENCH_MODELS"],
		envVars["DETBENCH_IMAGES"],
		envVars["DETBENCH_OUTPUT"],
		envVars["DETBENCH_CONCURRENCY"],
		envVars["DETBENCH_ONNXRUNTIME_LIB"],
		envVars["DETBENCH_DEBUG"],
	})
	appendEnvDocs(detectCmd, []envconfig.EnvVar{
		envVars["DETBENCH_ONNXRUNTIME_LIB"],
		envVars["DETBENCH_DEBUG"],
	})

	rootCmd.AddCommand(runCmd, detectCmd)
	return rootCmd
}

func newLogger(w io.Writer, verbose bool) *slog.Logger {
	level := envconfig.LogLevel()
	if verbose {
		level = slog.LevelDebug
	}
	return slog.New(slog.NewTextHandler(w, &slog.HandlerOptions{Level: level}))
}

func appendEnvDocs(cmd *cobra.Command, envs []envconfig.EnvVar) {
	if len(envs) == 0 {
		return
	}

	envUsage := `
Environment Variables:
`
	for _, e := range envs {
		envUsage += fmt.Sprintf("      %-26s   %s\n", e.Name, e.Description)
	}

	cmd.SetUsageTemplate(cmd.UsageTemplate() + envUsage)
}
