package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"light-chat/utils"
)

var (
	version = "0.1.0"

	configPath string
)

var rootCmd = &cobra.Command{
	Use:           "light-chat",
	Short:         "Minimal chat client with a local conversation store",
	SilenceUsage:  true,
	SilenceErrors: true,
}

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Show version information",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Printf("light-chat v%s\n", version)
	},
}

func init() {
	rootCmd.PersistentFlags().StringVar(&configPath, "config", "", "Path to configuration file")
	rootCmd.AddCommand(versionCmd, serveCmd, chatCmd)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

// loadRuntime reads .env files and the config, then builds the logger from it.
// The chat shell passes fileOnly so log lines don't interleave with the transcript.
func loadRuntime(fileOnly bool) (*utils.Config, *utils.Logger, error) {
	if err := utils.LoadEnvFiles(".env", ".env.local"); err != nil {
		return nil, nil, err
	}

	path := configPath
	if path == "" {
		var err error
		path, err = utils.EnsureDefaultConfig()
		if err != nil {
			return nil, nil, fmt.Errorf("failed to create default config: %w", err)
		}
	}

	config, err := utils.LoadConfig(path)
	if err != nil {
		return nil, nil, err
	}

	logPath := config.Log.Path
	if logPath == "" {
		logPath = utils.GetLogPath()
	}
	logger, err := utils.NewLoggerWithOptions(logPath, utils.LogOptions{
		Level:    config.Log.Level,
		Format:   config.Log.Format,
		FileOnly: fileOnly,
	})
	if err != nil {
		return nil, nil, fmt.Errorf("failed to initialize logger: %w", err)
	}

	logger.Info("Using config file: %s", path)
	return config, logger, nil
}
