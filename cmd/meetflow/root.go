package main

import (
	"fmt"
	"os"

	"github.com/nguyentantai21042004/meeting-flow/internal/config"
	"github.com/spf13/cobra"
)

var cfgFile string

var rootCmd = &cobra.Command{
	Use:   "meetflow",
	Short: "Turn meeting recordings into transcripts, summaries and action items",
	Long: `meetflow runs uploaded meeting recordings through a fixed pipeline:

  - Store the upload
  - Extract 16kHz mono PCM audio with ffmpeg
  - Transcribe it (whisper.cpp or Gemini)
  - Summarize it and extract tasks with Gemini

Example:
  meetflow serve --config config.yaml
  meetflow process --file meeting.mp4`,
	SilenceUsage: true,
}

// Execute runs the root command and exits non-zero on error.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "config.yaml", "config file")
}

func loadConfig() (*config.Config, error) {
	cfg, err := config.Load(cfgFile)
	if err != nil {
		return nil, fmt.Errorf("load config %s: %w", cfgFile, err)
	}
	return cfg, nil
}
