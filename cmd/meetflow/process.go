package main

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"github.com/nguyentantai21042004/meeting-flow/internal/logger"
	"github.com/nguyentantai21042004/meeting-flow/internal/model"
	"github.com/nguyentantai21042004/meeting-flow/internal/pipeline"
	"github.com/nguyentantai21042004/meeting-flow/internal/report"
	"github.com/spf13/cobra"
)

var (
	processFile     string
	processLanguage string
	processReport   string
)

var processCmd = &cobra.Command{
	Use:   "process",
	Short: "Run one local recording through the pipeline",
	Long: `Run one recording through the pipeline and print the response JSON.

Example:
  meetflow process --file meeting.mp4 --language en --report out/`,
	RunE: runProcess,
}

func init() {
	rootCmd.AddCommand(processCmd)
	processCmd.Flags().StringVar(&processFile, "file", "", "Path to the recording (required)")
	processCmd.Flags().StringVar(&processLanguage, "language", "", "Spoken language (default from config)")
	processCmd.Flags().StringVar(&processReport, "report", "", "Also write JSON and DOCX reports to this directory")
	processCmd.MarkFlagRequired("file")
}

func runProcess(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	// Logs go to stderr so stdout stays valid JSON.
	log := logger.NewWithWriter(cfg.Logging.Level, os.Stderr)

	p, err := buildPipeline(cfg, log)
	if err != nil {
		return err
	}

	f, err := os.Open(processFile)
	if err != nil {
		return fmt.Errorf("open recording: %w", err)
	}
	defer f.Close()

	outcome := p.Run(cmd.Context(), model.UploadedMedia{
		Filename: filepath.Base(processFile),
		Body:     f,
	}, pipeline.Options{Language: processLanguage})
	if outcome.Failed() {
		return outcome.Err
	}

	if processReport != "" {
		paths, err := report.Write(processReport, outcome)
		if err != nil {
			return err
		}
		log.Info(cmd.Context(), "Reports written: %s, %s", paths.JSON, paths.DOCX)
	}

	enc := json.NewEncoder(cmd.OutOrStdout())
	enc.SetIndent("", "  ")
	return enc.Encode(outcome.Response())
}
