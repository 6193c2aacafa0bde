package main

import (
	"context"
	"fmt"
	"path/filepath"

	"github.com/nguyentantai21042004/meeting-flow/internal/config"
	"github.com/nguyentantai21042004/meeting-flow/internal/extractor"
	"github.com/nguyentantai21042004/meeting-flow/internal/gemini"
	"github.com/nguyentantai21042004/meeting-flow/internal/ingress"
	"github.com/nguyentantai21042004/meeting-flow/internal/logger"
	"github.com/nguyentantai21042004/meeting-flow/internal/pipeline"
	"github.com/nguyentantai21042004/meeting-flow/internal/storage"
	"github.com/nguyentantai21042004/meeting-flow/internal/summarizer"
	"github.com/nguyentantai21042004/meeting-flow/internal/transcriber"
	"github.com/nguyentantai21042004/meeting-flow/pkg/executor"
)

// buildPipeline wires every stage from cfg.
func buildPipeline(cfg *config.Config, log logger.Logger) (pipeline.Pipeline, error) {
	var client *gemini.Client
	completer := summarizer.NewUnconfiguredCompleter()
	if len(cfg.Gemini.APIKeys) > 0 {
		c, err := gemini.New(cfg.Gemini.APIKeys)
		if err != nil {
			return nil, fmt.Errorf("gemini client: %w", err)
		}
		client = c
		completer = summarizer.NewGeminiCompleter(client, cfg.Gemini.Model)
	} else {
		log.Warn(context.Background(), "No Gemini API key configured; summaries will be degraded")
	}

	exec := executor.New()
	store := storage.NewLocal(cfg.Storage.Root)

	audioRoot := cfg.Storage.AudioDir
	if !filepath.IsAbs(audioRoot) {
		audioRoot = store.Resolve(audioRoot)
	}

	tr, err := transcriber.New(cfg, exec, client, log)
	if err != nil {
		return nil, err
	}

	return pipeline.New(pipeline.Stages{
		Ingress:     ingress.New(store, log),
		Extractor:   extractor.New(cfg.FFmpeg.BinaryPath, audioRoot, exec, log),
		Transcriber: tr,
		Summarizer:  summarizer.New(completer, log),
	}, cfg.Pipeline.KeepArtifacts, log), nil
}
