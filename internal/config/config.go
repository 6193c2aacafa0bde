package config

import (
	"fmt"
	"os"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

const (
	BackendWhisper = "whisper"
	BackendGemini  = "gemini"
)

type Config struct {
	Server      ServerConfig      `yaml:"server"`
	Storage     StorageConfig     `yaml:"storage"`
	FFmpeg      FFmpegConfig      `yaml:"ffmpeg"`
	Transcriber TranscriberConfig `yaml:"transcriber"`
	Whisper     WhisperConfig     `yaml:"whisper"`
	Gemini      GeminiConfig      `yaml:"gemini"`
	Pipeline    PipelineConfig    `yaml:"pipeline"`
	Paths       PathsConfig       `yaml:"paths"`
	Logging     LoggingConfig     `yaml:"logging"`
	Performance PerformanceConfig `yaml:"performance"`
}

type ServerConfig struct {
	Addr           string        `yaml:"addr"`
	MaxUploadMB    int64         `yaml:"max_upload_mb"`
	RequestTimeout time.Duration `yaml:"request_timeout"`
}

// StorageConfig points at the media root. Uploads land under videos/ and
// derived audio under audio/ unless AudioDir overrides it.
type StorageConfig struct {
	Root     string `yaml:"root"`
	AudioDir string `yaml:"audio_dir"`
}

type FFmpegConfig struct {
	BinaryPath string `yaml:"binary_path"`
}

type TranscriberConfig struct {
	Backend  string `yaml:"backend"`
	Language string `yaml:"language"`
}

type WhisperConfig struct {
	ModelPath  string `yaml:"model_path"`
	BinaryPath string `yaml:"binary_path"`
	Prompt     string `yaml:"prompt"`
	Threads    int    `yaml:"threads"`
}

type GeminiConfig struct {
	APIKeys         []string `yaml:"api_keys"`
	Model           string   `yaml:"model"`
	TranscribeModel string   `yaml:"transcribe_model"`
}

type PipelineConfig struct {
	KeepArtifacts bool `yaml:"keep_artifacts"`
}

// PathsConfig is only used by the watch command.
type PathsConfig struct {
	Input    string `yaml:"input"`
	Output   string `yaml:"output"`
	Archived string `yaml:"archived"`
}

type LoggingConfig struct {
	Level string `yaml:"level"`
}

type PerformanceConfig struct {
	MaxConcurrent int `yaml:"max_concurrent"`
}

// Load reads the YAML file at path, applies environment overrides and validates it.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config: %w", err)
	}

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("parse config: %w", err)
	}

	if keys := os.Getenv("GEMINI_API_KEY"); keys != "" {
		cfg.Gemini.APIKeys = splitKeys(keys)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("validate config: %w", err)
	}

	return &cfg, nil
}

func (c *Config) Validate() error {
	if c.Storage.Root == "" {
		return fmt.Errorf("storage.root is required")
	}
	if c.Transcriber.Language == "" {
		return fmt.Errorf("transcriber.language is required")
	}

	if c.Transcriber.Backend == "" {
		c.Transcriber.Backend = BackendWhisper
	}
	switch c.Transcriber.Backend {
	case BackendWhisper:
		if c.Whisper.ModelPath == "" {
			return fmt.Errorf("whisper.model_path is required")
		}
		if c.Whisper.BinaryPath == "" {
			return fmt.Errorf("whisper.binary_path is required")
		}
	case BackendGemini:
		if len(c.Gemini.APIKeys) == 0 {
			return fmt.Errorf("gemini.api_keys is required for the gemini transcriber")
		}
	default:
		return fmt.Errorf("transcriber.backend %q is not supported", c.Transcriber.Backend)
	}

	if c.Performance.MaxConcurrent < 0 {
		return fmt.Errorf("performance.max_concurrent must not be negative")
	}
	if c.Server.MaxUploadMB < 0 {
		return fmt.Errorf("server.max_upload_mb must not be negative")
	}

	if c.Storage.AudioDir == "" {
		c.Storage.AudioDir = "audio"
	}
	if c.Server.Addr == "" {
		c.Server.Addr = ":8000"
	}
	if c.Server.MaxUploadMB == 0 {
		c.Server.MaxUploadMB = 1024
	}
	if c.Server.RequestTimeout == 0 {
		c.Server.RequestTimeout = 30 * time.Minute
	}
	if c.FFmpeg.BinaryPath == "" {
		c.FFmpeg.BinaryPath = "ffmpeg"
	}
	if c.Whisper.Threads == 0 {
		c.Whisper.Threads = 8
	}
	if c.Gemini.Model == "" {
		c.Gemini.Model = "gemini-2.5-flash"
	}
	if c.Gemini.TranscribeModel == "" {
		c.Gemini.TranscribeModel = c.Gemini.Model
	}
	if c.Paths.Input == "" {
		c.Paths.Input = "data/input"
	}
	if c.Paths.Output == "" {
		c.Paths.Output = "data/output"
	}
	if c.Paths.Archived == "" {
		c.Paths.Archived = "data/archived"
	}
	if c.Logging.Level == "" {
		c.Logging.Level = "info"
	}
	if c.Performance.MaxConcurrent == 0 {
		c.Performance.MaxConcurrent = 2
	}

	return nil
}

func splitKeys(raw string) []string {
	var keys []string
	for _, k := range strings.Split(raw, ",") {
		if k = strings.TrimSpace(k); k != "" {
			keys = append(keys, k)
		}
	}
	return keys
}
