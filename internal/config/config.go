package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/cleared-dev/receipts/internal/detect"
	"github.com/cleared-dev/receipts/internal/engine"
	"github.com/cleared-dev/receipts/internal/inbox"
	"github.com/cleared-dev/receipts/internal/learn"
	"github.com/cleared-dev/receipts/internal/model"
	"github.com/cleared-dev/receipts/internal/validate"
)

// FileName is the project configuration file at the project root.
const FileName = "receipts.yaml"

// Config represents the top-level receipts.yaml configuration.
type Config struct {
	Catalogue  CatalogueConfig  `yaml:"catalogue"`
	Detection  DetectionConfig  `yaml:"detection"`
	Validation ValidationConfig `yaml:"validation"`
	Learning   LearningConfig   `yaml:"learning"`
	Stats      StatsConfig      `yaml:"stats"`
	OCR        OCRConfig        `yaml:"ocr"`
	Inbox      InboxConfig      `yaml:"inbox"`
	Logging    LoggingConfig    `yaml:"logging"`
	Git        GitConfig        `yaml:"git"`
}

// CatalogueConfig locates the pattern catalogue files, relative to the project root.
type CatalogueConfig struct {
	Path        string `yaml:"path"`
	LearnedPath string `yaml:"learned_path"`
}

// DetectionConfig selects the detection methods.
type DetectionConfig struct {
	Methods         []string `yaml:"methods"` // subset of A, B, C
	FallbackEnabled bool     `yaml:"fallback_enabled"`
	Window          int      `yaml:"window"`
	NextLine        bool     `yaml:"next_line"`
}

// ValidationConfig tunes the reliability verdict.
type ValidationConfig struct {
	TrustPriority int `yaml:"trust_priority"`
}

// LearningConfig tunes pattern learning from corrections.
type LearningConfig struct {
	ContextWindow int  `yaml:"context_window"`
	AutoApprove   bool `yaml:"auto_approve"`
}

// StatsConfig locates the counter database and the optional metrics textfile.
type StatsConfig struct {
	DBPath      string `yaml:"db_path"`
	MetricsPath string `yaml:"metrics_path,omitempty"`
}

// OCRConfig configures the tesseract adapter.
type OCRConfig struct {
	Binary      string `yaml:"binary"`
	Lang        string `yaml:"lang"`
	TessdataDir string `yaml:"tessdata_dir,omitempty"`
}

// InboxConfig locates the receipt drop folder.
type InboxConfig struct {
	Dir string `yaml:"dir"`
}

// LoggingConfig sets the default log output.
type LoggingConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
}

// GitConfig controls git integration.
type GitConfig struct {
	AutoCommit  bool   `yaml:"auto_commit"`
	AuthorName  string `yaml:"author_name"`
	AuthorEmail string `yaml:"author_email"`
}

// Load reads a receipts.yaml file from disk. Missing fields keep their defaults.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading config: %w", err)
	}
	cfg := Default()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parsing config: %w", err)
	}
	return cfg, nil
}

// Save writes a Config to a YAML file.
func Save(path string, cfg *Config) error {
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("marshaling config: %w", err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("writing config: %w", err)
	}
	return nil
}

// Default returns a Config with sensible defaults for a new project.
func Default() *Config {
	return &Config{
		Catalogue: CatalogueConfig{
			Path:        "patterns/ocr_patterns.yml",
			LearnedPath: "patterns/ocr_patterns_learned.yml",
		},
		Detection: DetectionConfig{
			Methods:  []string{"A", "B", "C"},
			Window:   detect.DefaultWindow,
			NextLine: true,
		},
		Validation: ValidationConfig{
			TrustPriority: validate.DefaultTrustPriority,
		},
		Learning: LearningConfig{
			ContextWindow: learn.DefaultContextWindow,
		},
		Stats: StatsConfig{
			DBPath: ".receipts/stats.db",
		},
		OCR: OCRConfig{
			Binary: "tesseract",
			Lang:   "fra+eng",
		},
		Inbox: InboxConfig{
			Dir: inbox.DefaultDir,
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "text",
		},
		Git: GitConfig{
			AutoCommit:  true,
			AuthorName:  "Receipts Learner",
			AuthorEmail: "learner@receipts.local",
		},
	}
}

// ValidationError describes a single invalid setting.
type ValidationError struct {
	Field       string
	Description string
}

func (e ValidationError) Error() string {
	return fmt.Sprintf("%s: %s", e.Field, e.Description)
}

// Validate checks settings that would otherwise fail at parse time.
func (c *Config) Validate() []ValidationError {
	var errs []ValidationError
	for _, m := range c.Detection.Methods {
		method := model.Method(strings.ToUpper(strings.TrimSpace(m)))
		switch {
		case method == model.MethodFallback:
			errs = append(errs, ValidationError{
				Field:       "detection.methods",
				Description: "method D is enabled with detection.fallback_enabled",
			})
		case !method.Valid():
			errs = append(errs, ValidationError{
				Field:       "detection.methods",
				Description: fmt.Sprintf("unknown method %q", m),
			})
		}
	}
	if c.Detection.Window <= 0 {
		errs = append(errs, ValidationError{Field: "detection.window", Description: "must be positive"})
	}
	if c.Learning.ContextWindow <= 0 {
		errs = append(errs, ValidationError{Field: "learning.context_window", Description: "must be positive"})
	}
	if c.Catalogue.Path == "" {
		errs = append(errs, ValidationError{Field: "catalogue.path", Description: "required"})
	}
	switch strings.ToLower(c.Logging.Format) {
	case "", "text", "json":
	default:
		errs = append(errs, ValidationError{
			Field:       "logging.format",
			Description: fmt.Sprintf("unknown format %q", c.Logging.Format),
		})
	}
	return errs
}

// Err joins the validation errors into one error, or returns nil.
func (c *Config) Err() error {
	var errs []error
	for _, e := range c.Validate() {
		errs = append(errs, e)
	}
	return errors.Join(errs...)
}

// EngineOptions converts the settings into engine options.
func (c *Config) EngineOptions() engine.Options {
	opts := engine.DefaultOptions()
	opts.Detect.Methods = nil
	for _, m := range c.Detection.Methods {
		method := model.Method(strings.ToUpper(strings.TrimSpace(m)))
		if method.Valid() && method != model.MethodFallback {
			opts.Detect.Methods = append(opts.Detect.Methods, method)
		}
	}
	opts.Detect.FallbackEnabled = c.Detection.FallbackEnabled
	opts.Detect.Window = c.Detection.Window
	opts.Detect.NextLine = c.Detection.NextLine
	opts.Policy.TrustPriority = c.Validation.TrustPriority
	opts.Learn.ContextWindow = c.Learning.ContextWindow
	opts.Learn.AutoApprove = c.Learning.AutoApprove
	return opts
}

// Resolve returns path relative to root unless it is already absolute.
func Resolve(root, path string) string {
	if path == "" || filepath.IsAbs(path) {
		return path
	}
	return filepath.Join(root, path)
}
