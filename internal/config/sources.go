package config

import (
	"encoding/json"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/goccy/go-yaml"
	"github.com/kelseyhightower/envconfig"
	"github.com/rohmanhakim/result-finder/pkg/fileutil"
	"github.com/rohmanhakim/result-finder/pkg/hashutil"
)

// EnvPrefix namespaces the environment variables read by MergeEnvironment,
// e.g. RESULT_FINDER_MIN_REPETITION.
const EnvPrefix = "RESULT_FINDER"

// overrides is a partial Config. A nil field leaves the current value alone.
type overrides struct {
	Input                  *string        `envconfig:"INPUT"`
	Renderer               *string        `envconfig:"RENDERER"`
	BrowserURL             *string        `envconfig:"BROWSER_URL"`
	UserAgent              *string        `envconfig:"USER_AGENT"`
	Timeout                *time.Duration `envconfig:"TIMEOUT"`
	RandomSeed             *int64         `envconfig:"RANDOM_SEED"`
	Jitter                 *time.Duration `envconfig:"JITTER"`
	MaxAttempt             *int           `envconfig:"MAX_ATTEMPT"`
	BackoffInitialDuration *time.Duration `envconfig:"BACKOFF_INITIAL"`
	BackoffMultiplier      *float64       `envconfig:"BACKOFF_MULTIPLIER"`
	BackoffMaxDuration     *time.Duration `envconfig:"BACKOFF_MAX"`
	UseSimilarity          *bool          `envconfig:"USE_SIMILARITY"`
	UseAttributeTable      *bool          `envconfig:"USE_ATTRIBUTE_TABLE"`
	RemoveInvisibleNodes   *bool          `envconfig:"REMOVE_INVISIBLE_NODES"`
	UseGrid                *bool          `envconfig:"USE_GRID"`
	RemoveRows             *bool          `envconfig:"REMOVE_ROWS"`
	MinSimilarityThreshold *float64       `envconfig:"MIN_SIMILARITY"`
	AvgSimilarityThreshold *float64       `envconfig:"AVG_SIMILARITY"`
	MinRepetition          *int           `envconfig:"MIN_REPETITION"`
	OutputDir              *string        `envconfig:"OUTPUT_DIR"`
	OutputFormat           *string        `envconfig:"FORMAT"`
	HashAlgo               *string        `envconfig:"HASH_ALGO"`
	DryRun                 *bool          `envconfig:"DRY_RUN"`
	RespectRobots          *bool          `envconfig:"RESPECT_ROBOTS"`
	LogLevel               *string        `envconfig:"LOG_LEVEL"`
}

// configDTO is the on-disk shape. Durations are Go duration strings ("1.5s").
type configDTO struct {
	Input                  *string  `json:"input,omitempty" yaml:"input,omitempty"`
	Renderer               *string  `json:"renderer,omitempty" yaml:"renderer,omitempty"`
	BrowserURL             *string  `json:"browserUrl,omitempty" yaml:"browserUrl,omitempty"`
	UserAgent              *string  `json:"userAgent,omitempty" yaml:"userAgent,omitempty"`
	Timeout                *string  `json:"timeout,omitempty" yaml:"timeout,omitempty"`
	RandomSeed             *int64   `json:"randomSeed,omitempty" yaml:"randomSeed,omitempty"`
	Jitter                 *string  `json:"jitter,omitempty" yaml:"jitter,omitempty"`
	MaxAttempt             *int     `json:"maxAttempt,omitempty" yaml:"maxAttempt,omitempty"`
	BackoffInitialDuration *string  `json:"backoffInitialDuration,omitempty" yaml:"backoffInitialDuration,omitempty"`
	BackoffMultiplier      *float64 `json:"backoffMultiplier,omitempty" yaml:"backoffMultiplier,omitempty"`
	BackoffMaxDuration     *string  `json:"backoffMaxDuration,omitempty" yaml:"backoffMaxDuration,omitempty"`
	UseSimilarity          *bool    `json:"useSimilarity,omitempty" yaml:"useSimilarity,omitempty"`
	UseAttributeTable      *bool    `json:"useAttributeTable,omitempty" yaml:"useAttributeTable,omitempty"`
	RemoveInvisibleNodes   *bool    `json:"removeInvisibleNodes,omitempty" yaml:"removeInvisibleNodes,omitempty"`
	UseGrid                *bool    `json:"useGrid,omitempty" yaml:"useGrid,omitempty"`
	RemoveRows             *bool    `json:"removeRows,omitempty" yaml:"removeRows,omitempty"`
	MinSimilarityThreshold *float64 `json:"minSimilarityThreshold,omitempty" yaml:"minSimilarityThreshold,omitempty"`
	AvgSimilarityThreshold *float64 `json:"avgSimilarityThreshold,omitempty" yaml:"avgSimilarityThreshold,omitempty"`
	MinRepetition          *int     `json:"minRepetition,omitempty" yaml:"minRepetition,omitempty"`
	OutputDir              *string  `json:"outputDir,omitempty" yaml:"outputDir,omitempty"`
	OutputFormat           *string  `json:"outputFormat,omitempty" yaml:"outputFormat,omitempty"`
	HashAlgo               *string  `json:"hashAlgo,omitempty" yaml:"hashAlgo,omitempty"`
	DryRun                 *bool    `json:"dryRun,omitempty" yaml:"dryRun,omitempty"`
	RespectRobots          *bool    `json:"respectRobots,omitempty" yaml:"respectRobots,omitempty"`
	LogLevel               *string  `json:"logLevel,omitempty" yaml:"logLevel,omitempty"`
}

func (dto configDTO) toOverrides() (overrides, error) {
	o := overrides{
		Input:                  dto.Input,
		Renderer:               dto.Renderer,
		BrowserURL:             dto.BrowserURL,
		UserAgent:              dto.UserAgent,
		RandomSeed:             dto.RandomSeed,
		MaxAttempt:             dto.MaxAttempt,
		BackoffMultiplier:      dto.BackoffMultiplier,
		UseSimilarity:          dto.UseSimilarity,
		UseAttributeTable:      dto.UseAttributeTable,
		RemoveInvisibleNodes:   dto.RemoveInvisibleNodes,
		UseGrid:                dto.UseGrid,
		RemoveRows:             dto.RemoveRows,
		MinSimilarityThreshold: dto.MinSimilarityThreshold,
		AvgSimilarityThreshold: dto.AvgSimilarityThreshold,
		MinRepetition:          dto.MinRepetition,
		OutputDir:              dto.OutputDir,
		OutputFormat:           dto.OutputFormat,
		HashAlgo:               dto.HashAlgo,
		DryRun:                 dto.DryRun,
		RespectRobots:          dto.RespectRobots,
		LogLevel:               dto.LogLevel,
	}

	durations := []struct {
		name string
		raw  *string
		dst  **time.Duration
	}{
		{"timeout", dto.Timeout, &o.Timeout},
		{"jitter", dto.Jitter, &o.Jitter},
		{"backoffInitialDuration", dto.BackoffInitialDuration, &o.BackoffInitialDuration},
		{"backoffMaxDuration", dto.BackoffMaxDuration, &o.BackoffMaxDuration},
	}
	for _, d := range durations {
		if d.raw == nil {
			continue
		}
		parsed, err := time.ParseDuration(*d.raw)
		if err != nil {
			return overrides{}, fmt.Errorf("%s: %w", d.name, err)
		}
		*d.dst = &parsed
	}
	return o, nil
}

func (c *Config) apply(o overrides) *Config {
	setString(&c.input, o.Input)
	setString(&c.renderer, o.Renderer)
	setString(&c.browserURL, o.BrowserURL)
	setString(&c.userAgent, o.UserAgent)
	setString(&c.outputDir, o.OutputDir)
	setString(&c.outputFormat, o.OutputFormat)
	setString(&c.logLevel, o.LogLevel)
	if o.HashAlgo != nil {
		c.hashAlgo = hashutil.HashAlgo(*o.HashAlgo)
	}

	setValue(&c.timeout, o.Timeout)
	setValue(&c.jitter, o.Jitter)
	setValue(&c.backoffInitialDuration, o.BackoffInitialDuration)
	setValue(&c.backoffMaxDuration, o.BackoffMaxDuration)
	setValue(&c.randomSeed, o.RandomSeed)
	setValue(&c.maxAttempt, o.MaxAttempt)
	setValue(&c.backoffMultiplier, o.BackoffMultiplier)
	setValue(&c.dryRun, o.DryRun)
	setValue(&c.respectRobots, o.RespectRobots)

	opts := &c.finderOptions
	setValue(&opts.UseSimilarity, o.UseSimilarity)
	setValue(&opts.UseAttributeTable, o.UseAttributeTable)
	setValue(&opts.RemoveInvisibleNodes, o.RemoveInvisibleNodes)
	setValue(&opts.UseGrid, o.UseGrid)
	setValue(&opts.RemoveRows, o.RemoveRows)
	setValue(&opts.MinSimilarityThreshold, o.MinSimilarityThreshold)
	setValue(&opts.AvgSimilarityThreshold, o.AvgSimilarityThreshold)
	setValue(&opts.MinRepetition, o.MinRepetition)
	return c
}

func setString(dst *string, v *string) {
	if v != nil && *v != "" {
		*dst = *v
	}
}

func setValue[T any](dst *T, v *T) {
	if v != nil {
		*dst = *v
	}
}

// MergeEnvironment applies RESULT_FINDER_* variables on top of the current values.
func (c *Config) MergeEnvironment() (*Config, error) {
	var o overrides
	if err := envconfig.Process(EnvPrefix, &o); err != nil {
		return c, fmt.Errorf("%w: %s", ErrInvalidConfig, err.Error())
	}
	return c.apply(o), nil
}

// MergeFile applies a .json, .yaml or .yml config file on top of the current values.
func (c *Config) MergeFile(path string) (*Config, error) {
	_, err := os.Stat(path)
	if err != nil {
		return c, fmt.Errorf("%w: %s", ErrFileDoesNotExist, err.Error())
	}
	configContent, err := os.ReadFile(path)
	if err != nil {
		return c, fmt.Errorf("%w: %s", ErrReadConfigFail, err.Error())
	}

	cfgDTO := configDTO{}
	switch strings.ToLower(fileutil.GetFileExtension(path)) {
	case "yaml", "yml":
		err = yaml.Unmarshal(configContent, &cfgDTO)
	default:
		err = json.Unmarshal(configContent, &cfgDTO)
	}
	if err != nil {
		return c, fmt.Errorf("%w: %s", ErrConfigParsingFail, err.Error())
	}

	o, err := cfgDTO.toOverrides()
	if err != nil {
		return c, fmt.Errorf("%w: %s", ErrConfigParsingFail, err.Error())
	}
	return c.apply(o), nil
}

// WithConfigFile builds a Config from defaults and the given file alone.
func WithConfigFile(path string) (Config, error) {
	builder, err := WithDefault("").MergeFile(path)
	if err != nil {
		return Config{}, err
	}
	return builder.Build()
}

// FromEnvironment builds a Config from defaults and RESULT_FINDER_* variables.
func FromEnvironment() (Config, error) {
	builder, err := WithDefault("").MergeEnvironment()
	if err != nil {
		return Config{}, err
	}
	return builder.Build()
}
