package config

import (
	"fmt"
	"time"

	"github.com/rohmanhakim/result-finder/internal/finder"
	"github.com/rohmanhakim/result-finder/internal/layout"
	"github.com/rohmanhakim/result-finder/pkg/hashutil"
	"github.com/rohmanhakim/result-finder/pkg/retry"
	"github.com/rohmanhakim/result-finder/pkg/timeutil"
)

const (
	RendererFlow    = "flow"
	RendererBrowser = "browser"

	FormatXML      = "xml"
	FormatMarkdown = "markdown"
	FormatHTML     = "html"
)

type Config struct {
	//===============
	//  Input
	//===============
	// URL of the result page, or a path to a saved copy of it
	input string

	//===============
	// Layout
	//===============
	// "flow" estimates geometry from markup, "browser" measures it in headless Chrome
	renderer string
	// DevTools endpoint of a running browser. Empty launches a local one
	browserURL string

	//===============
	// Fetch
	//===============
	// User agent that will be used in the request header. In raw string
	userAgent string
	// Maximum time of a single fetch or render
	timeout time.Duration
	// Controls the random number generator used for jitter
	randomSeed int64
	// Randomized variation added on top of the backoff delay
	jitter time.Duration
	// maximum attempt during retry
	maxAttempt int
	// initial delay for backoff
	backoffInitialDuration time.Duration
	// multiplier during exponential backoff
	backoffMultiplier float64
	// capped maximum delay for backoff to stop exponential multiplication
	backoffMaxDuration time.Duration

	//===============
	// Discovery
	//===============
	finderOptions finder.Options

	//===============
	// Output
	//===============
	// Directory in which reports are written
	outputDir string
	// One of xml, markdown, html
	outputFormat string
	// Algorithm used to name report files
	hashAlgo hashutil.HashAlgo
	// Print reports to stdout instead of writing them
	dryRun bool
	// Consult robots.txt before fetching http inputs
	respectRobots bool
	logLevel string
}

// WithDefault creates a new Config for the given input with default values for all other fields.
// input is mandatory; Build returns an error when it is empty.
func WithDefault(input string) *Config {
	defaultConfig := Config{
		input:                  input,
		renderer:               RendererFlow,
		browserURL:             "",
		userAgent:              "",
		timeout:                30 * time.Second,
		randomSeed:             time.Now().UnixNano(),
		jitter:                 200 * time.Millisecond,
		maxAttempt:             3,
		backoffInitialDuration: 500 * time.Millisecond,
		backoffMultiplier:      2.0,
		backoffMaxDuration:     10 * time.Second,
		finderOptions:          finder.DefaultOptions(),
		outputDir:              "output",
		outputFormat:           FormatXML,
		hashAlgo:               hashutil.HashAlgoSHA256,
		dryRun:                 false,
		respectRobots:          false,
		logLevel:               "info",
	}
	return &defaultConfig
}

func (c *Config) WithInput(input string) *Config {
	c.input = input
	return c
}

func (c *Config) WithRenderer(renderer string) *Config {
	c.renderer = renderer
	return c
}

func (c *Config) WithBrowserURL(browserURL string) *Config {
	c.browserURL = browserURL
	return c
}

func (c *Config) WithUserAgent(agent string) *Config {
	c.userAgent = agent
	return c
}

func (c *Config) WithTimeout(timeout time.Duration) *Config {
	c.timeout = timeout
	return c
}

func (c *Config) WithRandomSeed(seed int64) *Config {
	c.randomSeed = seed
	return c
}

func (c *Config) WithJitter(jitter time.Duration) *Config {
	c.jitter = jitter
	return c
}

func (c *Config) WithMaxAttempt(attempts int) *Config {
	c.maxAttempt = attempts
	return c
}

func (c *Config) WithBackoffInitialDuration(duration time.Duration) *Config {
	c.backoffInitialDuration = duration
	return c
}

func (c *Config) WithBackoffMultiplier(multiplier float64) *Config {
	c.backoffMultiplier = multiplier
	return c
}

func (c *Config) WithBackoffMaxDuration(duration time.Duration) *Config {
	c.backoffMaxDuration = duration
	return c
}

func (c *Config) WithUseSimilarity(v bool) *Config {
	c.finderOptions.UseSimilarity = v
	return c
}

func (c *Config) WithUseAttributeTable(v bool) *Config {
	c.finderOptions.UseAttributeTable = v
	return c
}

func (c *Config) WithRemoveInvisibleNodes(v bool) *Config {
	c.finderOptions.RemoveInvisibleNodes = v
	return c
}

func (c *Config) WithUseGrid(v bool) *Config {
	c.finderOptions.UseGrid = v
	return c
}

func (c *Config) WithRemoveRows(v bool) *Config {
	c.finderOptions.RemoveRows = v
	return c
}

func (c *Config) WithMinSimilarityThreshold(v float64) *Config {
	c.finderOptions.MinSimilarityThreshold = v
	return c
}

func (c *Config) WithAvgSimilarityThreshold(v float64) *Config {
	c.finderOptions.AvgSimilarityThreshold = v
	return c
}

func (c *Config) WithMinRepetition(n int) *Config {
	c.finderOptions.MinRepetition = n
	return c
}

func (c *Config) WithOutputDir(outputDir string) *Config {
	c.outputDir = outputDir
	return c
}

func (c *Config) WithOutputFormat(format string) *Config {
	c.outputFormat = format
	return c
}

func (c *Config) WithHashAlgo(algo hashutil.HashAlgo) *Config {
	c.hashAlgo = algo
	return c
}

func (c *Config) WithDryRun(dryRun bool) *Config {
	c.dryRun = dryRun
	return c
}

func (c *Config) WithRespectRobots(respect bool) *Config {
	c.respectRobots = respect
	return c
}

func (c *Config) WithLogLevel(level string) *Config {
	c.logLevel = level
	return c
}

func (c *Config) Build() (Config, error) {
	if c.input == "" {
		return Config{}, fmt.Errorf("%w: input cannot be empty", ErrInvalidConfig)
	}
	switch c.renderer {
	case RendererFlow, RendererBrowser:
	default:
		return Config{}, fmt.Errorf("%w: unknown renderer %q", ErrInvalidConfig, c.renderer)
	}
	switch c.outputFormat {
	case FormatXML, FormatMarkdown, FormatHTML:
	default:
		return Config{}, fmt.Errorf("%w: unknown output format %q", ErrInvalidConfig, c.outputFormat)
	}
	switch c.hashAlgo {
	case hashutil.HashAlgoSHA256, hashutil.HashAlgoBLAKE3:
	default:
		return Config{}, fmt.Errorf("%w: unknown hash algorithm %q", ErrInvalidConfig, c.hashAlgo)
	}
	if c.maxAttempt < 1 {
		return Config{}, fmt.Errorf("%w: maxAttempt must be at least 1", ErrInvalidConfig)
	}
	if c.timeout <= 0 {
		return Config{}, fmt.Errorf("%w: timeout must be positive", ErrInvalidConfig)
	}

	opts := c.finderOptions
	if opts.MinRepetition < 1 {
		return Config{}, fmt.Errorf("%w: minRepetition must be at least 1", ErrInvalidConfig)
	}
	if !inUnitRange(opts.MinSimilarityThreshold) {
		return Config{}, fmt.Errorf("%w: minSimilarityThreshold must be within [0,1]", ErrInvalidConfig)
	}
	if !inUnitRange(opts.AvgSimilarityThreshold) {
		return Config{}, fmt.Errorf("%w: avgSimilarityThreshold must be within [0,1]", ErrInvalidConfig)
	}

	return *c, nil
}

func inUnitRange(v float64) bool {
	return v >= 0 && v <= 1
}

func (c Config) Input() string {
	return c.input
}

func (c Config) Renderer() string {
	return c.renderer
}

func (c Config) BrowserURL() string {
	return c.browserURL
}

func (c Config) UserAgent() string {
	return c.userAgent
}

func (c Config) Timeout() time.Duration {
	return c.timeout
}

func (c Config) RandomSeed() int64 {
	return c.randomSeed
}

func (c Config) Jitter() time.Duration {
	return c.jitter
}

func (c Config) MaxAttempt() int {
	return c.maxAttempt
}

func (c Config) BackoffInitialDuration() time.Duration {
	return c.backoffInitialDuration
}

func (c Config) BackoffMultiplier() float64 {
	return c.backoffMultiplier
}

func (c Config) BackoffMaxDuration() time.Duration {
	return c.backoffMaxDuration
}

// FinderOptions returns a copy; the finder reads it once per pass.
func (c Config) FinderOptions() finder.Options {
	return c.finderOptions
}

func (c Config) OutputDir() string {
	return c.outputDir
}

func (c Config) OutputFormat() string {
	return c.outputFormat
}

func (c Config) HashAlgo() hashutil.HashAlgo {
	return c.hashAlgo
}

func (c Config) DryRun() bool {
	return c.dryRun
}

func (c Config) RespectRobots() bool {
	return c.respectRobots
}

func (c Config) LogLevel() string {
	return c.logLevel
}

func (c Config) RetryParam() retry.RetryParam {
	return retry.NewRetryParam(
		c.jitter,
		c.randomSeed,
		c.maxAttempt,
		timeutil.NewBackoffParam(
			c.backoffInitialDuration,
			c.backoffMultiplier,
			c.backoffMaxDuration,
		),
	)
}

func (c Config) BrowserParam() layout.BrowserParam {
	return layout.BrowserParam{
		ControlURL: c.browserURL,
		UserAgent:  c.userAgent,
		Timeout:    c.timeout,
	}
}
