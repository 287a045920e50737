package cmd

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"time"

	"github.com/rohmanhakim/result-finder/internal/config"
	"github.com/rohmanhakim/result-finder/pkg/hashutil"
	"github.com/rohmanhakim/result-finder/pkg/urlutil"
	"github.com/spf13/cobra"
)

// unset marks a numeric flag the user did not pass.
const unset = -1

var (
	cfgFile          string
	inputURL         string
	inputFile        string
	renderer         string
	browserURL       string
	userAgent        string
	timeout          time.Duration
	maxAttempt       int
	randomSeed       int64
	minRepetition    int
	minSimilarity    float64
	avgSimilarity    float64
	noSimilarity     bool
	noAttributeTable bool
	keepInvisible    bool
	noGrid           bool
	keepRows         bool
	outputDir        string
	format           string
	hashAlgo         string
	dryRun           bool
	respectRobots    bool
	logLevel         string
)

// rootCmd represents the base command when called without any subcommands
var rootCmd = &cobra.Command{
	Use:   "result-finder",
	Short: "Locate the result list of a search results page.",
	Long: `result-finder reads a search engine result page and finds the
selector that picks out its individual results.

It looks for anchors that repeat along the same path, grows and generalizes
those paths into candidate selectors, and ranks the candidates by how much
of the page they cover. The winning selector and the results it selects are
written as an XML report, a Markdown digest or an HTML preview.`,
	SilenceUsage: true,
}

// Execute adds all child commands to the root command and sets flags appropriately.
// This is called by main.main(). It only needs to happen once to the rootCmd.
func Execute() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	if err := rootCmd.ExecuteContext(ctx); err != nil {
		stop()
		os.Exit(1)
	}
}

func init() {
	flags := rootCmd.PersistentFlags()
	flags.StringVar(&cfgFile, "config-file", "", "config file path (.json, .yaml or .yml)")
	flags.StringVar(&inputURL, "url", "", "URL of the result page")
	flags.StringVar(&inputFile, "file", "", "path to a saved result page")
	flags.StringVar(&renderer, "renderer", "", "layout source: flow (estimated) or browser (headless Chrome)")
	flags.StringVar(&browserURL, "browser-url", "", "DevTools URL of a running browser; empty launches one")
	flags.StringVar(&userAgent, "user-agent", "", "user agent string for HTTP requests")
	flags.DurationVar(&timeout, "timeout", 0, "timeout for fetching or rendering the page")
	flags.IntVar(&maxAttempt, "max-attempts", 0, "maximum fetch attempts")
	flags.Int64Var(&randomSeed, "random-seed", 0, "seed for retry jitter (0 for current time)")
	flags.IntVar(&minRepetition, "min-repetition", 0, "minimum number of repeating results")
	flags.Float64Var(&minSimilarity, "min-similarity", unset, "lowest accepted per-result structural similarity")
	flags.Float64Var(&avgSimilarity, "avg-similarity", unset, "lowest accepted mean structural similarity")
	flags.BoolVar(&noSimilarity, "no-similarity", false, "skip the structural similarity check")
	flags.BoolVar(&noAttributeTable, "no-attribute-table", false, "do not refine selectors with attribute predicates")
	flags.BoolVar(&keepInvisible, "keep-invisible", false, "keep candidates whose results are mostly hidden")
	flags.BoolVar(&noGrid, "no-grid", false, "keep candidates that do not line up into at least two rows")
	flags.BoolVar(&keepRows, "keep-rows", false, "keep candidates that select rows of a better candidate")
	flags.StringVar(&outputDir, "output-dir", "", "directory for written reports")
	flags.StringVar(&format, "format", "", "report format: xml, markdown or html")
	flags.StringVar(&hashAlgo, "hash-algo", "", "hash used for report file names: sha256 or blake3")
	flags.BoolVar(&dryRun, "dry-run", false, "print the report instead of writing it")
	flags.BoolVar(&respectRobots, "respect-robots", false, "refuse to fetch URLs disallowed by the site's robots.txt")
	flags.StringVar(&logLevel, "log-level", "", "debug, info, warn or error")

	rootCmd.AddCommand(findCmd, adviseCmd, versionCmd)
}

// ExecuteForTest runs the command tree with args, writing command output
// to out.
func ExecuteForTest(ctx context.Context, args []string, out io.Writer) error {
	rootCmd.SetArgs(args)
	rootCmd.SetOut(out)
	rootCmd.SetErr(io.Discard)
	defer rootCmd.SetArgs(nil)
	return rootCmd.ExecuteContext(ctx)
}

// resolveInput picks the page to analyse from --url or --file.
func resolveInput() (string, error) {
	if inputURL != "" && inputFile != "" {
		return "", fmt.Errorf("%w: --url and --file are mutually exclusive", config.ErrInvalidConfig)
	}
	if inputURL != "" {
		if !urlutil.IsHTTP(inputURL) {
			return "", fmt.Errorf("%w: --url must be an absolute http(s) URL, got %q", config.ErrInvalidConfig, inputURL)
		}
		return inputURL, nil
	}
	return inputFile, nil
}

// InitConfigWithError layers defaults, RESULT_FINDER_* variables, the
// config file and finally the flags, and validates the result.
func InitConfigWithError() (config.Config, error) {
	input, err := resolveInput()
	if err != nil {
		return config.Config{}, err
	}

	configBuilder, err := config.WithDefault("").MergeEnvironment()
	if err != nil {
		return config.Config{}, err
	}

	if cfgFile != "" {
		configBuilder, err = configBuilder.MergeFile(cfgFile)
		if err != nil {
			return config.Config{}, fmt.Errorf("error initializing config from file: %w", err)
		}
	}

	if input != "" {
		configBuilder = configBuilder.WithInput(input)
	}
	if renderer != "" {
		configBuilder = configBuilder.WithRenderer(renderer)
	}
	if browserURL != "" {
		configBuilder = configBuilder.WithBrowserURL(browserURL)
	}
	if userAgent != "" {
		configBuilder = configBuilder.WithUserAgent(userAgent)
	}
	if timeout > 0 {
		configBuilder = configBuilder.WithTimeout(timeout)
	}
	if maxAttempt > 0 {
		configBuilder = configBuilder.WithMaxAttempt(maxAttempt)
	}
	if randomSeed != 0 {
		configBuilder = configBuilder.WithRandomSeed(randomSeed)
	}

	if minRepetition > 0 {
		configBuilder = configBuilder.WithMinRepetition(minRepetition)
	}
	if minSimilarity != unset {
		configBuilder = configBuilder.WithMinSimilarityThreshold(minSimilarity)
	}
	if avgSimilarity != unset {
		configBuilder = configBuilder.WithAvgSimilarityThreshold(avgSimilarity)
	}
	if noSimilarity {
		configBuilder = configBuilder.WithUseSimilarity(false)
	}
	if noAttributeTable {
		configBuilder = configBuilder.WithUseAttributeTable(false)
	}
	if keepInvisible {
		configBuilder = configBuilder.WithRemoveInvisibleNodes(false)
	}
	if noGrid {
		configBuilder = configBuilder.WithUseGrid(false)
	}
	if keepRows {
		configBuilder = configBuilder.WithRemoveRows(false)
	}

	if outputDir != "" {
		configBuilder = configBuilder.WithOutputDir(outputDir)
	}
	if format != "" {
		configBuilder = configBuilder.WithOutputFormat(format)
	}
	if hashAlgo != "" {
		algo, err := hashutil.ParseHashAlgo(hashAlgo)
		if err != nil {
			return config.Config{}, fmt.Errorf("%w: %s", config.ErrInvalidConfig, err.Error())
		}
		configBuilder = configBuilder.WithHashAlgo(algo)
	}
	if dryRun {
		configBuilder = configBuilder.WithDryRun(true)
	}
	if respectRobots {
		configBuilder = configBuilder.WithRespectRobots(true)
	}
	if logLevel != "" {
		configBuilder = configBuilder.WithLogLevel(logLevel)
	}

	return configBuilder.Build()
}

func ResetFlags() {
	cfgFile = ""
	inputURL = ""
	inputFile = ""
	renderer = ""
	browserURL = ""
	userAgent = ""
	timeout = 0
	maxAttempt = 0
	randomSeed = 0
	minRepetition = 0
	minSimilarity = unset
	avgSimilarity = unset
	noSimilarity = false
	noAttributeTable = false
	keepInvisible = false
	noGrid = false
	keepRows = false
	outputDir = ""
	format = ""
	hashAlgo = ""
	dryRun = false
	respectRobots = false
	logLevel = ""
	listAll = false
	wrapperIndex = 0
}

// Test helper functions to set flag values from tests
func SetConfigFileForTest(path string) {
	cfgFile = path
}

func SetURLForTest(u string) {
	inputURL = u
}

func SetFileForTest(path string) {
	inputFile = path
}

func SetMinRepetitionForTest(n int) {
	minRepetition = n
}

func SetSimilarityForTest(min, avg float64) {
	minSimilarity = min
	avgSimilarity = avg
}

func SetNoSimilarityForTest(v bool) {
	noSimilarity = v
}

func SetNoGridForTest(v bool) {
	noGrid = v
}

func SetKeepRowsForTest(v bool) {
	keepRows = v
}

func SetHashAlgoForTest(algo string) {
	hashAlgo = algo
}

func SetDryRunForTest(dry bool) {
	dryRun = dry
}

