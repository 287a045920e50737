package cmd

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"github.com/rohmanhakim/result-finder/internal/config"
	"github.com/rohmanhakim/result-finder/internal/dom"
	"github.com/rohmanhakim/result-finder/internal/fetcher"
	"github.com/rohmanhakim/result-finder/internal/finder"
	"github.com/rohmanhakim/result-finder/internal/layout"
	"github.com/rohmanhakim/result-finder/internal/logging"
	"github.com/rohmanhakim/result-finder/internal/mdconvert"
	"github.com/rohmanhakim/result-finder/internal/metadata"
	"github.com/rohmanhakim/result-finder/internal/query"
	"github.com/rohmanhakim/result-finder/internal/report"
	"github.com/rohmanhakim/result-finder/internal/robots"
	"github.com/rohmanhakim/result-finder/internal/storage"
	"github.com/rohmanhakim/result-finder/internal/wrapper"
	"github.com/rohmanhakim/result-finder/pkg/hashutil"
	"github.com/rohmanhakim/result-finder/pkg/urlutil"
	"go.uber.org/zap"
)

var errNoWrapper = errors.New("no repeating result list found")

// runner carries what every command needs for one invocation.
type runner struct {
	cfg    config.Config
	logger *zap.Logger
	sink   metadata.MetadataSink
	out    io.Writer
}

// page is the parsed input together with the geometry it is analysed with.
type page struct {
	doc    *dom.Document
	query  *query.HTMLQuery
	layout layout.Provider
	// url resolves relative result links; empty for local files
	url string
	id  string
}

type discovery struct {
	wrappers []*wrapper.Wrapper
	elapsed  time.Duration
}

func newRunner(cfg config.Config, out io.Writer) (*runner, error) {
	logCfg := logging.DefaultConfig()
	logCfg.Level = cfg.LogLevel()
	logger, err := logging.New(logCfg)
	if err != nil {
		return nil, fmt.Errorf("%w: log level: %s", config.ErrInvalidConfig, err.Error())
	}
	recorder := metadata.NewRecorder(time.Now().UTC().Format("20060102T150405.000000000"), logger)
	return &runner{
		cfg:    cfg,
		logger: logger,
		sink:   &recorder,
		out:    out,
	}, nil
}

// load reads the input and pairs the parsed document with a layout source.
func (r *runner) load(ctx context.Context) (page, error) {
	input := r.cfg.Input()
	id, err := hashutil.ShortHash([]byte(storage.CanonicalSource(input)), r.cfg.HashAlgo(), 12)
	if err != nil {
		return page{}, err
	}

	if urlutil.IsHTTP(input) {
		target, parseErr := url.Parse(input)
		if parseErr != nil {
			return page{}, parseErr
		}
		if r.cfg.RespectRobots() {
			if err := r.admit(ctx, *target); err != nil {
				return page{}, err
			}
		}

		if r.cfg.Renderer() == config.RendererBrowser {
			doc, rendered, err := layout.Render(ctx, layout.Source{URL: input}, r.cfg.BrowserParam(), r.sink)
			if err != nil {
				return page{}, err
			}
			return newPage(doc, rendered, input, id), nil
		}

		htmlFetcher := fetcher.NewHtmlFetcher(r.sink)
		htmlFetcher.Init(&http.Client{Timeout: r.cfg.Timeout()}, r.cfg.UserAgent())
		result, err := htmlFetcher.Fetch(ctx, *target, r.cfg.RetryParam())
		if err != nil {
			return page{}, err
		}
		finalURL := result.URL()
		r.logger.Debug("page fetched",
			zap.String("url", finalURL.String()),
			zap.Int("status", result.Code()),
			zap.Uint64("bytes", result.SizeByte()),
			zap.Int("attempts", result.Attempts()),
		)
		doc, err := dom.Parse(bytes.NewReader(result.Body()), result.ContentType())
		if err != nil {
			return page{}, err
		}
		return newPage(doc, layout.NewFlow(doc), finalURL.String(), id), nil
	}

	result, err := fetcher.ReadFile(input, r.sink)
	if err != nil {
		return page{}, err
	}
	if r.cfg.Renderer() == config.RendererBrowser {
		doc, rendered, err := layout.Render(ctx, layout.Source{HTML: string(result.Body())}, r.cfg.BrowserParam(), r.sink)
		if err != nil {
			return page{}, err
		}
		return newPage(doc, rendered, "", id), nil
	}
	doc, err := dom.Parse(bytes.NewReader(result.Body()), "")
	if err != nil {
		return page{}, err
	}
	return newPage(doc, layout.NewFlow(doc), "", id), nil
}

// admit consults robots.txt for target's host.
func (r *runner) admit(ctx context.Context, target url.URL) error {
	robot := robots.NewRobot(r.sink, &http.Client{Timeout: r.cfg.Timeout()}, r.cfg.UserAgent())
	decision, err := robot.Decide(ctx, target)
	if err != nil {
		return err
	}
	r.logger.Debug("robots.txt admits page",
		zap.String("url", target.String()),
		zap.String("reason", string(decision.Reason)),
	)
	return nil
}

func newPage(doc *dom.Document, lp layout.Provider, pageURL, id string) page {
	return page{
		doc:    doc,
		query:  query.NewHTMLQuery(doc),
		layout: lp,
		url:    pageURL,
		id:     id,
	}
}

// discover runs one finder pass and records its summary.
func (r *runner) discover(p page) (discovery, error) {
	f := finder.NewFinder(p.doc, p.query, p.layout, r.cfg.FinderOptions(), r.logger, r.sink)
	wrappers, err := f.Find()
	if err != nil {
		return discovery{}, err
	}

	best := ""
	if len(wrappers) > 0 {
		best = wrappers[0].XPath()
	}
	r.sink.RecordDiscovery(metadata.NewDiscoveryEvent(
		r.cfg.Input(),
		len(f.Seeds()),
		len(wrappers),
		best,
		f.Elapsed(),
	))

	if len(wrappers) == 0 {
		r.logger.Warn("no wrapper found", zap.String("url", r.cfg.Input()), zap.Int("seed_paths", len(f.Seeds())))
		return discovery{}, errNoWrapper
	}
	return discovery{wrappers: wrappers, elapsed: f.Elapsed()}, nil
}

// emit serializes the report for w and writes it, or prints it on a dry run.
func (r *runner) emit(p page, w *wrapper.Wrapper, elapsed time.Duration) error {
	rep := report.Build(p.doc, w, p.id, p.url, elapsed)
	artifact, err := r.artifact(rep)
	if err != nil {
		return err
	}

	if r.cfg.DryRun() {
		_, writeErr := r.out.Write(artifact.Content)
		return writeErr
	}

	localSink := storage.NewLocalSink(r.sink)
	result, err := localSink.Write(r.cfg.OutputDir(), artifact, r.cfg.HashAlgo())
	if err != nil {
		return err
	}
	r.logger.Info("report written",
		zap.String("path", result.Path()),
		zap.String("xpath", w.XPath()),
		zap.Int("nodes", w.Len()),
	)
	fmt.Fprintln(r.out, result.Path())
	return nil
}

func (r *runner) artifact(rep *report.Page) (storage.Artifact, error) {
	artifact := storage.Artifact{Source: r.cfg.Input()}

	switch r.cfg.OutputFormat() {
	case config.FormatMarkdown, config.FormatHTML:
		digest, err := mdconvert.NewConverter(r.sink).Convert(rep)
		if err != nil {
			return storage.Artifact{}, err
		}
		if r.cfg.OutputFormat() == config.FormatHTML {
			artifact.Kind = metadata.ArtifactHTML
			artifact.Extension = "html"
			artifact.Content = mdconvert.RenderHTML(digest, "Search results: "+r.cfg.Input())
		} else {
			artifact.Kind = metadata.ArtifactMarkdown
			artifact.Extension = "md"
			artifact.Content = digest.Markdown()
		}
	default:
		data, err := rep.Marshal()
		if err != nil {
			var reportErr *report.ReportError
			if errors.As(err, &reportErr) {
				r.sink.RecordError(
					time.Now(),
					"report",
					"Page.Marshal",
					report.MapReportErrorToMetadataCause(reportErr),
					err.Error(),
					[]metadata.Attribute{metadata.NewAttr(metadata.AttrURL, r.cfg.Input())},
				)
			}
			return storage.Artifact{}, err
		}
		artifact.Kind = metadata.ArtifactReport
		artifact.Extension = "xml"
		artifact.Content = data
	}
	return artifact, nil
}
