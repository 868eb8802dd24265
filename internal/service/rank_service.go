// Package service wires extraction, scoring, selection and result output into
// a single ranking run.
package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"path"
	"slices"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/viant/afs"
	"github.com/viant/afs/url"
	"golang.org/x/sync/errgroup"

	"docrank/internal/domain"
	"docrank/internal/extract"
	"docrank/internal/rank"
	"docrank/internal/report"
)

const defaultWorkers = 4

// Reporter receives human-readable progress lines.
type Reporter interface {
	Progress(format string, args ...any)
	Warn(format string, args ...any)
}

// Request describes one ranking run.
type Request struct {
	Persona   string
	Task      string
	InputDir  string
	Documents []string
	OutputURL string
}

// SkippedDocument records a document that contributed no units and why.
type SkippedDocument struct {
	Name string
	Err  error
}

// Outcome is what a ranking run produced before formatting.
type Outcome struct {
	RunID      string
	Query      string
	Candidates []domain.TextUnit
	Ranked     []domain.TextUnit
	Skipped    []SkippedDocument
}

// Options tune a RankService. Zero values fall back to defaults.
type Options struct {
	Workers             int
	TopK                int
	OutputCap           int
	SummaryMaxSentences int
	Logger              *slog.Logger
	Reporter            Reporter
	Now                 func() time.Time
}

type session struct {
	persona    string
	candidates []domain.TextUnit
}

// RankService runs the persona-driven ranking pipeline.
type RankService struct {
	fs         afs.Service
	extractor  *extract.Extractor
	scorer     *rank.Scorer
	summarizer domain.Summarizer
	writer     *report.Writer
	opts       Options

	// scoreMu serializes scorer use; the store is rebuilt on every Score.
	scoreMu sync.Mutex
	mu      sync.Mutex
	last    *session
}

func NewRankService(fs afs.Service, extractor *extract.Extractor, scorer *rank.Scorer, summarizer domain.Summarizer, opts Options) *RankService {
	if fs == nil {
		fs = afs.New()
	}
	if opts.Workers <= 0 {
		opts.Workers = defaultWorkers
	}
	if opts.TopK <= 0 {
		opts.TopK = rank.DefaultTopK
	}
	if opts.OutputCap <= 0 {
		opts.OutputCap = report.MaxSections
	}
	if opts.Logger == nil {
		opts.Logger = slog.Default()
	}
	if opts.Reporter == nil {
		opts.Reporter = nopReporter{}
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}
	return &RankService{
		fs:         fs,
		extractor:  extractor,
		scorer:     scorer,
		summarizer: summarizer,
		writer:     report.NewWriter(fs),
		opts:       opts,
	}
}

// Rank extracts every listed document, scores the pooled units against the
// persona/task query and keeps the best unit of up to TopK documents.
// Documents that are missing or unreadable are reported and skipped. When
// nothing survives extraction the outcome is returned with
// ErrEmptyCandidateSet.
func (s *RankService) Rank(ctx context.Context, req Request) (*Outcome, error) {
	out := &Outcome{RunID: uuid.NewString(), Query: rank.SynthesizeQuery(req.Persona, req.Task)}
	logger := s.opts.Logger.With("run", out.RunID)
	logger.Info("ranking started", "documents", len(req.Documents), "workers", s.opts.Workers)

	candidates, skipped, err := s.collect(ctx, req, logger)
	if err != nil {
		return nil, err
	}
	out.Candidates, out.Skipped = candidates, skipped
	if len(candidates) == 0 {
		logger.Warn("no candidate units", "skipped", len(skipped))
		return out, domain.ErrEmptyCandidateSet
	}

	scored, err := s.score(ctx, candidates, out.Query)
	if err != nil {
		logger.Error("scoring failed", "error", err)
		return nil, err
	}
	out.Candidates = scored
	out.Ranked = rank.Select(scored, s.opts.TopK)
	logger.Info("ranking finished", "candidates", len(scored), "selected", len(out.Ranked))

	s.mu.Lock()
	s.last = &session{persona: req.Persona, candidates: candidates}
	s.mu.Unlock()
	return out, nil
}

// Run ranks and writes the formatted result to req.OutputURL. Nothing is
// written when ranking fails, including the empty candidate case.
func (s *RankService) Run(ctx context.Context, req Request) (*Outcome, *report.Result, error) {
	out, err := s.Rank(ctx, req)
	if err != nil {
		return out, nil, err
	}
	res := report.Build(out.Ranked, req.Persona, req.Task, s.opts.Now(), s.opts.OutputCap)
	if err := s.writer.Write(ctx, req.OutputURL, res); err != nil {
		return out, nil, err
	}
	s.opts.Logger.Info("result written", "run", out.RunID, "url", req.OutputURL, "sections", len(res.ExtractedSections))
	return out, res, nil
}

// Rerank scores the candidates of the last Rank against a new task for the
// same persona.
func (s *RankService) Rerank(ctx context.Context, task string) ([]domain.TextUnit, error) {
	s.mu.Lock()
	sess := s.last
	s.mu.Unlock()
	if sess == nil {
		return nil, domain.ErrEmptyCandidateSet
	}
	scored, err := s.score(ctx, sess.candidates, rank.SynthesizeQuery(sess.persona, task))
	if err != nil {
		return nil, err
	}
	return rank.Select(scored, s.opts.TopK), nil
}

// Summary condenses the texts of units into a few sentences. It returns an
// empty string when no summarizer is configured.
func (s *RankService) Summary(units []domain.TextUnit) string {
	if s.summarizer == nil || len(units) == 0 {
		return ""
	}
	texts := make([]string, len(units))
	for i, u := range units {
		texts[i] = u.Text
	}
	summary, err := s.summarizer.Summarize(strings.Join(texts, "\n"), s.opts.SummaryMaxSentences)
	if err != nil {
		s.opts.Logger.Warn("summary failed", "error", err)
		return ""
	}
	return summary
}

func (s *RankService) score(ctx context.Context, units []domain.TextUnit, query string) ([]domain.TextUnit, error) {
	s.scoreMu.Lock()
	defer s.scoreMu.Unlock()
	return s.scorer.Score(ctx, units, query)
}

// collect extracts documents concurrently. Each worker fills its own slot so
// pooling after Wait follows document-list order regardless of scheduling.
func (s *RankService) collect(ctx context.Context, req Request, logger *slog.Logger) ([]domain.TextUnit, []SkippedDocument, error) {
	perDoc := make([][]domain.TextUnit, len(req.Documents))
	errs := make([]error, len(req.Documents))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(s.opts.Workers)
	for i, name := range req.Documents {
		g.Go(func() error {
			perDoc[i], errs[i] = s.extractDocument(gctx, req.InputDir, name, logger)
			return nil
		})
	}
	_ = g.Wait()
	if err := ctx.Err(); err != nil {
		return nil, nil, err
	}

	var pooled []domain.TextUnit
	var skipped []SkippedDocument
	for i, name := range req.Documents {
		if errs[i] != nil {
			skipped = append(skipped, SkippedDocument{Name: name, Err: errs[i]})
			continue
		}
		pooled = append(pooled, perDoc[i]...)
	}
	return pooled, skipped, nil
}

func (s *RankService) extractDocument(ctx context.Context, dir, name string, logger *slog.Logger) ([]domain.TextUnit, error) {
	URL := url.Join(dir, name)
	ok, err := s.fs.Exists(ctx, URL)
	if err != nil || !ok {
		s.opts.Reporter.Warn("File not found: %s", name)
		logger.Warn("document missing", "document", name, "url", URL)
		return nil, fmt.Errorf("%w: %s", domain.ErrMissingInputFile, name)
	}
	s.opts.Reporter.Progress("Reading %s...", name)

	data, err := s.fs.DownloadWithURL(ctx, URL)
	if err != nil {
		s.opts.Reporter.Warn("Could not read %s: %v", name, err)
		logger.Warn("document download failed", "document", name, "error", err)
		return nil, fmt.Errorf("%w: %s: %w", domain.ErrUnreadableDocument, name, err)
	}
	units, err := s.extractor.Extract(domain.Document{Name: path.Base(name), URL: URL, Data: data})
	if err != nil {
		s.opts.Reporter.Warn("Could not read %s: %v", name, err)
		level := slog.LevelWarn
		if errors.Is(err, domain.ErrUnsupportedFormat) {
			level = slog.LevelInfo
		}
		logger.Log(ctx, level, "document skipped", "document", name, "error", err)
		return nil, err
	}
	collected := slices.Collect(units)
	logger.Debug("document extracted", "document", name, "units", len(collected))
	return collected, nil
}

type nopReporter struct{}

func (nopReporter) Progress(string, ...any) {}
func (nopReporter) Warn(string, ...any)     {}
