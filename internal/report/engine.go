package report

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/evcraddock/safety-report/internal/alternative"
	"github.com/evcraddock/safety-report/internal/geo"
	"github.com/evcraddock/safety-report/internal/listing"
	"github.com/evcraddock/safety-report/internal/metrics"
	"github.com/evcraddock/safety-report/internal/scoring"
	"github.com/evcraddock/safety-report/internal/signal"
	"github.com/evcraddock/safety-report/internal/takeaway"
)

// ErrListingNotFound is returned by BuildForURL when no snapshot contains
// the requested listing.
var ErrListingNotFound = errors.New("listing not found")

// Feed returns a point-in-time snapshot of every listing in a market.
type Feed interface {
	Snapshot(ctx context.Context, market string) ([]listing.Listing, error)
}

// MarketLister is implemented by feeds that can enumerate their markets.
type MarketLister interface {
	Markets(ctx context.Context) ([]string, error)
}

// SnippetSource returns stored social comments and transcripts for a
// subject key.
type SnippetSource interface {
	ListBySubject(ctx context.Context, key string) ([]signal.Snippet, error)
}

// Engine builds reports. It holds no per-request state.
type Engine struct {
	scorer      *scoring.Scorer
	classifier  *signal.Classifier
	synthesizer *takeaway.Synthesizer
	ranker      *alternative.Ranker
	feed        Feed
	snippets    SnippetSource
	markets     []string
	limit       int
	now         func() time.Time
}

// Option configures an Engine.
type Option func(*Engine)

// WithFeed sets the listing feed used for alternatives and URL lookup.
func WithFeed(f Feed) Option {
	return func(e *Engine) {
		e.feed = f
	}
}

// WithSnippets sets the source of social comments and transcripts.
func WithSnippets(s SnippetSource) Option {
	return func(e *Engine) {
		e.snippets = s
	}
}

// WithMarkets sets the markets BuildForURL searches when none is given
// and the feed cannot list its own.
func WithMarkets(markets ...string) Option {
	return func(e *Engine) {
		e.markets = markets
	}
}

// WithAlternativesLimit sets how many alternatives a report carries.
func WithAlternativesLimit(n int) Option {
	return func(e *Engine) {
		if n > 0 {
			e.limit = n
		}
	}
}

// WithClock replaces time.Now for GeneratedAt.
func WithClock(now func() time.Time) Option {
	return func(e *Engine) {
		e.now = now
	}
}

// NewEngine creates a report engine.
func NewEngine(scorer *scoring.Scorer, classifier *signal.Classifier, synthesizer *takeaway.Synthesizer, ranker *alternative.Ranker, opts ...Option) *Engine {
	e := &Engine{
		scorer:      scorer,
		classifier:  classifier,
		synthesizer: synthesizer,
		ranker:      ranker,
		limit:       alternative.DefaultLimit,
		now:         time.Now,
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// BuildForURL canonicalizes rawURL, finds the listing in the market
// snapshot and builds its report. An empty market searches every known
// market.
func (e *Engine) BuildForURL(ctx context.Context, rawURL, market string) (*Report, error) {
	target, snapshot, err := e.Lookup(ctx, rawURL, market)
	if err != nil {
		if errors.Is(err, ErrListingNotFound) {
			metrics.RecordReport("not_found")
		} else {
			metrics.RecordReport("error")
		}
		return nil, err
	}
	return e.build(ctx, target, snapshot)
}

// Lookup finds the listing for rawURL and returns it with the snapshot it
// was found in.
func (e *Engine) Lookup(ctx context.Context, rawURL, market string) (listing.Listing, []listing.Listing, error) {
	canonical := listing.CanonicalURL(rawURL)
	if canonical == "" {
		return listing.Listing{}, nil, fmt.Errorf("listing url is required")
	}
	if e.feed == nil {
		return listing.Listing{}, nil, fmt.Errorf("no listing feed configured")
	}

	markets, err := e.searchMarkets(ctx, market)
	if err != nil {
		return listing.Listing{}, nil, err
	}

	var lastErr error
	for _, m := range markets {
		snapshot, err := e.feed.Snapshot(ctx, m)
		if err != nil {
			metrics.RecordUpstreamError("feed")
			lastErr = err
			slog.WarnContext(ctx, "feed snapshot failed", "market", m, "error", err)
			continue
		}
		for _, l := range snapshot {
			if l.CanonicalURL() == canonical {
				return l, snapshot, nil
			}
		}
	}
	if lastErr != nil {
		return listing.Listing{}, nil, fmt.Errorf("looking up %s: %w", canonical, lastErr)
	}
	return listing.Listing{}, nil, fmt.Errorf("%s: %w", canonical, ErrListingNotFound)
}

func (e *Engine) searchMarkets(ctx context.Context, market string) ([]string, error) {
	if market != "" {
		return []string{market}, nil
	}
	if ml, ok := e.feed.(MarketLister); ok {
		markets, err := ml.Markets(ctx)
		if err != nil {
			return nil, fmt.Errorf("listing markets: %w", err)
		}
		if len(markets) > 0 {
			return markets, nil
		}
	}
	if len(e.markets) == 0 {
		return nil, fmt.Errorf("market is required")
	}
	return e.markets, nil
}

// Build produces the report for target. Upstream failures become
// warnings and "unknown" sections; only cancellation or an unusable
// target is an error.
func (e *Engine) Build(ctx context.Context, target listing.Listing) (*Report, error) {
	return e.build(ctx, target, nil)
}

type sources struct {
	own      []signal.Snippet
	ownErr   error
	area     []signal.Snippet
	areaErr  error
	pool     []listing.Listing
	poolErr  error
	cellKey  string
	hasCell  bool
	noMarket bool
}

func (e *Engine) build(ctx context.Context, target listing.Listing, snapshot []listing.Listing) (*Report, error) {
	if target.Location != nil {
		if err := target.Location.Validate(); err != nil {
			metrics.RecordReport("error")
			return nil, fmt.Errorf("listing %q: %w", target.ID, err)
		}
	}

	score := e.scorer.ScoreContext(ctx, target)
	r := &Report{
		Listing:     target,
		Score:       NewScoreSection(score),
		Warnings:    []string{},
		GeneratedAt: e.now(),
	}

	src := e.gather(ctx, target, snapshot)
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	own, err := e.classifier.ClassifyAll(ctx, src.own)
	if err != nil {
		return nil, err
	}
	area, err := e.classifier.ClassifyAll(ctx, src.area)
	if err != nil {
		return nil, err
	}
	recordClassified(own)
	recordClassified(area)

	r.Signals = signalSection(own)
	if src.ownErr != nil {
		r.Signals.Status = StatusUnknown
		r.warn("snippet source unavailable for listing: %v", src.ownErr)
	}

	r.ListingTakeaway = e.takeawaySection(ctx, r, target.ID, own, src.ownErr)
	if src.areaErr != nil {
		r.warn("snippet source unavailable for area %s: %v", src.cellKey, src.areaErr)
	}
	if src.hasCell {
		r.AreaTakeaway = e.takeawaySection(ctx, r, src.cellKey, area, src.areaErr)
	} else {
		r.AreaTakeaway = TakeawaySection{Status: StatusEmpty}
	}

	alts, err := e.alternatives(ctx, r, target, score, src)
	if err != nil {
		return nil, err
	}
	r.Alternatives = alts

	status := "ok"
	if len(r.Warnings) > 0 {
		status = "degraded"
	}
	metrics.RecordReport(status)
	return r, nil
}

// gather fetches snippets and the candidate pool concurrently. Failures
// are returned in sources, never as an error.
func (e *Engine) gather(ctx context.Context, target listing.Listing, snapshot []listing.Listing) sources {
	src := sources{own: reviewSnippets(target)}
	if target.HasLocation() {
		src.cellKey = geo.CellKey(target.Location.Lat, target.Location.Lon)
		src.hasCell = true
	}

	var g errgroup.Group
	var extra []signal.Snippet
	if e.snippets != nil && target.ID != "" {
		g.Go(func() error {
			var err error
			extra, err = e.snippets.ListBySubject(ctx, target.ID)
			if err != nil {
				metrics.RecordUpstreamError("snippets")
				src.ownErr = err
			}
			return nil
		})
	}
	if e.snippets != nil && src.hasCell {
		g.Go(func() error {
			area, err := e.snippets.ListBySubject(ctx, src.cellKey)
			if err != nil {
				metrics.RecordUpstreamError("snippets")
				src.areaErr = err
				return nil
			}
			src.area = area
			return nil
		})
	}

	switch {
	case snapshot != nil:
		src.pool = snapshot
	case !target.HasLocation():
	case target.Market() == "":
		src.noMarket = true
	case e.feed == nil:
		src.poolErr = errors.New("no listing feed configured")
	default:
		g.Go(func() error {
			pool, err := e.feed.Snapshot(ctx, target.Market())
			if err != nil {
				metrics.RecordUpstreamError("feed")
				src.poolErr = err
				return nil
			}
			src.pool = pool
			return nil
		})
	}

	// Every goroutine reports through src; Wait never returns an error.
	_ = g.Wait()
	if src.ownErr == nil {
		src.own = append(src.own, extra...)
	}
	return src
}

func (e *Engine) takeawaySection(ctx context.Context, r *Report, key string, classified []signal.ClassifiedSnippet, sourceErr error) TakeawaySection {
	sec := TakeawaySection{SubjectKey: key}
	if key == "" {
		sec.Status = StatusEmpty
		return sec
	}

	// A partial input set must not be cached for a whole TTL.
	if sourceErr != nil {
		t := takeaway.Synthesize(key, classified, e.now(), e.synthesizer.TTL())
		sec.Takeaway = &t
		sec.Status = StatusUnknown
		return sec
	}

	t, outcome := e.synthesizer.Get(ctx, key, classified)
	metrics.RecordTakeaway(string(outcome))
	sec.Takeaway = t
	sec.Cache = outcome
	switch {
	case outcome == takeaway.OutcomeDegraded:
		metrics.RecordUpstreamError("store")
		sec.Status = StatusUnknown
		r.warn("takeaway store unavailable for %s", key)
	case t.Empty():
		sec.Status = StatusEmpty
	default:
		sec.Status = StatusOK
	}
	return sec
}

func (e *Engine) alternatives(ctx context.Context, r *Report, target listing.Listing, score scoring.SafetyScore, src sources) (AlternativesSection, error) {
	sec := AlternativesSection{Status: StatusEmpty, Matches: []alternative.Match{}}
	switch {
	case !target.HasLocation():
		r.warn("listing has no coordinates; alternatives unavailable")
		return sec, nil
	case src.noMarket:
		r.warn("listing has no market; alternatives unavailable")
		return sec, nil
	case src.poolErr != nil:
		sec.Status = StatusUnknown
		r.warn("listing feed unavailable: %v", src.poolErr)
		return sec, nil
	}

	start := time.Now()
	matches, err := e.ranker.FindAlternativesScored(ctx, target, score, src.pool, e.limit)
	metrics.ObserveRank(time.Since(start).Seconds())
	if err != nil {
		return sec, err
	}
	if len(matches) > 0 {
		sec.Status = StatusOK
		sec.Matches = matches
	}
	return sec, nil
}

// Alternatives ranks safer candidates from pool against the same target
// score a report would display.
func (e *Engine) Alternatives(ctx context.Context, target listing.Listing, pool []listing.Listing, limit int) ([]alternative.Match, error) {
	start := time.Now()
	matches, err := e.ranker.FindAlternativesScored(ctx, target, e.scorer.ScoreContext(ctx, target), pool, limit)
	metrics.ObserveRank(time.Since(start).Seconds())
	return matches, err
}

func (r *Report) warn(format string, args ...any) {
	r.Warnings = append(r.Warnings, fmt.Sprintf(format, args...))
}

func reviewSnippets(l listing.Listing) []signal.Snippet {
	out := make([]signal.Snippet, 0, len(l.Reviews))
	for _, rv := range l.Reviews {
		out = append(out, signal.Snippet{
			Text:      rv.Text,
			Source:    signal.SourceReview,
			Author:    rv.Author,
			Timestamp: rv.CreatedAt,
			Permalink: rv.Permalink,
		})
	}
	return out
}

func signalSection(classified []signal.ClassifiedSnippet) SignalSection {
	sec := SignalSection{
		Summary:  signal.Summarize(classified),
		Relevant: []signal.ClassifiedSnippet{},
	}
	for _, c := range classified {
		if c.Relevant {
			sec.Relevant = append(sec.Relevant, c)
		}
	}
	if len(sec.Relevant) == 0 {
		sec.Status = StatusEmpty
	} else {
		sec.Status = StatusOK
	}
	return sec
}

func recordClassified(items []signal.ClassifiedSnippet) {
	for _, c := range items {
		metrics.RecordClassified(c.Relevant, string(c.Sentiment))
	}
}
