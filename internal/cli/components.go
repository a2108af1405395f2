package cli

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"

	"github.com/evcraddock/safety-report/internal/alternative"
	"github.com/evcraddock/safety-report/internal/config"
	"github.com/evcraddock/safety-report/internal/feed"
	"github.com/evcraddock/safety-report/internal/geo"
	"github.com/evcraddock/safety-report/internal/listing"
	"github.com/evcraddock/safety-report/internal/report"
	"github.com/evcraddock/safety-report/internal/scoring"
	"github.com/evcraddock/safety-report/internal/signal"
	"github.com/evcraddock/safety-report/internal/snippet"
	"github.com/evcraddock/safety-report/internal/store"
	"github.com/evcraddock/safety-report/internal/takeaway"
)

// components is the wired pipeline shared by serve and the local commands.
type components struct {
	cfg        *config.Config
	db         *sql.DB
	store      store.Backend
	listings   *listing.Repository
	snippets   *snippet.Repository
	scorer     *scoring.Scorer
	classifier *signal.Classifier
	synth      *takeaway.Synthesizer
	ranker     *alternative.Ranker
	engine     *report.Engine
}

// loadComponents reads configuration and wires every component. The
// caller must call close.
func loadComponents(ctx context.Context) (*components, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, fmt.Errorf("loading config: %w", err)
	}
	return newComponents(ctx, cfg)
}

func newComponents(ctx context.Context, cfg *config.Config) (c *components, err error) {
	table := scoring.DefaultAreaTable()
	if cfg.AreaTablePath != "" {
		table, err = scoring.LoadAreaTable(cfg.AreaTablePath)
		if err != nil {
			return nil, err
		}
	}

	var scorerOpts []scoring.Option
	if cfg.GeocoderURL != "" {
		gc, err := geo.NewClient(cfg.GeocoderURL, cfg.GeocoderRate)
		if err != nil {
			return nil, fmt.Errorf("creating geocoder: %w", err)
		}
		scorerOpts = append(scorerOpts, scoring.WithResolver(gc))
	}

	var remote *feed.Client
	if cfg.FeedURL != "" {
		remote, err = feed.NewClient(cfg.FeedURL, cfg.FeedAPIKey, cfg.FeedRate)
		if err != nil {
			return nil, fmt.Errorf("creating feed client: %w", err)
		}
	}

	database, err := openDB(cfg.DBPath)
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}
	defer func() {
		if err != nil {
			closeDB(database)
		}
	}()

	backend, err := store.Open(ctx, store.Config{
		Kind:        cfg.Store,
		SQLite:      database,
		PostgresDSN: cfg.PostgresDSN,
		RedisURL:    cfg.RedisURL,
	})
	if err != nil {
		return nil, fmt.Errorf("opening takeaway store: %w", err)
	}

	c = &components{
		cfg:        cfg,
		db:         database,
		store:      backend,
		listings:   listing.NewRepository(database),
		snippets:   snippet.NewRepository(database),
		scorer:     scoring.NewScorer(table, scorerOpts...),
		classifier: signal.NewClassifier(),
		synth:      takeaway.NewSynthesizer(backend, takeaway.WithTTL(cfg.TakeawayTTL)),
	}
	c.ranker = alternative.NewRanker(c.scorer)

	var source report.Feed = c.listings
	if remote != nil {
		source = remote
	}

	c.engine = report.NewEngine(c.scorer, c.classifier, c.synth, c.ranker,
		report.WithFeed(source),
		report.WithSnippets(c.snippets),
		report.WithMarkets(cfg.Markets...),
		report.WithAlternativesLimit(cfg.AlternativesLimit),
	)

	slog.Debug("components ready", "store", cfg.Store, "remote_feed", cfg.FeedURL != "", "geocoder", cfg.GeocoderURL != "")
	return c, nil
}

func (c *components) close() {
	if err := c.store.Close(); err != nil {
		slog.Warn("closing takeaway store", "error", err)
	}
	closeDB(c.db)
}
