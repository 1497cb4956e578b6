package app

import (
	"context"
	"fmt"
	"time"

	"github.com/minkyuuuu/kiwoom-dashboard/internal/cache"
	"github.com/minkyuuuu/kiwoom-dashboard/internal/calendar"
	"github.com/minkyuuuu/kiwoom-dashboard/internal/client"
	"github.com/minkyuuuu/kiwoom-dashboard/internal/common"
	"github.com/minkyuuuu/kiwoom-dashboard/internal/config"
	"github.com/minkyuuuu/kiwoom-dashboard/internal/handlers"
	"github.com/minkyuuuu/kiwoom-dashboard/internal/interfaces"
	"github.com/minkyuuuu/kiwoom-dashboard/internal/mcp"
	"github.com/minkyuuuu/kiwoom-dashboard/internal/pipeline"
	"github.com/minkyuuuu/kiwoom-dashboard/internal/reports"
	"github.com/minkyuuuu/kiwoom-dashboard/internal/slots"
	"github.com/minkyuuuu/kiwoom-dashboard/internal/storage"
)

// App holds all application components and dependencies.
type App struct {
	Config *config.Config
	Logger *common.Logger

	Storage   interfaces.StorageManager
	Previews  *cache.PreviewCache
	Slots     *slots.Store
	Reports   *reports.Store
	Navigator *calendar.Navigator
	Pipeline  *pipeline.Pipeline

	// HTTP handlers
	HealthHandler   *handlers.HealthHandler
	VersionHandler  *handlers.VersionHandler
	SlotsHandler    *handlers.SlotsHandler
	AnalysisHandler *handlers.AnalysisHandler
	ReportsHandler  *handlers.ReportsHandler
	CalendarHandler *handlers.CalendarHandler
	MCPHandler      *mcp.Handler
}

// Option overrides a component built by New.
type Option func(*options)

type options struct {
	extractor pipeline.Extractor
	clock     func() time.Time
	sleeper   pipeline.Sleeper
}

// WithExtractor replaces the Gemini client.
func WithExtractor(e pipeline.Extractor) Option {
	return func(o *options) { o.extractor = e }
}

// WithClock sets the clock used for the calendar and report dates.
func WithClock(now func() time.Time) Option {
	return func(o *options) { o.clock = now }
}

// WithSleeper sets the wait used between extraction retries.
func WithSleeper(s pipeline.Sleeper) Option {
	return func(o *options) { o.sleeper = s }
}

// New initializes the application with all dependencies.
func New(cfg *config.Config, logger *common.Logger, opts ...Option) (*App, error) {
	o := options{clock: time.Now}
	for _, opt := range opts {
		opt(&o)
	}

	a := &App{
		Config: cfg,
		Logger: logger,
	}

	if err := a.initStores(); err != nil {
		return nil, err
	}

	extractor := o.extractor
	if extractor == nil {
		gemini, err := client.NewGeminiClient(context.Background(), client.GeminiOptions{
			APIKey:  cfg.Gemini.APIKey,
			Model:   cfg.Gemini.Model,
			BaseURL: cfg.Gemini.BaseURL,
			Timeout: cfg.Gemini.GetTimeout(),
		}, logger)
		if err != nil {
			a.Close()
			return nil, fmt.Errorf("failed to create Gemini client: %w", err)
		}
		extractor = gemini
	}

	a.Navigator = calendar.NewNavigator(o.clock)

	pipelineOpts := []pipeline.Option{
		pipeline.WithBackoff(pipeline.Backoff{
			MaxRetries: cfg.Analysis.MaxRetries,
			Initial:    cfg.Analysis.GetInitialBackoff(),
		}),
		pipeline.WithClock(o.clock),
	}
	if o.sleeper != nil {
		pipelineOpts = append(pipelineOpts, pipeline.WithSleeper(o.sleeper))
	}
	a.Pipeline = pipeline.New(a.Slots, a.Reports, extractor, logger, pipelineOpts...)

	a.initHandlers()

	logger.Info().
		Str("model", cfg.Gemini.Model).
		Int("max_retries", cfg.Analysis.MaxRetries).
		Msg("application initialization complete")

	return a, nil
}

func (a *App) initStores() error {
	mgr, err := storage.NewStorageManager(a.Logger)
	if err != nil {
		return fmt.Errorf("failed to create storage: %w", err)
	}
	a.Storage = mgr

	a.Reports, err = reports.NewStore(context.Background(), mgr.ReportStorage(), a.Logger)
	if err != nil {
		mgr.Close()
		return err
	}

	a.Previews = cache.New(a.Config.Previews.MaxEntries)
	a.Slots = slots.NewStore(a.Previews)
	return nil
}

// initHandlers initializes all HTTP handlers.
func (a *App) initHandlers() {
	selected := a.Navigator.Selected
	busy := func() bool { return a.Pipeline.Status().Busy }

	a.HealthHandler = handlers.NewHealthHandler(a.Logger, busy)
	a.VersionHandler = handlers.NewVersionHandler(a.Logger)
	a.SlotsHandler = handlers.NewSlotsHandler(a.Logger, a.Slots, a.Previews)
	a.AnalysisHandler = handlers.NewAnalysisHandler(a.Logger, a.Pipeline, selected)
	a.ReportsHandler = handlers.NewReportsHandler(a.Logger, a.Reports, selected)
	a.CalendarHandler = handlers.NewCalendarHandler(a.Logger, a.Navigator)
	a.MCPHandler = mcp.NewHandler(a.Reports, a.Pipeline, selected, a.Logger)

	a.Logger.Debug().Msg("HTTP handlers initialized")
}

// Close closes all application resources.
func (a *App) Close() error {
	if a.Storage != nil {
		return a.Storage.Close()
	}
	return nil
}
