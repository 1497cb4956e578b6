// Package pipeline turns the current slot contents into one report through
// the remote extraction endpoint.
package pipeline

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"github.com/minkyuuuu/kiwoom-dashboard/internal/common"
	"github.com/minkyuuuu/kiwoom-dashboard/internal/models"
	"github.com/minkyuuuu/kiwoom-dashboard/internal/reports"
)

// Extractor calls the remote extraction endpoint once. An empty string with a
// nil error means the endpoint answered without any text.
type Extractor interface {
	Extract(ctx context.Context, req *Request) (string, error)
}

// SlotSource is the slot state consumed by a run.
type SlotSource interface {
	Snapshot() models.SlotState
	Clear() models.SlotState
}

// ReportSink receives the report produced by a successful run.
type ReportSink interface {
	Insert(ctx context.Context, report models.Report) (reports.Selection, error)
}

// Status is the observable state of the pipeline.
type Status struct {
	Busy         bool   `json:"busy"`
	LastError    string `json:"last_error,omitempty"`
	LastReportID string `json:"last_report_id,omitempty"`
}

// Pipeline runs at most one analysis at a time.
type Pipeline struct {
	slots     SlotSource
	reports   ReportSink
	extractor Extractor
	logger    *common.Logger

	backoff Backoff
	sleep   Sleeper
	now     func() time.Time

	busy atomic.Bool

	mu           sync.Mutex
	lastError    string
	lastReportID string
}

// Option configures a Pipeline.
type Option func(*Pipeline)

// WithBackoff overrides the retry policy.
func WithBackoff(b Backoff) Option {
	return func(p *Pipeline) { p.backoff = b }
}

// WithSleeper overrides how retry delays are waited out.
func WithSleeper(s Sleeper) Option {
	return func(p *Pipeline) { p.sleep = s }
}

// WithClock overrides the clock used for report creation times and the default date.
func WithClock(now func() time.Time) Option {
	return func(p *Pipeline) { p.now = now }
}

// New creates a pipeline over the given slots, report sink and extractor.
func New(slots SlotSource, sink ReportSink, extractor Extractor, logger *common.Logger, opts ...Option) *Pipeline {
	if logger == nil {
		logger = common.NewSilentLogger()
	}
	p := &Pipeline{
		slots:     slots,
		reports:   sink,
		extractor: extractor,
		logger:    logger,
		backoff:   DefaultBackoff(),
		sleep:     SleepContext,
		now:       time.Now,
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// Status returns the busy flag and the outcome of the last run.
func (p *Pipeline) Status() Status {
	p.mu.Lock()
	defer p.mu.Unlock()
	return Status{
		Busy:         p.busy.Load(),
		LastError:    p.lastError,
		LastReportID: p.lastReportID,
	}
}

// Run performs one analysis for the given report date (YYYY-MM-DD; empty means
// today). On success the report is stored and every slot is cleared. On
// failure neither slots nor reports change. A call while another run is in
// flight returns ErrBusy immediately.
func (p *Pipeline) Run(ctx context.Context, date string) (*models.Report, error) {
	if !p.busy.CompareAndSwap(false, true) {
		return nil, ErrBusy
	}
	defer p.busy.Store(false)

	if date == "" {
		date = p.now().Format(time.DateOnly)
	}

	report, err := p.run(ctx, date)
	p.finish(report, err)
	return report, err
}

func (p *Pipeline) run(ctx context.Context, date string) (*models.Report, error) {
	state := p.slots.Snapshot()
	if err := Validate(state); err != nil {
		return nil, err
	}

	req := BuildRequest(state)
	p.logger.Info().
		Str("date", date).
		Int("parts", len(req.Parts)).
		Msg("analysis started")

	text, err := retry(ctx, p.backoff, p.sleep, p.logRetry, func(ctx context.Context) (string, error) {
		return p.extractor.Extract(ctx, req)
	})
	if err != nil {
		return nil, err
	}
	if text == "" {
		return nil, &RemoteExtractionError{Empty: true}
	}

	extraction, err := ParseExtraction(text)
	if err != nil {
		return nil, err
	}

	title, timestamp := DeriveTitle(extraction.ExtractedTime)
	report := models.Report{
		ID:               uuid.New().String(),
		Date:             date,
		Title:            title,
		Timestamp:        timestamp,
		CreatedAt:        p.now(),
		MarketStatus:     extraction.MarketStatus,
		RealtimeStocks:   extraction.RealtimeStocks,
		CumulativeStocks: extraction.CumulativeStocks,
		ThemesByRank:     extraction.ThemesByRank,
		ThemesByChange:   extraction.ThemesByChange,
	}

	if _, err := p.reports.Insert(ctx, report); err != nil {
		return nil, fmt.Errorf("failed to store report: %w", err)
	}
	p.slots.Clear()

	return &report, nil
}

func (p *Pipeline) finish(report *models.Report, err error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	if err != nil {
		p.lastError = UserMessage(err)
		p.logger.Warn().Err(err).Str("kind", Kind(err)).Msg("analysis failed")
		return
	}
	p.lastError = ""
	p.lastReportID = report.ID
	p.logger.Info().
		Str("report_id", report.ID).
		Str("title", report.Title).
		Msg("analysis complete")
}

func (p *Pipeline) logRetry(attempt int, delay time.Duration, err error) {
	p.logger.Warn().
		Err(err).
		Int("attempt", attempt).
		Dur("backoff", delay).
		Msg("extraction attempt failed, retrying")
}
