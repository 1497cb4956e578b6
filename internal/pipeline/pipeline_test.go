package pipeline

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/minkyuuuu/kiwoom-dashboard/internal/cache"
	"github.com/minkyuuuu/kiwoom-dashboard/internal/common"
	"github.com/minkyuuuu/kiwoom-dashboard/internal/models"
	"github.com/minkyuuuu/kiwoom-dashboard/internal/reports"
	"github.com/minkyuuuu/kiwoom-dashboard/internal/slots"
)

const fullResponse = `{
  "extractedTime": "09:15",
  "marketStatus": {
    "kospi": "2,645.27", "kospiChange": "+0.52%", "kospiChangeAmount": "+13.70",
    "kosdaq": "868.44", "kosdaqChange": "-0.31%", "kosdaqChangeAmount": "-2.70"
  },
  "realtimeStocks": [
    {"rank": 1, "name": "Samsung Electronics", "price": "72,500", "changePercent": "+1.26%"},
    {"rank": 2, "name": "SK hynix", "price": "178,000", "changePercent": "-0.56%"}
  ],
  "cumulativeStocks": [
    {"rank": 1, "name": "Ecopro", "price": "98,700", "changePercent": "+4.10%"}
  ],
  "themesByRank": [
    {"rank": 1, "name": "Semiconductors", "changePercent": "+2.40%"}
  ],
  "themesByChange": [
    {"rank": 1, "name": "Secondary batteries", "changePercent": "+5.02%"}
  ]
}`

// scriptedExtractor returns the scripted outcomes in order, then the last one forever.
type scriptedExtractor struct {
	mu       sync.Mutex
	outcomes []outcome
	calls    int
	requests []*Request
}

type outcome struct {
	text string
	err  error
}

func (e *scriptedExtractor) Extract(_ context.Context, req *Request) (string, error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.requests = append(e.requests, req)
	o := e.outcomes[min(e.calls, len(e.outcomes)-1)]
	e.calls++
	return o.text, o.err
}

func failures(n int, then outcome) []outcome {
	out := make([]outcome, 0, n+1)
	for i := range n {
		out = append(out, outcome{err: fmt.Errorf("HTTP error! status: 503 #%d", i+1)})
	}
	return append(out, then)
}

type recordingSleeper struct {
	delays []time.Duration
}

func (r *recordingSleeper) sleep(_ context.Context, d time.Duration) error {
	r.delays = append(r.delays, d)
	return nil
}

func png(name string) models.Upload {
	return models.Upload{Name: name, MIMEType: "image/png", Data: []byte("png:" + name)}
}

type fixture struct {
	slots    *slots.Store
	reports  *reports.Store
	extract  *scriptedExtractor
	sleeper  *recordingSleeper
	pipeline *Pipeline
}

func newFixture(t *testing.T, outcomes ...outcome) *fixture {
	t.Helper()
	st := slots.NewStore(cache.New(0))
	rs, err := reports.NewStore(context.Background(), nil, common.NewSilentLogger())
	if err != nil {
		t.Fatalf("reports.NewStore failed: %v", err)
	}
	ex := &scriptedExtractor{outcomes: outcomes}
	sl := &recordingSleeper{}
	clock := func() time.Time { return time.Date(2026, 3, 4, 9, 20, 0, 0, time.Local) }
	p := New(st, rs, ex, common.NewSilentLogger(), WithSleeper(sl.sleep), WithClock(clock))
	return &fixture{slots: st, reports: rs, extract: ex, sleeper: sl, pipeline: p}
}

func (f *fixture) load(t *testing.T) {
	t.Helper()
	if _, err := f.slots.Assign(models.SlotRealtime, []models.Upload{png("rt1"), png("rt2")}); err != nil {
		t.Fatalf("Assign failed: %v", err)
	}
	if _, err := f.slots.Assign(models.SlotThemesViews, []models.Upload{png("tv")}); err != nil {
		t.Fatalf("Assign failed: %v", err)
	}
}

func TestRun_RetriesWithExponentialBackoff(t *testing.T) {
	f := newFixture(t, failures(5, outcome{text: fullResponse})...)
	f.load(t)

	report, err := f.pipeline.Run(context.Background(), "2026-03-04")
	if err != nil {
		t.Fatalf("Run failed: %v", err)
	}
	if report == nil || report.Title != "morning (09:15)" {
		t.Fatalf("unexpected report: %+v", report)
	}

	want := []time.Duration{1000 * time.Millisecond, 2000 * time.Millisecond, 4000 * time.Millisecond, 8000 * time.Millisecond, 16000 * time.Millisecond}
	if len(f.sleeper.delays) != len(want) {
		t.Fatalf("expected %d delays, got %v", len(want), f.sleeper.delays)
	}
	for i := range want {
		if f.sleeper.delays[i] != want[i] {
			t.Errorf("delay %d: expected %v, got %v", i, want[i], f.sleeper.delays[i])
		}
	}
	if f.extract.calls != 6 {
		t.Errorf("expected 6 calls, got %d", f.extract.calls)
	}
}

func TestRun_ExhaustedRetries(t *testing.T) {
	f := newFixture(t, failures(6, outcome{text: fullResponse})...)
	f.load(t)

	_, err := f.pipeline.Run(context.Background(), "2026-03-04")
	var rerr *RemoteExtractionError
	if !errors.As(err, &rerr) {
		t.Fatalf("expected RemoteExtractionError, got %v", err)
	}
	if rerr.Attempts != 6 || rerr.Empty {
		t.Errorf("expected 6 non-empty attempts, got %+v", rerr)
	}
	if !strings.Contains(rerr.Err.Error(), "#6") {
		t.Errorf("expected last failure to be propagated, got %v", rerr.Err)
	}
	if f.extract.calls != 6 {
		t.Errorf("expected no attempts after the sixth, got %d calls", f.extract.calls)
	}
	if len(f.sleeper.delays) != 5 {
		t.Errorf("expected 5 delays, got %d", len(f.sleeper.delays))
	}
}

func TestRun_EmptyResponseIsNotRetried(t *testing.T) {
	f := newFixture(t, outcome{text: ""})
	f.load(t)

	_, err := f.pipeline.Run(context.Background(), "2026-03-04")
	var rerr *RemoteExtractionError
	if !errors.As(err, &rerr) || !rerr.Empty {
		t.Fatalf("expected empty RemoteExtractionError, got %v", err)
	}
	if f.extract.calls != 1 {
		t.Errorf("expected a single call, got %d", f.extract.calls)
	}
}

func TestRun_MalformedResponse(t *testing.T) {
	f := newFixture(t, outcome{text: "not json"})
	f.load(t)

	_, err := f.pipeline.Run(context.Background(), "2026-03-04")
	var merr *MalformedResponseError
	if !errors.As(err, &merr) {
		t.Fatalf("expected MalformedResponseError, got %v", err)
	}
}

func TestRun_Preconditions(t *testing.T) {
	tests := []struct {
		name    string
		assign  map[models.SlotName]int
		wantErr bool
	}{
		{"themes only", map[models.SlotName]int{models.SlotThemesViews: 1}, true},
		{"stocks only", map[models.SlotName]int{models.SlotRealtime: 1}, true},
		{"nothing", map[models.SlotName]int{}, true},
		{"realtime and views", map[models.SlotName]int{models.SlotRealtime: 1, models.SlotThemesViews: 1}, false},
		{"cumulative and change", map[models.SlotName]int{models.SlotCumulative: 1, models.SlotThemesChange: 1}, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newFixture(t, outcome{text: fullResponse})
			for slot, n := range tt.assign {
				for i := range n {
					if _, err := f.slots.Assign(slot, []models.Upload{png(fmt.Sprintf("%s-%d", slot, i))}); err != nil {
						t.Fatalf("Assign failed: %v", err)
					}
				}
			}

			_, err := f.pipeline.Run(context.Background(), "2026-03-04")
			var verr *ValidationError
			if tt.wantErr {
				if !errors.As(err, &verr) {
					t.Fatalf("expected ValidationError, got %v", err)
				}
				if f.extract.calls != 0 {
					t.Errorf("validation failure must not call the endpoint, got %d calls", f.extract.calls)
				}
				if got := f.pipeline.Status().LastError; got != ValidationMessage {
					t.Errorf("expected validation message, got %q", got)
				}
				return
			}
			if err != nil {
				t.Fatalf("expected success, got %v", err)
			}
			if f.extract.calls != 1 {
				t.Errorf("expected one call, got %d", f.extract.calls)
			}
		})
	}
}

func TestRun_RequestLayout(t *testing.T) {
	f := newFixture(t, outcome{text: fullResponse})
	f.load(t)
	if _, err := f.slots.Assign(models.SlotThemesChange, []models.Upload{png("tc")}); err != nil {
		t.Fatalf("Assign failed: %v", err)
	}

	if _, err := f.pipeline.Run(context.Background(), "2026-03-04"); err != nil {
		t.Fatalf("Run failed: %v", err)
	}

	req := f.extract.requests[0]
	if req.SystemInstruction != SystemInstruction || req.ResponseMIMEType != "application/json" {
		t.Errorf("unexpected request envelope: %q %q", req.SystemInstruction[:20], req.ResponseMIMEType)
	}

	wantText := []string{
		"Image Source [30-second interval stock ranking]:", "",
		"Image Source [30-second interval stock ranking]:", "",
		"Image Source [themes by view rank]:", "",
		"Image Source [themes by change rate]:", "",
		Instruction,
	}
	wantData := []string{"", "png:rt1", "", "png:rt2", "", "png:tv", "", "png:tc", ""}
	if len(req.Parts) != len(wantText) {
		t.Fatalf("expected %d parts, got %d", len(wantText), len(req.Parts))
	}
	for i, p := range req.Parts {
		if p.Text != wantText[i] || string(p.Data) != wantData[i] {
			t.Errorf("part %d: got text=%q data=%q", i, p.Text, p.Data)
		}
		if p.IsImage() && p.MIMEType != "image/png" {
			t.Errorf("part %d: expected image/png, got %s", i, p.MIMEType)
		}
	}
}

func TestRun_SuccessStoresReportAndClearsSlots(t *testing.T) {
	f := newFixture(t, outcome{text: fullResponse})
	f.load(t)

	report, err := f.pipeline.Run(context.Background(), "2026-03-04")
	if err != nil {
		t.Fatalf("Run failed: %v", err)
	}

	// Verbatim round trip of every extracted field.
	if report.Date != "2026-03-04" || report.Timestamp != "09:15" {
		t.Errorf("unexpected header: %+v", report)
	}
	ms := report.MarketStatus
	if ms.KOSPI != (models.MarketQuote{Value: "2,645.27", ChangePercent: "+0.52%", ChangeAmount: "+13.70"}) {
		t.Errorf("unexpected kospi: %+v", ms.KOSPI)
	}
	if ms.KOSDAQ != (models.MarketQuote{Value: "868.44", ChangePercent: "-0.31%", ChangeAmount: "-2.70"}) {
		t.Errorf("unexpected kosdaq: %+v", ms.KOSDAQ)
	}
	if len(report.RealtimeStocks) != 2 || report.RealtimeStocks[1] != (models.RankedEntry{Rank: 2, Name: "SK hynix", Price: "178,000", ChangePercent: "-0.56%"}) {
		t.Errorf("unexpected realtime stocks: %+v", report.RealtimeStocks)
	}
	if len(report.CumulativeStocks) != 1 || report.CumulativeStocks[0].Name != "Ecopro" {
		t.Errorf("unexpected cumulative stocks: %+v", report.CumulativeStocks)
	}
	if report.ThemesByRank[0] != (models.RankedEntry{Rank: 1, Name: "Semiconductors", ChangePercent: "+2.40%"}) {
		t.Errorf("unexpected themes by rank: %+v", report.ThemesByRank)
	}
	if report.ThemesByChange[0].Name != "Secondary batteries" {
		t.Errorf("unexpected themes by change: %+v", report.ThemesByChange)
	}

	stored, err := f.reports.Get(report.ID)
	if err != nil {
		t.Fatalf("report not stored: %v", err)
	}
	if stored.Title != "morning (09:15)" {
		t.Errorf("unexpected stored title %q", stored.Title)
	}
	sel := f.reports.Selection()
	if sel.ActiveID != report.ID || sel.ViewMode != models.ViewRealtime {
		t.Errorf("expected new report active in realtime view, got %+v", sel)
	}

	state := f.slots.Snapshot()
	for _, slot := range models.SlotOrder {
		if state.Count(slot) != 0 {
			t.Errorf("slot %s should be cleared, holds %d", slot, state.Count(slot))
		}
	}

	status := f.pipeline.Status()
	if status.Busy || status.LastError != "" || status.LastReportID != report.ID {
		t.Errorf("unexpected status: %+v", status)
	}
}

func TestRun_FailureLeavesStateUntouched(t *testing.T) {
	f := newFixture(t, failures(6, outcome{})...)
	f.load(t)
	before := f.slots.Snapshot()

	if _, err := f.pipeline.Run(context.Background(), "2026-03-04"); err == nil {
		t.Fatal("expected failure")
	}

	after := f.slots.Snapshot()
	for _, slot := range models.SlotOrder {
		if before.Count(slot) != after.Count(slot) {
			t.Errorf("slot %s changed from %d to %d", slot, before.Count(slot), after.Count(slot))
		}
	}
	if n := len(f.reports.All()); n != 0 {
		t.Errorf("expected no reports, got %d", n)
	}

	status := f.pipeline.Status()
	if status.Busy {
		t.Error("busy flag must be cleared after failure")
	}
	if status.LastError != FailureMessage {
		t.Errorf("expected generic failure message, got %q", status.LastError)
	}
}

func TestRun_DefaultsDateToToday(t *testing.T) {
	f := newFixture(t, outcome{text: `{"extractedTime": "15:00"}`})
	f.load(t)

	report, err := f.pipeline.Run(context.Background(), "")
	if err != nil {
		t.Fatalf("Run failed: %v", err)
	}
	if report.Date != "2026-03-04" {
		t.Errorf("expected clock date, got %s", report.Date)
	}
	if report.Title != "afternoon (15:00)" {
		t.Errorf("unexpected title %q", report.Title)
	}
	if sel := f.reports.Selection(); sel.ViewMode != models.ViewCumulative {
		t.Errorf("expected cumulative view for a report without realtime stocks, got %s", sel.ViewMode)
	}
}

// blockingExtractor blocks until released so a second trigger sees the busy flag.
type blockingExtractor struct {
	started chan struct{}
	release chan struct{}
}

func (b *blockingExtractor) Extract(ctx context.Context, _ *Request) (string, error) {
	close(b.started)
	<-b.release
	return fullResponse, nil
}

func TestRun_BusyTriggerIsIgnored(t *testing.T) {
	st := slots.NewStore(cache.New(0))
	rs, err := reports.NewStore(context.Background(), nil, common.NewSilentLogger())
	if err != nil {
		t.Fatalf("reports.NewStore failed: %v", err)
	}
	ex := &blockingExtractor{started: make(chan struct{}), release: make(chan struct{})}
	p := New(st, rs, ex, common.NewSilentLogger())

	if _, err := st.Assign(models.SlotCumulative, []models.Upload{png("c")}); err != nil {
		t.Fatalf("Assign failed: %v", err)
	}
	if _, err := st.Assign(models.SlotThemesChange, []models.Upload{png("t")}); err != nil {
		t.Fatalf("Assign failed: %v", err)
	}

	done := make(chan error, 1)
	go func() {
		_, err := p.Run(context.Background(), "2026-03-04")
		done <- err
	}()
	<-ex.started

	if !p.Status().Busy {
		t.Error("expected busy while a run is in flight")
	}
	if _, err := p.Run(context.Background(), "2026-03-04"); !errors.Is(err, ErrBusy) {
		t.Errorf("expected ErrBusy, got %v", err)
	}
	if p.Status().LastError != "" {
		t.Error("a busy trigger must not record an error")
	}

	close(ex.release)
	if err := <-done; err != nil {
		t.Fatalf("first run failed: %v", err)
	}
	if p.Status().Busy {
		t.Error("busy flag must be cleared after the run")
	}
	if n := len(rs.All()); n != 1 {
		t.Errorf("expected exactly one report, got %d", n)
	}
}

func TestRun_StorageFailureIsGeneric(t *testing.T) {
	f := newFixture(t, outcome{text: fullResponse})
	f.load(t)
	f.pipeline.reports = failingSink{}

	_, err := f.pipeline.Run(context.Background(), "2026-03-04")
	if err == nil {
		t.Fatal("expected storage failure")
	}
	if Kind(err) != "internal" {
		t.Errorf("expected internal kind, got %s", Kind(err))
	}
	if UserMessage(err) != FailureMessage {
		t.Errorf("expected generic message, got %q", UserMessage(err))
	}
	if f.slots.Snapshot().Count(models.SlotRealtime) != 2 {
		t.Error("slots must not be cleared when storing fails")
	}
}

type failingSink struct{}

func (failingSink) Insert(context.Context, models.Report) (reports.Selection, error) {
	return reports.Selection{}, errors.New("storage unavailable")
}
