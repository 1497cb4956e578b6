package models

import "time"

// TimestampCurrent is stored when no time could be extracted from the screenshots.
const TimestampCurrent = "current"

// ViewMode selects which stock ranking of the active report is displayed.
type ViewMode string

const (
	ViewRealtime   ViewMode = "realtime"
	ViewCumulative ViewMode = "cumulative"
)

// ParseViewMode returns the view mode for s and whether it is valid.
func ParseViewMode(s string) (ViewMode, bool) {
	switch ViewMode(s) {
	case ViewRealtime, ViewCumulative:
		return ViewMode(s), true
	}
	return "", false
}

// MarketQuote is the index snapshot of one market.
type MarketQuote struct {
	Value         string `json:"value"`
	ChangePercent string `json:"change_percent"`
	ChangeAmount  string `json:"change_amount"`
}

// MarketStatus holds the KOSPI and KOSDAQ index snapshots.
type MarketStatus struct {
	KOSPI  MarketQuote `json:"kospi"`
	KOSDAQ MarketQuote `json:"kosdaq"`
}

// RankedEntry is one row of a stock or theme ranking.
type RankedEntry struct {
	Rank          int    `json:"rank"`
	Name          string `json:"name"`
	Price         string `json:"price,omitempty"`
	ChangePercent string `json:"change_percent"`
}

// Report is one immutable extraction result.
type Report struct {
	ID               string        `json:"id" badgerhold:"key"`
	Date             string        `json:"date"`
	Title            string        `json:"title"`
	Timestamp        string        `json:"timestamp"`
	CreatedAt        time.Time     `json:"created_at"`
	MarketStatus     MarketStatus  `json:"market_status"`
	RealtimeStocks   []RankedEntry `json:"realtime_stocks"`
	CumulativeStocks []RankedEntry `json:"cumulative_stocks"`
	ThemesByRank     []RankedEntry `json:"themes_by_rank"`
	ThemesByChange   []RankedEntry `json:"themes_by_change"`
}

// DefaultViewMode is the view shown when the report becomes active.
func (r *Report) DefaultViewMode() ViewMode {
	if len(r.RealtimeStocks) > 0 {
		return ViewRealtime
	}
	return ViewCumulative
}

// Stocks returns the stock ranking for the given view.
func (r *Report) Stocks(mode ViewMode) []RankedEntry {
	if mode == ViewCumulative {
		return r.CumulativeStocks
	}
	return r.RealtimeStocks
}
