package reports

import (
	"github.com/minkyuuuu/kiwoom-dashboard/internal/common"
	"github.com/minkyuuuu/kiwoom-dashboard/internal/models"
)

// QuoteView is a market index prepared for display. Zero-equivalent figures are empty.
type QuoteView struct {
	Value         string       `json:"value"`
	ChangePercent string       `json:"change_percent"`
	ChangeAmount  string       `json:"change_amount"`
	Trend         common.Trend `json:"trend"`
}

// EntryView is one ranking row prepared for display.
type EntryView struct {
	Rank          int          `json:"rank"`
	Name          string       `json:"name"`
	Price         string       `json:"price,omitempty"`
	ChangePercent string       `json:"change_percent"`
	Trend         common.Trend `json:"trend"`
}

// View is the display projection of one report for a view mode.
type View struct {
	ID             string          `json:"id"`
	Date           string          `json:"date"`
	Title          string          `json:"title"`
	Timestamp      string          `json:"timestamp"`
	Mode           models.ViewMode `json:"mode"`
	KOSPI          QuoteView       `json:"kospi"`
	KOSDAQ         QuoteView       `json:"kosdaq"`
	Stocks         []EntryView     `json:"stocks"`
	ThemesByRank   []EntryView     `json:"themes_by_rank"`
	ThemesByChange []EntryView     `json:"themes_by_change"`
}

// BuildView formats a report for display in the given mode.
func BuildView(r models.Report, mode models.ViewMode) View {
	return View{
		ID:             r.ID,
		Date:           r.Date,
		Title:          r.Title,
		Timestamp:      r.Timestamp,
		Mode:           mode,
		KOSPI:          quoteView(r.MarketStatus.KOSPI),
		KOSDAQ:         quoteView(r.MarketStatus.KOSDAQ),
		Stocks:         entryViews(r.Stocks(mode), true),
		ThemesByRank:   entryViews(r.ThemesByRank, false),
		ThemesByChange: entryViews(r.ThemesByChange, false),
	}
}

func quoteView(q models.MarketQuote) QuoteView {
	return QuoteView{
		Value:         common.DisplayIndex(q.Value),
		ChangePercent: common.DisplayChangePercent(q.ChangePercent),
		ChangeAmount:  common.DisplayChangeAmount(q.ChangeAmount),
		Trend:         common.TrendOf(q.ChangePercent),
	}
}

func entryViews(entries []models.RankedEntry, withPrice bool) []EntryView {
	out := make([]EntryView, 0, len(entries))
	for _, e := range entries {
		v := EntryView{
			Rank:          e.Rank,
			Name:          e.Name,
			ChangePercent: common.FormatPercent(e.ChangePercent),
			Trend:         common.TrendOf(e.ChangePercent),
		}
		if withPrice {
			v.Price = common.FormatPrice(e.Price)
		}
		out = append(out, v)
	}
	return out
}
