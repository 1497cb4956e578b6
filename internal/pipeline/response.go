package pipeline

import (
	"bytes"
	"encoding/json"
	"strconv"
	"strings"

	"github.com/minkyuuuu/kiwoom-dashboard/internal/models"
)

// List caps applied after parsing.
const (
	MaxStocks = 20
	MaxThemes = 10
)

// Placeholders for absent market figures.
const (
	PlaceholderIndex   = "-"
	PlaceholderPercent = "0%"
	PlaceholderAmount  = "0.00"
)

// Extraction is the parsed and normalized extraction result.
type Extraction struct {
	ExtractedTime    string
	MarketStatus     models.MarketStatus
	RealtimeStocks   []models.RankedEntry
	CumulativeStocks []models.RankedEntry
	ThemesByRank     []models.RankedEntry
	ThemesByChange   []models.RankedEntry
}

// lenientString accepts a JSON string, number or boolean. Null, objects and
// arrays leave it unset.
type lenientString struct {
	Value string
	Set   bool
}

func (s *lenientString) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	switch {
	case bytes.Equal(data, []byte("null")):
		return nil
	case len(data) > 0 && data[0] == '"':
		if err := json.Unmarshal(data, &s.Value); err != nil {
			return err
		}
	case len(data) > 0 && (data[0] == '{' || data[0] == '['):
		return nil
	default:
		s.Value = string(data)
	}
	s.Value = strings.TrimSpace(s.Value)
	s.Set = s.Value != ""
	return nil
}

func (s lenientString) or(fallback string) string {
	if s.Set {
		return s.Value
	}
	return fallback
}

// lenientRank accepts a JSON number or a numeric string. Anything else is zero,
// meaning the rank is inferred from position.
type lenientRank int

func (r *lenientRank) UnmarshalJSON(data []byte) error {
	var s lenientString
	if err := s.UnmarshalJSON(data); err != nil {
		return nil
	}
	v := strings.TrimRight(s.Value, ".위 ")
	if f, err := strconv.ParseFloat(v, 64); err == nil && f > 0 {
		*r = lenientRank(f)
	}
	return nil
}

type wireEntry struct {
	Rank          lenientRank   `json:"rank"`
	Name          lenientString `json:"name"`
	Price         lenientString `json:"price"`
	ChangePercent lenientString `json:"changePercent"`
}

type wireMarket struct {
	Kospi              lenientString `json:"kospi"`
	KospiChange        lenientString `json:"kospiChange"`
	KospiChangeAmount  lenientString `json:"kospiChangeAmount"`
	Kosdaq             lenientString `json:"kosdaq"`
	KosdaqChange       lenientString `json:"kosdaqChange"`
	KosdaqChangeAmount lenientString `json:"kosdaqChangeAmount"`
}

type wireResult struct {
	ExtractedTime    lenientString `json:"extractedTime"`
	MarketStatus     *wireMarket   `json:"marketStatus"`
	RealtimeStocks   []wireEntry   `json:"realtimeStocks"`
	CumulativeStocks []wireEntry   `json:"cumulativeStocks"`
	ThemesByRank     []wireEntry   `json:"themesByRank"`
	ThemesByChange   []wireEntry   `json:"themesByChange"`
}

// ParseExtraction decodes the response text. Missing lists become empty,
// missing market figures become placeholders, lists are capped and ranks
// absent from the response are inferred from position.
func ParseExtraction(text string) (*Extraction, error) {
	var raw wireResult
	if err := json.Unmarshal([]byte(strings.TrimSpace(text)), &raw); err != nil {
		return nil, &MalformedResponseError{Err: err}
	}

	var market wireMarket
	if raw.MarketStatus != nil {
		market = *raw.MarketStatus
	}

	return &Extraction{
		ExtractedTime: raw.ExtractedTime.Value,
		MarketStatus: models.MarketStatus{
			KOSPI: models.MarketQuote{
				Value:         market.Kospi.or(PlaceholderIndex),
				ChangePercent: market.KospiChange.or(PlaceholderPercent),
				ChangeAmount:  market.KospiChangeAmount.or(PlaceholderAmount),
			},
			KOSDAQ: models.MarketQuote{
				Value:         market.Kosdaq.or(PlaceholderIndex),
				ChangePercent: market.KosdaqChange.or(PlaceholderPercent),
				ChangeAmount:  market.KosdaqChangeAmount.or(PlaceholderAmount),
			},
		},
		RealtimeStocks:   normalizeEntries(raw.RealtimeStocks, MaxStocks),
		CumulativeStocks: normalizeEntries(raw.CumulativeStocks, MaxStocks),
		ThemesByRank:     normalizeEntries(raw.ThemesByRank, MaxThemes),
		ThemesByChange:   normalizeEntries(raw.ThemesByChange, MaxThemes),
	}, nil
}

func normalizeEntries(raw []wireEntry, limit int) []models.RankedEntry {
	if len(raw) > limit {
		raw = raw[:limit]
	}
	entries := make([]models.RankedEntry, 0, len(raw))
	for i, e := range raw {
		rank := int(e.Rank)
		if rank <= 0 {
			rank = i + 1
		}
		entries = append(entries, models.RankedEntry{
			Rank:          rank,
			Name:          e.Name.Value,
			Price:         e.Price.Value,
			ChangePercent: e.ChangePercent.Value,
		})
	}
	return entries
}
