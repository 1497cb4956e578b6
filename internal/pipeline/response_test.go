package pipeline

import (
	"errors"
	"fmt"
	"strings"
	"testing"
)

func TestParseExtraction_MissingFieldsDefault(t *testing.T) {
	ex, err := ParseExtraction(`{}`)
	if err != nil {
		t.Fatalf("ParseExtraction failed: %v", err)
	}
	if ex.ExtractedTime != "" {
		t.Errorf("expected empty time, got %q", ex.ExtractedTime)
	}
	k := ex.MarketStatus.KOSPI
	if k.Value != "-" || k.ChangePercent != "0%" || k.ChangeAmount != "0.00" {
		t.Errorf("unexpected kospi placeholders: %+v", k)
	}
	if ex.MarketStatus.KOSDAQ != k {
		t.Errorf("expected kosdaq placeholders to match kospi, got %+v", ex.MarketStatus.KOSDAQ)
	}
	for name, list := range map[string]int{
		"realtime":   len(ex.RealtimeStocks),
		"cumulative": len(ex.CumulativeStocks),
		"byRank":     len(ex.ThemesByRank),
		"byChange":   len(ex.ThemesByChange),
	} {
		if list != 0 {
			t.Errorf("%s: expected empty list, got %d", name, list)
		}
	}
	if ex.RealtimeStocks == nil {
		t.Error("expected non-nil empty list")
	}
}

func TestParseExtraction_PartialMarketStatus(t *testing.T) {
	ex, err := ParseExtraction(`{"marketStatus": {"kospi": "2,645.27", "kosdaqChange": "-0.31%"}}`)
	if err != nil {
		t.Fatalf("ParseExtraction failed: %v", err)
	}
	if ex.MarketStatus.KOSPI.Value != "2,645.27" || ex.MarketStatus.KOSPI.ChangeAmount != "0.00" {
		t.Errorf("unexpected kospi: %+v", ex.MarketStatus.KOSPI)
	}
	if ex.MarketStatus.KOSDAQ.Value != "-" || ex.MarketStatus.KOSDAQ.ChangePercent != "-0.31%" {
		t.Errorf("unexpected kosdaq: %+v", ex.MarketStatus.KOSDAQ)
	}
}

func TestParseExtraction_LenientScalars(t *testing.T) {
	ex, err := ParseExtraction(`{
		"extractedTime": "10:05",
		"marketStatus": {"kospi": 2645.27, "kospiChange": null},
		"realtimeStocks": [
			{"rank": "3", "name": "A", "price": 72500, "changePercent": 1.5},
			{"name": "B", "price": "-", "changePercent": "-2%"},
			{"rank": "top", "name": 42, "changePercent": "+0.1%"}
		]
	}`)
	if err != nil {
		t.Fatalf("ParseExtraction failed: %v", err)
	}
	if ex.MarketStatus.KOSPI.Value != "2645.27" {
		t.Errorf("expected numeric index as text, got %q", ex.MarketStatus.KOSPI.Value)
	}
	if ex.MarketStatus.KOSPI.ChangePercent != "0%" {
		t.Errorf("expected null change to default, got %q", ex.MarketStatus.KOSPI.ChangePercent)
	}

	got := ex.RealtimeStocks
	if got[0].Rank != 3 || got[0].Price != "72500" || got[0].ChangePercent != "1.5" {
		t.Errorf("unexpected first entry: %+v", got[0])
	}
	if got[1].Rank != 2 {
		t.Errorf("expected inferred rank 2, got %d", got[1].Rank)
	}
	if got[2].Rank != 3 || got[2].Name != "42" {
		t.Errorf("unexpected third entry: %+v", got[2])
	}
}

func TestParseExtraction_CapsLists(t *testing.T) {
	entries := func(n int) string {
		parts := make([]string, n)
		for i := range parts {
			parts[i] = fmt.Sprintf(`{"name": "n%d", "changePercent": "+1%%"}`, i)
		}
		return "[" + strings.Join(parts, ",") + "]"
	}
	text := fmt.Sprintf(`{"realtimeStocks": %s, "cumulativeStocks": %s, "themesByRank": %s, "themesByChange": %s}`,
		entries(25), entries(20), entries(12), entries(3))

	ex, err := ParseExtraction(text)
	if err != nil {
		t.Fatalf("ParseExtraction failed: %v", err)
	}
	if len(ex.RealtimeStocks) != 20 || len(ex.CumulativeStocks) != 20 {
		t.Errorf("expected stock lists capped at 20, got %d and %d", len(ex.RealtimeStocks), len(ex.CumulativeStocks))
	}
	if len(ex.ThemesByRank) != 10 || len(ex.ThemesByChange) != 3 {
		t.Errorf("expected theme lists 10 and 3, got %d and %d", len(ex.ThemesByRank), len(ex.ThemesByChange))
	}
	if last := ex.RealtimeStocks[19]; last.Name != "n19" || last.Rank != 20 {
		t.Errorf("expected earliest entries kept, got %+v", last)
	}
}

func TestParseExtraction_Malformed(t *testing.T) {
	for _, text := range []string{"", "not json", `["a", "b"]`, `{"realtimeStocks": "none"}`} {
		_, err := ParseExtraction(text)
		var merr *MalformedResponseError
		if !errors.As(err, &merr) {
			t.Errorf("ParseExtraction(%q): expected MalformedResponseError, got %v", text, err)
		}
	}
}
