package calendar

import (
	"errors"
	"testing"
	"time"
)

func fixedClock(s string) func() time.Time {
	t, err := time.ParseInLocation("2006-01-02 15:04", s, time.Local)
	if err != nil {
		panic(err)
	}
	return func() time.Time { return t }
}

func TestNavigator_DefaultsToToday(t *testing.T) {
	n := NewNavigator(fixedClock("2025-03-14 09:30"))

	if got := n.Selected(); got != "2025-03-14" {
		t.Errorf("expected 2025-03-14, got %s", got)
	}
	if got := n.ViewMonth().String(); got != "2025-03-01" {
		t.Errorf("expected view month 2025-03-01, got %s", got)
	}
}

func TestNavigator_SelectRejectsFuture(t *testing.T) {
	n := NewNavigator(fixedClock("2025-03-14 23:59"))

	if err := n.Select("2025-03-15"); !errors.Is(err, ErrFutureDate) {
		t.Errorf("expected ErrFutureDate, got %v", err)
	}
	if got := n.Selected(); got != "2025-03-14" {
		t.Errorf("rejected selection changed state: %s", got)
	}

	if err := n.Select("2025-03-14"); err != nil {
		t.Errorf("today should be selectable: %v", err)
	}
	if err := n.Select("2024-12-31"); err != nil {
		t.Errorf("past date should be selectable: %v", err)
	}
	if got := n.Selected(); got != "2024-12-31" {
		t.Errorf("expected 2024-12-31, got %s", got)
	}
}

func TestNavigator_SelectInvalidFormat(t *testing.T) {
	n := NewNavigator(fixedClock("2025-03-14 09:30"))

	for _, in := range []string{"", "14/03/2025", "2025-13-01", "2025-3-4x"} {
		if err := n.Select(in); err == nil {
			t.Errorf("expected error for %q", in)
		}
	}
}

func TestNavigator_MonthGrid(t *testing.T) {
	n := NewNavigator(fixedClock("2025-03-14 09:30"))

	// March 2025 starts on a Saturday.
	g := n.Month(2025, time.March)
	if len(g.Cells) != 6+31 {
		t.Fatalf("expected 37 cells, got %d", len(g.Cells))
	}
	for i := 0; i < 6; i++ {
		if g.Cells[i].Date != nil {
			t.Errorf("expected blank leading cell at %d", i)
		}
	}
	if first := g.Cells[6].Date; first == nil || first.String() != "2025-03-01" {
		t.Errorf("expected first day 2025-03-01, got %v", first)
	}

	today := g.Cells[6+13]
	if !today.Selected {
		t.Error("expected the 14th to be selected")
	}
	if today.Future {
		t.Error("today is not a future date")
	}
	if !g.Cells[6+14].Future {
		t.Error("expected the 15th to be flagged as future")
	}
}

func TestNavigator_MonthGridLeapYear(t *testing.T) {
	n := NewNavigator(fixedClock("2025-03-14 09:30"))

	// February 2024 starts on a Thursday and has 29 days.
	g := n.Month(2024, time.February)
	if len(g.Cells) != 4+29 {
		t.Errorf("expected 33 cells, got %d", len(g.Cells))
	}
}

func TestNavigator_ChangeMonthAcrossYear(t *testing.T) {
	n := NewNavigator(fixedClock("2025-01-10 09:30"))

	g := n.ChangeMonth(-1)
	if g.Year != 2024 || g.Month != time.December {
		t.Errorf("expected 2024-12, got %d-%d", g.Year, g.Month)
	}
	g = n.ChangeMonth(2)
	if g.Year != 2025 || g.Month != time.February {
		t.Errorf("expected 2025-02, got %d-%d", g.Year, g.Month)
	}
}
