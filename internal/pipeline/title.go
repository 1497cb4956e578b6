package pipeline

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/minkyuuuu/kiwoom-dashboard/internal/models"
)

// GenericTitle is used when no time was extracted.
const GenericTitle = "market report"

// Period labels by extracted hour.
const (
	PeriodMorning   = "morning"
	PeriodLunch     = "lunch"
	PeriodAfternoon = "afternoon"
	PeriodClose     = "close"
)

// Period returns the trading period label for an "hh:mm" value. An
// unparseable hour falls through to close.
func Period(hhmm string) string {
	hourText, _, _ := strings.Cut(hhmm, ":")
	hour, err := strconv.Atoi(strings.TrimSpace(hourText))
	switch {
	case err != nil:
		return PeriodClose
	case hour < 12:
		return PeriodMorning
	case hour < 14:
		return PeriodLunch
	case hour < 16:
		return PeriodAfternoon
	}
	return PeriodClose
}

// DeriveTitle returns the display title and stored timestamp for an extracted
// time. An empty time yields the generic title and the "current" timestamp.
func DeriveTitle(extractedTime string) (title, timestamp string) {
	t := strings.TrimSpace(extractedTime)
	if t == "" {
		return GenericTitle, models.TimestampCurrent
	}
	return fmt.Sprintf("%s (%s)", Period(t), t), t
}
