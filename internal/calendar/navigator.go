package calendar

import (
	"errors"
	"sync"
	"time"
)

// ErrFutureDate is returned when selecting a day after today.
var ErrFutureDate = errors.New("cannot select a future date")

// Cell is one position of a month grid. Date is nil for leading blanks.
type Cell struct {
	Date     *Date `json:"date"`
	Selected bool  `json:"selected"`
	Future   bool  `json:"future"`
}

// Grid is a month view starting on Sunday.
type Grid struct {
	Year  int        `json:"year"`
	Month time.Month `json:"month"`
	Cells []Cell     `json:"cells"`
}

// Navigator tracks the selected date and the month being viewed.
type Navigator struct {
	mu       sync.Mutex
	now      func() time.Time
	selected Date
	view     Date
}

// NewNavigator creates a navigator with today selected. A nil clock uses time.Now.
func NewNavigator(now func() time.Time) *Navigator {
	if now == nil {
		now = time.Now
	}
	today := DateOf(now())
	return &Navigator{
		now:      now,
		selected: today,
		view:     NewDate(today.Year(), today.Month(), 1),
	}
}

// Today returns the local current date.
func (n *Navigator) Today() Date { return DateOf(n.now()) }

// Selected returns the selected date in YYYY-MM-DD form.
func (n *Navigator) Selected() string {
	n.mu.Lock()
	defer n.mu.Unlock()
	return n.selected.String()
}

// Select changes the selected date. Dates after today are rejected.
func (n *Navigator) Select(s string) error {
	d, err := ParseDate(s)
	if err != nil {
		return err
	}
	if d.After(n.Today()) {
		return ErrFutureDate
	}

	n.mu.Lock()
	n.selected = d
	n.mu.Unlock()
	return nil
}

// ViewMonth returns the first day of the month being viewed.
func (n *Navigator) ViewMonth() Date {
	n.mu.Lock()
	defer n.mu.Unlock()
	return n.view
}

// ChangeMonth moves the viewed month by offset months and returns its grid.
func (n *Navigator) ChangeMonth(offset int) Grid {
	n.mu.Lock()
	n.view = NewDate(n.view.Year(), n.view.Month()+time.Month(offset), 1)
	view := n.view
	n.mu.Unlock()
	return n.Month(view.Year(), view.Month())
}

// Month builds the grid for year and month: one nil cell per weekday before
// the 1st, then one cell per day.
func (n *Navigator) Month(year int, month time.Month) Grid {
	first := NewDate(year, month, 1)
	today := n.Today()
	selected := n.Selected()

	lead := int(first.Weekday())
	days := daysIn(first.Year(), first.Month())

	g := Grid{
		Year:  first.Year(),
		Month: first.Month(),
		Cells: make([]Cell, 0, lead+days),
	}
	for i := 0; i < lead; i++ {
		g.Cells = append(g.Cells, Cell{})
	}
	for day := 1; day <= days; day++ {
		d := NewDate(first.Year(), first.Month(), day)
		g.Cells = append(g.Cells, Cell{
			Date:     &d,
			Selected: d.String() == selected,
			Future:   d.After(today),
		})
	}
	return g
}
