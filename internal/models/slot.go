package models

import "strings"

// SlotName identifies one of the four fixed upload slots.
type SlotName string

const (
	SlotRealtime     SlotName = "realtime"
	SlotCumulative   SlotName = "cumulative"
	SlotThemesViews  SlotName = "themesViews"
	SlotThemesChange SlotName = "themesChange"
)

// SlotOrder is the fixed order in which slots contribute to an analysis request.
var SlotOrder = []SlotName{SlotRealtime, SlotCumulative, SlotThemesViews, SlotThemesChange}

// ParseSlotName returns the slot for s and whether it is one of the known slots.
func ParseSlotName(s string) (SlotName, bool) {
	for _, name := range SlotOrder {
		if string(name) == s {
			return name, true
		}
	}
	return "", false
}

// Capacity returns the number of images the slot can hold.
func (s SlotName) Capacity() int {
	if s.IsSequence() {
		return 2
	}
	return 1
}

// TotalCapacity is the number of images all slots hold when full.
func TotalCapacity() int {
	n := 0
	for _, s := range SlotOrder {
		n += s.Capacity()
	}
	return n
}

// IsSequence reports whether the slot holds an ordered list rather than a single image.
func (s SlotName) IsSequence() bool {
	return s == SlotRealtime || s == SlotCumulative
}

// SourceLabel is the human-readable description sent alongside each image of the slot.
func (s SlotName) SourceLabel() string {
	switch s {
	case SlotRealtime:
		return "30-second interval stock ranking"
	case SlotCumulative:
		return "intraday cumulative stock ranking"
	case SlotThemesViews:
		return "themes by view rank"
	case SlotThemesChange:
		return "themes by change rate"
	}
	return string(s)
}

// Upload is one incoming file, before media-type filtering.
type Upload struct {
	Name     string
	MIMEType string
	Data     []byte
}

// IsImage reports whether the upload carries an image media type.
func (u Upload) IsImage() bool {
	return strings.HasPrefix(strings.ToLower(strings.TrimSpace(u.MIMEType)), "image/")
}

// ImageItem is an image held by exactly one slot.
type ImageItem struct {
	ID       string `json:"id"`
	Name     string `json:"name"`
	MIMEType string `json:"mime_type"`
	Size     int    `json:"size"`
	Preview  string `json:"preview"`
	Data     []byte `json:"-"`
}

// SlotState is a point-in-time copy of all slot contents.
type SlotState struct {
	Focused SlotName                 `json:"focused"`
	Items   map[SlotName][]ImageItem `json:"items"`
}

// Count returns the number of images held in slot.
func (s SlotState) Count(slot SlotName) int {
	return len(s.Items[slot])
}
