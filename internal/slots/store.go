// Package slots holds pending screenshot uploads across the four named slots.
package slots

import (
	"errors"
	"fmt"
	"sync"

	"github.com/google/uuid"
	"github.com/minkyuuuu/kiwoom-dashboard/internal/cache"
	"github.com/minkyuuuu/kiwoom-dashboard/internal/models"
)

var (
	// ErrUnknownSlot is returned for a slot name outside the four fixed slots.
	ErrUnknownSlot = errors.New("unknown slot")
	// ErrItemNotFound is returned when the slot does not hold the requested image.
	ErrItemNotFound = errors.New("image not found in slot")
)

// Previews owns the preview resource of each held image.
type Previews interface {
	Acquire(p *cache.Preview) string
	Release(handle string)
}

// Store holds the images of every slot and the focused-slot pointer.
// Each operation completes its state transition under the mutex before returning.
type Store struct {
	mu       sync.Mutex
	items    map[models.SlotName][]models.ImageItem
	focused  models.SlotName
	previews Previews
}

// NewStore creates an empty store focused on the realtime slot.
func NewStore(previews Previews) *Store {
	if previews == nil {
		previews = cache.New(0)
	}
	return &Store{
		items:    make(map[models.SlotName][]models.ImageItem, len(models.SlotOrder)),
		focused:  models.SlotRealtime,
		previews: previews,
	}
}

// Assign adds the image uploads to slot. Non-image uploads are ignored and an
// empty result is a no-op. A singleton slot is replaced by the first image; a
// sequence slot appends and keeps the earliest images up to its capacity.
func (s *Store) Assign(slot models.SlotName, uploads []models.Upload) (models.SlotState, error) {
	if _, ok := models.ParseSlotName(string(slot)); !ok {
		return models.SlotState{}, fmt.Errorf("%w: %q", ErrUnknownSlot, slot)
	}

	images := make([]models.Upload, 0, len(uploads))
	for _, u := range uploads {
		if u.IsImage() {
			images = append(images, u)
		}
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if len(images) == 0 {
		return s.snapshotLocked(), nil
	}

	if !slot.IsSequence() {
		for _, old := range s.items[slot] {
			s.previews.Release(old.Preview)
		}
		s.items[slot] = []models.ImageItem{s.newItem(images[0])}
		return s.snapshotLocked(), nil
	}

	existing := s.items[slot]
	room := slot.Capacity() - len(existing)
	if room > len(images) {
		room = len(images)
	}
	for _, u := range images[:max(room, 0)] {
		existing = append(existing, s.newItem(u))
	}
	s.items[slot] = existing

	return s.snapshotLocked(), nil
}

// Remove drops one image from slot and releases its preview.
func (s *Store) Remove(slot models.SlotName, id string) (models.SlotState, error) {
	if _, ok := models.ParseSlotName(string(slot)); !ok {
		return models.SlotState{}, fmt.Errorf("%w: %q", ErrUnknownSlot, slot)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	held := s.items[slot]
	for i, item := range held {
		if item.ID != id {
			continue
		}
		s.previews.Release(item.Preview)
		s.items[slot] = append(held[:i:i], held[i+1:]...)
		return s.snapshotLocked(), nil
	}
	return models.SlotState{}, fmt.Errorf("%w: %s/%s", ErrItemNotFound, slot, id)
}

// Clear empties every slot, releasing all previews.
func (s *Store) Clear() models.SlotState {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, slot := range models.SlotOrder {
		for _, item := range s.items[slot] {
			s.previews.Release(item.Preview)
		}
		delete(s.items, slot)
	}
	return s.snapshotLocked()
}

// Focus moves the focused-slot pointer used by paste uploads.
func (s *Store) Focus(slot models.SlotName) error {
	if _, ok := models.ParseSlotName(string(slot)); !ok {
		return fmt.Errorf("%w: %q", ErrUnknownSlot, slot)
	}
	s.mu.Lock()
	s.focused = slot
	s.mu.Unlock()
	return nil
}

// Focused returns the slot currently receiving paste uploads.
func (s *Store) Focused() models.SlotName {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.focused
}

// Item returns a copy of one held image.
func (s *Store) Item(slot models.SlotName, id string) (models.ImageItem, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, item := range s.items[slot] {
		if item.ID == id {
			return item, true
		}
	}
	return models.ImageItem{}, false
}

// Snapshot returns a copy of the current slot contents.
func (s *Store) Snapshot() models.SlotState {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.snapshotLocked()
}

// newItem wraps an upload and acquires its preview. Must be called with mu held.
func (s *Store) newItem(u models.Upload) models.ImageItem {
	return models.ImageItem{
		ID:       uuid.New().String(),
		Name:     u.Name,
		MIMEType: u.MIMEType,
		Size:     len(u.Data),
		Data:     u.Data,
		Preview:  s.previews.Acquire(&cache.Preview{MIMEType: u.MIMEType, Body: u.Data}),
	}
}

// snapshotLocked copies the slot contents. Must be called with mu held.
func (s *Store) snapshotLocked() models.SlotState {
	state := models.SlotState{
		Focused: s.focused,
		Items:   make(map[models.SlotName][]models.ImageItem, len(models.SlotOrder)),
	}
	for _, slot := range models.SlotOrder {
		items := make([]models.ImageItem, len(s.items[slot]))
		copy(items, s.items[slot])
		state.Items[slot] = items
	}
	return state
}
