package slots

import "github.com/minkyuuuu/kiwoom-dashboard/internal/models"

// Ingestor routes files from the three input channels onto the store.
type Ingestor struct {
	store *Store
}

// NewIngestor creates an ingestor over store.
func NewIngestor(store *Store) *Ingestor {
	return &Ingestor{store: store}
}

// Select handles a file-picker selection started by clicking slot.
func (in *Ingestor) Select(slot models.SlotName, files []models.Upload) (models.SlotState, error) {
	if err := in.store.Focus(slot); err != nil {
		return models.SlotState{}, err
	}
	return in.store.Assign(slot, files)
}

// Drop handles files dropped onto slot. The slot takes focus only when files arrived.
func (in *Ingestor) Drop(slot models.SlotName, files []models.Upload) (models.SlotState, error) {
	if len(files) > 0 {
		if err := in.store.Focus(slot); err != nil {
			return models.SlotState{}, err
		}
	}
	return in.store.Assign(slot, files)
}

// Paste handles clipboard images, which always go to the focused slot.
func (in *Ingestor) Paste(files []models.Upload) (models.SlotState, error) {
	return in.store.Assign(in.store.Focused(), files)
}
