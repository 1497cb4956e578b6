package handlers

import (
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"

	"github.com/minkyuuuu/kiwoom-dashboard/internal/cache"
	"github.com/minkyuuuu/kiwoom-dashboard/internal/common"
	"github.com/minkyuuuu/kiwoom-dashboard/internal/models"
	"github.com/minkyuuuu/kiwoom-dashboard/internal/slots"
)

// multipartMemory is the in-memory threshold for parsed upload forms.
const multipartMemory = 8 << 20

// SlotItemView is one held image as returned by the API.
type SlotItemView struct {
	ID         string `json:"id"`
	Name       string `json:"name"`
	MIMEType   string `json:"mime_type"`
	Size       int    `json:"size"`
	PreviewURL string `json:"preview_url"`
}

// SlotView describes one slot and its contents.
type SlotView struct {
	Name     models.SlotName `json:"name"`
	Label    string          `json:"label"`
	Capacity int             `json:"capacity"`
	Items    []SlotItemView  `json:"items"`
}

// SlotsView is the full slot state in fixed slot order.
type SlotsView struct {
	Focused models.SlotName `json:"focused"`
	Slots   []SlotView      `json:"slots"`
}

// NewSlotsView converts a slot snapshot for the API.
func NewSlotsView(state models.SlotState) SlotsView {
	view := SlotsView{Focused: state.Focused, Slots: make([]SlotView, 0, len(models.SlotOrder))}
	for _, slot := range models.SlotOrder {
		sv := SlotView{
			Name:     slot,
			Label:    slot.SourceLabel(),
			Capacity: slot.Capacity(),
			Items:    make([]SlotItemView, 0, slot.Capacity()),
		}
		for _, item := range state.Items[slot] {
			sv.Items = append(sv.Items, SlotItemView{
				ID:         item.ID,
				Name:       item.Name,
				MIMEType:   item.MIMEType,
				Size:       item.Size,
				PreviewURL: fmt.Sprintf("/api/slots/%s/items/%s/preview", slot, item.ID),
			})
		}
		view.Slots = append(view.Slots, sv)
	}
	return view
}

// SlotsHandler serves the upload slot API.
type SlotsHandler struct {
	logger   *common.Logger
	store    *slots.Store
	ingestor *slots.Ingestor
	previews *cache.PreviewCache
}

// NewSlotsHandler creates a new slots handler.
func NewSlotsHandler(logger *common.Logger, store *slots.Store, previews *cache.PreviewCache) *SlotsHandler {
	return &SlotsHandler{
		logger:   logger,
		store:    store,
		ingestor: slots.NewIngestor(store),
		previews: previews,
	}
}

// HandleList handles GET /api/slots.
func (h *SlotsHandler) HandleList(w http.ResponseWriter, r *http.Request) {
	if !RequireMethod(w, r, "GET") {
		return
	}
	WriteJSON(w, http.StatusOK, NewSlotsView(h.store.Snapshot()))
}

// HandleFocus handles PUT /api/slots/focus {"slot": "..."}.
func (h *SlotsHandler) HandleFocus(w http.ResponseWriter, r *http.Request) {
	if !RequireMethod(w, r, "PUT") {
		return
	}

	var body struct {
		Slot string `json:"slot"`
	}
	if err := DecodeJSON(r, &body); err != nil {
		WriteError(w, http.StatusBadRequest, err.Error())
		return
	}
	if err := h.store.Focus(models.SlotName(body.Slot)); err != nil {
		WriteError(w, http.StatusNotFound, err.Error())
		return
	}
	WriteJSON(w, http.StatusOK, NewSlotsView(h.store.Snapshot()))
}

// HandleUpload handles POST /api/slots/{slot}/files?source=picker|drop.
func (h *SlotsHandler) HandleUpload(w http.ResponseWriter, r *http.Request, slotName string) {
	if !RequireMethod(w, r, "POST") {
		return
	}

	slot, ok := models.ParseSlotName(slotName)
	if !ok {
		WriteError(w, http.StatusNotFound, fmt.Sprintf("unknown slot %q", slotName))
		return
	}

	uploads, err := readUploads(r)
	if err != nil {
		WriteError(w, http.StatusBadRequest, err.Error())
		return
	}

	var state models.SlotState
	switch source := r.URL.Query().Get("source"); source {
	case "", "picker":
		state, err = h.ingestor.Select(slot, uploads)
	case "drop":
		state, err = h.ingestor.Drop(slot, uploads)
	default:
		WriteError(w, http.StatusBadRequest, fmt.Sprintf("unknown source %q", source))
		return
	}
	if err != nil {
		WriteError(w, http.StatusBadRequest, err.Error())
		return
	}

	h.logger.Debug().
		Str("slot", string(slot)).
		Int("files", len(uploads)).
		Int("held", state.Count(slot)).
		Msg("slot upload")

	WriteJSON(w, http.StatusOK, NewSlotsView(state))
}

// HandlePaste handles POST /api/paste, assigning to the focused slot.
func (h *SlotsHandler) HandlePaste(w http.ResponseWriter, r *http.Request) {
	if !RequireMethod(w, r, "POST") {
		return
	}

	uploads, err := readUploads(r)
	if err != nil {
		WriteError(w, http.StatusBadRequest, err.Error())
		return
	}
	state, err := h.ingestor.Paste(uploads)
	if err != nil {
		WriteError(w, http.StatusBadRequest, err.Error())
		return
	}
	WriteJSON(w, http.StatusOK, NewSlotsView(state))
}

// HandleRemove handles DELETE /api/slots/{slot}/items/{id}.
func (h *SlotsHandler) HandleRemove(w http.ResponseWriter, r *http.Request, slotName, id string) {
	if !RequireMethod(w, r, "DELETE") {
		return
	}

	state, err := h.store.Remove(models.SlotName(slotName), id)
	if err != nil {
		if errors.Is(err, slots.ErrUnknownSlot) || errors.Is(err, slots.ErrItemNotFound) {
			WriteError(w, http.StatusNotFound, err.Error())
			return
		}
		WriteError(w, http.StatusInternalServerError, err.Error())
		return
	}
	WriteJSON(w, http.StatusOK, NewSlotsView(state))
}

// HandlePreview handles GET /api/slots/{slot}/items/{id}/preview.
func (h *SlotsHandler) HandlePreview(w http.ResponseWriter, r *http.Request, slotName, id string) {
	if !RequireMethod(w, r, "GET") {
		return
	}

	item, ok := h.store.Item(models.SlotName(slotName), id)
	if !ok {
		WriteError(w, http.StatusNotFound, "image not found")
		return
	}

	mimeType, body := item.MIMEType, item.Data
	if h.previews != nil {
		if p, ok := h.previews.Get(item.Preview); ok {
			mimeType, body = p.MIMEType, p.Body
		}
	}

	w.Header().Set("Content-Type", mimeType)
	w.Header().Set("Cache-Control", "private, max-age=300")
	w.WriteHeader(http.StatusOK)
	w.Write(body)
}

// readUploads reads every "files" part of a multipart request. Parts without
// a specific Content-Type are sniffed.
func readUploads(r *http.Request) ([]models.Upload, error) {
	if err := r.ParseMultipartForm(multipartMemory); err != nil {
		return nil, fmt.Errorf("invalid multipart form: %w", err)
	}
	if r.MultipartForm != nil {
		defer r.MultipartForm.RemoveAll()
	}

	headers := r.MultipartForm.File["files"]
	uploads := make([]models.Upload, 0, len(headers))
	for _, fh := range headers {
		u, err := readUpload(fh)
		if err != nil {
			return nil, err
		}
		uploads = append(uploads, u)
	}
	return uploads, nil
}

func readUpload(fh *multipart.FileHeader) (models.Upload, error) {
	f, err := fh.Open()
	if err != nil {
		return models.Upload{}, fmt.Errorf("failed to open %s: %w", fh.Filename, err)
	}
	defer f.Close()

	data, err := io.ReadAll(f)
	if err != nil {
		return models.Upload{}, fmt.Errorf("failed to read %s: %w", fh.Filename, err)
	}

	mimeType := fh.Header.Get("Content-Type")
	if mimeType == "" || mimeType == "application/octet-stream" {
		mimeType = http.DetectContentType(data)
	}
	return models.Upload{Name: fh.Filename, MIMEType: mimeType, Data: data}, nil
}
