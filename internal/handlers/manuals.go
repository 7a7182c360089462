package handlers

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"path"
	"strings"

	log "github.com/sirupsen/logrus"
	"github.com/ukydev/equipment-diagnostics/internal/middleware"
	"github.com/ukydev/equipment-diagnostics/internal/models"
)

const maxUploadSize = 50 << 20

// ManualsHandler manages the technical document library.
type ManualsHandler struct {
	store  Store
	logger *log.Logger
}

// NewManualsHandler creates a new manuals handler
func NewManualsHandler(store Store, logger *log.Logger) *ManualsHandler {
	return &ManualsHandler{store: store, logger: logger}
}

// List handles GET /api/manuals
func (h *ManualsHandler) List(w http.ResponseWriter, r *http.Request) {
	manuals := h.store.GetManuals(r.Context())
	if manuals == nil {
		manuals = []models.Manual{}
	}
	middleware.WriteJSON(w, http.StatusOK, manuals)
}

type createManualRequest struct {
	EquipmentName  string `json:"equipment_name"`
	Brand          string `json:"brand"`
	Model          string `json:"model"`
	ManualType     string `json:"manual_type"`
	ManualCategory string `json:"manual_category"`
	Description    string `json:"description"`
	FileURL        string `json:"file_url"`
	FileName       string `json:"file_name"`
}

// Create handles POST /api/manuals. The file itself is uploaded first via
// /api/manuals/upload; this records its metadata.
func (h *ManualsHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req createManualRequest
	if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxJSONBody)).Decode(&req); err != nil {
		badRequest(w, "Invalid JSON")
		return
	}

	manual, err := req.toManual()
	if err != nil {
		writeDomainError(w, err)
		return
	}

	saved, err := h.store.SaveManual(r.Context(), manual)
	if err != nil {
		writeDomainError(w, err)
		return
	}
	middleware.WriteJSON(w, http.StatusCreated, saved)
}

func (req createManualRequest) toManual() (models.Manual, error) {
	manual := models.Manual{
		EquipmentName: strings.TrimSpace(req.EquipmentName),
		Brand:         strings.TrimSpace(req.Brand),
		Model:         strings.TrimSpace(req.Model),
		Description:   strings.TrimSpace(req.Description),
		FileURL:       strings.TrimSpace(req.FileURL),
		FileName:      strings.TrimSpace(req.FileName),
		ManualType:    models.ManualOther,
	}
	if manual.EquipmentName == "" {
		return manual, validationError("equipment_name is required")
	}
	if manual.FileURL == "" {
		return manual, validationError("file_url is required")
	}

	var err error
	if req.ManualType != "" {
		if manual.ManualType, err = models.ParseManualType(req.ManualType); err != nil {
			return manual, err
		}
	}
	if req.ManualCategory != "" {
		if manual.ManualCategory, err = models.ParseDefectCategory(req.ManualCategory); err != nil {
			return manual, err
		}
	}
	if manual.FileName == "" {
		manual.FileName = path.Base(manual.FileURL)
	}
	return manual, nil
}

// Search handles GET /api/manuals/search?model=
func (h *ManualsHandler) Search(w http.ResponseWriter, r *http.Request) {
	model := strings.TrimSpace(r.URL.Query().Get("model"))
	if model == "" {
		badRequest(w, "model query parameter is required")
		return
	}

	manual := h.store.FindManualByModel(r.Context(), model)
	if manual == nil {
		middleware.WriteError(w, http.StatusNotFound, "not_found", "No manual matches this model")
		return
	}
	middleware.WriteJSON(w, http.StatusOK, manual)
}

// Delete handles DELETE /api/manuals/{id}
func (h *ManualsHandler) Delete(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	if err := h.store.DeleteManual(r.Context(), id); err != nil {
		writeDomainError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// Upload handles POST /api/manuals/upload with a multipart "file" field.
func (h *ManualsHandler) Upload(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, maxUploadSize)
	if err := r.ParseMultipartForm(maxImageSize); err != nil {
		badRequest(w, "Invalid multipart form")
		return
	}

	file, header, err := r.FormFile("file")
	if err != nil {
		badRequest(w, "file is required")
		return
	}
	defer file.Close()

	uploaded, err := h.store.UploadFile(r.Context(), header.Filename, file)
	if err != nil {
		writeDomainError(w, err)
		return
	}
	middleware.WriteJSON(w, http.StatusCreated, uploaded)
}

// Download handles GET /files/{key...}, streaming a stored blob.
func (h *ManualsHandler) Download(w http.ResponseWriter, r *http.Request) {
	key := r.PathValue("key")
	if key == "" || strings.Contains(key, "..") {
		middleware.WriteError(w, http.StatusNotFound, "not_found", "File not found")
		return
	}

	rc, contentType, err := h.store.OpenFile(r.Context(), key)
	if err != nil {
		if errors.Is(err, models.ErrNotFound) {
			middleware.WriteError(w, http.StatusNotFound, "not_found", "File not found")
			return
		}
		writeDomainError(w, err)
		return
	}
	defer rc.Close()

	w.Header().Set("Content-Type", contentType)
	w.Header().Set("Cache-Control", "public, max-age=86400")
	w.WriteHeader(http.StatusOK)
	if _, err := io.Copy(w, rc); err != nil {
		h.logger.WithError(err).WithField("key", key).Warn("File download interrupted")
	}
}
