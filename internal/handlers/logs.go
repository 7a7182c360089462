package handlers

import (
	"encoding/json"
	"net/http"
	"strings"

	"github.com/ukydev/equipment-diagnostics/internal/middleware"
	"github.com/ukydev/equipment-diagnostics/internal/models"
)

// LogsHandler lists and records maintenance logs.
type LogsHandler struct {
	store Store
}

// NewLogsHandler creates a new logs handler
func NewLogsHandler(store Store) *LogsHandler {
	return &LogsHandler{store: store}
}

// List handles GET /api/logs. Logs come back newest first; an unreachable
// store yields an empty list.
func (h *LogsHandler) List(w http.ResponseWriter, r *http.Request) {
	logs := h.store.GetLogs(r.Context())
	if logs == nil {
		logs = []models.MaintenanceLog{}
	}
	middleware.WriteJSON(w, http.StatusOK, logs)
}

type createLogRequest struct {
	EquipmentName     string                  `json:"equipment_name"`
	EquipmentModel    string                  `json:"equipment_model"`
	Brand             string                  `json:"brand"`
	DefectCategory    string                  `json:"defect_category"`
	DefectDescription string                  `json:"defect_description"`
	Diagnosis         models.DiagnosticResult `json:"diagnosis"`
	ResolutionType    string                  `json:"resolution_type"`
	TechnicianName    string                  `json:"technician_name"`
	TechnicianNotes   string                  `json:"technician_notes"`
	AttachmentNotes   string                  `json:"attachment_notes"`
}

// Create handles POST /api/logs: the technician confirms a diagnosis and
// picks how the fault was resolved.
func (h *LogsHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req createLogRequest
	if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxJSONBody)).Decode(&req); err != nil {
		badRequest(w, "Invalid JSON")
		return
	}

	entry, err := req.toLog()
	if err != nil {
		writeDomainError(w, err)
		return
	}

	saved, err := h.store.SaveLog(r.Context(), entry)
	if err != nil {
		writeDomainError(w, err)
		return
	}
	middleware.WriteJSON(w, http.StatusCreated, saved)
}

func (req createLogRequest) toLog() (models.MaintenanceLog, error) {
	var entry models.MaintenanceLog

	technician := strings.TrimSpace(req.TechnicianName)
	if technician == "" {
		return entry, validationError("technician_name is required")
	}
	if strings.TrimSpace(req.EquipmentName) == "" {
		return entry, validationError("equipment_name is required")
	}
	if req.ResolutionType == "" {
		return entry, validationError("resolution_type is required")
	}
	resolution, err := models.ParseResolutionType(req.ResolutionType)
	if err != nil {
		return entry, err
	}
	notes := strings.TrimSpace(req.TechnicianNotes)
	if resolution == models.ResolutionAlternativeMethod && notes == "" {
		return entry, validationError("technician_notes are required when the fault was solved another way")
	}
	if len(req.Diagnosis.PossibleCauses) == 0 || len(req.Diagnosis.Solutions) == 0 {
		return entry, validationError("diagnosis must have at least one cause and one solution")
	}
	for _, sol := range req.Diagnosis.Solutions {
		if len(sol.Steps) == 0 {
			return entry, validationError("every solution needs at least one step")
		}
		if !sol.Difficulty.IsValid() {
			return entry, validationError("solution difficulty must be Easy, Medium or Hard")
		}
	}

	category := models.CategoryBoth
	if req.DefectCategory != "" {
		if category, err = models.ParseDefectCategory(req.DefectCategory); err != nil {
			return entry, err
		}
	}

	return models.MaintenanceLog{
		EquipmentName:     strings.TrimSpace(req.EquipmentName),
		EquipmentModel:    strings.TrimSpace(req.EquipmentModel),
		Brand:             strings.TrimSpace(req.Brand),
		DefectCategory:    category,
		DefectDescription: strings.TrimSpace(req.DefectDescription),
		Diagnosis:         req.Diagnosis,
		Status:            resolution.Status(),
		ResolutionType:    resolution,
		TechnicianName:    technician,
		TechnicianNotes:   notes,
		AttachmentNotes:   strings.TrimSpace(req.AttachmentNotes),
	}, nil
}
