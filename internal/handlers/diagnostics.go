package handlers

import (
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"mime"
	"net/http"
	"strings"

	log "github.com/sirupsen/logrus"
	"github.com/ukydev/equipment-diagnostics/internal/diagnosis"
	"github.com/ukydev/equipment-diagnostics/internal/middleware"
	"github.com/ukydev/equipment-diagnostics/internal/models"
	"golang.org/x/sync/errgroup"
)

const (
	maxJSONBody    = 1 << 20
	maxAnalyzeBody = 20 << 20
	maxImageSize   = 10 << 20
)

// DiagnosticsHandler runs an analysis for a reported fault.
type DiagnosticsHandler struct {
	store    Store
	analyzer Analyzer
	logger   *log.Logger
}

// NewDiagnosticsHandler creates a new diagnostics handler
func NewDiagnosticsHandler(store Store, analyzer Analyzer, logger *log.Logger) *DiagnosticsHandler {
	return &DiagnosticsHandler{store: store, analyzer: analyzer, logger: logger}
}

type analyzeRequest struct {
	EquipmentName     string `json:"equipment_name"`
	Brand             string `json:"brand"`
	Model             string `json:"model"`
	DefectDescription string `json:"defect_description"`
	DefectCategory    string `json:"defect_category"`
	ImageBase64       string `json:"image_base64,omitempty"`
	ImageMIMEType     string `json:"image_mime_type,omitempty"`
}

// AnalyzeResponse is the body of a successful analysis.
type AnalyzeResponse struct {
	Diagnosis    models.DiagnosticResult `json:"diagnosis"`
	Equipment    models.EquipmentInfo    `json:"equipment"`
	Manual       *models.Manual          `json:"manual,omitempty"`
	HistoryLines int                     `json:"history_lines"`
}

// Analyze handles POST /api/diagnostics/analyze. It accepts either a JSON
// body or a multipart form with an optional "image" file.
func (h *DiagnosticsHandler) Analyze(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, maxAnalyzeBody)

	info, image, err := parseAnalyzeRequest(r)
	if err != nil {
		writeDomainError(w, err)
		return
	}

	if !h.analyzer.Configured() {
		writeDomainError(w, fmt.Errorf("inference API key: %w", models.ErrConfigurationMissing))
		return
	}

	// Manual and field history are independent lookups; neither can fail.
	var (
		manual  *models.Manual
		history string
	)
	g, gctx := errgroup.WithContext(r.Context())
	g.Go(func() error {
		manual = h.store.FindManualByModel(gctx, info.Model)
		return nil
	})
	g.Go(func() error {
		logs := h.store.GetLogs(gctx)
		history = diagnosis.BuildHistoryExcerpt(logs, info.Model, info.Category, diagnosis.DefaultHistoryLimit)
		return nil
	})
	_ = g.Wait()

	manualText := ""
	if manual != nil {
		manualText = manual.Description
	}

	result, err := h.analyzer.Analyze(r.Context(), info, manualText, history, image)
	if err != nil {
		h.logger.WithError(err).WithFields(log.Fields{
			"equipment": info.Name,
			"model":     info.Model,
		}).Warn("Analysis failed")
		writeDomainError(w, err)
		return
	}

	resp := AnalyzeResponse{
		Diagnosis: *result,
		Equipment: info,
		Manual:    manual,
	}
	if history != "" {
		resp.HistoryLines = strings.Count(history, "\n") + 1
	}
	middleware.WriteJSON(w, http.StatusOK, resp)
}

func parseAnalyzeRequest(r *http.Request) (models.EquipmentInfo, *diagnosis.Image, error) {
	var req analyzeRequest
	var image *diagnosis.Image

	mediaType, _, _ := mime.ParseMediaType(r.Header.Get("Content-Type"))
	if mediaType == "multipart/form-data" {
		if err := r.ParseMultipartForm(maxImageSize); err != nil {
			return models.EquipmentInfo{}, nil, fmt.Errorf("%w: invalid multipart form: %v", models.ErrValidation, err)
		}
		req = analyzeRequest{
			EquipmentName:     r.FormValue("equipment_name"),
			Brand:             r.FormValue("brand"),
			Model:             r.FormValue("model"),
			DefectDescription: r.FormValue("defect_description"),
			DefectCategory:    r.FormValue("defect_category"),
		}
		file, header, err := r.FormFile("image")
		switch {
		case err == nil:
			defer file.Close()
			data, err := io.ReadAll(io.LimitReader(file, maxImageSize+1))
			if err != nil {
				return models.EquipmentInfo{}, nil, fmt.Errorf("%w: read image: %v", models.ErrValidation, err)
			}
			if len(data) > maxImageSize {
				return models.EquipmentInfo{}, nil, fmt.Errorf("%w: image larger than %d bytes", models.ErrValidation, maxImageSize)
			}
			image = &diagnosis.Image{Data: data, MIMEType: imageType(header.Header.Get("Content-Type"))}
		case !errors.Is(err, http.ErrMissingFile):
			return models.EquipmentInfo{}, nil, fmt.Errorf("%w: invalid image: %v", models.ErrValidation, err)
		}
	} else {
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			return models.EquipmentInfo{}, nil, fmt.Errorf("%w: invalid JSON", models.ErrValidation)
		}
		if req.ImageBase64 != "" {
			data, err := base64.StdEncoding.DecodeString(req.ImageBase64)
			if err != nil {
				return models.EquipmentInfo{}, nil, fmt.Errorf("%w: image_base64 is not valid base64", models.ErrValidation)
			}
			image = &diagnosis.Image{Data: data, MIMEType: imageType(req.ImageMIMEType)}
		}
	}

	info := models.EquipmentInfo{
		Name:              strings.TrimSpace(req.EquipmentName),
		Brand:             strings.TrimSpace(req.Brand),
		Model:             strings.TrimSpace(req.Model),
		DefectDescription: strings.TrimSpace(req.DefectDescription),
	}
	if info.Name == "" {
		return info, nil, fmt.Errorf("%w: equipment_name is required", models.ErrValidation)
	}
	if info.DefectDescription == "" && image == nil {
		return info, nil, fmt.Errorf("%w: describe the fault or attach an image", models.ErrValidation)
	}

	category := models.CategoryBoth
	if req.DefectCategory != "" {
		c, err := models.ParseDefectCategory(req.DefectCategory)
		if err != nil {
			return info, nil, err
		}
		category = c
	}
	info.Category = category
	return info, image, nil
}

// imageType keeps a declared image type and drops anything generic so the
// client sniffs the content instead.
func imageType(declared string) string {
	if strings.HasPrefix(declared, "image/") {
		return declared
	}
	return ""
}
