package diagnosis

import (
	"fmt"
	"strings"

	"github.com/ukydev/equipment-diagnostics/internal/models"
)

// DefaultHistoryLimit is how many past logs are quoted in a prompt.
const DefaultHistoryLimit = 3

// BuildHistoryExcerpt summarises past repairs of the same model, or of the
// same fault category, one "<fault> -> <technician action>" line per log.
// logs are expected newest first. A limit <= 0 uses DefaultHistoryLimit.
func BuildHistoryExcerpt(logs []models.MaintenanceLog, model string, category models.DefectCategory, limit int) string {
	if limit <= 0 {
		limit = DefaultHistoryLimit
	}

	var lines []string
	for _, l := range logs {
		if len(lines) == limit {
			break
		}
		sameModel := model != "" && l.EquipmentModel == model
		sameCategory := category != "" && l.DefectCategory == category
		if !sameModel && !sameCategory {
			continue
		}
		lines = append(lines, fmt.Sprintf("%s -> %s", oneLine(l.DefectDescription), technicianAction(l)))
	}
	return strings.Join(lines, "\n")
}

func technicianAction(l models.MaintenanceLog) string {
	if notes := oneLine(l.TechnicianNotes); notes != "" {
		return notes
	}
	switch l.ResolutionType {
	case models.ResolutionPerManual:
		return "resolved following the manual"
	case models.ResolutionSaveForLater:
		return "pending"
	}
	if len(l.Diagnosis.Solutions) > 0 {
		return l.Diagnosis.Solutions[0].Title
	}
	return "no notes"
}

func oneLine(s string) string {
	return strings.Join(strings.Fields(s), " ")
}
