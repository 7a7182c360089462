package diagnosis

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/ukydev/equipment-diagnostics/internal/models"
)

func TestBuildHistoryExcerpt(t *testing.T) {
	logs := []models.MaintenanceLog{
		{EquipmentModel: "V20", DefectCategory: models.CategoryElectrical, DefectDescription: "no start", TechnicianNotes: "replaced starter relay"},
		{EquipmentModel: "X1", DefectCategory: models.CategoryElectrical, DefectDescription: "lamp flicker", TechnicianNotes: "tightened ballast"},
		{EquipmentModel: "X2", DefectCategory: models.CategoryMechanical, DefectDescription: "oil leak", TechnicianNotes: "new gasket"},
		{EquipmentModel: "V20", DefectCategory: models.CategoryMechanical, DefectDescription: "belt\nnoise", TechnicianNotes: "  adjusted   tension "},
		{EquipmentModel: "V20", DefectCategory: models.CategoryMechanical, DefectDescription: "fourth", TechnicianNotes: "ignored"},
	}

	excerpt := BuildHistoryExcerpt(logs, "V20", models.CategoryMechanical, 0)
	lines := strings.Split(excerpt, "\n")

	assert.Equal(t, []string{
		"no start -> replaced starter relay",
		"oil leak -> new gasket",
		"belt noise -> adjusted tension",
	}, lines)
}

func TestBuildHistoryExcerpt_NoMatches(t *testing.T) {
	logs := []models.MaintenanceLog{
		{EquipmentModel: "X1", DefectCategory: models.CategoryElectrical, DefectDescription: "lamp flicker"},
	}
	assert.Empty(t, BuildHistoryExcerpt(logs, "V20", models.CategoryMechanical, 3))
	assert.Empty(t, BuildHistoryExcerpt(nil, "V20", models.CategoryMechanical, 3))
}

func TestBuildHistoryExcerpt_EmptyModelDoesNotMatchEverything(t *testing.T) {
	logs := []models.MaintenanceLog{
		{EquipmentModel: "", DefectCategory: models.CategoryElectrical, DefectDescription: "lamp flicker"},
	}
	assert.Empty(t, BuildHistoryExcerpt(logs, "", models.CategoryMechanical, 3))
}

func TestBuildHistoryExcerpt_ActionFallbacks(t *testing.T) {
	logs := []models.MaintenanceLog{
		{EquipmentModel: "V20", DefectDescription: "a", ResolutionType: models.ResolutionPerManual},
		{EquipmentModel: "V20", DefectDescription: "b", ResolutionType: models.ResolutionSaveForLater},
		{EquipmentModel: "V20", DefectDescription: "c", Diagnosis: models.DiagnosticResult{
			Solutions: []models.Solution{{Title: "Swap fuse"}},
		}},
	}

	excerpt := BuildHistoryExcerpt(logs, "V20", "", 5)
	assert.Equal(t, "a -> resolved following the manual\nb -> pending\nc -> Swap fuse", excerpt)
}
