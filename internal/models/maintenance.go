package models

import (
	"go.mongodb.org/mongo-driver/bson/primitive"
	"time"
)

// MaintenanceLog is one diagnostic encounter and how it was resolved.
type MaintenanceLog struct {
	ID                primitive.ObjectID `json:"id" bson:"_id,omitempty"`
	EquipmentModel    string             `json:"equipment_model" bson:"equipment_model"`
	EquipmentName     string             `json:"equipment_name" bson:"equipment_name"`
	Brand             string             `json:"brand" bson:"brand"`
	DefectCategory    DefectCategory     `json:"defect_category" bson:"defect_category"`
	DefectDescription string             `json:"defect_description" bson:"defect_description"`
	Diagnosis         DiagnosticResult   `json:"diagnosis" bson:"diagnosis"`
	Status            LogStatus          `json:"status" bson:"status"`
	ResolutionType    ResolutionType     `json:"resolution_type" bson:"resolution_type"`
	TechnicianName    string             `json:"technician_name" bson:"technician_name"`
	TechnicianNotes   string             `json:"technician_notes" bson:"technician_notes"`
	AttachmentNotes   string             `json:"attachment_notes" bson:"attachment_notes"`
	Date              time.Time          `json:"date" bson:"date"`
}

// Manual is an uploaded technical document for an equipment model.
type Manual struct {
	ID             primitive.ObjectID `json:"id" bson:"_id,omitempty"`
	EquipmentName  string             `json:"equipment_name" bson:"equipment_name"`
	Brand          string             `json:"brand" bson:"brand"`
	Model          string             `json:"model" bson:"model"`
	ManualType     ManualType         `json:"manual_type" bson:"manual_type"`
	ManualCategory DefectCategory     `json:"manual_category" bson:"manual_category"`
	Description    string             `json:"description" bson:"description"`
	FileURL        string             `json:"file_url" bson:"file_url"`
	FileName       string             `json:"file_name" bson:"file_name"`
	CreatedAt      time.Time          `json:"created_at" bson:"created_at"`
}

// DiagnosticResult is the structured causes/solutions payload of an analysis.
type DiagnosticResult struct {
	PossibleCauses []string   `json:"possible_causes" bson:"possible_causes"`
	Solutions      []Solution `json:"solutions" bson:"solutions"`
}

// Solution is one suggested course of action.
type Solution struct {
	Title      string     `json:"title" bson:"title"`
	Steps      []string   `json:"steps" bson:"steps"`
	Difficulty Difficulty `json:"difficulty" bson:"difficulty"`
}

// Complete reports whether the result has at least one cause and one
// solution, and every solution has at least one step.
func (r DiagnosticResult) Complete() bool {
	if len(r.PossibleCauses) == 0 || len(r.Solutions) == 0 {
		return false
	}
	for _, s := range r.Solutions {
		if len(s.Steps) == 0 {
			return false
		}
	}
	return true
}

// UploadedFile points at a stored blob and carries its display name.
type UploadedFile struct {
	FileURL  string `json:"file_url"`
	FileName string `json:"file_name"`
}

// EquipmentInfo identifies the asset and the reported fault for an analysis.
type EquipmentInfo struct {
	Name              string         `json:"equipment_name"`
	Brand             string         `json:"brand"`
	Model             string         `json:"model"`
	DefectDescription string         `json:"defect_description"`
	Category          DefectCategory `json:"defect_category"`
}
