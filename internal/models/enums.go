package models

import (
	"fmt"
	"strings"
	"unicode"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

// DefectCategory classifies a fault as electrical, mechanical, or both.
type DefectCategory string

const (
	CategoryElectrical DefectCategory = "electrical"
	CategoryMechanical DefectCategory = "mechanical"
	CategoryBoth       DefectCategory = "both"
)

// LogStatus is the state of a maintenance log.
type LogStatus string

const (
	StatusPending  LogStatus = "Pending"
	StatusResolved LogStatus = "Resolved"
)

// ResolutionType records how the technician closed the encounter.
type ResolutionType string

const (
	ResolutionSaveForLater      ResolutionType = "save-for-later"
	ResolutionPerManual         ResolutionType = "per-manual"
	ResolutionAlternativeMethod ResolutionType = "alternative-method"
)

// ManualType is the kind of technical document.
type ManualType string

const (
	ManualUser        ManualType = "user"
	ManualTechnical   ManualType = "technical"
	ManualMaintenance ManualType = "maintenance"
	ManualOther       ManualType = "other"
)

// Difficulty of a suggested solution.
type Difficulty string

const (
	DifficultyEasy   Difficulty = "Easy"
	DifficultyMedium Difficulty = "Medium"
	DifficultyHard   Difficulty = "Hard"
)

var categoryAliases = map[string]DefectCategory{
	"electrical": CategoryElectrical,
	"eletrico":   CategoryElectrical,
	"mechanical": CategoryMechanical,
	"mecanico":   CategoryMechanical,
	"both":       CategoryBoth,
	"ambos":      CategoryBoth,
}

var resolutionAliases = map[string]ResolutionType{
	"save-for-later":     ResolutionSaveForLater,
	"salvar_depois":      ResolutionSaveForLater,
	"per-manual":         ResolutionPerManual,
	"conforme_manual":    ResolutionPerManual,
	"alternative-method": ResolutionAlternativeMethod,
	"forma_diferente":    ResolutionAlternativeMethod,
}

var manualTypeAliases = map[string]ManualType{
	"user":        ManualUser,
	"usuario":     ManualUser,
	"technical":   ManualTechnical,
	"tecnico":     ManualTechnical,
	"maintenance": ManualMaintenance,
	"manutencao":  ManualMaintenance,
	"other":       ManualOther,
	"outro":       ManualOther,
}

// ParseDefectCategory accepts the canonical names and the legacy Portuguese identifiers.
func ParseDefectCategory(s string) (DefectCategory, error) {
	if c, ok := categoryAliases[Fold(s)]; ok {
		return c, nil
	}
	return "", fmt.Errorf("%w: unknown defect category %q", ErrValidation, s)
}

// ParseResolutionType accepts the canonical names and the legacy Portuguese identifiers.
func ParseResolutionType(s string) (ResolutionType, error) {
	if r, ok := resolutionAliases[Fold(s)]; ok {
		return r, nil
	}
	return "", fmt.Errorf("%w: unknown resolution type %q", ErrValidation, s)
}

// ParseManualType accepts the canonical names and the legacy Portuguese identifiers.
func ParseManualType(s string) (ManualType, error) {
	if t, ok := manualTypeAliases[Fold(s)]; ok {
		return t, nil
	}
	return "", fmt.Errorf("%w: unknown manual type %q", ErrValidation, s)
}

// Status returns the log status implied by the resolution type.
func (r ResolutionType) Status() LogStatus {
	if r == ResolutionSaveForLater {
		return StatusPending
	}
	return StatusResolved
}

// IsValid reports whether d is one of the three difficulty levels.
func (d Difficulty) IsValid() bool {
	switch d {
	case DifficultyEasy, DifficultyMedium, DifficultyHard:
		return true
	default:
		return false
	}
}

// Fold lowercases s, trims it and strips diacritics, so "Mecânico" and "mecanico" compare equal.
func Fold(s string) string {
	t := transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)
	out, _, err := transform.String(t, s)
	if err != nil {
		out = s
	}
	return strings.ToLower(strings.TrimSpace(out))
}
