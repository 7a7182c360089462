package diagnosis

import (
	"fmt"
	"strings"

	"github.com/ukydev/equipment-diagnostics/internal/models"
	"google.golang.org/genai"
)

func systemInstruction(category models.DefectCategory) string {
	focus := strings.ToUpper(string(category))
	if focus == "" {
		focus = "GENERAL"
	}

	var b strings.Builder
	b.WriteString("You are the lead maintenance engineer for a fleet of rental industrial equipment ")
	b.WriteString("(generators, lighting towers, compressors, construction machinery).\n")
	fmt.Fprintf(&b, "Fault category: %s. Focus the diagnosis on %s failures.\n", focus, strings.ToLower(focus))
	b.WriteString("Be pragmatic: suggest steps a field technician can carry out on a job site.\n")
	b.WriteString("When field history is provided, prioritise the solutions that worked before.\n")
	b.WriteString("Return only JSON with two fields: possible_causes (array of strings) and ")
	b.WriteString("solutions (array of objects with title, steps and difficulty).\n")
	b.WriteString("difficulty must be exactly one of: Easy, Medium, Hard.\n")
	b.WriteString("Write causes, titles and steps in the language of the fault report.")
	return b.String()
}

func userPrompt(info models.EquipmentInfo, manualText, history string) string {
	if strings.TrimSpace(manualText) == "" {
		manualText = "Not available (use general technical knowledge)."
	}
	if strings.TrimSpace(history) == "" {
		history = "No prior records."
	}

	var b strings.Builder
	fmt.Fprintf(&b, "EQUIPMENT: %s (%s %s)\n", info.Name, info.Brand, info.Model)
	fmt.Fprintf(&b, "REPORTED FAULT: %q\n", info.DefectDescription)
	fmt.Fprintf(&b, "MANUAL: %s\n", manualText)
	fmt.Fprintf(&b, "FIELD HISTORY:\n%s\n", history)
	return b.String()
}

// responseSchema constrains decoding to the canonical result shape.
func responseSchema() *genai.Schema {
	str := &genai.Schema{Type: genai.TypeString}
	return &genai.Schema{
		Type: genai.TypeObject,
		Properties: map[string]*genai.Schema{
			"possible_causes": {Type: genai.TypeArray, Items: str},
			"solutions": {
				Type: genai.TypeArray,
				Items: &genai.Schema{
					Type: genai.TypeObject,
					Properties: map[string]*genai.Schema{
						"title": str,
						"steps": {Type: genai.TypeArray, Items: str},
						"difficulty": {
							Type:        genai.TypeString,
							Enum:        []string{string(models.DifficultyEasy), string(models.DifficultyMedium), string(models.DifficultyHard)},
							Description: "How hard the solution is to carry out in the field",
						},
					},
					Required:         []string{"title", "steps", "difficulty"},
					PropertyOrdering: []string{"title", "steps", "difficulty"},
				},
			},
		},
		Required:         []string{"possible_causes", "solutions"},
		PropertyOrdering: []string{"possible_causes", "solutions"},
	}
}
