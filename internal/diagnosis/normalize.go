package diagnosis

import (
	"bytes"
	"encoding/json"
	"fmt"
	"regexp"
	"sort"
	"strings"

	"github.com/ukydev/equipment-diagnostics/internal/models"
)

const (
	genericSolutionTitle = "Suggested action"
	inspectSolutionTitle = "Inspect the identified points"
	inspectSolutionStep  = "Inspect each of the possible causes listed above, in order, before replacing parts."
)

var (
	causeKey    = regexp.MustCompile(`caus|fault|falh|diagnos|reason|motiv|origin|origem|problem`)
	solutionKey = regexp.MustCompile(`solu|remed|^plan|_plan|action|acao|acoes|fix|repar|step|passo`)

	titleKey      = regexp.MustCompile(`titl|titul|name|nome`)
	stepsKey      = regexp.MustCompile(`step|passo|etapa|instru|action|acao|acoes|procedure|procedimento`)
	difficultyKey = regexp.MustCompile(`diffic|dificuld|level|nivel|complex`)
)

// textKeys is the priority order used to pick a string out of an object
// found where a string was expected.
var textKeys = []string{
	"description", "descricao", "text", "texto", "cause", "causa",
	"title", "titulo", "name", "nome", "step", "passo", "detail", "value",
}

// ParseResult decodes a model response, tolerating a surrounding markdown
// code fence, and normalizes it. Results without causes or without solutions
// are rejected.
func ParseResult(text string) (*models.DiagnosticResult, error) {
	payload := stripCodeFence(text)

	var raw any
	if err := json.Unmarshal([]byte(payload), &raw); err != nil {
		return nil, fmt.Errorf("%w: response is not JSON: %v", models.ErrSchemaMismatch, err)
	}

	result := Normalize(raw)
	if !result.Complete() {
		return nil, fmt.Errorf("%w: response has no causes or no solutions", models.ErrSchemaMismatch)
	}
	return &result, nil
}

// Normalize maps a decoded JSON value onto the canonical result shape.
// Canonical input is returned unchanged; anything else goes through a single
// flattening pass. A non-object yields an empty result.
func Normalize(raw any) models.DiagnosticResult {
	obj, ok := raw.(map[string]any)
	if !ok {
		return models.DiagnosticResult{PossibleCauses: []string{}, Solutions: []models.Solution{}}
	}

	if result, ok := strictDecode(obj); ok {
		return result
	}
	return flatten(obj)
}

// strictDecode succeeds only for payloads that already have the exact
// canonical shape and valid difficulty values.
func strictDecode(obj map[string]any) (models.DiagnosticResult, bool) {
	data, err := json.Marshal(obj)
	if err != nil {
		return models.DiagnosticResult{}, false
	}
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.DisallowUnknownFields()

	var result models.DiagnosticResult
	if err := dec.Decode(&result); err != nil {
		return models.DiagnosticResult{}, false
	}
	if result.PossibleCauses == nil || result.Solutions == nil {
		return models.DiagnosticResult{}, false
	}
	if len(result.Solutions) == 0 && len(result.PossibleCauses) > 0 {
		return models.DiagnosticResult{}, false
	}
	for _, s := range result.Solutions {
		if !s.Difficulty.IsValid() || len(s.Steps) == 0 {
			return models.DiagnosticResult{}, false
		}
	}
	return result, true
}

func flatten(obj map[string]any) models.DiagnosticResult {
	result := models.DiagnosticResult{PossibleCauses: []string{}, Solutions: []models.Solution{}}

	causesAt, causesVal := locate(obj, "possible_causes", causeKey, "")
	if causesAt != "" {
		result.PossibleCauses = toStrings(causesVal)
	}

	if solutionsAt, solutionsVal := locate(obj, "solutions", solutionKey, causesAt); solutionsAt != "" {
		result.Solutions = toSolutions(solutionsVal)
	}

	if len(result.Solutions) == 0 && len(result.PossibleCauses) > 0 {
		result.Solutions = []models.Solution{{
			Title:      inspectSolutionTitle,
			Steps:      []string{inspectSolutionStep},
			Difficulty: models.DifficultyEasy,
		}}
	}
	return result
}

// locate returns the key holding a field: the exact canonical key when
// present, else the first key in sorted order whose folded name matches the
// synonym pattern. skip excludes a key already claimed by another field.
func locate(obj map[string]any, exact string, synonyms *regexp.Regexp, skip string) (string, any) {
	if v, ok := obj[exact]; ok && exact != skip {
		return exact, v
	}
	for _, k := range sortedKeys(obj) {
		if k == skip {
			continue
		}
		if synonyms.MatchString(models.Fold(k)) {
			return k, obj[k]
		}
	}
	return "", nil
}

func sortedKeys(obj map[string]any) []string {
	keys := make([]string, 0, len(obj))
	for k := range obj {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

func toStrings(v any) []string {
	out := []string{}
	switch val := v.(type) {
	case nil:
	case []any:
		for _, item := range val {
			switch item.(type) {
			case []any:
				out = append(out, toStrings(item)...)
			default:
				if s := toText(item); s != "" {
					out = append(out, s)
				}
			}
		}
	default:
		if s := toText(val); s != "" {
			out = append(out, s)
		}
	}
	return out
}

// toText renders a scalar or object as a single string.
func toText(v any) string {
	switch val := v.(type) {
	case nil:
		return ""
	case string:
		return strings.TrimSpace(val)
	case map[string]any:
		return objectText(val)
	default:
		return fmt.Sprint(val)
	}
}

func objectText(obj map[string]any) string {
	folded := make(map[string]any, len(obj))
	for k, v := range obj {
		folded[models.Fold(k)] = v
	}
	for _, k := range textKeys {
		if s, ok := folded[k].(string); ok && strings.TrimSpace(s) != "" {
			return strings.TrimSpace(s)
		}
	}
	data, err := json.Marshal(obj)
	if err != nil {
		return ""
	}
	return string(data)
}

func toSolutions(v any) []models.Solution {
	var items []any
	switch val := v.(type) {
	case nil:
		return []models.Solution{}
	case []any:
		items = val
	default:
		items = []any{val}
	}

	out := []models.Solution{}
	for _, item := range items {
		switch it := item.(type) {
		case map[string]any:
			out = append(out, solutionFromObject(it))
		default:
			if s := toText(it); s != "" {
				out = append(out, models.Solution{
					Title:      genericSolutionTitle,
					Steps:      []string{s},
					Difficulty: models.DifficultyMedium,
				})
			}
		}
	}
	return out
}

func solutionFromObject(obj map[string]any) models.Solution {
	sol := models.Solution{Difficulty: models.DifficultyMedium, Steps: []string{}}

	for _, k := range sortedKeys(obj) {
		folded := models.Fold(k)
		switch {
		case sol.Title == "" && titleKey.MatchString(folded):
			sol.Title = toText(obj[k])
		case len(sol.Steps) == 0 && stepsKey.MatchString(folded):
			sol.Steps = toStrings(obj[k])
		case difficultyKey.MatchString(folded):
			sol.Difficulty = ParseDifficulty(toText(obj[k]))
		}
	}

	if sol.Title == "" {
		sol.Title = genericSolutionTitle
	}
	if len(sol.Steps) == 0 {
		if d := objectText(obj); d != "" && d != sol.Title {
			sol.Steps = []string{d}
		} else {
			sol.Steps = []string{sol.Title}
		}
	}
	return sol
}

// ParseDifficulty maps free text such as "Fácil", "média" or "HARD" to a
// difficulty level. Unrecognised text is Medium.
func ParseDifficulty(s string) models.Difficulty {
	f := models.Fold(s)
	switch {
	case strings.Contains(f, "facil"), strings.Contains(f, "easy"):
		return models.DifficultyEasy
	case strings.Contains(f, "dificil"), strings.Contains(f, "hard"):
		return models.DifficultyHard
	default:
		return models.DifficultyMedium
	}
}

func stripCodeFence(text string) string {
	t := strings.TrimSpace(text)
	if !strings.HasPrefix(t, "```") {
		return t
	}
	t = strings.TrimPrefix(t, "```")
	if nl := strings.IndexByte(t, '\n'); nl >= 0 {
		t = t[nl+1:]
	}
	t = strings.TrimSuffix(strings.TrimSpace(t), "```")
	return strings.TrimSpace(t)
}
