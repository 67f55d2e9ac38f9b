package analysis

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/go-playground/validator/v10"

	"foodscan/internal/domain"
)

var validate = validator.New(validator.WithRequiredStructEnabled())

// modelEstimate uses pointers so a missing key is distinguishable from zero.
type modelEstimate struct {
	FoodName *string  `json:"foodName" validate:"required,min=1"`
	Calories *float64 `json:"calories" validate:"required,gte=0"`
	Protein  *float64 `json:"protein" validate:"required,gte=0"`
	Carbs    *float64 `json:"carbs" validate:"required,gte=0"`
	Fat      *float64 `json:"fat" validate:"required,gte=0"`
}

// ParseEstimate extracts a NutritionEstimate from raw model text. Markdown code
// fences are removed and exactly one JSON object is expected; every key must be
// present with the right type and foodName must not be blank.
func ParseEstimate(raw string) (*domain.NutritionEstimate, error) {
	text := extractJSONObject(raw)
	if text == "" {
		return nil, errors.New("no JSON object in model output")
	}
	dec := json.NewDecoder(strings.NewReader(text))
	var out modelEstimate
	if err := dec.Decode(&out); err != nil {
		return nil, fmt.Errorf("decode model output: %w", err)
	}
	if dec.More() {
		return nil, errors.New("model output holds more than one JSON value")
	}
	if out.FoodName != nil {
		name := strings.TrimSpace(*out.FoodName)
		out.FoodName = &name
	}
	if err := validate.Struct(out); err != nil {
		return nil, fmt.Errorf("validate model output: %w", err)
	}
	return &domain.NutritionEstimate{
		FoodName: *out.FoodName,
		Calories: *out.Calories,
		Protein:  *out.Protein,
		Carbs:    *out.Carbs,
		Fat:      *out.Fat,
	}, nil
}

func extractJSONObject(raw string) string {
	text := trimCodeFence(raw)
	start := strings.Index(text, "{")
	end := strings.LastIndex(text, "}")
	if start < 0 || end < start {
		return ""
	}
	return strings.TrimSpace(text[start : end+1])
}

func trimCodeFence(text string) string {
	trimmed := strings.TrimSpace(text)
	if !strings.HasPrefix(trimmed, "```") {
		return trimmed
	}
	trimmed = strings.TrimPrefix(trimmed, "```json")
	trimmed = strings.TrimPrefix(trimmed, "```JSON")
	trimmed = strings.TrimPrefix(trimmed, "```")
	trimmed = strings.TrimSpace(trimmed)
	if idx := strings.LastIndex(trimmed, "```"); idx >= 0 {
		trimmed = trimmed[:idx]
	}
	return strings.TrimSpace(trimmed)
}
