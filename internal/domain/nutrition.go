package domain

import "time"

// AnalysisRequest is the decoded image submitted for one analysis call. It is
// never persisted.
type AnalysisRequest struct {
	ImageBytes []byte
	MimeType   string
}

// NutritionEstimate is the structured result returned to the caller.
type NutritionEstimate struct {
	FoodName string  `json:"foodName"`
	Calories float64 `json:"calories"`
	Protein  float64 `json:"protein"` // grams
	Carbs    float64 `json:"carbs"`   // grams
	Fat      float64 `json:"fat"`     // grams
}

// UsageEvent marks one successful analysis and is used only for quota accounting.
type UsageEvent struct {
	ID         string
	UserID     string
	CreatedAt  time.Time
	Properties map[string]any
}

// Identity is the caller resolved from a bearer credential.
type Identity struct {
	UserID string
	Email  string
	Role   string
}
