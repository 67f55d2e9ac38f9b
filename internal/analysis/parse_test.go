package analysis

import (
	"testing"

	"foodscan/internal/domain"
)

func TestParseEstimate(t *testing.T) {
	spaghetti := domain.NutritionEstimate{FoodName: "Spaghetti Bolognese", Calories: 550, Protein: 25, Carbs: 60, Fat: 20}
	tests := []struct {
		name    string
		raw     string
		want    *domain.NutritionEstimate
		wantErr bool
	}{
		{name: "plain", raw: spaghettiJSON, want: &spaghetti},
		{name: "json fence", raw: "```json\n" + spaghettiJSON + "\n```", want: &spaghetti},
		{name: "bare fence", raw: "```\n" + spaghettiJSON + "\n```", want: &spaghetti},
		{name: "surrounding prose", raw: "Here you go: " + spaghettiJSON, want: &spaghetti},
		{
			name: "zero values are kept",
			raw:  `{"foodName":"Water","calories":0,"protein":0,"carbs":0,"fat":0}`,
			want: &domain.NutritionEstimate{FoodName: "Water"},
		},
		{
			name: "fractional values",
			raw:  `{"foodName":"Apple","calories":52.5,"protein":0.3,"carbs":13.8,"fat":0.2}`,
			want: &domain.NutritionEstimate{FoodName: "Apple", Calories: 52.5, Protein: 0.3, Carbs: 13.8, Fat: 0.2},
		},
		{name: "extra keys ignored", raw: `{"foodName":"Egg","calories":78,"protein":6,"carbs":0.6,"fat":5,"fiber":0}`,
			want: &domain.NutritionEstimate{FoodName: "Egg", Calories: 78, Protein: 6, Carbs: 0.6, Fat: 5}},
		{name: "empty", raw: "", wantErr: true},
		{name: "prose only", raw: "Sorry, I cannot identify this.", wantErr: true},
		{name: "missing fat", raw: `{"foodName":"Egg","calories":78,"protein":6,"carbs":0.6}`, wantErr: true},
		{name: "empty name", raw: `{"foodName":"","calories":1,"protein":1,"carbs":1,"fat":1}`, wantErr: true},
		{name: "blank name", raw: `{"foodName":"   ","calories":100,"protein":1,"carbs":1,"fat":1}`, wantErr: true},
		{
			name: "name is trimmed",
			raw:  `{"foodName":"  Egg \n","calories":78,"protein":6,"carbs":0.6,"fat":5}`,
			want: &domain.NutritionEstimate{FoodName: "Egg", Calories: 78, Protein: 6, Carbs: 0.6, Fat: 5},
		},
		{name: "string number", raw: `{"foodName":"Egg","calories":"78","protein":6,"carbs":0.6,"fat":5}`, wantErr: true},
		{name: "negative", raw: `{"foodName":"Egg","calories":-5,"protein":6,"carbs":0.6,"fat":5}`, wantErr: true},
		{name: "truncated", raw: `{"foodName":"Egg","calories":78`, wantErr: true},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			got, err := ParseEstimate(tc.raw)
			if tc.wantErr {
				if err == nil {
					t.Fatalf("expected error, got %+v", got)
				}
				return
			}
			if err != nil {
				t.Fatalf("ParseEstimate error: %v", err)
			}
			if *got != *tc.want {
				t.Fatalf("ParseEstimate = %+v, want %+v", *got, *tc.want)
			}
		})
	}
}
