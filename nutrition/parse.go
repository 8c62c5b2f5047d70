package nutrition

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/robertmeta/nutriinfo-cli/model"
)

var validate = validator.New()

// Pointer fields tell a missing number apart from zero.
type wireRecord struct {
	FoodName    string       `json:"foodName" validate:"required"`
	Calories    *float64     `json:"calories" validate:"required,gte=0"`
	Protein     *float64     `json:"protein" validate:"required,gte=0"`
	Carbs       *float64     `json:"carbs" validate:"required,gte=0"`
	Fat         *float64     `json:"fat" validate:"required,gte=0"`
	Fiber       *float64     `json:"fiber" validate:"omitempty,gte=0"`
	Sugar       *float64     `json:"sugar" validate:"omitempty,gte=0"`
	Sodium      *float64     `json:"sodium" validate:"omitempty,gte=0"`
	ServingSize string       `json:"servingSize" validate:"required"`
	Emoji       string       `json:"emoji"`
	Recipes     []wireRecipe `json:"recipes" validate:"dive"`
}

type wireRecipe struct {
	Name         string   `json:"name" validate:"required"`
	Description  string   `json:"description" validate:"required"`
	Calories     *float64 `json:"calories" validate:"required,gte=0"`
	Protein      *float64 `json:"protein" validate:"required,gte=0"`
	Carbs        *float64 `json:"carbs" validate:"required,gte=0"`
	Fat          *float64 `json:"fat" validate:"required,gte=0"`
	PrepTime     string   `json:"prepTime" validate:"required"`
	Servings     string   `json:"servings"`
	Ingredients  []string `json:"ingredients"`
	Instructions []string `json:"instructions"`
}

// Parse validates a service payload and converts it into a record.
// With recipes set, a payload without a recipes array is rejected.
func Parse(text string, recipes bool) (*model.NutritionRecord, error) {
	payload := stripFence(text)
	if payload == "" {
		return nil, errEmptyResponse
	}

	dec := json.NewDecoder(strings.NewReader(payload))
	var w wireRecord
	if err := dec.Decode(&w); err != nil {
		return nil, fmt.Errorf("malformed payload: %w", err)
	}
	if _, err := dec.Token(); !errors.Is(err, io.EOF) {
		return nil, errors.New("malformed payload: trailing data after object")
	}

	if err := validate.Struct(&w); err != nil {
		return nil, fmt.Errorf("payload violates schema: %w", err)
	}
	if recipes && w.Recipes == nil {
		return nil, errors.New("payload violates schema: recipes missing")
	}

	return w.record(), nil
}

// stripFence removes a surrounding markdown code fence, if any.
func stripFence(text string) string {
	s := strings.TrimSpace(text)
	if !strings.HasPrefix(s, "```") {
		return s
	}
	s = strings.TrimPrefix(s, "```")
	if nl := strings.IndexByte(s, '\n'); nl >= 0 && !strings.ContainsAny(s[:nl], "{[") {
		s = s[nl+1:]
	}
	s = strings.TrimSuffix(strings.TrimSpace(s), "```")
	return strings.TrimSpace(s)
}

func value(p *float64) float64 {
	if p == nil {
		return 0
	}
	return *p
}

func (w *wireRecord) record() *model.NutritionRecord {
	rec := &model.NutritionRecord{
		FoodName:    w.FoodName,
		Calories:    value(w.Calories),
		Protein:     value(w.Protein),
		Carbs:       value(w.Carbs),
		Fat:         value(w.Fat),
		Fiber:       value(w.Fiber),
		Sugar:       value(w.Sugar),
		Sodium:      value(w.Sodium),
		ServingSize: w.ServingSize,
		Emoji:       w.Emoji,
	}
	for _, r := range w.Recipes {
		rec.Recipes = append(rec.Recipes, model.Recipe{
			Name:         r.Name,
			Description:  r.Description,
			Calories:     value(r.Calories),
			Protein:      value(r.Protein),
			Carbs:        value(r.Carbs),
			Fat:          value(r.Fat),
			PrepTime:     r.PrepTime,
			Servings:     r.Servings,
			Ingredients:  r.Ingredients,
			Instructions: r.Instructions,
		})
	}
	return rec
}
