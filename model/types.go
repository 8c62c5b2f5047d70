// Package model defines the core data structures for nutriinfo-cli.
package model

import (
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
)

// recipeNamespace scopes the name-derived recipe IDs.
var recipeNamespace = uuid.MustParse("6f1c9a52-3c1e-4b8e-9d55-0b7f3f2a9e41")

// Language selects the response language and the user-facing messages.
type Language string

const (
	LanguagePortuguese Language = "pt-BR"
	LanguageEnglish    Language = "en-US"
)

// DefaultLanguage is used when nothing else is configured.
const DefaultLanguage = LanguagePortuguese

// ParseLanguage validates a language code.
func ParseLanguage(s string) (Language, error) {
	switch Language(strings.TrimSpace(s)) {
	case LanguagePortuguese:
		return LanguagePortuguese, nil
	case LanguageEnglish:
		return LanguageEnglish, nil
	}
	return "", fmt.Errorf("unsupported language: %q (expected pt-BR or en-US)", s)
}

// ErrorKind classifies a failed lookup for the user.
type ErrorKind int

const (
	// ErrorGeneric covers transport, service and payload failures.
	ErrorGeneric ErrorKind = iota
	// ErrorMissingCredential means no API key was configured.
	ErrorMissingCredential
)

func (k ErrorKind) String() string {
	if k == ErrorMissingCredential {
		return "missing_credential"
	}
	return "generic"
}

// MarshalText encodes the kind by name.
func (k ErrorKind) MarshalText() ([]byte, error) {
	return []byte(k.String()), nil
}

// NutritionRecord holds the analyzed food item.
type NutritionRecord struct {
	FoodName    string   `json:"foodName" yaml:"foodName"`
	Calories    float64  `json:"calories" yaml:"calories"`
	Protein     float64  `json:"protein" yaml:"protein"`
	Carbs       float64  `json:"carbs" yaml:"carbs"`
	Fat         float64  `json:"fat" yaml:"fat"`
	Fiber       float64  `json:"fiber" yaml:"fiber"`
	Sugar       float64  `json:"sugar" yaml:"sugar"`
	Sodium      float64  `json:"sodium" yaml:"sodium"`
	ServingSize string   `json:"servingSize" yaml:"servingSize"`
	Emoji       string   `json:"emoji,omitempty" yaml:"emoji,omitempty"`
	Recipes     []Recipe `json:"recipes,omitempty" yaml:"recipes,omitempty"`
}

// Validate checks the invariants of a record built outside the query client.
func (n *NutritionRecord) Validate() error {
	if strings.TrimSpace(n.FoodName) == "" {
		return errors.New("food name is required")
	}
	if strings.TrimSpace(n.ServingSize) == "" {
		return errors.New("serving size is required")
	}
	values := map[string]float64{
		"calories": n.Calories, "protein": n.Protein, "carbs": n.Carbs, "fat": n.Fat,
		"fiber": n.Fiber, "sugar": n.Sugar, "sodium": n.Sodium,
	}
	for name, v := range values {
		if v < 0 {
			return fmt.Errorf("%s must not be negative", name)
		}
	}
	return nil
}

// MacroShare is one slice of the macronutrient distribution.
type MacroShare struct {
	Name    string  `json:"name"`
	Grams   float64 `json:"grams"`
	Percent float64 `json:"percent"`
}

// MacroDistribution splits protein, carbs and fat by weight.
// Macros with no grams are left out.
func (n *NutritionRecord) MacroDistribution() []MacroShare {
	macros := []MacroShare{
		{Name: "protein", Grams: n.Protein},
		{Name: "carbs", Grams: n.Carbs},
		{Name: "fat", Grams: n.Fat},
	}

	var total float64
	shares := macros[:0]
	for _, m := range macros {
		if m.Grams > 0 {
			total += m.Grams
			shares = append(shares, m)
		}
	}
	for i := range shares {
		shares[i].Percent = shares[i].Grams / total * 100
	}
	return shares
}

// Recipe is a suggested dish. Its name is its identity.
type Recipe struct {
	Name         string   `json:"name" yaml:"name"`
	Description  string   `json:"description" yaml:"description"`
	Calories     float64  `json:"calories" yaml:"calories"`
	Protein      float64  `json:"protein" yaml:"protein"`
	Carbs        float64  `json:"carbs" yaml:"carbs"`
	Fat          float64  `json:"fat" yaml:"fat"`
	PrepTime     string   `json:"prepTime" yaml:"prepTime"`
	Servings     string   `json:"servings" yaml:"servings,omitempty"`
	Ingredients  []string `json:"ingredients" yaml:"ingredients,omitempty"`
	Instructions []string `json:"instructions" yaml:"instructions,omitempty"`
}

// Validate checks that the recipe can be stored as a favorite.
func (r *Recipe) Validate() error {
	if r.Name == "" {
		return errors.New("recipe name is required")
	}
	return nil
}

// ID returns a stable identifier derived from the name.
// Recipes sharing a name share an ID.
func (r *Recipe) ID() string {
	return uuid.NewSHA1(recipeNamespace, []byte(r.Name)).String()
}

// SameAs reports whether two recipes have the same identity.
func (r *Recipe) SameAs(other Recipe) bool {
	return r.Name == other.Name
}
