package nutrition

// Schema is the subset of JSON Schema declared to the AI service.
type Schema struct {
	Type        string             `json:"type"`
	Description string             `json:"description,omitempty"`
	Properties  map[string]*Schema `json:"properties,omitempty"`
	Items       *Schema            `json:"items,omitempty"`
	Required    []string           `json:"required,omitempty"`
}

func str(desc string) *Schema { return &Schema{Type: "string", Description: desc} }
func num(desc string) *Schema { return &Schema{Type: "number", Description: desc} }

// RecipeSchema describes one suggested recipe.
func RecipeSchema() *Schema {
	return &Schema{
		Type: "object",
		Properties: map[string]*Schema{
			"name":         str("recipe name"),
			"description":  str("one sentence description"),
			"calories":     num("kcal per serving"),
			"protein":      num("grams per serving"),
			"carbs":        num("grams per serving"),
			"fat":          num("grams per serving"),
			"prepTime":     str(`preparation time, e.g. "20 min"`),
			"servings":     str(`number of servings, e.g. "2"`),
			"ingredients":  {Type: "array", Items: str("ingredient with quantity")},
			"instructions": {Type: "array", Items: str("one step")},
		},
		Required: []string{"name", "description", "calories", "protein", "carbs", "fat", "prepTime"},
	}
}

// NutritionSchema describes the nutrition record. With recipes set the
// recipes array becomes a required field.
func NutritionSchema(recipes bool) *Schema {
	s := &Schema{
		Type: "object",
		Properties: map[string]*Schema{
			"foodName":    str("food name, properly capitalized"),
			"calories":    num("kcal"),
			"protein":     num("grams"),
			"carbs":       num("grams"),
			"fat":         num("grams"),
			"fiber":       num("grams, 0 if unknown"),
			"sugar":       num("grams, 0 if unknown"),
			"sodium":      num("milligrams, 0 if unknown"),
			"servingSize": str(`e.g. "1 medium (182g)" or "100g"`),
			"emoji":       str("a single emoji representing the food"),
		},
		Required: []string{"foodName", "calories", "protein", "carbs", "fat", "servingSize"},
	}
	if recipes {
		s.Properties["recipes"] = &Schema{Type: "array", Items: RecipeSchema()}
		s.Required = append(s.Required, "recipes")
	}
	return s
}
