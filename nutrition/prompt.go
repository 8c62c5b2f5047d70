package nutrition

import (
	"fmt"
	"strings"

	"github.com/robertmeta/nutriinfo-cli/model"
)

// RecipeCount is how many recipes the service is asked for. It is not enforced on the reply.
const RecipeCount = 3

func languageDirective(lang model.Language) string {
	if lang == model.LanguageEnglish {
		return "The user speaks English. Return the food name, serving size and recipes in English."
	}
	return "O usuário fala Português. Retorne o nome do alimento, a porção e as receitas em Português."
}

// BuildPrompt writes the instruction sent to the AI service.
func BuildPrompt(query string, lang model.Language, recipes bool) string {
	var b strings.Builder

	fmt.Fprintf(&b, "Analyze the food item: %q.\n", query)
	b.WriteString(languageDirective(lang))
	b.WriteString("\nProvide nutritional information per standard serving or 100g.\n")
	b.WriteString("Return a JSON object with:\n")
	b.WriteString("- foodName (string, properly capitalized)\n")
	b.WriteString("- calories (number, kcal)\n")
	b.WriteString("- protein (number, grams)\n")
	b.WriteString("- carbs (number, grams)\n")
	b.WriteString("- fat (number, grams)\n")
	b.WriteString("- fiber (number, grams, estimate 0 if unknown)\n")
	b.WriteString("- sugar (number, grams, estimate 0 if unknown)\n")
	b.WriteString("- sodium (number, mg, estimate 0 if unknown)\n")
	b.WriteString(`- servingSize (string, e.g. "1 medium (182g)" or "100g")` + "\n")
	b.WriteString("- emoji (string, a single emoji representing the food)\n")
	if recipes {
		fmt.Fprintf(&b, "- recipes (array of exactly %d healthy recipes that use this food; each with "+
			"name, description, calories, protein, carbs, fat, prepTime, servings (string), "+
			"ingredients (array of strings) and instructions (array of ordered steps))\n", RecipeCount)
	}
	b.WriteString("Required fields: foodName, calories, protein, carbs, fat, servingSize")
	if recipes {
		b.WriteString(", recipes")
	}
	b.WriteString(".\nRespond with the JSON object only.")

	return b.String()
}
