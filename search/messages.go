package search

import "github.com/robertmeta/nutriinfo-cli/model"

// Translation is the set of UI strings for one language.
type Translation struct {
	Title             string `json:"title"`
	Subtitle          string `json:"subtitle"`
	SearchPlaceholder string `json:"searchPlaceholder"`
	SearchButton      string `json:"searchButton"`
	Loading           string `json:"loading"`
	ErrorGeneric      string `json:"errorGeneric"`
	ErrorAPIKey       string `json:"errorApiKey"`
	Calories          string `json:"calories"`
	Protein           string `json:"protein"`
	Carbs             string `json:"carbs"`
	Fat               string `json:"fat"`
	Fiber             string `json:"fiber"`
	Sugar             string `json:"sugar"`
	Sodium            string `json:"sodium"`
	ServingSize       string `json:"servingSize"`
	MacroDistribution string `json:"macroDistribution"`
	Footer            string `json:"footer"`
}

var translations = map[model.Language]Translation{
	model.LanguagePortuguese: {
		Title:             "NutriInfo IA",
		Subtitle:          "Descubra o valor nutricional dos seus alimentos favoritos",
		SearchPlaceholder: "Ex: Maçã, Pão Francês, Arroz com Feijão...",
		SearchButton:      "Buscar informações nutricionais",
		Loading:           "Analisando alimento...",
		ErrorGeneric:      "Não foi possível encontrar informações para este alimento. Tente ser mais específico.",
		ErrorAPIKey:       "Chave de API não configurada. Por favor, verifique suas variáveis de ambiente.",
		Calories:          "Calorias",
		Protein:           "Proteínas",
		Carbs:             "Carboidratos",
		Fat:               "Gorduras",
		Fiber:             "Fibras",
		Sugar:             "Açúcares",
		Sodium:            "Sódio",
		ServingSize:       "Porção",
		MacroDistribution: "Distribuição de Macronutrientes",
		Footer:            "Desenvolvido com IA generativa",
	},
	model.LanguageEnglish: {
		Title:             "NutriInfo AI",
		Subtitle:          "Discover the nutritional value of your favorite foods",
		SearchPlaceholder: "Ex: Apple, Bagel, Rice and Beans...",
		SearchButton:      "Search Nutrition Info",
		Loading:           "Analyzing food...",
		ErrorGeneric:      "Could not find information for this food. Please try to be more specific.",
		ErrorAPIKey:       "API Key not configured. Please check your environment variables.",
		Calories:          "Calories",
		Protein:           "Protein",
		Carbs:             "Carbs",
		Fat:               "Fats",
		Fiber:             "Fiber",
		Sugar:             "Sugar",
		Sodium:            "Sodium",
		ServingSize:       "Serving Size",
		MacroDistribution: "Macronutrient Distribution",
		Footer:            "Powered by generative AI",
	},
}

// TranslationFor returns the UI strings for lang, falling back to the default language.
func TranslationFor(lang model.Language) Translation {
	if t, ok := translations[lang]; ok {
		return t
	}
	return translations[model.DefaultLanguage]
}

// ErrorMessage returns the user-facing text for a failure kind.
func ErrorMessage(kind model.ErrorKind, lang model.Language) string {
	t := TranslationFor(lang)
	if kind == model.ErrorMissingCredential {
		return t.ErrorAPIKey
	}
	return t.ErrorGeneric
}
