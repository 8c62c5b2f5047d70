package main

import (
	"testing"

	"github.com/robertmeta/nutriinfo-cli/app"
	"github.com/robertmeta/nutriinfo-cli/model"
	"github.com/stretchr/testify/assert"
)

func TestPickRecipe(t *testing.T) {
	last := []model.Recipe{{Name: "Baked Apple"}, {Name: "Apple Salad"}}
	saved := []model.Recipe{{Name: "Rice Pudding"}}

	tests := []struct {
		name string
		arg  string
		want string
		ok   bool
	}{
		{"first index", "1", "Baked Apple", true},
		{"last index", "2", "Apple Salad", true},
		{"index out of range", "3", "", false},
		{"zero index", "0", "", false},
		{"name from last result", "apple salad", "Apple Salad", true},
		{"name from favorites", "Rice Pudding", "Rice Pudding", true},
		{"unknown name", "Pizza", "", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := pickRecipe(tt.arg, last, saved)
			assert.Equal(t, tt.ok, ok)
			assert.Equal(t, tt.want, got.Name)
		})
	}
}

func TestIndexRecipes(t *testing.T) {
	views := []app.RecipeView{
		{Recipe: model.Recipe{Name: "A"}},
		{Recipe: model.Recipe{Name: "B"}, IsFavorite: true},
	}

	out := indexRecipes(views)
	assert.Len(t, out, 2)
	assert.Equal(t, 1, out[0].Index)
	assert.Equal(t, 2, out[1].Index)
	assert.True(t, out[1].IsFavorite)
}
