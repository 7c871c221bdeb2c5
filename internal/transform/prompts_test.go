package transform

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseClassification(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name   string
		answer string
		want   Classification
		wantOK bool
	}{
		{"plain", "KITCHEN|COOKWARE", Classification{"KITCHEN", "COOKWARE"}, true},
		{"lower case and spaces", "  living room | lighting ", Classification{"LIVING_ROOM", "LIGHTING"}, true},
		{"markdown", "**HOLIDAY|CHRISTMAS**", Classification{"HOLIDAY", "CHRISTMAS"}, true},
		{"trailing explanation line", "GARDEN|PLANTS\nbecause it is a plant", Classification{"GARDEN", "PLANTS"}, true},
		{"no separator", "KITCHEN", Classification{}, false},
		{"unknown category", "GARAGE|TOOLS", Classification{"GARAGE", "TOOLS"}, false},
		{"subcategory from another category", "OFFICE|BEDDING", Classification{"OFFICE", "BEDDING"}, false},
		{"empty", "", Classification{}, false},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()

			got, ok := ParseClassification(tc.answer)
			assert.Equal(t, tc.wantOK, ok)
			assert.Equal(t, tc.want, got)
		})
	}
}

func TestClassification_Scene(t *testing.T) {
	t.Parallel()

	assert.Equal(t, "made bed with complementary bedding items",
		Classification{"BEDROOM", "BEDDING"}.Scene())
	assert.Equal(t, "neutral interior setting", Classification{"BEDROOM", "ROCKETS"}.Scene())
	assert.Equal(t, "LIVING_ROOM|DECOR", FallbackClassification().String())
	assert.True(t, FallbackClassification().Known())
}

func TestClassifierInstruction_ListsEveryCategory(t *testing.T) {
	t.Parallel()

	instruction := ClassifierInstruction()
	for _, category := range categoryOrder {
		assert.Contains(t, instruction, category+" - ")
		require.Len(t, subcategoryOrder[category], len(scenes[category]), category)
		for _, sub := range subcategoryOrder[category] {
			assert.Contains(t, scenes[category], sub)
		}
	}
	assert.Contains(t, instruction, "CATEGORY|SUBCATEGORY")
}

func TestContextPrompt(t *testing.T) {
	t.Parallel()

	prompt, err := ContextPrompt(Classification{"HOLIDAY", "EASTER"})
	require.NoError(t, err)

	assert.Contains(t, prompt, "Place the product in a holiday environment: bright spring setting with flowers, eggs and decorations")
	assert.Contains(t, prompt, "matches HOLIDAY aesthetic")
	assert.Contains(t, prompt, "make sense for easter")

	prompt, err = ContextPrompt(Classification{"MOON", "BASE"})
	require.NoError(t, err)
	assert.Contains(t, prompt, "moon environment: neutral interior setting")
}
