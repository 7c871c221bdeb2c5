package transform

import (
	"bytes"
	"fmt"
	"strings"
	"text/template"
)

// Fallback classification used when the classifier fails or answers with a
// pair outside the scene table.
const (
	FallbackCategory    = "LIVING_ROOM"
	FallbackSubcategory = "DECOR"

	neutralScene = "neutral interior setting"
)

// scenes maps CATEGORY -> SUBCATEGORY -> description of the surroundings the
// product is placed into.
var scenes = map[string]map[string]string{
	"KITCHEN": {
		"COOKWARE":   "kitchen counter with other cooking utensils, stove in background",
		"UTENSILS":   "kitchen drawer or utensil holder, cooking preparation scene",
		"APPLIANCES": "kitchen counter with other appliances, modern kitchen setting",
		"STORAGE":    "pantry or kitchen shelves with other storage items",
		"DINNERWARE": "dining table setting or kitchen cabinet with other dishes",
		"DECOR":      "kitchen wall or counter with decorative elements",
	},
	"BATHROOM": {
		"TOWELS":      "bathroom towel rack or shelf with other bathroom textiles",
		"HYGIENE":     "bathroom sink or shower with other hygiene products",
		"FURNITURE":   "bathroom with vanity or storage furniture",
		"STORAGE":     "bathroom shelves or organizer with other bathroom items",
		"ACCESSORIES": "bathroom wall or counter with accessories",
		"CLEANING":    "bathroom cleaning station or storage area",
	},
	"LIVING_ROOM": {
		"FURNITURE":   "living room with complementary furniture pieces",
		"LIGHTING":    "living room corner with ambient lighting",
		"DECOR":       "living room shelf or wall with decorative items",
		"TEXTILES":    "sofa or armchair with complementary textiles",
		"STORAGE":     "living room shelves or media console",
		"ELECTRONICS": "entertainment center or tech area",
	},
	"BEDROOM": {
		"BEDDING":   "made bed with complementary bedding items",
		"FURNITURE": "bedroom with complementary furniture arrangement",
		"LIGHTING":  "bedside table with lighting elements",
		"DECOR":     "bedroom dresser or wall with decorative pieces",
		"STORAGE":   "bedroom closet or storage area",
		"TEXTILES":  "bed or seating area with textile elements",
	},
	"GARDEN": {
		"FURNITURE": "garden patio or deck with outdoor furniture",
		"TOOLS":     "garden shed or tool storage area",
		"DECOR":     "garden path or flower bed with decorative elements",
		"PLANTS":    "garden bed or plant display area",
		"LIGHTING":  "garden evening scene with lighting",
		"STORAGE":   "garden storage box or shelf",
	},
	"OFFICE": {
		"FURNITURE":    "office space with desk and chair setup",
		"ORGANIZATION": "office desk with organizational systems",
		"STATIONERY":   "office desk with stationery items",
		"TECH":         "office workstation with technology accessories",
		"DECOR":        "office shelf or wall with decorative elements",
	},
	"HOLIDAY": {
		"CHRISTMAS": "festive indoor setting with Christmas tree, lights and ornaments",
		"EASTER":    "bright spring setting with flowers, eggs and decorations",
		"HALLOWEEN": "autumn interior with pumpkins, candles, spider webs",
		"NEW_YEAR":  "festive interior with garlands, tinsel and lights",
		"VALENTINE": "romantic indoor decor with hearts, candles and flowers",
		"GENERAL":   "festive cozy room with party decorations",
	},
}

// categoryOrder fixes the order categories are listed in prompts.
var categoryOrder = []string{"KITCHEN", "BATHROOM", "LIVING_ROOM", "BEDROOM", "GARDEN", "OFFICE", "HOLIDAY"}

// subcategoryOrder fixes the order subcategories are listed in prompts.
var subcategoryOrder = map[string][]string{
	"KITCHEN":     {"COOKWARE", "UTENSILS", "APPLIANCES", "STORAGE", "DINNERWARE", "DECOR"},
	"BATHROOM":    {"TOWELS", "HYGIENE", "FURNITURE", "STORAGE", "ACCESSORIES", "CLEANING"},
	"LIVING_ROOM": {"FURNITURE", "LIGHTING", "DECOR", "TEXTILES", "STORAGE", "ELECTRONICS"},
	"BEDROOM":     {"BEDDING", "FURNITURE", "LIGHTING", "DECOR", "STORAGE", "TEXTILES"},
	"GARDEN":      {"FURNITURE", "TOOLS", "DECOR", "PLANTS", "LIGHTING", "STORAGE"},
	"OFFICE":      {"FURNITURE", "ORGANIZATION", "STATIONERY", "TECH", "DECOR"},
	"HOLIDAY":     {"CHRISTMAS", "EASTER", "HALLOWEEN", "NEW_YEAR", "VALENTINE", "GENERAL"},
}

// Classification is a CATEGORY|SUBCATEGORY pair taken from the scene table.
type Classification struct {
	Category    string
	Subcategory string
}

// String renders the pair in the CATEGORY|SUBCATEGORY wire form.
func (c Classification) String() string {
	return c.Category + "|" + c.Subcategory
}

// Scene returns the scene description for c, or a neutral interior when the
// pair is unknown.
func (c Classification) Scene() string {
	if subs, ok := scenes[c.Category]; ok {
		if scene, ok := subs[c.Subcategory]; ok {
			return scene
		}
	}
	return neutralScene
}

// Known reports whether c is a pair from the scene table.
func (c Classification) Known() bool {
	_, ok := scenes[c.Category][c.Subcategory]
	return ok
}

// FallbackClassification is used whenever a classification is unusable.
func FallbackClassification() Classification {
	return Classification{Category: FallbackCategory, Subcategory: FallbackSubcategory}
}

// ParseClassification parses a classifier answer such as "KITCHEN|COOKWARE".
// Surrounding whitespace, markdown emphasis and case are ignored. It reports
// false when the answer is not a known pair.
func ParseClassification(answer string) (Classification, bool) {
	cleaned := strings.Trim(strings.TrimSpace(answer), "*`\"' ")
	// only the first line counts
	if i := strings.IndexAny(cleaned, "\r\n"); i >= 0 {
		cleaned = cleaned[:i]
	}

	category, subcategory, found := strings.Cut(cleaned, "|")
	if !found {
		return Classification{}, false
	}

	c := Classification{
		Category:    normalizeLabel(category),
		Subcategory: normalizeLabel(subcategory),
	}
	if !c.Known() {
		return c, false
	}
	return c, true
}

func normalizeLabel(s string) string {
	s = strings.Trim(strings.TrimSpace(s), "*`\"'.")
	s = strings.ReplaceAll(s, " ", "_")
	return strings.ToUpper(s)
}

// ClassifierInstruction is the system instruction given to the classifier.
func ClassifierInstruction() string {
	var b strings.Builder
	b.WriteString("You are an expert in categorising marketplace products.\n")
	b.WriteString("Determine the category and subcategory of the product in the photo.\n")
	b.WriteString("Answer strictly in the format CATEGORY|SUBCATEGORY and nothing else.\n\n")
	b.WriteString("Special rule:\n")
	b.WriteString("- Holiday decorations (Christmas tree ornaments, New Year, Easter or Halloween items and the like) ")
	b.WriteString("belong to the HOLIDAY category with the matching subcategory: ")
	b.WriteString(strings.Join(subcategoryOrder["HOLIDAY"], ", "))
	b.WriteString(".\n\nAvailable categories and subcategories:\n")
	for _, category := range categoryOrder {
		fmt.Fprintf(&b, "%s - %s\n", category, strings.Join(subcategoryOrder[category], ", "))
	}
	return b.String()
}

var contextPromptTemplate = template.Must(template.New("context").Funcs(template.FuncMap{
	"lower": strings.ToLower,
}).Parse(`CREATE NATURAL PRODUCT PHOTO IN CONTEXT:

PRODUCT PRESERVATION:
- Use the EXACT same product from the input image
- Maintain the SAME angle, orientation, and position as in the original photo
- Do NOT change the product's perspective or viewing angle
- Preserve all product details, colors, textures exactly as shown
- Keep all text, labels, logos completely unchanged

CONTEXT AND SETTING:
- Place the product in a {{lower .Category}} environment: {{.Scene}}
- The product should appear naturally placed in this setting
- Maintain the same scale and proportions as in the original

BACKGROUND AND COMPOSITION:
- Create a soft, slightly blurred background that matches {{.Category}} aesthetic
- Background should be authentic but not distracting from the product
- Use natural lighting that complements the product's original appearance
- Add subtle contextual elements that make sense for {{lower .Subcategory}}

STYLING GUIDELINES:
- The scene should look realistic and professionally styled
- Product must remain the main focus of the image
- Keep the composition clean and uncluttered
- Lighting should highlight the product naturally

TECHNICAL REQUIREMENTS:
- High-quality professional photography
- Product appearance must be identical to input (only environment changes)
- Maintain original product angle and orientation
- Soft background blur to keep focus on product

FINAL OUTPUT: Natural product photo in appropriate {{.Category}} context, with identical product presentation. 3:4 portrait aspect ratio image.
`))

// ContextPrompt renders the image generation prompt for c.
func ContextPrompt(c Classification) (string, error) {
	data := struct {
		Category    string
		Subcategory string
		Scene       string
	}{
		Category:    c.Category,
		Subcategory: c.Subcategory,
		Scene:       c.Scene(),
	}

	var buf bytes.Buffer
	if err := contextPromptTemplate.Execute(&buf, data); err != nil {
		return "", fmt.Errorf("failed to execute context prompt template: %w", err)
	}
	return buf.String(), nil
}
