package comments

// Category is the classification of a comment or of a missing docblock.
// The string values double as threshold keys in configuration.
type Category string

// String implements fmt.Stringer for toon serialization.
func (c Category) String() string {
	return string(c)
}

const (
	CategoryLicense         Category = "license"
	CategoryDocBlock        Category = "docBlock"
	CategoryTodo            Category = "todo"
	CategoryFixme           Category = "fixme"
	CategoryRegular         Category = "regular"
	CategoryMissingDocBlock Category = "missingDocblock"
)

// Color is the display color attached to findings and statistics.
type Color string

// String implements fmt.Stringer for toon serialization.
func (c Color) String() string {
	return string(c)
}

const (
	ColorGreen  Color = "green"
	ColorYellow Color = "yellow"
	ColorRed    Color = "red"
	ColorWhite  Color = "white"
)

// Direction says how a category's count is compared with its threshold.
type Direction int

const (
	// AtMost passes when count <= threshold (unwanted comments).
	AtMost Direction = iota
	// AtLeast passes when count >= threshold (wanted comments).
	AtLeast
)

// Finding is a single classified comment or missing docblock.
// Text is empty for missing docblocks.
type Finding struct {
	Category Category `json:"category" toon:"category"`
	Color    Color    `json:"color" toon:"color"`
	File     string   `json:"file" toon:"file"`
	Line     uint32   `json:"line" toon:"line"`
	Text     string   `json:"text,omitempty" toon:"text,omitempty"`
}

// Rule describes the scoring behaviour of a category.
type Rule struct {
	Category  Category
	Weight    float64
	Color     Color
	Direction Direction
}

// Negative reports whether the category is unwanted. Unwanted categories
// pull the density score down.
func (r Rule) Negative() bool {
	return r.Direction == AtMost
}

var rules = []Rule{
	{Category: CategoryLicense, Weight: 0, Color: ColorWhite, Direction: AtLeast},
	{Category: CategoryDocBlock, Weight: 1, Color: ColorGreen, Direction: AtLeast},
	{Category: CategoryTodo, Weight: -0.3, Color: ColorYellow, Direction: AtMost},
	{Category: CategoryFixme, Weight: -0.3, Color: ColorYellow, Direction: AtMost},
	{Category: CategoryRegular, Weight: -1, Color: ColorRed, Direction: AtMost},
	{Category: CategoryMissingDocBlock, Weight: -1, Color: ColorRed, Direction: AtMost},
}

// Rules returns the built-in rules in their fixed order.
func Rules() []Rule {
	out := make([]Rule, len(rules))
	copy(out, rules)
	return out
}

// Categories returns every category in the fixed reporting order.
func Categories() []Category {
	out := make([]Category, len(rules))
	for i, r := range rules {
		out[i] = r.Category
	}
	return out
}

// Lookup returns the rule for a category name.
func Lookup(c Category) (Rule, bool) {
	for _, r := range rules {
		if r.Category == c {
			return r, true
		}
	}
	return Rule{}, false
}

// Weight returns the scoring weight of a category, 0 for unknown names.
func Weight(c Category) float64 {
	r, _ := Lookup(c)
	return r.Weight
}

// NewMissingDocBlock builds the finding for an undocumented declaration.
func NewMissingDocBlock(file string, line uint32) Finding {
	return Finding{
		Category: CategoryMissingDocBlock,
		Color:    ColorRed,
		File:     file,
		Line:     line,
	}
}
