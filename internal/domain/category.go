package domain

// Category represents the classification of a transfer rule
type Category string

const (
	CategoryImposto       Category = "imposto"
	CategorySalario       Category = "salario"
	CategoryComercio      Category = "comercio"
	CategoryConsumo       Category = "consumo"
	CategoryCompra        Category = "compra"
	CategoryEmprestimo    Category = "emprestimo"
	CategoryFinanciamento Category = "financiamento"
)

// FallbackColor is used for any category outside the palette
const FallbackColor = "gray"

// CategoryStyle holds the display attributes of a category
type CategoryStyle struct {
	Key   Category
	Color string
	Label string
}

// palette is read-only after package initialization.
// Order matters: it is the order of the legend.
var palette = []CategoryStyle{
	{Key: CategoryImposto, Color: "#e74c3c", Label: "Imposto"},
	{Key: CategorySalario, Color: "#27ae60", Label: "Salário"},
	{Key: CategoryComercio, Color: "#2980b9", Label: "Comércio"},
	{Key: CategoryConsumo, Color: "#123456", Label: "Consumo"},
	{Key: CategoryCompra, Color: "#ADD8E6", Label: "Compra"},
	{Key: CategoryEmprestimo, Color: "#FFFF00", Label: "Empréstimo"},
	{Key: CategoryFinanciamento, Color: "#FFDBBB", Label: "Financiamento"},
}

var paletteIndex = func() map[Category]CategoryStyle {
	idx := make(map[Category]CategoryStyle, len(palette))
	for _, style := range palette {
		idx[style.Key] = style
	}
	return idx
}()

// Categories returns a copy of the palette in legend order
func Categories() []CategoryStyle {
	out := make([]CategoryStyle, len(palette))
	copy(out, palette)
	return out
}

// LookupCategory returns the style of a known category
func LookupCategory(c Category) (CategoryStyle, bool) {
	style, ok := paletteIndex[c]
	return style, ok
}

// Style returns the category style, falling back to gray with the raw key as
// label when the category is unknown
func (c Category) Style() CategoryStyle {
	if style, ok := paletteIndex[c]; ok {
		return style
	}
	return CategoryStyle{Key: c, Color: FallbackColor, Label: string(c)}
}

// Color returns the display color of the category
func (c Category) Color() string {
	return c.Style().Color
}

// IsKnown reports whether the category belongs to the palette
func (c Category) IsKnown() bool {
	_, ok := paletteIndex[c]
	return ok
}
