package legend

import (
	"bytes"
	"fmt"
	"html/template"

	"github.com/simaogato/flowviz/internal/domain"
)

const (
	SwatchSize   = 14
	RowHeight    = 20
	PanelPadding = 10
	PanelWidth   = 160
	Title        = "Legenda:"
)

// Swatch is one row of the on-canvas legend
type Swatch struct {
	domain.CategoryStyle
	Position      domain.Point `json:"position"`
	LabelPosition domain.Point `json:"label_position"`
}

// Group is the legend panel drawn on the stage
type Group struct {
	Position domain.Point `json:"position"`
	Size     domain.Size  `json:"size"`
	Title    string       `json:"title"`
	Swatches []Swatch     `json:"swatches"`
}

// Renderer draws the static category key
type Renderer struct {
	Stage domain.Stage
}

// NewRenderer creates a legend renderer for a stage
func NewRenderer(stage domain.Stage) *Renderer {
	return &Renderer{Stage: stage}
}

// Items returns one entry per category in palette order
func (r *Renderer) Items() []domain.CategoryStyle {
	return domain.Categories()
}

// Group lays the legend out in a fixed panel pinned to the top-right corner
func (r *Renderer) Group() Group {
	items := r.Items()
	height := float64(PanelPadding*2 + RowHeight*(len(items)+1))
	origin := domain.Point{X: r.Stage.Width - PanelWidth - PanelPadding, Y: PanelPadding}

	g := Group{
		Position: origin,
		Size:     domain.Size{W: PanelWidth, H: height},
		Title:    Title,
		Swatches: make([]Swatch, 0, len(items)),
	}
	for i, item := range items {
		y := origin.Y + PanelPadding + float64(RowHeight*(i+1))
		g.Swatches = append(g.Swatches, Swatch{
			CategoryStyle: item,
			Position:      domain.Point{X: origin.X + PanelPadding, Y: y},
			LabelPosition: domain.Point{X: origin.X + PanelPadding + SwatchSize + 6, Y: y + SwatchSize - 2},
		})
	}
	return g
}

var htmlTemplate = template.Must(template.New("legenda").Parse(
	`<strong>{{.Title}}</strong><br>
{{range .Items}}<span style="{{.Style}}"></span>
  {{.Label}}<br>
{{end}}`))

type htmlItem struct {
	Style template.CSS
	Label string
}

// RenderHTML renders the legend as the contents of the #legenda container
func (r *Renderer) RenderHTML() (string, error) {
	items := r.Items()
	data := struct {
		Title string
		Items []htmlItem
	}{Title: Title}
	for _, item := range items {
		data.Items = append(data.Items, htmlItem{
			// palette colors are compile-time constants
			Style: template.CSS(fmt.Sprintf(
				"display:inline-block;width:%dpx;height:%dpx;background:%s;border-radius:3px;margin-right:6px;",
				SwatchSize, SwatchSize, item.Color,
			)),
			Label: item.Label,
		})
	}

	var buf bytes.Buffer
	if err := htmlTemplate.Execute(&buf, data); err != nil {
		return "", fmt.Errorf("failed to render legend: %w", err)
	}
	return buf.String(), nil
}
