package render

import (
	"bytes"
	"fmt"
	"html/template"
	"strings"

	"github.com/simaogato/flowviz/internal/domain"
	"github.com/simaogato/flowviz/internal/usecase/legend"
)

const (
	lineHeight  = 1.2
	legendTitle = 14
)

type textLine struct {
	Text string
	DY   float64
}

type svgEntity struct {
	ID          string
	Href        template.URL
	Placeholder bool
	X, Y, W, H  float64
	LabelX      float64
	LabelY      float64
	FontSize    int
	Fill        string
	Lines       []textLine
}

type svgToken struct {
	X, Y, R  float64
	Color    string
	Opacity  float64
	TextX    float64
	TextY    float64
	FontSize int
	Lines    []textLine
}

type svgData struct {
	Width, Height float64
	Version       uint64
	Entities      []svgEntity
	Links         []*domain.Link
	Stroke        string
	StrokeWidth   int
	Tokens        []svgToken
	Legend        *legend.Group
	LegendTitleY  float64
	SwatchSize    int
}

var funcs = template.FuncMap{
	"add": func(a, b float64) float64 { return a + b },
}

var svgTemplate = template.Must(template.New("scene").Funcs(funcs).Parse(
	`<svg xmlns="http://www.w3.org/2000/svg" width="{{.Width}}" height="{{.Height}}" viewBox="0 0 {{.Width}} {{.Height}}" data-version="{{.Version}}">
<g class="entities">
{{- range .Entities}}
<g class="entity" data-id="{{.ID}}">
{{- if .Placeholder}}
<rect x="{{.X}}" y="{{.Y}}" width="{{.W}}" height="{{.H}}" rx="8" fill="#eee" stroke="#999"/>
{{- else}}
<image href="{{.Href}}" x="{{.X}}" y="{{.Y}}" width="{{.W}}" height="{{.H}}"/>
{{- end}}
<text class="label" x="{{.LabelX}}" y="{{.LabelY}}" font-size="{{.FontSize}}" fill="{{.Fill}}" text-anchor="middle">
{{- $x := .LabelX}}{{range .Lines}}<tspan x="{{$x}}" dy="{{.DY}}">{{.Text}}</tspan>{{end -}}
</text>
</g>
{{- end}}
</g>
<g class="links">
{{- $stroke := .Stroke}}{{$width := .StrokeWidth}}
{{- range .Links}}
<line x1="{{index .Points 0}}" y1="{{index .Points 1}}" x2="{{index .Points 2}}" y2="{{index .Points 3}}" stroke="{{$stroke}}" stroke-width="{{$width}}"/>
{{- end}}
</g>
<g class="tokens">
{{- range .Tokens}}
<circle cx="{{.X}}" cy="{{.Y}}" r="{{.R}}" fill="{{.Color}}" opacity="{{.Opacity}}"/>
<text x="{{.TextX}}" y="{{.TextY}}" font-size="{{.FontSize}}" fill="{{.Color}}">
{{- $x := .TextX}}{{range .Lines}}<tspan x="{{$x}}" dy="{{.DY}}">{{.Text}}</tspan>{{end -}}
</text>
{{- end}}
</g>
{{- with .Legend}}
<g class="legend">
<rect x="{{.Position.X}}" y="{{.Position.Y}}" width="{{.Size.W}}" height="{{.Size.H}}" fill="white" stroke="#ccc"/>
<text x="{{add .Position.X 10}}" y="{{$.LegendTitleY}}" font-size="14" font-weight="bold">{{.Title}}</text>
{{- range .Swatches}}
<rect x="{{.Position.X}}" y="{{.Position.Y}}" width="{{$.SwatchSize}}" height="{{$.SwatchSize}}" rx="3" fill="{{.Color}}"/>
<text x="{{.LabelPosition.X}}" y="{{.LabelPosition.Y}}" font-size="12">{{.Label}}</text>
{{- end}}
</g>
{{- end}}
</svg>
`))

// lines splits multi-line text into tspans. The first baseline sits one font
// size below the anchor, matching top-aligned canvas text.
func lines(text string, fontSize int) []textLine {
	parts := strings.Split(text, "\n")
	out := make([]textLine, 0, len(parts))
	for i, p := range parts {
		dy := float64(fontSize)
		if i > 0 {
			dy = float64(fontSize) * lineHeight
		}
		out = append(out, textLine{Text: p, DY: dy})
	}
	return out
}

// SVG renders one frame of the scene. The legend group is optional.
func SVG(scene domain.Scene, group *legend.Group) ([]byte, error) {
	data := svgData{
		Width:       scene.Stage.Width,
		Height:      scene.Stage.Height,
		Version:     scene.Version,
		Links:       scene.Links,
		Stroke:      domain.LinkStroke,
		StrokeWidth: domain.LinkStrokeWidth,
		SwatchSize:  legend.SwatchSize,
	}
	if group != nil && len(scene.Legend) > 0 {
		data.Legend = group
		data.LegendTitleY = group.Position.Y + legend.PanelPadding + legendTitle
	}

	for _, e := range scene.Entities {
		if !e.IsReady() {
			continue
		}
		item := svgEntity{
			ID:          e.ID,
			Placeholder: e.Visual.Placeholder || e.Visual.Href == "",
			// hrefs are data URIs built by the icon loader or document refs
			Href: template.URL(e.Visual.Href),
			X:    e.Visual.Position.X - e.Visual.Offset.X,
			Y:    e.Visual.Position.Y - e.Visual.Offset.Y,
			W:    e.Visual.Size.W,
			H:    e.Visual.Size.H,
		}
		if e.Label != nil {
			item.LabelX = e.Label.Position.X
			item.LabelY = e.Label.Position.Y
			item.FontSize = e.Label.FontSize
			item.Fill = e.Label.Fill
			item.Lines = lines(e.Label.Text, e.Label.FontSize)
		}
		data.Entities = append(data.Entities, item)
	}

	for _, t := range scene.Tokens {
		data.Tokens = append(data.Tokens, svgToken{
			X:        t.Position.X,
			Y:        t.Position.Y,
			R:        t.Radius,
			Color:    t.Color,
			Opacity:  t.Opacity,
			TextX:    t.TextPosition.X,
			TextY:    t.TextPosition.Y,
			FontSize: domain.TokenFontSize,
			Lines:    lines(t.Text, domain.TokenFontSize),
		})
	}

	var buf bytes.Buffer
	if err := svgTemplate.Execute(&buf, data); err != nil {
		return nil, fmt.Errorf("failed to render scene: %w", err)
	}
	return buf.Bytes(), nil
}
