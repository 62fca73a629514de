package domain

import (
	"errors"
	"fmt"
	"strings"
	"unicode/utf8"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// EntityState represents the lifecycle phase of an entity
type EntityState string

const (
	EntityStateDeclared EntityState = "DECLARED"
	EntityStateReady    EntityState = "READY"
)

const (
	DefaultEntityWidth  = 80
	DefaultEntityHeight = 80

	LabelFontSize = 14
	LabelFill     = "black"
	// LabelMargin is the gap between the bottom of the icon and the label
	LabelMargin = 8
	// glyphWidthRatio approximates the advance of an average glyph
	glyphWidthRatio = 0.6
)

// DefaultBalance is applied when the document omits a starting balance
var DefaultBalance = decimal.NewFromInt(1000)

// Visual is the drawable handle of an entity icon.
// The icon is centered on Position (Offset is half the size).
type Visual struct {
	Href        string `json:"href,omitempty"`
	Position    Point  `json:"position"`
	Size        Size   `json:"size"`
	Offset      Point  `json:"offset"`
	Placeholder bool   `json:"placeholder"`
	Draggable   bool   `json:"draggable"`
}

// Label is the text drawn under an entity
type Label struct {
	Text     string  `json:"text"`
	Position Point   `json:"position"`
	OffsetX  float64 `json:"offset_x"`
	Width    float64 `json:"width"`
	FontSize int     `json:"font_size"`
	Fill     string  `json:"fill"`
	Align    string  `json:"align"`
}

// Entity represents a visualized economic actor
type Entity struct {
	ID       string          `json:"id"`
	Name     string          `json:"name"`
	IconRef  string          `json:"icon_ref"`
	Position Point           `json:"position"`
	Size     Size            `json:"size"`
	Balance  decimal.Decimal `json:"balance"`
	State    EntityState     `json:"state"`
	Visual   *Visual         `json:"visual,omitempty"`
	Label    *Label          `json:"label,omitempty"`
	LinkIDs  []uuid.UUID     `json:"link_ids,omitempty"`
}

// Validate ensures the entity adheres to domain rules
func (e *Entity) Validate() error {
	if e.ID == "" {
		return errors.New("entity id cannot be empty")
	}
	if e.Size.W <= 0 || e.Size.H <= 0 {
		return fmt.Errorf("entity %s must have a positive size", e.ID)
	}
	return nil
}

// IsReady reports whether the visual handle has been attached
func (e *Entity) IsReady() bool {
	return e.State == EntityStateReady && e.Visual != nil
}

// Clone returns a deep copy safe to hand out of a lock
func (e *Entity) Clone() *Entity {
	c := *e
	if e.Visual != nil {
		v := *e.Visual
		c.Visual = &v
	}
	if e.Label != nil {
		l := *e.Label
		c.Label = &l
	}
	c.LinkIDs = append([]uuid.UUID(nil), e.LinkIDs...)
	return &c
}

// LabelText formats the display text of an entity
func LabelText(name string, balance decimal.Decimal) string {
	return fmt.Sprintf("%s\nSaldo: R$ %s", name, balance.String())
}

// TextWidth estimates the rendered width of multi-line text
func TextWidth(text string, fontSize int) float64 {
	longest := 0
	for _, line := range strings.Split(text, "\n") {
		if n := utf8.RuneCountInString(line); n > longest {
			longest = n
		}
	}
	return float64(longest) * float64(fontSize) * glyphWidthRatio
}

// RefreshLabel recomputes the label text and centers it under the icon
func (e *Entity) RefreshLabel() {
	if e.Label == nil {
		e.Label = &Label{FontSize: LabelFontSize, Fill: LabelFill, Align: "center"}
	}
	e.Label.Text = LabelText(e.Name, e.Balance)
	e.Label.Width = TextWidth(e.Label.Text, e.Label.FontSize)
	e.Label.OffsetX = e.Label.Width / 2
	e.Label.Position = Point{
		X: e.Position.X,
		Y: e.Position.Y + e.Size.H/2 + LabelMargin,
	}
}

// MoveTo updates the entity position along with its visual handle and label
func (e *Entity) MoveTo(p Point) {
	e.Position = p
	if e.Visual != nil {
		e.Visual.Position = p
	}
	if e.Label != nil {
		e.Label.Position = Point{X: p.X, Y: p.Y + e.Size.H/2 + LabelMargin}
		e.Label.OffsetX = e.Label.Width / 2
	}
}
