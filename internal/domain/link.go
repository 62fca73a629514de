package domain

import "github.com/google/uuid"

const (
	LinkStroke      = "#666"
	LinkStrokeWidth = 2
)

// Link is a static line between two entities
type Link struct {
	ID     uuid.UUID  `json:"id"`
	From   string     `json:"from"`
	To     string     `json:"to"`
	Points [4]float64 `json:"points"`
}

// Redraw recomputes the line endpoints from the entity positions
func (l *Link) Redraw(from, to Point) {
	l.Points = [4]float64{from.X, from.Y, to.X, to.Y}
}
