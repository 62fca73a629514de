package domain

import (
	"fmt"
	"math"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

const (
	MinMarkerRadius = 6
	MaxMarkerRadius = 14

	TokenOpacity  = 0.95
	TokenFontSize = 12
	// TokenTextOffset is the distance of the floating text from the marker
	TokenTextOffset = 12
)

// MarkerRadius scales the token radius with the amount, clamped to
// [MinMarkerRadius, MaxMarkerRadius]
func MarkerRadius(amount decimal.Decimal) float64 {
	v := math.Max(1, amount.InexactFloat64())
	r := math.Log10(v)*6 + 6
	return math.Max(MinMarkerRadius, math.Min(MaxMarkerRadius, r))
}

// TokenText formats the floating text that follows a token
func TokenText(amount decimal.Decimal, category Category) string {
	return fmt.Sprintf("R$ %s\n(%s)", amount.String(), category)
}

// Token is the ephemeral marker of one in-flight transfer
type Token struct {
	ID           uuid.UUID       `json:"id"`
	RuleIndex    int             `json:"rule_index"`
	From         string          `json:"from"`
	To           string          `json:"to"`
	Amount       decimal.Decimal `json:"amount"`
	Category     Category        `json:"category"`
	Color        string          `json:"color"`
	Radius       float64         `json:"radius"`
	Opacity      float64         `json:"opacity"`
	Start        Point           `json:"start"`
	End          Point           `json:"end"`
	Position     Point           `json:"position"`
	Text         string          `json:"text"`
	TextPosition Point           `json:"text_position"`
	StartedAt    time.Time       `json:"started_at"`
	Progress     float64         `json:"progress"`
}

// NewToken spawns a token at the start coordinates
func NewToken(rule TransferRule, start, end Point, now time.Time) *Token {
	t := &Token{
		ID:        uuid.New(),
		RuleIndex: rule.Index,
		From:      rule.From,
		To:        rule.To,
		Amount:    rule.Amount,
		Category:  rule.Category,
		Color:     rule.Category.Color(),
		Radius:    MarkerRadius(rule.Amount),
		Opacity:   TokenOpacity,
		Start:     start,
		End:       end,
		Text:      TokenText(rule.Amount, rule.Category),
		StartedAt: now,
	}
	t.SetProgress(0)
	return t
}

// SetProgress moves the token along its eased path; progress is the linear
// fraction of the animation duration
func (t *Token) SetProgress(progress float64) {
	t.Progress = math.Max(0, math.Min(1, progress))
	t.Position = Lerp(t.Start, t.End, EaseInOut(t.Progress))
	t.TextPosition = Point{X: t.Position.X + TokenTextOffset, Y: t.Position.Y - TokenTextOffset}
}

// Clone returns a copy safe to hand out of a lock
func (t *Token) Clone() *Token {
	c := *t
	return &c
}
