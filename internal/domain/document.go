package domain

import (
	"fmt"
	"time"

	"github.com/shopspring/decimal"
)

// Document is the static data source of the simulation
type Document struct {
	Entities  []EntityDoc   `json:"entities"`
	Transfers []TransferDoc `json:"transfers"`
}

// EntityDoc is an entity as described by the document
type EntityDoc struct {
	ID    string              `json:"id"`
	Img   string              `json:"img"`
	X     float64             `json:"x"`
	Y     float64             `json:"y"`
	Name  string              `json:"name"`
	Saldo decimal.NullDecimal `json:"saldo"`
}

// TransferDoc is a transfer as described by the document
type TransferDoc struct {
	From     string          `json:"from"`
	To       string          `json:"to"`
	Amount   decimal.Decimal `json:"amount"`
	Type     Category        `json:"type"`
	Interval float64         `json:"interval"` // milliseconds
}

// Validate rejects documents that cannot describe any entity.
// Dangling transfer references are allowed here.
func (d *Document) Validate() error {
	seen := make(map[string]bool, len(d.Entities))
	for i, e := range d.Entities {
		if e.ID == "" {
			return fmt.Errorf("%w: entity at index %d has no id", ErrInvalidDocument, i)
		}
		if seen[e.ID] {
			return fmt.Errorf("%w: duplicate entity id %q", ErrInvalidDocument, e.ID)
		}
		seen[e.ID] = true
	}
	return nil
}

// EntitySpec converts the document entry into creation parameters
func (e EntityDoc) EntitySpec() EntitySpec {
	balance := DefaultBalance
	if e.Saldo.Valid {
		balance = e.Saldo.Decimal
	}
	return EntitySpec{
		ID:      e.ID,
		IconRef: e.Img,
		Name:    e.Name,
		X:       e.X,
		Y:       e.Y,
		Balance: balance,
		W:       DefaultEntityWidth,
		H:       DefaultEntityHeight,
	}
}

// Rule converts the document entry into a transfer rule
func (t TransferDoc) Rule(index int) TransferRule {
	return TransferRule{
		Index:    index,
		From:     t.From,
		To:       t.To,
		Amount:   t.Amount,
		Category: t.Type,
		Interval: time.Duration(t.Interval * float64(time.Millisecond)),
	}
}

// Rules converts every transfer of the document
func (d *Document) Rules() []TransferRule {
	rules := make([]TransferRule, 0, len(d.Transfers))
	for i, t := range d.Transfers {
		rules = append(rules, t.Rule(i))
	}
	return rules
}

// EntityName resolves an entity id to its display name, falling back to the id
func (d *Document) EntityName(id string) string {
	for _, e := range d.Entities {
		if e.ID == id {
			return e.Name
		}
	}
	return id
}

// EntitySpec holds the parameters of createEntity
type EntitySpec struct {
	ID      string
	IconRef string
	Name    string
	X, Y    float64
	Balance decimal.Decimal
	W, H    float64
}
