package domain

import (
	"errors"
	"fmt"
	"time"

	"github.com/shopspring/decimal"
)

// TransferRule represents a recurring scheduled movement of funds
// between two entities. Immutable after load.
type TransferRule struct {
	Index    int             `json:"index"`
	From     string          `json:"from"`
	To       string          `json:"to"`
	Amount   decimal.Decimal `json:"amount"`
	Category Category        `json:"category"`
	Interval time.Duration   `json:"interval"`
}

// Validate ensures the rule can be scheduled.
// Amount is intentionally unconstrained: negative values are allowed.
func (r *TransferRule) Validate() error {
	if r.From == "" || r.To == "" {
		return errors.New("transfer rule must reference a source and a destination")
	}
	if r.Interval <= 0 {
		return fmt.Errorf("transfer rule %s->%s interval must be positive", r.From, r.To)
	}
	return nil
}

// Key identifies the rule in logs
func (r *TransferRule) Key() string {
	return fmt.Sprintf("#%d %s->%s", r.Index, r.From, r.To)
}
