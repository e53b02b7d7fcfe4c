// Package economy holds the park's money balance.
package economy

import (
	"log/slog"

	"github.com/talgya/ski-resort/internal/event"
)

// Economy is the park treasury. The balance never goes negative.
type Economy struct {
	money int64

	// Fired with the new balance after every successful change.
	OnMoneyChange event.Listeners[int64]
}

// New creates a treasury with a starting balance. Negative starts clamp to 0.
func New(startingMoney int64) *Economy {
	if startingMoney < 0 {
		startingMoney = 0
	}
	return &Economy{money: startingMoney}
}

// Money returns the current balance.
func (e *Economy) Money() int64 {
	return e.money
}

// TrySpend deducts amount if the balance covers it.
func (e *Economy) TrySpend(amount int64) bool {
	if amount < 0 || e.money < amount {
		return false
	}
	e.money -= amount
	e.OnMoneyChange.Emit(e.money)
	return true
}

// Add credits amount to the balance.
func (e *Economy) Add(amount int64) {
	if amount < 0 {
		slog.Warn("economy: negative credit ignored", "amount", amount)
		return
	}
	e.money += amount
	e.OnMoneyChange.Emit(e.money)
}
