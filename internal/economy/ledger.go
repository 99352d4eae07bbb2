// Package economy records the park's money flows. The simulation only reports
// completed transactions here; nothing in the core reads the books to decide.
package economy

import (
	"fmt"
	"log/slog"
	"sort"
	"sync"

	"github.com/dustin/go-humanize"
)

// Money is an amount in cents.
type Money int64

// Dollars converts a decimal amount to Money, rounding to the nearest cent.
func Dollars(d float64) Money {
	if d < 0 {
		return Money(d*100 - 0.5)
	}
	return Money(d*100 + 0.5)
}

// Float returns the amount in whole currency units.
func (m Money) Float() float64 {
	return float64(m) / 100
}

func (m Money) String() string {
	sign := ""
	v := int64(m)
	if v < 0 {
		sign = "-"
		v = -v
	}
	return fmt.Sprintf("%s$%s.%02d", sign, humanize.Comma(v/100), v%100)
}

// Ledger is the collaborator every flow reports to.
type Ledger interface {
	AddIncome(amount Money, reason string)
	AddExpense(amount Money, reason string)
}

// Book is a Ledger that accumulates totals per reason. Safe for concurrent use
// so the API can read while the simulation writes.
type Book struct {
	mu       sync.Mutex
	income   map[string]Money
	expenses map[string]Money
	count    int
}

// NewBook returns an empty book.
func NewBook() *Book {
	return &Book{
		income:   make(map[string]Money),
		expenses: make(map[string]Money),
	}
}

func (b *Book) AddIncome(amount Money, reason string) {
	if amount <= 0 {
		return
	}
	b.mu.Lock()
	defer b.mu.Unlock()
	b.income[reason] += amount
	b.count++
}

func (b *Book) AddExpense(amount Money, reason string) {
	if amount <= 0 {
		return
	}
	b.mu.Lock()
	defer b.mu.Unlock()
	b.expenses[reason] += amount
	b.count++
}

// Income returns total income across all reasons.
func (b *Book) Income() Money {
	b.mu.Lock()
	defer b.mu.Unlock()
	return sum(b.income)
}

// Expenses returns total expenses across all reasons.
func (b *Book) Expenses() Money {
	b.mu.Lock()
	defer b.mu.Unlock()
	return sum(b.expenses)
}

// Balance is income minus expenses.
func (b *Book) Balance() Money {
	b.mu.Lock()
	defer b.mu.Unlock()
	return sum(b.income) - sum(b.expenses)
}

// Transactions returns how many non-zero entries have been recorded.
func (b *Book) Transactions() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.count
}

// Line is one reason's running total.
type Line struct {
	Reason string `json:"reason"`
	Amount Money  `json:"amount"`
}

// Summary returns income and expense lines sorted by reason.
func (b *Book) Summary() (income, expenses []Line) {
	b.mu.Lock()
	defer b.mu.Unlock()
	return lines(b.income), lines(b.expenses)
}

// LogSummary writes the current totals at info level.
func (b *Book) LogSummary() {
	slog.Info("park finances",
		"income", b.Income().String(),
		"expenses", b.Expenses().String(),
		"balance", b.Balance().String(),
		"transactions", humanize.Comma(int64(b.Transactions())),
	)
}

func sum(m map[string]Money) Money {
	var total Money
	for _, v := range m {
		total += v
	}
	return total
}

func lines(m map[string]Money) []Line {
	out := make([]Line, 0, len(m))
	for reason, amount := range m {
		out = append(out, Line{Reason: reason, Amount: amount})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Reason < out[j].Reason })
	return out
}
