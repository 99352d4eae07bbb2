// Package staff implements park employees. Every kind shares the Employee
// contract and the agents.Mover movement primitive; their work logic has
// nothing else in common.
package staff

import (
	"fmt"

	"github.com/talgya/parkworld/internal/agents"
	"github.com/talgya/parkworld/internal/config"
	"github.com/talgya/parkworld/internal/economy"
	"github.com/talgya/parkworld/internal/entropy"
	"github.com/talgya/parkworld/internal/grid"
	"github.com/talgya/parkworld/internal/park"
)

// Kind identifies an employee variant.
type Kind uint8

const (
	KindEngineer Kind = iota
	KindJanitor
	KindGardener
	KindSecurity
	KindEntertainer
)

var kindNames = [...]string{
	KindEngineer:    "engineer",
	KindJanitor:     "janitor",
	KindGardener:    "gardener",
	KindSecurity:    "security",
	KindEntertainer: "entertainer",
}

func (k Kind) String() string {
	if int(k) < len(kindNames) {
		return kindNames[k]
	}
	return fmt.Sprintf("kind(%d)", uint8(k))
}

// ParseKind resolves a kind by name.
func ParseKind(name string) (Kind, error) {
	for k, n := range kindNames {
		if n == name {
			return Kind(k), nil
		}
	}
	return 0, fmt.Errorf("unknown staff kind %q", name)
}

// MarshalText encodes the kind by name for JSON.
func (k Kind) MarshalText() ([]byte, error) { return []byte(k.String()), nil }

// Env is what an employee reads and writes during a tick.
type Env struct {
	Park *park.Park
	Rng  entropy.Source
	Cfg  *config.Staff
}

// Employee is the contract every staff kind fulfils.
type Employee interface {
	ID() uint64
	Name() string
	Kind() Kind
	Tick(dt float64, env *Env)
	Mover() *agents.Mover
	SetPenalty(p float64)
	Penalty() float64
	Idle() bool
	Salary() economy.Money
	// Reset releases every claim and returns the employee to idle.
	Reset(env *Env)
	Info() Info
}

// Info is a read-only view of an employee for reporting.
type Info struct {
	ID      uint64     `json:"id"`
	Name    string     `json:"name"`
	Kind    Kind       `json:"kind"`
	State   string     `json:"state"`
	Pos     grid.Point `json:"pos"`
	X       float64    `json:"x"`
	Y       float64    `json:"y"`
	Penalty float64    `json:"penalty"`
	Work    string     `json:"work,omitempty"`
}

// base carries what every employee has.
type base struct {
	id      uint64
	name    string
	kind    Kind
	home    grid.Point // Centre of the employee's work area
	move    agents.Mover
	penalty float64
	salary  economy.Money
}

func newBase(id uint64, kind Kind, pos grid.Point, salary economy.Money, tileTime float64) base {
	return base{
		id:     id,
		name:   fmt.Sprintf("%s %d", titleCase(kind.String()), id),
		kind:   kind,
		home:   pos,
		move:   agents.NewMover(pos, tileTime),
		salary: salary,
	}
}

func (b *base) ID() uint64              { return b.id }
func (b *base) Name() string            { return b.name }
func (b *base) Kind() Kind              { return b.kind }
func (b *base) Mover() *agents.Mover    { return &b.move }
func (b *base) Penalty() float64        { return b.penalty }
func (b *base) Salary() economy.Money   { return b.salary }
func (b *base) Home() grid.Point        { return b.home }
func (b *base) SetHome(p grid.Point)    { b.home = p }
func (b *base) striking() bool          { return b.penalty >= 1 }
func (b *base) work(dt float64) float64 { return dt * (1 - b.penalty) }

// SetPenalty sets the efficiency penalty, clamped to [0,1]. At 1 the
// employee is on strike.
func (b *base) SetPenalty(p float64) {
	switch {
	case p < 0:
		p = 0
	case p > 1:
		p = 1
	}
	b.penalty = p
}

func (b *base) info(state, work string) Info {
	return Info{
		ID:      b.id,
		Name:    b.name,
		Kind:    b.kind,
		State:   state,
		Pos:     b.move.Pos,
		X:       b.move.X,
		Y:       b.move.Y,
		Penalty: b.penalty,
		Work:    work,
	}
}

// randomCellNear picks a random cell within radius of centre that passes
// keep, trying a bounded number of times.
func randomCellNear(rng entropy.Source, g *grid.Grid, centre grid.Point, radius int, keep func(grid.Point) bool) (grid.Point, bool) {
	if radius <= 0 {
		return grid.Point{}, false
	}
	for try := 0; try < 16; try++ {
		p := centre.Add(grid.Pt(rng.IntN(2*radius+1)-radius, rng.IntN(2*radius+1)-radius))
		if g.InBounds(p) && keep(p) {
			return p, true
		}
	}
	return grid.Point{}, false
}

func titleCase(s string) string {
	if s == "" {
		return s
	}
	b := []byte(s)
	if b[0] >= 'a' && b[0] <= 'z' {
		b[0] -= 'a' - 'A'
	}
	return string(b)
}
