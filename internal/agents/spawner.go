// Guest spawning: every arrival gets a name, a budget, a planned length of
// stay and its own taste in rides.
package agents

import (
	"github.com/talgya/parkworld/internal/config"
	"github.com/talgya/parkworld/internal/economy"
	"github.com/talgya/parkworld/internal/entropy"
	"github.com/talgya/parkworld/internal/grid"
)

// Spawner creates guests at the park gate.
type Spawner struct {
	rng      entropy.Source
	cfg      *config.Guest
	tileTime float64
	nextID   uint64
}

// NewSpawner creates a guest spawner drawing from rng.
func NewSpawner(rng entropy.Source, cfg *config.Guest, tileTime float64) *Spawner {
	return &Spawner{rng: rng, cfg: cfg, tileTime: tileTime, nextID: 1}
}

// SetNextID sets the next guest ID to be issued.
func (s *Spawner) SetNextID(id uint64) {
	s.nextID = id
}

// NextID is the ID the next guest will get.
func (s *Spawner) NextID() uint64 { return s.nextID }

// NewGuest builds a guest in the entering state with full meters and no
// money. Spawn randomises the rest.
func NewGuest(id uint64, name string, pos grid.Point, cfg *config.Guest, tileTime float64) *Guest {
	return &Guest{
		ID:           id,
		Name:         name,
		State:        GuestEntering,
		Mover:        NewMover(pos, tileTime),
		Hunger:       1,
		Thirst:       1,
		Satisfaction: 0.8,
		Happiness:    0.8,
		ThrillPref:   0.5,
		MaxStay:      cfg.MaxStayMax,
		tuning:       cfg,
	}
}

// Spawn creates one guest at pos.
func (s *Spawner) Spawn(pos grid.Point) *Guest {
	id := s.nextID
	s.nextID++

	g := NewGuest(id, s.generateName(), pos, s.cfg, s.tileTime)
	g.Hunger = entropy.Range(s.rng, 0.6, 1)
	g.Thirst = entropy.Range(s.rng, 0.6, 1)
	g.Bladder = entropy.Range(s.rng, 0, 0.3)
	g.Satisfaction = entropy.Range(s.rng, 0.7, 0.9)
	g.Happiness = g.Satisfaction
	g.ThrillPref = s.rng.Float64()
	g.NauseaTolerance = entropy.Range(s.rng, 0.2, 1)
	g.MaxStay = entropy.Range(s.rng, s.cfg.MaxStayMin, s.cfg.MaxStayMax)
	g.Money = s.budget()
	return g
}

func (s *Spawner) budget() economy.Money {
	lo, hi := s.cfg.BudgetMin, s.cfg.BudgetMax
	if hi <= lo {
		return lo
	}
	return lo + economy.Money(s.rng.IntN(int(hi-lo)+1))
}

func (s *Spawner) generateName() string {
	first := firstNames[s.rng.IntN(len(firstNames))]
	last := lastNames[s.rng.IntN(len(lastNames))]
	return first + " " + last
}

// Name pools for procedural generation.
var firstNames = []string{
	"Ada", "Ben", "Carmen", "Dev", "Elena", "Felix", "Grace", "Hiro",
	"Imani", "Jonah", "Keiko", "Liam", "Maya", "Noah", "Olga", "Pedro",
	"Quinn", "Rosa", "Sam", "Tariq", "Uma", "Victor", "Wen", "Ximena",
	"Yusuf", "Zoe", "Aiden", "Bea", "Chloe", "Diego", "Esme", "Farah",
}

var lastNames = []string{
	"Alvarez", "Brooks", "Chen", "Dubois", "Evans", "Fischer", "Garcia",
	"Hughes", "Ito", "Jensen", "Kowalski", "Lopez", "Murphy", "Nguyen",
	"Okafor", "Patel", "Quinn", "Rossi", "Singh", "Tanaka", "Usman",
	"Varga", "Walsh", "Xu", "Yilmaz", "Zimmer", "Novak", "Reyes",
}
