// Package park is the registry of everything placed in the park: the tile
// grid, rides, facilities, bins, litter and the queue manager. All placement
// and removal goes through here so the grid and the registries stay in step.
package park

import (
	"fmt"
	"sort"

	"github.com/talgya/parkworld/internal/config"
	"github.com/talgya/parkworld/internal/economy"
	"github.com/talgya/parkworld/internal/grid"
	"github.com/talgya/parkworld/internal/queue"
	"github.com/talgya/parkworld/internal/ride"
)

// Park holds the shared world state.
type Park struct {
	Grid   *grid.Grid
	Lawn   *grid.Lawn
	Queues *queue.Manager

	Rides      []*ride.Ride
	Facilities []*Facility
	Bins       []*Bin
	Litter     []*Litter

	Entrance *grid.Point
	Goods    map[economy.GoodType]economy.Good

	cfg            *config.Config
	nextRideID     uint64
	nextFacilityID uint64
	nextLitterID   uint64
}

// New creates an empty park sized by cfg.
func New(cfg *config.Config) *Park {
	return &Park{
		Grid:   grid.New(cfg.Park.Width, cfg.Park.Height),
		Lawn:   grid.NewLawn(cfg.Park.Width, cfg.Park.Height, int64(cfg.Seed)),
		Queues: queue.NewManager(),
		Goods:  economy.Catalog(),
		cfg:    cfg,
	}
}

// Config returns the configuration the park was built with.
func (p *Park) Config() *config.Config { return p.cfg }

// ParkEntrance returns the entrance cell, if placed.
func (p *Park) ParkEntrance() (grid.Point, bool) {
	if p.Entrance == nil {
		return grid.Point{}, false
	}
	return *p.Entrance, true
}

// Ride returns the ride with the given ID, or nil.
func (p *Park) Ride(id uint64) *ride.Ride {
	for _, r := range p.Rides {
		if r.ID == id {
			return r
		}
	}
	return nil
}

// RideAt returns the ride whose footprint, entrance or exit covers pos.
func (p *Park) RideAt(pos grid.Point) *ride.Ride {
	for _, r := range p.Rides {
		if r.Footprint.Contains(pos) ||
			(r.Entrance != nil && *r.Entrance == pos) ||
			(r.Exit != nil && *r.Exit == pos) {
			return r
		}
	}
	return nil
}

// Facility returns the facility with the given ID, or nil.
func (p *Park) Facility(id uint64) *Facility {
	for _, f := range p.Facilities {
		if f.ID == id {
			return f
		}
	}
	return nil
}

// FacilityAt returns the facility whose footprint or door covers pos.
func (p *Park) FacilityAt(pos grid.Point) *Facility {
	for _, f := range p.Facilities {
		if f.Footprint.Contains(pos) || f.Door == pos {
			return f
		}
	}
	return nil
}

// FacilitiesOf lists facilities of one kind in ID order.
func (p *Park) FacilitiesOf(kind FacilityKind) []*Facility {
	var out []*Facility
	for _, f := range p.Facilities {
		if f.Kind() == kind {
			out = append(out, f)
		}
	}
	return out
}

// BinAt returns the bin at pos, or nil.
func (p *Park) BinAt(pos grid.Point) *Bin {
	for _, b := range p.Bins {
		if b.Pos == pos {
			return b
		}
	}
	return nil
}

// LitterByID returns a piece of litter, or nil.
func (p *Park) LitterByID(id uint64) *Litter {
	for _, l := range p.Litter {
		if l.ID == id {
			return l
		}
	}
	return nil
}

// DropLitter leaves rubbish on the ground at pos.
func (p *Park) DropLitter(pos grid.Point, kind economy.LitterKind) *Litter {
	p.nextLitterID++
	l := &Litter{ID: p.nextLitterID, Pos: pos, Kind: kind}
	p.Litter = append(p.Litter, l)
	return l
}

// RemoveLitter picks up a piece of litter. It reports whether it existed.
func (p *Park) RemoveLitter(id uint64) bool {
	for i, l := range p.Litter {
		if l.ID == id {
			p.Litter = append(p.Litter[:i:i], p.Litter[i+1:]...)
			return true
		}
	}
	return false
}

// LitterNear returns litter within radius (Chebyshev) of pos, nearest first.
func (p *Park) LitterNear(pos grid.Point, radius int) []*Litter {
	var out []*Litter
	for _, l := range p.Litter {
		if grid.Chebyshev(pos, l.Pos) <= radius {
			out = append(out, l)
		}
	}
	sort.SliceStable(out, func(i, j int) bool {
		di, dj := grid.Manhattan(pos, out[i].Pos), grid.Manhattan(pos, out[j].Pos)
		if di != dj {
			return di < dj
		}
		return out[i].ID < out[j].ID
	})
	return out
}

// Anchors lists the ride entrances queues may connect to.
func (p *Park) Anchors() []queue.Anchor {
	var out []queue.Anchor
	for _, r := range p.Rides {
		if r.Entrance != nil {
			out = append(out, queue.Anchor{RideID: r.ID, Entrance: *r.Entrance})
		}
	}
	return out
}

// SyncQueues rebuilds queue paths if the grid changed, reconnects them to
// rides and rewires each ride's queue pointer. It returns visitors evicted by
// the rebuild.
func (p *Park) SyncQueues() []queue.Visitor {
	evicted := p.Queues.Sync(p.Grid)
	p.Queues.Connect(p.Anchors())
	for _, r := range p.Rides {
		r.Queue = p.Queues.PathForRide(r.ID)
	}
	return evicted
}

// CheckInvariants verifies that the registries agree with the grid and that
// every ride and queue is internally consistent.
func (p *Park) CheckInvariants() error {
	for _, r := range p.Rides {
		if err := r.CheckInvariants(); err != nil {
			return err
		}
		for _, cell := range r.Footprint.Points() {
			if !p.Grid.Is(cell, grid.TileRide) {
				return fmt.Errorf("%s footprint cell %s is %s", r, cell, p.Grid.At(cell))
			}
		}
	}
	for _, f := range p.Facilities {
		if !p.Grid.Is(f.Door, grid.TileShopEntrance) {
			return fmt.Errorf("facility %d door %s is %s", f.ID, f.Door, p.Grid.At(f.Door))
		}
		if f.Capacity > 0 && len(f.Occupants) > f.Capacity {
			return fmt.Errorf("facility %d holds %d > capacity %d", f.ID, len(f.Occupants), f.Capacity)
		}
	}
	for _, b := range p.Bins {
		if !p.Grid.Is(b.Pos, grid.TileBin) {
			return fmt.Errorf("bin %s sits on %s", b.Pos, p.Grid.At(b.Pos))
		}
	}
	return p.Queues.CheckInvariants()
}
