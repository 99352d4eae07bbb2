package park

import (
	"errors"
	"fmt"

	"github.com/zyedidia/generic/mapset"

	"github.com/talgya/parkworld/internal/grid"
	"github.com/talgya/parkworld/internal/ride"
)

// ErrInvalidPlacement wraps every rejected placement. The grid is never
// touched when it is returned.
var ErrInvalidPlacement = errors.New("invalid placement")

func invalid(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrInvalidPlacement, fmt.Sprintf(format, args...))
}

func (p *Park) requireOpenGround(pos grid.Point, allowPath bool) error {
	t, ok := p.Grid.Get(pos)
	switch {
	case !ok:
		return invalid("%s is out of bounds", pos)
	case t == grid.TileGrass:
		return nil
	case allowPath && t == grid.TilePath:
		return nil
	}
	return invalid("%s is occupied by %s", pos, t)
}

func (p *Park) requireGrassRect(r grid.Rect) error {
	if r.W <= 0 || r.H <= 0 {
		return invalid("empty footprint %+v", r)
	}
	for _, cell := range r.Points() {
		t, ok := p.Grid.Get(cell)
		if !ok {
			return invalid("footprint cell %s is out of bounds", cell)
		}
		if t != grid.TileGrass {
			return invalid("footprint cell %s is occupied by %s", cell, t)
		}
	}
	return nil
}

// SetParkEntrance places the park gate. A previous gate becomes a path.
func (p *Park) SetParkEntrance(pos grid.Point) error {
	if err := p.requireOpenGround(pos, true); err != nil {
		return err
	}
	if p.Entrance != nil {
		_ = p.Grid.Set(*p.Entrance, grid.TilePath)
	}
	_ = p.Grid.Set(pos, grid.TileParkEntrance)
	p.Entrance = &pos
	return nil
}

// PlacePath paints a walk path on grass.
func (p *Park) PlacePath(pos grid.Point) error {
	if err := p.requireOpenGround(pos, false); err != nil {
		return err
	}
	return p.Grid.Set(pos, grid.TilePath)
}

// PlacePathLine paints a straight horizontal or vertical run of path from a
// to b inclusive. Cells already holding a path are skipped.
func (p *Park) PlacePathLine(a, b grid.Point) error {
	if a.X != b.X && a.Y != b.Y {
		return invalid("path line %s-%s is not straight", a, b)
	}
	cells := line(a, b)
	for _, c := range cells {
		if p.Grid.Is(c, grid.TilePath) {
			continue
		}
		if err := p.requireOpenGround(c, false); err != nil {
			return err
		}
	}
	for _, c := range cells {
		_ = p.Grid.Set(c, grid.TilePath)
	}
	return nil
}

func line(a, b grid.Point) []grid.Point {
	step := grid.Pt(sign(b.X-a.X), sign(b.Y-a.Y))
	out := []grid.Point{a}
	for c := a; c != b; {
		c = c.Add(step)
		out = append(out, c)
	}
	return out
}

func sign(v int) int {
	switch {
	case v > 0:
		return 1
	case v < 0:
		return -1
	}
	return 0
}

// PlaceQueueTile paints a queue tile on grass or path. Queue lines may not
// branch (no tile with three or more queue neighbours) or close a loop.
func (p *Park) PlaceQueueTile(pos grid.Point) error {
	if err := p.requireOpenGround(pos, true); err != nil {
		return err
	}

	var touching []grid.Point
	for _, n := range pos.Neighbors() {
		if p.Grid.Is(n, grid.TileQueue) {
			touching = append(touching, n)
		}
	}
	if len(touching) > 2 {
		return invalid("queue tile %s would join %d queue tiles", pos, len(touching))
	}
	for _, n := range touching {
		if p.queueDegree(n) >= 2 {
			return invalid("queue tile %s would branch the line at %s", pos, n)
		}
	}
	if len(touching) == 2 && p.queueConnected(touching[0], touching[1]) {
		return invalid("queue tile %s would close a loop", pos)
	}

	if err := p.Grid.Set(pos, grid.TileQueue); err != nil {
		return err
	}
	p.Queues.RecordPlaced(pos)
	return nil
}

// PlaceQueueLine paints queue tiles in order, each one extending the last.
func (p *Park) PlaceQueueLine(cells ...grid.Point) error {
	for _, c := range cells {
		if err := p.PlaceQueueTile(c); err != nil {
			return err
		}
	}
	return nil
}

func (p *Park) queueDegree(pos grid.Point) int {
	n := 0
	for _, q := range pos.Neighbors() {
		if p.Grid.Is(q, grid.TileQueue) {
			n++
		}
	}
	return n
}

// queueConnected reports whether two queue tiles already belong to the same
// line.
func (p *Park) queueConnected(a, b grid.Point) bool {
	seen := mapset.New[grid.Point]()
	seen.Put(a)
	frontier := []grid.Point{a}
	for len(frontier) > 0 {
		cur := frontier[0]
		frontier = frontier[1:]
		if cur == b {
			return true
		}
		for _, n := range cur.Neighbors() {
			if !seen.Has(n) && p.Grid.Is(n, grid.TileQueue) {
				seen.Put(n)
				frontier = append(frontier, n)
			}
		}
	}
	return false
}

// ClearTile returns a path, queue or bin tile to grass. Buildings and their
// access points are removed with RemoveRide or RemoveFacility.
func (p *Park) ClearTile(pos grid.Point) error {
	t, ok := p.Grid.Get(pos)
	if !ok {
		return invalid("%s is out of bounds", pos)
	}
	switch t {
	case grid.TileGrass:
		return nil
	case grid.TilePath:
	case grid.TileQueue:
		p.Queues.RecordRemoved(pos)
	case grid.TileBin:
		for i, b := range p.Bins {
			if b.Pos == pos {
				p.Bins = append(p.Bins[:i:i], p.Bins[i+1:]...)
				break
			}
		}
	default:
		return invalid("%s holds %s; remove the building instead", pos, t)
	}
	return p.Grid.Clear(pos)
}

// PlaceRide builds a ride with its top-left corner at origin.
func (p *Park) PlaceRide(def ride.Definition, origin grid.Point) (*ride.Ride, error) {
	if def.Capacity <= 0 {
		return nil, invalid("ride %q has no capacity", def.Name)
	}
	footprint := grid.Rect{X: origin.X, Y: origin.Y, W: def.Width, H: def.Height}
	if err := p.requireGrassRect(footprint); err != nil {
		return nil, err
	}
	if err := p.Grid.Fill(footprint, grid.TileRide); err != nil {
		return nil, err
	}
	p.nextRideID++
	r := ride.New(p.nextRideID, def, footprint)
	r.Penalty = p.cfg.Park.BreakdownPenalty
	p.Rides = append(p.Rides, r)
	return r, nil
}

// PlaceRideEntrance adds the entrance of a ride.
func (p *Park) PlaceRideEntrance(rideID uint64, pos grid.Point) error {
	r := p.Ride(rideID)
	if r == nil {
		return invalid("no ride %d", rideID)
	}
	if err := r.CheckEntrance(pos); err != nil {
		return fmt.Errorf("%w: %w", ErrInvalidPlacement, err)
	}
	if err := p.requireOpenGround(pos, true); err != nil {
		return err
	}
	_ = p.Grid.Set(pos, grid.TileRideEntrance)
	return r.PlaceEntrance(pos)
}

// PlaceRideExit adds the exit of a ride.
func (p *Park) PlaceRideExit(rideID uint64, pos grid.Point) error {
	r := p.Ride(rideID)
	if r == nil {
		return invalid("no ride %d", rideID)
	}
	if err := r.CheckExit(pos); err != nil {
		return fmt.Errorf("%w: %w", ErrInvalidPlacement, err)
	}
	if err := p.requireOpenGround(pos, true); err != nil {
		return err
	}
	_ = p.Grid.Set(pos, grid.TileRideExit)
	return r.PlaceExit(pos)
}

// RemoveRide demolishes a ride. Riders and queued visitors are sent back to
// wandering without a penalty; the tiles become grass.
func (p *Park) RemoveRide(rideID uint64) error {
	idx := -1
	for i, r := range p.Rides {
		if r.ID == rideID {
			idx = i
			break
		}
	}
	if idx < 0 {
		return invalid("no ride %d", rideID)
	}
	r := p.Rides[idx]
	r.Evacuate(0)
	for _, cell := range r.Footprint.Points() {
		_ = p.Grid.Clear(cell)
	}
	if r.Entrance != nil {
		_ = p.Grid.Clear(*r.Entrance)
	}
	if r.Exit != nil {
		_ = p.Grid.Clear(*r.Exit)
	}
	r.Queue = nil
	p.Rides = append(p.Rides[:idx:idx], p.Rides[idx+1:]...)
	return nil
}

// PlaceFacility builds a shop, stall or restroom at origin with its door on
// the footprint edge.
func (p *Park) PlaceFacility(def FacilityDef, origin, door grid.Point) (*Facility, error) {
	footprint := grid.Rect{X: origin.X, Y: origin.Y, W: def.Width, H: def.Height}
	if err := p.requireGrassRect(footprint); err != nil {
		return nil, err
	}
	if !footprint.EdgeAdjacent(door) {
		return nil, invalid("door %s does not touch the %s footprint edge", door, def.Name)
	}
	if err := p.requireOpenGround(door, true); err != nil {
		return nil, err
	}

	body := grid.TileShop
	capacity := 0
	if def.Kind == KindRestroom {
		body = grid.TileRestroom
		capacity = p.cfg.Park.RestroomCapacity
	}
	if err := p.Grid.Fill(footprint, body); err != nil {
		return nil, err
	}
	_ = p.Grid.Set(door, grid.TileShopEntrance)

	p.nextFacilityID++
	f := &Facility{
		ID:        p.nextFacilityID,
		Def:       def,
		Footprint: footprint,
		Door:      door,
		Capacity:  capacity,
	}
	if def.Kind != KindRestroom {
		f.Good = p.Goods[def.Good]
	}
	p.Facilities = append(p.Facilities, f)
	return f, nil
}

// RemoveFacility demolishes a facility. Its occupants are not notified; guests
// detect the missing facility on their next tick.
func (p *Park) RemoveFacility(id uint64) error {
	for i, f := range p.Facilities {
		if f.ID != id {
			continue
		}
		for _, cell := range f.Footprint.Points() {
			_ = p.Grid.Clear(cell)
		}
		_ = p.Grid.Clear(f.Door)
		p.Facilities = append(p.Facilities[:i:i], p.Facilities[i+1:]...)
		return nil
	}
	return invalid("no facility %d", id)
}

// PlaceBin puts a litter bin on an existing walk path tile.
func (p *Park) PlaceBin(pos grid.Point) (*Bin, error) {
	t, ok := p.Grid.Get(pos)
	if !ok {
		return nil, invalid("%s is out of bounds", pos)
	}
	if t != grid.TilePath {
		return nil, invalid("bins go on paths, %s is %s", pos, t)
	}
	_ = p.Grid.Set(pos, grid.TileBin)
	b := &Bin{Pos: pos, Capacity: p.cfg.Park.BinCapacity}
	p.Bins = append(p.Bins, b)
	return b, nil
}
