package engine

import (
	"github.com/talgya/parkworld/internal/agents"
	"github.com/talgya/parkworld/internal/economy"
	"github.com/talgya/parkworld/internal/grid"
	"github.com/talgya/parkworld/internal/park"
	"github.com/talgya/parkworld/internal/staff"
)

// Stats tracks aggregate park statistics.
type Stats struct {
	Tick            uint64         `json:"tick"`
	Guests          int            `json:"guests"`
	Admitted        int            `json:"admitted"`
	Departed        int            `json:"departed"`
	Queued          int            `json:"queued"`
	Riding          int            `json:"riding"`
	GuestStates     map[string]int `json:"guest_states"`
	AvgSatisfaction float64        `json:"avg_satisfaction"`
	AvgHappiness    float64        `json:"avg_happiness"`
	RidesTaken      int            `json:"rides_taken"`
	BrokenRides     int            `json:"broken_rides"`
	Litter          int            `json:"litter"`
	FullBins        int            `json:"full_bins"`
	LawnLength      float64        `json:"lawn_length"`
	StaffIdle       int            `json:"staff_idle"`
	StaffStriking   int            `json:"staff_striking"`
	Income          economy.Money  `json:"income"`
	Expenses        economy.Money  `json:"expenses"`
	Balance         economy.Money  `json:"balance"`
}

// computeStats aggregates the current state. Callers hold the lock.
func (s *Simulation) computeStats() Stats {
	st := Stats{
		Tick:        s.LastTick,
		Guests:      len(s.Guests),
		Admitted:    s.Admitted,
		Departed:    s.Departed,
		GuestStates: make(map[string]int),
		Litter:      len(s.Park.Litter),
		LawnLength:  s.Park.Lawn.Average(s.Park.Grid),
		Income:      s.Book.Income(),
		Expenses:    s.Book.Expenses(),
	}
	st.Balance = st.Income - st.Expenses

	var satisfaction, happiness float64
	for _, g := range s.Guests {
		st.GuestStates[g.State.String()]++
		satisfaction += g.Satisfaction
		happiness += g.Happiness
		switch g.State {
		case agents.GuestQueuing:
			st.Queued++
		case agents.GuestRiding:
			st.Riding++
		}
	}
	if n := len(s.Guests); n > 0 {
		st.AvgSatisfaction = satisfaction / float64(n)
		st.AvgHappiness = happiness / float64(n)
	}

	for _, r := range s.Park.Rides {
		st.RidesTaken += r.TotalRiders
		if r.Broken {
			st.BrokenRides++
		}
	}
	for _, b := range s.Park.Bins {
		if b.Full() {
			st.FullBins++
		}
	}
	for _, e := range s.Staff {
		if e.Penalty() >= 1 {
			st.StaffStriking++
		} else if e.Idle() {
			st.StaffIdle++
		}
	}
	return st
}

// CurrentStats aggregates the state as of the last tick.
func (s *Simulation) CurrentStats() Stats {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.computeStats()
}

// QueueInfo is a read-only view of one queue line.
type QueueInfo struct {
	ID       uint64       `json:"id"`
	RideID   uint64       `json:"ride_id,omitempty"`
	Ride     string       `json:"ride,omitempty"`
	Length   int          `json:"length"`
	Capacity int          `json:"capacity"`
	Tiles    []grid.Point `json:"tiles"`
	Visitors []uint64     `json:"visitors"`
}

// Queues describes every queue line. Call inside Read.
func (s *Simulation) Queues() []QueueInfo {
	paths := s.Park.Queues.Paths()
	out := make([]QueueInfo, 0, len(paths))
	for _, p := range paths {
		qi := QueueInfo{
			ID:       p.ID,
			RideID:   p.RideID,
			Length:   p.Len(),
			Capacity: p.MaxCapacity(),
			Visitors: make([]uint64, 0, p.Len()),
		}
		if r := s.Park.Ride(p.RideID); r != nil {
			qi.Ride = r.Def.Name
		}
		for _, t := range p.Tiles {
			qi.Tiles = append(qi.Tiles, t.Pos)
		}
		for _, v := range p.Visitors {
			qi.Visitors = append(qi.Visitors, v.VisitorID())
		}
		out = append(out, qi)
	}
	return out
}

// StaffInfo lists every employee. Call inside Read.
func (s *Simulation) StaffInfo() []staff.Info {
	out := make([]staff.Info, 0, len(s.Staff))
	for _, e := range s.Staff {
		out = append(out, e.Info())
	}
	return out
}

// FacilityInfo is a read-only view of a facility.
type FacilityInfo struct {
	ID        uint64        `json:"id"`
	Name      string        `json:"name"`
	Kind      string        `json:"kind"`
	Door      grid.Point    `json:"door"`
	Occupants int           `json:"occupants"`
	Capacity  int           `json:"capacity,omitempty"`
	Sales     int           `json:"sales"`
	Price     economy.Money `json:"price,omitempty"`
}

// Facilities describes every shop, stall and restroom. Call inside Read.
func (s *Simulation) Facilities() []FacilityInfo {
	out := make([]FacilityInfo, 0, len(s.Park.Facilities))
	for _, f := range s.Park.Facilities {
		fi := FacilityInfo{
			ID:        f.ID,
			Name:      f.Def.Name,
			Kind:      f.Kind().String(),
			Door:      f.Door,
			Occupants: len(f.Occupants),
			Capacity:  f.Capacity,
			Sales:     f.Sales,
		}
		if f.Kind() != park.KindRestroom {
			fi.Price = f.Good.Price
		}
		out = append(out, fi)
	}
	return out
}
