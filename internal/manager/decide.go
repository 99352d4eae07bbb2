package manager

import "fmt"

// Decision is the manager's recommended action for one cycle.
type Decision struct {
	Action    string       `json:"action"` // "none" or "hire"
	Rationale string       `json:"rationale"`
	Hire      *HireRequest `json:"hire,omitempty"`
}

// HireRequest is the payload for POST /api/v1/staff.
type HireRequest struct {
	Kind string `json:"kind"`
	X    int    `json:"x"`
	Y    int    `json:"y"`
}

// Policy bounds what the manager may do.
type Policy struct {
	MaxStaff int // Total staff ceiling; 0 = unlimited
	Cooldown int // Cycles before the same kind can be hired again
	Guests   int // Guests one entertainer is expected to serve
}

// DefaultPolicy is a conservative hiring policy.
func DefaultPolicy() Policy {
	return Policy{MaxStaff: 40, Cooldown: 2, Guests: 120}
}

// Decide picks zero or one hire from the triage result. Hiring follows the
// most pressing problem: stranded broken rides, then litter, then a bored
// crowd.
func Decide(snap *Snapshot, h *Health, mem *CycleMemory, pol Policy) *Decision {
	none := func(why string) *Decision { return &Decision{Action: "none", Rationale: why} }

	if snap.Status.Closed {
		return none("park is closed")
	}
	if h.Level == LevelHealthy {
		return none("park is healthy")
	}
	if pol.MaxStaff > 0 && len(snap.Staff) >= pol.MaxStaff {
		return none(fmt.Sprintf("staff ceiling of %d reached", pol.MaxStaff))
	}

	hire := func(kind, why string) *Decision {
		if mem.HiredRecently(kind, pol.Cooldown) {
			return nil
		}
		pos, ok := hirePosition(snap, kind)
		if !ok {
			return nil
		}
		return &Decision{
			Action:    "hire",
			Rationale: why,
			Hire:      &HireRequest{Kind: kind, X: pos.X, Y: pos.Y},
		}
	}

	if h.UnclaimedBroken > 0 && h.IdleWorkers["engineer"] == 0 {
		if d := hire("engineer", fmt.Sprintf("%d broken rides wait for an engineer", h.UnclaimedBroken)); d != nil {
			return d
		}
	}
	if h.Litter > litterPerJanitorWarn*max(h.Workers["janitor"], 1) || h.FullBins > h.Workers["janitor"] {
		if d := hire("janitor", fmt.Sprintf("%d litter and %d full bins for %d janitors", h.Litter, h.FullBins, h.Workers["janitor"])); d != nil {
			return d
		}
	}
	if h.AvgSatisfaction < satisfactionWatch || h.SatisfactionDrop > satisfactionDropSignal {
		if snap.Stats.Queued > queuedPerEntertainer*max(h.Workers["entertainer"], 1) ||
			h.Guests > pol.Guests*max(h.Workers["entertainer"], 1) {
			if d := hire("entertainer", fmt.Sprintf("satisfaction %.2f with %d queued", h.AvgSatisfaction, snap.Stats.Queued)); d != nil {
				return d
			}
		}
		if d := hire("security", fmt.Sprintf("satisfaction %.2f", h.AvgSatisfaction)); d != nil {
			return d
		}
	}
	return none(fmt.Sprintf("%s, nothing a hire would fix", h.Level))
}

// hirePosition places a new hire next to a colleague of the same kind, or at
// the first ride entrance.
func hirePosition(snap *Snapshot, kind string) (Point, bool) {
	for _, s := range snap.Staff {
		if s.Kind == kind {
			return s.Pos, true
		}
	}
	for _, r := range snap.Rides {
		if r.Entrance != nil {
			return *r.Entrance, true
		}
	}
	if len(snap.Staff) > 0 {
		return snap.Staff[0].Pos, true
	}
	return Point{}, false
}
