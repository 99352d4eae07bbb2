package manager

// Level grades how urgently the park needs attention.
type Level string

const (
	LevelHealthy  Level = "HEALTHY"
	LevelWatch    Level = "WATCH"
	LevelWarning  Level = "WARNING"
	LevelCritical Level = "CRITICAL"
)

// Thresholds for triage. Litter and queue loads are per worker of the kind
// that handles them.
const (
	litterPerJanitorWarn   = 6
	litterPerJanitorCrit   = 12
	satisfactionWatch      = 0.5
	satisfactionCritical   = 0.3
	queuedPerEntertainer   = 40
	satisfactionDropSignal = 0.05
)

// Health holds derived diagnostic signals computed from a Snapshot.
type Health struct {
	Guests           int
	AvgSatisfaction  float64
	SatisfactionDrop float64 // Oldest minus newest in the history window; positive = falling
	BrokenRides      int
	UnclaimedBroken  int
	Litter           int
	FullBins         int
	Striking         int
	Workers          map[string]int // Non-striking staff per kind
	IdleWorkers      map[string]int
	Level            Level
}

// Triage computes a Health from the snapshot's data.
func Triage(snap *Snapshot) *Health {
	h := &Health{
		Guests:          snap.Stats.Guests,
		AvgSatisfaction: snap.Stats.AvgSatisfaction,
		BrokenRides:     snap.Stats.BrokenRides,
		Litter:          snap.Stats.Litter,
		FullBins:        snap.Stats.FullBins,
		Striking:        snap.Stats.StaffStriking,
		Workers:         make(map[string]int),
		IdleWorkers:     make(map[string]int),
	}

	for _, r := range snap.Rides {
		if r.Status == "broken" && r.ClaimedBy == 0 {
			h.UnclaimedBroken++
		}
	}
	for _, s := range snap.Staff {
		if s.Penalty >= 1 {
			continue
		}
		h.Workers[s.Kind]++
		if s.State == "idle" || s.State == "patrolling" {
			h.IdleWorkers[s.Kind]++
		}
	}

	// History is oldest first.
	if n := len(snap.History); n >= 2 {
		h.SatisfactionDrop = snap.History[0].AvgSatisfaction - snap.History[n-1].AvgSatisfaction
	}

	h.Level = LevelHealthy
	if h.Guests == 0 {
		return h
	}
	litterLoad := float64(h.Litter) / float64(max(h.Workers["janitor"], 1))

	switch {
	case h.AvgSatisfaction < satisfactionCritical:
		h.Level = LevelCritical
	case h.UnclaimedBroken > 0 && h.IdleWorkers["engineer"] == 0:
		h.Level = LevelCritical
	case litterLoad > litterPerJanitorCrit:
		h.Level = LevelCritical
	case litterLoad > litterPerJanitorWarn || h.FullBins > 0:
		h.Level = LevelWarning
	case h.AvgSatisfaction < satisfactionWatch || h.SatisfactionDrop > satisfactionDropSignal:
		h.Level = LevelWatch
	}
	return h
}
