package agents

// Need identifies the most pressing physiological need of a guest.
type Need uint8

const (
	NeedRestroom Need = iota
	NeedDrink
	NeedFood
)

func (n Need) String() string {
	switch n {
	case NeedRestroom:
		return "restroom"
	case NeedDrink:
		return "drink"
	}
	return "food"
}

// UrgentNeeds lists the needs that preempt ride and shop choices, most
// pressing first: bladder, thirst, hunger.
func (g *Guest) UrgentNeeds() []Need {
	var out []Need
	if g.Bladder > g.tuning.BladderUrgent {
		out = append(out, NeedRestroom)
	}
	if g.Thirst < g.tuning.ThirstUrgent {
		out = append(out, NeedDrink)
	}
	if g.Hunger < g.tuning.HungerUrgent {
		out = append(out, NeedFood)
	}
	return out
}

// decayNeeds advances the meters by dt seconds. Every urgent need erodes
// satisfaction; happiness drifts toward satisfaction.
func (g *Guest) decayNeeds(dt float64) {
	c := g.tuning
	g.Hunger = clamp01(g.Hunger - c.HungerDecay*dt)
	g.Thirst = clamp01(g.Thirst - c.ThirstDecay*dt)
	g.Bladder = clamp01(g.Bladder + c.BladderRise*dt)

	unmet := len(g.UrgentNeeds())
	g.Satisfaction = clamp01(g.Satisfaction - float64(unmet)*c.SatisfactionErosion*dt)

	track := c.HappinessTracking * dt
	if track > 1 {
		track = 1
	}
	g.Happiness = clamp01(g.Happiness + (g.Satisfaction-g.Happiness)*track)
	g.Excitement = clamp01(g.Excitement - c.ExcitementDecay*dt)

	if g.CarryingLitter {
		g.litterTimer += dt
	}
}

// wantsToLeave reports whether the guest has had enough of the park.
func (g *Guest) wantsToLeave() bool {
	return g.Satisfaction < g.tuning.LeaveSatisfaction ||
		g.TimeInPark > g.MaxStay ||
		g.Money <= 0
}

// litterDue reports whether the guest has carried litter long enough to
// deal with it.
func (g *Guest) litterDue() bool {
	return g.CarryingLitter && g.litterTimer >= g.litterDelay
}
