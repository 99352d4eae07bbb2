package ride

import "github.com/talgya/parkworld/internal/economy"

// Definition is the static description of a ride model.
type Definition struct {
	Name            string        `json:"name" yaml:"name"`
	Width           int           `json:"width" yaml:"width"`
	Height          int           `json:"height" yaml:"height"`
	Capacity        int           `json:"capacity" yaml:"capacity"`
	RideDuration    float64       `json:"ride_duration" yaml:"ride_duration"` // Seconds per cycle once launched
	LaunchWait      float64       `json:"launch_wait" yaml:"launch_wait"`     // Seconds before a partly filled car launches
	TicketPrice     economy.Money `json:"ticket_price" yaml:"ticket_price"`
	Thrill          float64       `json:"thrill" yaml:"thrill"`                     // 0..1
	Nausea          float64       `json:"nausea" yaml:"nausea"`                     // 0..1
	BreakdownChance float64       `json:"breakdown_chance" yaml:"breakdown_chance"` // Per second of operation
	RunningCost     economy.Money `json:"running_cost" yaml:"running_cost"`         // Per sim-minute
}

// LaunchThreshold is the rider count that launches immediately: half the
// capacity, rounded up.
func (d Definition) LaunchThreshold() int {
	if d.Capacity <= 1 {
		return 1
	}
	return (d.Capacity + 1) / 2
}

// DefaultDefinitions returns the built-in ride catalog.
func DefaultDefinitions() []Definition {
	return []Definition{
		{
			Name: "Carousel", Width: 3, Height: 3, Capacity: 12,
			RideDuration: 20, LaunchWait: 5, TicketPrice: 200,
			Thrill: 0.15, Nausea: 0.05, BreakdownChance: 0.0005, RunningCost: 40,
		},
		{
			Name: "Ferris Wheel", Width: 4, Height: 3, Capacity: 16,
			RideDuration: 40, LaunchWait: 5, TicketPrice: 300,
			Thrill: 0.3, Nausea: 0.1, BreakdownChance: 0.0008, RunningCost: 60,
		},
		{
			Name: "Swing Tower", Width: 3, Height: 3, Capacity: 10,
			RideDuration: 25, LaunchWait: 5, TicketPrice: 350,
			Thrill: 0.55, Nausea: 0.4, BreakdownChance: 0.001, RunningCost: 70,
		},
		{
			Name: "Haunted House", Width: 4, Height: 4, Capacity: 8,
			RideDuration: 45, LaunchWait: 5, TicketPrice: 400,
			Thrill: 0.45, Nausea: 0.15, BreakdownChance: 0.0007, RunningCost: 50,
		},
		{
			Name: "Roller Coaster", Width: 6, Height: 3, Capacity: 8,
			RideDuration: 35, LaunchWait: 5, TicketPrice: 600,
			Thrill: 0.9, Nausea: 0.65, BreakdownChance: 0.002, RunningCost: 120,
		},
	}
}

// DefinitionByName finds a catalog entry.
func DefinitionByName(defs []Definition, name string) (Definition, bool) {
	for _, d := range defs {
		if d.Name == name {
			return d, true
		}
	}
	return Definition{}, false
}
