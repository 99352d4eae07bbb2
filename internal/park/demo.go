package park

import (
	"fmt"
	"log/slog"

	"github.com/talgya/parkworld/internal/config"
	"github.com/talgya/parkworld/internal/grid"
	"github.com/talgya/parkworld/internal/ride"
)

// DemoSize is the smallest park BuildDemo can lay out.
const DemoSize = 40

// demoRide places one ride with its queue line (painted walkway to ride) and
// the path from its exit back to the street network.
type demoRide struct {
	name     string
	origin   grid.Point
	entrance grid.Point
	exit     grid.Point
	queue    []grid.Point
	exitPath [2]grid.Point
}

type demoFacility struct {
	name   string
	origin grid.Point
	door   grid.Point
}

var demoStreets = [][2]grid.Point{
	{grid.Pt(20, 5), grid.Pt(20, 38)}, // avenue
	{grid.Pt(3, 5), grid.Pt(36, 5)},   // north street
	{grid.Pt(3, 20), grid.Pt(36, 20)}, // cross street
	{grid.Pt(3, 32), grid.Pt(36, 32)}, // south street
	{grid.Pt(3, 5), grid.Pt(3, 32)},   // west street
	{grid.Pt(36, 5), grid.Pt(36, 32)}, // east street
}

var demoRides = []demoRide{
	{
		name: "Carousel", origin: grid.Pt(7, 9), entrance: grid.Pt(8, 8), exit: grid.Pt(8, 12),
		queue:    []grid.Point{grid.Pt(6, 6), grid.Pt(6, 7), grid.Pt(7, 7), grid.Pt(8, 7)},
		exitPath: [2]grid.Point{grid.Pt(8, 13), grid.Pt(8, 19)},
	},
	{
		name: "Ferris Wheel", origin: grid.Pt(13, 9), entrance: grid.Pt(14, 8), exit: grid.Pt(14, 12),
		queue:    []grid.Point{grid.Pt(14, 6), grid.Pt(14, 7)},
		exitPath: [2]grid.Point{grid.Pt(14, 13), grid.Pt(14, 19)},
	},
	{
		name: "Swing Tower", origin: grid.Pt(24, 9), entrance: grid.Pt(23, 10), exit: grid.Pt(25, 12),
		queue:    []grid.Point{grid.Pt(21, 10), grid.Pt(22, 10)},
		exitPath: [2]grid.Point{grid.Pt(25, 13), grid.Pt(25, 19)},
	},
	{
		name: "Haunted House", origin: grid.Pt(29, 8), entrance: grid.Pt(30, 7), exit: grid.Pt(33, 10),
		queue:    []grid.Point{grid.Pt(31, 6), grid.Pt(31, 7)},
		exitPath: [2]grid.Point{grid.Pt(34, 10), grid.Pt(35, 10)},
	},
	{
		name: "Roller Coaster", origin: grid.Pt(7, 24), entrance: grid.Pt(9, 23), exit: grid.Pt(13, 25),
		queue:    []grid.Point{grid.Pt(9, 21), grid.Pt(9, 22)},
		exitPath: [2]grid.Point{grid.Pt(14, 25), grid.Pt(19, 25)},
	},
}

var demoFacilities = []demoFacility{
	{name: "Burger Stand", origin: grid.Pt(23, 22), door: grid.Pt(23, 21)},
	{name: "Soda Fountain", origin: grid.Pt(27, 22), door: grid.Pt(27, 21)},
	{name: "Souvenir Shop", origin: grid.Pt(31, 22), door: grid.Pt(31, 21)},
	{name: "Restroom", origin: grid.Pt(23, 29), door: grid.Pt(23, 31)},
	{name: "Hot Dog Stand", origin: grid.Pt(15, 29), door: grid.Pt(15, 31)},
	{name: "Lemonade Stand", origin: grid.Pt(27, 29), door: grid.Pt(27, 31)},
	{name: "Restroom", origin: grid.Pt(5, 14), door: grid.Pt(4, 14)},
}

var demoBins = []grid.Point{
	grid.Pt(10, 20), grid.Pt(30, 20), grid.Pt(20, 12), grid.Pt(20, 30), grid.Pt(10, 32), grid.Pt(30, 5),
}

// BuildDemo lays out a sample park: a street grid around a central avenue,
// five rides with queue lines, food, drink, souvenirs, restrooms and bins.
// The layout is centred horizontally with the gate on the bottom edge.
func BuildDemo(cfg *config.Config) (*Park, error) {
	if cfg.Park.Width < DemoSize || cfg.Park.Height < DemoSize {
		return nil, fmt.Errorf("demo park needs at least %dx%d, got %dx%d",
			DemoSize, DemoSize, cfg.Park.Width, cfg.Park.Height)
	}
	p := New(cfg)
	off := grid.Pt((cfg.Park.Width-DemoSize)/2, cfg.Park.Height-DemoSize)
	at := func(q grid.Point) grid.Point { return q.Add(off) }

	for _, s := range demoStreets {
		if err := p.PlacePathLine(at(s[0]), at(s[1])); err != nil {
			return nil, fmt.Errorf("demo street: %w", err)
		}
	}
	if err := p.SetParkEntrance(at(grid.Pt(20, 39))); err != nil {
		return nil, fmt.Errorf("demo gate: %w", err)
	}

	for i, d := range demoRides {
		def, ok := ride.DefinitionByName(cfg.Rides, d.name)
		if !ok {
			def = cfg.Rides[i%len(cfg.Rides)]
		}
		// Footprints are sized for the default catalog.
		if builtin, ok := ride.DefinitionByName(ride.DefaultDefinitions(), d.name); ok {
			def.Width, def.Height = builtin.Width, builtin.Height
		}
		r, err := p.PlaceRide(def, at(d.origin))
		if err != nil {
			return nil, fmt.Errorf("demo ride %s: %w", d.name, err)
		}
		if err := p.PlaceRideEntrance(r.ID, at(d.entrance)); err != nil {
			return nil, fmt.Errorf("demo ride %s: %w", d.name, err)
		}
		if err := p.PlaceRideExit(r.ID, at(d.exit)); err != nil {
			return nil, fmt.Errorf("demo ride %s: %w", d.name, err)
		}
		for _, q := range d.queue {
			if err := p.PlaceQueueTile(at(q)); err != nil {
				return nil, fmt.Errorf("demo ride %s queue: %w", d.name, err)
			}
		}
		if err := p.PlacePathLine(at(d.exitPath[0]), at(d.exitPath[1])); err != nil {
			return nil, fmt.Errorf("demo ride %s exit path: %w", d.name, err)
		}
	}

	catalog := DefaultFacilities()
	for _, d := range demoFacilities {
		var def FacilityDef
		for _, c := range catalog {
			if c.Name == d.name {
				def = c
				break
			}
		}
		if _, err := p.PlaceFacility(def, at(d.origin), at(d.door)); err != nil {
			return nil, fmt.Errorf("demo facility %s: %w", d.name, err)
		}
	}

	for _, b := range demoBins {
		if _, err := p.PlaceBin(at(b)); err != nil {
			return nil, fmt.Errorf("demo bin: %w", err)
		}
	}

	p.SyncQueues()
	slog.Info("demo park built",
		"rides", len(p.Rides),
		"facilities", len(p.Facilities),
		"bins", len(p.Bins),
		"queues", len(p.Queues.Paths()),
		"paths", p.Grid.Count(grid.TilePath),
	)
	return p, nil
}
