package economy

// GoodType identifies something a stall sells.
type GoodType uint8

const (
	GoodSouvenir GoodType = iota
	GoodBalloon
	GoodBurger
	GoodHotDog
	GoodIceCream
	GoodSoda
	GoodLemonade
	GoodCoffee
)

// LitterKind is what a guest is left holding after consuming a good.
type LitterKind uint8

const (
	LitterNone LitterKind = iota
	LitterWrapper
	LitterCup
)

func (l LitterKind) String() string {
	switch l {
	case LitterWrapper:
		return "wrapper"
	case LitterCup:
		return "cup"
	}
	return "none"
}

// Good describes one item and what it does for the guest who buys it.
type Good struct {
	Type      GoodType   `json:"type" yaml:"-"`
	Name      string     `json:"name" yaml:"name"`
	Price     Money      `json:"price" yaml:"price"`
	Hunger    float64    `json:"hunger" yaml:"hunger"`       // Restored hunger meter
	Thirst    float64    `json:"thirst" yaml:"thirst"`       // Restored thirst meter
	Happiness float64    `json:"happiness" yaml:"happiness"` // Happiness boost
	Litter    LitterKind `json:"litter" yaml:"litter"`
}

// Catalog returns the default price list.
func Catalog() map[GoodType]Good {
	return map[GoodType]Good{
		GoodSouvenir: {Type: GoodSouvenir, Name: "Souvenir", Price: 800, Happiness: 0.15},
		GoodBalloon:  {Type: GoodBalloon, Name: "Balloon", Price: 300, Happiness: 0.1},
		GoodBurger:   {Type: GoodBurger, Name: "Burger", Price: 650, Hunger: 0.6, Happiness: 0.05, Litter: LitterWrapper},
		GoodHotDog:   {Type: GoodHotDog, Name: "Hot Dog", Price: 450, Hunger: 0.45, Happiness: 0.04, Litter: LitterWrapper},
		GoodIceCream: {Type: GoodIceCream, Name: "Ice Cream", Price: 350, Hunger: 0.2, Thirst: 0.1, Happiness: 0.08, Litter: LitterWrapper},
		GoodSoda:     {Type: GoodSoda, Name: "Soda", Price: 250, Thirst: 0.5, Litter: LitterCup},
		GoodLemonade: {Type: GoodLemonade, Name: "Lemonade", Price: 300, Thirst: 0.6, Happiness: 0.03, Litter: LitterCup},
		GoodCoffee:   {Type: GoodCoffee, Name: "Coffee", Price: 275, Thirst: 0.35, Happiness: 0.02, Litter: LitterCup},
	}
}
