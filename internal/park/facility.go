package park

import (
	"github.com/talgya/parkworld/internal/economy"
	"github.com/talgya/parkworld/internal/grid"
)

// FacilityKind distinguishes the non-ride buildings guests visit.
type FacilityKind uint8

const (
	KindShop FacilityKind = iota
	KindFood
	KindDrink
	KindRestroom
)

func (k FacilityKind) String() string {
	switch k {
	case KindFood:
		return "food"
	case KindDrink:
		return "drink"
	case KindRestroom:
		return "restroom"
	}
	return "shop"
}

// FacilityDef describes a building model.
type FacilityDef struct {
	Name   string           `json:"name"`
	Kind   FacilityKind     `json:"kind"`
	Width  int              `json:"width"`
	Height int              `json:"height"`
	Good   economy.GoodType `json:"good"` // Ignored for restrooms
}

// DefaultFacilities returns the built-in building catalog.
func DefaultFacilities() []FacilityDef {
	return []FacilityDef{
		{Name: "Souvenir Shop", Kind: KindShop, Width: 2, Height: 2, Good: economy.GoodSouvenir},
		{Name: "Balloon Cart", Kind: KindShop, Width: 1, Height: 1, Good: economy.GoodBalloon},
		{Name: "Burger Stand", Kind: KindFood, Width: 2, Height: 2, Good: economy.GoodBurger},
		{Name: "Hot Dog Stand", Kind: KindFood, Width: 2, Height: 2, Good: economy.GoodHotDog},
		{Name: "Soda Fountain", Kind: KindDrink, Width: 2, Height: 2, Good: economy.GoodSoda},
		{Name: "Lemonade Stand", Kind: KindDrink, Width: 2, Height: 2, Good: economy.GoodLemonade},
		{Name: "Restroom", Kind: KindRestroom, Width: 2, Height: 2},
	}
}

// Facility is a placed shop, stall or restroom. Guests use it standing on
// its door tile.
type Facility struct {
	ID        uint64       `json:"id"`
	Def       FacilityDef  `json:"definition"`
	Footprint grid.Rect    `json:"footprint"`
	Door      grid.Point   `json:"door"`
	Capacity  int          `json:"capacity"` // 0 means unlimited
	Occupants []uint64     `json:"occupants"`
	Good      economy.Good `json:"good"`
	Sales     int          `json:"sales"`
}

// Kind is shorthand for Def.Kind.
func (f *Facility) Kind() FacilityKind { return f.Def.Kind }

// Full reports whether no one else can enter.
func (f *Facility) Full() bool {
	return f.Capacity > 0 && len(f.Occupants) >= f.Capacity
}

// Enter admits a guest. It fails when the facility is full.
func (f *Facility) Enter(guestID uint64) bool {
	if f.Has(guestID) {
		return true
	}
	if f.Full() {
		return false
	}
	f.Occupants = append(f.Occupants, guestID)
	return true
}

// Leave removes a guest. Unknown guests are ignored.
func (f *Facility) Leave(guestID uint64) {
	for i, id := range f.Occupants {
		if id == guestID {
			f.Occupants = append(f.Occupants[:i:i], f.Occupants[i+1:]...)
			return
		}
	}
}

// Has reports whether the guest is inside.
func (f *Facility) Has(guestID uint64) bool {
	for _, id := range f.Occupants {
		if id == guestID {
			return true
		}
	}
	return false
}

// Bin is a litter bin standing on a walkway tile.
type Bin struct {
	Pos       grid.Point `json:"pos"`
	Fill      int        `json:"fill"`
	Capacity  int        `json:"capacity"`
	ClaimedBy uint64     `json:"claimed_by,omitempty"` // Janitor emptying it
}

// Full reports whether the bin accepts no more litter.
func (b *Bin) Full() bool { return b.Fill >= b.Capacity }

// Deposit adds one piece of litter. It fails when the bin is full.
func (b *Bin) Deposit() bool {
	if b.Full() {
		return false
	}
	b.Fill++
	return true
}

// Empty clears the bin.
func (b *Bin) Empty() {
	b.Fill = 0
	b.ClaimedBy = 0
}

// Litter is a piece of rubbish dropped on the ground.
type Litter struct {
	ID        uint64             `json:"id"`
	Pos       grid.Point         `json:"pos"`
	Kind      economy.LitterKind `json:"kind"`
	ClaimedBy uint64             `json:"claimed_by,omitempty"` // Janitor ID, 0 if none
}
