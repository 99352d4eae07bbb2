package queue

import (
	"github.com/zyedidia/generic/mapset"

	"github.com/talgya/parkworld/internal/grid"
)

// chain is a run of queue cells in the order the player painted them.
// Painting next to the tail extends it forwards; next to the head, backwards.
type chain struct {
	cells []grid.Point
}

func (c *chain) head() grid.Point { return c.cells[0] }
func (c *chain) tail() grid.Point { return c.cells[len(c.cells)-1] }

func (c *chain) indexOf(p grid.Point) int {
	for i, q := range c.cells {
		if q == p {
			return i
		}
	}
	return -1
}

// covers reports whether the chain holds exactly the cells of group and is
// still physically contiguous.
func (c *chain) covers(group []grid.Point) bool {
	if len(c.cells) != len(group) {
		return false
	}
	set := mapset.New[grid.Point]()
	for _, p := range c.cells {
		set.Put(p)
	}
	for _, p := range group {
		if !set.Has(p) {
			return false
		}
	}
	for i := 1; i < len(c.cells); i++ {
		if !grid.Adjacent(c.cells[i-1], c.cells[i]) {
			return false
		}
	}
	return true
}

// RecordPlaced notes a newly painted queue cell in the placement history.
func (m *Manager) RecordPlaced(p grid.Point) {
	for _, c := range m.chains {
		if c.indexOf(p) >= 0 {
			return
		}
	}

	target := -1
	atTail := false
	for i, c := range m.chains {
		if grid.Adjacent(c.tail(), p) {
			target, atTail = i, true
			break
		}
	}
	if target < 0 {
		for i, c := range m.chains {
			if grid.Adjacent(c.head(), p) {
				target = i
				break
			}
		}
	}
	if target < 0 {
		m.chains = append(m.chains, &chain{cells: []grid.Point{p}})
		return
	}

	c := m.chains[target]
	if atTail {
		c.cells = append(c.cells, p)
	} else {
		c.cells = append([]grid.Point{p}, c.cells...)
	}

	// The new cell may bridge two chains.
	for i, other := range m.chains {
		if i == target {
			continue
		}
		switch {
		case atTail && grid.Adjacent(other.head(), p):
			c.cells = append(c.cells, other.cells...)
		case atTail && grid.Adjacent(other.tail(), p):
			c.cells = append(c.cells, reversed(other.cells)...)
		case !atTail && grid.Adjacent(other.tail(), p):
			c.cells = append(append([]grid.Point(nil), other.cells...), c.cells...)
		case !atTail && grid.Adjacent(other.head(), p):
			c.cells = append(reversed(other.cells), c.cells...)
		default:
			continue
		}
		m.chains = append(m.chains[:i], m.chains[i+1:]...)
		return
	}
}

// RecordRemoved drops a cell from the placement history, splitting its chain.
func (m *Manager) RecordRemoved(p grid.Point) {
	for i, c := range m.chains {
		k := c.indexOf(p)
		if k < 0 {
			continue
		}
		var pieces []*chain
		if k > 0 {
			pieces = append(pieces, &chain{cells: append([]grid.Point(nil), c.cells[:k]...)})
		}
		if k < len(c.cells)-1 {
			pieces = append(pieces, &chain{cells: append([]grid.Point(nil), c.cells[k+1:]...)})
		}
		rest := append([]*chain(nil), m.chains[:i]...)
		rest = append(rest, pieces...)
		m.chains = append(rest, m.chains[i+1:]...)
		return
	}
}

// order arranges a traced group entrance to exit, preferring placement
// history when a chain covers the whole group.
func (m *Manager) order(g *grid.Grid, group []grid.Point) []grid.Point {
	for _, c := range m.chains {
		if c.covers(group) {
			return orient(g, append([]grid.Point(nil), c.cells...))
		}
	}
	return bfsOrder(g, group)
}
