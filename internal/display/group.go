package display

import (
	"image/draw"

	"github.com/pkg/errors"
)

// Layer is anything that can be composited onto the display
type Layer interface {
	Draw(dst draw.Image)
}

// Group is an ordered list of layers, drawn first to last. A Group is itself
// a Layer. It is not safe for concurrent use; Graphics serialises access.
type Group struct {
	layers []Layer
	Hidden bool
}

// NewGroup returns a group holding layers, bottom first
func NewGroup(layers ...Layer) *Group {
	return &Group{layers: layers}
}

// Len returns the number of layers
func (g *Group) Len() int { return len(g.layers) }

// At returns layer i
func (g *Group) At(i int) Layer { return g.layers[i] }

// Append puts l on top
func (g *Group) Append(l Layer) {
	g.layers = append(g.layers, l)
}

// Insert puts l at position i, shifting later layers up
func (g *Group) Insert(i int, l Layer) error {
	if i < 0 || i > len(g.layers) {
		return errors.Errorf("group index %d out of range [0, %d]", i, len(g.layers))
	}
	g.layers = append(g.layers, nil)
	copy(g.layers[i+1:], g.layers[i:])
	g.layers[i] = l
	return nil
}

// Index returns the position of l, or -1
func (g *Group) Index(l Layer) int {
	for i, x := range g.layers {
		if x == l {
			return i
		}
	}
	return -1
}

// Set replaces the layer at position i
func (g *Group) Set(i int, l Layer) error {
	if i < 0 || i >= len(g.layers) {
		return errors.Errorf("group index %d out of range [0, %d)", i, len(g.layers))
	}
	g.layers[i] = l
	return nil
}

// Remove deletes the layer at position i
func (g *Group) Remove(i int) error {
	if i < 0 || i >= len(g.layers) {
		return errors.Errorf("group index %d out of range [0, %d)", i, len(g.layers))
	}
	g.layers = append(g.layers[:i], g.layers[i+1:]...)
	return nil
}

func (g *Group) Draw(dst draw.Image) {
	if g.Hidden {
		return
	}
	for _, l := range g.layers {
		l.Draw(dst)
	}
}
