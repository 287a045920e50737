package layout

import "github.com/rohmanhakim/result-finder/internal/dom"

// Provider reports rendered geometry and visibility of document elements.
type Provider interface {
	BoundingBox(id dom.NodeID) Box
	IsVisible(id dom.NodeID) bool
}

// Static serves fixed boxes; elements without a box are empty and every
// element is visible unless hidden explicitly.
type Static struct {
	boxes  map[dom.NodeID]Box
	hidden dom.Set[dom.NodeID]
}

func NewStatic() *Static {
	return &Static{
		boxes:  make(map[dom.NodeID]Box),
		hidden: dom.NewSet[dom.NodeID](),
	}
}

func (s *Static) Set(id dom.NodeID, box Box) *Static {
	s.boxes[id] = box
	return s
}

func (s *Static) Hide(id dom.NodeID) *Static {
	s.hidden.Add(id)
	return s
}

func (s *Static) BoundingBox(id dom.NodeID) Box {
	return s.boxes[id]
}

func (s *Static) IsVisible(id dom.NodeID) bool {
	return !s.hidden.Contains(id)
}
