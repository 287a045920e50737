package layout

import "math"

// Box is an element's border box in document coordinates (pixels, origin
// at the top-left corner of the page).
type Box struct {
	Top    float64 `json:"t"`
	Left   float64 `json:"l"`
	Width  float64 `json:"w"`
	Height float64 `json:"h"`
}

func (b Box) Bottom() float64 {
	return b.Top + b.Height
}

func (b Box) Right() float64 {
	return b.Left + b.Width
}

func (b Box) Area() float64 {
	return b.Width * b.Height
}

func (b Box) Empty() bool {
	return b.Width <= 0 || b.Height <= 0
}

// Union returns the smallest box covering both; an empty box is ignored.
func (b Box) Union(o Box) Box {
	if b.Empty() {
		return o
	}
	if o.Empty() {
		return b
	}
	top := math.Min(b.Top, o.Top)
	left := math.Min(b.Left, o.Left)
	bottom := math.Max(b.Bottom(), o.Bottom())
	right := math.Max(b.Right(), o.Right())
	return Box{Top: top, Left: left, Width: right - left, Height: bottom - top}
}
