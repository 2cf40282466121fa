package location

import (
	geo "github.com/kellydunn/golang-geo"
)

// Path is a bounded trail of points. When full the oldest point is dropped. It is not safe for
// concurrent use.
type Path struct {
	points []*geo.Point
	start  int
	size   int
}

// NewPath returns an empty path holding at most capacity points.
func NewPath(capacity int) *Path {
	return &Path{points: make([]*geo.Point, capacity)}
}

// Append adds p as the newest point.
func (p *Path) Append(pt *geo.Point) {
	if len(p.points) == 0 {
		return
	}
	if p.size < len(p.points) {
		p.points[(p.start+p.size)%len(p.points)] = pt
		p.size++
		return
	}
	p.points[p.start] = pt
	p.start = (p.start + 1) % len(p.points)
}

// Len returns how many points are held.
func (p *Path) Len() int {
	return p.size
}

// Capacity returns the most points the path can hold.
func (p *Path) Capacity() int {
	return len(p.points)
}

// Points returns a copy of the points, oldest first.
func (p *Path) Points() []*geo.Point {
	out := make([]*geo.Point, p.size)
	for i := range out {
		out[i] = p.points[(p.start+i)%len(p.points)]
	}
	return out
}

// Reset drops every point.
func (p *Path) Reset() {
	clear(p.points)
	p.start = 0
	p.size = 0
}

// Distance returns the great circle length of the trail in kilometers.
func Distance(points []*geo.Point) float64 {
	var total float64
	for i := 1; i < len(points); i++ {
		total += points[i-1].GreatCircleDistance(points[i])
	}
	return total
}
